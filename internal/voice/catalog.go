// Package voice holds the static voice catalog and the style embedding store.
package voice

// Definition describes one installable voice. Definitions are immutable and
// constructed once at process start.
type Definition struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Locale string `json:"locale"`
	Gender string `json:"gender"`
}

// catalog is the fixed set of known voices, in display order.
var catalog = []Definition{
	{ID: "af_heart", Name: "Heart", Locale: "en-US", Gender: "female"},
	{ID: "af_bella", Name: "Bella", Locale: "en-US", Gender: "female"},
	{ID: "af_nicole", Name: "Nicole", Locale: "en-US", Gender: "female"},
	{ID: "af_sarah", Name: "Sarah", Locale: "en-US", Gender: "female"},
	{ID: "am_adam", Name: "Adam", Locale: "en-US", Gender: "male"},
	{ID: "am_michael", Name: "Michael", Locale: "en-US", Gender: "male"},
	{ID: "bf_emma", Name: "Emma", Locale: "en-GB", Gender: "female"},
	{ID: "bf_isabella", Name: "Isabella", Locale: "en-GB", Gender: "female"},
	{ID: "bm_george", Name: "George", Locale: "en-GB", Gender: "male"},
	{ID: "bm_lewis", Name: "Lewis", Locale: "en-GB", Gender: "male"},
}

// List returns the voice catalog in stable order.
func List() []Definition {
	return append([]Definition(nil), catalog...)
}

// Lookup returns the definition for id, if known.
func Lookup(id string) (Definition, bool) {
	for _, d := range catalog {
		if d.ID == id {
			return d, true
		}
	}

	return Definition{}, false
}
