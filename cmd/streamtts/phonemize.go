package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/example/go-stream-tts/internal/config"
	"github.com/example/go-stream-tts/internal/g2p"
)

func newPhonemizeCmd() *cobra.Command {
	var text string
	var locale string
	var raw bool

	cmd := &cobra.Command{
		Use:   "phonemize",
		Short: "Convert text to its phoneme transcription",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := requireConfig()
			if err != nil {
				return err
			}

			inputText, err := readSynthText(text, os.Stdin)
			if err != nil {
				return err
			}

			selectedLocale := cfg.Synthesis.Locale
			if locale != "" {
				selectedLocale = locale
			}
			selectedLocale, err = config.NormalizeLocale(selectedLocale)
			if err != nil {
				return err
			}

			normalized := inputText
			if !raw {
				normalized = g2p.NormalizeText(inputText)
			}

			phonemizer := g2p.NewPhonemizer(cfg.Paths.LexiconPath)
			for _, sentence := range g2p.SplitSentences(normalized) {
				fmt.Fprintln(cmd.OutOrStdout(), phonemizer.Phonemize(sentence, selectedLocale, false))
			}

			return nil
		},
	}

	cmd.Flags().StringVar(&text, "text", "", "Text to phonemize (if empty, read from stdin)")
	cmd.Flags().StringVar(&locale, "locale", "", "Pronunciation locale (overrides config)")
	cmd.Flags().BoolVar(&raw, "raw", false, "Skip the normalization pass inside phonemization")

	return cmd
}
