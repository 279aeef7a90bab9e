package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/example/go-stream-tts/internal/audio"
	"github.com/example/go-stream-tts/internal/config"
	"github.com/example/go-stream-tts/internal/engine"
	"github.com/example/go-stream-tts/internal/g2p"
	"github.com/example/go-stream-tts/internal/result"
	"github.com/example/go-stream-tts/internal/synth"
	"github.com/example/go-stream-tts/internal/task"
	"github.com/example/go-stream-tts/internal/voice"
)

func newSynthCmd() *cobra.Command {
	var text string
	var out string
	var voiceID string
	var mixVoice string
	var mixWeight float64
	var speed float64
	var locale string
	var normalize bool
	var fadeInMS float64
	var fadeOutMS float64

	cmd := &cobra.Command{
		Use:   "synth",
		Short: "Synthesize text to WAV",
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

			selectedVoice := cfg.Synthesis.Voice
			if voiceID != "" {
				selectedVoice = voiceID
			}

			selectedSpeed := cfg.Synthesis.Speed
			if speed != 0 {
				selectedSpeed = speed
			}

			streaming := out == "-"
			if streaming && (normalize || fadeInMS > 0 || fadeOutMS > 0) {
				return fmt.Errorf("audio post-processing flags require a file output, not '-'")
			}

			eng, err := engine.NewORTEngine(engine.Config{
				ModelPath:   cfg.Paths.ModelPath,
				LibraryPath: cfg.Runtime.ORTLibraryPath,
				APIVersion:  cfg.Runtime.ORTAPIVersion,
				Threads:     cfg.Runtime.Threads,
			})
			if err != nil {
				return err
			}
			defer func() { _ = eng.Close() }()

			svc := synth.NewService(
				g2p.NewPhonemizer(cfg.Paths.LexiconPath),
				voice.NewStore(cfg.Paths.VoicesDir),
				synth.NewSynthesizer(eng,
					synth.WithChunkSamples(cfg.Synthesis.ChunkSamples),
					synth.WithMemoryThresholds(memoryThresholds(cfg.Memory)),
				),
				synth.WithRetryPolicy(retryPolicy(cfg.Retry)),
			)

			req := synth.Request{
				Text:        inputText,
				Voice:       selectedVoice,
				SecondVoice: mixVoice,
				MixWeight:   mixWeight,
				Locale:      selectedLocale,
				Speed:       selectedSpeed,
			}

			if streaming {
				return runStreaming(cmd.Context(), cfg, svc, req, os.Stdout)
			}

			return runBuffered(cmd.Context(), cfg, svc, req, out, synthDSPOptions{
				Normalize: normalize,
				FadeInMS:  fadeInMS,
				FadeOutMS: fadeOutMS,
			})
		},
	}

	cmd.Flags().StringVar(&text, "text", "", "Text to synthesize (if empty, read from stdin)")
	cmd.Flags().StringVar(&out, "out", "out.wav", "Output WAV path ('-' for streaming stdout)")
	cmd.Flags().StringVar(&voiceID, "voice", "", "Voice id (overrides config)")
	cmd.Flags().StringVar(&mixVoice, "mix-voice", "", "Second voice id for style blending")
	cmd.Flags().Float64Var(&mixWeight, "mix-weight", 0.5, "Blend weight toward --mix-voice, 0..1")
	cmd.Flags().Float64Var(&speed, "speed", 0, "Playback speed factor (overrides config)")
	cmd.Flags().StringVar(&locale, "locale", "", "Pronunciation locale (overrides config)")
	cmd.Flags().BoolVar(&normalize, "normalize", false, "Peak-normalize output audio")
	cmd.Flags().Float64Var(&fadeInMS, "fade-in-ms", 0, "Linear fade-in duration in milliseconds")
	cmd.Flags().Float64Var(&fadeOutMS, "fade-out-ms", 0, "Linear fade-out duration in milliseconds")

	return cmd
}

type synthDSPOptions struct {
	Normalize bool
	FadeInMS  float64
	FadeOutMS float64
}

// runStreaming writes a streaming WAV header and each chunk as it is
// produced.
func runStreaming(ctx context.Context, cfg config.Config, svc *synth.Service, req synth.Request, w io.Writer) error {
	if _, err := audio.WriteWAVHeaderStreaming(w); err != nil {
		return fmt.Errorf("write WAV header: %w", err)
	}

	var writeErr error
	report, err := speakSupervised(ctx, cfg, svc, req, func(pcm []byte) bool {
		if _, err := w.Write(pcm); err != nil {
			writeErr = err
			return false
		}
		return true
	})
	if err != nil {
		return err
	}
	if writeErr != nil {
		return fmt.Errorf("write audio: %w", writeErr)
	}

	return report.Err()
}

// runBuffered collects all PCM, applies post-processing, and writes a
// complete WAV file.
func runBuffered(ctx context.Context, cfg config.Config, svc *synth.Service, req synth.Request, out string, dsp synthDSPOptions) error {
	var pcm []byte
	report, err := speakSupervised(ctx, cfg, svc, req, func(chunk []byte) bool {
		pcm = append(pcm, chunk...)
		return true
	})
	if err != nil {
		return err
	}

	samples := audio.PCM16ToFloat(pcm)

	if dsp.Normalize {
		samples = audio.PeakNormalize(samples, 0.95)
	}
	if dsp.FadeInMS > 0 || dsp.FadeOutMS > 0 {
		fadeIn := int(dsp.FadeInMS * audio.SampleRate / 1000)
		fadeOut := int(dsp.FadeOutMS * audio.SampleRate / 1000)
		samples = audio.ApplyFade(samples, fadeIn, fadeOut)
	}

	encoded, err := audio.EncodeWAV(samples)
	if err != nil {
		return fmt.Errorf("encode WAV: %w", err)
	}

	if err := os.WriteFile(out, encoded, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", out, err)
	}

	return report.Err()
}

// speakSupervised runs the request as a supervised, timeout-bounded unit.
func speakSupervised(ctx context.Context, cfg config.Config, svc *synth.Service, req synth.Request, onChunk synth.ChunkFunc) (*synth.Report, error) {
	sup := task.NewSupervisor(ctx)
	defer func() { _ = sup.Close() }()

	return task.Execute(sup, "synthesize", cfg.Synthesis.RequestTimeout, func(ctx context.Context) (*synth.Report, error) {
		return svc.Speak(ctx, req, onChunk)
	})
}

// memoryThresholds converts memory settings into the guard's form, keeping
// the defaults for unset values.
func memoryThresholds(cfg config.MemoryConfig) result.MemoryThresholds {
	t := result.DefaultMemoryThresholds()
	if cfg.LowFreeMB > 0 {
		t.LowFreeMB = cfg.LowFreeMB
	}
	if cfg.CriticalFreeMB > 0 {
		t.CriticalFreeMB = cfg.CriticalFreeMB
	}

	return t
}

// retryPolicy converts retry settings into the pipeline's policy form.
func retryPolicy(cfg config.RetryConfig) result.RetryPolicy {
	policy := result.DefaultRetryPolicy()
	if cfg.MaxAttempts > 0 {
		policy.MaxAttempts = cfg.MaxAttempts
	}
	if cfg.InitialDelay > 0 {
		policy.InitialDelay = cfg.InitialDelay
	}
	if cfg.MaxDelay > 0 {
		policy.MaxDelay = cfg.MaxDelay
	}
	if cfg.BackoffMultiplier > 0 {
		policy.BackoffMultiplier = cfg.BackoffMultiplier
	}

	return policy
}

// readSynthText returns the explicit flag text, or reads stdin when empty.
func readSynthText(flagText string, stdin io.Reader) (string, error) {
	if flagText != "" {
		return flagText, nil
	}

	data, err := io.ReadAll(stdin)
	if err != nil {
		return "", fmt.Errorf("read stdin: %w", err)
	}

	text := strings.TrimSpace(string(data))
	if text == "" {
		return "", fmt.Errorf("no input text: pass --text or pipe text on stdin")
	}

	return text, nil
}
