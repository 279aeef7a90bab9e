// Package config loads streamtts settings from defaults, an optional
// config file, environment variables, and command-line flags, in rising
// precedence.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

type Config struct {
	Paths     PathsConfig     `mapstructure:"paths"`
	Runtime   RuntimeConfig   `mapstructure:"runtime"`
	Synthesis SynthesisConfig `mapstructure:"synthesis"`
	Retry     RetryConfig     `mapstructure:"retry"`
	Memory    MemoryConfig    `mapstructure:"memory"`
	LogLevel  string          `mapstructure:"log_level"`
}

type PathsConfig struct {
	ModelPath   string `mapstructure:"model_path"`
	LexiconPath string `mapstructure:"lexicon_path"`
	VoicesDir   string `mapstructure:"voices_dir"`
}

type RuntimeConfig struct {
	Threads        int    `mapstructure:"threads"`
	ORTLibraryPath string `mapstructure:"ort_library_path"`
	ORTAPIVersion  uint32 `mapstructure:"ort_api_version"`
}

type SynthesisConfig struct {
	Voice          string        `mapstructure:"voice"`
	Locale         string        `mapstructure:"locale"`
	Speed          float64       `mapstructure:"speed"`
	ChunkSamples   int           `mapstructure:"chunk_samples"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
}

type RetryConfig struct {
	MaxAttempts       int           `mapstructure:"max_attempts"`
	InitialDelay      time.Duration `mapstructure:"initial_delay"`
	MaxDelay          time.Duration `mapstructure:"max_delay"`
	BackoffMultiplier float64       `mapstructure:"backoff_multiplier"`
}

type MemoryConfig struct {
	LowFreeMB      uint64 `mapstructure:"low_free_mb"`
	CriticalFreeMB uint64 `mapstructure:"critical_free_mb"`
}

type LoadOptions struct {
	Cmd        flagBinder
	ConfigFile string
	Defaults   Config
}

type flagBinder interface {
	Flags() *pflag.FlagSet
}

func DefaultConfig() Config {
	return Config{
		Paths: PathsConfig{
			ModelPath:   "models/kokoro.onnx",
			LexiconPath: "models/lexicon.tsv",
			VoicesDir:   "models/voices",
		},
		Runtime: RuntimeConfig{
			Threads:        4,
			ORTLibraryPath: "",
			ORTAPIVersion:  0,
		},
		Synthesis: SynthesisConfig{
			Voice:          "af_heart",
			Locale:         "en-us",
			Speed:          1.0,
			ChunkSamples:   4096,
			RequestTimeout: 5 * time.Minute,
		},
		Retry: RetryConfig{
			MaxAttempts:       3,
			InitialDelay:      100 * time.Millisecond,
			MaxDelay:          2 * time.Second,
			BackoffMultiplier: 2.0,
		},
		Memory: MemoryConfig{
			LowFreeMB:      512,
			CriticalFreeMB: 128,
		},
		LogLevel: "info",
	}
}

func RegisterFlags(fs *pflag.FlagSet, defaults Config) {
	fs.String("paths-model-path", defaults.Paths.ModelPath, "Path to ONNX synthesis model")
	fs.String("paths-lexicon-path", defaults.Paths.LexiconPath, "Path to pronunciation lexicon (TSV)")
	fs.String("paths-voices-dir", defaults.Paths.VoicesDir, "Directory of voice style tables (.safetensors)")
	fs.Int("runtime-threads", defaults.Runtime.Threads, "ONNX Runtime intra-op thread count")
	fs.String("runtime-ort-library-path", defaults.Runtime.ORTLibraryPath, "Path to ONNX Runtime shared library")
	fs.String("ort-lib", defaults.Runtime.ORTLibraryPath, "Path to ONNX Runtime shared library (alias for --runtime-ort-library-path)")
	fs.Uint32("runtime-ort-api-version", defaults.Runtime.ORTAPIVersion, "ONNX Runtime C API version (0 = default)")
	fs.String("synthesis-voice", defaults.Synthesis.Voice, "Default voice id")
	fs.String("synthesis-locale", defaults.Synthesis.Locale, "Pronunciation locale (en-us or en-gb)")
	fs.Float64("synthesis-speed", defaults.Synthesis.Speed, "Playback speed factor")
	fs.Int("synthesis-chunk-samples", defaults.Synthesis.ChunkSamples, "Samples per streamed PCM chunk")
	fs.Duration("synthesis-request-timeout", defaults.Synthesis.RequestTimeout, "Per-request synthesis timeout")
	fs.Int("retry-max-attempts", defaults.Retry.MaxAttempts, "Max attempts for transient inference failures")
	fs.Duration("retry-initial-delay", defaults.Retry.InitialDelay, "Initial retry backoff delay")
	fs.Duration("retry-max-delay", defaults.Retry.MaxDelay, "Retry backoff delay cap")
	fs.Float64("retry-backoff-multiplier", defaults.Retry.BackoffMultiplier, "Retry backoff multiplier")
	fs.Uint64("memory-low-free-mb", defaults.Memory.LowFreeMB, "Free-memory level treated as low")
	fs.Uint64("memory-critical-free-mb", defaults.Memory.CriticalFreeMB, "Free-memory level treated as critical")
	fs.String("log-level", defaults.LogLevel, "Log level (debug, info, warn, error)")
}

func Load(opts LoadOptions) (Config, error) {
	v := viper.New()

	setDefaults(v, opts.Defaults)
	if opts.Cmd != nil {
		if err := v.BindPFlags(opts.Cmd.Flags()); err != nil {
			return Config{}, fmt.Errorf("bind flags: %w", err)
		}
	}
	registerAliases(v)

	v.SetEnvPrefix("STREAMTTS")
	replacer := strings.NewReplacer("-", "_", ".", "_", "__", "_")
	v.SetEnvKeyReplacer(replacer)
	if err := v.BindEnv("runtime.ort_library_path", "STREAMTTS_ORT_LIB", "ORT_LIBRARY_PATH"); err != nil {
		return Config{}, fmt.Errorf("bind ort env vars: %w", err)
	}
	v.AutomaticEnv()

	if opts.ConfigFile != "" {
		v.SetConfigFile(opts.ConfigFile)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config file: %w", err)
		}
	} else {
		v.SetConfigName("streamtts")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return Config{}, fmt.Errorf("read config file: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper, c Config) {
	v.SetDefault("paths.model_path", c.Paths.ModelPath)
	v.SetDefault("paths.lexicon_path", c.Paths.LexiconPath)
	v.SetDefault("paths.voices_dir", c.Paths.VoicesDir)
	v.SetDefault("runtime.threads", c.Runtime.Threads)
	v.SetDefault("runtime.ort_library_path", c.Runtime.ORTLibraryPath)
	v.SetDefault("runtime.ort_api_version", c.Runtime.ORTAPIVersion)
	v.SetDefault("synthesis.voice", c.Synthesis.Voice)
	v.SetDefault("synthesis.locale", c.Synthesis.Locale)
	v.SetDefault("synthesis.speed", c.Synthesis.Speed)
	v.SetDefault("synthesis.chunk_samples", c.Synthesis.ChunkSamples)
	v.SetDefault("synthesis.request_timeout", c.Synthesis.RequestTimeout)
	v.SetDefault("retry.max_attempts", c.Retry.MaxAttempts)
	v.SetDefault("retry.initial_delay", c.Retry.InitialDelay)
	v.SetDefault("retry.max_delay", c.Retry.MaxDelay)
	v.SetDefault("retry.backoff_multiplier", c.Retry.BackoffMultiplier)
	v.SetDefault("memory.low_free_mb", c.Memory.LowFreeMB)
	v.SetDefault("memory.critical_free_mb", c.Memory.CriticalFreeMB)
	v.SetDefault("log_level", c.LogLevel)
}

func registerAliases(v *viper.Viper) {
	v.RegisterAlias("paths.model_path", "paths-model-path")
	v.RegisterAlias("paths.lexicon_path", "paths-lexicon-path")
	v.RegisterAlias("paths.voices_dir", "paths-voices-dir")
	v.RegisterAlias("runtime.threads", "runtime-threads")
	v.RegisterAlias("runtime.ort_library_path", "runtime-ort-library-path")
	v.RegisterAlias("runtime.ort_library_path", "ort-lib")
	v.RegisterAlias("runtime.ort_api_version", "runtime-ort-api-version")
	v.RegisterAlias("synthesis.voice", "synthesis-voice")
	v.RegisterAlias("synthesis.locale", "synthesis-locale")
	v.RegisterAlias("synthesis.speed", "synthesis-speed")
	v.RegisterAlias("synthesis.chunk_samples", "synthesis-chunk-samples")
	v.RegisterAlias("synthesis.request_timeout", "synthesis-request-timeout")
	v.RegisterAlias("retry.max_attempts", "retry-max-attempts")
	v.RegisterAlias("retry.initial_delay", "retry-initial-delay")
	v.RegisterAlias("retry.max_delay", "retry-max-delay")
	v.RegisterAlias("retry.backoff_multiplier", "retry-backoff-multiplier")
	v.RegisterAlias("memory.low_free_mb", "memory-low-free-mb")
	v.RegisterAlias("memory.critical_free_mb", "memory-critical-free-mb")
	v.RegisterAlias("log_level", "log-level")
}
