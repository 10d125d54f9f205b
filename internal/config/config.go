// Package config holds the user settings read from autocast.yml, the
// environment and command line flags.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/dgnsrekt/autocast/internal/cache"
	"github.com/dgnsrekt/autocast/internal/i18n"
	"github.com/dgnsrekt/autocast/internal/podcast"
	"github.com/dgnsrekt/autocast/internal/speech"
	"github.com/mitchellh/go-homedir"
	gap "github.com/muesli/go-app-paths"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// AppName scopes config, cache and log directories.
const AppName = "autocast"

// EnvPrefix prefixes environment overrides, e.g. AUTOCAST_VOICE.
const EnvPrefix = "AUTOCAST"

// ErrInvalid is wrapped by every validation failure.
var ErrInvalid = errors.New("invalid configuration")

// Settings is the complete user configuration.
type Settings struct {
	Endpoint    string `yaml:"endpoint" mapstructure:"endpoint"`
	EndpointURL string `yaml:"endpoint_url,omitempty" mapstructure:"endpoint_url"`
	APIKey      string `yaml:"api_key,omitempty" mapstructure:"api_key"`

	// Locale is the interface language.
	Locale string `yaml:"locale,omitempty" mapstructure:"locale"`
	Debug  bool   `yaml:"debug,omitempty" mapstructure:"debug"`

	Script  ScriptSettings  `yaml:"script" mapstructure:"script"`
	Speech  SpeechSettings  `yaml:"speech" mapstructure:"speech"`
	Cache   CacheSettings   `yaml:"cache" mapstructure:"cache"`
	Network NetworkSettings `yaml:"network" mapstructure:"network"`

	OutputDir string `yaml:"output_dir,omitempty" mapstructure:"output_dir"`
}

// ScriptSettings control script generation.
type ScriptSettings struct {
	Model        string  `yaml:"model" mapstructure:"model"`
	Language     string  `yaml:"language" mapstructure:"language"`
	Temperature  float64 `yaml:"temperature" mapstructure:"temperature"`
	MaxTokens    int     `yaml:"max_tokens" mapstructure:"max_tokens"`
	Template     string  `yaml:"template" mapstructure:"template"`
	CustomPrompt string  `yaml:"custom_prompt,omitempty" mapstructure:"custom_prompt"`
}

// SpeechSettings control synthesis.
type SpeechSettings struct {
	Model       string  `yaml:"model" mapstructure:"model"`
	Voice       string  `yaml:"voice" mapstructure:"voice"`
	Speed       float64 `yaml:"speed" mapstructure:"speed"`
	Concurrency int     `yaml:"concurrency" mapstructure:"concurrency"`
	ChunkSize   int     `yaml:"chunk_size" mapstructure:"chunk_size"`
}

// CacheSettings size the audio cache.
type CacheSettings struct {
	Enabled    bool   `yaml:"enabled" mapstructure:"enabled"`
	Dir        string `yaml:"dir,omitempty" mapstructure:"dir"`
	MemoryMB   int    `yaml:"memory_mb" mapstructure:"memory_mb"`
	DiskMB     int    `yaml:"disk_mb" mapstructure:"disk_mb"`
	MaxAgeDays int    `yaml:"max_age_days" mapstructure:"max_age_days"`
}

// NetworkSettings tune API requests.
type NetworkSettings struct {
	Timeout           time.Duration `yaml:"timeout" mapstructure:"timeout"`
	MaxRetries        int           `yaml:"max_retries" mapstructure:"max_retries"`
	RequestsPerMinute int           `yaml:"requests_per_minute" mapstructure:"requests_per_minute"`
}

// Default returns the built-in settings.
func Default() Settings {
	return Settings{
		Endpoint: podcast.DefaultEndpoint,
		Script: ScriptSettings{
			Model:       podcast.DefaultScriptModel,
			Language:    i18n.DefaultLocale,
			Temperature: podcast.DefaultTemperature,
			MaxTokens:   podcast.DefaultMaxTokens,
			Template:    podcast.DefaultTemplate,
		},
		Speech: SpeechSettings{
			Model:       podcast.DefaultTTSModel,
			Voice:       podcast.DefaultVoice,
			Speed:       speech.DefaultSpeed,
			Concurrency: speech.DefaultConcurrency,
			ChunkSize:   speech.MaxInputRunes,
		},
		Cache: CacheSettings{
			Enabled:    true,
			MemoryMB:   64,
			DiskMB:     512,
			MaxAgeDays: 30,
		},
		Network: NetworkSettings{
			Timeout:           2 * time.Minute,
			MaxRetries:        2,
			RequestsPerMinute: 0,
		},
	}
}

// SetDefaults registers the built-in settings with v.
func SetDefaults(v *viper.Viper) {
	d := Default()
	v.SetDefault("endpoint", d.Endpoint)
	v.SetDefault("endpoint_url", d.EndpointURL)
	v.SetDefault("locale", d.Locale)
	v.SetDefault("debug", d.Debug)
	v.SetDefault("output_dir", d.OutputDir)

	v.SetDefault("script.model", d.Script.Model)
	v.SetDefault("script.language", d.Script.Language)
	v.SetDefault("script.temperature", d.Script.Temperature)
	v.SetDefault("script.max_tokens", d.Script.MaxTokens)
	v.SetDefault("script.template", d.Script.Template)
	v.SetDefault("script.custom_prompt", d.Script.CustomPrompt)

	v.SetDefault("speech.model", d.Speech.Model)
	v.SetDefault("speech.voice", d.Speech.Voice)
	v.SetDefault("speech.speed", d.Speech.Speed)
	v.SetDefault("speech.concurrency", d.Speech.Concurrency)
	v.SetDefault("speech.chunk_size", d.Speech.ChunkSize)

	v.SetDefault("cache.enabled", d.Cache.Enabled)
	v.SetDefault("cache.dir", d.Cache.Dir)
	v.SetDefault("cache.memory_mb", d.Cache.MemoryMB)
	v.SetDefault("cache.disk_mb", d.Cache.DiskMB)
	v.SetDefault("cache.max_age_days", d.Cache.MaxAgeDays)

	v.SetDefault("network.timeout", d.Network.Timeout)
	v.SetDefault("network.max_retries", d.Network.MaxRetries)
	v.SetDefault("network.requests_per_minute", d.Network.RequestsPerMinute)
}

// BindEnv binds the API key to AUTOCAST_API_KEY, falling back to
// OPENAI_API_KEY. Other keys follow v's AutomaticEnv with EnvPrefix.
func BindEnv(v *viper.Viper) {
	_ = v.BindEnv("api_key", EnvPrefix+"_API_KEY", "OPENAI_API_KEY")
}

// Load decodes and validates the settings held by v.
func Load(v *viper.Viper) (Settings, error) {
	s := Default()
	if err := v.Unmarshal(&s); err != nil {
		return s, fmt.Errorf("unable to decode settings: %w", err)
	}
	if err := s.Validate(); err != nil {
		return s, err
	}
	return s, nil
}

// Validate checks ranges and resolves catalog names, such as a voice
// prefix, to their canonical IDs.
func (s *Settings) Validate() error {
	invalid := func(format string, args ...any) error {
		return fmt.Errorf("%w: %s", ErrInvalid, fmt.Sprintf(format, args...))
	}

	s.Endpoint = strings.TrimSpace(s.Endpoint)
	if s.Endpoint == "" {
		s.Endpoint = podcast.DefaultEndpoint
	}
	if _, ok := podcast.LookupEndpoint(strings.ToLower(s.Endpoint)); !ok && !strings.Contains(s.Endpoint, "://") {
		return invalid("unknown endpoint %q", s.Endpoint)
	}
	if s.Locale != "" && !i18n.IsSupported(s.Locale) {
		return invalid("unsupported locale %q (choose from %s)", s.Locale, strings.Join(i18n.Supported, ", "))
	}

	if !i18n.IsSupported(s.Script.Language) {
		return invalid("unsupported script language %q (choose from %s)", s.Script.Language, strings.Join(i18n.Supported, ", "))
	}
	s.Script.Model = podcast.ResolveScriptModel(s.Script.Model)
	if s.Script.Model == "" {
		return invalid("script model is required")
	}
	opts := podcast.Options{Temperature: s.Script.Temperature, MaxTokens: s.Script.MaxTokens}
	if err := opts.Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalid, err)
	}
	t, err := podcast.ResolveTemplate(s.Script.Template)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalid, err)
	}
	s.Script.Template = t

	if s.Speech.Model, err = podcast.ResolveTTSModel(s.Speech.Model); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalid, err)
	}
	if s.Speech.Voice, err = podcast.ResolveVoice(s.Speech.Voice); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalid, err)
	}
	if s.Speech.Speed < speech.MinSpeed || s.Speech.Speed > speech.MaxSpeed {
		return invalid("speech speed must be between %.2f and %.1f, got %.2f", speech.MinSpeed, speech.MaxSpeed, s.Speech.Speed)
	}
	if s.Speech.Concurrency < 1 || s.Speech.Concurrency > 16 {
		return invalid("speech concurrency must be between 1 and 16, got %d", s.Speech.Concurrency)
	}
	if s.Speech.ChunkSize < 100 || s.Speech.ChunkSize > speech.MaxInputRunes {
		return invalid("speech chunk size must be between 100 and %d, got %d", speech.MaxInputRunes, s.Speech.ChunkSize)
	}

	if s.Cache.Enabled {
		if s.Cache.MemoryMB < 1 || s.Cache.DiskMB < 1 {
			return invalid("cache sizes must be at least 1 MB")
		}
		if s.Cache.MaxAgeDays < 0 {
			return invalid("cache max age must not be negative")
		}
	}
	if s.Network.MaxRetries < 0 || s.Network.RequestsPerMinute < 0 || s.Network.Timeout < 0 {
		return invalid("network settings must not be negative")
	}
	return nil
}

// ClientOptions builds the API connection for these settings. The endpoint
// is resolved here so a placeholder URL fails only when a request is made.
func (s Settings) ClientOptions(tr i18n.Translator) (podcast.Options, error) {
	e, err := podcast.ResolveEndpoint(s.Endpoint, s.EndpointURL)
	if err != nil {
		return podcast.Options{}, err
	}
	return podcast.Options{
		APIKey:            strings.TrimSpace(s.APIKey),
		BaseURL:           e.URL,
		Model:             s.Script.Model,
		Temperature:       s.Script.Temperature,
		MaxTokens:         s.Script.MaxTokens,
		MaxRetries:        s.Network.MaxRetries,
		Timeout:           s.Network.Timeout,
		RequestsPerMinute: s.Network.RequestsPerMinute,
		Translator:        tr,
	}, nil
}

// CacheConfig sizes the audio cache. An empty directory means the user
// cache directory.
func (s Settings) CacheConfig() (cache.Config, error) {
	dir := ExpandPath(s.Cache.Dir)
	if dir == "" {
		base, err := gap.NewScope(gap.User, AppName).CacheDir()
		if err != nil {
			return cache.Config{}, fmt.Errorf("unable to find cache directory: %w", err)
		}
		dir = filepath.Join(base, "audio")
	}
	cfg := cache.DefaultConfig(dir)
	cfg.MemoryCapacity = int64(s.Cache.MemoryMB) << 20
	cfg.DiskCapacity = int64(s.Cache.DiskMB) << 20
	return cfg, nil
}

// Redacted returns a copy safe to print.
func (s Settings) Redacted() Settings {
	if k := s.APIKey; k != "" {
		if len(k) > 8 {
			s.APIKey = k[:3] + "..." + k[len(k)-4:]
		} else {
			s.APIKey = "***"
		}
	}
	return s
}

// Save writes s as YAML to path, creating parent directories. The file may
// hold an API key, so it is private to the user.
func (s Settings) Save(path string) error {
	b, err := yaml.Marshal(s)
	if err != nil {
		return fmt.Errorf("unable to encode settings: %w", err)
	}
	path = ExpandPath(path)
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("unable to create config directory: %w", err)
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, b, 0o600); err != nil {
		return fmt.Errorf("unable to write config: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("unable to write config: %w", err)
	}
	return nil
}

// ExpandPath expands environment variables and a leading ~.
func ExpandPath(path string) string {
	path = os.ExpandEnv(strings.TrimSpace(path))
	if p, err := homedir.Expand(path); err == nil {
		return p
	}
	return path
}
