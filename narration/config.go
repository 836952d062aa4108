package narration

import (
	"fmt"
	"strings"
	"time"

	"golang.org/x/text/language"
)

// Backend names accepted by Config.Backend.
const (
	BackendAuto   = "auto"
	BackendMock   = "mock"
	BackendEspeak = "espeak"
	BackendPCM    = "pcm"
)

// Config contains all narration configuration options.
type Config struct {
	Backend           string `yaml:"backend" env:"NARRATE_NARRATION_BACKEND" envDefault:"auto"`
	ResetOnTextChange bool   `yaml:"reset_on_text_change" env:"NARRATE_NARRATION_RESET_ON_TEXT_CHANGE" envDefault:"true"`

	Pacing Pacing       `yaml:"pacing"`
	Locale LocaleConfig `yaml:"locale"`

	// Backend-specific configurations
	Espeak EspeakConfig `yaml:"espeak"`
	PCM    PCMConfig    `yaml:"pcm"`
	Mock   MockConfig   `yaml:"mock"`
}

// LocaleConfig names the tags the language detector chooses between.
type LocaleConfig struct {
	Default    string `yaml:"default" env:"NARRATE_NARRATION_LOCALE_DEFAULT" envDefault:"en-US"`
	Devanagari string `yaml:"devanagari" env:"NARRATE_NARRATION_LOCALE_DEVANAGARI" envDefault:"hi-IN"`
}

// EspeakConfig contains settings shared by the espeak and pcm backends.
type EspeakConfig struct {
	Binary    string            `yaml:"binary" env:"NARRATE_NARRATION_ESPEAK_BINARY"`
	Speed     int               `yaml:"speed" env:"NARRATE_NARRATION_ESPEAK_SPEED" envDefault:"175"`
	Amplitude int               `yaml:"amplitude" env:"NARRATE_NARRATION_ESPEAK_AMPLITUDE" envDefault:"100"`
	Voices    map[string]string `yaml:"voices"`
}

// PCMConfig contains settings for the oto-backed pcm backend.
type PCMConfig struct {
	CacheSize     int    `yaml:"cache_size" env:"NARRATE_NARRATION_PCM_CACHE_SIZE" envDefault:"16"`            // MiB
	DiskCacheSize int    `yaml:"disk_cache_size" env:"NARRATE_NARRATION_PCM_DISK_CACHE_SIZE" envDefault:"128"` // MiB, 0 disables
	CacheDir      string `yaml:"cache_dir" env:"NARRATE_NARRATION_PCM_CACHE_DIR"`
}

// MockConfig contains settings for the scripted mock backend.
type MockConfig struct {
	WordDuration time.Duration `yaml:"word_duration" env:"NARRATE_NARRATION_MOCK_WORD_DURATION" envDefault:"250ms"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Backend:           BackendAuto,
		ResetOnTextChange: true,
		Pacing:            DefaultPacing(),
		Locale: LocaleConfig{
			Default:    "en-US",
			Devanagari: "hi-IN",
		},
		Espeak: DefaultEspeakConfig(),
		PCM:    PCMConfig{CacheSize: 16, DiskCacheSize: 128},
		Mock:   MockConfig{WordDuration: 250 * time.Millisecond},
	}
}

// DefaultEspeakConfig returns default espeak settings.
func DefaultEspeakConfig() EspeakConfig {
	return EspeakConfig{
		Speed:     175,
		Amplitude: 100,
		Voices: map[string]string{
			"en-US": "en-us",
			"hi-IN": "hi",
		},
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	validBackends := []string{BackendAuto, BackendMock, BackendEspeak, BackendPCM}
	backendValid := false
	for _, b := range validBackends {
		if strings.EqualFold(c.Backend, b) {
			backendValid = true
			c.Backend = b
			break
		}
	}
	if !backendValid {
		return fmt.Errorf("%w: backend %q must be one of %v", ErrInvalidConfig, c.Backend, validBackends)
	}

	if err := c.Pacing.Validate(); err != nil {
		return err
	}

	if _, err := language.Parse(c.Locale.Default); err != nil {
		return fmt.Errorf("%w: locale.default %q: %v", ErrInvalidConfig, c.Locale.Default, err)
	}
	if _, err := language.Parse(c.Locale.Devanagari); err != nil {
		return fmt.Errorf("%w: locale.devanagari %q: %v", ErrInvalidConfig, c.Locale.Devanagari, err)
	}

	if c.Espeak.Speed < 80 || c.Espeak.Speed > 450 {
		return fmt.Errorf("%w: espeak.speed must be between 80 and 450, got %d", ErrInvalidConfig, c.Espeak.Speed)
	}
	if c.Espeak.Amplitude < 0 || c.Espeak.Amplitude > 200 {
		return fmt.Errorf("%w: espeak.amplitude must be between 0 and 200, got %d", ErrInvalidConfig, c.Espeak.Amplitude)
	}

	if c.PCM.CacheSize < 0 {
		return fmt.Errorf("%w: pcm.cache_size cannot be negative", ErrInvalidConfig)
	}
	if c.PCM.DiskCacheSize < 0 {
		return fmt.Errorf("%w: pcm.disk_cache_size cannot be negative", ErrInvalidConfig)
	}

	if c.Mock.WordDuration < 0 {
		return fmt.Errorf("%w: mock.word_duration cannot be negative", ErrInvalidConfig)
	}

	return nil
}

// DefaultLocale returns the parsed default locale tag.
func (c *Config) DefaultLocale() language.Tag {
	return parseTagOr(c.Locale.Default, language.AmericanEnglish)
}

// DevanagariLocale returns the parsed Devanagari locale tag.
func (c *Config) DevanagariLocale() language.Tag {
	return parseTagOr(c.Locale.Devanagari, language.MustParse("hi-IN"))
}

// VoiceFor returns the espeak voice mapped to a locale, falling back to the
// tag's base language.
func (c *EspeakConfig) VoiceFor(tag language.Tag) string {
	if v, ok := c.Voices[tag.String()]; ok && v != "" {
		return v
	}
	base, _ := tag.Base()
	return base.String()
}

func parseTagOr(s string, fallback language.Tag) language.Tag {
	tag, err := language.Parse(s)
	if err != nil {
		return fallback
	}
	return tag
}
