package narration

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
	"golang.org/x/text/language"
)

// LoadConfigFromViper loads narration configuration from Viper.
func LoadConfigFromViper() (Config, error) {
	return LoadConfig(viper.GetViper())
}

// LoadConfig loads narration configuration from the given Viper instance.
func LoadConfig(v *viper.Viper) (Config, error) {
	cfg := DefaultConfig()

	if v.IsSet("narration.backend") {
		cfg.Backend = v.GetString("narration.backend")
	}
	if v.IsSet("narration.reset_on_text_change") {
		cfg.ResetOnTextChange = v.GetBool("narration.reset_on_text_change")
	}

	// Pacing tiers
	cfg.Pacing.SentenceDelay = durationOr(v, "narration.pacing.sentence_delay", cfg.Pacing.SentenceDelay)
	cfg.Pacing.ClauseDelay = durationOr(v, "narration.pacing.clause_delay", cfg.Pacing.ClauseDelay)
	cfg.Pacing.DefaultDelay = durationOr(v, "narration.pacing.default_delay", cfg.Pacing.DefaultDelay)

	// Locales
	if v.IsSet("narration.locale.default") {
		cfg.Locale.Default = v.GetString("narration.locale.default")
	}
	if v.IsSet("narration.locale.devanagari") {
		cfg.Locale.Devanagari = v.GetString("narration.locale.devanagari")
	}

	cfg.Espeak = loadEspeakConfig(v)

	if v.IsSet("narration.pcm.cache_size") {
		cfg.PCM.CacheSize = v.GetInt("narration.pcm.cache_size")
	}
	if v.IsSet("narration.pcm.disk_cache_size") {
		cfg.PCM.DiskCacheSize = v.GetInt("narration.pcm.disk_cache_size")
	}
	if v.IsSet("narration.pcm.cache_dir") {
		cfg.PCM.CacheDir = v.GetString("narration.pcm.cache_dir")
	}
	cfg.Mock.WordDuration = durationOr(v, "narration.mock.word_duration", cfg.Mock.WordDuration)

	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid narration configuration: %w", err)
	}

	return cfg, nil
}

// loadEspeakConfig loads espeak-specific configuration from Viper.
func loadEspeakConfig(v *viper.Viper) EspeakConfig {
	cfg := DefaultEspeakConfig()

	if v.IsSet("narration.espeak.binary") {
		cfg.Binary = v.GetString("narration.espeak.binary")
	}
	if v.IsSet("narration.espeak.speed") {
		cfg.Speed = v.GetInt("narration.espeak.speed")
	}
	if v.IsSet("narration.espeak.amplitude") {
		cfg.Amplitude = v.GetInt("narration.espeak.amplitude")
	}
	if v.IsSet("narration.espeak.voices") {
		// Viper lowercases map keys, so restore canonical tag casing.
		for k, voice := range v.GetStringMapString("narration.espeak.voices") {
			if tag, err := language.Parse(k); err == nil {
				k = tag.String()
			}
			cfg.Voices[k] = voice
		}
	}

	return cfg
}

// SetDefaults sets default values in Viper for narration configuration.
func SetDefaults() {
	SetDefaultsOn(viper.GetViper())
}

// SetDefaultsOn sets narration defaults on the given Viper instance.
func SetDefaultsOn(v *viper.Viper) {
	defaults := DefaultConfig()

	v.SetDefault("narration.backend", defaults.Backend)
	v.SetDefault("narration.reset_on_text_change", defaults.ResetOnTextChange)

	v.SetDefault("narration.pacing.sentence_delay", defaults.Pacing.SentenceDelay.String())
	v.SetDefault("narration.pacing.clause_delay", defaults.Pacing.ClauseDelay.String())
	v.SetDefault("narration.pacing.default_delay", defaults.Pacing.DefaultDelay.String())

	v.SetDefault("narration.locale.default", defaults.Locale.Default)
	v.SetDefault("narration.locale.devanagari", defaults.Locale.Devanagari)

	v.SetDefault("narration.espeak.speed", defaults.Espeak.Speed)
	v.SetDefault("narration.espeak.amplitude", defaults.Espeak.Amplitude)

	v.SetDefault("narration.pcm.cache_size", defaults.PCM.CacheSize)
	v.SetDefault("narration.pcm.disk_cache_size", defaults.PCM.DiskCacheSize)
	v.SetDefault("narration.mock.word_duration", defaults.Mock.WordDuration.String())
}

func durationOr(v *viper.Viper, key string, fallback time.Duration) time.Duration {
	if !v.IsSet(key) {
		return fallback
	}
	d, err := time.ParseDuration(v.GetString(key))
	if err != nil {
		return fallback
	}
	return d
}
