package config

import (
	"fmt"

	"github.com/spf13/viper"
)

// LoadFromViper loads the configuration from v. Unset keys keep their
// defaults.
func LoadFromViper(v *viper.Viper) (Config, error) {
	cfg := DefaultConfig()

	// Gemini settings
	if v.IsSet("gemini.api_key") {
		cfg.Gemini.APIKey = v.GetString("gemini.api_key")
	}
	if v.IsSet("gemini.model") {
		cfg.Gemini.Model = v.GetString("gemini.model")
	}
	if v.IsSet("gemini.requests_per_minute") {
		cfg.Gemini.RequestsPerMinute = v.GetInt("gemini.requests_per_minute")
	}

	// Audio settings
	if v.IsSet("audio.buffer_size") {
		cfg.Audio.BufferSize = v.GetInt("audio.buffer_size")
	}

	// Ambience settings
	if v.IsSet("ambience.cache_dir") {
		cfg.Ambience.CacheDir = v.GetString("ambience.cache_dir")
	}
	if v.IsSet("ambience.cache_max_size") {
		cfg.Ambience.CacheMaxSize = v.GetInt("ambience.cache_max_size")
	}
	if v.IsSet("ambience.ffmpeg") {
		cfg.Ambience.FFmpeg = v.GetString("ambience.ffmpeg")
	}
	if v.IsSet("ambience.ffmpeg_timeout") {
		cfg.Ambience.FFmpegTimeout = v.GetDuration("ambience.ffmpeg_timeout")
	}

	// Studio settings
	if v.IsSet("studio.language") {
		cfg.Studio.Language = v.GetString("studio.language")
		// a language change without a dialect picks the language default
		if !v.IsSet("studio.dialect") {
			cfg.Studio.Dialect = ""
		}
	}
	if v.IsSet("studio.dialect") {
		cfg.Studio.Dialect = v.GetString("studio.dialect")
	}
	if v.IsSet("studio.voice") {
		cfg.Studio.Voice = v.GetString("studio.voice")
	}
	if v.IsSet("studio.soundscape") {
		cfg.Studio.Soundscape = v.GetString("studio.soundscape")
	}
	if v.IsSet("studio.speed") {
		cfg.Studio.Speed = v.GetFloat64("studio.speed")
	}
	if v.IsSet("studio.pitch") {
		cfg.Studio.Pitch = v.GetInt("studio.pitch")
	}
	if v.IsSet("studio.stability") {
		cfg.Studio.Stability = v.GetInt("studio.stability")
	}
	if v.IsSet("studio.optimized_pronunciation") {
		cfg.Studio.OptimizedPronunciation = v.GetBool("studio.optimized_pronunciation")
	}

	// Export settings
	if v.IsSet("export.dir") {
		cfg.Export.Dir = v.GetString("export.dir")
	}

	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// SetDefaults registers the defaults in v and binds the provider key to
// its conventional environment variables.
func SetDefaults(v *viper.Viper) {
	defaults := DefaultConfig()

	_ = v.BindEnv("gemini.api_key", "NATEQ_GEMINI_API_KEY", "GEMINI_API_KEY", "API_KEY")
	v.SetDefault("gemini.model", defaults.Gemini.Model)
	v.SetDefault("gemini.requests_per_minute", defaults.Gemini.RequestsPerMinute)

	v.SetDefault("audio.buffer_size", defaults.Audio.BufferSize)

	v.SetDefault("ambience.cache_max_size", defaults.Ambience.CacheMaxSize)
	v.SetDefault("ambience.ffmpeg", defaults.Ambience.FFmpeg)
	v.SetDefault("ambience.ffmpeg_timeout", defaults.Ambience.FFmpegTimeout.String())

	v.SetDefault("export.dir", defaults.Export.Dir)
}
