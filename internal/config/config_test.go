package config

import (
	"strings"
	"testing"
	"time"

	"github.com/spf13/viper"
)

// TestDefaultConfig tests that default configuration is valid.
func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if err := cfg.Validate(); err != nil {
		t.Errorf("Default config should be valid: %v", err)
	}

	if cfg.Studio.Language != "ar" || cfg.Studio.Dialect != "msa" || cfg.Studio.Voice != "v1" {
		t.Errorf("unexpected studio defaults: %+v", cfg.Studio)
	}
	if !cfg.Studio.OptimizedPronunciation {
		t.Error("optimized pronunciation should be on by default")
	}
	if cfg.Studio.Soundscape != "none" {
		t.Errorf("default soundscape = %q", cfg.Studio.Soundscape)
	}
}

// TestConfigValidation tests configuration validation.
func TestConfigValidation(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(*Config)
		wantErr bool
		errMsg  string
	}{
		{
			name:    "valid config",
			modify:  func(c *Config) {},
			wantErr: false,
		},
		{
			name: "rate limit too low",
			modify: func(c *Config) {
				c.Gemini.RequestsPerMinute = 0
			},
			wantErr: true,
			errMsg:  "requests_per_minute",
		},
		{
			name: "empty model",
			modify: func(c *Config) {
				c.Gemini.Model = " "
			},
			wantErr: true,
			errMsg:  "model cannot be empty",
		},
		{
			name: "buffer too small",
			modify: func(c *Config) {
				c.Audio.BufferSize = 10
			},
			wantErr: true,
			errMsg:  "buffer_size",
		},
		{
			name: "negative cache size",
			modify: func(c *Config) {
				c.Ambience.CacheMaxSize = -1
			},
			wantErr: true,
			errMsg:  "cache_max_size",
		},
		{
			name: "memory only cache",
			modify: func(c *Config) {
				c.Ambience.CacheMaxSize = 0
			},
			wantErr: false,
		},
		{
			name: "zero ffmpeg timeout",
			modify: func(c *Config) {
				c.Ambience.FFmpegTimeout = 0
			},
			wantErr: true,
			errMsg:  "ffmpeg_timeout",
		},
		{
			name: "unknown language",
			modify: func(c *Config) {
				c.Studio.Language = "de"
			},
			wantErr: true,
			errMsg:  "unsupported language",
		},
		{
			name: "dialect of another language",
			modify: func(c *Config) {
				c.Studio.Dialect = "us"
			},
			wantErr: true,
			errMsg:  "does not belong",
		},
		{
			name: "unknown voice",
			modify: func(c *Config) {
				c.Studio.Voice = "zzzz"
			},
			wantErr: true,
			errMsg:  "invalid voice selected",
		},
		{
			name: "unknown soundscape",
			modify: func(c *Config) {
				c.Studio.Soundscape = "forest"
			},
			wantErr: true,
			errMsg:  "unknown soundscape",
		},
		{
			name: "speed out of range",
			modify: func(c *Config) {
				c.Studio.Speed = 3
			},
			wantErr: true,
			errMsg:  "speed must be between",
		},
		{
			name: "pitch out of range",
			modify: func(c *Config) {
				c.Studio.Pitch = 21
			},
			wantErr: true,
			errMsg:  "pitch must be between",
		},
		{
			name: "stability out of range",
			modify: func(c *Config) {
				c.Studio.Stability = 101
			},
			wantErr: true,
			errMsg:  "stability must be between",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.modify(&cfg)

			err := cfg.Validate()
			if tt.wantErr {
				if err == nil {
					t.Fatal("Expected error but got none")
				}
				if !strings.Contains(err.Error(), tt.errMsg) {
					t.Errorf("Expected error containing %q, got %q", tt.errMsg, err.Error())
				}
			} else if err != nil {
				t.Errorf("Unexpected error: %v", err)
			}
		})
	}
}

func TestStudioNormalization(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Studio.Language = "EN"
	cfg.Studio.Dialect = ""
	cfg.Studio.Voice = "kore"

	if err := cfg.Validate(); err != nil {
		t.Fatal(err)
	}
	if cfg.Studio.Language != "en" || cfg.Studio.Dialect != "us" {
		t.Errorf("language/dialect = %q/%q, want en/us", cfg.Studio.Language, cfg.Studio.Dialect)
	}
	if cfg.Studio.Voice != "v2" {
		t.Errorf("voice = %q, want v2", cfg.Studio.Voice)
	}
}

func TestLoadFromViper(t *testing.T) {
	v := viper.New()
	SetDefaults(v)
	v.Set("gemini.api_key", "secret")
	v.Set("gemini.requests_per_minute", 30)
	v.Set("ambience.ffmpeg_timeout", "5s")
	v.Set("studio.language", "fr")
	v.Set("studio.voice", "Puck")
	v.Set("studio.speed", 1.5)
	v.Set("studio.optimized_pronunciation", false)
	v.Set("export.dir", "~/narrations")

	cfg, err := LoadFromViper(v)
	if err != nil {
		t.Fatal(err)
	}

	if cfg.Gemini.APIKey != "secret" || cfg.Gemini.RequestsPerMinute != 30 {
		t.Errorf("gemini = %+v", cfg.Gemini)
	}
	if cfg.Ambience.FFmpegTimeout != 5*time.Second {
		t.Errorf("ffmpeg timeout = %v", cfg.Ambience.FFmpegTimeout)
	}
	if cfg.Studio.Language != "fr" || cfg.Studio.Dialect != "fr" {
		t.Errorf("language change should select the default dialect, got %+v", cfg.Studio)
	}
	if cfg.Studio.Voice != "v3" {
		t.Errorf("voice = %q, want v3", cfg.Studio.Voice)
	}
	settings := cfg.Studio.Settings()
	if settings.Speed != 1.5 || settings.OptimizedPronunciation {
		t.Errorf("settings = %+v", settings)
	}
	if cfg.Export.Dir != "~/narrations" {
		t.Errorf("export dir = %q", cfg.Export.Dir)
	}
}

func TestLoadFromViperInvalid(t *testing.T) {
	v := viper.New()
	SetDefaults(v)
	v.Set("studio.pitch", 40)

	if _, err := LoadFromViper(v); err == nil || !strings.Contains(err.Error(), "invalid configuration") {
		t.Errorf("expected invalid configuration error, got %v", err)
	}
}

func TestAPIKeyFromEnvironment(t *testing.T) {
	t.Setenv("NATEQ_GEMINI_API_KEY", "")
	t.Setenv("GEMINI_API_KEY", "")
	t.Setenv("API_KEY", "from-env")

	v := viper.New()
	SetDefaults(v)

	cfg, err := LoadFromViper(v)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Gemini.APIKey != "from-env" {
		t.Errorf("api key = %q, want from-env", cfg.Gemini.APIKey)
	}
}

func TestCacheBytes(t *testing.T) {
	if got := (AmbienceConfig{CacheMaxSize: 2}).CacheBytes(); got != 2<<20 {
		t.Errorf("CacheBytes() = %d", got)
	}
}
