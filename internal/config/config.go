// Package config loads and validates the nateq configuration.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/dgnsrekt/nateq/internal/catalog"
	"github.com/dgnsrekt/nateq/internal/tts"
	"github.com/dgnsrekt/nateq/internal/tts/engines"
)

// Config contains all nateq configuration options.
type Config struct {
	Gemini   GeminiConfig   `yaml:"gemini"`
	Audio    AudioConfig    `yaml:"audio"`
	Ambience AmbienceConfig `yaml:"ambience"`
	Studio   StudioConfig   `yaml:"studio"`
	Export   ExportConfig   `yaml:"export"`
}

// GeminiConfig contains the synthesis provider settings.
type GeminiConfig struct {
	APIKey            string `yaml:"api_key"`
	Model             string `yaml:"model"`
	RequestsPerMinute int    `yaml:"requests_per_minute"`
}

// AudioConfig contains playback device settings.
type AudioConfig struct {
	BufferSize int `yaml:"buffer_size"`
}

// AmbienceConfig contains soundscape download and cache settings.
type AmbienceConfig struct {
	// CacheDir holds decoded clips. Empty selects the user cache dir.
	CacheDir string `yaml:"cache_dir"`

	// CacheMaxSize is the disk budget in megabytes. Zero keeps clips in
	// memory only.
	CacheMaxSize int `yaml:"cache_max_size"`

	FFmpeg        string        `yaml:"ffmpeg"`
	FFmpegTimeout time.Duration `yaml:"ffmpeg_timeout"`
}

// StudioConfig holds the selections a new session starts with.
type StudioConfig struct {
	Language               string  `yaml:"language"`
	Dialect                string  `yaml:"dialect"`
	Voice                  string  `yaml:"voice"`
	Soundscape             string  `yaml:"soundscape"`
	Speed                  float64 `yaml:"speed"`
	Pitch                  int     `yaml:"pitch"`
	Stability              int     `yaml:"stability"`
	OptimizedPronunciation bool    `yaml:"optimized_pronunciation"`
}

// ExportConfig contains where exported audio goes.
type ExportConfig struct {
	Dir string `yaml:"dir"`
}

// DefaultConfig returns a Config with the studio defaults.
func DefaultConfig() Config {
	settings := tts.DefaultAudioSettings()
	return Config{
		Gemini: GeminiConfig{
			Model:             engines.DefaultModel,
			RequestsPerMinute: 10,
		},
		Audio: AudioConfig{
			BufferSize: 4096,
		},
		Ambience: AmbienceConfig{
			CacheMaxSize:  512,
			FFmpeg:        "ffmpeg",
			FFmpegTimeout: 30 * time.Second,
		},
		Studio: StudioConfig{
			Language:               string(tts.LanguageArabic),
			Dialect:                catalog.DefaultDialect(tts.LanguageArabic),
			Voice:                  "v1",
			Soundscape:             catalog.NoSoundscape,
			Speed:                  settings.Speed,
			Pitch:                  settings.Pitch,
			Stability:              settings.Stability,
			OptimizedPronunciation: settings.OptimizedPronunciation,
		},
		Export: ExportConfig{
			Dir: ".",
		},
	}
}

// Validate checks the configuration and normalizes the studio selections:
// an empty dialect becomes the language default and the voice is resolved
// to its catalog id.
func (c *Config) Validate() error {
	if c.Gemini.RequestsPerMinute < 1 || c.Gemini.RequestsPerMinute > 600 {
		return fmt.Errorf("gemini requests_per_minute must be between 1 and 600, got %d", c.Gemini.RequestsPerMinute)
	}
	if strings.TrimSpace(c.Gemini.Model) == "" {
		return fmt.Errorf("gemini model cannot be empty")
	}

	if c.Audio.BufferSize < 512 || c.Audio.BufferSize > 65536 {
		return fmt.Errorf("audio buffer_size must be between 512 and 65536 bytes, got %d", c.Audio.BufferSize)
	}

	if c.Ambience.CacheMaxSize < 0 || c.Ambience.CacheMaxSize > 10000 {
		return fmt.Errorf("ambience cache_max_size must be between 0 and 10000 MB, got %d", c.Ambience.CacheMaxSize)
	}
	if strings.TrimSpace(c.Ambience.FFmpeg) == "" {
		return fmt.Errorf("ambience ffmpeg binary cannot be empty")
	}
	if c.Ambience.FFmpegTimeout <= 0 {
		return fmt.Errorf("ambience ffmpeg_timeout must be positive, got %s", c.Ambience.FFmpegTimeout)
	}

	if err := c.Studio.Validate(); err != nil {
		return fmt.Errorf("studio config: %w", err)
	}
	return nil
}

// Validate checks the studio selections against the catalog.
func (c *StudioConfig) Validate() error {
	c.Language = strings.ToLower(strings.TrimSpace(c.Language))
	lang := tts.Language(c.Language)
	if !catalog.IsLanguage(lang) {
		return fmt.Errorf("unsupported language %q", c.Language)
	}

	if c.Dialect == "" {
		c.Dialect = catalog.DefaultDialect(lang)
	}
	if !catalog.HasDialect(lang, c.Dialect) {
		return fmt.Errorf("dialect %q does not belong to language %q", c.Dialect, c.Language)
	}

	voice, err := catalog.FindVoice(c.Voice)
	if err != nil {
		return err
	}
	c.Voice = voice.ID

	if _, ok := catalog.LookupSoundscape(c.Soundscape); !ok {
		return fmt.Errorf("unknown soundscape %q", c.Soundscape)
	}

	if err := tts.ValidateSpeed(c.Speed); err != nil {
		return err
	}
	if c.Pitch < tts.MinPitch || c.Pitch > tts.MaxPitch {
		return fmt.Errorf("pitch must be between %d and %d, got %d", tts.MinPitch, tts.MaxPitch, c.Pitch)
	}
	if c.Stability < tts.MinStability || c.Stability > tts.MaxStability {
		return fmt.Errorf("stability must be between %d and %d, got %d", tts.MinStability, tts.MaxStability, c.Stability)
	}
	return nil
}

// Settings returns the studio audio settings.
func (c StudioConfig) Settings() tts.AudioSettings {
	return tts.AudioSettings{
		Stability:              c.Stability,
		Speed:                  c.Speed,
		Pitch:                  c.Pitch,
		OptimizedPronunciation: c.OptimizedPronunciation,
	}
}

// CacheBytes returns the disk budget in bytes.
func (c AmbienceConfig) CacheBytes() int64 {
	return int64(c.CacheMaxSize) * 1024 * 1024
}
