package main

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/charmbracelet/log"
	"github.com/dgnsrekt/nateq/internal/ambience"
	"github.com/dgnsrekt/nateq/internal/audio"
	"github.com/dgnsrekt/nateq/internal/cache"
	"github.com/dgnsrekt/nateq/internal/catalog"
	"github.com/dgnsrekt/nateq/internal/config"
	"github.com/dgnsrekt/nateq/internal/observe"
	"github.com/dgnsrekt/nateq/internal/playback"
	"github.com/dgnsrekt/nateq/internal/resource"
	"github.com/dgnsrekt/nateq/internal/session"
	"github.com/dgnsrekt/nateq/internal/tts"
	"github.com/dgnsrekt/nateq/internal/tts/engines"
	"github.com/dgnsrekt/nateq/internal/wav"
	"github.com/mitchellh/go-homedir"
)

// studio wires a session to the provider, the ambience pipeline and,
// when audio is enabled, the playback device.
type studio struct {
	store   *resource.Store
	session *session.Session
	coord   *playback.Coordinator
	cache   *cache.Manager
	loader  *ambience.Loader
	metrics *observe.Metrics

	// func() run when the narration ends on its own
	ended atomic.Value
}

type studioOptions struct {
	// withAudio opens the playback device.
	withAudio bool

	// synth replaces the Gemini engine.
	synth tts.Synthesizer

	metrics *observe.Metrics
	text    string
}

func newStudio(cfg config.Config, opts studioOptions) (*studio, error) {
	s := &studio{
		store:   resource.NewStore(),
		metrics: opts.metrics,
	}
	if s.metrics == nil {
		s.metrics = observe.DefaultMetrics()
	}

	var err error
	s.cache, s.loader, err = newAmbience(cfg, s.metrics)
	if err != nil {
		return nil, err
	}

	var player session.Player
	if opts.withAudio {
		if err := s.openAudio(cfg); err != nil {
			_ = s.cache.Close()
			return nil, err
		}
		player = s.coord
	}

	synth := opts.synth
	if synth == nil {
		synth = engines.NewGeminiEngine(engines.GeminiConfig{
			APIKey:            cfg.Gemini.APIKey,
			Model:             cfg.Gemini.Model,
			RequestsPerMinute: cfg.Gemini.RequestsPerMinute,
		})
	}

	initial := initialState(cfg.Studio, opts.text)
	s.session = session.New(session.Config{
		Synthesizer: observe.InstrumentSynthesizer(synth, s.metrics),
		Encoder:     wav.NewEncoder(s.store, wav.DefaultFormat()),
		Store:       s.store,
		Player:      player,
		Initial:     &initial,
	})
	return s, nil
}

func (s *studio) openAudio(cfg config.Config) error {
	devCfg := audio.DefaultDeviceConfig()
	devCfg.SampleRate = wav.SampleRate
	devCfg.BufferSize = cfg.Audio.BufferSize

	device, err := audio.NewDevice(devCfg)
	if err != nil {
		return tts.NewTTSError(tts.ErrorCodeAudioDevice, "unable to open the audio device", err)
	}

	s.coord = playback.New(playback.Config{
		Primary:   device.NewSource("narration"),
		Ambience:  device.NewSource("ambience"),
		Resources: s.store,
		Loader:    s.loader,
		OnEnded:   s.onEnded,
		OnStart:   s.metrics.RecordPlaybackStart,
	})
	return nil
}

// setOnEnded installs the natural-end hook.
func (s *studio) setOnEnded(fn func()) {
	s.ended.Store(fn)
}

func (s *studio) onEnded() {
	if fn, ok := s.ended.Load().(func()); ok && fn != nil {
		fn()
	}
}

// Close stops playback and releases every resource.
func (s *studio) Close() {
	s.session.Close()
	if st := s.store.Stats(); st.Live > 0 {
		log.Warn("audio handles outlived the session", "live", st.Live, "bytes", st.Size, "oldest", st.Oldest)
	}
	if s.coord != nil {
		if err := s.coord.Close(); err != nil {
			log.Debug("error closing audio sources", "error", err)
		}
	}
	if err := s.cache.Close(); err != nil {
		log.Error("error closing ambience cache", "error", err)
	}
}

// newAmbience builds the ambience cache and loader from cfg.
func newAmbience(cfg config.Config, m *observe.Metrics) (*cache.Manager, *ambience.Loader, error) {
	cc := cache.DefaultConfig()
	cc.DiskCapacity = cfg.Ambience.CacheBytes()
	if cfg.Ambience.CacheDir != "" {
		dir, err := homedir.Expand(cfg.Ambience.CacheDir)
		if err != nil {
			return nil, nil, fmt.Errorf("unable to expand cache dir: %w", err)
		}
		cc.Dir = dir
	}

	manager, err := cache.New(cc)
	if err != nil {
		return nil, nil, err
	}

	loader := ambience.NewLoader(ambience.Config{
		SampleRate: wav.SampleRate,
		Decoder: ambience.FFmpeg{
			Binary:  cfg.Ambience.FFmpeg,
			Timeout: cfg.Ambience.FFmpegTimeout,
		},
		Cache: manager,
		OnLookup: func(ctx context.Context, hit bool) {
			m.RecordAmbienceLookup(ctx, hit)
		},
	})
	return manager, loader, nil
}

// initialState turns the configured studio selections into a session
// state. An empty text keeps the demo script.
func initialState(c config.StudioConfig, text string) session.State {
	st := session.DefaultState()
	st.Language = tts.Language(c.Language)
	st.Dialect = c.Dialect
	if st.Dialect == "" {
		st.Dialect = catalog.DefaultDialect(st.Language)
	}
	st.VoiceID = c.Voice
	st.SoundscapeID = c.Soundscape
	st.Settings = c.Settings()
	if text != "" {
		st.Text = text
	}
	return st
}
