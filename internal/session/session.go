package session

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"unicode"

	"github.com/charmbracelet/log"
	"github.com/dgnsrekt/nateq/internal/playback"
	"github.com/dgnsrekt/nateq/internal/resource"
	"github.com/dgnsrekt/nateq/internal/tts"
	"github.com/mitchellh/go-homedir"
	"golang.org/x/text/unicode/norm"
)

// Encoder turns provider audio into a stored container.
type Encoder interface {
	Encode(b64 string) (resource.Handle, error)
}

// Player is the playback surface driven by the session.
type Player interface {
	SetPlaying(ctx context.Context, in playback.Intent)
	Unbind(h resource.Handle)
}

// Config wires a Session. Player may be nil for headless use.
type Config struct {
	Synthesizer tts.Synthesizer
	Encoder     Encoder
	Store       *resource.Store
	Player      Player
	Initial     *State

	// OnChange, when set, receives every new state.
	OnChange func(State)
}

// Session owns the studio state and the generated audio handles.
type Session struct {
	mu     sync.Mutex
	state  State
	synth  tts.Synthesizer
	enc    Encoder
	store  *resource.Store
	player Player
	notify func(State)

	// handles no longer installed but not yet revoked
	retired []resource.Handle
	closed  bool
}

// New creates a session in the default or the given initial state.
func New(cfg Config) *Session {
	st := DefaultState()
	if cfg.Initial != nil {
		st = *cfg.Initial
		st.Status = StatusIdle
		st.AudioURL = ""
		st.Err = ""
	}
	return &Session{
		state:  st,
		synth:  cfg.Synthesizer,
		enc:    cfg.Encoder,
		store:  cfg.Store,
		player: cfg.Player,
		notify: cfg.OnChange,
	}
}

// State returns a snapshot.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Dispatch applies a and returns the new state. Play intents go through
// SetPlaying so the playback surface follows.
func (s *Session) Dispatch(a Action) State {
	s.mu.Lock()
	st := s.reduceLocked(a)
	s.mu.Unlock()
	return st
}

// SetText replaces the script.
func (s *Session) SetText(text string) State { return s.Dispatch(SetText{Text: text}) }

// SetLanguage switches language and resets the dialect.
func (s *Session) SetLanguage(l tts.Language) State { return s.Dispatch(SetLanguage{Language: l}) }

// SetDialect selects a dialect.
func (s *Session) SetDialect(d string) State { return s.Dispatch(SetDialect{Dialect: d}) }

// SetVoice selects a voice.
func (s *Session) SetVoice(id string) State { return s.Dispatch(SetVoice{VoiceID: id}) }

// UpdateSettings merges a partial settings change.
func (s *Session) UpdateSettings(p tts.SettingsPatch) State {
	return s.Dispatch(UpdateSettings{Patch: p})
}

// SetSoundscape selects the ambience. While playing, the new soundscape
// takes over immediately.
func (s *Session) SetSoundscape(ctx context.Context, id string) State {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := s.reduceLocked(SetSoundscape{SoundscapeID: id})
	if st.IsPlaying() {
		s.syncPlayerLocked(ctx)
	}
	return st
}

// Generate snapshots the inputs, synthesizes, and installs the resulting
// audio. It returns tts.ErrBusy without side effects while another
// generation is running. Failures end in StatusFailed with a readable
// message and are also returned.
func (s *Session) Generate(ctx context.Context) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return errors.New("session closed")
	}
	if s.state.IsGenerating() {
		s.mu.Unlock()
		return tts.ErrBusy
	}

	if s.state.IsPlaying() {
		s.reduceLocked(SetPlaying{Playing: false})
		s.syncPlayerLocked(ctx)
	}

	req, err := s.state.Request()
	if err == nil {
		err = tts.ValidateRequest(req)
	}
	if err != nil {
		s.reduceLocked(GenerationFailed{Message: tts.UserMessage(err)})
		s.mu.Unlock()
		return err
	}

	if prev := s.state.AudioURL; !prev.IsZero() {
		s.retired = append(s.retired, prev)
	}
	s.reduceLocked(StartGeneration{})
	s.mu.Unlock()

	log.Info("generating speech", "voice", req.Voice.ProviderVoice, "lang", req.Language,
		"dialect", req.Dialect, "chars", len([]rune(req.Text)))

	handle, err := s.synthesize(ctx, req)

	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		log.Error("generation failed", "code", tts.CodeOf(err), "err", err)
		s.reduceLocked(GenerationFailed{Message: tts.UserMessage(err)})
		s.revokeRetiredLocked()
		return err
	}
	if s.closed {
		s.store.Revoke(handle)
		return errors.New("session closed")
	}

	s.reduceLocked(GenerationSucceeded{URL: handle})
	s.revokeRetiredLocked()
	log.Info("speech ready", "handle", handle)
	return nil
}

func (s *Session) synthesize(ctx context.Context, req tts.GenerationRequest) (resource.Handle, error) {
	b64, err := s.synth.Synthesize(ctx, req)
	if err != nil {
		return "", err
	}
	return s.enc.Encode(b64)
}

// SetPlaying sets the play intent and drives the playback surface. Asking
// to play without audio or during a generation is a no-op.
func (s *Session) SetPlaying(ctx context.Context, playing bool) State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.setPlayingLocked(ctx, playing)
}

func (s *Session) setPlayingLocked(ctx context.Context, playing bool) State {
	before := s.state.IsPlaying()
	st := s.reduceLocked(SetPlaying{Playing: playing})
	if st.IsPlaying() != before {
		s.syncPlayerLocked(ctx)
	}
	return st
}

// TogglePlay flips the play intent.
func (s *Session) TogglePlay(ctx context.Context) State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.setPlayingLocked(ctx, !s.state.IsPlaying())
}

// HandleEnded records that the narration finished on its own. The
// playback surface has already stopped both tracks.
func (s *Session) HandleEnded() State {
	return s.Dispatch(SetPlaying{Playing: false})
}

// Export writes the current container to dir and returns the file path.
func (s *Session) Export(dir string) (string, error) {
	s.mu.Lock()
	h, text := s.state.AudioURL, s.state.Text
	s.mu.Unlock()

	if h.IsZero() {
		return "", tts.ErrNoAudio
	}
	blob, err := s.store.Open(h)
	if err != nil {
		return "", err
	}

	dir, err = homedir.Expand(dir)
	if err != nil {
		return "", err
	}
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create export dir: %w", err)
	}
	path := filepath.Join(dir, SafeName(text)+".wav")
	if err := os.WriteFile(path, blob, 0o644); err != nil {
		return "", fmt.Errorf("write %s: %w", path, err)
	}
	log.Info("exported audio", "path", path, "bytes", len(blob))
	return path, nil
}

// Close stops playback and revokes every handle the session owns.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	if s.state.IsPlaying() && s.player != nil {
		s.player.SetPlaying(context.Background(), playback.Intent{Playing: false})
	}
	if h := s.state.AudioURL; !h.IsZero() {
		s.retired = append(s.retired, h)
	}
	s.state.AudioURL = ""
	s.state.Status = StatusIdle
	s.revokeRetiredLocked()
	s.closed = true
}

func (s *Session) reduceLocked(a Action) State {
	s.state = Reduce(s.state, a)
	if s.notify != nil {
		s.notify(s.state)
	}
	return s.state
}

func (s *Session) syncPlayerLocked(ctx context.Context) {
	if s.player == nil {
		return
	}
	s.player.SetPlaying(ctx, playback.Intent{
		Playing:    s.state.IsPlaying(),
		Handle:     s.state.AudioURL,
		Soundscape: s.state.Soundscape(),
	})
}

func (s *Session) revokeRetiredLocked() {
	for _, h := range s.retired {
		if s.player != nil {
			s.player.Unbind(h)
		}
		s.store.Revoke(h)
	}
	s.retired = nil
}

// SafeName derives a file name from the first three space-separated words
// of text, keeping ASCII letters, digits, underscores and Arabic letters.
func SafeName(text string) string {
	words := strings.Split(norm.NFC.String(text), " ")
	if len(words) > 3 {
		words = words[:3]
	}
	joined := strings.Join(words, "_")

	var b strings.Builder
	for _, r := range joined {
		if r == '_' || r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)) || r >= 0x0600 && r <= 0x06FF {
			b.WriteRune(r)
		}
	}
	if b.Len() == 0 {
		return "nateq_audio"
	}
	return b.String()
}
