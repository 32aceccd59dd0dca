package session

import (
	"context"
	"encoding/base64"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/dgnsrekt/nateq/internal/audio"
	"github.com/dgnsrekt/nateq/internal/playback"
	"github.com/dgnsrekt/nateq/internal/resource"
	"github.com/dgnsrekt/nateq/internal/tts"
	"github.com/dgnsrekt/nateq/internal/wav"
)

type rig struct {
	sess    *Session
	store   *resource.Store
	primary *audio.MockSource
	coord   *playback.Coordinator
	calls   int
	reqs    []tts.GenerationRequest
	synth   func(tts.GenerationRequest) (string, error)
}

func newRig(t *testing.T) *rig {
	t.Helper()
	r := &rig{store: resource.NewStore(), primary: audio.NewMockSource()}
	r.synth = func(tts.GenerationRequest) (string, error) {
		return base64.StdEncoding.EncodeToString([]byte{1, 0, 2, 0}), nil
	}
	r.coord = playback.New(playback.Config{Primary: r.primary, Resources: r.store})
	r.sess = New(Config{
		Synthesizer: tts.SynthesizerFunc(func(_ context.Context, req tts.GenerationRequest) (string, error) {
			r.calls++
			r.reqs = append(r.reqs, req)
			return r.synth(req)
		}),
		Encoder: wav.NewEncoder(r.store, wav.DefaultFormat()),
		Store:   r.store,
		Player:  r.coord,
	})
	return r
}

func TestGenerate_InstallsHandle(t *testing.T) {
	r := newRig(t)
	if err := r.sess.Generate(context.Background()); err != nil {
		t.Fatal(err)
	}
	st := r.sess.State()
	if st.Status != StatusReady || !st.AudioURL.Valid() {
		t.Fatalf("state = %+v", st)
	}
	blob, ok := r.store.Resolve(st.AudioURL)
	if !ok || len(blob) != wav.HeaderSize+4 {
		t.Errorf("stored blob = %d bytes, %v", len(blob), ok)
	}
	if r.primary.PlayCount() != 0 {
		t.Error("generation must not auto-play")
	}
}

func TestGenerate_RevokesPreviousHandle(t *testing.T) {
	r := newRig(t)
	ctx := context.Background()
	_ = r.sess.Generate(ctx)
	first := r.sess.State().AudioURL
	r.sess.SetPlaying(ctx, true)

	if err := r.sess.Generate(ctx); err != nil {
		t.Fatal(err)
	}
	second := r.sess.State().AudioURL

	if first == second {
		t.Fatal("expected a new handle")
	}
	if _, ok := r.store.Resolve(first); ok {
		t.Error("superseded handle should be revoked")
	}
	if r.store.Len() != 1 {
		t.Errorf("store holds %d blobs, want 1", r.store.Len())
	}
	if r.sess.State().IsPlaying() || r.primary.IsPlaying() {
		t.Error("new generation must stop playback")
	}
}

func TestGenerate_FailureKeepsNoHandle(t *testing.T) {
	r := newRig(t)
	r.synth = func(tts.GenerationRequest) (string, error) {
		return "", tts.NewTTSError(tts.ErrorCodeTextInsteadOfAudio, "The model returned text instead of audio.", nil)
	}

	err := r.sess.Generate(context.Background())
	if tts.CodeOf(err) != tts.ErrorCodeTextInsteadOfAudio {
		t.Fatalf("err = %v", err)
	}
	st := r.sess.State()
	if st.Status != StatusFailed || st.Err != "The model returned text instead of audio." || st.HasAudio() {
		t.Errorf("state = %+v", st)
	}
}

func TestGenerate_FailureRevokesPreviousHandle(t *testing.T) {
	r := newRig(t)
	ctx := context.Background()
	if err := r.sess.Generate(ctx); err != nil {
		t.Fatal(err)
	}
	first := r.sess.State().AudioURL
	r.sess.SetPlaying(ctx, true)
	if r.coord.Bound() != first {
		t.Fatalf("coordinator bound to %q, want %q", r.coord.Bound(), first)
	}

	r.synth = func(tts.GenerationRequest) (string, error) {
		return "", tts.NewTTSError(tts.ErrorCodeServer, "Server Error (500). Please try again in a moment.", nil)
	}
	if err := r.sess.Generate(ctx); err == nil {
		t.Fatal("expected the second generation to fail")
	}

	if _, ok := r.store.Resolve(first); ok {
		t.Error("superseded handle should be revoked after a failed generation")
	}
	if r.store.Len() != 0 {
		t.Errorf("store holds %d blobs, want 0", r.store.Len())
	}
	if r.coord.Bound() != "" {
		t.Errorf("coordinator still bound to %q", r.coord.Bound())
	}
	if st := r.sess.State(); st.HasAudio() || st.Status != StatusFailed {
		t.Errorf("state = %+v", st)
	}
}

func TestGenerate_DecodeFailure(t *testing.T) {
	r := newRig(t)
	r.synth = func(tts.GenerationRequest) (string, error) { return "%%%not-base64", nil }

	err := r.sess.Generate(context.Background())
	if !errors.Is(err, wav.ErrDecode) {
		t.Fatalf("err = %v, want ErrDecode", err)
	}
	if r.sess.State().Status != StatusFailed {
		t.Error("decode failure should fail the attempt")
	}
}

func TestGenerate_ValidationSkipsProvider(t *testing.T) {
	r := newRig(t)
	r.sess.SetText("   ")

	err := r.sess.Generate(context.Background())
	if !errors.Is(err, tts.ErrEmptyText) {
		t.Fatalf("err = %v", err)
	}
	if r.calls != 0 {
		t.Error("provider must not be called")
	}

	r.sess.SetText("hi")
	r.sess.SetVoice("missing")
	if err := r.sess.Generate(context.Background()); !errors.Is(err, tts.ErrVoiceNotFound) {
		t.Errorf("err = %v", err)
	}
	if r.sess.State().Err != tts.ErrVoiceNotFound.Error() {
		t.Errorf("Err = %q", r.sess.State().Err)
	}
}

func TestGenerate_BusyAndSnapshot(t *testing.T) {
	r := newRig(t)
	entered := make(chan struct{})
	release := make(chan struct{})
	r.synth = func(tts.GenerationRequest) (string, error) {
		close(entered)
		<-release
		return base64.StdEncoding.EncodeToString([]byte{0, 0}), nil
	}
	r.sess.SetText("(Happy) hi")

	done := make(chan error, 1)
	go func() { done <- r.sess.Generate(context.Background()) }()
	<-entered

	if err := r.sess.Generate(context.Background()); !errors.Is(err, tts.ErrBusy) {
		t.Errorf("second Generate = %v, want ErrBusy", err)
	}
	if st := r.sess.SetPlaying(context.Background(), true); st.IsPlaying() {
		t.Error("cannot play while generating")
	}
	r.sess.SetText("edited later")
	close(release)

	select {
	case err := <-done:
		if err != nil {
			t.Fatal(err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("generation did not finish")
	}
	if len(r.reqs) != 1 || r.reqs[0].Text != "(Happy) hi" {
		t.Errorf("requests = %+v", r.reqs)
	}
}

func TestTogglePlayAndEnd(t *testing.T) {
	r := newRig(t)
	ctx := context.Background()

	if st := r.sess.TogglePlay(ctx); st.IsPlaying() {
		t.Fatal("toggle without audio must be a no-op")
	}
	_ = r.sess.Generate(ctx)

	if st := r.sess.TogglePlay(ctx); !st.IsPlaying() || !r.primary.IsPlaying() {
		t.Fatal("toggle should start playback")
	}
	if st := r.sess.TogglePlay(ctx); st.IsPlaying() || r.primary.IsPlaying() {
		t.Fatal("toggle should stop playback")
	}

	r.sess.TogglePlay(ctx)
	r.primary.Finish()
	if st := r.sess.HandleEnded(); st.IsPlaying() || st.Status != StatusReady {
		t.Errorf("after end: %v", st.Status)
	}
}

func TestTogglePlayConcurrent(t *testing.T) {
	r := newRig(t)
	ctx := context.Background()
	if err := r.sess.Generate(ctx); err != nil {
		t.Fatal(err)
	}

	const toggles = 40
	var wg sync.WaitGroup
	for range toggles {
		wg.Add(1)
		go func() {
			defer wg.Done()
			r.sess.TogglePlay(ctx)
		}()
	}
	wg.Wait()

	if st := r.sess.State(); st.IsPlaying() {
		t.Errorf("an even number of toggles should end stopped, got %v", st.Status)
	}
	if r.primary.IsPlaying() {
		t.Error("narration source out of sync with the session")
	}
}

func TestExport(t *testing.T) {
	r := newRig(t)
	dir := t.TempDir()

	if _, err := r.sess.Export(dir); !errors.Is(err, tts.ErrNoAudio) {
		t.Fatalf("export without audio = %v", err)
	}

	r.sess.SetText("Hello, brave new world")
	_ = r.sess.Generate(context.Background())
	path, err := r.sess.Export(dir)
	if err != nil {
		t.Fatal(err)
	}
	if filepath.Base(path) != "Hello_brave_new.wav" {
		t.Errorf("file = %s", filepath.Base(path))
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(string(data), "RIFF") {
		t.Error("exported file is not a WAV container")
	}
}

func TestSafeName(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"Hello, brave new world", "Hello_brave_new"},
		{"أهلاً بك في ناطق", "أهلاً_بك_في"},
		{"!!! ??? ...", "__"},
		{"", "nateq_audio"},
		{"!?", "nateq_audio"},
		{"one", "one"},
		{"naïve café", "nave_caf"},
	}
	for _, tt := range tests {
		if got := SafeName(tt.in); got != tt.want {
			t.Errorf("SafeName(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestClose(t *testing.T) {
	r := newRig(t)
	ctx := context.Background()
	_ = r.sess.Generate(ctx)
	r.sess.SetPlaying(ctx, true)

	r.sess.Close()

	if r.store.Len() != 0 {
		t.Error("Close should revoke every handle")
	}
	if r.primary.IsPlaying() {
		t.Error("Close should stop playback")
	}
	if err := r.sess.Generate(ctx); err == nil {
		t.Error("Generate after Close should fail")
	}
}

func TestSetSoundscapeWhilePlaying(t *testing.T) {
	r := newRig(t)
	ctx := context.Background()
	_ = r.sess.Generate(ctx)
	r.sess.SetPlaying(ctx, true)

	st := r.sess.SetSoundscape(ctx, "rain")
	if st.SoundscapeID != "rain" || !st.IsPlaying() {
		t.Errorf("state = %+v", st)
	}
}

func TestOnChange(t *testing.T) {
	var seen []Status
	s := New(Config{OnChange: func(st State) { seen = append(seen, st.Status) }})
	s.SetText("x")
	s.Dispatch(GenerationFailed{Message: "m"})
	if len(seen) != 2 || seen[1] != StatusFailed {
		t.Errorf("seen = %v", seen)
	}
}
