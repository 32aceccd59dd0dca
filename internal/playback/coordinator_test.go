package playback

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/dgnsrekt/nateq/internal/audio"
	"github.com/dgnsrekt/nateq/internal/catalog"
	"github.com/dgnsrekt/nateq/internal/resource"
	"github.com/dgnsrekt/nateq/internal/wav"
)

type fakeLoader struct {
	mu    sync.Mutex
	calls map[string]int
	err   error
}

func (f *fakeLoader) Load(_ context.Context, s catalog.Soundscape) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.calls == nil {
		f.calls = map[string]int{}
	}
	f.calls[s.ID]++
	if f.err != nil {
		return nil, f.err
	}
	return []byte{byte(len(s.ID)), 0, 1, 0}, nil
}

func (f *fakeLoader) count(id string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[id]
}

type harness struct {
	c        *Coordinator
	primary  *audio.MockSource
	ambience *audio.MockSource
	store    *resource.Store
	loader   *fakeLoader
	ended    int
	starts   int
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	h := &harness{
		primary:  audio.NewMockSource(),
		ambience: audio.NewMockSource(),
		store:    resource.NewStore(),
		loader:   &fakeLoader{},
	}
	h.c = New(Config{
		Primary:   h.primary,
		Ambience:  h.ambience,
		Resources: h.store,
		Loader:    h.loader,
		OnEnded:   func() { h.ended++ },
		OnStart:   func(context.Context) { h.starts++ },
	})
	return h
}

func (h *harness) put(pcm []byte) resource.Handle {
	return h.store.Put(wav.Wrap(pcm, wav.DefaultFormat()))
}

var (
	rain = catalog.Soundscape{ID: "rain", URL: "https://example.com/rain.ogg", Volume: 0.3}
	cafe = catalog.Soundscape{ID: "cafe", URL: "https://example.com/cafe.ogg", Volume: 0.4}
	none = catalog.Soundscape{ID: catalog.NoSoundscape}
)

func (h *harness) play(handle resource.Handle, s catalog.Soundscape) {
	h.c.SetPlaying(context.Background(), Intent{Playing: true, Handle: handle, Soundscape: s})
	h.c.WaitAmbience()
}

func (h *harness) stop() {
	h.c.SetPlaying(context.Background(), Intent{Playing: false})
}

// assertCoherent checks that ambience never plays without narration and
// that a Playing coordinator has narration running.
func (h *harness) assertCoherent(t *testing.T) {
	t.Helper()
	if h.ambience.IsPlaying() && !h.primary.IsPlaying() {
		t.Error("ambience playing alone")
	}
	if h.c.State() == Stopped && (h.primary.IsPlaying() || h.ambience.IsPlaying()) {
		t.Error("stopped coordinator with a running source")
	}
}

func TestSetPlaying_StartsBothTracks(t *testing.T) {
	h := newHarness(t)
	pcm := []byte{1, 0, 2, 0, 3, 0}
	handle := h.put(pcm)

	h.play(handle, rain)

	if h.c.State() != Playing || !h.primary.IsPlaying() {
		t.Fatalf("state=%v primary=%v", h.c.State(), h.primary.State())
	}
	if string(h.primary.Data()) != string(pcm) {
		t.Errorf("primary bound %v, want container samples %v", h.primary.Data(), pcm)
	}
	if !h.ambience.IsPlaying() || !h.ambience.Looping() || h.ambience.Volume() != 0.3 {
		t.Errorf("ambience playing=%v loop=%v vol=%v", h.ambience.IsPlaying(), h.ambience.Looping(), h.ambience.Volume())
	}
	if h.starts != 1 {
		t.Errorf("OnStart fired %d times", h.starts)
	}
	h.assertCoherent(t)
}

func TestSetPlaying_StopRewindsBoth(t *testing.T) {
	h := newHarness(t)
	h.play(h.put([]byte{0, 0, 0, 0}), rain)
	h.primary.Advance(2)
	h.ambience.Advance(2)

	h.stop()

	if h.c.State() != Stopped {
		t.Fatal("should be stopped")
	}
	if h.primary.IsPlaying() || h.ambience.IsPlaying() {
		t.Error("sources still playing")
	}
	if h.primary.Position() != 0 || h.ambience.Position() != 0 {
		t.Error("stop must rewind both sources")
	}
	if h.ended != 0 {
		t.Error("explicit stop must not report a natural end")
	}
	h.assertCoherent(t)
}

func TestSetPlaying_SameHandleDoesNotRebind(t *testing.T) {
	h := newHarness(t)
	handle := h.put([]byte{1, 0})

	h.play(handle, none)
	h.stop()
	h.play(handle, none)

	if h.primary.BindCount() != 1 {
		t.Errorf("primary bound %d times, want 1", h.primary.BindCount())
	}
	if h.primary.Position() != 0 {
		t.Error("replay after stop should start from zero")
	}
}

func TestSetPlaying_NewHandleRebinds(t *testing.T) {
	h := newHarness(t)
	h.play(h.put([]byte{1, 0}), none)
	h.stop()

	second := h.put([]byte{9, 0, 9, 0})
	h.play(second, none)

	if h.primary.BindCount() != 2 || h.c.Bound() != second {
		t.Errorf("binds=%d bound=%s", h.primary.BindCount(), h.c.Bound())
	}
	if string(h.primary.Data()) != string([]byte{9, 0, 9, 0}) {
		t.Error("primary should hold the new audio")
	}
}

func TestSetPlaying_NoSoundscape(t *testing.T) {
	h := newHarness(t)
	h.play(h.put([]byte{1, 0}), none)

	if h.ambience.BindCount() != 0 || h.ambience.IsPlaying() {
		t.Error("silent soundscape must not touch the ambience track")
	}
	if h.loader.count(catalog.NoSoundscape) != 0 {
		t.Error("silent soundscape must not be loaded")
	}
}

func TestSetPlaying_ReusesLoadedSoundscape(t *testing.T) {
	h := newHarness(t)
	handle := h.put([]byte{1, 0})

	h.play(handle, rain)
	h.stop()
	h.play(handle, rain)

	if h.loader.count("rain") != 1 || h.ambience.BindCount() != 1 {
		t.Errorf("loads=%d binds=%d, want 1 each", h.loader.count("rain"), h.ambience.BindCount())
	}
	if !h.ambience.IsPlaying() {
		t.Error("ambience should resume")
	}
}

func TestSetPlaying_SwitchSoundscapeWhilePlaying(t *testing.T) {
	h := newHarness(t)
	handle := h.put([]byte{1, 0})

	h.play(handle, rain)
	h.play(handle, cafe)

	if h.loader.count("cafe") != 1 {
		t.Fatal("cafe should be loaded")
	}
	if h.ambience.Volume() != 0.4 || !h.ambience.IsPlaying() {
		t.Errorf("ambience vol=%v playing=%v", h.ambience.Volume(), h.ambience.IsPlaying())
	}

	h.play(handle, none)
	if h.ambience.IsPlaying() {
		t.Error("switching to silence should pause ambience")
	}
	if !h.primary.IsPlaying() {
		t.Error("narration should keep playing")
	}
	if h.starts != 1 {
		t.Errorf("OnStart fired %d times, want 1 for a single start", h.starts)
	}
	h.assertCoherent(t)

	h.stop()
	h.play(handle, rain)
	if h.starts != 2 {
		t.Errorf("OnStart fired %d times after a restart, want 2", h.starts)
	}
}

func TestNaturalEnd(t *testing.T) {
	h := newHarness(t)
	h.play(h.put([]byte{1, 0, 2, 0}), rain)

	h.primary.Finish()

	if h.ended != 1 {
		t.Fatalf("OnEnded fired %d times, want 1", h.ended)
	}
	if h.c.State() != Stopped || h.ambience.IsPlaying() {
		t.Error("natural end should stop both tracks")
	}
	if h.ambience.Position() != 0 {
		t.Error("ambience should be rewound")
	}
	h.assertCoherent(t)
}

func TestNaturalEndAfterStopIsIgnored(t *testing.T) {
	h := newHarness(t)
	h.play(h.put([]byte{1, 0}), none)
	h.stop()

	// A late end notification must not flip the intent.
	h.c.primaryEnded()
	if h.ended != 0 {
		t.Error("end after stop must not notify")
	}
}

func TestSetPlaying_PlayFailureSwallowed(t *testing.T) {
	h := newHarness(t)
	h.primary.PlayErr = errors.New("device lost")

	h.play(h.put([]byte{1, 0}), rain)

	if h.c.State() != Playing {
		t.Error("logical state should stay playing")
	}
	if h.ambience.IsPlaying() || h.loader.count("rain") != 0 {
		t.Error("ambience must not start when narration failed")
	}
	h.assertCoherent(t)
}

func TestSetPlaying_RevokedHandle(t *testing.T) {
	h := newHarness(t)
	handle := h.put([]byte{1, 0})
	h.store.Revoke(handle)

	h.play(handle, rain)

	if h.primary.BindCount() != 0 || h.primary.IsPlaying() {
		t.Error("revoked handle must not be bound")
	}
	h.assertCoherent(t)
}

func TestSetPlaying_NullHandleIgnored(t *testing.T) {
	h := newHarness(t)
	h.play("", rain)
	if h.c.State() != Stopped || h.primary.PlayCount() != 0 {
		t.Error("null handle should be ignored")
	}
}

func TestAmbienceLoadFailure(t *testing.T) {
	h := newHarness(t)
	h.loader.err = errors.New("offline")

	h.play(h.put([]byte{1, 0}), rain)

	if !h.primary.IsPlaying() {
		t.Error("narration should play without ambience")
	}
	if h.ambience.IsPlaying() {
		t.Error("failed ambience must stay silent")
	}
}

func TestToggleSequences(t *testing.T) {
	h := newHarness(t)
	handle := h.put([]byte{1, 0, 2, 0})
	scapes := []catalog.Soundscape{rain, none, cafe, rain}

	for i := 0; i < 20; i++ {
		if i%2 == 0 {
			h.play(handle, scapes[(i/2)%len(scapes)])
		} else {
			h.stop()
		}
		h.assertCoherent(t)
		if h.c.State() == Playing && !h.primary.IsPlaying() {
			t.Fatalf("step %d: playing intent with narration paused", i)
		}
	}
}

func TestClose(t *testing.T) {
	h := newHarness(t)
	h.play(h.put([]byte{1, 0}), rain)

	if err := h.c.Close(); err != nil {
		t.Fatal(err)
	}
	if h.primary.State() != audio.StateClosed || h.ambience.State() != audio.StateClosed {
		t.Error("Close should release both sources")
	}
	h.c.SetPlaying(context.Background(), Intent{Playing: true, Handle: "x"})
	if h.c.State() != Stopped {
		t.Error("closed coordinator must ignore intents")
	}
}
