package ui

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/dgnsrekt/nateq/internal/session"
	"github.com/muesli/reflow/ansi"
)

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		d    time.Duration
		want string
	}{
		{-time.Second, "0:00"},
		{0, "0:00"},
		{7 * time.Second, "0:07"},
		{90 * time.Second, "1:30"},
		{61*time.Minute + 5*time.Second, "61:05"},
	}
	for _, tt := range tests {
		if got := formatDuration(tt.d); got != tt.want {
			t.Errorf("formatDuration(%v) = %q, want %q", tt.d, got, tt.want)
		}
	}
}

func TestStatusIcon(t *testing.T) {
	tests := map[session.Status]string{
		session.StatusIdle:       "■",
		session.StatusGenerating: "⟳",
		session.StatusReady:      "●",
		session.StatusPlaying:    "▶",
		session.StatusFailed:     "✗",
	}
	for status, want := range tests {
		if got := statusIcon(status); got != want {
			t.Errorf("statusIcon(%v) = %q, want %q", status, got, want)
		}
	}
}

func TestStatusNote(t *testing.T) {
	st := session.DefaultState()
	if got := statusNote(st); got != "idle · Rawi (Deep)" {
		t.Errorf("statusNote() = %q", got)
	}

	st.SoundscapeID = "cafe"
	st.Status = session.StatusFailed
	st.Err = "boom"
	if got := statusNote(st); got != "failed · Rawi (Deep) · Busy Cafe · boom" {
		t.Errorf("statusNote() = %q", got)
	}
}

func TestStatusBarFillsWidth(t *testing.T) {
	for _, width := range []int{40, 80, 120} {
		var b strings.Builder
		statusBar{width: width, state: session.DefaultState()}.view(&b)
		if got := ansi.PrintableRuneWidth(b.String()); got != width {
			t.Errorf("width %d: status bar is %d columns", width, got)
		}
	}
}

func TestStatusBarMessage(t *testing.T) {
	var b strings.Builder
	statusBar{width: 80, state: session.DefaultState(), message: "Saved here"}.view(&b)
	if !strings.Contains(b.String(), "Saved here") {
		t.Errorf("status bar = %q", b.String())
	}
}

func TestHighlightScriptKeepsText(t *testing.T) {
	text := "(Happy) hello [Pause: Medium] (Whisper) bye [Custom cue]"
	got := HighlightScript(text)
	for _, part := range []string{"(Happy)", "hello", "[Pause: Medium]", "(Whisper)", "bye", "[Custom cue]"} {
		if !strings.Contains(got, part) {
			t.Errorf("highlighted script lost %q: %q", part, got)
		}
	}
}

func TestTagPadding(t *testing.T) {
	tests := []struct {
		before, tag, want string
	}{
		{"", "(Sad)", "(Sad) "},
		{"word", "(Sad)", " (Sad) "},
		{"word ", "(Sad)", "(Sad) "},
		{"line\n", "(Sad)", " (Sad) "},
	}
	for _, tt := range tests {
		if got := tagPadding(tt.before, tt.tag); got != tt.want {
			t.Errorf("tagPadding(%q, %q) = %q, want %q", tt.before, tt.tag, got, tt.want)
		}
	}
}

func TestControlsView(t *testing.T) {
	st := session.DefaultState()
	view := controlsView(st, controlVoice, true)
	lines := strings.Split(view, "\n")
	if len(lines) != int(controlCount) {
		t.Fatalf("controls view has %d rows, want %d", len(lines), controlCount)
	}
	if !strings.Contains(lines[controlVoice], "›") {
		t.Errorf("selected row not marked: %q", lines[controlVoice])
	}
	if !strings.Contains(lines[controlPronunciation], "Tashkeel") {
		t.Errorf("arabic pronunciation label missing: %q", lines[controlPronunciation])
	}
}

func TestCycle(t *testing.T) {
	tests := []struct{ i, dir, n, want int }{
		{0, 1, 4, 1},
		{3, 1, 4, 0},
		{0, -1, 4, 3},
		{2, -1, 4, 1},
	}
	for _, tt := range tests {
		if got := cycle(tt.i, tt.dir, tt.n); got != tt.want {
			t.Errorf("cycle(%d, %d, %d) = %d, want %d", tt.i, tt.dir, tt.n, got, tt.want)
		}
	}
}

func TestScriptWatcher(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "script.txt")
	if err := os.WriteFile(path, []byte("one"), 0o600); err != nil {
		t.Fatal(err)
	}

	w, err := newScriptWatcher(path)
	if err != nil {
		t.Fatal(err)
	}
	defer w.close()

	got := make(chan any, 1)
	go func() { got <- w.watch() }()

	// unrelated files are ignored
	if err := os.WriteFile(filepath.Join(dir, "other.txt"), []byte("x"), 0o600); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte("two"), 0o600); err != nil {
		t.Fatal(err)
	}

	select {
	case msg := <-got:
		if _, ok := msg.(scriptChangedMsg); !ok {
			t.Errorf("watch() = %T, want scriptChangedMsg", msg)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("no change reported")
	}
}
