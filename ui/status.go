package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/dgnsrekt/nateq/internal/catalog"
	"github.com/dgnsrekt/nateq/internal/session"
	"github.com/muesli/reflow/ansi"
	"github.com/muesli/reflow/truncate"
)

// statusIcon returns the glyph for a session status. The generating
// status is drawn by the spinner instead.
func statusIcon(s session.Status) string {
	switch s {
	case session.StatusPlaying:
		return "▶"
	case session.StatusReady:
		return "●"
	case session.StatusFailed:
		return "✗"
	case session.StatusGenerating:
		return "⟳"
	default:
		return "■"
	}
}

// statusNote is the one-line summary shown in the status bar.
func statusNote(st session.State) string {
	voice := st.VoiceID
	if v, ok := catalog.Voice(st.VoiceID); ok {
		voice = v.Name
	}

	parts := []string{st.Status.String(), voice}
	if scape := st.Soundscape(); !scape.Silent() {
		parts = append(parts, scape.Name)
	}
	if st.Status == session.StatusFailed && st.Err != "" {
		parts = append(parts, st.Err)
	}
	return strings.Join(parts, " · ")
}

type statusBar struct {
	width    int
	state    session.State
	spinner  string
	message  string
	duration time.Duration
}

func (s statusBar) view(b *strings.Builder) {
	showStatusMessage := s.message != ""

	logo := logoView()

	icon := statusIcon(s.state.Status)
	if s.state.IsGenerating() && s.spinner != "" {
		icon = s.spinner
	}

	var length string
	if s.state.HasAudio() {
		length = statusBarDurationStyle(" " + formatDuration(s.duration) + " ")
	}

	var helpNote string
	if showStatusMessage {
		helpNote = statusBarMessageHelpStyle(" ? Help ")
	} else {
		helpNote = statusBarHelpStyle(" ? Help ")
	}

	note := icon + " " + statusNote(s.state)
	if showStatusMessage {
		note = s.message
	}
	note = truncate.StringWithTail(" "+note+" ", uint(max(0, //nolint:gosec
		s.width-
			ansi.PrintableRuneWidth(logo)-
			ansi.PrintableRuneWidth(length)-
			ansi.PrintableRuneWidth(helpNote),
	)), ellipsis)
	if showStatusMessage {
		note = statusBarMessageStyle(note)
	} else {
		note = statusBarNoteStyle(note)
	}

	padding := max(0,
		s.width-
			ansi.PrintableRuneWidth(logo)-
			ansi.PrintableRuneWidth(note)-
			ansi.PrintableRuneWidth(length)-
			ansi.PrintableRuneWidth(helpNote),
	)
	emptySpace := strings.Repeat(" ", padding)
	if showStatusMessage {
		emptySpace = statusBarMessageStyle(emptySpace)
	} else {
		emptySpace = statusBarNoteStyle(emptySpace)
	}

	fmt.Fprintf(b, "%s%s%s%s%s",
		logo,
		note,
		emptySpace,
		length,
		helpNote,
	)
}

// formatDuration formats a duration for display.
func formatDuration(d time.Duration) string {
	if d < 0 {
		return "0:00"
	}

	minutes := int(d.Minutes())
	seconds := int(d.Seconds()) % 60

	return fmt.Sprintf("%d:%02d", minutes, seconds)
}
