package ui

import (
	"context"
	"time"

	"github.com/atotto/clipboard"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"
	"github.com/dgnsrekt/nateq/internal/session"
	"github.com/dgnsrekt/nateq/internal/tts"
)

const statusMessageTimeout = time.Second * 3 // how long to show status messages like "saved!"

// PlaybackEndedMsg reports that the narration track reached its natural
// end. Send it to the program from the playback coordinator's end hook.
type PlaybackEndedMsg struct{}

type generationDoneMsg struct{ err error }

type exportedMsg struct {
	path string
	err  error
}

type copiedMsg struct{ err error }

type scriptLoadedMsg struct {
	text string
	err  error
}

type (
	scriptChangedMsg        struct{}
	statusMessageTimeoutMsg struct{}
)

func generateCmd(ctx context.Context, s *session.Session) tea.Cmd {
	return func() tea.Msg {
		return generationDoneMsg{err: s.Generate(ctx)}
	}
}

func exportCmd(s *session.Session, dir string) tea.Cmd {
	return func() tea.Msg {
		path, err := s.Export(dir)
		return exportedMsg{path: path, err: err}
	}
}

// copyInstructionCmd copies the synthesis instruction the current state
// would produce.
func copyInstructionCmd(st session.State) tea.Cmd {
	return func() tea.Msg {
		req, err := st.Request()
		if err != nil {
			return copiedMsg{err: err}
		}
		prompt := tts.BuildInstruction(req).Prompt()
		if err := clipboard.WriteAll(prompt); err != nil {
			log.Error("error copying instruction", "error", err)
			return copiedMsg{err: err}
		}
		return copiedMsg{}
	}
}

func loadScriptCmd(path string) tea.Cmd {
	return func() tea.Msg {
		text, err := tts.ReadScriptFile(path)
		return scriptLoadedMsg{text: text, err: err}
	}
}

func waitForStatusMessageTimeout() tea.Cmd {
	return tea.Tick(statusMessageTimeout, func(time.Time) tea.Msg {
		return statusMessageTimeoutMsg{}
	})
}
