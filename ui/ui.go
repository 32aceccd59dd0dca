// Package ui provides the interactive studio for nateq.
package ui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
	"github.com/dgnsrekt/nateq/internal/catalog"
	"github.com/dgnsrekt/nateq/internal/resource"
	"github.com/dgnsrekt/nateq/internal/session"
	"github.com/dgnsrekt/nateq/internal/tts"
	"github.com/dgnsrekt/nateq/internal/wav"
)

const defaultEditorHeight = 8

// Studio bundles what the TUI drives.
type Studio struct {
	Session *session.Session

	// Store resolves generated audio for the length shown in the status
	// bar. Optional.
	Store *resource.Store
}

// NewProgram returns a new Tea program.
func NewProgram(ctx context.Context, cfg Config, studio Studio) *tea.Program {
	log.Debug(
		"Starting nateq",
		"script",
		cfg.ScriptPath,
		"export_dir",
		cfg.ExportDir,
	)

	opts := []tea.ProgramOption{tea.WithAltScreen(), tea.WithContext(ctx)}
	if cfg.EnableMouse {
		opts = append(opts, tea.WithMouseCellMotion())
	}
	m := newModel(ctx, cfg, studio)
	return tea.NewProgram(m, opts...)
}

// focus is the area of the studio receiving keys.
type focus int

const (
	focusEditor focus = iota
	focusControls
)

func (f focus) String() string {
	return map[focus]string{
		focusEditor:   "editing script",
		focusControls: "adjusting controls",
	}[f]
}

type model struct {
	ctx    context.Context
	cfg    Config
	studio Studio

	keys    keyMap
	help    help.Model
	editor  textarea.Model
	spinner spinner.Model

	focus    focus
	selected control
	width    int
	height   int

	// set while a generate command is outstanding
	generating bool

	scriptLoaded  bool
	statusMessage string
	watcher       *scriptWatcher
	fatalErr      error
}

func newModel(ctx context.Context, cfg Config, studio Studio) model {
	if cfg.EditorHeight <= 0 {
		cfg.EditorHeight = defaultEditorHeight
	}

	editor := textarea.New()
	editor.Placeholder = "Write the script to narrate…"
	editor.ShowLineNumbers = cfg.ShowLineNums
	editor.CharLimit = 0
	editor.MaxHeight = 0
	editor.SetHeight(cfg.EditorHeight)
	editor.SetValue(studio.Session.State().Text)
	editor.Focus()

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(fuchsia)

	m := model{
		ctx:     ctx,
		cfg:     cfg,
		studio:  studio,
		keys:    newKeyMap(),
		help:    help.New(),
		editor:  editor,
		spinner: sp,
		focus:   focusEditor,
	}

	if cfg.ScriptPath != "" && cfg.WatchScript {
		w, err := newScriptWatcher(cfg.ScriptPath)
		if err != nil {
			log.Error("unable to watch script", "path", cfg.ScriptPath, "error", err)
		} else {
			m.watcher = w
		}
	}
	return m
}

func (m model) Init() tea.Cmd {
	cmds := []tea.Cmd{textarea.Blink}
	if m.cfg.ScriptPath != "" {
		cmds = append(cmds, loadScriptCmd(m.cfg.ScriptPath))
	}
	if m.watcher != nil {
		cmds = append(cmds, m.watcher.watch)
	}
	return tea.Batch(cmds...)
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	// If there's been an error, any key exits
	if m.fatalErr != nil {
		if _, ok := msg.(tea.KeyMsg); ok {
			return m, m.quit()
		}
	}

	s := m.studio.Session

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.editor.SetWidth(max(0, msg.Width-2))
		m.help.Width = msg.Width
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case generationDoneMsg:
		m.generating = false
		m.syncEditor()
		switch {
		case msg.err == nil:
			return m, m.showStatusMessage("Audio ready. Press ctrl+p to play.")
		case errors.Is(msg.err, tts.ErrBusy):
			return m, m.showStatusMessage(tts.ErrBusy.Error())
		}
		// failures are shown from the session error slot
		return m, nil

	case spinner.TickMsg:
		if !m.isGenerating() {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case PlaybackEndedMsg:
		s.HandleEnded()
		m.syncEditor()
		return m, nil

	case exportedMsg:
		if msg.err != nil {
			return m, m.showStatusMessage("Export failed: " + tts.UserMessage(msg.err))
		}
		return m, m.showStatusMessage("Saved " + msg.path)

	case copiedMsg:
		if msg.err != nil {
			return m, m.showStatusMessage("Copy failed: " + tts.UserMessage(msg.err))
		}
		return m, m.showStatusMessage("Instruction copied to clipboard")

	case scriptLoadedMsg:
		first := !m.scriptLoaded
		m.scriptLoaded = true
		if msg.err != nil {
			if first {
				m.fatalErr = msg.err
				return m, nil
			}
			return m, m.showStatusMessage(msg.err.Error())
		}
		if !m.canEdit() {
			return m, m.showStatusMessage("Script changed on disk; reload skipped while busy")
		}
		s.SetText(msg.text)
		m.editor.SetValue(msg.text)
		if first {
			return m, nil
		}
		return m, m.showStatusMessage("Script reloaded")

	case scriptChangedMsg:
		return m, tea.Batch(loadScriptCmd(m.cfg.ScriptPath), m.watcher.watch)

	case statusMessageTimeoutMsg:
		m.statusMessage = ""
		return m, nil
	}

	var cmd tea.Cmd
	m.editor, cmd = m.editor.Update(msg)
	return m, cmd
}

func (m model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "ctrl+c" {
		return m, m.quit()
	}

	s := m.studio.Session

	switch {
	case key.Matches(msg, m.keys.Generate):
		return m, m.generate()
	case key.Matches(msg, m.keys.Play):
		return m, m.togglePlay()
	case key.Matches(msg, m.keys.Export):
		if !s.State().HasAudio() {
			return m, m.showStatusMessage(tts.ErrNoAudio.Error())
		}
		return m, exportCmd(s, m.cfg.ExportDir)
	case key.Matches(msg, m.keys.Copy):
		return m, copyInstructionCmd(s.State())
	case key.Matches(msg, m.keys.Focus):
		m.toggleFocus()
		return m, nil
	}

	for i, b := range m.keys.Tags {
		if key.Matches(msg, b) {
			m.insertTag(catalog.EmotionTags()[i].Value)
			return m, nil
		}
	}

	if m.focus == focusEditor {
		return m.updateEditor(msg)
	}
	return m.updateControls(msg)
}

func (m model) updateEditor(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "esc" {
		m.toggleFocus()
		return m, nil
	}
	if !m.canEdit() {
		return m, nil
	}

	prev := m.editor.Value()
	var cmd tea.Cmd
	m.editor, cmd = m.editor.Update(msg)
	if text := m.editor.Value(); text != prev {
		m.studio.Session.SetText(text)
	}
	return m, cmd
}

func (m model) updateControls(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, m.quit()
	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
	case key.Matches(msg, m.keys.Up):
		m.selected = control(cycle(int(m.selected), -1, int(controlCount)))
	case key.Matches(msg, m.keys.Down):
		m.selected = control(cycle(int(m.selected), 1, int(controlCount)))
	case key.Matches(msg, m.keys.Left):
		adjustControl(m.ctx, m.studio.Session, m.selected, -1)
	case key.Matches(msg, m.keys.Right):
		adjustControl(m.ctx, m.studio.Session, m.selected, 1)
	case msg.String() == " ":
		return m, m.togglePlay()
	case msg.String() == "enter":
		m.toggleFocus()
	}
	return m, nil
}

func (m *model) generate() tea.Cmd {
	st := m.studio.Session.State()
	if m.generating || st.IsGenerating() {
		return m.showStatusMessage(tts.ErrBusy.Error())
	}
	if !st.CanGenerate() {
		return m.showStatusMessage("Write something to narrate first")
	}

	m.generating = true
	m.editor.Blur()
	return tea.Batch(generateCmd(m.ctx, m.studio.Session), m.spinner.Tick)
}

func (m *model) togglePlay() tea.Cmd {
	if m.isGenerating() {
		return nil
	}
	s := m.studio.Session
	if !s.State().HasAudio() {
		return m.showStatusMessage(tts.ErrNoAudio.Error())
	}
	s.TogglePlay(m.ctx)
	m.syncEditor()
	return nil
}

// insertTag puts tag at the cursor, padded with spaces.
func (m *model) insertTag(tag string) {
	if !m.canEdit() {
		return
	}
	m.focus = focusEditor
	m.editor.Focus()
	m.editor.InsertString(tagPadding(m.textBeforeCursor(), tag))
	m.studio.Session.SetText(m.editor.Value())
}

// textBeforeCursor returns the script up to the editor cursor.
func (m model) textBeforeCursor() string {
	lines := strings.Split(m.editor.Value(), "\n")
	row := min(m.editor.Line(), len(lines)-1)

	li := m.editor.LineInfo()
	current := []rune(lines[row])
	col := min(max(0, li.StartColumn+li.ColumnOffset), len(current))

	before := append(lines[:row:row], string(current[:col]))
	return strings.Join(before, "\n")
}

func (m *model) toggleFocus() {
	if m.focus == focusEditor {
		m.focus = focusControls
	} else {
		m.focus = focusEditor
	}
	m.syncEditor()
	log.Debug("focus changed", "focus", m.focus)
}

// syncEditor focuses the editor only when it has focus and may be edited.
func (m *model) syncEditor() {
	if m.focus == focusEditor && m.canEdit() {
		m.editor.Focus()
	} else {
		m.editor.Blur()
	}
}

func (m model) isGenerating() bool {
	return m.generating || m.studio.Session.State().IsGenerating()
}

func (m model) canEdit() bool {
	return !m.generating && m.studio.Session.State().CanEdit()
}

func (m *model) showStatusMessage(msg string) tea.Cmd {
	m.statusMessage = msg
	return waitForStatusMessageTimeout()
}

func (m model) quit() tea.Cmd {
	if m.watcher != nil {
		m.watcher.close()
	}
	return tea.Quit
}

// audioLength returns the play time of the current audio, if resolvable.
func (m model) audioLength(st session.State) time.Duration {
	if m.studio.Store == nil || !st.HasAudio() {
		return 0
	}
	blob, ok := m.studio.Store.Resolve(st.AudioURL)
	if !ok {
		return 0
	}
	f, pcm, err := wav.Parse(blob)
	if err != nil {
		return 0
	}
	return f.Duration(len(pcm))
}

func (m model) View() string {
	if m.fatalErr != nil {
		return errorView(m.fatalErr, true)
	}

	st := m.studio.Session.State()
	width := max(20, m.width-2)

	var b strings.Builder
	fmt.Fprintf(&b, "\n %s\n\n", headingStyle("Script"))
	if m.canEdit() {
		b.WriteString(m.editor.View())
	} else {
		b.WriteString(lipgloss.NewStyle().
			Width(width).
			Height(m.editor.Height()).
			MaxHeight(m.editor.Height()).
			PaddingLeft(1).
			Render(HighlightScript(st.Text)))
	}

	fmt.Fprintf(&b, "\n\n %s\n\n", headingStyle("Studio"))
	b.WriteString(indent(controlsView(st, m.selected, m.focus == focusControls), 1))

	if st.Err != "" {
		fmt.Fprintf(&b, "\n %s\n", errorStyle("✗ "+st.Err))
	}

	b.WriteString("\n" + indent(m.help.View(m.keys), 1))

	content := b.String()
	if m.height > 0 {
		if pad := m.height - statusBarHeight - lipgloss.Height(content); pad > 0 {
			content += strings.Repeat("\n", pad)
		}
	}

	var out strings.Builder
	out.WriteString(content)
	statusBar{
		width:    m.width,
		state:    st,
		spinner:  m.spinner.View(),
		message:  m.statusMessage,
		duration: m.audioLength(st),
	}.view(&out)
	return out.String()
}

func errorView(err error, fatal bool) string {
	exitMsg := "press any key to "
	if fatal {
		exitMsg += "exit"
	} else {
		exitMsg += "return"
	}
	s := fmt.Sprintf("%s\n\n%v\n\n%s",
		errorStyle("ERROR"),
		err,
		faintStyle(exitMsg),
	)
	return "\n" + indent(s, 3)
}

// Lightweight version of reflow's indent function.
func indent(s string, n int) string {
	if n <= 0 || s == "" {
		return s
	}
	l := strings.Split(s, "\n")
	b := strings.Builder{}
	i := strings.Repeat(" ", n)
	for _, v := range l {
		fmt.Fprintf(&b, "%s%s\n", i, v)
	}
	return b.String()
}
