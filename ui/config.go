package ui

// Config contains TUI-specific configuration.
type Config struct {
	// Script file to load into the editor and watch for changes.
	ScriptPath string

	// Directory exports are written to.
	ExportDir string

	EnableMouse bool `env:"NATEQ_ENABLE_MOUSE"`

	// Rows given to the script editor.
	EditorHeight int `env:"NATEQ_EDITOR_HEIGHT" envDefault:"8"`

	// For debugging the UI
	WatchScript  bool `env:"NATEQ_WATCH_SCRIPT"  envDefault:"true"`
	ShowLineNums bool `env:"NATEQ_LINE_NUMBERS"  envDefault:"false"`
}
