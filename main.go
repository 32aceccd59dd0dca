// Package main provides the entry point for the nateq CLI application.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/caarlos0/env/v11"
	"github.com/charmbracelet/log"
	"github.com/dgnsrekt/nateq/internal/config"
	"github.com/dgnsrekt/nateq/ui"
	gap "github.com/muesli/go-app-paths"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/term"
)

var (
	// Version as provided by goreleaser.
	Version = ""
	// CommitSHA as provided by goreleaser.
	CommitSHA = ""

	configFile string
	scriptFile string
	mouse      bool
	debug      bool

	// opts is the validated configuration for the running command.
	opts config.Config

	rootCmd = &cobra.Command{
		Use:   "nateq",
		Short: "An AI voice studio for the terminal",
		Long: paragraph(
			fmt.Sprintf("\nWrite a script, pick a voice and a soundscape, and %s.", keyword("let it speak")),
		),
		Example:          paragraph("nateq\nnateq --file chapter.md --voice Kore --soundscape rain"),
		SilenceErrors:    false,
		SilenceUsage:     true,
		TraverseChildren: true,
		Args:             cobra.NoArgs,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return validateOptions(cmd)
		},
		RunE: execute,
	}
)

func validateOptions(cmd *cobra.Command) error {
	if cmd.Flags().Changed("config") {
		viper.SetConfigFile(configFile)
		if err := viper.ReadInConfig(); err != nil {
			return fmt.Errorf("unable to read config file: %w", err)
		}
	}

	// grab config values from Viper
	mouse = viper.GetBool("mouse")
	debug = viper.GetBool("debug")
	if debug {
		log.SetLevel(log.DebugLevel)
	}

	cfg, err := config.LoadFromViper(viper.GetViper())
	if err != nil {
		return err //nolint:wrapcheck
	}
	opts = cfg

	if scriptFile != "" {
		if _, err := os.Stat(scriptFile); err != nil {
			return fmt.Errorf("unable to open script: %w", err)
		}
	}
	return nil
}

func execute(*cobra.Command, []string) error {
	if !term.IsTerminal(int(os.Stdout.Fd())) {
		return errors.New("the studio needs a terminal; use `nateq generate` to narrate from scripts")
	}
	return runTUI(scriptFile)
}

func runTUI(path string) error {
	// Read environment to get debugging stuff
	cfg, err := env.ParseAs[ui.Config]()
	if err != nil {
		return fmt.Errorf("error parsing config: %v", err)
	}

	if path != "" {
		if path, err = filepath.Abs(path); err != nil {
			return fmt.Errorf("unable to get absolute path: %w", err)
		}
	}
	cfg.ScriptPath = path
	cfg.ExportDir = opts.Export.Dir
	cfg.EnableMouse = cfg.EnableMouse || mouse

	s, err := newStudio(opts, studioOptions{withAudio: true})
	if err != nil {
		return err
	}
	defer s.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	p := ui.NewProgram(ctx, cfg, ui.Studio{Session: s.session, Store: s.store})
	s.setOnEnded(func() { p.Send(ui.PlaybackEndedMsg{}) })

	// Run Bubble Tea program
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("unable to run tui program: %w", err)
	}
	return nil
}

func main() {
	closer, err := setupLog()
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
	if err := rootCmd.Execute(); err != nil {
		_ = closer()
		os.Exit(1)
	}
	_ = closer()
}

func init() {
	tryLoadConfigFromDefaultPlaces()
	if len(CommitSHA) >= 7 {
		vt := rootCmd.VersionTemplate()
		rootCmd.SetVersionTemplate(vt[:len(vt)-1] + " (" + CommitSHA[0:7] + ")\n")
	}
	if Version == "" {
		Version = "unknown (built from source)"
	}
	rootCmd.Version = Version
	rootCmd.InitDefaultCompletionCmd()

	defaults := config.DefaultConfig()

	// global flags
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&configFile, "config", "", fmt.Sprintf("config file (default %s)", viper.GetViper().ConfigFileUsed()))
	pf.BoolVar(&debug, "debug", false, "log at debug level")
	pf.StringVarP(&scriptFile, "file", "f", "", "script file to narrate (markdown is reduced to plain text)")

	// studio selections, shared by the TUI and generate
	pf.StringP("lang", "L", defaults.Studio.Language, "narration language ("+languageList()+")")
	pf.StringP("dialect", "d", "", "dialect id (default: the language default)")
	pf.String("voice", defaults.Studio.Voice, "voice id, provider voice or name")
	pf.StringP("soundscape", "s", defaults.Studio.Soundscape, "background soundscape id")
	pf.Float64("speed", defaults.Studio.Speed, "speaking rate (0.5-2.0)")
	pf.Int("pitch", defaults.Studio.Pitch, "pitch in semitones (-20 to 20)")
	pf.Int("stability", defaults.Studio.Stability, "prosodic stability (0-100)")
	pf.Bool("pronunciation", defaults.Studio.OptimizedPronunciation, "optimized pronunciation")
	pf.StringP("out", "o", defaults.Export.Dir, "directory exported audio is written to")

	rootCmd.Flags().BoolVarP(&mouse, "mouse", "m", false, "enable mouse support")
	_ = rootCmd.Flags().MarkHidden("mouse")

	// Config bindings
	_ = viper.BindPFlag("debug", pf.Lookup("debug"))
	_ = viper.BindPFlag("mouse", rootCmd.Flags().Lookup("mouse"))
	_ = viper.BindPFlag("studio.language", pf.Lookup("lang"))
	_ = viper.BindPFlag("studio.dialect", pf.Lookup("dialect"))
	_ = viper.BindPFlag("studio.voice", pf.Lookup("voice"))
	_ = viper.BindPFlag("studio.soundscape", pf.Lookup("soundscape"))
	_ = viper.BindPFlag("studio.speed", pf.Lookup("speed"))
	_ = viper.BindPFlag("studio.pitch", pf.Lookup("pitch"))
	_ = viper.BindPFlag("studio.stability", pf.Lookup("stability"))
	_ = viper.BindPFlag("studio.optimized_pronunciation", pf.Lookup("pronunciation"))
	_ = viper.BindPFlag("export.dir", pf.Lookup("out"))

	viper.SetDefault("mouse", false)
	config.SetDefaults(viper.GetViper())

	rootCmd.AddCommand(configCmd, manCmd, generateCmd, prefetchCmd, voicesCmd, soundscapesCmd, languagesCmd)
}

func tryLoadConfigFromDefaultPlaces() {
	scope := gap.NewScope(gap.User, "nateq")
	dirs, err := scope.ConfigDirs()
	if err != nil {
		fmt.Println("Could not load find configuration directory.")
		os.Exit(1)
	}

	if c := os.Getenv("XDG_CONFIG_HOME"); c != "" {
		dirs = append([]string{filepath.Join(c, "nateq")}, dirs...)
	}

	if c := os.Getenv("NATEQ_CONFIG_HOME"); c != "" {
		dirs = append([]string{c}, dirs...)
	}

	for _, v := range dirs {
		viper.AddConfigPath(v)
	}

	viper.SetConfigName("nateq")
	viper.SetConfigType("yaml")
	viper.SetEnvPrefix("nateq")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			log.Warn("Could not parse configuration file", "err", err)
		}
	}

	if used := viper.ConfigFileUsed(); used != "" {
		log.Debug("Using configuration file", "path", viper.ConfigFileUsed())
		return
	}

	if viper.ConfigFileUsed() == "" {
		configFile = filepath.Join(dirs[0], "nateq.yml")
	}
	if err := ensureConfigFile(); err != nil {
		log.Error("Could not create default configuration", "error", err)
	}
}
