package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"

	"github.com/charmbracelet/x/editor"
	"github.com/dgnsrekt/nateq/internal/config"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const defaultConfig = `# Gemini speech synthesis
gemini:
  # API key (GEMINI_API_KEY or API_KEY in the environment also work)
  # api_key: ""
  model: "gemini-2.5-flash-preview-tts"
  # client-side pacing of synthesis requests
  requests_per_minute: 10

# playback device
audio:
  # device buffer in bytes
  buffer_size: 4096

# background soundscapes
ambience:
  # decoded clips are cached here (default: user cache dir)
  # cache_dir: "~/.cache/nateq/ambience"
  # disk budget in MB, 0 keeps clips in memory only
  cache_max_size: 512
  # decoder used for the ogg clips
  ffmpeg: "ffmpeg"
  ffmpeg_timeout: "30s"

# selections a new session starts with
studio:
  # ar, en, fr or es
  language: "ar"
  # dialect id, unset selects the language default (msa for ar)
  # dialect: "egyptian"
  # voice id (v1-v4), provider voice (Kore) or name
  voice: "v1"
  # none, rain, cafe or drama
  soundscape: "none"
  speed: 1.0
  pitch: 0
  stability: 50
  optimized_pronunciation: true

# where exports are written
export:
  dir: "."
`

var configCmd = &cobra.Command{
	Use:     "config",
	Hidden:  false,
	Short:   "Edit the nateq config file",
	Long:    paragraph(fmt.Sprintf("\n%s the nateq config file. We’ll use EDITOR to determine which editor to use. If the config file doesn't exist, it will be created.", keyword("Edit"))),
	Example: paragraph("nateq config\nnateq config --config path/to/config.yml"),
	Args:    cobra.NoArgs,
	// runs without validating the current config
	PersistentPreRunE: func(*cobra.Command, []string) error { return nil },
	RunE: func(*cobra.Command, []string) error {
		if err := ensureConfigFile(); err != nil {
			return err
		}

		c, err := editor.Cmd("Nateq", configFile)
		if err != nil {
			return fmt.Errorf("unable to set config file: %w", err)
		}
		c.Stdin = os.Stdin
		c.Stdout = os.Stdout
		c.Stderr = os.Stderr
		if err := c.Run(); err != nil {
			return fmt.Errorf("unable to run command: %w", err)
		}

		fmt.Println("Wrote config file to:", configFile)

		viper.SetConfigFile(configFile)
		if err := viper.ReadInConfig(); err != nil {
			return fmt.Errorf("unable to parse config file: %w", err)
		}
		if _, err := config.LoadFromViper(viper.GetViper()); err != nil {
			fmt.Println(failure("Warning:"), err)
		}
		return nil
	},
}

func ensureConfigFile() error {
	if configFile == "" {
		configFile = viper.GetViper().ConfigFileUsed()
		if err := os.MkdirAll(filepath.Dir(configFile), 0o755); err != nil { //nolint:gosec
			return fmt.Errorf("could not write configuration file: %w", err)
		}
	}

	if ext := path.Ext(configFile); ext != ".yaml" && ext != ".yml" {
		return fmt.Errorf("'%s' is not a supported configuration type: use '%s' or '%s'", ext, ".yaml", ".yml")
	}

	if _, err := os.Stat(configFile); errors.Is(err, fs.ErrNotExist) {
		// File doesn't exist yet, create all necessary directories and
		// write the default config file
		if err := os.MkdirAll(filepath.Dir(configFile), 0o700); err != nil {
			return fmt.Errorf("unable create directory: %w", err)
		}

		f, err := os.Create(configFile)
		if err != nil {
			return fmt.Errorf("unable to create config file: %w", err)
		}
		defer func() { _ = f.Close() }()

		if _, err := f.WriteString(defaultConfig); err != nil {
			return fmt.Errorf("unable to write config file: %w", err)
		}
	} else if err != nil { // some other error occurred
		return fmt.Errorf("unable to stat config file: %w", err)
	}
	return nil
}
