package ui

import (
	"fmt"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"
	"github.com/fsnotify/fsnotify"
)

// scriptWatcher reports writes to a single script file. The parent
// directory is watched so editors that replace the file are still seen.
type scriptWatcher struct {
	watcher *fsnotify.Watcher
	path    string
}

func newScriptWatcher(path string) (*scriptWatcher, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("unable to resolve script path: %w", err)
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("error creating fsnotify watcher: %w", err)
	}

	dir := filepath.Dir(abs)
	if err := w.Add(dir); err != nil {
		_ = w.Close()
		return nil, fmt.Errorf("error adding dir to fsnotify watcher: %w", err)
	}
	log.Info("fsnotify watching dir", "dir", dir)

	return &scriptWatcher{watcher: w, path: abs}, nil
}

// watch blocks until the script changes. It returns nil once the watcher
// is closed.
func (s *scriptWatcher) watch() tea.Msg {
	for {
		select {
		case event, ok := <-s.watcher.Events:
			if !ok {
				return nil
			}
			if event.Name != s.path {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}

			log.Debug("fsnotify event", "file", event.Name, "event", event.Op)
			return scriptChangedMsg{}
		case err, ok := <-s.watcher.Errors:
			if !ok {
				return nil
			}
			log.Debug("fsnotify error", "file", s.path, "error", err)
		}
	}
}

func (s *scriptWatcher) close() {
	if err := s.watcher.Close(); err != nil {
		log.Error("fsnotify fail to close watcher", "error", err)
	}
}
