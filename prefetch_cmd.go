package main

import (
	"fmt"
	"io"
	"os"
	"os/signal"
	"sync"

	"github.com/dgnsrekt/nateq/internal/cache"
	"github.com/dgnsrekt/nateq/internal/catalog"
	"github.com/dgnsrekt/nateq/internal/observe"
	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

var (
	clearCache bool

	prefetchCmd = &cobra.Command{
		Use:   "prefetch",
		Short: "Download and decode every soundscape ahead of time",
		Long: paragraph(fmt.Sprintf("\n%s every soundscape into the ambience cache so playback starts "+
			"without a download. Use --clear to empty the cache first.", keyword("Fetch"))),
		Args: cobra.NoArgs,
		RunE: runPrefetch,
	}
)

func runPrefetch(cmd *cobra.Command, _ []string) error {
	out := cmd.OutOrStdout()

	manager, loader, err := newAmbience(opts, observe.DefaultMetrics())
	if err != nil {
		return err
	}
	defer manager.Close() //nolint:errcheck

	if clearCache {
		if err := manager.Clear(); err != nil {
			return fmt.Errorf("unable to clear cache: %w", err)
		}
		fmt.Fprintln(out, subtle("Cache cleared."))
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	var (
		mu     sync.Mutex
		failed int
	)
	err = loader.Prefetch(ctx, catalog.Soundscapes(), func(s catalog.Soundscape, err error) {
		mu.Lock()
		defer mu.Unlock()
		if err != nil {
			failed++
			fmt.Fprintf(out, "%s %s %s\n", failure("✗"), s.Name, subtle(err.Error()))
			return
		}
		fmt.Fprintf(out, "%s %s\n", keyword("✓"), s.Name)
	})
	if err != nil {
		return err //nolint:wrapcheck
	}

	writeCacheStats(out, manager.Stats())
	if failed > 0 {
		return fmt.Errorf("%d soundscape(s) failed to load", failed)
	}
	return nil
}

func writeCacheStats(w io.Writer, s cache.Summary) {
	fmt.Fprintf(w, "\n%s %d items, %s of %s\n", keyword("memory"),
		s.Memory.Items, humanize.Bytes(uint64(s.Memory.Size)), humanize.Bytes(uint64(s.Memory.Capacity))) //nolint:gosec
	if s.DiskOn {
		fmt.Fprintf(w, "%s   %d items, %s of %s\n", keyword("disk"),
			s.Disk.Items, humanize.Bytes(uint64(s.Disk.Size)), humanize.Bytes(uint64(s.Disk.Capacity))) //nolint:gosec
	}
}

func init() {
	prefetchCmd.Flags().BoolVar(&clearCache, "clear", false, "empty the ambience cache before fetching")
}
