package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/dgnsrekt/nateq/internal/observe"
	"github.com/dgnsrekt/nateq/internal/tts"
	"github.com/dgnsrekt/nateq/internal/wav"
	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

var (
	playAfterGenerate bool
	printInstruction  bool
	printStats        bool

	generateCmd = &cobra.Command{
		Use:     "generate [TEXT|-]",
		Aliases: []string{"gen"},
		Short:   "Narrate a script into a WAV file",
		Long: paragraph(fmt.Sprintf("\n%s a script with the configured voice and save it as a WAV file. "+
			"The script comes from the argument, from stdin (-) or from --file.", keyword("Narrate"))),
		Example: paragraph("nateq generate \"Hello there\" --lang en --voice Kore\n" +
			"cat story.md | nateq generate - --play --soundscape rain\n" +
			"nateq generate --file chapter.md --print-instruction"),
		Args: cobra.MaximumNArgs(1),
		RunE: runGenerate,
	}
)

func runGenerate(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()

	text, err := readInput(args, scriptFile, os.Stdin)
	if err != nil {
		return err
	}

	if printInstruction {
		req, err := initialState(opts.Studio, text).Request()
		if err != nil {
			return err //nolint:wrapcheck
		}
		_, err = fmt.Fprintln(out, tts.BuildInstruction(req).Prompt())
		return err //nolint:wrapcheck
	}

	so := studioOptions{withAudio: playAfterGenerate, text: text}
	var reader *sdkmetric.ManualReader
	if printStats {
		reader = sdkmetric.NewManualReader()
		mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
		defer func() { _ = mp.Shutdown(context.Background()) }()
		if so.metrics, err = observe.NewMetrics(mp); err != nil {
			return fmt.Errorf("unable to create metrics: %w", err)
		}
	}

	s, err := newStudio(opts, so)
	if err != nil {
		return err
	}
	defer s.Close()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	if err := s.session.Generate(ctx); err != nil {
		return err //nolint:wrapcheck
	}

	path, err := s.session.Export(opts.Export.Dir)
	if err != nil {
		return err //nolint:wrapcheck
	}
	if blob, ok := s.store.Resolve(s.session.State().AudioURL); ok {
		fmt.Fprintf(out, "%s %s %s\n", keyword("✓"), path, subtle(describeAudio(blob)))
	}

	if playAfterGenerate {
		if err := playUntilEnd(ctx, s); err != nil {
			return err
		}
	}

	if reader != nil {
		return writeStats(out, reader)
	}
	return nil
}

// readInput picks the script: a literal argument, the --file script, or
// stdin for "-" and pipes.
func readInput(args []string, file string, stdin io.Reader) (string, error) {
	if len(args) == 1 && args[0] != "-" {
		return args[0], nil
	}

	if len(args) == 0 && file != "" {
		return tts.ReadScriptFile(file) //nolint:wrapcheck
	}

	if len(args) == 1 || stdinIsPipe() {
		b, err := io.ReadAll(stdin)
		if err != nil {
			return "", fmt.Errorf("unable to read from stdin: %w", err)
		}
		if strings.TrimSpace(string(b)) == "" {
			return "", tts.ErrEmptyScript
		}
		return strings.TrimRight(string(b), "\n"), nil
	}

	return "", errors.New("nothing to narrate: pass TEXT, - or --file")
}

func stdinIsPipe() bool {
	stat, err := os.Stdin.Stat()
	if err != nil {
		return false
	}
	return stat.Mode()&os.ModeCharDevice == 0
}

// describeAudio summarizes a WAV container, e.g. "(1.2 MB, 0:12)".
func describeAudio(blob []byte) string {
	f, pcm, err := wav.Parse(blob)
	if err != nil {
		return fmt.Sprintf("(%s)", humanize.Bytes(uint64(len(blob))))
	}
	d := f.Duration(len(pcm)).Round(time.Second)
	return fmt.Sprintf("(%s, %s)", humanize.Bytes(uint64(len(blob))), d)
}

// playUntilEnd plays the narration and returns once it ends or ctx is
// cancelled.
func playUntilEnd(ctx context.Context, s *studio) error {
	done := make(chan struct{})
	var once sync.Once
	s.setOnEnded(func() {
		s.session.HandleEnded()
		once.Do(func() { close(done) })
	})

	if st := s.session.SetPlaying(ctx, true); !st.IsPlaying() {
		return tts.ErrNoAudio
	}

	select {
	case <-done:
	case <-ctx.Done():
		s.session.SetPlaying(context.Background(), false)
	}
	return nil
}

// writeStats prints the telemetry gathered during the run.
func writeStats(w io.Writer, reader *sdkmetric.ManualReader) error {
	var rm metricdata.ResourceMetrics
	if err := reader.Collect(context.Background(), &rm); err != nil {
		return fmt.Errorf("unable to collect metrics: %w", err)
	}

	var lines []string
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			switch data := m.Data.(type) {
			case metricdata.Sum[int64]:
				var total int64
				for _, dp := range data.DataPoints {
					total += dp.Value
				}
				lines = append(lines, fmt.Sprintf("%s: %s", m.Name, humanize.Comma(total)))
			case metricdata.Histogram[float64]:
				var count uint64
				var sum float64
				for _, dp := range data.DataPoints {
					count += dp.Count
					sum += dp.Sum
				}
				lines = append(lines, fmt.Sprintf("%s: %d observed, %s total", m.Name, count,
					time.Duration(sum*float64(time.Second)).Round(time.Millisecond)))
			}
		}
	}
	sort.Strings(lines)

	for _, l := range lines {
		if _, err := fmt.Fprintln(w, subtle(l)); err != nil {
			return err //nolint:wrapcheck
		}
	}
	return nil
}

func init() {
	generateCmd.Flags().BoolVarP(&playAfterGenerate, "play", "p", false, "play the narration after saving it")
	generateCmd.Flags().BoolVar(&printInstruction, "print-instruction", false, "print the synthesis instruction and exit")
	generateCmd.Flags().BoolVar(&printStats, "stats", false, "print synthesis telemetry")
}
