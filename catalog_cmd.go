package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/glamour/styles"
	"github.com/charmbracelet/lipgloss"
	"github.com/dgnsrekt/nateq/internal/catalog"
	"github.com/dgnsrekt/nateq/internal/observe"
	te "github.com/muesli/termenv"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

const defaultWidth = 80

var (
	voicesCmd = &cobra.Command{
		Use:   "voices",
		Short: "List the narrator voices",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return renderMarkdown(cmd.OutOrStdout(), voicesTable())
		},
	}

	soundscapesCmd = &cobra.Command{
		Use:     "soundscapes",
		Aliases: []string{"ambience"},
		Short:   "List the background soundscapes",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			manager, loader, err := newAmbience(opts, observe.DefaultMetrics())
			if err != nil {
				return err
			}
			defer manager.Close() //nolint:errcheck
			return renderMarkdown(cmd.OutOrStdout(), soundscapesTable(loader.Cached))
		},
	}

	languagesCmd = &cobra.Command{
		Use:   "languages",
		Short: "List the languages and their dialects",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return renderMarkdown(cmd.OutOrStdout(), languagesTable())
		},
	}
)

func voicesTable() string {
	var b strings.Builder
	b.WriteString("# Voices\n\n")
	b.WriteString("| ID | Name | Voice | Gender | Pitch | Character |\n")
	b.WriteString("|----|------|-------|--------|-------|-----------|\n")
	for _, v := range catalog.Voices() {
		marker := ""
		if v.ID == opts.Studio.Voice {
			marker = " *"
		}
		fmt.Fprintf(&b, "| %s%s | %s | %s | %s | %s | %s |\n",
			v.ID, marker, v.Name, v.ProviderVoice, v.Gender, v.BasePitch, v.Description)
	}
	return b.String()
}

func soundscapesTable(cached func(catalog.Soundscape) bool) string {
	var b strings.Builder
	b.WriteString("# Soundscapes\n\n")
	b.WriteString("| ID | Name | Volume | Cached |\n")
	b.WriteString("|----|------|--------|--------|\n")
	for _, s := range catalog.Soundscapes() {
		status := "no"
		switch {
		case s.Silent():
			status = "-"
		case cached != nil && cached(s):
			status = "yes"
		}
		fmt.Fprintf(&b, "| %s | %s | %.0f%% | %s |\n", s.ID, s.Name, s.Volume*100, status)
	}
	return b.String()
}

func languagesTable() string {
	var b strings.Builder
	b.WriteString("# Languages\n\n")
	b.WriteString("| Language | ID | Direction | Dialects | Pronunciation |\n")
	b.WriteString("|----------|----|-----------|----------|---------------|\n")
	for _, l := range catalog.Languages() {
		dialects := make([]string, 0, len(catalog.Dialects(l.ID)))
		def := catalog.DefaultDialect(l.ID)
		for _, d := range catalog.Dialects(l.ID) {
			name := fmt.Sprintf("%s (`%s`)", d.Label, d.ID)
			if d.ID == def {
				name = "**" + name + "**"
			}
			dialects = append(dialects, name)
		}
		fmt.Fprintf(&b, "| %s | %s | %s | %s | %s |\n",
			l.Label, l.ID, l.Dir, strings.Join(dialects, ", "), catalog.PronunciationLabel(l.ID))
	}
	b.WriteString("\nThe bold dialect is used when none is given.\n")
	return b.String()
}

// renderMarkdown styles md for the terminal, or plainly when stdout is
// not one.
func renderMarkdown(w io.Writer, md string) error {
	width := defaultWidth
	style := styles.NoTTYStyle
	if fd := int(os.Stdout.Fd()); term.IsTerminal(fd) { //nolint:gosec
		if tw, _, err := term.GetSize(fd); err == nil && tw > 0 {
			width = min(tw, 120)
		}
		style = styles.LightStyle
		if te.HasDarkBackground() {
			style = styles.DarkStyle
		}
	}

	r, err := glamour.NewTermRenderer(
		glamour.WithColorProfile(lipgloss.ColorProfile()),
		glamour.WithStandardStyle(style),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return fmt.Errorf("unable to create renderer: %w", err)
	}

	out, err := r.Render(md)
	if err != nil {
		return fmt.Errorf("unable to render markdown: %w", err)
	}
	_, err = io.WriteString(w, out)
	return err //nolint:wrapcheck
}

// languageList is the comma separated language ids, for flag help.
func languageList() string {
	ids := make([]string, 0, len(catalog.Languages()))
	for _, l := range catalog.Languages() {
		ids = append(ids, string(l.ID))
	}
	return strings.Join(ids, ", ")
}
