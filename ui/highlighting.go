package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/dgnsrekt/nateq/internal/catalog"
	"github.com/dgnsrekt/nateq/internal/tts"
)

// tagStyles maps every palette value to its highlight style.
var tagStyles = func() map[string]lipgloss.Style {
	styles := make(map[string]lipgloss.Style)
	for _, t := range catalog.EmotionTags() {
		styles[t.Value] = lipgloss.NewStyle().
			Foreground(lipgloss.Color(t.Color)).
			Bold(true)
	}
	return styles
}()

// HighlightScript renders text with emotion tags and bracketed directives
// colored. Narration is left untouched.
func HighlightScript(text string) string {
	var b strings.Builder
	for _, seg := range tts.ParseScript(text, catalog.EmotionValues()) {
		switch seg.Kind {
		case tts.SegmentEmotion, tts.SegmentDirective:
			b.WriteString(tagStyle(seg.Text).Render(seg.Text))
		default:
			b.WriteString(seg.Text)
		}
	}
	return b.String()
}

func tagStyle(tag string) lipgloss.Style {
	if style, ok := tagStyles[tag]; ok {
		return style
	}
	return directiveStyle
}

// tagPadding returns the padded form of tag for insertion after before:
// a leading space unless before is empty or already ends in one, and
// always a trailing space.
func tagPadding(before, tag string) string {
	padded, _ := tts.InsertTag(before, len(before), tag)
	return padded[len(before):]
}
