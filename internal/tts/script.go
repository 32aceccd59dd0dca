package tts

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// SegmentKind classifies a run of script text.
type SegmentKind int

const (
	// SegmentText is narration read aloud.
	SegmentText SegmentKind = iota
	// SegmentEmotion is an acting tag such as (Happy).
	SegmentEmotion
	// SegmentDirective is a bracketed cue such as [Pause: Medium].
	SegmentDirective
)

// Segment is one run of a script.
type Segment struct {
	Kind SegmentKind
	Text string
}

var directivePattern = regexp.MustCompile(`\[[^\]\n]*\]`)

// ParseScript splits text into narration, emotion tags and bracketed
// directives. emotions lists the exact tag literals to recognise; any
// bracketed run is a directive. Concatenating the segment texts yields the
// input unchanged.
func ParseScript(text string, emotions []string) []Segment {
	var segments []Segment
	var buf strings.Builder

	flush := func() {
		if buf.Len() > 0 {
			segments = append(segments, Segment{Kind: SegmentText, Text: buf.String()})
			buf.Reset()
		}
	}

	for i := 0; i < len(text); {
		rest := text[i:]

		if rest[0] == '[' {
			if loc := directivePattern.FindStringIndex(rest); loc != nil && loc[0] == 0 {
				flush()
				segments = append(segments, Segment{Kind: SegmentDirective, Text: rest[:loc[1]]})
				i += loc[1]
				continue
			}
		}

		if tag := matchEmotion(rest, emotions); tag != "" {
			flush()
			segments = append(segments, Segment{Kind: SegmentEmotion, Text: tag})
			i += len(tag)
			continue
		}

		buf.WriteByte(rest[0])
		i++
	}
	flush()

	return segments
}

func matchEmotion(s string, emotions []string) string {
	for _, tag := range emotions {
		if tag != "" && strings.HasPrefix(s, tag) {
			return tag
		}
	}
	return ""
}

// InsertTag inserts tag at byte offset pos. A leading space is added unless
// the text before pos is empty or already ends in a space; a trailing space
// is always added. It returns the new text and the cursor position just past
// the insertion.
func InsertTag(text string, pos int, tag string) (string, int) {
	if pos < 0 {
		pos = 0
	}
	if pos > len(text) {
		pos = len(text)
	}
	before, after := text[:pos], text[pos:]

	var insertion strings.Builder
	if before != "" && !strings.HasSuffix(before, " ") {
		insertion.WriteByte(' ')
	}
	insertion.WriteString(tag)
	insertion.WriteByte(' ')

	ins := insertion.String()
	return before + ins + after, pos + len(ins)
}

// FirstWords returns up to n space-separated words of text, as the text was
// split: consecutive spaces yield empty words.
func FirstWords(text string, n int) []string {
	words := strings.Split(text, " ")
	if len(words) > n {
		words = words[:n]
	}
	return words
}

// StripMarkdown reduces a markdown script to plain narration. Code blocks
// and raw HTML are dropped, link and emphasis text is kept, and block
// boundaries become line breaks so the script keeps its pacing. Tags like
// (Happy) and [Pause: Medium] survive since they parse as plain text.
func StripMarkdown(markdown string) string {
	reader := text.NewReader([]byte(markdown))
	doc := goldmark.New().Parser().Parse(reader)

	var buf strings.Builder
	walkMarkdown(doc, reader.Source(), &buf)

	return strings.TrimSpace(buf.String())
}

func walkMarkdown(node ast.Node, source []byte, buf *strings.Builder) {
	switch n := node.(type) {
	case *ast.CodeBlock, *ast.FencedCodeBlock, *ast.HTMLBlock, *ast.RawHTML:
		return

	case *ast.Text:
		buf.Write(n.Segment.Value(source))
		if n.SoftLineBreak() || n.HardLineBreak() {
			buf.WriteByte('\n')
		}
		return

	case *ast.String:
		buf.Write(n.Value)
		return

	case *ast.CodeSpan:
		for c := n.FirstChild(); c != nil; c = c.NextSibling() {
			if t, ok := c.(*ast.Text); ok {
				buf.Write(t.Segment.Value(source))
			}
		}
		return

	case *ast.Image:
		return

	case *ast.Heading, *ast.Paragraph, *ast.ListItem, *ast.TextBlock:
		for c := n.FirstChild(); c != nil; c = c.NextSibling() {
			walkMarkdown(c, source, buf)
		}
		if !strings.HasSuffix(buf.String(), "\n") {
			buf.WriteByte('\n')
		}
		return
	}

	for c := node.FirstChild(); c != nil; c = c.NextSibling() {
		walkMarkdown(c, source, buf)
	}
}

var markdownExtensions = []string{
	".md", ".mdown", ".mkdn", ".mkd", ".markdown",
}

// ErrEmptyScript is returned for script files without narration.
var ErrEmptyScript = errors.New("script is empty")

// ReadScriptFile reads a script from disk. Markdown files are reduced to
// their plain text.
func ReadScriptFile(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("unable to read script: %w", err)
	}
	text := strings.TrimRight(string(data), "\n")
	if IsMarkdownFile(path) {
		text = StripMarkdown(text)
	}
	if strings.TrimSpace(text) == "" {
		return "", ErrEmptyScript
	}
	return text, nil
}

// IsMarkdownFile reports whether path has a markdown extension.
func IsMarkdownFile(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, e := range markdownExtensions {
		if ext == e {
			return true
		}
	}
	return false
}
