package tts

import (
	"fmt"
	"strings"
)

// Instruction is the composed directive sent to the synthesis provider.
type Instruction struct {
	// Directives is the bracketed director block (persona, accent, tone,
	// style, acting and phonetics clauses).
	Directives string

	// Text is the user's passage, verbatim.
	Text string
}

// Prompt returns the full payload: the director block, a blank line, then
// the literal text.
func (in Instruction) Prompt() string {
	return in.Directives + "\n\n" + in.Text
}

// toneRule maps a threshold on one setting to a tone cue.
type toneRule struct {
	name  string
	match func(AudioSettings) bool
	cue   string
}

// toneRules are exclusive bands around the neutral zone: speed in
// [0.9, 1.1] and pitch in [-5, 5] produce no cue.
var toneRules = []toneRule{
	{"high-pitch", func(s AudioSettings) bool { return s.Pitch > 5 }, "Use a high pitch."},
	{"deep-voice", func(s AudioSettings) bool { return s.Pitch < -5 }, "Use a deep voice."},
	{"fast", func(s AudioSettings) bool { return s.Speed > 1.1 }, "Speak fast and energetically."},
	{"slow", func(s AudioSettings) bool { return s.Speed < 0.9 }, "Speak slowly."},
}

// accentRules holds the accent clause per dialect id.
var accentRules = map[string]string{
	// Arabic
	"msa":       "Use Modern Standard Arabic (Fusha).",
	"egyptian":  "Use Egyptian Dialect (Masri).",
	"khaleeji":  "Use Gulf (Khaleeji) Dialect.",
	"levantine": "Use Levantine (Shami) Dialect.",
	"moroccan":  "Use Moroccan Darija.",
	// English
	"us": "Use a General American accent.",
	"uk": "Use a British RP accent.",
	"in": "Use an Indian English accent.",
	"au": "Use an Australian English accent.",
	// French
	"fr": "Use Standard Parisian French.",
	"ca": "Use Canadian Québécois French.",
	// Spanish
	"es": "Use Peninsular (European) Spanish.",
	"mx": "Use Mexican Spanish.",
}

const (
	pronunciationNatural   = "Speak naturally."
	pronunciationBroadcast = "Enunciate every word clearly like a professional broadcaster."
	pronunciationTashkeel  = "Enunciate clearly like an audiobook narrator. Follow Tashkeel strictly."

	actingDirective    = "Do not read tags like (Happy) aloud, act them out."
	phoneticsDirective = "If text has Tashkeel, follow strictly. If raw, infer I'rab contextually."
)

// ToneCues returns the tone cues selected by settings, in rule order.
func ToneCues(s AudioSettings) []string {
	var cues []string
	for _, r := range toneRules {
		if r.match(s) {
			cues = append(cues, r.cue)
		}
	}
	return cues
}

// AccentClause returns the accent clause for dialect, falling back to a
// generic clause naming the language when the dialect is unknown.
func AccentClause(lang Language, dialect string) string {
	if clause, ok := accentRules[dialect]; ok {
		return clause
	}
	return fmt.Sprintf("Use standard %s pronunciation.", lang)
}

// PronunciationClause returns the style clause for the pronunciation toggle.
func PronunciationClause(lang Language, optimized bool) string {
	switch {
	case !optimized:
		return pronunciationNatural
	case lang == LanguageArabic:
		return pronunciationTashkeel
	default:
		return pronunciationBroadcast
	}
}

// BuildInstruction composes the synthesis instruction for req. It never
// fails and never alters req.Text.
func BuildInstruction(req GenerationRequest) Instruction {
	var b strings.Builder

	fmt.Fprintf(&b, "[Instructions: You are a professional Voice Actor named %s (%s).\n",
		req.Voice.Name, req.Voice.Description)
	fmt.Fprintf(&b, "Language: %s\n", strings.ToUpper(string(req.Language)))
	fmt.Fprintf(&b, "Accent/Dialect: %s\n", AccentClause(req.Language, req.Dialect))
	if cues := ToneCues(req.Settings); len(cues) > 0 {
		fmt.Fprintf(&b, "Tone: %s\n", strings.Join(cues, " "))
	}
	fmt.Fprintf(&b, "Style: %s\n", PronunciationClause(req.Language, req.Settings.OptimizedPronunciation))
	fmt.Fprintf(&b, "Acting: %s", actingDirective)
	if req.Language == LanguageArabic {
		fmt.Fprintf(&b, "\nPhonetics: %s", phoneticsDirective)
	}
	b.WriteString("]")

	return Instruction{
		Directives: b.String(),
		Text:       req.Text,
	}
}
