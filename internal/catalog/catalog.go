// Package catalog holds the static studio content: voice actors, languages
// with their dialects, soundscapes and the emotion tag palette.
package catalog

import (
	"fmt"
	"strings"

	"github.com/dgnsrekt/nateq/internal/tts"
	"github.com/sahilm/fuzzy"
)

// Direction is the writing direction of a language.
type Direction string

const (
	RTL Direction = "rtl"
	LTR Direction = "ltr"
)

// LanguageInfo describes one supported language.
type LanguageInfo struct {
	ID    tts.Language
	Label string
	Dir   Direction
}

// Dialect is one accent option of a language.
type Dialect struct {
	ID    string
	Label string
}

// Soundscape is a looping ambience track. An empty URL means silence.
type Soundscape struct {
	ID     string
	Name   string
	URL    string
	Volume float64
}

// Silent reports whether the soundscape plays nothing.
func (s Soundscape) Silent() bool {
	return s.URL == ""
}

// EmotionTag is an inline acting cue.
type EmotionTag struct {
	Label string
	Value string
	Color string // lipgloss color for highlighting
}

// NoSoundscape is the id of the silent soundscape.
const NoSoundscape = "none"

var voices = []tts.VoiceProfile{
	{ID: "v1", Name: "Rawi (Deep)", ProviderVoice: "Fenrir", Gender: tts.GenderMale, Description: "Grave Narrator, Authoritative", BasePitch: "low"},
	{ID: "v2", Name: "Zaynab (Clear)", ProviderVoice: "Kore", Gender: tts.GenderFemale, Description: "Soothing, Audiobook Standard", BasePitch: "medium"},
	{ID: "v3", Name: "Omar (Energetic)", ProviderVoice: "Puck", Gender: tts.GenderMale, Description: "Young, Fast-paced, YouTube style", BasePitch: "medium"},
	{ID: "v4", Name: "Layla (Soft)", ProviderVoice: "Zephyr", Gender: tts.GenderFemale, Description: "Whispery, Emotional", BasePitch: "high"},
}

var soundscapes = []Soundscape{
	{ID: NoSoundscape, Name: "No Background", URL: "", Volume: 0},
	{ID: "rain", Name: "Heavy Rain", URL: "https://actions.google.com/sounds/v1/weather/rain_heavy_loud.ogg", Volume: 0.3},
	{ID: "cafe", Name: "Busy Cafe", URL: "https://actions.google.com/sounds/v1/ambiences/coffee_shop.ogg", Volume: 0.3},
	{ID: "drama", Name: "Dramatic Drone", URL: "https://actions.google.com/sounds/v1/science_fiction/human_entering_atmosphere.ogg", Volume: 0.4},
}

var languages = []LanguageInfo{
	{ID: tts.LanguageArabic, Label: "Arabic (العربية)", Dir: RTL},
	{ID: tts.LanguageEnglish, Label: "English", Dir: LTR},
	{ID: tts.LanguageFrench, Label: "French (Français)", Dir: LTR},
	{ID: tts.LanguageSpanish, Label: "Spanish (Español)", Dir: LTR},
}

// dialects are ordered; the first entry is the language default.
var dialects = map[tts.Language][]Dialect{
	tts.LanguageArabic: {
		{ID: "msa", Label: "Modern Standard Arabic (Fusha)"},
		{ID: "egyptian", Label: "Egyptian Dialect (Masri)"},
		{ID: "khaleeji", Label: "Gulf Dialect (Khaleeji)"},
		{ID: "levantine", Label: "Levantine (Shami)"},
		{ID: "moroccan", Label: "Moroccan (Darija)"},
	},
	tts.LanguageEnglish: {
		{ID: "us", Label: "American English (US)"},
		{ID: "uk", Label: "British English (UK)"},
		{ID: "in", Label: "Indian English"},
		{ID: "au", Label: "Australian English"},
	},
	tts.LanguageFrench: {
		{ID: "fr", Label: "Standard French (Parisian)"},
		{ID: "ca", Label: "Canadian French (Québécois)"},
	},
	tts.LanguageSpanish: {
		{ID: "es", Label: "Peninsular Spanish (Spain)"},
		{ID: "mx", Label: "Mexican Spanish (LatAm)"},
	},
}

var emotionTags = []EmotionTag{
	{Label: "Happy", Value: "(Happy)", Color: "#EAB308"},
	{Label: "Sad", Value: "(Sad)", Color: "#3B82F6"},
	{Label: "Whisper", Value: "(Whisper)", Color: "#A855F7"},
	{Label: "Fear", Value: "(Fear)", Color: "#EF4444"},
	{Label: "Pause", Value: "[Pause: Medium]", Color: "#6B7280"},
}

// Voices returns the voice catalog in display order.
func Voices() []tts.VoiceProfile {
	return append([]tts.VoiceProfile(nil), voices...)
}

// Voice looks a voice up by id.
func Voice(id string) (tts.VoiceProfile, bool) {
	for _, v := range voices {
		if v.ID == id {
			return v, true
		}
	}
	return tts.VoiceProfile{}, false
}

// FindVoice resolves a user query to a voice: an exact id, a
// case-insensitive provider voice name, or the best fuzzy match on the
// display name.
func FindVoice(query string) (tts.VoiceProfile, error) {
	q := strings.TrimSpace(query)
	if v, ok := Voice(q); ok {
		return v, nil
	}
	for _, v := range voices {
		if strings.EqualFold(v.ProviderVoice, q) {
			return v, nil
		}
	}

	names := make([]string, len(voices))
	for i, v := range voices {
		names[i] = v.Name
	}
	if q != "" {
		if matches := fuzzy.Find(q, names); len(matches) > 0 {
			return voices[matches[0].Index], nil
		}
	}
	return tts.VoiceProfile{}, fmt.Errorf("%w: %q", tts.ErrVoiceNotFound, query)
}

// Languages returns the supported languages in display order.
func Languages() []LanguageInfo {
	return append([]LanguageInfo(nil), languages...)
}

// Language looks up a language; unknown ids fall back to Arabic, the first
// entry.
func Language(id tts.Language) LanguageInfo {
	for _, l := range languages {
		if l.ID == id {
			return l
		}
	}
	return languages[0]
}

// IsLanguage reports whether id is a supported language.
func IsLanguage(id tts.Language) bool {
	_, ok := dialects[id]
	return ok
}

// Dialects returns the dialects of lang, default first.
func Dialects(lang tts.Language) []Dialect {
	return append([]Dialect(nil), dialects[lang]...)
}

// DefaultDialect returns the first dialect of lang, or "" for unknown
// languages.
func DefaultDialect(lang tts.Language) string {
	ds := dialects[lang]
	if len(ds) == 0 {
		return ""
	}
	return ds[0].ID
}

// HasDialect reports whether dialect belongs to lang.
func HasDialect(lang tts.Language, dialect string) bool {
	for _, d := range dialects[lang] {
		if d.ID == dialect {
			return true
		}
	}
	return false
}

// Soundscapes returns the soundscapes, silence first.
func Soundscapes() []Soundscape {
	return append([]Soundscape(nil), soundscapes...)
}

// LookupSoundscape finds a soundscape by id.
func LookupSoundscape(id string) (Soundscape, bool) {
	for _, s := range soundscapes {
		if s.ID == id {
			return s, true
		}
	}
	return Soundscape{}, false
}

// SoundscapeOrSilence finds a soundscape by id, falling back to silence.
func SoundscapeOrSilence(id string) Soundscape {
	if s, ok := LookupSoundscape(id); ok {
		return s
	}
	return soundscapes[0]
}

// EmotionTags returns the tag palette.
func EmotionTags() []EmotionTag {
	return append([]EmotionTag(nil), emotionTags...)
}

// EmotionValues returns the literal values of the parenthesised emotion
// tags, for script parsing.
func EmotionValues() []string {
	var out []string
	for _, t := range emotionTags {
		if strings.HasPrefix(t.Value, "(") {
			out = append(out, t.Value)
		}
	}
	return out
}

// PronunciationLabel names the pronunciation toggle for lang.
func PronunciationLabel(lang tts.Language) string {
	if lang == tts.LanguageArabic {
		return "Optimized Pronunciation (Tashkeel)"
	}
	return "HD Pronunciation"
}

// DefaultText is the demo script a new session starts with.
const DefaultText = "أهلاً بك في ناطق برو. هذا استوديو صوتي متطور يعتمد على الذكاء الاصطناعي.\n" +
	"(Happy) يمكنني التحدث بمشاعر مختلفة!\n" +
	"[Pause: Medium]\n" +
	"(Whisper) كما يمكنني الهمس بسرية تامة..."
