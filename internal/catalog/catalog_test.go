package catalog

import (
	"errors"
	"testing"

	"github.com/dgnsrekt/nateq/internal/tts"
)

func TestDefaultDialect(t *testing.T) {
	tests := []struct {
		lang tts.Language
		want string
	}{
		{tts.LanguageArabic, "msa"},
		{tts.LanguageEnglish, "us"},
		{tts.LanguageFrench, "fr"},
		{tts.LanguageSpanish, "es"},
		{tts.Language("de"), ""},
	}
	for _, tt := range tests {
		if got := DefaultDialect(tt.lang); got != tt.want {
			t.Errorf("DefaultDialect(%q) = %q, want %q", tt.lang, got, tt.want)
		}
	}
}

func TestEveryDialectHasAccentClause(t *testing.T) {
	for _, l := range Languages() {
		for _, d := range Dialects(l.ID) {
			clause := tts.AccentClause(l.ID, d.ID)
			fallback := tts.AccentClause(l.ID, "\x00unknown")
			if clause == fallback {
				t.Errorf("dialect %s/%s has no dedicated accent clause", l.ID, d.ID)
			}
		}
	}
}

func TestFindVoice(t *testing.T) {
	tests := []struct {
		query  string
		wantID string
	}{
		{"v2", "v2"},
		{"fenrir", "v1"},
		{"ZEPHYR", "v4"},
		{"layla", "v4"},
		{"omar", "v3"},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			v, err := FindVoice(tt.query)
			if err != nil {
				t.Fatalf("FindVoice(%q) error = %v", tt.query, err)
			}
			if v.ID != tt.wantID {
				t.Errorf("FindVoice(%q) = %s, want %s", tt.query, v.ID, tt.wantID)
			}
		})
	}

	if _, err := FindVoice("qqq"); !errors.Is(err, tts.ErrVoiceNotFound) {
		t.Errorf("FindVoice(qqq) error = %v, want ErrVoiceNotFound", err)
	}
	if _, err := FindVoice(""); !errors.Is(err, tts.ErrVoiceNotFound) {
		t.Errorf("FindVoice(\"\") error = %v, want ErrVoiceNotFound", err)
	}
}

func TestSoundscapes(t *testing.T) {
	none, ok := LookupSoundscape(NoSoundscape)
	if !ok || !none.Silent() {
		t.Fatalf("none soundscape = %+v, %v", none, ok)
	}
	for _, s := range Soundscapes()[1:] {
		if s.Silent() || s.Volume <= 0 || s.Volume > 1 {
			t.Errorf("soundscape %s: url=%q volume=%v", s.ID, s.URL, s.Volume)
		}
	}
	if got := SoundscapeOrSilence("missing"); got.ID != NoSoundscape {
		t.Errorf("SoundscapeOrSilence(missing) = %s", got.ID)
	}
}

func TestCatalogCopies(t *testing.T) {
	vs := Voices()
	vs[0].Name = "changed"
	if v, _ := Voice("v1"); v.Name == "changed" {
		t.Error("Voices() must return a copy")
	}
}

func TestLanguageDirection(t *testing.T) {
	if Language(tts.LanguageArabic).Dir != RTL {
		t.Error("Arabic should be rtl")
	}
	if Language(tts.LanguageFrench).Dir != LTR {
		t.Error("French should be ltr")
	}
	if PronunciationLabel(tts.LanguageArabic) == PronunciationLabel(tts.LanguageEnglish) {
		t.Error("Arabic pronunciation label should differ")
	}
}

func TestEmotionValues(t *testing.T) {
	got := EmotionValues()
	if len(got) != 4 {
		t.Fatalf("EmotionValues() = %v", got)
	}
	segs := tts.ParseScript(DefaultText, got)
	var emotions, directives int
	for _, s := range segs {
		switch s.Kind {
		case tts.SegmentEmotion:
			emotions++
		case tts.SegmentDirective:
			directives++
		}
	}
	if emotions != 2 || directives != 1 {
		t.Errorf("default text: %d emotions, %d directives; want 2 and 1", emotions, directives)
	}
}
