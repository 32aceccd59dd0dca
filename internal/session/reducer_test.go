package session

import (
	"testing"

	"github.com/dgnsrekt/nateq/internal/resource"
	"github.com/dgnsrekt/nateq/internal/tts"
)

func allStatuses() []State {
	base := DefaultState()
	var out []State
	for _, st := range []Status{StatusIdle, StatusGenerating, StatusReady, StatusPlaying, StatusFailed} {
		for _, h := range []resource.Handle{"", "blob:nateq/x"} {
			s := base
			s.Status = st
			s.AudioURL = h
			s.Err = "old error"
			out = append(out, s)
		}
	}
	return out
}

func TestStartGenerationFromAnyState(t *testing.T) {
	for _, s := range allStatuses() {
		got := Reduce(s, StartGeneration{})
		if !got.IsGenerating() || got.IsPlaying() {
			t.Errorf("from %v: status = %v", s.Status, got.Status)
		}
		if got.Err != "" || got.HasAudio() {
			t.Errorf("from %v: err=%q url=%q, want both cleared", s.Status, got.Err, got.AudioURL)
		}
	}
}

func TestGenerationSucceededNeverPlays(t *testing.T) {
	for _, s := range allStatuses() {
		got := Reduce(s, GenerationSucceeded{URL: "blob:nateq/new"})
		if got.Status != StatusReady || got.AudioURL != "blob:nateq/new" || got.Err != "" {
			t.Errorf("from %v: %+v", s.Status, got)
		}
	}
}

func TestGenerationFailedKeepsHandle(t *testing.T) {
	for _, s := range allStatuses() {
		got := Reduce(s, GenerationFailed{Message: "boom"})
		if got.Status != StatusFailed || got.Err != "boom" || got.AudioURL != s.AudioURL {
			t.Errorf("from %v: %+v", s.Status, got)
		}
		if got.IsGenerating() && got.IsPlaying() {
			t.Error("generating and playing together")
		}
	}
}

func TestSetPlaying(t *testing.T) {
	tests := []struct {
		name    string
		status  Status
		url     resource.Handle
		playing bool
		want    Status
	}{
		{"ready plays", StatusReady, "blob:nateq/a", true, StatusPlaying},
		{"no handle", StatusIdle, "", true, StatusIdle},
		{"failed with old audio plays", StatusFailed, "blob:nateq/a", true, StatusPlaying},
		{"generating refuses", StatusGenerating, "", true, StatusGenerating},
		{"stop", StatusPlaying, "blob:nateq/a", false, StatusReady},
		{"stop when not playing", StatusFailed, "", false, StatusFailed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := DefaultState()
			s.Status, s.AudioURL = tt.status, tt.url
			got := Reduce(s, SetPlaying{Playing: tt.playing})
			if got.Status != tt.want {
				t.Errorf("status = %v, want %v", got.Status, tt.want)
			}
			if got.IsPlaying() && !got.HasAudio() {
				t.Error("playing without audio")
			}
		})
	}
}

func TestSetLanguageResetsDialect(t *testing.T) {
	s := DefaultState()
	s.Dialect = "egyptian"

	got := Reduce(s, SetLanguage{Language: tts.LanguageEnglish})
	if got.Language != tts.LanguageEnglish || got.Dialect != "us" {
		t.Errorf("ar→en: lang=%s dialect=%s, want en/us", got.Language, got.Dialect)
	}
	got = Reduce(got, SetLanguage{Language: tts.LanguageArabic})
	if got.Dialect != "msa" {
		t.Errorf("en→ar dialect = %s, want msa", got.Dialect)
	}
}

func TestSetTextClearsError(t *testing.T) {
	s := DefaultState()
	s.Status, s.Err = StatusFailed, "API_KEY is missing"

	got := Reduce(s, SetText{Text: "hello"})
	if got.Err != "" || got.Text != "hello" || got.Status != StatusIdle {
		t.Errorf("got %+v", got)
	}
}

func TestUpdateSettingsMerges(t *testing.T) {
	s := DefaultState()
	speed := 1.5
	got := Reduce(s, UpdateSettings{Patch: tts.SettingsPatch{Speed: &speed}})
	if got.Settings.Speed != 1.5 {
		t.Errorf("speed = %v", got.Settings.Speed)
	}
	if got.Settings.Pitch != s.Settings.Pitch || got.Settings.Stability != s.Settings.Stability ||
		got.Settings.OptimizedPronunciation != s.Settings.OptimizedPronunciation {
		t.Error("patch must leave other fields alone")
	}
}

func TestReduceNil(t *testing.T) {
	s := DefaultState()
	if Reduce(s, nil) != s {
		t.Error("nil action should be identity")
	}
}

func TestCanGenerateAndEdit(t *testing.T) {
	s := DefaultState()
	if !s.CanGenerate() || !s.CanEdit() {
		t.Error("default state should allow generate and edit")
	}
	s.Text = "  \n "
	if s.CanGenerate() {
		t.Error("blank text must not generate")
	}
	s.Text, s.Status = "x", StatusPlaying
	if s.CanEdit() {
		t.Error("playing session must not edit")
	}
}

func TestRequestSnapshot(t *testing.T) {
	s := DefaultState()
	req, err := s.Request()
	if err != nil {
		t.Fatal(err)
	}
	if req.Voice.ProviderVoice != "Fenrir" || req.Text != s.Text {
		t.Errorf("req = %+v", req)
	}
	s.VoiceID = "nope"
	if _, err := s.Request(); err != tts.ErrVoiceNotFound {
		t.Errorf("unknown voice err = %v", err)
	}
}
