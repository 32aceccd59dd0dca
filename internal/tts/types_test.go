package tts

import (
	"errors"
	"math"
	"testing"
)

func ptr[T any](v T) *T { return &v }

func TestAudioSettingsMerge(t *testing.T) {
	base := DefaultAudioSettings()

	tests := []struct {
		name  string
		patch SettingsPatch
		want  AudioSettings
	}{
		{
			name:  "empty patch keeps everything",
			patch: SettingsPatch{},
			want:  base,
		},
		{
			name:  "speed only",
			patch: SettingsPatch{Speed: ptr(1.5)},
			want:  AudioSettings{Stability: 50, Speed: 1.5, Pitch: 0, OptimizedPronunciation: true},
		},
		{
			name:  "pitch and pronunciation",
			patch: SettingsPatch{Pitch: ptr(-7), OptimizedPronunciation: ptr(false)},
			want:  AudioSettings{Stability: 50, Speed: 1.0, Pitch: -7, OptimizedPronunciation: false},
		},
		{
			name:  "values clamped",
			patch: SettingsPatch{Stability: ptr(150), Speed: ptr(9.0), Pitch: ptr(-40)},
			want:  AudioSettings{Stability: 100, Speed: 2.0, Pitch: -20, OptimizedPronunciation: true},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := base.Merge(tt.patch); got != tt.want {
				t.Errorf("Merge() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestSpeedHelpers(t *testing.T) {
	if err := ValidateSpeed(1.0); err != nil {
		t.Errorf("ValidateSpeed(1.0) = %v", err)
	}
	if err := ValidateSpeed(math.NaN()); !errors.Is(err, ErrSpeedOutOfRange) {
		t.Errorf("ValidateSpeed(NaN) = %v, want ErrSpeedOutOfRange", err)
	}
	if got := ClampSpeed(1.15); got != 1.15 {
		t.Errorf("ClampSpeed(1.15) = %v, want 1.15", got)
	}
	if got := IncreaseSpeed(1.0); got != 1.1 {
		t.Errorf("IncreaseSpeed(1.0) = %v, want 1.1", got)
	}
	if got := IncreaseSpeed(2.0); got != 2.0 {
		t.Errorf("IncreaseSpeed(2.0) = %v, want 2.0", got)
	}
	if got := DecreaseSpeed(0.5); got != 0.5 {
		t.Errorf("DecreaseSpeed(0.5) = %v, want 0.5", got)
	}

	s := 1.0
	for i := 0; i < 5; i++ {
		s = DecreaseSpeed(s)
	}
	if s != 0.5 {
		t.Errorf("five steps down from 1.0 = %v, want 0.5", s)
	}
}

func TestDisplays(t *testing.T) {
	tests := []struct {
		got, want string
	}{
		{SpeedDisplay(1.0), "1.0x (Normal)"},
		{SpeedDisplay(1.3), "1.3x"},
		{SpeedDisplay(0.5), "0.5x (Half Speed)"},
		{PitchDisplay(4), "+4 st"},
		{PitchDisplay(0), "0 st"},
		{PitchDisplay(-3), "-3 st"},
	}
	for _, tt := range tests {
		if tt.got != tt.want {
			t.Errorf("got %q, want %q", tt.got, tt.want)
		}
	}
}

func TestUserMessage(t *testing.T) {
	err := NewTTSError(ErrorCodeServer, "Server Error (500). Please try again in a moment.", errors.New("boom"))
	if got := UserMessage(err); got != "Server Error (500). Please try again in a moment." {
		t.Errorf("UserMessage() = %q", got)
	}
	if err.Category() != CategoryProviderTransport {
		t.Errorf("Category() = %v", err.Category())
	}
	if got := UserMessage(errors.New("plain")); got != "plain" {
		t.Errorf("UserMessage(plain) = %q", got)
	}
	if got := UserMessage(nil); got != "" {
		t.Errorf("UserMessage(nil) = %q", got)
	}
	if CodeOf(errors.New("x")) != "" {
		t.Error("CodeOf should be empty for foreign errors")
	}
}
