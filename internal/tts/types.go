package tts

// Language identifies a supported narration language.
type Language string

const (
	// LanguageArabic is Arabic, the only right-to-left language in the studio.
	LanguageArabic Language = "ar"

	// LanguageEnglish is English.
	LanguageEnglish Language = "en"

	// LanguageFrench is French.
	LanguageFrench Language = "fr"

	// LanguageSpanish is Spanish.
	LanguageSpanish Language = "es"
)

// Gender tags a voice profile.
type Gender string

const (
	GenderMale   Gender = "male"
	GenderFemale Gender = "female"
)

// VoiceProfile describes one voice actor of the static catalog.
type VoiceProfile struct {
	// ID is the catalog identifier (e.g. "v1").
	ID string

	// Name is the display name.
	Name string

	// ProviderVoice is the Gemini prebuilt voice name (e.g. "Fenrir").
	ProviderVoice string

	// Gender of the persona.
	Gender Gender

	// Description is free text embedded in the persona clause.
	Description string

	// BasePitch is an optional hint: "low", "medium", "high" or empty.
	BasePitch string
}

// Settings ranges.
const (
	MinSpeed     = 0.5
	MaxSpeed     = 2.0
	MinPitch     = -20
	MaxPitch     = 20
	MinStability = 0
	MaxStability = 100
)

// AudioSettings holds the studio controls. The record is always complete;
// partial updates go through Merge.
type AudioSettings struct {
	// Stability controls prosodic variance (0-100). Advisory only: it is not
	// part of the synthesis instruction.
	Stability int

	// Speed is a speaking-rate multiplier (0.5-2.0).
	Speed float64

	// Pitch is a semitone offset (-20..+20).
	Pitch int

	// OptimizedPronunciation switches to strict enunciation phrasing.
	OptimizedPronunciation bool
}

// DefaultAudioSettings returns the settings a new session starts with.
func DefaultAudioSettings() AudioSettings {
	return AudioSettings{
		Stability:              50,
		Speed:                  1.0,
		Pitch:                  0,
		OptimizedPronunciation: true,
	}
}

// SettingsPatch carries any subset of AudioSettings fields. Nil fields are
// left untouched by Merge.
type SettingsPatch struct {
	Stability              *int
	Speed                  *float64
	Pitch                  *int
	OptimizedPronunciation *bool
}

// Merge returns s with every non-nil field of p applied. Values are clamped
// to their documented ranges.
func (s AudioSettings) Merge(p SettingsPatch) AudioSettings {
	if p.Stability != nil {
		s.Stability = clampInt(*p.Stability, MinStability, MaxStability)
	}
	if p.Speed != nil {
		s.Speed = ClampSpeed(*p.Speed)
	}
	if p.Pitch != nil {
		s.Pitch = clampInt(*p.Pitch, MinPitch, MaxPitch)
	}
	if p.OptimizedPronunciation != nil {
		s.OptimizedPronunciation = *p.OptimizedPronunciation
	}
	return s
}

// GenerationRequest is the immutable snapshot handed to the synthesis
// pipeline. It holds values, not references, so edits made to the session
// after submission never reach an in-flight request.
type GenerationRequest struct {
	Text     string
	Language Language
	Dialect  string
	Voice    VoiceProfile
	Settings AudioSettings
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
