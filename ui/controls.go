package ui

import (
	"context"
	"fmt"
	"strings"

	"github.com/dgnsrekt/nateq/internal/catalog"
	"github.com/dgnsrekt/nateq/internal/session"
	"github.com/dgnsrekt/nateq/internal/tts"
	"github.com/mattn/go-runewidth"
)

// control is one row of the settings panel.
type control int

const (
	controlLanguage control = iota
	controlDialect
	controlVoice
	controlSoundscape
	controlSpeed
	controlPitch
	controlStability
	controlPronunciation
	controlCount
)

const (
	pitchStep     = 1
	stabilityStep = 5
)

func (c control) label(st session.State) string {
	switch c {
	case controlLanguage:
		return "Language"
	case controlDialect:
		return "Dialect"
	case controlVoice:
		return "Voice"
	case controlSoundscape:
		return "Soundscape"
	case controlSpeed:
		return "Speed"
	case controlPitch:
		return "Pitch"
	case controlStability:
		return "Stability"
	case controlPronunciation:
		return catalog.PronunciationLabel(st.Language)
	default:
		return ""
	}
}

func (c control) value(st session.State) string {
	switch c {
	case controlLanguage:
		l := catalog.Language(st.Language)
		return fmt.Sprintf("%s %s", l.Label, faintStyle(string(l.Dir)))
	case controlDialect:
		for _, d := range catalog.Dialects(st.Language) {
			if d.ID == st.Dialect {
				return d.Label
			}
		}
		return st.Dialect
	case controlVoice:
		if v, ok := catalog.Voice(st.VoiceID); ok {
			return fmt.Sprintf("%s %s", v.Name, faintStyle(v.Description))
		}
		return st.VoiceID
	case controlSoundscape:
		return st.Soundscape().Name
	case controlSpeed:
		return tts.SpeedDisplay(st.Settings.Speed)
	case controlPitch:
		return tts.PitchDisplay(st.Settings.Pitch)
	case controlStability:
		return fmt.Sprintf("%d%%", st.Settings.Stability)
	case controlPronunciation:
		if st.Settings.OptimizedPronunciation {
			return "on"
		}
		return "off"
	default:
		return ""
	}
}

// adjustControl moves control c one step in direction dir (-1 or +1).
func adjustControl(ctx context.Context, s *session.Session, c control, dir int) {
	st := s.State()
	switch c {
	case controlLanguage:
		langs := catalog.Languages()
		i := indexOf(len(langs), func(i int) bool { return langs[i].ID == st.Language })
		s.SetLanguage(langs[cycle(i, dir, len(langs))].ID)
	case controlDialect:
		ds := catalog.Dialects(st.Language)
		if len(ds) == 0 {
			return
		}
		i := indexOf(len(ds), func(i int) bool { return ds[i].ID == st.Dialect })
		s.SetDialect(ds[cycle(i, dir, len(ds))].ID)
	case controlVoice:
		vs := catalog.Voices()
		i := indexOf(len(vs), func(i int) bool { return vs[i].ID == st.VoiceID })
		s.SetVoice(vs[cycle(i, dir, len(vs))].ID)
	case controlSoundscape:
		ss := catalog.Soundscapes()
		i := indexOf(len(ss), func(i int) bool { return ss[i].ID == st.SoundscapeID })
		s.SetSoundscape(ctx, ss[cycle(i, dir, len(ss))].ID)
	case controlSpeed:
		speed := tts.IncreaseSpeed(st.Settings.Speed)
		if dir < 0 {
			speed = tts.DecreaseSpeed(st.Settings.Speed)
		}
		s.UpdateSettings(tts.SettingsPatch{Speed: &speed})
	case controlPitch:
		pitch := st.Settings.Pitch + dir*pitchStep
		s.UpdateSettings(tts.SettingsPatch{Pitch: &pitch})
	case controlStability:
		stability := st.Settings.Stability + dir*stabilityStep
		s.UpdateSettings(tts.SettingsPatch{Stability: &stability})
	case controlPronunciation:
		on := !st.Settings.OptimizedPronunciation
		s.UpdateSettings(tts.SettingsPatch{OptimizedPronunciation: &on})
	}
}

func indexOf(n int, match func(int) bool) int {
	for i := 0; i < n; i++ {
		if match(i) {
			return i
		}
	}
	return 0
}

func cycle(i, dir, n int) int {
	return ((i+dir)%n + n) % n
}

// controlsView renders the settings panel with the selected row marked.
func controlsView(st session.State, selected control, focused bool) string {
	labels := make([]string, controlCount)
	width := 0
	for c := control(0); c < controlCount; c++ {
		labels[c] = c.label(st)
		width = max(width, runewidth.StringWidth(labels[c]))
	}

	var b strings.Builder
	for c := control(0); c < controlCount; c++ {
		label := runewidth.FillRight(labels[c], width)
		value := c.value(st)
		if focused && c == selected {
			fmt.Fprintf(&b, "%s %s  ‹ %s ›\n", selectedStyle("›"), selectedStyle(label), value)
			continue
		}
		fmt.Fprintf(&b, "  %s  %s\n", labelStyle(label), value)
	}
	return strings.TrimSuffix(b.String(), "\n")
}
