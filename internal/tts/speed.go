package tts

import (
	"errors"
	"fmt"
	"math"
)

// ErrSpeedOutOfRange is returned when speed is outside valid range.
var ErrSpeedOutOfRange = errors.New("speed must be between 0.5 and 2.0")

// speedStep is the increment used by the studio speed slider.
const speedStep = 0.1

// ValidateSpeed reports whether speed lies in [MinSpeed, MaxSpeed].
func ValidateSpeed(speed float64) error {
	if speed < MinSpeed || speed > MaxSpeed || math.IsNaN(speed) {
		return ErrSpeedOutOfRange
	}
	return nil
}

// ClampSpeed forces speed into [MinSpeed, MaxSpeed].
func ClampSpeed(speed float64) float64 {
	if math.IsNaN(speed) {
		return 1.0
	}
	return math.Max(MinSpeed, math.Min(MaxSpeed, speed))
}

// IncreaseSpeed moves one slider step up.
func IncreaseSpeed(speed float64) float64 {
	return ClampSpeed(roundStep(speed + speedStep))
}

// DecreaseSpeed moves one slider step down.
func DecreaseSpeed(speed float64) float64 {
	return ClampSpeed(roundStep(speed - speedStep))
}

// roundStep snaps to the slider resolution so repeated steps do not
// accumulate float noise (1.1 stays 1.1, not 1.1000000000000001).
func roundStep(speed float64) float64 {
	return math.Round(speed*10) / 10
}

// SpeedDisplay returns a human-readable speed description.
func SpeedDisplay(speed float64) string {
	switch {
	case speed == 1.0:
		return "1.0x (Normal)"
	case speed <= MinSpeed:
		return "0.5x (Half Speed)"
	case speed >= MaxSpeed:
		return "2.0x (Double Speed)"
	default:
		return fmt.Sprintf("%.1fx", speed)
	}
}

// PitchDisplay formats a semitone offset with an explicit sign.
func PitchDisplay(pitch int) string {
	if pitch > 0 {
		return fmt.Sprintf("+%d st", pitch)
	}
	return fmt.Sprintf("%d st", pitch)
}
