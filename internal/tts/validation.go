package tts

import (
	"fmt"
	"os/exec"
	"strings"
)

// ValidateRequest rejects requests that can never produce audio. It runs
// before any network I/O.
func ValidateRequest(req GenerationRequest) error {
	if strings.TrimSpace(req.Text) == "" {
		return validationError(ErrEmptyText, "")
	}
	if req.Voice.ID == "" || req.Voice.ProviderVoice == "" {
		return validationError(ErrVoiceNotFound, "")
	}
	if err := ValidateSpeed(req.Settings.Speed); err != nil {
		return validationError(err, "got %.2f", req.Settings.Speed)
	}
	return nil
}

// ValidationResult contains the outcome of a setup check.
type ValidationResult struct {
	// Available indicates synthesis can be attempted.
	Available bool

	// AmbienceAvailable indicates soundscapes can be decoded.
	AmbienceAvailable bool

	// Error contains the blocking problem, if any.
	Error error

	// Guidance provides setup instructions if validation failed
	Guidance string

	// Details contains additional validation information
	Details map[string]string
}

// ValidateSetup checks the local prerequisites: an API key for synthesis and
// an ffmpeg binary for soundscapes. A missing ffmpeg is not blocking; the
// studio simply plays narration without ambience.
func ValidateSetup(apiKey, model, ffmpeg string) *ValidationResult {
	result := &ValidationResult{
		Details: make(map[string]string),
	}
	result.Details["model"] = model

	if strings.TrimSpace(apiKey) == "" {
		result.Error = NewTTSError(ErrorCodeCredential, ErrMissingCredential.Error(), ErrMissingCredential)
		result.Guidance = buildCredentialGuidance()
	} else {
		result.Available = true
		result.Details["api_key"] = maskKey(apiKey)
	}

	if ffmpeg == "" {
		ffmpeg = "ffmpeg"
	}
	path, err := exec.LookPath(ffmpeg)
	if err != nil {
		result.Details["ffmpeg"] = fmt.Sprintf("not found (%v)", err)
		if result.Guidance == "" {
			result.Guidance = buildFFmpegInstallGuidance()
		}
		return result
	}
	result.Details["ffmpeg"] = path
	result.AmbienceAvailable = true
	return result
}

func maskKey(key string) string {
	if len(key) <= 8 {
		return strings.Repeat("*", len(key))
	}
	return key[:4] + strings.Repeat("*", len(key)-8) + key[len(key)-4:]
}

// buildCredentialGuidance explains where the Gemini key is read from.
func buildCredentialGuidance() string {
	return `No Gemini API key configured. Provide one of:

1. An environment variable:
   export GEMINI_API_KEY=...

2. The config file (nateq config):
   gemini:
     api_key: ...

Keys are issued at https://aistudio.google.com/apikey`
}

// buildFFmpegInstallGuidance provides instructions for installing ffmpeg
func buildFFmpegInstallGuidance() string {
	return `ffmpeg is required to decode soundscapes. Narration still works without it.

# Ubuntu/Debian
sudo apt update && sudo apt install ffmpeg

# macOS (Homebrew)
brew install ffmpeg

# Arch Linux
sudo pacman -S ffmpeg

# Or download from: https://ffmpeg.org/download.html`
}
