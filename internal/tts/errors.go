package tts

import (
	"errors"
	"fmt"
)

// Common TTS errors
var (
	// ErrMissingCredential indicates no Gemini API key was configured
	ErrMissingCredential = errors.New("API_KEY is missing")

	// ErrVoiceNotFound indicates the selected voice is not in the catalog
	ErrVoiceNotFound = errors.New("invalid voice selected")

	// ErrEmptyText indicates there is nothing to synthesize
	ErrEmptyText = errors.New("text cannot be empty")

	// ErrBusy indicates a synthesis is already outstanding for the session
	ErrBusy = errors.New("a generation is already in progress")

	// ErrNoAudio indicates there is no generated audio to play or export
	ErrNoAudio = errors.New("no audio generated yet")
)

// Category groups error codes by how the session reacts to them.
type Category int

const (
	// CategoryConfiguration covers missing or invalid local configuration.
	CategoryConfiguration Category = iota
	// CategoryValidation covers unusable selections caught before any I/O.
	CategoryValidation
	// CategoryProviderContent covers well-formed responses without audio.
	CategoryProviderContent
	// CategoryProviderTransport covers HTTP-class and SDK failures.
	CategoryProviderTransport
	// CategoryDecode covers malformed base64 or PCM payloads.
	CategoryDecode
	// CategoryPlayback covers audio device failures. Never surfaced to the user.
	CategoryPlayback
)

// String returns the string representation of the category.
func (c Category) String() string {
	switch c {
	case CategoryConfiguration:
		return "configuration"
	case CategoryValidation:
		return "validation"
	case CategoryProviderContent:
		return "provider-content"
	case CategoryProviderTransport:
		return "provider-transport"
	case CategoryDecode:
		return "decode"
	case CategoryPlayback:
		return "playback"
	default:
		return "unknown"
	}
}

// ErrorCode identifies specific error types
type ErrorCode string

const (
	// Configuration
	ErrorCodeCredential ErrorCode = "CREDENTIAL"

	// Validation
	ErrorCodeInvalidInput ErrorCode = "INVALID_INPUT"

	// Provider content
	ErrorCodeTextInsteadOfAudio ErrorCode = "TEXT_INSTEAD_OF_AUDIO"
	ErrorCodeNoAudio            ErrorCode = "NO_AUDIO"

	// Provider transport
	ErrorCodeBadRequest       ErrorCode = "BAD_REQUEST"
	ErrorCodeServer           ErrorCode = "SERVER_ERROR"
	ErrorCodeAudioUnsupported ErrorCode = "AUDIO_UNSUPPORTED"
	ErrorCodeProvider         ErrorCode = "PROVIDER_FAILURE"

	// Decode
	ErrorCodeDecode ErrorCode = "DECODE"

	// Playback
	ErrorCodeAudioDevice ErrorCode = "AUDIO_DEVICE"
)

// TTSError represents a TTS-specific error with additional context
type TTSError struct {
	Code    ErrorCode
	Message string
	Cause   error
	Context map[string]interface{}
}

// Error implements the error interface. The message is what the user sees,
// so the code is left out.
func (e *TTSError) Error() string {
	return e.Message
}

// Unwrap returns the underlying error
func (e *TTSError) Unwrap() error {
	return e.Cause
}

// NewTTSError creates a new TTS error with context
func NewTTSError(code ErrorCode, message string, cause error) *TTSError {
	return &TTSError{
		Code:    code,
		Message: message,
		Cause:   cause,
		Context: make(map[string]interface{}),
	}
}

// WithContext adds context to the error
func (e *TTSError) WithContext(key string, value interface{}) *TTSError {
	e.Context[key] = value
	return e
}

// Category returns the taxonomy bucket of the error code.
func (e *TTSError) Category() Category {
	switch e.Code {
	case ErrorCodeCredential:
		return CategoryConfiguration
	case ErrorCodeInvalidInput:
		return CategoryValidation
	case ErrorCodeTextInsteadOfAudio, ErrorCodeNoAudio:
		return CategoryProviderContent
	case ErrorCodeDecode:
		return CategoryDecode
	case ErrorCodeAudioDevice:
		return CategoryPlayback
	default:
		return CategoryProviderTransport
	}
}

// CodeOf extracts the error code from err, or "" when err carries none.
func CodeOf(err error) ErrorCode {
	var te *TTSError
	if errors.As(err, &te) {
		return te.Code
	}
	return ""
}

// UserMessage renders err as the single line shown in the session error
// slot.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	var te *TTSError
	if errors.As(err, &te) {
		return te.Message
	}
	return err.Error()
}

// validationError wraps one of the validation sentinels.
func validationError(sentinel error, format string, args ...interface{}) *TTSError {
	msg := sentinel.Error()
	if format != "" {
		msg = fmt.Sprintf("%s: %s", msg, fmt.Sprintf(format, args...))
	}
	return NewTTSError(ErrorCodeInvalidInput, msg, sentinel)
}
