package tts

import "context"

// Synthesizer turns a generation request into a provider audio payload.
// The only implementation talks to Gemini; tests substitute fakes.
type Synthesizer interface {
	// Synthesize performs a single synthesis attempt and returns the raw
	// 16-bit mono PCM payload as standard base64. It never retries.
	Synthesize(ctx context.Context, req GenerationRequest) (string, error)
}

// SynthesizerFunc adapts a function to the Synthesizer interface.
type SynthesizerFunc func(ctx context.Context, req GenerationRequest) (string, error)

// Synthesize calls f.
func (f SynthesizerFunc) Synthesize(ctx context.Context, req GenerationRequest) (string, error) {
	return f(ctx, req)
}
