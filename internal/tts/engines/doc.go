// Package engines contains the synthesis backends. The Gemini engine is the
// only one; it implements tts.Synthesizer.
package engines
