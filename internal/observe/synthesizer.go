package observe

import (
	"context"
	"encoding/base64"
	"time"

	"github.com/charmbracelet/log"
	"github.com/dgnsrekt/nateq/internal/tts"
	"github.com/dustin/go-humanize"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Synthesizer wraps a tts.Synthesizer with a span, metrics and a log line
// per attempt. It never alters the result.
type Synthesizer struct {
	next    tts.Synthesizer
	metrics *Metrics
	tracer  trace.Tracer
	logger  *log.Logger
}

// SynthOption configures an instrumented synthesizer.
type SynthOption func(*Synthesizer)

// WithTracer overrides the global tracer.
func WithTracer(t trace.Tracer) SynthOption {
	return func(s *Synthesizer) { s.tracer = t }
}

// WithLogger overrides the default charmbracelet logger.
func WithLogger(l *log.Logger) SynthOption {
	return func(s *Synthesizer) { s.logger = l }
}

// InstrumentSynthesizer decorates next. A nil m uses DefaultMetrics.
func InstrumentSynthesizer(next tts.Synthesizer, m *Metrics, opts ...SynthOption) *Synthesizer {
	if m == nil {
		m = DefaultMetrics()
	}
	s := &Synthesizer{next: next, metrics: m, tracer: Tracer(), logger: log.Default()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Synthesize implements tts.Synthesizer.
func (s *Synthesizer) Synthesize(ctx context.Context, req tts.GenerationRequest) (string, error) {
	ctx, span := s.tracer.Start(ctx, "nateq.synthesize", trace.WithAttributes(
		attribute.String("voice", req.Voice.ProviderVoice),
		attribute.String("language", string(req.Language)),
		attribute.String("dialect", req.Dialect),
		attribute.Int("text.runes", len([]rune(req.Text))),
	))
	defer span.End()

	s.logger.Debug("synthesis started", "voice", req.Voice.ProviderVoice, "textLength", len(req.Text))
	start := time.Now()
	b64, err := s.next.Synthesize(ctx, req)
	elapsed := time.Since(start)

	if err != nil {
		code := string(tts.CodeOf(err))
		span.RecordError(err)
		span.SetStatus(codes.Error, tts.UserMessage(err))
		s.metrics.RecordSynthesis(ctx, req.Voice.ProviderVoice, "error", code, elapsed.Seconds())
		s.logger.Error("synthesis failed", "voice", req.Voice.ProviderVoice, "duration", elapsed, "code", code, "err", err)
		return "", err
	}

	audioBytes := base64.StdEncoding.DecodedLen(len(b64))
	span.SetAttributes(attribute.Int("audio.bytes", audioBytes))
	s.metrics.RecordSynthesis(ctx, req.Voice.ProviderVoice, "ok", "", elapsed.Seconds())
	s.logger.Info("synthesis completed",
		"voice", req.Voice.ProviderVoice,
		"duration", elapsed.Round(time.Millisecond),
		"audio", humanize.Bytes(uint64(audioBytes)))
	return b64, nil
}
