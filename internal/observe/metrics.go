// Package observe carries nateq's telemetry: OpenTelemetry instruments,
// a tracer, and a synthesis decorator that records both along with a
// charmbracelet/log line per attempt.
//
// Tests should build [Metrics] with [NewMetrics] over their own
// [metric.MeterProvider] instead of using [DefaultMetrics].
package observe

import (
	"context"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const meterName = "github.com/dgnsrekt/nateq"

// Metrics holds the instruments. All fields are safe for concurrent use.
type Metrics struct {
	// SynthesisDuration tracks provider latency in seconds.
	SynthesisDuration metric.Float64Histogram

	// SynthesisRequests counts attempts. Attributes: voice, status, code.
	SynthesisRequests metric.Int64Counter

	// PlaybackStarts counts narration starts.
	PlaybackStarts metric.Int64Counter

	// AmbienceCache counts ambience lookups. Attribute: result (hit|miss).
	AmbienceCache metric.Int64Counter
}

// Synthesis latencies run from about a second to well past ten.
var latencyBuckets = []float64{0.25, 0.5, 1, 2, 4, 8, 16, 32, 64}

// NewMetrics creates the instruments on mp.
func NewMetrics(mp metric.MeterProvider) (*Metrics, error) {
	m := mp.Meter(meterName)
	var err error
	met := &Metrics{}

	if met.SynthesisDuration, err = m.Float64Histogram("nateq.synthesis.duration",
		metric.WithDescription("Latency of one speech synthesis request."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
	); err != nil {
		return nil, err
	}
	if met.SynthesisRequests, err = m.Int64Counter("nateq.synthesis.requests",
		metric.WithDescription("Speech synthesis requests by voice and status."),
	); err != nil {
		return nil, err
	}
	if met.PlaybackStarts, err = m.Int64Counter("nateq.playback.starts",
		metric.WithDescription("Times the narration started playing."),
	); err != nil {
		return nil, err
	}
	if met.AmbienceCache, err = m.Int64Counter("nateq.ambience.cache",
		metric.WithDescription("Ambience lookups by cache result."),
	); err != nil {
		return nil, err
	}
	return met, nil
}

var (
	defaultMetrics     *Metrics
	defaultMetricsOnce sync.Once
)

// DefaultMetrics returns a shared instance built on otel.GetMeterProvider.
func DefaultMetrics() *Metrics {
	defaultMetricsOnce.Do(func() {
		var err error
		defaultMetrics, err = NewMetrics(otel.GetMeterProvider())
		if err != nil {
			panic("observe: failed to create default metrics: " + err.Error())
		}
	})
	return defaultMetrics
}

// RecordSynthesis records one synthesis attempt.
func (m *Metrics) RecordSynthesis(ctx context.Context, voice, status, code string, seconds float64) {
	attrs := metric.WithAttributes(
		attribute.String("voice", voice),
		attribute.String("status", status),
		attribute.String("code", code),
	)
	m.SynthesisRequests.Add(ctx, 1, attrs)
	m.SynthesisDuration.Record(ctx, seconds, metric.WithAttributes(attribute.String("status", status)))
}

// RecordPlaybackStart counts one narration start.
func (m *Metrics) RecordPlaybackStart(ctx context.Context) {
	m.PlaybackStarts.Add(ctx, 1)
}

// RecordAmbienceLookup counts an ambience cache hit or miss.
func (m *Metrics) RecordAmbienceLookup(ctx context.Context, hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	m.AmbienceCache.Add(ctx, 1, metric.WithAttributes(attribute.String("result", result)))
}
