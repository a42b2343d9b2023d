package llm

import (
	"context"
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/tbourn/campus-assistant/internal/domain"
)

var (
	// modelCalls counts gateway calls by operation and outcome
	// (ok|unavailable|empty|error).
	modelCalls = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chat_model_calls_total",
			Help: "Total number of generative model calls.",
		},
		[]string{"op", "outcome"},
	)

	// modelLat records call duration in seconds by operation.
	modelLat = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "chat_model_call_duration_seconds",
			Help:    "Duration of generative model calls in seconds.",
			Buckets: []float64{.1, .25, .5, 1, 2.5, 5, 10, 20, 30, 60},
		},
		[]string{"op"},
	)
)

func init() {
	prometheus.MustRegister(modelCalls, modelLat)
}

// Instrumented wraps a Gateway with a span and Prometheus metrics per call.
type Instrumented struct {
	next  Gateway
	model string
}

// Instrument decorates next. model is recorded as a span attribute.
func Instrument(next Gateway, model string) *Instrumented {
	return &Instrumented{next: next, model: model}
}

// Complete implements Gateway.
func (i *Instrumented) Complete(ctx context.Context, prompt string, cfg GenerationConfig) (string, error) {
	ctx, done := i.begin(ctx, "Complete", attribute.Int("prompt.runes", len([]rune(prompt))))
	out, err := i.next.Complete(ctx, prompt, cfg)
	done(err)
	return out, err
}

// CompleteChat implements Gateway.
func (i *Instrumented) CompleteChat(ctx context.Context, history []domain.ChatTurn, message string, cfg GenerationConfig) (string, error) {
	ctx, done := i.begin(ctx, "CompleteChat", attribute.Int("history.turns", len(history)))
	out, err := i.next.CompleteChat(ctx, history, message, cfg)
	done(err)
	return out, err
}

// Ping implements Gateway.
func (i *Instrumented) Ping(ctx context.Context) error {
	ctx, done := i.begin(ctx, "Ping")
	err := i.next.Ping(ctx)
	done(err)
	return err
}

func (i *Instrumented) begin(ctx context.Context, op string, attrs ...attribute.KeyValue) (context.Context, func(error)) {
	attrs = append(attrs, attribute.String("model", i.model))
	ctx, span := otel.Tracer("llm").Start(ctx, op, trace.WithAttributes(attrs...))
	start := time.Now()
	return ctx, func(err error) {
		modelLat.WithLabelValues(op).Observe(time.Since(start).Seconds())
		modelCalls.WithLabelValues(op, outcome(err)).Inc()
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}
}

func outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrModelUnavailable):
		return "unavailable"
	case errors.Is(err, ErrEmptyCompletion):
		return "empty"
	default:
		return "error"
	}
}

var _ Gateway = (*Instrumented)(nil)
