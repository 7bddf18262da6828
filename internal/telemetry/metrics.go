// Package telemetry exposes OpenTelemetry counters for the core billing
// paths. Without a metrics SDK installed the counters are no-ops, so the
// instrumented code never pays for an exporter it does not have.
package telemetry

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Metrics holds the instrument set for the session and pipeline paths.
type Metrics struct {
	sessionsCreated    metric.Int64Counter
	sessionsEnded      metric.Int64Counter
	questionsAnswered  metric.Int64Counter
	generationFailures metric.Int64Counter
	creditsDeducted    metric.Float64Counter
}

// New creates the instrument set on the global meter provider.
func New() (*Metrics, error) {
	meter := otel.Meter("github.com/prompterhq/prompter")

	m := &Metrics{}
	var err error

	if m.sessionsCreated, err = meter.Int64Counter("prompter.sessions.created",
		metric.WithDescription("Interview sessions created")); err != nil {
		return nil, fmt.Errorf("create counter: %w", err)
	}
	if m.sessionsEnded, err = meter.Int64Counter("prompter.sessions.ended",
		metric.WithDescription("Interview sessions ended")); err != nil {
		return nil, fmt.Errorf("create counter: %w", err)
	}
	if m.questionsAnswered, err = meter.Int64Counter("prompter.questions.answered",
		metric.WithDescription("Questions answered by the gateway")); err != nil {
		return nil, fmt.Errorf("create counter: %w", err)
	}
	if m.generationFailures, err = meter.Int64Counter("prompter.generation.failures",
		metric.WithDescription("Gateway failures, by kind")); err != nil {
		return nil, fmt.Errorf("create counter: %w", err)
	}
	if m.creditsDeducted, err = meter.Float64Counter("prompter.credits.deducted",
		metric.WithDescription("Credits deducted, by charge kind")); err != nil {
		return nil, fmt.Errorf("create counter: %w", err)
	}

	return m, nil
}

// SessionCreated records one session creation.
func (m *Metrics) SessionCreated(ctx context.Context) {
	if m == nil {
		return
	}
	m.sessionsCreated.Add(ctx, 1)
}

// SessionEnded records one session close.
func (m *Metrics) SessionEnded(ctx context.Context, insufficient bool) {
	if m == nil {
		return
	}
	m.sessionsEnded.Add(ctx, 1,
		metric.WithAttributes(attribute.Bool("insufficient", insufficient)))
}

// QuestionAnswered records one successful generation.
func (m *Metrics) QuestionAnswered(ctx context.Context, providerID string) {
	if m == nil {
		return
	}
	m.questionsAnswered.Add(ctx, 1,
		metric.WithAttributes(attribute.String("provider", providerID)))
}

// GenerationFailed records one gateway failure.
func (m *Metrics) GenerationFailed(ctx context.Context, kind string) {
	if m == nil {
		return
	}
	m.generationFailures.Add(ctx, 1,
		metric.WithAttributes(attribute.String("kind", kind)))
}

// CreditsDeducted records a settled charge.
func (m *Metrics) CreditsDeducted(ctx context.Context, kind string, amount float64) {
	if m == nil {
		return
	}
	m.creditsDeducted.Add(ctx, amount,
		metric.WithAttributes(attribute.String("kind", kind)))
}
