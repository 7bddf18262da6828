// Package session provides interview session lifecycle management: create,
// end, and the time-based credit settlement that seals a session.
package session

import (
	"context"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/prompterhq/prompter/internal/db"
	"github.com/prompterhq/prompter/internal/events"
	"github.com/prompterhq/prompter/internal/ledger"
	"github.com/prompterhq/prompter/internal/telemetry"
	"github.com/prompterhq/prompter/pkg/models"
)

// DefaultListLimit bounds List when the caller does not.
const DefaultListLimit = 50

// Manager orchestrates the create -> active -> end transitions and settles
// the time-based charge when a session closes.
type Manager struct {
	sessions *db.SessionStore
	ledger   *ledger.Ledger
	sink     events.Sink
	metrics  *telemetry.Metrics

	// now is the clock; replaceable in tests.
	now func() time.Time
}

// NewManager creates a Manager. sink and metrics may be nil-valued
// equivalents (events.NopSink{}, nil *telemetry.Metrics).
func NewManager(sessions *db.SessionStore, creditLedger *ledger.Ledger, sink events.Sink, metrics *telemetry.Metrics) *Manager {
	if sink == nil {
		sink = events.NopSink{}
	}
	return &Manager{
		sessions: sessions,
		ledger:   creditLedger,
		sink:     sink,
		metrics:  metrics,
		now:      time.Now,
	}
}

// Create allocates a fresh session for the owner. No ledger side effect.
func (m *Manager) Create(ctx context.Context, ownerID, platformTag string) (*models.Session, error) {
	if ownerID == "" {
		return nil, &models.ValidationError{Field: "ownerId", Reason: "must not be empty"}
	}

	sessionID := uuid.NewString()
	sess, err := m.sessions.Create(ctx, sessionID, ownerID, models.NormalizePlatform(platformTag), m.now())
	if err != nil {
		return nil, err
	}

	m.metrics.SessionCreated(ctx)
	log.Info().
		Str("sessionId", sessionID).
		Str("ownerId", ownerID).
		Str("platform", string(sess.Platform)).
		Msg("Session created")

	return sess, nil
}

// RequestedCredits converts an elapsed duration into the nominal time-based
// charge: half a credit per half minute, rounded up, so any non-zero
// duration costs at least 0.5.
func RequestedCredits(durationSeconds int64) float64 {
	minutes := float64(durationSeconds) / 60
	return math.Ceil(minutes*2) / 2
}

// End seals a session exactly once and settles the time-based charge.
// An unknown, foreign, or already-terminal session yields NotFoundError, so
// a retried end-session can never recompute a larger duration or charge
// twice.
func (m *Manager) End(ctx context.Context, sessionID, ownerID string) (*models.SessionSummary, error) {
	sess, err := m.sessions.Get(ctx, sessionID, ownerID)
	if err != nil {
		return nil, err
	}
	if sess == nil || sess.Status.Terminal() {
		return nil, &models.NotFoundError{Resource: "session", ID: sessionID}
	}

	endedAt := m.now()
	durationSeconds := (endedAt.UnixMilli() - sess.StartedAt.UnixMilli()) / 1000
	if durationSeconds < 0 {
		durationSeconds = 0
	}
	durationMinutes := float64(durationSeconds) / 60
	requested := RequestedCredits(durationSeconds)

	// Claim the terminal transition before touching the ledger. Only the
	// claimer charges; a concurrent End loses the claim and reports the
	// session as already gone.
	claimed, err := m.sessions.Finalize(ctx, sessionID, ownerID, endedAt, durationSeconds)
	if err != nil {
		return nil, err
	}
	if !claimed {
		return nil, &models.NotFoundError{Resource: "session", ID: sessionID}
	}

	ded, err := m.ledger.Deduct(ctx, ownerID, requested)
	if err != nil {
		return nil, err
	}
	if err := m.sessions.SetCreditsDeducted(ctx, sessionID, ded.Actual); err != nil {
		// The charge already settled; the session row just lacks the
		// amount. Log and keep going rather than failing the close.
		log.Error().Err(err).Str("sessionId", sessionID).Msg("Failed to record settled charge on session")
	}

	summary := &models.SessionSummary{
		SessionID:       sessionID,
		Status:          models.SessionStatusCompleted,
		DurationSeconds: durationSeconds,
		DurationMinutes: math.Round(durationMinutes*10) / 10,
		EndedAt:         endedAt.UTC(),
		Credits: models.CreditOutcome{
			Deducted:     ded.Actual,
			Remaining:    ded.Remaining,
			Insufficient: ded.Clamped,
		},
	}
	if ded.Clamped {
		summary.Credits.Requested = requested
	}

	m.metrics.SessionEnded(ctx, ded.Clamped)
	m.metrics.CreditsDeducted(ctx, "session_time", ded.Actual)
	m.sink.Publish(sessionID, events.Event{
		Type:      events.TypeSessionEnded,
		SessionID: sessionID,
		Payload:   summary,
	})

	log.Info().
		Str("sessionId", sessionID).
		Str("ownerId", ownerID).
		Int64("durationSeconds", durationSeconds).
		Float64("requested", requested).
		Float64("deducted", ded.Actual).
		Bool("insufficient", ded.Clamped).
		Msg("Session ended")

	return summary, nil
}

// Get returns a session with its transcript and question log.
func (m *Manager) Get(ctx context.Context, sessionID, ownerID string) (*models.SessionDetail, error) {
	detail, err := m.sessions.GetDetail(ctx, sessionID, ownerID)
	if err != nil {
		return nil, err
	}
	if detail == nil {
		return nil, &models.NotFoundError{Resource: "session", ID: sessionID}
	}
	return detail, nil
}

// List returns the owner's sessions, most recent first.
func (m *Manager) List(ctx context.Context, ownerID string, limit int) ([]models.Session, error) {
	if limit <= 0 || limit > DefaultListLimit {
		limit = DefaultListLimit
	}
	return m.sessions.ListByOwner(ctx, ownerID, limit)
}
