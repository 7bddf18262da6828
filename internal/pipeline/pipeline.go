// Package pipeline handles incoming question and transcript events: the
// credit gate, the gateway call, the flat per-question charge, and the
// append to the session log.
package pipeline

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/prompterhq/prompter/internal/db"
	"github.com/prompterhq/prompter/internal/events"
	"github.com/prompterhq/prompter/internal/gateway"
	"github.com/prompterhq/prompter/internal/ledger"
	"github.com/prompterhq/prompter/internal/redact"
	"github.com/prompterhq/prompter/internal/telemetry"
	"github.com/prompterhq/prompter/pkg/models"
)

const (
	// QuestionCredits is the flat charge for one answered question,
	// independent of the time-based end-of-session charge.
	QuestionCredits = 1.0

	// ContextTranscriptWindow is the number of trailing transcript
	// entries handed to the gateway as conversation context. The gateway
	// embeds a smaller window into the prompt itself.
	ContextTranscriptWindow = 10

	// DefaultGatewayTimeout bounds a single generation call.
	DefaultGatewayTimeout = 30 * time.Second
)

// PreferenceSource resolves an owner's answer preferences. Typically
// db.UserStore.
type PreferenceSource interface {
	Preferences(ctx context.Context, ownerID string) (models.Preferences, error)
}

// Settings are the runtime-tunable pipeline knobs. They are re-read on every
// request, so a settings reload takes effect without a restart.
type Settings struct {
	// GatewayTimeout bounds the generation call. Zero means
	// DefaultGatewayTimeout.
	GatewayTimeout time.Duration
	// AutoAnswer makes RecordTranscript submit flagged questions to the
	// gateway automatically.
	AutoAnswer bool
}

// Pipeline routes questions to the gateway and meters the per-question
// charge. All dependencies are injected; there is no ambient provider state.
type Pipeline struct {
	sessions   *db.SessionStore
	ledger     *ledger.Ledger
	gateway    gateway.Gateway
	classifier Classifier
	sink       events.Sink
	metrics    *telemetry.Metrics
	prefs      PreferenceSource

	settings func() Settings
	now      func() time.Time
}

// Options tune pipeline behavior.
type Options struct {
	// GatewayTimeout and AutoAnswer are fixed values, used when Settings
	// is nil.
	GatewayTimeout time.Duration
	AutoAnswer     bool
	// Settings, when set, supplies GatewayTimeout and AutoAnswer per
	// request (wired to config.Get in production).
	Settings func() Settings
	// Preferences, when set, supplies the owner's answer language to the
	// gateway.
	Preferences PreferenceSource
}

// New creates a Pipeline.
func New(sessions *db.SessionStore, creditLedger *ledger.Ledger, gw gateway.Gateway, sink events.Sink, metrics *telemetry.Metrics, opts Options) *Pipeline {
	if sink == nil {
		sink = events.NopSink{}
	}
	settings := opts.Settings
	if settings == nil {
		fixed := Settings{GatewayTimeout: opts.GatewayTimeout, AutoAnswer: opts.AutoAnswer}
		settings = func() Settings { return fixed }
	}
	return &Pipeline{
		sessions:   sessions,
		ledger:     creditLedger,
		gateway:    gw,
		classifier: HeuristicClassifier{},
		sink:       sink,
		metrics:    metrics,
		prefs:      opts.Preferences,
		settings:   settings,
		now:        time.Now,
	}
}

func (p *Pipeline) gatewayTimeout() time.Duration {
	if t := p.settings().GatewayTimeout; t > 0 {
		return t
	}
	return DefaultGatewayTimeout
}

// SubmitQuestion answers one question for the owner. The credit pre-check
// costs nothing and happens before the gateway call; the flat charge lands
// only after a successful generation, followed by the append. A failed
// append after the charge is accepted: the charge stands.
func (p *Pipeline) SubmitQuestion(ctx context.Context, sessionID, ownerID, question, hints string) (*models.AnswerResult, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return nil, &models.ValidationError{Field: "question", Reason: "must not be empty"}
	}

	sess, err := p.sessions.Get(ctx, sessionID, ownerID)
	if err != nil {
		return nil, err
	}
	if sess == nil {
		return nil, &models.NotFoundError{Resource: "session", ID: sessionID}
	}

	// Cheap gate: never call the gateway for an empty balance.
	balance, err := p.ledger.Balance(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	if balance <= 0 {
		return nil, models.ErrInsufficientCredits
	}

	transcript, err := p.sessions.RecentTranscript(ctx, sessionID, ContextTranscriptWindow)
	if err != nil {
		return nil, err
	}

	language := ""
	if p.prefs != nil {
		// Preference lookup is best-effort; the gateway defaults to "en".
		if prefs, err := p.prefs.Preferences(ctx, ownerID); err == nil {
			language = prefs.Language
		}
	}

	gctx, cancel := context.WithTimeout(ctx, p.gatewayTimeout())
	defer cancel()

	answer, err := p.gateway.GenerateAnswer(gctx, question, gateway.Context{
		Hints:      hints,
		Transcript: transcript,
		Language:   language,
	})
	if err != nil {
		// No ledger mutation, no session mutation on any generation
		// failure; classification only shapes the message.
		p.metrics.GenerationFailed(ctx, failureKind(err))
		log.Warn().
			Err(err).
			Str("sessionId", sessionID).
			Str("ownerId", ownerID).
			Msg("Answer generation failed, no charge")
		return nil, err
	}

	remaining, err := p.ledger.DeductExact(ctx, ownerID, QuestionCredits)
	if err != nil {
		if errors.Is(err, models.ErrInsufficientCredits) {
			// The balance drained between the gate and the charge.
			// The generated answer is discarded unbilled.
			return nil, models.ErrInsufficientCredits
		}
		return nil, err
	}

	record := models.QuestionRecord{
		Question:   question,
		Answer:     answer.Text,
		Timestamp:  p.now(),
		ProviderID: answer.ProviderID,
	}
	if err := p.sessions.AppendQuestion(ctx, sessionID, record); err != nil {
		// Charged-but-unlogged is the accepted failure mode; no
		// compensating refund.
		log.Error().
			Err(err).
			Str("sessionId", sessionID).
			Msg("Question append failed after charge, charge stands")
	}

	p.metrics.QuestionAnswered(ctx, answer.ProviderID)
	p.metrics.CreditsDeducted(ctx, "question", QuestionCredits)
	p.sink.Publish(sessionID, events.Event{
		Type:      events.TypeAnswer,
		SessionID: sessionID,
		Payload: map[string]interface{}{
			"question":          question,
			"answer":            answer.Text,
			"provider_id":       answer.ProviderID,
			"credits_remaining": remaining,
		},
	})

	return &models.AnswerResult{
		Answer:           answer.Text,
		ProviderID:       answer.ProviderID,
		CreditsRemaining: remaining,
	}, nil
}

// TranscriptResult reports the outcome of a transcript append.
type TranscriptResult struct {
	IsQuestion bool
	// Auto carries the auto-generated answer when auto-answer mode fired
	// and succeeded. Auto-answer failures never fail the append; they are
	// published as error events.
	Auto *models.AnswerResult
}

// RecordTranscript appends one utterance to the session transcript. No
// billing. When the classifier flags a question and auto-answer mode is on,
// the pipeline submits it through the same credit gate and
// no-charge-on-failure rules as a manual submission.
func (p *Pipeline) RecordTranscript(ctx context.Context, sessionID, ownerID, speaker, text string) (*TranscriptResult, error) {
	if strings.TrimSpace(text) == "" {
		return nil, &models.ValidationError{Field: "text", Reason: "must not be empty"}
	}

	sess, err := p.sessions.Get(ctx, sessionID, ownerID)
	if err != nil {
		return nil, err
	}
	if sess == nil {
		return nil, &models.NotFoundError{Resource: "session", ID: sessionID}
	}

	// Entirely-private utterances are acknowledged but never stored.
	text = redact.Clean(text)
	if text == "" {
		return &TranscriptResult{}, nil
	}

	isQuestion := p.classifier.IsQuestion(text)
	entry := models.TranscriptEntry{
		Timestamp:  p.now(),
		Speaker:    speaker,
		Text:       text,
		IsQuestion: isQuestion,
	}
	if err := p.sessions.AppendTranscript(ctx, sessionID, entry); err != nil {
		return nil, err
	}

	p.sink.Publish(sessionID, events.Event{
		Type:      events.TypeTranscript,
		SessionID: sessionID,
		Payload:   entry,
	})

	result := &TranscriptResult{IsQuestion: isQuestion}

	if isQuestion && p.settings().AutoAnswer && ownerID != "" {
		auto, err := p.SubmitQuestion(ctx, sessionID, ownerID, text, "")
		if err != nil {
			p.sink.Publish(sessionID, events.Event{
				Type:      events.TypeError,
				SessionID: sessionID,
				Payload:   map[string]string{"message": autoAnswerMessage(err)},
			})
			log.Warn().
				Err(err).
				Str("sessionId", sessionID).
				Msg("Auto-answer failed")
		} else {
			result.Auto = auto
		}
	}

	return result, nil
}

// failureKind labels a gateway error for metrics.
func failureKind(err error) string {
	var quota *gateway.ErrQuotaExceeded
	var config *gateway.ErrConfiguration
	switch {
	case errors.As(err, &quota):
		return "quota"
	case errors.As(err, &config):
		return "configuration"
	default:
		return "transient"
	}
}

// autoAnswerMessage maps an auto-answer failure to the human-readable reason
// pushed to the client.
func autoAnswerMessage(err error) string {
	if errors.Is(err, models.ErrInsufficientCredits) {
		return "Insufficient credits to generate answer"
	}
	if errors.Is(err, gateway.ErrGeneration) {
		return gateway.UserMessage(err)
	}
	return "Failed to generate answer automatically"
}
