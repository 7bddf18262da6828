package models

import "time"

// CreditOutcome reports how an end-of-session charge settled against the ledger.
type CreditOutcome struct {
	// Deducted is the amount actually charged.
	Deducted float64 `json:"deducted"`
	// Requested is the nominal charge before clamping. Only populated when
	// the balance could not cover it.
	Requested float64 `json:"requested,omitempty"`
	// Remaining is the post-deduction balance.
	Remaining float64 `json:"remaining"`
	// Insufficient is true when the balance could not cover the nominal
	// charge and the deduction was clamped. The shortfall is absorbed, not
	// tracked as debt.
	Insufficient bool `json:"insufficient"`
}

// SessionSummary is returned by end-session: the sealed session plus the
// settled charge.
type SessionSummary struct {
	SessionID       string        `json:"session_id"`
	Status          SessionStatus `json:"status"`
	DurationSeconds int64         `json:"duration_seconds"`
	// DurationMinutes is the elapsed time in minutes rounded to one decimal,
	// for display only. Billing uses DurationSeconds.
	DurationMinutes float64       `json:"duration_minutes"`
	EndedAt         time.Time     `json:"ended_at"`
	Credits         CreditOutcome `json:"credits"`
}

// AnswerResult is returned by submit-question on a successful generation.
type AnswerResult struct {
	Answer           string  `json:"answer"`
	ProviderID       string  `json:"provider_id"`
	CreditsRemaining float64 `json:"credits_remaining"`
}
