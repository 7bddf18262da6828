// Package gateway abstracts the external answer-generation capability.
// The pipeline depends only on the Gateway contract and the failure
// taxonomy here; which provider serves a request is a construction-time
// concern.
package gateway

import (
	"context"

	"github.com/prompterhq/prompter/pkg/models"
)

// Context carries everything beyond the question itself that a provider may
// use to ground the answer.
type Context struct {
	// Hints is free-form caller-supplied context (e.g. code on screen).
	Hints string
	// ResumeSummary is a short summary of the candidate's background.
	ResumeSummary string
	// Transcript is recent conversation, oldest first. Providers embed at
	// most the last PromptTranscriptWindow entries into the prompt.
	Transcript []models.TranscriptEntry
	// Language is the answer language (BCP 47-ish tag, default "en").
	Language string
}

// PromptTranscriptWindow is the number of trailing transcript entries
// embedded into the generation prompt.
const PromptTranscriptWindow = 5

// Answer is the two-field success contract.
type Answer struct {
	Text       string
	ProviderID string
}

// Gateway generates an answer for an interview question. Implementations may
// be slow and may fail; callers bound the call with a context deadline.
type Gateway interface {
	GenerateAnswer(ctx context.Context, question string, qctx Context) (*Answer, error)

	// ProviderID identifies the configured provider/model.
	ProviderID() string
}
