package pipeline

import (
	"context"
	"fmt"
	"strings"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog/log"

	"github.com/prompterhq/prompter/internal/gateway"
	"github.com/prompterhq/prompter/pkg/models"
)

// SummarizeSession generates performance feedback over the session's answered
// questions and persists it on the session row. Summaries carry no credit
// charge. Generation or parse failures degrade to a canned summary instead of
// failing the request.
func (p *Pipeline) SummarizeSession(ctx context.Context, sessionID, ownerID string) (*models.InterviewSummary, error) {
	detail, err := p.sessions.GetDetail(ctx, sessionID, ownerID)
	if err != nil {
		return nil, err
	}
	if detail == nil {
		return nil, &models.NotFoundError{Resource: "session", ID: sessionID}
	}

	summary := p.generateSummary(ctx, detail)

	if err := p.sessions.SetSummary(ctx, sessionID, *summary); err != nil {
		return nil, err
	}
	return summary, nil
}

func (p *Pipeline) generateSummary(ctx context.Context, detail *models.SessionDetail) *models.InterviewSummary {
	gctx, cancel := context.WithTimeout(ctx, p.gatewayTimeout())
	defer cancel()

	answer, err := p.gateway.GenerateAnswer(gctx, summaryPrompt(detail.Questions, detail.DurationSeconds), gateway.Context{})
	if err != nil {
		log.Warn().
			Err(err).
			Str("sessionId", detail.SessionID).
			Msg("Summary generation failed, using fallback")
		return fallbackSummary()
	}

	summary, ok := parseSummary(answer.Text)
	if !ok {
		log.Warn().
			Str("sessionId", detail.SessionID).
			Msg("Summary response was not valid JSON, using fallback")
		return fallbackSummary()
	}
	return summary
}

func summaryPrompt(questions []models.QuestionRecord, durationSeconds int64) string {
	var b strings.Builder
	b.WriteString("Analyze this interview session and provide:\n")
	b.WriteString("1. Overall performance score (0-100)\n")
	b.WriteString("2. Key strengths demonstrated\n")
	b.WriteString("3. Areas for improvement\n")
	b.WriteString("4. General feedback\n\n")
	fmt.Fprintf(&b, "Interview data:\n- Total questions: %d\n- Duration: %d seconds\n", len(questions), durationSeconds)
	b.WriteString("- Questions and answers:\n")
	for i, q := range questions {
		fmt.Fprintf(&b, "%d. Q: %s\n   A: %s\n", i+1, q.Question, q.Answer)
	}
	b.WriteString("\nRespond with a JSON object with keys: performance_score (number), strengths (array), improvements (array), feedback (string).")
	return b.String()
}

// parseSummary extracts the JSON object from the provider's response.
// Providers sometimes fence or preface the JSON, so it takes the outermost
// braces.
func parseSummary(text string) (*models.InterviewSummary, bool) {
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start < 0 || end <= start {
		return nil, false
	}
	var summary models.InterviewSummary
	if err := json.Unmarshal([]byte(text[start:end+1]), &summary); err != nil {
		return nil, false
	}
	return &summary, true
}

func fallbackSummary() *models.InterviewSummary {
	return &models.InterviewSummary{
		PerformanceScore: 75,
		Strengths:        []string{"Good communication"},
		Improvements:     []string{"Could provide more specific examples"},
		Feedback:         "Overall good performance. Continue practicing.",
	}
}
