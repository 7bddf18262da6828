package pipeline

import (
	"errors"
	"time"

	"github.com/prompterhq/prompter/internal/gateway"
	"github.com/prompterhq/prompter/pkg/models"
)

func (s *PipelineSuite) seedQuestion(sessionID, question, answer string) {
	s.Require().NoError(s.sessions.AppendQuestion(s.ctx, sessionID, models.QuestionRecord{
		Question:   question,
		Answer:     answer,
		Timestamp:  time.Now(),
		ProviderID: "mock",
	}))
}

func (s *PipelineSuite) TestSummarizeSession() {
	sessionID := s.newSession("u1", 5)
	s.seedQuestion(sessionID, "Why Go?", "Goroutines and a small language surface.")
	s.mock = gateway.NewMockGateway(mockAnswer(
		`{"performance_score":88,"strengths":["clear answers"],"improvements":["more depth"],"feedback":"Strong session."}`))
	p := s.newPipeline(Options{})

	summary, err := p.SummarizeSession(s.ctx, sessionID, "u1")
	s.Require().NoError(err)
	s.Equal(88, summary.PerformanceScore)
	s.Equal([]string{"clear answers"}, summary.Strengths)
	s.Equal([]string{"more depth"}, summary.Improvements)
	s.Equal("Strong session.", summary.Feedback)

	// Summaries are free of charge.
	balance, err := s.ledger.Balance(s.ctx, "u1")
	s.Require().NoError(err)
	s.InDelta(5, balance, 1e-9)

	// Persisted on the session.
	detail, err := s.sessions.GetDetail(s.ctx, sessionID, "u1")
	s.Require().NoError(err)
	s.Require().NotNil(detail.Summary)
	s.Equal(88, detail.Summary.PerformanceScore)
}

func (s *PipelineSuite) TestSummarizeSessionPromptCoversQuestions() {
	sessionID := s.newSession("u1", 5)
	s.seedQuestion(sessionID, "Why Go?", "Goroutines.")
	s.seedQuestion(sessionID, "Why channels?", "Communication over sharing.")
	p := s.newPipeline(Options{})

	_, err := p.SummarizeSession(s.ctx, sessionID, "u1")
	s.Require().NoError(err)

	s.Require().Len(s.mock.Calls, 1)
	prompt := s.mock.Calls[0].Question
	s.Contains(prompt, "Total questions: 2")
	s.Contains(prompt, "Why channels?")
	s.Contains(prompt, "Communication over sharing.")
}

func (s *PipelineSuite) TestSummarizeSessionGenerationFailure() {
	sessionID := s.newSession("u1", 5)
	s.mock = gateway.NewMockGateway(mockFailure(&gateway.ErrTransient{Err: errors.New("upstream down")}))
	p := s.newPipeline(Options{})

	summary, err := p.SummarizeSession(s.ctx, sessionID, "u1")
	s.Require().NoError(err)
	s.Equal(fallbackSummary(), summary)

	detail, err := s.sessions.GetDetail(s.ctx, sessionID, "u1")
	s.Require().NoError(err)
	s.NotNil(detail.Summary)
}

func (s *PipelineSuite) TestSummarizeSessionMalformedResponse() {
	sessionID := s.newSession("u1", 5)
	s.mock = gateway.NewMockGateway(mockAnswer("Great job overall, keep practicing!"))
	p := s.newPipeline(Options{})

	summary, err := p.SummarizeSession(s.ctx, sessionID, "u1")
	s.Require().NoError(err)
	s.Equal(fallbackSummary(), summary)
}

func (s *PipelineSuite) TestSummarizeSessionFencedResponse() {
	sessionID := s.newSession("u1", 5)
	s.mock = gateway.NewMockGateway(mockAnswer(
		"```json\n{\"performance_score\":60,\"strengths\":[],\"improvements\":[\"pacing\"],\"feedback\":\"Keep going.\"}\n```"))
	p := s.newPipeline(Options{})

	summary, err := p.SummarizeSession(s.ctx, sessionID, "u1")
	s.Require().NoError(err)
	s.Equal(60, summary.PerformanceScore)
}

func (s *PipelineSuite) TestSummarizeUnknownSession() {
	s.newSession("u1", 5)
	p := s.newPipeline(Options{})

	_, err := p.SummarizeSession(s.ctx, "nope", "u1")
	s.Require().ErrorIs(err, models.ErrNotFound)
	s.Zero(s.mock.CallCount())
}

func (s *PipelineSuite) TestSummarizeForeignSession() {
	sessionID := s.newSession("u1", 5)
	s.newSession("u2", 5)
	p := s.newPipeline(Options{})

	_, err := p.SummarizeSession(s.ctx, sessionID, "u2")
	s.Require().ErrorIs(err, models.ErrNotFound)
	s.Zero(s.mock.CallCount())
}
