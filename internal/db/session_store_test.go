package db

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/prompterhq/prompter/pkg/models"
)

// SessionStoreSuite is a test suite for SessionStore operations.
type SessionStoreSuite struct {
	suite.Suite
	store    *Store
	sessions *SessionStore
	users    *UserStore
	ctx      context.Context
}

func (s *SessionStoreSuite) SetupTest() {
	s.store = testStore(s.T())
	s.sessions = NewSessionStore(s.store)
	s.users = NewUserStore(s.store)
	s.ctx = context.Background()
}

func TestSessionStoreSuite(t *testing.T) {
	suite.Run(t, new(SessionStoreSuite))
}

func (s *SessionStoreSuite) createSession(sessionID, ownerID string, startedAt time.Time) *models.Session {
	sess, err := s.sessions.Create(s.ctx, sessionID, ownerID, models.PlatformZoom, startedAt)
	s.Require().NoError(err)
	return sess
}

func (s *SessionStoreSuite) TestCreateAndGet() {
	started := time.Now().Add(-time.Minute)
	created := s.createSession("sess-1", "owner-1", started)

	s.Equal("sess-1", created.SessionID)
	s.Equal("owner-1", created.OwnerID)
	s.Equal(models.SessionStatusActive, created.Status)
	s.Equal(models.PlatformZoom, created.Platform)

	got, err := s.sessions.Get(s.ctx, "sess-1", "owner-1")
	s.Require().NoError(err)
	s.Require().NotNil(got)
	s.Equal(started.UnixMilli(), got.StartedAt.UnixMilli())
	s.Nil(got.EndedAt)
}

func (s *SessionStoreSuite) TestGetScopedToOwner() {
	s.createSession("sess-1", "owner-1", time.Now())

	// Another owner cannot see the session.
	got, err := s.sessions.Get(s.ctx, "sess-1", "owner-2")
	s.Require().NoError(err)
	s.Nil(got)

	// Unknown id.
	got, err = s.sessions.Get(s.ctx, "nope", "owner-1")
	s.Require().NoError(err)
	s.Nil(got)
}

func (s *SessionStoreSuite) TestListByOwnerMostRecentFirst() {
	base := time.Now().Add(-time.Hour)
	s.createSession("sess-a", "owner-1", base)
	s.createSession("sess-b", "owner-1", base.Add(10*time.Minute))
	s.createSession("sess-c", "owner-1", base.Add(20*time.Minute))
	s.createSession("sess-x", "owner-2", base.Add(30*time.Minute))

	list, err := s.sessions.ListByOwner(s.ctx, "owner-1", 50)
	s.Require().NoError(err)
	s.Require().Len(list, 3)
	s.Equal("sess-c", list[0].SessionID)
	s.Equal("sess-b", list[1].SessionID)
	s.Equal("sess-a", list[2].SessionID)
}

func (s *SessionStoreSuite) TestListByOwnerBounded() {
	base := time.Now().Add(-time.Hour)
	for i := 0; i < 5; i++ {
		s.createSession(string(rune('a'+i)), "owner-1", base.Add(time.Duration(i)*time.Minute))
	}

	list, err := s.sessions.ListByOwner(s.ctx, "owner-1", 2)
	s.Require().NoError(err)
	s.Len(list, 2)
}

func (s *SessionStoreSuite) TestAppendAndRecentTranscript() {
	s.createSession("sess-1", "owner-1", time.Now())

	base := time.Now().Add(-time.Minute)
	for i := 0; i < 12; i++ {
		err := s.sessions.AppendTranscript(s.ctx, "sess-1", models.TranscriptEntry{
			Timestamp: base.Add(time.Duration(i) * time.Second),
			Speaker:   "interviewer",
			Text:      "entry " + string(rune('a'+i)),
		})
		s.Require().NoError(err)
	}

	recent, err := s.sessions.RecentTranscript(s.ctx, "sess-1", 10)
	s.Require().NoError(err)
	s.Require().Len(recent, 10)
	// Oldest-first within the window: entries c..l.
	s.Equal("entry c", recent[0].Text)
	s.Equal("entry l", recent[9].Text)
}

func (s *SessionStoreSuite) TestRecentTranscriptShorterThanWindow() {
	s.createSession("sess-1", "owner-1", time.Now())

	err := s.sessions.AppendTranscript(s.ctx, "sess-1", models.TranscriptEntry{
		Timestamp: time.Now(),
		Speaker:   "candidate",
		Text:      "hello",
	})
	s.Require().NoError(err)

	recent, err := s.sessions.RecentTranscript(s.ctx, "sess-1", 10)
	s.Require().NoError(err)
	s.Require().Len(recent, 1)
	s.Equal("hello", recent[0].Text)
}

func (s *SessionStoreSuite) TestGetDetailPreservesOrder() {
	s.createSession("sess-1", "owner-1", time.Now())

	now := time.Now()
	for i := 0; i < 3; i++ {
		s.Require().NoError(s.sessions.AppendTranscript(s.ctx, "sess-1", models.TranscriptEntry{
			Timestamp: now, Speaker: "interviewer", Text: "t" + string(rune('0'+i)),
		}))
		s.Require().NoError(s.sessions.AppendQuestion(s.ctx, "sess-1", models.QuestionRecord{
			Question: "q" + string(rune('0'+i)), Answer: "a", Timestamp: now, ProviderID: "mock",
		}))
	}

	detail, err := s.sessions.GetDetail(s.ctx, "sess-1", "owner-1")
	s.Require().NoError(err)
	s.Require().NotNil(detail)
	s.Require().Len(detail.Transcript, 3)
	s.Require().Len(detail.Questions, 3)
	s.Equal("t0", detail.Transcript[0].Text)
	s.Equal("t2", detail.Transcript[2].Text)
	s.Equal("q0", detail.Questions[0].Question)
	s.Equal("q2", detail.Questions[2].Question)
}

func (s *SessionStoreSuite) TestFinalizeClaimsOnce() {
	s.createSession("sess-1", "owner-1", time.Now().Add(-time.Minute))

	endedAt := time.Now()
	claimed, err := s.sessions.Finalize(s.ctx, "sess-1", "owner-1", endedAt, 60)
	s.Require().NoError(err)
	s.True(claimed)

	// Second finalize must not claim.
	claimed, err = s.sessions.Finalize(s.ctx, "sess-1", "owner-1", endedAt.Add(time.Minute), 120)
	s.Require().NoError(err)
	s.False(claimed)

	got, err := s.sessions.Get(s.ctx, "sess-1", "owner-1")
	s.Require().NoError(err)
	s.Equal(models.SessionStatusCompleted, got.Status)
	s.Equal(int64(60), got.DurationSeconds)
	s.Require().NotNil(got.EndedAt)
	s.Equal(endedAt.UnixMilli(), got.EndedAt.UnixMilli())
}

func (s *SessionStoreSuite) TestFinalizeForeignOwner() {
	s.createSession("sess-1", "owner-1", time.Now())

	claimed, err := s.sessions.Finalize(s.ctx, "sess-1", "owner-2", time.Now(), 10)
	s.Require().NoError(err)
	s.False(claimed)
}

func (s *SessionStoreSuite) TestSetCreditsDeducted() {
	s.createSession("sess-1", "owner-1", time.Now().Add(-time.Minute))

	_, err := s.sessions.Finalize(s.ctx, "sess-1", "owner-1", time.Now(), 60)
	s.Require().NoError(err)
	s.Require().NoError(s.sessions.SetCreditsDeducted(s.ctx, "sess-1", 1.5))

	got, err := s.sessions.Get(s.ctx, "sess-1", "owner-1")
	s.Require().NoError(err)
	s.InDelta(1.5, got.CreditsDeducted, 1e-9)
}

func (s *SessionStoreSuite) TestSetSummaryRoundTrip() {
	s.createSession("sess-1", "owner-1", time.Now())

	summary := models.InterviewSummary{
		PerformanceScore: 82,
		Strengths:        []string{"structured answers"},
		Improvements:     []string{"ask clarifying questions"},
		Feedback:         "Solid performance.",
	}
	s.Require().NoError(s.sessions.SetSummary(s.ctx, "sess-1", summary))

	detail, err := s.sessions.GetDetail(s.ctx, "sess-1", "owner-1")
	s.Require().NoError(err)
	s.Require().NotNil(detail.Summary)
	s.Equal(summary, *detail.Summary)
}

func (s *SessionStoreSuite) TestSetSummaryUnknownSession() {
	err := s.sessions.SetSummary(s.ctx, "nope", models.InterviewSummary{Feedback: "x"})
	s.Require().ErrorIs(err, models.ErrNotFound)
}

func (s *SessionStoreSuite) TestGetDetailNoSummary() {
	s.createSession("sess-1", "owner-1", time.Now())

	detail, err := s.sessions.GetDetail(s.ctx, "sess-1", "owner-1")
	s.Require().NoError(err)
	s.Nil(detail.Summary)
}

func TestToDomainSessionEndedAt(t *testing.T) {
	row := &Session{
		SessionID:      "sess-1",
		OwnerID:        "owner-1",
		Platform:       "other",
		Status:         "active",
		StartedAtEpoch: time.Now().UnixMilli(),
	}
	out := toDomainSession(row)
	assert.Nil(t, out.EndedAt)
	require.Equal(t, models.SessionStatusActive, out.Status)
}
