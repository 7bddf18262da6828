// Package models contains domain models for prompter.
package models

import (
	"strings"
	"time"
)

// SessionStatus represents the lifecycle state of an interview session.
type SessionStatus string

const (
	SessionStatusActive    SessionStatus = "active"
	SessionStatusCompleted SessionStatus = "completed"
	SessionStatusCancelled SessionStatus = "cancelled"
)

// Terminal reports whether the status is a terminal state.
// A terminal session accepts no further mutation.
func (s SessionStatus) Terminal() bool {
	return s == SessionStatusCompleted || s == SessionStatusCancelled
}

// Platform identifies the interview platform a session runs on.
type Platform string

const (
	PlatformZoom       Platform = "zoom"
	PlatformTeams      Platform = "teams"
	PlatformMeet       Platform = "meet"
	PlatformHackerRank Platform = "hackerrank"
	PlatformLeetCode   Platform = "leetcode"
	PlatformOther      Platform = "other"
)

// NormalizePlatform maps an arbitrary client tag to a known platform,
// defaulting to PlatformOther.
func NormalizePlatform(tag string) Platform {
	tag = strings.ToLower(strings.TrimSpace(tag))
	switch Platform(tag) {
	case PlatformZoom, PlatformTeams, PlatformMeet, PlatformHackerRank, PlatformLeetCode:
		return Platform(tag)
	default:
		return PlatformOther
	}
}

// Session is one interview attempt, bounded by explicit create/end calls.
type Session struct {
	SessionID       string        `json:"session_id"`
	OwnerID         string        `json:"owner_id"`
	Platform        Platform      `json:"platform"`
	Status          SessionStatus `json:"status"`
	StartedAt       time.Time     `json:"started_at"`
	EndedAt         *time.Time    `json:"ended_at,omitempty"`
	DurationSeconds int64         `json:"duration_seconds"`
	CreditsDeducted float64       `json:"credits_deducted"`
}

// TranscriptEntry is a single utterance captured during a session.
type TranscriptEntry struct {
	Timestamp  time.Time `json:"timestamp"`
	Speaker    string    `json:"speaker"`
	Text       string    `json:"text"`
	IsQuestion bool      `json:"is_question"`
}

// QuestionRecord is one answered question within a session.
type QuestionRecord struct {
	Question   string    `json:"question"`
	Answer     string    `json:"answer"`
	Timestamp  time.Time `json:"timestamp"`
	ProviderID string    `json:"provider_id"`
}

// InterviewSummary is generated feedback for an interview session.
type InterviewSummary struct {
	PerformanceScore int      `json:"performance_score"`
	Strengths        []string `json:"strengths"`
	Improvements     []string `json:"improvements"`
	Feedback         string   `json:"feedback"`
}

// SessionDetail is a session together with its transcript and answered questions.
type SessionDetail struct {
	Session
	Transcript []TranscriptEntry `json:"transcript"`
	Questions  []QuestionRecord  `json:"questions"`
	Summary    *InterviewSummary `json:"summary,omitempty"`
}
