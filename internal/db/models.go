package db

import (
	"database/sql"
	"time"

	"gorm.io/gorm"

	"github.com/prompterhq/prompter/pkg/models"
)

// GORM Models

// User represents an account with a prepaid credit balance.
type User struct {
	ID           string `gorm:"primaryKey"`
	Email        string `gorm:"uniqueIndex;not null"`
	PasswordHash string `gorm:"not null"`
	Name         sql.NullString
	// Credits is the prepaid balance. Invariant: never negative; all
	// mutation goes through the ledger's per-owner critical section.
	Credits        float64 `gorm:"type:real;default:0;check:credits >= 0"`
	AIModel        string  `gorm:"column:ai_model"`
	Language       string  `gorm:"default:'en'"`
	CreatedAt      string  `gorm:"not null"`
	CreatedAtEpoch int64   `gorm:"not null"`
}

func (User) TableName() string { return "users" }

// BeforeCreate hook to ensure timestamps are set.
func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.CreatedAtEpoch == 0 {
		u.CreatedAtEpoch = time.Now().UnixMilli()
	}
	if u.CreatedAt == "" {
		u.CreatedAt = time.Now().Format(time.RFC3339)
	}
	return nil
}

// Session represents an interview session.
type Session struct {
	ID        int64  `gorm:"primaryKey;autoIncrement"`
	SessionID string `gorm:"uniqueIndex;not null"`
	OwnerID   string `gorm:"index;index:idx_sessions_owner_started,priority:1;not null"`
	Platform  string `gorm:"default:'other'"`
	Status    string `gorm:"type:text;check:status IN ('active', 'completed', 'cancelled');default:'active';index"`
	StartedAt string `gorm:"not null"`
	// StartedAtEpoch is milliseconds; duration math happens on this field.
	StartedAtEpoch  int64 `gorm:"index:idx_sessions_owner_started,priority:2,sort:desc;not null"`
	EndedAt         sql.NullString
	EndedAtEpoch    sql.NullInt64
	DurationSeconds int64   `gorm:"default:0"`
	CreditsDeducted float64 `gorm:"type:real;default:0"`
	// Summary holds the generated interview feedback as JSON.
	Summary sql.NullString `gorm:"type:text"`
}

func (Session) TableName() string { return "sessions" }

// BeforeCreate hook to ensure timestamps are set.
func (s *Session) BeforeCreate(tx *gorm.DB) error {
	if s.StartedAtEpoch == 0 {
		s.StartedAtEpoch = time.Now().UnixMilli()
	}
	if s.StartedAt == "" {
		s.StartedAt = time.Now().Format(time.RFC3339)
	}
	return nil
}

// TranscriptEntry is one utterance appended to a session's transcript.
// Ordinal preserves per-session insertion order.
type TranscriptEntry struct {
	ID             int64  `gorm:"primaryKey;autoIncrement"`
	SessionID      string `gorm:"index;not null"`
	Speaker        string `gorm:"not null"`
	Text           string `gorm:"type:text;not null"`
	IsQuestion     bool   `gorm:"default:false"`
	CreatedAt      string `gorm:"not null"`
	CreatedAtEpoch int64  `gorm:"not null"`
}

func (TranscriptEntry) TableName() string { return "transcript_entries" }

// BeforeCreate hook to ensure timestamps are set.
func (t *TranscriptEntry) BeforeCreate(tx *gorm.DB) error {
	if t.CreatedAtEpoch == 0 {
		t.CreatedAtEpoch = time.Now().UnixMilli()
	}
	if t.CreatedAt == "" {
		t.CreatedAt = time.Now().Format(time.RFC3339)
	}
	return nil
}

// QuestionRecord is one answered question appended to a session.
type QuestionRecord struct {
	ID             int64  `gorm:"primaryKey;autoIncrement"`
	SessionID      string `gorm:"index;not null"`
	Question       string `gorm:"type:text;not null"`
	Answer         string `gorm:"type:text;not null"`
	ProviderID     string `gorm:"not null"`
	CreatedAt      string `gorm:"not null"`
	CreatedAtEpoch int64  `gorm:"not null"`
}

func (QuestionRecord) TableName() string { return "question_records" }

// BeforeCreate hook to ensure timestamps are set.
func (q *QuestionRecord) BeforeCreate(tx *gorm.DB) error {
	if q.CreatedAtEpoch == 0 {
		q.CreatedAtEpoch = time.Now().UnixMilli()
	}
	if q.CreatedAt == "" {
		q.CreatedAt = time.Now().Format(time.RFC3339)
	}
	return nil
}

// toDomainSession converts a DB session row to the domain model.
func toDomainSession(s *Session) models.Session {
	out := models.Session{
		SessionID:       s.SessionID,
		OwnerID:         s.OwnerID,
		Platform:        models.Platform(s.Platform),
		Status:          models.SessionStatus(s.Status),
		StartedAt:       time.UnixMilli(s.StartedAtEpoch).UTC(),
		DurationSeconds: s.DurationSeconds,
		CreditsDeducted: s.CreditsDeducted,
	}
	if s.EndedAtEpoch.Valid {
		t := time.UnixMilli(s.EndedAtEpoch.Int64).UTC()
		out.EndedAt = &t
	}
	return out
}
