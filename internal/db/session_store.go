package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/goccy/go-json"
	"gorm.io/gorm"

	"github.com/prompterhq/prompter/pkg/models"
)

// SessionStore provides session-related database operations.
type SessionStore struct {
	store *Store
}

// NewSessionStore creates a new session store.
func NewSessionStore(store *Store) *SessionStore {
	return &SessionStore{store: store}
}

// Create persists a new active session.
func (s *SessionStore) Create(ctx context.Context, sessionID, ownerID string, platform models.Platform, startedAt time.Time) (*models.Session, error) {
	row := &Session{
		SessionID:      sessionID,
		OwnerID:        ownerID,
		Platform:       string(platform),
		Status:         string(models.SessionStatusActive),
		StartedAt:      startedAt.UTC().Format(time.RFC3339),
		StartedAtEpoch: startedAt.UnixMilli(),
	}
	if err := s.store.DB.WithContext(ctx).Create(row).Error; err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}
	out := toDomainSession(row)
	return &out, nil
}

// Get retrieves a session by id, scoped to its owner.
// Returns nil when no such session exists for that owner.
func (s *SessionStore) Get(ctx context.Context, sessionID, ownerID string) (*models.Session, error) {
	var row Session
	err := s.store.DB.WithContext(ctx).
		Where("session_id = ? AND owner_id = ?", sessionID, ownerID).
		First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get session: %w", err)
	}
	out := toDomainSession(&row)
	return &out, nil
}

// GetDetail retrieves a session together with its full transcript and
// question log, both in insertion order.
func (s *SessionStore) GetDetail(ctx context.Context, sessionID, ownerID string) (*models.SessionDetail, error) {
	var sessRow Session
	err := s.store.DB.WithContext(ctx).
		Where("session_id = ? AND owner_id = ?", sessionID, ownerID).
		First(&sessRow).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get session: %w", err)
	}
	domain := toDomainSession(&sessRow)
	sess := &domain

	var transcriptRows []TranscriptEntry
	if err := s.store.DB.WithContext(ctx).
		Where("session_id = ?", sessionID).
		Order("id ASC").
		Find(&transcriptRows).Error; err != nil {
		return nil, fmt.Errorf("load transcript: %w", err)
	}

	var questionRows []QuestionRecord
	if err := s.store.DB.WithContext(ctx).
		Where("session_id = ?", sessionID).
		Order("id ASC").
		Find(&questionRows).Error; err != nil {
		return nil, fmt.Errorf("load questions: %w", err)
	}

	detail := &models.SessionDetail{
		Session:    *sess,
		Transcript: make([]models.TranscriptEntry, 0, len(transcriptRows)),
		Questions:  make([]models.QuestionRecord, 0, len(questionRows)),
	}
	for _, row := range transcriptRows {
		detail.Transcript = append(detail.Transcript, models.TranscriptEntry{
			Timestamp:  time.UnixMilli(row.CreatedAtEpoch).UTC(),
			Speaker:    row.Speaker,
			Text:       row.Text,
			IsQuestion: row.IsQuestion,
		})
	}
	for _, row := range questionRows {
		detail.Questions = append(detail.Questions, models.QuestionRecord{
			Question:   row.Question,
			Answer:     row.Answer,
			Timestamp:  time.UnixMilli(row.CreatedAtEpoch).UTC(),
			ProviderID: row.ProviderID,
		})
	}
	if sessRow.Summary.Valid {
		var summary models.InterviewSummary
		if err := json.Unmarshal([]byte(sessRow.Summary.String), &summary); err == nil {
			detail.Summary = &summary
		}
	}
	return detail, nil
}

// ListByOwner returns the owner's sessions, most recent first, bounded by limit.
func (s *SessionStore) ListByOwner(ctx context.Context, ownerID string, limit int) ([]models.Session, error) {
	if limit <= 0 {
		limit = 50
	}
	var rows []Session
	if err := s.store.DB.WithContext(ctx).
		Where("owner_id = ?", ownerID).
		Order("started_at_epoch DESC").
		Limit(limit).
		Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	out := make([]models.Session, 0, len(rows))
	for i := range rows {
		out = append(out, toDomainSession(&rows[i]))
	}
	return out, nil
}

// AppendTranscript appends one utterance to the session's transcript log.
func (s *SessionStore) AppendTranscript(ctx context.Context, sessionID string, entry models.TranscriptEntry) error {
	row := &TranscriptEntry{
		SessionID:      sessionID,
		Speaker:        entry.Speaker,
		Text:           entry.Text,
		IsQuestion:     entry.IsQuestion,
		CreatedAt:      entry.Timestamp.UTC().Format(time.RFC3339),
		CreatedAtEpoch: entry.Timestamp.UnixMilli(),
	}
	if err := s.store.DB.WithContext(ctx).Create(row).Error; err != nil {
		return fmt.Errorf("append transcript: %w", err)
	}
	return nil
}

// AppendQuestion appends one answered question to the session's question log.
func (s *SessionStore) AppendQuestion(ctx context.Context, sessionID string, rec models.QuestionRecord) error {
	row := &QuestionRecord{
		SessionID:      sessionID,
		Question:       rec.Question,
		Answer:         rec.Answer,
		ProviderID:     rec.ProviderID,
		CreatedAt:      rec.Timestamp.UTC().Format(time.RFC3339),
		CreatedAtEpoch: rec.Timestamp.UnixMilli(),
	}
	if err := s.store.DB.WithContext(ctx).Create(row).Error; err != nil {
		return fmt.Errorf("append question: %w", err)
	}
	return nil
}

// RecentTranscript returns the last n transcript entries, oldest first.
func (s *SessionStore) RecentTranscript(ctx context.Context, sessionID string, n int) ([]models.TranscriptEntry, error) {
	var rows []TranscriptEntry
	if err := s.store.DB.WithContext(ctx).
		Where("session_id = ?", sessionID).
		Order("id DESC").
		Limit(n).
		Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("recent transcript: %w", err)
	}
	// Rows come back newest-first; reverse to oldest-first.
	out := make([]models.TranscriptEntry, len(rows))
	for i := range rows {
		row := rows[len(rows)-1-i]
		out[i] = models.TranscriptEntry{
			Timestamp:  time.UnixMilli(row.CreatedAtEpoch).UTC(),
			Speaker:    row.Speaker,
			Text:       row.Text,
			IsQuestion: row.IsQuestion,
		}
	}
	return out, nil
}

// Finalize claims the terminal transition for a session. The conditional
// WHERE status = 'active' makes the transition exactly-once: only one caller
// observes claimed=true, so a retried end-session cannot recompute a larger
// duration or charge twice.
func (s *SessionStore) Finalize(ctx context.Context, sessionID, ownerID string, endedAt time.Time, durationSeconds int64) (bool, error) {
	res := s.store.DB.WithContext(ctx).
		Model(&Session{}).
		Where("session_id = ? AND owner_id = ? AND status = ?", sessionID, ownerID, string(models.SessionStatusActive)).
		Updates(map[string]interface{}{
			"status":           string(models.SessionStatusCompleted),
			"ended_at":         sql.NullString{String: endedAt.UTC().Format(time.RFC3339), Valid: true},
			"ended_at_epoch":   sql.NullInt64{Int64: endedAt.UnixMilli(), Valid: true},
			"duration_seconds": durationSeconds,
		})
	if res.Error != nil {
		return false, fmt.Errorf("finalize session: %w", res.Error)
	}
	return res.RowsAffected == 1, nil
}

// SetSummary persists generated interview feedback on the session row.
func (s *SessionStore) SetSummary(ctx context.Context, sessionID string, summary models.InterviewSummary) error {
	data, err := json.Marshal(summary)
	if err != nil {
		return fmt.Errorf("marshal summary: %w", err)
	}
	res := s.store.DB.WithContext(ctx).
		Model(&Session{}).
		Where("session_id = ?", sessionID).
		Update("summary", sql.NullString{String: string(data), Valid: true})
	if res.Error != nil {
		return fmt.Errorf("set summary: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return &models.NotFoundError{Resource: "session", ID: sessionID}
	}
	return nil
}

// SetCreditsDeducted records the settled charge on a completed session.
func (s *SessionStore) SetCreditsDeducted(ctx context.Context, sessionID string, amount float64) error {
	err := s.store.DB.WithContext(ctx).
		Model(&Session{}).
		Where("session_id = ?", sessionID).
		Update("credits_deducted", amount).Error
	if err != nil {
		return fmt.Errorf("set credits deducted: %w", err)
	}
	return nil
}
