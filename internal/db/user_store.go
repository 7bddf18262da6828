package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/prompterhq/prompter/pkg/models"
)

// UserStore provides user-related database operations.
type UserStore struct {
	store *Store
}

// NewUserStore creates a new user store.
func NewUserStore(store *Store) *UserStore {
	return &UserStore{store: store}
}

// Create persists a new user. Email uniqueness is enforced by the schema.
func (s *UserStore) Create(ctx context.Context, id, email, passwordHash, name string) (*models.User, error) {
	row := &User{
		ID:           id,
		Email:        email,
		PasswordHash: passwordHash,
		Name:         sql.NullString{String: name, Valid: name != ""},
	}
	if err := s.store.DB.WithContext(ctx).Create(row).Error; err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}
	return toDomainUser(row), nil
}

// GetByEmail retrieves a user by email. Returns nil when not found.
func (s *UserStore) GetByEmail(ctx context.Context, email string) (*User, error) {
	var row User
	err := s.store.DB.WithContext(ctx).Where("email = ?", email).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get user by email: %w", err)
	}
	return &row, nil
}

// GetByID retrieves a user by id. Returns nil when not found.
func (s *UserStore) GetByID(ctx context.Context, id string) (*models.User, error) {
	var row User
	err := s.store.DB.WithContext(ctx).Where("id = ?", id).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	return toDomainUser(&row), nil
}

// Preferences reads the owner's answer preferences.
func (s *UserStore) Preferences(ctx context.Context, ownerID string) (models.Preferences, error) {
	var row User
	err := s.store.DB.WithContext(ctx).
		Select("ai_model", "language").
		Where("id = ?", ownerID).
		First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.Preferences{}, &models.NotFoundError{Resource: "user", ID: ownerID}
	}
	if err != nil {
		return models.Preferences{}, fmt.Errorf("read preferences: %w", err)
	}
	return models.Preferences{AIModel: row.AIModel, Language: row.Language}, nil
}

// SetPreferences writes the owner's answer preferences.
func (s *UserStore) SetPreferences(ctx context.Context, ownerID string, prefs models.Preferences) error {
	res := s.store.DB.WithContext(ctx).
		Model(&User{}).
		Where("id = ?", ownerID).
		Updates(map[string]interface{}{
			"ai_model": prefs.AIModel,
			"language": prefs.Language,
		})
	if res.Error != nil {
		return fmt.Errorf("set preferences: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return &models.NotFoundError{Resource: "user", ID: ownerID}
	}
	return nil
}

// Credits reads the current balance for an owner.
func (s *UserStore) Credits(ctx context.Context, ownerID string) (float64, error) {
	var credits float64
	err := s.store.DB.WithContext(ctx).
		Model(&User{}).
		Where("id = ?", ownerID).
		Pluck("credits", &credits).Error
	if err != nil {
		return 0, fmt.Errorf("read credits: %w", err)
	}
	return credits, nil
}

// SetCredits writes a new balance for an owner. Callers must serialize this
// with the preceding read; the ledger's per-owner lock provides that.
func (s *UserStore) SetCredits(ctx context.Context, ownerID string, balance float64) error {
	res := s.store.DB.WithContext(ctx).
		Model(&User{}).
		Where("id = ?", ownerID).
		Update("credits", balance)
	if res.Error != nil {
		return fmt.Errorf("set credits: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return &models.NotFoundError{Resource: "user", ID: ownerID}
	}
	return nil
}

func toDomainUser(row *User) *models.User {
	return &models.User{
		ID:      row.ID,
		Email:   row.Email,
		Name:    row.Name.String,
		Credits: row.Credits,
		Preferences: models.Preferences{
			AIModel:  row.AIModel,
			Language: row.Language,
		},
		CreatedAt: time.UnixMilli(row.CreatedAtEpoch).UTC(),
	}
}
