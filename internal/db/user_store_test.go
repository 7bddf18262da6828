package db

import (
	"context"
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/prompterhq/prompter/pkg/models"
)

// UserStoreSuite is a test suite for UserStore operations.
type UserStoreSuite struct {
	suite.Suite
	store *Store
	users *UserStore
	ctx   context.Context
}

func (s *UserStoreSuite) SetupTest() {
	s.store = testStore(s.T())
	s.users = NewUserStore(s.store)
	s.ctx = context.Background()
}

func TestUserStoreSuite(t *testing.T) {
	suite.Run(t, new(UserStoreSuite))
}

func (s *UserStoreSuite) TestCreateAndGet() {
	user, err := s.users.Create(s.ctx, "user-1", "a@example.com", "hash", "Ada")
	s.Require().NoError(err)
	s.Equal("user-1", user.ID)
	s.Equal("a@example.com", user.Email)
	s.Equal("Ada", user.Name)
	s.Zero(user.Credits)

	got, err := s.users.GetByID(s.ctx, "user-1")
	s.Require().NoError(err)
	s.Require().NotNil(got)
	s.Equal("a@example.com", got.Email)

	row, err := s.users.GetByEmail(s.ctx, "a@example.com")
	s.Require().NoError(err)
	s.Require().NotNil(row)
	s.Equal("hash", row.PasswordHash)
}

func (s *UserStoreSuite) TestGetMissing() {
	got, err := s.users.GetByID(s.ctx, "nope")
	s.Require().NoError(err)
	s.Nil(got)

	row, err := s.users.GetByEmail(s.ctx, "nope@example.com")
	s.Require().NoError(err)
	s.Nil(row)
}

func (s *UserStoreSuite) TestDuplicateEmailRejected() {
	_, err := s.users.Create(s.ctx, "user-1", "a@example.com", "hash", "")
	s.Require().NoError(err)

	_, err = s.users.Create(s.ctx, "user-2", "a@example.com", "hash", "")
	s.Error(err)
}

func (s *UserStoreSuite) TestCreditsRoundTrip() {
	_, err := s.users.Create(s.ctx, "user-1", "a@example.com", "hash", "")
	s.Require().NoError(err)

	credits, err := s.users.Credits(s.ctx, "user-1")
	s.Require().NoError(err)
	s.Zero(credits)

	s.Require().NoError(s.users.SetCredits(s.ctx, "user-1", 12.5))

	credits, err = s.users.Credits(s.ctx, "user-1")
	s.Require().NoError(err)
	s.InDelta(12.5, credits, 1e-9)
}

func (s *UserStoreSuite) TestSetCreditsUnknownUser() {
	err := s.users.SetCredits(s.ctx, "nope", 5)
	s.Error(err)
}

func (s *UserStoreSuite) TestPreferencesDefaultLanguage() {
	_, err := s.users.Create(s.ctx, "user-1", "a@example.com", "hash", "")
	s.Require().NoError(err)

	prefs, err := s.users.Preferences(s.ctx, "user-1")
	s.Require().NoError(err)
	s.Equal("en", prefs.Language)
	s.Empty(prefs.AIModel)
}

func (s *UserStoreSuite) TestPreferencesRoundTrip() {
	_, err := s.users.Create(s.ctx, "user-1", "a@example.com", "hash", "")
	s.Require().NoError(err)

	want := models.Preferences{AIModel: "gpt-4o", Language: "de"}
	s.Require().NoError(s.users.SetPreferences(s.ctx, "user-1", want))

	prefs, err := s.users.Preferences(s.ctx, "user-1")
	s.Require().NoError(err)
	s.Equal(want, prefs)

	got, err := s.users.GetByID(s.ctx, "user-1")
	s.Require().NoError(err)
	s.Require().NotNil(got)
	s.Equal(want, got.Preferences)
}

func (s *UserStoreSuite) TestPreferencesUnknownUser() {
	_, err := s.users.Preferences(s.ctx, "nope")
	s.Require().ErrorIs(err, models.ErrNotFound)

	err = s.users.SetPreferences(s.ctx, "nope", models.Preferences{Language: "fr"})
	s.Require().ErrorIs(err, models.ErrNotFound)
}
