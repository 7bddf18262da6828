package db

import (
	"github.com/go-gormigrate/gormigrate/v2"
	"gorm.io/gorm"
)

// runMigrations runs all database migrations using gormigrate.
func runMigrations(db *gorm.DB) error {
	m := gormigrate.New(db, gormigrate.DefaultOptions, []*gormigrate.Migration{
		// Migration 001: Core tables (User, Session)
		{
			ID: "001_core_tables",
			Migrate: func(tx *gorm.DB) error {
				if err := tx.AutoMigrate(&User{}); err != nil {
					return err
				}
				return tx.AutoMigrate(&Session{})
			},
			Rollback: func(tx *gorm.DB) error {
				return tx.Migrator().DropTable("users", "sessions")
			},
		},

		// Migration 002: Append-only session event tables
		{
			ID: "002_session_events",
			Migrate: func(tx *gorm.DB) error {
				if err := tx.AutoMigrate(&TranscriptEntry{}); err != nil {
					return err
				}
				return tx.AutoMigrate(&QuestionRecord{})
			},
			Rollback: func(tx *gorm.DB) error {
				return tx.Migrator().DropTable("transcript_entries", "question_records")
			},
		},

		// Migration 003: User answer preferences (ai_model, language)
		{
			ID: "003_user_preferences",
			Migrate: func(tx *gorm.DB) error {
				return tx.AutoMigrate(&User{})
			},
			Rollback: func(tx *gorm.DB) error {
				if err := tx.Migrator().DropColumn(&User{}, "ai_model"); err != nil {
					return err
				}
				return tx.Migrator().DropColumn(&User{}, "language")
			},
		},

		// Migration 004: Interview summary on the session row
		{
			ID: "004_session_summary",
			Migrate: func(tx *gorm.DB) error {
				return tx.AutoMigrate(&Session{})
			},
			Rollback: func(tx *gorm.DB) error {
				return tx.Migrator().DropColumn(&Session{}, "summary")
			},
		},
	})

	return m.Migrate()
}
