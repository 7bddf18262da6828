package models

import "time"

// Preferences are per-account answer settings.
type Preferences struct {
	// AIModel is the client's preferred model tag, informational for the
	// client UI; provider selection itself is server configuration.
	AIModel string `json:"ai_model,omitempty"`
	// Language is the answer language, default "en".
	Language string `json:"language,omitempty"`
}

// User is an account that owns sessions and a credit balance.
type User struct {
	ID          string      `json:"id"`
	Email       string      `json:"email"`
	Name        string      `json:"name,omitempty"`
	Credits     float64     `json:"credits"`
	Preferences Preferences `json:"preferences"`
	CreatedAt   time.Time   `json:"created_at"`
}
