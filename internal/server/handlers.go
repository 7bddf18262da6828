package server

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/prompterhq/prompter/pkg/models"
)

func (s *Service) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":         "ok",
		"version":        s.version,
		"uptime_seconds": int(time.Since(s.startTime).Seconds()),
	})
}

type registerRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
}

func (s *Service) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if req.Email == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "Email and password are required")
		return
	}
	if len(req.Password) < 6 {
		writeError(w, http.StatusBadRequest, "Password must be at least 6 characters")
		return
	}

	existing, err := s.users.GetByEmail(r.Context(), req.Email)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	if existing != nil {
		writeError(w, http.StatusBadRequest, "User already exists")
		return
	}

	hash, err := s.auth.HashPassword(req.Password)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	user, err := s.users.Create(r.Context(), uuid.NewString(), req.Email, hash, req.Name)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	token, err := s.auth.IssueToken(user.ID)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	log.Info().Str("userId", user.ID).Msg("User registered")
	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"user":  user,
		"token": token,
	})
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (s *Service) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if req.Email == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "Email and password are required")
		return
	}

	row, err := s.users.GetByEmail(r.Context(), req.Email)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	if row == nil || !s.auth.CheckPassword(row.PasswordHash, req.Password) {
		writeError(w, http.StatusUnauthorized, "Invalid credentials")
		return
	}

	token, err := s.auth.IssueToken(row.ID)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	user, err := s.users.GetByID(r.Context(), row.ID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"user":  user,
		"token": token,
	})
}

func (s *Service) handleMe(w http.ResponseWriter, r *http.Request) {
	user, err := s.users.GetByID(r.Context(), ownerID(r))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	if user == nil {
		writeError(w, http.StatusNotFound, "User not found")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"user": user})
}

type preferencesRequest struct {
	AIModel  string `json:"ai_model"`
	Language string `json:"language"`
}

func (s *Service) handleUpdatePreferences(w http.ResponseWriter, r *http.Request) {
	var req preferencesRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	req.Language = strings.ToLower(strings.TrimSpace(req.Language))
	if req.Language == "" {
		req.Language = "en"
	}

	prefs := models.Preferences{
		AIModel:  strings.TrimSpace(req.AIModel),
		Language: req.Language,
	}
	if err := s.users.SetPreferences(r.Context(), ownerID(r), prefs); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"preferences": prefs})
}

type createSessionRequest struct {
	Platform string `json:"platform"`
}

func (s *Service) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	var req createSessionRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	sess, err := s.sessions.Create(r.Context(), ownerID(r), req.Platform)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"session": map[string]interface{}{
			"session_id": sess.SessionID,
			"platform":   sess.Platform,
			"started_at": sess.StartedAt,
		},
	})
}

func (s *Service) handleListSessions(w http.ResponseWriter, r *http.Request) {
	sessions, err := s.sessions.List(r.Context(), ownerID(r), 0)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"sessions": sessions})
}

func (s *Service) handleGetSession(w http.ResponseWriter, r *http.Request) {
	detail, err := s.sessions.Get(r.Context(), chi.URLParam(r, "sessionID"), ownerID(r))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"session": detail})
}

func (s *Service) handleEndSession(w http.ResponseWriter, r *http.Request) {
	summary, err := s.sessions.End(r.Context(), chi.URLParam(r, "sessionID"), ownerID(r))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"session": map[string]interface{}{
			"session_id":       summary.SessionID,
			"status":           summary.Status,
			"duration":         summary.DurationSeconds,
			"duration_minutes": summary.DurationMinutes,
			"ended_at":         summary.EndedAt,
		},
		"credits": summary.Credits,
	})
}

type answerRequest struct {
	SessionID string `json:"session_id"`
	Question  string `json:"question"`
	Context   string `json:"context,omitempty"`
}

func (s *Service) handleAnswer(w http.ResponseWriter, r *http.Request) {
	var req answerRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	result, err := s.pipeline.SubmitQuestion(r.Context(), req.SessionID, ownerID(r), req.Question, req.Context)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

type transcriptRequest struct {
	SessionID string `json:"session_id"`
	Speaker   string `json:"speaker"`
	Text      string `json:"text"`
}

func (s *Service) handleTranscript(w http.ResponseWriter, r *http.Request) {
	var req transcriptRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Speaker == "" {
		req.Speaker = "interviewer"
	}

	result, err := s.pipeline.RecordTranscript(r.Context(), req.SessionID, ownerID(r), req.Speaker, req.Text)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	resp := map[string]interface{}{"is_question": result.IsQuestion}
	if result.Auto != nil {
		resp["answer"] = result.Auto
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Service) handleSummary(w http.ResponseWriter, r *http.Request) {
	summary, err := s.pipeline.SummarizeSession(r.Context(), chi.URLParam(r, "sessionID"), ownerID(r))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"summary": summary})
}

func (s *Service) handleEvents(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")

	// Only the session owner may subscribe.
	if _, err := s.sessions.Get(r.Context(), sessionID, ownerID(r)); err != nil {
		writeDomainError(w, err)
		return
	}

	s.broadcaster.HandleSSE(w, r, sessionID)
}
