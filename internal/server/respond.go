package server

import (
	"errors"
	"net/http"

	"github.com/goccy/go-json"

	"github.com/prompterhq/prompter/internal/gateway"
	"github.com/prompterhq/prompter/pkg/models"
)

// envelope is the uniform response shape: {success, data} or
// {success, error}.
type envelope struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(envelope{Success: true, Data: data})
}

func writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(envelope{Success: false, Error: message})
}

// writeDomainError maps a core error to an HTTP status and a distinct,
// human-readable reason.
func writeDomainError(w http.ResponseWriter, err error) {
	var validation *models.ValidationError
	var quota *gateway.ErrQuotaExceeded
	var config *gateway.ErrConfiguration

	switch {
	case errors.As(err, &validation):
		writeError(w, http.StatusBadRequest, validation.Error())
	case errors.Is(err, models.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, models.ErrInsufficientCredits):
		writeError(w, http.StatusPaymentRequired, "Insufficient credits")
	case errors.As(err, &quota):
		writeError(w, http.StatusServiceUnavailable, gateway.UserMessage(err))
	case errors.As(err, &config):
		writeError(w, http.StatusInternalServerError, gateway.UserMessage(err))
	case errors.Is(err, gateway.ErrGeneration):
		writeError(w, http.StatusBadGateway, gateway.UserMessage(err))
	default:
		writeError(w, http.StatusInternalServerError, "Internal server error")
	}
}

func decodeBody(r *http.Request, dst interface{}) error {
	defer r.Body.Close()
	return json.NewDecoder(r.Body).Decode(dst)
}
