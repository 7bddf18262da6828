package gateway

import (
	"errors"
	"fmt"
)

// ErrGeneration is matched by errors.Is for every classified gateway
// failure. The pipeline charges nothing and appends nothing when a returned
// error matches it; sub-classification only drives the user-facing message.
var ErrGeneration = errors.New("answer generation failed")

// ErrQuotaExceeded indicates the provider rejected the call for quota or
// rate-limit reasons (429, insufficient_quota).
type ErrQuotaExceeded struct {
	Err error
}

func (e *ErrQuotaExceeded) Error() string {
	return fmt.Sprintf("provider quota exceeded: %v", e.Err)
}

func (e *ErrQuotaExceeded) Unwrap() error { return e.Err }

func (e *ErrQuotaExceeded) Is(target error) bool { return target == ErrGeneration }

// ErrConfiguration indicates bad or missing provider credentials (401/403,
// missing API key).
type ErrConfiguration struct {
	Err error
}

func (e *ErrConfiguration) Error() string {
	return fmt.Sprintf("provider configuration error: %v", e.Err)
}

func (e *ErrConfiguration) Unwrap() error { return e.Err }

func (e *ErrConfiguration) Is(target error) bool { return target == ErrGeneration }

// ErrTransient indicates a timeout, network failure, or provider outage.
type ErrTransient struct {
	Err error
}

func (e *ErrTransient) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("provider unavailable: %v", e.Err)
	}
	return "provider unavailable"
}

func (e *ErrTransient) Unwrap() error { return e.Err }

func (e *ErrTransient) Is(target error) bool { return target == ErrGeneration }

// UserMessage maps a classified gateway failure to a human-readable reason
// the caller can show directly.
func UserMessage(err error) string {
	var quota *ErrQuotaExceeded
	var config *ErrConfiguration
	switch {
	case errors.As(err, &quota):
		return "The answer provider's quota is exhausted. Please try again later or contact support."
	case errors.As(err, &config):
		return "The answer provider is misconfigured. Please contact support."
	default:
		return "The answer provider is temporarily unavailable. Please try again."
	}
}
