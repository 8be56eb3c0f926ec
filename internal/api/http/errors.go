package http

import (
	"errors"
	"net/http"

	"github.com/quizlink/quizlink-bridge/internal/relay"
)

// statusFor maps relay error kinds onto HTTP statuses. Signature mismatches
// are always 403 and never retried.
func statusFor(err error) int {
	switch {
	case errors.Is(err, relay.ErrInvalidToken):
		return http.StatusForbidden
	case errors.Is(err, relay.ErrInvalidCallback), errors.Is(err, relay.ErrMissingParameters):
		return http.StatusBadRequest
	case errors.Is(err, relay.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, relay.ErrRemoteService):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func writeError(w http.ResponseWriter, err error) {
	http.Error(w, err.Error(), statusFor(err))
}
