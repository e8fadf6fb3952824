package api

import (
	"errors"
	"net/http"

	service "github.com/okian/auscult/internal/app"
	"github.com/okian/auscult/internal/adapters/repository"
	"github.com/okian/auscult/internal/domain/model"
)

// Sentinel kinds for API errors.
var (
	ErrBadRequest  = errors.New("bad request")
	ErrRateLimited = errors.New("rate limited")
)

// Error codes carried in error bodies.
const (
	codeBadRequest   = "bad_request"
	codeNotFound     = "not_found"
	codeBackpressure = "backpressure"
	codeRateLimited  = "rate_limited"
	codeSessionLimit = "session_limit"
	codeUnavailable  = "unavailable"
	codeInternal     = "internal"
)

// classify maps an upstream error to a status code and an error code.
func classify(err error) (int, string) {
	switch {
	case errors.Is(err, ErrBadRequest), errors.Is(err, model.ErrMalformedBatch), errors.Is(err, repository.ErrInvalidLimit):
		return http.StatusBadRequest, codeBadRequest
	case errors.Is(err, service.ErrSessionNotFound), errors.Is(err, repository.ErrNotFound):
		return http.StatusNotFound, codeNotFound
	case errors.Is(err, service.ErrBackpressure):
		return http.StatusTooManyRequests, codeBackpressure
	case errors.Is(err, ErrRateLimited):
		return http.StatusTooManyRequests, codeRateLimited
	case errors.Is(err, service.ErrTooManySessions):
		return http.StatusTooManyRequests, codeSessionLimit
	case errors.Is(err, service.ErrNotStarted):
		return http.StatusServiceUnavailable, codeUnavailable
	default:
		return http.StatusInternalServerError, codeInternal
	}
}
