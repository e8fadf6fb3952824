package service

import "errors"

// Sentinel kinds for service errors.
var (
	ErrSessionNotFound = errors.New("session not found")
	ErrTooManySessions = errors.New("session limit reached")
	ErrBackpressure    = errors.New("ingest queue full")
	ErrNotStarted      = errors.New("service not started")
)
