// Package repository keeps the accepted, classified events of each session.
package repository

import (
	"context"

	"github.com/okian/auscult/internal/domain/model"
)

// Store provides read/write access to per-session event history.
type Store interface {
	// Append records ev for sessionID and returns how many old events were
	// evicted to stay within the per-session cap.
	Append(ctx context.Context, sessionID string, ev model.NormalizedEvent) (int, error)

	// Events returns the session's events in arrival order.
	// Returns ErrNotFound if the session has no history.
	Events(ctx context.Context, sessionID string) ([]model.NormalizedEvent, error)

	// Recent returns up to limit of the newest events, oldest first.
	Recent(ctx context.Context, sessionID string, limit int) ([]model.NormalizedEvent, error)

	// Count returns the number of events held for sessionID.
	Count(ctx context.Context, sessionID string) int

	// Delete drops the session's history. It reports whether anything was removed.
	Delete(ctx context.Context, sessionID string) bool

	// Total returns the number of events held across all sessions.
	Total(ctx context.Context) int
}
