// Package types contains the request and response shapes shared by the
// service and the HTTP layer.
package types

import (
	"time"

	"github.com/okian/auscult/internal/domain/dedupe"
	"github.com/okian/auscult/internal/domain/model"
	"github.com/okian/auscult/internal/domain/report"
)

// Ingest statuses.
const (
	StatusQueued    = "queued"
	StatusProcessed = "processed"
)

// SessionInfo describes one live capture session.
type SessionInfo struct {
	ID           string           `json:"sessionId"`
	CreatedAt    time.Time        `json:"createdAt"`
	LastActivity time.Time        `json:"lastActivity"`
	Batches      int              `json:"batches"`
	StoredEvents int              `json:"storedEvents"`
	AppProfile   model.AppProfile `json:"appProfile"`
	Filter       dedupe.Stats     `json:"filter"`
}

// IngestAck acknowledges a batch handed to the worker pool.
type IngestAck struct {
	SessionID string `json:"sessionId"`
	Status    string `json:"status"`
	Events    int    `json:"events"`
	Malformed int    `json:"malformed"`
}

// SessionAudit is the audit view of one session's filter.
type SessionAudit struct {
	SessionID string       `json:"sessionId"`
	Audit     dedupe.Audit `json:"audit"`
	Stats     dedupe.Stats `json:"stats"`
}

// AnalyzeResult is the synchronous one-shot analysis response.
type AnalyzeResult struct {
	Report    report.Report `json:"report"`
	Audit     dedupe.Audit  `json:"audit"`
	Stats     dedupe.Stats  `json:"stats"`
	Malformed int           `json:"malformed"`
}

// ServiceStats summarises the running service.
type ServiceStats struct {
	Started          bool  `json:"started"`
	Workers          int   `json:"workers"`
	QueueCapacity    int   `json:"queueCapacity"`
	QueueLength      int   `json:"queueLength"`
	Sessions         int   `json:"sessions"`
	MaxSessions      int   `json:"maxSessions"`
	StoredEvents     int   `json:"storedEvents"`
	BatchesProcessed int64 `json:"batchesProcessed"`
}
