package api

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/okian/auscult/internal/domain/model"
	"github.com/okian/auscult/internal/domain/types"
	"github.com/okian/auscult/pkg/logger"
)

const defaultEventsLimit = 100

// EventDependencies defines the ingest and event listing operations.
type EventDependencies interface {
	Ingest(ctx context.Context, id string, events []model.RawEvent) (types.IngestAck, error)
	Flush(ctx context.Context, id string) (int, error)
	Events(ctx context.Context, id string, limit int) ([]model.NormalizedEvent, error)
}

// EventsHandler handles event requests.
type EventsHandler struct {
	deps     EventDependencies
	maxBytes int64
	logger   logger.Logger
}

// NewEventsHandler creates a new events handler.
func NewEventsHandler(deps EventDependencies, maxBytes int64, l logger.Logger) *EventsHandler {
	return &EventsHandler{deps: deps, maxBytes: maxBytes, logger: l}
}

// HandleIngest handles POST /sessions/{id}/events. The body is a JSON array
// of raw events or an object with an "events" array.
func (h *EventsHandler) HandleIngest(w http.ResponseWriter, r *http.Request) {
	id, err := sessionID(r)
	if err != nil {
		writeFailure(w, err)
		return
	}
	events, malformed, ok := readBatch(w, r, h.maxBytes)
	if !ok {
		return
	}

	ack, err := h.deps.Ingest(r.Context(), id, events)
	if err != nil {
		h.logger.Warn(r.Context(), "ingest refused", logger.String("session", id), logger.Error(err))
		writeFailure(w, err)
		return
	}
	ack.Malformed = malformed
	writeJSON(w, http.StatusAccepted, ack)
}

// HandleList handles GET /sessions/{id}/events?limit=N.
func (h *EventsHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	id, err := sessionID(r)
	if err != nil {
		writeFailure(w, err)
		return
	}
	limit := defaultEventsLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			writeFailure(w, fmt.Errorf("%w: limit must be a positive integer", ErrBadRequest))
			return
		}
		limit = n
	}

	events, err := h.deps.Events(r.Context(), id, limit)
	if err != nil {
		writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusOK, events)
}

// HandleFlush handles POST /sessions/{id}/flush.
func (h *EventsHandler) HandleFlush(w http.ResponseWriter, r *http.Request) {
	id, err := sessionID(r)
	if err != nil {
		writeFailure(w, err)
		return
	}
	n, err := h.deps.Flush(r.Context(), id)
	if err != nil {
		writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"sessionId": id, "released": n})
}

// readBatch reads and decodes a raw event batch. On failure it has already
// written the error response.
func readBatch(w http.ResponseWriter, r *http.Request, maxBytes int64) ([]model.RawEvent, int, bool) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, codeBadRequest, fmt.Errorf("%w: body exceeds %d bytes", ErrBadRequest, tooLarge.Limit))
			return nil, 0, false
		}
		writeFailure(w, fmt.Errorf("%w: %v", ErrBadRequest, err))
		return nil, 0, false
	}

	events, malformed, err := model.DecodeRawEvents(body)
	if err != nil {
		writeFailure(w, err)
		return nil, 0, false
	}
	return events, malformed, true
}
