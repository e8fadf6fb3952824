package api

import (
	"context"
	"net/http"

	"github.com/okian/auscult/internal/domain/model"
	"github.com/okian/auscult/internal/domain/types"
)

// AnalyzeDependencies defines the one-shot analysis operation.
type AnalyzeDependencies interface {
	Analyze(ctx context.Context, events []model.RawEvent) types.AnalyzeResult
}

// AnalyzeHandler handles synchronous analysis requests.
type AnalyzeHandler struct {
	deps     AnalyzeDependencies
	maxBytes int64
}

// NewAnalyzeHandler creates a new analyze handler.
func NewAnalyzeHandler(deps AnalyzeDependencies, maxBytes int64) *AnalyzeHandler {
	return &AnalyzeHandler{deps: deps, maxBytes: maxBytes}
}

// HandleAnalyze handles POST /analyze. Normalized events are returned only
// with ?events=true.
func (h *AnalyzeHandler) HandleAnalyze(w http.ResponseWriter, r *http.Request) {
	events, malformed, ok := readBatch(w, r, h.maxBytes)
	if !ok {
		return
	}
	res := h.deps.Analyze(r.Context(), events)
	res.Malformed = malformed
	if r.URL.Query().Get("events") != "true" {
		res.Report.Events = nil
	}
	writeJSON(w, http.StatusOK, res)
}
