package api

import (
	"context"
	"net/http"
	"strconv"

	"github.com/okian/auscult/internal/domain/report"
	"github.com/okian/auscult/internal/domain/types"
)

// ReportDependencies defines the read side of a session.
type ReportDependencies interface {
	Report(ctx context.Context, id string, includeEvents bool) (report.Report, error)
	Audit(ctx context.Context, id string) (types.SessionAudit, error)
}

// ReportHandler handles report and audit requests.
type ReportHandler struct {
	deps ReportDependencies
}

// NewReportHandler creates a new report handler.
func NewReportHandler(deps ReportDependencies) *ReportHandler {
	return &ReportHandler{deps: deps}
}

// HandleReport handles GET /sessions/{id}/report[?events=true][&format=yaml].
func (h *ReportHandler) HandleReport(w http.ResponseWriter, r *http.Request) {
	id, err := sessionID(r)
	if err != nil {
		writeFailure(w, err)
		return
	}
	includeEvents, _ := strconv.ParseBool(r.URL.Query().Get("events"))

	rep, err := h.deps.Report(r.Context(), id, includeEvents)
	if err != nil {
		writeFailure(w, err)
		return
	}

	if r.URL.Query().Get("format") == "yaml" {
		out, err := report.MarshalYAMLDocument(rep)
		if err != nil {
			writeFailure(w, err)
			return
		}
		w.Header().Set("Content-Type", "application/yaml; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(out)
		return
	}
	writeJSON(w, http.StatusOK, rep)
}

// HandleAudit handles GET /sessions/{id}/audit.
func (h *ReportHandler) HandleAudit(w http.ResponseWriter, r *http.Request) {
	id, err := sessionID(r)
	if err != nil {
		writeFailure(w, err)
		return
	}
	audit, err := h.deps.Audit(r.Context(), id)
	if err != nil {
		writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusOK, audit)
}
