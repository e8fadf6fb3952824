// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"regexp"

	"github.com/okian/auscult/internal/domain/model"
	"github.com/okian/auscult/internal/domain/report"
	"github.com/okian/auscult/internal/domain/types"
	"github.com/okian/auscult/pkg/logger"
)

const (
	defaultMaxBodyBytes = 8 << 20
	defaultIngestRate   = 50
	defaultIngestBurst  = 100
)

var sessionIDPattern = regexp.MustCompile(`^[A-Za-z0-9._:-]{1,128}$`)

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to the service implementation.
type Dependencies interface {
	CreateSession(ctx context.Context) (types.SessionInfo, error)
	Session(ctx context.Context, id string) (types.SessionInfo, error)
	List(ctx context.Context) ([]types.SessionInfo, error)
	Delete(ctx context.Context, id string) error

	// Ingest queues a batch for async processing.
	Ingest(ctx context.Context, id string, events []model.RawEvent) (types.IngestAck, error)
	Flush(ctx context.Context, id string) (int, error)

	Report(ctx context.Context, id string, includeEvents bool) (report.Report, error)
	Events(ctx context.Context, id string, limit int) ([]model.NormalizedEvent, error)
	Audit(ctx context.Context, id string) (types.SessionAudit, error)

	// Analyze runs a stateless one-shot analysis.
	Analyze(ctx context.Context, events []model.RawEvent) types.AnalyzeResult
}

// Option configures the Server.
type Option func(*Server)

// WithIngestRate limits ingest requests to perSecond with the given burst.
// A non-positive rate disables limiting.
func WithIngestRate(perSecond float64, burst int) Option {
	return func(s *Server) {
		s.ingestRate = perSecond
		if burst > 0 {
			s.ingestBurst = burst
		}
	}
}

// WithMaxBodyBytes caps request bodies.
func WithMaxBodyBytes(n int64) Option {
	return func(s *Server) {
		if n > 0 {
			s.maxBodyBytes = n
		}
	}
}

// WithLogger sets the handler logger.
func WithLogger(l logger.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}

// Server wires HTTP routes for the audit API.
type Server struct {
	healthHandler   *HealthHandler
	statsHandler    *StatsHandler
	sessionsHandler *SessionsHandler
	eventsHandler   *EventsHandler
	reportHandler   *ReportHandler
	analyzeHandler  *AnalyzeHandler

	ingestRate   float64
	ingestBurst  int
	maxBodyBytes int64
	logger       logger.Logger
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, statsProvider StatsProvider, opts ...Option) *Server {
	s := &Server{
		ingestRate:   defaultIngestRate,
		ingestBurst:  defaultIngestBurst,
		maxBodyBytes: defaultMaxBodyBytes,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = logger.Get().Named("api")
	}

	s.healthHandler = NewHealthHandler()
	s.statsHandler = NewStatsHandler(statsProvider)
	s.sessionsHandler = NewSessionsHandler(deps)
	s.eventsHandler = NewEventsHandler(deps, s.maxBodyBytes, s.logger)
	s.reportHandler = NewReportHandler(deps)
	s.analyzeHandler = NewAnalyzeHandler(deps, s.maxBodyBytes)
	return s
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(ctx context.Context, mux *http.ServeMux) {
	limit := RateLimit(s.ingestRate, s.ingestBurst)

	mux.HandleFunc("GET /healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("GET /stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))

	mux.HandleFunc("POST /sessions", MetricsMiddleware(s.sessionsHandler.HandleCreate, "sessions"))
	mux.HandleFunc("GET /sessions", MetricsMiddleware(s.sessionsHandler.HandleList, "sessions"))
	mux.HandleFunc("GET /sessions/{id}", MetricsMiddleware(s.sessionsHandler.HandleGet, "session"))
	mux.HandleFunc("DELETE /sessions/{id}", MetricsMiddleware(s.sessionsHandler.HandleDelete, "session"))

	mux.HandleFunc("POST /sessions/{id}/events", MetricsMiddleware(limit(s.eventsHandler.HandleIngest), "ingest"))
	mux.HandleFunc("GET /sessions/{id}/events", MetricsMiddleware(s.eventsHandler.HandleList, "events"))
	mux.HandleFunc("POST /sessions/{id}/flush", MetricsMiddleware(s.eventsHandler.HandleFlush, "flush"))

	mux.HandleFunc("GET /sessions/{id}/report", MetricsMiddleware(s.reportHandler.HandleReport, "report"))
	mux.HandleFunc("GET /sessions/{id}/audit", MetricsMiddleware(s.reportHandler.HandleAudit, "audit"))

	mux.HandleFunc("POST /analyze", MetricsMiddleware(limit(s.analyzeHandler.HandleAnalyze), "analyze"))

	s.logger.Debug(ctx, "routes registered")
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

// writeFailure classifies err and writes the matching error body.
func writeFailure(w http.ResponseWriter, err error) {
	status, code := classify(err)
	writeError(w, status, code, err)
}

// sessionID extracts and validates the {id} path value.
func sessionID(r *http.Request) (string, error) {
	id := r.PathValue("id")
	if !sessionIDPattern.MatchString(id) {
		return "", fmt.Errorf("%w: invalid session id %q", ErrBadRequest, id)
	}
	return id, nil
}
