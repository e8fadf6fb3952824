// Package service owns capture sessions and drives batches through the
// analysis pipeline on the worker pool. It implements the dependencies
// required by the HTTP API and the CLI.
package service

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/okian/auscult/internal/adapters/mq/queue"
	"github.com/okian/auscult/internal/adapters/mq/worker"
	"github.com/okian/auscult/internal/adapters/repository"
	"github.com/okian/auscult/internal/domain/analysis"
	"github.com/okian/auscult/internal/domain/dedupe"
	"github.com/okian/auscult/internal/domain/model"
	"github.com/okian/auscult/internal/domain/report"
	"github.com/okian/auscult/internal/domain/types"
	"github.com/okian/auscult/internal/domain/vocab"
	"github.com/okian/auscult/pkg/logger"
	"github.com/okian/auscult/pkg/metrics"
)

// Defaults.
const (
	defaultQueueSize           = 10000
	defaultMaxSessions         = 1000
	defaultMaxEventsPerSession = 10000
	defaultExpireInterval      = 250 * time.Millisecond
	stopTimeout                = 10 * time.Second
)

// Service implements the API dependencies for the audit pipeline.
type Service struct {
	mu       sync.RWMutex
	sessions map[string]*session

	pipeline *analysis.Pipeline
	store    *repository.MemStore
	pool     *worker.Pool

	// Configuration
	workerCount         int
	queueSize           int
	maxSessions         int
	maxEventsPerSession int
	expireInterval      time.Duration
	filterOpts          []dedupe.Option
	clock               dedupe.Clock

	// State
	started bool
	stopCh  chan struct{}
	wg      sync.WaitGroup

	logger logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithWorkerCount sets the number of worker shards.
func WithWorkerCount(count int) Option {
	return func(s *Service) {
		if count > 0 {
			s.workerCount = count
		}
	}
}

// WithQueueSize sets how many batches may wait across all shards.
func WithQueueSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.queueSize = size
		}
	}
}

// WithMaxSessions caps the number of live sessions.
func WithMaxSessions(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.maxSessions = n
		}
	}
}

// WithMaxEventsPerSession caps each session's stored history.
func WithMaxEventsPerSession(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.maxEventsPerSession = n
		}
	}
}

// WithExpireInterval sets how often held events are checked for expiry.
func WithExpireInterval(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.expireInterval = d
		}
	}
}

// WithPipeline replaces the default pipeline built on the default vocabulary.
func WithPipeline(p *analysis.Pipeline) Option {
	return func(s *Service) {
		if p != nil {
			s.pipeline = p
		}
	}
}

// WithFilterOptions adds options to every session filter.
func WithFilterOptions(opts ...dedupe.Option) Option {
	return func(s *Service) {
		s.filterOpts = append(s.filterOpts, opts...)
	}
}

// WithClock sets the clock that drives hold expiry.
func WithClock(c dedupe.Clock) Option {
	return func(s *Service) {
		if c != nil {
			s.clock = c
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// New constructs a new Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		sessions:            make(map[string]*session),
		workerCount:         runtime.NumCPU(),
		queueSize:           defaultQueueSize,
		maxSessions:         defaultMaxSessions,
		maxEventsPerSession: defaultMaxEventsPerSession,
		expireInterval:      defaultExpireInterval,
	}

	for _, opt := range opts {
		opt(s)
	}

	if s.pipeline == nil {
		s.pipeline = analysis.New(vocab.Compile(vocab.Default()))
	}
	if s.clock != nil {
		s.filterOpts = append(s.filterOpts, dedupe.WithClock(s.clock))
	}

	return s
}

// Start initializes the store and the worker pool and starts the expiry loop.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}
	if s.logger == nil {
		s.logger = logger.Get().Named("service")
	}

	s.logger.Info(ctx, "starting audit service...")

	s.store = repository.NewMemStore(ctx, repository.WithMaxEventsPerSession(s.maxEventsPerSession))
	s.pool = worker.NewPool(s.workerCount, s.queueSize, s)
	s.pool.Start(ctx)

	s.stopCh = make(chan struct{})
	s.wg.Add(1)
	go s.expireLoop(ctx, s.stopCh)

	s.started = true
	s.logger.Info(ctx, "audit service started",
		logger.Int("workers", s.pool.Size()),
		logger.Int("queueSize", s.queueSize),
		logger.Int("maxSessions", s.maxSessions),
	)

	return nil
}

// Stop drains the worker pool and stops background loops. Sessions are
// dropped; the service can be started again afterwards.
func (s *Service) Stop() {
	s.mu.Lock()
	if !s.started {
		s.mu.Unlock()
		return
	}
	s.started = false
	pool, store, stopCh := s.pool, s.store, s.stopCh
	s.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), stopTimeout)
	defer cancel()

	s.logger.Info(ctx, "stopping audit service...")

	if err := pool.Shutdown(ctx); err != nil {
		s.logger.Warn(ctx, "worker pool shutdown incomplete", logger.Error(err))
	}
	close(stopCh)
	s.wg.Wait()
	_ = store.Close()

	s.mu.Lock()
	s.sessions = make(map[string]*session)
	s.mu.Unlock()
	metrics.UpdateSessionsActive(0)

	s.logger.Info(ctx, "audit service stopped")
}

func (s *Service) expireLoop(ctx context.Context, stop <-chan struct{}) {
	defer s.wg.Done()

	ticker := time.NewTicker(s.expireInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-stop:
			return
		case <-ticker.C:
			s.ExpireAll(ctx)
		}
	}
}

// ExpireAll releases every held event whose deadline has passed and
// returns how many were emitted.
func (s *Service) ExpireAll(ctx context.Context) int {
	now := s.now()
	released := 0
	for _, sess := range s.snapshot() {
		released += sess.expire(ctx, now)
	}
	return released
}

func (s *Service) now() time.Time {
	if s.clock != nil {
		return s.clock.Now()
	}
	return time.Now()
}

func (s *Service) snapshot() []*session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*session, 0, len(s.sessions))
	for _, sess := range s.sessions {
		out = append(out, sess)
	}
	return out
}

func (s *Service) running() (*repository.MemStore, *worker.Pool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.started {
		return nil, nil, ErrNotStarted
	}
	return s.store, s.pool, nil
}

func (s *Service) lookup(id string) (*session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.started {
		return nil, ErrNotStarted
	}
	sess, ok := s.sessions[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	return sess, nil
}

// open returns the session for id, creating it when create is set.
// An empty id always creates a session with a fresh uuid.
func (s *Service) open(id string, create bool) (*session, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return nil, false, ErrNotStarted
	}
	if id == "" {
		id = uuid.NewString()
	} else if sess, ok := s.sessions[id]; ok {
		return sess, false, nil
	}
	if !create {
		return nil, false, fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	if len(s.sessions) >= s.maxSessions {
		return nil, false, fmt.Errorf("%w: %d", ErrTooManySessions, s.maxSessions)
	}

	sess := newSession(id, s.pipeline, s.store, s.logger, s.filterOpts...)
	s.sessions[id] = sess
	metrics.UpdateSessionsActive(len(s.sessions))
	return sess, true, nil
}

// CreateSession starts a new empty session with a generated id.
func (s *Service) CreateSession(ctx context.Context) (types.SessionInfo, error) {
	sess, _, err := s.open("", true)
	if err != nil {
		return types.SessionInfo{}, err
	}
	s.logger.Info(ctx, "session created", logger.String("session", sess.id))
	return sess.info(0), nil
}

// Session describes one session.
func (s *Service) Session(ctx context.Context, id string) (types.SessionInfo, error) {
	sess, err := s.lookup(id)
	if err != nil {
		return types.SessionInfo{}, err
	}
	return sess.info(s.store.Count(ctx, id)), nil
}

// List describes every live session, oldest first.
func (s *Service) List(ctx context.Context) ([]types.SessionInfo, error) {
	store, _, err := s.running()
	if err != nil {
		return nil, err
	}
	sessions := s.snapshot()
	out := make([]types.SessionInfo, 0, len(sessions))
	for _, sess := range sessions {
		out = append(out, sess.info(store.Count(ctx, sess.id)))
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

// Ingest queues a batch for sessionID, creating the session on first use.
// It never blocks: a full shard yields ErrBackpressure.
func (s *Service) Ingest(ctx context.Context, sessionID string, events []model.RawEvent) (types.IngestAck, error) {
	sess, created, err := s.open(sessionID, true)
	if err != nil {
		return types.IngestAck{}, err
	}
	if created {
		s.logger.Debug(ctx, "session auto-created", logger.String("session", sess.id))
	}

	_, pool, err := s.running()
	if err != nil {
		return types.IngestAck{}, err
	}

	job := queue.Job{SessionID: sess.id, Events: events, ReceivedAt: time.Now()}
	if !pool.Enqueue(ctx, job) {
		metrics.RecordErrorByComponent("service", "backpressure")
		return types.IngestAck{}, fmt.Errorf("%w: session %s", ErrBackpressure, sess.id)
	}
	metrics.RecordEventsReceived(len(events))

	return types.IngestAck{SessionID: sess.id, Status: types.StatusQueued, Events: len(events)}, nil
}

// Process implements worker.Processor. Batches of one session arrive in
// order on the same shard.
func (s *Service) Process(ctx context.Context, job queue.Job) error {
	sess, err := s.lookup(job.SessionID)
	if err != nil {
		if errors.Is(err, ErrNotStarted) {
			// Draining during Stop.
			s.mu.RLock()
			sess = s.sessions[job.SessionID]
			s.mu.RUnlock()
		}
		if sess == nil {
			return err
		}
	}

	if !sess.submit(ctx, s.pipeline.Order(job.Events)) {
		return fmt.Errorf("%w: %s deleted", ErrSessionNotFound, job.SessionID)
	}
	return nil
}

// Flush releases every held event of a session immediately.
func (s *Service) Flush(ctx context.Context, id string) (int, error) {
	sess, err := s.lookup(id)
	if err != nil {
		return 0, err
	}
	return sess.flush(ctx), nil
}

// Report assembles the current report of a session. Held events whose
// deadline has passed are released first; events still on hold are not
// part of the report yet.
func (s *Service) Report(ctx context.Context, id string, includeEvents bool) (report.Report, error) {
	start := time.Now()
	sess, err := s.lookup(id)
	if err != nil {
		return report.Report{}, err
	}
	sess.expire(ctx, s.now())

	events, err := s.store.Events(ctx, id)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return report.Report{}, err
	}
	sort.SliceStable(events, func(i, j int) bool { return events[i].TS < events[j].TS })

	r := s.pipeline.Assemble(events)
	r.ID = uuid.NewString()
	r.SessionID = id
	r.GeneratedAt = time.Now().UnixMilli()
	if includeEvents {
		r.Events = events
	}

	metrics.RecordReportLatency(float64(time.Since(start).Microseconds()) / 1000)
	return r, nil
}

// Events returns up to limit of the newest stored events of a session.
func (s *Service) Events(ctx context.Context, id string, limit int) ([]model.NormalizedEvent, error) {
	if _, err := s.lookup(id); err != nil {
		return nil, err
	}
	events, err := s.store.Recent(ctx, id, limit)
	if errors.Is(err, repository.ErrNotFound) {
		return []model.NormalizedEvent{}, nil
	}
	return events, err
}

// Audit returns the audit buckets and filter counters of a session.
func (s *Service) Audit(ctx context.Context, id string) (types.SessionAudit, error) {
	sess, err := s.lookup(id)
	if err != nil {
		return types.SessionAudit{}, err
	}
	return sess.audit(), nil
}

// Delete drops a session and its stored events. Batches still queued for
// it are discarded by the workers.
func (s *Service) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	if !s.started {
		s.mu.Unlock()
		return ErrNotStarted
	}
	sess, ok := s.sessions[id]
	if !ok {
		s.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	delete(s.sessions, id)
	count := len(s.sessions)
	s.mu.Unlock()

	sess.markDeleted()
	s.store.Delete(ctx, id)
	metrics.UpdateSessionsActive(count)
	s.logger.Info(ctx, "session deleted", logger.String("session", id))
	return nil
}

// Analyze runs a one-shot batch through a fresh filter. It needs no
// running service and keeps no state. The report carries the normalized
// events; callers strip them when not wanted.
func (s *Service) Analyze(ctx context.Context, events []model.RawEvent) types.AnalyzeResult {
	start := time.Now()
	res := s.pipeline.Analyze(ctx, events)
	res.Report.ID = uuid.NewString()
	res.Report.GeneratedAt = time.Now().UnixMilli()
	res.Report.Events = res.Events
	metrics.RecordReportLatency(float64(time.Since(start).Microseconds()) / 1000)
	return types.AnalyzeResult{Report: res.Report, Audit: res.Audit, Stats: res.Stats}
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats(ctx context.Context) types.ServiceStats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := types.ServiceStats{
		Started:       s.started,
		Workers:       s.workerCount,
		QueueCapacity: s.queueSize,
		Sessions:      len(s.sessions),
		MaxSessions:   s.maxSessions,
	}
	if s.started {
		stats.Workers = s.pool.Size()
		stats.QueueLength = s.pool.Len(ctx)
		stats.StoredEvents = s.store.Total(ctx)
		stats.BatchesProcessed = s.pool.Processed()
	}
	return stats
}
