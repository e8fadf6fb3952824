package repository

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/okian/auscult/internal/domain/model"
	"github.com/okian/auscult/pkg/metrics"
)

const (
	defaultMaxEventsPerSession   = 10000
	defaultMetricsUpdateInterval = 5 * time.Second
)

// ring is a fixed-capacity FIFO of events.
type ring struct {
	buf   []model.NormalizedEvent
	head  int
	count int
}

func (r *ring) push(ev model.NormalizedEvent, limit int) (evicted int) {
	if r.buf == nil {
		r.buf = make([]model.NormalizedEvent, 0, minInt(limit, 64))
	}
	if len(r.buf) < limit {
		r.buf = append(r.buf, ev)
		r.count++
		return 0
	}
	r.buf[r.head] = ev
	r.head = (r.head + 1) % limit
	return 1
}

func (r *ring) tail(n int) []model.NormalizedEvent {
	if n > r.count {
		n = r.count
	}
	out := make([]model.NormalizedEvent, 0, n)
	start := r.count - n
	for i := start; i < r.count; i++ {
		out = append(out, r.buf[(r.head+i)%len(r.buf)])
	}
	return out
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}

// MemStore is an in-memory Store guarded by a single RWMutex.
type MemStore struct {
	mu       sync.RWMutex
	sessions map[string]*ring
	total    int

	maxPerSession         int
	metricsUpdateInterval time.Duration

	wg       sync.WaitGroup
	stopChan chan struct{}
	stopOnce sync.Once
}

// NewMemStore constructs a store and starts its metrics updater.
func NewMemStore(ctx context.Context, opts ...Option) *MemStore {
	s := &MemStore{
		sessions:              make(map[string]*ring),
		maxPerSession:         defaultMaxEventsPerSession,
		metricsUpdateInterval: defaultMetricsUpdateInterval,
		stopChan:              make(chan struct{}),
	}

	for _, opt := range opts {
		opt(s)
	}

	metrics.UpdateStoreEvents(0)
	s.startMetricsUpdater(ctx)

	return s
}

// Append implements Store.Append.
func (s *MemStore) Append(ctx context.Context, sessionID string, ev model.NormalizedEvent) (int, error) {
	if sessionID == "" {
		return 0, fmt.Errorf("%w: empty session id", ErrNotFound)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.sessions[sessionID]
	if !ok {
		r = &ring{}
		s.sessions[sessionID] = r
	}
	evicted := r.push(ev, s.maxPerSession)
	if evicted == 0 {
		s.total++
	}
	return evicted, nil
}

// Events implements Store.Events.
func (s *MemStore) Events(ctx context.Context, sessionID string) ([]model.NormalizedEvent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, ok := s.sessions[sessionID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, sessionID)
	}
	return r.tail(r.count), nil
}

// Recent implements Store.Recent.
func (s *MemStore) Recent(ctx context.Context, sessionID string, limit int) ([]model.NormalizedEvent, error) {
	if limit <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidLimit, limit)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	r, ok := s.sessions[sessionID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, sessionID)
	}
	return r.tail(limit), nil
}

// Count implements Store.Count.
func (s *MemStore) Count(ctx context.Context, sessionID string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if r, ok := s.sessions[sessionID]; ok {
		return r.count
	}
	return 0
}

// Delete implements Store.Delete.
func (s *MemStore) Delete(ctx context.Context, sessionID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.sessions[sessionID]
	if !ok {
		return false
	}
	s.total -= r.count
	delete(s.sessions, sessionID)
	return true
}

// Total implements Store.Total.
func (s *MemStore) Total(ctx context.Context) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.total
}

// Close stops the background metrics updater.
func (s *MemStore) Close() error {
	s.stopOnce.Do(func() { close(s.stopChan) })
	s.wg.Wait()
	return nil
}

func (s *MemStore) startMetricsUpdater(ctx context.Context) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ticker := time.NewTicker(s.metricsUpdateInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-s.stopChan:
				return
			case <-ticker.C:
				metrics.UpdateStoreEvents(s.Total(ctx))
			}
		}
	}()
}

var _ Store = (*MemStore)(nil)
