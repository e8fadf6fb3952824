package service

import (
	"context"
	"sync"
	"time"

	"github.com/okian/auscult/internal/adapters/repository"
	"github.com/okian/auscult/internal/domain/analysis"
	"github.com/okian/auscult/internal/domain/dedupe"
	"github.com/okian/auscult/internal/domain/model"
	"github.com/okian/auscult/internal/domain/profile"
	"github.com/okian/auscult/internal/domain/types"
	"github.com/okian/auscult/pkg/logger"
)

// session owns the stateful part of the pipeline for one capture: its
// filter, its profile tracker and the bookkeeping shown by the API.
// Every field below mu is guarded by it.
type session struct {
	id        string
	createdAt time.Time

	mu           sync.Mutex
	filter       *dedupe.Filter
	tracker      *profile.Tracker
	lastActivity time.Time
	batches      int
	deleted      bool
}

func newSession(id string, p *analysis.Pipeline, store repository.Store, log logger.Logger, opts ...dedupe.Option) *session {
	now := time.Now()
	sess := &session{
		id:           id,
		createdAt:    now,
		lastActivity: now,
		tracker:      profile.NewTracker(p.Lexicon()),
	}

	// The sink runs inside Submit, Expire or Flush, all called with mu held.
	sink := dedupe.SinkFunc(func(ctx context.Context, raw model.RawEvent) {
		ev := p.Process(raw)
		if _, err := store.Append(ctx, id, ev); err != nil {
			log.Error(ctx, "store append failed", logger.String("session", id), logger.Error(err))
			return
		}
		sess.tracker.Observe(ev)
	})
	sess.filter = p.NewFilter(sink, opts...)
	return sess
}

// submit feeds one batch, already in timestamp order, through the filter.
func (s *session) submit(ctx context.Context, raws []model.RawEvent) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.deleted {
		return false
	}
	for _, raw := range raws {
		s.filter.Submit(ctx, raw)
	}
	s.batches++
	s.lastActivity = time.Now()
	return true
}

// expire releases held events whose deadline has passed.
func (s *session) expire(ctx context.Context, now time.Time) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.deleted {
		return 0
	}
	return s.filter.Expire(ctx, now)
}

// flush releases every held event.
func (s *session) flush(ctx context.Context) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.deleted {
		return 0
	}
	return s.filter.Flush(ctx)
}

func (s *session) markDeleted() {
	s.mu.Lock()
	s.deleted = true
	s.mu.Unlock()
}

func (s *session) audit() types.SessionAudit {
	s.mu.Lock()
	defer s.mu.Unlock()
	return types.SessionAudit{SessionID: s.id, Audit: s.filter.Audit(), Stats: s.filter.Stats()}
}

func (s *session) info(stored int) types.SessionInfo {
	s.mu.Lock()
	defer s.mu.Unlock()
	return types.SessionInfo{
		ID:           s.id,
		CreatedAt:    s.createdAt,
		LastActivity: s.lastActivity,
		Batches:      s.batches,
		StoredEvents: stored,
		AppProfile:   s.tracker.Profile(),
		Filter:       s.filter.Stats(),
	}
}
