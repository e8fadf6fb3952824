package replay

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/okian/auscult/internal/domain/model"
	"github.com/okian/auscult/internal/domain/report"
	"github.com/okian/auscult/pkg/logger"
)

// Run posts the capture in data to the service described by cfg, waits for
// every batch to be processed and returns the session report.
func Run(ctx context.Context, cfg Config, data []byte) (report.Report, Stats, error) {
	cfg = cfg.withDefaults()
	start := time.Now()
	log := logger.Get().Named("replay")

	capture, err := model.SplitBatch(data)
	if err != nil {
		return report.Report{}, Stats{}, err
	}

	stats := Stats{SessionID: cfg.SessionID, Events: len(capture.Events)}
	if stats.SessionID == "" {
		stats.SessionID = capture.SessionID
	}
	if stats.SessionID == "" {
		stats.SessionID = uuid.NewString()
	}

	client := NewClient(cfg.BaseURL, cfg.Timeout)

	// Step 1: make sure the service is up
	if _, err := client.Stats(ctx); err != nil {
		return report.Report{}, stats, fmt.Errorf("service health check failed: %w", err)
	}

	log.Info(ctx, "replaying capture",
		logger.String("baseURL", cfg.BaseURL),
		logger.String("session", stats.SessionID),
		logger.Int("events", stats.Events),
		logger.Int("batchSize", cfg.BatchSize))

	// Step 2: post batches in capture order
	for from := 0; from < len(capture.Events); from += cfg.BatchSize {
		to := min(from+cfg.BatchSize, len(capture.Events))
		if err := postWithRetry(ctx, client, cfg, capture.Events[from:to], &stats); err != nil {
			return report.Report{}, stats, fmt.Errorf("batch %d: %w", stats.Batches, err)
		}
		stats.Batches++
	}

	// Step 3: wait for the workers
	if err := waitSettled(ctx, client, stats.SessionID, stats.Batches, cfg.Settle); err != nil {
		return report.Report{}, stats, err
	}

	// Step 4: release held events
	if cfg.Flush {
		n, err := client.Flush(ctx, stats.SessionID)
		if err != nil {
			return report.Report{}, stats, fmt.Errorf("flush failed: %w", err)
		}
		stats.Released = n
	}

	// Step 5: fetch the report
	rep, err := client.Report(ctx, stats.SessionID, cfg.Events)
	if err != nil {
		return report.Report{}, stats, fmt.Errorf("report retrieval failed: %w", err)
	}

	stats.Duration = time.Since(start)
	log.Info(ctx, "replay completed",
		logger.String("session", stats.SessionID),
		logger.Int("batches", stats.Batches),
		logger.Int("accepted", stats.Accepted),
		logger.Int("malformed", stats.Malformed),
		logger.Int("retries", stats.Retries),
		logger.Duration("duration", stats.Duration))
	return rep, stats, nil
}

func postWithRetry(ctx context.Context, client *Client, cfg Config, records []json.RawMessage, stats *Stats) error {
	backoff := 100 * time.Millisecond
	for attempt := 0; ; attempt++ {
		ack, err := client.PostEvents(ctx, stats.SessionID, records)
		if err == nil {
			stats.Accepted += ack.Events
			stats.Malformed += ack.Malformed
			return nil
		}

		var se *statusError
		if !errors.As(err, &se) || se.status != http.StatusTooManyRequests || attempt >= cfg.MaxRetries {
			return err
		}
		stats.Retries++

		wait := backoff
		if se.retryAfter > 0 {
			wait = se.retryAfter
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(wait):
		}
		backoff *= 2
	}
}

// waitSettled polls the session until it has processed every posted batch.
func waitSettled(ctx context.Context, client *Client, sessionID string, batches int, limit time.Duration) error {
	if batches == 0 {
		return nil
	}
	deadline := time.Now().Add(limit)
	for {
		info, err := client.Session(ctx, sessionID)
		if err == nil && info.Batches >= batches {
			return nil
		}
		if time.Now().After(deadline) {
			return fmt.Errorf("%w: %d of %d batches processed", ErrNotSettled, info.Batches, batches)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(pollInterval):
		}
	}
}
