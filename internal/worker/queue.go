package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/agrotrace/agrobio-go/internal/datastore/entities"
	"github.com/agrotrace/agrobio-go/internal/datastore/repository"
	"github.com/agrotrace/agrobio-go/internal/logger"
	"github.com/agrotrace/agrobio-go/internal/observability/metrics"
	"github.com/google/uuid"
)

// MutationPayload is the write operation the application asks to defer:
// the exact method, URL, headers and serialized body to replay later.
type MutationPayload struct {
	URL     string            `json:"url"`
	Method  string            `json:"method"`
	Headers map[string]string `json:"headers"`
	Body    string            `json:"body"`
}

// SyncQueue persists deferred mutations and replays them in enqueue order
// when a sync trigger fires. Replay failures are treated as a normal
// condition, not an error: the record stays put and is retried on the
// next trigger, with no retry cap and no backoff.
type SyncQueue struct {
	repo    repository.SyncQueueRepository
	fetcher Fetcher
	tag     string
	metrics *metrics.WorkerMetrics
	log     logger.Logger

	// now is swappable for tests.
	now func() time.Time
}

// NewSyncQueue creates a SyncQueue draining on the given sync tag.
func NewSyncQueue(repo repository.SyncQueueRepository, fetcher Fetcher, tag string, m *metrics.WorkerMetrics, log logger.Logger) *SyncQueue {
	return &SyncQueue{
		repo:    repo,
		fetcher: fetcher,
		tag:     tag,
		metrics: m,
		log:     log,
		now:     time.Now,
	}
}

// Enqueue durably stores a mutation. It never blocks on the network. The
// enqueue timestamp orders the queue; a UUID plus the insert sequence
// gives each record a collision-proof identity.
func (q *SyncQueue) Enqueue(ctx context.Context, p MutationPayload) error {
	if p.URL == "" || p.Method == "" {
		return fmt.Errorf("mutation payload missing url or method")
	}
	headers, err := json.Marshal(p.Headers)
	if err != nil {
		return fmt.Errorf("failed to encode mutation headers: %w", err)
	}
	m := &entities.QueuedMutation{
		Key:        uuid.NewString(),
		URL:        p.URL,
		Method:     p.Method,
		Headers:    string(headers),
		Body:       []byte(p.Body),
		EnqueuedAt: q.now().UTC(),
	}
	if err := q.repo.Enqueue(ctx, m); err != nil {
		return err
	}
	q.updateDepth(ctx)
	q.log.Debug("mutation queued",
		logger.String("key", m.Key),
		logger.String("method", m.Method),
		logger.String("url", m.URL))
	return nil
}

// Drain replays every queued mutation in insertion order. A replayed
// mutation is deleted once the server responds at all; a transport
// failure leaves the record in place and moves on to the next one, so a
// single offline endpoint never stalls the rest of the queue.
func (q *SyncQueue) Drain(ctx context.Context) error {
	q.metrics.DrainAttempts.Inc()
	pending, err := q.repo.ListPending(ctx)
	if err != nil {
		return fmt.Errorf("failed to enumerate sync queue: %w", err)
	}

	for i := range pending {
		m := &pending[i]
		if err := q.replay(ctx, m); err != nil {
			// Still offline (or a new failure) is normal here; the
			// record is retried on the next sync trigger.
			q.metrics.DrainRetained.Inc()
			if recErr := q.repo.RecordAttempt(ctx, m.ID); recErr != nil {
				q.log.Warn("failed to record replay attempt",
					logger.String("key", m.Key),
					logger.Error(recErr))
			}
			q.log.Debug("mutation replay failed, retained",
				logger.String("key", m.Key),
				logger.Error(err))
			continue
		}
		if err := q.repo.Delete(ctx, m.ID); err != nil {
			q.log.Warn("failed to delete replayed mutation",
				logger.String("key", m.Key),
				logger.Error(err))
			continue
		}
		q.metrics.DrainReplayed.Inc()
	}

	q.updateDepth(ctx)
	return nil
}

// replay issues the stored request. Only a transport-level failure counts
// as a failure; any HTTP response, error status included, consumes the
// record (the server has seen the write).
func (q *SyncQueue) replay(ctx context.Context, m *entities.QueuedMutation) error {
	var body io.Reader = http.NoBody
	if len(m.Body) > 0 {
		body = strings.NewReader(string(m.Body))
	}
	req, err := http.NewRequestWithContext(ctx, m.Method, m.URL, body)
	if err != nil {
		return err
	}
	if m.Headers != "" {
		headers := map[string]string{}
		if err := json.Unmarshal([]byte(m.Headers), &headers); err == nil {
			for k, v := range headers {
				req.Header.Set(k, v)
			}
		}
	}
	resp, err := q.fetcher.Do(req)
	if err != nil {
		return err
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return resp.Body.Close()
}

// HandleSync runs a drain when the fired tag matches the queue's tag.
// Other tags are ignored.
func (q *SyncQueue) HandleSync(ctx context.Context, tag string) error {
	if tag != q.tag {
		return nil
	}
	return q.Drain(ctx)
}

// Depth returns the number of mutations awaiting replay.
func (q *SyncQueue) Depth(ctx context.Context) (int64, error) {
	return q.repo.Count(ctx)
}

func (q *SyncQueue) updateDepth(ctx context.Context) {
	if depth, err := q.repo.Count(ctx); err == nil {
		q.metrics.QueueDepth.Set(float64(depth))
	}
}
