package worker

import (
	"context"
	"io"
	"sync"

	"github.com/agrotrace/agrobio-go/internal/datastore/entities"
	"github.com/agrotrace/agrobio-go/internal/datastore/repository"
	"github.com/agrotrace/agrobio-go/internal/logger"
	"github.com/agrotrace/agrobio-go/internal/observability/metrics"
	"github.com/prometheus/client_golang/prometheus"
)

func testLogger() logger.Logger {
	return logger.NewSlogLogger(io.Discard, logger.LogLevelError, nil)
}

func testMetrics() *metrics.WorkerMetrics {
	return metrics.NewWorkerMetrics(prometheus.NewRegistry())
}

// mockCacheRepo is a minimal in-memory mock of CacheRepository.
type mockCacheRepo struct {
	mu      sync.Mutex
	records map[string]*entities.CachedResponse
	putErr  error
	putOK   int // writes allowed before putErr fires
}

func newMockCacheRepo() *mockCacheRepo {
	return &mockCacheRepo{records: make(map[string]*entities.CachedResponse)}
}

func cacheKey(namespace, method, url string) string {
	return namespace + "|" + method + "|" + url
}

func (m *mockCacheRepo) PutResponse(_ context.Context, resp *entities.CachedResponse) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.putErr != nil {
		if m.putOK == 0 {
			return m.putErr
		}
		m.putOK--
	}
	clone := *resp
	m.records[cacheKey(resp.Namespace, resp.Method, resp.URL)] = &clone
	return nil
}

func (m *mockCacheRepo) GetResponse(_ context.Context, namespace, method, url string) (*entities.CachedResponse, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.records[cacheKey(namespace, method, url)]
	if !ok {
		return nil, repository.ErrCachedResponseNotFound
	}
	clone := *rec
	return &clone, nil
}

func (m *mockCacheRepo) ListNamespaces(_ context.Context) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	seen := map[string]struct{}{}
	var namespaces []string
	for _, rec := range m.records {
		if _, ok := seen[rec.Namespace]; !ok {
			seen[rec.Namespace] = struct{}{}
			namespaces = append(namespaces, rec.Namespace)
		}
	}
	return namespaces, nil
}

func (m *mockCacheRepo) DeleteNamespace(_ context.Context, namespace string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var deleted int64
	for key, rec := range m.records {
		if rec.Namespace == namespace {
			delete(m.records, key)
			deleted++
		}
	}
	return deleted, nil
}

func (m *mockCacheRepo) CountInNamespace(_ context.Context, namespace string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var count int64
	for _, rec := range m.records {
		if rec.Namespace == namespace {
			count++
		}
	}
	return count, nil
}

func (m *mockCacheRepo) len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.records)
}

// mockQueueRepo is a minimal in-memory mock of SyncQueueRepository
// preserving insertion order.
type mockQueueRepo struct {
	mu     sync.Mutex
	nextID uint
	items  []entities.QueuedMutation
}

func newMockQueueRepo() *mockQueueRepo {
	return &mockQueueRepo{}
}

func (m *mockQueueRepo) Enqueue(_ context.Context, mut *entities.QueuedMutation) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	mut.ID = m.nextID
	m.items = append(m.items, *mut)
	return nil
}

func (m *mockQueueRepo) ListPending(_ context.Context) ([]entities.QueuedMutation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]entities.QueuedMutation, len(m.items))
	copy(out, m.items)
	return out, nil
}

func (m *mockQueueRepo) Delete(_ context.Context, id uint) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.items {
		if m.items[i].ID == id {
			m.items = append(m.items[:i], m.items[i+1:]...)
			return nil
		}
	}
	return repository.ErrQueuedMutationNotFound
}

func (m *mockQueueRepo) RecordAttempt(_ context.Context, id uint) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.items {
		if m.items[i].ID == id {
			m.items[i].Attempts++
			return nil
		}
	}
	return repository.ErrQueuedMutationNotFound
}

func (m *mockQueueRepo) Count(_ context.Context) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return int64(len(m.items)), nil
}
