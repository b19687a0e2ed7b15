package govcache

import (
	"context"
	"encoding/json"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agrotrace/agrobio-go/internal/datastore/entities"
	"github.com/agrotrace/agrobio-go/internal/datastore/repository"
	"github.com/agrotrace/agrobio-go/internal/logger"
)

func testLogger() logger.Logger {
	return logger.NewSlogLogger(io.Discard, logger.LogLevelError, nil)
}

// mockGovRepo is a minimal in-memory mock of GovCacheRepository.
type mockGovRepo struct {
	mu      sync.Mutex
	records map[string]*entities.GovAPIResponse
	gets    int
}

func newMockGovRepo() *mockGovRepo {
	return &mockGovRepo{records: make(map[string]*entities.GovAPIResponse)}
}

func (m *mockGovRepo) Get(_ context.Context, apiSource, endpoint string) (*entities.GovAPIResponse, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.gets++
	rec, ok := m.records[apiSource+"|"+endpoint]
	if !ok {
		return nil, repository.ErrGovResponseNotFound
	}
	clone := *rec
	return &clone, nil
}

func (m *mockGovRepo) Upsert(_ context.Context, resp *entities.GovAPIResponse) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	clone := *resp
	m.records[resp.APISource+"|"+resp.Endpoint] = &clone
	return nil
}

func (m *mockGovRepo) DeleteExpired(_ context.Context) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var deleted int64
	for key, rec := range m.records {
		if rec.Expired(time.Now()) {
			delete(m.records, key)
			deleted++
		}
	}
	return deleted, nil
}

func TestService_StoreThenLookup(t *testing.T) {
	repo := newMockGovRepo()
	svc := NewService(repo, 24, testLogger())

	payload := json.RawMessage(`[{"id":"1","nome_comercial":"BioTricho"}]`)
	require.NoError(t, svc.Store(t.Context(), "agrofit", "search:biotricho", payload, 0))

	got, err := svc.Lookup(t.Context(), "agrofit", "search:biotricho")
	require.NoError(t, err)
	assert.JSONEq(t, string(payload), string(got))
}

func TestService_LookupMissReturnsNil(t *testing.T) {
	svc := NewService(newMockGovRepo(), 24, testLogger())

	got, err := svc.Lookup(t.Context(), "agrofit", "search:none")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestService_ExpiredEntryIsAMiss(t *testing.T) {
	repo := newMockGovRepo()
	svc := NewService(repo, 24, testLogger())

	require.NoError(t, repo.Upsert(t.Context(), &entities.GovAPIResponse{
		APISource: "bioinsumos",
		Endpoint:  "search:bacillus",
		Response:  `[]`,
		CachedAt:  time.Now().UTC().Add(-30 * time.Hour),
		TTLHours:  24,
	}))

	got, err := svc.Lookup(t.Context(), "bioinsumos", "search:bacillus")
	require.NoError(t, err)
	assert.Nil(t, got, "entries past their TTL are treated as missing")
}

func TestService_HotLayerSkipsRepositoryOnRepeatLookup(t *testing.T) {
	repo := newMockGovRepo()
	svc := NewService(repo, 24, testLogger())

	require.NoError(t, svc.Store(t.Context(), "agrofit", "search:x", json.RawMessage(`[]`), 0))

	_, err := svc.Lookup(t.Context(), "agrofit", "search:x")
	require.NoError(t, err)
	_, err = svc.Lookup(t.Context(), "agrofit", "search:x")
	require.NoError(t, err)

	repo.mu.Lock()
	defer repo.mu.Unlock()
	assert.Zero(t, repo.gets, "stored entries are served from the hot layer")
}

func TestService_StoreUsesDefaultTTL(t *testing.T) {
	repo := newMockGovRepo()
	svc := NewService(repo, 12, testLogger())

	require.NoError(t, svc.Store(t.Context(), "agrofit", "search:x", json.RawMessage(`[]`), 0))

	rec, err := repo.Get(t.Context(), "agrofit", "search:x")
	require.NoError(t, err)
	assert.Equal(t, 12, rec.TTLHours)
}
