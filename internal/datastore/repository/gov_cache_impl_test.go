package repository

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agrotrace/agrobio-go/internal/datastore/entities"
)

func TestGovCacheRepository_UpsertReplacesByKey(t *testing.T) {
	repo := NewGovCacheRepository(setupTestDB(t), false)
	ctx := t.Context()

	require.NoError(t, repo.Upsert(ctx, &entities.GovAPIResponse{
		APISource: "agrofit",
		Endpoint:  "search:trichoderma",
		Response:  `[{"id":"1"}]`,
		CachedAt:  time.Now().UTC().Add(-time.Hour),
		TTLHours:  24,
	}))
	require.NoError(t, repo.Upsert(ctx, &entities.GovAPIResponse{
		APISource: "agrofit",
		Endpoint:  "search:trichoderma",
		Response:  `[{"id":"1"},{"id":"2"}]`,
		CachedAt:  time.Now().UTC(),
		TTLHours:  24,
	}))

	rec, err := repo.Get(ctx, "agrofit", "search:trichoderma")
	require.NoError(t, err)
	assert.Equal(t, `[{"id":"1"},{"id":"2"}]`, rec.Response)
}

func TestGovCacheRepository_GetMiss(t *testing.T) {
	repo := NewGovCacheRepository(setupTestDB(t), false)

	_, err := repo.Get(t.Context(), "bioinsumos", "search:none")
	assert.ErrorIs(t, err, ErrGovResponseNotFound)
}

func TestGovCacheRepository_DeleteExpired(t *testing.T) {
	repo := NewGovCacheRepository(setupTestDB(t), false)
	ctx := t.Context()

	require.NoError(t, repo.Upsert(ctx, &entities.GovAPIResponse{
		APISource: "agrofit",
		Endpoint:  "search:old",
		Response:  `[]`,
		CachedAt:  time.Now().UTC().Add(-48 * time.Hour),
		TTLHours:  24,
	}))
	require.NoError(t, repo.Upsert(ctx, &entities.GovAPIResponse{
		APISource: "agrofit",
		Endpoint:  "search:fresh",
		Response:  `[]`,
		CachedAt:  time.Now().UTC(),
		TTLHours:  24,
	}))

	deleted, err := repo.DeleteExpired(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)

	_, err = repo.Get(ctx, "agrofit", "search:old")
	assert.ErrorIs(t, err, ErrGovResponseNotFound)
	_, err = repo.Get(ctx, "agrofit", "search:fresh")
	assert.NoError(t, err)
}
