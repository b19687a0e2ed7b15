package repository

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gorm_logger "gorm.io/gorm/logger"

	"github.com/agrotrace/agrobio-go/internal/datastore/entities"
)

// setupTestDB creates an in-memory SQLite database for repository tests.
// Uses shared-cache mode with a single connection so all operations see
// the same in-memory database.
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file::memory:?cache=shared&_foreign_keys=ON"), &gorm.Config{
		Logger: gorm_logger.Default.LogMode(gorm_logger.Silent),
	})
	require.NoError(t, err, "failed to open in-memory database")

	sqlDB, err := db.DB()
	require.NoError(t, err, "failed to get sql.DB")
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	err = db.AutoMigrate(
		&entities.CachedResponse{},
		&entities.QueuedMutation{},
		&entities.GovAPIResponse{},
	)
	require.NoError(t, err, "failed to migrate worker tables")
	return db
}

func testSnapshot(namespace, url, body string) *entities.CachedResponse {
	return &entities.CachedResponse{
		Namespace: namespace,
		Method:    http.MethodGet,
		URL:       url,
		Status:    http.StatusOK,
		Headers:   `{"Content-Type":["application/json"]}`,
		Body:      []byte(body),
	}
}

func TestCacheRepository_PutAndGet(t *testing.T) {
	repo := NewCacheRepository(setupTestDB(t))
	ctx := t.Context()

	require.NoError(t, repo.PutResponse(ctx, testSnapshot("agrobio-v1", "https://app.local/a.js", "v1")))

	rec, err := repo.GetResponse(ctx, "agrobio-v1", http.MethodGet, "https://app.local/a.js")
	require.NoError(t, err)
	assert.Equal(t, []byte("v1"), rec.Body)
	assert.Equal(t, http.StatusOK, rec.Status)
	assert.False(t, rec.StoredAt.IsZero())
}

func TestCacheRepository_GetMissReturnsNotFound(t *testing.T) {
	repo := NewCacheRepository(setupTestDB(t))

	_, err := repo.GetResponse(t.Context(), "agrobio-v1", http.MethodGet, "https://app.local/missing")
	assert.ErrorIs(t, err, ErrCachedResponseNotFound)
}

func TestCacheRepository_PutOverwritesWholesale(t *testing.T) {
	repo := NewCacheRepository(setupTestDB(t))
	ctx := t.Context()

	require.NoError(t, repo.PutResponse(ctx, testSnapshot("agrobio-v1", "https://app.local/a.js", "old")))
	require.NoError(t, repo.PutResponse(ctx, testSnapshot("agrobio-v1", "https://app.local/a.js", "new")))

	rec, err := repo.GetResponse(ctx, "agrobio-v1", http.MethodGet, "https://app.local/a.js")
	require.NoError(t, err)
	assert.Equal(t, []byte("new"), rec.Body)

	count, err := repo.CountInNamespace(ctx, "agrobio-v1")
	require.NoError(t, err)
	assert.Equal(t, int64(1), count, "upsert must not duplicate the key")
}

func TestCacheRepository_KeyIsMethodAndURL(t *testing.T) {
	repo := NewCacheRepository(setupTestDB(t))
	ctx := t.Context()

	require.NoError(t, repo.PutResponse(ctx, testSnapshot("agrobio-v1", "https://app.local/a", "a")))
	require.NoError(t, repo.PutResponse(ctx, testSnapshot("agrobio-v1", "https://app.local/b", "b")))

	rec, err := repo.GetResponse(ctx, "agrobio-v1", http.MethodGet, "https://app.local/b")
	require.NoError(t, err)
	assert.Equal(t, []byte("b"), rec.Body)

	// Same URL under a different namespace is a distinct record.
	_, err = repo.GetResponse(ctx, "agrobio-v2", http.MethodGet, "https://app.local/a")
	assert.ErrorIs(t, err, ErrCachedResponseNotFound)
}

func TestCacheRepository_NamespaceLifecycle(t *testing.T) {
	repo := NewCacheRepository(setupTestDB(t))
	ctx := t.Context()

	require.NoError(t, repo.PutResponse(ctx, testSnapshot("agrobio-v1", "https://app.local/a", "a")))
	require.NoError(t, repo.PutResponse(ctx, testSnapshot("agrobio-v1", "https://app.local/b", "b")))
	require.NoError(t, repo.PutResponse(ctx, testSnapshot("agrobio-v2", "https://app.local/a", "a")))

	namespaces, err := repo.ListNamespaces(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"agrobio-v1", "agrobio-v2"}, namespaces)

	deleted, err := repo.DeleteNamespace(ctx, "agrobio-v1")
	require.NoError(t, err)
	assert.Equal(t, int64(2), deleted)

	namespaces, err = repo.ListNamespaces(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"agrobio-v2"}, namespaces)

	// Deleting an absent namespace is a harmless no-op.
	deleted, err = repo.DeleteNamespace(ctx, "agrobio-v1")
	require.NoError(t, err)
	assert.Zero(t, deleted)
}
