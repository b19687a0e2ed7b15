package repository

import (
	"context"
	"fmt"

	"github.com/agrotrace/agrobio-go/internal/datastore/entities"
	"github.com/agrotrace/agrobio-go/internal/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// cacheRepository implements CacheRepository.
type cacheRepository struct {
	db *gorm.DB
}

// NewCacheRepository creates a new CacheRepository.
func NewCacheRepository(db *gorm.DB) CacheRepository {
	return &cacheRepository{db: db}
}

// PutResponse stores or replaces a response snapshot (upsert on the cache key).
func (r *cacheRepository) PutResponse(ctx context.Context, resp *entities.CachedResponse) error {
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "namespace"}, {Name: "method"}, {Name: "url"}},
			UpdateAll: true,
		}).
		Create(resp).Error
	if err != nil {
		return fmt.Errorf("failed to store cached response: %w", err)
	}
	return nil
}

// GetResponse returns the snapshot for the exact (namespace, method, URL) key.
func (r *cacheRepository) GetResponse(ctx context.Context, namespace, method, url string) (*entities.CachedResponse, error) {
	var resp entities.CachedResponse
	err := r.db.WithContext(ctx).
		Where("namespace = ? AND method = ? AND url = ?", namespace, method, url).
		First(&resp).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrCachedResponseNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get cached response: %w", err)
	}
	return &resp, nil
}

// ListNamespaces returns the distinct namespaces currently holding entries.
func (r *cacheRepository) ListNamespaces(ctx context.Context) ([]string, error) {
	var namespaces []string
	err := r.db.WithContext(ctx).
		Model(&entities.CachedResponse{}).
		Distinct("namespace").
		Order("namespace ASC").
		Pluck("namespace", &namespaces).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list cache namespaces: %w", err)
	}
	return namespaces, nil
}

// DeleteNamespace removes every entry in the given namespace and returns
// the number of deleted records.
func (r *cacheRepository) DeleteNamespace(ctx context.Context, namespace string) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("namespace = ?", namespace).
		Delete(&entities.CachedResponse{})
	if result.Error != nil {
		return 0, fmt.Errorf("failed to delete cache namespace %s: %w", namespace, result.Error)
	}
	return result.RowsAffected, nil
}

// CountInNamespace returns how many entries the namespace holds.
func (r *cacheRepository) CountInNamespace(ctx context.Context, namespace string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&entities.CachedResponse{}).
		Where("namespace = ?", namespace).
		Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("failed to count cache namespace %s: %w", namespace, err)
	}
	return count, nil
}
