package repository

import (
	"context"

	"github.com/agrotrace/agrobio-go/internal/datastore/entities"
)

// CacheRepository handles the namespaced response cache.
type CacheRepository interface {
	// PutResponse stores or replaces the snapshot for its
	// (namespace, method, URL) key.
	PutResponse(ctx context.Context, resp *entities.CachedResponse) error
	// GetResponse returns the snapshot for the exact key.
	// Returns ErrCachedResponseNotFound on miss.
	GetResponse(ctx context.Context, namespace, method, url string) (*entities.CachedResponse, error)

	// Namespace lifecycle
	ListNamespaces(ctx context.Context) ([]string, error)
	DeleteNamespace(ctx context.Context, namespace string) (int64, error)
	CountInNamespace(ctx context.Context, namespace string) (int64, error)
}
