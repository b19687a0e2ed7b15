package repository

import (
	"context"

	"github.com/agrotrace/agrobio-go/internal/datastore/entities"
)

// GovCacheRepository persists government-API responses with per-record TTLs.
type GovCacheRepository interface {
	// Get returns the entry for (apiSource, endpoint), expired or not.
	// Returns ErrGovResponseNotFound on miss; TTL checks are the caller's.
	Get(ctx context.Context, apiSource, endpoint string) (*entities.GovAPIResponse, error)
	// Upsert stores the entry, replacing any existing one for its key.
	Upsert(ctx context.Context, resp *entities.GovAPIResponse) error
	// DeleteExpired removes entries past their TTL, returning how many.
	DeleteExpired(ctx context.Context) (int64, error)
}
