package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/agrotrace/agrobio-go/internal/datastore/entities"
	"github.com/agrotrace/agrobio-go/internal/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// govCacheRepository implements GovCacheRepository.
type govCacheRepository struct {
	db      *gorm.DB
	isMySQL bool // Dialect flag: affects the TTL expiry SQL expression
}

// NewGovCacheRepository creates a new GovCacheRepository.
func NewGovCacheRepository(db *gorm.DB, isMySQL bool) GovCacheRepository {
	return &govCacheRepository{db: db, isMySQL: isMySQL}
}

// Get returns the entry for (apiSource, endpoint).
func (r *govCacheRepository) Get(ctx context.Context, apiSource, endpoint string) (*entities.GovAPIResponse, error) {
	var resp entities.GovAPIResponse
	err := r.db.WithContext(ctx).
		Where("api_source = ? AND endpoint = ?", apiSource, endpoint).
		First(&resp).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrGovResponseNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get gov api response: %w", err)
	}
	return &resp, nil
}

// Upsert stores the entry, replacing any existing row for its key.
func (r *govCacheRepository) Upsert(ctx context.Context, resp *entities.GovAPIResponse) error {
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "api_source"}, {Name: "endpoint"}},
			UpdateAll: true,
		}).
		Create(resp).Error
	if err != nil {
		return fmt.Errorf("failed to upsert gov api response: %w", err)
	}
	return nil
}

// DeleteExpired removes entries past their TTL.
func (r *govCacheRepository) DeleteExpired(ctx context.Context) (int64, error) {
	var whereClause string
	if r.isMySQL {
		whereClause = "DATE_ADD(cached_at, INTERVAL ttl_hours HOUR) < ?"
	} else {
		whereClause = "datetime(cached_at, '+' || ttl_hours || ' hours') < datetime(?)"
	}
	result := r.db.WithContext(ctx).
		Where(whereClause, time.Now().UTC()).
		Delete(&entities.GovAPIResponse{})
	if result.Error != nil {
		return 0, fmt.Errorf("failed to delete expired gov api responses: %w", result.Error)
	}
	return result.RowsAffected, nil
}
