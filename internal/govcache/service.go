// Package govcache caches government-API lookups (Agrofit, Bioinsumos)
// with per-record TTLs: a persistent table under a patrickmn/go-cache
// in-memory hot layer.
package govcache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/agrotrace/agrobio-go/internal/datastore/entities"
	"github.com/agrotrace/agrobio-go/internal/datastore/repository"
	"github.com/agrotrace/agrobio-go/internal/errors"
	"github.com/agrotrace/agrobio-go/internal/logger"
	gocache "github.com/patrickmn/go-cache"
)

const hotCacheCleanup = 10 * time.Minute

// Service answers TTL-bounded lookups of cached API responses.
type Service struct {
	repo            repository.GovCacheRepository
	hot             *gocache.Cache
	defaultTTLHours int
	log             logger.Logger

	// now is swappable for tests.
	now func() time.Time
}

// NewService creates a Service. ttlHours <= 0 falls back to 24.
func NewService(repo repository.GovCacheRepository, ttlHours int, log logger.Logger) *Service {
	if ttlHours <= 0 {
		ttlHours = 24
	}
	return &Service{
		repo:            repo,
		hot:             gocache.New(time.Duration(ttlHours)*time.Hour, hotCacheCleanup),
		defaultTTLHours: ttlHours,
		log:             log,
		now:             time.Now,
	}
}

func hotKey(apiSource, endpoint string) string {
	return apiSource + "|" + endpoint
}

// Lookup returns the cached response for (apiSource, endpoint), or nil
// when the entry is missing or past its TTL.
func (s *Service) Lookup(ctx context.Context, apiSource, endpoint string) (json.RawMessage, error) {
	if v, ok := s.hot.Get(hotKey(apiSource, endpoint)); ok {
		return v.(json.RawMessage), nil
	}

	rec, err := s.repo.Get(ctx, apiSource, endpoint)
	if errors.Is(err, repository.ErrGovResponseNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if rec.Expired(s.now()) {
		return nil, nil
	}

	payload := json.RawMessage(rec.Response)
	remaining := time.Duration(rec.TTLHours)*time.Hour - s.now().Sub(rec.CachedAt)
	s.hot.Set(hotKey(apiSource, endpoint), payload, remaining)
	return payload, nil
}

// Store persists a response for (apiSource, endpoint). ttlHours <= 0 uses
// the service default.
func (s *Service) Store(ctx context.Context, apiSource, endpoint string, response json.RawMessage, ttlHours int) error {
	if ttlHours <= 0 {
		ttlHours = s.defaultTTLHours
	}
	rec := &entities.GovAPIResponse{
		APISource: apiSource,
		Endpoint:  endpoint,
		Response:  string(response),
		CachedAt:  s.now().UTC(),
		TTLHours:  ttlHours,
	}
	if err := s.repo.Upsert(ctx, rec); err != nil {
		return err
	}
	s.hot.Set(hotKey(apiSource, endpoint), response, time.Duration(ttlHours)*time.Hour)
	return nil
}

// Purge removes expired entries from the persistent table.
func (s *Service) Purge(ctx context.Context) (int64, error) {
	return s.repo.DeleteExpired(ctx)
}
