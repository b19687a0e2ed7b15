package worker

import (
	"context"
	"net/http"

	"github.com/agrotrace/agrobio-go/internal/datastore/repository"
	"github.com/agrotrace/agrobio-go/internal/logger"
	"github.com/agrotrace/agrobio-go/internal/observability/metrics"
)

// Fetcher executes an outbound request. *http.Client satisfies it, and
// tests substitute a mock transport.
type Fetcher interface {
	Do(req *http.Request) (*http.Response, error)
}

// Router resolves every application request through exactly one of the
// three strategies. Concurrent requests are not serialized; two GETs
// racing to populate the same cache key is accepted (last writer wins,
// entries are idempotent snapshots).
type Router struct {
	fetcher   Fetcher
	cache     repository.CacheRepository
	rules     Rules
	namespace string
	metrics   *metrics.WorkerMetrics
	log       logger.Logger
}

// NewRouter creates a Router writing cache entries under namespace.
func NewRouter(fetcher Fetcher, cache repository.CacheRepository, rules Rules, namespace string, m *metrics.WorkerMetrics, log logger.Logger) *Router {
	return &Router{
		fetcher:   fetcher,
		cache:     cache,
		rules:     rules,
		namespace: namespace,
		metrics:   m,
		log:       log,
	}
}

// Handle resolves req using its statically classified strategy.
func (r *Router) Handle(ctx context.Context, req *http.Request) (*http.Response, error) {
	req = req.WithContext(ctx)
	switch Classify(req.Method, req.URL, r.rules) {
	case StrategyNetworkFirst:
		return r.networkFirst(ctx, req)
	case StrategyCacheFirst:
		return r.cacheFirst(ctx, req)
	default:
		return r.fetcher.Do(req)
	}
}

// networkFirst attempts the network, caching OK responses. On transport
// failure (not HTTP error) it serves the cached snapshot for the exact
// key, or propagates the failure when nothing is cached.
func (r *Router) networkFirst(ctx context.Context, req *http.Request) (*http.Response, error) {
	resp, err := r.fetcher.Do(req)
	if err != nil {
		r.metrics.NetworkFailures.Inc()
		rec, lookupErr := r.cache.GetResponse(ctx, r.namespace, req.Method, req.URL.String())
		if lookupErr != nil {
			r.metrics.CacheMisses.WithLabelValues(StrategyNetworkFirst.String()).Inc()
			return nil, err
		}
		r.metrics.CacheHits.WithLabelValues(StrategyNetworkFirst.String()).Inc()
		return SnapshotFromEntity(rec).ToResponse(req), nil
	}
	r.storeIfOK(ctx, req, resp)
	return resp, nil
}

// cacheFirst serves the cached snapshot without touching the network. On a
// miss it fetches, storing the result only when it is OK and the URL is a
// known static asset.
func (r *Router) cacheFirst(ctx context.Context, req *http.Request) (*http.Response, error) {
	rec, err := r.cache.GetResponse(ctx, r.namespace, req.Method, req.URL.String())
	if err == nil {
		r.metrics.CacheHits.WithLabelValues(StrategyCacheFirst.String()).Inc()
		return SnapshotFromEntity(rec).ToResponse(req), nil
	}
	r.metrics.CacheMisses.WithLabelValues(StrategyCacheFirst.String()).Inc()

	resp, err := r.fetcher.Do(req)
	if err != nil {
		r.metrics.NetworkFailures.Inc()
		return nil, err
	}
	if IsCacheableAsset(req.URL) {
		r.storeIfOK(ctx, req, resp)
	}
	return resp, nil
}

// storeIfOK snapshots and persists a 2xx response. A store failure never
// affects the response handed back to the caller.
func (r *Router) storeIfOK(ctx context.Context, req *http.Request, resp *http.Response) {
	snap, err := TakeSnapshot(resp)
	if err != nil {
		r.log.Warn("failed to snapshot response",
			logger.String("url", req.URL.String()),
			logger.Error(err))
		return
	}
	if !snap.OK() {
		return
	}
	rec, err := snap.ToEntity(r.namespace, req.Method, req.URL.String())
	if err != nil {
		r.log.Warn("failed to encode cache record",
			logger.String("url", req.URL.String()),
			logger.Error(err))
		return
	}
	if err := r.cache.PutResponse(ctx, rec); err != nil {
		r.log.Warn("failed to write cache record",
			logger.String("url", req.URL.String()),
			logger.String("namespace", r.namespace),
			logger.Error(err))
		return
	}
	r.metrics.CacheWrites.Inc()
}
