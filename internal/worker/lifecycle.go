package worker

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"sync"

	"github.com/agrotrace/agrobio-go/internal/datastore/repository"
	"github.com/agrotrace/agrobio-go/internal/errors"
	"github.com/agrotrace/agrobio-go/internal/logger"
)

// LifecycleState tracks the worker's position in its install/activate
// state machine.
type LifecycleState int

const (
	StateUninstalled LifecycleState = iota
	StateInstalling
	StateInstalled
	StateActivating
	StateActive
)

// String returns the state name used in logs and the status endpoint.
func (s LifecycleState) String() string {
	switch s {
	case StateInstalling:
		return "installing"
	case StateInstalled:
		return "installed"
	case StateActivating:
		return "activating"
	case StateActive:
		return "active"
	default:
		return "uninstalled"
	}
}

// ErrInstallFailed wraps any shell-asset fetch failure during install.
var ErrInstallFailed = errors.Sentinel("worker install failed")

// Lifecycle owns cache namespace versioning: installation-time
// pre-population of the shell manifest and activation-time garbage
// collection of stale namespaces. It is dormant outside those two points.
type Lifecycle struct {
	cache     repository.CacheRepository
	fetcher   Fetcher
	namespace string
	appOrigin string
	precache  []string
	log       logger.Logger

	mu      sync.Mutex
	state   LifecycleState
	claimed bool
}

// NewLifecycle creates a Lifecycle for the given namespace. precache paths
// are root-relative and resolved against appOrigin.
func NewLifecycle(cache repository.CacheRepository, fetcher Fetcher, namespace, appOrigin string, precache []string, log logger.Logger) *Lifecycle {
	return &Lifecycle{
		cache:     cache,
		fetcher:   fetcher,
		namespace: namespace,
		appOrigin: strings.TrimSuffix(appOrigin, "/"),
		precache:  precache,
		log:       log,
		state:     StateUninstalled,
	}
}

// State returns the current lifecycle state.
func (l *Lifecycle) State() LifecycleState {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.state
}

// Claimed reports whether the worker has claimed all open application
// sessions.
func (l *Lifecycle) Claimed() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.claimed
}

// Namespace returns the current cache namespace name.
func (l *Lifecycle) Namespace() string {
	return l.namespace
}

// Install pre-populates the current namespace with the shell manifest.
// All assets are fetched before anything is committed: a single fetch
// failure fails the whole install and nothing is stored. A commit failure
// partway rolls the namespace back so no partial shell cache survives.
func (l *Lifecycle) Install(ctx context.Context) error {
	l.setState(StateInstalling)

	snapshots := make(map[string]*Snapshot, len(l.precache))
	for _, path := range l.precache {
		url := l.appOrigin + path
		snap, err := l.fetchAsset(ctx, url)
		if err != nil {
			l.setState(StateUninstalled)
			return fmt.Errorf("%w: asset %s: %w", ErrInstallFailed, path, err)
		}
		snapshots[url] = snap
	}

	for url, snap := range snapshots {
		rec, err := snap.ToEntity(l.namespace, http.MethodGet, url)
		if err == nil {
			err = l.cache.PutResponse(ctx, rec)
		}
		if err != nil {
			if _, delErr := l.cache.DeleteNamespace(ctx, l.namespace); delErr != nil {
				l.log.Error("failed to roll back partial shell cache",
					logger.String("namespace", l.namespace),
					logger.Error(delErr))
			}
			l.setState(StateUninstalled)
			return fmt.Errorf("%w: commit %s: %w", ErrInstallFailed, url, err)
		}
	}

	l.setState(StateInstalled)
	l.log.Info("worker installed",
		logger.String("namespace", l.namespace),
		logger.Int("precached", len(snapshots)))
	return nil
}

func (l *Lifecycle) fetchAsset(ctx context.Context, url string) (*Snapshot, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return nil, err
	}
	resp, err := l.fetcher.Do(req)
	if err != nil {
		return nil, err
	}
	snap, err := TakeSnapshot(resp)
	if err != nil {
		return nil, err
	}
	if !snap.OK() {
		return nil, fmt.Errorf("unexpected status %d", snap.Status)
	}
	return snap, nil
}

// Activate deletes every namespace other than the current one, then
// claims all open application sessions immediately so two worker
// versions are never simultaneously active. Idempotent.
func (l *Lifecycle) Activate(ctx context.Context) error {
	l.setState(StateActivating)

	namespaces, err := l.cache.ListNamespaces(ctx)
	if err != nil {
		return fmt.Errorf("failed to enumerate cache namespaces: %w", err)
	}
	for _, ns := range namespaces {
		if ns == l.namespace {
			continue
		}
		deleted, err := l.cache.DeleteNamespace(ctx, ns)
		if err != nil {
			return fmt.Errorf("failed to delete stale namespace %s: %w", ns, err)
		}
		l.log.Info("deleted stale cache namespace",
			logger.String("namespace", ns),
			logger.Int64("entries", deleted))
	}

	l.mu.Lock()
	l.state = StateActive
	l.claimed = true
	l.mu.Unlock()
	return nil
}

// NeedsInstall reports whether the current namespace has no shell cache
// yet, meaning Install has not completed for this version.
func (l *Lifecycle) NeedsInstall(ctx context.Context) (bool, error) {
	count, err := l.cache.CountInNamespace(ctx, l.namespace)
	if err != nil {
		return false, err
	}
	return count == 0, nil
}

// CheckForUpdate reports whether stale namespaces from a previous version
// are still present, meaning an activation pass is due.
func (l *Lifecycle) CheckForUpdate(ctx context.Context) (bool, error) {
	namespaces, err := l.cache.ListNamespaces(ctx)
	if err != nil {
		return false, err
	}
	for _, ns := range namespaces {
		if ns != l.namespace {
			return true, nil
		}
	}
	return false, nil
}

func (l *Lifecycle) setState(s LifecycleState) {
	l.mu.Lock()
	l.state = s
	l.mu.Unlock()
}
