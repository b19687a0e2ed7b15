// Command agrobio-worker runs the offline worker for the AgroBio
// traceability application: the caching gateway, the deferred-mutation
// sync queue and the install-prompt coordinator.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/agrotrace/agrobio-go/internal/conf"
	"github.com/agrotrace/agrobio-go/internal/datastore"
	"github.com/agrotrace/agrobio-go/internal/datastore/repository"
	"github.com/agrotrace/agrobio-go/internal/gateway"
	"github.com/agrotrace/agrobio-go/internal/govcache"
	"github.com/agrotrace/agrobio-go/internal/installprompt"
	"github.com/agrotrace/agrobio-go/internal/logger"
	"github.com/agrotrace/agrobio-go/internal/observability/metrics"
	"github.com/agrotrace/agrobio-go/internal/worker"
)

const shutdownTimeout = 10 * time.Second

func main() {
	var configFile string

	rootCmd := &cobra.Command{
		Use:   "agrobio-worker",
		Short: "Offline worker for the AgroBio traceability application",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd.Context(), configFile)
		},
	}
	rootCmd.Flags().StringVarP(&configFile, "config", "c", "", "path to config file")

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(ctx context.Context, configFile string) error {
	settings, err := conf.Load(configFile)
	if err != nil {
		return err
	}

	log := logger.NewSlogLogger(os.Stderr, parseLogLevel(settings.LogLevel), nil)

	if settings.Sentry.DSN != "" {
		if err := sentry.Init(sentry.ClientOptions{Dsn: settings.Sentry.DSN}); err != nil {
			log.Warn("sentry init failed", logger.Error(err))
		} else {
			defer sentry.Flush(2 * time.Second)
		}
	}

	db, err := datastore.Open(settings.Datastore)
	if err != nil {
		return err
	}

	cacheRepo := repository.NewCacheRepository(db)
	queueRepo := repository.NewSyncQueueRepository(db)
	govRepo := repository.NewGovCacheRepository(db, datastore.IsMySQL(settings.Datastore))

	registry := prometheus.NewRegistry()
	workerMetrics := metrics.NewWorkerMetrics(registry)

	fetcher := &http.Client{Timeout: settings.Fetch.Timeout.Std()}
	rules := worker.Rules{
		BypassHosts:            settings.Routing.BypassHosts,
		BypassPathPrefixes:     settings.Routing.BypassPathPrefixes,
		LiveDataPathSubstrings: settings.Routing.LiveDataPathSubstrings,
		LiveDataHosts:          settings.Routing.LiveDataHosts,
	}

	router := worker.NewRouter(fetcher, cacheRepo, rules, settings.Cache.Version, workerMetrics, log)
	lifecycle := worker.NewLifecycle(cacheRepo, fetcher, settings.Cache.Version,
		settings.Fetch.AppOrigin, settings.Cache.PrecacheAssets, log)
	queue := worker.NewSyncQueue(queueRepo, fetcher, settings.Sync.Tag, workerMetrics, log)
	coordinator := installprompt.NewCoordinator(log)

	// Install once per version, then activate: stale namespaces from
	// previous versions are collected here.
	needsInstall, err := lifecycle.NeedsInstall(ctx)
	if err != nil {
		return err
	}
	if needsInstall {
		if err := lifecycle.Install(ctx); err != nil {
			// The runtime retries installation on next start.
			return err
		}
	}
	if err := lifecycle.Activate(ctx); err != nil {
		return err
	}

	server := gateway.NewServer(router, lifecycle, queue, coordinator, registry,
		settings.Fetch.AppOrigin, log)

	govService := govcache.NewService(govRepo, settings.GovCache.DefaultTTLHours, log)
	server.AttachGovAPI(govcache.NewClient(govService, log))

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	go runUpdateChecker(ctx, lifecycle, settings.Sync.UpdateInterval.Std(), log)

	errCh := make(chan error, 1)
	go func() {
		log.Info("gateway listening", logger.String("addr", settings.Listen))
		errCh <- server.Start(settings.Listen)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

// runUpdateChecker periodically looks for stale namespaces left behind by
// a version bump and re-runs activation to collect them.
func runUpdateChecker(ctx context.Context, lifecycle *worker.Lifecycle, interval time.Duration, log logger.Logger) {
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			stale, err := lifecycle.CheckForUpdate(ctx)
			if err != nil {
				log.Warn("update check failed", logger.Error(err))
				continue
			}
			if stale {
				if err := lifecycle.Activate(ctx); err != nil {
					log.Warn("activation failed", logger.Error(err))
				}
			}
		}
	}
}

func parseLogLevel(level string) logger.LogLevel {
	switch level {
	case "debug":
		return logger.LogLevelDebug
	case "warn":
		return logger.LogLevelWarn
	case "error":
		return logger.LogLevelError
	default:
		return logger.LogLevelInfo
	}
}
