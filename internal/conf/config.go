// Package conf holds the worker's configuration model and Viper-based loader.
package conf

import (
	"fmt"
	"time"

	"github.com/spf13/viper"

	"github.com/agrotrace/agrobio-go/internal/errors"
)

// DatastoreSettings selects the persistence backend.
type DatastoreSettings struct {
	// Dialect is "sqlite" or "mysql".
	Dialect string `mapstructure:"dialect"`
	// DSN is the driver connection string. For sqlite this is a file path.
	DSN string `mapstructure:"dsn"`
}

// CacheSettings controls the versioned response cache.
type CacheSettings struct {
	// Version names the current cache namespace. Bumping it is the only
	// supported mechanism for forcing full cache invalidation on deploy.
	Version string `mapstructure:"version"`
	// PrecacheAssets is the shell manifest fetched atomically at install.
	PrecacheAssets []string `mapstructure:"precache_assets"`
}

// RoutingSettings drives request classification.
type RoutingSettings struct {
	// BypassHosts are hostname substrings that are never intercepted
	// (per-user or sensitive backends).
	BypassHosts []string `mapstructure:"bypass_hosts"`
	// BypassPathPrefixes are path prefixes that are never intercepted.
	BypassPathPrefixes []string `mapstructure:"bypass_path_prefixes"`
	// LiveDataPathSubstrings mark network-first API paths.
	LiveDataPathSubstrings []string `mapstructure:"live_data_path_substrings"`
	// LiveDataHosts are hostname substrings served network-first.
	LiveDataHosts []string `mapstructure:"live_data_hosts"`
}

// FetchSettings bounds outbound requests.
type FetchSettings struct {
	// Timeout caps every upstream fetch so no request hangs indefinitely.
	Timeout Duration `mapstructure:"timeout"`
	// AppOrigin is the origin the shell assets are fetched from at install.
	AppOrigin string `mapstructure:"app_origin"`
}

// SyncSettings controls deferred-mutation replay.
type SyncSettings struct {
	// Tag names the background-sync trigger that drains the queue.
	Tag string `mapstructure:"tag"`
	// UpdateInterval is how often the worker checks for a new version.
	UpdateInterval Duration `mapstructure:"update_interval"`
}

// GovCacheSettings controls the government-API response cache.
type GovCacheSettings struct {
	// DefaultTTLHours applies when a store call does not specify a TTL.
	DefaultTTLHours int `mapstructure:"default_ttl_hours"`
}

// SentrySettings enables error telemetry when a DSN is set.
type SentrySettings struct {
	DSN string `mapstructure:"dsn"`
}

// Settings is the root configuration for the worker.
type Settings struct {
	// Listen is the gateway's bind address.
	Listen    string            `mapstructure:"listen"`
	LogLevel  string            `mapstructure:"log_level"`
	Datastore DatastoreSettings `mapstructure:"datastore"`
	Cache     CacheSettings     `mapstructure:"cache"`
	Routing   RoutingSettings   `mapstructure:"routing"`
	Fetch     FetchSettings     `mapstructure:"fetch"`
	Sync      SyncSettings      `mapstructure:"sync"`
	GovCache  GovCacheSettings  `mapstructure:"gov_cache"`
	Sentry    SentrySettings    `mapstructure:"sentry"`
}

// Load reads settings from the given config file (optional) and the
// environment, applying defaults for everything unset.
func Load(configFile string) (*Settings, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("AGROBIO")
	v.AutomaticEnv()

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config %s: %w", configFile, err)
		}
	}

	var settings Settings
	if err := v.Unmarshal(&settings, viper.DecodeHook(DurationDecodeHook())); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	if err := settings.Validate(); err != nil {
		return nil, err
	}
	return &settings, nil
}

// Validate rejects settings the worker cannot run with.
func (s *Settings) Validate() error {
	if s.Cache.Version == "" {
		return errors.Newf("cache.version must not be empty").
			Component("conf").
			Category(errors.CategoryValidation).
			Build()
	}
	if s.Sync.Tag == "" {
		return errors.Newf("sync.tag must not be empty").
			Component("conf").
			Category(errors.CategoryValidation).
			Build()
	}
	switch s.Datastore.Dialect {
	case "sqlite", "mysql":
	default:
		return errors.Newf("unsupported datastore dialect %q", s.Datastore.Dialect).
			Component("conf").
			Category(errors.CategoryValidation).
			Context("dialect", s.Datastore.Dialect).
			Build()
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("listen", "127.0.0.1:8770")
	v.SetDefault("log_level", "info")

	v.SetDefault("datastore.dialect", "sqlite")
	v.SetDefault("datastore.dsn", "agrobio-worker.db")

	v.SetDefault("cache.version", "agrobio-v1")
	v.SetDefault("cache.precache_assets", []string{
		"/",
		"/index.html",
		"/manifest.json",
		"/favicon.svg",
	})

	v.SetDefault("routing.bypass_hosts", []string{"supabase"})
	v.SetDefault("routing.bypass_path_prefixes", []string{"/auth"})
	v.SetDefault("routing.live_data_path_substrings", []string{"/api/"})
	v.SetDefault("routing.live_data_hosts", []string{"openweathermap"})

	v.SetDefault("fetch.timeout", (10 * time.Second).String())
	v.SetDefault("fetch.app_origin", "http://127.0.0.1:8080")

	v.SetDefault("sync.tag", "agrobio-sync")
	v.SetDefault("sync.update_interval", (30 * time.Minute).String())

	v.SetDefault("gov_cache.default_ttl_hours", 24)
}
