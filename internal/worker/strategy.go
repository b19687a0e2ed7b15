// Package worker implements the offline worker core: request classification,
// the caching strategies, the cache lifecycle, and the deferred-mutation
// sync queue. Everything here is plain methods on plain structs; the
// process-boundary adapter lives in internal/gateway.
package worker

import (
	"net/http"
	"net/url"
	"regexp"
	"strings"
)

// Strategy selects how a request is resolved. Classification is static:
// a request maps to exactly one strategy, never trial-and-error.
type Strategy int

const (
	// StrategyPassThrough sends the request to the network unmodified,
	// with no caching and no queuing side effect.
	StrategyPassThrough Strategy = iota
	// StrategyNetworkFirst tries the network, caching successes, and
	// falls back to the cache on transport failure.
	StrategyNetworkFirst
	// StrategyCacheFirst serves from cache when present and only
	// consults the network on a miss.
	StrategyCacheFirst
)

// String returns the strategy name used in logs and metrics labels.
func (s Strategy) String() string {
	switch s {
	case StrategyNetworkFirst:
		return "network-first"
	case StrategyCacheFirst:
		return "cache-first"
	default:
		return "pass-through"
	}
}

// Rules holds the pattern lists that drive classification.
type Rules struct {
	// BypassHosts are hostname substrings never intercepted
	// (per-user, sensitive, or must-never-be-stale backends).
	BypassHosts []string
	// BypassPathPrefixes are path prefixes never intercepted.
	BypassPathPrefixes []string
	// LiveDataPathSubstrings mark network-first API paths.
	LiveDataPathSubstrings []string
	// LiveDataHosts are hostname substrings served network-first.
	LiveDataHosts []string
}

// staticAssetPattern matches URLs whose responses are worth keeping in the
// shell cache: script, style, image and font extensions.
var staticAssetPattern = regexp.MustCompile(`\.(js|css|png|svg|ico|woff2?)$`)

// Classify maps a request to its strategy. Rules are evaluated in order;
// first match wins.
func Classify(method string, u *url.URL, rules Rules) Strategy {
	if method != http.MethodGet {
		return StrategyPassThrough
	}
	for _, host := range rules.BypassHosts {
		if strings.Contains(u.Hostname(), host) {
			return StrategyPassThrough
		}
	}
	for _, prefix := range rules.BypassPathPrefixes {
		if strings.HasPrefix(u.Path, prefix) {
			return StrategyPassThrough
		}
	}
	for _, sub := range rules.LiveDataPathSubstrings {
		if strings.Contains(u.Path, sub) {
			return StrategyNetworkFirst
		}
	}
	for _, host := range rules.LiveDataHosts {
		if strings.Contains(u.Hostname(), host) {
			return StrategyNetworkFirst
		}
	}
	return StrategyCacheFirst
}

// IsCacheableAsset reports whether a cache-first response should be stored:
// known static-asset extensions, or the root document.
func IsCacheableAsset(u *url.URL) bool {
	return staticAssetPattern.MatchString(u.Path) || u.Path == "/"
}
