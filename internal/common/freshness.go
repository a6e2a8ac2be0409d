// Package common provides shared utilities for AskFin
package common

import "time"

// Freshness TTLs for cached data classes. Closed historical periods never
// go stale within a process lifetime; anything tied to the current trading
// day or third-party tables does.
const (
	FreshnessSeries    = 24 * time.Hour     // stored OHLCV series ending before today
	FreshnessQuote     = 1 * time.Hour      // latest-quote results
	FreshnessConsensus = 6 * time.Hour      // analyst consensus table results
	FreshnessNetBuy    = 6 * time.Hour      // institutional net-buy results
	FreshnessIndicator = 12 * time.Hour     // macro indicator lookups (monthly data)
	FreshnessListing   = 7 * 24 * time.Hour // listing snapshot (refreshed at startup anyway)
)

// IsFresh returns true if the given timestamp is within the TTL
func IsFresh(updated time.Time, ttl time.Duration) bool {
	if updated.IsZero() {
		return false
	}
	return time.Since(updated) < ttl
}
