// Package cache provides the key-value cache layer for hot lookups and
// derived payloads. The cache is advisory: the store remains the authority,
// every entry is rebuildable, and callers must degrade to the store when the
// cache misses or fails.
package cache

import (
	"context"
	"fmt"
	"time"
)

// TTLs for the derived entries. Destination lookups stay hot for an hour;
// list and analytics payloads are short-lived because click counters move.
const (
	ShortTTL     = time.Hour
	ListTTL      = 10 * time.Second
	AnalyticsTTL = 10 * time.Second
)

// ListPrefix covers every owner's paginated list entry; invalidation after a
// create, delete, or click drops all of them at once.
const ListPrefix = "urls_list:"

// Cache is a thin key-value abstraction over the cache backend.
type Cache interface {
	// Get returns the value for key and whether it was present.
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key string, value string, ttl time.Duration) error
	Del(ctx context.Context, keys ...string) error
	// DelByPrefix removes every key starting with prefix.
	DelByPrefix(ctx context.Context, prefix string) error
	Ping(ctx context.Context) error
}

// ShortKey addresses the cached destination for a short code.
func ShortKey(code string) string {
	return "short:" + code
}

// ListKey addresses one page of an owner's URL list.
func ListKey(userID int64, skip, limit int) string {
	return fmt.Sprintf("%s%d:%d:%d", ListPrefix, userID, skip, limit)
}

// AnalyticsKey addresses the cached click summary for a short code.
func AnalyticsKey(code string) string {
	return "analytics:" + code
}
