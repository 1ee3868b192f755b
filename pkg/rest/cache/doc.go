// Package cache provides an optional Redis-backed cache for GET responses.
//
// Paginated traversals that are repeated within a short window (exports,
// dashboards polling history) hit the same route and query repeatedly. The
// cache stores the raw page body keyed by route and query so repeated pages are
// served locally, and revalidates with If-None-Match when the API sent an ETag.
//
// # Basic Usage
//
//	manager := cache.NewManager(redisClient)
//
//	key := cache.Key{
//		Route: "/channels/81384788765712384/messages",
//		Query: url.Values{"limit": []string{"100"}},
//	}
//
//	entry, err := manager.Get(ctx, key)
//	if err == cache.ErrCacheMiss {
//		// fetch from the API
//	}
//
// # Freshness
//
// Entries live for Cache-Control max-age or Expires when the API sends them,
// otherwise for the TTL configured on the requester. A page is never cached
// past its freshness window; there is no stale-while-revalidate.
//
// # Metrics
//
//   - guildkit_cache_hits_total - Cache hits
//   - guildkit_cache_misses_total - Cache misses
//   - guildkit_cache_size_bytes - Bytes written to the cache
//   - guildkit_cache_not_modified_total - 304 revalidations
//   - guildkit_cache_errors_total{operation} - Cache operation errors
package cache
