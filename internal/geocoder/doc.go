// Package geocoder resolves addresses to coordinates through a remote
// geocoding service while coalescing duplicate work behind a cache.
//
// # Single-address resolution
//
// A lookup first consults the cache without locking. On a miss the caller
// takes one lock shared by every address, re-checks the cache, and only then
// calls the remote service. Concurrent callers for the same address therefore
// produce exactly one request. Callers for different uncached addresses are
// serialized as well.
//
// # Batches
//
// [Geocoder.PointsByAddresses] splits its distinct inputs into cached and
// uncached addresses, reads the cached ones in the background, resolves the
// rest concurrently through the single-address path, and writes the fresh
// results back with one bulk store call.
//
// # Eviction
//
// With a real store, a background goroutine clears the entire cache every
// TTL (30 days by default) while holding the same lock, so a clear never
// interleaves with a population. [Geocoder.Close] stops it and waits for it.
package geocoder
