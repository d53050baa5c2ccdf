package cache

import "time"

// KV defines the minimal key-value cache contract with TTL semantics.
// Implementations must be safe for concurrent use by multiple goroutines.
//
// Keys are namespaced by convention with a "<namespace>|" prefix (for example
// "url|", "product|"); DeletePrefix is the bulk-invalidation primitive over a
// whole namespace.
type KV interface {
	Get(key string) ([]byte, error)
	Put(key string, value []byte, ttl time.Duration) error
	Delete(key string) error
	// DeletePrefix removes every entry whose key starts with prefix and
	// returns the number of entries removed. A failed delete for one key
	// must not abort the sweep for the rest.
	DeletePrefix(prefix string) (int, error)
}

// Namespace prefixes used by the product pipeline.
const (
	NamespaceURL     = "url|"
	NamespaceProduct = "product|"
	NamespaceSearch  = "search|"
)

// ClearAll sweeps every pipeline namespace and returns the total number of
// entries removed. Sweeps continue past per-namespace failures; the first
// error encountered is returned alongside the count.
func ClearAll(kv KV) (int, error) {
	var total int
	var firstErr error
	for _, ns := range []string{NamespaceURL, NamespaceProduct, NamespaceSearch} {
		n, err := kv.DeletePrefix(ns)
		total += n
		if err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return total, firstErr
}
