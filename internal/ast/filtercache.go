package ast

import (
	"reflect"
	"sync"
)

// FilterCache memoizes [FilterExpr] evaluation results, keyed by the
// expression's canonical form plus the identity of the current node and the
// identity of the root it was evaluated against, per spec.md §4.4. Its scope
// is the caller's choosing — [NewContextWithCache] ties one to a single
// top-level Select/SelectLocated call, matching the outer findall/finditer
// boundary the cache is meant to be scoped to. A nil *FilterCache disables
// caching; FilterCache is safe for concurrent use.
type FilterCache struct {
	mu sync.Mutex
	m  map[filterCacheKey]bool
}

// NewFilterCache creates an empty FilterCache.
func NewFilterCache() *FilterCache {
	return &FilterCache{m: make(map[filterCacheKey]bool)}
}

type filterCacheKey struct {
	expr string
	node uintptr
	root uintptr
}

func (c *FilterCache) get(expr string, nodeID, rootID uintptr) (bool, bool) {
	if c == nil {
		return false, false
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.m[filterCacheKey{expr, nodeID, rootID}]
	return v, ok
}

func (c *FilterCache) set(expr string, nodeID, rootID uintptr, result bool) {
	if c == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.m[filterCacheKey{expr, nodeID, rootID}] = result
}

// identity returns a stable cache-key component for v: the underlying data
// pointer for the two JSON container kinds (map, slice), or ok=false for
// everything else. Scalars are cheap to re-evaluate and aren't necessarily
// unique in storage (two equal strings need not share an address), so they
// fall back to direct evaluation rather than caching.
func identity(v any) (uintptr, bool) {
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Map, reflect.Slice:
		if rv.IsNil() {
			return 0, false
		}
		return rv.Pointer(), true
	default:
		return 0, false
	}
}
