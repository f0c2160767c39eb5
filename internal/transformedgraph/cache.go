package transformedgraph

import (
	"crypto/sha256"
	"encoding/hex"

	"github.com/graphia/graphia/internal/attribute"
	"github.com/graphia/graphia/internal/graph"
	"github.com/graphia/graphia/internal/transformconfig"
)

// CacheEntry is one memoised transform output (spec §4.6: "TransformCache
// entry"): the resulting graph snapshot, the attributes that transform
// added or changed, and the referenced attribute names (from the usingClause
// and whereClause of the config at this index) that, if mutated externally,
// must invalidate this entry and everything after it.
type CacheEntry struct {
	Index      int
	Graph      *graph.MutableGraph
	Attributes []*attribute.Attribute
	References []string
}

// TransformCache is a prefix-hash-keyed memo of transform outputs, owned by
// a TransformedGraph and touched only by its rebuild (spec §4.6, §5).
type TransformCache struct {
	entries map[string]*CacheEntry
	lastKey string
}

// NewTransformCache returns an empty cache.
func NewTransformCache() *TransformCache {
	return &TransformCache{entries: make(map[string]*CacheEntry)}
}

// PrefixKey derives the cache key for the transform-config prefix
// configs[:i+1], by hashing the canonical textual form of each config in
// order (spec §3: "Keyed by the prefix of transform configs up to some
// index i").
func PrefixKey(configs []*transformconfig.TransformConfig) string {
	h := sha256.New()
	for _, cfg := range configs {
		h.Write([]byte(cfg.AsString()))
		h.Write([]byte{0})
	}
	return hex.EncodeToString(h.Sum(nil))
}

func (c *TransformCache) Lookup(key string) (*CacheEntry, bool) {
	e, ok := c.entries[key]
	return e, ok
}

// Store records the output of the transform at configs[:i+1]'s prefix key.
func (c *TransformCache) Store(key string, entry *CacheEntry) {
	c.entries[key] = entry
	c.lastKey = key
}

// Last returns the most recently stored entry, used to roll back to "the
// last cached graph" when a rebuild is cancelled (spec §4.6 step 6).
func (c *TransformCache) Last() (*CacheEntry, bool) {
	if c.lastKey == "" {
		return nil, false
	}
	e, ok := c.entries[c.lastKey]
	return e, ok
}

// InvalidateFrom drops every entry whose index is >= index, wholesale
// invalidation after a transform earlier in the list mutates the graph
// (spec §4.6 step 5c).
func (c *TransformCache) InvalidateFrom(index int) {
	for k, e := range c.entries {
		if e.Index >= index {
			delete(c.entries, k)
			if k == c.lastKey {
				c.lastKey = ""
			}
		}
	}
}

// InvalidateAll drops every entry (spec §3: "Invalidated wholesale whenever
// the source graph mutates").
func (c *TransformCache) InvalidateAll() {
	c.entries = make(map[string]*CacheEntry)
	c.lastKey = ""
}

// InvalidateForAttribute drops every entry that references attrName and,
// from the lowest such index on, every later entry too, returning that
// lowest index (or -1 if none matched), so the
// caller knows where to resume the rebuild from (spec §4.6, "External
// attribute change").
func (c *TransformCache) InvalidateForAttribute(attrName string) int {
	minIndex := -1
	for k, e := range c.entries {
		referenced := false
		for _, r := range e.References {
			if r == attrName {
				referenced = true
				break
			}
		}
		if !referenced {
			continue
		}
		if minIndex == -1 || e.Index < minIndex {
			minIndex = e.Index
		}
		delete(c.entries, k)
		if k == c.lastKey {
			c.lastKey = ""
		}
	}
	if minIndex != -1 {
		c.InvalidateFrom(minIndex)
	}
	return minIndex
}

// clone returns a shallow copy of the cache's entry map; entries themselves
// are immutable once stored, so sharing the *CacheEntry pointers is safe
// (used to snapshot/restore the cache around a cancellable rebuild, spec
// §4.6 step 2/6).
func (c *TransformCache) clone() *TransformCache {
	out := NewTransformCache()
	for k, e := range c.entries {
		out.entries[k] = e
	}
	out.lastKey = c.lastKey
	return out
}
