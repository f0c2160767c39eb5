package graphid

import "sync"

// Indexable is implemented by every id kind (NodeID, EdgeID, ComponentID)
// so that Array[K, T] can index into a backing slice generically.
type Indexable interface {
	Int() int32
}

// Array is an element-indexed container with O(1) access that grows
// automatically as the owning graph's id space grows (spec §3, "Graph
// containers"). It is deliberately a thin generic slice wrapper rather
// than an intrusive, self-registering node — callers register it with a
// Registry and the registry drives resizing, which is the "owned handle"
// option called out in spec §9 as an alternative to back-pointer schemes.
type Array[K Indexable, T any] struct {
	values []T
	zero   T
}

// NewArray creates an array big enough for `size` elements, all set to the
// zero value of T.
func NewArray[K Indexable, T any](size int) *Array[K, T] {
	return &Array[K, T]{values: make([]T, size)}
}

// NewArrayWithDefault creates an array pre-filled with `def`.
func NewArrayWithDefault[K Indexable, T any](size int, def T) *Array[K, T] {
	a := &Array[K, T]{values: make([]T, size), zero: def}
	for i := range a.values {
		a.values[i] = def
	}
	return a
}

func (a *Array[K, T]) Get(id K) T {
	i := int(id.Int())
	if i < 0 || i >= len(a.values) {
		var zero T
		return zero
	}
	return a.values[i]
}

func (a *Array[K, T]) Set(id K, v T) {
	i := int(id.Int())
	if i < 0 {
		return
	}
	if i >= len(a.values) {
		a.Resize(i + 1)
	}
	a.values[i] = v
}

// Resize grows (never shrinks) the backing slice to hold `n` elements,
// filling any newly-created slots with the array's default value.
func (a *Array[K, T]) Resize(n int) {
	if n <= len(a.values) {
		return
	}
	grown := make([]T, n)
	copy(grown, a.values)
	for i := len(a.values); i < n; i++ {
		grown[i] = a.zero
	}
	a.values = grown
}

func (a *Array[K, T]) Len() int { return len(a.values) }

// Clone returns an independent copy of the array. The clone is NOT
// automatically registered with any Registry — callers that want the
// clone to keep tracking graph growth must Register it themselves (spec
// §3, "Arrays may be cloned; cloning registers the copy with the graph").
func (a *Array[K, T]) Clone() *Array[K, T] {
	values := make([]T, len(a.values))
	copy(values, a.values)
	return &Array[K, T]{values: values, zero: a.zero}
}

// resizable is the narrow interface a Registry needs from any Array[K, T]
// instantiation, regardless of K or T.
type resizable interface {
	Resize(n int)
}

// Registry is the graph's back-reference list of live arrays (spec §3):
// "the graph maintains a back-reference list to its live arrays; when the
// graph mutates, every attached array is resized to nextId."
type Registry struct {
	mu     sync.Mutex
	arrays []resizable
}

// Register attaches an array to the registry so it is resized whenever the
// registry's ResizeAll is called.
func Register[K Indexable, T any](r *Registry, a *Array[K, T]) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.arrays = append(r.arrays, a)
}

// ResizeAll grows every registered array to `n` elements. Called whenever
// the graph's id space grows.
func (r *Registry) ResizeAll(n int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, a := range r.arrays {
		a.Resize(n)
	}
}
