package gc

// Cell is the interior-mutability point for shared state. Every mutation
// of an already-allocated object goes through a Cell so the collector
// sees a write barrier; collection never runs inside the barrier's
// critical section (the arena is single-threaded and the barrier asserts
// no pass is active).
type Cell[T any] struct {
	arena *Arena
	v     T
}

// NewCell wraps v in a write-barrier cell bound to the arena.
func NewCell[T any](a *Arena, v T) *Cell[T] {
	return &Cell[T]{arena: a, v: v}
}

// Get reads the cell.
func (c *Cell[T]) Get() T { return c.v }

// Borrow returns a pointer for read-only walks over large payloads.
// Callers must not store through it; use Set or Mutate for writes.
func (c *Cell[T]) Borrow() *T { return &c.v }

// Set replaces the cell contents under the write barrier.
func (c *Cell[T]) Set(v T) {
	c.barrier()
	c.v = v
}

// Mutate runs f over the contents under the write barrier. Used when the
// payload is a table or slice updated in place.
func (c *Cell[T]) Mutate(f func(*T)) {
	c.barrier()
	f(&c.v)
}

func (c *Cell[T]) barrier() {
	if c.arena != nil {
		if c.arena.collecting {
			panic("gc: write barrier entered during collection")
		}
		c.arena.mutations++
	}
}

type weakRecord struct {
	target  Traceable
	cleared bool
}

// Weak is a handle that does not keep its target alive. It is cleared
// atomically during the sweep that frees the target.
type Weak[T Traceable] struct {
	rec *weakRecord
}

// NewWeak registers a weak handle on target.
func NewWeak[T Traceable](a *Arena, target T) Weak[T] {
	rec := &weakRecord{target: target}
	a.weaks = append(a.weaks, rec)
	return Weak[T]{rec: rec}
}

// Get returns the target if it is still alive.
func (w Weak[T]) Get() (T, bool) {
	var zero T
	if w.rec == nil || w.rec.cleared {
		return zero, false
	}
	t, ok := w.rec.target.(T)
	if !ok {
		return zero, false
	}
	return t, true
}
