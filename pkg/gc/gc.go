// Package gc implements the arena-scoped tracing collector the scripting
// runtime allocates through. An Arena owns every script-visible object;
// collection is stop-the-world, precise, and triggered either explicitly
// by the host at frame boundaries or by allocation pressure. Cycles are
// collected; weak handles are cleared atomically during sweep.
package gc

import (
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/pkg/errors"
)

// ErrOutOfMemory is returned when an allocation would push the arena past
// its configured capacity even after a collection. The VMs convert it to
// a script-observable error.
var ErrOutOfMemory = errors.New("gc: arena capacity exceeded")

// Traceable is implemented by every heap object. Trace must visit each
// owned handle exactly once via Tracer.Visit. Primitives are simply not
// Traceable.
type Traceable interface {
	Trace(t *Tracer)
}

// Options configures an arena.
type Options struct {
	// Capacity is the maximum live byte estimate. Zero means unlimited.
	Capacity uint64
	// TriggerBytes is the allocation delta that arms CollectIfNeeded.
	// Zero selects a default.
	TriggerBytes uint64
	// Logf receives collection reports. May be nil.
	Logf func(format string, args ...any)
}

const defaultTrigger = 4 << 20

// Arena is the unit of GC quiescence. It is not safe for concurrent use;
// all allocation and collection happens on the owning thread.
type Arena struct {
	objects   map[Traceable]uint64 // object -> size estimate
	roots     []Traceable
	weaks     []*weakRecord
	allocated uint64 // live estimate
	sinceGC   uint64 // bytes registered since last collection
	capacity  uint64
	trigger   uint64
	collecting bool
	mutations  uint64
	logf       func(string, ...any)
}

// NewArena creates an empty arena.
func NewArena(opts Options) *Arena {
	trigger := opts.TriggerBytes
	if trigger == 0 {
		trigger = defaultTrigger
	}
	return &Arena{
		objects:  make(map[Traceable]uint64),
		capacity: opts.Capacity,
		trigger:  trigger,
		logf:     opts.Logf,
	}
}

// Register records a newly allocated object with an approximate size.
// Registration fails with ErrOutOfMemory when the arena is full and a
// collection cannot reclaim enough.
func (a *Arena) Register(obj Traceable, size uint64) error {
	if a.collecting {
		panic("gc: allocation during collection")
	}
	if size == 0 {
		size = 64
	}
	if a.capacity != 0 && a.allocated+size > a.capacity {
		a.Collect()
		if a.allocated+size > a.capacity {
			return ErrOutOfMemory
		}
	}
	a.objects[obj] = size
	a.allocated += size
	a.sinceGC += size
	return nil
}

// AddRoot pins an object (and everything reachable from it) across
// collections. Roots are the display tree anchors, the registries, and
// the live activation stacks.
func (a *Arena) AddRoot(r Traceable) {
	a.roots = append(a.roots, r)
}

// RemoveRoot unpins a previously added root.
func (a *Arena) RemoveRoot(r Traceable) {
	for i, root := range a.roots {
		if root == r {
			a.roots = append(a.roots[:i], a.roots[i+1:]...)
			return
		}
	}
}

// Live returns the current live byte estimate.
func (a *Arena) Live() uint64 { return a.allocated }

// Stats describes one collection.
type Stats struct {
	Marked   int
	Swept    int
	LiveBytes uint64
	FreedBytes uint64
	Duration time.Duration
}

// String renders the report the collection log line uses.
func (s Stats) String() string {
	return fmt.Sprintf("marked %d, swept %d, live %s, freed %s in %v",
		s.Marked, s.Swept, humanize.Bytes(s.LiveBytes), humanize.Bytes(s.FreedBytes), s.Duration)
}

// Collect runs a full mark/sweep pass. Stop-the-world from the core's
// point of view: no script code runs while this executes.
func (a *Arena) Collect() Stats {
	start := time.Now()
	a.collecting = true

	tr := &Tracer{arena: a, marked: make(map[Traceable]struct{}, len(a.objects))}
	for _, root := range a.roots {
		tr.Visit(root)
	}
	tr.drain()

	var freed uint64
	swept := 0
	for obj, size := range a.objects {
		if _, ok := tr.marked[obj]; !ok {
			delete(a.objects, obj)
			a.allocated -= size
			freed += size
			swept++
		}
	}

	// Weak handles whose targets died are cleared in the same pass, so a
	// cleared weak is never observed pointing at a swept object.
	liveWeaks := a.weaks[:0]
	for _, w := range a.weaks {
		if _, ok := tr.marked[w.target]; !ok {
			w.cleared = true
			continue
		}
		liveWeaks = append(liveWeaks, w)
	}
	a.weaks = liveWeaks

	a.collecting = false
	a.sinceGC = 0

	stats := Stats{
		Marked:     len(tr.marked),
		Swept:      swept,
		LiveBytes:  a.allocated,
		FreedBytes: freed,
		Duration:   time.Since(start),
	}
	if a.logf != nil {
		a.logf("collection: %s", stats)
	}
	return stats
}

// CollectIfNeeded collects when enough allocation has happened since the
// last pass. The host calls this at frame boundaries.
func (a *Arena) CollectIfNeeded() (Stats, bool) {
	if a.sinceGC < a.trigger {
		return Stats{}, false
	}
	return a.Collect(), true
}

// Collecting reports whether a mark/sweep pass is underway. Write
// barriers assert against it.
func (a *Arena) Collecting() bool { return a.collecting }

// Mutations returns the write-barrier counter, used by tests and by the
// interpreter's inline-cache invalidation.
func (a *Arena) Mutations() uint64 { return a.mutations }

// Tracer walks the object graph during marking.
type Tracer struct {
	arena  *Arena
	marked map[Traceable]struct{}
	stack  []Traceable
}

// Visit marks obj and queues it for tracing. Nil and already-marked
// objects are ignored, which is what terminates cycles.
func (t *Tracer) Visit(obj Traceable) {
	if obj == nil {
		return
	}
	if _, ok := t.marked[obj]; ok {
		return
	}
	t.marked[obj] = struct{}{}
	t.stack = append(t.stack, obj)
}

func (t *Tracer) drain() {
	for len(t.stack) > 0 {
		obj := t.stack[len(t.stack)-1]
		t.stack = t.stack[:len(t.stack)-1]
		obj.Trace(t)
	}
}
