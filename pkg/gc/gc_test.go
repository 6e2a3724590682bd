package gc

import (
	"testing"
)

// node is a minimal traceable object for graph tests.
type node struct {
	edges *Cell[[]*node]
}

func newNode(a *Arena) *node {
	n := &node{}
	n.edges = NewCell(a, []*node(nil))
	if err := a.Register(n, 64); err != nil {
		panic(err)
	}
	return n
}

func (n *node) Trace(t *Tracer) {
	for _, e := range n.edges.Get() {
		t.Visit(e)
	}
}

func (n *node) link(to *node) {
	n.edges.Mutate(func(edges *[]*node) {
		*edges = append(*edges, to)
	})
}

func TestUnreachableSwept(t *testing.T) {
	a := NewArena(Options{})
	root := newNode(a)
	a.AddRoot(root)
	kept := newNode(a)
	root.link(kept)
	newNode(a) // garbage

	stats := a.Collect()
	if stats.Swept != 1 {
		t.Errorf("swept = %d, want 1", stats.Swept)
	}
	if stats.Marked != 2 {
		t.Errorf("marked = %d, want 2", stats.Marked)
	}
}

func TestCycleCollected(t *testing.T) {
	a := NewArena(Options{})
	root := newNode(a)
	a.AddRoot(root)

	// A two-node cycle unreachable from the root.
	x := newNode(a)
	y := newNode(a)
	x.link(y)
	y.link(x)

	stats := a.Collect()
	if stats.Swept != 2 {
		t.Errorf("swept = %d, want 2 (cycle not collected)", stats.Swept)
	}
}

func TestCycleThroughRootSurvives(t *testing.T) {
	a := NewArena(Options{})
	root := newNode(a)
	a.AddRoot(root)
	x := newNode(a)
	root.link(x)
	x.link(root)

	stats := a.Collect()
	if stats.Swept != 0 {
		t.Errorf("swept = %d, want 0", stats.Swept)
	}
}

func TestWeakClearedOnSweep(t *testing.T) {
	a := NewArena(Options{})
	root := newNode(a)
	a.AddRoot(root)

	target := newNode(a)
	w := NewWeak(a, target)
	if _, ok := w.Get(); !ok {
		t.Fatal("weak dead before collection")
	}

	a.Collect()
	if _, ok := w.Get(); ok {
		t.Fatal("weak survived sweep of its target")
	}
}

func TestWeakKeptWhileTargetLive(t *testing.T) {
	a := NewArena(Options{})
	root := newNode(a)
	a.AddRoot(root)
	target := newNode(a)
	root.link(target)
	w := NewWeak(a, target)

	a.Collect()
	if got, ok := w.Get(); !ok || got != target {
		t.Fatal("weak cleared while target live")
	}
}

func TestCapacityOOM(t *testing.T) {
	a := NewArena(Options{Capacity: 128})
	root := newNode(a) // 64
	a.AddRoot(root)
	root.link(newNode(a)) // 64, at capacity now

	extra := &node{edges: NewCell(a, []*node(nil))}
	if err := a.Register(extra, 64); err != ErrOutOfMemory {
		t.Fatalf("Register err = %v, want ErrOutOfMemory", err)
	}
}

func TestCapacityRecoversAfterCollect(t *testing.T) {
	a := NewArena(Options{Capacity: 192})
	root := newNode(a)
	a.AddRoot(root)
	newNode(a) // garbage worth 64 bytes

	// The third registration forces a collection that frees the garbage.
	extra := &node{edges: NewCell(a, []*node(nil))}
	if err := a.Register(extra, 64); err != nil {
		t.Fatalf("Register err = %v, want nil after forced collection", err)
	}
}

func TestAllocationPressureTrigger(t *testing.T) {
	a := NewArena(Options{TriggerBytes: 256})
	root := newNode(a)
	a.AddRoot(root)
	if _, ran := a.CollectIfNeeded(); ran {
		t.Fatal("collected below trigger")
	}
	for i := 0; i < 8; i++ {
		newNode(a)
	}
	if _, ran := a.CollectIfNeeded(); !ran {
		t.Fatal("did not collect past trigger")
	}
}

func TestWriteBarrierCounts(t *testing.T) {
	a := NewArena(Options{})
	n := newNode(a)
	a.AddRoot(n)
	before := a.Mutations()
	n.link(newNode(a))
	if a.Mutations() == before {
		t.Fatal("barrier did not record the store")
	}
}
