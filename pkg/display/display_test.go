package display

import (
	"math"
	"testing"
)

func TestRotationNormalization(t *testing.T) {
	cases := []struct {
		in   float64
		want float64
	}{
		{0, 0},
		{180, -180},
		{190, -170},
		{-190, 170},
		{360, 0},
		{-725, -5},
		{725, 5},
	}
	for _, tc := range cases {
		if got := NormalizeRotation(tc.in); got != tc.want {
			t.Errorf("NormalizeRotation(%v) = %v, want %v", tc.in, got, tc.want)
		}
	}
	if !math.IsNaN(NormalizeRotation(math.NaN())) {
		t.Error("NaN should pass through")
	}
}

func TestChildDepthOrder(t *testing.T) {
	m := NewMovieClip("root", 0, 1)
	m.AddChild(NewShape("c", 5))
	m.AddChild(NewShape("a", 1))
	m.AddChild(NewShape("b", 3))

	names := []string{}
	for _, ch := range m.Children() {
		names = append(names, ch.Name())
	}
	want := []string{"a", "b", "c"}
	for i := range want {
		if names[i] != want[i] {
			t.Fatalf("children = %v, want %v", names, want)
		}
	}
}

func TestChildReplacementAtSameDepth(t *testing.T) {
	m := NewMovieClip("root", 0, 1)
	m.AddChild(NewShape("old", 2))
	m.AddChild(NewShape("new", 2))
	if len(m.Children()) != 1 || m.Children()[0].Name() != "new" {
		t.Fatal("same-depth placement should replace")
	}
}

func TestChildByNameCase(t *testing.T) {
	m := NewMovieClip("root", 0, 1)
	m.AddChild(NewShape("Child", 1))
	if m.ChildByName("child", true) != nil {
		t.Error("case-sensitive lookup matched wrong case")
	}
	if m.ChildByName("child", false) == nil {
		t.Error("case-insensitive lookup missed")
	}
}

func TestPath(t *testing.T) {
	stage := NewStage(550, 400)
	root := NewMovieClip("_level0", 0, 1)
	stage.SetLevel(0, root)
	child := NewMovieClip("clip", 1, 1)
	root.AddChild(child)
	inner := NewMovieClip("inner", 1, 1)
	child.AddChild(inner)

	if got := Path(inner); got != "/_level0/clip/inner" {
		t.Errorf("Path = %q", got)
	}
}

func TestTimelineLoop(t *testing.T) {
	m := NewMovieClip("clip", 0, 3)
	if m.AdvanceFrame() != 2 || m.AdvanceFrame() != 3 || m.AdvanceFrame() != 1 {
		t.Fatal("timeline did not loop")
	}
	m.Stop()
	if m.AdvanceFrame() != 1 {
		t.Fatal("stopped clip advanced")
	}
}

func TestGotoClamps(t *testing.T) {
	m := NewMovieClip("clip", 0, 5)
	m.GotoFrame(99, false)
	if m.CurrentFrame() != 5 || m.Playing() {
		t.Fatalf("goto past end: frame %d playing %v", m.CurrentFrame(), m.Playing())
	}
	m.GotoFrame(-3, true)
	if m.CurrentFrame() != 1 || !m.Playing() {
		t.Fatal("goto before start")
	}
}

func TestWidthTracksScale(t *testing.T) {
	s := NewShape("s", 0)
	s.SetBounds(100, 50)
	if s.Width() != 100 {
		t.Fatalf("width = %v", s.Width())
	}
	s.SetWidth(200)
	if s.XScale() != 200 {
		t.Errorf("xscale = %v, want 200", s.XScale())
	}
}
