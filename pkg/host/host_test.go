package host

import (
	"path/filepath"
	"testing"
)

func TestMemoryStorageRoundTrip(t *testing.T) {
	s := NewMemoryStorage()
	if err := s.Save("example.com", "save", []byte{1, 2, 3}); err != nil {
		t.Fatal(err)
	}
	got, ok, err := s.Load("example.com", "save")
	if err != nil || !ok {
		t.Fatalf("load: ok=%v err=%v", ok, err)
	}
	if len(got) != 3 || got[0] != 1 {
		t.Fatalf("data = %v", got)
	}
	if _, ok, _ := s.Load("other.com", "save"); ok {
		t.Fatal("origin isolation broken")
	}
	if err := s.Delete("example.com", "save"); err != nil {
		t.Fatal(err)
	}
	if _, ok, _ := s.Load("example.com", "save"); ok {
		t.Fatal("delete did not remove blob")
	}
}

func TestSqliteStorageRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "lso.db")
	s, err := OpenSqliteStorage(path)
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()

	if err := s.Save("example.com", "save", []byte("blob-a")); err != nil {
		t.Fatal(err)
	}
	// Overwrite must replace, not append.
	if err := s.Save("example.com", "save", []byte("blob-b")); err != nil {
		t.Fatal(err)
	}
	got, ok, err := s.Load("example.com", "save")
	if err != nil || !ok {
		t.Fatalf("load: ok=%v err=%v", ok, err)
	}
	if string(got) != "blob-b" {
		t.Fatalf("data = %q", got)
	}
	if _, ok, _ := s.Load("example.com", "other"); ok {
		t.Fatal("missing blob reported present")
	}
}

func TestNullNavigatorDeliversErrors(t *testing.T) {
	n := &NullNavigator{}
	id := n.Fetch("http://example.com", "GET", nil, nil)
	resps := n.Poll()
	if len(resps) != 1 || resps[0].RequestID != id || resps[0].Err == nil {
		t.Fatalf("resps = %+v", resps)
	}
	if len(n.Poll()) != 0 {
		t.Fatal("poll did not drain")
	}
}

func TestCaptureLog(t *testing.T) {
	l := &CaptureLog{}
	l.Trace("hello")
	l.Error("bad %d", 7)
	if len(l.Traces) != 1 || l.Traces[0] != "hello" {
		t.Fatalf("traces = %v", l.Traces)
	}
	if len(l.Errors) != 1 || l.Errors[0] != "bad 7" {
		t.Fatalf("errors = %v", l.Errors)
	}
}
