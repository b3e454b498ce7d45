package registry

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/elems-lang/elems/manifest"
)

func testStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "index.db"))
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })

	// Deterministic ids and timestamps.
	n := 0
	s.newID = func() string {
		n++
		return fmt.Sprintf("id-%d", n)
	}
	s.now = func() time.Time {
		return time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	}
	return s
}

func TestOpen_CreatesDatabase(t *testing.T) {
	path := filepath.Join(t.TempDir(), "index.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	defer s.Close()

	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Error("database file was not created")
	}
}

func TestOpen_Idempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "index.db")
	for i := 0; i < 3; i++ {
		s, err := Open(path)
		if err != nil {
			t.Fatalf("Open() iteration %d failed: %v", i, err)
		}
		s.Close()
	}
}

func TestRecordAndGet(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	man := &manifest.Manifest{
		Name:    "pkg1",
		Version: "1.2.3",
		Root:    "/packages/pkg1",
		Modules: []string{"m2", "m1"},
	}
	err := s.Record(ctx, man, map[string]string{"m1": "source", "m2": "dialect"})
	if err != nil {
		t.Fatalf("Record() failed: %v", err)
	}

	p, err := s.Get(ctx, "pkg1")
	if err != nil {
		t.Fatalf("Get() failed: %v", err)
	}
	if p.Version != "1.2.3" || p.Root != "/packages/pkg1" {
		t.Errorf("unexpected package row: %+v", p)
	}
	if !p.IndexedAt.Equal(time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)) {
		t.Errorf("unexpected indexed_at: %v", p.IndexedAt)
	}

	// Declared order, not lexical.
	if len(p.Modules) != 2 || p.Modules[0].Name != "m2" || p.Modules[1].Name != "m1" {
		t.Errorf("unexpected modules: %+v", p.Modules)
	}
	if p.Modules[0].Form != "dialect" || p.Modules[1].Form != "source" {
		t.Errorf("unexpected forms: %+v", p.Modules)
	}
}

func TestRecord_MissingFormDefault(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	man := &manifest.Manifest{
		Name: "pkg1", Version: "1.0.0", Root: "/r", Modules: []string{"ghost"},
	}
	if err := s.Record(ctx, man, nil); err != nil {
		t.Fatalf("Record() failed: %v", err)
	}

	p, err := s.Get(ctx, "pkg1")
	if err != nil {
		t.Fatalf("Get() failed: %v", err)
	}
	if p.Modules[0].Form != "missing" {
		t.Errorf("expected form missing, got %q", p.Modules[0].Form)
	}
}

func TestRecord_ReplacesSameRoot(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	man := &manifest.Manifest{
		Name: "pkg1", Version: "1.0.0", Root: "/r", Modules: []string{"m1"},
	}
	if err := s.Record(ctx, man, nil); err != nil {
		t.Fatalf("first Record() failed: %v", err)
	}

	man.Version = "2.0.0"
	man.Modules = []string{"m1", "m2"}
	if err := s.Record(ctx, man, nil); err != nil {
		t.Fatalf("second Record() failed: %v", err)
	}

	pkgs, err := s.List(ctx)
	if err != nil {
		t.Fatalf("List() failed: %v", err)
	}
	if len(pkgs) != 1 {
		t.Fatalf("expected 1 package after re-index, got %d", len(pkgs))
	}
	if pkgs[0].Version != "2.0.0" || len(pkgs[0].Modules) != 2 {
		t.Errorf("re-index did not replace: %+v", pkgs[0])
	}
}

func TestList_Ordered(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	for _, name := range []string{"zeta", "alpha"} {
		man := &manifest.Manifest{
			Name: name, Version: "1.0.0", Root: "/" + name, Modules: []string{"m1"},
		}
		if err := s.Record(ctx, man, nil); err != nil {
			t.Fatalf("Record(%s) failed: %v", name, err)
		}
	}

	pkgs, err := s.List(ctx)
	if err != nil {
		t.Fatalf("List() failed: %v", err)
	}
	if len(pkgs) != 2 || pkgs[0].Name != "alpha" || pkgs[1].Name != "zeta" {
		t.Errorf("unexpected order: %+v", pkgs)
	}
}

func TestGet_NotFound(t *testing.T) {
	s := testStore(t)

	_, err := s.Get(context.Background(), "nope")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}
