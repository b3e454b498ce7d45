package el

import "testing"

// fakeElement is a minimal host Element for tests.
type fakeElement struct {
	name  string
	calls int
}

func (f *fakeElement) TypeName() string {
	if f.name == "" {
		return "Fake"
	}
	return f.name
}

// newTestEngine creates an engine with no search path and fails the test on
// error. Callers close it themselves when they need to assert on Close.
func newTestEngine(t *testing.T, opts ...Option) *Engine {
	t.Helper()
	eng, err := New(opts...)
	if err != nil {
		t.Fatalf("New() failed: %v", err)
	}
	t.Cleanup(func() { _ = eng.Close() })
	return eng
}

// inScope runs fn inside a fresh scope and fails the test on scope error.
func inScope(t *testing.T, eng *Engine, fn func(*Scope)) {
	t.Helper()
	err := eng.Scope(func(s *Scope) error {
		fn(s)
		return nil
	})
	if err != nil {
		t.Fatalf("Scope() failed: %v", err)
	}
}
