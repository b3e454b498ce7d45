package harness

import (
	"fmt"
	"testing"

	"github.com/elems-lang/elems/el"
	"github.com/elems-lang/elems/internal/testutil"
)

// Result is the outcome of one scenario execution.
type Result struct {
	// Pass is true when every step expectation and trace assertion held.
	Pass bool `json:"pass"`

	// Outputs holds the string form of each step's result, or the error
	// message for steps that failed.
	Outputs []string `json:"outputs"`

	// Errors lists expectation and assertion failures. Empty when Pass.
	Errors []string `json:"errors,omitempty"`

	// Trace is the recorded resolver trace for golden comparison.
	Trace []el.TraceEvent `json:"trace"`

	// Root is the fixture search root, used to scrub paths from the
	// trace before golden comparison.
	Root string `json:"-"`
}

func (r *Result) addError(format string, args ...any) {
	r.Errors = append(r.Errors, fmt.Sprintf(format, args...))
	r.Pass = false
}

// Run writes the scenario's package fixtures into a temporary search root,
// executes the flow against a fresh engine, and evaluates all assertions.
func Run(t *testing.T, scenario *Scenario) *Result {
	t.Helper()

	root := t.TempDir()
	for _, p := range scenario.Packages {
		spec := testutil.PackageSpec{Name: p.Name, Version: p.Version}
		for _, m := range p.Modules {
			if m.Source != "" {
				if spec.Sources == nil {
					spec.Sources = map[string]string{}
				}
				spec.Sources[m.Name] = m.Source
			}
			if m.Dialect != "" {
				if spec.Dialect == nil {
					spec.Dialect = map[string]string{}
				}
				spec.Dialect[m.Name] = m.Dialect
			}
		}
		testutil.WritePackage(t, root, spec)
	}

	trace := el.NewTrace()
	eng, err := el.New(
		el.WithSearchPath(root),
		el.WithTrace(trace),
		el.WithIDGenerator(el.NewFixedGenerator("harness-engine")),
	)
	if err != nil {
		t.Fatalf("creating engine: %v", err)
	}
	defer eng.Close()

	result := &Result{Pass: true, Root: root}

	scopeErr := eng.Scope(func(s *el.Scope) error {
		for i, step := range scenario.Steps {
			sv, err := s.Eval(fmt.Sprintf("%s.step%d", scenario.Name, i), step.Eval)
			if err != nil {
				result.Outputs = append(result.Outputs, err.Error())
				checkStepError(result, i, step.Expect, err)
				continue
			}
			result.Outputs = append(result.Outputs, sv.ToString())
			checkStepValue(result, i, step.Expect, sv)
		}
		return nil
	})
	if scopeErr != nil {
		result.addError("scope: %v", scopeErr)
	}

	result.Trace = trace.Events()
	checkAssertions(result, scenario.Assertions)
	return result
}

func checkStepError(r *Result, index int, expect *Expect, err error) {
	if expect == nil || expect.Error == "" {
		r.addError("steps[%d]: unexpected error: %v", index, err)
		return
	}
	ok := false
	switch expect.Error {
	case "type_mismatch":
		ok = el.IsTypeMismatch(err)
	case "package_not_found":
		ok = el.IsPackageNotFound(err)
	case "module_load":
		ok = el.IsModuleLoad(err)
	case "circular_import":
		ok = el.IsCircularImport(err)
	}
	if !ok {
		r.addError("steps[%d]: expected %s error, got: %v", index, expect.Error, err)
	}
}

func checkStepValue(r *Result, index int, expect *Expect, sv el.ScopedValue) {
	if expect == nil {
		return
	}
	if expect.Error != "" {
		r.addError("steps[%d]: expected %s error, got value %s", index, expect.Error, sv.ToString())
		return
	}

	v, err := sv.ToValue()
	if err != nil {
		r.addError("steps[%d]: converting result: %v", index, err)
		return
	}
	if expect.Kind != "" && v.Kind().String() != expect.Kind {
		r.addError("steps[%d]: expected kind %s, got %s", index, expect.Kind, v.Kind())
	}
	if expect.Value != "" && sv.ToString() != expect.Value {
		r.addError("steps[%d]: expected value %q, got %q", index, expect.Value, sv.ToString())
	}
}
