package harness

import (
	"strings"

	"github.com/elems-lang/elems/el"
)

func checkAssertions(r *Result, assertions []Assertion) {
	for i, a := range assertions {
		switch a.Type {
		case AssertTraceContains:
			if countMatches(r.Trace, a) == 0 {
				r.addError("assertions[%d]: no %s event for %s", i, a.Kind, matchLabel(a))
			}
		case AssertTraceCount:
			if got := countMatches(r.Trace, a); got != a.Count {
				r.addError("assertions[%d]: expected %d %s event(s) for %s, got %d",
					i, a.Count, a.Kind, matchLabel(a), got)
			}
		case AssertTraceOrder:
			if !kindsInOrder(r.Trace, a.Kinds) {
				r.addError("assertions[%d]: kinds %v not found in order", i, a.Kinds)
			}
		}
	}
}

func countMatches(trace []el.TraceEvent, a Assertion) int {
	n := 0
	for _, ev := range trace {
		if ev.Kind != a.Kind {
			continue
		}
		if a.Package != "" && ev.Package != a.Package {
			continue
		}
		if a.Module != "" && ev.Module != a.Module {
			continue
		}
		n++
	}
	return n
}

// kindsInOrder reports whether kinds appears as a subsequence of the
// trace's event kinds.
func kindsInOrder(trace []el.TraceEvent, kinds []string) bool {
	next := 0
	for _, ev := range trace {
		if next < len(kinds) && ev.Kind == kinds[next] {
			next++
		}
	}
	return next == len(kinds)
}

func matchLabel(a Assertion) string {
	parts := []string{}
	if a.Package != "" {
		parts = append(parts, "package="+a.Package)
	}
	if a.Module != "" {
		parts = append(parts, "module="+a.Module)
	}
	if len(parts) == 0 {
		return "any"
	}
	return strings.Join(parts, " ")
}
