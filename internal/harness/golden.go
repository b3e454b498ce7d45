package harness

import (
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/elems-lang/elems/el"
)

// TraceSnapshot captures the resolver trace for golden comparison.
type TraceSnapshot struct {
	ScenarioName string          `json:"scenario_name"`
	Trace        []el.TraceEvent `json:"trace"`
}

// RunWithGolden executes a scenario and compares its resolver trace against
// a golden file at testdata/golden/{scenario.Name}.golden.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
//
// Fixture paths in trace details are rewritten to $ROOT so snapshots are
// stable across temp directories.
func RunWithGolden(t *testing.T, scenario *Scenario) *Result {
	t.Helper()

	result := Run(t, scenario)

	snapshot := TraceSnapshot{
		ScenarioName: scenario.Name,
		Trace:        scrubTrace(result.Trace, result.Root),
	}
	data, err := json.MarshalIndent(snapshot, "", "  ")
	if err != nil {
		t.Fatalf("marshaling trace snapshot: %v", err)
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, scenario.Name, data)

	return result
}

// scrubTrace replaces the fixture root in event details with $ROOT. The
// resolver records symlink-resolved paths, so both spellings of the root
// are scrubbed.
func scrubTrace(trace []el.TraceEvent, root string) []el.TraceEvent {
	roots := []string{root}
	if resolved, err := filepath.EvalSymlinks(root); err == nil && resolved != root {
		roots = append(roots, resolved)
	}
	out := make([]el.TraceEvent, len(trace))
	for i, ev := range trace {
		for _, r := range roots {
			ev.Detail = strings.ReplaceAll(ev.Detail, r, "$ROOT")
		}
		out[i] = ev
	}
	return out
}
