package harness

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Scenario defines one conformance test scenario.
type Scenario struct {
	// Name uniquely identifies this scenario. Also names the golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Packages are fixture packages written into the search root before
	// the flow runs.
	Packages []PackageFixture `yaml:"packages,omitempty"`

	// Steps is the main flow: script evaluations with expected outcomes.
	Steps []Step `yaml:"steps"`

	// Assertions validate the resolver trace after the flow completes.
	Assertions []Assertion `yaml:"assertions,omitempty"`
}

// PackageFixture describes one on-disk package fixture.
type PackageFixture struct {
	Name    string          `yaml:"name"`
	Version string          `yaml:"version,omitempty"`
	Modules []ModuleFixture `yaml:"modules"`
}

// ModuleFixture is one module file inside a package fixture. Source is
// written in source form; Dialect, when set, is written as the pre-built
// dialect artifact instead (or in addition).
type ModuleFixture struct {
	Name    string `yaml:"name"`
	Source  string `yaml:"source,omitempty"`
	Dialect string `yaml:"dialect,omitempty"`
}

// Step evaluates one script snippet and optionally checks the outcome.
type Step struct {
	Eval   string  `yaml:"eval"`
	Expect *Expect `yaml:"expect,omitempty"`
}

// Expect specifies the expected outcome of a step.
//
// When Error is set the step must fail with the named error kind
// (type_mismatch, package_not_found, module_load, circular_import) and
// Kind/Value are ignored. Otherwise Kind names the expected value kind and
// Value, when non-empty, its string form.
type Expect struct {
	Kind  string `yaml:"kind,omitempty"`
	Value string `yaml:"value,omitempty"`
	Error string `yaml:"error,omitempty"`
}

// Assertion validates the recorded resolver trace.
type Assertion struct {
	// Type is one of trace_contains, trace_count, trace_order.
	Type string `yaml:"type"`

	// Kind is the trace event kind (trace_contains, trace_count).
	Kind string `yaml:"kind,omitempty"`

	// Package and Module narrow the match (trace_contains, trace_count).
	Package string `yaml:"package,omitempty"`
	Module  string `yaml:"module,omitempty"`

	// Count is the exact number of matching events (trace_count).
	Count int `yaml:"count,omitempty"`

	// Kinds is the expected subsequence of event kinds (trace_order).
	Kinds []string `yaml:"kinds,omitempty"`
}

// Assertion type constants.
const (
	AssertTraceContains = "trace_contains"
	AssertTraceCount    = "trace_count"
	AssertTraceOrder    = "trace_order"
)

// Known error kinds accepted in Expect.Error.
var errorKinds = map[string]bool{
	"type_mismatch":     true,
	"package_not_found": true,
	"module_load":       true,
	"circular_import":   true,
}

// LoadScenario reads and parses a scenario YAML file. Unknown fields are
// rejected so typos fail loudly.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading scenario file: %w", err)
	}

	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("parsing scenario YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario %s: %w", path, err)
	}
	return &scenario, nil
}

func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	if len(s.Steps) == 0 {
		return fmt.Errorf("steps list is required and must be non-empty")
	}

	for i, p := range s.Packages {
		if p.Name == "" {
			return fmt.Errorf("packages[%d]: name is required", i)
		}
		if len(p.Modules) == 0 {
			return fmt.Errorf("packages[%d]: modules list is required", i)
		}
		for j, m := range p.Modules {
			if m.Name == "" {
				return fmt.Errorf("packages[%d].modules[%d]: name is required", i, j)
			}
			if m.Source == "" && m.Dialect == "" {
				return fmt.Errorf("packages[%d].modules[%d]: source or dialect is required", i, j)
			}
		}
	}

	for i, step := range s.Steps {
		if step.Eval == "" {
			return fmt.Errorf("steps[%d]: eval is required", i)
		}
		if step.Expect != nil && step.Expect.Error != "" {
			if !errorKinds[step.Expect.Error] {
				return fmt.Errorf("steps[%d].expect: unknown error kind %q", i, step.Expect.Error)
			}
		}
	}

	for i, a := range s.Assertions {
		if err := validateAssertion(i, &a); err != nil {
			return err
		}
	}
	return nil
}

func validateAssertion(index int, a *Assertion) error {
	switch a.Type {
	case AssertTraceContains:
		if a.Kind == "" {
			return fmt.Errorf("assertions[%d]: kind is required for trace_contains", index)
		}
	case AssertTraceCount:
		if a.Kind == "" {
			return fmt.Errorf("assertions[%d]: kind is required for trace_count", index)
		}
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative", index)
		}
	case AssertTraceOrder:
		if len(a.Kinds) == 0 {
			return fmt.Errorf("assertions[%d]: kinds list is required for trace_order", index)
		}
	case "":
		return fmt.Errorf("assertions[%d]: type is required", index)
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}
	return nil
}
