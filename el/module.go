package el

import (
	"sort"

	"github.com/dop251/goja"
)

// ModuleState is the per-qualified-name resolution state machine:
// Unresolved -> Resolving -> Resolved | Failed. There is no transition out
// of Resolved or Failed short of destroying the Engine.
type ModuleState uint8

const (
	ModuleUnresolved ModuleState = iota
	ModuleResolving
	ModuleResolved
	ModuleFailed
)

func (s ModuleState) String() string {
	switch s {
	case ModuleUnresolved:
		return "unresolved"
	case ModuleResolving:
		return "resolving"
	case ModuleResolved:
		return "resolved"
	case ModuleFailed:
		return "failed"
	}
	return "invalid"
}

// ModuleForm records how a module's implementation was located.
type ModuleForm string

const (
	FormNative  ModuleForm = "native"  // registered type table, no source
	FormDialect ModuleForm = "dialect" // pre-built engine-dialect artifact
	FormSource  ModuleForm = "source"  // compiled from source form
)

// NativeModule builds the export mapping of a natively registered module.
// It runs at most once per Engine, inside the resolving scope.
type NativeModule func(s *Scope) (map[string]Value, error)

// Module is one compiled unit, created on first import reference and
// destroyed with the owning Engine. Exports are frozen once Resolved;
// Failed caches its error and re-imports propagate it without retrying.
type Module struct {
	qualified string
	pkg       string
	name      string
	state     ModuleState
	form      ModuleForm
	exports   map[string]Value
	err       error

	// exportsObj is the engine-side view of exports, built on first
	// script require and shared thereafter so repeated imports observe
	// a reference-identical object.
	exportsObj *goja.Object
}

// Qualified returns the package::module cache key.
func (m *Module) Qualified() string {
	return m.qualified
}

// Package returns the canonical package name.
func (m *Module) Package() string {
	return m.pkg
}

// Name returns the canonical module name.
func (m *Module) Name() string {
	return m.name
}

// State returns the resolution state.
func (m *Module) State() ModuleState {
	return m.state
}

// Form reports how the implementation was located. Only meaningful once
// Resolved.
func (m *Module) Form() ModuleForm {
	return m.form
}

// Exports returns the frozen export mapping. The same map is returned on
// every call, so two imports of one module observe identical exports.
func (m *Module) Exports() map[string]Value {
	return m.exports
}

// Get returns one exported symbol and a presence flag.
func (m *Module) Get(name string) (Value, bool) {
	v, ok := m.exports[name]
	return v, ok
}

// ExportNames returns the exported symbol names in sorted order.
func (m *Module) ExportNames() []string {
	names := make([]string, 0, len(m.exports))
	for k := range m.exports {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}
