package el

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/dop251/goja"

	"github.com/elems-lang/elems/manifest"
)

// RegisterNative registers a natively implemented module. Native
// registrations take priority over source files when the resolver locates
// a module's implementation. Must be called before the module is first
// imported.
func (e *Engine) RegisterNative(pkg, mod string, build NativeModule) {
	e.checkOpen()
	e.natives[Qualify(pkg, mod)] = build
}

// RegisterPackage registers a package that resolves without any presence
// on the search path, the shape compiled plugins take. Its modules must be
// registered with RegisterNative. Registered packages win over search path
// directories of the same name.
func (e *Engine) RegisterPackage(name, version string, modules ...string) {
	e.checkOpen()
	name = canonicalName(name)
	e.nativePkgs[name] = manifest.Synthetic(name, version, modules)
}

// Import resolves every module the package manifest lists, in declared
// order, and returns them.
func (s *Scope) Import(pkg string) ([]*Module, error) {
	return s.eng.Resolve(s, pkg, "")
}

// Require resolves a single "package.module" reference.
func (s *Scope) Require(ref string) (*Module, error) {
	pkg, mod, ok := strings.Cut(ref, ".")
	if !ok {
		return nil, fmt.Errorf("module reference %q: want package.module", ref)
	}
	mods, err := s.eng.Resolve(s, pkg, mod)
	if err != nil {
		return nil, err
	}
	return mods[0], nil
}

// Resolve locates pkg on the search path, loads its manifest, and resolves
// either the named module or, when mod is empty, every module the manifest
// lists in declared order. Each qualified name is compiled and evaluated at
// most once per Engine; later calls return the cached module. Module
// top-level code may have side effects, so one-time evaluation is a
// correctness requirement, not an optimization.
func (e *Engine) Resolve(s *Scope, pkg, mod string) ([]*Module, error) {
	s.check()
	pkg = canonicalName(pkg)

	man, err := e.resolvePackage(pkg)
	if err != nil {
		return nil, err
	}

	targets := man.Modules
	if mod != "" {
		targets = []string{canonicalName(mod)}
	}
	mods := make([]*Module, 0, len(targets))
	for _, name := range targets {
		m, err := e.resolveModule(s, man, pkg, name)
		if err != nil {
			return nil, err
		}
		mods = append(mods, m)
	}
	return mods, nil
}

// resolvePackage finds the package root. Natively registered packages win;
// otherwise the ordered search path is scanned and the first matching
// subdirectory is taken.
func (e *Engine) resolvePackage(pkg string) (*manifest.Manifest, error) {
	if man, ok := e.nativePkgs[pkg]; ok {
		return man, nil
	}
	for _, root := range e.searchPath {
		dir := filepath.Join(root, pkg)
		info, err := os.Stat(dir)
		if err != nil || !info.IsDir() {
			continue
		}
		e.traceEvent(TracePackageLookup, pkg, "", dir)
		return e.loadManifest(dir)
	}
	e.traceEvent(TraceFailed, pkg, "", "package not found")
	return nil, &PackageNotFoundError{Package: pkg, SearchPath: e.SearchPath()}
}

// loadManifest loads and caches a package manifest by its resolved
// absolute root, so distinct package names aliasing one directory share a
// single manifest object.
func (e *Engine) loadManifest(dir string) (*manifest.Manifest, error) {
	key := dir
	if abs, err := filepath.Abs(dir); err == nil {
		key = abs
	}
	if resolved, err := filepath.EvalSymlinks(key); err == nil {
		key = resolved
	}
	if man, ok := e.manifests[key]; ok {
		e.traceEvent(TraceManifestCached, man.Name, "", key)
		return man, nil
	}
	man, err := manifest.Load(key)
	if err != nil {
		e.traceEvent(TraceFailed, "", "", err.Error())
		return nil, err
	}
	e.manifests[key] = man
	e.traceEvent(TraceManifestLoad, man.Name, "", key)
	return man, nil
}

// resolveModule drives the per-qualified-name state machine.
func (e *Engine) resolveModule(s *Scope, man *manifest.Manifest, pkg, name string) (*Module, error) {
	qn := Qualify(pkg, name)

	if m, ok := e.modules[qn]; ok {
		switch m.state {
		case ModuleResolved:
			e.traceEvent(TraceCacheHit, pkg, name, "")
			return m, nil
		case ModuleFailed:
			// Cached failure: propagate without retrying compilation.
			e.traceEvent(TraceFailed, pkg, name, "cached failure")
			return nil, m.err
		case ModuleResolving:
			// The edge that closes a cycle. The chain runs from the
			// original entry point down to the repeated module.
			chain := append(append([]string(nil), e.loadStack...), qn)
			e.traceEvent(TraceCycle, pkg, name, strings.Join(chain, " -> "))
			return nil, &CircularImportError{Chain: chain}
		}
	}

	if !man.HasModule(name) {
		return nil, &ModuleLoadError{
			Qualified: qn,
			Err:       fmt.Errorf("module %q is not listed in package %q", name, pkg),
		}
	}

	m := &Module{qualified: qn, pkg: pkg, name: name, state: ModuleResolving}
	e.modules[qn] = m
	e.loadStack = append(e.loadStack, qn)
	e.traceEvent(TraceResolveStart, pkg, name, "")
	e.log.Debug("resolving module", "module", qn)

	exports, form, err := e.evaluateModule(s, man, qn, name)
	e.loadStack = e.loadStack[:len(e.loadStack)-1]

	if err != nil {
		// A typed host error thrown into script and left uncaught comes
		// back as a script exception; restore it before classifying.
		err = e.unwrapScriptError(err)
		if !IsCircularImport(err) && !IsModuleLoad(err) {
			err = &ModuleLoadError{Qualified: qn, Err: err}
		}
		m.state = ModuleFailed
		m.err = err
		e.traceEvent(TraceFailed, pkg, name, err.Error())
		e.log.Warn("module failed", "module", qn, "err", err)
		return nil, err
	}

	m.exports = exports
	m.form = form
	m.state = ModuleResolved
	e.traceEvent(TraceResolved, pkg, name, string(form))
	return m, nil
}

// evaluateModule locates and runs a module's implementation. A native
// registration takes priority; otherwise the pre-built engine-dialect
// artifact is preferred and the source form is compiled as a fallback.
func (e *Engine) evaluateModule(s *Scope, man *manifest.Manifest, qn, name string) (map[string]Value, ModuleForm, error) {
	if build, ok := e.natives[qn]; ok {
		exports, err := build(s)
		return exports, FormNative, err
	}
	if man.Root == "" {
		return nil, "", fmt.Errorf("package %q is registered without a root and module %q has no native registration", man.Name, name)
	}

	dialect, source := man.ModulePaths(name)
	var path string
	var form ModuleForm
	switch {
	case fileExists(dialect):
		path, form = dialect, FormDialect
	case fileExists(source):
		path, form = source, FormSource
	default:
		return nil, "", fmt.Errorf("no implementation for module %q: tried %s, %s", name, dialect, source)
	}

	src, err := os.ReadFile(path)
	if err != nil {
		return nil, "", err
	}
	exports, err := e.evaluateSource(s, path, string(src))
	return exports, form, err
}

// evaluateSource compiles module text wrapped in a function receiving
// (exports, imports), runs its top level, and snapshots the exported
// symbols into host Values.
func (e *Engine) evaluateSource(s *Scope, path, src string) (map[string]Value, error) {
	prog, err := goja.Compile(path, "(function(exports, imports) {\n"+src+"\n})", false)
	if err != nil {
		return nil, err
	}
	fv, err := e.vm.RunProgram(prog)
	if err != nil {
		return nil, err
	}
	fn, ok := goja.AssertFunction(fv)
	if !ok {
		return nil, fmt.Errorf("module wrapper did not compile to a function")
	}

	exportsObj := e.vm.NewObject()
	if _, err := fn(goja.Undefined(), exportsObj, e.importsObject()); err != nil {
		return nil, err
	}

	keys := exportsObj.Keys()
	sort.Strings(keys)
	exports := make(map[string]Value, len(keys))
	for _, k := range keys {
		gv := exportsObj.Get(k)
		if gv == nil {
			gv = goja.Undefined()
		}
		v, err := (ScopedValue{s: s, v: gv}).ToValue()
		if err != nil {
			return nil, err
		}
		exports[k] = v
	}
	return exports, nil
}

// importsObject builds the script-side import surface: an object whose
// require(ref) re-enters the resolver. Failures are thrown into script as
// catchable errors carrying the qualified-name chain.
func (e *Engine) importsObject() *goja.Object {
	obj := e.vm.NewObject()
	_ = obj.Set("require", func(call goja.FunctionCall) goja.Value {
		s := e.currentScope()
		ref := call.Argument(0).String()
		res, err := e.requireRef(s, ref)
		if err != nil {
			e.throw(err)
		}
		return res
	})
	return obj
}

// requireRef resolves a script import reference: "pkg" yields an object
// keyed by module name, "pkg.mod" yields that module's exports directly.
func (e *Engine) requireRef(s *Scope, ref string) (goja.Value, error) {
	pkg, mod, hasMod := strings.Cut(ref, ".")
	if hasMod {
		mods, err := e.Resolve(s, pkg, mod)
		if err != nil {
			return nil, err
		}
		return e.exportsObject(s, mods[0])
	}
	mods, err := e.Resolve(s, pkg, "")
	if err != nil {
		return nil, err
	}
	obj := e.vm.NewObject()
	for _, m := range mods {
		mobj, err := e.exportsObject(s, m)
		if err != nil {
			return nil, err
		}
		if err := obj.Set(m.Name(), mobj); err != nil {
			return nil, err
		}
	}
	return obj, nil
}

// exportsObject marshals a module's frozen exports back into an engine
// object for consumption by the importing scope. The object is built once
// and cached on the module, so repeated requires of one module hand back
// the same object rather than fresh copies.
func (e *Engine) exportsObject(s *Scope, m *Module) (goja.Value, error) {
	if m.exportsObj != nil {
		return m.exportsObj, nil
	}
	obj := e.vm.NewObject()
	for _, name := range m.ExportNames() {
		v, _ := m.Get(name)
		gv, err := s.engineValue(v)
		if err != nil {
			return nil, err
		}
		if err := obj.Set(name, gv); err != nil {
			return nil, err
		}
	}
	m.exportsObj = obj
	return obj, nil
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
