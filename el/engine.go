package el

import (
	"log/slog"

	"github.com/dop251/goja"
	"golang.org/x/text/unicode/norm"

	"github.com/elems-lang/elems/manifest"
)

// Engine owns one script runtime, the active execution scope stack, and the
// module cache. Create one per session with New and tear it down with Close.
//
// The Engine is single-threaded-cooperative: one goroutine drives script
// execution at a time, and all scope and module-cache mutations happen on
// that goroutine. Enforcing this is the host's responsibility; the Engine
// does not lock.
type Engine struct {
	id         string
	vm         *goja.Runtime
	identity   *goja.Symbol
	hostErrSym *goja.Symbol
	log        *slog.Logger
	idGen      IDGenerator

	searchPath []string

	// scopes is the stack of active execution scopes. Host-driven
	// re-entrancy pushes nested scopes; unwinding a scope invalidates the
	// ScopedValues created in it and nothing else.
	scopes []*Scope

	modules    map[string]*Module            // by qualified name
	manifests  map[string]*manifest.Manifest // by absolute root path
	natives    map[string]NativeModule       // by qualified name
	nativePkgs map[string]*manifest.Manifest // registered without disk presence
	loadStack  []string

	trace  *Trace
	closed bool
}

// Option configures an Engine at construction.
type Option func(*Engine)

// WithSearchPath sets the ordered list of filesystem roots searched for
// packages. Earlier roots win.
func WithSearchPath(roots ...string) Option {
	return func(e *Engine) {
		e.searchPath = append([]string(nil), roots...)
	}
}

// WithLogger overrides the engine's logger. Default is slog.Default().
func WithLogger(log *slog.Logger) Option {
	return func(e *Engine) {
		e.log = log
	}
}

// WithIDGenerator overrides the session ID generator. Tests use
// NewFixedGenerator for deterministic IDs.
func WithIDGenerator(gen IDGenerator) Option {
	return func(e *Engine) {
		e.idGen = gen
	}
}

// WithTrace attaches a resolution trace collector. Nil disables tracing.
func WithTrace(t *Trace) Option {
	return func(e *Engine) {
		e.trace = t
	}
}

// New creates an Engine with its own script runtime and empty caches.
func New(opts ...Option) (*Engine, error) {
	e := &Engine{
		vm:         goja.New(),
		identity:   goja.NewSymbol("elems.element.identity"),
		hostErrSym: goja.NewSymbol("elems.host.error"),
		log:        slog.Default(),
		idGen:      UUIDv7Generator{},
		modules:    make(map[string]*Module),
		manifests:  make(map[string]*manifest.Manifest),
		natives:    make(map[string]NativeModule),
		nativePkgs: make(map[string]*manifest.Manifest),
	}
	for _, opt := range opts {
		opt(e)
	}
	e.id = e.idGen.Generate()
	if err := e.vm.Set("imports", e.importsObject()); err != nil {
		return nil, err
	}
	e.log.Debug("engine started", "session", e.id, "search_path", e.searchPath)
	return e, nil
}

// ID returns the session identifier assigned at construction.
func (e *Engine) ID() string {
	return e.id
}

// SearchPath returns the configured package roots in order.
func (e *Engine) SearchPath() []string {
	return append([]string(nil), e.searchPath...)
}

// Close tears the session down. Scopes must have unwound; any use of the
// Engine after Close is a fatal host bug.
func (e *Engine) Close() error {
	if e.closed {
		return nil
	}
	if len(e.scopes) > 0 {
		panic(InvariantViolation{Message: "engine closed with active scopes"})
	}
	e.closed = true
	e.modules = nil
	e.manifests = nil
	e.log.Debug("engine stopped", "session", e.id)
	return nil
}

// Scope runs fn inside a fresh execution scope. ScopedValues created by fn
// are valid only until fn returns; reading one afterwards panics with
// InvariantViolation. Scopes nest: host code invoked from script may open
// an inner scope without disturbing the outer one.
func (e *Engine) Scope(fn func(*Scope) error) error {
	e.checkOpen()
	s := &Scope{eng: e, active: true}
	e.scopes = append(e.scopes, s)
	defer func() {
		s.active = false
		e.scopes = e.scopes[:len(e.scopes)-1]
	}()
	return fn(s)
}

func (e *Engine) checkOpen() {
	if e.closed {
		panic(InvariantViolation{Message: "engine used after Close"})
	}
}

// currentScope returns the innermost active scope. Script-triggered host
// callbacks always run with at least one scope on the stack.
func (e *Engine) currentScope() *Scope {
	if len(e.scopes) == 0 {
		panic(InvariantViolation{Message: "no active execution scope"})
	}
	return e.scopes[len(e.scopes)-1]
}

// canonicalName returns the NFC form of a package or module name. Cache
// keys are always canonical so visually identical names cannot alias
// distinct cache entries.
func canonicalName(s string) string {
	return norm.NFC.String(s)
}

// Qualify builds the package::module cache key for a module.
func Qualify(pkg, mod string) string {
	return canonicalName(pkg) + "::" + canonicalName(mod)
}

// describe names an engine-value kind for diagnostics.
func describe(v goja.Value) string {
	if v == nil || goja.IsUndefined(v) {
		return "undefined"
	}
	if goja.IsNull(v) {
		return "null"
	}
	if obj, ok := v.(*goja.Object); ok {
		if _, fn := goja.AssertFunction(obj); fn {
			return "function"
		}
		return "object " + obj.ClassName()
	}
	if t := v.ExportType(); t != nil {
		return t.String()
	}
	return "unknown"
}
