package el

// TraceEvent is one step of module resolution, recorded when a Trace is
// attached to the Engine. Events use canonical qualified names so traces
// compare deterministically across runs.
type TraceEvent struct {
	Seq     int    `json:"seq" yaml:"seq"`
	Kind    string `json:"kind" yaml:"kind"`
	Package string `json:"package,omitempty" yaml:"package,omitempty"`
	Module  string `json:"module,omitempty" yaml:"module,omitempty"`
	Detail  string `json:"detail,omitempty" yaml:"detail,omitempty"`
}

// Trace event kinds emitted by the resolver.
const (
	TracePackageLookup  = "package_lookup"
	TraceManifestLoad   = "manifest_load"
	TraceManifestCached = "manifest_cached"
	TraceResolveStart   = "resolve_start"
	TraceResolved       = "resolved"
	TraceCacheHit       = "cache_hit"
	TraceFailed         = "failed"
	TraceCycle          = "cycle"
)

// Trace collects resolver events in order. Attach with WithTrace. Not
// synchronized; it follows the engine's single-threaded-cooperative model.
type Trace struct {
	events []TraceEvent
}

// NewTrace creates an empty trace collector.
func NewTrace() *Trace {
	return &Trace{}
}

// Events returns the recorded events in emission order.
func (t *Trace) Events() []TraceEvent {
	return append([]TraceEvent(nil), t.events...)
}

// Reset discards recorded events.
func (t *Trace) Reset() {
	t.events = t.events[:0]
}

func (e *Engine) traceEvent(kind, pkg, mod, detail string) {
	if e.trace == nil {
		return
	}
	e.trace.events = append(e.trace.events, TraceEvent{
		Seq:     len(e.trace.events),
		Kind:    kind,
		Package: pkg,
		Module:  mod,
		Detail:  detail,
	})
}
