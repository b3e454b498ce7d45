package el

import (
	"fmt"

	"github.com/dop251/goja"
)

// Scope is one active execution scope of an Engine. Every ScopedValue is
// produced by and tied to exactly one Scope; when the Scope unwinds its
// values become unreadable. Scopes are created by Engine.Scope and must not
// escape it.
type Scope struct {
	eng    *Engine
	active bool
}

// Engine returns the owning engine.
func (s *Scope) Engine() *Engine {
	return s.eng
}

// check panics when the scope has ended or the engine is closed. Scope
// misuse is a host bug, not a recoverable condition.
func (s *Scope) check() {
	if s == nil {
		panic(InvariantViolation{Message: "value has no originating scope"})
	}
	if !s.active {
		panic(InvariantViolation{Message: "scope used after it ended"})
	}
	s.eng.checkOpen()
}

// NewBool wraps a host boolean as an engine boolean.
func (s *Scope) NewBool(b bool) ScopedValue {
	s.check()
	return ScopedValue{s: s, v: s.eng.vm.ToValue(b)}
}

// NewInt32 wraps a host 32-bit integer as an engine numeric.
func (s *Scope) NewInt32(n int32) ScopedValue {
	s.check()
	return ScopedValue{s: s, v: s.eng.vm.ToValue(int64(n))}
}

// NewInt64 wraps a host 64-bit integer as an engine numeric.
func (s *Scope) NewInt64(n int64) ScopedValue {
	s.check()
	return ScopedValue{s: s, v: s.eng.vm.ToValue(n)}
}

// NewNumber wraps a host float as an engine number.
func (s *Scope) NewNumber(f float64) ScopedValue {
	s.check()
	return ScopedValue{s: s, v: s.eng.vm.ToValue(f)}
}

// NewString copies host UTF-8 bytes into an engine string. The engine
// string shares no memory with the host afterwards.
func (s *Scope) NewString(str string) ScopedValue {
	s.check()
	return ScopedValue{s: s, v: s.eng.vm.ToValue(str)}
}

// NewBuffer copies host bytes into an engine array buffer.
func (s *Scope) NewBuffer(b []byte) ScopedValue {
	s.check()
	cp := append([]byte(nil), b...)
	return ScopedValue{s: s, v: s.eng.vm.ToValue(s.eng.vm.NewArrayBuffer(cp))}
}

// NewObject creates a fresh plain engine object.
func (s *Scope) NewObject() ScopedValue {
	s.check()
	return ScopedValue{s: s, v: s.eng.vm.NewObject()}
}

// NewElement wraps a host Element into its script identity wrapper. A nil
// Element becomes the engine undefined sentinel.
func (s *Scope) NewElement(elem Element) (ScopedValue, error) {
	s.check()
	gv, err := s.eng.wrapElement(elem)
	if err != nil {
		return ScopedValue{}, err
	}
	return ScopedValue{s: s, v: gv}, nil
}

// Undefined returns the engine undefined sentinel.
func (s *Scope) Undefined() ScopedValue {
	s.check()
	return ScopedValue{s: s, v: goja.Undefined()}
}

// Null returns the engine null.
func (s *Scope) Null() ScopedValue {
	s.check()
	return ScopedValue{s: s, v: goja.Null()}
}

// New marshals a host Value into the engine, producing exactly one
// engine-native counterpart per tag.
func (s *Scope) New(v Value) (ScopedValue, error) {
	s.check()
	gv, err := s.engineValue(v)
	if err != nil {
		return ScopedValue{}, err
	}
	return ScopedValue{s: s, v: gv}, nil
}

// engineValue converts a host Value to its engine-native form. Object and
// Callable reuse the handle they already hold; Element wraps or maps to
// undefined when null.
func (s *Scope) engineValue(v Value) (goja.Value, error) {
	e := s.eng
	switch v.kind {
	case KindBool:
		return e.vm.ToValue(v.num != 0), nil
	case KindInt:
		return e.vm.ToValue(v.num), nil
	case KindDouble:
		return e.vm.ToValue(v.dbl), nil
	case KindString:
		return e.vm.ToValue(v.str), nil
	case KindObject:
		if v.obj.eng != e {
			panic(InvariantViolation{Message: "object handle belongs to another engine"})
		}
		return v.obj.o, nil
	case KindCallable:
		if v.fn.eng != e {
			panic(InvariantViolation{Message: "callable handle belongs to another engine"})
		}
		return v.fn.o, nil
	case KindElement:
		return e.wrapElement(v.elem)
	}
	return nil, fmt.Errorf("invalid value kind %d", v.kind)
}

// Call invokes a Callable-tagged Value with the given receiver and
// arguments.
func (s *Scope) Call(fn Value, this Value, args ...Value) (Value, error) {
	s.check()
	c, err := fn.AsCallable()
	if err != nil {
		return Null, err
	}
	return c.Call(s, this, args...)
}

// Eval compiles and runs script source in the engine's global context.
// Script exceptions come back as errors.
func (s *Scope) Eval(name, src string) (ScopedValue, error) {
	s.check()
	prog, err := goja.Compile(name, src, false)
	if err != nil {
		return ScopedValue{}, err
	}
	res, err := s.eng.vm.RunProgram(prog)
	if err != nil {
		return ScopedValue{}, s.eng.unwrapScriptError(err)
	}
	return ScopedValue{s: s, v: res}, nil
}
