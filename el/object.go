package el

import "github.com/dop251/goja"

// Object is a shared handle to an engine-native object. The handle keeps
// the object alive for as long as either the host Value or any script
// reference holds it; there is no copy on the way in or out.
type Object struct {
	eng *Engine
	o   *goja.Object
}

// Same reports handle identity: both Objects refer to the same
// engine-native object.
func (o Object) Same(other Object) bool {
	return o.o == other.o
}

// Get reads a property and marshals it into a Value.
func (o Object) Get(s *Scope, name string) (Value, error) {
	s.check()
	gv := o.o.Get(name)
	if gv == nil {
		gv = goja.Undefined()
	}
	return ScopedValue{s: s, v: gv}.ToValue()
}

// Set writes a property from a Value.
func (o Object) Set(s *Scope, name string, v Value) error {
	s.check()
	gv, err := s.engineValue(v)
	if err != nil {
		return err
	}
	return o.o.Set(name, gv)
}

// Keys returns the object's own enumerable property names.
func (o Object) Keys(s *Scope) []string {
	s.check()
	return o.o.Keys()
}

// Callable is a shared handle to an invokable engine-native value.
type Callable struct {
	eng *Engine
	o   *goja.Object
	fn  goja.Callable
}

// Same reports handle identity.
func (c Callable) Same(other Callable) bool {
	return c.o == other.o
}

// Call invokes the callable with the given receiver and arguments,
// marshaling arguments in and the result out. Script exceptions come back
// as errors.
func (c Callable) Call(s *Scope, this Value, args ...Value) (Value, error) {
	s.check()
	thisv, err := s.engineValue(this)
	if err != nil {
		return Null, err
	}
	argv := make([]goja.Value, len(args))
	for i, a := range args {
		if argv[i], err = s.engineValue(a); err != nil {
			return Null, err
		}
	}
	res, err := c.fn(thisv, argv...)
	if err != nil {
		return Null, c.eng.unwrapScriptError(err)
	}
	return ScopedValue{s: s, v: res}.ToValue()
}

// Construct invokes the callable as a constructor ("new C(...)") and
// marshals the resulting instance out.
func (c Callable) Construct(s *Scope, args ...Value) (Value, error) {
	s.check()
	argv := make([]goja.Value, len(args))
	for i, a := range args {
		var err error
		if argv[i], err = s.engineValue(a); err != nil {
			return Null, err
		}
	}
	obj, err := s.eng.vm.New(c.o, argv...)
	if err != nil {
		return Null, s.eng.unwrapScriptError(err)
	}
	return ScopedValue{s: s, v: obj}.ToValue()
}
