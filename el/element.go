package el

import (
	"fmt"

	"github.com/dop251/goja"
)

// Element marks a host-allocated object that can be exposed into script.
// The host owns the Element's lifetime; the engine only ever holds an
// opaque reference to it.
type Element interface {
	// TypeName identifies the host type, used in diagnostics and by the
	// default string conversion of element wrappers.
	TypeName() string
}

// Method is a host function bound to an Element instance from script.
type Method func(recv Element, args []Value) (Value, error)

// Property binds host accessor code onto constructed instances. A nil Get
// or Set leaves that side undefined; assigning a property with no Set is a
// script TypeError.
type Property struct {
	Get func(recv Element) (Value, error)
	Set func(recv Element, v Value) error
}

// ElementType describes a host type exposed to script as a constructor.
// Native modules typically export one Value per ElementType.
type ElementType struct {
	// Name is the constructor name as seen from script.
	Name string

	// Constructor allocates the host object for "new Name(...)".
	Constructor func(args []Value) (Element, error)

	// Methods are bound onto every constructed instance.
	Methods map[string]Method

	// Properties are defined as accessors on every constructed instance.
	Properties map[string]Property
}

// wrapElement builds the script wrapper for a host Element: a fresh object
// whose single reserved identity slot holds the opaque host reference. The
// slot is a private engine symbol, not an ordinary property, so a plain
// script object can never impersonate an Element.
func (e *Engine) wrapElement(elem Element) (goja.Value, error) {
	if elem == nil {
		return goja.Undefined(), nil
	}
	obj := e.vm.NewObject()
	if err := obj.SetSymbol(e.identity, e.vm.ToValue(elem)); err != nil {
		return nil, err
	}
	return obj, nil
}

// elementOf checks the identity slot of a script object. The second result
// is false when the object carries no slot at all; a slot whose payload
// does not assert back to Element indicates host-side corruption and is
// fatal.
func (e *Engine) elementOf(obj *goja.Object) (Element, bool) {
	slot := obj.GetSymbol(e.identity)
	if slot == nil || goja.IsUndefined(slot) {
		return nil, false
	}
	elem, ok := slot.Export().(Element)
	if !ok {
		panic(InvariantViolation{
			Message: fmt.Sprintf("identity slot holds %T, not an Element", slot.Export()),
		})
	}
	return elem, true
}

// NewType compiles an ElementType into a script constructor and returns it
// as a Callable-tagged Value. Instances produced by the constructor carry
// the identity slot and the type's bound methods.
func (s *Scope) NewType(t *ElementType) (Value, error) {
	s.check()
	eng := s.eng

	ctor := func(call goja.ConstructorCall) *goja.Object {
		args, err := eng.hostArgs(call.Arguments)
		if err != nil {
			eng.throw(err)
		}
		elem, err := t.Constructor(args)
		if err != nil {
			eng.throw(err)
		}
		this := call.This
		if err := this.SetSymbol(eng.identity, eng.vm.ToValue(elem)); err != nil {
			eng.throw(err)
		}
		for name, m := range t.Methods {
			if err := this.Set(name, eng.boundMethod(t.Name, name, m)); err != nil {
				eng.throw(err)
			}
		}
		for name, p := range t.Properties {
			getter, setter := eng.boundAccessors(p)
			if err := this.DefineAccessorProperty(name, getter, setter, goja.FLAG_FALSE, goja.FLAG_TRUE); err != nil {
				eng.throw(err)
			}
		}
		return nil
	}

	fv := eng.vm.ToValue(ctor)
	obj, ok := fv.(*goja.Object)
	if !ok {
		return Null, fmt.Errorf("compiling constructor %s: not an object", t.Name)
	}
	fn, ok := goja.AssertFunction(fv)
	if !ok {
		return Null, fmt.Errorf("compiling constructor %s: not callable", t.Name)
	}
	return CallableValue(Callable{eng: eng, o: obj, fn: fn}), nil
}

// boundMethod adapts a host Method into a script function that recovers
// the receiver Element from the identity slot of `this`.
func (e *Engine) boundMethod(typeName, name string, m Method) func(goja.FunctionCall) goja.Value {
	return func(call goja.FunctionCall) goja.Value {
		s := e.currentScope()
		recvObj, ok := call.This.(*goja.Object)
		if !ok {
			panic(e.vm.NewTypeError("%s.%s called without an element receiver", typeName, name))
		}
		recv, ok := e.elementOf(recvObj)
		if !ok {
			panic(e.vm.NewTypeError("%s.%s receiver is not an element", typeName, name))
		}
		args, err := e.hostArgs(call.Arguments)
		if err != nil {
			e.throw(err)
		}
		res, err := m(recv, args)
		if err != nil {
			e.throw(err)
		}
		gv, err := s.engineValue(res)
		if err != nil {
			e.throw(err)
		}
		return gv
	}
}

// boundAccessors adapts a Property into script getter/setter functions
// that recover the receiver Element from the identity slot of `this`.
func (e *Engine) boundAccessors(p Property) (getter, setter goja.Value) {
	receiver := func(call goja.FunctionCall) Element {
		recvObj, ok := call.This.(*goja.Object)
		if !ok {
			panic(e.vm.NewTypeError("property accessed without an element receiver"))
		}
		recv, ok := e.elementOf(recvObj)
		if !ok {
			panic(e.vm.NewTypeError("property receiver is not an element"))
		}
		return recv
	}

	getter = goja.Undefined()
	if p.Get != nil {
		getter = e.vm.ToValue(func(call goja.FunctionCall) goja.Value {
			s := e.currentScope()
			v, err := p.Get(receiver(call))
			if err != nil {
				e.throw(err)
			}
			gv, err := s.engineValue(v)
			if err != nil {
				e.throw(err)
			}
			return gv
		})
	}

	setter = goja.Undefined()
	if p.Set != nil {
		setter = e.vm.ToValue(func(call goja.FunctionCall) goja.Value {
			recv := receiver(call)
			args, err := e.hostArgs(call.Arguments)
			if err != nil {
				e.throw(err)
			}
			var v Value
			if len(args) > 0 {
				v = args[0]
			}
			if err := p.Set(recv, v); err != nil {
				e.throw(err)
			}
			return goja.Undefined()
		})
	}
	return getter, setter
}

// hostArgs marshals script call arguments into host Values using the
// current scope.
func (e *Engine) hostArgs(args []goja.Value) ([]Value, error) {
	s := e.currentScope()
	out := make([]Value, len(args))
	for i, a := range args {
		v, err := (ScopedValue{s: s, v: a}).ToValue()
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}
