package el

import (
	"reflect"

	"github.com/dop251/goja"
)

var (
	reflectBool   = reflect.TypeOf(false)
	reflectInt    = reflect.TypeOf(int64(0))
	reflectFloat  = reflect.TypeOf(float64(0))
	reflectString = reflect.TypeOf("")
	reflectBuffer = reflect.TypeOf(goja.ArrayBuffer{})
)

// ScopedValue is a handle to a single engine-native value, valid only
// while the Scope that produced it is active. Reading one after its scope
// ended is a fatal host bug, not a recoverable error. Copies share the
// underlying engine value.
type ScopedValue struct {
	s *Scope
	v goja.Value
}

// Scope returns the originating scope.
func (sv ScopedValue) Scope() *Scope {
	return sv.s
}

// Same reports whether two handles wrap the identical engine value.
func (sv ScopedValue) Same(other ScopedValue) bool {
	sv.s.check()
	return sv.v.SameAs(other.v)
}

func (sv ScopedValue) primitiveType() reflect.Type {
	if _, isObj := sv.v.(*goja.Object); isObj {
		return nil
	}
	return sv.v.ExportType()
}

// IsBool reports a primitive engine boolean.
func (sv ScopedValue) IsBool() bool {
	sv.s.check()
	return sv.primitiveType() == reflectBool
}

// IsInt reports a primitive engine number held in integral form.
func (sv ScopedValue) IsInt() bool {
	sv.s.check()
	return sv.primitiveType() == reflectInt
}

// IsNumber reports any primitive engine number.
func (sv ScopedValue) IsNumber() bool {
	sv.s.check()
	t := sv.primitiveType()
	return t == reflectInt || t == reflectFloat
}

// IsString reports an engine string, primitive or boxed.
func (sv ScopedValue) IsString() bool {
	sv.s.check()
	if obj, ok := sv.v.(*goja.Object); ok {
		return obj.ClassName() == "String"
	}
	return sv.v.ExportType() == reflectString
}

// IsCallable reports an invokable engine value.
func (sv ScopedValue) IsCallable() bool {
	sv.s.check()
	_, ok := goja.AssertFunction(sv.v)
	return ok
}

// IsBuffer reports an engine array buffer.
func (sv ScopedValue) IsBuffer() bool {
	sv.s.check()
	return sv.v.ExportType() == reflectBuffer
}

// IsObject reports any engine object, including arrays, functions, boxed
// strings, and element wrappers.
func (sv ScopedValue) IsObject() bool {
	sv.s.check()
	_, ok := sv.v.(*goja.Object)
	return ok
}

// IsArray reports an engine array.
func (sv ScopedValue) IsArray() bool {
	sv.s.check()
	obj, ok := sv.v.(*goja.Object)
	return ok && obj.ClassName() == "Array"
}

// IsElement reports an object carrying the reserved identity slot.
func (sv ScopedValue) IsElement() bool {
	sv.s.check()
	obj, ok := sv.v.(*goja.Object)
	if !ok {
		return false
	}
	_, ok = sv.s.eng.elementOf(obj)
	return ok
}

// IsNull reports the engine null.
func (sv ScopedValue) IsNull() bool {
	sv.s.check()
	return goja.IsNull(sv.v)
}

// IsUndefined reports the engine undefined sentinel.
func (sv ScopedValue) IsUndefined() bool {
	sv.s.check()
	return sv.v == nil || goja.IsUndefined(sv.v)
}

// ToBool coerces using the engine's truthiness rules. Never fails.
func (sv ScopedValue) ToBool() bool {
	sv.s.check()
	return sv.v.ToBoolean()
}

// ToInt32 coerces numerically and truncates to 32 bits.
func (sv ScopedValue) ToInt32() int32 {
	sv.s.check()
	return int32(sv.v.ToInteger())
}

// ToInt64 coerces numerically; fractional values truncate.
func (sv ScopedValue) ToInt64() int64 {
	sv.s.check()
	return sv.v.ToInteger()
}

// ToNumber returns the numeric payload. Non-numeric engine values fail
// with TypeMismatch rather than coercing to NaN.
func (sv ScopedValue) ToNumber() (float64, error) {
	sv.s.check()
	if !sv.IsNumber() {
		return 0, typeMismatch("Number", describe(sv.v))
	}
	return sv.v.ToFloat(), nil
}

// ToString converts using the engine's string-conversion rules, covering
// both primitive strings and boxed string objects.
func (sv ScopedValue) ToString() string {
	sv.s.check()
	return sv.v.String()
}

// ToCallable requires the value to be invokable.
func (sv ScopedValue) ToCallable() (Callable, error) {
	sv.s.check()
	fn, ok := goja.AssertFunction(sv.v)
	if !ok {
		return Callable{}, typeMismatch("Callable", describe(sv.v))
	}
	obj, _ := sv.v.(*goja.Object)
	return Callable{eng: sv.s.eng, o: obj, fn: fn}, nil
}

// ToObject extracts a plain-object handle. Primitive strings are boxed
// into string objects first. Values carrying an Element identity slot are
// rejected: Element and plain-Object extraction are mutually exclusive.
func (sv ScopedValue) ToObject() (Object, error) {
	sv.s.check()
	eng := sv.s.eng

	obj, isObj := sv.v.(*goja.Object)
	if !isObj {
		if sv.v.ExportType() == reflectString {
			boxed, err := sv.boxString()
			if err != nil {
				return Object{}, err
			}
			return Object{eng: eng, o: boxed}, nil
		}
		return Object{}, typeMismatch("Object", describe(sv.v))
	}
	if _, isElem := eng.elementOf(obj); isElem {
		return Object{}, typeMismatch("Object", "Element wrapper")
	}
	return Object{eng: eng, o: obj}, nil
}

// boxString wraps a primitive string into a String object via the engine's
// own constructor.
func (sv ScopedValue) boxString() (*goja.Object, error) {
	eng := sv.s.eng
	ctor := eng.vm.Get("String")
	if ctor == nil {
		return nil, typeMismatch("Object", "string without String constructor")
	}
	return eng.vm.New(ctor, sv.v)
}

// ToElement returns the host Element stored in the identity slot. Engine
// null and undefined yield a nil Element with no error; any other value
// without an identity slot is a TypeMismatch, not an absent result.
func (sv ScopedValue) ToElement() (Element, error) {
	sv.s.check()
	if sv.IsUndefined() || goja.IsNull(sv.v) {
		return nil, nil
	}
	obj, ok := sv.v.(*goja.Object)
	if !ok {
		return nil, typeMismatch("Element", describe(sv.v))
	}
	elem, ok := sv.s.eng.elementOf(obj)
	if !ok {
		return nil, typeMismatch("Element", describe(sv.v))
	}
	return elem, nil
}

// ToValue marshals the engine value into the host tagged union. Kind
// inspection follows a fixed precedence: boolean, integer, number, string,
// element identity, callable, plain object. An engine value can satisfy
// several weak predicates at once (a boxed string is also an object), so
// this order must not change. Null and undefined produce the null Value.
func (sv ScopedValue) ToValue() (Value, error) {
	sv.s.check()
	switch {
	case sv.IsBool():
		return BoolValue(sv.ToBool()), nil
	case sv.IsInt():
		return IntValue(sv.ToInt64()), nil
	case sv.IsNumber():
		n, err := sv.ToNumber()
		if err != nil {
			return Null, err
		}
		return NumberValue(n), nil
	case sv.IsString():
		return StringValue(sv.ToString()), nil
	case sv.IsElement():
		elem, err := sv.ToElement()
		if err != nil {
			return Null, err
		}
		return ElementValue(elem), nil
	case sv.IsCallable():
		fn, err := sv.ToCallable()
		if err != nil {
			return Null, err
		}
		return CallableValue(fn), nil
	case sv.IsObject():
		obj, err := sv.ToObject()
		if err != nil {
			return Null, err
		}
		return ObjectValue(obj), nil
	}
	return Null, nil
}
