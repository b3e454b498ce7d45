package el

import "fmt"

// Kind identifies the active tag of a Value.
type Kind uint8

const (
	// KindElement is the zero kind. A Value with KindElement and a nil
	// Element is the null value: "no value" and "empty Element reference"
	// are deliberately the same thing, matching the engine's historical
	// behavior. There is no separate unit tag.
	KindElement Kind = iota
	KindBool
	KindInt
	KindDouble
	KindString
	KindObject
	KindCallable
)

func (k Kind) String() string {
	switch k {
	case KindElement:
		return "Element"
	case KindBool:
		return "Bool"
	case KindInt:
		return "Int"
	case KindDouble:
		return "Double"
	case KindString:
		return "String"
	case KindObject:
		return "Object"
	case KindCallable:
		return "Callable"
	}
	return fmt.Sprintf("Kind(%d)", k)
}

// Value is the host-side tagged union for anything crossing the host/script
// boundary. Exactly one tag is active. Bool and Int share the integer slot,
// distinguished by kind. Object and Callable hold shared engine handles that
// stay alive as long as either the host or script references them. Element
// holds a non-owning reference; the host owns the Element's lifetime.
//
// The zero Value is null (see KindElement).
type Value struct {
	kind Kind
	num  int64
	dbl  float64
	str  string
	obj  Object
	fn   Callable
	elem Element
}

// Null is the null Value: an Element-tagged value with no Element.
var Null = Value{}

// BoolValue builds a Bool-tagged Value.
func BoolValue(b bool) Value {
	var n int64
	if b {
		n = 1
	}
	return Value{kind: KindBool, num: n}
}

// IntValue builds an Int-tagged Value.
func IntValue(n int64) Value {
	return Value{kind: KindInt, num: n}
}

// NumberValue builds a Double-tagged Value.
func NumberValue(f float64) Value {
	return Value{kind: KindDouble, dbl: f}
}

// StringValue builds a String-tagged Value. The bytes are copied; the Value
// shares no memory with the engine.
func StringValue(s string) Value {
	return Value{kind: KindString, str: s}
}

// ObjectValue builds an Object-tagged Value sharing the given handle.
func ObjectValue(o Object) Value {
	return Value{kind: KindObject, obj: o}
}

// CallableValue builds a Callable-tagged Value sharing the given handle.
func CallableValue(c Callable) Value {
	return Value{kind: KindCallable, fn: c}
}

// ElementValue builds an Element-tagged Value. A nil Element yields the
// null Value.
func ElementValue(e Element) Value {
	return Value{kind: KindElement, elem: e}
}

// MakeValue builds a Value from a host primitive or Element. It is the
// sanctioned construction boundary for collaborators that do not want to
// pick a typed constructor.
func MakeValue(v any) (Value, error) {
	switch x := v.(type) {
	case nil:
		return Null, nil
	case bool:
		return BoolValue(x), nil
	case int:
		return IntValue(int64(x)), nil
	case int32:
		return IntValue(int64(x)), nil
	case int64:
		return IntValue(x), nil
	case float64:
		return NumberValue(x), nil
	case string:
		return StringValue(x), nil
	case Object:
		return ObjectValue(x), nil
	case Callable:
		return CallableValue(x), nil
	case Element:
		return ElementValue(x), nil
	case Value:
		return x, nil
	}
	return Null, typeMismatch("Value", fmt.Sprintf("%T", v))
}

// Kind returns the active tag.
func (v Value) Kind() Kind {
	return v.kind
}

// IsNull reports whether v is the null value: Element-tagged with no
// Element. Callers must check this before AsElement-and-dereference.
func (v Value) IsNull() bool {
	return v.kind == KindElement && v.elem == nil
}

// AsBool returns the boolean payload, failing unless the Bool tag is active.
func (v Value) AsBool() (bool, error) {
	if v.kind != KindBool {
		return false, typeMismatch("Bool", v.kind.String())
	}
	return v.num != 0, nil
}

// AsInt32 returns the integer payload truncated to 32 bits.
func (v Value) AsInt32() (int32, error) {
	if v.kind != KindInt {
		return 0, typeMismatch("Int32", v.kind.String())
	}
	return int32(v.num), nil
}

// AsInt64 returns the integer payload.
func (v Value) AsInt64() (int64, error) {
	if v.kind != KindInt {
		return 0, typeMismatch("Int64", v.kind.String())
	}
	return v.num, nil
}

// AsNumber returns the numeric payload. Both Int and Double tags qualify.
func (v Value) AsNumber() (float64, error) {
	switch v.kind {
	case KindDouble:
		return v.dbl, nil
	case KindInt:
		return float64(v.num), nil
	}
	return 0, typeMismatch("Number", v.kind.String())
}

// AsString returns the string payload, failing unless the String tag is
// active.
func (v Value) AsString() (string, error) {
	if v.kind != KindString {
		return "", typeMismatch("String", v.kind.String())
	}
	return v.str, nil
}

// AsObject returns the shared object handle.
func (v Value) AsObject() (Object, error) {
	if v.kind != KindObject {
		return Object{}, typeMismatch("Object", v.kind.String())
	}
	return v.obj, nil
}

// AsCallable returns the shared callable handle.
func (v Value) AsCallable() (Callable, error) {
	if v.kind != KindCallable {
		return Callable{}, typeMismatch("Callable", v.kind.String())
	}
	return v.fn, nil
}

// AsElement returns the host Element reference. The result is nil for the
// null value; wrong tags fail.
func (v Value) AsElement() (Element, error) {
	if v.kind != KindElement {
		return nil, typeMismatch("Element", v.kind.String())
	}
	return v.elem, nil
}

// Equal compares tag then payload. Object and Callable compare by handle
// identity, Element by host reference identity.
func (v Value) Equal(other Value) bool {
	if v.kind != other.kind {
		return false
	}
	switch v.kind {
	case KindBool, KindInt:
		return v.num == other.num
	case KindDouble:
		return v.dbl == other.dbl
	case KindString:
		return v.str == other.str
	case KindObject:
		return v.obj.Same(other.obj)
	case KindCallable:
		return v.fn.Same(other.fn)
	case KindElement:
		return v.elem == other.elem
	}
	return false
}

func (v Value) String() string {
	switch v.kind {
	case KindBool:
		if v.num != 0 {
			return "true"
		}
		return "false"
	case KindInt:
		return fmt.Sprintf("%d", v.num)
	case KindDouble:
		return fmt.Sprintf("%g", v.dbl)
	case KindString:
		return v.str
	case KindObject:
		return "[object]"
	case KindCallable:
		return "[callable]"
	case KindElement:
		if v.elem == nil {
			return "null"
		}
		return "[element " + v.elem.TypeName() + "]"
	}
	return "[invalid]"
}
