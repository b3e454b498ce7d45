package el

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValue_ZeroIsNull(t *testing.T) {
	var v Value
	assert.Equal(t, KindElement, v.Kind())
	assert.True(t, v.IsNull())
	assert.True(t, Null.IsNull())

	elem, err := v.AsElement()
	require.NoError(t, err)
	assert.Nil(t, elem)
}

func TestValue_Constructors(t *testing.T) {
	tests := []struct {
		name string
		v    Value
		kind Kind
	}{
		{"bool", BoolValue(true), KindBool},
		{"int", IntValue(42), KindInt},
		{"number", NumberValue(2.5), KindDouble},
		{"string", StringValue("hi"), KindString},
		{"element", ElementValue(&fakeElement{}), KindElement},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.kind, tt.v.Kind())
		})
	}
}

func TestValue_AccessorMismatch(t *testing.T) {
	v := StringValue("hi")

	_, err := v.AsBool()
	assert.True(t, IsTypeMismatch(err))

	_, err = v.AsInt64()
	assert.True(t, IsTypeMismatch(err))

	_, err = v.AsObject()
	assert.True(t, IsTypeMismatch(err))

	s, err := v.AsString()
	require.NoError(t, err)
	assert.Equal(t, "hi", s)
}

func TestValue_AsNumberAcceptsIntAndDouble(t *testing.T) {
	n, err := IntValue(7).AsNumber()
	require.NoError(t, err)
	assert.Equal(t, 7.0, n)

	n, err = NumberValue(1.5).AsNumber()
	require.NoError(t, err)
	assert.Equal(t, 1.5, n)

	_, err = BoolValue(true).AsNumber()
	assert.True(t, IsTypeMismatch(err))
}

func TestValue_AsInt32Truncates(t *testing.T) {
	n, err := IntValue(1 << 40).AsInt32()
	require.NoError(t, err)
	assert.Equal(t, int32(0), n)
}

func TestMakeValue(t *testing.T) {
	elem := &fakeElement{}

	tests := []struct {
		name string
		in   any
		kind Kind
	}{
		{"nil", nil, KindElement},
		{"bool", true, KindBool},
		{"int", 3, KindInt},
		{"int32", int32(3), KindInt},
		{"int64", int64(3), KindInt},
		{"float64", 3.5, KindDouble},
		{"string", "s", KindString},
		{"element", elem, KindElement},
		{"value passthrough", IntValue(9), KindInt},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, err := MakeValue(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.kind, v.Kind())
		})
	}

	_, err := MakeValue(struct{}{})
	assert.Error(t, err)
}

func TestValue_Equal(t *testing.T) {
	elem := &fakeElement{}

	assert.True(t, IntValue(1).Equal(IntValue(1)))
	assert.False(t, IntValue(1).Equal(IntValue(2)))
	assert.False(t, IntValue(1).Equal(NumberValue(1)))
	assert.True(t, StringValue("a").Equal(StringValue("a")))
	assert.True(t, ElementValue(elem).Equal(ElementValue(elem)))
	assert.False(t, ElementValue(elem).Equal(ElementValue(&fakeElement{})))
	assert.True(t, Null.Equal(Value{}))
}

func TestValue_String(t *testing.T) {
	assert.Equal(t, "null", Null.String())
	assert.Equal(t, "true", BoolValue(true).String())
	assert.Equal(t, "42", IntValue(42).String())
	assert.Equal(t, "hi", StringValue("hi").String())
}
