package ir

import "fmt"

// Value is a sealed interface holding one scalar field value.
// Only Int32, Uint32, Int64, Uint64, Float32, Float64, Bool, String and
// Bytes implement it; each reports the Kind it belongs to.
type Value interface {
	Kind() Kind
	value() // Sealed
}

// Int32 is an int32 field value.
type Int32 int32

// Uint32 is a uint32 field value.
type Uint32 uint32

// Int64 is an int64 field value.
type Int64 int64

// Uint64 is a uint64 field value.
type Uint64 uint64

// Float32 is a float32 field value.
type Float32 float32

// Float64 is a float64 field value.
type Float64 float64

// Bool is a bool field value.
type Bool bool

// String is a string field value.
type String string

// Bytes is a bytes field value. Stored values are copied on Set.
type Bytes []byte

func (Int32) Kind() Kind   { return KindInt32 }
func (Uint32) Kind() Kind  { return KindUint32 }
func (Int64) Kind() Kind   { return KindInt64 }
func (Uint64) Kind() Kind  { return KindUint64 }
func (Float32) Kind() Kind { return KindFloat32 }
func (Float64) Kind() Kind { return KindFloat64 }
func (Bool) Kind() Kind    { return KindBool }
func (String) Kind() Kind  { return KindString }
func (Bytes) Kind() Kind   { return KindBytes }

func (Int32) value()   {}
func (Uint32) value()  {}
func (Int64) value()   {}
func (Uint64) value()  {}
func (Float32) value() {}
func (Float64) value() {}
func (Bool) value()    {}
func (String) value()  {}
func (Bytes) value()   {}

// ZeroValue returns the zero Value of a scalar kind.
func ZeroValue(k Kind) (Value, error) {
	switch k {
	case KindInt32:
		return Int32(0), nil
	case KindUint32:
		return Uint32(0), nil
	case KindInt64:
		return Int64(0), nil
	case KindUint64:
		return Uint64(0), nil
	case KindFloat32:
		return Float32(0), nil
	case KindFloat64:
		return Float64(0), nil
	case KindBool:
		return Bool(false), nil
	case KindString:
		return String(""), nil
	case KindBytes:
		return Bytes(nil), nil
	default:
		return nil, fmt.Errorf("no zero value for kind %s", k)
	}
}

// cloneValue returns v with any backing storage copied.
func cloneValue(v Value) Value {
	if b, ok := v.(Bytes); ok {
		if b == nil {
			return Bytes{}
		}
		return Bytes(append([]byte(nil), b...))
	}
	return v
}
