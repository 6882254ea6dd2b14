package codec

import (
	"fmt"
	"math"
	"strconv"

	"github.com/roach88/tablemap/internal/ir"
)

// kindCodec converts between one field kind and its SQL text.
type kindCodec struct {
	encode func(d Dialect, v ir.Value) (string, error)
	decode func(d Dialect, raw string) (ir.Value, error)
}

// kinds is the single dispatch table for field kinds. A nil entry means the
// kind has no column mapping. TestKindTableExhaustive keeps it in step with
// ir.Kind.
var kinds = [ir.NumKinds]*kindCodec{
	ir.KindInt32: {
		encode: func(_ Dialect, v ir.Value) (string, error) {
			n, ok := v.(ir.Int32)
			if !ok {
				return "", mismatch(ir.KindInt32, v)
			}
			return strconv.FormatInt(int64(n), 10), nil
		},
		decode: func(_ Dialect, raw string) (ir.Value, error) {
			n, err := strconv.ParseInt(raw, 10, 32)
			return ir.Int32(n), err
		},
	},
	ir.KindUint32: {
		encode: func(_ Dialect, v ir.Value) (string, error) {
			n, ok := v.(ir.Uint32)
			if !ok {
				return "", mismatch(ir.KindUint32, v)
			}
			return strconv.FormatUint(uint64(n), 10), nil
		},
		decode: func(_ Dialect, raw string) (ir.Value, error) {
			n, err := strconv.ParseUint(raw, 10, 32)
			return ir.Uint32(n), err
		},
	},
	ir.KindInt64: {
		encode: func(_ Dialect, v ir.Value) (string, error) {
			n, ok := v.(ir.Int64)
			if !ok {
				return "", mismatch(ir.KindInt64, v)
			}
			return strconv.FormatInt(int64(n), 10), nil
		},
		decode: func(_ Dialect, raw string) (ir.Value, error) {
			n, err := strconv.ParseInt(raw, 10, 64)
			return ir.Int64(n), err
		},
	},
	ir.KindUint64: {
		encode: func(d Dialect, v ir.Value) (string, error) {
			n, ok := v.(ir.Uint64)
			if !ok {
				return "", mismatch(ir.KindUint64, v)
			}
			return d.Uint64Literal(uint64(n)), nil
		},
		decode: func(_ Dialect, raw string) (ir.Value, error) {
			n, err := strconv.ParseUint(raw, 10, 64)
			return ir.Uint64(n), err
		},
	},
	ir.KindFloat32: {
		encode: func(_ Dialect, v ir.Value) (string, error) {
			f, ok := v.(ir.Float32)
			if !ok {
				return "", mismatch(ir.KindFloat32, v)
			}
			return formatFloat(float64(f), 32)
		},
		decode: func(_ Dialect, raw string) (ir.Value, error) {
			f, err := strconv.ParseFloat(raw, 32)
			return ir.Float32(f), err
		},
	},
	ir.KindFloat64: {
		encode: func(_ Dialect, v ir.Value) (string, error) {
			f, ok := v.(ir.Float64)
			if !ok {
				return "", mismatch(ir.KindFloat64, v)
			}
			return formatFloat(float64(f), 64)
		},
		decode: func(_ Dialect, raw string) (ir.Value, error) {
			f, err := strconv.ParseFloat(raw, 64)
			return ir.Float64(f), err
		},
	},
	ir.KindBool: {
		encode: func(d Dialect, v ir.Value) (string, error) {
			b, ok := v.(ir.Bool)
			if !ok {
				return "", mismatch(ir.KindBool, v)
			}
			return d.BoolLiteral(bool(b)), nil
		},
		decode: func(d Dialect, raw string) (ir.Value, error) {
			return ir.Bool(d.ParseBool(raw)), nil
		},
	},
	ir.KindString: {
		encode: func(d Dialect, v ir.Value) (string, error) {
			s, ok := v.(ir.String)
			if !ok {
				return "", mismatch(ir.KindString, v)
			}
			return d.QuoteString(string(s)), nil
		},
		decode: func(_ Dialect, raw string) (ir.Value, error) {
			return ir.String(raw), nil
		},
	},
	ir.KindBytes: {
		encode: func(d Dialect, v ir.Value) (string, error) {
			b, ok := v.(ir.Bytes)
			if !ok {
				return "", mismatch(ir.KindBytes, v)
			}
			return d.QuoteBytes(b), nil
		},
		decode: func(_ Dialect, raw string) (ir.Value, error) {
			return ir.Bytes(raw), nil
		},
	},
}

// Codec encodes field values as SQL literals and decodes fetched column text.
type Codec struct {
	dialect Dialect
}

// New creates a Codec for the given dialect.
func New(d Dialect) *Codec {
	return &Codec{dialect: d}
}

// Dialect returns the codec's dialect.
func (c *Codec) Dialect() Dialect { return c.dialect }

// Supports reports whether f can be encoded and decoded.
func Supports(f ir.Field) bool {
	return !f.Repeated && lookup(f.Kind) != nil
}

// Encode renders v as a SQL literal of kind k.
// Kinds without a column mapping fail with UNSUPPORTED_FIELD_KIND.
func (c *Codec) Encode(k ir.Kind, v ir.Value) (string, error) {
	kc := lookup(k)
	if kc == nil {
		return "", unsupported(k)
	}
	return kc.encode(c.dialect, v)
}

// Decode parses raw column text as a value of kind k.
// Numeric parse failures are returned as errors; booleans never fail.
func (c *Codec) Decode(k ir.Kind, raw string) (ir.Value, error) {
	kc := lookup(k)
	if kc == nil {
		return nil, unsupported(k)
	}
	v, err := kc.decode(c.dialect, raw)
	if err != nil {
		return nil, err
	}
	return v, nil
}

// EncodeField renders a present field value, naming the field in any error.
func (c *Codec) EncodeField(typeName string, f ir.Field, v ir.Value) (string, error) {
	if !Supports(f) {
		return "", ir.NewUnsupportedKind(typeName, f)
	}
	lit, err := c.Encode(f.Kind, v)
	if err != nil {
		return "", fmt.Errorf("encode %s.%s: %w", typeName, f.Name, err)
	}
	return lit, nil
}

// DecodeField parses a fetched column for f. Failures are DECODE_FAILURE or
// UNSUPPORTED_FIELD_KIND errors naming the field.
func (c *Codec) DecodeField(typeName string, f ir.Field, raw string) (ir.Value, error) {
	if !Supports(f) {
		return nil, ir.NewUnsupportedKind(typeName, f)
	}
	v, err := c.Decode(f.Kind, raw)
	if err != nil {
		return nil, ir.NewDecodeFailure(typeName, f, err)
	}
	return v, nil
}

func lookup(k ir.Kind) *kindCodec {
	if k >= ir.NumKinds {
		return nil
	}
	return kinds[k]
}

func formatFloat(f float64, bits int) (string, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return "", fmt.Errorf("non-finite float %v has no SQL literal", f)
	}
	return strconv.FormatFloat(f, 'g', -1, bits), nil
}

func mismatch(k ir.Kind, v ir.Value) error {
	return fmt.Errorf("value %#v is not a %s", v, k)
}

func unsupported(k ir.Kind) *ir.Error {
	return &ir.Error{
		Code:    ir.CodeUnsupportedFieldKind,
		Message: "field kind " + k.String() + " is not supported",
	}
}
