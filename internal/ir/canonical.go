package ir

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"

	"golang.org/x/text/unicode/norm"
)

// MarshalRecord serializes the present fields of r as a JSON object.
//
// Keys appear in declared order. 64-bit integers are written as JSON numbers
// without going through float64, bytes are base64 strings, and absent fields
// are omitted entirely so presence survives the round trip.
// NaN and infinities have no JSON form and are rejected.
func MarshalRecord(r *Record) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, fv := range r.Present() {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := marshalString(fv.Field.Name)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')

		val, err := marshalValue(fv.Value)
		if err != nil {
			return nil, fmt.Errorf("%s.%s: %w", r.TypeName(), fv.Field.Name, err)
		}
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func marshalValue(v Value) ([]byte, error) {
	switch val := v.(type) {
	case Int32:
		return strconv.AppendInt(nil, int64(val), 10), nil
	case Uint32:
		return strconv.AppendUint(nil, uint64(val), 10), nil
	case Int64:
		return strconv.AppendInt(nil, int64(val), 10), nil
	case Uint64:
		return strconv.AppendUint(nil, uint64(val), 10), nil
	case Float32:
		return marshalFloat(float64(val), 32)
	case Float64:
		return marshalFloat(float64(val), 64)
	case Bool:
		return strconv.AppendBool(nil, bool(val)), nil
	case String:
		return marshalString(string(val))
	case Bytes:
		return json.Marshal([]byte(val))
	default:
		return nil, fmt.Errorf("unsupported value type %T", v)
	}
}

func marshalFloat(f float64, bits int) ([]byte, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return nil, fmt.Errorf("non-finite float %v has no JSON form", f)
	}
	return strconv.AppendFloat(nil, f, 'g', -1, bits), nil
}

// marshalString encodes s without HTML escaping.
func marshalString(s string) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(s); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

// UnmarshalRecord parses data produced by MarshalRecord into a new Record of schema s.
//
// Keys are NFC-normalized before lookup. Unknown keys are an error. A JSON null
// leaves the field absent. Values for unsupported fields fail with
// UNSUPPORTED_FIELD_KIND.
func UnmarshalRecord(s *Schema, data []byte) (*Record, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var raw map[string]json.RawMessage
	if err := dec.Decode(&raw); err != nil {
		return nil, fmt.Errorf("unmarshal %s: %w", s.Name(), err)
	}

	rec := s.New()
	for key, msg := range raw {
		name := norm.NFC.String(key)
		f, ok := s.Lookup(name)
		if !ok {
			return nil, fmt.Errorf("unmarshal %s: unknown field %q", s.Name(), key)
		}
		if bytes.Equal(bytes.TrimSpace(msg), []byte("null")) {
			continue
		}
		if !f.Supported() {
			return nil, NewUnsupportedKind(s.Name(), f)
		}
		v, err := unmarshalValue(f.Kind, msg)
		if err != nil {
			return nil, fmt.Errorf("unmarshal %s.%s: %w", s.Name(), f.Name, err)
		}
		if err := rec.Set(f.Name, v); err != nil {
			return nil, err
		}
	}
	return rec, nil
}

func unmarshalValue(k Kind, msg json.RawMessage) (Value, error) {
	switch k {
	case KindInt32, KindInt64, KindUint32, KindUint64, KindFloat32, KindFloat64:
		var n json.Number
		if err := json.Unmarshal(msg, &n); err != nil {
			return nil, err
		}
		return parseNumber(k, n.String())
	case KindBool:
		var b bool
		if err := json.Unmarshal(msg, &b); err != nil {
			return nil, err
		}
		return Bool(b), nil
	case KindString:
		var s string
		if err := json.Unmarshal(msg, &s); err != nil {
			return nil, err
		}
		return String(s), nil
	case KindBytes:
		var b []byte
		if err := json.Unmarshal(msg, &b); err != nil {
			return nil, err
		}
		return Bytes(b), nil
	default:
		return nil, fmt.Errorf("kind %s has no JSON form", k)
	}
}

func parseNumber(k Kind, s string) (Value, error) {
	switch k {
	case KindInt32:
		n, err := strconv.ParseInt(s, 10, 32)
		return Int32(n), err
	case KindInt64:
		n, err := strconv.ParseInt(s, 10, 64)
		return Int64(n), err
	case KindUint32:
		n, err := strconv.ParseUint(s, 10, 32)
		return Uint32(n), err
	case KindUint64:
		n, err := strconv.ParseUint(s, 10, 64)
		return Uint64(n), err
	case KindFloat32:
		f, err := strconv.ParseFloat(s, 32)
		return Float32(f), err
	default:
		f, err := strconv.ParseFloat(s, 64)
		return Float64(f), err
	}
}
