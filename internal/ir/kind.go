package ir

import (
	"fmt"
	"strings"
)

// Kind identifies the storage kind of a record field.
//
// The scalar kinds (KindInt32 through KindBytes) map onto a single column.
// KindMessage, KindGroup and KindEnum are carried so that schemas describing
// them can be loaded, but no component encodes, decodes or stores them.
type Kind uint8

const (
	KindInvalid Kind = iota
	KindInt32
	KindUint32
	KindInt64
	KindUint64
	KindFloat32
	KindFloat64
	KindBool
	KindString
	KindBytes
	KindMessage
	KindGroup
	KindEnum

	// NumKinds is one past the last kind. Dispatch tables are sized by it.
	NumKinds
)

var kindNames = [NumKinds]string{
	KindInvalid: "invalid",
	KindInt32:   "int32",
	KindUint32:  "uint32",
	KindInt64:   "int64",
	KindUint64:  "uint64",
	KindFloat32: "float32",
	KindFloat64: "float64",
	KindBool:    "bool",
	KindString:  "string",
	KindBytes:   "bytes",
	KindMessage: "message",
	KindGroup:   "group",
	KindEnum:    "enum",
}

// kindAliases accepts the protobuf spellings used by existing record definitions.
var kindAliases = map[string]Kind{
	"double":   KindFloat64,
	"float":    KindFloat32,
	"sint32":   KindInt32,
	"sfixed32": KindInt32,
	"fixed32":  KindUint32,
	"sint64":   KindInt64,
	"sfixed64": KindInt64,
	"fixed64":  KindUint64,
}

func (k Kind) String() string {
	if k < NumKinds {
		return kindNames[k]
	}
	return fmt.Sprintf("kind(%d)", uint8(k))
}

// Scalar reports whether k is one of the nine column-mapped kinds.
func (k Kind) Scalar() bool {
	return k >= KindInt32 && k <= KindBytes
}

// ParseKind converts a kind name ("int32", "double", ...) to a Kind.
func ParseKind(s string) (Kind, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	for k := KindInt32; k < NumKinds; k++ {
		if kindNames[k] == name {
			return k, nil
		}
	}
	if k, ok := kindAliases[name]; ok {
		return k, nil
	}
	return KindInvalid, fmt.Errorf("unknown field kind %q", s)
}

// MarshalText implements encoding.TextMarshaler.
func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (k *Kind) UnmarshalText(text []byte) error {
	parsed, err := ParseKind(string(text))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}
