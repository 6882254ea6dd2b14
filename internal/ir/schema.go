package ir

import (
	"fmt"

	"golang.org/x/text/unicode/norm"
)

// Field describes one field of a record type.
type Field struct {
	Name     string `json:"name"`
	Kind     Kind   `json:"kind"`
	Order    int    `json:"order"`              // Declaration position, 0-based
	Repeated bool   `json:"repeated,omitempty"` // Repeated fields are never stored
}

// Supported reports whether the field maps onto a single column.
func (f Field) Supported() bool {
	return f.Kind.Scalar() && !f.Repeated
}

// KindName is the kind as written in record definitions ("repeated string").
func (f Field) KindName() string {
	if f.Repeated {
		return "repeated " + f.Kind.String()
	}
	return f.Kind.String()
}

// Schema is the runtime description of a record type.
// The type name doubles as the table name.
type Schema struct {
	name   string
	key    string
	fields []Field
	byName map[string]int
}

// NewSchema builds a Schema from fields in declaration order.
// Order is assigned from the slice position. Names are NFC-normalized and
// must be unique and non-empty.
// key, when non-empty, must name a supported field.
func NewSchema(name, key string, fields ...Field) (*Schema, error) {
	if name == "" {
		return nil, fmt.Errorf("schema: empty type name")
	}
	s := &Schema{
		name:   name,
		key:    key,
		fields: make([]Field, len(fields)),
		byName: make(map[string]int, len(fields)),
	}
	for i, f := range fields {
		f.Name = norm.NFC.String(f.Name)
		if f.Name == "" {
			return nil, fmt.Errorf("schema %s: field %d has no name", name, i)
		}
		if _, dup := s.byName[f.Name]; dup {
			return nil, fmt.Errorf("schema %s: duplicate field %q", name, f.Name)
		}
		if f.Kind == KindInvalid || f.Kind >= NumKinds {
			return nil, fmt.Errorf("schema %s: field %q has invalid kind", name, f.Name)
		}
		f.Order = i
		s.fields[i] = f
		s.byName[f.Name] = i
	}
	if key != "" {
		i, ok := s.byName[key]
		if !ok {
			return nil, fmt.Errorf("schema %s: key %q is not a field", name, key)
		}
		if !s.fields[i].Supported() {
			return nil, fmt.Errorf("schema %s: key %q has unsupported kind %s", name, key, s.fields[i].KindName())
		}
	}
	return s, nil
}

// MustSchema is NewSchema that panics on error. Intended for tests and static tables.
func MustSchema(name, key string, fields ...Field) *Schema {
	s, err := NewSchema(name, key, fields...)
	if err != nil {
		panic(err)
	}
	return s
}

// F is a shorthand for a scalar Field; Order is assigned by NewSchema.
func F(name string, kind Kind) Field {
	return Field{Name: name, Kind: kind}
}

// Name returns the fully-qualified type name, which is also the table name.
func (s *Schema) Name() string { return s.name }

// Key returns the primary key field name, or "" if none was declared.
func (s *Schema) Key() string { return s.key }

// Fields returns the fields in declared order. The slice must not be modified.
func (s *Schema) Fields() []Field { return s.fields }

// Len returns the number of fields.
func (s *Schema) Len() int { return len(s.fields) }

// Lookup finds a field by name.
func (s *Schema) Lookup(name string) (Field, bool) {
	i, ok := s.byName[name]
	if !ok {
		return Field{}, false
	}
	return s.fields[i], true
}

// New returns an empty Record of this type.
func (s *Schema) New() *Record {
	return &Record{
		schema:  s,
		values:  make([]Value, len(s.fields)),
		present: make([]bool, len(s.fields)),
	}
}
