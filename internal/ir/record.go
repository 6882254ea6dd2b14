package ir

import "fmt"

// Record is an instance of a record type: a value and a presence flag per field.
//
// An absent field is distinct from a field holding its zero value. Save emits
// only present fields and Load marks presence only for columns it received.
// A Record is not safe for concurrent mutation.
type Record struct {
	schema  *Schema
	values  []Value
	present []bool
}

// Schema returns the record's type description.
func (r *Record) Schema() *Schema { return r.schema }

// TypeName returns the record's fully-qualified type name.
func (r *Record) TypeName() string { return r.schema.name }

// Set assigns v to the named field and marks it present.
// The value's kind must match the field kind. Unsupported fields never become present.
func (r *Record) Set(name string, v Value) error {
	i, ok := r.schema.byName[name]
	if !ok {
		return fmt.Errorf("%s: no field %q", r.schema.name, name)
	}
	f := r.schema.fields[i]
	if !f.Supported() {
		return NewUnsupportedKind(r.schema.name, f)
	}
	if v == nil {
		return fmt.Errorf("%s.%s: nil value", r.schema.name, name)
	}
	if v.Kind() != f.Kind {
		return fmt.Errorf("%s.%s: cannot set %s value on %s field", r.schema.name, name, v.Kind(), f.Kind)
	}
	r.values[i] = cloneValue(v)
	r.present[i] = true
	return nil
}

// MustSet is Set that panics on error.
func (r *Record) MustSet(name string, v Value) *Record {
	if err := r.Set(name, v); err != nil {
		panic(err)
	}
	return r
}

// Get returns the named field's value and whether it is present.
func (r *Record) Get(name string) (Value, bool) {
	i, ok := r.schema.byName[name]
	if !ok || !r.present[i] {
		return nil, false
	}
	return r.values[i], true
}

// Has reports whether the named field is present.
func (r *Record) Has(name string) bool {
	i, ok := r.schema.byName[name]
	return ok && r.present[i]
}

// Clear marks the named field absent.
func (r *Record) Clear(name string) {
	if i, ok := r.schema.byName[name]; ok {
		r.values[i] = nil
		r.present[i] = false
	}
}

// Len returns the number of present fields.
func (r *Record) Len() int {
	n := 0
	for _, p := range r.present {
		if p {
			n++
		}
	}
	return n
}

// FieldValue pairs a present field with its value.
type FieldValue struct {
	Field Field
	Value Value
}

// Present returns the present fields with their values in declared order.
func (r *Record) Present() []FieldValue {
	out := make([]FieldValue, 0, len(r.values))
	for i, p := range r.present {
		if p {
			out = append(out, FieldValue{Field: r.schema.fields[i], Value: r.values[i]})
		}
	}
	return out
}

// Clone returns a deep copy of r.
func (r *Record) Clone() *Record {
	c := r.schema.New()
	for i, p := range r.present {
		if p {
			c.values[i] = cloneValue(r.values[i])
			c.present[i] = true
		}
	}
	return c
}
