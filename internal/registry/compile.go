package registry

import (
	"fmt"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"

	"github.com/roach88/tablemap/internal/ir"
)

// CompileRecord parses a CUE record definition into a Schema.
//
// The value should be the record struct itself, labelled with the full type
// name:
//
//	record: "pmo.tutorial.PbOrmTest": {
//		key: "id"
//		fields: {
//			id:   "int32"
//			name: "string"
//			tags: "repeated string"
//		}
//	}
//
// Fields are taken in declaration order.
func CompileRecord(v cue.Value) (*ir.Schema, error) {
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}

	var name string
	if sels := v.Path().Selectors(); len(sels) > 0 {
		name = sels[len(sels)-1].Unquoted()
	}
	if name == "" {
		return nil, &CompileError{Field: "record", Message: "record has no type name", Pos: v.Pos()}
	}

	var key string
	if kv := v.LookupPath(cue.ParsePath("key")); kv.Exists() {
		k, err := kv.String()
		if err != nil {
			return nil, formatCUEError(err)
		}
		key = k
	}

	fieldsVal := v.LookupPath(cue.ParsePath("fields"))
	if !fieldsVal.Exists() {
		return nil, &CompileError{Field: "fields", Message: "fields is required", Pos: v.Pos()}
	}
	fields, err := parseFields(fieldsVal)
	if err != nil {
		return nil, err
	}
	if len(fields) == 0 {
		return nil, &CompileError{Field: "fields", Message: "at least one field is required", Pos: fieldsVal.Pos()}
	}

	s, err := ir.NewSchema(name, key, fields...)
	if err != nil {
		return nil, &CompileError{Field: "record", Message: err.Error(), Pos: v.Pos()}
	}
	return s, nil
}

// parseFields reads `name: "kind"` pairs in declaration order.
func parseFields(v cue.Value) ([]ir.Field, error) {
	iter, err := v.Fields()
	if err != nil {
		return nil, formatCUEError(err)
	}

	var fields []ir.Field
	for iter.Next() {
		fv := iter.Value()
		decl, err := fv.String()
		if err != nil {
			return nil, &CompileError{
				Field:   "fields." + iter.Selector().Unquoted(),
				Message: "field kind must be a string",
				Pos:     fv.Pos(),
			}
		}
		f, err := parseField(iter.Selector().Unquoted(), decl)
		if err != nil {
			return nil, &CompileError{Field: "type", Message: err.Error(), Pos: fv.Pos()}
		}
		fields = append(fields, f)
	}
	return fields, nil
}

// parseField parses a kind declaration such as "int64" or "repeated string".
func parseField(name, decl string) (ir.Field, error) {
	f := ir.Field{Name: name}
	words := strings.Fields(decl)
	if len(words) == 2 && words[0] == "repeated" {
		f.Repeated = true
		words = words[1:]
	}
	if len(words) != 1 {
		return ir.Field{}, fmt.Errorf("field %q: malformed kind %q", name, decl)
	}
	k, err := ir.ParseKind(words[0])
	if err != nil {
		return ir.Field{}, fmt.Errorf("field %q: %w", name, err)
	}
	f.Kind = k
	return f, nil
}

// CompileError is a record definition error with its CUE source position.
type CompileError struct {
	Field   string
	Message string
	Pos     token.Pos
}

func (e *CompileError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s",
			e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(),
			e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// formatCUEError extracts position info from CUE errors.
func formatCUEError(err error) error {
	if err == nil {
		return nil
	}

	errs := errors.Errors(err)
	if len(errs) == 0 {
		return err
	}

	first := errs[0]
	if positions := errors.Positions(first); len(positions) > 0 {
		return &CompileError{
			Field:   "cue",
			Message: first.Error(),
			Pos:     positions[0],
		}
	}
	return err
}
