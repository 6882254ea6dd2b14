package querysql

import (
	"fmt"
	"strings"

	"github.com/roach88/tablemap/internal/codec"
	"github.com/roach88/tablemap/internal/ir"
)

// SQLCompiler builds statement text from a schema and a record.
//
// Values are rendered inline as literals by the codec; there are no
// placeholders. Fields are always visited in declared order, so the same
// record compiles to the same text.
type SQLCompiler struct {
	codec *codec.Codec
}

// NewSQLCompiler creates a compiler that renders literals with c.
func NewSQLCompiler(c *codec.Codec) *SQLCompiler {
	return &SQLCompiler{codec: c}
}

// Dialect returns the dialect statements are rendered in.
func (c *SQLCompiler) Dialect() codec.Dialect {
	return c.codec.Dialect()
}

// assignment is one column=literal pair of a predicate or SET list.
type assignment struct {
	column  string
	literal string
}

// BuildSelect compiles a predicate template into a SELECT statement.
//
// Every present field becomes an equality predicate, joined with AND. A
// template with no present fields compiles to an unconditional scan with no
// WHERE clause.
func (c *SQLCompiler) BuildSelect(s *ir.Schema, template *ir.Record) (string, error) {
	preds, err := c.assignments(s, template)
	if err != nil {
		return "", fmt.Errorf("compile select: %w", err)
	}

	d := c.codec.Dialect()
	var b strings.Builder
	b.WriteString("SELECT * FROM ")
	b.WriteString(d.QuoteIdent(s.Name()))
	for i, p := range preds {
		if i == 0 {
			b.WriteString(" WHERE ")
		} else {
			b.WriteString(" AND ")
		}
		b.WriteString(p.column)
		b.WriteByte('=')
		b.WriteString(p.literal)
	}
	return b.String(), nil
}

// BuildReplace compiles a record into a single-row REPLACE statement.
//
// Only present fields are written, in declared order. A record with no present
// fields fails with EMPTY_RECORD.
func (c *SQLCompiler) BuildReplace(s *ir.Schema, rec *ir.Record) (string, error) {
	sets, err := c.assignments(s, rec)
	if err != nil {
		return "", fmt.Errorf("compile replace: %w", err)
	}
	if len(sets) == 0 {
		return "", ir.NewEmptyRecord(s.Name())
	}

	d := c.codec.Dialect()
	var b strings.Builder
	b.WriteString("REPLACE INTO ")
	b.WriteString(d.QuoteIdent(s.Name()))

	switch d.ReplaceStyle() {
	case codec.ReplaceSet:
		b.WriteString(" SET ")
		for i, a := range sets {
			if i > 0 {
				b.WriteString(", ")
			}
			b.WriteString(a.column)
			b.WriteByte('=')
			b.WriteString(a.literal)
		}
	case codec.ReplaceValues:
		cols := make([]string, len(sets))
		vals := make([]string, len(sets))
		for i, a := range sets {
			cols[i] = a.column
			vals[i] = a.literal
		}
		b.WriteString(" (")
		b.WriteString(strings.Join(cols, ", "))
		b.WriteString(") VALUES (")
		b.WriteString(strings.Join(vals, ", "))
		b.WriteByte(')')
	default:
		return "", fmt.Errorf("compile replace: dialect %s has unknown replace style %d", d.Name(), d.ReplaceStyle())
	}
	return b.String(), nil
}

// assignments renders the present fields of rec as quoted column / literal pairs.
//
// The whole schema is checked first: any field without a column mapping aborts
// the build, present or not, so a statement never covers only part of a type.
func (c *SQLCompiler) assignments(s *ir.Schema, rec *ir.Record) ([]assignment, error) {
	if rec == nil {
		return nil, fmt.Errorf("nil record for %s", s.Name())
	}
	if rec.TypeName() != s.Name() {
		return nil, fmt.Errorf("record type %s does not match schema %s", rec.TypeName(), s.Name())
	}
	for _, f := range s.Fields() {
		if !codec.Supports(f) {
			return nil, ir.NewUnsupportedKind(s.Name(), f)
		}
	}

	d := c.codec.Dialect()
	present := rec.Present()
	out := make([]assignment, 0, len(present))
	for _, fv := range present {
		lit, err := c.codec.EncodeField(s.Name(), fv.Field, fv.Value)
		if err != nil {
			return nil, err
		}
		out = append(out, assignment{column: d.QuoteIdent(fv.Field.Name), literal: lit})
	}
	return out, nil
}
