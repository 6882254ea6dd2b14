// Package materialize builds records from fetched result rows.
package materialize

import (
	"fmt"

	"github.com/roach88/tablemap/internal/codec"
	"github.com/roach88/tablemap/internal/ir"
)

// Diagnostic is a field-scoped problem found while materializing a row.
// The affected field is left absent; the rest of the row is kept.
type Diagnostic struct {
	Row    int    // Index of the row in the result set
	Column string // Column name as returned by the backend
	Err    error  // DECODE_FAILURE or UNSUPPORTED_FIELD_KIND
}

func (d Diagnostic) String() string {
	return fmt.Sprintf("row %d column %s: %v", d.Row, d.Column, d.Err)
}

// Materializer turns rows into records using a schema and the codec.
type Materializer struct {
	codec *codec.Codec
}

// New creates a Materializer decoding with c.
func New(c *codec.Codec) *Materializer {
	return &Materializer{codec: c}
}

// Materialize builds a new record of schema s from one row.
//
// Columns are matched to fields by name, never by position. Unknown columns are
// ignored, NULL columns and missing columns leave the field absent. A column
// that fails to decode, or that names an unsupported field, is reported and
// skipped without affecting its siblings.
func (m *Materializer) Materialize(s *ir.Schema, row ir.Row) (*ir.Record, []Diagnostic) {
	return m.materialize(s, row, 0)
}

// MaterializeAll builds one record per row. Rows are never dropped: every
// diagnostic is field-scoped and carries its row index.
func (m *Materializer) MaterializeAll(s *ir.Schema, rows []ir.Row) ([]*ir.Record, []Diagnostic) {
	records := make([]*ir.Record, 0, len(rows))
	var diags []Diagnostic
	for i, row := range rows {
		rec, d := m.materialize(s, row, i)
		records = append(records, rec)
		diags = append(diags, d...)
	}
	return records, diags
}

func (m *Materializer) materialize(s *ir.Schema, row ir.Row, index int) (*ir.Record, []Diagnostic) {
	rec := s.New()
	var diags []Diagnostic
	report := func(column string, err error) {
		diags = append(diags, Diagnostic{Row: index, Column: column, Err: err})
	}

	// The first column for a field decides it, even when NULL or undecodable.
	seen := make(map[string]bool, len(row))
	for _, cell := range row {
		f, ok := s.Lookup(cell.Name)
		if !ok {
			continue
		}
		if seen[f.Name] {
			report(cell.Name, fmt.Errorf("duplicate column %q", cell.Name))
			continue
		}
		seen[f.Name] = true
		if !cell.Valid {
			continue
		}
		v, err := m.codec.DecodeField(s.Name(), f, cell.Text)
		if err != nil {
			report(cell.Name, err)
			continue
		}
		if err := rec.Set(f.Name, v); err != nil {
			report(cell.Name, err)
		}
	}
	return rec, diags
}
