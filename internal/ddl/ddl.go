// Package ddl renders DROP/CREATE TABLE statements for record schemas.
//
// Each scalar field becomes one column named exactly like the field, so the
// materializer can match fetched columns by name. Message, group and enum
// fields and repeated fields have no column type: they fail generation for
// their type unless Options.SkipUnsupported is set.
package ddl

import (
	"bytes"
	"embed"
	"fmt"
	"strings"
	"text/template"

	"github.com/roach88/tablemap/internal/codec"
	"github.com/roach88/tablemap/internal/ir"
)

//go:embed table.sql.tmpl
var templateFS embed.FS

var tmpl = template.Must(template.ParseFS(templateFS, "table.sql.tmpl"))

// columnTypes maps scalar kinds to column types. Kinds without an entry have
// no column type.
var columnTypes = map[ir.Kind]string{
	ir.KindFloat64: "double",
	ir.KindFloat32: "float",
	ir.KindInt64:   "bigint",
	ir.KindUint64:  "bigint",
	ir.KindInt32:   "int",
	ir.KindUint32:  "int",
	ir.KindBool:    "tinyint",
	ir.KindString:  "varchar(64)",
	ir.KindBytes:   "blob",
}

// dialectColumnTypes override columnTypes per dialect. SQLite keeps uint64 in
// a TEXT column: values above MaxInt64 are written as text and an INTEGER
// column would convert them to REAL.
var dialectColumnTypes = map[string]map[ir.Kind]string{
	"sqlite": {ir.KindUint64: "text"},
}

// tableOptions are appended after the column list, per dialect.
var tableOptions = map[string]string{
	"mysql": "ENGINE=InnoDB DEFAULT CHARSET=utf8mb4",
}

// ColumnType returns the column type for f in dialect d, or false if f has
// none. A nil d means MySQL.
func ColumnType(d codec.Dialect, f ir.Field) (string, bool) {
	if f.Repeated {
		return "", false
	}
	t, ok := columnTypes[f.Kind]
	if !ok {
		return "", false
	}
	if d != nil {
		if o, ok := dialectColumnTypes[d.Name()][f.Kind]; ok {
			t = o
		}
	}
	return t, true
}

// Options control one generation run.
type Options struct {
	// Dialect selects quoting and table options. Nil means MySQL.
	Dialect codec.Dialect

	// SkipUnsupported drops fields without a column type instead of failing.
	SkipUnsupported bool

	// Source is recorded in the file header when non-empty.
	Source string
}

// Table is the rendered DDL for one record type.
type Table struct {
	Name    string
	Drop    string
	Create  string
	Skipped []ir.Field // Fields left out under SkipUnsupported
}

// Statements returns the table's statements in execution order.
func (t Table) Statements() []string {
	return []string{t.Drop, t.Create}
}

// generator carries the state of a single run.
type generator struct {
	opts    Options
	dialect codec.Dialect
	buf     bytes.Buffer
}

func newGenerator(opts Options) *generator {
	d := opts.Dialect
	if d == nil {
		d = codec.MySQL
	}
	return &generator{opts: opts, dialect: d}
}

// Tables renders the statements for each schema, in order.
// The first type that cannot be rendered fails the run.
func Tables(schemas []*ir.Schema, opts Options) ([]Table, error) {
	return newGenerator(opts).tables(schemas)
}

// Generate renders a complete DDL script: a header, then DROP and CREATE for
// each schema.
func Generate(schemas []*ir.Schema, opts Options) (string, error) {
	g := newGenerator(opts)
	tables, err := g.tables(schemas)
	if err != nil {
		return "", err
	}
	if err := g.exec("header", struct{ Source string }{opts.Source}); err != nil {
		return "", err
	}
	for _, t := range tables {
		fmt.Fprintf(&g.buf, "\n%s;\n%s;\n", t.Drop, t.Create)
	}
	return g.buf.String(), nil
}

func (g *generator) tables(schemas []*ir.Schema) ([]Table, error) {
	out := make([]Table, 0, len(schemas))
	for _, s := range schemas {
		t, err := g.table(s)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, nil
}

type createData struct {
	Table   string
	Defs    []string
	Options string
}

func (g *generator) table(s *ir.Schema) (Table, error) {
	t := Table{Name: s.Name()}
	data := createData{
		Table:   g.dialect.QuoteIdent(s.Name()),
		Options: tableOptions[g.dialect.Name()],
	}

	for _, f := range s.Fields() {
		typ, ok := ColumnType(g.dialect, f)
		if !ok {
			if !g.opts.SkipUnsupported {
				return Table{}, fmt.Errorf("ddl %s: %w", s.Name(), ir.NewUnsupportedKind(s.Name(), f))
			}
			t.Skipped = append(t.Skipped, f)
			continue
		}
		data.Defs = append(data.Defs, g.dialect.QuoteIdent(f.Name)+" "+typ)
	}
	if len(data.Defs) == 0 {
		return Table{}, fmt.Errorf("ddl %s: no columns to create", s.Name())
	}
	if s.Key() != "" {
		data.Defs = append(data.Defs, "PRIMARY KEY ("+g.dialect.QuoteIdent(s.Key())+")")
	}

	var err error
	if t.Drop, err = g.render("drop", data); err != nil {
		return Table{}, err
	}
	if t.Create, err = g.render("create", data); err != nil {
		return Table{}, err
	}
	return t, nil
}

func (g *generator) render(name string, data any) (string, error) {
	var b strings.Builder
	if err := tmpl.ExecuteTemplate(&b, name, data); err != nil {
		return "", fmt.Errorf("render %s: %w", name, err)
	}
	return b.String(), nil
}

func (g *generator) exec(name string, data any) error {
	if err := tmpl.ExecuteTemplate(&g.buf, name, data); err != nil {
		return fmt.Errorf("render %s: %w", name, err)
	}
	return nil
}
