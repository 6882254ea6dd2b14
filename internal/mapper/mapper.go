// Package mapper persists records into tables and loads them back.
//
// Every operation runs in one session: compile the statement, connect,
// execute, fetch and materialize, then disconnect. The session is
// disconnected again when the call returns, whether it succeeded or not.
// Statements are compiled before connecting, so a record that cannot be
// written never reaches the backend.
package mapper

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/roach88/tablemap/internal/codec"
	"github.com/roach88/tablemap/internal/ddl"
	"github.com/roach88/tablemap/internal/ir"
	"github.com/roach88/tablemap/internal/materialize"
	"github.com/roach88/tablemap/internal/querysql"
	"github.com/roach88/tablemap/internal/store"
)

// Types resolves record type names and converts records to and from their
// serialized form. *registry.Registry implements it.
type Types interface {
	SchemaFor(typeName string) (*ir.Schema, error)
	Serialize(rec *ir.Record) ([]byte, error)
	Deserialize(typeName string, data []byte) (*ir.Record, error)
}

// Mapper is the load/save facade over one backend session.
// It is not safe for overlapping calls; give each caller its own Mapper.
type Mapper struct {
	types        Types
	logger       *slog.Logger
	session      *store.Session
	compiler     *querysql.SQLCompiler
	materializer *materialize.Materializer
}

// Report is the result of LoadReport.
type Report struct {
	Records     []*ir.Record
	Diagnostics []materialize.Diagnostic
}

// New creates a Mapper for the backend described by cfg.
// A nil logger uses slog.Default().
func New(cfg store.Config, types Types, logger *slog.Logger) (*Mapper, error) {
	if types == nil {
		return nil, fmt.Errorf("mapper: nil type registry")
	}
	if logger == nil {
		logger = slog.Default()
	}
	session, err := store.NewSession(cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("mapper: %w", err)
	}
	c := codec.New(session.Dialect())
	return &Mapper{
		types:        types,
		logger:       logger,
		session:      session,
		compiler:     querysql.NewSQLCompiler(c),
		materializer: materialize.New(c),
	}, nil
}

// Dialect returns the backend dialect.
func (m *Mapper) Dialect() codec.Dialect { return m.session.Dialect() }

// State reports the session state. It is Disconnected between calls.
func (m *Mapper) State() store.State { return m.session.State() }

// Save writes rec as one row, replacing any row with the same key.
//
// Fails with EMPTY_RECORD when no field is present and UNSUPPORTED_FIELD_KIND
// when the schema has a field without a column mapping; neither connects.
// Backend problems are CONNECTION_FAILURE or QUERY_FAILURE.
func (m *Mapper) Save(ctx context.Context, rec *ir.Record) error {
	if rec == nil {
		return fmt.Errorf("save: nil record")
	}
	stmt, err := m.compiler.BuildReplace(rec.Schema(), rec)
	if err != nil {
		return err
	}

	defer m.release()
	if err := m.session.Exec(ctx, stmt); err != nil {
		return err
	}
	m.logger.Debug("saved", "type", rec.TypeName(), "fields", rec.Len())
	return nil
}

// Load returns every row matching the present fields of template.
// A template with no present fields loads the whole table. No match is an
// empty slice, not an error. Field-level problems are logged and leave the
// field absent; use LoadReport to receive them.
func (m *Mapper) Load(ctx context.Context, template *ir.Record) ([]*ir.Record, error) {
	report, err := m.LoadReport(ctx, template)
	if err != nil {
		return nil, err
	}
	return report.Records, nil
}

// LoadReport is Load that also returns the field-scoped diagnostics.
func (m *Mapper) LoadReport(ctx context.Context, template *ir.Record) (*Report, error) {
	if template == nil {
		return nil, fmt.Errorf("load: nil template")
	}
	s := template.Schema()
	stmt, err := m.compiler.BuildSelect(s, template)
	if err != nil {
		return nil, err
	}

	defer m.release()
	rows, err := m.session.Query(ctx, stmt)
	if err != nil {
		return nil, err
	}
	records, diags := m.materializer.MaterializeAll(s, rows)
	for _, d := range diags {
		m.logger.Warn("field skipped", "type", s.Name(), "row", d.Row, "column", d.Column, "error", d.Err)
	}
	m.logger.Debug("loaded", "type", s.Name(), "rows", len(records))
	return &Report{Records: records, Diagnostics: diags}, nil
}

// SaveBytes deserializes data as typeName and saves it.
func (m *Mapper) SaveBytes(ctx context.Context, typeName string, data []byte) error {
	if _, err := m.types.SchemaFor(typeName); err != nil {
		return err
	}
	rec, err := m.types.Deserialize(typeName, data)
	if err != nil {
		return fmt.Errorf("save %s: %w", typeName, err)
	}
	return m.Save(ctx, rec)
}

// LoadBytes deserializes data as a typeName template, loads the matching
// records and returns them serialized.
func (m *Mapper) LoadBytes(ctx context.Context, typeName string, data []byte) ([][]byte, error) {
	if _, err := m.types.SchemaFor(typeName); err != nil {
		return nil, err
	}
	template, err := m.types.Deserialize(typeName, data)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", typeName, err)
	}
	records, err := m.Load(ctx, template)
	if err != nil {
		return nil, err
	}

	out := make([][]byte, 0, len(records))
	for _, rec := range records {
		b, err := m.types.Serialize(rec)
		if err != nil {
			return nil, fmt.Errorf("load %s: %w", typeName, err)
		}
		out = append(out, b)
	}
	return out, nil
}

// CreateTable drops and recreates the table for s. The dialect in opts is
// replaced by the Mapper's.
func (m *Mapper) CreateTable(ctx context.Context, s *ir.Schema, opts ddl.Options) ([]ir.Field, error) {
	opts.Dialect = m.Dialect()
	tables, err := ddl.Tables([]*ir.Schema{s}, opts)
	if err != nil {
		return nil, err
	}

	defer m.release()
	for _, stmt := range tables[0].Statements() {
		if err := m.session.Exec(ctx, stmt); err != nil {
			return nil, err
		}
	}
	m.logger.Debug("created table", "type", s.Name(), "skipped", len(tables[0].Skipped))
	return tables[0].Skipped, nil
}

func (m *Mapper) release() {
	if err := m.session.Disconnect(); err != nil {
		m.logger.Warn("disconnect failed", "error", err)
	}
}
