package mapper

import (
	"context"
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/tablemap/internal/ddl"
	"github.com/roach88/tablemap/internal/ir"
	"github.com/roach88/tablemap/internal/registry"
	"github.com/roach88/tablemap/internal/store"
)

const testRecords = `
record: "pmo.tutorial.PbOrmTest": {
	key: "id"
	fields: {
		id:     "int32"
		name:   "string"
		type:   "int32"
		value1: "int32"
		value2: "string"
	}
}

record: "test.AllKinds": {
	key: "id"
	fields: {
		id:  "int64"
		u32: "uint32"
		u64: "uint64"
		i32: "int32"
		f32: "float"
		f64: "double"
		b:   "bool"
		s:   "string"
		raw: "bytes"
	}
}

record: "test.Nested": {
	fields: {
		id:    "int32"
		child: "message"
	}
}
`

type fixture struct {
	mapper *Mapper
	types  *registry.Registry
	path   string
}

// newFixture returns a Mapper on a fresh SQLite file. The file is not created
// until the first statement runs.
func newFixture(t *testing.T) *fixture {
	t.Helper()
	types := registry.New()
	require.NoError(t, types.LoadString(testRecords, "records.cue"))

	path := filepath.Join(t.TempDir(), "tablemap.db")
	m, err := New(store.Config{Dialect: "sqlite", Path: path}, types, nil)
	require.NoError(t, err)
	return &fixture{mapper: m, types: types, path: path}
}

func (f *fixture) schema(t *testing.T, name string) *ir.Schema {
	t.Helper()
	s, err := f.types.SchemaFor(name)
	require.NoError(t, err)
	return s
}

func (f *fixture) createTables(t *testing.T, names ...string) {
	t.Helper()
	for _, name := range names {
		_, err := f.mapper.CreateTable(context.Background(), f.schema(t, name), ddl.Options{})
		require.NoError(t, err)
	}
}

func present(rec *ir.Record) map[string]ir.Value {
	out := make(map[string]ir.Value)
	for _, fv := range rec.Present() {
		out[fv.Field.Name] = fv.Value
	}
	return out
}

func TestSaveLoad_ConcreteScenario(t *testing.T) {
	f := newFixture(t)
	f.createTables(t, "pmo.tutorial.PbOrmTest")
	ctx := context.Background()
	s := f.schema(t, "pmo.tutorial.PbOrmTest")

	rec := s.New().MustSet("id", ir.Int32(1)).MustSet("name", ir.String("pot1"))
	require.NoError(t, f.mapper.Save(ctx, rec))
	assert.Equal(t, store.Disconnected, f.mapper.State())

	got, err := f.mapper.Load(ctx, s.New().MustSet("id", ir.Int32(1)))
	require.NoError(t, err)
	assert.Equal(t, store.Disconnected, f.mapper.State())
	require.Len(t, got, 1)
	assert.Equal(t, map[string]ir.Value{
		"id":   ir.Int32(1),
		"name": ir.String("pot1"),
	}, present(got[0]))
}

func TestSaveLoad_PresencePreserved(t *testing.T) {
	f := newFixture(t)
	f.createTables(t, "pmo.tutorial.PbOrmTest")
	ctx := context.Background()
	s := f.schema(t, "pmo.tutorial.PbOrmTest")

	rec := s.New().MustSet("id", ir.Int32(2)).MustSet("value1", ir.Int32(0))
	require.NoError(t, f.mapper.Save(ctx, rec))

	got, err := f.mapper.Load(ctx, s.New().MustSet("id", ir.Int32(2)))
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.True(t, got[0].Has("value1"), "zero value is still present")
	assert.False(t, got[0].Has("name"))
	assert.False(t, got[0].Has("type"))
	assert.False(t, got[0].Has("value2"))
}

func TestSave_ReplacesByKey(t *testing.T) {
	f := newFixture(t)
	f.createTables(t, "pmo.tutorial.PbOrmTest")
	ctx := context.Background()
	s := f.schema(t, "pmo.tutorial.PbOrmTest")

	require.NoError(t, f.mapper.Save(ctx, s.New().MustSet("id", ir.Int32(1)).MustSet("name", ir.String("a"))))
	require.NoError(t, f.mapper.Save(ctx, s.New().MustSet("id", ir.Int32(1)).MustSet("name", ir.String("b"))))

	got, err := f.mapper.Load(ctx, s.New())
	require.NoError(t, err)
	require.Len(t, got, 1)
	v, _ := got[0].Get("name")
	assert.Equal(t, ir.String("b"), v)
}

func TestSaveLoad_AllKindsRoundTrip(t *testing.T) {
	f := newFixture(t)
	f.createTables(t, "test.AllKinds")
	ctx := context.Background()
	s := f.schema(t, "test.AllKinds")

	rec := s.New().
		MustSet("id", ir.Int64(-42)).
		MustSet("u32", ir.Uint32(4000000000)).
		MustSet("u64", ir.Uint64(1<<40)).
		MustSet("i32", ir.Int32(-7)).
		MustSet("f32", ir.Float32(0.5)).
		MustSet("f64", ir.Float64(2.25)).
		MustSet("b", ir.Bool(true)).
		MustSet("s", ir.String("héllo")).
		MustSet("raw", ir.Bytes([]byte{0, 1, '"', '\\', 0xff}))
	require.NoError(t, f.mapper.Save(ctx, rec))

	got, err := f.mapper.Load(ctx, s.New().MustSet("id", ir.Int64(-42)))
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, present(rec), present(got[0]))
}

func TestSaveLoad_Uint64ExtremesRoundTrip(t *testing.T) {
	f := newFixture(t)
	f.createTables(t, "test.AllKinds")
	ctx := context.Background()
	s := f.schema(t, "test.AllKinds")

	values := []uint64{0, math.MaxInt64, math.MaxInt64 + 1, math.MaxUint64}
	for i, n := range values {
		require.NoError(t, f.mapper.Save(ctx, s.New().MustSet("id", ir.Int64(i)).MustSet("u64", ir.Uint64(n))))
	}

	for i, n := range values {
		report, err := f.mapper.LoadReport(ctx, s.New().MustSet("u64", ir.Uint64(n)))
		require.NoError(t, err)
		assert.Empty(t, report.Diagnostics)
		require.Len(t, report.Records, 1, "u64=%d", n)

		id, _ := report.Records[0].Get("id")
		assert.Equal(t, ir.Int64(i), id)
		v, _ := report.Records[0].Get("u64")
		assert.Equal(t, ir.Uint64(n), v)
	}
}

func TestSaveLoad_EscapingSafety(t *testing.T) {
	f := newFixture(t)
	f.createTables(t, "pmo.tutorial.PbOrmTest")
	ctx := context.Background()
	s := f.schema(t, "pmo.tutorial.PbOrmTest")

	tricky := `say "hi" \ it's "quoted" \\`
	require.NoError(t, f.mapper.Save(ctx, s.New().MustSet("id", ir.Int32(3)).MustSet("name", ir.String(tricky))))

	got, err := f.mapper.Load(ctx, s.New().MustSet("name", ir.String(tricky)))
	require.NoError(t, err)
	require.Len(t, got, 1)
	v, _ := got[0].Get("name")
	assert.Equal(t, ir.String(tricky), v)
}

func TestLoad_EmptyTemplateScansTable(t *testing.T) {
	f := newFixture(t)
	f.createTables(t, "pmo.tutorial.PbOrmTest")
	ctx := context.Background()
	s := f.schema(t, "pmo.tutorial.PbOrmTest")

	for i := int32(1); i <= 3; i++ {
		require.NoError(t, f.mapper.Save(ctx, s.New().MustSet("id", ir.Int32(i))))
	}

	got, err := f.mapper.Load(ctx, s.New())
	require.NoError(t, err)
	assert.Len(t, got, 3)
}

func TestLoad_NoMatchIsEmpty(t *testing.T) {
	f := newFixture(t)
	f.createTables(t, "pmo.tutorial.PbOrmTest")
	s := f.schema(t, "pmo.tutorial.PbOrmTest")

	got, err := f.mapper.Load(context.Background(), s.New().MustSet("id", ir.Int32(99)))
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestSave_EmptyRecordNeverConnects(t *testing.T) {
	f := newFixture(t)
	s := f.schema(t, "pmo.tutorial.PbOrmTest")

	err := f.mapper.Save(context.Background(), s.New())
	require.Error(t, err)
	assert.True(t, errors.Is(err, ir.ErrEmptyRecord))
	assert.Equal(t, store.Disconnected, f.mapper.State())

	_, statErr := os.Stat(f.path)
	assert.True(t, os.IsNotExist(statErr), "database file must not be opened")
}

func TestSave_UnsupportedKindNeverConnects(t *testing.T) {
	f := newFixture(t)
	s := f.schema(t, "test.Nested")

	err := f.mapper.Save(context.Background(), s.New().MustSet("id", ir.Int32(1)))
	require.Error(t, err)

	var e *ir.Error
	require.True(t, errors.As(err, &e))
	assert.Equal(t, ir.CodeUnsupportedFieldKind, e.Code)
	assert.Equal(t, "child", e.Field)

	_, err = f.mapper.Load(context.Background(), s.New())
	assert.True(t, errors.Is(err, ir.ErrUnsupportedFieldKind))

	_, statErr := os.Stat(f.path)
	assert.True(t, os.IsNotExist(statErr))
}

func TestSave_QueryFailureDisconnects(t *testing.T) {
	f := newFixture(t)
	s := f.schema(t, "pmo.tutorial.PbOrmTest")

	err := f.mapper.Save(context.Background(), s.New().MustSet("id", ir.Int32(1)))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ir.ErrQueryFailure))
	assert.Equal(t, store.Disconnected, f.mapper.State())

	_, err = f.mapper.Load(context.Background(), s.New())
	assert.True(t, errors.Is(err, ir.ErrQueryFailure))
	assert.Equal(t, store.Disconnected, f.mapper.State())
}

func TestSave_ConnectionFailure(t *testing.T) {
	types := registry.New()
	require.NoError(t, types.LoadString(testRecords, "records.cue"))
	m, err := New(store.Config{Dialect: "sqlite", Path: "/nonexistent/dir/x.db"}, types, nil)
	require.NoError(t, err)

	s, err := types.SchemaFor("pmo.tutorial.PbOrmTest")
	require.NoError(t, err)
	err = m.Save(context.Background(), s.New().MustSet("id", ir.Int32(1)))
	assert.True(t, errors.Is(err, ir.ErrConnectionFailure))
	assert.Equal(t, store.Disconnected, m.State())
}

func TestLoadReport_DecodeFailureKeepsRow(t *testing.T) {
	f := newFixture(t)
	f.createTables(t, "pmo.tutorial.PbOrmTest")
	ctx := context.Background()

	// Same table, but value1 written as text.
	loose := ir.MustSchema("pmo.tutorial.PbOrmTest", "id",
		ir.F("id", ir.KindInt32),
		ir.F("name", ir.KindString),
		ir.F("value1", ir.KindString),
	)
	require.NoError(t, f.mapper.Save(ctx, loose.New().
		MustSet("id", ir.Int32(1)).
		MustSet("name", ir.String("pot1")).
		MustSet("value1", ir.String("not a number"))))
	require.NoError(t, f.mapper.Save(ctx, loose.New().
		MustSet("id", ir.Int32(2)).
		MustSet("value1", ir.String("5"))))

	s := f.schema(t, "pmo.tutorial.PbOrmTest")
	report, err := f.mapper.LoadReport(ctx, s.New())
	require.NoError(t, err)
	require.Len(t, report.Records, 2)
	require.Len(t, report.Diagnostics, 1)

	d := report.Diagnostics[0]
	assert.Equal(t, 0, d.Row)
	assert.Equal(t, "value1", d.Column)
	assert.True(t, errors.Is(d.Err, ir.ErrDecodeFailure))

	first := present(report.Records[0])
	assert.Equal(t, map[string]ir.Value{"id": ir.Int32(1), "name": ir.String("pot1")}, first)
	assert.True(t, report.Records[1].Has("value1"))
}

func TestBytes_RoundTrip(t *testing.T) {
	f := newFixture(t)
	f.createTables(t, "pmo.tutorial.PbOrmTest")
	ctx := context.Background()

	require.NoError(t, f.mapper.SaveBytes(ctx, "pmo.tutorial.PbOrmTest", []byte(`{"name":"pot1","id":1,"value1":99}`)))

	got, err := f.mapper.LoadBytes(ctx, "pmo.tutorial.PbOrmTest", []byte(`{"id":1}`))
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, `{"id":1,"name":"pot1","value1":99}`, string(got[0]))
	assert.Equal(t, store.Disconnected, f.mapper.State())
}

func TestBytes_TypeNotFound(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	err := f.mapper.SaveBytes(ctx, "pmo.tutorial.Missing", []byte(`{"id":1}`))
	assert.True(t, errors.Is(err, ir.ErrTypeNotFound))

	_, err = f.mapper.LoadBytes(ctx, "pmo.tutorial.Missing", []byte(`{}`))
	assert.True(t, errors.Is(err, ir.ErrTypeNotFound))

	_, statErr := os.Stat(f.path)
	assert.True(t, os.IsNotExist(statErr))
}

func TestBytes_BadPayload(t *testing.T) {
	f := newFixture(t)

	err := f.mapper.SaveBytes(context.Background(), "pmo.tutorial.PbOrmTest", []byte(`{"id":"x"`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "pmo.tutorial.PbOrmTest")
}

func TestCreateTable_SkipUnsupported(t *testing.T) {
	f := newFixture(t)
	s := f.schema(t, "test.Nested")

	_, err := f.mapper.CreateTable(context.Background(), s, ddl.Options{})
	assert.True(t, errors.Is(err, ir.ErrUnsupportedFieldKind))

	skipped, err := f.mapper.CreateTable(context.Background(), s, ddl.Options{SkipUnsupported: true})
	require.NoError(t, err)
	require.Len(t, skipped, 1)
	assert.Equal(t, "child", skipped[0].Name)
	assert.Equal(t, store.Disconnected, f.mapper.State())
}

func TestNew_Rejects(t *testing.T) {
	_, err := New(store.Config{Dialect: "sqlite", Path: "x.db"}, nil, nil)
	assert.ErrorContains(t, err, "nil type registry")

	_, err = New(store.Config{Dialect: "oracle"}, registry.New(), nil)
	assert.ErrorContains(t, err, "unknown dialect")
}
