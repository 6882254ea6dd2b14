package ir

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testSchema(t *testing.T) *Schema {
	t.Helper()
	s, err := NewSchema("pmo.tutorial.PbOrmTest", "id",
		F("id", KindInt32),
		F("name", KindString),
		F("value1", KindInt64),
		F("blob", KindBytes),
		F("child", KindMessage),
		Field{Name: "tags", Kind: KindString, Repeated: true},
	)
	require.NoError(t, err)
	return s
}

func TestNewSchema_AssignsDeclaredOrder(t *testing.T) {
	s := testSchema(t)

	for i, f := range s.Fields() {
		assert.Equal(t, i, f.Order)
	}
	f, ok := s.Lookup("value1")
	require.True(t, ok)
	assert.Equal(t, 2, f.Order)
	assert.Equal(t, "id", s.Key())
	assert.Equal(t, "pmo.tutorial.PbOrmTest", s.Name())
}

func TestNewSchema_Rejects(t *testing.T) {
	_, err := NewSchema("", "")
	assert.Error(t, err)

	_, err = NewSchema("T", "", F("a", KindInt32), F("a", KindString))
	assert.ErrorContains(t, err, "duplicate")

	_, err = NewSchema("T", "", F("", KindInt32))
	assert.ErrorContains(t, err, "no name")

	_, err = NewSchema("T", "", F("a", KindInvalid))
	assert.ErrorContains(t, err, "invalid kind")

	_, err = NewSchema("T", "missing", F("a", KindInt32))
	assert.ErrorContains(t, err, "not a field")

	_, err = NewSchema("T", "child", F("child", KindMessage))
	assert.ErrorContains(t, err, "unsupported")
}

func TestFieldSupported(t *testing.T) {
	assert.True(t, F("a", KindBytes).Supported())
	assert.False(t, F("a", KindMessage).Supported())
	assert.False(t, F("a", KindEnum).Supported())
	assert.False(t, Field{Name: "a", Kind: KindInt32, Repeated: true}.Supported())
	assert.Equal(t, "repeated int32", Field{Name: "a", Kind: KindInt32, Repeated: true}.KindName())
}

func TestRecord_PresenceIsIndependentOfValue(t *testing.T) {
	rec := testSchema(t).New()

	assert.False(t, rec.Has("id"))
	assert.Equal(t, 0, rec.Len())

	require.NoError(t, rec.Set("id", Int32(0)))
	assert.True(t, rec.Has("id"), "zero value must still be present")
	v, ok := rec.Get("id")
	require.True(t, ok)
	assert.Equal(t, Int32(0), v)

	_, ok = rec.Get("name")
	assert.False(t, ok)

	rec.Clear("id")
	assert.False(t, rec.Has("id"))
}

func TestRecord_SetRejectsUnsupportedField(t *testing.T) {
	rec := testSchema(t).New()

	err := rec.Set("tags", String("x"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnsupportedFieldKind))
	assert.False(t, rec.Has("tags"))

	err = rec.Set("child", String("x"))
	assert.True(t, errors.Is(err, ErrUnsupportedFieldKind))
	assert.False(t, rec.Has("child"))
}

func TestRecord_SetRejectsKindMismatch(t *testing.T) {
	rec := testSchema(t).New()

	assert.Error(t, rec.Set("id", Int64(1)))
	assert.Error(t, rec.Set("nope", Int32(1)))
	assert.Error(t, rec.Set("id", nil))
	assert.False(t, rec.Has("id"))
}

func TestRecord_PresentInDeclaredOrder(t *testing.T) {
	rec := testSchema(t).New()
	rec.MustSet("blob", Bytes("b")).MustSet("id", Int32(7)).MustSet("name", String("n"))

	var names []string
	for _, fv := range rec.Present() {
		names = append(names, fv.Field.Name)
	}
	assert.Equal(t, []string{"id", "name", "blob"}, names)
}

func TestRecord_BytesAreCopied(t *testing.T) {
	rec := testSchema(t).New()
	buf := []byte("abc")
	rec.MustSet("blob", Bytes(buf))
	buf[0] = 'X'

	v, _ := rec.Get("blob")
	assert.Equal(t, Bytes("abc"), v)

	clone := rec.Clone()
	clone.MustSet("blob", Bytes("zzz"))
	v, _ = rec.Get("blob")
	assert.Equal(t, Bytes("abc"), v)
}

func TestRow_Lookup(t *testing.T) {
	row := TextRow("id", "1", "name", "pot1")

	c, ok := row.Lookup("name")
	require.True(t, ok)
	assert.Equal(t, "pot1", c.Text)
	assert.True(t, c.Valid)

	_, ok = row.Lookup("missing")
	assert.False(t, ok)
}
