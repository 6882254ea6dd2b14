package ir

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValueSealed(t *testing.T) {
	// Compile-time check via assignment
	var _ Value = Int32(1)
	var _ Value = Uint32(1)
	var _ Value = Int64(1)
	var _ Value = Uint64(1)
	var _ Value = Float32(1)
	var _ Value = Float64(1)
	var _ Value = Bool(true)
	var _ Value = String("s")
	var _ Value = Bytes("b")
}

func TestValueKinds(t *testing.T) {
	cases := map[Kind]Value{
		KindInt32:   Int32(-1),
		KindUint32:  Uint32(1),
		KindInt64:   Int64(-1),
		KindUint64:  Uint64(1),
		KindFloat32: Float32(1.5),
		KindFloat64: Float64(2.5),
		KindBool:    Bool(true),
		KindString:  String("x"),
		KindBytes:   Bytes{0x01},
	}
	for k, v := range cases {
		assert.Equal(t, k, v.Kind(), "value %#v", v)
	}
}

func TestZeroValue(t *testing.T) {
	for k := KindInt32; k <= KindBytes; k++ {
		v, err := ZeroValue(k)
		require.NoError(t, err, k.String())
		assert.Equal(t, k, v.Kind())
	}

	_, err := ZeroValue(KindMessage)
	assert.Error(t, err)
}

func TestParseKind(t *testing.T) {
	tests := []struct {
		in   string
		want Kind
	}{
		{"int32", KindInt32},
		{"UINT64", KindUint64},
		{" string ", KindString},
		{"double", KindFloat64},
		{"float", KindFloat32},
		{"fixed64", KindUint64},
		{"sfixed32", KindInt32},
		{"message", KindMessage},
		{"enum", KindEnum},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseKind(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := ParseKind("invalid")
	assert.Error(t, err)
	_, err = ParseKind("decimal")
	assert.Error(t, err)
}

func TestKindScalar(t *testing.T) {
	for k := KindInvalid; k < NumKinds; k++ {
		want := k >= KindInt32 && k <= KindBytes
		assert.Equal(t, want, k.Scalar(), k.String())
	}
}

func TestKindText(t *testing.T) {
	text, err := KindFloat64.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "float64", string(text))

	var k Kind
	require.NoError(t, k.UnmarshalText([]byte("bytes")))
	assert.Equal(t, KindBytes, k)
}
