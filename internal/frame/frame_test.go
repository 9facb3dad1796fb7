package frame

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRoundTrip(t *testing.T) {
	cases := []Frame{
		SimpleString("OK"),
		SimpleError("ERR oops"),
		Integer(-42),
		Integer(0),
		BulkStringFromString("hello\r\nworld"),
		BulkString(nil),
		Array([]Frame{Integer(1), BulkStringFromString("a")}),
		Array(nil),
		Null(),
		Boolean(true),
		Boolean(false),
		Double(1.23),
		Double(2024.0925),
		Double(math.Inf(1)),
		Double(math.Inf(-1)),
		Double(math.NaN()),
		Map([]MapEntry{{Key: BulkStringFromString("k"), Value: Integer(1)}}),
		Set([]Frame{BulkStringFromString("m1"), BulkStringFromString("m2")}),
	}

	for _, f := range cases {
		buf := Encode(nil, f)
		decoded, n, err := Decode(buf)
		require.NoError(t, err, "encoding: %q", buf)
		assert.Equal(t, len(buf), n)
		assert.True(t, f.Equal(decoded), "want %v got %v (wire %q)", f, decoded, buf)
	}
}

func TestLegacyNullShapesDecodeToEmptyNotNull(t *testing.T) {
	f, n, err := Decode([]byte("$-1\r\n"))
	require.NoError(t, err)
	assert.Equal(t, 5, n)
	assert.Equal(t, KindBulkString, f.Kind)
	assert.Empty(t, f.Bytes())

	f, n, err = Decode([]byte("*-1\r\n"))
	require.NoError(t, err)
	assert.Equal(t, 5, n)
	assert.Equal(t, KindArray, f.Kind)
	assert.Empty(t, f.Items())
}

func TestPartialFeed(t *testing.T) {
	full := Encode(nil, Array([]Frame{
		BulkStringFromString("SET"),
		BulkStringFromString("name"),
		BulkStringFromString("victory"),
	}))

	for split := 0; split < len(full); split++ {
		prefix := full[:split]
		_, n, err := Decode(prefix)
		require.ErrorIs(t, err, ErrIncomplete, "split at %d", split)
		assert.Equal(t, 0, n)
	}

	f, n, err := Decode(full)
	require.NoError(t, err)
	assert.Equal(t, len(full), n)
	assert.Equal(t, KindArray, f.Kind)
}

func TestDoubleFormatting(t *testing.T) {
	assert.Equal(t, ",1.23\r\n", string(Encode(nil, Double(1.23))))
	assert.Equal(t, ",2024.0925\r\n", string(Encode(nil, Double(2024.0925))))
	assert.Equal(t, ",nan\r\n", string(Encode(nil, Double(math.NaN()))))
	assert.Equal(t, ",inf\r\n", string(Encode(nil, Double(math.Inf(1)))))
	assert.Equal(t, ",-inf\r\n", string(Encode(nil, Double(math.Inf(-1)))))
}

func TestFrameAsSetMemberNaNEquality(t *testing.T) {
	a := Double(math.NaN())
	b := Double(math.NaN())
	assert.True(t, a.Equal(b))
	assert.Equal(t, a.Hash(), b.Hash())
}

func TestInvalidPrefixByte(t *testing.T) {
	_, _, err := Decode([]byte("!bogus\r\n"))
	require.Error(t, err)
	var ife *InvalidFrameError
	require.ErrorAs(t, err, &ife)
}

func TestEmptyBulkStringAndArray(t *testing.T) {
	f, n, err := Decode([]byte("$0\r\n\r\n"))
	require.NoError(t, err)
	assert.Equal(t, 6, n)
	assert.Equal(t, KindBulkString, f.Kind)
	assert.Empty(t, f.Bytes())

	f, n, err = Decode([]byte("*0\r\n"))
	require.NoError(t, err)
	assert.Equal(t, 4, n)
	assert.Empty(t, f.Items())
}

func TestExactConsumptionLeavesTrailingBytesUntouched(t *testing.T) {
	buf := []byte("+OK\r\n+NEXT\r\n")
	f, n, err := Decode(buf)
	require.NoError(t, err)
	assert.Equal(t, "OK", f.Str())
	assert.Equal(t, []byte("+NEXT\r\n"), buf[n:])
}
