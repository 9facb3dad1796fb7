package store

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wirekv/wirekv/internal/frame"
)

func TestGetSetIdempotence(t *testing.T) {
	s := New()

	_, ok := s.Get("name")
	assert.False(t, ok)

	s.Set("name", frame.BulkStringFromString("victory"))
	v, ok := s.Get("name")
	require.True(t, ok)
	assert.True(t, v.Equal(frame.BulkStringFromString("victory")))

	s.Set("name", frame.BulkStringFromString("defeat"))
	v, ok = s.Get("name")
	require.True(t, ok)
	assert.True(t, v.Equal(frame.BulkStringFromString("defeat")))
}

func TestSetMutationDoesNotAliasStore(t *testing.T) {
	s := New()
	original := frame.BulkString([]byte("abc"))
	s.Set("k", original)

	got, ok := s.Get("k")
	require.True(t, ok)
	got.Bytes()[0] = 'z'

	got2, _ := s.Get("k")
	assert.Equal(t, "abc", string(got2.Bytes()))
}

func TestDel(t *testing.T) {
	s := New()
	assert.False(t, s.Del("missing"))

	s.Set("k", frame.Integer(1))
	assert.True(t, s.Del("k"))
	assert.False(t, s.Del("k"))

	_, ok := s.Get("k")
	assert.False(t, ok)
}

func TestHashRemovingLastFieldKeepsKeyBinding(t *testing.T) {
	s := New()
	s.HSet("family", "name", frame.BulkStringFromString("Vic"))
	assert.True(t, s.HDel("family", "name"))

	pairs, ok := s.HGetAll("family", false)
	require.True(t, ok, "key binding must survive removal of its last field")
	assert.Empty(t, pairs)
}

func TestHGetAllSorted(t *testing.T) {
	s := New()
	s.HSet("family", "name", frame.BulkStringFromString("Vic"))
	s.HSet("family", "age", frame.Integer(10))

	pairs, ok := s.HGetAll("family", true)
	require.True(t, ok)
	require.Len(t, pairs, 2)
	assert.Equal(t, "age", pairs[0].Field)
	assert.Equal(t, "name", pairs[1].Field)
}

func TestHGetAllAbsentKey(t *testing.T) {
	s := New()
	_, ok := s.HGetAll("missing", false)
	assert.False(t, ok)
}

func TestSetCollection(t *testing.T) {
	s := New()
	a := frame.BulkStringFromString("a")

	assert.True(t, s.SAdd("k", a))
	assert.False(t, s.SAdd("k", a), "re-adding an equal member must report false")
	assert.True(t, s.SIsMember("k", a))

	members, ok := s.SMembers("k")
	require.True(t, ok)
	require.Len(t, members, 1)
	assert.True(t, members[0].Equal(a))

	assert.True(t, s.SRem("k", a))
	assert.False(t, s.SRem("k", a))
	assert.False(t, s.SIsMember("k", a))
}

// NaN must equal NaN for Double frames used as set members, per the
// total-ordered bit-pattern semantics in internal/frame.
func TestSetDoubleNaNMembership(t *testing.T) {
	s := New()
	nan1 := frame.Double(nan())
	nan2 := frame.Double(nan())

	assert.True(t, s.SAdd("k", nan1))
	assert.False(t, s.SAdd("k", nan2), "NaN must equal NaN as a set member")
	assert.True(t, s.SIsMember("k", nan2))
}

func nan() float64 {
	var zero float64
	return zero / zero
}

func TestCrossTypeKeyCollision(t *testing.T) {
	s := New()
	s.Set("k", frame.BulkStringFromString("string-value"))
	s.HSet("k", "f", frame.Integer(1))
	s.SAdd("k", frame.BulkStringFromString("member"))

	v, ok := s.Get("k")
	require.True(t, ok)
	assert.True(t, v.Equal(frame.BulkStringFromString("string-value")))

	hv, ok := s.HGet("k", "f")
	require.True(t, ok)
	assert.Equal(t, int64(1), hv.Int())

	assert.True(t, s.SIsMember("k", frame.BulkStringFromString("member")))
}

func TestConcurrentDisjointWrites(t *testing.T) {
	s := New()
	const n = 10000
	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		for i := 0; i < n; i++ {
			k := fmt.Sprintf("a-%d", i)
			s.Set(k, frame.Integer(int64(i)))
		}
	}()
	go func() {
		defer wg.Done()
		for i := 0; i < n; i++ {
			k := fmt.Sprintf("b-%d", i)
			s.Set(k, frame.Integer(int64(i)))
		}
	}()
	wg.Wait()

	for i := 0; i < n; i++ {
		v, ok := s.Get(fmt.Sprintf("a-%d", i))
		require.True(t, ok)
		assert.Equal(t, int64(i), v.Int())

		v, ok = s.Get(fmt.Sprintf("b-%d", i))
		require.True(t, ok)
		assert.Equal(t, int64(i), v.Int())
	}

	st := s.Stat()
	assert.Equal(t, 2*n, st.Keys)
}
