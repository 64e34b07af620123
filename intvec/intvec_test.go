package intvec

import (
	"bytes"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nestrie/codec"
)

func TestBuildWidths(t *testing.T) {
	cases := []struct {
		values []uint64
		width  uint32
	}{
		{nil, 0},
		{[]uint64{0, 0, 0}, 0},
		{[]uint64{1}, 1},
		{[]uint64{7, 2}, 3},
		{[]uint64{255}, 8},
		{[]uint64{256}, 9},
		{[]uint64{1 << 63}, 64},
	}
	for _, c := range cases {
		v := Build(c.values)
		assert.Equal(t, c.width, v.Width())
		assert.Equal(t, uint32(len(c.values)), v.Len())
		for i, want := range c.values {
			assert.Equal(t, want, v.Get(uint32(i)))
		}
	}
}

func TestRandomValues(t *testing.T) {
	r := rand.New(rand.NewSource(5))
	for _, width := range []int{1, 3, 7, 13, 31, 33, 63, 64} {
		values := make([]uint64, 999)
		mask := ^uint64(0)
		if width < 64 {
			mask = (uint64(1) << width) - 1
		}
		for i := range values {
			values[i] = r.Uint64() & mask
		}
		values[0] = mask // pin the width

		v := Build(values)
		require.Equal(t, uint32(width), v.Width())
		for i, want := range values {
			require.Equal(t, want, v.Get(uint32(i)), "width=%d i=%d", width, i)
		}
	}
}

func TestRoundTrip(t *testing.T) {
	r := rand.New(rand.NewSource(6))
	values := make([]uint64, 500)
	for i := range values {
		values[i] = uint64(r.Intn(100000))
	}
	v := Build(values)

	var buf bytes.Buffer
	w := codec.NewWriter(&buf)
	require.NoError(t, v.WriteTo(w))
	require.Equal(t, int64(v.IOSize()), w.N())

	rd, err := Read(codec.NewReader(bytes.NewReader(buf.Bytes())))
	require.NoError(t, err)

	mm, err := codec.NewMapper(buf.Bytes())
	require.NoError(t, err)
	mp, err := Map(mm)
	require.NoError(t, err)

	require.Equal(t, v.Len(), rd.Len())
	require.Equal(t, v.Len(), mp.Len())
	for i := range values {
		require.Equal(t, values[i], rd.Get(uint32(i)))
		require.Equal(t, values[i], mp.Get(uint32(i)))
	}
}

func TestReadRejectsBadHeader(t *testing.T) {
	var buf bytes.Buffer
	w := codec.NewWriter(&buf)
	require.NoError(t, w.U64(1))
	require.NoError(t, w.U64(65)) // width out of range
	_, err := Read(codec.NewReader(bytes.NewReader(buf.Bytes())))
	assert.Error(t, err)
}
