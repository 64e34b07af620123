// Package intvec packs n fixed-width unsigned integers into a 64-bit word
// array. The width is chosen at build time from the largest value.
package intvec

import (
	"math/bits"

	"nestrie/codec"
	"nestrie/errutil"
)

type Vector struct {
	words []uint64
	n     uint32
	width uint32
	owned bool
}

// Build packs values using the minimal width that fits the maximum.
func Build(values []uint64) *Vector {
	var maxVal uint64
	for _, v := range values {
		if v > maxVal {
			maxVal = v
		}
	}
	width := uint32(bits.Len64(maxVal))

	v := &Vector{n: uint32(len(values)), width: width, owned: true}
	if width == 0 || len(values) == 0 {
		return v
	}

	totalBits := uint64(len(values)) * uint64(width)
	v.words = make([]uint64, (totalBits+63)/64)
	for i, val := range values {
		bitPos := uint64(i) * uint64(width)
		wordIdx := bitPos / 64
		bitOffset := uint(bitPos % 64)

		v.words[wordIdx] |= val << bitOffset

		if avail := 64 - int(bitOffset); avail < int(width) {
			v.words[wordIdx+1] |= val >> uint(avail)
		}
	}
	return v
}

// Get extracts the i-th value.
func (v *Vector) Get(i uint32) uint64 {
	errutil.BugOn(i >= v.n, "index %d out of range %d", i, v.n)
	if v.width == 0 {
		return 0
	}

	bitPos := uint64(i) * uint64(v.width)
	wordIdx := bitPos / 64
	bitOffset := uint(bitPos % 64)

	val := v.words[wordIdx] >> bitOffset
	if avail := 64 - int(bitOffset); avail < int(v.width) {
		val |= v.words[wordIdx+1] << uint(avail)
	}
	if v.width == 64 {
		return val
	}
	return val & ((uint64(1) << v.width) - 1)
}

func (v *Vector) Len() uint32 { return v.n }

func (v *Vector) Width() uint32 { return v.width }

func (v *Vector) TotalSize() int { return len(v.words) * 8 }

// On-disk layout: value count, width, then the packed words.

func (v *Vector) WriteTo(w *codec.Writer) error {
	return errutil.First(
		w.U64(uint64(v.n)),
		w.U64(uint64(v.width)),
		w.Words(v.words),
	)
}

func (v *Vector) IOSize() int {
	return 16 + len(v.words)*8
}

func header(u64 func() (uint64, error)) (n uint32, width uint32, numWords int, err error) {
	nv, err := u64()
	if err != nil {
		return 0, 0, 0, err
	}
	wv, err := u64()
	if err != nil {
		return 0, 0, 0, err
	}
	if nv > 1<<32-1 || wv > 64 {
		return 0, 0, 0, errutil.Wrap(errutil.ErrFormat, "bad packed vector header n=%d width=%d", nv, wv)
	}
	totalBits := nv * wv
	return uint32(nv), uint32(wv), int((totalBits + 63) / 64), nil
}

func Read(r *codec.Reader) (*Vector, error) {
	n, width, numWords, err := header(r.U64)
	if err != nil {
		return nil, err
	}
	words, err := r.Words(numWords)
	if err != nil {
		return nil, err
	}
	return &Vector{words: words, n: n, width: width, owned: true}, nil
}

func Map(m *codec.Mapper) (*Vector, error) {
	n, width, numWords, err := header(m.U64)
	if err != nil {
		return nil, err
	}
	words, err := m.Words(numWords)
	if err != nil {
		return nil, err
	}
	return &Vector{words: words, n: n, width: width, owned: false}, nil
}
