package bitvec

import (
	"nestrie/codec"
	"nestrie/errutil"
)

// On-disk layout: bit count, packed words, then the rank index and the two
// select samplers as count-prefixed uint32 arrays (count 0 when a sampler was
// not built). The cache level itself travels in the trie header, not here.

// WriteTo serializes the built vector.
func (v *Vector) WriteTo(w *codec.Writer) error {
	return errutil.First(
		w.U64(uint64(v.size)),
		w.Words(v.words),
		w.U32Slice(v.ranks),
		w.U32Slice(v.sel0),
		w.U32Slice(v.sel1),
	)
}

// IOSize returns the serialized size in bytes.
func (v *Vector) IOSize() int {
	n := 8 + len(v.words)*8
	n += 8 + len(v.ranks)*4 + codec.Pad(len(v.ranks)*4)
	n += 8 + len(v.sel0)*4 + codec.Pad(len(v.sel0)*4)
	n += 8 + len(v.sel1)*4 + codec.Pad(len(v.sel1)*4)
	return n
}

func (v *Vector) validate(level CacheLevel) error {
	stride := level.rankStride()
	numBlocks := (v.size + stride - 1) / stride
	if uint32(len(v.ranks)) != numBlocks+1 {
		return errutil.Wrap(errutil.ErrFormat, "rank index has %d entries, want %d", len(v.ranks), numBlocks+1)
	}
	v.level = level
	v.ones = v.ranks[numBlocks]
	if v.ones > v.size {
		return errutil.Wrap(errutil.ErrFormat, "ones count %d exceeds bit count %d", v.ones, v.size)
	}
	return nil
}

func readSized(u64 func() (uint64, error)) (uint32, int, error) {
	n, err := u64()
	if err != nil {
		return 0, 0, err
	}
	if n > 1<<32-1 {
		return 0, 0, errutil.Wrap(errutil.ErrFormat, "bit count %d out of range", n)
	}
	return uint32(n), int((n + 63) / 64), nil
}

// Read deserializes a vector into owned storage.
func Read(r *codec.Reader, level CacheLevel) (*Vector, error) {
	size, numWords, err := readSized(r.U64)
	if err != nil {
		return nil, err
	}
	v := &Vector{size: size, owned: true}
	if v.words, err = r.Words(numWords); err != nil {
		return nil, err
	}
	if v.ranks, err = r.U32Slice(numWords + 1); err != nil {
		return nil, err
	}
	if v.sel0, err = r.U32Slice(numWords * 64); err != nil {
		return nil, err
	}
	if v.sel1, err = r.U32Slice(numWords * 64); err != nil {
		return nil, err
	}
	if err := v.validate(level); err != nil {
		return nil, err
	}
	return v, nil
}

// Map binds a vector to borrowed storage without copying.
func Map(m *codec.Mapper, level CacheLevel) (*Vector, error) {
	size, numWords, err := readSized(m.U64)
	if err != nil {
		return nil, err
	}
	v := &Vector{size: size, owned: false}
	if v.words, err = m.Words(numWords); err != nil {
		return nil, err
	}
	if v.ranks, err = m.U32Slice(numWords + 1); err != nil {
		return nil, err
	}
	if v.sel0, err = m.U32Slice(numWords * 64); err != nil {
		return nil, err
	}
	if v.sel1, err = m.U32Slice(numWords * 64); err != nil {
		return nil, err
	}
	if err := v.validate(level); err != nil {
		return nil, err
	}
	return v, nil
}
