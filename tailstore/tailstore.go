// Package tailstore holds the collapsed label suffixes that the last trie
// layer points into. Text mode stores NUL-terminated strings and shares
// storage between entries that are suffixes of one another; binary mode
// stores raw bytes delimited by an end-flag bit-vector.
package tailstore

import (
	"bytes"
	"sort"

	"nestrie/bitvec"
	"nestrie/codec"
	"nestrie/errutil"
)

type Mode int

const (
	TextMode Mode = iota
	BinaryMode
)

func (m Mode) String() string {
	if m == TextMode {
		return "text"
	}
	return "binary"
}

type Store struct {
	mode  Mode
	data  []byte
	ends  *bitvec.Vector // binary mode: set at the last byte of each entry
	owned bool
}

// Build stores entries and returns the offset assigned to each. Identical
// entries collapse to one offset; in text mode an entry that is a suffix of
// another shares its storage and terminator.
func Build(entries [][]byte, mode Mode, level bitvec.CacheLevel) (*Store, []uint32, error) {
	s := &Store{mode: mode, owned: true}
	offsets := make([]uint32, len(entries))

	for _, e := range entries {
		if len(e) == 0 {
			return nil, nil, errutil.Wrap(errutil.ErrInvalidArgument, "empty tail entry")
		}
		if mode == TextMode && bytes.IndexByte(e, 0) >= 0 {
			return nil, nil, errutil.Wrap(errutil.ErrInvalidArgument, "text tail cannot hold a NUL byte")
		}
	}

	if mode == TextMode {
		s.buildText(entries, offsets)
	} else {
		s.buildBinary(entries, offsets)
	}

	s.ends = bitvec.New()
	if mode == BinaryMode {
		ends := make([]bool, len(s.data))
		for i, e := range entries {
			ends[int(offsets[i])+len(e)-1] = true
		}
		for _, b := range ends {
			s.ends.Push(b)
		}
	}
	s.ends.Build(false, false, level)
	return s, offsets, nil
}

// buildText emits entries in descending reversed-lexicographic order so that
// every entry which is a suffix of an already-emitted one can point inside it.
func (s *Store) buildText(entries [][]byte, offsets []uint32) {
	order := make([]int, len(entries))
	for i := range order {
		order[i] = i
	}
	sort.Slice(order, func(a, b int) bool {
		return reverseLess(entries[order[b]], entries[order[a]])
	})

	var prev []byte
	var prevOff uint32
	for _, idx := range order {
		e := entries[idx]
		if len(prev) >= len(e) && bytes.Equal(prev[len(prev)-len(e):], e) {
			offsets[idx] = prevOff + uint32(len(prev)-len(e))
			continue
		}
		offsets[idx] = uint32(len(s.data))
		s.data = append(s.data, e...)
		s.data = append(s.data, 0)
		prev, prevOff = e, offsets[idx]
	}
}

func (s *Store) buildBinary(entries [][]byte, offsets []uint32) {
	seen := make(map[string]uint32, len(entries))
	for i, e := range entries {
		if off, ok := seen[string(e)]; ok {
			offsets[i] = off
			continue
		}
		offsets[i] = uint32(len(s.data))
		seen[string(e)] = offsets[i]
		s.data = append(s.data, e...)
	}
}

// reverseLess orders byte strings by their reversal.
func reverseLess(a, b []byte) bool {
	i, j := len(a)-1, len(b)-1
	for i >= 0 && j >= 0 {
		if a[i] != b[j] {
			return a[i] < b[j]
		}
		i--
		j--
	}
	return i < j
}

// Restore appends the entry at off to dst.
func (s *Store) Restore(off uint32, dst []byte) []byte {
	errutil.BugOn(int(off) >= len(s.data), "tail offset %d out of range %d", off, len(s.data))
	if s.mode == TextMode {
		for i := off; s.data[i] != 0; i++ {
			dst = append(dst, s.data[i])
		}
		return dst
	}
	for i := off; ; i++ {
		dst = append(dst, s.data[i])
		if s.ends.Get(i) {
			return dst
		}
	}
}

func (s *Store) Mode() Mode { return s.mode }

// Size returns the stored byte count; offsets are valid below it.
func (s *Store) Size() int { return len(s.data) }

func (s *Store) Empty() bool { return len(s.data) == 0 }

func (s *Store) TotalSize() int {
	return len(s.data) + s.ends.TotalSize()
}

// On-disk layout: byte count, bytes (padded), then the end-flag bit-vector
// (empty in text mode).

func (s *Store) WriteTo(w *codec.Writer) error {
	if err := w.U64(uint64(len(s.data))); err != nil {
		return err
	}
	if err := w.Bytes(s.data); err != nil {
		return err
	}
	return s.ends.WriteTo(w)
}

func (s *Store) IOSize() int {
	return 8 + len(s.data) + codec.Pad(len(s.data)) + s.ends.IOSize()
}

func Read(r *codec.Reader, mode Mode, level bitvec.CacheLevel) (*Store, error) {
	n, err := r.U64()
	if err != nil {
		return nil, err
	}
	if n > 1<<32-1 {
		return nil, errutil.Wrap(errutil.ErrFormat, "tail size %d out of range", n)
	}
	data, err := r.Bytes(int(n))
	if err != nil {
		return nil, err
	}
	ends, err := bitvec.Read(r, level)
	if err != nil {
		return nil, err
	}
	return validated(&Store{mode: mode, data: data, ends: ends, owned: true})
}

func Map(m *codec.Mapper, mode Mode, level bitvec.CacheLevel) (*Store, error) {
	n, err := m.U64()
	if err != nil {
		return nil, err
	}
	if n > 1<<32-1 {
		return nil, errutil.Wrap(errutil.ErrFormat, "tail size %d out of range", n)
	}
	data, err := m.Bytes(int(n))
	if err != nil {
		return nil, err
	}
	ends, err := bitvec.Map(m, level)
	if err != nil {
		return nil, err
	}
	return validated(&Store{mode: mode, data: data, ends: ends, owned: false})
}

func validated(s *Store) (*Store, error) {
	if s.mode == BinaryMode && int(s.ends.Len()) != len(s.data) {
		return nil, errutil.Wrap(errutil.ErrFormat, "tail end flags cover %d of %d bytes", s.ends.Len(), len(s.data))
	}
	if s.mode == BinaryMode && len(s.data) > 0 && !s.ends.Get(uint32(len(s.data))-1) {
		return nil, errutil.Wrap(errutil.ErrFormat, "tail is not end-delimited")
	}
	if s.mode == TextMode && len(s.data) > 0 && s.data[len(s.data)-1] != 0 {
		return nil, errutil.Wrap(errutil.ErrFormat, "tail is not NUL-terminated")
	}
	return s, nil
}
