// Package nestrie is a static, compressed associative container: it maps a
// set of byte strings to the dense id range [0, N) and answers exact lookup,
// reverse lookup, common-prefix and predictive enumeration. The keys live in
// a forest of LOUDS-encoded tries in which long edge labels are themselves
// keys of the next, reversed trie.
package nestrie

import (
	"nestrie/bitvec"
	"nestrie/errutil"
	"nestrie/louds"
	"nestrie/tailstore"
)

// Flags is the build configuration bitfield. The low 7 bits hold the number
// of tries; the remaining groups are one-hot. A zero group selects its
// documented default.
type Flags uint32

const (
	numTriesMask Flags = 0x7F

	TinyCache   Flags = 1 << 7
	SmallCache  Flags = 1 << 8
	NormalCache Flags = 1 << 9
	LargeCache  Flags = 1 << 10
	HugeCache   Flags = 1 << 11
	cacheMask         = TinyCache | SmallCache | NormalCache | LargeCache | HugeCache

	TextTail   Flags = 1 << 12
	BinaryTail Flags = 1 << 13
	tailMask         = TextTail | BinaryTail

	LabelOrder Flags = 1 << 14
	WeightOrder Flags = 1 << 15
	orderMask        = LabelOrder | WeightOrder

	configMask = numTriesMask | cacheMask | tailMask | orderMask

	// Default selects three tries, the normal cache, a binary tail and
	// weight order.
	Default Flags = 0
)

const (
	MinNumTries     = louds.MinNumTries
	MaxNumTries     = louds.MaxNumTries
	DefaultNumTries = louds.DefaultNumTries

	// MaxKeyLength bounds a single key's byte length.
	MaxKeyLength = louds.MaxKeyLength
)

// NumTries encodes a forest depth into the flag word.
func NumTries(n int) Flags {
	return Flags(n)
}

// parseFlags validates the bitfield and resolves group defaults.
func parseFlags(f Flags) (louds.Config, error) {
	if f&^configMask != 0 {
		return louds.Config{}, errutil.Wrap(errutil.ErrInvalidArgument, "undefined flag bits %#x", uint32(f&^configMask))
	}

	numTries := int(f & numTriesMask)
	if numTries == 0 {
		numTries = DefaultNumTries
	}

	var cache bitvec.CacheLevel
	switch f & cacheMask {
	case 0, NormalCache:
		cache = bitvec.NormalCache
	case TinyCache:
		cache = bitvec.TinyCache
	case SmallCache:
		cache = bitvec.SmallCache
	case LargeCache:
		cache = bitvec.LargeCache
	case HugeCache:
		cache = bitvec.HugeCache
	default:
		return louds.Config{}, errutil.Wrap(errutil.ErrInvalidArgument, "conflicting cache level flags")
	}

	var tail tailstore.Mode
	switch f & tailMask {
	case 0, BinaryTail:
		tail = tailstore.BinaryMode
	case TextTail:
		tail = tailstore.TextMode
	default:
		return louds.Config{}, errutil.Wrap(errutil.ErrInvalidArgument, "conflicting tail mode flags")
	}

	var order louds.NodeOrder
	switch f & orderMask {
	case 0, WeightOrder:
		order = louds.WeightOrder
	case LabelOrder:
		order = louds.LabelOrder
	default:
		return louds.Config{}, errutil.Wrap(errutil.ErrInvalidArgument, "conflicting node order flags")
	}

	return louds.NewConfig(numTries, cache, tail, order)
}

// canonicalFlags re-encodes a validated config with every group explicit, as
// persisted in the frame header.
func canonicalFlags(cfg louds.Config) Flags {
	f := Flags(cfg.NumTries)
	switch cfg.Cache {
	case bitvec.TinyCache:
		f |= TinyCache
	case bitvec.SmallCache:
		f |= SmallCache
	case bitvec.LargeCache:
		f |= LargeCache
	case bitvec.HugeCache:
		f |= HugeCache
	default:
		f |= NormalCache
	}
	if cfg.Tail == tailstore.TextMode {
		f |= TextTail
	} else {
		f |= BinaryTail
	}
	if cfg.Order == louds.LabelOrder {
		f |= LabelOrder
	} else {
		f |= WeightOrder
	}
	return f
}
