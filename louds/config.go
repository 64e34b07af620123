// Package louds implements the recursive LOUDS trie forest: the per-layer
// succinct tree encoding, the keyset builder, and the four query kinds.
package louds

import (
	"nestrie/bitvec"
	"nestrie/errutil"
	"nestrie/tailstore"
)

// NodeOrder picks how siblings are arranged: by first label byte, or by
// accumulated subtree weight (heavier first, ties by label byte).
type NodeOrder int

const (
	LabelOrder NodeOrder = iota
	WeightOrder
)

func (o NodeOrder) String() string {
	if o == LabelOrder {
		return "label"
	}
	return "weight"
}

const (
	MinNumTries     = 1
	MaxNumTries     = 7
	DefaultNumTries = 3

	// MaxKeyLength bounds a single key; longer keys fail with a bound error.
	MaxKeyLength = 1 << 16

	// maxTotalBytes bounds the summed key bytes so every position fits the
	// 32-bit node and offset arithmetic.
	maxTotalBytes = 1<<32 - 1
)

// Config is the validated build configuration.
type Config struct {
	NumTries int
	Cache    bitvec.CacheLevel
	Tail     tailstore.Mode
	Order    NodeOrder
}

// NewConfig validates every field.
func NewConfig(numTries int, cache bitvec.CacheLevel, tail tailstore.Mode, order NodeOrder) (Config, error) {
	if numTries < MinNumTries || numTries > MaxNumTries {
		return Config{}, errutil.Wrap(errutil.ErrInvalidArgument, "num tries %d outside [%d, %d]", numTries, MinNumTries, MaxNumTries)
	}
	if cache < bitvec.TinyCache || cache > bitvec.HugeCache {
		return Config{}, errutil.Wrap(errutil.ErrInvalidArgument, "unknown cache level %d", cache)
	}
	if tail != tailstore.TextMode && tail != tailstore.BinaryMode {
		return Config{}, errutil.Wrap(errutil.ErrInvalidArgument, "unknown tail mode %d", tail)
	}
	if order != LabelOrder && order != WeightOrder {
		return Config{}, errutil.Wrap(errutil.ErrInvalidArgument, "unknown node order %d", order)
	}
	return Config{NumTries: numTries, Cache: cache, Tail: tail, Order: order}, nil
}

// DefaultConfig returns the documented defaults.
func DefaultConfig() Config {
	return Config{
		NumTries: DefaultNumTries,
		Cache:    bitvec.NormalCache,
		Tail:     tailstore.BinaryMode,
		Order:    WeightOrder,
	}
}
