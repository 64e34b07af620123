package nestrie

import (
	"bytes"
	"sort"

	"nestrie/errutil"
)

// Key is one keyset entry. After a successful Build its id is filled in.
type Key struct {
	data   []byte
	weight float32
	id     uint32
}

func (k *Key) Bytes() []byte   { return k.data }
func (k *Key) Weight() float32 { return k.weight }
func (k *Key) ID() uint32      { return k.id }

// Keyset collects (bytes, weight) pairs for Build. Pushed bytes are copied.
// Duplicate keys are legal; Build coalesces them and sums their weights.
type Keyset struct {
	keys        []Key
	permitEmpty bool
}

func NewKeyset() *Keyset {
	return &Keyset{}
}

// PermitEmpty allows the empty key, which is otherwise rejected by Push.
func (ks *Keyset) PermitEmpty(allow bool) {
	ks.permitEmpty = allow
}

// Push adds a key with weight 1.
func (ks *Keyset) Push(key []byte) error {
	return ks.PushWeighted(key, 1)
}

// PushString adds a string key with weight 1.
func (ks *Keyset) PushString(key string) error {
	return ks.PushWeighted([]byte(key), 1)
}

// PushWeighted adds a key with an explicit non-negative weight.
func (ks *Keyset) PushWeighted(key []byte, weight float32) error {
	if len(key) == 0 && !ks.permitEmpty {
		return errutil.Wrap(errutil.ErrInvalidArgument, "empty key is not permitted")
	}
	if len(key) > MaxKeyLength {
		return errutil.Wrap(errutil.ErrBound, "key is %d bytes, limit %d", len(key), MaxKeyLength)
	}
	ks.keys = append(ks.keys, Key{data: append([]byte(nil), key...), weight: weight})
	return nil
}

// Len returns the number of pushed keys, duplicates included.
func (ks *Keyset) Len() int { return len(ks.keys) }

// At returns the i-th pushed key.
func (ks *Keyset) At(i int) *Key { return &ks.keys[i] }

// flatten sorts and coalesces the keyset: unique lex-sorted keys, summed
// weights, and for every pushed key its index into the unique list.
func (ks *Keyset) flatten() (keys [][]byte, weights []float32, slot []uint32) {
	order := make([]int, len(ks.keys))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return bytes.Compare(ks.keys[order[a]].data, ks.keys[order[b]].data) < 0
	})

	slot = make([]uint32, len(ks.keys))
	for _, idx := range order {
		k := &ks.keys[idx]
		if len(keys) > 0 && bytes.Equal(keys[len(keys)-1], k.data) {
			weights[len(weights)-1] += k.weight
		} else {
			keys = append(keys, k.data)
			weights = append(weights, k.weight)
		}
		slot[idx] = uint32(len(keys) - 1)
	}
	return keys, weights, slot
}
