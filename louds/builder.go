package louds

import (
	"bytes"
	"sort"

	"nestrie/bitvec"
	"nestrie/errutil"
	"nestrie/intvec"
	"nestrie/tailstore"
)

// BuildForest builds a forest from lexicographically sorted, deduplicated
// keys. weights may be nil (every key then counts 1.0). The returned ids
// slice holds the key id assigned to each input key.
func BuildForest(keys [][]byte, weights []float32, cfg Config) (*Forest, []uint32, error) {
	if err := validateKeys(keys, weights, cfg); err != nil {
		return nil, nil, err
	}

	b := &builder{cfg: cfg}
	terminals, err := b.buildLayer(0, keys, weights)
	if err != nil {
		return nil, nil, err
	}

	f := &Forest{layers: b.layers, config: cfg, numKeys: uint32(len(keys))}
	ids := make([]uint32, len(keys))
	for i, node := range terminals {
		ids[i] = f.layers[0].terminalID(node)
	}
	return f, ids, nil
}

func validateKeys(keys [][]byte, weights []float32, cfg Config) error {
	total := uint64(0)
	for i, k := range keys {
		if len(k) > MaxKeyLength {
			return errutil.Wrap(errutil.ErrBound, "key %d is %d bytes, limit %d", i, len(k), MaxKeyLength)
		}
		if cfg.Tail == tailstore.TextMode && bytes.IndexByte(k, 0) >= 0 {
			return errutil.Wrap(errutil.ErrInvalidArgument, "key %d holds a NUL byte, unrepresentable in a text tail", i)
		}
		if i > 0 && bytes.Compare(keys[i-1], k) >= 0 {
			return errutil.Wrap(errutil.ErrInvalidArgument, "keys are not sorted and unique at %d", i)
		}
		total += uint64(len(k))
	}
	if total > maxTotalBytes {
		return errutil.Wrap(errutil.ErrRange, "keyset holds %d bytes, limit %d", total, uint64(maxTotalBytes))
	}
	for i, w := range weights {
		if w < 0 {
			return errutil.Wrap(errutil.ErrInvalidArgument, "key %d has negative weight", i)
		}
	}
	return nil
}

type builder struct {
	cfg    Config
	layers []*Layer
}

// span is one BFS work item: the node covering keys[lo:hi], whose path
// spells the first depth bytes of each of them. Work items are processed in
// queue order, which is exactly node-id order.
type span struct {
	lo, hi uint32
	depth  uint32
}

// pendingLink is a collapsed multi-byte edge awaiting its link target.
type pendingLink struct {
	frag   []byte // the edge label as spelled in this layer
	weight float32
}

// buildLayer builds the trie over keys as layer idx, recursing for collapsed
// labels. It returns the node id at which each key terminates.
func (b *builder) buildLayer(idx int, keys [][]byte, weights []float32) ([]uint32, error) {
	louds := bitvec.New()
	louds.Push(true)
	louds.Push(false)
	terminal := bitvec.New()
	linkFlags := bitvec.New()
	var labels []byte
	var pending []pendingLink

	terminals := make([]uint32, len(keys))
	queue := []span{{0, uint32(len(keys)), 0}}

	type group struct {
		lo, hi uint32
		weight float32
	}
	var groups []group

	for qi := 0; qi < len(queue); qi++ {
		e := queue[qi]
		lo, hi, depth := e.lo, e.hi, e.depth

		if lo < hi && uint32(len(keys[lo])) == depth {
			terminal.Push(true)
			terminals[lo] = uint32(qi)
			lo++
		} else {
			terminal.Push(false)
		}

		groups = groups[:0]
		for i := lo; i < hi; {
			c := keys[i][depth]
			j := i + 1
			for j < hi && keys[j][depth] == c {
				j++
			}
			g := group{lo: i, hi: j}
			if b.cfg.Order == WeightOrder {
				g.weight = rangeWeight(weights, i, j)
			}
			groups = append(groups, g)
			i = j
		}

		if b.cfg.Order == WeightOrder && len(groups) > 1 {
			sort.SliceStable(groups, func(a, c int) bool {
				if groups[a].weight != groups[c].weight {
					return groups[a].weight > groups[c].weight
				}
				return keys[groups[a].lo][depth] < keys[groups[c].lo][depth]
			})
		}

		for _, g := range groups {
			var lab []byte
			if g.hi-g.lo == 1 {
				lab = keys[g.lo][depth:]
			} else {
				c := lcpFrom(keys[g.lo], keys[g.hi-1], depth)
				lab = keys[g.lo][depth : depth+c]
			}

			louds.Push(true)
			labels = append(labels, lab[0])
			if len(lab) >= 2 {
				linkFlags.Push(true)
				pending = append(pending, pendingLink{frag: lab, weight: g.weight})
			} else {
				linkFlags.Push(false)
			}
			queue = append(queue, span{g.lo, g.hi, depth + uint32(len(lab))})
		}
		louds.Push(false)
	}

	layer := &Layer{
		louds:     louds,
		terminal:  terminal,
		labels:    labels,
		linkFlags: linkFlags,
	}
	b.layers = append(b.layers, layer)

	louds.Build(true, true, b.cfg.Cache)
	terminal.Build(false, true, b.cfg.Cache)
	linkFlags.Build(false, false, b.cfg.Cache)

	if err := b.resolveLinks(idx, layer, pending); err != nil {
		return nil, err
	}
	return terminals, nil
}

// rangeWeight sums weights[lo:hi]; a nil slice weighs 1.0 per key.
func rangeWeight(weights []float32, lo, hi uint32) float32 {
	if weights == nil {
		return float32(hi - lo)
	}
	w := float32(0)
	for i := lo; i < hi; i++ {
		w += weights[i]
	}
	return w
}

// resolveLinks turns the collapsed labels into link values: terminal node
// ids of the next layer, or tail offsets once the configured depth is
// reached. Layer 0 fragments enter the next layer byte-reversed so common
// key suffixes meet as prefixes; deeper fragments already live in reversed
// orientation and are passed through as spelled, keeping resolution a single
// uniform root-ward walk.
func (b *builder) resolveLinks(idx int, layer *Layer, pending []pendingLink) error {
	if len(pending) == 0 {
		layer.links = intvec.Build(nil)
		return nil
	}

	if idx+1 < b.cfg.NumTries {
		nextKeys, nextWeights, slot := dedupeFragments(idx, pending)
		terminals, err := b.buildLayer(idx+1, nextKeys, nextWeights)
		if err != nil {
			return err
		}
		links := make([]uint64, len(pending))
		for j := range pending {
			links[j] = uint64(terminals[slot[j]])
		}
		layer.links = intvec.Build(links)
		return nil
	}

	entries := make([][]byte, len(pending))
	for j, p := range pending {
		entries[j] = emission(idx, p.frag)
	}
	tail, offsets, err := tailstore.Build(entries, b.cfg.Tail, b.cfg.Cache)
	if err != nil {
		return err
	}
	links := make([]uint64, len(pending))
	for j, off := range offsets {
		links[j] = uint64(off)
	}
	layer.tail = tail
	layer.links = intvec.Build(links)
	return nil
}

// emission returns the bytes a resolved link must replay: the fragment as-is
// on layer 0, its reversal below.
func emission(idx int, frag []byte) []byte {
	if idx == 0 {
		return frag
	}
	return reversed(frag)
}

// nextLayerKey is the reverse of the emission: what the next layer stores.
func nextLayerKey(idx int, frag []byte) []byte {
	if idx == 0 {
		return reversed(frag)
	}
	return frag
}

// dedupeFragments produces the sorted unique key list for the next layer,
// aggregated weights, and the index of each pending fragment in it.
func dedupeFragments(idx int, pending []pendingLink) ([][]byte, []float32, []uint32) {
	type agg struct {
		key    []byte
		weight float32
		pos    uint32
	}
	uniq := make(map[string]*agg, len(pending))
	for _, p := range pending {
		k := nextLayerKey(idx, p.frag)
		if a, ok := uniq[string(k)]; ok {
			a.weight += p.weight
		} else {
			uniq[string(k)] = &agg{key: k, weight: p.weight}
		}
	}

	list := make([]*agg, 0, len(uniq))
	for _, a := range uniq {
		list = append(list, a)
	}
	sort.Slice(list, func(i, j int) bool {
		return bytes.Compare(list[i].key, list[j].key) < 0
	})

	keys := make([][]byte, len(list))
	weights := make([]float32, len(list))
	for i, a := range list {
		keys[i] = a.key
		weights[i] = a.weight
		a.pos = uint32(i)
	}

	slot := make([]uint32, len(pending))
	for j, p := range pending {
		slot[j] = uniq[string(nextLayerKey(idx, p.frag))].pos
	}
	return keys, weights, slot
}

func lcpFrom(a, b []byte, depth uint32) uint32 {
	n := uint32(len(a))
	if uint32(len(b)) < n {
		n = uint32(len(b))
	}
	c := uint32(0)
	for depth+c < n && a[depth+c] == b[depth+c] {
		c++
	}
	return c
}

func reversed(b []byte) []byte {
	r := make([]byte, len(b))
	for i, c := range b {
		r[len(b)-1-i] = c
	}
	return r
}
