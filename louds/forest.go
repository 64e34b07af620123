package louds

import (
	"fmt"

	"nestrie/tailstore"
	"nestrie/utils"
)

// Forest is the ordered stack of layers. Layer 0 indexes the original keys;
// each deeper layer indexes the collapsed multi-byte labels of the one above
// it, stored so that a single walk toward the root replays the label bytes
// a parent layer needs (see appendLinkLabel).
type Forest struct {
	layers  []*Layer
	config  Config
	numKeys uint32
}

func (f *Forest) NumKeys() uint32 { return f.numKeys }

// NumTries returns the number of layers actually built, which is capped by
// the configured depth but may be smaller when no labels overflowed.
func (f *Forest) NumTries() int { return len(f.layers) }

func (f *Forest) NumNodes() uint32 {
	n := uint32(0)
	for _, l := range f.layers {
		n += l.numNodes()
	}
	return n
}

func (f *Forest) Config() Config { return f.config }

func (f *Forest) TailMode() tailstore.Mode { return f.config.Tail }

func (f *Forest) NodeOrder() NodeOrder { return f.config.Order }

func (f *Forest) TotalSize() int {
	n := 0
	for _, l := range f.layers {
		n += l.totalSize()
	}
	return n
}

// MemReport breaks the in-memory footprint down per layer and component.
func (f *Forest) MemReport() utils.MemReport {
	children := make([]utils.MemReport, 0, len(f.layers))
	for i, l := range f.layers {
		parts := []utils.MemReport{
			utils.Leaf("louds", l.louds.TotalSize()),
			utils.Leaf("terminal", l.terminal.TotalSize()),
			utils.Leaf("labels", len(l.labels)),
			utils.Leaf("link-flags", l.linkFlags.TotalSize()),
			utils.Leaf("links", l.links.TotalSize()),
		}
		if l.tail != nil {
			parts = append(parts, utils.Leaf("tail", l.tail.TotalSize()))
		}
		children = append(children, utils.Node(fmt.Sprintf("layer %d", i), parts...))
	}
	return utils.Node("trie", children...)
}

// appendEdgeLabel appends the full edge label of node v in layer i to dst.
func (f *Forest) appendEdgeLabel(i int, v uint32, dst []byte) []byte {
	l := f.layers[i]
	if !l.hasLink(v) {
		return append(dst, l.labelHead(v))
	}
	return f.appendLinkLabel(i, l.link(v), dst)
}

// appendLinkLabel appends the label bytes behind a link of layer i. On the
// last layer the link is a tail offset. Otherwise it is a node in layer i+1,
// and walking from that node to the root emits, per step, either the node's
// single byte or its own link resolved one layer deeper. The walk order plus
// the builder's storage orientation make the bytes come out exactly as the
// parent layer spelled them.
func (f *Forest) appendLinkLabel(i int, link uint32, dst []byte) []byte {
	if i == len(f.layers)-1 {
		return f.layers[i].tail.Restore(link, dst)
	}
	next := f.layers[i+1]
	for v := link; v != 0; v = next.parent(v) {
		if next.hasLink(v) {
			dst = f.appendLinkLabel(i+1, next.link(v), dst)
		} else {
			dst = append(dst, next.labelHead(v))
		}
	}
	return dst
}

// findChild locates the child of v whose edge label starts with c. Sibling
// first bytes are distinct, sorted in label order and weight-shuffled in
// weight order, so the search is binary or linear accordingly.
func (f *Forest) findChild(l *Layer, v uint32, c byte) (uint32, bool) {
	first, count := l.childRange(v)
	if count == 0 {
		return 0, false
	}
	heads := l.labels[first-1 : first-1+count]
	if f.config.Order == LabelOrder {
		lo, hi := 0, len(heads)
		for lo < hi {
			mid := (lo + hi) / 2
			if heads[mid] < c {
				lo = mid + 1
			} else {
				hi = mid
			}
		}
		if lo < len(heads) && heads[lo] == c {
			return first + uint32(lo), true
		}
		return 0, false
	}
	for i, h := range heads {
		if h == c {
			return first + uint32(i), true
		}
	}
	return 0, false
}
