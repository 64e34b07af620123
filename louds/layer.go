package louds

import (
	"nestrie/bitvec"
	"nestrie/errutil"
	"nestrie/intvec"
	"nestrie/tailstore"
)

// Layer is one trie of the forest. Node ids follow the level-order bit
// sequence: node v owns the (v+1)-th set bit, the root is node 0. labels,
// linkFlags and terminal are indexed as described on each field.
type Layer struct {
	// louds starts with the super-root pair "10"; each node then contributes
	// one set bit per child followed by a clear terminator bit.
	louds *bitvec.Vector

	// terminal has one bit per node, set where a key ends.
	terminal *bitvec.Vector

	// labels holds the first byte of every non-root node's edge, at v-1.
	labels []byte

	// linkFlags has one bit per non-root node, at v-1; set when the edge
	// label is multi-byte and resolved through links.
	linkFlags *bitvec.Vector

	// links holds, per set linkFlags bit, a node id in the next layer, or a
	// tail offset on the last layer.
	links *intvec.Vector

	// tail is only present on the last layer, and only when it has links.
	tail *tailstore.Store
}

func (l *Layer) numNodes() uint32 { return l.louds.OnesCount() }

// childRange returns the id of the first child of v and the child count.
// Children of one node are consecutive ids.
func (l *Layer) childRange(v uint32) (first, count uint32) {
	b := l.louds.Select0(v) + 1
	e := l.louds.Select0(v + 1)
	return b - v - 1, e - b
}

// parent returns the parent id of v; v must not be the root.
func (l *Layer) parent(v uint32) uint32 {
	errutil.BugOn(v == 0, "root has no parent")
	return l.louds.Select1(v) - v - 1
}

func (l *Layer) isTerminal(v uint32) bool {
	return l.terminal.Get(v)
}

// terminalID returns the key id of terminal node v: its rank among terminals.
func (l *Layer) terminalID(v uint32) uint32 {
	return l.terminal.Rank1(v)
}

// terminalNode returns the node owning key id; the inverse of terminalID.
func (l *Layer) terminalNode(id uint32) uint32 {
	return l.terminal.Select1(id)
}

func (l *Layer) hasLink(v uint32) bool {
	return l.linkFlags.Get(v - 1)
}

func (l *Layer) link(v uint32) uint32 {
	return uint32(l.links.Get(l.linkFlags.Rank1(v - 1)))
}

// labelHead returns the first byte of v's edge label.
func (l *Layer) labelHead(v uint32) byte {
	return l.labels[v-1]
}

func (l *Layer) totalSize() int {
	n := l.louds.TotalSize() + l.terminal.TotalSize() + len(l.labels) +
		l.linkFlags.TotalSize() + l.links.TotalSize()
	if l.tail != nil {
		n += l.tail.TotalSize()
	}
	return n
}
