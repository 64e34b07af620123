package louds

import (
	"bytes"

	"nestrie/errutil"
)

// Lookup reports whether the armed query is a key, storing its id on success.
func (f *Forest) Lookup(a *Agent) (bool, error) {
	if !a.arm(modeLookup) {
		return false, errutil.Wrap(errutil.ErrLogic, "agent already serves another query kind")
	}
	l := f.layers[0]
	q := a.query
	node := uint32(0)
	pos := 0
	for pos < len(q) {
		w, lab, ok := f.matchChild(a, l, node, q, pos)
		if !ok {
			return false, nil
		}
		node = w
		pos += lab
	}
	if !l.isTerminal(node) {
		return false, nil
	}
	a.key = q
	a.keyID = l.terminalID(node)
	return true, nil
}

// matchChild finds the child of node whose full edge label matches q at pos,
// returning the child and the label length consumed. A multi-byte label must
// match in full.
func (f *Forest) matchChild(a *Agent, l *Layer, node uint32, q []byte, pos int) (uint32, int, bool) {
	w, ok := f.findChild(l, node, q[pos])
	if !ok {
		return 0, 0, false
	}
	if !l.hasLink(w) {
		return w, 1, true
	}
	a.labelBuf = f.appendLinkLabel(0, l.link(w), a.labelBuf[:0])
	lab := a.labelBuf
	if len(lab) > len(q)-pos || !bytes.Equal(lab, q[pos:pos+len(lab)]) {
		return 0, 0, false
	}
	return w, len(lab), true
}

// ReverseLookup restores the key bytes owning the armed id.
func (f *Forest) ReverseLookup(a *Agent) error {
	if !a.arm(modeReverse) {
		return errutil.Wrap(errutil.ErrLogic, "agent already serves another query kind")
	}
	if a.queryID >= f.numKeys {
		return errutil.Wrap(errutil.ErrBound, "key id %d out of range %d", a.queryID, f.numKeys)
	}
	l := f.layers[0]

	a.path = a.path[:0]
	for v := l.terminalNode(a.queryID); v != 0; v = l.parent(v) {
		a.path = append(a.path, v)
	}
	a.keyBuf = a.keyBuf[:0]
	for i := len(a.path) - 1; i >= 0; i-- {
		a.keyBuf = f.appendEdgeLabel(0, a.path[i], a.keyBuf)
	}
	a.key = a.keyBuf
	a.keyID = a.queryID
	return nil
}

// CommonPrefixSearch emits, over successive calls, every key that is a
// prefix of the armed query, shortest first. It returns false once the
// stream is exhausted.
func (f *Forest) CommonPrefixSearch(a *Agent) (bool, error) {
	if !a.arm(modePrefix) {
		return false, errutil.Wrap(errutil.ErrLogic, "agent already serves another query kind")
	}
	if a.state == stateExhausted {
		return false, nil
	}
	if a.state == stateFresh {
		a.state = stateWalking
		a.node = 0
		a.depth = 0
		a.skipTerminal = false
	}

	l := f.layers[0]
	q := a.query
	for {
		if !a.skipTerminal && l.isTerminal(a.node) {
			a.skipTerminal = true
			a.key = q[:a.depth]
			a.keyID = l.terminalID(a.node)
			return true, nil
		}
		if int(a.depth) >= len(q) {
			a.state = stateExhausted
			return false, nil
		}
		w, lab, ok := f.matchChild(a, l, a.node, q, int(a.depth))
		if !ok {
			a.state = stateExhausted
			return false, nil
		}
		a.node = w
		a.depth += uint32(lab)
		a.skipTerminal = false
	}
}

// PredictiveSearch emits, over successive calls, every key the armed query
// is a prefix of: depth-first, shorter keys before their extensions, sibling
// subtrees in the configured node order. It returns false once exhausted.
func (f *Forest) PredictiveSearch(a *Agent) (bool, error) {
	if !a.arm(modePredictive) {
		return false, errutil.Wrap(errutil.ErrLogic, "agent already serves another query kind")
	}
	l := f.layers[0]

	if a.state == stateFresh {
		start, ok := f.seekSubtree(a, l)
		if !ok {
			a.state = stateExhausted
			return false, nil
		}
		a.state = stateEmitting
		a.pushChildren(l, start, uint32(len(a.keyBuf)))
		if l.isTerminal(start) {
			a.key = a.keyBuf
			a.keyID = l.terminalID(start)
			return true, nil
		}
	}
	if a.state == stateExhausted {
		return false, nil
	}

	for len(a.frames) > 0 {
		fr := a.frames[len(a.frames)-1]
		a.frames = a.frames[:len(a.frames)-1]
		a.keyBuf = f.appendEdgeLabel(0, fr.node, a.keyBuf[:fr.keyLen])
		a.pushChildren(l, fr.node, uint32(len(a.keyBuf)))
		if l.isTerminal(fr.node) {
			a.key = a.keyBuf
			a.keyID = l.terminalID(fr.node)
			return true, nil
		}
	}
	a.state = stateExhausted
	return false, nil
}

// seekSubtree descends to the node whose subtree holds every key extending
// the query, loading the query (plus any label overhang) into keyBuf.
func (f *Forest) seekSubtree(a *Agent, l *Layer) (uint32, bool) {
	q := a.query
	node := uint32(0)
	pos := 0
	a.keyBuf = append(a.keyBuf[:0], q...)
	for pos < len(q) {
		w, ok := f.findChild(l, node, q[pos])
		if !ok {
			return 0, false
		}
		if !l.hasLink(w) {
			node = w
			pos++
			continue
		}
		a.labelBuf = f.appendLinkLabel(0, l.link(w), a.labelBuf[:0])
		lab := a.labelBuf
		rest := len(q) - pos
		if len(lab) >= rest {
			// The query may end inside this edge; the overhang joins the key.
			if !bytes.Equal(lab[:rest], q[pos:]) {
				return 0, false
			}
			a.keyBuf = append(a.keyBuf, lab[rest:]...)
			return w, true
		}
		if !bytes.Equal(lab, q[pos:pos+len(lab)]) {
			return 0, false
		}
		node = w
		pos += len(lab)
	}
	return node, true
}

// pushChildren queues v's children deepest-stack-first so they pop in
// sibling order.
func (a *Agent) pushChildren(l *Layer, v uint32, keyLen uint32) {
	first, count := l.childRange(v)
	for i := count; i > 0; i-- {
		a.frames = append(a.frames, frame{node: first + i - 1, keyLen: keyLen})
	}
}
