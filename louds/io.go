package louds

import (
	"nestrie/bitvec"
	"nestrie/codec"
	"nestrie/errutil"
	"nestrie/intvec"
	"nestrie/tailstore"
)

// Per-layer layout: louds bit-vector, terminal bit-vector, labels
// (count-prefixed bytes), link-flag bit-vector, links, and on the last layer
// with links, the tail block. The trie-level header (magic, config flags,
// layer count) lives with the container.

func (l *Layer) writeTo(w *codec.Writer, last bool) error {
	if err := errutil.First(
		l.louds.WriteTo(w),
		l.terminal.WriteTo(w),
		w.U64(uint64(len(l.labels))),
		w.Bytes(l.labels),
		l.linkFlags.WriteTo(w),
		l.links.WriteTo(w),
	); err != nil {
		return err
	}
	if last && l.links.Len() > 0 {
		return l.tail.WriteTo(w)
	}
	return nil
}

func (l *Layer) ioSize(last bool) int {
	n := l.louds.IOSize() + l.terminal.IOSize()
	n += 8 + len(l.labels) + codec.Pad(len(l.labels))
	n += l.linkFlags.IOSize() + l.links.IOSize()
	if last && l.links.Len() > 0 {
		n += l.tail.IOSize()
	}
	return n
}

// WriteTo serializes all layers in order.
func (f *Forest) WriteTo(w *codec.Writer) error {
	for i, l := range f.layers {
		if err := l.writeTo(w, i == len(f.layers)-1); err != nil {
			return err
		}
	}
	return nil
}

// IOSize returns the serialized size of all layers.
func (f *Forest) IOSize() int {
	n := 0
	for i, l := range f.layers {
		n += l.ioSize(i == len(f.layers)-1)
	}
	return n
}

// layerSource abstracts Reader and Mapper so one decode path serves both.
type layerSource interface {
	U64() (uint64, error)
	Bytes(n int) ([]byte, error)
}

func decodeLayer(src layerSource, bv func(bool, bool) (*bitvec.Vector, error),
	iv func() (*intvec.Vector, error), tl func() (*tailstore.Store, error), last bool) (*Layer, error) {

	l := &Layer{}
	var err error
	if l.louds, err = bv(true, true); err != nil {
		return nil, err
	}
	if l.terminal, err = bv(false, true); err != nil {
		return nil, err
	}
	n, err := src.U64()
	if err != nil {
		return nil, err
	}
	if n > 1<<32-1 {
		return nil, errutil.Wrap(errutil.ErrFormat, "label count %d out of range", n)
	}
	if l.labels, err = src.Bytes(int(n)); err != nil {
		return nil, err
	}
	if l.linkFlags, err = bv(false, false); err != nil {
		return nil, err
	}
	if l.links, err = iv(); err != nil {
		return nil, err
	}
	if err := l.validate(); err != nil {
		return nil, err
	}
	if last && l.links.Len() > 0 {
		if l.tail, err = tl(); err != nil {
			return nil, err
		}
	}
	return l, nil
}

// validate cross-checks the intra-layer array sizes.
func (l *Layer) validate() error {
	numNodes := l.louds.OnesCount()
	if numNodes == 0 || l.louds.Len() != 2*numNodes+1 {
		return errutil.Wrap(errutil.ErrFormat, "louds shape has %d bits for %d nodes", l.louds.Len(), numNodes)
	}
	if !l.louds.Get(0) || l.louds.Get(1) {
		return errutil.Wrap(errutil.ErrFormat, "louds shape lacks the super-root prefix")
	}
	if l.terminal.Len() != numNodes {
		return errutil.Wrap(errutil.ErrFormat, "terminal flags cover %d of %d nodes", l.terminal.Len(), numNodes)
	}
	if uint32(len(l.labels)) != numNodes-1 {
		return errutil.Wrap(errutil.ErrFormat, "labels cover %d of %d edges", len(l.labels), numNodes-1)
	}
	if l.linkFlags.Len() != numNodes-1 {
		return errutil.Wrap(errutil.ErrFormat, "link flags cover %d of %d edges", l.linkFlags.Len(), numNodes-1)
	}
	if l.links.Len() != l.linkFlags.OnesCount() {
		return errutil.Wrap(errutil.ErrFormat, "links hold %d of %d entries", l.links.Len(), l.linkFlags.OnesCount())
	}
	return nil
}

// validateLinks checks every link points into its target space.
func (f *Forest) validateLinks() error {
	for i, l := range f.layers {
		last := i == len(f.layers)-1
		for j := uint32(0); j < l.links.Len(); j++ {
			v := l.links.Get(j)
			if !last {
				if v == 0 || v >= uint64(f.layers[i+1].numNodes()) {
					return errutil.Wrap(errutil.ErrFormat, "layer %d link %d targets node %d of %d", i, j, v, f.layers[i+1].numNodes())
				}
			} else if v >= uint64(l.tail.Size()) {
				return errutil.Wrap(errutil.ErrFormat, "layer %d link %d targets tail byte %d of %d", i, j, v, l.tail.Size())
			}
		}
	}
	return nil
}

// ReadForest deserializes numLayers layers into owned storage.
func ReadForest(r *codec.Reader, cfg Config, numLayers int) (*Forest, error) {
	f := &Forest{config: cfg}
	for i := 0; i < numLayers; i++ {
		l, err := decodeLayer(r,
			func(s0, s1 bool) (*bitvec.Vector, error) { return bitvec.Read(r, cfg.Cache) },
			func() (*intvec.Vector, error) { return intvec.Read(r) },
			func() (*tailstore.Store, error) { return tailstore.Read(r, cfg.Tail, cfg.Cache) },
			i == numLayers-1)
		if err != nil {
			return nil, err
		}
		f.layers = append(f.layers, l)
	}
	if err := f.validateLinks(); err != nil {
		return nil, err
	}
	f.numKeys = f.layers[0].terminal.OnesCount()
	return f, nil
}

// MapForest binds numLayers layers to borrowed storage.
func MapForest(m *codec.Mapper, cfg Config, numLayers int) (*Forest, error) {
	f := &Forest{config: cfg}
	for i := 0; i < numLayers; i++ {
		l, err := decodeLayer(m,
			func(s0, s1 bool) (*bitvec.Vector, error) { return bitvec.Map(m, cfg.Cache) },
			func() (*intvec.Vector, error) { return intvec.Map(m) },
			func() (*tailstore.Store, error) { return tailstore.Map(m, cfg.Tail, cfg.Cache) },
			i == numLayers-1)
		if err != nil {
			return nil, err
		}
		f.layers = append(f.layers, l)
	}
	if err := f.validateLinks(); err != nil {
		return nil, err
	}
	f.numKeys = f.layers[0].terminal.OnesCount()
	return f, nil
}
