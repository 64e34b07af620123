package nestrie

import (
	"bufio"
	"io"
	"os"

	"github.com/zeebo/xxh3"

	"nestrie/codec"
	"nestrie/errutil"
	"nestrie/louds"
)

// The frame starts with an 8-byte magic, then one 64-bit word packing the
// canonical config flags (low half) and the layer count (high half),
// followed by the layers. Everything is little-endian and 8-byte aligned.
const magic = "nestrie1"

// WriteTo serializes the trie. It implements io.WriterTo.
func (t *Trie) WriteTo(w io.Writer) (int64, error) {
	if err := t.built(); err != nil {
		return 0, err
	}
	cw := codec.NewWriter(w)
	flags := canonicalFlags(t.forest.Config())
	header := uint64(flags) | uint64(t.forest.NumTries())<<32
	if err := errutil.First(
		cw.Bytes([]byte(magic)),
		cw.U64(header),
		t.forest.WriteTo(cw),
	); err != nil {
		return cw.N(), err
	}
	return cw.N(), nil
}

// IOSize returns the serialized size in bytes.
func (t *Trie) IOSize() int {
	if t.forest == nil {
		return 0
	}
	return 16 + t.forest.IOSize()
}

// Checksum returns the xxh3 hash of the serialized frame. Two builds from
// the same keyset and flags hash identically.
func (t *Trie) Checksum() (uint64, error) {
	h := xxh3.New()
	if _, err := t.WriteTo(h); err != nil {
		return 0, err
	}
	return h.Sum64(), nil
}

func parseHeader(magicBytes []byte, header uint64) (louds.Config, int, error) {
	if string(magicBytes) != magic {
		return louds.Config{}, 0, errutil.Wrap(errutil.ErrFormat, "unknown magic %q", magicBytes)
	}
	flags := Flags(header & 0xFFFFFFFF)
	numLayers := int(header >> 32)
	cfg, err := parseFlags(flags)
	if err != nil {
		return louds.Config{}, 0, errutil.Wrap(errutil.ErrFormat, "bad config flags: %v", err)
	}
	if numLayers < 1 || numLayers > cfg.NumTries {
		return louds.Config{}, 0, errutil.Wrap(errutil.ErrFormat, "layer count %d outside [1, %d]", numLayers, cfg.NumTries)
	}
	return cfg, numLayers, nil
}

// ReadFrom replaces the trie contents from a serialized frame, copying every
// array into owned storage. It implements io.ReaderFrom. On failure the
// previous contents survive untouched.
func (t *Trie) ReadFrom(r io.Reader) (int64, error) {
	cr := codec.NewReader(r)
	magicBytes, err := cr.Bytes(len(magic))
	if err != nil {
		return cr.N(), err
	}
	header, err := cr.U64()
	if err != nil {
		return cr.N(), err
	}
	cfg, numLayers, err := parseHeader(magicBytes, header)
	if err != nil {
		return cr.N(), err
	}
	forest, err := louds.ReadForest(cr, cfg, numLayers)
	if err != nil {
		return cr.N(), err
	}
	t.replace(forest, nil)
	return cr.N(), nil
}

// Map binds the trie to a serialized frame without copying the payload. The
// buffer must stay alive and unchanged for the life of the trie; the result
// is read-only. On failure the previous contents survive untouched.
func (t *Trie) Map(data []byte) error {
	m, err := codec.NewMapper(data)
	if err != nil {
		return err
	}
	magicBytes, err := m.Bytes(len(magic))
	if err != nil {
		return err
	}
	header, err := m.U64()
	if err != nil {
		return err
	}
	cfg, numLayers, err := parseHeader(magicBytes, header)
	if err != nil {
		return err
	}
	forest, err := louds.MapForest(m, cfg, numLayers)
	if err != nil {
		return err
	}
	t.replace(forest, nil)
	return nil
}

// Save writes the trie to a file.
func (t *Trie) Save(path string) error {
	if err := t.built(); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return errutil.Wrap(errutil.ErrIO, "create %s: %v", path, err)
	}
	w := bufio.NewWriter(f)
	if _, err := t.WriteTo(w); err != nil {
		f.Close()
		return err
	}
	if err := errutil.First(w.Flush(), f.Close()); err != nil {
		return errutil.Wrap(errutil.ErrIO, "save %s: %v", path, err)
	}
	return nil
}

// Load reads the trie from a file into owned storage.
func (t *Trie) Load(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return errutil.Wrap(errutil.ErrIO, "open %s: %v", path, err)
	}
	defer f.Close()
	_, err = t.ReadFrom(bufio.NewReader(f))
	return err
}

// Close releases a file mapping established by Mmap. It is a no-op
// otherwise.
func (t *Trie) Close() error {
	if t.mapping == nil {
		return nil
	}
	data := t.mapping
	t.mapping = nil
	t.forest = nil
	return munmap(data)
}
