// Package codec implements the little-endian framing shared by every
// serializable component. All blocks are padded to 8-byte alignment so that a
// mapped file can be reinterpreted word-wise without copying.
package codec

import (
	"encoding/binary"
	"io"
	"unsafe"

	"nestrie/errutil"
)

const Align = 8

// Pad returns the number of padding bytes needed after n payload bytes.
func Pad(n int) int {
	return (Align - n%Align) % Align
}

var zeroPad [Align]byte

// Writer counts bytes and keeps the stream 8-byte aligned.
type Writer struct {
	w io.Writer
	n int64
}

func NewWriter(w io.Writer) *Writer {
	return &Writer{w: w}
}

func (w *Writer) N() int64 { return w.n }

func (w *Writer) write(b []byte) error {
	n, err := w.w.Write(b)
	w.n += int64(n)
	if err != nil {
		return errutil.Wrap(errutil.ErrIO, "write failed: %v", err)
	}
	return nil
}

func (w *Writer) U64(v uint64) error {
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], v)
	return w.write(buf[:])
}

// Bytes writes raw bytes followed by alignment padding.
func (w *Writer) Bytes(b []byte) error {
	if err := w.write(b); err != nil {
		return err
	}
	if p := Pad(len(b)); p > 0 {
		return w.write(zeroPad[:p])
	}
	return nil
}

// Words writes a []uint64 payload.
func (w *Writer) Words(ws []uint64) error {
	var buf [8]byte
	for _, v := range ws {
		binary.LittleEndian.PutUint64(buf[:], v)
		if err := w.write(buf[:]); err != nil {
			return err
		}
	}
	return nil
}

// U32Slice writes a count-prefixed []uint32 payload plus padding.
func (w *Writer) U32Slice(vs []uint32) error {
	if err := w.U64(uint64(len(vs))); err != nil {
		return err
	}
	var buf [4]byte
	for _, v := range vs {
		binary.LittleEndian.PutUint32(buf[:], v)
		if err := w.write(buf[:]); err != nil {
			return err
		}
	}
	if p := Pad(4 * len(vs)); p > 0 {
		return w.write(zeroPad[:p])
	}
	return nil
}

// Reader reads the same framing from a stream, copying into owned storage.
type Reader struct {
	r io.Reader
	n int64
}

func NewReader(r io.Reader) *Reader {
	return &Reader{r: r}
}

func (r *Reader) N() int64 { return r.n }

func (r *Reader) read(b []byte) error {
	n, err := io.ReadFull(r.r, b)
	r.n += int64(n)
	if err != nil {
		if err == io.EOF || err == io.ErrUnexpectedEOF {
			return errutil.Wrap(errutil.ErrFormat, "truncated frame")
		}
		return errutil.Wrap(errutil.ErrIO, "read failed: %v", err)
	}
	return nil
}

func (r *Reader) U64() (uint64, error) {
	var buf [8]byte
	if err := r.read(buf[:]); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint64(buf[:]), nil
}

// Bytes reads n raw bytes plus padding into owned storage.
func (r *Reader) Bytes(n int) ([]byte, error) {
	b := make([]byte, n+Pad(n))
	if err := r.read(b); err != nil {
		return nil, err
	}
	return b[:n], nil
}

func (r *Reader) Words(n int) ([]uint64, error) {
	b := make([]byte, n*8)
	if err := r.read(b); err != nil {
		return nil, err
	}
	ws := make([]uint64, n)
	for i := range ws {
		ws[i] = binary.LittleEndian.Uint64(b[i*8:])
	}
	return ws, nil
}

// U32Slice reads a count-prefixed []uint32 payload. The count must not exceed
// limit, which callers derive from already-validated sizes.
func (r *Reader) U32Slice(limit int) ([]uint32, error) {
	n, err := r.U64()
	if err != nil {
		return nil, err
	}
	if n > uint64(limit) {
		return nil, errutil.Wrap(errutil.ErrFormat, "element count %d exceeds limit %d", n, limit)
	}
	b := make([]byte, int(n)*4+Pad(int(n)*4))
	if err := r.read(b); err != nil {
		return nil, err
	}
	vs := make([]uint32, n)
	for i := range vs {
		vs[i] = binary.LittleEndian.Uint32(b[i*4:])
	}
	return vs, nil
}

// Mapper binds borrowed slices directly into a byte buffer. Nothing is
// copied; the buffer must outlive every structure bound to it.
type Mapper struct {
	data []byte
	pos  int
}

func NewMapper(data []byte) (*Mapper, error) {
	if len(data) > 0 && uintptr(unsafe.Pointer(&data[0]))%Align != 0 {
		return nil, errutil.Wrap(errutil.ErrFormat, "mapped buffer is not %d-byte aligned", Align)
	}
	return &Mapper{data: data}, nil
}

func (m *Mapper) N() int64 { return int64(m.pos) }

func (m *Mapper) slice(n int) ([]byte, error) {
	if n < 0 || m.pos+n > len(m.data) {
		return nil, errutil.Wrap(errutil.ErrFormat, "truncated frame")
	}
	b := m.data[m.pos : m.pos+n]
	m.pos += n
	return b, nil
}

func (m *Mapper) U64() (uint64, error) {
	b, err := m.slice(8)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint64(b), nil
}

// Bytes borrows n bytes and skips padding.
func (m *Mapper) Bytes(n int) ([]byte, error) {
	b, err := m.slice(n)
	if err != nil {
		return nil, err
	}
	if _, err := m.slice(Pad(n)); err != nil {
		return nil, err
	}
	return b, nil
}

// Words borrows n 64-bit words in place. The frame keeps every word block
// 8-byte aligned, and NewMapper rejects misaligned buffers, so the
// reinterpretation is safe on little-endian hosts.
func (m *Mapper) Words(n int) ([]uint64, error) {
	b, err := m.slice(n * 8)
	if err != nil {
		return nil, err
	}
	if n == 0 {
		return nil, nil
	}
	return unsafe.Slice((*uint64)(unsafe.Pointer(&b[0])), n), nil
}

func (m *Mapper) U32Slice(limit int) ([]uint32, error) {
	n, err := m.U64()
	if err != nil {
		return nil, err
	}
	if n > uint64(limit) {
		return nil, errutil.Wrap(errutil.ErrFormat, "element count %d exceeds limit %d", n, limit)
	}
	b, err := m.slice(int(n) * 4)
	if err != nil {
		return nil, err
	}
	if _, err := m.slice(Pad(int(n) * 4)); err != nil {
		return nil, err
	}
	if n == 0 {
		return nil, nil
	}
	return unsafe.Slice((*uint32)(unsafe.Pointer(&b[0])), n), nil
}
