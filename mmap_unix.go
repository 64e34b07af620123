//go:build unix

package nestrie

import (
	"os"

	"golang.org/x/sys/unix"

	"nestrie/errutil"
)

// Mmap binds the trie to a read-only file mapping, copying nothing. The
// mapping lives until Close or until another open replaces the contents.
func (t *Trie) Mmap(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return errutil.Wrap(errutil.ErrIO, "open %s: %v", path, err)
	}
	defer f.Close()

	st, err := f.Stat()
	if err != nil {
		return errutil.Wrap(errutil.ErrIO, "stat %s: %v", path, err)
	}
	if st.Size() == 0 {
		return errutil.Wrap(errutil.ErrFormat, "%s is empty", path)
	}

	data, err := unix.Mmap(int(f.Fd()), 0, int(st.Size()), unix.PROT_READ, unix.MAP_SHARED)
	if err != nil {
		return errutil.Wrap(errutil.ErrIO, "mmap %s: %v", path, err)
	}
	if err := t.Map(data); err != nil {
		_ = unix.Munmap(data)
		return err
	}
	// Map installed the forest; hand the region to the trie for Close.
	t.mapping = data
	return nil
}

func munmap(data []byte) error {
	if err := unix.Munmap(data); err != nil {
		return errutil.Wrap(errutil.ErrIO, "munmap: %v", err)
	}
	return nil
}
