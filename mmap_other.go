//go:build !unix

package nestrie

import "nestrie/errutil"

// Mmap is only available on unix; on other platforms it fails with an
// invalid-argument error and Load reads the file into owned storage instead.
func (t *Trie) Mmap(path string) error {
	return errutil.Wrap(errutil.ErrInvalidArgument, "file mapping is not supported on this platform")
}

func munmap(data []byte) error {
	return nil
}
