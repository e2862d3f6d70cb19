package region

import (
	"fmt"
	"io"
	"os"
)

// fReadFullAt reads exactly len(buf) bytes from f starting at offset.
func fReadFullAt(f *os.File, buf []byte, offset int64) (int, error) {
	n, err := f.ReadAt(buf, offset)
	if err != nil && err != io.EOF {
		return n, err
	}
	if n != len(buf) {
		return n, fmt.Errorf("short read at offset %d: got %d of %d bytes", offset, n, len(buf))
	}
	return n, nil
}

// fReadFullAtN allocates and fills an n-byte buffer from f starting at
// offset.
func fReadFullAtN(f *os.File, n int, offset int64) ([]byte, error) {
	buf := make([]byte, n)
	if _, err := fReadFullAt(f, buf, offset); err != nil {
		return nil, err
	}
	return buf, nil
}
