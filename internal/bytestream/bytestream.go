// Package bytestream provides small big-endian read/write helpers shared by
// the region codec and the NBT rewriter. Every read here is "read-fully": a
// short read is always reported as an error rather than returning a partial
// result, matching the discipline the region file format requires (a chunk
// header or a string that runs past the end of its declared length leaves
// the stream unrecoverable anyway).
package bytestream

import (
	"encoding/binary"
	"fmt"
	"io"
	"math"
)

// ReadFull reads exactly n bytes from r, or returns an error.
func ReadFull(r io.Reader, n int) ([]byte, error) {
	if n < 0 {
		return nil, fmt.Errorf("bytestream: negative length %d", n)
	}
	buf := make([]byte, n)
	if _, err := io.ReadFull(r, buf); err != nil {
		return nil, fmt.Errorf("bytestream: short read (wanted %d bytes): %w", n, err)
	}
	return buf, nil
}

// CopyN copies exactly n bytes from src to dst.
func CopyN(dst io.Writer, src io.Reader, n int64) error {
	if n == 0 {
		return nil
	}
	written, err := io.CopyN(dst, src, n)
	if err != nil {
		return fmt.Errorf("bytestream: short copy (wanted %d bytes, got %d): %w", n, written, err)
	}
	return nil
}

func ReadUint8(r io.Reader) (uint8, error) {
	b, err := ReadFull(r, 1)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

func WriteUint8(w io.Writer, v uint8) error {
	_, err := w.Write([]byte{v})
	return err
}

func ReadUint16(r io.Reader) (uint16, error) {
	b, err := ReadFull(r, 2)
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint16(b), nil
}

func WriteUint16(w io.Writer, v uint16) error {
	var b [2]byte
	binary.BigEndian.PutUint16(b[:], v)
	_, err := w.Write(b[:])
	return err
}

func ReadInt32(r io.Reader) (int32, error) {
	b, err := ReadFull(r, 4)
	if err != nil {
		return 0, err
	}
	return int32(binary.BigEndian.Uint32(b)), nil
}

func WriteUint32(w io.Writer, v uint32) error {
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], v)
	_, err := w.Write(b[:])
	return err
}

func WriteUint64(w io.Writer, v uint64) error {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], v)
	_, err := w.Write(b[:])
	return err
}

func ReadFloat64(r io.Reader) (float64, error) {
	b, err := ReadFull(r, 8)
	if err != nil {
		return 0, err
	}
	return math.Float64frombits(binary.BigEndian.Uint64(b)), nil
}

func WriteInt32(w io.Writer, v int32) error {
	return WriteUint32(w, uint32(v))
}

func WriteFloat64(w io.Writer, v float64) error {
	return WriteUint64(w, math.Float64bits(v))
}
