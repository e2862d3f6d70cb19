package nbtrewrite

import (
	"bufio"
	"io"

	"github.com/anvilclone/mcregionclone/internal/bytestream"
)

// Displacement holds the four additive offsets applied to coordinate tags
// during a rewrite. ChunkX/ChunkZ apply to chunk-position Int tags
// (xPos/ChunkX, zPos/ChunkZ); BlockX/BlockZ apply to every other matched
// coordinate tag, including the Pos list. A Displacement is immutable once
// constructed.
type Displacement struct {
	ChunkX int32
	ChunkZ int32
	BlockX int32
	BlockZ int32
}

// NewDisplacement derives the four displacement integers from a
// source-region to destination-region move, per spec: a region is 32 chunks
// wide and a chunk is 16 blocks wide.
func NewDisplacement(fromRX, fromRZ, toRX, toRZ int32) Displacement {
	chunkX := (toRX - fromRX) * 32
	chunkZ := (toRZ - fromRZ) * 32
	return Displacement{
		ChunkX: chunkX,
		ChunkZ: chunkZ,
		BlockX: chunkX * 16,
		BlockZ: chunkZ * 16,
	}
}

// Rewrite streams one decompressed chunk's NBT tree from src to dst,
// displacing coordinate tags per d and copying every other byte unchanged.
// src must contain exactly one top-level named compound (the chunk root);
// trailing bytes after it are neither rewritten nor copied, though src is
// read through a buffer and some of them may be read from it.
func Rewrite(src io.Reader, dst io.Writer, d Displacement) error {
	r := bufio.NewReader(src)
	w := bufio.NewWriter(dst)

	// The root tag is always a named Compound (tag id 10) with an empty
	// name. Echo the 3-byte prelude (id + zero-length name) verbatim, then
	// walk the compound body.
	idByte, err := bytestream.ReadUint8(r)
	if err != nil {
		return err
	}
	if tagID(idByte) != tagCompound {
		return nbtErrorf(-1, "expected root Compound tag (10), got %d", idByte)
	}
	if err := bytestream.WriteUint8(w, idByte); err != nil {
		return err
	}
	nameLen, err := bytestream.ReadUint16(r)
	if err != nil {
		return err
	}
	if err := bytestream.WriteUint16(w, nameLen); err != nil {
		return err
	}
	if nameLen > 0 {
		name, err := bytestream.ReadFull(r, int(nameLen))
		if err != nil {
			return err
		}
		if _, err := w.Write(name); err != nil {
			return err
		}
	}

	rw := &rewriter{d: d, r: r, w: w}
	if err := rw.writeCompoundBody(); err != nil {
		return err
	}
	return w.Flush()
}

type rewriter struct {
	d Displacement
	r *bufio.Reader
	w *bufio.Writer
}

// writeTag copies (and possibly displaces) a single tag's payload, given its
// type and name. name is only meaningful for Compound members; list elements
// and the outer root tag pass hasName=false.
func (rw *rewriter) writeTag(t tagID, name string, hasName bool) error {
	if hasName {
		if t == tagInt {
			switch matchCoordName(name) {
			case classChunkX:
				return rw.rewriteInt(rw.d.ChunkX)
			case classChunkZ:
				return rw.rewriteInt(rw.d.ChunkZ)
			case classBlockX:
				return rw.rewriteInt(rw.d.BlockX)
			case classBlockZ:
				return rw.rewriteInt(rw.d.BlockZ)
			}
		} else if t == tagList && name == posListName {
			return rw.writePosList()
		}
	}

	switch t {
	case tagEnd:
		return nil // structurally unreachable outside a Compound loop
	case tagByte:
		return rw.copyBytes(1)
	case tagShort:
		return rw.copyBytes(2)
	case tagInt:
		return rw.copyBytes(4)
	case tagLong:
		return rw.copyBytes(8)
	case tagFloat:
		return rw.copyBytes(4)
	case tagDouble:
		return rw.copyBytes(8)
	case tagByteArray:
		return rw.copyLengthPrefixed(1)
	case tagString:
		return rw.copyString()
	case tagList:
		return rw.writeGenericList()
	case tagCompound:
		return rw.writeCompoundBody()
	case tagIntArray:
		return rw.copyLengthPrefixed(4)
	case tagLongArray:
		return rw.copyLengthPrefixed(8)
	default:
		return nbtErrorf(-1, "unknown tag id %d", t)
	}
}

// rewriteInt reads a 4-byte Int, adds disp, and writes the result.
func (rw *rewriter) rewriteInt(disp int32) error {
	v, err := bytestream.ReadInt32(rw.r)
	if err != nil {
		return err
	}
	return bytestream.WriteInt32(rw.w, v+disp)
}

// copyBytes copies exactly n bytes through unchanged.
func (rw *rewriter) copyBytes(n int) error {
	return bytestream.CopyN(rw.w, rw.r, int64(n))
}

// copyLengthPrefixed copies a 4-byte length followed by length*elemSize
// bytes (ByteArray, IntArray, LongArray), unchanged.
func (rw *rewriter) copyLengthPrefixed(elemSize int) error {
	n, err := bytestream.ReadInt32(rw.r)
	if err != nil {
		return err
	}
	if n < 0 {
		return nbtErrorf(-1, "negative array length %d", n)
	}
	if err := bytestream.WriteInt32(rw.w, n); err != nil {
		return err
	}
	return bytestream.CopyN(rw.w, rw.r, int64(n)*int64(elemSize))
}

// copyString copies a 2-byte length-prefixed UTF-8 string unchanged. No
// validation is performed on the copy path; decoding only happens where a
// name must be compared against the coordinate table (see readName).
func (rw *rewriter) copyString() error {
	n, err := bytestream.ReadUint16(rw.r)
	if err != nil {
		return err
	}
	if err := bytestream.WriteUint16(rw.w, n); err != nil {
		return err
	}
	return bytestream.CopyN(rw.w, rw.r, int64(n))
}

// readName reads a 2-byte length-prefixed name, echoes it to the output, and
// returns its decoded value for coordinate-table lookup.
func (rw *rewriter) readName() (string, error) {
	n, err := bytestream.ReadUint16(rw.r)
	if err != nil {
		return "", err
	}
	if err := bytestream.WriteUint16(rw.w, n); err != nil {
		return "", err
	}
	if n == 0 {
		return "", nil
	}
	raw, err := bytestream.ReadFull(rw.r, int(n))
	if err != nil {
		return "", err
	}
	if _, err := rw.w.Write(raw); err != nil {
		return "", err
	}
	return string(raw), nil
}

// writeCompoundBody streams a Compound's member stream: repeated
// (id, name, payload) triples terminated by a single End (0) byte.
func (rw *rewriter) writeCompoundBody() error {
	for {
		idByte, err := bytestream.ReadUint8(rw.r)
		if err != nil {
			return err
		}
		id := tagID(idByte)
		if id == tagEnd {
			return bytestream.WriteUint8(rw.w, idByte)
		}
		if !id.valid() {
			return nbtErrorf(-1, "unknown tag id %d in compound", idByte)
		}
		if err := bytestream.WriteUint8(rw.w, idByte); err != nil {
			return err
		}
		name, err := rw.readName()
		if err != nil {
			return err
		}
		if err := rw.writeTag(id, name, true); err != nil {
			return err
		}
	}
}

// writeGenericList streams a List's 1-byte element type, 4-byte length, and
// that many unnamed elements.
func (rw *rewriter) writeGenericList() error {
	elemIDByte, err := bytestream.ReadUint8(rw.r)
	if err != nil {
		return err
	}
	elemID := tagID(elemIDByte)
	if !elemID.valid() {
		return nbtErrorf(-1, "unknown list element tag id %d", elemIDByte)
	}
	if err := bytestream.WriteUint8(rw.w, elemIDByte); err != nil {
		return err
	}
	length, err := bytestream.ReadInt32(rw.r)
	if err != nil {
		return err
	}
	if length < 0 {
		return nbtErrorf(-1, "negative list length %d", length)
	}
	if err := bytestream.WriteInt32(rw.w, length); err != nil {
		return err
	}
	for i := int32(0); i < length; i++ {
		if err := rw.writeTag(elemID, "", false); err != nil {
			return err
		}
	}
	return nil
}

// writePosList handles a List tag named "Pos". A 3-element Double or Int
// list receives the blockX/blockZ displacement on elements 0 and 2,
// leaving element 1 (Y) untouched. Any other element type or length is
// copied through as a generic list -- it is not a position triple and must
// not be skipped or mis-displaced.
func (rw *rewriter) writePosList() error {
	elemIDByte, err := bytestream.ReadUint8(rw.r)
	if err != nil {
		return err
	}
	elemID := tagID(elemIDByte)
	if !elemID.valid() {
		return nbtErrorf(-1, "unknown list element tag id %d", elemIDByte)
	}
	if err := bytestream.WriteUint8(rw.w, elemIDByte); err != nil {
		return err
	}
	length, err := bytestream.ReadInt32(rw.r)
	if err != nil {
		return err
	}
	if length < 0 {
		return nbtErrorf(-1, "negative list length %d", length)
	}
	if err := bytestream.WriteInt32(rw.w, length); err != nil {
		return err
	}

	if length == 3 && elemID == tagDouble {
		return rw.writePosTripleDouble()
	}
	if length == 3 && elemID == tagInt {
		return rw.writePosTripleInt()
	}
	for i := int32(0); i < length; i++ {
		if err := rw.writeTag(elemID, "", false); err != nil {
			return err
		}
	}
	return nil
}

func (rw *rewriter) writePosTripleDouble() error {
	x, err := bytestream.ReadFloat64(rw.r)
	if err != nil {
		return err
	}
	y, err := bytestream.ReadFloat64(rw.r)
	if err != nil {
		return err
	}
	z, err := bytestream.ReadFloat64(rw.r)
	if err != nil {
		return err
	}
	if err := bytestream.WriteFloat64(rw.w, x+float64(rw.d.BlockX)); err != nil {
		return err
	}
	if err := bytestream.WriteFloat64(rw.w, y); err != nil {
		return err
	}
	return bytestream.WriteFloat64(rw.w, z+float64(rw.d.BlockZ))
}

func (rw *rewriter) writePosTripleInt() error {
	x, err := bytestream.ReadInt32(rw.r)
	if err != nil {
		return err
	}
	y, err := bytestream.ReadInt32(rw.r)
	if err != nil {
		return err
	}
	z, err := bytestream.ReadInt32(rw.r)
	if err != nil {
		return err
	}
	if err := bytestream.WriteInt32(rw.w, x+rw.d.BlockX); err != nil {
		return err
	}
	if err := bytestream.WriteInt32(rw.w, y); err != nil {
		return err
	}
	return bytestream.WriteInt32(rw.w, z+rw.d.BlockZ)
}
