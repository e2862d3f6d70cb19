package region

import (
	"bytes"
	"io"
	"os"

	"github.com/klauspost/compress/zlib"

	"github.com/anvilclone/mcregionclone/internal/bytestream"
	"github.com/anvilclone/mcregionclone/nbtrewrite"
)

// Clone reads every present chunk from r, routes its NBT tree through
// nbtrewrite with the displacement implied by (fromRX, fromRZ) -> (toRX,
// toRZ), and writes a complete Anvil region file to destPath.
//
// Chunks are emitted in (z, x) order -- the same order the location table
// indexes them in -- so destination sector offsets grow monotonically.
// The location table is written only after every payload has been flushed,
// so a clone that fails partway through never leaves a destination whose
// header points at a partially written payload.
func Clone(r *Reader, destPath string, fromRX, fromRZ, toRX, toRZ int32) (err error) {
	disp := nbtrewrite.NewDisplacement(fromRX, fromRZ, toRX, toRZ)

	dst, err := os.Create(destPath)
	if err != nil {
		return ioErrorf("create destination region file", err)
	}
	defer func() {
		if cerr := dst.Close(); cerr != nil && err == nil {
			err = ioErrorf("close destination region file", cerr)
		}
	}()

	if err := dst.Truncate(headerSize); err != nil {
		return ioErrorf("size destination region file", err)
	}
	if _, err := dst.Seek(headerSize, io.SeekStart); err != nil {
		return ioErrorf("seek past destination header", err)
	}

	var destLocations [sectorSize]byte
	nextSector := uint32(2)

	rewriteBuf := new(bytes.Buffer)
	var inflater io.ReadCloser
	deflater, derr := zlib.NewWriterLevel(rewriteBuf, zlib.BestSpeed)
	if derr != nil {
		return compressionErrorf("create deflater", derr)
	}

	i := 0
	for z := 0; z < gridWidth; z++ {
		for x := 0; x < gridWidth; x++ {
			srcOff := r.Offset(x, z)
			srcSectors := r.Sectors(x, z)
			if srcOff == 0 && srcSectors == 0 {
				i++
				continue
			}

			compressed, err := r.ChunkCompressed(srcOff)
			if err != nil {
				return err
			}

			rewriteBuf.Reset()

			if inflater == nil {
				inflater, err = zlib.NewReader(bytes.NewReader(compressed))
			} else {
				err = inflater.(zlib.Resetter).Reset(bytes.NewReader(compressed), nil)
			}
			if err != nil {
				return compressionErrorf("inflate chunk", err)
			}

			deflater.Reset(rewriteBuf)
			if err := nbtrewrite.Rewrite(inflater, deflater, disp); err != nil {
				return err
			}
			if err := deflater.Close(); err != nil {
				return compressionErrorf("deflate chunk", err)
			}

			payload := rewriteBuf.Bytes()
			// storedLength is the 4-byte length field's value: it covers the
			// 1-byte scheme plus the compressed payload, per the region
			// file's own convention. totalFrameBytes additionally counts the
			// 4 bytes of the length field itself.
			storedLength := len(payload) + 1
			totalFrameBytes := storedLength + 4
			sectors := (totalFrameBytes + sectorSize - 1) / sectorSize
			if sectors > 255 {
				return &SectorOverflowError{X: x, Z: z, Sectors: sectors}
			}

			if err := bytestream.WriteUint32(dst, uint32(storedLength)); err != nil {
				return ioErrorf("write chunk length", err)
			}
			if err := bytestream.WriteUint8(dst, zlibScheme); err != nil {
				return ioErrorf("write chunk scheme", err)
			}
			if _, err := dst.Write(payload); err != nil {
				return ioErrorf("write chunk payload", err)
			}
			pad := sectors*sectorSize - totalFrameBytes
			if pad > 0 {
				if _, err := dst.Write(make([]byte, pad)); err != nil {
					return ioErrorf("write chunk padding", err)
				}
			}

			destLocations[i*4] = byte(nextSector >> 16)
			destLocations[i*4+1] = byte(nextSector >> 8)
			destLocations[i*4+2] = byte(nextSector)
			destLocations[i*4+3] = byte(sectors)
			nextSector += uint32(sectors)
			i++
		}
	}

	if err := dst.Sync(); err != nil {
		return ioErrorf("flush destination region file", err)
	}
	if _, err := dst.Seek(0, io.SeekStart); err != nil {
		return ioErrorf("seek to destination header", err)
	}
	if _, err := dst.Write(destLocations[:]); err != nil {
		return ioErrorf("write destination location table", err)
	}
	timestamps := r.Timestamps()
	if _, err := dst.Write(timestamps[:]); err != nil {
		return ioErrorf("write destination timestamp table", err)
	}
	return nil
}
