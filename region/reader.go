package region

import (
	"fmt"
	"os"

	"github.com/bits-and-blooms/bitset"
)

const (
	sectorSize   = 4096
	headerSize   = 2 * sectorSize // location table + timestamp table
	gridWidth    = 32
	gridChunks   = gridWidth * gridWidth
	chunkFrameSz = 5 // 4-byte length + 1-byte scheme
	zlibScheme   = 2
	gzipScheme   = 1
)

// Reader opens a region file read-only and owns its two 4096-byte header
// tables (location, timestamp) for the lifetime of the handle.
type Reader struct {
	f          *os.File
	locations  [sectorSize]byte
	timestamps [sectorSize]byte
	used       *bitset.BitSet
}

// Open reads the location and timestamp header tables from path and returns
// a Reader positioned to serve per-chunk lookups. It fails with an IoError
// if the file is shorter than the 8192-byte header region.
func Open(path string) (*Reader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, ioErrorf("open region file", err)
	}

	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, ioErrorf("stat region file", err)
	}
	if info.Size() < headerSize {
		f.Close()
		return nil, ioErrorf("open region file", fmt.Errorf("file %q is %d bytes, shorter than the %d-byte header", path, info.Size(), headerSize))
	}

	r := &Reader{f: f}
	if _, err := fReadFullAt(f, r.locations[:], 0); err != nil {
		f.Close()
		return nil, ioErrorf("read location table", err)
	}
	if _, err := fReadFullAt(f, r.timestamps[:], sectorSize); err != nil {
		f.Close()
		return nil, ioErrorf("read timestamp table", err)
	}

	r.used = bitset.New(uint(info.Size() / sectorSize))
	if err := r.validateSectors(); err != nil {
		f.Close()
		return nil, err
	}
	return r, nil
}

// index computes the location/timestamp table index for chunk (x, z), per
// the Anvil layout: i = ((x & 31) << 2) + ((z & 31) << 7).
func index(x, z int) int {
	return ((x & 31) << 2) + ((z & 31) << 7)
}

// Offset returns the 24-bit sector offset for chunk (x, z), or 0 if the
// chunk is not present. Callers are expected to mask (x, z) to 0..32; no
// bounds check is performed here.
func (r *Reader) Offset(x, z int) uint32 {
	i := index(x, z)
	// Per the Anvil spec, the top nibble of the first offset byte is masked
	// to 4 bits before assembling the 24-bit big-endian value.
	b0 := r.locations[i] & 0x0f
	return uint32(b0)<<16 | uint32(r.locations[i+1])<<8 | uint32(r.locations[i+2])
}

// Sectors returns the 8-bit sector count for chunk (x, z).
func (r *Reader) Sectors(x, z int) uint8 {
	return r.locations[index(x, z)+3]
}

// Timestamps returns the 4096-byte timestamp table, unmodified from disk.
func (r *Reader) Timestamps() *[sectorSize]byte {
	return &r.timestamps
}

// ChunkCompressed reads the compressed payload for the chunk whose location
// table entry gives sectorOffset. The stored length field includes the
// 1-byte scheme, so the returned buffer is length-1 bytes. Fails with an
// IoError on a short read.
func (r *Reader) ChunkCompressed(sectorOffset uint32) ([]byte, error) {
	pos := int64(sectorOffset) * sectorSize
	header, err := fReadFullAtN(r.f, chunkFrameSz, pos)
	if err != nil {
		return nil, ioErrorf("read chunk frame", err)
	}
	length := int32(header[0])<<24 | int32(header[1])<<16 | int32(header[2])<<8 | int32(header[3])
	if length < 1 {
		return nil, ioErrorf("read chunk frame", fmt.Errorf("invalid chunk length %d", length))
	}
	scheme := header[4]
	if scheme != zlibScheme {
		return nil, compressionErrorf("decode chunk scheme", fmt.Errorf("unsupported compression scheme %d (only zlib/2 is supported)", scheme))
	}
	payload, err := fReadFullAtN(r.f, int(length-1), pos+chunkFrameSz)
	if err != nil {
		return nil, ioErrorf("read chunk payload", err)
	}
	return payload, nil
}

// Close releases the underlying file handle. Close is idempotent.
func (r *Reader) Close() error {
	if r.f == nil {
		return nil
	}
	err := r.f.Close()
	r.f = nil
	if err != nil {
		return ioErrorf("close region file", err)
	}
	return nil
}

// validateSectors walks every present chunk's location entry and flags
// overlapping sector ranges before any clone reads them, using a bitset to
// track occupied sectors the same way the region file's own header does
// with a byte-per-chunk sector count.
func (r *Reader) validateSectors() error {
	maxSector := uint(r.used.Len())
	for z := 0; z < gridWidth; z++ {
		for x := 0; x < gridWidth; x++ {
			off := r.Offset(x, z)
			n := r.Sectors(x, z)
			if off == 0 && n == 0 {
				continue
			}
			if off < 2 {
				return ioErrorf("validate sectors", fmt.Errorf("chunk (%d, %d) has sector offset %d, below the reserved header sectors", x, z, off))
			}
			for s := uint(0); s < uint(n); s++ {
				pos := uint(off) + s
				if pos >= maxSector {
					return ioErrorf("validate sectors", fmt.Errorf("chunk (%d, %d) references sector %d past end of file", x, z, pos))
				}
				if r.used.Test(pos) {
					return ioErrorf("validate sectors", fmt.Errorf("chunk (%d, %d) overlaps a sector already claimed by another chunk", x, z))
				}
				r.used.Set(pos)
			}
		}
	}
	return nil
}
