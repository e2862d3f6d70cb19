package region

import (
	"fmt"
	"math"
	"path/filepath"
)

// FileForRegion returns the conventional path of the region file covering
// region (rx, rz) within a world directory: <worldDir>/region/r.<rx>.<rz>.mca.
func FileForRegion(worldDir string, rx, rz int32) string {
	return filepath.Join(worldDir, "region", fmt.Sprintf("r.%d.%d.mca", rx, rz))
}

// FileForBlock returns the path of the region file covering the block
// position (bx, bz), by flooring to the containing 512x512-block region.
func FileForBlock(worldDir string, bx, bz int32) string {
	return FileForRegion(worldDir, floorDiv(bx, 512), floorDiv(bz, 512))
}

func floorDiv(a, b int32) int32 {
	return int32(math.Floor(float64(a) / float64(b)))
}
