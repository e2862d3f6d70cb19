package commands

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/subcommands"

	"github.com/anvilclone/mcregionclone/log"
	"github.com/anvilclone/mcregionclone/region"
)

// Clone implements the clone command.
type Clone struct {
	fromRX, fromRZ int
	toRX, toRZ     int
	output         string
	skipConfirm    bool
}

func (*Clone) Name() string { return "clone" }

func (*Clone) Synopsis() string {
	return "Clone a region file, displacing its chunks to a new region position."
}

func (*Clone) Usage() string {
	return `clone -from_rx <n> -from_rz <n> -to_rx <n> -to_rz <n> [<flags>...] <region_file>
Clone a region file to a new region-grid position.

Clone reads the region file <region_file> (as though it were located at
region (from_rx, from_rz)) and writes a new region file as though it were
relocated to region (to_rx, to_rz). Every coordinate-bearing tag in each
chunk's NBT tree -- chunk position, block position, entity/tile-entity
position, and "Pos" lists -- is displaced by the offset implied by the move.
Chunks with no coordinate data, and the timestamp table, are copied through
unchanged.

`
}

func (c *Clone) SetFlags(f *flag.FlagSet) {
	f.IntVar(&c.fromRX, "from_rx", 0, "The region X coordinate the source file is located at (required).")
	f.IntVar(&c.fromRZ, "from_rz", 0, "The region Z coordinate the source file is located at (required).")
	f.IntVar(&c.toRX, "to_rx", 0, "The region X coordinate to clone the file to (required).")
	f.IntVar(&c.toRZ, "to_rz", 0, "The region Z coordinate to clone the file to (required).")
	f.StringVar(&c.output, "output", "", "Destination region file path (defaults to r.<to_rx>.<to_rz>.mca next to the source).")
	f.BoolVar(&c.skipConfirm, "skip_confirmation", false, "Do not ask for confirmation before proceeding.")
}

func (c *Clone) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() == 0 {
		fmt.Fprintln(os.Stderr, "<region_file> is required.")
		return subcommands.ExitUsageError
	}
	if f.NArg() > 1 {
		fmt.Fprintln(os.Stderr, "Extra positional arguments found.")
		return subcommands.ExitUsageError
	}
	src := f.Arg(0)

	set := map[string]bool{}
	f.Visit(func(fl *flag.Flag) { set[fl.Name] = true })
	for _, name := range []string{"from_rx", "from_rz", "to_rx", "to_rz"} {
		if !set[name] {
			fmt.Fprintf(os.Stderr, "-%s is required.\n", name)
			return subcommands.ExitUsageError
		}
	}

	dest := c.output
	if dest == "" {
		dest = outputPathFor(src, c.toRX, c.toRZ)
	}

	if !c.skipConfirm {
		confirm(fmt.Sprintf("This will create or overwrite %q.", dest))
	}

	log.Infof("Cloning %q from region (%d, %d) to region (%d, %d) at %q.", src, c.fromRX, c.fromRZ, c.toRX, c.toRZ, dest)
	if err := cloneRegion(src, dest, c.fromRX, c.fromRZ, c.toRX, c.toRZ); err != nil {
		log.Errorf("Clone: %v", err)
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}

// outputPathFor derives a default destination path by swapping in the
// region coordinates r.<rx>.<rz>.mca the way region.FileForRegion would,
// but rooted at src's own directory rather than a world directory.
func outputPathFor(src string, toRX, toRZ int) string {
	return filepath.Join(filepath.Dir(src), fmt.Sprintf("r.%d.%d.mca", toRX, toRZ))
}

func cloneRegion(src, dest string, fromRX, fromRZ, toRX, toRZ int) error {
	r, err := region.Open(src)
	if err != nil {
		return fmt.Errorf("cannot open source region file %q: %v", src, err)
	}
	defer r.Close()

	if err := region.Clone(r, dest, int32(fromRX), int32(fromRZ), int32(toRX), int32(toRZ)); err != nil {
		return fmt.Errorf("cannot clone region file %q: %v", src, err)
	}
	return nil
}
