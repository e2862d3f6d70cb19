// mcregionclone clones a region file to a new region-grid position,
// displacing every chunk's embedded coordinates to match.
package main

import (
	"context"
	"flag"
	"os"

	"github.com/google/subcommands"

	"github.com/anvilclone/mcregionclone/commands"
	"github.com/anvilclone/mcregionclone/log"
)

func main() {
	subcommands.Register(subcommands.HelpCommand(), "")
	subcommands.Register(subcommands.FlagsCommand(), "")
	subcommands.Register(subcommands.CommandsCommand(), "")
	subcommands.Register(&commands.Clone{}, "")

	debug := flag.Bool("debug", false, "Enable debug logging.")
	flag.Parse()
	if *debug {
		log.SetMinLevel(log.DebugLevel)
	}

	os.Exit(int(subcommands.Execute(context.Background())))
}
