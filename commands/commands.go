// Package commands provides the subcommands supported by this tool.
package commands

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/anvilclone/mcregionclone/log"
)

// confirm asks the user for confirmation before proceeding, showing warning
// as the reason. If the user declines or provides an invalid response, the
// program will exit.
func confirm(warning string) {
	fmt.Printf("WARNING: %s\n\nProceed? (y/N): ", warning)
	scanner := bufio.NewScanner(os.Stdin)
	if !scanner.Scan() {
		log.Info("Exiting.")
		os.Exit(1)
	}
	resp := scanner.Text()
	switch strings.TrimSpace(strings.ToLower(resp)) {
	case "y", "yes":
		return
	case "n", "no", "":
		log.Info("Exiting.")
		os.Exit(1)
	default:
		log.Errorf("Invalid response: %q, expected Y or N. Exiting.", resp)
		os.Exit(1)
	}
}
