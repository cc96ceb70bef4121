// Command reelsctl is the maintenance CLI for the reels feed.
//
// Usage:
//
//	reelsctl                      Show help
//	reelsctl import <ref>...      Import JSON manifests into the store
//	reelsctl import -fetch        Fetch configured feed sources once
//	reelsctl list                 Print the stored feed in order
//	reelsctl events               JSONL event log viewer
//	reelsctl config               Show the effective configuration
package main

import (
	"fmt"
	"os"
)

const usage = `reelsctl - reels maintenance CLI

Usage:
  reelsctl <command> [flags]

Commands:
  import      Import manifests (paths or URLs) and optionally fetch sources
  list        Print stored reels in feed order
  events      JSONL event log viewer
  config      Show or initialise the configuration

Environment:
  REELS_HOME         Data directory (default: ~/.reels)
  REELS_DB           Database path (default: $REELS_HOME/reels.db)
  REELS_SOURCES      Comma-separated Media RSS feed URLs
  REELS_FEED_*       Feed tuning, e.g. REELS_FEED_WINDOW=2

Run 'reelsctl <command> -h' for command-specific help.
`

func main() {
	if len(os.Args) < 2 {
		fmt.Print(usage)
		os.Exit(0)
	}

	cmd := os.Args[1]
	// Strip the program name + subcommand so flag sets see only their flags
	os.Args = os.Args[1:]

	switch cmd {
	case "import":
		runImport()
	case "list":
		runList()
	case "events":
		runEvents()
	case "config":
		runConfig()
	case "-h", "--help", "help":
		fmt.Print(usage)
	default:
		fmt.Fprintf(os.Stderr, "reelsctl: unknown command %q\n\n", cmd)
		fmt.Print(usage)
		os.Exit(1)
	}
}
