// Command matcherctl runs the window state matcher daemon and talks to a
// running instance over its control-plane socket, grounded on the
// teacher's cmd/termtile/main.go dispatch pattern (a bare os.Args switch,
// one flag.FlagSet per subcommand with its own Usage).
package main

import (
	"fmt"
	"io"
	"os"
)

func main() {
	if len(os.Args) < 2 {
		printMainUsage(os.Stdout)
		os.Exit(0)
	}

	switch os.Args[1] {
	case "daemon":
		os.Exit(runDaemon(os.Args[2:]))
	case "status":
		os.Exit(runStatus(os.Args[2:]))
	case "monitors":
		os.Exit(runMonitors(os.Args[2:]))
	case "dump-state":
		os.Exit(runDumpState(os.Args[2:]))
	case "reload":
		os.Exit(runReload(os.Args[2:]))
	case "watch":
		os.Exit(runWatch(os.Args[2:]))
	case "config":
		os.Exit(runConfig(os.Args[2:]))
	case "help", "-h", "--help":
		printMainUsage(os.Stdout)
		os.Exit(0)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", os.Args[1])
		printMainUsage(os.Stderr)
		os.Exit(2)
	}
}

func printMainUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: matcherctl <command> [options]")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "Commands:")
	fmt.Fprintln(w, "  daemon              Start the matcher daemon (foreground)")
	fmt.Fprintln(w, "  status              Show daemon status")
	fmt.Fprintln(w, "  monitors            Show current monitor topology")
	fmt.Fprintln(w, "  dump-state          Dump every remembered slot")
	fmt.Fprintln(w, "  reload              Reload the daemon's on-disk configuration")
	fmt.Fprintln(w, "  watch               Live terminal view of status and slots")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "  config validate     Validate configuration")
	fmt.Fprintln(w, "  config print        Print effective configuration")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "Run 'matcherctl <command> --help' for command-specific options.")
}
