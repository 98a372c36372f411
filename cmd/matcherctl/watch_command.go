package main

import (
	"bufio"
	"flag"
	"fmt"
	"os"
	"time"

	"golang.org/x/term"

	"github.com/windlayer/matcher/internal/ipc"
)

// runWatch is an interactive live status view, grounded on the teacher's
// internal/tui/tui.go raw-mode terminal handling (term.MakeRaw/Restore
// around a read loop, term.GetSize for layout) adapted from browsing a
// static layout list into polling the running daemon's status and slot
// dump on an interval until 'q' or Ctrl+C.
func runWatch(args []string) int {
	fs := flag.NewFlagSet("watch", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	interval := fs.Duration("interval", time.Second, "Refresh interval")
	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: matcherctl watch [--interval DURATION]")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "Live view of daemon status and tracked slots. Press q to quit.")
	}
	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return 0
		}
		return 2
	}

	if !term.IsTerminal(int(os.Stdin.Fd())) || !term.IsTerminal(int(os.Stdout.Fd())) {
		fmt.Fprintln(os.Stderr, "watch requires an interactive terminal")
		return 2
	}

	oldState, err := term.MakeRaw(int(os.Stdin.Fd()))
	if err != nil {
		fmt.Fprintln(os.Stderr, "enter raw mode:", err)
		return 1
	}
	defer term.Restore(int(os.Stdin.Fd()), oldState)

	client := ipc.NewClient()
	quit := make(chan struct{})
	go watchKeypresses(quit)

	ticker := time.NewTicker(*interval)
	defer ticker.Stop()

	render(client)
	for {
		select {
		case <-quit:
			return 0
		case <-ticker.C:
			render(client)
		}
	}
}

func watchKeypresses(quit chan<- struct{}) {
	reader := bufio.NewReader(os.Stdin)
	for {
		b, err := reader.ReadByte()
		if err != nil {
			close(quit)
			return
		}
		if b == 'q' || b == 3 { // 'q' or Ctrl+C
			close(quit)
			return
		}
	}
}

func render(client *ipc.Client) {
	width, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || width <= 0 {
		width = 80
	}

	fmt.Print("\x1b[2J\x1b[H") // clear screen, home cursor

	status, err := client.GetStatus()
	if err != nil {
		fmt.Printf("daemon unreachable: %v\r\n", err)
		return
	}
	fmt.Printf("tracked_windows=%d uptime=%ds\r\n", status.TrackedWindows, status.UptimeSeconds)
	fmt.Print(dashes(width))
	fmt.Print("\r\n")

	data, err := client.DumpState()
	if err != nil {
		fmt.Printf("dump-state failed: %v\r\n", err)
		return
	}
	for _, slot := range data.Slots {
		bound := "-"
		if slot.Bound {
			bound = fmt.Sprintf("win=%d", slot.WindowID)
		}
		fmt.Printf("%-24s %-10s configs=%d\r\n", slot.WMClass, bound, slot.ConfigCount)
	}
	fmt.Print("\r\nq: quit\r\n")
}

func dashes(n int) string {
	if n > 200 {
		n = 200
	}
	b := make([]byte, n)
	for i := range b {
		b[i] = '-'
	}
	return string(b)
}
