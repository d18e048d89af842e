// Command wizju manages IPTV and M3U sources and browses their channels,
// films and series from the terminal.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
)

// Version is set at build time via -ldflags
var Version = "dev"

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		cancel()
		os.Exit(1)
	}
}
