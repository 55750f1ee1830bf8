// freegpu prints the GPUs whose memory usage is below a threshold.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
)

func main() {
	// Ctrl-C kills a hung nvidia-smi instead of leaving the tool stuck.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := execute(ctx, os.Args[1:], os.Stdout, os.Stderr, dependencies{})
	stop()
	os.Exit(code)
}
