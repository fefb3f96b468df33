// Command rollcall keeps a session-scoped attendance log.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/roach88/rollcall/internal/cli"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := cli.Execute(ctx, cli.NewRootCommand())
	stop()
	os.Exit(code)
}
