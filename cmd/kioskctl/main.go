// Package main provides kioskctl, an operator CLI for the kiosk data service.
package main

import (
	"context"
	"os"
	"os/signal"

	"kiosk/cmd/kioskctl/commands"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	commands.ExecuteContext(ctx)
}
