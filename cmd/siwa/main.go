package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/aussiebroadwan/siwa/internal/siwa/app"
	"github.com/aussiebroadwan/siwa/internal/siwa/cli"
)

// version will be set at build time via ldflags
var version = "dev"

func main() {
	app.BuildVersion = version

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := cli.NewRootCmd(cli.FromEnv, version).ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "siwa: %v\n", err)
		stop()
		os.Exit(1)
	}
}
