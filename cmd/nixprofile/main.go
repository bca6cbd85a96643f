package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/alexisbeaulieu97/nixprofile/internal/actions"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		actions.New().Fail("Workflow run failed: " + err.Error())
		stop()
		os.Exit(1)
	}
}
