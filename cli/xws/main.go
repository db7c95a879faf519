package main

import (
	"context"
	"os"
	"os/signal"

	xwscmder "github.com/papercomputeco/xws/cmd/xws"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	cmd := xwscmder.NewXWSCmd()
	if err := cmd.ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}
