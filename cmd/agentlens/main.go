package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"agentlens/internal/logging"
)

// version is overridden at build time via -ldflags "-X main.version=...".
var version = "dev"

const gracefulShutdownTimeout = 10 * time.Second

func main() {
	if err := newRootCommand().ExecuteContext(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "agentlens: %v\n", err)
		os.Exit(1)
	}
}

// installSignalHandler returns a context canceled on SIGINT/SIGTERM,
// mirroring alex's cmd/alex signal.Notify shutdown hook but exposed as a
// context so runWatch's blocking <-ctx.Done() covers both the request
// context and an OS interrupt with one select.
func installSignalHandler(ctx context.Context, logger logging.Logger) (context.Context, func()) {
	ctx, cancel := context.WithCancel(ctx)
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	go func() {
		select {
		case sig := <-sigCh:
			logger.Info("agentlens: received signal %v, shutting down", sig)
			cancel()
		case <-ctx.Done():
		}
	}()

	return ctx, func() {
		signal.Stop(sigCh)
		cancel()
	}
}
