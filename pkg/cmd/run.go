package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Run starts the modules in order and blocks until they all return. SIGINT
// or SIGTERM cancels the shared context; the first module error is returned.
func Run(logger *zap.Logger, modules []Module) error {
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGTERM, syscall.SIGINT)
	defer signal.Stop(sig)

	return RunUntil(logger, modules, sig)
}

// RunUntil is Run with the stop notification supplied by the caller.
func RunUntil(logger *zap.Logger, modules []Module, stop <-chan os.Signal) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	g, ctx := errgroup.WithContext(ctx)

	logger.Info("starting...")
	for _, m := range modules {
		if err := m.Start(ctx, g); err != nil {
			cancel()
			g.Wait()
			return fmt.Errorf("error while starting: %w", err)
		}
	}

	go func() {
		select {
		case s := <-stop:
			logger.Info("exiting...", zap.Stringer("signal", s))
			cancel()
		case <-ctx.Done():
		}
	}()

	return g.Wait()
}
