package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"
)

// shutdownContext returns a context that cancels on the first SIGINT/SIGTERM
// and force-exits on the second. A mirror run stops between entries and the
// gateway drains in-flight requests on the first signal. The returned stop
// func cancels the context and unregisters the signal handler; it returns
// once the watcher has exited.
func shutdownContext(parent context.Context, logger *slog.Logger) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(parent)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	stopped := make(chan struct{})
	exited := make(chan struct{})

	go func() {
		defer close(exited)
		defer signal.Stop(sigCh)

		select {
		case sig := <-sigCh:
			logger.Info("received signal, finishing current work",
				slog.String("signal", sig.String()),
			)
			cancel()
		case <-ctx.Done():
			return
		}

		select {
		case sig := <-sigCh:
			logger.Warn("received second signal, forcing exit",
				slog.String("signal", sig.String()),
			)
			os.Exit(1)
		case <-stopped:
		case <-parent.Done():
		}
	}()

	var once sync.Once

	stop := func() {
		once.Do(func() {
			close(stopped)
			cancel()
			<-exited
		})
	}

	return ctx, stop
}
