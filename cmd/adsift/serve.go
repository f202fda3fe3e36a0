package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/fwojciec/adsift"
	adsifthttp "github.com/fwojciec/adsift/http"
)

// shutdownTimeout bounds graceful shutdown of the resolver service.
const shutdownTimeout = 10 * time.Second

// Run executes the serve command. It blocks until deps.Ctx is done.
func (c *ServeCmd) Run(deps *Dependencies) error {
	if deps.Resolver == nil {
		return adsift.Errorf(adsift.EINTERNAL, "no resolver configured")
	}

	ln, err := net.Listen("tcp", c.Addr)
	if err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", err)
		return err
	}
	return c.Serve(deps, ln)
}

// Serve runs the resolver service on ln until deps.Ctx is done.
func (c *ServeCmd) Serve(deps *Dependencies, ln net.Listener) error {
	logger := deps.logger()

	opts := []adsifthttp.HandlerOption{adsifthttp.WithLogger(logger)}
	if deps.Metrics != nil {
		opts = append(opts, adsifthttp.WithMetricsHandler(deps.Metrics.Handler()))
	}

	srv := &http.Server{
		Handler:           adsifthttp.NewHandler(deps.Resolver, opts...),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		errc <- srv.Serve(ln)
	}()

	logger.Info("serving", "addr", ln.Addr().String())
	fmt.Fprintf(deps.Stdout, "Resolver listening on http://%s\n", ln.Addr())

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-deps.Ctx.Done():
	}

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutting down: %w", err)
	}
	logger.Info("stopped")
	return nil
}
