// Package main is the entry point for envcache.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/grindlemire/graft"
	"go.trai.ch/envcache/cmd/envcache/commands"
	"go.trai.ch/envcache/internal/app"
	"go.trai.ch/envcache/internal/core/domain"
	_ "go.trai.ch/envcache/internal/wiring"
	"go.trai.ch/zerr"
)

// ComponentProvider is a function that returns the application components.
type ComponentProvider func(context.Context) (*app.Components, func(), error)

func main() {
	os.Exit(run(context.Background(), os.Args[1:], os.Stderr, func(ctx context.Context) (*app.Components, func(), error) {
		c, _, err := graft.ExecuteFor[*app.Components](ctx)
		if err != nil {
			return nil, func() {}, err
		}
		return c, func() { _ = c.Tracer.Shutdown(context.Background()) }, nil
	}))
}

func run(
	ctx context.Context,
	args []string,
	stderr io.Writer,
	provider ComponentProvider,
	opts ...func(*app.App),
) int {
	// 0. Context with signal handling
	ctx, cancel := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	// 1. Initialize application components
	components, cleanup, err := provider(ctx)
	if err != nil {
		// Logger is not available yet if initialization failed
		_, _ = fmt.Fprintln(stderr, "Error: "+err.Error())
		return 1
	}
	defer cleanup()

	for _, opt := range opts {
		opt(components.App)
	}

	// 2. Interface - CLI
	cli := commands.New(components.App)
	cli.SetArgs(args)
	cli.SetOutput(os.Stdout, stderr)

	// 3. Execution
	if err := cli.Execute(ctx); err != nil {
		var exitErr *commands.ExitError
		switch {
		case errors.As(err, &exitErr):
			return exitErr.Code
		case errors.Is(err, domain.ErrFailureReported):
			return 1
		}
		components.Logger.Error(categorize(err))
		return 1
	}
	return 0
}

// categorize puts the one-line categorized message in front of the cause chain.
func categorize(err error) error {
	if domain.Category(err) == "error" {
		return err
	}
	return zerr.Wrap(err, domain.Describe(err))
}
