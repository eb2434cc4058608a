package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/kacper-wojtaszczyk/archive-go/internal/archive"
	"github.com/kacper-wojtaszczyk/archive-go/internal/clock"
	"github.com/kacper-wojtaszczyk/archive-go/internal/config"
	"github.com/kacper-wojtaszczyk/archive-go/internal/exitcode"
	"github.com/kacper-wojtaszczyk/archive-go/internal/logging"
	"github.com/kacper-wojtaszczyk/archive-go/internal/snapshot"
	"github.com/kacper-wojtaszczyk/archive-go/internal/storage"
)

// set with -ldflags "-X main.version=..."
var version = "dev"

// errUsage marks bad arguments or flags rejected before a command ran.
var errUsage = errors.New("usage")

func main() {
	// Console logger until the configuration picks the final one
	logger, _, _ := logging.New(os.Stdout, logging.Options{})
	slog.SetDefault(logger)

	// Ensure environment variables are loaded
	if err := godotenv.Load(); err != nil {
		slog.Warn("failed to load env vars", "error", err)
	}

	// Create a cancellable context (for graceful shutdown)
	ctx, cancel := signal.NotifyContext(context.Background(),
		syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	a := &app{
		newStorage: storage.New,
		clock:      clock.System,
		console:    os.Stdout,
	}
	code := execute(ctx, a, os.Args[1:])
	cancel()
	os.Exit(code)
}

// execute runs the command line in args and returns the process exit code.
func execute(ctx context.Context, a *app, args []string) int {
	cmd := newRootCmd(a)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(ctx)
	if err != nil && !a.started {
		err = fmt.Errorf("%w: %w", errUsage, err)
	}
	if a.closeLog != nil {
		if cerr := a.closeLog(); cerr != nil {
			fmt.Fprintf(os.Stderr, "close log file: %v\n", cerr)
		}
	}

	code := exitCode(err)
	if code != exitcode.Success {
		slog.ErrorContext(ctx, "application error", "error", err, "exit_code", code)
	}
	return code
}

func exitCode(err error) int {
	switch {
	case err == nil:
		return exitcode.Success
	case errors.Is(err, context.Canceled):
		return exitcode.Interrupted
	case errors.Is(err, errUsage), errors.Is(err, archive.ErrInvalidPattern), config.IsConfigError(err):
		return exitcode.ConfigError
	case errors.Is(err, archive.ErrSourceNotFound), errors.Is(err, snapshot.ErrNotFound):
		return exitcode.NotFound
	case errors.Is(err, archive.ErrPartialFailure):
		return exitcode.PartialFailure
	default:
		return exitcode.StorageError
	}
}
