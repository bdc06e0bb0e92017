package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/tpgainz/nzbn-directors/runner"
	"github.com/tpgainz/nzbn-directors/runner/batchrunner"
	"github.com/tpgainz/nzbn-directors/runner/lookuprunner"
	"github.com/tpgainz/nzbn-directors/runner/webrunner"
)

func main() {
	if _, err := os.Stat("/.dockerenv"); os.IsNotExist(err) {
		if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
			log.Printf("Warning: Error loading .env file: %v (continuing without it)", err)
		}
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	err := runner.NewRootCommand(runnerFactory).ExecuteContext(ctx)

	cancel()

	if err != nil {
		os.Stderr.WriteString("Error: " + err.Error() + "\n")

		os.Exit(1)
	}
}

func runnerFactory(cfg *runner.Config) (runner.Runner, error) {
	switch cfg.RunMode {
	case runner.RunModeBatch:
		return batchrunner.New(cfg)
	case runner.RunModeExport:
		return batchrunner.NewExport(cfg)
	case runner.RunModeWeb:
		return webrunner.New(cfg)
	case runner.RunModeLookup:
		return lookuprunner.New(cfg)
	default:
		return nil, fmt.Errorf("%w: %d", runner.ErrInvalidRunMode, cfg.RunMode)
	}
}
