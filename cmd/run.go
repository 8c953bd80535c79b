package cmd

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/joho/godotenv"

	"specwire/internal/engine"
)

const runUsage = `Usage:
  specwire run --request <path> [--timeout <seconds>] [--out <path>]

Flags:
  --request string  Path to the translated request document (required)
  --timeout int     Request timeout in seconds (default 30)
  --out     string  Write the outcome here instead of stdout`

func run(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("run", flag.ContinueOnError)
	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, runUsage)
	}

	var requestPath, outPath string
	var timeoutSeconds int
	fs.StringVar(&requestPath, "request", "", "request document file")
	fs.IntVar(&timeoutSeconds, "timeout", 0, "timeout in seconds")
	fs.StringVar(&outPath, "out", "", "output file")

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil
		}
		return fmt.Errorf("parse run flags: %w", err)
	}

	if requestPath == "" {
		return errors.New("run requires --request")
	}

	// Headers of the form env:VAR resolve at send time, so credentials in a
	// local .env need loading before execution.
	_ = godotenv.Load()

	requestJSON, err := os.ReadFile(requestPath)
	if err != nil {
		return fmt.Errorf("read request document %q: %w", requestPath, err)
	}

	out, err := engine.New(setupLogger(slog.LevelWarn)).Run(ctx, requestJSON, timeoutSeconds)
	if err != nil {
		return err
	}

	return writeOutput(outPath, out)
}
