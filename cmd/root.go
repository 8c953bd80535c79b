package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"
)

const usage = `specwire translates provider-agnostic prompts into provider requests.

Usage:
  specwire <command> [flags]

Commands:
  serve       Start the HTTP server
  translate   Translate a prompt spec against a provider spec
  validate    Validate prompt or provider spec files
  run         Execute a translated request document

Flags:
  -h, --help  Show this help message`

// Execute runs the CLI dispatcher with the provided arguments.
func Execute(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return printUsage()
	}

	switch args[0] {
	case "serve":
		return serve(ctx, args[1:])
	case "translate":
		return translate(ctx, args[1:])
	case "validate":
		return validate(ctx, args[1:])
	case "run":
		return run(ctx, args[1:])
	case "help", "-h", "--help":
		return printUsage()
	default:
		return fmt.Errorf("unknown command %q\n\n%s", args[0], usage)
	}
}

func printUsage() error {
	fmt.Println(strings.TrimSpace(usage))
	return nil
}

func setupLogger(level slog.Level) *slog.Logger {
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
	return logger
}
