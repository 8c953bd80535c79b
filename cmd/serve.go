package cmd

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"specwire/internal/config"
	"specwire/internal/engine"
	"specwire/internal/server"
)

const serveUsage = `Usage:
  specwire serve [--config <path>] [--port <port>]

Flags:
  --config string   Path to YAML configuration file (defaults apply if omitted)
  --port   int      Override server port from configuration`

func serve(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("serve", flag.ContinueOnError)
	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, serveUsage)
	}

	var cfgPath string
	var overridePort int
	fs.StringVar(&cfgPath, "config", "", "path to configuration file")
	fs.IntVar(&overridePort, "port", 0, "override server port")

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil
		}
		return fmt.Errorf("parse serve flags: %w", err)
	}

	// Provider API keys commonly live in a local .env during development.
	// A missing file is not an error.
	_ = godotenv.Load()

	cfg := config.Default()
	if cfgPath != "" {
		var err error
		cfg, err = config.Load(cfgPath)
		if err != nil {
			return err
		}
	}

	if overridePort != 0 {
		if overridePort <= 0 || overridePort > 65535 {
			return fmt.Errorf("port override %d must be a valid TCP port", overridePort)
		}
		cfg.Server.Port = overridePort
	}

	logger := setupLogger(cfg.SlogLevel())

	srv, err := server.New(cfg, engine.New(logger))
	if err != nil {
		return err
	}

	return srv.Run(ctx)
}
