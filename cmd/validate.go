package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"sync"

	"golang.org/x/sync/errgroup"

	"specwire/internal/engine"
	"specwire/internal/ui"
)

const validateUsage = `Usage:
  specwire validate --type prompt_spec|provider_spec [--mode basic|partial|strict] <file>...

Flags:
  --type string  Spec type to validate against (required)
  --mode string  Validation mode (default basic)

Exit status is non-zero when any file is invalid.`

// validateConcurrency caps parallel file validation.
const validateConcurrency = 8

type fileReport struct {
	source string
	result engine.ValidationResult
}

func validate(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("validate", flag.ContinueOnError)
	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, validateUsage)
	}

	var specType, mode string
	fs.StringVar(&specType, "type", "", "spec type")
	fs.StringVar(&mode, "mode", "basic", "validation mode")

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil
		}
		return fmt.Errorf("parse validate flags: %w", err)
	}

	if specType == "" {
		return errors.New("validate requires --type")
	}
	files := fs.Args()
	if len(files) == 0 {
		return errors.New("validate requires at least one file")
	}

	eng := engine.New(setupLogger(slog.LevelWarn))

	var mu sync.Mutex
	reports := make(map[string]fileReport, len(files))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(validateConcurrency)
	for _, file := range files {
		file := file
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}

			data, err := os.ReadFile(file)
			if err != nil {
				return fmt.Errorf("read %q: %w", file, err)
			}

			out, err := eng.Validate(data, specType, mode)
			if err != nil {
				return fmt.Errorf("validate %q: %w", file, err)
			}

			var result engine.ValidationResult
			if err := json.Unmarshal(out, &result); err != nil {
				return fmt.Errorf("decode report for %q: %w", file, err)
			}

			mu.Lock()
			reports[file] = fileReport{source: file, result: result}
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	// Render in argument order regardless of completion order.
	invalid := 0
	for _, file := range files {
		report := reports[file]
		ui.RenderValidation(os.Stdout, report.source, report.result.IsValid, report.result.Mode, report.result.Findings)
		if !report.result.IsValid {
			invalid++
		}
	}

	if invalid > 0 {
		return fmt.Errorf("%d of %d file(s) failed %s validation", invalid, len(files), mode)
	}
	return nil
}
