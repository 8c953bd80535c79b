package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"specwire/internal/engine"
	"specwire/internal/translator"
	"specwire/internal/ui"
)

const translateUsage = `Usage:
  specwire translate --prompt <path> --provider <path> --model <id> [--mode standard|strict] [--out <path>]

Flags:
  --prompt   string  Path to the prompt spec JSON file (required)
  --provider string  Path to the provider spec JSON file (required)
  --model    string  Model id or alias to target (required)
  --mode     string  Fidelity mode: standard or strict (default standard)
  --out      string  Write the request document here instead of stdout`

func translate(_ context.Context, args []string) error {
	fs := flag.NewFlagSet("translate", flag.ContinueOnError)
	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, translateUsage)
	}

	var promptPath, providerPath, modelID, mode, outPath string
	fs.StringVar(&promptPath, "prompt", "", "prompt spec file")
	fs.StringVar(&providerPath, "provider", "", "provider spec file")
	fs.StringVar(&modelID, "model", "", "target model id")
	fs.StringVar(&mode, "mode", "standard", "fidelity mode")
	fs.StringVar(&outPath, "out", "", "output file")

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil
		}
		return fmt.Errorf("parse translate flags: %w", err)
	}

	if promptPath == "" || providerPath == "" || modelID == "" {
		return errors.New("translate requires --prompt, --provider and --model")
	}

	promptJSON, err := os.ReadFile(promptPath)
	if err != nil {
		return fmt.Errorf("read prompt spec %q: %w", promptPath, err)
	}
	providerJSON, err := os.ReadFile(providerPath)
	if err != nil {
		return fmt.Errorf("read provider spec %q: %w", providerPath, err)
	}

	logger := setupLogger(slog.LevelWarn)

	out, err := engine.New(logger).Translate(engine.TranslateInput{
		PromptSpec:   promptJSON,
		ProviderSpec: providerJSON,
		ModelID:      modelID,
		Mode:         mode,
	})
	if err != nil {
		return err
	}

	// Surface applied fallbacks on stderr so stdout stays pipeable.
	var result struct {
		Diagnostics []translator.Diagnostic `json:"diagnostics"`
	}
	if err := json.Unmarshal(out, &result); err == nil {
		ui.RenderDiagnostics(os.Stderr, result.Diagnostics)
	}

	return writeOutput(outPath, out)
}

func writeOutput(path string, data []byte) error {
	if path == "" {
		fmt.Println(string(data))
		return nil
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("write output %q: %w", path, err)
	}
	return nil
}
