// Package engine is the text-in/text-out facade over parsing, validation,
// capability resolution, translation and execution. Both the HTTP server and
// the CLI call through here, so every entry point takes and returns JSON
// documents and classified errors.
package engine

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"specwire/internal/capability"
	"specwire/internal/httpexec"
	"specwire/internal/outcome"
	"specwire/internal/spec"
	"specwire/internal/translator"
	"specwire/internal/validator"
)

// Engine binds the pipeline stages together. Construct once and share; all
// methods are safe for concurrent use.
type Engine struct {
	exec   *httpexec.Client
	logger *slog.Logger
}

// New constructs an engine with its own execution client.
func New(logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{
		exec:   httpexec.NewClient(),
		logger: logger,
	}
}

// TranslateInput names the documents and knobs of one translation call.
type TranslateInput struct {
	PromptSpec   json.RawMessage `json:"prompt_spec"`
	ProviderSpec json.RawMessage `json:"provider_spec"`
	ModelID      string          `json:"model_id"`
	Mode         string          `json:"mode"`
}

// Translate parses both documents, resolves the model and maps the prompt
// onto its request shape. The result serialises as
// {"request": ..., "diagnostics": [...]}.
func (e *Engine) Translate(in TranslateInput) ([]byte, error) {
	started := time.Now()

	mode := translator.ModeStandard
	if in.Mode != "" {
		var err error
		mode, err = translator.ParseMode(in.Mode)
		if err != nil {
			return nil, err
		}
	}

	prompt, err := spec.ParsePromptSpec(in.PromptSpec)
	if err != nil {
		return nil, err
	}
	provider, err := spec.ParseProviderSpec(in.ProviderSpec)
	if err != nil {
		return nil, err
	}

	caps, err := capability.Resolve(provider, in.ModelID)
	if err != nil {
		return nil, err
	}

	result, err := translator.Translate(prompt, caps, mode)
	if err != nil {
		return nil, err
	}

	e.logger.Debug("translation complete",
		"model", caps.ModelID,
		"mode", mode.String(),
		"diagnostics", len(result.Diagnostics),
		"duration", time.Since(started),
	)

	return marshal(result)
}

// Run executes a translated request document and returns the execution
// outcome as JSON. The request body passes through byte for byte.
func (e *Engine) Run(ctx context.Context, requestJSON []byte, timeoutSeconds int) ([]byte, error) {
	var req httpexec.Request
	if err := unmarshalStrictShape(requestJSON, &req); err != nil {
		return nil, err
	}

	out, err := e.exec.Execute(ctx, &req, timeoutSeconds)
	if err != nil {
		e.logger.Warn("execution failed",
			"endpoint", req.Endpoint.URL,
			"code", outcome.CodeOf(err),
			"error", err,
		)
		return nil, err
	}

	e.logger.Debug("execution complete",
		"endpoint", out.Endpoint,
		"duration_ms", out.DurationMS,
	)

	return marshal(out)
}

// ValidationResult is the serialised form of a validation report.
type ValidationResult struct {
	IsValid  bool                `json:"is_valid"`
	Mode     string              `json:"mode"`
	Findings []validator.Finding `json:"findings"`
}

// Validate checks a spec document against the rule set for its type and
// mode. Findings come back in the result; only operational failures (broken
// JSON, unknown type or mode) surface as errors.
func (e *Engine) Validate(specJSON []byte, specType, mode string) ([]byte, error) {
	kind, err := validator.ParseKind(specType)
	if err != nil {
		return nil, err
	}

	vmode := validator.ModeBasic
	if mode != "" {
		vmode, err = validator.ParseMode(mode)
		if err != nil {
			return nil, err
		}
	}

	report, err := validator.Validate(specJSON, kind, vmode)
	if err != nil {
		return nil, err
	}

	findings := report.Findings
	if findings == nil {
		findings = []validator.Finding{}
	}
	return marshal(ValidationResult{
		IsValid:  report.Valid(),
		Mode:     report.Mode,
		Findings: findings,
	})
}

// unmarshalStrictShape decodes a request document, splitting syntax failures
// from shape failures the same way the spec parsers do.
func unmarshalStrictShape(data []byte, v any) error {
	if len(data) == 0 {
		return outcome.New(outcome.JsonError, "request document is empty")
	}
	if err := json.Unmarshal(data, v); err != nil {
		var syntaxErr *json.SyntaxError
		if errors.As(err, &syntaxErr) {
			return outcome.Wrap(outcome.JsonError, "malformed request document", err)
		}
		return outcome.Wrap(outcome.InvalidInput, "request document has unexpected shape", err)
	}
	return nil
}

func marshal(v any) ([]byte, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, outcome.Wrap(outcome.InternalError, "encode result", err)
	}
	return data, nil
}
