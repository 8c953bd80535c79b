// Package spec holds the typed prompt and provider spec models and their
// parsers. Parsing is a pure function of input bytes; failures separate
// malformed JSON (JsonError) from well-formed documents of the wrong shape
// (InvalidInput).
package spec

import (
	"encoding/json"
	"errors"
	"unicode/utf8"

	"specwire/internal/outcome"
)

// ParsePromptSpec deserialises a prompt spec document.
func ParsePromptSpec(data []byte) (*PromptSpec, error) {
	if err := checkEncoding(data); err != nil {
		return nil, err
	}

	var prompt PromptSpec
	if err := json.Unmarshal(data, &prompt); err != nil {
		return nil, classifyDecodeError("prompt spec", err)
	}
	return &prompt, nil
}

// ParseProviderSpec deserialises a provider spec document.
func ParseProviderSpec(data []byte) (*ProviderSpec, error) {
	if err := checkEncoding(data); err != nil {
		return nil, err
	}

	var provider ProviderSpec
	if err := json.Unmarshal(data, &provider); err != nil {
		return nil, classifyDecodeError("provider spec", err)
	}
	return &provider, nil
}

// ParseDocument deserialises arbitrary JSON for callers that apply their own
// shape rules (the validator). Syntax failures classify as JsonError.
func ParseDocument(data []byte) (any, error) {
	if err := checkEncoding(data); err != nil {
		return nil, err
	}

	var doc any
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, classifyDecodeError("document", err)
	}
	return doc, nil
}

func checkEncoding(data []byte) error {
	// An empty document is not valid JSON, so it classifies with the other
	// syntax failures.
	if len(data) == 0 {
		return outcome.New(outcome.JsonError, "input must not be empty")
	}
	if !utf8.Valid(data) {
		return outcome.New(outcome.Utf8Error, "input is not valid UTF-8")
	}
	return nil
}

// classifyDecodeError keeps syntax failures distinct from shape failures:
// truncated or malformed bytes are JsonError, while a syntactically valid
// document that fails the typed schema (wrong JSON kind, bad role, empty
// messages) is InvalidInput.
func classifyDecodeError(what string, err error) error {
	var syntaxErr *json.SyntaxError
	if errors.As(err, &syntaxErr) {
		return outcome.Errorf(outcome.JsonError, "parse %s: %w", what, err)
	}
	return outcome.Errorf(outcome.InvalidInput, "parse %s: %w", what, err)
}
