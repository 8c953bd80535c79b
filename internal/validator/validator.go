// Package validator checks parsed spec documents against mode-escalated rule
// sets. Basic covers structural well-formedness, Partial adds internal
// cross-references, Strict adds version compatibility and required-field
// coverage. The validator itself only errors on malformed invocation or
// undecodable input; an invalid spec is described, never thrown.
package validator

import (
	"fmt"

	"specwire/internal/outcome"
	"specwire/internal/semver"
	"specwire/internal/spec"
)

// Kind selects the rule set for the spec's declared type.
type Kind int

const (
	KindPromptSpec Kind = iota
	KindProviderSpec
)

// ParseKind maps the wire identifier to a Kind.
func ParseKind(s string) (Kind, error) {
	switch s {
	case "prompt_spec":
		return KindPromptSpec, nil
	case "provider_spec":
		return KindProviderSpec, nil
	default:
		return 0, outcome.Errorf(outcome.InvalidInput, "unknown spec type %q", s)
	}
}

func (k Kind) String() string {
	if k == KindProviderSpec {
		return "provider_spec"
	}
	return "prompt_spec"
}

// Mode is the validation strictness level.
type Mode int

const (
	ModeBasic Mode = iota
	ModePartial
	ModeStrict
)

// ParseMode maps the wire identifier to a Mode.
func ParseMode(s string) (Mode, error) {
	switch s {
	case "basic":
		return ModeBasic, nil
	case "partial":
		return ModePartial, nil
	case "strict":
		return ModeStrict, nil
	default:
		return 0, outcome.Errorf(outcome.InvalidInput, "unknown validation mode %q", s)
	}
}

func (m Mode) String() string {
	switch m {
	case ModePartial:
		return "partial"
	case ModeStrict:
		return "strict"
	default:
		return "basic"
	}
}

// Supported spec_version range, compared [min, max).
var (
	MinSupportedVersion = semver.Version{Major: 1}
	MaxSupportedVersion = semver.Version{Major: 2}
)

// Validate checks raw spec bytes against the rules for the declared kind and
// mode. The returned error is reserved for operational failures (undecodable
// input); content problems land in the report.
func Validate(raw []byte, kind Kind, mode Mode) (Report, error) {
	doc, err := spec.ParseDocument(raw)
	if err != nil {
		return Report{}, err
	}

	report := Report{Mode: mode.String(), Findings: []Finding{}}

	obj, ok := doc.(map[string]any)
	if !ok {
		report.addError("$", fmt.Sprintf("%s must be a JSON object", kind))
		return report, nil
	}

	switch kind {
	case KindPromptSpec:
		validatePrompt(obj, mode, &report)
	case KindProviderSpec:
		validateProvider(obj, mode, &report)
	}

	return report, nil
}

// checkVersion applies the strict-mode version compatibility rule. An
// unsupported or malformed version is an error finding citing the value,
// never a parse failure.
func checkVersion(report *Report, path, value string) {
	version, err := semver.Parse(value)
	if err != nil {
		report.addError(path, fmt.Sprintf("spec_version %q is not a valid MAJOR.MINOR.PATCH version", value))
		return
	}
	if !version.InRange(MinSupportedVersion, MaxSupportedVersion) {
		report.addError(path, fmt.Sprintf("spec_version %q is outside the supported range [%s, %s)",
			value, MinSupportedVersion, MaxSupportedVersion))
	}
}
