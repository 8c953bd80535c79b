// Package ui renders engine results for terminal output. Colors degrade to
// plain text automatically when stdout is not a TTY.
package ui

import (
	"fmt"
	"io"

	"github.com/fatih/color"

	"specwire/internal/translator"
	"specwire/internal/validator"
)

var (
	okLabel   = color.New(color.FgGreen, color.Bold).SprintFunc()
	errLabel  = color.New(color.FgRed, color.Bold).SprintFunc()
	warnLabel = color.New(color.FgYellow, color.Bold).SprintFunc()
	pathStyle = color.New(color.FgCyan).SprintFunc()
	dimStyle  = color.New(color.Faint).SprintFunc()
)

// RenderValidation prints a validation report with one line per finding.
func RenderValidation(w io.Writer, source string, isValid bool, mode string, findings []validator.Finding) {
	verdict := okLabel("VALID")
	if !isValid {
		verdict = errLabel("INVALID")
	}
	fmt.Fprintf(w, "%s  %s %s\n", verdict, source, dimStyle("("+mode+" mode)"))

	for _, f := range findings {
		label := warnLabel("warning")
		if f.Severity == validator.SeverityError {
			label = errLabel("error")
		}
		fmt.Fprintf(w, "  %s  %s  %s\n", label, pathStyle(f.Path), f.Message)
	}
}

// RenderDiagnostics prints the degradations applied during translation.
func RenderDiagnostics(w io.Writer, diags []translator.Diagnostic) {
	if len(diags) == 0 {
		return
	}
	fmt.Fprintf(w, "%s translation applied %d fallback(s):\n", warnLabel("note:"), len(diags))
	for _, d := range diags {
		fmt.Fprintf(w, "  %s %s %s\n", pathStyle(d.Feature), dimStyle("["+d.Code+"]"), d.Message)
	}
}
