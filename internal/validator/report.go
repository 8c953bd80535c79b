package validator

// Severity grades a validation finding.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
)

// Finding is one validation observation tied to a document path.
type Finding struct {
	Severity Severity `json:"severity"`
	Path     string   `json:"path"`
	Message  string   `json:"message"`
}

// Report is the ordered sequence of findings produced by one validation run.
// An invalid spec is a result, not a failure: the report always comes back.
type Report struct {
	Mode     string    `json:"mode"`
	Findings []Finding `json:"findings"`
}

// Valid reports whether the spec is accepted for its declared mode, i.e. the
// report carries no error-severity findings.
func (r Report) Valid() bool {
	for _, f := range r.Findings {
		if f.Severity == SeverityError {
			return false
		}
	}
	return true
}

func (r *Report) addError(path, message string) {
	r.Findings = append(r.Findings, Finding{Severity: SeverityError, Path: path, Message: message})
}

func (r *Report) addWarning(path, message string) {
	r.Findings = append(r.Findings, Finding{Severity: SeverityWarning, Path: path, Message: message})
}
