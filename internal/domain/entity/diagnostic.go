package entity

import "fmt"

type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
)

// Diagnostic is one validation finding produced for a candidate config.
type Diagnostic struct {
	Severity Severity `json:"severity" bson:"severity"`
	Message  string   `json:"message" bson:"message"`
	Location string   `json:"location,omitempty" bson:"location,omitempty"`
	Line     int      `json:"line,omitempty" bson:"line,omitempty"`
	Column   int      `json:"column,omitempty" bson:"column,omitempty"`
}

func (d Diagnostic) String() string {
	if d.Location != "" {
		return fmt.Sprintf("%s: %s (%s)", d.Severity, d.Message, d.Location)
	}
	return fmt.Sprintf("%s: %s", d.Severity, d.Message)
}

type ValidationStatus string

const (
	ValidationValid           ValidationStatus = "valid"
	ValidationInvalid         ValidationStatus = "invalid"
	ValidationToolUnavailable ValidationStatus = "tool_unavailable"
)

// ValidationOutcome is the full result of validating one candidate.
// Status is valid iff no error-severity diagnostics were produced.
type ValidationOutcome struct {
	Status      ValidationStatus `json:"status" bson:"status"`
	Diagnostics []Diagnostic     `json:"diagnostics,omitempty" bson:"diagnostics,omitempty"`
}

func (o ValidationOutcome) Errors() []Diagnostic {
	var errs []Diagnostic
	for _, d := range o.Diagnostics {
		if d.Severity == SeverityError {
			errs = append(errs, d)
		}
	}
	return errs
}

func (o ValidationOutcome) HasErrors() bool {
	return len(o.Errors()) > 0
}
