// Package diag implements Graphia's diagnostic model: the Alert/Diagnostics
// vocabulary used throughout the transform and visualisation pipelines to
// report parse errors, semantic errors, computation warnings, and override
// alerts without ever raising a Go error across the rebuild boundary (see
// spec §7, "no exception is raised across the rebuild boundary; all
// failures are data").
package diag

import (
	"fmt"

	"github.com/hashicorp/hcl/v2"
)

// Severity classifies a Diagnostic. The zero value is None, meaning "no
// problem" — most element infos in steady state carry no diagnostics at
// all, but code that builds up a set of alerts incrementally sometimes
// needs an explicit "nothing so far" value.
type Severity int

const (
	None Severity = iota
	Warning
	Error
)

func (s Severity) String() string {
	switch s {
	case Error:
		return "Error"
	case Warning:
		return "Warning"
	default:
		return "None"
	}
}

// Diagnostic is a single alert: a severity, a short summary, and an
// optional longer detail. Range is set when the diagnostic originates from
// parsing transform/visualisation source text; it is the zero value for
// diagnostics raised during semantic validation or rebuild.
type Diagnostic struct {
	Severity Severity
	Summary  string
	Detail   string
	Subject  *hcl.Range
}

func (d *Diagnostic) Error() string {
	if d.Detail != "" {
		return fmt.Sprintf("%s: %s: %s", d.Severity, d.Summary, d.Detail)
	}
	return fmt.Sprintf("%s: %s", d.Severity, d.Summary)
}

// Diagnostics is an ordered collection of Diagnostic, following the
// append-and-query shape of the teacher's own diagnostics type: construct
// the zero value, Append to it, and inspect with HasErrors/HasWarnings.
type Diagnostics []*Diagnostic

// Append adds one or more diagnostics, flattening any nested Diagnostics,
// *Diagnostic, or plain error values it is given.
func (d Diagnostics) Append(items ...any) Diagnostics {
	for _, item := range items {
		switch v := item.(type) {
		case nil:
			continue
		case Diagnostics:
			d = append(d, v...)
		case *Diagnostic:
			if v != nil {
				d = append(d, v)
			}
		case error:
			d = append(d, &Diagnostic{Severity: Error, Summary: v.Error()})
		default:
			panic(fmt.Sprintf("diag.Diagnostics.Append: unsupported type %T", item))
		}
	}
	return d
}

// Sourceless constructs a single diagnostic with no source range attached,
// for failures that occur outside of any parsed text (e.g. a transform
// rejecting its own semantic configuration).
func Sourceless(severity Severity, summary, detail string) *Diagnostic {
	return &Diagnostic{Severity: severity, Summary: summary, Detail: detail}
}

// AtRange constructs a diagnostic anchored to a parse position.
func AtRange(severity Severity, summary, detail string, rng hcl.Range) *Diagnostic {
	return &Diagnostic{Severity: severity, Summary: summary, Detail: detail, Subject: &rng}
}

func (d Diagnostics) HasErrors() bool {
	for _, item := range d {
		if item.Severity == Error {
			return true
		}
	}
	return false
}

func (d Diagnostics) HasWarnings() bool {
	for _, item := range d {
		if item.Severity == Warning {
			return true
		}
	}
	return false
}

// Err reduces the collection to a single error, or nil if there are no
// Error-severity diagnostics. Warnings do not produce an error.
func (d Diagnostics) Err() error {
	if !d.HasErrors() {
		return nil
	}
	return multiDiagError(d)
}

type multiDiagError Diagnostics

func (m multiDiagError) Error() string {
	switch len(m) {
	case 0:
		return "no errors"
	case 1:
		return m[0].Error()
	default:
		msg := fmt.Sprintf("%d problems:", len(m))
		for _, d := range m {
			msg += "\n- " + d.Error()
		}
		return msg
	}
}
