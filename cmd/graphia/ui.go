package main

import (
	"fmt"
	"os"

	"github.com/mitchellh/cli"
	"github.com/mitchellh/colorstring"

	"github.com/graphia/graphia/internal/diag"
)

// colorizeUi tints a wrapped cli.Ui's output by graphia's own
// diag.Severity vocabulary (spec §7) instead of a host-agnostic,
// independently-configured colour scheme -- there is no "output colour"
// distinct from a diagnostic's severity in this CLI, so there is nothing
// to parameterise beyond Error/Warning/None.
type colorizeUi struct {
	colorize *colorstring.Colorize
	ui       cli.Ui
}

func (u *colorizeUi) Ask(query string) (string, error)       { return u.ui.Ask(query) }
func (u *colorizeUi) AskSecret(query string) (string, error) { return u.ui.AskSecret(query) }
func (u *colorizeUi) Output(message string)                  { u.ui.Output(message) }
func (u *colorizeUi) Info(message string)                    { u.ui.Info(u.paint(message, diag.None)) }
func (u *colorizeUi) Warn(message string)                    { u.ui.Warn(u.paint(message, diag.Warning)) }
func (u *colorizeUi) Error(message string)                   { u.ui.Error(u.paint(message, diag.Error)) }

// Diagnostic prints one transform/visualisation diagnostic through the
// sink its own severity picks, coloured by that same severity -- the
// single place severity-to-sink routing happens, so callers never
// duplicate the Error/Warning switch themselves.
func (u *colorizeUi) Diagnostic(kind string, d *diag.Diagnostic) {
	msg := fmt.Sprintf("%s: %s: %s", kind, d.Severity, d.Summary)
	switch d.Severity {
	case diag.Error:
		u.Error(msg)
	case diag.Warning:
		u.Warn(msg)
	default:
		u.Info(msg)
	}
}

func (u *colorizeUi) paint(message string, sev diag.Severity) string {
	var color string
	switch sev {
	case diag.Error:
		color = "[red]"
	case diag.Warning:
		color = "[yellow]"
	default:
		color = "[green]"
	}
	return u.colorize.Color(fmt.Sprintf("%s%s[reset]", color, message))
}

// newUi builds the CLI's default coloured Ui, wired over stdin/stdout/
// stderr the same way opentofu's NewBasicUI does.
func newUi() *colorizeUi {
	basic := &cli.BasicUi{
		Writer:      os.Stdout,
		ErrorWriter: os.Stderr,
		Reader:      os.Stdin,
	}
	return &colorizeUi{
		colorize: &colorstring.Colorize{Colors: colorstring.DefaultColors, Reset: true},
		ui:       basic,
	}
}
