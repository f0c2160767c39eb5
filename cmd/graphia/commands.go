package main

import (
	"github.com/mitchellh/cli"
)

// commands is the mapping of all the available graphia subcommands,
// grounded on opentofu's cmd/tofu/commands.go map-of-factories shape
// (minus the version-of-opentofu-scale plugin/backend wiring this CLI
// has no equivalent of).
func commands(ui *colorizeUi) map[string]cli.CommandFactory {
	return map[string]cli.CommandFactory{
		"run": func() (cli.Command, error) {
			return &runCommand{Ui: ui}, nil
		},
		"version": func() (cli.Command, error) {
			return &versionCommand{Ui: ui}, nil
		},
	}
}
