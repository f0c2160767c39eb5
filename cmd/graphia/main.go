// Command graphia is the library's CLI host integration (spec §6): a thin
// mitchellh/cli dispatcher over internal/document.Document, in the same
// shape as opentofu's cmd/tofu main.go -- a small main() that builds a
// *cli.CLI from a Commands map and exits with its return code.
package main

import (
	"os"

	"github.com/mitchellh/cli"
)

func main() {
	os.Exit(realMain())
}

func realMain() int {
	ui := newUi()

	c := &cli.CLI{
		Name:       "graphia",
		Args:       os.Args[1:],
		Commands:   commands(ui),
		HelpWriter: os.Stdout,
	}

	exitCode, err := c.Run()
	if err != nil {
		ui.Error(err.Error())
		return 1
	}
	return exitCode
}
