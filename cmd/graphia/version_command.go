package main

import "github.com/mitchellh/cli"

// graphiaVersion is the CLI's self-reported version string. There is no
// release process wired up yet (spec §1's Non-goals exclude packaging
// concerns), so this is a fixed development placeholder rather than a
// value threaded through from a build flag.
const graphiaVersion = "0.1.0-dev"

type versionCommand struct {
	Ui cli.Ui
}

func (c *versionCommand) Help() string     { return "Prints the graphia CLI version." }
func (c *versionCommand) Synopsis() string { return "Show the current graphia version" }

func (c *versionCommand) Run(args []string) int {
	c.Ui.Output("graphia " + graphiaVersion)
	return 0
}
