package main

import (
	"bufio"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/graphia/graphia/internal/diag"
	"github.com/graphia/graphia/internal/document"
)

// runCommand drives a Document through exactly the lifecycle spec §6
// describes for an embedding host: load a graph, apply a transform list,
// evaluate a visualisation list, then optionally undo/redo, printing a
// summary after each step. It is the CLI analogue of opentofu's
// "apply"/"plan" commands: a thin cli.Command wrapper around the library
// API in internal/document, with no business logic of its own.
type runCommand struct {
	Ui *colorizeUi
}

func (c *runCommand) Synopsis() string {
	return "Apply a transform list and visualisation list to a graph"
}

func (c *runCommand) Help() string {
	return strings.TrimSpace(`
Usage: graphia run -graph=<file> [-transforms=<file>] [-visualisations=<file>] [-undo] [-redo]

  Loads a graph from a plain "source,target[,weight]" edge list, applies
  an ordered transform config list (spec §4.3), evaluates a visualisation
  config list against the resulting derived graph (spec §4.7), and prints
  a summary of the derived graph, its attributes, and any diagnostics
  raised along the way.

Options:

  -graph            Path to the edge-list file (required).
  -transforms       Path to a file of transform config lines, one per line.
  -visualisations   Path to a file of visualisation config lines, one per line.
  -undo             After applying, undo the transform list and re-summarise.
  -redo             After -undo, redo it and re-summarise.
`)
}

func (c *runCommand) Run(args []string) int {
	fs := flag.NewFlagSet("run", flag.ContinueOnError)
	graphPath := fs.String("graph", "", "edge-list file")
	transformsPath := fs.String("transforms", "", "transform config file")
	visualisationsPath := fs.String("visualisations", "", "visualisation config file")
	undo := fs.Bool("undo", false, "undo the applied transform list")
	redo := fs.Bool("redo", false, "redo after undo")
	if err := fs.Parse(args); err != nil {
		return 1
	}
	if *graphPath == "" {
		c.Ui.Error("graphia run: -graph is required")
		return 1
	}

	doc := document.New(nil)
	if err := loadEdgeList(doc, *graphPath); err != nil {
		c.Ui.Error(fmt.Sprintf("graphia run: %s", err))
		return 1
	}

	if *transformsPath != "" {
		lines, err := readLines(*transformsPath)
		if err != nil {
			c.Ui.Error(fmt.Sprintf("graphia run: %s", err))
			return 1
		}
		diags, err := doc.ApplyTransforms(lines)
		if err != nil {
			c.Ui.Error(fmt.Sprintf("graphia run: failed to parse transforms: %s", err))
			return 1
		}
		c.reportDiagnostics("transform", diags)
	}

	if *visualisationsPath != "" {
		lines, err := readLines(*visualisationsPath)
		if err != nil {
			c.Ui.Error(fmt.Sprintf("graphia run: %s", err))
			return 1
		}
		if err := doc.SetVisualisations(lines); err != nil {
			c.Ui.Error(fmt.Sprintf("graphia run: failed to parse visualisations: %s", err))
			return 1
		}
	}

	c.summarise(doc, "after apply")

	if *undo {
		doc.Undo()
		c.summarise(doc, "after undo")
		if *redo {
			doc.Redo()
			c.summarise(doc, "after redo")
		}
	}

	return 0
}

func (c *runCommand) reportDiagnostics(kind string, diags diag.Diagnostics) {
	for _, d := range diags {
		c.Ui.Diagnostic(kind, d)
	}
}

func (c *runCommand) summarise(doc *document.Document, label string) {
	g := doc.Transform.Target()
	c.Ui.Info(fmt.Sprintf("-- %s --", label))
	c.Ui.Output(fmt.Sprintf("nodes: %d, edges: %d", g.NumNodes(), g.NumEdges()))

	names := doc.Transform.Attributes().Names()
	c.Ui.Output(fmt.Sprintf("attributes: %s", strings.Join(names, ", ")))

	if out := doc.LastVisualOutput(); out != nil {
		c.Ui.Output(fmt.Sprintf("node visuals: %d, edge visuals: %d, text visuals: %d",
			len(out.NodeVisuals), len(out.EdgeVisuals), len(out.TextVisuals)))
	}
}

func readLines(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	var lines []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		lines = append(lines, line)
	}
	return lines, sc.Err()
}
