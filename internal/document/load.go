package document

import (
	"fmt"

	"github.com/hashicorp/go-multierror"

	"github.com/graphia/graphia/internal/transformconfig"
)

// parseTransformConfigLines parses each non-empty line of src
// independently, grouping every line's parse failure into a single
// *multierror.Error instead of stopping at the first bad line — a saved
// transform list (spec §6, SavedState.Transforms) is a batch of
// independent config strings, and a host reporting load failures wants to
// see all of them, not just the first.
func parseTransformConfigLines(src []string) ([]*transformconfig.TransformConfig, error) {
	var result *multierror.Error
	configs := make([]*transformconfig.TransformConfig, 0, len(src))
	for i, line := range src {
		if line == "" {
			continue
		}
		cfg, diags := transformconfig.ParseTransformConfig(line)
		if diags.HasErrors() {
			result = multierror.Append(result, fmt.Errorf("transform line %d (%q): %w", i+1, line, diags.Err()))
			continue
		}
		configs = append(configs, cfg)
	}
	return configs, result.ErrorOrNil()
}

// parseVisualisationConfigLines is parseTransformConfigLines's counterpart
// for SavedState.Visualisations.
func parseVisualisationConfigLines(src []string) ([]*transformconfig.VisualisationConfig, error) {
	var result *multierror.Error
	configs := make([]*transformconfig.VisualisationConfig, 0, len(src))
	for i, line := range src {
		if line == "" {
			continue
		}
		cfg, diags := transformconfig.ParseVisualisationConfig(line)
		if diags.HasErrors() {
			result = multierror.Append(result, fmt.Errorf("visualisation line %d (%q): %w", i+1, line, diags.Err()))
			continue
		}
		configs = append(configs, cfg)
	}
	return configs, result.ErrorOrNil()
}
