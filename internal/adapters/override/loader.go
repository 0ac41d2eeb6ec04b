// Package override loads the temporary override declaration file and builds
// the run-scoped override filter.
package override

import (
	"errors"
	"io/fs"
	"os"
	"strings"

	"go.trai.ch/smelt/internal/core/domain"
	"go.trai.ch/zerr"
	"gopkg.in/yaml.v3"
)

// DeclarationFileName is the conventional override file next to smelt.yaml.
const DeclarationFileName = "smelt.overrides.yaml"

// declaration mirrors the override file: a root Overrides element with a
// skip-all flag and four semicolon-delimited lists.
type declaration struct {
	Overrides struct {
		SkipAll          bool   `yaml:"skipAll"`
		Locales          string `yaml:"locales"`
		Themes           string `yaml:"themes"`
		Outputs          string `yaml:"outputs"`
		OutputExtensions string `yaml:"outputExtensions"`
	} `yaml:"Overrides"`
}

// Load merges the lists from the optional declaration file at path with the
// explicitly supplied override lists and builds the filter. A missing file
// is not an error. Returns nil when nothing is restricted.
func Load(path string, locales, themes, outputs, extensions []string) (*domain.OverrideFilter, error) {
	var decl declaration
	if path != "" {
		data, err := os.ReadFile(path) //nolint:gosec // Path is provided by caller
		switch {
		case errors.Is(err, fs.ErrNotExist):
			// No declaration file; explicit lists alone decide.
		case err != nil:
			return nil, zerr.With(zerr.Wrap(err, "failed to read override file"), "path", path)
		default:
			if err := yaml.Unmarshal(data, &decl); err != nil {
				return nil, zerr.With(zerr.Wrap(err, "failed to parse override file"), "path", path)
			}
		}
	}

	return domain.NewOverrideFilter(
		merge(locales, decl.Overrides.Locales),
		merge(themes, decl.Overrides.Themes),
		merge(outputs, decl.Overrides.Outputs),
		merge(extensions, decl.Overrides.OutputExtensions),
		decl.Overrides.SkipAll,
	), nil
}

func merge(explicit []string, declared string) []string {
	out := make([]string, 0, len(explicit))
	out = append(out, explicit...)
	for _, s := range strings.Split(declared, ";") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
