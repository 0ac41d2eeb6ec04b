// Package config provides the pipeline configuration loader for smelt.
package config

import (
	"os"
	"path/filepath"
	"runtime"

	"go.trai.ch/smelt/internal/core/domain"
	"go.trai.ch/smelt/internal/core/ports"
	"go.trai.ch/zerr"
	"gopkg.in/yaml.v3"
)

// DefaultFileName is the conventional pipeline configuration file.
const DefaultFileName = "smelt.yaml"

var _ ports.ConfigLoader = (*FileConfigLoader)(nil)

// FileConfigLoader implements ports.ConfigLoader using a YAML file.
type FileConfigLoader struct {
	Filename string
}

// NewLoader creates a loader for the default configuration file name.
func NewLoader() *FileConfigLoader {
	return &FileConfigLoader{Filename: DefaultFileName}
}

// Load reads the configuration from the given working directory.
func (l *FileConfigLoader) Load(cwd string) (*domain.Pipeline, error) {
	path := filepath.Join(cwd, l.Filename)

	data, err := os.ReadFile(path) //nolint:gosec // Path is provided by user
	if err != nil {
		return nil, zerr.With(zerr.Wrap(err, "failed to read config file"), "path", path)
	}

	var file smeltfile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, zerr.With(zerr.Wrap(err, "failed to parse config file"), "path", path)
	}

	return file.toPipeline(cwd)
}

func (f *smeltfile) toPipeline(cwd string) (*domain.Pipeline, error) {
	if len(f.Bundles) == 0 {
		return nil, domain.ErrNoOutputsConfigured
	}

	p := &domain.Pipeline{
		Root:     cwd,
		CacheDir: f.CacheDir,
		OutDir:   f.OutDir,
		Jobs:     f.Jobs,
		Locales:  f.Locales,
		Themes:   f.Themes,
		Minify: domain.MinifySettings{
			RemoveComments:     f.Minify.RemoveComments,
			CollapseWhitespace: f.Minify.CollapseWhitespace,
		},
	}
	if p.CacheDir == "" {
		p.CacheDir = filepath.Join(cwd, ".smelt-cache")
	}
	if p.OutDir == "" {
		p.OutDir = filepath.Join(cwd, "dist")
	}
	if p.Jobs <= 0 {
		p.Jobs = runtime.NumCPU()
	}

	for _, dto := range f.Bundles {
		if dto.Name == "" {
			return nil, zerr.New("bundle is missing a name")
		}
		kind := dto.Kind
		if kind == "" {
			kind = "css"
		}
		if kind != "css" && kind != "js" {
			return nil, zerr.With(zerr.New("unsupported bundle kind"), "bundle", dto.Name)
		}
		if len(dto.Input) == 0 && len(dto.InputDirs) == 0 {
			return nil, zerr.With(zerr.New("bundle has no inputs"), "bundle", dto.Name)
		}
		p.Bundles = append(p.Bundles, domain.Bundle{
			Name:      dto.Name,
			Kind:      kind,
			Inputs:    dto.Input,
			InputDirs: dto.InputDirs,
		})
	}

	return p, nil
}
