// Package app implements the application layer for smelt.
package app

import (
	"context"
	"errors"
	"fmt"
	iofs "io/fs"
	"os"
	"path/filepath"
	"sort"
	"time"

	"go.trai.ch/smelt/internal/adapters/cas"
	"go.trai.ch/smelt/internal/adapters/fs"
	"go.trai.ch/smelt/internal/adapters/override"
	"go.trai.ch/smelt/internal/core/domain"
	"go.trai.ch/smelt/internal/core/ports"
	"go.trai.ch/smelt/internal/engine/parallel"
	"go.trai.ch/smelt/internal/engine/section"
	"go.trai.ch/smelt/internal/pipeline"
	"go.trai.ch/zerr"
)

// App represents the main application logic.
type App struct {
	loader    ports.ConfigLoader
	logger    ports.Logger
	tracer    ports.Tracer
	procCache *fs.ProcessCache
}

// New creates a new App instance.
func New(loader ports.ConfigLoader, log ports.Logger, tracer ports.Tracer, procCache *fs.ProcessCache) *App {
	return &App{
		loader:    loader,
		logger:    log,
		tracer:    tracer,
		procCache: procCache,
	}
}

// RunOptions configures one build run.
type RunOptions struct {
	// Override allow-lists; merged with the optional declaration file.
	Locales          []string
	Themes           []string
	Outputs          []string
	OutputExtensions []string
	// Jobs overrides the configured pool size when positive.
	Jobs int
	// NoCache bypasses cache lookups, forcing every section to execute.
	NoCache bool
}

// workItem is one bundle x pivot combination.
type workItem struct {
	bundle domain.Bundle
	pivot  domain.Pivot
}

func (it workItem) name() string {
	n := it.bundle.Output()
	if p := it.pivot.String(); p != "/" {
		n += " [" + p + "]"
	}
	return n
}

// Run executes one logical build run.
func (a *App) Run(ctx context.Context, opts RunOptions) error {
	cfg, err := a.loader.Load(".")
	if err != nil {
		return zerr.Wrap(err, "failed to load configuration")
	}

	filter, err := override.Load(
		filepath.Join(cfg.Root, override.DeclarationFileName),
		opts.Locales, opts.Themes, opts.Outputs, opts.OutputExtensions,
	)
	if err != nil {
		return err
	}
	if filter != nil && filter.SkipAll() {
		a.logger.Info("override filter requests skipping all work")
		return nil
	}

	store, err := cas.Open(cfg.CacheDir)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	hasher := fs.NewHasher(a.procCache)
	scanner := fs.NewScanner()
	root := section.NewContext(store, hasher, filter, a.logger, a.tracer)

	items := make([]workItem, 0, len(cfg.Bundles))
	for _, b := range cfg.Bundles {
		for _, p := range cfg.Pivots() {
			items = append(items, workItem{bundle: b, pivot: p})
		}
	}

	jobs := cfg.Jobs
	if opts.Jobs > 0 {
		jobs = opts.Jobs
	}

	_, err = root.Group([]string{"build"}, func(c *section.Context) (bool, error) {
		err := parallel.ForEach(ctx, c,
			workItem.name,
			items,
			func(wc *section.Context, it workItem) (bool, error) {
				return a.buildItem(wc, cfg, scanner, it, opts.NoCache)
			},
			func(it workItem) bool { return !ignored(filter, it) },
			parallel.Options{Workers: jobs},
		)
		return err == nil, err
	})

	a.report(root.Measures())
	if err != nil {
		return zerr.Wrap(err, "build failed")
	}
	return nil
}

// ignored applies the override filter before a worker slot is spent.
func ignored(filter *domain.OverrideFilter, it workItem) bool {
	if filter == nil {
		return false
	}
	if filter.IgnoreFileSet(it.bundle.FileSet()) {
		return true
	}
	probe := &domain.Artifact{Name: it.name(), Pivots: []domain.Pivot{it.pivot}}
	return filter.IgnoreArtifact(probe)
}

// buildItem bundles, minifies, and writes one output inside a cached section.
// On a cache hit the output file is rebuilt from the committed payload when it
// went missing; an output already on disk is left alone.
func (a *App) buildItem(c *section.Context, cfg *domain.Pipeline, scanner *fs.Scanner, it workItem, noCache bool) (bool, error) {
	inputs, err := resolveInputs(scanner, cfg, it.bundle)
	if err != nil {
		return false, err
	}

	art, err := a.artifactFor(it, inputs)
	if err != nil {
		return false, err
	}

	outName := outputName(it)
	outPath := filepath.Join(cfg.OutDir, outName)

	res, err := c.RunSectionResult(
		[]string{it.bundle.Kind, it.bundle.Name, it.pivot.String()},
		section.Variance{Settings: cfg.Minify, Artifact: art},
		!noCache,
		func(s *section.Context) (bool, error) {
			raw := art.Content
			if art.FileBacked() {
				if raw, err = os.ReadFile(art.Path); err != nil { //nolint:gosec // Path comes from the validated config
					return false, zerr.With(zerr.Wrap(err, "failed to read bundle input"), "path", art.Path)
				}
			}

			var minified []byte
			ok, err := s.RunSection([]string{"minify"}, section.Variance{Settings: cfg.Minify}, false,
				func(*section.Context) (bool, error) {
					minified = pipeline.Minify(raw, it.bundle.Kind, cfg.Minify)
					return true, nil
				})
			if err != nil || !ok {
				return ok, err
			}

			if err := os.MkdirAll(cfg.OutDir, 0o750); err != nil {
				return false, zerr.Wrap(err, "failed to create output directory")
			}
			if err := os.WriteFile(outPath, minified, 0o644); err != nil { //nolint:gosec // Output is world-readable by design
				return false, zerr.With(zerr.Wrap(err, "failed to write output"), "path", outPath)
			}

			s.Attach(minified)
			s.Logger().Info("built " + outName)
			return true, nil
		},
	)
	if err != nil || !res.Success {
		return res.Success, err
	}

	if res.Skipped && len(res.Payload) > 0 {
		if _, statErr := os.Stat(outPath); errors.Is(statErr, iofs.ErrNotExist) {
			if err := os.MkdirAll(cfg.OutDir, 0o750); err != nil {
				return false, zerr.Wrap(err, "failed to create output directory")
			}
			if err := os.WriteFile(outPath, res.Payload, 0o644); err != nil { //nolint:gosec // Output is world-readable by design
				return false, zerr.With(zerr.Wrap(err, "failed to restore output"), "path", outPath)
			}
			c.Logger().Info("restored " + outName + " from cache")
		}
	}
	return true, nil
}

// resolveInputs joins the bundle's explicit inputs with the files discovered
// under its input directories, in deterministic order.
func resolveInputs(scanner *fs.Scanner, cfg *domain.Pipeline, b domain.Bundle) ([]string, error) {
	inputs := make([]string, 0, len(b.Inputs))
	for _, in := range b.Inputs {
		inputs = append(inputs, filepath.Join(cfg.Root, in))
	}
	if len(b.InputDirs) == 0 {
		return inputs, nil
	}

	found, err := scanner.AvailableFiles(cfg.Root, b.InputDirs, []string{"." + b.Kind}, b.Kind)
	if err != nil {
		return nil, err
	}
	rels := make([]string, 0, len(found))
	for rel := range found {
		rels = append(rels, rel)
	}
	sort.Strings(rels)
	for _, rel := range rels {
		inputs = append(inputs, found[rel])
	}
	return inputs, nil
}

// artifactFor builds the variance artifact: file-backed for single-input
// bundles so the two-tier file-hash cache carries the cost, byte-backed
// concatenation otherwise.
func (a *App) artifactFor(it workItem, inputs []string) (*domain.Artifact, error) {
	art := &domain.Artifact{
		Name:   it.name(),
		Pivots: []domain.Pivot{it.pivot},
	}
	if len(inputs) == 1 {
		art.Path = inputs[0]
		return art, nil
	}
	raw, err := pipeline.Concatenate(inputs)
	if err != nil {
		return nil, err
	}
	art.Content = raw
	return art, nil
}

func outputName(it workItem) string {
	name := it.bundle.Name
	if it.pivot.Locale != "" {
		name += "." + it.pivot.Locale
	}
	if it.pivot.Theme != "" {
		name += "." + it.pivot.Theme
	}
	return name + "." + it.bundle.Kind
}

// report logs the merged measurement tree.
func (a *App) report(measures []*domain.Measure) {
	var walk func(ms []*domain.Measure, depth int)
	walk = func(ms []*domain.Measure, depth int) {
		for _, m := range ms {
			status := ""
			switch {
			case m.Skipped:
				status = " (cached)"
			case m.Failed:
				status = " (failed)"
			}
			indent := ""
			for range depth {
				indent += "  "
			}
			a.logger.Info(fmt.Sprintf("%s%s %s%s", indent, m.ID, m.Elapsed.Round(time.Microsecond), status))
			walk(m.Children, depth+1)
		}
	}
	walk(measures, 0)
}

// Clean purges the cache root, keeping the lock file. Deletion failures are
// warnings, not errors: partial cleanup is acceptable.
func (a *App) Clean(_ context.Context) error {
	cfg, err := a.loader.Load(".")
	if err != nil {
		return zerr.Wrap(err, "failed to load configuration")
	}

	warnings := cas.Purge(cfg.CacheDir, []string{cas.LockFileName})
	for _, w := range warnings {
		a.logger.Warn(fmt.Sprintf("%s: could not remove %s: %v", w.Op, w.Path, w.Err))
	}
	a.logger.Info("cache cleaned: " + cfg.CacheDir)
	return nil
}
