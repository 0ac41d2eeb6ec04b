package domain

// MinifySettings controls the minification pass. The struct is serialized
// deterministically into cache keys; changing any field invalidates entries.
type MinifySettings struct {
	RemoveComments     bool `json:"remove_comments"`
	CollapseWhitespace bool `json:"collapse_whitespace"`
}

// Bundle is one configured output: a named concatenation of input files.
// Inputs are listed explicitly and/or discovered under InputDirs by the
// bundle's kind extension.
type Bundle struct {
	Name      string
	Kind      string
	Inputs    []string
	InputDirs []string
}

// Output returns the output file name of the bundle.
func (b Bundle) Output() string {
	return b.Name + "." + b.Kind
}

// FileSet returns the file-set descriptor for the bundle, as consumed by
// the override filter.
func (b Bundle) FileSet() FileSet {
	return FileSet{Output: b.Output(), Kind: b.Kind, Inputs: b.Inputs}
}

// Pipeline is the validated run configuration.
type Pipeline struct {
	Root     string
	CacheDir string
	OutDir   string
	Jobs     int
	Locales  []string
	Themes   []string
	Minify   MinifySettings
	Bundles  []Bundle
}

// Pivots returns the locale x theme matrix of the pipeline. A pipeline with
// neither locales nor themes yields a single empty pivot.
func (p *Pipeline) Pivots() []Pivot {
	locales := p.Locales
	if len(locales) == 0 {
		locales = []string{""}
	}
	themes := p.Themes
	if len(themes) == 0 {
		themes = []string{""}
	}
	pivots := make([]Pivot, 0, len(locales)*len(themes))
	for _, l := range locales {
		for _, t := range themes {
			pivots = append(pivots, Pivot{Locale: l, Theme: t})
		}
	}
	return pivots
}
