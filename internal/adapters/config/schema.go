package config

// smeltfile represents the structure of the smelt.yaml configuration file.
type smeltfile struct {
	Version  string      `yaml:"version"`
	CacheDir string      `yaml:"cacheDir"`
	OutDir   string      `yaml:"outDir"`
	Jobs     int         `yaml:"jobs"`
	Locales  []string    `yaml:"locales"`
	Themes   []string    `yaml:"themes"`
	Minify   minifyDTO   `yaml:"minify"`
	Bundles  []bundleDTO `yaml:"bundles"`
}

type minifyDTO struct {
	RemoveComments     bool `yaml:"removeComments"`
	CollapseWhitespace bool `yaml:"collapseWhitespace"`
}

type bundleDTO struct {
	Name      string   `yaml:"name"`
	Kind      string   `yaml:"kind"`
	Input     []string `yaml:"input"`
	InputDirs []string `yaml:"inputDirs"`
}
