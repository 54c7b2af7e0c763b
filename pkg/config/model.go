package config

import (
	"path/filepath"
	"strings"

	"github.com/arthur-debert/gilt/pkg/errors"
	"github.com/arthur-debert/gilt/pkg/paths"
	"github.com/segmentio/ksuid"
)

// DefaultVersion is the ref checked out when an overlay names none
const DefaultVersion = "master"

// WildcardSource is the source pattern used by the dst shortcut
const WildcardSource = "*"

// FileTransform copies the paths matching Src (relative to the checkout)
// to Dst (relative to the output directory). A Dst ending in a separator is
// a directory target.
type FileTransform struct {
	Src string `yaml:"src" json:"src"`
	Dst string `yaml:"dst" json:"dst"`
}

// Overlay is one repository pinned at a version, plus the files to take from it
type Overlay struct {
	Git     string          `yaml:"git" json:"git"`
	Name    string          `yaml:"name" json:"name"`
	Version string          `yaml:"version" json:"version"`
	Dst     string          `yaml:"dst,omitempty" json:"dst,omitempty"`
	Files   []FileTransform `yaml:"files,omitempty" json:"files,omitempty"`
}

// Transforms returns the effective transform list: the dst shortcut as a
// wildcard transform, followed by the explicit files in declared order.
// Later entries win when two transforms write the same target.
func (o Overlay) Transforms() []FileTransform {
	transforms := make([]FileTransform, 0, len(o.Files)+1)
	if o.Dst != "" {
		transforms = append(transforms, FileTransform{Src: WildcardSource, Dst: o.Dst})
	}
	return append(transforms, o.Files...)
}

// Config is the resolved run configuration. Every path is computed by New
// and never changes afterwards.
type Config struct {
	Overlays []Overlay

	// BaseDir holds all working state for the run. When the run is
	// isolated it is a fresh subdirectory named after RunID.
	BaseDir string

	// LockFile serializes runs sharing BaseDir
	LockFile string

	// CloneDir stages the checkouts of one run
	CloneDir string

	// RunID is the unique token namespacing BaseDir, empty when not isolated
	RunID string
}

// Isolated reports whether the run works in its own private base directory
func (c *Config) Isolated() bool {
	return c.RunID != ""
}

// New builds a Config for overlays using the given settings. A nil
// settings value means DefaultSettings.
func New(overlays []Overlay, settings *Settings) (*Config, error) {
	if settings == nil {
		settings = DefaultSettings()
	}

	cfg := &Config{
		Overlays: overlays,
		BaseDir:  paths.ExpandHome(settings.BaseDir),
	}
	if cfg.BaseDir == "" {
		cfg.BaseDir = paths.DefaultBaseDir()
	}
	if cfg.Overlays == nil {
		cfg.Overlays = []Overlay{}
	}

	if settings.Isolate {
		id, err := ksuid.NewRandom()
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrInternal, "failed to generate run id")
		}
		cfg.RunID = id.String()
		cfg.BaseDir = filepath.Join(cfg.BaseDir, cfg.RunID)
	}

	var err error
	if cfg.LockFile, err = underBaseDir(cfg.BaseDir, settings.LockFile, paths.LockFileName); err != nil {
		return nil, err
	}
	if cfg.CloneDir, err = underBaseDir(cfg.BaseDir, settings.CloneDir, paths.CloneDirName); err != nil {
		return nil, err
	}

	return cfg, nil
}

// underBaseDir resolves an optional override relative to baseDir. Overrides
// may not escape the base directory.
func underBaseDir(baseDir, override, fallback string) (string, error) {
	if override == "" {
		return filepath.Join(baseDir, fallback), nil
	}
	override = paths.ExpandHome(override)
	if !filepath.IsAbs(override) {
		override = filepath.Join(baseDir, override)
	}
	rel, err := filepath.Rel(baseDir, override)
	if err != nil || rel == "." || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", errors.Newf(errors.ErrConfigLoad,
			"%s must be inside the base directory %s", override, baseDir).
			WithDetail("path", override)
	}
	return override, nil
}
