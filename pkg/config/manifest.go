package config

import (
	"net/url"
	"os"
	"regexp"
	"strings"

	"github.com/arthur-debert/gilt/pkg/errors"
	"gopkg.in/yaml.v3"
)

// scpLikeURL matches git's scp-style locators such as git@github.com:owner/repo.git.
// Neither user nor host may start with a dash, which ssh would read as an option.
var scpLikeURL = regexp.MustCompile(`^(?:[A-Za-z0-9._][A-Za-z0-9._-]*@)?[A-Za-z0-9][A-Za-z0-9.-]*:[^/\s][^\s]*$`)

// rawFileTransform is the manifest shape of a files entry. Pointers tell a
// missing key apart from an empty value.
type rawFileTransform struct {
	Src *string `yaml:"src"`
	Dst *string `yaml:"dst"`
}

// rawOverlay is the manifest shape of an overlay entry. Unknown keys are ignored.
type rawOverlay struct {
	Git     *string            `yaml:"git"`
	Name    *string            `yaml:"name"`
	Version *string            `yaml:"version"`
	Dst     *string            `yaml:"dst"`
	Files   []rawFileTransform `yaml:"files"`
}

// Load reads and parses the manifest at path
func Load(path string, settings *Settings) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, errors.ErrConfigLoad, "failed to read gilt config %s", path).
			WithDetail("path", path)
	}

	cfg, err := Parse(data, settings)
	if err != nil {
		return nil, err
	}
	return cfg, nil
}

// Parse builds a Config from manifest bytes. Any error is a CONFIG_PARSE
// error and no partial Config is returned.
func Parse(data []byte, settings *Settings) (*Config, error) {
	if settings == nil {
		settings = DefaultSettings()
	}

	var raw []rawOverlay
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, errors.Wrap(err, errors.ErrConfigParse, "error parsing gilt config")
	}

	overlays := make([]Overlay, 0, len(raw))
	for i, entry := range raw {
		overlay, err := entry.toOverlay(settings.DefaultVersion)
		if err != nil {
			return nil, err.WithDetail("index", i)
		}
		overlays = append(overlays, overlay)
	}

	return New(overlays, settings)
}

// Marshal renders the overlays of cfg as a manifest with every default
// spelled out. Parsing the result yields the same overlays.
func Marshal(cfg *Config) ([]byte, error) {
	data, err := yaml.Marshal(cfg.Overlays)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrInternal, "failed to render gilt config")
	}
	return data, nil
}

func (r rawOverlay) toOverlay(defaultVersion string) (Overlay, *errors.GiltError) {
	if r.Git == nil || strings.TrimSpace(*r.Git) == "" {
		return Overlay{}, errors.New(errors.ErrConfigParse, "error parsing gilt config: git: missing data for required field")
	}
	git := strings.TrimSpace(*r.Git)
	if err := validateRepository(git); err != nil {
		return Overlay{}, err
	}

	overlay := Overlay{
		Git:     git,
		Version: defaultVersion,
	}
	if overlay.Version == "" {
		overlay.Version = DefaultVersion
	}
	if r.Version != nil && *r.Version != "" {
		overlay.Version = *r.Version
	}
	if strings.HasPrefix(overlay.Version, "-") {
		return Overlay{}, errors.Newf(errors.ErrConfigParse,
			"error parsing gilt config: version: %q is not a git ref", overlay.Version).WithDetail("version", overlay.Version)
	}
	if r.Dst != nil {
		overlay.Dst = *r.Dst
	}

	if r.Name != nil && *r.Name != "" {
		overlay.Name = *r.Name
	} else {
		overlay.Name = NameFromRepository(git)
	}
	if overlay.Name == "" {
		return Overlay{}, errors.Newf(errors.ErrConfigParse,
			"error parsing gilt config: cannot derive a name from %q", git).WithDetail("git", git)
	}
	// the name becomes a directory under the clone dir
	if overlay.Name == "." || overlay.Name == ".." || strings.ContainsAny(overlay.Name, `/\`) {
		return Overlay{}, errors.Newf(errors.ErrConfigParse,
			"error parsing gilt config: name: %q must be a single path element", overlay.Name).
			WithDetail("name", overlay.Name).WithDetail("git", git)
	}

	for i, f := range r.Files {
		if f.Src == nil || *f.Src == "" {
			return Overlay{}, errors.Newf(errors.ErrConfigParse,
				"error parsing gilt config: files[%d].src: missing data for required field", i).WithDetail("git", git)
		}
		if f.Dst == nil || *f.Dst == "" {
			return Overlay{}, errors.Newf(errors.ErrConfigParse,
				"error parsing gilt config: files[%d].dst: missing data for required field", i).WithDetail("git", git)
		}
		overlay.Files = append(overlay.Files, FileTransform{Src: *f.Src, Dst: *f.Dst})
	}

	return overlay, nil
}

// NameFromRepository derives an overlay name from the last path segment of
// the repository locator, without a trailing .git
func NameFromRepository(repository string) string {
	trimmed := strings.TrimRight(repository, "/")
	if i := strings.LastIndexAny(trimmed, "/:"); i >= 0 {
		trimmed = trimmed[i+1:]
	}
	return strings.TrimSuffix(trimmed, ".git")
}

// validateRepository accepts scheme URLs with a host (file URLs need a
// path instead) and scp-like locators
func validateRepository(repository string) *errors.GiltError {
	invalid := func() *errors.GiltError {
		return errors.Newf(errors.ErrConfigParse,
			"error parsing gilt config: git: not a valid URL: %q", repository).WithDetail("git", repository)
	}

	if strings.ContainsAny(repository, " \t\n") || strings.HasPrefix(repository, "-") {
		return invalid()
	}

	if strings.Contains(repository, "://") {
		u, err := url.Parse(repository)
		if err != nil || u.Scheme == "" {
			return invalid()
		}
		if u.Scheme == "file" {
			if u.Path == "" {
				return invalid()
			}
			return nil
		}
		if u.Host == "" || strings.HasPrefix(u.Host, "-") || strings.HasPrefix(u.User.Username(), "-") {
			return invalid()
		}
		return nil
	}

	if !scpLikeURL.MatchString(repository) {
		return invalid()
	}
	return nil
}
