package config

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"strings"

	gilterrors "github.com/arthur-debert/gilt/pkg/errors"
	"github.com/arthur-debert/gilt/pkg/paths"
	"github.com/go-viper/mapstructure/v2"
	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	gotoml "github.com/pelletier/go-toml/v2"
	yamlv3 "gopkg.in/yaml.v3"
)

// EnvPrefix prefixes every environment variable gilt reads settings from
const EnvPrefix = "GILT_"

//go:embed embedded/defaults.yml
var defaultSettings []byte

type rawBytesProvider struct{ bytes []byte }

func (r *rawBytesProvider) ReadBytes() ([]byte, error) { return r.bytes, nil }
func (r *rawBytesProvider) Read() (map[string]interface{}, error) {
	return nil, errors.New("not implemented")
}

// Settings are the tool-level knobs that are not part of a manifest
type Settings struct {
	BaseDir        string `koanf:"base_dir" yaml:"base_dir" toml:"base_dir"`
	DefaultVersion string `koanf:"default_version" yaml:"default_version" toml:"default_version"`
	Isolate        bool   `koanf:"isolate" yaml:"isolate" toml:"isolate"`
	LockFile       string `koanf:"lock_file" yaml:"lock_file,omitempty" toml:"lock_file,omitempty"`
	CloneDir       string `koanf:"clone_dir" yaml:"clone_dir,omitempty" toml:"clone_dir,omitempty"`

	// Source is the settings file that was merged, if any
	Source string `koanf:"-" yaml:"-" toml:"-"`
}

// SettingsOptions control where LoadSettings looks
type SettingsOptions struct {
	// File is an explicit settings file. Empty means the first existing
	// file in paths.ConfigDir.
	File string

	// SkipFile disables the settings file lookup entirely
	SkipFile bool

	// SkipEnv disables GILT_* environment variables
	SkipEnv bool

	// Overrides are applied last, keyed by koanf tag (e.g. "base_dir")
	Overrides map[string]interface{}
}

// DefaultSettings returns the embedded defaults only
func DefaultSettings() *Settings {
	s, err := LoadSettings(SettingsOptions{SkipFile: true, SkipEnv: true})
	if err != nil {
		// The embedded defaults are part of the binary
		panic(fmt.Sprintf("invalid embedded settings: %v", err))
	}
	return s
}

// LoadSettings merges, lowest precedence first: embedded defaults, the
// settings file, GILT_* environment variables and Overrides.
func LoadSettings(opts SettingsOptions) (*Settings, error) {
	k := koanf.New(".")

	// 1. Embedded defaults
	if err := k.Load(&rawBytesProvider{bytes: defaultSettings}, yaml.Parser()); err != nil {
		return nil, gilterrors.Wrap(err, gilterrors.ErrConfigLoad, "failed to load default settings")
	}

	// 2. Settings file
	source := ""
	if !opts.SkipFile {
		source = opts.File
		if source == "" {
			source = paths.SettingsFile()
		}
	}
	if source != "" {
		source = paths.ExpandHome(source)
		if err := k.Load(file.Provider(source), parserFor(source)); err != nil {
			return nil, gilterrors.Wrapf(err, gilterrors.ErrConfigLoad, "failed to load settings from %s", source).
				WithDetail("path", source)
		}
	}

	// 3. Environment
	if !opts.SkipEnv {
		err := k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
			return strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
		}), nil)
		if err != nil {
			return nil, gilterrors.Wrap(err, gilterrors.ErrConfigLoad, "failed to load settings from environment")
		}
	}

	// 4. Command line
	if len(opts.Overrides) > 0 {
		if err := k.Load(confmap.Provider(opts.Overrides, "."), nil); err != nil {
			return nil, gilterrors.Wrap(err, gilterrors.ErrConfigLoad, "failed to apply settings overrides")
		}
	}

	var s Settings
	unmarshalConf := koanf.UnmarshalConf{
		Tag: "koanf",
		DecoderConfig: &mapstructure.DecoderConfig{
			Result:           &s,
			WeaklyTypedInput: true,
		},
	}
	if err := k.UnmarshalWithConf("", &s, unmarshalConf); err != nil {
		return nil, gilterrors.Wrap(err, gilterrors.ErrConfigLoad, "failed to decode settings")
	}

	if s.DefaultVersion == "" {
		s.DefaultVersion = DefaultVersion
	}
	if s.BaseDir == "" {
		s.BaseDir = paths.DefaultBaseDir()
	}
	s.BaseDir = paths.ExpandHome(s.BaseDir)
	s.Source = source

	return &s, nil
}

// Encode renders the settings as "yaml" or "toml"
func (s *Settings) Encode(format string) ([]byte, error) {
	switch strings.ToLower(format) {
	case "", "yaml", "yml":
		data, err := yamlv3.Marshal(s)
		if err != nil {
			return nil, gilterrors.Wrap(err, gilterrors.ErrInternal, "failed to encode settings")
		}
		return data, nil
	case "toml":
		var buf bytes.Buffer
		if err := gotoml.NewEncoder(&buf).Encode(s); err != nil {
			return nil, gilterrors.Wrap(err, gilterrors.ErrInternal, "failed to encode settings")
		}
		return buf.Bytes(), nil
	default:
		return nil, gilterrors.Newf(gilterrors.ErrInvalidInput, "unknown settings format %q", format).
			WithDetail("format", format)
	}
}

func parserFor(path string) koanf.Parser {
	if strings.HasSuffix(strings.ToLower(path), ".toml") {
		return toml.Parser()
	}
	return yaml.Parser()
}
