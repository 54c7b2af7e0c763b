package terminal

import (
	_ "embed"
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"gopkg.in/yaml.v3"
)

// ColorDef is an adaptive color in styles.yaml
type ColorDef struct {
	Light string `yaml:"light"`
	Dark  string `yaml:"dark"`
}

// StyleDef is a style in styles.yaml
type StyleDef struct {
	Bold       bool   `yaml:"bold,omitempty"`
	Italic     bool   `yaml:"italic,omitempty"`
	Foreground string `yaml:"foreground,omitempty"`
	MarginTop  int    `yaml:"marginTop,omitempty"`
}

// StylesConfig is the styles.yaml document
type StylesConfig struct {
	Colors map[string]ColorDef `yaml:"colors"`
	Styles map[string]StyleDef `yaml:"styles"`
}

//go:embed styles.yaml
var embeddedStyles []byte

// styleNames are the styles the renderer uses
var styleNames = []string{"Header", "Overlay", "Revision", "FilePath", "Success", "Error", "Muted"}

// LoadStyles builds the style registry from styles.yaml data. Styles
// missing from data render unstyled.
func LoadStyles(data []byte) (map[string]lipgloss.Style, error) {
	var config StylesConfig
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse styles: %w", err)
	}

	colors := make(map[string]lipgloss.AdaptiveColor, len(config.Colors))
	for name, def := range config.Colors {
		colors[name] = lipgloss.AdaptiveColor{Light: def.Light, Dark: def.Dark}
	}

	registry := make(map[string]lipgloss.Style, len(styleNames))
	for _, name := range styleNames {
		registry[name] = lipgloss.NewStyle()
	}
	for name, def := range config.Styles {
		style := lipgloss.NewStyle()
		if def.Bold {
			style = style.Bold(true)
		}
		if def.Italic {
			style = style.Italic(true)
		}
		if color, ok := colors[def.Foreground]; ok {
			style = style.Foreground(color)
		}
		if def.MarginTop > 0 {
			style = style.MarginTop(def.MarginTop)
		}
		registry[name] = style
	}
	return registry, nil
}

func defaultStyles() map[string]lipgloss.Style {
	registry, err := LoadStyles(embeddedStyles)
	if err != nil {
		registry = make(map[string]lipgloss.Style, len(styleNames))
		for _, name := range styleNames {
			registry[name] = lipgloss.NewStyle()
		}
	}
	return registry
}
