// Package terminal provides rich terminal output with colors and styling
package terminal

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/arthur-debert/gilt/pkg/overlay"
	"github.com/charmbracelet/lipgloss"
	"github.com/pterm/pterm"
)

// Renderer renders overlay results with lipgloss styles and pterm tables
type Renderer struct {
	output io.Writer
	styles map[string]lipgloss.Style
}

// New creates a new terminal renderer
func New(w io.Writer) (*Renderer, error) {
	return &Renderer{
		output: w,
		styles: defaultStyles(),
	}, nil
}

func (r *Renderer) style(name, s string) string {
	return r.styles[name].Render(s)
}

// RenderResult renders any result type with rich terminal formatting
func (r *Renderer) RenderResult(result interface{}) error {
	switch v := result.(type) {
	case *overlay.Result:
		return r.renderOverlay(v)
	default:
		_, err := fmt.Fprintf(r.output, "%+v\n", result)
		return err
	}
}

func (r *Renderer) renderOverlay(result *overlay.Result) error {
	var b strings.Builder

	for _, o := range result.Overlays {
		header := r.style("Overlay", o.Overlay.Name)
		if o.Checkout != nil {
			header += " " + r.style("Revision", fmt.Sprintf("%s @ %s", o.Overlay.Version, o.Checkout.ShortRevision()))
		}
		b.WriteString(header + "\n")

		if len(o.Operations) == 0 {
			b.WriteString(r.style("Muted", "  nothing to copy") + "\n")
			continue
		}

		data := pterm.TableData{{"Source", "Target", "Mode"}}
		for _, op := range o.Operations {
			src := op.Source
			if o.Checkout != nil {
				src = relative(o.Checkout.Dir, op.Source)
			}
			data = append(data, []string{
				src,
				relative(result.OutputDir, op.Target),
				string(op.Type),
			})
		}
		table, err := pterm.DefaultTable.WithHasHeader().WithData(data).Srender()
		if err != nil {
			return err
		}
		b.WriteString(table + "\n")
	}

	switch {
	case result.Error != "":
		b.WriteString(r.style("Error", "✗ "+result.Error) + "\n")
	case result.DryRun:
		b.WriteString(r.style("Success", fmt.Sprintf("✓ %d operations planned (dry run)", len(result.Operations()))) + "\n")
	default:
		b.WriteString(r.style("Success", fmt.Sprintf("✓ %d overlays applied to %s", len(result.Overlays), result.OutputDir)) + "\n")
	}
	if !result.CleanedUp && result.BaseDir != "" {
		b.WriteString(r.style("Muted", "checkouts kept in "+result.BaseDir) + "\n")
	}

	_, err := io.WriteString(r.output, b.String())
	return err
}

// RenderError renders an error with appropriate formatting
func (r *Renderer) RenderError(err error) error {
	_, werr := fmt.Fprintln(r.output, r.style("Error", "Error: ")+err.Error())
	return werr
}

// RenderMessage renders a simple message
func (r *Renderer) RenderMessage(msg string) error {
	_, err := fmt.Fprintln(r.output, msg)
	return err
}

func relative(base, path string) string {
	if rel, err := filepath.Rel(base, path); err == nil && !strings.HasPrefix(rel, "..") {
		return rel
	}
	return path
}
