// Package text provides plain text output without any styling
package text

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/arthur-debert/gilt/pkg/overlay"
)

// Renderer provides plain text output without colors or styling
type Renderer struct {
	output io.Writer
}

// New creates a new text renderer
func New(output io.Writer) (*Renderer, error) {
	return &Renderer{output: output}, nil
}

// RenderResult renders any result type as plain text
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
		if o.Checkout != nil {
			fmt.Fprintf(&b, "%s (%s @ %s)\n", o.Overlay.Name, o.Overlay.Version, o.Checkout.ShortRevision())
		} else {
			fmt.Fprintf(&b, "%s (%s)\n", o.Overlay.Name, o.Overlay.Version)
		}

		verb := "copied"
		if result.DryRun {
			verb = "would copy"
		}
		for _, op := range o.Operations {
			src := op.Source
			if o.Checkout != nil {
				src = relative(o.Checkout.Dir, op.Source)
			}
			fmt.Fprintf(&b, "  - %s %s to %s\n", verb, src, relative(result.OutputDir, op.Target))
		}
	}

	if result.Error != "" {
		fmt.Fprintf(&b, "Error: %s\n", result.Error)
	}

	_, err := io.WriteString(r.output, b.String())
	return err
}

// RenderError renders an error as plain text
func (r *Renderer) RenderError(err error) error {
	_, err2 := fmt.Fprintf(r.output, "Error: %v\n", err)
	return err2
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
