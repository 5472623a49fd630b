// Package plot renders outcome counts as bar-chart images using gonum/plot.
package plot

import (
	"context"
	"fmt"
	"image/color"
	"path/filepath"
	"strconv"

	"github.com/aretw0/qflip/pkg/domain"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
)

// Renderer implements ports.Renderer.
type Renderer struct {
	width    vg.Length
	height   vg.Length
	barWidth vg.Length
	color    color.Color
}

// Option configures a Renderer.
type Option func(*Renderer)

// WithSize sets the image size.
func WithSize(width, height vg.Length) Option {
	return func(r *Renderer) {
		r.width, r.height = width, height
	}
}

// WithColor sets the bar fill color.
func WithColor(c color.Color) Option {
	return func(r *Renderer) {
		r.color = c
	}
}

// NewRenderer creates a renderer producing 6x4 inch charts.
func NewRenderer(opts ...Option) *Renderer {
	r := &Renderer{
		width:    6 * vg.Inch,
		height:   4 * vg.Inch,
		barWidth: vg.Points(40),
		color:    color.RGBA{R: 0x64, G: 0x8f, B: 0xff, A: 0xff},
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Render draws one bar per label, annotated with its count, and saves the chart to path.
// The image format follows the file extension; ".png" is appended when there is none.
func (r *Renderer) Render(ctx context.Context, counts domain.Counts, title, path string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if filepath.Ext(path) == "" {
		path += ".png"
	}

	labels := counts.Labels()
	values := make(plotter.Values, len(labels))
	points := make(plotter.XYs, len(labels))
	texts := make([]string, len(labels))
	peak := 0.0
	for i, l := range labels {
		values[i] = float64(counts[l])
		points[i] = plotter.XY{X: float64(i), Y: values[i]}
		texts[i] = strconv.Itoa(counts[l])
		peak = max(peak, values[i])
	}

	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "Outcome"
	p.Y.Label.Text = "Count"
	p.Y.Min = 0
	p.Y.Max = max(1, peak*1.1)

	if len(labels) > 0 {
		bars, err := plotter.NewBarChart(values, r.barWidth)
		if err != nil {
			return "", fmt.Errorf("failed to build bar chart: %w", err)
		}
		bars.LineStyle.Width = vg.Length(0)
		bars.Color = r.color
		p.Add(bars)

		annotations, err := plotter.NewLabels(plotter.XYLabels{XYs: points, Labels: texts})
		if err != nil {
			return "", fmt.Errorf("failed to build bar labels: %w", err)
		}
		for i := range annotations.TextStyle {
			annotations.TextStyle[i].XAlign = -0.5
		}
		p.Add(annotations)
		p.NominalX(labels...)
	}

	if err := p.Save(r.width, r.height, path); err != nil {
		return "", fmt.Errorf("failed to save chart %s: %w", path, err)
	}
	return path, nil
}
