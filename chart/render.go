// Package chart renders the run's one artifact: a PNG time series of mean
// daily infection rates for Trump and Clinton states.
package chart

import (
	"fmt"
	"image/color"
	"os"
	"path/filepath"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"redblue_covid/analysis"
)

// Options control output path, geometry in inches, and the width of the
// centered moving-average overlay. SmoothWindow below two disables the
// overlay.
type Options struct {
	Path         string
	WidthInches  float64
	HeightInches float64
	SmoothWindow int
}

var (
	trumpColor   = color.RGBA{R: 0xcc, G: 0x33, B: 0x33, A: 0xff}
	clintonColor = color.RGBA{R: 0x33, G: 0x66, B: 0xcc, A: 0xff}
)

// Render draws one line per category, overlays the smoothed trend when
// configured, and writes the PNG, creating the output directory if needed.
// daily must be date-ordered, which is how the aggregator emits it.
func Render(daily []analysis.DailySummary, opts Options) error {
	if len(daily) == 0 {
		return fmt.Errorf("chart: nothing to plot")
	}
	if opts.WidthInches <= 0 || opts.HeightInches <= 0 {
		return fmt.Errorf("chart: invalid dimensions %gx%g", opts.WidthInches, opts.HeightInches)
	}

	p := plot.New()
	p.Title.Text = "Daily COVID-19 infections by 2016 presidential vote"
	p.X.Label.Text = "Date"
	p.Y.Label.Text = "Mean % of state population newly infected"
	p.X.Tick.Marker = plot.TimeTicks{Format: "2006-01-02"}
	p.Add(plotter.NewGrid())
	p.Legend.Top = true
	p.Legend.Left = true

	categories := []struct {
		category analysis.Category
		label    string
		color    color.RGBA
	}{
		{analysis.CategoryTrump, "Trump states", trumpColor},
		{analysis.CategoryClinton, "Clinton states", clintonColor},
	}
	for _, c := range categories {
		var pts plotter.XYs
		var ys []float64
		for _, s := range daily {
			if s.Category != c.category {
				continue
			}
			pts = append(pts, plotter.XY{X: float64(s.Date.Unix()), Y: s.MeanPct})
			ys = append(ys, s.MeanPct)
		}
		if len(pts) == 0 {
			continue
		}

		line, err := plotter.NewLine(pts)
		if err != nil {
			return fmt.Errorf("chart: %w", err)
		}
		line.Color = c.color
		line.Width = vg.Points(1)
		p.Add(line)
		p.Legend.Add(c.label, line)

		if opts.SmoothWindow > 1 && len(pts) >= opts.SmoothWindow {
			smoothed := MovingAverage(ys, opts.SmoothWindow)
			trendPts := make(plotter.XYs, len(pts))
			for i := range pts {
				trendPts[i] = plotter.XY{X: pts[i].X, Y: smoothed[i]}
			}
			trend, err := plotter.NewLine(trendPts)
			if err != nil {
				return fmt.Errorf("chart: %w", err)
			}
			trend.Color = c.color
			trend.Width = vg.Points(2)
			trend.Dashes = []vg.Length{vg.Points(4), vg.Points(2)}
			p.Add(trend)
			p.Legend.Add(c.label+" trend", trend)
		}
	}

	if dir := filepath.Dir(opts.Path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("chart: create output dir: %w", err)
		}
	}
	w := vg.Length(opts.WidthInches) * vg.Inch
	h := vg.Length(opts.HeightInches) * vg.Inch
	if err := p.Save(w, h, opts.Path); err != nil {
		return fmt.Errorf("chart: save %s: %w", opts.Path, err)
	}
	return nil
}
