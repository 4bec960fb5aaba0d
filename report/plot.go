// Package report plots sampler results.
package report

import (
	"fmt"
	"image/color"
	"os"
	"path/filepath"

	"github.com/milosgajdos/go-abc/pmc"
	"github.com/milosgajdos/go-abc/population"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
)

// DefaultBins is the default number of histogram bins
const DefaultBins = 20

// NewHistogram creates weighted histogram of the parameter in column col of population p.
// It returns error if col is out of range or the histogram fails to be created.
func NewHistogram(p *population.Population, col int, name string, bins int) (*plot.Plot, error) {
	if p == nil {
		return nil, fmt.Errorf("invalid population")
	}

	if col < 0 || col >= p.Dim() {
		return nil, fmt.Errorf("invalid parameter column: %d", col)
	}

	if bins <= 0 {
		bins = DefaultBins
	}

	x, w := p.Matrix(), p.Weights()
	pts := make(plotter.XYs, p.Len())
	for i := range pts {
		pts[i].X = x.At(i, col)
		pts[i].Y = w[i]
	}

	h, err := plotter.NewHistogram(pts, bins)
	if err != nil {
		return nil, fmt.Errorf("failed to create histogram: %w", err)
	}
	h.Normalize(1)
	h.FillColor = color.RGBA{R: 169, G: 169, B: 169, A: 255}

	plt := plot.New()
	plt.Title.Text = fmt.Sprintf("Posterior: %s (iteration %d)", name, p.Iteration())
	plt.X.Label.Text = name
	plt.Y.Label.Text = "density"
	plt.Add(h)

	return plt, nil
}

// NewScatter creates scatter plot of parameters in columns i and j of populations.
// Every population gets its own glyph color so the contraction of the posterior is visible.
func NewScatter(pops []*population.Population, i, j int, names []string) (*plot.Plot, error) {
	if len(pops) == 0 {
		return nil, fmt.Errorf("no populations")
	}

	dim := pops[0].Dim()
	if i < 0 || j < 0 || i >= dim || j >= dim || len(names) != dim {
		return nil, fmt.Errorf("invalid parameter columns: %d, %d", i, j)
	}

	plt := plot.New()
	plt.Title.Text = "Populations"
	plt.X.Label.Text = names[i]
	plt.Y.Label.Text = names[j]

	legend := plot.NewLegend()
	legend.Top = true
	plt.Legend = legend

	for k, p := range pops {
		s, err := plotter.NewScatter(makePoints(p, i, j))
		if err != nil {
			return nil, fmt.Errorf("failed to create scatter: %w", err)
		}
		// later populations are drawn darker
		shade := uint8(200 - 200*k/len(pops))
		s.GlyphStyle.Color = color.RGBA{R: shade, G: shade, B: 255, A: 255}
		s.Shape = draw.CircleGlyph{}
		s.GlyphStyle.Radius = vg.Points(2)

		plt.Add(s)
		if k == 0 || k == len(pops)-1 {
			plt.Legend.Add(fmt.Sprintf("iteration %d", p.Iteration()), s)
		}
	}

	return plt, nil
}

// NewThresholds creates line plot of distance thresholds derived in every iteration of res.
func NewThresholds(res *pmc.Result) (*plot.Plot, error) {
	if res == nil || len(res.Thresholds) == 0 {
		return nil, fmt.Errorf("no thresholds")
	}

	pts := make(plotter.XYs, len(res.Thresholds))
	for i, t := range res.Thresholds {
		pts[i].X = float64(i)
		pts[i].Y = t
	}

	l, err := plotter.NewLine(pts)
	if err != nil {
		return nil, fmt.Errorf("failed to create line: %w", err)
	}
	l.LineStyle.Color = color.RGBA{R: 255, B: 128, A: 255}

	plt := plot.New()
	plt.Title.Text = "Distance threshold"
	plt.X.Label.Text = "iteration"
	plt.Y.Label.Text = "threshold"
	plt.Add(l, plotter.NewGrid())

	return plt, nil
}

// Save writes posterior histograms of the last population, the scatter of the first two
// parameters and the threshold plot of res into dir as PNG files.
// It returns the paths of the written files.
func Save(res *pmc.Result, dir string) ([]string, error) {
	last := res.Last()
	if last == nil {
		return nil, fmt.Errorf("empty result")
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create plot directory: %w", err)
	}

	names := res.Names
	if len(names) != last.Dim() {
		names = make([]string, last.Dim())
		for i := range names {
			names[i] = fmt.Sprintf("p%d", i)
		}
	}

	plots := make(map[string]*plot.Plot)
	for i, name := range names {
		h, err := NewHistogram(last, i, name, DefaultBins)
		if err != nil {
			return nil, err
		}
		plots["posterior_"+name+".png"] = h
	}

	if last.Dim() > 1 {
		s, err := NewScatter(res.Populations, 0, 1, names)
		if err != nil {
			return nil, err
		}
		plots["populations.png"] = s
	}

	t, err := NewThresholds(res)
	if err != nil {
		return nil, err
	}
	plots["thresholds.png"] = t

	paths := make([]string, 0, len(plots))
	for file, plt := range plots {
		path := filepath.Join(dir, file)
		if err := plt.Save(5*vg.Inch, 4*vg.Inch, path); err != nil {
			return nil, fmt.Errorf("failed to save plot %s: %w", file, err)
		}
		paths = append(paths, path)
	}

	return paths, nil
}

func makePoints(p *population.Population, i, j int) plotter.XYs {
	x := p.Matrix()
	pts := make(plotter.XYs, p.Len())
	for r := range pts {
		pts[r].X = x.At(r, i)
		pts[r].Y = x.At(r, j)
	}

	return pts
}
