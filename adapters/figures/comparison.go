package figures

import (
	"sort"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
)

// Interval is one variable's estimate with its interval, for the
// cross-variable comparison charts.
type Interval struct {
	Name     string
	Estimate float64
	Lower    float64
	Upper    float64
}

// intervalData adapts sorted intervals to the plotter error-bar interfaces.
type intervalData struct {
	items []Interval
}

func (d intervalData) Len() int { return len(d.items) }

func (d intervalData) XY(i int) (float64, float64) {
	return float64(i), d.items[i].Estimate
}

func (d intervalData) YError(i int) (float64, float64) {
	it := d.items[i]
	return it.Estimate - it.Lower, it.Upper - it.Estimate
}

// IntervalFigure renders an ordered interval chart: one point with error bars
// per variable, sorted ascending by estimate.
func IntervalFigure(title, yLabel string, items []Interval) (*plot.Plot, error) {
	sorted := append([]Interval(nil), items...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Estimate < sorted[j].Estimate })

	p := plot.New()
	p.Title.Text = title
	p.Y.Label.Text = yLabel
	p.X.Tick.Label.Rotation = -0.9
	p.X.Tick.Label.XAlign = -0.6

	data := intervalData{items: sorted}

	bars, err := plotter.NewYErrorBars(data)
	if err != nil {
		return nil, err
	}
	bars.LineStyle.Color = boundColor
	p.Add(bars)

	xys := make(plotter.XYs, len(sorted))
	names := make([]string, len(sorted))
	for i, it := range sorted {
		xys[i] = plotter.XY{X: float64(i), Y: it.Estimate}
		names[i] = it.Name
	}
	points, err := plotter.NewScatter(xys)
	if err != nil {
		return nil, err
	}
	points.GlyphStyle.Color = predColor
	points.GlyphStyle.Radius = vg.Points(2.5)
	p.Add(points)
	p.NominalX(names...)

	return p, nil
}
