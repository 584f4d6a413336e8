package figures

import (
	"image/color"

	"dialectloss/domain/model"
	"dialectloss/domain/variants"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
)

var (
	predColor    = color.RGBA{R: 0x1f, G: 0x4e, B: 0x79, A: 0xff}
	boundColor   = color.RGBA{R: 0x1f, G: 0x4e, B: 0x79, A: 0x90}
	pointColor   = color.RGBA{R: 0x55, G: 0x55, B: 0x55, A: 0xff}
	ruleColor    = color.RGBA{R: 0xaa, G: 0xaa, B: 0xaa, A: 0xff}
	turningColor = color.RGBA{R: 0xb0, G: 0x30, B: 0x30, A: 0xff}
)

// FitFigure renders one variable's fit: the per-(speaker, year) proportions,
// the probability-scale prediction curve with its confidence band, the 0.5
// reference rule, and the turning-point marker when one exists. Axes span
// [yearMin, yearMax] even though the band itself extends further back.
func FitFigure(id string, rows []variants.RawObservationRow, cb *model.ConfidenceBand, tp model.TurningPoint, yearMin, yearMax int) (*plot.Plot, error) {
	p := plot.New()
	p.Title.Text = id
	p.X.Label.Text = "year of birth"
	p.Y.Label.Text = "p(conservative)"
	p.X.Min, p.X.Max = float64(yearMin), float64(yearMax)
	p.Y.Min, p.Y.Max = 0, 1

	scatter, err := proportionScatter(rows)
	if err != nil {
		return nil, err
	}
	p.Add(scatter)

	if err := addBandLines(p, cb, yearMin, yearMax); err != nil {
		return nil, err
	}

	rule, err := plotter.NewLine(plotter.XYs{
		{X: float64(yearMin), Y: 0.5},
		{X: float64(yearMax), Y: 0.5},
	})
	if err != nil {
		return nil, err
	}
	rule.LineStyle.Color = ruleColor
	rule.LineStyle.Dashes = []vg.Length{vg.Points(2), vg.Points(2)}
	p.Add(rule)

	if tp.Estimate.Ok {
		marker, err := plotter.NewLine(plotter.XYs{
			{X: tp.Estimate.Year, Y: 0},
			{X: tp.Estimate.Year, Y: 1},
		})
		if err != nil {
			return nil, err
		}
		marker.LineStyle.Color = turningColor
		marker.LineStyle.Dashes = []vg.Length{vg.Points(4), vg.Points(3)}
		p.Add(marker)
	}

	return p, nil
}

// AnnotatedFigure is the speaker-labelled variant of the fit plot, rendered
// for the one designated variable.
func AnnotatedFigure(id string, rows []variants.RawObservationRow, cb *model.ConfidenceBand, yearMin, yearMax int) (*plot.Plot, error) {
	p := plot.New()
	p.Title.Text = id + " by speaker"
	p.X.Label.Text = "year of birth"
	p.Y.Label.Text = "p(conservative)"
	p.X.Min, p.X.Max = float64(yearMin), float64(yearMax)
	p.Y.Min, p.Y.Max = 0, 1

	scatter, err := proportionScatter(rows)
	if err != nil {
		return nil, err
	}
	p.Add(scatter)

	xyl := plotter.XYLabels{
		XYs:    make(plotter.XYs, len(rows)),
		Labels: make([]string, len(rows)),
	}
	for i, r := range rows {
		xyl.XYs[i] = plotter.XY{X: float64(r.Year), Y: r.Prop}
		xyl.Labels[i] = r.Speaker
	}
	labels, err := plotter.NewLabels(xyl)
	if err != nil {
		return nil, err
	}
	p.Add(labels)

	if err := addBandLines(p, cb, yearMin, yearMax); err != nil {
		return nil, err
	}
	return p, nil
}

// Save writes a figure at the fixed page size used for all outputs.
func Save(p *plot.Plot, path string) error {
	return p.Save(6*vg.Inch, 4*vg.Inch, path)
}

func proportionScatter(rows []variants.RawObservationRow) (*plotter.Scatter, error) {
	xys := make(plotter.XYs, len(rows))
	for i, r := range rows {
		xys[i] = plotter.XY{X: float64(r.Year), Y: r.Prop}
	}
	scatter, err := plotter.NewScatter(xys)
	if err != nil {
		return nil, err
	}
	scatter.GlyphStyle.Color = pointColor
	scatter.GlyphStyle.Radius = vg.Points(2)
	return scatter, nil
}

// addBandLines draws the prediction curve and its bounds, clipped to the
// plot's year window.
func addBandLines(p *plot.Plot, cb *model.ConfidenceBand, yearMin, yearMax int) error {
	var pred, lower, upper plotter.XYs
	for _, pt := range cb.Points {
		if pt.Year < float64(yearMin) || pt.Year > float64(yearMax) {
			continue
		}
		pred = append(pred, plotter.XY{X: pt.Year, Y: pt.Pred})
		lower = append(lower, plotter.XY{X: pt.Year, Y: pt.Lower})
		upper = append(upper, plotter.XY{X: pt.Year, Y: pt.Upper})
	}

	predLine, err := plotter.NewLine(pred)
	if err != nil {
		return err
	}
	predLine.LineStyle.Color = predColor
	predLine.LineStyle.Width = vg.Points(1.5)
	p.Add(predLine)

	for _, xys := range []plotter.XYs{lower, upper} {
		line, err := plotter.NewLine(xys)
		if err != nil {
			return err
		}
		line.LineStyle.Color = boundColor
		line.LineStyle.Dashes = []vg.Length{vg.Points(4), vg.Points(2)}
		p.Add(line)
	}
	return nil
}
