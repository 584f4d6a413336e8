package band

import (
	"fmt"

	"dialectloss/domain/core"
	"dialectloss/domain/model"

	"gonum.org/v1/gonum/stat/distuv"
)

// Builder evaluates a fitted model over a dense birth-year grid and attaches
// pointwise Wald bounds. Predictions are population-level: the random
// intercept contributes nothing to the design row [1, year20].
type Builder struct {
	Origin      int // centering year
	YearMinBand int
	YearMax     int
	Points      int
}

// NewBuilder creates a band builder for the given grid.
func NewBuilder(origin, yearMinBand, yearMax, points int) *Builder {
	return &Builder{Origin: origin, YearMinBand: yearMinBand, YearMax: yearMax, Points: points}
}

// Build constructs the confidence band. The grid is strictly ascending, spans
// exactly [YearMinBand, YearMax] and has exactly Points entries. Requires a
// converged model with a usable covariance.
func (b *Builder) Build(m *model.FittedModel) (*model.ConfidenceBand, error) {
	if b.Points < 2 || b.YearMinBand >= b.YearMax {
		return nil, fmt.Errorf("%w: [%d, %d] with %d points", core.ErrBadGrid, b.YearMinBand, b.YearMax, b.Points)
	}
	if !m.Converged {
		return nil, fmt.Errorf("%w: refusing to build band", core.ErrNotConverged)
	}

	z := distuv.UnitNormal.Quantile(0.975)
	step := float64(b.YearMax-b.YearMinBand) / float64(b.Points-1)

	points := make([]model.BandPoint, b.Points)
	for i := range points {
		year := float64(b.YearMinBand) + step*float64(i)
		if i == b.Points-1 {
			year = float64(b.YearMax) // exact endpoint, no accumulation drift
		}
		x20 := year - float64(b.Origin)

		eta := m.LinkPredict(x20)
		sd := m.LinkSE(x20)

		pt := model.BandPoint{
			Year:      year,
			Year20:    x20,
			PredLink:  eta,
			LowerLink: eta - z*sd,
			UpperLink: eta + z*sd,
		}
		pt.Pred = model.Logistic(pt.PredLink)
		pt.Lower = model.Logistic(pt.LowerLink)
		pt.Upper = model.Logistic(pt.UpperLink)
		points[i] = pt
	}

	return &model.ConfidenceBand{Points: points, Origin: b.Origin, Z: z}, nil
}

// Locate scans the band in ascending year order and reports, for each of the
// three curves, the first grid year at which the curve drops below zero on
// the link scale (probability 0.5). A curve that never crosses yields an
// absent result rather than an index past the grid. The lower curve crosses
// no later than the point estimate, so the interval orders naturally.
func Locate(cb *model.ConfidenceBand) model.TurningPoint {
	tp := model.TurningPoint{}
	for _, pt := range cb.Points {
		if !tp.Lower.Ok && pt.LowerLink < 0 {
			tp.Lower = model.Crossing{Year: pt.Year, Ok: true}
		}
		if !tp.Estimate.Ok && pt.PredLink < 0 {
			tp.Estimate = model.Crossing{Year: pt.Year, Ok: true}
		}
		if !tp.Upper.Ok && pt.UpperLink < 0 {
			tp.Upper = model.Crossing{Year: pt.Year, Ok: true}
		}
		if tp.Lower.Ok && tp.Estimate.Ok && tp.Upper.Ok {
			break
		}
	}
	return tp
}
