package model

import (
	"fmt"
	"math"
)

// Coefficient names accepted by the fitter and the profiler.
const (
	CoefIntercept = "Intercept"
	CoefYear20    = "year20"
)

// FittedModel is the converged (or not) result of one mixed-effects binomial
// fit: cons ~ year20 + (1 | speaker). Population-level predictions use only
// the fixed effects; the random-intercept variance is reported separately.
type FittedModel struct {
	Intercept float64
	Slope     float64 // year20 coefficient

	// Cov is the variance-covariance matrix of the fixed effects, ordered
	// (Intercept, year20).
	Cov [2][2]float64

	RandVar float64 // per-speaker random-intercept variance
	RandSD  float64

	Deviance  float64
	Converged bool
	Optimizer string
	NAGQ      int
	NObs      int
	NGroups   int
}

// Coef returns the named fixed-effect coefficient.
func (m *FittedModel) Coef(name string) (float64, error) {
	switch name {
	case CoefIntercept:
		return m.Intercept, nil
	case CoefYear20:
		return m.Slope, nil
	}
	return 0, fmt.Errorf("unknown coefficient %q", name)
}

// LinkPredict evaluates the population-level linear predictor at a centered
// year value (random effects excluded).
func (m *FittedModel) LinkPredict(year20 float64) float64 {
	return m.Intercept + m.Slope*year20
}

// LinkSE is the Wald standard error of the linear predictor at a centered
// year value: the quadratic form of the design row [1, year20] against Cov.
func (m *FittedModel) LinkSE(year20 float64) float64 {
	v := m.Cov[0][0] + 2*year20*m.Cov[0][1] + year20*year20*m.Cov[1][1]
	if v < 0 {
		v = 0
	}
	return math.Sqrt(v)
}

// Logistic is the inverse link: probability from a link-scale value.
func Logistic(eta float64) float64 {
	return 1 / (1 + math.Exp(-eta))
}

// BandPoint is one grid point of a confidence band. The *Link fields are on
// the linear-predictor scale; Pred/Lower/Upper are their logistic transforms.
type BandPoint struct {
	Year   float64
	Year20 float64

	PredLink  float64
	LowerLink float64
	UpperLink float64

	Pred  float64
	Lower float64
	Upper float64
}

// ConfidenceBand is a fixed ascending grid of pointwise Wald bounds on the
// fitted curve. Never mutated after construction.
type ConfidenceBand struct {
	Points []BandPoint
	Origin int     // centering year for Year20
	Z      float64 // normal quantile used for the bounds
}

// Crossing is the result of scanning one band curve for its first descent
// below probability 0.5. Ok is false when no grid point crosses.
type Crossing struct {
	Year float64
	Ok   bool
}

// TurningPoint is the estimated 0.5-crossing year with its interval. Lower
// comes from the lower band curve (which crosses no later than the point
// estimate), Upper from the upper band curve.
type TurningPoint struct {
	Lower    Crossing
	Estimate Crossing
	Upper    Crossing
}

// CoefficientEstimate is a point estimate with a profile-likelihood interval.
// Not interchangeable with the Wald band bounds.
type CoefficientEstimate struct {
	Name     string
	Estimate float64
	Lower    float64
	Upper    float64
}
