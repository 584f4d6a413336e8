package glmm

import (
	"math"

	"dialectloss/domain/core"
	"dialectloss/domain/model"
	"dialectloss/domain/variants"

	"gonum.org/v1/gonum/diff/fd"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/optimize"
)

// Optimizer names reported on the fitted model.
const (
	OptimizerBFGS       = "bfgs"
	OptimizerNelderMead = "nelder-mead"
)

const (
	// logSigmaBound clamps the random-effect scale parameter during
	// optimization to keep 1/σ² finite.
	logSigmaBound = 8.0

	ln2Pi = 1.8378770664093453
)

// Fitter fits the mixed-effects binomial model cons ~ year20 + (1|speaker)
// by maximum likelihood. The per-speaker integral over the random intercept
// is approximated with adaptive Gauss-Hermite quadrature centered on the
// conditional mode; order 1 is the Laplace approximation.
type Fitter struct {
	NAGQ         int
	AltOptimizer bool // derivative-free fallback for numerically harder fits
}

// NewFitter creates a fitter with the given quadrature order.
func NewFitter(nAGQ int, altOptimizer bool) *Fitter {
	return &Fitter{NAGQ: nAGQ, AltOptimizer: altOptimizer}
}

// group holds one speaker's observations: centered year and binary outcome.
type group struct {
	speaker string
	x       []float64
	y       []float64
}

// Fit is the retained state of one model fit: the fitted parameters plus the
// marginal likelihood objective, kept so that profile intervals can
// re-optimize around the optimum.
type Fit struct {
	Model *model.FittedModel

	theta  []float64 // (intercept, slope, log sigma) at the optimum
	nll    func([]float64) float64
	nllMin float64
}

// Fit estimates the model from expanded observations. The returned Fit always
// carries a FittedModel; when the optimizer fails to converge the model is
// flagged unconverged and a core.ErrNotConverged error is returned alongside.
func (f *Fitter) Fit(obs []variants.ExpandedObservation) (*Fit, error) {
	if len(obs) == 0 {
		return nil, core.ErrNoObservations
	}
	groups := groupBySpeaker(obs)

	nodes, logw, err := hermiteRule(f.NAGQ)
	if err != nil {
		return nil, err
	}
	nll := makeNLL(groups, nodes, logw)

	x0 := startingPoint(obs)
	optimizer, method, settings := f.chooseOptimizer()

	problem := optimize.Problem{Func: nll}
	if optimizer == OptimizerBFGS {
		// BFGS demands a gradient; supply it by finite differences over
		// the marginal likelihood.
		problem.Grad = func(grad, x []float64) {
			fd.Gradient(grad, nll, x, nil)
		}
	}
	result, optErr := optimize.Minimize(problem, x0, settings, method)

	theta := x0
	fval := nll(x0)
	if result != nil {
		theta = result.X
		fval = result.F
	}

	// Boundary fits (random-intercept variance at zero) can defeat the line
	// search; retry derivative-free from the best point seen before giving up.
	if optErr != nil && !f.AltOptimizer {
		retry := &Fitter{NAGQ: f.NAGQ, AltOptimizer: true}
		name, altMethod, altSettings := retry.chooseOptimizer()
		if altResult, altErr := optimize.Minimize(problem, theta, altSettings, altMethod); altResult != nil && altResult.F <= fval {
			theta = altResult.X
			fval = altResult.F
			optimizer = name
			optErr = altErr
		}
	}

	fm := &model.FittedModel{
		Intercept: theta[0],
		Slope:     theta[1],
		Deviance:  2 * fval,
		Optimizer: optimizer,
		NAGQ:      f.NAGQ,
		NObs:      len(obs),
		NGroups:   len(groups),
	}
	sigma := math.Exp(clamp(theta[2], -logSigmaBound, logSigmaBound))
	fm.RandSD = sigma
	fm.RandVar = sigma * sigma

	fit := &Fit{Model: fm, theta: theta, nll: nll, nllMin: fval}

	if optErr != nil || math.IsNaN(fval) || math.IsInf(fval, 0) {
		return fit, core.NewConvergenceError(optimizer, optErr)
	}

	if err := fillCovariance(fm, nll, theta); err != nil {
		return fit, err
	}
	fm.Converged = true
	return fit, nil
}

func (f *Fitter) chooseOptimizer() (string, optimize.Method, *optimize.Settings) {
	if f.AltOptimizer {
		settings := &optimize.Settings{
			Converger: &optimize.FunctionConverge{Absolute: 1e-10, Iterations: 200},
		}
		return OptimizerNelderMead, &optimize.NelderMead{}, settings
	}
	settings := &optimize.Settings{
		GradientThreshold: 1e-5,
		MajorIterations:   500,
	}
	return OptimizerBFGS, &optimize.BFGS{}, settings
}

// fillCovariance derives the fixed-effect covariance from the inverse
// observed information at the optimum. When the variance component sits on
// its boundary the full information matrix is singular in that direction;
// the fixed-effect block is then inverted on its own, which coincides with
// the marginal covariance once the cross-derivatives vanish at the boundary.
func fillCovariance(fm *model.FittedModel, nll func([]float64) float64, theta []float64) error {
	hess := mat.NewSymDense(len(theta), nil)
	fd.Hessian(hess, nll, theta, nil)

	var inv mat.Dense
	if err := inv.Inverse(hess); err == nil && usableCov(&inv) {
		for i := 0; i < 2; i++ {
			for j := 0; j < 2; j++ {
				fm.Cov[i][j] = inv.At(i, j)
			}
		}
		return nil
	}

	block := mat.NewDense(2, 2, []float64{
		hess.At(0, 0), hess.At(0, 1),
		hess.At(1, 0), hess.At(1, 1),
	})
	var blockInv mat.Dense
	if err := blockInv.Inverse(block); err != nil || !usableCov(&blockInv) {
		return core.ErrNoCovariance
	}
	for i := 0; i < 2; i++ {
		for j := 0; j < 2; j++ {
			fm.Cov[i][j] = blockInv.At(i, j)
		}
	}
	return nil
}

func usableCov(m *mat.Dense) bool {
	return m.At(0, 0) > 0 && m.At(1, 1) > 0 &&
		!math.IsNaN(m.At(0, 0)) && !math.IsNaN(m.At(1, 1)) &&
		!math.IsInf(m.At(0, 0), 0) && !math.IsInf(m.At(1, 1), 0)
}

func groupBySpeaker(obs []variants.ExpandedObservation) []group {
	index := make(map[string]int)
	var groups []group
	for _, o := range obs {
		i, ok := index[o.Speaker]
		if !ok {
			i = len(groups)
			index[o.Speaker] = i
			groups = append(groups, group{speaker: o.Speaker})
		}
		groups[i].x = append(groups[i].x, o.Year20)
		groups[i].y = append(groups[i].y, float64(o.Cons))
	}
	return groups
}

// startingPoint seeds the optimizer at the pooled log-odds with zero slope
// and unit random-effect scale.
func startingPoint(obs []variants.ExpandedObservation) []float64 {
	ones := 0
	for _, o := range obs {
		ones += o.Cons
	}
	p := float64(ones) / float64(len(obs))
	p = clamp(p, 0.01, 0.99)
	return []float64{math.Log(p / (1 - p)), 0, 0}
}

// makeNLL builds the negative marginal log-likelihood over the fixed effects
// and the log random-intercept scale.
func makeNLL(groups []group, nodes, logw []float64) func([]float64) float64 {
	terms := make([]float64, len(nodes))
	return func(theta []float64) float64 {
		b0, b1 := theta[0], theta[1]
		logSigma := clamp(theta[2], -logSigmaBound, logSigmaBound)
		sigma := math.Exp(logSigma)
		s2 := sigma * sigma

		total := 0.0
		for gi := range groups {
			g := &groups[gi]

			bhat := conditionalMode(g, b0, b1, s2)

			// curvature of the log-integrand at the mode
			_, wsum := score(g, b0, b1, bhat)
			gdd := wsum + 1/s2
			tau := 1 / math.Sqrt(gdd)

			for k, z := range nodes {
				b := bhat + math.Sqrt2*tau*z
				h := condLogLik(g, b0, b1, b) - b*b/(2*s2) - logSigma - 0.5*ln2Pi
				terms[k] = logw[k] + z*z + h
			}
			logI := 0.5*math.Ln2 + math.Log(tau) + logSumExp(terms)
			total -= logI
		}
		if math.IsNaN(total) {
			return math.Inf(1)
		}
		return total
	}
}

// conditionalMode maximizes the per-speaker log-integrand over the random
// intercept by Newton iteration; the integrand is strictly log-concave so
// the iteration is globally convergent.
func conditionalMode(g *group, b0, b1, s2 float64) float64 {
	b := 0.0
	for iter := 0; iter < 50; iter++ {
		resid, wsum := score(g, b0, b1, b)
		grad := resid - b/s2
		curv := wsum + 1/s2
		step := grad / curv
		b += step
		if math.Abs(step) < 1e-10 {
			break
		}
	}
	return b
}

// score returns Σ(y-p) and Σ p(1-p) for a speaker at random intercept b.
func score(g *group, b0, b1, b float64) (resid, wsum float64) {
	for j := range g.x {
		eta := b0 + b1*g.x[j] + b
		p := model.Logistic(eta)
		resid += g.y[j] - p
		wsum += p * (1 - p)
	}
	return resid, wsum
}

// condLogLik is the binomial log-likelihood of a speaker's observations
// conditional on the random intercept b.
func condLogLik(g *group, b0, b1, b float64) float64 {
	ll := 0.0
	for j := range g.x {
		eta := b0 + b1*g.x[j] + b
		ll += g.y[j]*eta - softplus(eta)
	}
	return ll
}

func clamp(x, lo, hi float64) float64 {
	if x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}
