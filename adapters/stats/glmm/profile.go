package glmm

import (
	"fmt"
	"math"

	"dialectloss/domain/core"
	"dialectloss/domain/model"

	"gonum.org/v1/gonum/optimize"
	"gonum.org/v1/gonum/stat/distuv"
)

// profileMaxExpand bounds the outward search for a deviance bracket.
const profileMaxExpand = 40

// ProfileCI computes the 95% profile-likelihood interval for a named fixed
// effect by re-optimizing the nuisance parameters at each probed value and
// bisecting the profiled deviance to the χ²(1) cutoff. tol is the deviance
// tolerance for convergence. Requires a converged fit.
func (ft *Fit) ProfileCI(name string, tol float64) (model.CoefficientEstimate, error) {
	if !ft.Model.Converged {
		return model.CoefficientEstimate{}, fmt.Errorf("%w: cannot profile %s", core.ErrNotConverged, name)
	}
	var idx int
	switch name {
	case model.CoefIntercept:
		idx = 0
	case model.CoefYear20:
		idx = 1
	default:
		return model.CoefficientEstimate{}, fmt.Errorf("unknown coefficient %q", name)
	}
	if tol <= 0 {
		tol = 1e-6
	}

	est := ft.theta[idx]
	cutoff := distuv.ChiSquared{K: 1}.Quantile(0.95)
	targetNLL := ft.nllMin + cutoff/2

	sd := math.Sqrt(ft.Model.Cov[idx][idx])
	if math.IsNaN(sd) || sd <= 0 {
		sd = 0.5*math.Abs(est) + 0.1
	}

	lower, err := ft.profileBound(idx, est, -1, sd, targetNLL, tol)
	if err != nil {
		return model.CoefficientEstimate{}, err
	}
	upper, err := ft.profileBound(idx, est, +1, sd, targetNLL, tol)
	if err != nil {
		return model.CoefficientEstimate{}, err
	}

	return model.CoefficientEstimate{Name: name, Estimate: est, Lower: lower, Upper: upper}, nil
}

// profileBound finds one endpoint of the interval in the given direction:
// first expands outward from the estimate until the profiled objective
// straddles the target, then bisects.
func (ft *Fit) profileBound(idx int, est, dir, sd, targetNLL, tol float64) (float64, error) {
	warm := make([]float64, 0, 2)
	for d := 0; d < 3; d++ {
		if d != idx {
			warm = append(warm, ft.theta[d])
		}
	}

	pnll := func(v float64) float64 {
		return ft.profileObjective(idx, v, warm)
	}

	lo := est // pnll(lo) == nllMin < targetNLL by construction
	hi := est + dir*2*sd
	found := false
	for i := 0; i < profileMaxExpand; i++ {
		f := pnll(hi)
		if math.IsNaN(f) {
			return 0, fmt.Errorf("%w: objective undefined at %g", core.ErrProfileFailed, hi)
		}
		if f >= targetNLL {
			found = true
			break
		}
		lo = hi
		hi += dir * 2 * sd
	}
	if !found {
		return 0, fmt.Errorf("%w: no deviance bracket within search range", core.ErrProfileFailed)
	}

	for iter := 0; iter < 200; iter++ {
		mid := 0.5 * (lo + hi)
		f := pnll(mid)
		if math.IsNaN(f) {
			return 0, fmt.Errorf("%w: objective undefined at %g", core.ErrProfileFailed, mid)
		}
		// deviance distance to the cutoff
		if math.Abs(f-targetNLL) < tol/2 {
			return mid, nil
		}
		if f < targetNLL {
			lo = mid
		} else {
			hi = mid
		}
		if math.Abs(hi-lo) < 1e-10*(1+math.Abs(est)) {
			return mid, nil
		}
	}
	return 0, fmt.Errorf("%w: bisection exhausted", core.ErrProfileFailed)
}

// profileObjective minimizes the likelihood over the two nuisance parameters
// with the profiled coefficient held fixed. warm is updated in place so
// successive probes start from the previous nuisance optimum.
func (ft *Fit) profileObjective(idx int, v float64, warm []float64) float64 {
	full := make([]float64, 3)
	obj := func(u []float64) float64 {
		full[idx] = v
		ui := 0
		for d := 0; d < 3; d++ {
			if d == idx {
				continue
			}
			full[d] = u[ui]
			ui++
		}
		return ft.nll(full)
	}

	settings := &optimize.Settings{
		Converger: &optimize.FunctionConverge{Absolute: 1e-10, Iterations: 200},
	}
	problem := optimize.Problem{Func: obj}
	result, err := optimize.Minimize(problem, append([]float64(nil), warm...), settings, &optimize.NelderMead{})
	if result == nil {
		return math.NaN()
	}
	if err != nil && (math.IsNaN(result.F) || math.IsInf(result.F, 0)) {
		return math.NaN()
	}
	copy(warm, result.X)
	return result.F
}
