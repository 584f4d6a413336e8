package app

import (
	"context"
	"fmt"

	"dialectloss/adapters/stats/band"
	"dialectloss/adapters/stats/glmm"
	"dialectloss/adapters/table"
	"dialectloss/domain/model"
	"dialectloss/domain/variants"
	"dialectloss/internal"
	"dialectloss/internal/config"
	interrors "dialectloss/internal/errors"
)

// Pipeline stage names, reported on per-variable failures.
const (
	StageLoad    = "load"
	StageFit     = "fit"
	StageBand    = "band"
	StageProfile = "profile"
)

// VariableResult bundles everything derived for one variable. Artifacts
// filled before a failing stage are retained; Err marks the result failed.
type VariableResult struct {
	ID   string
	Spec config.VariableSpec

	Raw      []variants.RawObservationRow
	Summary  variants.Summary
	Expanded int

	Model   *model.FittedModel
	Band    *model.ConfidenceBand
	Turning model.TurningPoint

	Intercept  model.CoefficientEstimate
	Slope      model.CoefficientEstimate
	OriginProb model.CoefficientEstimate

	Stage string // stage reached when Err was set
	Err   error
}

// Failed reports whether the variable's pipeline stopped before completing.
func (r *VariableResult) Failed() bool {
	return r.Err != nil
}

// AnalysisService runs the per-variable pipeline and the batch around it.
type AnalysisService struct {
	cfg *config.Config
	log *internal.Logger
}

// NewAnalysisService creates the service.
func NewAnalysisService(cfg *config.Config, log *internal.Logger) *AnalysisService {
	if log == nil {
		log = internal.DefaultLogger
	}
	return &AnalysisService{cfg: cfg, log: log}
}

// RunVariable executes the full pipeline for one variable: load, expand,
// fit, band, turning point, profile intervals. Stages are strictly
// sequential; the first failure stops that variable and is recorded with
// the stage that produced it. A panic anywhere in the pipeline is contained
// here and reported as that variable's failure, never the batch's.
func (s *AnalysisService) RunVariable(ctx context.Context, spec config.VariableSpec) (res VariableResult) {
	res = VariableResult{ID: spec.ID, Spec: spec}
	defer func() {
		if r := recover(); r != nil {
			if res.Stage == "" {
				res.Stage = StageLoad
			}
			res.Err = interrors.New("INTERNAL_ERROR", fmt.Sprintf("unexpected panic: %v", r))
			s.log.Error("variable %s panicked at stage %s: %v", spec.ID, res.Stage, r)
		}
	}()

	fail := func(stage string, err error) VariableResult {
		res.Stage = stage
		res.Err = err
		return res
	}

	res.Stage = StageLoad
	if err := ctx.Err(); err != nil {
		return fail(StageLoad, err)
	}

	reader := table.NewTableReader(s.cfg.TablePath(spec.ID), s.cfg.Grid.YearMin)
	raw, err := reader.Read()
	if err != nil {
		return fail(StageLoad, interrors.Wrapf(err, "loading table for %s", spec.ID))
	}
	res.Raw = raw

	summary, err := variants.Summarize(raw)
	if err != nil {
		return fail(StageLoad, err)
	}
	res.Summary = summary

	expanded := variants.Expand(raw)
	res.Expanded = len(expanded)
	s.log.Debug("variable %s: %d rows expanded to %d observations", spec.ID, len(raw), len(expanded))

	res.Stage = StageFit
	if err := ctx.Err(); err != nil {
		return fail(StageFit, err)
	}

	fitter := glmm.NewFitter(s.cfg.Fit.NAGQ, spec.AltOptimizer)
	fit, err := fitter.Fit(expanded)
	if fit != nil {
		res.Model = fit.Model
	}
	if err != nil {
		return fail(StageFit, interrors.Wrapf(err, "fitting model for %s", spec.ID))
	}

	res.Stage = StageBand
	builder := band.NewBuilder(s.cfg.Grid.YearMin, s.cfg.Grid.YearMinBand, s.cfg.Grid.YearMax, s.cfg.Grid.Points)
	cb, err := builder.Build(fit.Model)
	if err != nil {
		return fail(StageBand, interrors.Wrapf(err, "building band for %s", spec.ID))
	}
	res.Band = cb
	res.Turning = band.Locate(cb)

	res.Stage = StageProfile
	if err := ctx.Err(); err != nil {
		return fail(StageProfile, err)
	}

	intercept, err := fit.ProfileCI(model.CoefIntercept, s.cfg.Fit.ProfileTol)
	if err != nil {
		return fail(StageProfile, interrors.Wrapf(err, "profiling intercept for %s", spec.ID))
	}
	res.Intercept = intercept

	slope, err := fit.ProfileCI(model.CoefYear20, s.cfg.Fit.ProfileTol)
	if err != nil {
		return fail(StageProfile, interrors.Wrapf(err, "profiling slope for %s", spec.ID))
	}
	res.Slope = slope

	// probability at the origin year: logistic transform of the intercept
	// and its profile bounds
	res.OriginProb = model.CoefficientEstimate{
		Name:     "origin_prob",
		Estimate: model.Logistic(intercept.Estimate),
		Lower:    model.Logistic(intercept.Lower),
		Upper:    model.Logistic(intercept.Upper),
	}

	res.Stage = ""
	return res
}
