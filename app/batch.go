package app

import (
	"context"
	"fmt"
	"time"

	"dialectloss/domain/core"
	"dialectloss/domain/variants"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// RunManifest records batch-level metadata for one analysis run.
type RunManifest struct {
	RunID     string
	StartedAt time.Time
	Duration  time.Duration
	Succeeded int
	Failed    int
}

// BatchResult is the immutable outcome of one full run: per-variable results
// keyed by canonical (uppercase) variable ID, with the configured processing
// order retained.
type BatchResult struct {
	Manifest RunManifest
	Results  map[string]VariableResult
	Order    []string
}

// Get looks up a result by variable ID in any casing.
func (b *BatchResult) Get(id string) (VariableResult, bool) {
	r, ok := b.Results[variants.VariableID(id).Canonical()]
	return r, ok
}

// RunBatch processes the configured variables. Variables are independent, so
// they run on a bounded worker pool; each failure is contained to its own
// result and the batch always completes.
func (s *AnalysisService) RunBatch(ctx context.Context) *BatchResult {
	started := time.Now()
	runID := uuid.NewString()
	specs := s.cfg.Variables
	s.log.Info("run %s: processing %d variables with %d workers", runID, len(specs), s.cfg.Workers)

	results := make([]VariableResult, len(specs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.cfg.Workers)
	for i, spec := range specs {
		g.Go(func() error {
			results[i] = s.RunVariable(gctx, spec)
			return nil
		})
	}
	_ = g.Wait() // workers never return errors; failures live on the results

	merged := make(map[string]VariableResult, len(results))
	order := make([]string, 0, len(results))
	succeeded, failed := 0, 0
	for _, r := range results {
		key := variants.VariableID(r.ID).Canonical()
		merged[key] = r
		order = append(order, key)
		if r.Failed() {
			failed++
			s.log.Error("variable %s failed at stage %s (%s error): %v", r.ID, r.Stage, failureKind(r.Err), r.Err)
		} else {
			succeeded++
			s.log.Info("variable %s: slope %.4f, turning point %s", r.ID, r.Slope.Estimate, describeCrossing(r))
		}
	}

	manifest := RunManifest{
		RunID:     runID,
		StartedAt: started,
		Duration:  time.Since(started),
		Succeeded: succeeded,
		Failed:    failed,
	}
	s.log.Info("run %s: %d completed, %d failed in %s", runID, succeeded, failed, manifest.Duration.Round(time.Millisecond))

	return &BatchResult{Manifest: manifest, Results: merged, Order: order}
}

func describeCrossing(r VariableResult) string {
	if !r.Turning.Estimate.Ok {
		return "none in range"
	}
	return fmt.Sprintf("%.1f", r.Turning.Estimate.Year)
}

// failureKind classifies a per-variable failure for the batch log: bad input
// data, a model that would not converge, or anything else.
func failureKind(err error) string {
	switch {
	case core.IsDataError(err):
		return "data"
	case core.IsModelError(err):
		return "model"
	default:
		return "internal"
	}
}
