package app

import (
	"fmt"
	"os"
	"path/filepath"

	"dialectloss/adapters/export"
	"dialectloss/adapters/figures"
	"dialectloss/adapters/stats/fisher"
	interrors "dialectloss/internal/errors"
)

// WriteOutputs persists the enabled terminal artifacts: per-variable fit
// figures, the annotated scatter, the three cross-variable interval charts,
// the two CSV tables and the run report. Only completed variables appear in
// the outputs.
func (s *AnalysisService) WriteOutputs(res *BatchResult) error {
	if s.cfg.Output.SaveFigures {
		if err := s.writeFigures(res); err != nil {
			return err
		}
	}
	if s.cfg.Output.SaveTables {
		if err := s.writeTables(res); err != nil {
			return err
		}
	}
	return nil
}

func (s *AnalysisService) writeFigures(res *BatchResult) error {
	dir := s.cfg.Paths.FigureDir
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return interrors.Wrap(err, "creating figure directory")
	}

	yearMin, yearMax := s.cfg.Grid.YearMin, s.cfg.Grid.YearMax

	var originItems, slopeItems, turningItems []figures.Interval
	for _, key := range res.Order {
		r := res.Results[key]
		if r.Failed() {
			continue
		}

		p, err := figures.FitFigure(r.ID, r.Raw, r.Band, r.Turning, yearMin, yearMax)
		if err != nil {
			return interrors.Wrapf(err, "rendering fit figure for %s", r.ID)
		}
		if err := figures.Save(p, filepath.Join(dir, r.ID+"_fit.png")); err != nil {
			return interrors.Wrapf(err, "saving fit figure for %s", r.ID)
		}

		if r.Spec.Annotated {
			ap, err := figures.AnnotatedFigure(r.ID, r.Raw, r.Band, yearMin, yearMax)
			if err != nil {
				return interrors.Wrapf(err, "rendering annotated figure for %s", r.ID)
			}
			if err := figures.Save(ap, filepath.Join(dir, r.ID+"_speakers.png")); err != nil {
				return interrors.Wrapf(err, "saving annotated figure for %s", r.ID)
			}
		}

		originItems = append(originItems, figures.Interval{
			Name: r.ID, Estimate: r.OriginProb.Estimate, Lower: r.OriginProb.Lower, Upper: r.OriginProb.Upper,
		})
		slopeItems = append(slopeItems, figures.Interval{
			Name: r.ID, Estimate: r.Slope.Estimate, Lower: r.Slope.Lower, Upper: r.Slope.Upper,
		})
		if r.Turning.Estimate.Ok && r.Turning.Lower.Ok && r.Turning.Upper.Ok {
			turningItems = append(turningItems, figures.Interval{
				Name: r.ID, Estimate: r.Turning.Estimate.Year, Lower: r.Turning.Lower.Year, Upper: r.Turning.Upper.Year,
			})
		}
	}

	charts := []struct {
		file, title, yLabel string
		items               []figures.Interval
	}{
		{"origin_probability.png", "p(conservative) at origin year", "probability", originItems},
		{"slope.png", "change in log-odds per year", "slope", slopeItems},
		{"turning_point.png", "turning point", "year of birth", turningItems},
	}
	for _, c := range charts {
		if len(c.items) == 0 {
			continue
		}
		p, err := figures.IntervalFigure(c.title, c.yLabel, c.items)
		if err != nil {
			return interrors.Wrapf(err, "rendering %s", c.file)
		}
		if err := figures.Save(p, filepath.Join(dir, c.file)); err != nil {
			return interrors.Wrapf(err, "saving %s", c.file)
		}
	}
	return nil
}

func (s *AnalysisService) writeTables(res *BatchResult) error {
	dir := s.cfg.Paths.TableDir
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return interrors.Wrap(err, "creating table directory")
	}

	var summaryRows []export.SummaryRow
	var reportVars []export.ReportVariable
	for _, key := range res.Order {
		r := res.Results[key]
		if r.Failed() {
			reportVars = append(reportVars, export.ReportVariable{
				ID: r.ID, OK: false, Stage: r.Stage, Err: r.Err.Error(),
			})
			continue
		}
		row := export.SummaryRow{
			Variable:   r.ID,
			Intercept:  r.Intercept,
			OriginProb: r.OriginProb,
			Slope:      r.Slope,
			RandVar:    r.Model.RandVar,
			RandSD:     r.Model.RandSD,
			Turning:    r.Turning,
		}
		summaryRows = append(summaryRows, row)
		reportVars = append(reportVars, export.ReportVariable{
			ID: r.ID, OK: true, Summary: r.Summary, Row: &row,
		})
	}

	if err := export.WriteSummaryCSV(filepath.Join(dir, "summary.csv"), summaryRows); err != nil {
		return err
	}

	pairResults, err := s.runFisherPairs(res)
	if err != nil {
		return err
	}
	if err := export.WriteFisherCSV(filepath.Join(dir, "speaker_pairs.csv"), pairResults); err != nil {
		return err
	}

	md := export.BuildReport(res.Manifest.RunID, res.Manifest.StartedAt, res.Manifest.Duration, reportVars)
	if err := export.WriteHTMLReport(filepath.Join(dir, "report.html"), md); err != nil {
		return err
	}
	return nil
}

// runFisherPairs evaluates the configured speaker comparisons against the
// loaded tables. Pairs whose variable failed to load are skipped with a
// warning; a pair referencing an unknown speaker is an error.
func (s *AnalysisService) runFisherPairs(res *BatchResult) ([]fisher.Result, error) {
	var out []fisher.Result
	for _, pair := range s.cfg.FisherPairs {
		r, ok := res.Get(pair.Variable)
		if !ok || r.Raw == nil {
			s.log.Warn("skipping speaker pair %s/%s: no data for variable %s", pair.SpeakerA, pair.SpeakerB, pair.Variable)
			continue
		}
		result, err := fisher.Compare(pair.Variable, pair.SpeakerA, pair.SpeakerB, r.Raw)
		if err != nil {
			return nil, interrors.Wrapf(err, "speaker pair for %s", pair.Variable)
		}
		out = append(out, result)
	}
	return out, nil
}

// PrintSummary writes the human-readable per-variable outcome to stdout.
func (s *AnalysisService) PrintSummary(res *BatchResult) {
	fmt.Printf("run %s: %d variables, %d completed, %d failed\n",
		res.Manifest.RunID, len(res.Order), res.Manifest.Succeeded, res.Manifest.Failed)
	for _, key := range res.Order {
		r := res.Results[key]
		if r.Failed() {
			fmt.Printf("  %-12s FAILED at %s: %v\n", r.ID, r.Stage, r.Err)
			continue
		}
		fmt.Printf("  %-12s slope %+.4f [%+.4f, %+.4f]  turning %s\n",
			r.ID, r.Slope.Estimate, r.Slope.Lower, r.Slope.Upper, describeCrossing(r))
	}
}
