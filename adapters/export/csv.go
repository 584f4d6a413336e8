package export

import (
	"encoding/csv"
	"fmt"
	"math"
	"os"
	"strconv"

	"dialectloss/adapters/stats/fisher"
	"dialectloss/domain/model"
)

// SummaryRow is one variable's line in the full summary table.
type SummaryRow struct {
	Variable   string
	Intercept  model.CoefficientEstimate
	OriginProb model.CoefficientEstimate
	Slope      model.CoefficientEstimate
	RandVar    float64
	RandSD     float64
	Turning    model.TurningPoint
}

// WriteSummaryCSV writes the per-variable summary table: intercept, origin
// year probability and slope each with their profile interval, the
// random-intercept variance components, and the turning point with its
// Wald-band interval.
func WriteSummaryCSV(path string, rows []SummaryRow) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create summary table: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	defer w.Flush()

	header := []string{
		"variable",
		"intercept", "intercept_lower", "intercept_upper",
		"origin_prob", "origin_prob_lower", "origin_prob_upper",
		"slope", "slope_lower", "slope_upper",
		"rand_var", "rand_sd",
		"turning", "turning_lower", "turning_upper",
	}
	if err := w.Write(header); err != nil {
		return err
	}

	for _, r := range rows {
		rec := []string{
			r.Variable,
			num(r.Intercept.Estimate), num(r.Intercept.Lower), num(r.Intercept.Upper),
			num(r.OriginProb.Estimate), num(r.OriginProb.Lower), num(r.OriginProb.Upper),
			num(r.Slope.Estimate), num(r.Slope.Lower), num(r.Slope.Upper),
			num(r.RandVar), num(r.RandSD),
			crossing(r.Turning.Estimate), crossing(r.Turning.Lower), crossing(r.Turning.Upper),
		}
		if err := w.Write(rec); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

// WriteFisherCSV writes the paired-speaker significance-test table.
func WriteFisherCSV(path string, results []fisher.Result) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create pair table: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	defer w.Flush()

	header := []string{
		"variable", "speaker_a", "speaker_b",
		"cons_a", "inn_a", "cons_b", "inn_b",
		"odds_ratio", "p_value", "significance",
	}
	if err := w.Write(header); err != nil {
		return err
	}

	for _, r := range results {
		rec := []string{
			r.Variable, r.SpeakerA, r.SpeakerB,
			strconv.Itoa(r.ConsA), strconv.Itoa(r.InnA),
			strconv.Itoa(r.ConsB), strconv.Itoa(r.InnB),
			num(r.OddsRatio), num(r.P), r.Label,
		}
		if err := w.Write(rec); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

func num(v float64) string {
	if math.IsNaN(v) {
		return "NA"
	}
	if math.IsInf(v, 1) {
		return "Inf"
	}
	if math.IsInf(v, -1) {
		return "-Inf"
	}
	return strconv.FormatFloat(v, 'g', 6, 64)
}

func crossing(c model.Crossing) string {
	if !c.Ok {
		return "NA"
	}
	return strconv.FormatFloat(c.Year, 'f', 1, 64)
}
