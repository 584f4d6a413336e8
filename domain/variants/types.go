package variants

import (
	"fmt"
	"strings"

	"dialectloss/domain/core"

	"github.com/montanaflynn/stats"
)

// VariableID identifies one sociolinguistic variable (e.g. "okane").
// Keys in result collections always use the canonical uppercase form.
type VariableID string

// Canonical returns the uppercase key form of the identifier.
func (v VariableID) Canonical() string {
	return strings.ToUpper(string(v))
}

// RawObservationRow is one aggregated (speaker, birth year) record for a
// variable: how many conservative and innovative tokens the speaker produced.
// Rows are immutable once loaded; rows with Total == 0 never survive loading.
type RawObservationRow struct {
	Speaker string
	Year    int
	Gender  string
	Cons    int
	Inn     int
	Total   int     // Cons + Inn, always > 0
	Prop    float64 // Cons / Total
	Year20  float64 // Year - origin (1920 by default)
}

// ExpandedObservation is a single token realization, the unit of analysis for
// the per-observation regression. Cons is 1 for a conservative realization.
type ExpandedObservation struct {
	Speaker string
	Year    int
	Year20  float64
	Gender  string
	Cons    int
}

// NewRawObservationRow validates and derives the computed columns for one row.
// Origin is the centering year for Year20.
func NewRawObservationRow(speaker string, year int, gender string, cons, inn, origin int) (RawObservationRow, error) {
	if speaker == "" {
		return RawObservationRow{}, fmt.Errorf("empty speaker identifier")
	}
	if cons < 0 || inn < 0 {
		return RawObservationRow{}, fmt.Errorf("negative count for speaker %s year %d", speaker, year)
	}
	total := cons + inn
	if total == 0 {
		return RawObservationRow{}, fmt.Errorf("%w: speaker %s year %d has no tokens", core.ErrNoObservations, speaker, year)
	}
	return RawObservationRow{
		Speaker: speaker,
		Year:    year,
		Gender:  gender,
		Cons:    cons,
		Inn:     inn,
		Total:   total,
		Prop:    float64(cons) / float64(total),
		Year20:  float64(year - origin),
	}, nil
}

// Expand turns aggregated rows into one row per token: for each raw row,
// exactly Cons observations with Cons=1 followed by Inn observations with
// Cons=0. The expanded size equals the sum of Total over the input.
func Expand(rows []RawObservationRow) []ExpandedObservation {
	total := 0
	for _, r := range rows {
		total += r.Total
	}
	out := make([]ExpandedObservation, 0, total)
	for _, r := range rows {
		for k := 0; k < r.Cons; k++ {
			out = append(out, ExpandedObservation{Speaker: r.Speaker, Year: r.Year, Year20: r.Year20, Gender: r.Gender, Cons: 1})
		}
		for k := 0; k < r.Inn; k++ {
			out = append(out, ExpandedObservation{Speaker: r.Speaker, Year: r.Year, Year20: r.Year20, Gender: r.Gender, Cons: 0})
		}
	}
	return out
}

// Summary holds descriptive statistics for one loaded variable, reported in
// the run summary alongside the model outputs.
type Summary struct {
	Speakers   int
	Rows       int
	Tokens     int
	MeanProp   float64
	MedianProp float64
	MinYear    int
	MaxYear    int
}

// Summarize computes the descriptive summary for a loaded variable.
func Summarize(rows []RawObservationRow) (Summary, error) {
	if len(rows) == 0 {
		return Summary{}, core.ErrNoObservations
	}
	props := make([]float64, len(rows))
	speakers := make(map[string]struct{})
	tokens := 0
	minYear, maxYear := rows[0].Year, rows[0].Year
	for i, r := range rows {
		props[i] = r.Prop
		speakers[r.Speaker] = struct{}{}
		tokens += r.Total
		if r.Year < minYear {
			minYear = r.Year
		}
		if r.Year > maxYear {
			maxYear = r.Year
		}
	}
	mean, err := stats.Mean(props)
	if err != nil {
		return Summary{}, err
	}
	median, err := stats.Median(props)
	if err != nil {
		return Summary{}, err
	}
	return Summary{
		Speakers:   len(speakers),
		Rows:       len(rows),
		Tokens:     tokens,
		MeanProp:   mean,
		MedianProp: median,
		MinYear:    minYear,
		MaxYear:    maxYear,
	}, nil
}
