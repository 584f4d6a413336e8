package fisher

import (
	"fmt"
	"math"

	"dialectloss/domain/variants"
)

// Result is one paired-speaker comparison: the 2x2 conservative/innovative
// table for two speakers on one variable, with the exact test outcome.
type Result struct {
	Variable string
	SpeakerA string
	SpeakerB string
	ConsA    int
	InnA     int
	ConsB    int
	InnB     int

	OddsRatio float64
	P         float64
	Label     string
}

// ExactTest runs Fisher's exact test (two-sided) on the 2x2 table
//
//	[a b]
//	[c d]
//
// returning the p-value and the sample odds ratio. The two-sided p-value sums
// the probabilities of all tables with the observed margins that are no more
// likely than the observed one.
func ExactTest(a, b, c, d int) (p, oddsRatio float64) {
	r1 := a + b
	r2 := c + d
	c1 := a + c
	n := r1 + r2

	if n == 0 {
		return 1, math.NaN()
	}

	logObs := logHypergeomProb(a, r1, r2, c1)

	kMin := 0
	if c1-r2 > 0 {
		kMin = c1 - r2
	}
	kMax := r1
	if c1 < r1 {
		kMax = c1
	}

	// small slack absorbs round-off when comparing equal-probability tables
	const eps = 1e-7
	sum := 0.0
	for k := kMin; k <= kMax; k++ {
		lp := logHypergeomProb(k, r1, r2, c1)
		if lp <= logObs+eps {
			sum += math.Exp(lp)
		}
	}
	if sum > 1 {
		sum = 1
	}

	return sum, oddsRatioOf(a, b, c, d)
}

// Compare aggregates each speaker's counts over the variable's rows and runs
// the exact test. A speaker absent from the table is an error.
func Compare(variable, speakerA, speakerB string, rows []variants.RawObservationRow) (Result, error) {
	consA, innA, okA := speakerCounts(speakerA, rows)
	consB, innB, okB := speakerCounts(speakerB, rows)
	if !okA {
		return Result{}, fmt.Errorf("speaker %s not present in table for %s", speakerA, variable)
	}
	if !okB {
		return Result{}, fmt.Errorf("speaker %s not present in table for %s", speakerB, variable)
	}

	p, or := ExactTest(consA, innA, consB, innB)
	return Result{
		Variable:  variable,
		SpeakerA:  speakerA,
		SpeakerB:  speakerB,
		ConsA:     consA,
		InnA:      innA,
		ConsB:     consB,
		InnB:      innB,
		OddsRatio: or,
		P:         p,
		Label:     Label(p),
	}, nil
}

// Label maps a p-value to the significance wording used in the pair table.
func Label(p float64) string {
	switch {
	case p < 0.001:
		return "highly significant"
	case p < 0.01:
		return "very significant"
	case p < 0.05:
		return "significant"
	default:
		return "not significant"
	}
}

func speakerCounts(speaker string, rows []variants.RawObservationRow) (cons, inn int, found bool) {
	for _, r := range rows {
		if r.Speaker == speaker {
			cons += r.Cons
			inn += r.Inn
			found = true
		}
	}
	return cons, inn, found
}

// logHypergeomProb is the log-probability of k successes in the first row of
// a 2x2 table with margins (r1, r2, c1).
func logHypergeomProb(k, r1, r2, c1 int) float64 {
	return logChoose(r1, k) + logChoose(r2, c1-k) - logChoose(r1+r2, c1)
}

func logChoose(n, k int) float64 {
	if k < 0 || k > n {
		return math.Inf(-1)
	}
	return lgamma(n+1) - lgamma(k+1) - lgamma(n-k+1)
}

func lgamma(x int) float64 {
	v, _ := math.Lgamma(float64(x))
	return v
}

func oddsRatioOf(a, b, c, d int) float64 {
	num := float64(a) * float64(d)
	den := float64(b) * float64(c)
	if den == 0 {
		if num == 0 {
			return math.NaN()
		}
		return math.Inf(1)
	}
	return num / den
}
