package fisher_test

import (
	"math"
	"testing"

	"dialectloss/adapters/stats/fisher"
	"dialectloss/internal/testkit"
)

func TestExactTestExtremePair(t *testing.T) {
	// one fully conservative speaker against one fully innovative speaker
	p, or := fisher.ExactTest(10, 0, 0, 10)
	if p >= 0.001 {
		t.Fatalf("expected p < 0.001 for the extreme pair, got %v", p)
	}
	if !math.IsInf(or, 1) {
		t.Errorf("expected infinite odds ratio, got %v", or)
	}
	if got := fisher.Label(p); got != "highly significant" {
		t.Errorf("expected highly significant label, got %q", got)
	}
}

func TestExactTestBalancedPair(t *testing.T) {
	p, or := fisher.ExactTest(5, 5, 5, 5)
	if math.Abs(p-1) > 1e-9 {
		t.Fatalf("expected p = 1 for identical speakers, got %v", p)
	}
	if math.Abs(or-1) > 1e-12 {
		t.Errorf("expected odds ratio 1, got %v", or)
	}
	if got := fisher.Label(p); got != "not significant" {
		t.Errorf("expected not significant label, got %q", got)
	}
}

func TestExactTestKnownTable(t *testing.T) {
	// 2x2 table (1 9 / 11 3): the classic tea-tasting example with
	// two-sided p ~ 0.00276
	p, _ := fisher.ExactTest(1, 9, 11, 3)
	if math.Abs(p-0.00276) > 1e-4 {
		t.Fatalf("unexpected p-value %v", p)
	}
}

func TestExactTestEmptyTable(t *testing.T) {
	p, or := fisher.ExactTest(0, 0, 0, 0)
	if p != 1 {
		t.Errorf("expected p = 1 for the empty table, got %v", p)
	}
	if !math.IsNaN(or) {
		t.Errorf("expected NaN odds ratio for the empty table, got %v", or)
	}
}

func TestCompareAggregatesSpeakerCounts(t *testing.T) {
	rows := testkit.DecliningVariable()

	res, err := fisher.Compare("okane", "akf1937", "osg1961", rows)
	if err != nil {
		t.Fatalf("compare: %v", err)
	}
	// akf1937 carries years 1920-1940 (cons 9+8+7), osg1961 years 1980-2000
	// (cons 3+2+1)
	if res.ConsA != 24 || res.InnA != 6 {
		t.Errorf("speaker A counts wrong: cons=%d inn=%d", res.ConsA, res.InnA)
	}
	if res.ConsB != 6 || res.InnB != 24 {
		t.Errorf("speaker B counts wrong: cons=%d inn=%d", res.ConsB, res.InnB)
	}
	if res.P >= 0.001 {
		t.Errorf("expected a highly significant difference, got p=%v", res.P)
	}
}

func TestCompareUnknownSpeaker(t *testing.T) {
	if _, err := fisher.Compare("okane", "nobody", "akf1937", testkit.DecliningVariable()); err == nil {
		t.Fatal("expected error for unknown speaker")
	}
}
