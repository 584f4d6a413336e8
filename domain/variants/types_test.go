package variants_test

import (
	"math"
	"testing"

	"dialectloss/domain/variants"
	"dialectloss/internal/testkit"
)

func TestExpandConservesCounts(t *testing.T) {
	raw := testkit.DecliningVariable()
	expanded := variants.Expand(raw)

	wantTotal := 0
	for _, r := range raw {
		wantTotal += r.Total
	}
	if len(expanded) != wantTotal {
		t.Fatalf("expected %d expanded observations, got %d", wantTotal, len(expanded))
	}

	type key struct {
		speaker string
		year    int
	}
	ones := make(map[key]int)
	zeros := make(map[key]int)
	for _, o := range expanded {
		k := key{o.Speaker, o.Year}
		if o.Cons == 1 {
			ones[k]++
		} else {
			zeros[k]++
		}
	}
	for _, r := range raw {
		k := key{r.Speaker, r.Year}
		if ones[k] != r.Cons {
			t.Errorf("speaker %s year %d: expected %d conservative realizations, got %d", r.Speaker, r.Year, r.Cons, ones[k])
		}
		if zeros[k] != r.Inn {
			t.Errorf("speaker %s year %d: expected %d innovative realizations, got %d", r.Speaker, r.Year, r.Inn, zeros[k])
		}
	}
}

func TestExpandCopiesDerivedColumns(t *testing.T) {
	raw := testkit.DecliningVariable()
	for _, o := range variants.Expand(raw) {
		if o.Year20 != float64(o.Year-testkit.Origin) {
			t.Fatalf("year20 mismatch: year %d carries %v", o.Year, o.Year20)
		}
	}
}

func TestNewRawObservationRow(t *testing.T) {
	row, err := variants.NewRawObservationRow("akf1937", 1937, "f", 3, 7, 1920)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if row.Total != 10 {
		t.Errorf("expected total 10, got %d", row.Total)
	}
	if math.Abs(row.Prop-0.3) > 1e-15 {
		t.Errorf("expected prop 0.3, got %v", row.Prop)
	}
	if row.Year20 != 17 {
		t.Errorf("expected year20 17, got %v", row.Year20)
	}
}

func TestNewRawObservationRowRejectsZeroTotal(t *testing.T) {
	if _, err := variants.NewRawObservationRow("akf1937", 1937, "f", 0, 0, 1920); err == nil {
		t.Fatal("expected error for a row with no tokens")
	}
}

func TestSummarize(t *testing.T) {
	raw := testkit.DecliningVariable()
	s, err := variants.Summarize(raw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s.Speakers != 3 {
		t.Errorf("expected 3 speakers, got %d", s.Speakers)
	}
	if s.Rows != 9 {
		t.Errorf("expected 9 rows, got %d", s.Rows)
	}
	if s.Tokens != 90 {
		t.Errorf("expected 90 tokens, got %d", s.Tokens)
	}
	if s.MinYear != 1920 || s.MaxYear != 2000 {
		t.Errorf("expected year range 1920-2000, got %d-%d", s.MinYear, s.MaxYear)
	}
	if math.Abs(s.MeanProp-0.5) > 1e-12 {
		t.Errorf("expected mean proportion 0.5, got %v", s.MeanProp)
	}
}

func TestSummarizeEmpty(t *testing.T) {
	if _, err := variants.Summarize(nil); err == nil {
		t.Fatal("expected error for empty input")
	}
}

func TestCanonicalKey(t *testing.T) {
	if got := variants.VariableID("okane").Canonical(); got != "OKANE" {
		t.Fatalf("expected OKANE, got %s", got)
	}
}
