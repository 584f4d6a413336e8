package testkit

import (
	"encoding/csv"
	"fmt"
	"os"

	"dialectloss/domain/variants"
)

// Origin is the centering year used by all fixtures.
const Origin = 1920

// DecliningVariable builds the canonical synthetic decline: nine rows from
// 1920 (cons=9, inn=1) to 2000 (cons=1, inn=9) in ten-year steps, spread over
// three speakers. Conservative usage falls linearly with birth year, so a
// correct fit has a negative slope and a turning point strictly inside
// (1920, 2000).
func DecliningVariable() []variants.RawObservationRow {
	speakers := []string{"akf1937", "nnb1938", "osg1961"}
	rows := make([]variants.RawObservationRow, 0, 9)
	for i := 0; i < 9; i++ {
		year := 1920 + 10*i
		cons := 9 - i
		inn := 1 + i
		speaker := speakers[i/3]
		row, err := variants.NewRawObservationRow(speaker, year, "f", cons, inn, Origin)
		if err != nil {
			panic(fmt.Sprintf("testkit: bad declining fixture: %v", err))
		}
		rows = append(rows, row)
	}
	return rows
}

// DecliningObservations is the expanded form of DecliningVariable.
func DecliningObservations() []variants.ExpandedObservation {
	return variants.Expand(DecliningVariable())
}

// DecliningCSV returns the declining fixture as raw table records, header
// included, suitable for writing a loader fixture.
func DecliningCSV() [][]string {
	recs := [][]string{{"speaker", "year", "gender", "cons", "inn"}}
	for _, r := range DecliningVariable() {
		recs = append(recs, []string{
			r.Speaker,
			fmt.Sprintf("%d", r.Year),
			r.Gender,
			fmt.Sprintf("%d", r.Cons),
			fmt.Sprintf("%d", r.Inn),
		})
	}
	return recs
}

// AllZeroCSV returns a degenerate table whose every row carries zero tokens.
// Loading it must surface a data error, never a fitted model.
func AllZeroCSV() [][]string {
	return [][]string{
		{"speaker", "year", "gender", "cons", "inn"},
		{"akf1937", "1937", "f", "0", "0"},
		{"nnb1938", "1938", "f", "0", "0"},
		{"osg1961", "1961", "m", "0", "0"},
	}
}

// WriteCSV writes raw records to path, creating the file.
func WriteCSV(path string, records [][]string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.WriteAll(records); err != nil {
		return err
	}
	w.Flush()
	return w.Error()
}
