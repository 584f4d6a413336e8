package export

import (
	"fmt"
	"os"
	"strings"
	"time"

	"dialectloss/domain/variants"

	"github.com/gomarkdown/markdown"
)

// ReportVariable is one variable's line in the run report.
type ReportVariable struct {
	ID      string
	OK      bool
	Stage   string // stage reached when the variable failed
	Err     string
	Summary variants.Summary
	Row     *SummaryRow // nil for failed variables
}

// BuildReport assembles the markdown run report: manifest header plus one
// section per variable with its headline numbers or its failure cause.
func BuildReport(runID string, started time.Time, duration time.Duration, vars []ReportVariable) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# Dialect loss analysis run\n\n")
	fmt.Fprintf(&b, "- run: `%s`\n", runID)
	fmt.Fprintf(&b, "- started: %s\n", started.Format(time.RFC3339))
	fmt.Fprintf(&b, "- duration: %s\n", duration.Round(time.Millisecond))

	ok, failed := 0, 0
	for _, v := range vars {
		if v.OK {
			ok++
		} else {
			failed++
		}
	}
	fmt.Fprintf(&b, "- variables: %d completed, %d failed\n\n", ok, failed)

	for _, v := range vars {
		fmt.Fprintf(&b, "## %s\n\n", v.ID)
		if !v.OK {
			fmt.Fprintf(&b, "**failed** at stage `%s`: %s\n\n", v.Stage, v.Err)
			continue
		}
		s := v.Summary
		fmt.Fprintf(&b, "- %d speakers, %d rows, %d tokens, birth years %d-%d\n",
			s.Speakers, s.Rows, s.Tokens, s.MinYear, s.MaxYear)
		fmt.Fprintf(&b, "- mean conservative proportion %.3f (median %.3f)\n", s.MeanProp, s.MedianProp)
		if v.Row != nil {
			r := v.Row
			fmt.Fprintf(&b, "- slope %s per year [%s, %s]\n",
				num(r.Slope.Estimate), num(r.Slope.Lower), num(r.Slope.Upper))
			fmt.Fprintf(&b, "- probability at origin year %s [%s, %s]\n",
				num(r.OriginProb.Estimate), num(r.OriginProb.Lower), num(r.OriginProb.Upper))
			fmt.Fprintf(&b, "- turning point %s [%s, %s]\n",
				crossing(r.Turning.Estimate), crossing(r.Turning.Lower), crossing(r.Turning.Upper))
			fmt.Fprintf(&b, "- random-intercept SD %s\n", num(r.RandSD))
		}
		b.WriteString("\n")
	}

	return b.String()
}

// WriteHTMLReport renders the markdown report to an HTML file.
func WriteHTMLReport(path, md string) error {
	html := markdown.ToHTML([]byte(md), nil, nil)
	if err := os.WriteFile(path, html, 0o644); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	return nil
}
