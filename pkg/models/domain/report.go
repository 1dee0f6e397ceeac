package domain

import (
	"fmt"
	"math"
	"time"
)

// ReportRecord is the complete input to rendering. It is built once per
// request by the assembler, satisfies the survey and batch invariants by
// construction, and is discarded after the document bytes are produced.
type ReportRecord struct {
	ProjectTitle string
	SiteAddress  string
	Visitor      string
	VisitDate    time.Time

	// CapturedAt is the submission time in the configured zone. Always rendered.
	CapturedAt time.Time

	Temperature Temperature

	// Summary is free-form multi-line text. Line breaks are significant
	// and preserved; lines are not re-wrapped.
	Summary string

	// Survey holds the canonical questions in canonical order.
	Survey []SurveyEntry

	// Batches holds up to MaxBatches image batches of up to BatchSize
	// images each, in upload order.
	Batches []ImageBatch
}

// Temperature is an optional ambient reading in degrees Fahrenheit.
type Temperature struct {
	DegreesF float64
	Valid    bool
}

func (t Temperature) String() string {
	if !t.Valid {
		return "N/A"
	}
	return fmt.Sprintf("%d°F", int(math.Round(t.DegreesF)))
}

// OutputFilename returns the download filename for a report captured at t,
// e.g. SiteVisit_20250601_143005.pdf.
func OutputFilename(t time.Time) string {
	return "SiteVisit_" + t.Format("20060102_150405") + ".pdf"
}
