// Package export turns year-end reports into external documents. The
// worker consumes export requests and hands the assembled report to a
// ReportWriter.
package export

import (
	"context"

	"clubledger/internal/report"
)

// ReportWriter is the outbound port for rendered year-end reports.
type ReportWriter interface {
	// WriteYearReport renders the report and returns a reference to
	// where it landed (sheet range, file path).
	WriteYearReport(ctx context.Context, rep report.YearReport) (ref string, err error)
}
