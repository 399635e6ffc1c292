package export

import (
	"context"
	"fmt"
	"sync"

	"clubledger/internal/report"
)

// MemoryWriter collects reports in memory. Used in tests and when no
// spreadsheet is configured.
type MemoryWriter struct {
	mu      sync.Mutex
	reports []report.YearReport
}

var _ ReportWriter = (*MemoryWriter)(nil)

func NewMemoryWriter() *MemoryWriter {
	return &MemoryWriter{}
}

func (w *MemoryWriter) WriteYearReport(_ context.Context, rep report.YearReport) (string, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.reports = append(w.reports, rep)
	return fmt.Sprintf("memory://reports/%d", len(w.reports)-1), nil
}

// Reports returns a copy of everything written so far.
func (w *MemoryWriter) Reports() []report.YearReport {
	w.mu.Lock()
	defer w.mu.Unlock()
	out := make([]report.YearReport, len(w.reports))
	copy(out, w.reports)
	return out
}
