package export

import (
	"context"
	"fmt"
	"log/slog"

	"clubledger/internal/amqp"
	"clubledger/internal/services"
)

// Worker processes year export messages: it loads the current
// collections, assembles the year-end report and hands it to the
// writer. The message carries only the fiscal year id, so replayed or
// delayed messages still export current data.
type Worker struct {
	svc    *services.ClubService
	writer ReportWriter
}

func NewWorker(svc *services.ClubService, writer ReportWriter) *Worker {
	return &Worker{svc: svc, writer: writer}
}

// HandleExportMessage processes a single export request. An error
// leaves the message for redelivery.
func (w *Worker) HandleExportMessage(ctx context.Context, msg *amqp.YearExportMessage) error {
	rep, err := w.svc.YearReport(ctx, msg.FiscalYearID)
	if err != nil {
		return fmt.Errorf("build year report: %w", err)
	}

	ref, err := w.writer.WriteYearReport(ctx, rep)
	if err != nil {
		return fmt.Errorf("write year report: %w", err)
	}

	slog.InfoContext(ctx, "Exported year report",
		"fiscal_year_id", msg.FiscalYearID,
		"ref", ref,
		"balance", rep.Balance.Yen())
	return nil
}
