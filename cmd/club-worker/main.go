package main

import (
	"context"
	"errors"
	"os"
	"time"

	"clubledger/internal/amqp"
	"clubledger/internal/cli"
	"clubledger/internal/export"
	"clubledger/internal/services"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger()
	logger.Info("Starting club-worker")

	cfg := cli.LoadAndValidateConfig(logger)
	if !cfg.ExportEnabled() {
		logger.Error("AMQP_URL is required for the export worker")
		os.Exit(1)
	}

	// The worker reads the same store the server writes; reports are
	// assembled from whatever the collections say at handle time.
	st := cli.OpenStore(logger, cfg)
	defer st.Close()
	svc := services.NewClubService(st, nil)

	var writer export.ReportWriter
	if cfg.GoogleSpreadsheetID != "" {
		gw, err := export.NewGoogleWriterFromEnv(context.Background())
		if err != nil {
			logger.Error("Failed to initialize Google Sheets writer", "error", err)
			os.Exit(1)
		}
		writer = gw
		logger.Info("Google Sheets writer initialized", "spreadsheet_id", cfg.GoogleSpreadsheetID)
	} else {
		writer = export.NewMemoryWriter()
		logger.Info("No spreadsheet configured, exports are kept in memory")
	}

	amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		logger.Error("Failed to initialize AMQP client", "error", err)
		os.Exit(1)
	}
	defer amqpClient.Close()

	worker := export.NewWorker(svc, writer)

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, nil)

	go func() {
		err := amqpClient.ConsumeYearExports(ctx, func(msg *amqp.YearExportMessage) error {
			handleCtx, cancel := context.WithTimeout(ctx, time.Minute)
			defer cancel()
			return worker.HandleExportMessage(handleCtx, msg)
		})
		if err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("Message consumption failed", "error", err)
		}
	}()

	cli.WaitForShutdown(ctx, done)
}
