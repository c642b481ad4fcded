package main

import (
	"context"
	"errors"
	"os"
	"time"

	"golang.org/x/sync/errgroup"

	"fintrack/internal/amqp"
	"fintrack/internal/cli"
	"fintrack/internal/config"
	"fintrack/internal/log"
	"fintrack/internal/sheets"
	gsheet "fintrack/internal/sheets/google"
	mem "fintrack/internal/sheets/memory"
	"fintrack/internal/worker"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(os.Getenv("LOG_LEVEL"), log.ComponentWorker)
	cfg := cli.LoadConfig(logger, false)

	logger.Info("Starting fintrack-worker", "journal", cfg.JournalBackend)

	repo := cli.InitSQLite(logger, cfg.SQLiteDBPath)
	defer repo.Close()

	journal, err := openJournal(context.Background(), cfg)
	if err != nil {
		logger.Error("Failed to initialize journal", log.FieldError, err, "backend", cfg.JournalBackend)
		os.Exit(1)
	}

	journalWorker := worker.NewJournalWorker(repo, journal)
	journalWorker.SetMaxAttempts(cfg.ReplayMaxAttempts)
	replayer := worker.NewReplayer(journalWorker, worker.ReplayConfig{
		PollInterval: cfg.ReplayInterval,
		BatchSize:    cfg.ReplayBatchSize,
	})

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, func(ctx context.Context) {
		if err := replayer.Stop(ctx); err != nil {
			logger.Warn("Replayer stop", log.FieldError, err)
		}
	})
	ctx = log.WithLogger(ctx, logger)
	structured := log.NewStructuredLogger(logger)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if err := replayer.Start(gctx); err != nil {
			return err
		}
		<-gctx.Done()
		return nil
	})

	if cfg.AMQPURL != "" {
		client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Error("Failed to initialize AMQP client", log.FieldError, err)
			os.Exit(1)
		}
		defer client.Close()

		g.Go(func() error {
			err := client.ConsumeTransactionEvents(gctx, journalWorker.HandleMessage)
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		})
	} else {
		logger.Info("AMQP_URL not set, journaling from the outbox replay loop only")
	}

	if err := g.Wait(); err != nil {
		structured.LogError(ctx, "Worker stopped with error", err, log.ComponentWorker, log.OpReplay, nil)
		os.Exit(1)
	}
	<-done
}

func openJournal(ctx context.Context, cfg *config.Config) (sheets.JournalWriter, error) {
	switch cfg.JournalBackend {
	case config.JournalSheets:
		return gsheet.New(ctx, cfg.GoogleSpreadsheetID, cfg.GoogleSheetName)
	default:
		return mem.New(), nil
	}
}
