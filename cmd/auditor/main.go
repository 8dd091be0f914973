package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	natsadapter "areascope/internal/adapters/nats"
	"areascope/internal/adapters/postgres"
	"areascope/internal/core/domain"
	"areascope/internal/pkg/config"
	"areascope/internal/pkg/logging"
)

// The auditor consumes the durable area event stream and appends every
// mutation to the Postgres audit table. It runs separately from the API so
// history writes never sit on the mutation path; the JetStream consumer is
// durable, so a restart resumes without losing events.
func main() {
	cfg, err := config.Load("areascope-auditor")
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logLevel := os.Getenv("LOG_LEVEL")
	if logLevel == "" {
		logLevel = "info"
	}
	logging.Setup("areascope-auditor", logLevel, "json")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	db, err := postgres.New(ctx, cfg.Database.DSN())
	if err != nil {
		log.Fatalf("db: %v", err)
	}
	defer db.Close()

	history := postgres.NewAreaHistoryRepo(db)
	if err := history.EnsureSchema(ctx); err != nil {
		log.Fatalf("ensure schema: %v", err)
	}

	sub, err := natsadapter.NewSubscriber(cfg.NATS.URL)
	if err != nil {
		log.Fatalf("nats: %v", err)
	}
	defer sub.Close()

	err = sub.SubscribeAreaEvents(ctx, "audit-writer", func(ctx context.Context, ev domain.AreaEvent) error {
		if err := history.Insert(ctx, ev); err != nil {
			slog.Error("audit insert", "error", err, "type", ev.Type, "id", ev.ID)
			return err
		}
		slog.Debug("audited", "type", ev.Type, "id", ev.ID)
		return nil
	})
	if err != nil {
		log.Fatalf("subscribe: %v", err)
	}

	slog.Info("auditor running")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	slog.Info("shutting down", "signal", sig.String())
	cancel()
}
