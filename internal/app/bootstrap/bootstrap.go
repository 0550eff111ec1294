package bootstrap

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	claimservice "github.com/Karaton-Surakarta/masa-token-lock/contexts/token-distribution/claim-service"
	"github.com/Karaton-Surakarta/masa-token-lock/contexts/token-distribution/claim-service/adapters/memory"
	postgresadapter "github.com/Karaton-Surakarta/masa-token-lock/contexts/token-distribution/claim-service/adapters/postgres"
	workerapp "github.com/Karaton-Surakarta/masa-token-lock/contexts/token-distribution/claim-service/application/workers"
	"github.com/Karaton-Surakarta/masa-token-lock/contexts/token-distribution/claim-service/domain/entities"
	commitmentservice "github.com/Karaton-Surakarta/masa-token-lock/contexts/token-distribution/commitment-service"
	"github.com/Karaton-Surakarta/masa-token-lock/internal/platform/config"
	"github.com/Karaton-Surakarta/masa-token-lock/internal/platform/db"
	"github.com/Karaton-Surakarta/masa-token-lock/internal/platform/httpserver"
	"github.com/Karaton-Surakarta/masa-token-lock/internal/platform/messaging"
)

// Package bootstrap is the composition root.
// Keep construction/wiring here so module code stays framework-agnostic.

type APIApp struct {
	server   *httpserver.Server
	postgres *db.Postgres
	logger   *slog.Logger
}

type WorkerApp struct {
	postgres     *db.Postgres
	outboxRelay  workerapp.OutboxRelay
	pollInterval time.Duration
	logger       *slog.Logger
}

// BuildAPI wires the claim verifier and commitment builder behind one HTTP
// server. With POSTGRES_DSN set the distributor state lives in Postgres;
// without it everything runs on in-memory adapters, which is the mode the
// local compose file and the tests use.
func BuildAPI(ctx context.Context) (*APIApp, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	logger := slog.Default().With("service", cfg.ServiceName, "process", "api")

	distributor := entities.DistributorConfig{
		TokenAddress:  cfg.TokenAddress,
		Administrator: cfg.Administrator,
		Root:          cfg.InitialRoot,
		Threshold:     cfg.InitialThreshold,
	}

	var (
		pg          *db.Postgres
		claimModule claimservice.Module
	)
	if strings.TrimSpace(cfg.PostgresDSN) != "" {
		pg, err = db.Connect(cfg.PostgresDSN)
		if err != nil {
			return nil, err
		}
		if err := postgresadapter.Migrate(pg.DB); err != nil {
			return nil, err
		}

		repo := postgresadapter.NewRepository(pg.DB, logger)
		if err := repo.EnsureConfig(ctx, distributor); err != nil {
			return nil, err
		}

		// The vault models the external token ledger; it stays in-process
		// until the on-chain transfer adapter lands.
		vault := memory.NewVault()
		vault.Deposit(cfg.TokenAddress, cfg.VaultBalance)

		claimModule = claimservice.NewModule(claimservice.Dependencies{
			Repository: repo,
			Vault:      vault,
			Clock:      postgresadapter.SystemClock{},
			IDGen:      postgresadapter.UUIDGenerator{},
			Outbox:     repo,
			Logger:     logger,
		})
	} else {
		claimModule, err = claimservice.NewInMemoryModule(distributor, cfg.VaultBalance, logger)
		if err != nil {
			return nil, err
		}
	}

	commitmentModule := commitmentservice.NewModule(commitmentservice.Dependencies{
		Logger: logger,
	})

	server := httpserver.New(claimModule, commitmentModule, logger, normalizeAddr(cfg.HTTPPort))
	return &APIApp{
		server:   server,
		postgres: pg,
		logger:   logger,
	}, nil
}

// BuildWorker wires the outbox relay that drains pending distributor events
// to the event bus. It requires Postgres; the in-memory mode publishes
// nothing durable to relay.
func BuildWorker() (*WorkerApp, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	logger := slog.Default().With("service", cfg.ServiceName, "process", "worker")
	if strings.TrimSpace(cfg.PostgresDSN) == "" {
		return nil, errors.New("POSTGRES_DSN is required")
	}

	pg, err := db.Connect(cfg.PostgresDSN)
	if err != nil {
		return nil, err
	}

	kafka, err := messaging.NewKafka(cfg.KafkaBrokers, logger)
	if err != nil {
		return nil, err
	}

	repo := postgresadapter.NewRepository(pg.DB, logger)
	return &WorkerApp{
		postgres: pg,
		outboxRelay: workerapp.OutboxRelay{
			Outbox:    repo,
			Publisher: kafka,
			Clock:     postgresadapter.SystemClock{},
			Topic:     cfg.EventTopic,
			BatchSize: 100,
			Logger:    logger,
		},
		pollInterval: 2 * time.Second,
		logger:       logger,
	}, nil
}

func (a *APIApp) Run(_ context.Context) error {
	if a.logger != nil {
		a.logger.Info("api app started",
			"event", "bootstrap_api_started",
			"module", "internal/app/bootstrap",
			"layer", "platform",
		)
	}
	return a.server.Start()
}

func (a *APIApp) Close() error {
	if a.postgres != nil {
		return a.postgres.Close()
	}
	return nil
}

func (w *WorkerApp) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.pollInterval)
	defer ticker.Stop()

	w.logger.Info("worker app started",
		"event", "bootstrap_worker_started",
		"module", "internal/app/bootstrap",
		"layer", "platform",
		"poll_interval", w.pollInterval.String(),
	)

	for {
		if err := w.outboxRelay.RunOnce(ctx); err != nil {
			return err
		}
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

func (w *WorkerApp) Close() error {
	if w.postgres != nil {
		return w.postgres.Close()
	}
	return nil
}

func normalizeAddr(port string) string {
	value := strings.TrimSpace(port)
	if value == "" {
		return ":8080"
	}
	if strings.HasPrefix(value, ":") {
		return value
	}
	return ":" + value
}
