// Package app initializes every component of the service. app.go is the
// assembly point: database pool, migrations, repositories, services,
// handlers, HTTP server and scheduler, in dependency order.
package app

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"docsafe.com.br/affiliate-service/internal/config"
	"docsafe.com.br/affiliate-service/internal/db/postgres"
	"docsafe.com.br/affiliate-service/internal/features/affiliates"
	"docsafe.com.br/affiliate-service/internal/features/commission"
	"docsafe.com.br/affiliate-service/internal/features/ledger"
	"docsafe.com.br/affiliate-service/internal/features/plans"
	"docsafe.com.br/affiliate-service/internal/features/withdrawals"
	"docsafe.com.br/affiliate-service/internal/jobs"
	"docsafe.com.br/affiliate-service/internal/server"
)

// App holds the long-lived components the entrypoint manages.
type App struct {
	Server    *server.Server
	Scheduler *jobs.Scheduler
	DB        *pgxpool.Pool
}

// New creates and wires the application. Initialization order matters:
// pool → migrations → repositories → services → handlers → server/scheduler.
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	pool, err := postgres.NewPool(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("connecting to database: %w", err)
	}

	if err := runMigrations(ctx, pool); err != nil {
		pool.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	// Repositories.
	planRepo := plans.NewRepository(pool)
	affiliateRepo := affiliates.NewRepository(pool)
	ledgerRepo := ledger.NewRepository(pool)
	commissionRepo := commission.NewRepository(pool)

	// Services.
	affiliateService := affiliates.NewService(affiliateRepo, ledgerRepo, cfg)
	commissionService := commission.NewService(commissionRepo, ledgerRepo, affiliateRepo, planRepo, cfg.Location())
	withdrawalService := withdrawals.NewService(affiliateRepo, ledgerRepo)

	// Handlers.
	affiliateHandler := affiliates.NewHandler(affiliateService)
	commissionHandler := commission.NewHandler(commissionService)
	withdrawalHandler := withdrawals.NewHandler(withdrawalService)
	planHandler := plans.NewHandler(planRepo)

	srv := server.New(cfg, pool, affiliateHandler, commissionHandler, withdrawalHandler, planHandler)
	scheduler := jobs.NewScheduler(cfg, commissionService, ledgerRepo)

	return &App{
		Server:    srv,
		Scheduler: scheduler,
		DB:        pool,
	}, nil
}
