package main

import (
	"context"
	"fmt"

	"balance-transfer-api/config"
	memStorage "balance-transfer-api/internal/adapter/storage/memory"
	pgStorage "balance-transfer-api/internal/adapter/storage/postgres"
	"balance-transfer-api/internal/core/ports"

	"github.com/rs/zerolog"
)

// userStore bundles the user store ports with what /health checks and what
// shutdown closes.
type userStore struct {
	users      ports.UserRepository
	transactor ports.DBTransactor
	health     []ports.HealthChecker
	close      func()
}

func openUserStore(ctx context.Context, cfg config.DatabaseConfig, log zerolog.Logger) (*userStore, error) {
	switch cfg.Driver {
	case config.DriverMemory:
		log.Warn().Msg("Using in-memory user store, data is lost on exit")
		repo := memStorage.NewUserRepo()
		return &userStore{
			users:      repo,
			transactor: memStorage.NewTransactor(repo),
			close:      func() {},
		}, nil

	case config.DriverPostgres, "":
		pool, err := pgStorage.NewPool(ctx, cfg, log)
		if err != nil {
			return nil, err
		}
		if cfg.AutoMigrate {
			if err := pgStorage.Migrate(ctx, pool); err != nil {
				pool.Close()
				return nil, fmt.Errorf("apply migrations: %w", err)
			}
			log.Info().Msg("Migrations applied")
		}
		return &userStore{
			users:      pgStorage.NewUserRepo(pool),
			transactor: pgStorage.NewTransactor(pool),
			health:     []ports.HealthChecker{pgStorage.NewHealthCheck(pool)},
			close:      pool.Close,
		}, nil

	default:
		return nil, fmt.Errorf("unknown database driver %q", cfg.Driver)
	}
}
