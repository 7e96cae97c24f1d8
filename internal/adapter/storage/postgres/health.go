package postgres

import (
	"context"
	"fmt"
)

// HealthCheck reports whether the user store answers pings.
type HealthCheck struct {
	pool Pool
}

// NewHealthCheck creates a PostgreSQL health checker.
func NewHealthCheck(pool Pool) *HealthCheck {
	return &HealthCheck{pool: pool}
}

// Name returns the dependency name.
func (h *HealthCheck) Name() string { return "postgres" }

// Ping checks PostgreSQL connectivity.
func (h *HealthCheck) Ping(ctx context.Context) error {
	if err := h.pool.Ping(ctx); err != nil {
		return fmt.Errorf("user store unreachable: %w", err)
	}
	return nil
}
