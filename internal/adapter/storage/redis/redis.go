package redis

import (
	"context"
	"fmt"
	"time"

	"balance-transfer-api/config"

	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

const (
	clientName  = "balance-transfer-api"
	dialTimeout = 3 * time.Second
	// Rate limit lookups sit on the request path; fail fast and let the
	// middleware degrade open.
	ioTimeout = 500 * time.Millisecond
)

// NewClient connects to the Redis instance backing the rate limiter. The
// client is closed again when the first ping fails.
func NewClient(ctx context.Context, cfg config.RedisConfig, log zerolog.Logger) (*goredis.Client, error) {
	client := goredis.NewClient(&goredis.Options{
		Addr:         cfg.Addr(),
		Password:     cfg.Password,
		DB:           cfg.DB,
		ClientName:   clientName,
		DialTimeout:  dialTimeout,
		ReadTimeout:  ioTimeout,
		WriteTimeout: ioTimeout,
	})

	pingCtx, cancel := context.WithTimeout(ctx, dialTimeout)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping rate limit store: %w", err)
	}

	log.Info().Str("addr", cfg.Addr()).Int("db", cfg.DB).Msg("rate limit store connected")

	return client, nil
}
