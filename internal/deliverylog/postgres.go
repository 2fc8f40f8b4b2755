package deliverylog

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresLog implements Log on a pgx connection pool, sized for a
// moderate write rate of append-only attempt records.
type PostgresLog struct {
	pool *pgxpool.Pool
}

// NewPostgres opens a pool against dsn and verifies it with a Ping.
func NewPostgres(ctx context.Context, dsn string) (*PostgresLog, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("deliverylog: parsing dsn: %w", err)
	}
	cfg.MaxConns = 20
	cfg.MinConns = 2
	cfg.MaxConnLifetime = time.Hour

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("deliverylog: opening pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		return nil, fmt.Errorf("deliverylog: ping: %w", err)
	}
	return &PostgresLog{pool: pool}, nil
}

// Close releases the pool.
func (p *PostgresLog) Close() { p.pool.Close() }

const insertAttempt = `
	INSERT INTO delivery_attempts (id, device_id, provider, outcome, detail, attempted_at)
	VALUES ($1, $2, $3, $4, $5, $6)
`

func (p *PostgresLog) Record(ctx context.Context, a Attempt) error {
	if a.AttemptedAt.IsZero() {
		a.AttemptedAt = time.Now()
	}
	_, err := p.pool.Exec(ctx, insertAttempt, a.ID, a.DeviceID, a.Provider, a.Outcome, a.Detail, a.AttemptedAt)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrWriteFailed, err)
	}
	return nil
}
