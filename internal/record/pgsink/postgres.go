package pgsink

import (
	"context"
	"fmt"

	"github.com/FranksOps/ingot/internal/record"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ensure pgSink implements record.Sink
var _ record.Sink = (*pgSink)(nil)

type pgSink struct {
	pool *pgxpool.Pool
}

const schema = `
CREATE TABLE IF NOT EXISTS businesses (
	id TEXT PRIMARY KEY,
	name TEXT NOT NULL,
	phone TEXT,
	email TEXT,
	website TEXT NOT NULL,
	address TEXT,
	city TEXT,
	state TEXT,
	country TEXT,
	description TEXT,
	materials TEXT,
	services TEXT,
	collected_at TIMESTAMPTZ NOT NULL
);
`

// New creates a Postgres-backed record.Sink.
func New(ctx context.Context, dsn string) (record.Sink, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	if _, err := pool.Exec(ctx, schema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}
	return &pgSink{pool: pool}, nil
}

func (s *pgSink) Write(ctx context.Context, b *record.Business) error {
	query := `
	INSERT INTO businesses (
		id, name, phone, email, website, address, city, state, country, description, materials, services, collected_at
	) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`

	_, err := s.pool.Exec(ctx, query,
		b.ID,
		b.Name,
		b.Phone,
		b.Email,
		b.Website,
		b.Address,
		b.City,
		b.State,
		b.Country,
		b.Description,
		b.Materials,
		b.Services,
		b.CollectedAt,
	)
	if err != nil {
		return fmt.Errorf("insert business: %w", err)
	}
	return nil
}

func (s *pgSink) Close() error {
	s.pool.Close()
	return nil
}
