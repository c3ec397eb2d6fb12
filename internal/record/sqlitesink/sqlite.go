package sqlitesink

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/FranksOps/ingot/internal/record"
	_ "modernc.org/sqlite"
)

// ensure sqliteSink implements record.Sink
var _ record.Sink = (*sqliteSink)(nil)

type sqliteSink struct {
	db *sql.DB
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
	collected_at DATETIME NOT NULL
);
`

// New creates a SQLite-backed record.Sink.
func New(dsn string) (record.Sink, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}
	return &sqliteSink{db: db}, nil
}

func (s *sqliteSink) Write(ctx context.Context, b *record.Business) error {
	query := `
	INSERT INTO businesses (
		id, name, phone, email, website, address, city, state, country, description, materials, services, collected_at
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := s.db.ExecContext(ctx, query,
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

func (s *sqliteSink) Close() error {
	return s.db.Close()
}
