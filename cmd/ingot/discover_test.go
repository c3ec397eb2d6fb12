package main

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	_ "modernc.org/sqlite"

	"github.com/FranksOps/ingot/internal/config"
	"github.com/FranksOps/ingot/internal/record"
)

func TestWriteRecordsAfterCancellation(t *testing.T) {
	path := filepath.Join(t.TempDir(), "partial.db")
	cfg, err := config.Load("")
	if err != nil {
		t.Fatal(err)
	}
	cfg.Output.Format = "sqlite"
	cfg.Output.Path = path

	records := []*record.Business{
		{ID: "r1", Name: "Akron Scrap", Phone: "(330) 555-0187",
			Website: "https://akron.example.com/contact", CollectedAt: time.Now().UTC()},
		{ID: "r2", Name: "Dallas Metals", Email: "info@dallas.example.com",
			Website: "https://dallas.example.com/", CollectedAt: time.Now().UTC()},
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel() // interrupted run

	if err := writeRecords(ctx, cfg, records); err != nil {
		t.Fatalf("partial flush failed after cancellation: %v", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()

	var count int
	if err := db.QueryRow("SELECT COUNT(*) FROM businesses").Scan(&count); err != nil {
		t.Fatalf("read back: %v", err)
	}
	if count != len(records) {
		t.Errorf("persisted %d records, want %d", count, len(records))
	}
}

func TestOpenSinkUnknownFormat(t *testing.T) {
	cfg, err := config.Load("")
	if err != nil {
		t.Fatal(err)
	}
	cfg.Output.Format = "parquet"
	if _, err := openSink(context.Background(), cfg); err == nil {
		t.Fatal("expected an error for an unsupported format")
	}
}
