package sqlitesink

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"github.com/FranksOps/ingot/internal/record"
	_ "modernc.org/sqlite"
)

func TestWriteAndReadBack(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.db")

	sink, err := New(path)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	b := &record.Business{
		ID:          "r1",
		Name:        "Birmingham Steel Recycling",
		Phone:       "(205) 555-0171",
		Email:       "office@bhamsteel.example",
		Website:     "https://bhamsteel.example",
		City:        "Birmingham",
		State:       "AL",
		Country:     "United States",
		Materials:   "steel, iron",
		CollectedAt: time.Date(2026, 2, 10, 8, 30, 0, 0, time.UTC),
	}
	if err := sink.Write(context.Background(), b); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if err := sink.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer db.Close()

	var name, phone, state string
	row := db.QueryRow(`SELECT name, phone, state FROM businesses WHERE id = ?`, "r1")
	if err := row.Scan(&name, &phone, &state); err != nil {
		t.Fatalf("scan: %v", err)
	}
	if name != b.Name || phone != b.Phone || state != "AL" {
		t.Errorf("unexpected row: %s / %s / %s", name, phone, state)
	}
}

func TestDuplicateIDRejected(t *testing.T) {
	sink, err := New(filepath.Join(t.TempDir(), "out.db"))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer sink.Close()

	b := &record.Business{ID: "dup", Name: "x", Website: "https://x.example"}
	if err := sink.Write(context.Background(), b); err != nil {
		t.Fatalf("first Write: %v", err)
	}
	if err := sink.Write(context.Background(), b); err == nil {
		t.Error("expected primary key violation on duplicate id")
	}
}
