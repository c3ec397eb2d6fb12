package csvsink

import (
	"context"
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/FranksOps/ingot/internal/record"
)

func TestWriteAndHeader(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.csv")

	sink, err := New(path)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	b := &record.Business{
		ID:          "r1",
		Name:        "Cleveland Metal Recovery",
		Phone:       "(216) 555-0107",
		Website:     "https://clevelandmetal.example",
		Country:     "United States",
		CollectedAt: time.Date(2026, 1, 5, 9, 0, 0, 0, time.UTC),
	}
	if err := sink.Write(context.Background(), b); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if err := sink.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer f.Close()

	rows, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatalf("read csv: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected header + 1 row, got %d rows", len(rows))
	}
	if rows[0][0] != "id" || rows[0][1] != "name" {
		t.Errorf("unexpected header: %v", rows[0][:2])
	}
	if rows[1][1] != "Cleveland Metal Recovery" {
		t.Errorf("unexpected name column: %s", rows[1][1])
	}
}

func TestAppendDoesNotDuplicateHeader(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.csv")

	for i := 0; i < 2; i++ {
		sink, err := New(path)
		if err != nil {
			t.Fatalf("New: %v", err)
		}
		if err := sink.Write(context.Background(), &record.Business{ID: "r", Name: "x"}); err != nil {
			t.Fatalf("Write: %v", err)
		}
		if err := sink.Close(); err != nil {
			t.Fatalf("Close: %v", err)
		}
	}

	f, _ := os.Open(path)
	defer f.Close()
	rows, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatalf("read csv: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("expected 1 header + 2 rows, got %d", len(rows))
	}
}
