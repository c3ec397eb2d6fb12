package csvsink

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"sync"

	"github.com/FranksOps/ingot/internal/record"
)

// ensure csvSink implements record.Sink
var _ record.Sink = (*csvSink)(nil)

type csvSink struct {
	mu   sync.Mutex
	file *os.File
	w    *csv.Writer
}

// New creates a CSV-backed record.Sink. The header row is written when the
// file is empty so that re-running against an existing export appends rows
// without duplicating the header.
func New(filePath string) (record.Sink, error) {
	f, err := os.OpenFile(filePath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return nil, fmt.Errorf("open csv export: %w", err)
	}

	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("stat csv export: %w", err)
	}

	w := csv.NewWriter(f)
	if info.Size() == 0 {
		if err := w.Write(record.Fields); err != nil {
			f.Close()
			return nil, fmt.Errorf("write csv header: %w", err)
		}
		w.Flush()
		if err := w.Error(); err != nil {
			f.Close()
			return nil, fmt.Errorf("flush csv header: %w", err)
		}
	}

	return &csvSink{file: f, w: w}, nil
}

func (s *csvSink) Write(ctx context.Context, b *record.Business) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.w.Write(b.Row()); err != nil {
		return fmt.Errorf("write csv row: %w", err)
	}
	s.w.Flush()
	if err := s.w.Error(); err != nil {
		return fmt.Errorf("flush csv row: %w", err)
	}
	return nil
}

func (s *csvSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.w.Flush()
	if err := s.w.Error(); err != nil {
		s.file.Close()
		return fmt.Errorf("flush csv: %w", err)
	}
	return s.file.Close()
}
