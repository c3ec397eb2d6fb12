package xlsxsink

import (
	"context"
	"fmt"
	"sync"

	"github.com/FranksOps/ingot/internal/record"
	"github.com/xuri/excelize/v2"
)

// ensure xlsxSink implements record.Sink
var _ record.Sink = (*xlsxSink)(nil)

const sheet = "Businesses"

// xlsxSink buffers rows in an excelize workbook and writes the file on Close.
// Unlike the CSV/NDJSON sinks it is not append-safe across runs; each run
// produces a fresh workbook.
type xlsxSink struct {
	mu   sync.Mutex
	path string
	file *excelize.File
	row  int
}

// New creates a spreadsheet-backed record.Sink writing to filePath on Close.
func New(filePath string) (record.Sink, error) {
	f := excelize.NewFile()
	idx, err := f.NewSheet(sheet)
	if err != nil {
		return nil, fmt.Errorf("create sheet: %w", err)
	}
	f.SetActiveSheet(idx)
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return nil, fmt.Errorf("drop default sheet: %w", err)
	}

	header := make([]interface{}, len(record.Fields))
	for i, h := range record.Fields {
		header[i] = h
	}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return nil, fmt.Errorf("write header row: %w", err)
	}

	return &xlsxSink{path: filePath, file: f, row: 1}, nil
}

func (s *xlsxSink) Write(ctx context.Context, b *record.Business) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.row++
	cell, err := excelize.CoordinatesToCellName(1, s.row)
	if err != nil {
		return fmt.Errorf("cell name: %w", err)
	}

	cols := b.Row()
	vals := make([]interface{}, len(cols))
	for i, c := range cols {
		vals[i] = c
	}
	if err := s.file.SetSheetRow(sheet, cell, &vals); err != nil {
		return fmt.Errorf("write row %d: %w", s.row, err)
	}
	return nil
}

func (s *xlsxSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.file.SaveAs(s.path); err != nil {
		s.file.Close()
		return fmt.Errorf("save workbook: %w", err)
	}
	return s.file.Close()
}
