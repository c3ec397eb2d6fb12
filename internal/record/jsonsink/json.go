package jsonsink

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sync"

	"github.com/FranksOps/ingot/internal/record"
)

// ensure jsonSink implements record.Sink
var _ record.Sink = (*jsonSink)(nil)

// jsonSink appends one JSON object per line (NDJSON), which keeps exports
// streamable and append-safe across runs.
type jsonSink struct {
	mu   sync.Mutex
	file *os.File
}

// New creates an NDJSON-backed record.Sink.
func New(filePath string) (record.Sink, error) {
	f, err := os.OpenFile(filePath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return nil, fmt.Errorf("open json export: %w", err)
	}
	return &jsonSink{file: f}, nil
}

func (s *jsonSink) Write(ctx context.Context, b *record.Business) error {
	data, err := json.Marshal(b)
	if err != nil {
		return fmt.Errorf("marshal record: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.file.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("append record: %w", err)
	}
	return nil
}

func (s *jsonSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.file.Close()
}
