// Package report summarizes a collection run for humans and dashboards.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"text/template"
	"time"

	"github.com/FranksOps/ingot/internal/collect"
	"github.com/FranksOps/ingot/internal/record"
)

// Summary contains aggregated metrics about one collection run.
type Summary struct {
	Country    string
	Target     int
	Collected  int
	WithPhone  int
	WithEmail  int
	ByState    map[string]int
	Candidates int
	Refills    int
	Unusable   int
	NoContact  int
	StartTime  time.Time
	EndTime    time.Time
	Duration   time.Duration
}

// GenerateSummary aggregates the run's records and loop counters.
func GenerateSummary(country string, target int, records []*record.Business, stats collect.Stats, start, end time.Time) Summary {
	s := Summary{
		Country:    country,
		Target:     target,
		Collected:  len(records),
		ByState:    make(map[string]int),
		Candidates: stats.Candidates,
		Refills:    stats.Refills,
		Unusable:   stats.Unusable,
		NoContact:  stats.NoContact,
		StartTime:  start,
		EndTime:    end,
		Duration:   end.Sub(start),
	}

	for _, b := range records {
		if b.Phone != "" {
			s.WithPhone++
		}
		if b.Email != "" {
			s.WithEmail++
		}
		if b.State != "" {
			s.ByState[b.State]++
		}
	}
	return s
}

// WriteJSON writes the summary to the provided writer in JSON format.
func WriteJSON(w io.Writer, summary Summary) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(summary); err != nil {
		return fmt.Errorf("encode summary: %w", err)
	}
	return nil
}

// WriteText writes a human-readable text summary to the provided writer.
func WriteText(w io.Writer, summary Summary) error {
	const textTmpl = `Ingot Collection Summary
------------------------
Country:       {{.Country}}
Time:          {{.StartTime.Format "2006-01-02 15:04:05"}} - {{.EndTime.Format "2006-01-02 15:04:05"}}
Duration:      {{.Duration}}
Collected:     {{.Collected}} of {{.Target}} targeted
With Phone:    {{.WithPhone}}
With Email:    {{.WithEmail}}
Candidates:    {{.Candidates}} pages ({{.Unusable}} unusable, {{.NoContact}} without contact)
Refills:       {{.Refills}}

By State:
{{- range $state, $count := .ByState}}
  {{$state}}: {{$count}}
{{- else}}
  None
{{- end}}
`

	t, err := template.New("textReport").Parse(textTmpl)
	if err != nil {
		return fmt.Errorf("parse report template: %w", err)
	}

	if err := t.Execute(w, summary); err != nil {
		return fmt.Errorf("render report: %w", err)
	}
	return nil
}
