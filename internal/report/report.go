// Package report renders the result of a diagnostic run.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"gopkg.in/yaml.v3"

	"orderwatch/internal/monitor"
)

// Version is the report schema version, matching
// docs/schema/run-report-v1.schema.json.
const Version = 1

// Report summarizes one diagnostic run over a rank stream.
type Report struct {
	// Version is the report schema version.
	Version int `json:"version" yaml:"version"`

	// GeneratedAt is when the report was produced.
	GeneratedAt time.Time `json:"generated_at" yaml:"generated_at"`

	// Source names the rank stream, usually a file path.
	Source string `json:"source" yaml:"source"`

	// Observations is the total number of ranks ingested.
	Observations int `json:"observations" yaml:"observations"`

	// FinalZScore is the z-score of the open run when the stream ended.
	FinalZScore float64 `json:"final_zscore" yaml:"final_zscore"`

	// Threshold is the crossing threshold the monitor ran with.
	Threshold float64 `json:"threshold" yaml:"threshold"`

	// RunLengths are the completed runs, oldest first.
	RunLengths []monitor.RunLength `json:"run_lengths" yaml:"run_lengths"`
}

// New builds a report from a monitor after its stream has been fully fed
// and flushed. source names the input for the reader of the report.
func New(source string, observations int, finalZ float64, m *monitor.Monitor) *Report {
	return &Report{
		Version:      Version,
		GeneratedAt:  time.Now().UTC(),
		Source:       source,
		Observations: observations,
		FinalZScore:  finalZ,
		Threshold:    m.Threshold(),
		RunLengths:   m.RunLengths(),
	}
}

// WriteJSON writes the report as indented JSON.
func (r *Report) WriteJSON(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(r); err != nil {
		return fmt.Errorf("encode report: %w", err)
	}
	return nil
}

// WriteYAML writes the report as YAML.
func (r *Report) WriteYAML(w io.Writer) error {
	enc := yaml.NewEncoder(w)
	defer enc.Close()
	if err := enc.Encode(r); err != nil {
		return fmt.Errorf("encode report: %w", err)
	}
	return nil
}
