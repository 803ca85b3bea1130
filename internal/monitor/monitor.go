// Package monitor tracks run lengths of an insertion-order diagnostic.
//
// A "run" is a stretch of observations during which the rank z-score stays
// inside a threshold. When the score crosses the threshold the run ends,
// its length is recorded, and the underlying accumulator resets. Long runs
// mean the sampler proceeded many iterations without a detectable insertion
// order problem; short runs localize where a run went wrong.
package monitor

import (
	"math"
	"time"

	"orderwatch/internal/rankstat"
)

// DefaultThreshold is the z-score magnitude at which a run ends.
const DefaultThreshold = 3.0

// RunLength records one completed run.
type RunLength struct {
	// Length is the number of observations in the run.
	Length int `json:"length" yaml:"length"`

	// ZScore is the score at the moment the run ended. For runs closed by
	// Flush rather than a threshold crossing, this is the final score.
	ZScore float64 `json:"zscore" yaml:"zscore"`

	// Crossed reports whether the run ended on a threshold crossing.
	Crossed bool `json:"crossed" yaml:"crossed"`

	// EndedAt is when the run ended.
	EndedAt time.Time `json:"ended_at" yaml:"ended_at"`
}

// Monitor feeds observations to a rank accumulator and resets it on every
// threshold crossing, keeping the resulting run lengths. Like the
// accumulator it wraps, it is intended for a single producer.
type Monitor struct {
	acc       *rankstat.Accumulator
	threshold float64
	runs      []RunLength
	now       func() time.Time
}

// New returns a monitor with the given threshold; a threshold of 0 or below
// falls back to DefaultThreshold. initialCapacity sizes the underlying
// accumulator.
func New(threshold float64, initialCapacity int) *Monitor {
	if threshold <= 0 {
		threshold = DefaultThreshold
	}
	return &Monitor{
		acc:       rankstat.New(initialCapacity),
		threshold: threshold,
		now:       time.Now,
	}
}

// Observe records one rank out of n. If the observation pushes the z-score
// magnitude to the threshold or beyond, the current run is closed (the
// triggering observation counts toward it) and the accumulator resets.
// Returns true when a run ended.
func (m *Monitor) Observe(rank, n int) (bool, error) {
	if _, err := m.acc.Add(rank, n); err != nil {
		return false, err
	}

	z := m.acc.ZScore()
	if math.Abs(z) < m.threshold {
		return false, nil
	}

	m.runs = append(m.runs, RunLength{
		Length:  m.acc.Len(),
		ZScore:  z,
		Crossed: true,
		EndedAt: m.now(),
	})
	m.acc.Reset()
	return true, nil
}

// Flush closes the current run without a threshold crossing, recording
// whatever has accumulated since the last reset. A nil result means the
// current run was empty.
func (m *Monitor) Flush() *RunLength {
	if m.acc.Len() == 0 {
		return nil
	}
	run := RunLength{
		Length:  m.acc.Len(),
		ZScore:  m.acc.ZScore(),
		EndedAt: m.now(),
	}
	m.runs = append(m.runs, run)
	m.acc.Reset()
	return &run
}

// ZScore returns the score of the current open run.
func (m *Monitor) ZScore() float64 {
	return m.acc.ZScore()
}

// CurrentLength returns the length of the current open run.
func (m *Monitor) CurrentLength() int {
	return m.acc.Len()
}

// RunLengths returns the completed runs, oldest first.
func (m *Monitor) RunLengths() []RunLength {
	out := make([]RunLength, len(m.runs))
	copy(out, m.runs)
	return out
}

// Threshold returns the configured z-score threshold.
func (m *Monitor) Threshold() float64 {
	return m.threshold
}
