// Package store provides SQLite-based persistence for diagnostic runs.
package store

// Run is one persisted diagnostic run over a rank stream.
type Run struct {
	// ID is the database row ID.
	ID int64

	// Source names the rank stream the run was fed from.
	Source string

	// CreatedAtNs is when the run was recorded, unix nanoseconds.
	CreatedAtNs int64

	// Observations is the number of ranks ingested.
	Observations int

	// FinalZScore is the score of the open run at stream end.
	FinalZScore float64

	// Threshold is the crossing threshold the monitor ran with.
	Threshold float64
}

// RunLength is one persisted completed run-length segment.
type RunLength struct {
	// RunID references the owning run.
	RunID int64

	// Ordinal is the segment's position within the run, from 0.
	Ordinal int

	// Length is the number of observations in the segment.
	Length int

	// ZScore is the score when the segment ended.
	ZScore float64

	// Crossed reports whether the segment ended on a threshold crossing.
	Crossed bool

	// EndedAtNs is when the segment ended, unix nanoseconds.
	EndedAtNs int64
}
