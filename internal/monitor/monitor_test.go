package monitor

import (
	"errors"
	"testing"
	"time"

	"orderwatch/internal/rankstat"
)

func fixedClock(m *Monitor) {
	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	m.now = func() time.Time { return at }
}

func TestObserveUniformNeverCrosses(t *testing.T) {
	m := New(3.0, 16)
	fixedClock(m)

	// Cycle through all ranks repeatedly; the score stays near zero.
	for i := 0; i < 500; i++ {
		crossed, err := m.Observe(i%10, 10)
		if err != nil {
			t.Fatalf("Observe: %v", err)
		}
		if crossed {
			t.Fatalf("unexpected crossing at observation %d, z=%v", i, m.ZScore())
		}
	}
	if len(m.RunLengths()) != 0 {
		t.Fatalf("RunLengths() = %d entries, want 0", len(m.RunLengths()))
	}
	if m.CurrentLength() != 500 {
		t.Fatalf("CurrentLength() = %d, want 500", m.CurrentLength())
	}
}

func TestObserveSkewedCrossesAndResets(t *testing.T) {
	m := New(3.0, 16)
	fixedClock(m)

	var crossedAt int
	for i := 1; i <= 100; i++ {
		crossed, err := m.Observe(9, 10)
		if err != nil {
			t.Fatalf("Observe: %v", err)
		}
		if crossed {
			crossedAt = i
			break
		}
	}
	if crossedAt == 0 {
		t.Fatal("feeding only top ranks never crossed the threshold")
	}

	runs := m.RunLengths()
	if len(runs) != 1 {
		t.Fatalf("RunLengths() = %d entries, want 1", len(runs))
	}
	if runs[0].Length != crossedAt {
		t.Errorf("run length = %d, want %d (triggering observation included)", runs[0].Length, crossedAt)
	}
	if !runs[0].Crossed {
		t.Error("run not marked as crossed")
	}
	if runs[0].ZScore < 3.0 {
		t.Errorf("run z-score = %v, want >= 3", runs[0].ZScore)
	}

	// The accumulator must have reset.
	if m.CurrentLength() != 0 {
		t.Errorf("CurrentLength() = %d after crossing, want 0", m.CurrentLength())
	}
	if m.ZScore() != 0.0 {
		t.Errorf("ZScore() = %v after crossing, want 0", m.ZScore())
	}
}

func TestObservePropagatesInvalidRank(t *testing.T) {
	m := New(3.0, 4)
	fixedClock(m)

	if _, err := m.Observe(5, 4); !errors.Is(err, rankstat.ErrInvalidRank) {
		t.Fatalf("Observe(5, 4) = %v, want ErrInvalidRank", err)
	}
	if m.CurrentLength() != 0 {
		t.Errorf("CurrentLength() = %d after failed observe, want 0", m.CurrentLength())
	}
}

func TestFlush(t *testing.T) {
	m := New(3.0, 8)
	fixedClock(m)

	if run := m.Flush(); run != nil {
		t.Fatalf("Flush() on empty monitor = %+v, want nil", run)
	}

	for i := 0; i < 7; i++ {
		if _, err := m.Observe(i%5, 5); err != nil {
			t.Fatalf("Observe: %v", err)
		}
	}

	run := m.Flush()
	if run == nil {
		t.Fatal("Flush() = nil, want open run closed")
	}
	if run.Length != 7 {
		t.Errorf("flushed length = %d, want 7", run.Length)
	}
	if run.Crossed {
		t.Error("flushed run marked as crossed")
	}
	if m.CurrentLength() != 0 {
		t.Errorf("CurrentLength() = %d after flush, want 0", m.CurrentLength())
	}
	if len(m.RunLengths()) != 1 {
		t.Errorf("RunLengths() = %d entries, want 1", len(m.RunLengths()))
	}
}

func TestDefaultThreshold(t *testing.T) {
	m := New(0, 8)
	if m.Threshold() != DefaultThreshold {
		t.Fatalf("Threshold() = %v, want %v", m.Threshold(), DefaultThreshold)
	}
	m = New(-1, 8)
	if m.Threshold() != DefaultThreshold {
		t.Fatalf("Threshold() = %v, want %v", m.Threshold(), DefaultThreshold)
	}
}
