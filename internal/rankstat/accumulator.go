// Package rankstat implements a streaming uniformity diagnostic over
// insertion ranks produced by iterative sampling algorithms.
//
// The idea follows the insertion-order test of Buchner (2020): if a sampler
// behaves correctly, the rank at which each new point would be inserted into
// the current live set is uniformly distributed. Instead of a KS test, which
// is problematic for discrete ranks, the accumulator computes a
// Mann-Whitney-Wilcoxon U statistic incrementally, keeping only a histogram
// of observed ranks and a running sum. Memory is bounded by the largest
// sample size seen, and each observation costs O(1) amortized.
package rankstat

import (
	"errors"
	"fmt"
	"math"
)

// ErrInvalidRank is returned when an observed rank lies outside [0, n].
var ErrInvalidRank = errors.New("rank out of range")

// Accumulator ingests one rank observation at a time and exposes a z-score
// quantifying deviation from uniformity. The sample size n may vary between
// observations. Not safe for concurrent use; callers with multiple producers
// must serialize access or keep one accumulator per producer.
type Accumulator struct {
	counts []uint32
	sum    float64 // running sum of (rank+0.5)/n terms
	total  int     // observations since last reset, == sum(counts)
}

// New returns an empty accumulator with capacity for ranks up to
// initialCapacity-1. Capacity grows automatically as larger sample sizes
// are observed.
func New(initialCapacity int) *Accumulator {
	if initialCapacity < 0 {
		initialCapacity = 0
	}
	return &Accumulator{counts: make([]uint32, initialCapacity)}
}

// Reset zeroes all counts and the running sum. Capacity is retained, so a
// monitor resetting on every threshold crossing does not reallocate.
func (a *Accumulator) Reset() {
	for i := range a.counts {
		a.counts[i] = 0
	}
	a.sum = 0
	a.total = 0
}

// grow replaces the histogram with a zeroed slice of length n, preserving
// existing counts in the low indices.
func (a *Accumulator) grow(n int) {
	counts := make([]uint32, n)
	copy(counts, a.counts)
	a.counts = counts
}

// Add records one rank observed against a sample of size n. Valid ranks are
// 0 through n inclusive, so the histogram is grown to n+1 slots when needed.
// On error no state changes. Returns the accumulator for chaining.
func (a *Accumulator) Add(rank, n int) (*Accumulator, error) {
	if rank < 0 || rank > n {
		return a, fmt.Errorf("%w: rank %d out of %d", ErrInvalidRank, rank, n)
	}
	if n >= len(a.counts) {
		a.grow(n + 1)
	}
	a.sum += (float64(rank) + 0.5) / float64(n)
	a.counts[rank]++
	a.total++
	return a, nil
}

// ZScore returns the Mann-Whitney-Wilcoxon U test z-score against the
// uniform null hypothesis. An empty accumulator scores exactly 0.
func (a *Accumulator) ZScore() float64 {
	if a.total == 0 {
		return 0.0
	}
	n := float64(a.total)
	meanU := n * 0.5
	sigmaU := math.Sqrt(n / 12.0)
	return (a.sum - meanU) / sigmaU
}

// Len returns the number of observations since the last reset.
func (a *Accumulator) Len() int {
	return a.total
}

// Capacity returns the current histogram size, one more than the largest
// addressable rank.
func (a *Accumulator) Capacity() int {
	return len(a.counts)
}

// Histogram returns a copy of the rank counts.
func (a *Accumulator) Histogram() []uint32 {
	out := make([]uint32, len(a.counts))
	copy(out, a.counts)
	return out
}

// InfiniteUZScore computes the same U test z-score for a batch of ranks that
// all share one fixed sample size b. Ranks are 0-based and unshifted; the
// +0.5 continuity shift is applied here.
func InfiniteUZScore(sample []float64, b float64) float64 {
	n := float64(len(sample))
	if n == 0 {
		return 0.0
	}
	sum := 0.0
	for _, r := range sample {
		sum += r + 0.5
	}
	return (sum - n*b*0.5) / (math.Sqrt(n/12.0) * b)
}
