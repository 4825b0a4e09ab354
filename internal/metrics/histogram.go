package metrics

import (
	"math"
	"slices"
	"sync"
	"time"
)

// DefaultSamples is the window used when NewHistogram gets a non-positive size.
const DefaultSamples = 10000

// Histogram keeps the most recent durations in a fixed ring and reports
// percentiles over them, in milliseconds.
type Histogram struct {
	mu    sync.Mutex
	ring  []float64
	next  int
	full  bool
	total uint64
}

// NewHistogram creates a histogram holding at most size samples.
func NewHistogram(size int) *Histogram {
	if size <= 0 {
		size = DefaultSamples
	}
	return &Histogram{ring: make([]float64, size)}
}

// Record adds a sample, overwriting the oldest once the window is full.
func (h *Histogram) Record(d time.Duration) {
	ms := float64(d.Microseconds()) / 1000.0

	h.mu.Lock()
	h.ring[h.next] = ms
	h.next++
	if h.next == len(h.ring) {
		h.next = 0
		h.full = true
	}
	h.total++
	h.mu.Unlock()
}

// window returns a sorted copy of the retained samples.
func (h *Histogram) window() []float64 {
	h.mu.Lock()
	n := h.next
	if h.full {
		n = len(h.ring)
	}
	out := slices.Clone(h.ring[:n])
	h.mu.Unlock()

	slices.Sort(out)
	return out
}

// percentile interpolates linearly between the closest ranks of sorted.
func percentile(sorted []float64, p float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	idx := (p / 100.0) * float64(len(sorted)-1)
	lo, hi := int(math.Floor(idx)), int(math.Ceil(idx))
	if lo == hi {
		return sorted[lo]
	}
	frac := idx - float64(lo)
	return sorted[lo]*(1-frac) + sorted[hi]*frac
}

// Percentile returns the p-th percentile (0-100) of the window.
func (h *Histogram) Percentile(p float64) float64 {
	return percentile(h.window(), p)
}

// Mean returns the window's average.
func (h *Histogram) Mean() float64 {
	s := h.window()
	if len(s) == 0 {
		return 0
	}
	var sum float64
	for _, v := range s {
		sum += v
	}
	return sum / float64(len(s))
}

// Count returns the number of retained samples.
func (h *Histogram) Count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.full {
		return len(h.ring)
	}
	return h.next
}

// Total returns how many samples were ever recorded.
func (h *Histogram) Total() uint64 {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.total
}

// Snapshot summarizes the window with a single sort.
func (h *Histogram) Snapshot() LatencyStats {
	s := h.window()
	st := LatencyStats{Count: len(s)}
	if len(s) == 0 {
		return st
	}
	var sum float64
	for _, v := range s {
		sum += v
	}
	st.Mean = sum / float64(len(s))
	st.P50 = percentile(s, 50)
	st.P95 = percentile(s, 95)
	st.P99 = percentile(s, 99)
	st.Min = s[0]
	st.Max = s[len(s)-1]
	return st
}

// Reset drops all samples.
func (h *Histogram) Reset() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.next = 0
	h.full = false
	h.total = 0
}
