package metrics

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Operation names used as metric labels.
const (
	OpPublish  = "publish"
	OpOptimize = "optimize"
	OpBuild    = "build"
	OpSuggest  = "suggest"
	OpScore    = "score"
)

// Result labels.
const (
	ResultOK       = "ok"
	ResultNoResult = "no_result"
	ResultError    = "error"
)

var (
	// OperationDuration tracks engine operation latency.
	OperationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "deckforge_operation_duration_seconds",
			Help:    "Duration of deck engine operations in seconds",
			Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
		},
		[]string{"operation"},
	)

	// OperationResults counts engine operations by outcome.
	OperationResults = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "deckforge_operation_results_total",
			Help: "Total number of deck engine operations by result",
		},
		[]string{"operation", "result"},
	)

	// CorpusDecks reports the deck count of the published statistics model.
	CorpusDecks = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "deckforge_corpus_decks",
			Help: "Number of decks in the published corpus",
		},
	)
)

// OperationStats contains the computed statistics for one operation.
type OperationStats struct {
	Latency   LatencyStats `json:"latency"`
	OK        uint64       `json:"ok"`
	NoResult  uint64       `json:"no_result"`
	Errors    uint64       `json:"errors"`
	ErrorRate float64      `json:"error_rate"` // percentage
}

// LatencyStats contains statistics for a latency histogram.
type LatencyStats struct {
	Mean  float64 `json:"mean"` // milliseconds
	P50   float64 `json:"p50"`
	P95   float64 `json:"p95"`
	P99   float64 `json:"p99"`
	Min   float64 `json:"min"`
	Max   float64 `json:"max"`
	Count int     `json:"count"`
}

// Stats is a snapshot of all engine metrics.
type Stats struct {
	Operations map[string]OperationStats `json:"operations"`
	Uptime     string                    `json:"uptime"`
}

type operation struct {
	latency  *Histogram
	ok       atomic.Uint64
	noResult atomic.Uint64
	errors   atomic.Uint64
}

// Recorder tracks in-process latency histograms per operation and mirrors
// every observation to the Prometheus collectors.
type Recorder struct {
	mu        sync.RWMutex
	ops       map[string]*operation
	startTime time.Time
}

// NewRecorder creates an empty recorder.
func NewRecorder() *Recorder {
	return &Recorder{ops: make(map[string]*operation), startTime: time.Now()}
}

func (r *Recorder) op(name string) *operation {
	r.mu.RLock()
	o, ok := r.ops[name]
	r.mu.RUnlock()
	if ok {
		return o
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if o, ok = r.ops[name]; ok {
		return o
	}
	o = &operation{latency: NewHistogram(DefaultSamples)}
	r.ops[name] = o
	return o
}

// Observe records one operation run. A nil recorder is a no-op.
func (r *Recorder) Observe(name, result string, d time.Duration) {
	if r == nil {
		return
	}
	o := r.op(name)
	o.latency.Record(d)
	switch result {
	case ResultOK:
		o.ok.Add(1)
	case ResultNoResult:
		o.noResult.Add(1)
	default:
		o.errors.Add(1)
	}

	OperationDuration.WithLabelValues(name).Observe(d.Seconds())
	OperationResults.WithLabelValues(name, result).Inc()
}

// Since is shorthand for Observe(name, result, time.Since(start)).
func (r *Recorder) Since(name, result string, start time.Time) {
	r.Observe(name, result, time.Since(start))
}

// GetStats returns a snapshot of the current statistics.
func (r *Recorder) GetStats() *Stats {
	if r == nil {
		return &Stats{Operations: map[string]OperationStats{}}
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := &Stats{
		Operations: make(map[string]OperationStats, len(r.ops)),
		Uptime:     time.Since(r.startTime).Round(time.Second).String(),
	}
	for name, o := range r.ops {
		s := OperationStats{
			Latency:  o.latency.Snapshot(),
			OK:       o.ok.Load(),
			NoResult: o.noResult.Load(),
			Errors:   o.errors.Load(),
		}
		if total := s.OK + s.NoResult + s.Errors; total > 0 {
			s.ErrorRate = float64(s.Errors) / float64(total) * 100
		}
		out.Operations[name] = s
	}
	return out
}

// Reset clears all metrics.
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ops = make(map[string]*operation)
	r.startTime = time.Now()
}
