package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecorderObserve(t *testing.T) {
	r := NewRecorder()
	before := testutil.ToFloat64(OperationResults.WithLabelValues(OpOptimize, ResultOK))

	r.Observe(OpOptimize, ResultOK, 2*time.Millisecond)
	r.Observe(OpOptimize, ResultOK, 4*time.Millisecond)
	r.Observe(OpOptimize, ResultNoResult, time.Millisecond)
	r.Observe(OpOptimize, ResultError, time.Millisecond)

	stats := r.GetStats()
	require.Contains(t, stats.Operations, OpOptimize)
	op := stats.Operations[OpOptimize]
	assert.Equal(t, uint64(2), op.OK)
	assert.Equal(t, uint64(1), op.NoResult)
	assert.Equal(t, uint64(1), op.Errors)
	assert.InDelta(t, 25.0, op.ErrorRate, 1e-9)
	assert.Equal(t, 4, op.Latency.Count)
	assert.InDelta(t, 4.0, op.Latency.Max, 1e-9)

	after := testutil.ToFloat64(OperationResults.WithLabelValues(OpOptimize, ResultOK))
	assert.InDelta(t, 2.0, after-before, 1e-9)
}

func TestRecorderNilAndReset(t *testing.T) {
	var nilRecorder *Recorder
	nilRecorder.Observe(OpScore, ResultOK, time.Millisecond)

	r := NewRecorder()
	r.Since(OpScore, ResultOK, time.Now())
	r.Reset()
	assert.Empty(t, r.GetStats().Operations)
}
