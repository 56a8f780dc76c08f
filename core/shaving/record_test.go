package shaving

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/peakguard/core/kpi"
	coremetrics "github.com/kilianp07/peakguard/core/metrics"
)

type captureSink struct {
	recs []coremetrics.EvaluationRecord
}

func (s *captureSink) RecordEvaluation(rec coremetrics.EvaluationRecord) error {
	s.recs = append(s.recs, rec)
	return nil
}

func TestEvaluateRecordsSinkAndKPI(t *testing.T) {
	c := testController(t)
	sink := &captureSink{}
	store := kpi.NewMemoryStore()
	c.SetSink(sink)
	c.SetKPIStore(store)

	_, err := c.Evaluate(peakSample(120, 100))
	require.NoError(t, err)
	_, err = c.Evaluate(peakSample(80, 100))
	require.NoError(t, err)

	require.Len(t, sink.recs, 2)
	assert.Equal(t, "site-a", sink.recs[0].Site)
	assert.True(t, sink.recs[0].Breach)
	assert.Equal(t, 200.0, sink.recs[0].PenaltyRupees)
	assert.False(t, sink.recs[1].Breach)

	day := time.Date(2026, 6, 15, 0, 0, 0, 0, time.UTC)
	recs, err := store.Query("site-a", day, day)
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, 2, recs[0].Evaluations)
	assert.Equal(t, 1, recs[0].Breaches)
	assert.Equal(t, 200.0, recs[0].PenaltyRupees)
}
