package metrics

import (
	"errors"

	coremetrics "github.com/kilianp07/peakguard/core/metrics"
)

// MultiSink fans evaluation records out to several sinks. Errors are
// collected so one failing sink does not starve the others.
type MultiSink struct {
	sinks []coremetrics.Sink
}

// NewMultiSink creates a MultiSink from the given sinks.
func NewMultiSink(sinks ...coremetrics.Sink) *MultiSink {
	return &MultiSink{sinks: sinks}
}

// RecordEvaluation forwards the record to every sink.
func (m *MultiSink) RecordEvaluation(rec coremetrics.EvaluationRecord) error {
	var errs []error
	for _, s := range m.sinks {
		if err := s.RecordEvaluation(rec); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
