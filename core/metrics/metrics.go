package metrics

import (
	"time"

	"github.com/kilianp07/peakguard/core/model"
)

// EvaluationRecord represents one controller evaluation to be recorded.
type EvaluationRecord struct {
	Site          string
	Timestamp     time.Time
	Tariff        model.TariffPeriod
	Mode          model.Mode
	RawLoadKW     float64
	SolarKW       float64
	NetLoadKW     float64
	LimitKW       float64
	Breach        bool
	Action        *model.Action
	PenaltyRupees float64
	SavingsRupees float64
	CO2AvoidedKg  float64
}

// Sink records evaluation results for observability purposes.
type Sink interface {
	RecordEvaluation(rec EvaluationRecord) error
}

// NopSink implements Sink with no-op methods.
type NopSink struct{}

func (NopSink) RecordEvaluation(EvaluationRecord) error { return nil }
