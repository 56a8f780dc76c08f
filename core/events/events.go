// Package events defines the domain events published on the internal bus.
package events

import (
	"time"

	"github.com/kilianp07/peakguard/core/model"
)

// BreachDetected is published when an evaluation finds the net load above
// the contracted limit.
type BreachDetected struct {
	Timestamp time.Time
	NetLoadKW float64
	LimitKW   float64
	ExcessKW  float64
	Tariff    model.TariffPeriod
	Mode      model.Mode
}

// ActionApplied is published when a mitigation action is engaged, either by
// the operator or by the autopilot.
type ActionApplied struct {
	Action model.Action
}

// ActionsReset is published when the operator clears active mitigations.
type ActionsReset struct {
	Timestamp time.Time
}

// ModeChanged is published when the operating mode is switched.
type ModeChanged struct {
	Mode model.Mode
}
