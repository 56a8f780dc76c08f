package model

import "time"

// Mode selects how breaches are handled.
type Mode int

const (
	// ModeManual surfaces breaches and waits for operator action.
	ModeManual Mode = iota
	// ModeAutopilot applies mitigation automatically, battery first.
	ModeAutopilot
)

// String returns a human-readable representation of the mode.
func (m Mode) String() string {
	switch m {
	case ModeManual:
		return "manual"
	case ModeAutopilot:
		return "autopilot"
	default:
		return "unknown"
	}
}

// ParseMode converts a string into a Mode.
func ParseMode(s string) (Mode, error) {
	switch s {
	case "manual":
		return ModeManual, nil
	case "autopilot":
		return ModeAutopilot, nil
	default:
		return 0, &ValidationError{Field: "mode", Reason: "unknown value " + s}
	}
}

// ActionType identifies a mitigation lever.
type ActionType int

const (
	ActionBatteryDispatch ActionType = iota
	ActionHVACOptimize
)

// String returns a human-readable representation of the action type.
func (t ActionType) String() string {
	switch t {
	case ActionBatteryDispatch:
		return "battery_dispatch"
	case ActionHVACOptimize:
		return "hvac_optimize"
	default:
		return "unknown"
	}
}

// Action records one applied mitigation.
type Action struct {
	ID          string     `json:"id"`
	Type        ActionType `json:"type"`
	ReductionKW float64    `json:"reduction_kw"`
	AppliedAt   time.Time  `json:"applied_at"`
	Automatic   bool       `json:"automatic"`
}

// MitigationState is the session state mutated only by the shaving
// controller. At most one battery dispatch and one HVAC optimization can be
// active at a time, and the money and CO2 accumulators never decrease within
// a session.
type MitigationState struct {
	Mode                Mode    `json:"mode"`
	BatteryActive       bool    `json:"battery_active"`
	HVACReductionActive bool    `json:"hvac_reduction_active"`

	CumulativeSavingsRupees float64 `json:"cumulative_savings_rupees"`
	CumulativePenaltyRupees float64 `json:"cumulative_penalty_rupees"`
	CumulativeCO2AvoidedKg  float64 `json:"cumulative_co2_avoided_kg"`
}
