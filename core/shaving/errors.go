package shaving

import "github.com/kilianp07/peakguard/core/model"

// ModeConflictError rejects a manual action issued while the controller is
// in autopilot mode.
type ModeConflictError struct {
	Mode   model.Mode
	Action model.ActionType
}

func (e *ModeConflictError) Error() string {
	return "manual " + e.Action.String() + " rejected: controller is in " + e.Mode.String() + " mode"
}
