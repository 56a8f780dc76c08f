package api

import (
	"github.com/kilianp07/peakguard/core/model"
	"github.com/kilianp07/peakguard/core/shaving"
)

// ErrorDetail carries a machine-readable code and a human message.
type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ErrorResponse is the error envelope returned by every endpoint.
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// EvaluateRequest accepts either raw features for the provider or a
// pre-predicted sample. Exactly one of the two must be set.
type EvaluateRequest struct {
	Features *model.Features       `json:"features,omitempty"`
	Sample   *model.ForecastSample `json:"sample,omitempty"`
}

// ModeRequest switches the controller operating mode.
type ModeRequest struct {
	Mode string `json:"mode"`
}

// StateResponse is the dashboard view of the controller.
type StateResponse struct {
	State          model.MitigationState `json:"state"`
	Phase          string                `json:"phase"`
	LastEvaluation *shaving.Evaluation   `json:"last_evaluation,omitempty"`
}

// ActionResponse reports an engaged mitigation action.
type ActionResponse struct {
	Action model.Action          `json:"action"`
	State  model.MitigationState `json:"state"`
}
