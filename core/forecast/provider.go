// Package forecast defines the load forecasting collaborator. The provider
// is a black box: the regression model behind it is pretrained offline and
// only consulted for point predictions.
package forecast

import "github.com/kilianp07/peakguard/core/model"

// Provider predicts the building load for the next time step.
type Provider interface {
	// Predict returns the expected load in kW for the given conditions.
	Predict(f model.Features) (float64, error)
}
