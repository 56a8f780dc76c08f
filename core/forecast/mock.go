package forecast

import "github.com/kilianp07/peakguard/core/model"

// MockProvider returns deterministic predictions for tests.
type MockProvider struct {
	// LoadKW is returned for every prediction unless Fn is set.
	LoadKW float64
	// Fn overrides the fixed value when non-nil.
	Fn func(model.Features) (float64, error)
	// Err is returned when non-nil.
	Err error
}

// Predict returns the configured load or error.
func (m MockProvider) Predict(f model.Features) (float64, error) {
	if m.Err != nil {
		return 0, m.Err
	}
	if m.Fn != nil {
		return m.Fn(f)
	}
	return m.LoadKW, nil
}
