package model

import "time"

// Features holds the inputs fed to the forecast provider for one time step.
type Features struct {
	Timestamp time.Time `json:"timestamp"`

	// Building metadata.
	PrimaryUse string  `json:"primary_use"`
	SquareFeet float64 `json:"square_feet"`
	YearBuilt  int     `json:"year_built"`
	FloorCount int     `json:"floor_count"`

	// Weather conditions.
	AirTemperatureC float64 `json:"air_temperature_c"`
	DewTemperatureC float64 `json:"dew_temperature_c"`
	CloudCoverage   float64 `json:"cloud_coverage"`

	// Load history.
	LoadLag1hKW  float64 `json:"load_lag_1h_kw"`
	LoadLag24hKW float64 `json:"load_lag_24h_kw"`
}

// Hour returns the hour of day for the sample timestamp.
func (f Features) Hour() int { return f.Timestamp.Hour() }

// Validate checks that all required fields carry plausible values.
func (f Features) Validate() error {
	if f.Timestamp.IsZero() {
		return &ValidationError{Field: "timestamp", Reason: "must be set"}
	}
	if f.SquareFeet <= 0 {
		return &ValidationError{Field: "square_feet", Reason: "must be positive"}
	}
	if f.AirTemperatureC < -60 || f.AirTemperatureC > 60 {
		return &ValidationError{Field: "air_temperature_c", Reason: "outside plausible range"}
	}
	if f.CloudCoverage < 0 || f.CloudCoverage > 10 {
		return &ValidationError{Field: "cloud_coverage", Reason: "must be within [0,10] okta"}
	}
	if f.LoadLag1hKW < 0 {
		return &ValidationError{Field: "load_lag_1h_kw", Reason: "must be non-negative"}
	}
	if f.LoadLag24hKW < 0 {
		return &ValidationError{Field: "load_lag_24h_kw", Reason: "must be non-negative"}
	}
	return nil
}
