// Package solar estimates on-site photovoltaic generation used to offset the
// forecast load before the breach check.
package solar

import "fmt"

// Config describes the installed PV array.
type Config struct {
	// CapacityKW is the nameplate capacity of the array.
	CapacityKW float64 `json:"capacity_kw"`
	// Irradiance scales output for site conditions, in (0,1].
	Irradiance float64 `json:"irradiance"`
	// SunriseHour and SunsetHour bound the production window.
	SunriseHour int `json:"sunrise_hour"`
	SunsetHour  int `json:"sunset_hour"`
}

// SetDefaults applies the reference production window and irradiance.
func (c *Config) SetDefaults() {
	if c.Irradiance == 0 {
		c.Irradiance = 0.95
	}
	if c.SunriseHour == 0 && c.SunsetHour == 0 {
		c.SunriseHour = 7
		c.SunsetHour = 18
	}
}

// Validate checks the array configuration.
func (c Config) Validate() error {
	if c.CapacityKW < 0 {
		return fmt.Errorf("capacity_kw must be non-negative")
	}
	if c.Irradiance <= 0 || c.Irradiance > 1 {
		return fmt.Errorf("irradiance must be within (0,1]")
	}
	if c.SunriseHour < 0 || c.SunsetHour > 23 || c.SunsetHour < c.SunriseHour {
		return fmt.Errorf("production window is invalid")
	}
	return nil
}

// GenerationKW returns the estimated PV output for the hour of day. The
// efficiency curve peaks at 13h and falls off linearly to zero six hours out.
func (c Config) GenerationKW(hour int) float64 {
	if hour < c.SunriseHour || hour > c.SunsetHour {
		return 0
	}
	eff := 1 - abs(hour-13)/6.0
	if eff < 0 {
		eff = 0
	}
	return c.CapacityKW * eff * c.Irradiance
}

func abs(v int) float64 {
	if v < 0 {
		return float64(-v)
	}
	return float64(v)
}
