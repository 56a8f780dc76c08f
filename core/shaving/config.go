package shaving

import "fmt"

// Config defines the mitigation levers and accounting factors.
type Config struct {
	// BatteryReductionKW is the fixed load reduction of a battery dispatch.
	BatteryReductionKW float64 `json:"battery_reduction_kw"`
	// HVACReductionFraction is the share of the raw predicted load shed by
	// an HVAC setpoint shift.
	HVACReductionFraction float64 `json:"hvac_reduction_fraction"`
	// EmissionFactorKgPerKWh converts offset energy into avoided CO2.
	EmissionFactorKgPerKWh float64 `json:"emission_factor_kg_per_kwh"`
}

// SetDefaults applies the reference mitigation parameters.
func (c *Config) SetDefaults() {
	if c.BatteryReductionKW == 0 {
		c.BatteryReductionKW = 50
	}
	if c.HVACReductionFraction == 0 {
		c.HVACReductionFraction = 0.15
	}
	if c.EmissionFactorKgPerKWh == 0 {
		c.EmissionFactorKgPerKWh = 0.45
	}
}

// Validate checks mandatory fields.
func (c Config) Validate() error {
	if c.BatteryReductionKW < 0 {
		return fmt.Errorf("battery_reduction_kw must be non-negative")
	}
	if c.HVACReductionFraction < 0 || c.HVACReductionFraction >= 1 {
		return fmt.Errorf("hvac_reduction_fraction must be within [0,1)")
	}
	if c.EmissionFactorKgPerKWh < 0 {
		return fmt.Errorf("emission_factor_kg_per_kwh must be non-negative")
	}
	return nil
}
