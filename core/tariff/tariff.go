// Package tariff models the time-of-use pricing schedule used to price
// energy and demand-limit breaches.
package tariff

import (
	"fmt"

	"github.com/kilianp07/peakguard/core/model"
)

// Band maps an inclusive hour range to a tariff period and its energy rate.
// The first matching band wins, so overlapping ranges resolve in order.
type Band struct {
	StartHour  int     `json:"start_hour"`
	EndHour    int     `json:"end_hour"`
	Period     string  `json:"period"`
	RatePerKWh float64 `json:"rate_per_kwh"`
}

// Schedule is an ordered set of TOU bands plus per-period breach penalty
// rates in rupees per kW over the contracted limit.
type Schedule struct {
	Bands            []Band             `json:"bands"`
	OffPeakRate      float64            `json:"off_peak_rate_per_kwh"`
	PenaltyPerKWOver map[string]float64 `json:"penalty_per_kw_over"`
}

// SetDefaults applies the default Indian TOU schedule: peak 16-21h at
// Rs. 24/kWh, shoulder 13-15h at Rs. 18/kWh, Rs. 10/kWh otherwise. Penalty
// rates default to the energy rate of the period.
func (s *Schedule) SetDefaults() {
	if len(s.Bands) == 0 {
		s.Bands = []Band{
			{StartHour: 16, EndHour: 21, Period: model.TariffPeak.String(), RatePerKWh: 24},
			{StartHour: 13, EndHour: 16, Period: model.TariffShoulder.String(), RatePerKWh: 18},
		}
	}
	if s.OffPeakRate == 0 {
		s.OffPeakRate = 10
	}
	if s.PenaltyPerKWOver == nil {
		s.PenaltyPerKWOver = map[string]float64{}
	}
	for _, b := range s.Bands {
		if _, ok := s.PenaltyPerKWOver[b.Period]; !ok {
			s.PenaltyPerKWOver[b.Period] = b.RatePerKWh
		}
	}
	if _, ok := s.PenaltyPerKWOver[model.TariffOffPeak.String()]; !ok {
		s.PenaltyPerKWOver[model.TariffOffPeak.String()] = s.OffPeakRate
	}
}

// Validate checks band sanity.
func (s Schedule) Validate() error {
	for i, b := range s.Bands {
		if b.StartHour < 0 || b.StartHour > 23 || b.EndHour < 0 || b.EndHour > 23 {
			return fmt.Errorf("band %d: hours must be within [0,23]", i)
		}
		if b.EndHour < b.StartHour {
			return fmt.Errorf("band %d: end_hour before start_hour", i)
		}
		if _, err := model.ParseTariffPeriod(b.Period); err != nil {
			return fmt.Errorf("band %d: %w", i, err)
		}
		if b.RatePerKWh <= 0 {
			return fmt.Errorf("band %d: rate_per_kwh must be positive", i)
		}
	}
	if s.OffPeakRate <= 0 {
		return fmt.Errorf("off_peak_rate_per_kwh must be positive")
	}
	return nil
}

// PeriodAt classifies the hour of day into a tariff period.
func (s Schedule) PeriodAt(hour int) model.TariffPeriod {
	for _, b := range s.Bands {
		if hour >= b.StartHour && hour <= b.EndHour {
			p, err := model.ParseTariffPeriod(b.Period)
			if err == nil {
				return p
			}
		}
	}
	return model.TariffOffPeak
}

// RateAt returns the energy rate in rupees per kWh for the hour of day.
func (s Schedule) RateAt(hour int) float64 {
	for _, b := range s.Bands {
		if hour >= b.StartHour && hour <= b.EndHour {
			return b.RatePerKWh
		}
	}
	return s.OffPeakRate
}

// RateFor returns the energy rate of the first band matching the period, or
// the off-peak rate when no band declares it.
func (s Schedule) RateFor(p model.TariffPeriod) float64 {
	for _, b := range s.Bands {
		if b.Period == p.String() {
			return b.RatePerKWh
		}
	}
	return s.OffPeakRate
}

// PenaltyRateFor returns the breach penalty in rupees per kW over the limit
// for the given period.
func (s Schedule) PenaltyRateFor(p model.TariffPeriod) float64 {
	if r, ok := s.PenaltyPerKWOver[p.String()]; ok {
		return r
	}
	return s.RateFor(p)
}
