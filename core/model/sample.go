package model

import "time"

// TariffPeriod identifies the time-of-use pricing band in effect.
type TariffPeriod int

const (
	TariffOffPeak TariffPeriod = iota
	TariffShoulder
	TariffPeak
)

// String returns a human-readable representation of the tariff period.
func (p TariffPeriod) String() string {
	switch p {
	case TariffOffPeak:
		return "off-peak"
	case TariffShoulder:
		return "shoulder"
	case TariffPeak:
		return "peak"
	default:
		return "unknown"
	}
}

// ParseTariffPeriod converts a string into a TariffPeriod.
func ParseTariffPeriod(s string) (TariffPeriod, error) {
	switch s {
	case "off-peak":
		return TariffOffPeak, nil
	case "shoulder":
		return TariffShoulder, nil
	case "peak":
		return TariffPeak, nil
	default:
		return 0, &ValidationError{Field: "tariff_period", Reason: "unknown value " + s}
	}
}

// ForecastSample is a single predicted load point to evaluate against the
// contracted demand limit. It is immutable once produced by the forecast
// provider.
type ForecastSample struct {
	Timestamp       time.Time    `json:"timestamp"`
	PredictedLoadKW float64      `json:"predicted_load_kw"`
	Tariff          TariffPeriod `json:"tariff_period"`
	ContractLimitKW float64      `json:"contract_limit_kw"`
}

// Validate checks that the sample is well formed.
func (s ForecastSample) Validate() error {
	if s.Timestamp.IsZero() {
		return &ValidationError{Field: "timestamp", Reason: "must be set"}
	}
	if s.PredictedLoadKW < 0 {
		return &ValidationError{Field: "predicted_load_kw", Reason: "must be non-negative"}
	}
	if s.ContractLimitKW <= 0 {
		return &ValidationError{Field: "contract_limit_kw", Reason: "must be positive"}
	}
	return nil
}
