package model

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestForecastSampleValidate(t *testing.T) {
	now := time.Now()
	cases := []struct {
		name    string
		sample  ForecastSample
		wantErr string
	}{
		{"valid", ForecastSample{Timestamp: now, PredictedLoadKW: 120, ContractLimitKW: 100}, ""},
		{"zero timestamp", ForecastSample{PredictedLoadKW: 120, ContractLimitKW: 100}, "timestamp"},
		{"negative load", ForecastSample{Timestamp: now, PredictedLoadKW: -1, ContractLimitKW: 100}, "predicted_load_kw"},
		{"zero limit", ForecastSample{Timestamp: now, PredictedLoadKW: 120}, "contract_limit_kw"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.sample.Validate()
			if tc.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			var verr *ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tc.wantErr, verr.Field)
		})
	}
}

func TestFeaturesValidate(t *testing.T) {
	base := Features{
		Timestamp:       time.Date(2026, 6, 15, 14, 0, 0, 0, time.UTC),
		PrimaryUse:      "Office",
		SquareFeet:      150000,
		YearBuilt:       2005,
		FloorCount:      3,
		AirTemperatureC: 28,
		DewTemperatureC: 23,
		CloudCoverage:   2,
		LoadLag1hKW:     300,
		LoadLag24hKW:    310,
	}
	require.NoError(t, base.Validate())
	assert.Equal(t, 14, base.Hour())

	bad := base
	bad.SquareFeet = 0
	var verr *ValidationError
	require.True(t, errors.As(bad.Validate(), &verr))
	assert.Equal(t, "square_feet", verr.Field)

	bad = base
	bad.AirTemperatureC = 99
	require.Error(t, bad.Validate())

	bad = base
	bad.LoadLag24hKW = -5
	require.Error(t, bad.Validate())
}

func TestParseEnums(t *testing.T) {
	m, err := ParseMode("autopilot")
	require.NoError(t, err)
	assert.Equal(t, ModeAutopilot, m)
	_, err = ParseMode("cruise")
	assert.Error(t, err)

	p, err := ParseTariffPeriod("peak")
	require.NoError(t, err)
	assert.Equal(t, TariffPeak, p)
	assert.Equal(t, "peak", p.String())
	_, err = ParseTariffPeriod("surge")
	assert.Error(t, err)

	assert.Equal(t, "battery_dispatch", ActionBatteryDispatch.String())
	assert.Equal(t, "hvac_optimize", ActionHVACOptimize.String())
}
