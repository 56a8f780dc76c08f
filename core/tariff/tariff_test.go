package tariff

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/peakguard/core/model"
)

func defaultSchedule() Schedule {
	var s Schedule
	s.SetDefaults()
	return s
}

func TestScheduleDefaults(t *testing.T) {
	s := defaultSchedule()
	require.NoError(t, s.Validate())

	cases := []struct {
		hour   int
		period model.TariffPeriod
		rate   float64
	}{
		{3, model.TariffOffPeak, 10},
		{12, model.TariffOffPeak, 10},
		{13, model.TariffShoulder, 18},
		{15, model.TariffShoulder, 18},
		{16, model.TariffPeak, 24},
		{21, model.TariffPeak, 24},
		{22, model.TariffOffPeak, 10},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.period, s.PeriodAt(tc.hour), "hour %d", tc.hour)
		assert.Equal(t, tc.rate, s.RateAt(tc.hour), "hour %d", tc.hour)
	}
}

func TestScheduleOverlapFirstMatchWins(t *testing.T) {
	// Hour 16 belongs to both default bands; the peak band is declared first.
	s := defaultSchedule()
	assert.Equal(t, model.TariffPeak, s.PeriodAt(16))
	assert.Equal(t, 24.0, s.RateAt(16))
}

func TestPenaltyRateDefaultsToEnergyRate(t *testing.T) {
	s := defaultSchedule()
	assert.Equal(t, 24.0, s.PenaltyRateFor(model.TariffPeak))
	assert.Equal(t, 10.0, s.PenaltyRateFor(model.TariffOffPeak))

	s.PenaltyPerKWOver[model.TariffPeak.String()] = 100
	assert.Equal(t, 100.0, s.PenaltyRateFor(model.TariffPeak))
}

func TestScheduleValidate(t *testing.T) {
	s := Schedule{Bands: []Band{{StartHour: 5, EndHour: 2, Period: "peak", RatePerKWh: 24}}, OffPeakRate: 10}
	assert.Error(t, s.Validate())

	s = Schedule{Bands: []Band{{StartHour: 1, EndHour: 2, Period: "surge", RatePerKWh: 24}}, OffPeakRate: 10}
	assert.Error(t, s.Validate())

	s = Schedule{OffPeakRate: -1}
	assert.Error(t, s.Validate())
}
