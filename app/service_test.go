package app

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/peakguard/config"
	"github.com/kilianp07/peakguard/core/model"
	"github.com/kilianp07/peakguard/core/telemetry"
	"github.com/kilianp07/peakguard/infra/mqtt"
)

func testConfig() *config.Config {
	cfg := &config.Config{}
	cfg.Building.SetDefaults()
	cfg.Building.ContractLimitKW = 100
	cfg.Tariff.SetDefaults()
	cfg.Mitigation.SetDefaults()
	cfg.Solar.SetDefaults()
	cfg.Forecast.SetDefaults()
	cfg.Metrics.SetDefaults()
	cfg.API.SetDefaults()
	return cfg
}

func features(lag1 float64) model.Features {
	return model.Features{
		Timestamp:       time.Date(2026, 6, 15, 18, 0, 0, 0, time.UTC),
		PrimaryUse:      "Office",
		SquareFeet:      150000,
		AirTemperatureC: 28,
		DewTemperatureC: 23,
		CloudCoverage:   2,
		LoadLag1hKW:     lag1,
		LoadLag24hKW:    lag1,
	}
}

func TestServiceEvaluatesTelemetry(t *testing.T) {
	svc, err := New(testConfig())
	require.NoError(t, err)
	defer func() { assert.NoError(t, svc.Close()) }()

	mock := mqtt.NewMockClient()
	svc.source = mock
	svc.publisher = mock
	svc.Controller.SetMode(model.ModeAutopilot)

	// 18h, no solar window contribution needed: persistence forecast of a
	// 200 kW lag blows through the 100 kW limit and triggers the autopilot.
	svc.handleTelemetry(telemetry.Message{Site: "default", Features: features(200)})

	ev := svc.Controller.LastEvaluation()
	require.NotNil(t, ev)
	assert.InDelta(t, 200, ev.Sample.PredictedLoadKW, 1e-9)
	assert.True(t, svc.Controller.State().BatteryActive)
}

func TestServiceObservesRealizedLoad(t *testing.T) {
	svc, err := New(testConfig())
	require.NoError(t, err)
	defer func() { assert.NoError(t, svc.Close()) }()

	svc.handleTelemetry(telemetry.Message{Site: "default", Features: features(90)})
	svc.handleTelemetry(telemetry.Message{Site: "default", Features: features(95)})
	// Second tick feeds the first tick's features with the realized load.
	require.NotNil(t, svc.prevFeatures)
	assert.Equal(t, 95.0, svc.prevFeatures.Features.LoadLag1hKW)
}

func TestServiceNoBrokerConfigured(t *testing.T) {
	svc, err := New(testConfig())
	require.NoError(t, err)
	assert.Nil(t, svc.source)
	assert.NoError(t, svc.Close())
}
