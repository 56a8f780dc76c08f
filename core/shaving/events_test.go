package shaving

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/peakguard/core/events"
	"github.com/kilianp07/peakguard/core/model"
	"github.com/kilianp07/peakguard/core/solar"
	"github.com/kilianp07/peakguard/core/tariff"
	"github.com/kilianp07/peakguard/infra/logger"
	"github.com/kilianp07/peakguard/internal/eventbus"
)

func drain(t *testing.T, sub <-chan eventbus.Event) eventbus.Event {
	t.Helper()
	select {
	case e := <-sub:
		return e
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for event")
		return nil
	}
}

func TestBreachAndActionEvents(t *testing.T) {
	bus := eventbus.New()
	defer bus.Close()
	sub := bus.Subscribe()

	sched := tariff.Schedule{Bands: []tariff.Band{{StartHour: 16, EndHour: 21, Period: "peak", RatePerKWh: 10}}, OffPeakRate: 5}
	c := New(Config{}, sched, solar.Config{}, nil, "site-a", 100, logger.NopLogger{}, bus)
	c.SetMode(model.ModeAutopilot)

	if ev, ok := drain(t, sub).(events.ModeChanged); assert.True(t, ok) {
		assert.Equal(t, model.ModeAutopilot, ev.Mode)
	}

	_, err := c.Evaluate(peakSample(200, 100))
	require.NoError(t, err)

	if ev, ok := drain(t, sub).(events.ActionApplied); assert.True(t, ok) {
		assert.Equal(t, model.ActionBatteryDispatch, ev.Action.Type)
		assert.True(t, ev.Action.Automatic)
	}
	if ev, ok := drain(t, sub).(events.BreachDetected); assert.True(t, ok) {
		assert.Equal(t, 50.0, ev.ExcessKW)
		assert.Equal(t, model.ModeAutopilot, ev.Mode)
	}
}

func TestResetEvent(t *testing.T) {
	bus := eventbus.New()
	defer bus.Close()
	sub := bus.Subscribe()

	c := New(Config{}, tariff.Schedule{}, solar.Config{}, nil, "site-a", 100, logger.NopLogger{}, bus)
	c.Reset()
	_, ok := drain(t, sub).(events.ActionsReset)
	assert.True(t, ok)
}
