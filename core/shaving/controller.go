// Package shaving implements the peak-shaving mitigation controller. Given
// a forecast sample it decides whether the contracted demand limit is
// breached and, depending on the operating mode, either surfaces the breach
// or engages a mitigation action.
package shaving

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/kilianp07/peakguard/core/events"
	"github.com/kilianp07/peakguard/core/forecast"
	"github.com/kilianp07/peakguard/core/kpi"
	"github.com/kilianp07/peakguard/core/logger"
	"github.com/kilianp07/peakguard/core/metrics"
	"github.com/kilianp07/peakguard/core/model"
	"github.com/kilianp07/peakguard/core/solar"
	"github.com/kilianp07/peakguard/core/tariff"
	"github.com/kilianp07/peakguard/internal/eventbus"
)

// Phase is the controller state machine position.
type Phase int

const (
	// PhaseMonitoring is the idle state: load under limit, no active actions.
	PhaseMonitoring Phase = iota
	// PhaseMitigating is entered while a breach is open or actions are engaged.
	PhaseMitigating
)

// String returns a human-readable representation of the phase.
func (p Phase) String() string {
	switch p {
	case PhaseMonitoring:
		return "monitoring"
	case PhaseMitigating:
		return "mitigating"
	default:
		return "unknown"
	}
}

// Evaluation is the outcome of one controller tick. Monetary amounts assume
// one evaluation per hour block, matching the tariff rates in Rs/kWh.
type Evaluation struct {
	Sample        model.ForecastSample `json:"sample"`
	SolarKW       float64              `json:"solar_kw"`
	BaseLoadKW    float64              `json:"base_load_kw"`
	BatteryKW     float64              `json:"battery_kw"`
	HVACKW        float64              `json:"hvac_kw"`
	NetLoadKW     float64              `json:"net_load_kw"`
	Breach        bool                 `json:"breach"`
	ExcessKW      float64              `json:"excess_kw"`
	Action        *model.Action        `json:"action,omitempty"`
	RatePerKWh    float64              `json:"rate_per_kwh"`
	PenaltyRupees float64              `json:"penalty_rupees"`
	SavingsRupees float64              `json:"savings_rupees"`
	// EnergySavingsRupees is the display-only cost delta against running
	// unmitigated and without solar. It is not accumulated into state.
	EnergySavingsRupees float64 `json:"energy_savings_rupees"`
	CO2AvoidedKg        float64 `json:"co2_avoided_kg"`
	GridEmissionsKg     float64 `json:"grid_emissions_kg"`
	Phase               Phase   `json:"phase"`
}

// Controller is the only mutator of MitigationState. It is safe for
// concurrent use: evaluations run one at a time and the HTTP layer reads
// snapshots under the same lock.
type Controller struct {
	cfg      Config
	schedule tariff.Schedule
	pv       solar.Config
	provider forecast.Provider
	limitKW  float64
	site     string

	log logger.Logger
	bus eventbus.EventBus

	sink metrics.Sink
	kpis kpi.Store

	mu       sync.Mutex
	state    model.MitigationState
	phase    Phase
	lastEval *Evaluation
}

// New creates a Controller. The provider may be nil when samples are always
// supplied pre-predicted; bus may be nil to disable event publication.
func New(cfg Config, schedule tariff.Schedule, pv solar.Config, provider forecast.Provider, site string, limitKW float64, log logger.Logger, bus eventbus.EventBus) *Controller {
	cfg.SetDefaults()
	schedule.SetDefaults()
	pv.SetDefaults()
	return &Controller{
		cfg:      cfg,
		schedule: schedule,
		pv:       pv,
		provider: provider,
		limitKW:  limitKW,
		site:     site,
		log:      log,
		bus:      bus,
	}
}

// Site returns the configured site identifier.
func (c *Controller) Site() string { return c.site }

// Phase returns the current state machine position.
func (c *Controller) Phase() Phase {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.phase
}

// SetSink configures the sink used to record evaluations.
func (c *Controller) SetSink(s metrics.Sink) {
	c.mu.Lock()
	c.sink = s
	c.mu.Unlock()
}

// SetKPIStore configures the store used to aggregate daily KPIs.
func (c *Controller) SetKPIStore(s kpi.Store) {
	c.mu.Lock()
	c.kpis = s
	c.mu.Unlock()
}

// State returns a snapshot of the mitigation state for display.
func (c *Controller) State() model.MitigationState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// LastEvaluation returns the most recent evaluation, or nil before the
// first tick.
func (c *Controller) LastEvaluation() *Evaluation {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.lastEval == nil {
		return nil
	}
	ev := *c.lastEval
	return &ev
}

// SetMode switches between manual and autopilot operation.
func (c *Controller) SetMode(m model.Mode) {
	c.mu.Lock()
	changed := c.state.Mode != m
	c.state.Mode = m
	c.mu.Unlock()
	if changed {
		c.log.Infof("mode set to %s", m)
		c.publish(events.ModeChanged{Mode: m})
	}
}

// Reset clears active mitigation actions. Accumulators are preserved; they
// only reset when the session restarts.
func (c *Controller) Reset() {
	c.mu.Lock()
	c.state.BatteryActive = false
	c.state.HVACReductionActive = false
	if c.phase == PhaseMitigating && (c.lastEval == nil || !c.lastEval.Breach) {
		c.phase = PhaseMonitoring
	}
	c.mu.Unlock()
	c.log.Infof("mitigation actions reset")
	c.publish(events.ActionsReset{Timestamp: time.Now()})
}

// DispatchBattery engages the battery in manual mode. The call is
// idempotent: a second dispatch while the battery is active returns the
// standing action without accruing anything.
func (c *Controller) DispatchBattery() (model.Action, error) {
	return c.manualAction(model.ActionBatteryDispatch)
}

// OptimizeHVAC engages the HVAC setpoint shift in manual mode. Idempotent in
// the same way as DispatchBattery.
func (c *Controller) OptimizeHVAC() (model.Action, error) {
	return c.manualAction(model.ActionHVACOptimize)
}

func (c *Controller) manualAction(t model.ActionType) (model.Action, error) {
	c.mu.Lock()
	if c.state.Mode == model.ModeAutopilot {
		mode := c.state.Mode
		c.mu.Unlock()
		return model.Action{}, &ModeConflictError{Mode: mode, Action: t}
	}
	reduction := c.cfg.BatteryReductionKW
	active := &c.state.BatteryActive
	if t == model.ActionHVACOptimize {
		active = &c.state.HVACReductionActive
		reduction = 0
		if c.lastEval != nil {
			reduction = c.cfg.HVACReductionFraction * c.lastEval.Sample.PredictedLoadKW
		}
	}
	if *active {
		c.mu.Unlock()
		c.log.Debugf("%s already active, ignoring repeat dispatch", t)
		return model.Action{Type: t, ReductionKW: reduction}, nil
	}
	*active = true
	c.phase = PhaseMitigating
	act := model.Action{
		ID:          uuid.NewString(),
		Type:        t,
		ReductionKW: reduction,
		AppliedAt:   time.Now(),
	}
	c.mu.Unlock()

	c.log.Infof("manual %s engaged (%.1f kW)", t, reduction)
	c.publish(events.ActionApplied{Action: act})
	return act, nil
}

// EvaluateFeatures predicts the load for the given conditions and evaluates
// the resulting sample. The provider must be configured.
func (c *Controller) EvaluateFeatures(f model.Features) (Evaluation, error) {
	if err := f.Validate(); err != nil {
		return Evaluation{}, err
	}
	loadKW, err := c.provider.Predict(f)
	if err != nil {
		return Evaluation{}, err
	}
	sample := model.ForecastSample{
		Timestamp:       f.Timestamp,
		PredictedLoadKW: loadKW,
		Tariff:          c.schedule.PeriodAt(f.Hour()),
		ContractLimitKW: c.limitKW,
	}
	return c.Evaluate(sample)
}

// Evaluate runs one controller tick against the sample. In manual mode a
// breach only accrues penalty and is surfaced to the caller; in autopilot at
// most one new action is engaged per tick, battery before HVAC.
func (c *Controller) Evaluate(sample model.ForecastSample) (Evaluation, error) {
	if err := sample.Validate(); err != nil {
		return Evaluation{}, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	hour := sample.Timestamp.Hour()
	raw := sample.PredictedLoadKW
	solarKW := c.pv.GenerationKW(hour)
	base := raw - solarKW
	if base < 0 {
		base = 0
	}

	var applied *model.Action
	if c.state.Mode == model.ModeAutopilot {
		applied = c.autopilotStep(raw, base, sample.ContractLimitKW)
	}

	batteryKW, hvacKW := 0.0, 0.0
	if c.state.BatteryActive {
		batteryKW = c.cfg.BatteryReductionKW
	}
	if c.state.HVACReductionActive {
		hvacKW = c.cfg.HVACReductionFraction * raw
	}

	net := base - batteryKW - hvacKW
	if net < 0 {
		net = 0
	}

	ev := Evaluation{
		Sample:     sample,
		SolarKW:    solarKW,
		BaseLoadKW: base,
		BatteryKW:  batteryKW,
		HVACKW:     hvacKW,
		NetLoadKW:  net,
		Action:     applied,
		RatePerKWh: c.schedule.RateFor(sample.Tariff),
	}

	limit := sample.ContractLimitKW
	baseExcess := max0(base - limit)
	netExcess := max0(net - limit)
	penaltyRate := c.schedule.PenaltyRateFor(sample.Tariff)

	ev.Breach = netExcess > 0
	ev.ExcessKW = netExcess
	ev.PenaltyRupees = penaltyRate * netExcess
	ev.SavingsRupees = penaltyRate * (baseExcess - netExcess)
	ev.EnergySavingsRupees = (raw - net) * ev.RatePerKWh
	ev.CO2AvoidedKg = (solarKW + batteryKW + hvacKW) * c.cfg.EmissionFactorKgPerKWh
	ev.GridEmissionsKg = net * c.cfg.EmissionFactorKgPerKWh

	c.state.CumulativePenaltyRupees += ev.PenaltyRupees
	c.state.CumulativeSavingsRupees += ev.SavingsRupees
	c.state.CumulativeCO2AvoidedKg += ev.CO2AvoidedKg

	if ev.Breach || c.state.BatteryActive || c.state.HVACReductionActive {
		c.phase = PhaseMitigating
	} else {
		c.phase = PhaseMonitoring
	}
	ev.Phase = c.phase

	evCopy := ev
	c.lastEval = &evCopy

	c.record(ev)

	if ev.Breach {
		c.log.Warnf("breach: net %.1f kW over limit %.1f kW (%s)", net, limit, sample.Tariff)
		c.publish(events.BreachDetected{
			Timestamp: sample.Timestamp,
			NetLoadKW: net,
			LimitKW:   limit,
			ExcessKW:  netExcess,
			Tariff:    sample.Tariff,
			Mode:      c.state.Mode,
		})
	} else {
		c.log.Debugw("evaluation ok", map[string]any{
			"net_kw":   net,
			"limit_kw": limit,
			"tariff":   sample.Tariff.String(),
		})
	}
	return ev, nil
}

// autopilotStep engages at most one new action per tick: the battery first,
// HVAC only once the battery is already running and the limit is still
// exceeded. Called with c.mu held.
func (c *Controller) autopilotStep(raw, base, limit float64) *model.Action {
	residual := base
	if c.state.BatteryActive {
		residual -= c.cfg.BatteryReductionKW
	}
	if c.state.HVACReductionActive {
		residual -= c.cfg.HVACReductionFraction * raw
	}
	if residual <= limit {
		return nil
	}

	var act model.Action
	switch {
	case !c.state.BatteryActive:
		c.state.BatteryActive = true
		act = model.Action{
			ID:          uuid.NewString(),
			Type:        model.ActionBatteryDispatch,
			ReductionKW: c.cfg.BatteryReductionKW,
			AppliedAt:   time.Now(),
			Automatic:   true,
		}
	case !c.state.HVACReductionActive:
		c.state.HVACReductionActive = true
		act = model.Action{
			ID:          uuid.NewString(),
			Type:        model.ActionHVACOptimize,
			ReductionKW: c.cfg.HVACReductionFraction * raw,
			AppliedAt:   time.Now(),
			Automatic:   true,
		}
	default:
		// Both levers exhausted; the breach persists and accrues penalty.
		return nil
	}

	c.log.Infof("autopilot engaged %s (%.1f kW)", act.Type, act.ReductionKW)
	c.publish(events.ActionApplied{Action: act})
	return &act
}

// record forwards the evaluation to the metrics sink and the KPI store.
// Called with c.mu held.
func (c *Controller) record(ev Evaluation) {
	if c.sink != nil {
		rec := metrics.EvaluationRecord{
			Site:          c.site,
			Timestamp:     ev.Sample.Timestamp,
			Tariff:        ev.Sample.Tariff,
			Mode:          c.state.Mode,
			RawLoadKW:     ev.Sample.PredictedLoadKW,
			SolarKW:       ev.SolarKW,
			NetLoadKW:     ev.NetLoadKW,
			LimitKW:       ev.Sample.ContractLimitKW,
			Breach:        ev.Breach,
			Action:        ev.Action,
			PenaltyRupees: ev.PenaltyRupees,
			SavingsRupees: ev.SavingsRupees,
			CO2AvoidedKg:  ev.CO2AvoidedKg,
		}
		if err := c.sink.RecordEvaluation(rec); err != nil {
			c.log.Errorf("record evaluation: %v", err)
		}
	}
	if c.kpis != nil {
		breaches := 0
		if ev.Breach {
			breaches = 1
		}
		err := c.kpis.Add(kpi.Record{
			Site:          c.site,
			Date:          ev.Sample.Timestamp,
			SavingsRupees: ev.SavingsRupees,
			PenaltyRupees: ev.PenaltyRupees,
			CO2AvoidedKg:  ev.CO2AvoidedKg,
			Breaches:      breaches,
			Evaluations:   1,
		})
		if err != nil {
			c.log.Errorf("record kpi: %v", err)
		}
	}
}

func (c *Controller) publish(e eventbus.Event) {
	if c.bus != nil {
		c.bus.Publish(e)
	}
}

func max0(v float64) float64 {
	if v < 0 {
		return 0
	}
	return v
}
