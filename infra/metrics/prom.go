package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"

	coremetrics "github.com/kilianp07/peakguard/core/metrics"
)

// PromSink records controller evaluations in Prometheus metrics.
type PromSink struct {
	evaluations *prometheus.CounterVec
	actions     *prometheus.CounterVec
	netLoad     *prometheus.GaugeVec
	savings     *prometheus.GaugeVec
	penalty     *prometheus.GaugeVec
	co2         *prometheus.GaugeVec
}

// NewPromSink registers evaluation metrics on the default Prometheus
// registerer. The Prometheus server should be started separately using
// cfg.PrometheusPort.
func NewPromSink(cfg coremetrics.Config) (coremetrics.Sink, error) {
	return NewPromSinkWithRegistry(cfg, prometheus.DefaultRegisterer)
}

// NewPromSinkWithRegistry registers metrics on the provided registerer.
// A nil registerer defaults to the global Prometheus registerer.
func NewPromSinkWithRegistry(cfg coremetrics.Config, reg prometheus.Registerer) (coremetrics.Sink, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	s := &PromSink{
		evaluations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "peakguard_evaluations_total",
			Help: "Total number of controller evaluations",
		}, []string{"site", "tariff", "breach"}),
		actions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "peakguard_actions_total",
			Help: "Total number of mitigation actions engaged",
		}, []string{"site", "action", "mode"}),
		netLoad: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "peakguard_net_load_kw",
			Help: "Net load after solar offset and mitigation",
		}, []string{"site"}),
		savings: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "peakguard_session_savings_rupees",
			Help: "Cumulative avoided penalty for the session",
		}, []string{"site"}),
		penalty: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "peakguard_session_penalty_rupees",
			Help: "Cumulative accrued penalty for the session",
		}, []string{"site"}),
		co2: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "peakguard_session_co2_avoided_kg",
			Help: "Cumulative avoided CO2 for the session",
		}, []string{"site"}),
	}

	collectors := []prometheus.Collector{s.evaluations, s.actions, s.netLoad, s.savings, s.penalty, s.co2}
	registered := make([]prometheus.Collector, 0, len(collectors))
	for _, c := range collectors {
		rc, err := registerOrExisting(reg, c)
		if err != nil {
			return nil, err
		}
		registered = append(registered, rc)
	}
	s.evaluations = registered[0].(*prometheus.CounterVec)
	s.actions = registered[1].(*prometheus.CounterVec)
	s.netLoad = registered[2].(*prometheus.GaugeVec)
	s.savings = registered[3].(*prometheus.GaugeVec)
	s.penalty = registered[4].(*prometheus.GaugeVec)
	s.co2 = registered[5].(*prometheus.GaugeVec)
	return s, nil
}

func registerOrExisting(reg prometheus.Registerer, c prometheus.Collector) (prometheus.Collector, error) {
	if err := reg.Register(c); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			return are.ExistingCollector, nil
		}
		return nil, err
	}
	return c, nil
}

// RecordEvaluation updates the counters and gauges for one evaluation.
func (s *PromSink) RecordEvaluation(rec coremetrics.EvaluationRecord) error {
	s.evaluations.WithLabelValues(rec.Site, rec.Tariff.String(), strconv.FormatBool(rec.Breach)).Inc()
	if rec.Action != nil {
		s.actions.WithLabelValues(rec.Site, rec.Action.Type.String(), rec.Mode.String()).Inc()
	}
	s.netLoad.WithLabelValues(rec.Site).Set(rec.NetLoadKW)
	s.savings.WithLabelValues(rec.Site).Add(rec.SavingsRupees)
	s.penalty.WithLabelValues(rec.Site).Add(rec.PenaltyRupees)
	s.co2.WithLabelValues(rec.Site).Add(rec.CO2AvoidedKg)
	return nil
}
