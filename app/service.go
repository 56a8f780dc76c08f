// Package app assembles the service from its configuration.
package app

import (
	"context"
	"fmt"

	"github.com/kilianp07/peakguard/api"
	"github.com/kilianp07/peakguard/config"
	"github.com/kilianp07/peakguard/core/events"
	"github.com/kilianp07/peakguard/core/forecast"
	"github.com/kilianp07/peakguard/core/kpi"
	coremetrics "github.com/kilianp07/peakguard/core/metrics"
	"github.com/kilianp07/peakguard/core/shaving"
	"github.com/kilianp07/peakguard/core/telemetry"
	"github.com/kilianp07/peakguard/infra/logger"
	"github.com/kilianp07/peakguard/infra/metrics"
	"github.com/kilianp07/peakguard/infra/mqtt"
	"github.com/kilianp07/peakguard/internal/eventbus"
)

// Service orchestrates the mitigation controller, telemetry transport,
// metrics sinks and the dashboard API.
type Service struct {
	Controller *shaving.Controller
	Provider   *forecast.BaselineProvider

	cfg       *config.Config
	source    telemetry.Source
	publisher telemetry.ActionPublisher
	bus       *eventbus.Bus
	kpiStore  *kpi.MemoryStore
	log       logger.Logger

	// prevFeatures lets the baseline learn from realized loads: the next
	// tick's 1h lag is the actual load for the previous features.
	prevFeatures *telemetry.Message
}

// New creates a Service from the configuration.
func New(cfg *config.Config) (*Service, error) {
	logg := logger.New("service")

	var sinks []coremetrics.Sink
	if cfg.Metrics.PrometheusEnabled {
		sink, err := metrics.NewPromSink(cfg.Metrics)
		if err != nil {
			return nil, fmt.Errorf("prom sink: %w", err)
		}
		sinks = append(sinks, sink)
	}
	if cfg.Metrics.InfluxEnabled {
		sinks = append(sinks, metrics.NewInfluxSinkWithFallback(cfg.Metrics))
	}
	var sink coremetrics.Sink = coremetrics.NopSink{}
	if len(sinks) == 1 {
		sink = sinks[0]
	} else if len(sinks) > 1 {
		sink = metrics.NewMultiSink(sinks...)
	}

	bus := eventbus.New()
	provider := forecast.NewBaselineProvider(cfg.Forecast.HistoryWindow)
	ctrl := shaving.New(
		cfg.Mitigation,
		cfg.Tariff,
		cfg.Solar,
		provider,
		cfg.Building.Site,
		cfg.Building.ContractLimitKW,
		logger.New("controller"),
		bus,
	)
	ctrl.SetSink(sink)
	store := kpi.NewMemoryStore()
	ctrl.SetKPIStore(store)

	svc := &Service{
		Controller: ctrl,
		Provider:   provider,
		cfg:        cfg,
		bus:        bus,
		kpiStore:   store,
		log:        logg,
	}

	if cfg.MQTT.Broker != "" {
		client, err := mqtt.NewPahoClient(cfg.MQTT)
		if err != nil {
			return nil, fmt.Errorf("mqtt client: %w", err)
		}
		svc.source = client
		svc.publisher = client
	}
	return svc, nil
}

// Run starts the service loops and blocks until the context is cancelled.
func (s *Service) Run(ctx context.Context) error {
	if s.publisher != nil {
		go s.forwardActions(ctx)
	}
	if s.cfg.Metrics.PrometheusEnabled {
		go func() {
			if err := metrics.StartPromServer(ctx, s.cfg.Metrics.PrometheusPort); err != nil {
				s.log.Errorf("prom server: %v", err)
			}
		}()
	}
	if s.cfg.API.Enabled {
		srv := api.NewServer(s.Controller, s.kpiStore, s.cfg.Building.PrimaryUse, logger.New("api"))
		go func() {
			if err := srv.Serve(ctx, s.cfg.API.Addr, s.cfg.API.AllowedOrigins); err != nil {
				s.log.Errorf("api server: %v", err)
			}
		}()
	}
	if s.source != nil {
		go s.consumeTelemetry(ctx)
	}
	<-ctx.Done()
	return nil
}

// consumeTelemetry evaluates every incoming telemetry message: one message
// per site per time step is the dashboard refresh tick.
func (s *Service) consumeTelemetry(ctx context.Context) {
	for {
		select {
		case msg, ok := <-s.source.Messages():
			if !ok {
				return
			}
			s.handleTelemetry(msg)
		case <-ctx.Done():
			return
		}
	}
}

func (s *Service) handleTelemetry(msg telemetry.Message) {
	if s.prevFeatures != nil && s.prevFeatures.Site == msg.Site {
		s.Provider.Observe(s.prevFeatures.Features, msg.Features.LoadLag1hKW)
	}
	s.prevFeatures = &msg

	ev, err := s.Controller.EvaluateFeatures(msg.Features)
	if err != nil {
		s.log.Errorf("evaluate %s: %v", msg.Site, err)
		return
	}
	s.log.Debugw("tick evaluated", map[string]any{
		"site":   msg.Site,
		"net_kw": ev.NetLoadKW,
		"breach": ev.Breach,
	})
}

// forwardActions publishes applied mitigation actions to the command topic.
func (s *Service) forwardActions(ctx context.Context) {
	sub := s.bus.Subscribe()
	defer s.bus.Unsubscribe(sub)
	for {
		select {
		case e, ok := <-sub:
			if !ok {
				return
			}
			if applied, isAction := e.(events.ActionApplied); isAction {
				if err := s.publisher.PublishAction(s.cfg.Building.Site, applied.Action); err != nil {
					s.log.Errorf("publish action: %v", err)
				}
			}
		case <-ctx.Done():
			return
		}
	}
}

// Close releases resources held by the service.
func (s *Service) Close() error {
	s.bus.Close()
	if s.source != nil {
		return s.source.Close()
	}
	return nil
}
