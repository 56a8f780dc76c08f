package metrics

import (
	"context"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"
	"github.com/influxdata/influxdb-client-go/v2/api/write"

	coremetrics "github.com/kilianp07/peakguard/core/metrics"
	"github.com/kilianp07/peakguard/infra/logger"
)

// InfluxSink writes evaluation records to an InfluxDB instance using the
// official client.
type InfluxSink struct {
	client   influxdb2.Client
	writeAPI api.WriteAPIBlocking
	log      logger.Logger
}

// NewInfluxSink creates a new sink configured for the given InfluxDB endpoint.
func NewInfluxSink(cfg coremetrics.Config) *InfluxSink {
	base := strings.TrimSuffix(cfg.InfluxURL, "/api/v2/write")
	client := influxdb2.NewClientWithOptions(base, cfg.InfluxToken,
		influxdb2.DefaultOptions().SetHTTPClient(&http.Client{Timeout: 5 * time.Second}))
	return &InfluxSink{
		client:   client,
		writeAPI: client.WriteAPIBlocking(cfg.InfluxOrg, cfg.InfluxBucket),
		log:      logger.New("influx-sink"),
	}
}

// NewInfluxSinkWithFallback tries to ping the InfluxDB instance and
// returns a NopSink if the health check fails.
func NewInfluxSinkWithFallback(cfg coremetrics.Config) coremetrics.Sink {
	sink := NewInfluxSink(cfg)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	health, err := sink.client.Health(ctx)
	if err != nil || health.Status != "pass" {
		if err != nil {
			sink.log.Errorf("influx health check error: %v", err)
		} else {
			sink.log.Errorf("influx health status: %s", health.Status)
		}
		sink.client.Close()
		return coremetrics.NopSink{}
	}
	return sink
}

// RecordEvaluation writes the evaluation as a line protocol point.
func (s *InfluxSink) RecordEvaluation(rec coremetrics.EvaluationRecord) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	p := write.NewPointWithMeasurement("evaluation").
		AddTag("site", rec.Site).
		AddTag("tariff", rec.Tariff.String()).
		AddTag("mode", rec.Mode.String()).
		AddTag("breach", strconv.FormatBool(rec.Breach)).
		AddField("raw_load_kw", round3(rec.RawLoadKW)).
		AddField("solar_kw", round3(rec.SolarKW)).
		AddField("net_load_kw", round3(rec.NetLoadKW)).
		AddField("limit_kw", round3(rec.LimitKW)).
		AddField("penalty_rupees", round3(rec.PenaltyRupees)).
		AddField("savings_rupees", round3(rec.SavingsRupees)).
		AddField("co2_avoided_kg", round3(rec.CO2AvoidedKg)).
		SetTime(rec.Timestamp)
	if rec.Action != nil {
		p.AddTag("action", rec.Action.Type.String())
		p.AddField("action_reduction_kw", round3(rec.Action.ReductionKW))
	}
	return s.writeAPI.WritePoint(ctx, p)
}

// Close releases the underlying client.
func (s *InfluxSink) Close() { s.client.Close() }

func round3(v float64) float64 {
	return math.Round(v*1000) / 1000
}
