package metrics

import (
	"context"
	"net/http"
	"strings"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"
	"github.com/influxdata/influxdb-client-go/v2/api/write"

	coremetrics "github.com/matriops/lifeline/core/metrics"
	"github.com/matriops/lifeline/infra/logger"
)

// InfluxSink writes mission events to an InfluxDB instance using the
// official client. Backs the operations dashboards (missions over time,
// fleet utilization).
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

// RecordMissionEvent writes the mission events as line protocol points.
func (s *InfluxSink) RecordMissionEvent(evs []coremetrics.MissionEvent) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	for _, ev := range evs {
		p := write.NewPointWithMeasurement("mission_event").
			AddTag("patient_id", ev.PatientID).
			AddTag("responder_id", ev.ResponderID).
			AddTag("stage", string(ev.Stage)).
			AddTag("component", "dispatch_coordinator").
			AddField("resolved", ev.Cause != "").
			SetTime(ev.Time)
		if ev.Cause != "" {
			p.AddTag("cause", ev.Cause)
		}
		if err := s.writeAPI.WritePoint(ctx, p); err != nil {
			return err
		}
	}
	return nil
}

// RecordFleetSize writes a fleet size sample.
func (s *InfluxSink) RecordFleetSize(size int) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	p := write.NewPointWithMeasurement("fleet_size").
		AddTag("component", "dispatch_coordinator").
		AddField("responders", size).
		SetTime(time.Now())
	return s.writeAPI.WritePoint(ctx, p)
}

// Close releases the underlying HTTP client.
func (s *InfluxSink) Close() { s.client.Close() }
