package app

import (
	"context"
	"fmt"
	"time"

	"github.com/matriops/lifeline/config"
	"github.com/matriops/lifeline/core/alert"
	"github.com/matriops/lifeline/core/dispatch"
	"github.com/matriops/lifeline/core/events"
	"github.com/matriops/lifeline/core/fleet"
	coremetrics "github.com/matriops/lifeline/core/metrics"
	"github.com/matriops/lifeline/core/notify"
	"github.com/matriops/lifeline/core/triplog"
	"github.com/matriops/lifeline/infra/logger"
	"github.com/matriops/lifeline/infra/metrics"
	"github.com/matriops/lifeline/infra/mqtt"
	infrastore "github.com/matriops/lifeline/infra/store"
	"github.com/matriops/lifeline/internal/eventbus"
)

// Service orchestrates the store, registries, coordinator and connectors.
type Service struct {
	Store       *infrastore.MemoryStore
	Alerts      *alert.Registry
	Fleet       *fleet.Registry
	Coordinator *dispatch.Coordinator
	Feed        *notify.Feed

	bus         eventbus.EventBus
	bridge      *mqtt.Bridge
	publisher   mqtt.Publisher
	trips       triplog.Recorder
	log         logger.Logger
	promEnabled bool
	promPort    string
	sweepEvery  time.Duration
}

// New creates a Service from the configuration.
func New(cfg *config.Config) (*Service, error) {
	logg := logger.New("service")
	cfg.Logging.Apply()

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
	var sink coremetrics.Sink
	if len(sinks) == 1 {
		sink = sinks[0]
	} else if len(sinks) > 1 {
		sink = metrics.NewMultiSink(sinks...)
	}

	bus := eventbus.New()
	st := infrastore.NewMemoryStore()

	alerts, err := alert.NewRegistry(st, bus, logger.New("alert_registry"))
	if err != nil {
		return nil, fmt.Errorf("alert registry: %w", err)
	}
	fl, err := fleet.NewRegistry(st, logger.New("fleet_registry"))
	if err != nil {
		return nil, fmt.Errorf("fleet registry: %w", err)
	}
	feed, err := notify.NewFeed(st, logger.New("notify_feed"))
	if err != nil {
		return nil, fmt.Errorf("notify feed: %w", err)
	}
	trips, err := cfg.TripLog.Open()
	if err != nil {
		return nil, fmt.Errorf("trip log: %w", err)
	}
	coord, err := dispatch.NewCoordinator(alerts, fl, st, trips, sink, bus, logger.New("coordinator"), cfg.Dispatch)
	if err != nil {
		return nil, fmt.Errorf("coordinator: %w", err)
	}

	svc := &Service{
		Store:       st,
		Alerts:      alerts,
		Fleet:       fl,
		Coordinator: coord,
		Feed:        feed,
		bus:         bus,
		trips:       trips,
		log:         logg,
		promEnabled: cfg.Metrics.PrometheusEnabled,
		promPort:    cfg.Metrics.PrometheusPort,
		sweepEvery:  time.Duration(cfg.Dispatch.SweepIntervalSeconds) * time.Second,
	}

	if cfg.MQTT.Enabled {
		pub, err := mqtt.NewPahoPublisher(cfg.MQTT)
		if err != nil {
			return nil, fmt.Errorf("mqtt client: %w", err)
		}
		svc.publisher = pub
		svc.bridge = mqtt.NewBridge(pub, cfg.MQTT.TopicPrefix)
	}

	for _, seed := range cfg.Fleet.Responders {
		if err := fl.Register(context.Background(), seed.Model()); err != nil {
			return nil, fmt.Errorf("register responder %s: %w", seed.ID, err)
		}
	}
	return svc, nil
}

// Run starts the service loops and blocks until the context is cancelled.
func (s *Service) Run(ctx context.Context) error {
	go s.forward(ctx)
	go s.sweep(ctx)
	if s.promEnabled {
		go func() {
			if err := metrics.StartPromServer(ctx, s.promPort); err != nil {
				s.log.Errorf("prom server: %v", err)
			}
		}()
	}
	<-ctx.Done()
	return nil
}

// forward fans domain events out to the operator feed and the MQTT bridge.
func (s *Service) forward(ctx context.Context) {
	sub := s.bus.SubscribeBuffered(64)
	defer s.bus.Unsubscribe(sub)
	for {
		select {
		case <-ctx.Done():
			return
		case e, ok := <-sub:
			if !ok {
				return
			}
			switch ev := e.(type) {
			case events.AlertRaisedEvent:
				n, err := s.Feed.PushSOSNotice(ctx, ev.Alert)
				if err != nil {
					s.log.Errorf("sos notice: %v", err)
				}
				if s.bridge != nil {
					s.bridge.AlertRaised(ev)
					if err == nil {
						s.bridge.Notice(n)
					}
				}
			case events.StageEvent:
				if s.bridge != nil {
					s.bridge.Stage(ev)
				}
			case events.ResolveEvent:
				if s.bridge != nil {
					s.bridge.Resolved(ev)
				}
			case events.CancelEvent:
				if s.bridge != nil {
					s.bridge.Canceled(ev)
				}
			case events.OrphanReleasedEvent:
				s.log.Warnf("responder %s released from missing alert %s", ev.ResponderID, ev.PatientID)
			}
		}
	}
}

// sweep periodically releases BUSY responders whose alert is gone.
func (s *Service) sweep(ctx context.Context) {
	ticker := time.NewTicker(s.sweepEvery)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := s.Coordinator.ReleaseOrphans(ctx); err != nil {
				s.log.Errorf("orphan sweep: %v", err)
			}
		}
	}
}

// Close releases resources held by the service.
func (s *Service) Close() error {
	if s.publisher != nil {
		s.publisher.Disconnect()
	}
	s.bus.Close()
	return s.trips.Close()
}
