package dispatch

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/matriops/lifeline/core/alert"
	"github.com/matriops/lifeline/core/chat"
	"github.com/matriops/lifeline/core/events"
	"github.com/matriops/lifeline/core/fleet"
	"github.com/matriops/lifeline/core/logger"
	"github.com/matriops/lifeline/core/metrics"
	"github.com/matriops/lifeline/core/model"
	"github.com/matriops/lifeline/core/store"
	"github.com/matriops/lifeline/core/triplog"
	"github.com/matriops/lifeline/internal/eventbus"
)

// Coordinator applies the mission state machine against the shared store.
type Coordinator struct {
	alerts    *alert.Registry
	fleet     *fleet.Registry
	store     store.Store
	trips     triplog.Recorder
	sink      metrics.Sink
	bus       eventbus.EventBus
	log       logger.Logger
	opTimeout time.Duration
	fare      float64
}

// NewCoordinator creates a coordinator. Trip recorder, metrics sink and bus
// are optional.
func NewCoordinator(alerts *alert.Registry, fl *fleet.Registry, st store.Store, trips triplog.Recorder, sink metrics.Sink, bus eventbus.EventBus, log logger.Logger, cfg Config) (*Coordinator, error) {
	if alerts == nil || fl == nil || st == nil {
		return nil, fmt.Errorf("dispatch: nil parameter provided to NewCoordinator")
	}
	cfg.SetDefaults()
	if trips == nil {
		trips = triplog.NopRecorder{}
	}
	if sink == nil {
		sink = metrics.NopSink{}
	}
	if log == nil {
		log = logger.NopLogger{}
	}
	return &Coordinator{
		alerts:    alerts,
		fleet:     fl,
		store:     st,
		trips:     trips,
		sink:      sink,
		bus:       bus,
		log:       log,
		opTimeout: time.Duration(cfg.OpTimeoutSeconds) * time.Second,
		fare:      cfg.DefaultFare,
	}, nil
}

// bound applies the operation timeout when the caller supplied none.
func (c *Coordinator) bound(ctx context.Context) (context.Context, context.CancelFunc) {
	if _, ok := ctx.Deadline(); ok {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, c.opTimeout)
}

// Assign pairs an idle responder with an ACTIVE alert. The claim on the
// responder is exclusive; losing a race surfaces ErrResponderUnavailable and
// the operator re-fetches the pool. If the alert disappears between the claim
// and the alert write, the responder claim is rolled back so no unit is left
// BUSY against a missing alert.
func (c *Coordinator) Assign(ctx context.Context, patientID, responderID string, by model.Actor) error {
	ctx, cancel := c.bound(ctx)
	defer cancel()

	a, err := c.alerts.Get(ctx, patientID)
	if err != nil {
		assignFailures.WithLabelValues(failureReason(err)).Inc()
		return err
	}
	if _, err := Next(a.Status, EventAssign); err != nil {
		assignFailures.WithLabelValues("invalid_transition").Inc()
		return err
	}
	if err := c.fleet.Claim(ctx, responderID, patientID); err != nil {
		assignFailures.WithLabelValues(failureReason(err)).Inc()
		return err
	}
	if err := c.alerts.MarkStatus(ctx, a, model.AlertDriverAccepted, responderID); err != nil {
		// Lost the race on the alert record: compensate by releasing the
		// responder we just claimed.
		if rerr := c.fleet.Release(ctx, responderID); rerr != nil {
			c.log.Errorf("compensating release of %s failed: %v", responderID, rerr)
		}
		assignFailures.WithLabelValues(failureReason(err)).Inc()
		return err
	}

	stageTransitions.WithLabelValues(EventAssign.String()).Inc()
	activeMissions.Inc()
	c.log.Infof("responder %s assigned to alert %s", responderID, patientID)
	c.publish(events.AssignEvent{PatientID: patientID, ResponderID: responderID, By: by})
	c.publish(events.StageEvent{
		PatientID:   patientID,
		ResponderID: responderID,
		From:        model.AlertActive,
		To:          model.AlertDriverAccepted,
		At:          time.Now(),
	})
	c.record(metrics.MissionEvent{
		PatientID:   patientID,
		ResponderID: responderID,
		Stage:       model.AlertDriverAccepted,
		Time:        time.Now(),
	})
	return nil
}

// ConfirmAcceptance is the driver's acknowledgment of an assignment. It is
// an idempotent re-affirmation: no store mutation, repeated calls succeed.
func (c *Coordinator) ConfirmAcceptance(ctx context.Context, patientID, responderID string) error {
	ctx, cancel := c.bound(ctx)
	defer cancel()

	a, err := c.alerts.Get(ctx, patientID)
	if err != nil {
		return err
	}
	if err := c.verifyOwner(a, responderID); err != nil {
		return err
	}
	if _, err := Next(a.Status, EventConfirm); err != nil {
		return err
	}
	stageTransitions.WithLabelValues(EventConfirm.String()).Inc()
	c.log.Debugf("responder %s confirmed mission %s", responderID, patientID)
	return nil
}

// MarkArrived advances the mission to DRIVER_ARRIVED. The responder record
// does not change.
func (c *Coordinator) MarkArrived(ctx context.Context, patientID, responderID string) error {
	ctx, cancel := c.bound(ctx)
	defer cancel()

	a, err := c.alerts.Get(ctx, patientID)
	if err != nil {
		return err
	}
	if err := c.verifyOwner(a, responderID); err != nil {
		return err
	}
	next, err := Next(a.Status, EventArrive)
	if err != nil {
		return err
	}
	if err := c.alerts.MarkStatus(ctx, a, next, responderID); err != nil {
		return err
	}
	stageTransitions.WithLabelValues(EventArrive.String()).Inc()
	c.publish(events.StageEvent{
		PatientID:   patientID,
		ResponderID: responderID,
		From:        a.Status,
		To:          next,
		At:          time.Now(),
	})
	c.record(metrics.MissionEvent{
		PatientID:   patientID,
		ResponderID: responderID,
		Stage:       next,
		Time:        time.Now(),
	})
	return nil
}

// StartTransport validates that the driver may begin patient transport.
// Navigation only: no store mutation beyond what arrival already wrote.
func (c *Coordinator) StartTransport(ctx context.Context, patientID, responderID string) error {
	ctx, cancel := c.bound(ctx)
	defer cancel()

	a, err := c.alerts.Get(ctx, patientID)
	if err != nil {
		return err
	}
	if err := c.verifyOwner(a, responderID); err != nil {
		return err
	}
	if _, err := Next(a.Status, EventTransport); err != nil {
		return err
	}
	stageTransitions.WithLabelValues(EventTransport.String()).Inc()
	c.log.Debugf("responder %s transporting patient %s", responderID, patientID)
	c.publish(events.StageEvent{
		PatientID:   patientID,
		ResponderID: responderID,
		From:        a.Status,
		To:          a.Status,
		At:          time.Now(),
	})
	c.record(metrics.MissionEvent{
		PatientID:   patientID,
		ResponderID: responderID,
		Stage:       a.Status,
		Time:        time.Now(),
	})
	return nil
}

// Complete finishes the mission: the alert is removed, the responder
// released back to the pool, and a completed-trip record appended.
func (c *Coordinator) Complete(ctx context.Context, patientID, responderID string) error {
	ctx, cancel := c.bound(ctx)
	defer cancel()

	a, err := c.alerts.Get(ctx, patientID)
	if err != nil {
		return err
	}
	if err := c.verifyOwner(a, responderID); err != nil {
		return err
	}
	if _, err := Next(a.Status, EventComplete); err != nil {
		return err
	}
	if err := c.alerts.Resolve(ctx, patientID); err != nil {
		return err
	}
	if err := c.fleet.Release(ctx, responderID); err != nil {
		c.log.Errorf("release of %s after completion failed: %v", responderID, err)
	}
	if err := c.trips.Append(ctx, triplog.Record{
		DriverID:  responderID,
		PatientID: patientID,
		Fare:      c.fare,
		Timestamp: time.Now(),
	}); err != nil {
		c.log.Errorf("trip log append failed: %v", err)
	}
	stageTransitions.WithLabelValues(EventComplete.String()).Inc()
	missionsResolved.WithLabelValues(string(events.ResolveCompleted)).Inc()
	activeMissions.Dec()
	c.log.Infof("mission %s completed by %s", patientID, responderID)
	c.publish(events.ResolveEvent{PatientID: patientID, ResponderID: responderID, Cause: events.ResolveCompleted})
	c.record(metrics.MissionEvent{
		PatientID:   patientID,
		ResponderID: responderID,
		Stage:       model.AlertResolved,
		Cause:       string(events.ResolveCompleted),
		Time:        time.Now(),
	})
	return nil
}

// Clear is the operator's manual early termination: the alert is removed
// from any live stage and an assigned responder is released exactly as on
// completion. Idempotent: clearing an alert that is already gone is a no-op.
func (c *Coordinator) Clear(ctx context.Context, patientID string) error {
	ctx, cancel := c.bound(ctx)
	defer cancel()

	a, err := c.alerts.Get(ctx, patientID)
	if err != nil {
		if errors.Is(err, model.ErrAlertGone) {
			return nil
		}
		return err
	}
	if err := c.alerts.Resolve(ctx, patientID); err != nil {
		return err
	}
	if a.Responder != "" {
		if err := c.fleet.Release(ctx, a.Responder); err != nil {
			c.log.Errorf("release of %s after clear failed: %v", a.Responder, err)
		}
		activeMissions.Dec()
	}
	stageTransitions.WithLabelValues(EventClear.String()).Inc()
	missionsResolved.WithLabelValues(string(events.ResolveCleared)).Inc()
	c.log.Infof("alert %s cleared by operator", patientID)
	c.publish(events.ResolveEvent{PatientID: patientID, ResponderID: a.Responder, Cause: events.ResolveCleared})
	c.record(metrics.MissionEvent{
		PatientID:   patientID,
		ResponderID: a.Responder,
		Stage:       model.AlertResolved,
		Cause:       string(events.ResolveCleared),
		Time:        time.Now(),
	})
	return nil
}

// CancelAssignment rolls the alert back to ACTIVE without resolving it and
// releases the responder. Used when an operator reassigns a mission.
func (c *Coordinator) CancelAssignment(ctx context.Context, patientID string) error {
	ctx, cancel := c.bound(ctx)
	defer cancel()

	a, err := c.alerts.Get(ctx, patientID)
	if err != nil {
		return err
	}
	if _, err := Next(a.Status, EventCancel); err != nil {
		return err
	}
	responderID := a.Responder
	if err := c.alerts.MarkStatus(ctx, a, model.AlertActive, ""); err != nil {
		return err
	}
	if err := c.fleet.Release(ctx, responderID); err != nil {
		c.log.Errorf("release of %s after cancel failed: %v", responderID, err)
	}
	stageTransitions.WithLabelValues(EventCancel.String()).Inc()
	activeMissions.Dec()
	c.log.Infof("assignment of %s to %s canceled", responderID, patientID)
	c.publish(events.CancelEvent{PatientID: patientID, ResponderID: responderID})
	return nil
}

// ReleaseOrphans releases BUSY responders whose alert no longer exists or no
// longer points back at them. Self-heal for lost races and crashed actors;
// returns the IDs that were released.
func (c *Coordinator) ReleaseOrphans(ctx context.Context) ([]string, error) {
	ctx, cancel := c.bound(ctx)
	defer cancel()

	all, err := c.fleet.List(ctx)
	if err != nil {
		return nil, err
	}
	if fr, ok := c.sink.(metrics.FleetSizeRecorder); ok {
		if err := fr.RecordFleetSize(len(all)); err != nil {
			c.log.Errorf("fleet size metrics error: %v", err)
		}
	}
	var released []string
	for _, resp := range all {
		if resp.Status != model.ResponderBusy {
			continue
		}
		a, err := c.alerts.Get(ctx, resp.Assignment)
		if err == nil && a.Responder == resp.ID {
			continue
		}
		if err != nil && !errors.Is(err, model.ErrAlertGone) {
			return released, err
		}
		if rerr := c.fleet.Release(ctx, resp.ID); rerr != nil {
			c.log.Errorf("orphan release of %s failed: %v", resp.ID, rerr)
			continue
		}
		orphansReleased.Inc()
		released = append(released, resp.ID)
		c.log.Warnf("released orphaned responder %s (alert %s gone)", resp.ID, resp.Assignment)
		c.publish(events.OrphanReleasedEvent{ResponderID: resp.ID, PatientID: resp.Assignment})
	}
	return released, nil
}

// Mission returns the consistent alert+responder pair along with its chat
// channel. Fails when the alert is not currently paired.
func (c *Coordinator) Mission(ctx context.Context, patientID string) (model.Mission, *chat.Channel, error) {
	ctx, cancel := c.bound(ctx)
	defer cancel()

	a, err := c.alerts.Get(ctx, patientID)
	if err != nil {
		return model.Mission{}, nil, err
	}
	if !a.Status.Assigned() {
		return model.Mission{}, nil, fmt.Errorf("%w: alert %s has no mission", model.ErrInvalidTransition, patientID)
	}
	resp, err := c.fleet.Get(ctx, a.Responder)
	if err != nil {
		return model.Mission{}, nil, err
	}
	m := model.Mission{Alert: a, Responder: resp}
	if err := m.Consistent(); err != nil {
		c.log.Warnf("mission %s inconsistent: %v", patientID, err)
	}
	ch, err := chat.NewChannel(c.store, patientID)
	if err != nil {
		return model.Mission{}, nil, err
	}
	return m, ch, nil
}

func (c *Coordinator) verifyOwner(a model.Alert, responderID string) error {
	if a.Responder != responderID {
		return fmt.Errorf("%w: alert %s assigned to %q, not %q",
			model.ErrInvalidTransition, a.PatientID, a.Responder, responderID)
	}
	return nil
}

func (c *Coordinator) publish(ev eventbus.Event) {
	if c.bus != nil {
		c.bus.Publish(ev)
	}
}

func (c *Coordinator) record(ev metrics.MissionEvent) {
	if err := c.sink.RecordMissionEvent([]metrics.MissionEvent{ev}); err != nil {
		c.log.Errorf("metrics error: %v", err)
	}
}

func failureReason(err error) string {
	switch {
	case errors.Is(err, model.ErrAlertGone):
		return "alert_gone"
	case errors.Is(err, model.ErrResponderUnavailable):
		return "responder_unavailable"
	case errors.Is(err, model.ErrInvalidTransition):
		return "invalid_transition"
	case errors.Is(err, store.ErrUnavailable):
		return "store_unavailable"
	}
	return "error"
}
