// Package alert manages the lifecycle of SOS alert records: the canonical
// list the operator console renders. All writes validate their preconditions
// inside a per-record mutate, because no actor holds a global lock.
package alert

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/matriops/lifeline/core/events"
	"github.com/matriops/lifeline/core/logger"
	"github.com/matriops/lifeline/core/model"
	"github.com/matriops/lifeline/core/store"
	"github.com/matriops/lifeline/internal/eventbus"
)

// Registry creates, observes and removes alert records.
type Registry struct {
	store store.Store
	bus   eventbus.EventBus
	log   logger.Logger
}

// NewRegistry creates an alert registry. The bus is optional.
func NewRegistry(st store.Store, bus eventbus.EventBus, log logger.Logger) (*Registry, error) {
	if st == nil {
		return nil, fmt.Errorf("alert: nil store provided to NewRegistry")
	}
	if log == nil {
		log = logger.NopLogger{}
	}
	return &Registry{store: st, bus: bus, log: log}, nil
}

// Create inserts a new ACTIVE alert for the patient. A missing GPS fix is a
// degraded-data condition, never a refusal: safety beats data completeness.
// An existing alert for the same patient is overwritten, matching the
// one-live-alert-per-patient model.
func (r *Registry) Create(ctx context.Context, a model.Alert) (model.Alert, error) {
	if a.PatientID == "" {
		return model.Alert{}, fmt.Errorf("alert: create without patient id")
	}
	a.Status = model.AlertActive
	a.Responder = ""
	if a.RaisedBy == "" {
		a.RaisedBy = model.ActorMother
	}
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now()
	}
	if !a.Position.Known() {
		r.log.Warnf("alert %s created without location fix", a.PatientID)
	}
	if err := r.store.Set(ctx, store.AlertPath(a.PatientID), a.Doc()); err != nil {
		return model.Alert{}, err
	}
	r.log.Infof("alert raised for %s by %s", a.PatientID, a.RaisedBy)
	if r.bus != nil {
		r.bus.Publish(events.AlertRaisedEvent{Alert: a})
	}
	return a, nil
}

// Get returns the alert for the patient or ErrAlertGone.
func (r *Registry) Get(ctx context.Context, patientID string) (model.Alert, error) {
	v, ok, err := r.store.Get(ctx, store.AlertPath(patientID))
	if err != nil {
		return model.Alert{}, err
	}
	if !ok {
		return model.Alert{}, fmt.Errorf("%w: %s", model.ErrAlertGone, patientID)
	}
	doc, _ := v.(map[string]any)
	return model.AlertFromDoc(patientID, doc), nil
}

// List returns all live alerts ordered by creation time.
func (r *Registry) List(ctx context.Context) ([]model.Alert, error) {
	v, ok, err := r.store.Get(ctx, store.AlertsPath)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}
	return decodeAll(v), nil
}

// Observe produces a live view of all alerts. Every change under the alerts
// subtree re-emits the full current set; the feed is operational-scale, so
// full refresh beats diffing. The stream ends when ctx is canceled and is
// restartable by calling Observe again.
func (r *Registry) Observe(ctx context.Context) (<-chan []model.Alert, error) {
	snaps, err := r.store.Observe(ctx, store.AlertsPath)
	if err != nil {
		return nil, err
	}
	out := make(chan []model.Alert, 8)
	go func() {
		defer close(out)
		for snap := range snaps {
			select {
			case out <- decodeAll(snap.Value):
			case <-ctx.Done():
				return
			}
		}
	}()
	return out, nil
}

// Resolve removes the alert. Terminal and idempotent: resolving an alert
// that is already gone is a no-op.
func (r *Registry) Resolve(ctx context.Context, patientID string) error {
	return r.store.Remove(ctx, store.AlertPath(patientID))
}

// MarkStatus moves the alert from the observed state to newStatus, enforcing
// the status/assignment invariant at write time. The write commits only if the
// stored record still matches the status and responder the caller read; a
// record another actor changed in the meantime fails with ErrInvalidTransition
// so a stale write can never land. responderID must be set for assigned
// statuses and must not be busy with a different alert.
func (r *Registry) MarkStatus(ctx context.Context, observed model.Alert, newStatus model.AlertStatus, responderID string) error {
	if !newStatus.Valid() {
		return fmt.Errorf("%w: unknown status %q", model.ErrInvalidTransition, newStatus)
	}
	if newStatus.Assigned() && responderID == "" {
		return fmt.Errorf("%w: %s requires a responder", model.ErrInvalidTransition, newStatus)
	}
	if responderID != "" {
		if err := r.guardResponder(ctx, observed.PatientID, responderID); err != nil {
			return err
		}
	}
	return r.store.Mutate(ctx, store.AlertPath(observed.PatientID), func(cur any, ok bool) (any, error) {
		if !ok {
			return nil, fmt.Errorf("%w: %s", model.ErrAlertGone, observed.PatientID)
		}
		doc, _ := cur.(map[string]any)
		a := model.AlertFromDoc(observed.PatientID, doc)
		if a.Status != observed.Status || a.Responder != observed.Responder {
			return nil, fmt.Errorf("%w: alert %s changed concurrently, now %s/%q",
				model.ErrInvalidTransition, observed.PatientID, a.Status, a.Responder)
		}
		a.Status = newStatus
		if newStatus.Assigned() {
			a.Responder = responderID
		} else {
			a.Responder = ""
		}
		if err := a.Validate(); err != nil {
			return nil, fmt.Errorf("%w: %v", model.ErrInvalidTransition, err)
		}
		return a.Doc(), nil
	})
}

// guardResponder rejects a status write that would reference a responder
// already busy with a different alert. Best-effort cross-record check; the
// coordinator's claim step is the authoritative exclusion.
func (r *Registry) guardResponder(ctx context.Context, patientID, responderID string) error {
	v, ok, err := r.store.Get(ctx, store.ResponderPath(responderID))
	if err != nil {
		return err
	}
	if !ok {
		return nil
	}
	doc, _ := v.(map[string]any)
	resp := model.ResponderFromDoc(responderID, doc)
	if resp.Status == model.ResponderBusy && resp.Assignment != "" && resp.Assignment != patientID {
		return fmt.Errorf("%w: responder %s busy with %s", model.ErrInvalidTransition, responderID, resp.Assignment)
	}
	return nil
}

func decodeAll(v any) []model.Alert {
	tree, _ := v.(map[string]any)
	out := make([]model.Alert, 0, len(tree))
	for id, raw := range tree {
		doc, _ := raw.(map[string]any)
		out = append(out, model.AlertFromDoc(id, doc))
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].PatientID < out[j].PatientID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out
}
