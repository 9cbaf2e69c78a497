// Package fleet is the canonical directory of responder units and their live
// telemetry. Claim and Release are the only paths that move a unit in and out
// of BUSY; both run as per-record conditional mutates so two operators racing
// for the same unit cannot both win.
package fleet

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/matriops/lifeline/core/logger"
	"github.com/matriops/lifeline/core/model"
	"github.com/matriops/lifeline/core/store"
)

// Registry tracks responder records in the shared store.
type Registry struct {
	store store.Store
	log   logger.Logger
}

// NewRegistry creates a fleet registry.
func NewRegistry(st store.Store, log logger.Logger) (*Registry, error) {
	if st == nil {
		return nil, fmt.Errorf("fleet: nil store provided to NewRegistry")
	}
	if log == nil {
		log = logger.NopLogger{}
	}
	return &Registry{store: st, log: log}, nil
}

// Register creates or overwrites a responder record. New units come up
// OFFLINE until their first online position update.
func (r *Registry) Register(ctx context.Context, resp model.Responder) error {
	if resp.ID == "" {
		return fmt.Errorf("fleet: register without responder id")
	}
	if resp.Status == "" {
		resp.Status = model.ResponderOffline
	}
	if resp.UpdatedAt.IsZero() {
		resp.UpdatedAt = time.Now()
	}
	if err := resp.Validate(); err != nil {
		return err
	}
	return r.store.Set(ctx, store.ResponderPath(resp.ID), resp.Doc())
}

// UpsertPosition records a driver's location sample. online=false moves the
// unit toward OFFLINE unless it is BUSY: an in-mission unit stays BUSY so a
// connectivity toggle cannot lose an active rescue. The mission then relies
// on last-known position and the phone fallback.
func (r *Registry) UpsertPosition(ctx context.Context, responderID string, pos model.Position, online bool) error {
	return r.store.Mutate(ctx, store.ResponderPath(responderID), func(cur any, ok bool) (any, error) {
		doc, _ := cur.(map[string]any)
		resp := model.ResponderFromDoc(responderID, doc)
		resp.Position = pos
		resp.UpdatedAt = time.Now()
		applyOnline(&resp, online)
		return resp.Doc(), nil
	})
}

// SetOnline toggles a driver's connectivity without a position sample.
func (r *Registry) SetOnline(ctx context.Context, responderID string, online bool) error {
	return r.store.Mutate(ctx, store.ResponderPath(responderID), func(cur any, ok bool) (any, error) {
		if !ok {
			return nil, fmt.Errorf("%w: %s not registered", model.ErrResponderUnavailable, responderID)
		}
		doc, _ := cur.(map[string]any)
		resp := model.ResponderFromDoc(responderID, doc)
		resp.UpdatedAt = time.Now()
		applyOnline(&resp, online)
		return resp.Doc(), nil
	})
}

func applyOnline(resp *model.Responder, online bool) {
	if online {
		resp.OfflineRequested = false
		if resp.Status != model.ResponderBusy {
			resp.Status = model.ResponderIdle
		}
		return
	}
	if resp.Status == model.ResponderBusy {
		// Deliberate degraded mode: stay BUSY, resolve to OFFLINE on release.
		resp.OfflineRequested = true
		return
	}
	resp.Status = model.ResponderOffline
}

// Claim marks the unit BUSY with the given alert. Exclusive: a unit that is
// not IDLE at write time fails with ErrResponderUnavailable and the caller
// must re-fetch the available pool. The losing side of a two-operator race
// sees exactly this error.
func (r *Registry) Claim(ctx context.Context, responderID, patientID string) error {
	return r.store.Mutate(ctx, store.ResponderPath(responderID), func(cur any, ok bool) (any, error) {
		if !ok {
			return nil, fmt.Errorf("%w: %s not registered", model.ErrResponderUnavailable, responderID)
		}
		doc, _ := cur.(map[string]any)
		resp := model.ResponderFromDoc(responderID, doc)
		if !resp.Selectable() {
			return nil, fmt.Errorf("%w: %s is %s", model.ErrResponderUnavailable, responderID, resp.Status)
		}
		resp.Status = model.ResponderBusy
		resp.Assignment = patientID
		resp.UpdatedAt = time.Now()
		return resp.Doc(), nil
	})
}

// Release clears the unit's assignment. It resolves to IDLE, or to OFFLINE
// when the driver requested offline mid-mission. Releasing an unknown or
// already-idle unit is a no-op so compensation paths can call it blindly.
func (r *Registry) Release(ctx context.Context, responderID string) error {
	return r.store.Mutate(ctx, store.ResponderPath(responderID), func(cur any, ok bool) (any, error) {
		if !ok {
			return nil, nil
		}
		doc, _ := cur.(map[string]any)
		resp := model.ResponderFromDoc(responderID, doc)
		if resp.Status != model.ResponderBusy && resp.Assignment == "" {
			return resp.Doc(), nil
		}
		resp.Assignment = ""
		if resp.OfflineRequested {
			resp.Status = model.ResponderOffline
			resp.OfflineRequested = false
		} else {
			resp.Status = model.ResponderIdle
		}
		resp.UpdatedAt = time.Now()
		return resp.Doc(), nil
	})
}

// Get returns one responder record.
func (r *Registry) Get(ctx context.Context, responderID string) (model.Responder, error) {
	v, ok, err := r.store.Get(ctx, store.ResponderPath(responderID))
	if err != nil {
		return model.Responder{}, err
	}
	if !ok {
		return model.Responder{}, fmt.Errorf("%w: %s not registered", model.ErrResponderUnavailable, responderID)
	}
	doc, _ := v.(map[string]any)
	return model.ResponderFromDoc(responderID, doc), nil
}

// List returns all responder records, ordered by ID for stable rendering.
func (r *Registry) List(ctx context.Context) ([]model.Responder, error) {
	v, ok, err := r.store.Get(ctx, store.RespondersPath)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}
	return decodeAll(v), nil
}

// ListAvailable returns the units selectable for a new mission. Callers must
// not assume any particular ordering, only that BUSY and OFFLINE units are
// excluded.
func (r *Registry) ListAvailable(ctx context.Context) ([]model.Responder, error) {
	all, err := r.List(ctx)
	if err != nil {
		return nil, err
	}
	avail := all[:0]
	for _, resp := range all {
		if resp.Selectable() {
			avail = append(avail, resp)
		}
	}
	return avail, nil
}

// Observe produces a live full-refresh view of the fleet.
func (r *Registry) Observe(ctx context.Context) (<-chan []model.Responder, error) {
	snaps, err := r.store.Observe(ctx, store.RespondersPath)
	if err != nil {
		return nil, err
	}
	out := make(chan []model.Responder, 8)
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

func decodeAll(v any) []model.Responder {
	tree, _ := v.(map[string]any)
	out := make([]model.Responder, 0, len(tree))
	for id, raw := range tree {
		doc, _ := raw.(map[string]any)
		out = append(out, model.ResponderFromDoc(id, doc))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
