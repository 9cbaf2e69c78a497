// Package notify is the operator-facing side-channel feed: SOS notices,
// blood requests and AI-flagged critical messages. Fire-and-observe events
// sharing the same store as the dispatch records, but never part of the
// dispatch state machine.
package notify

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/spf13/cast"

	"github.com/matriops/lifeline/core/logger"
	"github.com/matriops/lifeline/core/model"
	"github.com/matriops/lifeline/core/store"
)

// Kind classifies an operator notice.
type Kind string

const (
	KindSOS         Kind = "SOS_EMERGENCY"
	KindBloodReq    Kind = "BLOOD_REQ"
	KindCriticalMsg Kind = "CRITICAL_MSG"
)

// Notice is one entry on the operator feed.
type Notice struct {
	ID          string
	Kind        Kind
	PatientID   string
	PatientName string
	Phone       string
	Message     string
	BloodGroup  string
	Position    model.Position
	Resolved    bool
	Timestamp   time.Time
}

// Feed appends to and observes the operator notification list.
type Feed struct {
	store store.Store
	log   logger.Logger
}

// NewFeed creates the operator feed.
func NewFeed(st store.Store, log logger.Logger) (*Feed, error) {
	if st == nil {
		return nil, fmt.Errorf("notify: nil store provided to NewFeed")
	}
	if log == nil {
		log = logger.NopLogger{}
	}
	return &Feed{store: st, log: log}, nil
}

// PushSOSNotice announces a freshly raised alert to operators.
func (f *Feed) PushSOSNotice(ctx context.Context, a model.Alert) (Notice, error) {
	msg := fmt.Sprintf("SOS triggered by %s", a.PatientID)
	if a.Position.Known() {
		msg = fmt.Sprintf("SOS triggered by %s at %.4f, %.4f", a.PatientID, a.Position.Lat, a.Position.Lng)
	}
	return f.push(ctx, Notice{
		Kind:        KindSOS,
		PatientID:   a.PatientID,
		PatientName: a.Name,
		Phone:       a.Phone,
		Message:     msg,
		Position:    a.Position,
	})
}

// PushBloodRequest announces an urgent blood need.
func (f *Feed) PushBloodRequest(ctx context.Context, patientID, patientName, phone, bloodGroup string, pos model.Position) (Notice, error) {
	return f.push(ctx, Notice{
		Kind:        KindBloodReq,
		PatientID:   patientID,
		PatientName: patientName,
		Phone:       phone,
		BloodGroup:  bloodGroup,
		Message:     fmt.Sprintf("URGENT: %s blood required at location", bloodGroup),
		Position:    pos,
	})
}

// PushCriticalMessage flags a chat message the assistant classified as
// critical so an operator reviews it.
func (f *Feed) PushCriticalMessage(ctx context.Context, patientID, text string) (Notice, error) {
	return f.push(ctx, Notice{
		Kind:      KindCriticalMsg,
		PatientID: patientID,
		Message:   text,
	})
}

// push appends the notice and returns it with its generated feed ID.
func (f *Feed) push(ctx context.Context, n Notice) (Notice, error) {
	if n.Timestamp.IsZero() {
		n.Timestamp = time.Now()
	}
	key, err := f.store.Append(ctx, store.NotificationsPath, n.doc())
	if err != nil {
		return Notice{}, err
	}
	n.ID = key
	f.log.Infof("operator notice %s for %s", n.Kind, n.PatientID)
	return n, nil
}

// MarkResolved flags a notice as handled. Unknown IDs are a no-op: the
// mutate leaves an absent record absent instead of materializing one.
func (f *Feed) MarkResolved(ctx context.Context, id string) error {
	return f.store.Mutate(ctx, store.NotificationsPath+"/"+id, func(cur any, ok bool) (any, error) {
		if !ok {
			return nil, nil
		}
		doc := cast.ToStringMap(cur)
		doc["status"] = "resolved"
		return doc, nil
	})
}

// List returns all notices in insertion order.
func (f *Feed) List(ctx context.Context) ([]Notice, error) {
	v, ok, err := f.store.Get(ctx, store.NotificationsPath)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}
	return decode(v), nil
}

// Observe emits the full feed on every change, starting with current state.
func (f *Feed) Observe(ctx context.Context) (<-chan []Notice, error) {
	snaps, err := f.store.Observe(ctx, store.NotificationsPath)
	if err != nil {
		return nil, err
	}
	out := make(chan []Notice, 8)
	go func() {
		defer close(out)
		for snap := range snaps {
			select {
			case out <- decode(snap.Value):
			case <-ctx.Done():
				return
			}
		}
	}()
	return out, nil
}

func (n Notice) doc() map[string]any {
	doc := map[string]any{
		"type":      string(n.Kind),
		"message":   n.Message,
		"timestamp": n.Timestamp.UnixMilli(),
		"status":    "unresolved",
	}
	if n.PatientID != "" {
		doc["patient_id"] = n.PatientID
	}
	if n.PatientName != "" {
		doc["patient_name"] = n.PatientName
	}
	if n.Phone != "" {
		doc["phone"] = n.Phone
	}
	if n.BloodGroup != "" {
		doc["blood_group"] = n.BloodGroup
	}
	if n.Position.Known() {
		doc["lat"] = n.Position.Lat
		doc["lng"] = n.Position.Lng
	}
	return doc
}

func decode(v any) []Notice {
	tree, _ := v.(map[string]any)
	out := make([]Notice, 0, len(tree))
	for id, raw := range tree {
		doc := cast.ToStringMap(raw)
		out = append(out, Notice{
			ID:          id,
			Kind:        Kind(cast.ToString(doc["type"])),
			PatientID:   cast.ToString(doc["patient_id"]),
			PatientName: cast.ToString(doc["patient_name"]),
			Phone:       cast.ToString(doc["phone"]),
			Message:     cast.ToString(doc["message"]),
			BloodGroup:  cast.ToString(doc["blood_group"]),
			Position: model.Position{
				Lat: cast.ToFloat64(doc["lat"]),
				Lng: cast.ToFloat64(doc["lng"]),
			},
			Resolved:  cast.ToString(doc["status"]) == "resolved",
			Timestamp: time.UnixMilli(cast.ToInt64(doc["timestamp"])),
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
