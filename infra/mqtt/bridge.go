package mqtt

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/matriops/lifeline/core/events"
	"github.com/matriops/lifeline/core/notify"
	"github.com/matriops/lifeline/infra/logger"
)

// Bridge forwards mission lifecycle events and operator notices to
// broker topics so external dashboards and responder apps can follow
// missions without observing the store directly.
type Bridge struct {
	pub    Publisher
	prefix string
	log    logger.Logger
}

// NewBridge creates a Bridge publishing under the given topic prefix.
func NewBridge(pub Publisher, prefix string) *Bridge {
	if prefix == "" {
		prefix = "lifeline"
	}
	return &Bridge{pub: pub, prefix: prefix, log: logger.New("mqtt_bridge")}
}

func (b *Bridge) publish(topic string, v any) {
	payload, err := json.Marshal(v)
	if err != nil {
		b.log.Errorf("encode %s: %v", topic, err)
		return
	}
	if err := b.pub.Publish(topic, payload); err != nil {
		b.log.Errorf("publish %s: %v", topic, err)
	}
}

// AlertRaised announces a new SOS on the alerts topic.
func (b *Bridge) AlertRaised(ev events.AlertRaisedEvent) {
	b.publish(fmt.Sprintf("%s/alerts/%s", b.prefix, ev.Alert.PatientID), map[string]any{
		"patient_id": ev.Alert.PatientID,
		"user_name":  ev.Alert.Name,
		"lat":        ev.Alert.Position.Lat,
		"lng":        ev.Alert.Position.Lng,
		"raised_by":  string(ev.Alert.RaisedBy),
		"timestamp":  ev.Alert.CreatedAt.UnixMilli(),
	})
}

// Stage announces a mission stage change on the mission topic.
func (b *Bridge) Stage(ev events.StageEvent) {
	b.publish(fmt.Sprintf("%s/missions/%s/stage", b.prefix, ev.PatientID), map[string]any{
		"patient_id":   ev.PatientID,
		"responder_id": ev.ResponderID,
		"from":         string(ev.From),
		"to":           string(ev.To),
		"timestamp":    ev.At.UnixMilli(),
	})
}

// Resolved announces a mission resolution on the mission topic.
func (b *Bridge) Resolved(ev events.ResolveEvent) {
	b.publish(fmt.Sprintf("%s/missions/%s/resolved", b.prefix, ev.PatientID), map[string]any{
		"patient_id":   ev.PatientID,
		"responder_id": ev.ResponderID,
		"cause":        string(ev.Cause),
		"timestamp":    time.Now().UnixMilli(),
	})
}

// Canceled announces an assignment rollback on the mission topic.
func (b *Bridge) Canceled(ev events.CancelEvent) {
	b.publish(fmt.Sprintf("%s/missions/%s/canceled", b.prefix, ev.PatientID), map[string]any{
		"patient_id":   ev.PatientID,
		"responder_id": ev.ResponderID,
		"timestamp":    time.Now().UnixMilli(),
	})
}

// Notice forwards an operator notice on the notifications topic.
func (b *Bridge) Notice(n notify.Notice) {
	b.publish(fmt.Sprintf("%s/notifications/%s", b.prefix, string(n.Kind)), map[string]any{
		"kind":         string(n.Kind),
		"patient_id":   n.PatientID,
		"patient_name": n.PatientName,
		"message":      n.Message,
		"timestamp":    n.Timestamp.UnixMilli(),
	})
}
