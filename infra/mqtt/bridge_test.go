package mqtt

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/matriops/lifeline/core/events"
	"github.com/matriops/lifeline/core/model"
	"github.com/matriops/lifeline/core/notify"
)

func TestBridgeAlertRaised(t *testing.T) {
	pub := NewMockPublisher()
	b := NewBridge(pub, "lifeline")

	b.AlertRaised(events.AlertRaisedEvent{Alert: model.Alert{
		PatientID: "p1",
		Name:      "Amina",
		Position:  model.Position{Lat: 23.78, Lng: 90.4},
		RaisedBy:  model.ActorMother,
		CreatedAt: time.Now(),
	}})

	msgs := pub.Published("lifeline/alerts/p1")
	require.Len(t, msgs, 1)
	var payload map[string]any
	require.NoError(t, json.Unmarshal(msgs[0], &payload))
	require.Equal(t, "p1", payload["patient_id"])
	require.Equal(t, "Amina", payload["user_name"])
	require.Equal(t, "mother", payload["raised_by"])
}

func TestBridgeStage(t *testing.T) {
	pub := NewMockPublisher()
	b := NewBridge(pub, "lifeline")

	b.Stage(events.StageEvent{
		PatientID:   "p1",
		ResponderID: "d1",
		From:        model.AlertActive,
		To:          model.AlertDriverAccepted,
		At:          time.Now(),
	})

	msgs := pub.Published("lifeline/missions/p1/stage")
	require.Len(t, msgs, 1)
	var payload map[string]any
	require.NoError(t, json.Unmarshal(msgs[0], &payload))
	require.Equal(t, "ACTIVE", payload["from"])
	require.Equal(t, "DRIVER_ACCEPTED", payload["to"])
	require.Equal(t, "d1", payload["responder_id"])
}

func TestBridgeResolvedAndCanceled(t *testing.T) {
	pub := NewMockPublisher()
	b := NewBridge(pub, "lifeline")

	b.Resolved(events.ResolveEvent{PatientID: "p1", ResponderID: "d1", Cause: events.ResolveCompleted})
	b.Canceled(events.CancelEvent{PatientID: "p2", ResponderID: "d2"})

	require.Len(t, pub.Published("lifeline/missions/p1/resolved"), 1)
	require.Len(t, pub.Published("lifeline/missions/p2/canceled"), 1)
}

func TestBridgeNotice(t *testing.T) {
	pub := NewMockPublisher()
	b := NewBridge(pub, "lifeline")

	b.Notice(notify.Notice{
		Kind:        notify.KindBloodReq,
		PatientID:   "p1",
		PatientName: "Amina",
		Message:     "URGENT: O- blood required at location",
		Timestamp:   time.Now(),
	})

	msgs := pub.Published("lifeline/notifications/BLOOD_REQ")
	require.Len(t, msgs, 1)
	var payload map[string]any
	require.NoError(t, json.Unmarshal(msgs[0], &payload))
	require.Equal(t, "Amina", payload["patient_name"])
}

func TestBridgeDefaultPrefix(t *testing.T) {
	pub := NewMockPublisher()
	b := NewBridge(pub, "")

	b.Canceled(events.CancelEvent{PatientID: "p1"})
	require.Len(t, pub.Published("lifeline/missions/p1/canceled"), 1)
}

func TestBridgeSurvivesPublishFailure(t *testing.T) {
	pub := NewMockPublisher()
	pub.FailTopics["lifeline/missions/p1/stage"] = true
	b := NewBridge(pub, "lifeline")

	// Must not panic; the error is logged and dropped.
	b.Stage(events.StageEvent{PatientID: "p1", ResponderID: "d1"})
	require.Empty(t, pub.Published("lifeline/missions/p1/stage"))
}
