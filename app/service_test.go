package app

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/matriops/lifeline/config"
	"github.com/matriops/lifeline/core/model"
	"github.com/matriops/lifeline/core/notify"
	"github.com/matriops/lifeline/infra/mqtt"
)

func testConfig() *config.Config {
	cfg := &config.Config{}
	cfg.Dispatch.SetDefaults()
	cfg.Dispatch.SweepIntervalSeconds = 1
	cfg.Logging.SetDefaults()
	cfg.TripLog.Backend = "memory"
	return cfg
}

func TestNewWiresSeedFleet(t *testing.T) {
	cfg := testConfig()
	cfg.Fleet.Responders = []config.ResponderSeed{
		{ID: "amb-1", Name: "City Ambulance 1", Lat: 23.81, Lng: 90.41},
	}
	svc, err := New(cfg)
	require.NoError(t, err)
	defer func() { require.NoError(t, svc.Close()) }()

	units, err := svc.Fleet.List(context.Background())
	require.NoError(t, err)
	require.Len(t, units, 1)
	require.Equal(t, "amb-1", units[0].ID)
	require.Equal(t, model.ResponderOffline, units[0].Status)
}

func TestAlertRaisedReachesOperatorFeed(t *testing.T) {
	svc, err := New(testConfig())
	require.NoError(t, err)
	defer func() { _ = svc.Close() }()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = svc.Run(ctx) }()

	_, err = svc.Alerts.Create(ctx, model.Alert{
		PatientID: "p1",
		Name:      "Amina",
		Position:  model.Position{Lat: 23.78, Lng: 90.4},
	})
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		notices, err := svc.Feed.List(context.Background())
		if err != nil || len(notices) != 1 {
			return false
		}
		return notices[0].Kind == notify.KindSOS && notices[0].PatientID == "p1"
	}, 2*time.Second, 20*time.Millisecond)
}

func TestAlertRaisedBridgesNoticeToBroker(t *testing.T) {
	svc, err := New(testConfig())
	require.NoError(t, err)
	defer func() { _ = svc.Close() }()

	pub := mqtt.NewMockPublisher()
	svc.bridge = mqtt.NewBridge(pub, "lifeline")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = svc.Run(ctx) }()

	_, err = svc.Alerts.Create(ctx, model.Alert{PatientID: "p1", Name: "Amina"})
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		return len(pub.Published("lifeline/notifications/SOS_EMERGENCY")) == 1
	}, 2*time.Second, 20*time.Millisecond)
	require.Len(t, pub.Published("lifeline/alerts/p1"), 1)

	payload := pub.Published("lifeline/notifications/SOS_EMERGENCY")[0]
	var body map[string]any
	require.NoError(t, json.Unmarshal(payload, &body))
	require.Equal(t, "p1", body["patient_id"])
	require.Equal(t, string(notify.KindSOS), body["kind"])
}

func TestSweepReleasesOrphans(t *testing.T) {
	svc, err := New(testConfig())
	require.NoError(t, err)
	defer func() { _ = svc.Close() }()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	require.NoError(t, svc.Fleet.Register(ctx, model.Responder{
		ID:         "d1",
		Kind:       model.KindAmbulance,
		Status:     model.ResponderBusy,
		Assignment: "ghost",
	}))

	go func() { _ = svc.Run(ctx) }()

	require.Eventually(t, func() bool {
		resp, err := svc.Fleet.Get(context.Background(), "d1")
		return err == nil && resp.Status == model.ResponderIdle
	}, 3*time.Second, 50*time.Millisecond)
}

func TestFullMissionLifecycle(t *testing.T) {
	svc, err := New(testConfig())
	require.NoError(t, err)
	defer func() { _ = svc.Close() }()
	ctx := context.Background()

	require.NoError(t, svc.Fleet.Register(ctx, model.Responder{ID: "d1", Kind: model.KindAmbulance}))
	require.NoError(t, svc.Fleet.SetOnline(ctx, "d1", true))
	_, err = svc.Alerts.Create(ctx, model.Alert{PatientID: "p1", Name: "Amina"})
	require.NoError(t, err)

	require.NoError(t, svc.Coordinator.Assign(ctx, "p1", "d1", model.ActorDoctor))
	require.NoError(t, svc.Coordinator.ConfirmAcceptance(ctx, "p1", "d1"))
	require.NoError(t, svc.Coordinator.MarkArrived(ctx, "p1", "d1"))
	require.NoError(t, svc.Coordinator.StartTransport(ctx, "p1", "d1"))
	require.NoError(t, svc.Coordinator.Complete(ctx, "p1", "d1"))

	_, err = svc.Alerts.Get(ctx, "p1")
	require.ErrorIs(t, err, model.ErrAlertGone)
	resp, err := svc.Fleet.Get(ctx, "d1")
	require.NoError(t, err)
	require.Equal(t, model.ResponderIdle, resp.Status)
}
