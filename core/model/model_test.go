package model

import (
	"testing"
	"time"
)

func TestAlertValidate(t *testing.T) {
	base := Alert{PatientID: "p1", Status: AlertActive}
	if err := base.Validate(); err != nil {
		t.Fatalf("valid alert rejected: %v", err)
	}

	cases := []struct {
		name string
		a    Alert
	}{
		{"missing id", Alert{Status: AlertActive}},
		{"unknown status", Alert{PatientID: "p1", Status: "WAT"}},
		{"active with responder", Alert{PatientID: "p1", Status: AlertActive, Responder: "d1"}},
		{"accepted without responder", Alert{PatientID: "p1", Status: AlertDriverAccepted}},
		{"arrived without responder", Alert{PatientID: "p1", Status: AlertDriverArrived}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if err := tc.a.Validate(); err == nil {
				t.Fatal("expected validation error")
			}
		})
	}
}

func TestResponderValidate(t *testing.T) {
	ok := []Responder{
		{ID: "d1", Status: ResponderIdle},
		{ID: "d1", Status: ResponderOffline},
		{ID: "d1", Status: ResponderBusy, Assignment: "p1"},
	}
	for _, r := range ok {
		if err := r.Validate(); err != nil {
			t.Fatalf("valid responder rejected: %v", err)
		}
	}

	bad := []Responder{
		{Status: ResponderIdle},
		{ID: "d1", Status: "WAT"},
		{ID: "d1", Status: ResponderBusy},
		{ID: "d1", Status: ResponderIdle, Assignment: "p1"},
	}
	for _, r := range bad {
		if err := r.Validate(); err == nil {
			t.Fatalf("invalid responder accepted: %+v", r)
		}
	}
}

func TestPositionKnown(t *testing.T) {
	if (Position{}).Known() {
		t.Fatal("zero position should be unknown")
	}
	if !(Position{Lat: 23.78, Lng: 90.4}).Known() {
		t.Fatal("real fix should be known")
	}
	fallback := Position{Lat: 1, Lng: 2}
	if got := (Position{}).OrDefault(fallback); got != fallback {
		t.Fatalf("unknown position should take fallback, got %+v", got)
	}
	fix := Position{Lat: 5, Lng: 6}
	if got := fix.OrDefault(fallback); got != fix {
		t.Fatalf("known position must win, got %+v", got)
	}
}

func TestAlertDocTolerantDecode(t *testing.T) {
	// Partially written records decode to zero values, never panic.
	a := AlertFromDoc("p1", map[string]any{"lat": "23.78", "timestamp": "bogus"})
	if a.PatientID != "p1" {
		t.Fatalf("patient id lost: %+v", a)
	}
	if a.Status != AlertActive {
		t.Fatalf("empty status must default to ACTIVE, got %s", a.Status)
	}
	if a.Position.Lat != 23.78 {
		t.Fatalf("stringly-typed lat must still decode, got %v", a.Position.Lat)
	}

	r := ResponderFromDoc("d1", nil)
	if r.Status != ResponderOffline {
		t.Fatalf("empty responder status must default to OFFLINE, got %s", r.Status)
	}
}

func TestAlertDocRoundTrip(t *testing.T) {
	want := Alert{
		PatientID: "p1",
		Name:      "Amina",
		Phone:     "+880100",
		Position:  Position{Lat: 23.7805, Lng: 90.4},
		Status:    AlertDriverAccepted,
		Responder: "d1",
		RaisedBy:  ActorGuardian,
		Contacts:  []Contact{{Name: "Rahim", Phone: "+880200"}},
		CreatedAt: time.UnixMilli(time.Now().UnixMilli()),
	}
	got := AlertFromDoc("p1", want.Doc())
	if got.Name != want.Name || got.Status != want.Status || got.Responder != want.Responder {
		t.Fatalf("round trip mismatch: %+v", got)
	}
	if got.RaisedBy != ActorGuardian || !got.CreatedAt.Equal(want.CreatedAt) {
		t.Fatalf("round trip mismatch: %+v", got)
	}
	if len(got.Contacts) != 1 || got.Contacts[0].Phone != "+880200" {
		t.Fatalf("contacts lost: %+v", got.Contacts)
	}
}

func TestMissionConsistent(t *testing.T) {
	m := Mission{
		Alert:     Alert{PatientID: "p1", Status: AlertDriverAccepted, Responder: "d1"},
		Responder: Responder{ID: "d1", Status: ResponderBusy, Assignment: "p1"},
	}
	if err := m.Consistent(); err != nil {
		t.Fatalf("consistent mission rejected: %v", err)
	}

	m.Responder.Assignment = "p2"
	if err := m.Consistent(); err == nil {
		t.Fatal("cross-record mismatch not detected")
	}
}
