package notify

import (
	"context"
	"testing"
	"time"

	"github.com/matriops/lifeline/core/model"
	infrastore "github.com/matriops/lifeline/infra/store"
)

func newFeed(t *testing.T) *Feed {
	t.Helper()
	f, err := NewFeed(infrastore.NewMemoryStore(), nil)
	if err != nil {
		t.Fatalf("new feed: %v", err)
	}
	return f
}

func TestPushSOSNotice(t *testing.T) {
	f := newFeed(t)
	ctx := context.Background()

	pushed, err := f.PushSOSNotice(ctx, model.Alert{
		PatientID: "p1",
		Name:      "Amina",
		Phone:     "+880100",
		Position:  model.Position{Lat: 23.7805, Lng: 90.4},
	})
	if err != nil {
		t.Fatalf("push: %v", err)
	}
	if pushed.ID == "" {
		t.Fatal("expected generated notice id")
	}

	notices, err := f.List(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(notices) != 1 {
		t.Fatalf("expected one notice, got %d", len(notices))
	}
	n := notices[0]
	if n.ID != pushed.ID || n.Kind != KindSOS || n.PatientID != "p1" || n.Resolved {
		t.Fatalf("unexpected notice %+v", n)
	}
	if !n.Position.Known() {
		t.Fatal("position lost")
	}
}

func TestPushBloodRequest(t *testing.T) {
	f := newFeed(t)
	ctx := context.Background()

	if _, err := f.PushBloodRequest(ctx, "p1", "Amina", "+880100", "O-", model.Position{Lat: 1, Lng: 1}); err != nil {
		t.Fatalf("push: %v", err)
	}
	notices, _ := f.List(ctx)
	if len(notices) != 1 || notices[0].Kind != KindBloodReq || notices[0].BloodGroup != "O-" {
		t.Fatalf("unexpected notices %+v", notices)
	}
}

func TestPushCriticalMessage(t *testing.T) {
	f := newFeed(t)
	ctx := context.Background()

	if _, err := f.PushCriticalMessage(ctx, "p1", "severe bleeding reported"); err != nil {
		t.Fatalf("push: %v", err)
	}
	notices, _ := f.List(ctx)
	if len(notices) != 1 || notices[0].Kind != KindCriticalMsg {
		t.Fatalf("unexpected notices %+v", notices)
	}
}

func TestMarkResolved(t *testing.T) {
	f := newFeed(t)
	ctx := context.Background()

	n, err := f.PushSOSNotice(ctx, model.Alert{PatientID: "p1"})
	if err != nil {
		t.Fatalf("push: %v", err)
	}
	if err := f.MarkResolved(ctx, n.ID); err != nil {
		t.Fatalf("mark resolved: %v", err)
	}
	notices, _ := f.List(ctx)
	if len(notices) != 1 || !notices[0].Resolved {
		t.Fatalf("notice not resolved: %+v", notices)
	}
}

func TestMarkResolvedUnknownIDNoOp(t *testing.T) {
	f := newFeed(t)
	ctx := context.Background()

	if err := f.MarkResolved(ctx, "no-such-notice"); err != nil {
		t.Fatalf("mark resolved: %v", err)
	}
	notices, err := f.List(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(notices) != 0 {
		t.Fatalf("unknown id must not create a notice, got %+v", notices)
	}
}

func TestNoticesInsertionOrdered(t *testing.T) {
	f := newFeed(t)
	ctx := context.Background()

	for _, id := range []string{"p1", "p2", "p3"} {
		if _, err := f.PushCriticalMessage(ctx, id, "msg"); err != nil {
			t.Fatalf("push: %v", err)
		}
		time.Sleep(2 * time.Millisecond)
	}
	notices, _ := f.List(ctx)
	if len(notices) != 3 {
		t.Fatalf("expected 3 notices, got %d", len(notices))
	}
	if notices[0].PatientID != "p1" || notices[2].PatientID != "p3" {
		t.Fatalf("order broken: %+v", notices)
	}
}

func TestObserveFeed(t *testing.T) {
	f := newFeed(t)
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	feed, err := f.Observe(ctx)
	if err != nil {
		t.Fatalf("observe: %v", err)
	}
	<-feed

	if _, err := f.PushSOSNotice(ctx, model.Alert{PatientID: "p1"}); err != nil {
		t.Fatalf("push: %v", err)
	}
	for notices := range feed {
		if len(notices) == 1 {
			return
		}
	}
	t.Fatal("observer never saw the notice")
}
