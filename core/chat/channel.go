// Package chat is the per-mission message log between the patient, doctor
// and driver triad. Append-only and ordered; no edits, no deletes. Thin by
// design: the dispatch core only needs to attach a channel to a mission.
package chat

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/spf13/cast"

	"github.com/matriops/lifeline/core/model"
	"github.com/matriops/lifeline/core/store"
)

// Message is one chat entry.
type Message struct {
	Key       string
	Role      model.Actor
	Text      string
	Timestamp time.Time
}

// Channel is the ordered message log of one mission, keyed by the patient.
type Channel struct {
	store     store.Store
	patientID string
}

// NewChannel attaches to the chat log of the given patient.
func NewChannel(st store.Store, patientID string) (*Channel, error) {
	if st == nil {
		return nil, fmt.Errorf("chat: nil store provided to NewChannel")
	}
	if patientID == "" {
		return nil, fmt.Errorf("chat: channel without patient id")
	}
	return &Channel{store: st, patientID: patientID}, nil
}

// PatientID returns the identity the channel is keyed by.
func (c *Channel) PatientID() string { return c.patientID }

// Append adds a message from any of the three mission parties.
func (c *Channel) Append(ctx context.Context, role model.Actor, text string) error {
	doc := map[string]any{
		"role":      string(role),
		"content":   text,
		"timestamp": time.Now().UnixMilli(),
	}
	_, err := c.store.Append(ctx, store.ChatChannelPath(c.patientID), doc)
	return err
}

// History returns all messages in insertion order.
func (c *Channel) History(ctx context.Context) ([]Message, error) {
	v, ok, err := c.store.Get(ctx, store.ChatChannelPath(c.patientID))
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}
	return decode(v), nil
}

// Observe emits the full ordered log on every change, starting with the
// current state. All three parties consume the same live sequence.
func (c *Channel) Observe(ctx context.Context) (<-chan []Message, error) {
	snaps, err := c.store.Observe(ctx, store.ChatChannelPath(c.patientID))
	if err != nil {
		return nil, err
	}
	out := make(chan []Message, 8)
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

func decode(v any) []Message {
	tree, _ := v.(map[string]any)
	out := make([]Message, 0, len(tree))
	for key, raw := range tree {
		doc := cast.ToStringMap(raw)
		out = append(out, Message{
			Key:       key,
			Role:      model.Actor(cast.ToString(doc["role"])),
			Text:      cast.ToString(doc["content"]),
			Timestamp: time.UnixMilli(cast.ToInt64(doc["timestamp"])),
		})
	}
	// Push keys sort by insertion time.
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out
}
