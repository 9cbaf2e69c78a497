package model

import (
	"time"

	"github.com/spf13/cast"
)

// Documents are the loosely-typed records kept in the shared state store.
// Decoding is tolerant: a missing or malformed field falls back to its zero
// value so a partially written record never crashes an observer. Timestamps
// travel as Unix milliseconds.

// Doc renders the alert as a store document.
func (a Alert) Doc() map[string]any {
	doc := map[string]any{
		"user_name": a.Name,
		"phone":     a.Phone,
		"lat":       a.Position.Lat,
		"lng":       a.Position.Lng,
		"status":    string(a.Status),
		"raised_by": string(a.RaisedBy),
		"timestamp": a.CreatedAt.UnixMilli(),
	}
	if a.Responder != "" {
		doc["assigned_responder"] = a.Responder
	}
	if len(a.Contacts) > 0 {
		contacts := make([]any, 0, len(a.Contacts))
		for _, c := range a.Contacts {
			contacts = append(contacts, map[string]any{"name": c.Name, "phone": c.Phone})
		}
		doc["notified_contacts"] = contacts
	}
	return doc
}

// AlertFromDoc decodes a store document into an Alert.
func AlertFromDoc(patientID string, doc map[string]any) Alert {
	a := Alert{
		PatientID: patientID,
		Name:      cast.ToString(doc["user_name"]),
		Phone:     cast.ToString(doc["phone"]),
		Position: Position{
			Lat: cast.ToFloat64(doc["lat"]),
			Lng: cast.ToFloat64(doc["lng"]),
		},
		Status:    AlertStatus(cast.ToString(doc["status"])),
		Responder: cast.ToString(doc["assigned_responder"]),
		RaisedBy:  Actor(cast.ToString(doc["raised_by"])),
		CreatedAt: time.UnixMilli(cast.ToInt64(doc["timestamp"])),
	}
	if a.Status == "" {
		a.Status = AlertActive
	}
	for _, raw := range cast.ToSlice(doc["notified_contacts"]) {
		m := cast.ToStringMap(raw)
		a.Contacts = append(a.Contacts, Contact{
			Name:  cast.ToString(m["name"]),
			Phone: cast.ToString(m["phone"]),
		})
	}
	return a
}

// Doc renders the responder as a store document.
func (r Responder) Doc() map[string]any {
	doc := map[string]any{
		"name":         r.Name,
		"kind":         string(r.Kind),
		"lat":          r.Position.Lat,
		"lng":          r.Position.Lng,
		"status":       string(r.Status),
		"last_updated": r.UpdatedAt.UnixMilli(),
	}
	if r.Assignment != "" {
		doc["assignment"] = r.Assignment
	}
	if r.OfflineRequested {
		doc["offline_requested"] = true
	}
	if r.Telemetry.FuelPercent != 0 {
		doc["fuel"] = r.Telemetry.FuelPercent
	}
	if r.Telemetry.ETAMinutes != 0 {
		doc["eta"] = r.Telemetry.ETAMinutes
	}
	return doc
}

// ResponderFromDoc decodes a store document into a Responder.
func ResponderFromDoc(id string, doc map[string]any) Responder {
	r := Responder{
		ID:   id,
		Name: cast.ToString(doc["name"]),
		Kind: VehicleKind(cast.ToString(doc["kind"])),
		Position: Position{
			Lat: cast.ToFloat64(doc["lat"]),
			Lng: cast.ToFloat64(doc["lng"]),
		},
		Status:           ResponderStatus(cast.ToString(doc["status"])),
		Assignment:       cast.ToString(doc["assignment"]),
		OfflineRequested: cast.ToBool(doc["offline_requested"]),
		Telemetry: Telemetry{
			FuelPercent: cast.ToInt(doc["fuel"]),
			ETAMinutes:  cast.ToInt(doc["eta"]),
		},
		UpdatedAt: time.UnixMilli(cast.ToInt64(doc["last_updated"])),
	}
	if r.Status == "" {
		r.Status = ResponderOffline
	}
	return r
}
