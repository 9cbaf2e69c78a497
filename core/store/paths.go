package store

// Logical entity paths shared by all actors.
const (
	AlertsPath        = "alerts"
	RespondersPath    = "responders"
	ChatPath          = "chat"
	NotificationsPath = "notifications"
	TripsPath         = "trips"
)

// AlertPath addresses the alert record of one patient.
func AlertPath(patientID string) string { return AlertsPath + "/" + patientID }

// ResponderPath addresses one responder record.
func ResponderPath(responderID string) string { return RespondersPath + "/" + responderID }

// ChatChannelPath addresses the ordered message log of one mission triad.
func ChatChannelPath(patientID string) string { return ChatPath + "/" + patientID }
