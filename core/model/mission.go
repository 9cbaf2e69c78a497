package model

import "fmt"

// Mission is the paired lifecycle of one alert and its assigned responder.
// It is a view over the two records, not a stored entity, but consistency is
// checked on the pair as one unit.
type Mission struct {
	Alert     Alert
	Responder Responder
}

// Consistent verifies the cross-record invariant: an assigned alert must
// reference a BUSY responder whose assignment points back at the alert.
func (m Mission) Consistent() error {
	if err := m.Alert.Validate(); err != nil {
		return err
	}
	if err := m.Responder.Validate(); err != nil {
		return err
	}
	if !m.Alert.Status.Assigned() {
		return fmt.Errorf("mission %s: alert not in an assigned status", m.Alert.PatientID)
	}
	if m.Alert.Responder != m.Responder.ID {
		return fmt.Errorf("mission %s: alert assigned to %s, responder is %s",
			m.Alert.PatientID, m.Alert.Responder, m.Responder.ID)
	}
	if m.Responder.Status != ResponderBusy {
		return fmt.Errorf("mission %s: responder %s not busy", m.Alert.PatientID, m.Responder.ID)
	}
	if m.Responder.Assignment != m.Alert.PatientID {
		return fmt.Errorf("mission %s: responder %s assigned to %s",
			m.Alert.PatientID, m.Responder.ID, m.Responder.Assignment)
	}
	return nil
}
