package model

// Position is a geographic coordinate. The zero value means the location is
// unknown; alert creation never fails on a missing fix, so downstream
// consumers must check Known before using the coordinates.
type Position struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Known reports whether the position carries a real GPS fix.
func (p Position) Known() bool {
	return p.Lat != 0 || p.Lng != 0
}

// OrDefault returns the position itself when known, or the given fallback.
// Map consumers substitute a safe default instead of rendering (0, 0).
func (p Position) OrDefault(fallback Position) Position {
	if p.Known() {
		return p
	}
	return fallback
}
