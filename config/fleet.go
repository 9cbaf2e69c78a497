package config

import (
	"fmt"

	"github.com/matriops/lifeline/core/model"
)

// ResponderSeed declares one responder unit registered at startup.
type ResponderSeed struct {
	ID   string  `json:"id"`
	Name string  `json:"name"`
	Kind string  `json:"kind"`
	Lat  float64 `json:"lat"`
	Lng  float64 `json:"lng"`
}

// FleetConfig lists the responder units known to the service.
type FleetConfig struct {
	Responders []ResponderSeed `json:"responders"`
}

// Validate checks seed entries for duplicates and missing IDs.
func (c FleetConfig) Validate() error {
	seen := make(map[string]bool, len(c.Responders))
	for _, r := range c.Responders {
		if r.ID == "" {
			return fmt.Errorf("responder seed without id")
		}
		if seen[r.ID] {
			return fmt.Errorf("duplicate responder id %s", r.ID)
		}
		seen[r.ID] = true
	}
	return nil
}

// Model converts a seed entry to the domain responder record.
func (r ResponderSeed) Model() model.Responder {
	kind := model.VehicleKind(r.Kind)
	if kind == "" {
		kind = model.KindAmbulance
	}
	return model.Responder{
		ID:       r.ID,
		Name:     r.Name,
		Kind:     kind,
		Position: model.Position{Lat: r.Lat, Lng: r.Lng},
	}
}
