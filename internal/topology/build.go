package topology

import (
	"fmt"

	"github.com/roach88/forgery/internal/engine"
)

// Build adds every component of t to sim and applies its links.
//
// Components are created in kind order, each kind in declaration order;
// links are applied in list order. The first failure is returned wrapped
// around the underlying *engine.ConfigError.
func Build(t *Topology, sim *engine.Simulation) error {
	for _, s := range t.Sources {
		if _, err := sim.AddSource(s.ID, s.Material, s.Rate, s.Outputs); err != nil {
			return fmt.Errorf("source %s: %w", s.ID, err)
		}
	}
	for _, b := range t.Belts {
		if _, err := sim.AddBelt(b.ID, b.Capacity); err != nil {
			return fmt.Errorf("belt %s: %w", b.ID, err)
		}
	}
	for _, b := range t.Buildings {
		if _, err := sim.AddBuilding(b.ID, b.Inputs, b.Outputs, b.Belts); err != nil {
			return fmt.Errorf("building %s: %w", b.ID, err)
		}
	}
	for _, s := range t.Sinks {
		if _, err := sim.AddSink(s.ID); err != nil {
			return fmt.Errorf("sink %s: %w", s.ID, err)
		}
	}
	for _, l := range t.Links {
		if err := sim.Link(l.From, l.To); err != nil {
			return fmt.Errorf("link %s -> %s: %w", l.From, l.To, err)
		}
	}
	return nil
}

// New validates t and builds it into a fresh Simulation.
func New(t *Topology) (*engine.Simulation, error) {
	if errs := Validate(t); len(errs) > 0 {
		return nil, errs[0]
	}
	sim := engine.NewSimulation()
	if err := Build(t, sim); err != nil {
		return nil, err
	}
	return sim, nil
}
