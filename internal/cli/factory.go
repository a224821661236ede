package cli

import (
	"errors"

	"github.com/roach88/forgery/internal/engine"
	"github.com/roach88/forgery/internal/topology"
)

// loadFactory loads the topology in dir, validates it and builds a fresh
// Simulation from it.
func loadFactory(dir string) (*topology.Topology, *engine.Simulation, error) {
	topo, err := topology.Load(dir)
	if err != nil {
		return nil, nil, err
	}
	sim, err := topology.New(topo)
	if err != nil {
		return nil, nil, err
	}
	return topo, sim, nil
}

// errorCode extracts the stable code carried by topology and engine errors.
func errorCode(err error) string {
	var loadErr *topology.LoadError
	if errors.As(err, &loadErr) {
		return loadErr.Code
	}
	var compileErr *topology.CompileError
	if errors.As(err, &compileErr) {
		return compileErr.Code
	}
	var validationErr topology.ValidationError
	if errors.As(err, &validationErr) {
		return validationErr.Code
	}
	if engine.IsConfigError(err) {
		return string(engine.ConfigErrorCodeOf(err))
	}
	return topology.ErrCodeGeneric
}
