package engine

import "fmt"

// Building bundles one or more internal belts into a processing stage.
//
// External belts are connected to the internal belts, never to each other:
// an input's readiness makes every internal belt try to pull from it, and
// an internal belt's readiness makes every output belt try to pull from it.
// A Building records its connections by id only; it owns its internal
// belts but never the external ones.
type Building struct {
	id         string
	maxInputs  int
	maxOutputs int
	internal   []*Belt

	inputs  []string
	outputs []string
}

// NewBuilding creates a building over pre-built internal belts.
func NewBuilding(id string, maxInputs, maxOutputs int, internal []*Belt) (*Building, error) {
	if maxInputs < 0 || maxOutputs < 0 {
		return nil, newConfigError(ErrCodeInvalidPorts, id, "building inputs/outputs must be >= 0, got %d/%d", maxInputs, maxOutputs)
	}
	if len(internal) == 0 {
		return nil, newConfigError(ErrCodeInvalidPorts, id, "building needs at least one internal belt")
	}

	return &Building{
		id:         id,
		maxInputs:  maxInputs,
		maxOutputs: maxOutputs,
		internal:   append([]*Belt(nil), internal...),
	}, nil
}

// InternalBeltID names the n-th internal belt of building id.
func InternalBeltID(id string, n int) string {
	return fmt.Sprintf("%s/%d", id, n)
}

// ID returns the building's registry id.
func (b *Building) ID() string { return b.id }

// ConnectInput wires p into every internal belt. Returns false once
// maxInputs producers are connected.
func (b *Building) ConnectInput(p Producer) bool {
	if len(b.inputs) >= b.maxInputs {
		return false
	}
	for _, belt := range b.internal {
		Connect(p, belt)
	}
	b.inputs = append(b.inputs, p.ID())
	return true
}

// ConnectOutput makes belt pull from every internal belt. Returns false
// once maxOutputs belts are connected.
func (b *Building) ConnectOutput(belt *Belt) bool {
	if len(b.outputs) >= b.maxOutputs {
		return false
	}
	for _, internal := range b.internal {
		Connect(internal, belt)
	}
	b.outputs = append(b.outputs, belt.ID())
	return true
}

// Status reports whether any internal belt currently holds material.
func (b *Building) Status() bool {
	for _, belt := range b.internal {
		if belt.Len() > 0 {
			return true
		}
	}
	return false
}

// InternalBelts returns the building's internal belts.
func (b *Building) InternalBelts() []*Belt {
	return append([]*Belt(nil), b.internal...)
}

// Inputs returns the ids of connected inputs.
func (b *Building) Inputs() []string {
	return append([]string(nil), b.inputs...)
}

// Outputs returns the ids of connected outputs.
func (b *Building) Outputs() []string {
	return append([]string(nil), b.outputs...)
}

// Describe returns the building's observable state.
func (b *Building) Describe() BuildingStatus {
	held := 0
	for _, belt := range b.internal {
		held += belt.Len()
	}
	return BuildingStatus{
		ID:      b.id,
		Busy:    b.Status(),
		Held:    held,
		Inputs:  b.Inputs(),
		Outputs: b.Outputs(),
	}
}
