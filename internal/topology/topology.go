package topology

import (
	"fmt"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"

	"github.com/roach88/forgery/internal/engine"
)

// Topology is a compiled factory layout.
type Topology struct {
	Sources   []SourceSpec
	Belts     []BeltSpec
	Buildings []BuildingSpec
	Sinks     []SinkSpec
	Links     []LinkSpec
}

// SourceSpec declares a source.
type SourceSpec struct {
	ID       string
	Material string
	Rate     engine.Rate
	Outputs  int
	Pos      token.Pos
}

// BeltSpec declares a free-standing belt.
type BeltSpec struct {
	ID       string
	Capacity int
	Pos      token.Pos
}

// BuildingSpec declares a building and the capacities of its internal belts.
type BuildingSpec struct {
	ID      string
	Inputs  int
	Outputs int
	Belts   []int
	Pos     token.Pos
}

// SinkSpec declares a terminal consumer.
type SinkSpec struct {
	ID  string
	Pos token.Pos
}

// LinkSpec connects two components by id.
type LinkSpec struct {
	From string
	To   string
	Pos  token.Pos
}

// Default port bounds when a declaration omits them.
const (
	DefaultSourceOutputs   = 1
	DefaultBuildingInputs  = 1
	DefaultBuildingOutputs = 1
)

// CompileError reports a malformed declaration at a CUE position.
type CompileError struct {
	Code    string
	Field   string
	Message string
	Pos     token.Pos
}

func (e *CompileError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s: %s",
			e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(),
			e.Code, e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s: %s", e.Code, e.Field, e.Message)
}

// Compile parses a built CUE value into a Topology.
//
// Compile checks shapes and value types only; cross-references are left to
// Validate.
func Compile(v cue.Value) (*Topology, error) {
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}

	t := &Topology{}
	var err error

	if t.Sources, err = compileEach(v, "source", compileSource); err != nil {
		return nil, err
	}
	if t.Belts, err = compileEach(v, "belt", compileBelt); err != nil {
		return nil, err
	}
	if t.Buildings, err = compileEach(v, "building", compileBuilding); err != nil {
		return nil, err
	}
	if t.Sinks, err = compileEach(v, "sink", compileSink); err != nil {
		return nil, err
	}
	if t.Links, err = compileLinks(v); err != nil {
		return nil, err
	}

	if t.Empty() {
		return nil, &CompileError{
			Code:    ErrCodeEmpty,
			Field:   "topology",
			Message: "no components declared",
			Pos:     v.Pos(),
		}
	}
	return t, nil
}

// Empty reports whether no component is declared.
func (t *Topology) Empty() bool {
	return len(t.Sources)+len(t.Belts)+len(t.Buildings)+len(t.Sinks) == 0
}

// compileEach applies fn to every field of the struct at path, in
// declaration order.
func compileEach[T any](v cue.Value, path string, fn func(id string, v cue.Value) (T, error)) ([]T, error) {
	section := v.LookupPath(cue.ParsePath(path))
	if !section.Exists() {
		return nil, nil
	}

	iter, err := section.Fields()
	if err != nil {
		return nil, &CompileError{
			Code:    ErrCodeInvalidField,
			Field:   path,
			Message: "must be a struct keyed by component id",
			Pos:     section.Pos(),
		}
	}

	var out []T
	for iter.Next() {
		spec, err := fn(iter.Label(), iter.Value())
		if err != nil {
			return nil, err
		}
		out = append(out, spec)
	}
	return out, nil
}

func compileSource(id string, v cue.Value) (SourceSpec, error) {
	spec := SourceSpec{ID: id, Material: id, Outputs: DefaultSourceOutputs, Pos: v.Pos()}

	if m := v.LookupPath(cue.ParsePath("material")); m.Exists() {
		s, err := m.String()
		if err != nil {
			return spec, fieldError(ErrCodeInvalidField, "source."+id+".material", "must be a string", m)
		}
		spec.Material = s
	}

	rv := v.LookupPath(cue.ParsePath("rate"))
	if !rv.Exists() {
		return spec, fieldError(ErrCodeMissingField, "source."+id+".rate", "rate is required", v)
	}
	rate, err := parseRate(rv)
	if err != nil {
		return spec, fieldError(ErrCodeInvalidRate, "source."+id+".rate", err.Error(), rv)
	}
	spec.Rate = rate

	if spec.Outputs, err = optionalInt(v, "outputs", "source."+id, DefaultSourceOutputs); err != nil {
		return spec, err
	}
	return spec, nil
}

func compileBelt(id string, v cue.Value) (BeltSpec, error) {
	spec := BeltSpec{ID: id, Pos: v.Pos()}

	cv := v.LookupPath(cue.ParsePath("capacity"))
	if !cv.Exists() {
		return spec, fieldError(ErrCodeMissingField, "belt."+id+".capacity", "capacity is required", v)
	}
	n, err := cv.Int64()
	if err != nil {
		return spec, fieldError(ErrCodeInvalidField, "belt."+id+".capacity", "must be an integer", cv)
	}
	spec.Capacity = int(n)
	return spec, nil
}

func compileBuilding(id string, v cue.Value) (BuildingSpec, error) {
	spec := BuildingSpec{ID: id, Pos: v.Pos()}
	field := "building." + id

	var err error
	if spec.Inputs, err = optionalInt(v, "inputs", field, DefaultBuildingInputs); err != nil {
		return spec, err
	}
	if spec.Outputs, err = optionalInt(v, "outputs", field, DefaultBuildingOutputs); err != nil {
		return spec, err
	}

	bv := v.LookupPath(cue.ParsePath("belts"))
	if !bv.Exists() {
		return spec, fieldError(ErrCodeMissingField, field+".belts", "at least one internal belt capacity is required", v)
	}
	iter, err := bv.List()
	if err != nil {
		return spec, fieldError(ErrCodeInvalidField, field+".belts", "must be a list of capacities", bv)
	}
	for iter.Next() {
		n, err := iter.Value().Int64()
		if err != nil {
			return spec, fieldError(ErrCodeInvalidField, field+".belts", "capacities must be integers", iter.Value())
		}
		spec.Belts = append(spec.Belts, int(n))
	}
	return spec, nil
}

func compileSink(id string, v cue.Value) (SinkSpec, error) {
	return SinkSpec{ID: id, Pos: v.Pos()}, nil
}

func compileLinks(v cue.Value) ([]LinkSpec, error) {
	lv := v.LookupPath(cue.ParsePath("link"))
	if !lv.Exists() {
		return nil, nil
	}
	iter, err := lv.List()
	if err != nil {
		return nil, fieldError(ErrCodeInvalidField, "link", "must be a list of {from, to}", lv)
	}

	var links []LinkSpec
	for i := 0; iter.Next(); i++ {
		item := iter.Value()
		field := fmt.Sprintf("link[%d]", i)

		from, err := requiredString(item, "from", field)
		if err != nil {
			return nil, err
		}
		to, err := requiredString(item, "to", field)
		if err != nil {
			return nil, err
		}
		links = append(links, LinkSpec{From: from, To: to, Pos: item.Pos()})
	}
	return links, nil
}

// parseRate accepts a CUE number (1, 0.2) or a string ("0.2", "1/5").
func parseRate(v cue.Value) (engine.Rate, error) {
	switch v.IncompleteKind() {
	case cue.StringKind:
		s, err := v.String()
		if err != nil {
			return engine.Rate{}, err
		}
		return engine.ParseRate(s)
	case cue.IntKind, cue.FloatKind, cue.NumberKind:
		// The JSON form of a concrete number is its exact decimal literal.
		b, err := v.MarshalJSON()
		if err != nil {
			return engine.Rate{}, err
		}
		return engine.ParseRate(string(b))
	default:
		return engine.Rate{}, fmt.Errorf("rate must be a number or a string, got %v", v.IncompleteKind())
	}
}

func optionalInt(v cue.Value, name, parent string, def int) (int, error) {
	f := v.LookupPath(cue.ParsePath(name))
	if !f.Exists() {
		return def, nil
	}
	n, err := f.Int64()
	if err != nil {
		return 0, fieldError(ErrCodeInvalidField, parent+"."+name, "must be an integer", f)
	}
	return int(n), nil
}

func requiredString(v cue.Value, name, parent string) (string, error) {
	f := v.LookupPath(cue.ParsePath(name))
	if !f.Exists() {
		return "", fieldError(ErrCodeMissingField, parent+"."+name, name+" is required", v)
	}
	s, err := f.String()
	if err != nil {
		return "", fieldError(ErrCodeInvalidField, parent+"."+name, "must be a string", f)
	}
	return s, nil
}

func fieldError(code, field, msg string, at cue.Value) *CompileError {
	return &CompileError{Code: code, Field: field, Message: msg, Pos: at.Pos()}
}

// formatCUEError extracts position info from CUE errors.
func formatCUEError(err error) error {
	errs := errors.Errors(err)
	if len(errs) == 0 {
		return err
	}

	first := errs[0]
	if positions := errors.Positions(first); len(positions) > 0 {
		return &CompileError{
			Code:    ErrCodeBuildFailed,
			Field:   "cue",
			Message: first.Error(),
			Pos:     positions[0],
		}
	}
	return err
}
