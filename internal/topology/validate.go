package topology

import (
	"fmt"
	"strings"

	"github.com/roach88/forgery/internal/engine"
)

// Validation error codes (E210-E219)
const (
	ErrDuplicateID     = "E210" // id declared twice, across all kinds
	ErrInvalidID       = "E211" // empty id or id containing '/'
	ErrInvalidCapacity = "E212" // belt capacity <= 0
	ErrInvalidPorts    = "E213" // negative port bound or no internal belts
	ErrUnknownLinkEnd  = "E214" // link names an undeclared component
	ErrInvalidLink     = "E215" // link between incompatible kinds
	ErrPortsExhausted  = "E216" // more links than a port bound allows
)

// ValidationError represents a topology consistency error.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code"`
	Line    int    `json:"line,omitempty"`
}

// Error implements the error interface.
func (e ValidationError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("[%s] line %d: %s: %s", e.Code, e.Line, e.Field, e.Message)
	}
	return fmt.Sprintf("[%s] %s: %s", e.Code, e.Field, e.Message)
}

// Validate checks ids, bounds and links. Returns all errors found (does not
// fail-fast).
func Validate(t *Topology) []ValidationError {
	v := &validator{kinds: make(map[string]engine.ComponentKind)}

	for _, s := range t.Sources {
		v.declare(s.ID, "source."+s.ID, engine.KindSource, s.Pos.Line())
		if s.Outputs < 0 {
			v.add(ErrInvalidPorts, "source."+s.ID+".outputs", s.Pos.Line(), "must be >= 0, got %d", s.Outputs)
		}
	}
	for _, b := range t.Belts {
		v.declare(b.ID, "belt."+b.ID, engine.KindBelt, b.Pos.Line())
		if b.Capacity <= 0 {
			v.add(ErrInvalidCapacity, "belt."+b.ID+".capacity", b.Pos.Line(), "must be > 0, got %d", b.Capacity)
		}
	}
	for _, b := range t.Buildings {
		field := "building." + b.ID
		v.declare(b.ID, field, engine.KindBuilding, b.Pos.Line())
		if b.Inputs < 0 || b.Outputs < 0 {
			v.add(ErrInvalidPorts, field, b.Pos.Line(), "inputs/outputs must be >= 0, got %d/%d", b.Inputs, b.Outputs)
		}
		if len(b.Belts) == 0 {
			v.add(ErrInvalidPorts, field+".belts", b.Pos.Line(), "at least one internal belt is required")
		}
		for n, c := range b.Belts {
			id := engine.InternalBeltID(b.ID, n)
			v.declareInternal(id, field, b.Pos.Line())
			if c <= 0 {
				v.add(ErrInvalidCapacity, fmt.Sprintf("%s.belts[%d]", field, n), b.Pos.Line(), "must be > 0, got %d", c)
			}
		}
	}
	for _, s := range t.Sinks {
		v.declare(s.ID, "sink."+s.ID, engine.KindSink, s.Pos.Line())
	}

	v.checkLinks(t)
	return v.errs
}

type validator struct {
	kinds map[string]engine.ComponentKind
	errs  []ValidationError
}

func (v *validator) add(code, field string, line int, format string, args ...any) {
	v.errs = append(v.errs, ValidationError{
		Field:   field,
		Message: fmt.Sprintf(format, args...),
		Code:    code,
		Line:    line,
	})
}

func (v *validator) declare(id, field string, kind engine.ComponentKind, line int) {
	if strings.TrimSpace(id) == "" || strings.Contains(id, "/") {
		v.add(ErrInvalidID, field, line, "id must be non-empty and must not contain '/'")
		return
	}
	if prev, exists := v.kinds[id]; exists {
		v.add(ErrDuplicateID, field, line, "id %q already declared as a %s", id, prev)
		return
	}
	v.kinds[id] = kind
}

func (v *validator) declareInternal(id, field string, line int) {
	if _, exists := v.kinds[id]; exists {
		v.add(ErrDuplicateID, field, line, "internal belt %q collides with a declared id", id)
		return
	}
	v.kinds[id] = engine.KindBelt
}

// checkLinks mirrors the kind rules of engine.Simulation.Link and counts
// port usage against declared bounds.
func (v *validator) checkLinks(t *Topology) {
	outBound := make(map[string]int)
	inBound := make(map[string]int)
	for _, s := range t.Sources {
		outBound[s.ID] = s.Outputs
	}
	for _, b := range t.Buildings {
		outBound[b.ID] = b.Outputs
		inBound[b.ID] = b.Inputs
	}

	outUsed := make(map[string]int)
	inUsed := make(map[string]int)

	for i, l := range t.Links {
		field := fmt.Sprintf("link[%d]", i)
		line := l.Pos.Line()

		from, okFrom := v.kinds[l.From]
		to, okTo := v.kinds[l.To]
		if !okFrom {
			v.add(ErrUnknownLinkEnd, field+".from", line, "unknown component %q", l.From)
		}
		if !okTo {
			v.add(ErrUnknownLinkEnd, field+".to", line, "unknown component %q", l.To)
		}
		if !okFrom || !okTo {
			continue
		}
		if !linkAllowed(from, to) {
			v.add(ErrInvalidLink, field, line, "cannot link %s (%s) -> %s (%s)", l.From, from, l.To, to)
			continue
		}

		// Source outputs count only belt links; a building or sink pulls
		// from a source through the consumer's own port.
		if to == engine.KindBelt && (from == engine.KindSource || from == engine.KindBuilding) {
			outUsed[l.From]++
			if outUsed[l.From] > outBound[l.From] {
				v.add(ErrPortsExhausted, field, line, "%s has no free output (max %d)", l.From, outBound[l.From])
			}
		}
		if to == engine.KindBuilding {
			inUsed[l.To]++
			if inUsed[l.To] > inBound[l.To] {
				v.add(ErrPortsExhausted, field, line, "%s has no free input (max %d)", l.To, inBound[l.To])
			}
		}
	}
}

func linkAllowed(from, to engine.ComponentKind) bool {
	switch to {
	case engine.KindBelt:
		return from == engine.KindSource || from == engine.KindBelt || from == engine.KindBuilding
	case engine.KindBuilding, engine.KindSink:
		return from == engine.KindSource || from == engine.KindBelt
	default:
		return false
	}
}
