package engine

import (
	"strings"

	"golang.org/x/text/unicode/norm"
)

// Material describes one unit flowing through the factory.
//
// Materials are values: two units of the same kind are interchangeable and
// have no identity beyond their kind.
type Material struct {
	Kind string `json:"kind"`
}

// NewMaterial returns a material of the given kind. The kind is trimmed and
// NFC-normalised so kinds loaded from different files compare equal.
func NewMaterial(kind string) Material {
	return Material{Kind: normalizeKind(kind)}
}

// Clone returns an independent copy with the same kind.
func (m Material) Clone() Material {
	return Material{Kind: m.Kind}
}

// String implements fmt.Stringer.
func (m Material) String() string {
	return m.Kind
}

func normalizeKind(kind string) string {
	return norm.NFC.String(strings.TrimSpace(kind))
}
