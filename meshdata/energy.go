package meshdata

import "math"

// Energy is the AMIPS-style shape-distortion energy of spec.md §4.8. It
// is modeled as a dedicated variant rather than a float sentinel
// (spec.md §9's explicit design note: "Energy ∞ semantics for inverted
// tets must be first-class"), so comparisons never have to remember that
// a particular float value means "inverted".
type Energy struct {
	value float64
	inf   bool
}

// InfEnergy is the energy of an inverted or degenerate tet.
var InfEnergy = Energy{inf: true}

// FiniteEnergy wraps a finite, non-negative energy value.
func FiniteEnergy(v float64) Energy {
	return Energy{value: v}
}

// IsInf reports whether e represents an inverted/degenerate tet.
func (e Energy) IsInf() bool {
	return e.inf
}

// Value returns e as a float64 (math.Inf(1) if e.IsInf()), for reporting
// and for libraries (gonum/floats, gonum/stat) that only understand
// plain floats.
func (e Energy) Value() float64 {
	if e.inf {
		return math.Inf(1)
	}
	return e.value
}

// Less reports whether e is strictly smaller than o, with InfEnergy
// always the largest value.
func (e Energy) Less(o Energy) bool {
	if e.inf {
		return false
	}
	if o.inf {
		return true
	}
	return e.value < o.value
}

// MaxEnergy returns whichever of a, b is larger.
func MaxEnergy(a, b Energy) Energy {
	if a.Less(b) {
		return b
	}
	return a
}
