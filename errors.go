package tetravol

import (
	"fmt"

	"github.com/wedge3d/tetravol/meshdata"
)

// ErrorKind is one of the six error kinds below.
type ErrorKind int

const (
	// KindInputInvalid: NaN/Inf coordinates, zero-area bbox, empty FI.
	// Fatal.
	KindInputInvalid ErrorKind = iota
	// KindEmptyInput: preprocess removed all triangles. Fatal (emit
	// empty mesh).
	KindEmptyInput
	// KindEnvelopeInfeasible: refinement cannot converge within the
	// envelope at stage >= max_stage. Surfaced; caller may retry with
	// increased eps_rel.
	KindEnvelopeInfeasible
	// KindPredicateDegeneracy: exact predicate returned inconclusive.
	// Should be impossible with correct rational arithmetic; treated as
	// an assertion.
	KindPredicateDegeneracy
	// KindOperationRejected: local, non-fatal; not normally surfaced to
	// callers of Tetrahedralize (it is handled internally by the
	// refinement engine), kept here for completeness with spec.md §7's
	// enumeration.
	KindOperationRejected
	// KindPassLimitExceeded: the refinement engine exhausted
	// max_num_passes. Not fatal — Tetrahedralize returns the best-so-far
	// mesh alongside this error, per spec.md §6's exit conditions.
	KindPassLimitExceeded
)

func (k ErrorKind) String() string {
	switch k {
	case KindInputInvalid:
		return "InputInvalid"
	case KindEmptyInput:
		return "EmptyInput"
	case KindEnvelopeInfeasible:
		return "EnvelopeInfeasible"
	case KindPredicateDegeneracy:
		return "PredicateDegeneracy"
	case KindOperationRejected:
		return "OperationRejected"
	case KindPassLimitExceeded:
		return "PassLimitExceeded"
	default:
		return "Unknown"
	}
}

// Error is the structured pipeline-level failure of spec.md §7: a kind,
// a message, and — for the non-fatal exit conditions that return
// best-so-far output — the last valid intermediate mesh, so a caller can
// inspect or persist it for debugging (SPEC_FULL.md §A).
type Error struct {
	Kind ErrorKind
	Msg  string
	Mesh *meshdata.Mesh
	err  error
}

func (e *Error) Error() string {
	if e.err != nil {
		return fmt.Sprintf("tetravol: %s: %s: %v", e.Kind, e.Msg, e.err)
	}
	return fmt.Sprintf("tetravol: %s: %s", e.Kind, e.Msg)
}

func (e *Error) Unwrap() error {
	return e.err
}

func newError(kind ErrorKind, msg string, wrapped error) *Error {
	return &Error{Kind: kind, Msg: msg, err: wrapped}
}

func newErrorWithMesh(kind ErrorKind, msg string, wrapped error, m *meshdata.Mesh) *Error {
	return &Error{Kind: kind, Msg: msg, err: wrapped, Mesh: m}
}
