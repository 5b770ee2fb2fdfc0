package verifier

import "errors"

// Every rejection path maps to exactly one of these sentinels so callers can
// assert why a proof was rejected, not merely that it was.
var (
	// ErrMalformedPublicInput signals a public input sequence with the wrong
	// arity or a value outside the scalar field.
	ErrMalformedPublicInput = errors.New("malformed public input")

	// ErrMalformedProof signals a proof with wrong arity, a point outside the
	// curve subgroup, or a scalar outside the field.
	ErrMalformedProof = errors.New("malformed proof")

	// ErrInvalidProof signals a well-formed proof that fails the polynomial
	// identity or the pairing check.
	ErrInvalidProof = errors.New("invalid proof")
)
