// Package verifier implements proof verification for a 4-wire Plonk
// arithmetization extended with a plookup lookup argument, committed with
// KZG over BN254.
//
// The verifier is stateless: Verify takes a verification key, the public
// inputs and a parsed Proof and replays the prover's transcript to derive
// every challenge, recomputes the constraint identity at the evaluation
// point from the claimed openings, folds all opened commitments into one
// batched KZG opening and settles it with a single pairing check.
//
// Rejections are classified by sentinel: ErrMalformedPublicInput and
// ErrMalformedProof cover structural defects caught before any pairing
// work, ErrInvalidProof covers a well-formed proof that fails the
// cryptographic checks.
package verifier
