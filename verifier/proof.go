package verifier

import (
	"fmt"

	"github.com/consensys/gnark-crypto/ecc/bn254"
	"github.com/consensys/gnark-crypto/ecc/bn254/fr"
)

const (
	sizeG1     = bn254.SizeOfG1AffineUncompressed
	sizeScalar = fr.Bytes

	nbCommitments = 12 // wires, sorted halves, grand products, quotient parts
	nbEvals       = 25 // claimed evaluations at the challenge point
	nbShifted     = 6  // claimed evaluations at the shifted point

	// ProofSize is the exact length of a marshaled proof; any other length is
	// rejected before parsing.
	ProofSize = (nbCommitments+2)*sizeG1 + (nbEvals+nbShifted)*sizeScalar
)

// Evaluations are the scalar openings claimed by the prover, in the fixed
// order they are marshaled and absorbed by the transcript.
type Evaluations struct {
	// at the evaluation point
	Wire           [4]fr.Element
	Sigma          [4]fr.Element
	GateSetup      [8]fr.Element // Qa, Qb, Qc, Qd, Qm, Qm2, Qconst, Qdnext
	GateSelectors  [2]fr.Element // main, custom
	LookupSelector fr.Element
	TableType      fr.Element
	Table          fr.Element // folded table column combination
	H1, H2         fr.Element
	Zp, Zl         fr.Element

	// at the shifted evaluation point
	DNext     fr.Element
	TableNext fr.Element
	H1Next    fr.Element
	H2Next    fr.Element
	ZpNext    fr.Element
	ZlNext    fr.Element
}

// Proof is one complete argument for one statement. Point and scalar counts
// are fixed by the circuit shape; a proof with wrong arity never reaches the
// arithmetic.
type Proof struct {
	Wires    [4]bn254.G1Affine // a, b, c, d commitments
	H1, H2   bn254.G1Affine    // sorted lookup union halves
	Zp       bn254.G1Affine    // permutation grand product
	Zl       bn254.G1Affine    // lookup grand product
	Quotient [4]bn254.G1Affine

	Evals Evaluations

	// batched opening proofs at the evaluation point and its shift
	WZeta      bn254.G1Affine
	WZetaOmega bn254.G1Affine
}

// points returns all proof commitments in marshaling order.
func (p *Proof) points() []*bn254.G1Affine {
	return []*bn254.G1Affine{
		&p.Wires[0], &p.Wires[1], &p.Wires[2], &p.Wires[3],
		&p.H1, &p.H2,
		&p.Zp, &p.Zl,
		&p.Quotient[0], &p.Quotient[1], &p.Quotient[2], &p.Quotient[3],
	}
}

// scalars returns all claimed evaluations in marshaling order.
func (e *Evaluations) scalars() []*fr.Element {
	out := make([]*fr.Element, 0, nbEvals+nbShifted)
	for i := range e.Wire {
		out = append(out, &e.Wire[i])
	}
	for i := range e.Sigma {
		out = append(out, &e.Sigma[i])
	}
	for i := range e.GateSetup {
		out = append(out, &e.GateSetup[i])
	}
	for i := range e.GateSelectors {
		out = append(out, &e.GateSelectors[i])
	}
	out = append(out,
		&e.LookupSelector, &e.TableType, &e.Table,
		&e.H1, &e.H2, &e.Zp, &e.Zl,
		&e.DNext, &e.TableNext, &e.H1Next, &e.H2Next, &e.ZpNext, &e.ZlNext,
	)
	return out
}

// bytes returns the claimed evaluations serialized in marshaling order, the
// form the transcript absorbs before the batching challenge.
func (e *Evaluations) bytes() []byte {
	out := make([]byte, 0, (nbEvals+nbShifted)*sizeScalar)
	for _, s := range e.scalars() {
		b := s.Bytes()
		out = append(out, b[:]...)
	}
	return out
}

// MarshalBinary serializes the proof as the fixed-size blob the on-chain
// surface consumes: uncompressed points, then big-endian scalars, then the
// opening proofs.
func (p *Proof) MarshalBinary() ([]byte, error) {
	out := make([]byte, 0, ProofSize)
	for _, pt := range p.points() {
		raw := pt.RawBytes()
		out = append(out, raw[:]...)
	}
	out = append(out, p.Evals.bytes()...)
	raw := p.WZeta.RawBytes()
	out = append(out, raw[:]...)
	raw = p.WZetaOmega.RawBytes()
	out = append(out, raw[:]...)
	return out, nil
}

// UnmarshalBinary parses a proof blob, rejecting wrong arity, points not on
// the curve, and scalars at or above the field modulus. Out-of-field values
// are rejected, never reduced.
func (p *Proof) UnmarshalBinary(data []byte) error {
	if len(data) != ProofSize {
		return fmt.Errorf("%w: expected %d bytes, got %d",
			ErrMalformedProof, ProofSize, len(data))
	}
	offset := 0
	for i, pt := range p.points() {
		if _, err := pt.SetBytes(data[offset : offset+sizeG1]); err != nil {
			return fmt.Errorf("%w: commitment %d: %v", ErrMalformedProof, i, err)
		}
		offset += sizeG1
	}
	for i, s := range p.Evals.scalars() {
		if err := s.SetBytesCanonical(data[offset : offset+sizeScalar]); err != nil {
			return fmt.Errorf("%w: evaluation %d: %v", ErrMalformedProof, i, err)
		}
		offset += sizeScalar
	}
	if _, err := p.WZeta.SetBytes(data[offset : offset+sizeG1]); err != nil {
		return fmt.Errorf("%w: opening proof: %v", ErrMalformedProof, err)
	}
	offset += sizeG1
	if _, err := p.WZetaOmega.SetBytes(data[offset : offset+sizeG1]); err != nil {
		return fmt.Errorf("%w: shifted opening proof: %v", ErrMalformedProof, err)
	}
	return nil
}

// validate checks subgroup membership of every point in the proof.
func (p *Proof) validate() error {
	for i, pt := range p.points() {
		if !pt.IsInSubGroup() {
			return fmt.Errorf("%w: commitment %d is not in the curve subgroup",
				ErrMalformedProof, i)
		}
	}
	if !p.WZeta.IsInSubGroup() || !p.WZetaOmega.IsInSubGroup() {
		return fmt.Errorf("%w: opening proof is not in the curve subgroup",
			ErrMalformedProof)
	}
	return nil
}
