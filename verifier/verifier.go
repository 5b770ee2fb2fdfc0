package verifier

import (
	"fmt"
	"math/big"

	"github.com/consensys/gnark-crypto/ecc"
	"github.com/consensys/gnark-crypto/ecc/bn254"
	"github.com/consensys/gnark-crypto/ecc/bn254/fr"

	"github.com/giuliop/plonkverify/vk"
)

// Verify checks one proof against one verification key and one public input
// sequence. It is a pure, single-pass function: it either accepts (nil) or
// rejects with one of the sentinel errors, and no state survives the call.
func Verify(key *vk.Key, publicInputs []fr.Element, proof *Proof) error {
	if key == nil {
		return vk.ErrUninitialized
	}

	// ParseInputs
	if uint64(len(publicInputs)) != key.NbPublicInputs {
		return fmt.Errorf("%w: expected %d public inputs, got %d",
			ErrMalformedPublicInput, key.NbPublicInputs, len(publicInputs))
	}

	// CheckCommitmentArity
	if proof == nil {
		return fmt.Errorf("%w: missing proof", ErrMalformedProof)
	}
	if err := proof.validate(); err != nil {
		return err
	}

	// DeriveChallenges
	ch, err := DeriveChallenges(key, publicInputs, proof)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidProof, err)
	}

	// EvaluateLinearizationIdentity
	tz, err := expectedQuotientValue(key, publicInputs, proof, ch)
	if err != nil {
		return err
	}

	// BuildBatchedOpeningPoint + PairingCheck
	if err := verifyBatchedOpening(key, proof, ch, tz); err != nil {
		return err
	}
	return nil
}

// expectedQuotientValue recomputes the master identity at the evaluation
// point from the claimed openings and divides out the vanishing polynomial,
// yielding the value the folded quotient commitment must open to.
func expectedQuotientValue(key *vk.Key, publicInputs []fr.Element, proof *Proof,
	ch *Challenges) (fr.Element, error) {

	var zero fr.Element

	// Z_H(ζ) = ζⁿ − 1; a challenge landing inside the domain has no valid
	// opening, reject outright.
	var zh fr.Element
	zh.Exp(ch.Zeta, new(big.Int).SetUint64(key.Size))
	one := fr.One()
	zh.Sub(&zh, &one)
	if zh.IsZero() {
		return zero, fmt.Errorf("%w: evaluation point inside the domain",
			ErrInvalidProof)
	}

	var lastRoot fr.Element
	lastRoot.Exp(key.Generator, new(big.Int).SetUint64(key.Size-1))

	e := &proof.Evals
	in := &IdentityInput{
		X:              ch.Zeta,
		Wire:           e.Wire,
		DNext:          e.DNext,
		GateSetup:      e.GateSetup,
		GateSelectors:  e.GateSelectors,
		Sigma:          e.Sigma,
		LookupSelector: e.LookupSelector,
		TableType:      e.TableType,
		Table:          e.Table,
		TableNext:      e.TableNext,
		H1:             e.H1,
		H1Next:         e.H1Next,
		H2:             e.H2,
		H2Next:         e.H2Next,
		Zp:             e.Zp,
		ZpNext:         e.ZpNext,
		Zl:             e.Zl,
		ZlNext:         e.ZlNext,
		PublicInput: EvalPublicInputs(publicInputs, ch.Zeta, key.Size,
			key.SizeInv, key.Generator),
		L0:    EvalLagrange(0, ch.Zeta, key.Size, key.SizeInv, key.Generator),
		LLast: EvalLagrange(key.Size-1, ch.Zeta, key.Size, key.SizeInv, key.Generator),
	}

	n := EvaluateIdentity(in, ch, key.CosetShifts, lastRoot)

	var tz fr.Element
	zh.Inverse(&zh)
	tz.Mul(&n, &zh)
	return tz, nil
}

// openingClaims assembles the canonical fold order of the batched opening:
// first the 26 (commitment, claimed value) pairs opened at the evaluation
// point, with the folded quotient commitment in front, then the 6 pairs
// opened at the shifted point.
func openingClaims(key *vk.Key, proof *Proof, ch *Challenges, tz fr.Element) (
	pointsZ []bn254.G1Affine, claimsZ []fr.Element,
	pointsZW []bn254.G1Affine, claimsZW []fr.Element, err error) {

	// fold the quotient parts with powers of ζⁿ
	var zetaN fr.Element
	zetaN.Exp(ch.Zeta, new(big.Int).SetUint64(key.Size))
	quotScalars := make([]fr.Element, 4)
	quotScalars[0] = fr.One()
	for i := 1; i < 4; i++ {
		quotScalars[i].Mul(&quotScalars[i-1], &zetaN)
	}
	var quotFold bn254.G1Affine
	if _, err = quotFold.MultiExp(proof.Quotient[:], quotScalars,
		ecc.MultiExpConfig{}); err != nil {
		return
	}

	// fold the table columns with powers of the column combiner
	etaScalars := make([]fr.Element, 4)
	etaScalars[0] = fr.One()
	for i := 1; i < 4; i++ {
		etaScalars[i].Mul(&etaScalars[i-1], &ch.Eta)
	}
	var tableFold bn254.G1Affine
	if _, err = tableFold.MultiExp(key.LookupTable[:], etaScalars,
		ecc.MultiExpConfig{}); err != nil {
		return
	}

	e := &proof.Evals
	pointsZ = make([]bn254.G1Affine, 0, 26)
	claimsZ = make([]fr.Element, 0, 26)
	add := func(p bn254.G1Affine, c fr.Element) {
		pointsZ = append(pointsZ, p)
		claimsZ = append(claimsZ, c)
	}
	add(quotFold, tz)
	for i := 0; i < 4; i++ {
		add(proof.Wires[i], e.Wire[i])
	}
	for i := 0; i < 4; i++ {
		add(key.Permutation[i], e.Sigma[i])
	}
	for i := 0; i < 8; i++ {
		add(key.GateSetup[i], e.GateSetup[i])
	}
	for i := 0; i < 2; i++ {
		add(key.GateSelectors[i], e.GateSelectors[i])
	}
	add(key.LookupSelector, e.LookupSelector)
	add(key.LookupTableType, e.TableType)
	add(tableFold, e.Table)
	add(proof.H1, e.H1)
	add(proof.H2, e.H2)
	add(proof.Zp, e.Zp)
	add(proof.Zl, e.Zl)

	pointsZW = []bn254.G1Affine{
		proof.Wires[3], tableFold, proof.H1, proof.H2, proof.Zp, proof.Zl,
	}
	claimsZW = []fr.Element{
		e.DNext, e.TableNext, e.H1Next, e.H2Next, e.ZpNext, e.ZlNext,
	}
	return
}

// verifyBatchedOpening folds every opened commitment into two aggregate
// points with the batch challenge and checks the opening equation
//
//	e(F − [c]·G1 + ζ·Wζ + u·ζω·Wζω, [1]₂) · e(−(Wζ + u·Wζω), [x]₂) = 1
//
// with a single pairing call.
func verifyBatchedOpening(key *vk.Key, proof *Proof, ch *Challenges, tz fr.Element) error {
	pointsZ, claimsZ, pointsZW, claimsZW, err := openingClaims(key, proof, ch, tz)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidProof, err)
	}

	foldGroup := func(points []bn254.G1Affine, claims []fr.Element) (
		bn254.G1Affine, fr.Element, error) {

		scalars := make([]fr.Element, len(points))
		scalars[0] = fr.One()
		for i := 1; i < len(scalars); i++ {
			scalars[i].Mul(&scalars[i-1], &ch.V)
		}
		var folded bn254.G1Affine
		if _, err := folded.MultiExp(points, scalars, ecc.MultiExpConfig{}); err != nil {
			return folded, fr.Element{}, err
		}
		var claim, term fr.Element
		for i := range claims {
			term.Mul(&claims[i], &scalars[i])
			claim.Add(&claim, &term)
		}
		return folded, claim, nil
	}

	foldedZ, claimZ, err := foldGroup(pointsZ, claimsZ)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidProof, err)
	}
	foldedZW, claimZW, err := foldGroup(pointsZW, claimsZW)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidProof, err)
	}

	// combined claimed value c = cζ + u·cζω
	var claim fr.Element
	claim.Mul(&claimZW, &ch.U)
	claim.Add(&claim, &claimZ)
	claim.Neg(&claim)

	// ζω and the scalar weights of the left pairing input
	var zetaOmega fr.Element
	zetaOmega.Mul(&ch.Zeta, &key.Generator)
	var uZetaOmega fr.Element
	uZetaOmega.Mul(&ch.U, &zetaOmega)

	leftPoints := []bn254.G1Affine{
		foldedZ, foldedZW, key.Kzg.G1, proof.WZeta, proof.WZetaOmega,
	}
	leftScalars := []fr.Element{
		fr.One(), ch.U, claim, ch.Zeta, uZetaOmega,
	}
	var left bn254.G1Affine
	if _, err := left.MultiExp(leftPoints, leftScalars, ecc.MultiExpConfig{}); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidProof, err)
	}

	// −(Wζ + u·Wζω)
	var w bn254.G1Affine
	if _, err := w.MultiExp(
		[]bn254.G1Affine{proof.WZeta, proof.WZetaOmega},
		[]fr.Element{fr.One(), ch.U},
		ecc.MultiExpConfig{}); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidProof, err)
	}
	w.Neg(&w)

	ok, err := bn254.PairingCheck(
		[]bn254.G1Affine{left, w},
		[]bn254.G2Affine{key.Kzg.G2[0], key.Kzg.G2[1]},
	)
	if err != nil {
		return fmt.Errorf("%w: pairing: %v", ErrInvalidProof, err)
	}
	if !ok {
		return ErrInvalidProof
	}
	return nil
}
