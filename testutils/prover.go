package testutils

import (
	"fmt"
	"math/big"

	"github.com/consensys/gnark-crypto/ecc/bn254/fr"
	"github.com/consensys/gnark-crypto/ecc/bn254/fr/fft"
	"github.com/consensys/gnark-crypto/ecc/bn254/kzg"

	"github.com/giuliop/plonkverify/verifier"
	"github.com/giuliop/plonkverify/vk"
)

// quotient evaluation runs on a coset this many times larger than the
// domain, enough for the degree of the master identity
const cosetRatio = 8

// Prove produces a proof that the circuit's witness satisfies its
// constraints. It mirrors the verifier's transcript stage by stage, so a
// proof it emits against a key built from the same circuit always verifies.
//
// The prover is deterministic and adds no blinding: proofs are reproducible
// and leak the witness, which is exactly right for test fixtures and
// exactly wrong for anything else.
func Prove(c *Circuit, key *vk.Key, srs *kzg.SRS) (*verifier.Proof, error) {
	n := int(c.Size)
	omega := key.Generator
	roots := make([]fr.Element, n)
	roots[0] = fr.One()
	for i := 1; i < n; i++ {
		roots[i].Mul(&roots[i-1], &omega)
	}

	// coefficient form of every committed column
	var wires, sigma [4][]fr.Element
	var setup [8][]fr.Element
	var selectors [2][]fr.Element
	for j := 0; j < 4; j++ {
		wires[j] = interpolate(c.Wires[j], omega)
		sigma[j] = interpolate(c.Sigma[j], omega)
	}
	for j := 0; j < 8; j++ {
		setup[j] = interpolate(c.GateSetup[j], omega)
	}
	for j := 0; j < 2; j++ {
		selectors[j] = interpolate(c.GateSelectors[j], omega)
	}
	lookupSel := interpolate(c.LookupSelector, omega)
	tableType := interpolate(c.TableType, omega)
	var table [4][]fr.Element
	for j := 0; j < 4; j++ {
		table[j] = interpolate(c.Table[j], omega)
	}

	digest, err := key.Digest()
	if err != nil {
		return nil, fmt.Errorf("error hashing verification key: %v", err)
	}
	t, err := verifier.NewTranscript(digest, c.PublicInputs)
	if err != nil {
		return nil, err
	}

	proof := &verifier.Proof{}
	var ch verifier.Challenges

	// round 1: wire commitments, lookup column combiner
	for j := 0; j < 4; j++ {
		if proof.Wires[j], err = kzg.Commit(wires[j], srs.Pk); err != nil {
			return nil, fmt.Errorf("error committing wire %d: %v", j, err)
		}
	}
	if ch.Eta, err = t.WireChallenge(proof.Wires); err != nil {
		return nil, err
	}

	// round 2: sorted lookup union, permutation challenges
	fVec := queryVector(c, ch.Eta)
	tVec := tableVector(c, ch.Eta)
	s, err := sortedUnion(fVec[:n-1], tVec)
	if err != nil {
		return nil, err
	}
	h1Vec, h2Vec := s[:n], s[n-1:]
	h1Poly := interpolate(h1Vec, omega)
	h2Poly := interpolate(h2Vec, omega)
	if proof.H1, err = kzg.Commit(h1Poly, srs.Pk); err != nil {
		return nil, fmt.Errorf("error committing sorted half: %v", err)
	}
	if proof.H2, err = kzg.Commit(h2Poly, srs.Pk); err != nil {
		return nil, fmt.Errorf("error committing sorted half: %v", err)
	}
	if ch.Beta, ch.Gamma, err = t.PermutationChallenges(proof.H1, proof.H2); err != nil {
		return nil, err
	}

	// round 3: permutation grand product, lookup challenges
	zpVec := permutationProduct(c, roots, ch.Beta, ch.Gamma)
	zpPoly := interpolate(zpVec, omega)
	if proof.Zp, err = kzg.Commit(zpPoly, srs.Pk); err != nil {
		return nil, fmt.Errorf("error committing permutation product: %v", err)
	}
	if ch.BetaL, ch.GammaL, err = t.LookupChallenges(proof.Zp); err != nil {
		return nil, err
	}

	// round 4: lookup grand product, gate separation challenge
	zlVec := lookupProduct(fVec, tVec, h1Vec, h2Vec, ch.BetaL, ch.GammaL)
	zlPoly := interpolate(zlVec, omega)
	if proof.Zl, err = kzg.Commit(zlPoly, srs.Pk); err != nil {
		return nil, fmt.Errorf("error committing lookup product: %v", err)
	}
	if ch.Alpha, err = t.GateChallenge(proof.Zl); err != nil {
		return nil, err
	}

	if err := checkRows(c, roots, zpVec, zlVec, h1Vec, h2Vec, tVec, &ch, key); err != nil {
		return nil, err
	}

	// round 5: quotient
	tablePoly := foldPolys([][]fr.Element{table[0], table[1], table[2], table[3]}, ch.Eta)
	polys := &committedPolys{
		wires: wires, sigma: sigma, setup: setup, selectors: selectors,
		lookupSel: lookupSel, tableType: tableType, table: tablePoly,
		h1: h1Poly, h2: h2Poly, zp: zpPoly, zl: zlPoly,
	}
	quotient, err := computeQuotient(c, key, polys, &ch)
	if err != nil {
		return nil, err
	}
	for j := 0; j < 4; j++ {
		if proof.Quotient[j], err = kzg.Commit(quotient[j], srs.Pk); err != nil {
			return nil, fmt.Errorf("error committing quotient part %d: %v", j, err)
		}
	}
	if ch.Zeta, err = t.EvaluationChallenge(proof.Quotient); err != nil {
		return nil, err
	}

	// round 6: claimed evaluations
	var zetaOmega fr.Element
	zetaOmega.Mul(&ch.Zeta, &omega)
	e := &proof.Evals
	for j := 0; j < 4; j++ {
		e.Wire[j] = evalAt(wires[j], ch.Zeta)
		e.Sigma[j] = evalAt(sigma[j], ch.Zeta)
	}
	for j := 0; j < 8; j++ {
		e.GateSetup[j] = evalAt(setup[j], ch.Zeta)
	}
	for j := 0; j < 2; j++ {
		e.GateSelectors[j] = evalAt(selectors[j], ch.Zeta)
	}
	e.LookupSelector = evalAt(lookupSel, ch.Zeta)
	e.TableType = evalAt(tableType, ch.Zeta)
	e.Table = evalAt(tablePoly, ch.Zeta)
	e.H1 = evalAt(h1Poly, ch.Zeta)
	e.H2 = evalAt(h2Poly, ch.Zeta)
	e.Zp = evalAt(zpPoly, ch.Zeta)
	e.Zl = evalAt(zlPoly, ch.Zeta)
	e.DNext = evalAt(wires[3], zetaOmega)
	e.TableNext = evalAt(tablePoly, zetaOmega)
	e.H1Next = evalAt(h1Poly, zetaOmega)
	e.H2Next = evalAt(h2Poly, zetaOmega)
	e.ZpNext = evalAt(zpPoly, zetaOmega)
	e.ZlNext = evalAt(zlPoly, zetaOmega)
	if ch.V, err = t.BatchChallenge(e); err != nil {
		return nil, err
	}

	// round 7: batched openings at the evaluation point and its shift
	var zetaN fr.Element
	zetaN.Exp(ch.Zeta, new(big.Int).SetUint64(c.Size))
	foldedQuotient := make([]fr.Element, n)
	pow := fr.One()
	var term fr.Element
	for j := 0; j < 4; j++ {
		for i := range quotient[j] {
			term.Mul(&quotient[j][i], &pow)
			foldedQuotient[i].Add(&foldedQuotient[i], &term)
		}
		pow.Mul(&pow, &zetaN)
	}

	atZeta := [][]fr.Element{
		foldedQuotient,
		wires[0], wires[1], wires[2], wires[3],
		sigma[0], sigma[1], sigma[2], sigma[3],
		setup[0], setup[1], setup[2], setup[3],
		setup[4], setup[5], setup[6], setup[7],
		selectors[0], selectors[1],
		lookupSel, tableType, tablePoly,
		h1Poly, h2Poly, zpPoly, zlPoly,
	}
	atZetaOmega := [][]fr.Element{
		wires[3], tablePoly, h1Poly, h2Poly, zpPoly, zlPoly,
	}
	wZeta := divideByLinear(foldPolys(atZeta, ch.V), ch.Zeta)
	if proof.WZeta, err = kzg.Commit(wZeta, srs.Pk); err != nil {
		return nil, fmt.Errorf("error committing opening proof: %v", err)
	}
	wZetaOmega := divideByLinear(foldPolys(atZetaOmega, ch.V), zetaOmega)
	if proof.WZetaOmega, err = kzg.Commit(wZetaOmega, srs.Pk); err != nil {
		return nil, fmt.Errorf("error committing shifted opening proof: %v", err)
	}
	return proof, nil
}

// queryVector returns the lookup queries f_i = Qlookup·(a + η·b + η²·c + η³·τ).
func queryVector(c *Circuit, eta fr.Element) []fr.Element {
	n := int(c.Size)
	f := make([]fr.Element, n)
	for i := 0; i < n; i++ {
		var v fr.Element
		v.Mul(&eta, &c.TableType[i])
		v.Add(&v, &c.Wires[2][i])
		v.Mul(&v, &eta)
		v.Add(&v, &c.Wires[1][i])
		v.Mul(&v, &eta)
		v.Add(&v, &c.Wires[0][i])
		f[i].Mul(&v, &c.LookupSelector[i])
	}
	return f
}

// tableVector returns the table rows folded with the column combiner.
func tableVector(c *Circuit, eta fr.Element) []fr.Element {
	n := int(c.Size)
	t := make([]fr.Element, n)
	for i := 0; i < n; i++ {
		var v fr.Element
		v.Mul(&eta, &c.Table[3][i])
		v.Add(&v, &c.Table[2][i])
		v.Mul(&v, &eta)
		v.Add(&v, &c.Table[1][i])
		v.Mul(&v, &eta)
		v.Add(&v, &c.Table[0][i])
		t[i] = v
	}
	return t
}

// sortedUnion concatenates the queries into the table in table order: each
// table entry is followed by the queries equal to it. The result has every
// query adjacent to a copy of its table value, the shape the lookup grand
// product telescopes over.
func sortedUnion(f, t []fr.Element) ([]fr.Element, error) {
	remaining := make(map[[fr.Bytes]byte]int, len(f))
	for i := range f {
		remaining[f[i].Bytes()]++
	}
	s := make([]fr.Element, 0, len(f)+len(t))
	for i := range t {
		s = append(s, t[i])
		k := t[i].Bytes()
		for remaining[k] > 0 {
			s = append(s, t[i])
			remaining[k]--
		}
	}
	if len(s) != len(f)+len(t) {
		return nil, fmt.Errorf("lookup query is not in the table")
	}
	return s, nil
}

// permutationProduct builds the copy-permutation grand product column:
// Zp_0 = 1 and each step multiplies the ratio of identity-labelled to
// sigma-labelled wire terms.
func permutationProduct(c *Circuit, roots []fr.Element, beta, gamma fr.Element) []fr.Element {
	n := int(c.Size)
	shifts := cosetShifts()
	zp := make([]fr.Element, n)
	zp[0] = fr.One()
	var num, den, term, label fr.Element
	for i := 0; i < n-1; i++ {
		num = fr.One()
		den = fr.One()
		for j := 0; j < 4; j++ {
			if j == 0 {
				label = roots[i]
			} else {
				label.Mul(&roots[i], &shifts[j-1])
			}
			term.Mul(&beta, &label)
			term.Add(&term, &c.Wires[j][i])
			term.Add(&term, &gamma)
			num.Mul(&num, &term)

			term.Mul(&beta, &c.Sigma[j][i])
			term.Add(&term, &c.Wires[j][i])
			term.Add(&term, &gamma)
			den.Mul(&den, &term)
		}
		den.Inverse(&den)
		zp[i+1].Mul(&zp[i], &num)
		zp[i+1].Mul(&zp[i+1], &den)
	}
	return zp
}

// lookupProduct builds the lookup grand product column over the sorted
// union halves.
func lookupProduct(f, t, h1, h2 []fr.Element, betaL, gammaL fr.Element) []fr.Element {
	n := len(t)
	one := fr.One()
	var onePlusBeta, gammaBeta fr.Element
	onePlusBeta.Add(&one, &betaL)
	gammaBeta.Mul(&gammaL, &onePlusBeta)

	zl := make([]fr.Element, n)
	zl[0] = fr.One()
	var num, den, term fr.Element
	for i := 0; i < n-1; i++ {
		num.Add(&gammaL, &f[i])
		num.Mul(&num, &onePlusBeta)
		term.Mul(&betaL, &t[i+1])
		term.Add(&term, &t[i])
		term.Add(&term, &gammaBeta)
		num.Mul(&num, &term)

		term.Mul(&betaL, &h1[i+1])
		term.Add(&term, &h1[i])
		term.Add(&term, &gammaBeta)
		den.Set(&term)
		term.Mul(&betaL, &h2[i+1])
		term.Add(&term, &h2[i])
		term.Add(&term, &gammaBeta)
		den.Mul(&den, &term)

		den.Inverse(&den)
		zl[i+1].Mul(&zl[i], &num)
		zl[i+1].Mul(&zl[i+1], &den)
	}
	return zl
}

// checkRows evaluates the master identity on every domain row and reports
// the first violated one, so an unsatisfied witness fails with a usable
// message instead of a failed quotient division downstream.
func checkRows(c *Circuit, roots []fr.Element, zp, zl, h1, h2, t []fr.Element,
	ch *verifier.Challenges, key *vk.Key) error {

	n := int(c.Size)
	for i := 0; i < n; i++ {
		next := (i + 1) % n
		in := &verifier.IdentityInput{X: roots[i]}
		for j := 0; j < 4; j++ {
			in.Wire[j] = c.Wires[j][i]
			in.Sigma[j] = c.Sigma[j][i]
		}
		in.DNext = c.Wires[3][next]
		for j := 0; j < 8; j++ {
			in.GateSetup[j] = c.GateSetup[j][i]
		}
		for j := 0; j < 2; j++ {
			in.GateSelectors[j] = c.GateSelectors[j][i]
		}
		in.LookupSelector = c.LookupSelector[i]
		in.TableType = c.TableType[i]
		in.Table = t[i]
		in.TableNext = t[next]
		in.H1, in.H1Next = h1[i], h1[next]
		in.H2, in.H2Next = h2[i], h2[next]
		in.Zp, in.ZpNext = zp[i], zp[next]
		in.Zl, in.ZlNext = zl[i], zl[next]
		if i == 0 {
			in.L0 = fr.One()
		}
		if i == n-1 {
			in.LLast = fr.One()
		}
		if i < len(c.PublicInputs) {
			in.PublicInput = c.PublicInputs[i]
		}
		res := verifier.EvaluateIdentity(in, ch, key.CosetShifts, roots[n-1])
		if !res.IsZero() {
			return fmt.Errorf("constraint system is not satisfied at row %d", i)
		}
	}
	return nil
}

// committedPolys carries the coefficient form of every polynomial entering
// the quotient.
type committedPolys struct {
	wires     [4][]fr.Element
	sigma     [4][]fr.Element
	setup     [8][]fr.Element
	selectors [2][]fr.Element
	lookupSel []fr.Element
	tableType []fr.Element
	table     []fr.Element // columns already folded with the combiner
	h1, h2    []fr.Element
	zp, zl    []fr.Element
}

// computeQuotient evaluates the master identity on a large coset, divides
// pointwise by the vanishing polynomial and interpolates back, returning the
// quotient split into domain-sized parts.
func computeQuotient(c *Circuit, key *vk.Key, p *committedPolys,
	ch *verifier.Challenges) ([4][]fr.Element, error) {

	var parts [4][]fr.Element
	n := int(c.Size)
	m := cosetRatio * n
	coset := fft.NewDomain(uint64(m))
	omega := key.Generator
	var lastRoot fr.Element
	lastRoot.Exp(omega, new(big.Int).SetUint64(c.Size-1))
	one := fr.One()

	evals := make([]fr.Element, m)
	zh := make([]fr.Element, m)
	x := coset.FrMultiplicativeGen
	for k := 0; k < m; k++ {
		var xNext fr.Element
		xNext.Mul(&x, &omega)

		in := &verifier.IdentityInput{X: x}
		for j := 0; j < 4; j++ {
			in.Wire[j] = evalAt(p.wires[j], x)
			in.Sigma[j] = evalAt(p.sigma[j], x)
		}
		in.DNext = evalAt(p.wires[3], xNext)
		for j := 0; j < 8; j++ {
			in.GateSetup[j] = evalAt(p.setup[j], x)
		}
		for j := 0; j < 2; j++ {
			in.GateSelectors[j] = evalAt(p.selectors[j], x)
		}
		in.LookupSelector = evalAt(p.lookupSel, x)
		in.TableType = evalAt(p.tableType, x)
		in.Table = evalAt(p.table, x)
		in.TableNext = evalAt(p.table, xNext)
		in.H1 = evalAt(p.h1, x)
		in.H1Next = evalAt(p.h1, xNext)
		in.H2 = evalAt(p.h2, x)
		in.H2Next = evalAt(p.h2, xNext)
		in.Zp = evalAt(p.zp, x)
		in.ZpNext = evalAt(p.zp, xNext)
		in.Zl = evalAt(p.zl, x)
		in.ZlNext = evalAt(p.zl, xNext)
		in.PublicInput = verifier.EvalPublicInputs(c.PublicInputs, x,
			key.Size, key.SizeInv, omega)
		in.L0 = verifier.EvalLagrange(0, x, key.Size, key.SizeInv, omega)
		in.LLast = verifier.EvalLagrange(key.Size-1, x, key.Size, key.SizeInv, omega)

		evals[k] = verifier.EvaluateIdentity(in, ch, key.CosetShifts, lastRoot)
		zh[k].Exp(x, new(big.Int).SetUint64(c.Size))
		zh[k].Sub(&zh[k], &one)

		x.Mul(&x, &coset.Generator)
	}

	zhInv := fr.BatchInvert(zh)
	for k := 0; k < m; k++ {
		evals[k].Mul(&evals[k], &zhInv[k])
	}

	coeffs := interpolateCoset(evals, coset)
	for k := 4 * n; k < m; k++ {
		if !coeffs[k].IsZero() {
			return parts, fmt.Errorf("constraint system is not satisfied")
		}
	}
	for j := 0; j < 4; j++ {
		parts[j] = coeffs[j*n : (j+1)*n]
	}
	return parts, nil
}
