package verifier

import (
	"math/big"

	"github.com/consensys/gnark-crypto/ecc/bn254/fr"

	"github.com/giuliop/plonkverify/vk"
)

// IdentityInput collects the evaluations of every constraint-system
// polynomial at one point. The verifier fills it from the proof's claimed
// openings at the challenge point; the prover fills it row by row on an
// evaluation coset while computing the quotient. Both sides feed it to
// EvaluateIdentity, so the identity cannot diverge between them.
type IdentityInput struct {
	X fr.Element // the evaluation point itself

	Wire  [4]fr.Element // a, b, c, d
	DNext fr.Element    // d at the shifted point

	GateSetup     [8]fr.Element // Qa, Qb, Qc, Qd, Qm, Qm2, Qconst, Qdnext
	GateSelectors [2]fr.Element // main, custom
	Sigma         [4]fr.Element

	LookupSelector fr.Element
	TableType      fr.Element // row tag
	Table          fr.Element // folded table columns
	TableNext      fr.Element
	H1, H1Next     fr.Element
	H2, H2Next     fr.Element

	Zp, ZpNext fr.Element
	Zl, ZlNext fr.Element

	PublicInput fr.Element // PI at the point
	L0, LLast   fr.Element // first and last Lagrange polynomials at the point
}

// EvaluateIdentity computes the master polynomial identity
//
//	N = gate + α·perm + α²·permL0 + α³·look + α⁴·lookL0 + α⁵·lookLast + α⁶·lookLastZ
//
// at the input point. N vanishes on the whole evaluation domain exactly when
// the gate equations, the copy-permutation recurrence and the lookup
// recurrence all hold. shifts are the key's coset non-residues, lastRoot the
// last element of the domain.
func EvaluateIdentity(in *IdentityInput, ch *Challenges, shifts [3]fr.Element,
	lastRoot fr.Element) fr.Element {

	one := fr.One()

	// main gate:
	// Qa·a + Qb·b + Qc·c + Qd·d + Qm·a·b + Qm2·c·d + Qconst + Qdnext·dNext
	var main, term fr.Element
	for j := 0; j < 4; j++ {
		term.Mul(&in.GateSetup[j], &in.Wire[j])
		main.Add(&main, &term)
	}
	term.Mul(&in.Wire[0], &in.Wire[1])
	term.Mul(&term, &in.GateSetup[vk.GateQm])
	main.Add(&main, &term)
	term.Mul(&in.Wire[2], &in.Wire[3])
	term.Mul(&term, &in.GateSetup[vk.GateQm2])
	main.Add(&main, &term)
	main.Add(&main, &in.GateSetup[vk.GateQconst])
	term.Mul(&in.GateSetup[vk.GateQdnext], &in.DNext)
	main.Add(&main, &term)

	// custom gate: a² − b
	var custom fr.Element
	custom.Square(&in.Wire[0])
	custom.Sub(&custom, &in.Wire[1])

	var gate fr.Element
	gate.Mul(&main, &in.GateSelectors[0])
	term.Mul(&custom, &in.GateSelectors[1])
	gate.Add(&gate, &term)
	gate.Add(&gate, &in.PublicInput)

	// permutation recurrence:
	// Zp·∏(w_j + β·k_j·x + γ) − ZpNext·∏(w_j + β·σ_j + γ)
	betaX := new(fr.Element).Mul(&ch.Beta, &in.X)
	num := fr.One()
	den := fr.One()
	for j := 0; j < 4; j++ {
		var shifted fr.Element
		if j == 0 {
			shifted.Set(betaX)
		} else {
			shifted.Mul(betaX, &shifts[j-1])
		}
		term.Add(&in.Wire[j], &shifted)
		term.Add(&term, &ch.Gamma)
		num.Mul(&num, &term)

		term.Mul(&ch.Beta, &in.Sigma[j])
		term.Add(&term, &in.Wire[j])
		term.Add(&term, &ch.Gamma)
		den.Mul(&den, &term)
	}
	var perm fr.Element
	perm.Mul(&in.Zp, &num)
	term.Mul(&in.ZpNext, &den)
	perm.Sub(&perm, &term)

	var permL0 fr.Element
	permL0.Sub(&in.Zp, &one)
	permL0.Mul(&permL0, &in.L0)

	// lookup query: f = Qlookup·(a + η·b + η²·c + η³·τ)
	var f fr.Element
	f.Mul(&ch.Eta, &in.TableType)
	f.Add(&f, &in.Wire[2])
	f.Mul(&f, &ch.Eta)
	f.Add(&f, &in.Wire[1])
	f.Mul(&f, &ch.Eta)
	f.Add(&f, &in.Wire[0])
	f.Mul(&f, &in.LookupSelector)

	// lookup recurrence (sorted-union form):
	// (x − ω^{n−1})·[ Zl·(1+β')·(γ'+f)·(γ'(1+β') + t + β'·tNext)
	//               − ZlNext·(γ'(1+β') + h1 + β'·h1Next)·(γ'(1+β') + h2 + β'·h2Next) ]
	var onePlusBetaL, gammaBeta fr.Element
	onePlusBetaL.Add(&one, &ch.BetaL)
	gammaBeta.Mul(&ch.GammaL, &onePlusBetaL)

	var lhs fr.Element
	lhs.Add(&ch.GammaL, &f)
	lhs.Mul(&lhs, &onePlusBetaL)
	lhs.Mul(&lhs, &in.Zl)
	term.Mul(&ch.BetaL, &in.TableNext)
	term.Add(&term, &in.Table)
	term.Add(&term, &gammaBeta)
	lhs.Mul(&lhs, &term)

	var rhs fr.Element
	term.Mul(&ch.BetaL, &in.H1Next)
	term.Add(&term, &in.H1)
	term.Add(&term, &gammaBeta)
	rhs.Mul(&in.ZlNext, &term)
	term.Mul(&ch.BetaL, &in.H2Next)
	term.Add(&term, &in.H2)
	term.Add(&term, &gammaBeta)
	rhs.Mul(&rhs, &term)

	var look fr.Element
	look.Sub(&lhs, &rhs)
	term.Sub(&in.X, &lastRoot)
	look.Mul(&look, &term)

	var lookL0 fr.Element
	lookL0.Sub(&in.Zl, &one)
	lookL0.Mul(&lookL0, &in.L0)

	var lookLast fr.Element
	lookLast.Sub(&in.H1, &in.H2Next)
	lookLast.Mul(&lookLast, &in.LLast)

	var lookLastZ fr.Element
	lookLastZ.Sub(&in.Zl, &one)
	lookLastZ.Mul(&lookLastZ, &in.LLast)

	// Horner fold with the gate separation challenge
	res := lookLastZ
	res.Mul(&res, &ch.Alpha)
	res.Add(&res, &lookLast)
	res.Mul(&res, &ch.Alpha)
	res.Add(&res, &lookL0)
	res.Mul(&res, &ch.Alpha)
	res.Add(&res, &look)
	res.Mul(&res, &ch.Alpha)
	res.Add(&res, &permL0)
	res.Mul(&res, &ch.Alpha)
	res.Add(&res, &perm)
	res.Mul(&res, &ch.Alpha)
	res.Add(&res, &gate)
	return res
}

// EvalLagrange returns L_i(x) = ω^i·(xⁿ − 1) / (n·(x − ω^i)) for a point x
// outside the domain.
func EvalLagrange(i uint64, x fr.Element, size uint64, sizeInv, omega fr.Element) fr.Element {
	var root fr.Element
	root.Exp(omega, new(big.Int).SetUint64(i))

	var zh fr.Element
	zh.Exp(x, new(big.Int).SetUint64(size))
	one := fr.One()
	zh.Sub(&zh, &one)

	var den fr.Element
	den.Sub(&x, &root)
	den.Inverse(&den)

	var res fr.Element
	res.Mul(&root, &sizeInv)
	res.Mul(&res, &zh)
	res.Mul(&res, &den)
	return res
}

// EvalPublicInputs returns PI(x) = Σ pi_i·L_i(x) using one batch inversion,
// for a point x outside the domain.
func EvalPublicInputs(publicInputs []fr.Element, x fr.Element, size uint64,
	sizeInv, omega fr.Element) fr.Element {

	var res fr.Element
	if len(publicInputs) == 0 {
		return res
	}

	// zn = (xⁿ − 1)/n
	var zn fr.Element
	zn.Exp(x, new(big.Int).SetUint64(size))
	one := fr.One()
	zn.Sub(&zn, &one)
	zn.Mul(&zn, &sizeInv)

	dens := make([]fr.Element, len(publicInputs))
	root := fr.One()
	roots := make([]fr.Element, len(publicInputs))
	for i := range dens {
		roots[i] = root
		dens[i].Sub(&x, &root)
		root.Mul(&root, &omega)
	}
	invs := fr.BatchInvert(dens)

	var term fr.Element
	for i := range publicInputs {
		term.Mul(&roots[i], &zn)
		term.Mul(&term, &invs[i])
		term.Mul(&term, &publicInputs[i])
		res.Add(&res, &term)
	}
	return res
}
