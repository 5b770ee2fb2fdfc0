package testutils

import (
	"github.com/consensys/gnark-crypto/ecc/bn254/fr"
	"github.com/consensys/gnark-crypto/ecc/bn254/fr/fft"
)

// evalAt returns p(x) by Horner's rule, treating p as coefficients in
// ascending degree order.
func evalAt(p []fr.Element, x fr.Element) fr.Element {
	var res fr.Element
	for i := len(p) - 1; i >= 0; i-- {
		res.Mul(&res, &x)
		res.Add(&res, &p[i])
	}
	return res
}

// interpolate returns the coefficients of the unique polynomial of degree
// below len(values) taking values[i] at omega^i. It is the O(n²) inverse
// DFT, plenty for fixture-sized domains.
func interpolate(values []fr.Element, omega fr.Element) []fr.Element {
	n := len(values)
	var omegaInv, sizeInv fr.Element
	omegaInv.Inverse(&omega)
	sizeInv.SetUint64(uint64(n))
	sizeInv.Inverse(&sizeInv)

	coeffs := make([]fr.Element, n)
	x := fr.One()
	for j := 0; j < n; j++ {
		// coeff_j = (1/n) Σ_i values[i]·ω^{−ij}
		coeffs[j] = evalAt(values, x)
		coeffs[j].Mul(&coeffs[j], &sizeInv)
		x.Mul(&x, &omegaInv)
	}
	return coeffs
}

// interpolateCoset inverts evaluations taken on the multiplicative coset
// g·<μ> of the domain, where g is the coset shift and μ the domain
// generator.
func interpolateCoset(evals []fr.Element, domain *fft.Domain) []fr.Element {
	m := len(evals)
	var sizeInv fr.Element
	sizeInv.SetUint64(uint64(m))
	sizeInv.Inverse(&sizeInv)

	coeffs := make([]fr.Element, m)
	x := fr.One()
	shift := fr.One()
	for j := 0; j < m; j++ {
		// coeff_j = (1/m)·g^{−j} Σ_k evals[k]·μ^{−jk}
		coeffs[j] = evalAt(evals, x)
		coeffs[j].Mul(&coeffs[j], &sizeInv)
		coeffs[j].Mul(&coeffs[j], &shift)
		x.Mul(&x, &domain.GeneratorInv)
		shift.Mul(&shift, &domain.FrMultiplicativeGenInv)
	}
	return coeffs
}

// divideByLinear returns (p(X) − p(z)) / (X − z) by synthetic division.
func divideByLinear(p []fr.Element, z fr.Element) []fr.Element {
	n := len(p)
	q := make([]fr.Element, n-1)
	q[n-2] = p[n-1]
	var term fr.Element
	for i := n - 2; i >= 1; i-- {
		term.Mul(&z, &q[i])
		q[i-1].Add(&p[i], &term)
	}
	return q
}

// foldPolys returns Σ x^i·polys[i], the random linear combination used to
// batch openings.
func foldPolys(polys [][]fr.Element, x fr.Element) []fr.Element {
	maxLen := 0
	for _, p := range polys {
		if len(p) > maxLen {
			maxLen = len(p)
		}
	}
	res := make([]fr.Element, maxLen)
	pow := fr.One()
	var term fr.Element
	for _, p := range polys {
		for j := range p {
			term.Mul(&p[j], &pow)
			res[j].Add(&res[j], &term)
		}
		pow.Mul(&pow, &x)
	}
	return res
}
