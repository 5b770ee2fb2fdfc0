package testutils

import (
	"strings"
	"testing"

	"github.com/consensys/gnark-crypto/ecc/bn254/fr"
	"github.com/consensys/gnark-crypto/ecc/bn254/fr/fft"

	"github.com/giuliop/plonkverify/setup"
)

func TestInterpolateRoundTrip(t *testing.T) {
	domain := fft.NewDomain(8)
	values := felts(3, 1, 4, 1, 5, 9, 2, 6)
	coeffs := interpolate(values, domain.Generator)

	x := fr.One()
	for i := range values {
		got := evalAt(coeffs, x)
		if !got.Equal(&values[i]) {
			t.Fatalf("interpolation wrong at root %d", i)
		}
		x.Mul(&x, &domain.Generator)
	}
}

func TestInterpolateCosetRoundTrip(t *testing.T) {
	domain := fft.NewDomain(8)
	coeffs := felts(7, 0, 2, 9, 1, 8, 2, 8)

	evals := make([]fr.Element, 8)
	x := domain.FrMultiplicativeGen
	for i := range evals {
		evals[i] = evalAt(coeffs, x)
		x.Mul(&x, &domain.Generator)
	}

	back := interpolateCoset(evals, domain)
	for i := range coeffs {
		if !back[i].Equal(&coeffs[i]) {
			t.Fatalf("coset interpolation wrong at coefficient %d", i)
		}
	}
}

func TestDivideByLinear(t *testing.T) {
	// p(X) = (X − 2)(X + 3) + 5 = X² + X − 6 + 5
	p := felts(-1, 1, 1)
	var z fr.Element
	z.SetUint64(2)

	q := divideByLinear(p, z)
	// q must satisfy p(X) − p(2) = q(X)(X − 2) at an arbitrary point
	var x, lhs, rhs, pz fr.Element
	x.SetUint64(11)
	pz = evalAt(p, z)
	lhs = evalAt(p, x)
	lhs.Sub(&lhs, &pz)
	rhs = evalAt(q, x)
	var lin fr.Element
	lin.Sub(&x, &z)
	rhs.Mul(&rhs, &lin)
	if !lhs.Equal(&rhs) {
		t.Fatalf("synthetic division is wrong")
	}
}

func TestProveRejectsUnsatisfiedWitness(t *testing.T) {
	c := Fixture()
	srs, err := setup.Run(c.Size, setup.TestOnly, "")
	if err != nil {
		t.Fatalf("failed to create test SRS: %v", err)
	}
	key, err := BuildKey(c, srs)
	if err != nil {
		t.Fatalf("failed to build key: %v", err)
	}

	// break the addition gate on row 2
	one := fr.One()
	c.Wires[0][2].Add(&c.Wires[0][2], &one)

	_, err = Prove(c, key, srs)
	if err == nil {
		t.Fatalf("expected proving to fail on an unsatisfied witness")
	}
	if !strings.Contains(err.Error(), "not satisfied") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestSortedUnionRejectsForeignQuery(t *testing.T) {
	f := felts(42)
	tab := felts(0, 1, 2, 3)
	if _, err := sortedUnion(f, tab); err == nil {
		t.Fatalf("expected rejection of a query outside the table")
	}
}
