// Package testutils provides a small fixture circuit and a naive reference
// prover for it. The prover exists only to produce proofs for verifier
// tests; it trades every optimization (FFTs, blinding, parallelism) for
// being short enough to audit by hand.
package testutils

import (
	"fmt"

	"github.com/consensys/gnark-crypto/ecc/bn254"
	"github.com/consensys/gnark-crypto/ecc/bn254/fr"
	"github.com/consensys/gnark-crypto/ecc/bn254/fr/fft"
	"github.com/consensys/gnark-crypto/ecc/bn254/kzg"

	"github.com/giuliop/plonkverify/vk"
)

// Circuit is a fully assigned constraint system: selector columns, the
// permutation, the lookup table, and a satisfying witness.
type Circuit struct {
	Size         uint64
	PublicInputs []fr.Element

	Wires [4][]fr.Element // a, b, c, d columns

	GateSetup     [8][]fr.Element // Qa, Qb, Qc, Qd, Qm, Qm2, Qconst, Qdnext
	GateSelectors [2][]fr.Element // main, custom
	Sigma         [4][]fr.Element // permutation labels per wire column

	LookupSelector []fr.Element
	TableType      []fr.Element    // per-row query tag
	Table          [4][]fr.Element // table columns, last one the tag column
}

func felts(vals ...int64) []fr.Element {
	out := make([]fr.Element, len(vals))
	for i, v := range vals {
		out[i].SetInt64(v)
	}
	return out
}

// cosetShifts are the non-residues labelling the four wire columns in the
// permutation argument; the first column uses the trivial shift 1.
func cosetShifts() [3]fr.Element {
	var shifts [3]fr.Element
	shifts[0].SetUint64(5)
	shifts[1].SetUint64(7)
	shifts[2].SetUint64(10)
	return shifts
}

// Fixture returns an 8-row circuit exercising every gate type:
//
//	rows 0,1  public input rows binding 9 and 2
//	row 2     addition 2 + 3 + 4 = 9
//	row 3     multiplication 3·3 = 9, plus the next row's d wire through
//	          the shifted selector
//	rows 4,5  lookups of (2,4) and (3,9) in the square table
//	row 6     custom gate 3² = 9
//	row 7     empty
//
// Copy constraints tie the shared values across rows, so the witness cannot
// satisfy one gate without satisfying the others.
func Fixture() *Circuit {
	const n = 8
	c := &Circuit{
		Size:         n,
		PublicInputs: felts(9, 2),
		Wires: [4][]fr.Element{
			felts(9, 2, 2, 3, 2, 3, 3, 0),
			felts(0, 0, 3, 3, 4, 9, 9, 0),
			felts(0, 0, 9, 9, 0, 0, 0, 0),
			felts(0, 0, 4, 0, 0, 0, 0, 0),
		},
		GateSetup: [8][]fr.Element{
			felts(-1, -1, 1, 0, 0, 0, 0, 0), // Qa
			felts(0, 0, 1, 0, 0, 0, 0, 0),   // Qb
			felts(0, 0, -1, -1, 0, 0, 0, 0), // Qc
			felts(0, 0, 1, 0, 0, 0, 0, 0),   // Qd
			felts(0, 0, 0, 1, 0, 0, 0, 0),   // Qm
			felts(0, 0, 0, 0, 0, 0, 0, 0),   // Qm2
			felts(0, 0, 0, 0, 0, 0, 0, 0),   // Qconst
			felts(0, 0, 0, 1, 0, 0, 0, 0),   // Qdnext
		},
		GateSelectors: [2][]fr.Element{
			felts(1, 1, 1, 1, 0, 0, 0, 0),
			felts(0, 0, 0, 0, 0, 0, 1, 0),
		},
		LookupSelector: felts(0, 0, 0, 0, 1, 1, 0, 0),
		TableType:      felts(0, 0, 0, 0, 1, 1, 0, 0),
		Table: [4][]fr.Element{
			felts(0, 1, 2, 3, 0, 0, 0, 0),
			felts(0, 1, 4, 9, 0, 0, 0, 0),
			felts(0, 0, 0, 0, 0, 0, 0, 0),
			felts(0, 1, 1, 1, 0, 0, 0, 0),
		},
	}
	c.Sigma = buildSigma(n, [][2][2]int{
		// 2-cycles of (column, row) positions holding equal witness values
		{{0, 0}, {2, 2}}, // the public 9 and the addition result
		{{0, 1}, {0, 4}}, // the public 2 and the first lookup query
		{{0, 3}, {1, 3}}, // both factors of 3·3
		{{2, 3}, {1, 6}}, // the product 9 and the custom gate output
		{{0, 5}, {0, 6}}, // the second lookup query and the squared 3
	})
	return c
}

// AlternateFixture returns the same circuit with a different lookup tag,
// so it yields a different verification key and a disjoint transcript.
func AlternateFixture() *Circuit {
	c := Fixture()
	c.TableType = felts(0, 0, 0, 0, 2, 2, 0, 0)
	c.Table[3] = felts(0, 2, 2, 2, 0, 0, 0, 0)
	return c
}

// buildSigma turns position cycles into the per-column permutation label
// vectors. Position (j, i) carries the identity label k_j·ω^i; each 2-cycle
// swaps the labels of its endpoints.
func buildSigma(n int, cycles [][2][2]int) [4][]fr.Element {
	domain := fft.NewDomain(uint64(n))
	shifts := cosetShifts()

	var ids [4][]fr.Element
	for j := 0; j < 4; j++ {
		ids[j] = make([]fr.Element, n)
		root := fr.One()
		for i := 0; i < n; i++ {
			if j == 0 {
				ids[j][i] = root
			} else {
				ids[j][i].Mul(&root, &shifts[j-1])
			}
			root.Mul(&root, &domain.Generator)
		}
	}

	var sigma [4][]fr.Element
	for j := 0; j < 4; j++ {
		sigma[j] = make([]fr.Element, n)
		copy(sigma[j], ids[j])
	}
	for _, cy := range cycles {
		j1, i1 := cy[0][0], cy[0][1]
		j2, i2 := cy[1][0], cy[1][1]
		sigma[j1][i1] = ids[j2][i2]
		sigma[j2][i2] = ids[j1][i1]
	}
	return sigma
}

// BuildKey commits every setup column of the circuit and assembles its
// verification key.
func BuildKey(c *Circuit, srs *kzg.SRS) (*vk.Key, error) {
	domain := fft.NewDomain(c.Size)

	key := &vk.Key{
		Size:           c.Size,
		SizeInv:        domain.CardinalityInv,
		Generator:      domain.Generator,
		NbPublicInputs: uint64(len(c.PublicInputs)),
		CosetShifts:    cosetShifts(),
		Kzg:            srs.Vk,
	}

	commit := func(column []fr.Element) (bn254.G1Affine, error) {
		return kzg.Commit(interpolate(column, domain.Generator), srs.Pk)
	}

	var err error
	for i := range c.GateSetup {
		if key.GateSetup[i], err = commit(c.GateSetup[i]); err != nil {
			return nil, fmt.Errorf("error committing gate setup %d: %v", i, err)
		}
	}
	for i := range c.GateSelectors {
		if key.GateSelectors[i], err = commit(c.GateSelectors[i]); err != nil {
			return nil, fmt.Errorf("error committing gate selector %d: %v", i, err)
		}
	}
	for i := range c.Sigma {
		if key.Permutation[i], err = commit(c.Sigma[i]); err != nil {
			return nil, fmt.Errorf("error committing permutation %d: %v", i, err)
		}
	}
	if key.LookupSelector, err = commit(c.LookupSelector); err != nil {
		return nil, fmt.Errorf("error committing lookup selector: %v", err)
	}
	for i := range c.Table {
		if key.LookupTable[i], err = commit(c.Table[i]); err != nil {
			return nil, fmt.Errorf("error committing table column %d: %v", i, err)
		}
	}
	if key.LookupTableType, err = commit(c.TableType); err != nil {
		return nil, fmt.Errorf("error committing table type: %v", err)
	}
	return key, nil
}
