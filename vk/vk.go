// package vk defines the verification key layout for the proof system and a
// set-once store that makes a key available to verifiers after deployment.
package vk

import (
	"crypto/sha256"
	"encoding/binary"
	"fmt"
	"io"
	"math/big"

	"github.com/consensys/gnark-crypto/ecc/bn254"
	"github.com/consensys/gnark-crypto/ecc/bn254/fr"
	"github.com/consensys/gnark-crypto/ecc/bn254/kzg"
)

// Slot indices of the gate setup commitments.
const (
	GateQa = iota
	GateQb
	GateQc
	GateQd
	GateQm
	GateQm2
	GateQconst
	GateQdnext
)

// Slot indices of the gate selector commitments.
const (
	SelectorMain = iota
	SelectorCustom
)

// Key holds the circuit-specific parameters needed to verify a proof.
// The field order is part of the protocol: challenge derivation hashes the
// key in this exact order and verifiers depend on it bit-for-bit.
type Key struct {
	// evaluation domain
	Size           uint64
	SizeInv        fr.Element
	Generator      fr.Element // generator of the domain subgroup
	NbPublicInputs uint64

	// non-residues defining the wire cosets for the permutation argument;
	// the first coset shift is implicitly 1
	CosetShifts [3]fr.Element

	// Qa, Qb, Qc, Qd, Qm, Qm2, Qconst, Qdnext
	GateSetup [8]bn254.G1Affine
	// main gate selector, custom gate selector
	GateSelectors [2]bn254.G1Affine
	// sigma commitments of the copy-permutation argument
	Permutation [4]bn254.G1Affine

	LookupSelector  bn254.G1Affine
	LookupTable     [4]bn254.G1Affine
	LookupTableType bn254.G1Affine

	// KZG commitment key: G1 generator and the pair ([1]₂, [x]₂)
	Kzg kzg.VerifyingKey
}

// WriteTo serializes the key in its canonical field order.
func (k *Key) WriteTo(w io.Writer) (int64, error) {
	var written int64
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], k.Size)
	n, err := w.Write(buf[:])
	written += int64(n)
	if err != nil {
		return written, err
	}
	binary.BigEndian.PutUint64(buf[:], k.NbPublicInputs)
	n, err = w.Write(buf[:])
	written += int64(n)
	if err != nil {
		return written, err
	}

	enc := bn254.NewEncoder(w)
	toEncode := []interface{}{
		&k.SizeInv,
		&k.Generator,
		&k.CosetShifts[0], &k.CosetShifts[1], &k.CosetShifts[2],
	}
	for i := range k.GateSetup {
		toEncode = append(toEncode, &k.GateSetup[i])
	}
	for i := range k.GateSelectors {
		toEncode = append(toEncode, &k.GateSelectors[i])
	}
	for i := range k.Permutation {
		toEncode = append(toEncode, &k.Permutation[i])
	}
	toEncode = append(toEncode, &k.LookupSelector)
	for i := range k.LookupTable {
		toEncode = append(toEncode, &k.LookupTable[i])
	}
	toEncode = append(toEncode,
		&k.LookupTableType,
		&k.Kzg.G1,
		&k.Kzg.G2[0],
		&k.Kzg.G2[1],
	)
	for _, v := range toEncode {
		if err := enc.Encode(v); err != nil {
			return written + enc.BytesWritten(), err
		}
	}
	return written + enc.BytesWritten(), nil
}

// ReadFrom deserializes a key written with WriteTo.
func (k *Key) ReadFrom(r io.Reader) (int64, error) {
	var read int64
	var buf [8]byte
	n, err := io.ReadFull(r, buf[:])
	read += int64(n)
	if err != nil {
		return read, err
	}
	k.Size = binary.BigEndian.Uint64(buf[:])
	n, err = io.ReadFull(r, buf[:])
	read += int64(n)
	if err != nil {
		return read, err
	}
	k.NbPublicInputs = binary.BigEndian.Uint64(buf[:])

	dec := bn254.NewDecoder(r)
	toDecode := []interface{}{
		&k.SizeInv,
		&k.Generator,
		&k.CosetShifts[0], &k.CosetShifts[1], &k.CosetShifts[2],
	}
	for i := range k.GateSetup {
		toDecode = append(toDecode, &k.GateSetup[i])
	}
	for i := range k.GateSelectors {
		toDecode = append(toDecode, &k.GateSelectors[i])
	}
	for i := range k.Permutation {
		toDecode = append(toDecode, &k.Permutation[i])
	}
	toDecode = append(toDecode, &k.LookupSelector)
	for i := range k.LookupTable {
		toDecode = append(toDecode, &k.LookupTable[i])
	}
	toDecode = append(toDecode,
		&k.LookupTableType,
		&k.Kzg.G1,
		&k.Kzg.G2[0],
		&k.Kzg.G2[1],
	)
	for _, v := range toDecode {
		if err := dec.Decode(v); err != nil {
			return read + dec.BytesRead(), err
		}
	}
	return read + dec.BytesRead(), nil
}

// Digest returns a hash committing to the whole key. It seeds challenge
// derivation, so two different circuits never share a transcript.
func (k *Key) Digest() ([32]byte, error) {
	h := sha256.New()
	if _, err := k.WriteTo(h); err != nil {
		return [32]byte{}, err
	}
	var digest [32]byte
	copy(digest[:], h.Sum(nil))
	return digest, nil
}

// Validate checks the structural invariants of the key: every commitment on
// the curve and in the subgroup, a power-of-two domain with a matching
// generator, and sane arity fields.
func (k *Key) Validate() error {
	if k.Size == 0 || k.Size&(k.Size-1) != 0 {
		return fmt.Errorf("domain size %d is not a power of two", k.Size)
	}
	if k.NbPublicInputs > k.Size {
		return fmt.Errorf("public input count %d exceeds domain size %d",
			k.NbPublicInputs, k.Size)
	}
	var product fr.Element
	product.Mul(&k.SizeInv, new(fr.Element).SetUint64(k.Size))
	if !product.IsOne() {
		return fmt.Errorf("domain size inverse does not match domain size")
	}
	var check fr.Element
	check.Exp(k.Generator, new(big.Int).SetUint64(k.Size))
	if !check.IsOne() {
		return fmt.Errorf("generator is not a %d-th root of unity", k.Size)
	}
	check.Exp(k.Generator, new(big.Int).SetUint64(k.Size/2))
	if check.IsOne() {
		return fmt.Errorf("generator order divides %d", k.Size/2)
	}
	for i := range k.CosetShifts {
		if k.CosetShifts[i].IsZero() || k.CosetShifts[i].IsOne() {
			return fmt.Errorf("coset shift %d is trivial", i+1)
		}
	}

	points := []struct {
		name string
		p    *bn254.G1Affine
	}{
		{"lookup selector", &k.LookupSelector},
		{"lookup table type", &k.LookupTableType},
		{"kzg g1", &k.Kzg.G1},
	}
	for i := range k.GateSetup {
		points = append(points, struct {
			name string
			p    *bn254.G1Affine
		}{fmt.Sprintf("gate setup %d", i), &k.GateSetup[i]})
	}
	for i := range k.GateSelectors {
		points = append(points, struct {
			name string
			p    *bn254.G1Affine
		}{fmt.Sprintf("gate selector %d", i), &k.GateSelectors[i]})
	}
	for i := range k.Permutation {
		points = append(points, struct {
			name string
			p    *bn254.G1Affine
		}{fmt.Sprintf("permutation %d", i), &k.Permutation[i]})
	}
	for i := range k.LookupTable {
		points = append(points, struct {
			name string
			p    *bn254.G1Affine
		}{fmt.Sprintf("lookup table %d", i), &k.LookupTable[i]})
	}
	for _, pt := range points {
		if !pt.p.IsInSubGroup() {
			return fmt.Errorf("%s commitment is not in the curve subgroup", pt.name)
		}
	}
	if k.Kzg.G1.IsInfinity() {
		return fmt.Errorf("kzg g1 generator is the point at infinity")
	}
	for i := range k.Kzg.G2 {
		if !k.Kzg.G2[i].IsInSubGroup() {
			return fmt.Errorf("kzg g2 point %d is not in the curve subgroup", i)
		}
		// the point at infinity passes the subgroup check but makes the
		// pairing equation vacuously true, accepting any proof
		if k.Kzg.G2[i].IsInfinity() {
			return fmt.Errorf("kzg g2 point %d is the point at infinity", i)
		}
	}
	return nil
}
