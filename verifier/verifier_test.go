package verifier_test

import (
	"errors"
	"testing"

	"github.com/consensys/gnark-crypto/ecc/bn254/fr"
	"github.com/consensys/gnark-crypto/ecc/bn254/kzg"

	"github.com/giuliop/plonkverify/setup"
	"github.com/giuliop/plonkverify/testutils"
	"github.com/giuliop/plonkverify/verifier"
	"github.com/giuliop/plonkverify/vk"
)

type fixture struct {
	circuit *testutils.Circuit
	srs     *kzg.SRS
	key     *vk.Key
	proof   *verifier.Proof
}

func buildFixture(t *testing.T) *fixture {
	t.Helper()
	c := testutils.Fixture()
	srs, err := setup.Run(c.Size, setup.TestOnly, "")
	if err != nil {
		t.Fatalf("failed to create test SRS: %v", err)
	}
	key, err := testutils.BuildKey(c, srs)
	if err != nil {
		t.Fatalf("failed to build verification key: %v", err)
	}
	if err := key.Validate(); err != nil {
		t.Fatalf("fixture key does not validate: %v", err)
	}
	proof, err := testutils.Prove(c, key, srs)
	if err != nil {
		t.Fatalf("failed to prove fixture circuit: %v", err)
	}
	return &fixture{circuit: c, srs: srs, key: key, proof: proof}
}

func TestVerifyFixtureProof(t *testing.T) {
	f := buildFixture(t)
	if err := verifier.Verify(f.key, f.circuit.PublicInputs, f.proof); err != nil {
		t.Fatalf("valid proof rejected: %v", err)
	}
}

func TestVerifyNilKey(t *testing.T) {
	f := buildFixture(t)
	err := verifier.Verify(nil, f.circuit.PublicInputs, f.proof)
	if !errors.Is(err, vk.ErrUninitialized) {
		t.Fatalf("expected ErrUninitialized, got %v", err)
	}
}

func TestRejectWrongPublicInputCount(t *testing.T) {
	f := buildFixture(t)
	err := verifier.Verify(f.key, f.circuit.PublicInputs[:1], f.proof)
	if !errors.Is(err, verifier.ErrMalformedPublicInput) {
		t.Fatalf("expected ErrMalformedPublicInput, got %v", err)
	}
}

func TestRejectSwappedPublicInputs(t *testing.T) {
	f := buildFixture(t)
	swapped := []fr.Element{f.circuit.PublicInputs[1], f.circuit.PublicInputs[0]}
	err := verifier.Verify(f.key, swapped, f.proof)
	if !errors.Is(err, verifier.ErrInvalidProof) {
		t.Fatalf("expected ErrInvalidProof, got %v", err)
	}
}

func TestRejectTamperedEvaluation(t *testing.T) {
	f := buildFixture(t)
	tampered := *f.proof
	one := fr.One()
	tampered.Evals.Wire[0].Add(&tampered.Evals.Wire[0], &one)
	err := verifier.Verify(f.key, f.circuit.PublicInputs, &tampered)
	if !errors.Is(err, verifier.ErrInvalidProof) {
		t.Fatalf("expected ErrInvalidProof, got %v", err)
	}
}

func TestRejectTamperedCommitment(t *testing.T) {
	f := buildFixture(t)
	tampered := *f.proof
	tampered.Wires[0] = f.key.Kzg.G1
	err := verifier.Verify(f.key, f.circuit.PublicInputs, &tampered)
	if !errors.Is(err, verifier.ErrInvalidProof) {
		t.Fatalf("expected ErrInvalidProof, got %v", err)
	}
}

func TestRejectTamperedOpeningProof(t *testing.T) {
	f := buildFixture(t)
	tampered := *f.proof
	tampered.WZeta, tampered.WZetaOmega = tampered.WZetaOmega, tampered.WZeta
	err := verifier.Verify(f.key, f.circuit.PublicInputs, &tampered)
	if !errors.Is(err, verifier.ErrInvalidProof) {
		t.Fatalf("expected ErrInvalidProof, got %v", err)
	}
}

// A proof made for one circuit must not verify under the key of another,
// even when the circuits differ only in their lookup tag.
func TestRejectForeignKey(t *testing.T) {
	f := buildFixture(t)
	other := testutils.AlternateFixture()
	otherKey, err := testutils.BuildKey(other, f.srs)
	if err != nil {
		t.Fatalf("failed to build alternate key: %v", err)
	}
	err = verifier.Verify(otherKey, f.circuit.PublicInputs, f.proof)
	if !errors.Is(err, verifier.ErrInvalidProof) {
		t.Fatalf("expected ErrInvalidProof, got %v", err)
	}
}

func TestProofSerializationRoundTrip(t *testing.T) {
	f := buildFixture(t)
	blob, err := f.proof.MarshalBinary()
	if err != nil {
		t.Fatalf("failed to marshal proof: %v", err)
	}
	if len(blob) != verifier.ProofSize {
		t.Fatalf("expected %d proof bytes, got %d", verifier.ProofSize, len(blob))
	}
	var decoded verifier.Proof
	if err := decoded.UnmarshalBinary(blob); err != nil {
		t.Fatalf("failed to unmarshal proof: %v", err)
	}
	if err := verifier.Verify(f.key, f.circuit.PublicInputs, &decoded); err != nil {
		t.Fatalf("decoded proof rejected: %v", err)
	}
}

func TestRejectTruncatedProof(t *testing.T) {
	f := buildFixture(t)
	blob, err := f.proof.MarshalBinary()
	if err != nil {
		t.Fatalf("failed to marshal proof: %v", err)
	}
	var decoded verifier.Proof
	err = decoded.UnmarshalBinary(blob[:len(blob)-1])
	if !errors.Is(err, verifier.ErrMalformedProof) {
		t.Fatalf("expected ErrMalformedProof, got %v", err)
	}
}

func TestRejectZeroedEvaluationBytes(t *testing.T) {
	f := buildFixture(t)
	blob, err := f.proof.MarshalBinary()
	if err != nil {
		t.Fatalf("failed to marshal proof: %v", err)
	}
	// first claimed evaluation sits right after the twelve commitments
	offset := 12 * 64
	for i := 0; i < fr.Bytes; i++ {
		blob[offset+i] = 0
	}
	var decoded verifier.Proof
	if err := decoded.UnmarshalBinary(blob); err != nil {
		t.Fatalf("zeroed scalar should still parse: %v", err)
	}
	err = verifier.Verify(f.key, f.circuit.PublicInputs, &decoded)
	if !errors.Is(err, verifier.ErrInvalidProof) {
		t.Fatalf("expected ErrInvalidProof, got %v", err)
	}
}

func TestDeriveChallengesDeterministic(t *testing.T) {
	f := buildFixture(t)
	first, err := verifier.DeriveChallenges(f.key, f.circuit.PublicInputs, f.proof)
	if err != nil {
		t.Fatalf("failed to derive challenges: %v", err)
	}
	second, err := verifier.DeriveChallenges(f.key, f.circuit.PublicInputs, f.proof)
	if err != nil {
		t.Fatalf("failed to derive challenges: %v", err)
	}
	if *first != *second {
		t.Fatalf("challenge derivation is not deterministic")
	}
}

// Different public inputs must change the whole challenge chain, starting
// from the first one.
func TestChallengesBindPublicInputs(t *testing.T) {
	f := buildFixture(t)
	base, err := verifier.DeriveChallenges(f.key, f.circuit.PublicInputs, f.proof)
	if err != nil {
		t.Fatalf("failed to derive challenges: %v", err)
	}
	swapped := []fr.Element{f.circuit.PublicInputs[1], f.circuit.PublicInputs[0]}
	other, err := verifier.DeriveChallenges(f.key, swapped, f.proof)
	if err != nil {
		t.Fatalf("failed to derive challenges: %v", err)
	}
	if base.Eta == other.Eta {
		t.Fatalf("first challenge does not bind the public inputs")
	}
}
