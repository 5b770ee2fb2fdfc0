package plonkverify_test

import (
	"context"
	"errors"
	"testing"

	"github.com/consensys/gnark-crypto/ecc/bn254/fr"

	"github.com/giuliop/plonkverify"
	"github.com/giuliop/plonkverify/setup"
	"github.com/giuliop/plonkverify/testutils"
	"github.com/giuliop/plonkverify/verifier"
	"github.com/giuliop/plonkverify/vk"
)

func buildVerifier(t *testing.T, opts ...plonkverify.Option) (
	*plonkverify.Verifier, *testutils.Circuit, *verifier.Proof) {

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
	proof, err := testutils.Prove(c, key, srs)
	if err != nil {
		t.Fatalf("failed to prove fixture circuit: %v", err)
	}

	store := vk.NewStore()
	if err := store.Load(vk.StaticLoader{Key: key}); err != nil {
		t.Fatalf("failed to load key store: %v", err)
	}
	v, err := plonkverify.New(store, opts...)
	if err != nil {
		t.Fatalf("failed to create verifier: %v", err)
	}
	return v, c, proof
}

func TestVerifierAccept(t *testing.T) {
	v, c, proof := buildVerifier(t)
	if err := v.Verify(c.PublicInputs, proof); err != nil {
		t.Fatalf("valid proof rejected: %v", err)
	}
}

func TestVerifierUninitializedStore(t *testing.T) {
	v, err := plonkverify.New(vk.NewStore())
	if err != nil {
		t.Fatalf("failed to create verifier: %v", err)
	}
	err = v.Verify(nil, &verifier.Proof{})
	if !errors.Is(err, plonkverify.ErrUninitialized) {
		t.Fatalf("expected ErrUninitialized, got %v", err)
	}
}

// With a cache, a repeated submission must settle to the same outcome, for
// accepted and rejected proofs alike.
func TestVerifierCachedOutcomes(t *testing.T) {
	v, c, proof := buildVerifier(t, plonkverify.WithCache(8))

	for i := 0; i < 2; i++ {
		if err := v.Verify(c.PublicInputs, proof); err != nil {
			t.Fatalf("valid proof rejected on pass %d: %v", i, err)
		}
	}

	tampered := *proof
	one := fr.One()
	tampered.Evals.Wire[0].Add(&tampered.Evals.Wire[0], &one)
	for i := 0; i < 2; i++ {
		err := v.Verify(c.PublicInputs, &tampered)
		if !errors.Is(err, plonkverify.ErrInvalidProof) {
			t.Fatalf("expected ErrInvalidProof on pass %d, got %v", i, err)
		}
	}
}

// A nil proof must be rejected as malformed on the cached path too, not
// only when the cache is disabled.
func TestVerifierNilProof(t *testing.T) {
	v, c, _ := buildVerifier(t, plonkverify.WithCache(8))
	err := v.Verify(c.PublicInputs, nil)
	if !errors.Is(err, plonkverify.ErrMalformedProof) {
		t.Fatalf("expected ErrMalformedProof, got %v", err)
	}

	results, err := v.BatchVerify(context.Background(), []plonkverify.Job{
		{PublicInputs: c.PublicInputs, Proof: nil},
	})
	if err != nil {
		t.Fatalf("batch failed: %v", err)
	}
	if !errors.Is(results[0], plonkverify.ErrMalformedProof) {
		t.Fatalf("expected ErrMalformedProof for nil-proof job, got %v", results[0])
	}
}

func TestVerifyBytes(t *testing.T) {
	v, c, proof := buildVerifier(t)
	blob, err := proof.MarshalBinary()
	if err != nil {
		t.Fatalf("failed to marshal proof: %v", err)
	}
	inputs := make([][]byte, len(c.PublicInputs))
	for i := range c.PublicInputs {
		b := c.PublicInputs[i].Bytes()
		inputs[i] = b[:]
	}
	if err := v.VerifyBytes(inputs, blob); err != nil {
		t.Fatalf("valid proof rejected: %v", err)
	}

	if err := v.VerifyBytes(inputs, blob[:10]); !errors.Is(err, plonkverify.ErrMalformedProof) {
		t.Fatalf("expected ErrMalformedProof, got %v", err)
	}

	err = v.VerifyBytes([][]byte{{0xff}}, blob)
	if !errors.Is(err, plonkverify.ErrMalformedPublicInput) {
		t.Fatalf("expected ErrMalformedPublicInput, got %v", err)
	}
}

func TestBatchVerify(t *testing.T) {
	v, c, proof := buildVerifier(t, plonkverify.WithConcurrency(2))

	tampered := *proof
	one := fr.One()
	tampered.Evals.Zl.Add(&tampered.Evals.Zl, &one)

	results, err := v.BatchVerify(context.Background(), []plonkverify.Job{
		{PublicInputs: c.PublicInputs, Proof: proof},
		{PublicInputs: c.PublicInputs, Proof: &tampered},
		{PublicInputs: c.PublicInputs, Proof: proof},
	})
	if err != nil {
		t.Fatalf("batch failed: %v", err)
	}
	if results[0] != nil || results[2] != nil {
		t.Fatalf("valid proofs rejected in batch: %v, %v", results[0], results[2])
	}
	if !errors.Is(results[1], plonkverify.ErrInvalidProof) {
		t.Fatalf("expected ErrInvalidProof for tampered job, got %v", results[1])
	}
}

func TestBatchVerifyCancelled(t *testing.T) {
	v, c, proof := buildVerifier(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := v.BatchVerify(ctx, []plonkverify.Job{
		{PublicInputs: c.PublicInputs, Proof: proof},
	})
	if !errors.Is(err, plonkverify.ErrResourceExhausted) {
		t.Fatalf("expected ErrResourceExhausted, got %v", err)
	}
}
