package verifier

import (
	"crypto/sha256"
	"fmt"

	"github.com/consensys/gnark-crypto/ecc/bn254"
	"github.com/consensys/gnark-crypto/ecc/bn254/fr"
	fiatshamir "github.com/consensys/gnark-crypto/fiat-shamir"

	"github.com/giuliop/plonkverify/vk"
)

// Challenges is the full set of Fiat-Shamir challenges of one verification.
// Identical (key, public inputs, proof) triples always derive identical
// challenges; there is no randomness anywhere in the derivation.
type Challenges struct {
	Eta           fr.Element // lookup column combiner
	Beta, Gamma   fr.Element // permutation argument
	BetaL, GammaL fr.Element // lookup argument
	Alpha         fr.Element // gate separation
	Zeta          fr.Element // evaluation point
	V             fr.Element // opening batch
	U             fr.Element // multi-point batch
}

const (
	challengeEta    = "eta"
	challengeBeta   = "beta"
	challengeGamma  = "gamma"
	challengeBetaL  = "betal"
	challengeGammaL = "gammal"
	challengeAlpha  = "alpha"
	challengeZeta   = "zeta"
	challengeV      = "v"
	challengeU      = "u"
)

// Transcript derives the protocol challenges in their fixed absorption order.
// The prover and the verifier both run the same staged sequence, so the
// derivation cannot drift between the two sides.
type Transcript struct {
	inner fiatshamir.Transcript
}

// NewTranscript seeds a transcript with the key digest and the public inputs,
// the first data absorbed before any commitment.
func NewTranscript(keyDigest [32]byte, publicInputs []fr.Element) (*Transcript, error) {
	t := &Transcript{
		inner: fiatshamir.NewTranscript(sha256.New(),
			challengeEta, challengeBeta, challengeGamma,
			challengeBetaL, challengeGammaL,
			challengeAlpha, challengeZeta, challengeV, challengeU),
	}
	if err := t.inner.Bind(challengeEta, keyDigest[:]); err != nil {
		return nil, err
	}
	for i := range publicInputs {
		b := publicInputs[i].Bytes()
		if err := t.inner.Bind(challengeEta, b[:]); err != nil {
			return nil, err
		}
	}
	return t, nil
}

func (t *Transcript) bindPoints(id string, points ...*bn254.G1Affine) error {
	for _, p := range points {
		raw := p.RawBytes()
		if err := t.inner.Bind(id, raw[:]); err != nil {
			return err
		}
	}
	return nil
}

func (t *Transcript) squeeze(id string) (fr.Element, error) {
	var challenge fr.Element
	b, err := t.inner.ComputeChallenge(id)
	if err != nil {
		return challenge, err
	}
	challenge.SetBytes(b) // reduction into the scalar field is intended here
	return challenge, nil
}

// WireChallenge absorbs the wire commitments and squeezes the lookup column
// combiner.
func (t *Transcript) WireChallenge(wires [4]bn254.G1Affine) (fr.Element, error) {
	if err := t.bindPoints(challengeEta,
		&wires[0], &wires[1], &wires[2], &wires[3]); err != nil {
		return fr.Element{}, err
	}
	return t.squeeze(challengeEta)
}

// PermutationChallenges absorbs the sorted-union half commitments and
// squeezes the permutation challenges.
func (t *Transcript) PermutationChallenges(h1, h2 bn254.G1Affine) (beta, gamma fr.Element, err error) {
	if err = t.bindPoints(challengeBeta, &h1, &h2); err != nil {
		return
	}
	if beta, err = t.squeeze(challengeBeta); err != nil {
		return
	}
	gamma, err = t.squeeze(challengeGamma)
	return
}

// LookupChallenges absorbs the permutation grand product commitment and
// squeezes the lookup argument challenges.
func (t *Transcript) LookupChallenges(zp bn254.G1Affine) (betaL, gammaL fr.Element, err error) {
	if err = t.bindPoints(challengeBetaL, &zp); err != nil {
		return
	}
	if betaL, err = t.squeeze(challengeBetaL); err != nil {
		return
	}
	gammaL, err = t.squeeze(challengeGammaL)
	return
}

// GateChallenge absorbs the lookup grand product commitment and squeezes the
// gate separation challenge.
func (t *Transcript) GateChallenge(zl bn254.G1Affine) (fr.Element, error) {
	if err := t.bindPoints(challengeAlpha, &zl); err != nil {
		return fr.Element{}, err
	}
	return t.squeeze(challengeAlpha)
}

// EvaluationChallenge absorbs the quotient commitments and squeezes the
// evaluation point.
func (t *Transcript) EvaluationChallenge(quotient [4]bn254.G1Affine) (fr.Element, error) {
	if err := t.bindPoints(challengeZeta,
		&quotient[0], &quotient[1], &quotient[2], &quotient[3]); err != nil {
		return fr.Element{}, err
	}
	return t.squeeze(challengeZeta)
}

// BatchChallenge absorbs every claimed evaluation and squeezes the opening
// batch challenge.
func (t *Transcript) BatchChallenge(evals *Evaluations) (fr.Element, error) {
	if err := t.inner.Bind(challengeV, evals.bytes()); err != nil {
		return fr.Element{}, err
	}
	return t.squeeze(challengeV)
}

// FoldChallenge absorbs the two opening proofs and squeezes the multi-point
// batch challenge.
func (t *Transcript) FoldChallenge(wZeta, wZetaOmega bn254.G1Affine) (fr.Element, error) {
	if err := t.bindPoints(challengeU, &wZeta, &wZetaOmega); err != nil {
		return fr.Element{}, err
	}
	return t.squeeze(challengeU)
}

// DeriveChallenges replays the whole transcript against a finished proof.
// It is a pure function of its arguments.
func DeriveChallenges(key *vk.Key, publicInputs []fr.Element, proof *Proof) (*Challenges, error) {
	digest, err := key.Digest()
	if err != nil {
		return nil, fmt.Errorf("error hashing verification key: %v", err)
	}
	t, err := NewTranscript(digest, publicInputs)
	if err != nil {
		return nil, err
	}
	var ch Challenges
	if ch.Eta, err = t.WireChallenge(proof.Wires); err != nil {
		return nil, err
	}
	if ch.Beta, ch.Gamma, err = t.PermutationChallenges(proof.H1, proof.H2); err != nil {
		return nil, err
	}
	if ch.BetaL, ch.GammaL, err = t.LookupChallenges(proof.Zp); err != nil {
		return nil, err
	}
	if ch.Alpha, err = t.GateChallenge(proof.Zl); err != nil {
		return nil, err
	}
	if ch.Zeta, err = t.EvaluationChallenge(proof.Quotient); err != nil {
		return nil, err
	}
	if ch.V, err = t.BatchChallenge(&proof.Evals); err != nil {
		return nil, err
	}
	if ch.U, err = t.FoldChallenge(proof.WZeta, proof.WZetaOmega); err != nil {
		return nil, err
	}
	return &ch, nil
}
