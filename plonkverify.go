// Package plonkverify verifies Plonk proofs with lookup support over BN254.
//
// The verifier package holds the stateless cryptographic core; this package
// wraps it with key management, result caching and batch verification for
// long-running services that check many proofs against one circuit.
package plonkverify

import (
	"context"
	"crypto/sha256"
	"runtime"

	"github.com/consensys/gnark-crypto/ecc/bn254/fr"
	lru "github.com/hashicorp/golang-lru"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/giuliop/plonkverify/verifier"
	"github.com/giuliop/plonkverify/vk"
)

// Sentinel errors, re-exported so callers need only this package.
var (
	ErrUninitialized        = vk.ErrUninitialized
	ErrMalformedPublicInput = verifier.ErrMalformedPublicInput
	ErrMalformedProof       = verifier.ErrMalformedProof
	ErrInvalidProof         = verifier.ErrInvalidProof

	// ErrResourceExhausted reports that a batch was abandoned because its
	// context expired or was cancelled before every job finished.
	ErrResourceExhausted = errors.New("verification aborted: resources exhausted")
)

// ProofSize is the length in bytes of a serialized proof.
const ProofSize = verifier.ProofSize

// KeyProvider supplies the active verification key. vk.Store implements it.
type KeyProvider interface {
	Get() (*vk.Key, error)
}

// A Verifier checks proofs against the key held by its KeyProvider. It is
// safe for concurrent use.
type Verifier struct {
	keys        KeyProvider
	cache       *lru.Cache
	log         zerolog.Logger
	concurrency int
}

// Option configures a Verifier.
type Option func(*Verifier) error

// WithCache memoizes verification outcomes for up to size distinct
// (key, inputs, proof) triples, so a proof re-submitted verbatim is settled
// without pairing work.
func WithCache(size int) Option {
	return func(v *Verifier) error {
		c, err := lru.New(size)
		if err != nil {
			return errors.Wrap(err, "creating proof cache")
		}
		v.cache = c
		return nil
	}
}

// WithLogger routes the verifier's structured log events to log.
func WithLogger(log zerolog.Logger) Option {
	return func(v *Verifier) error {
		v.log = log
		return nil
	}
}

// WithConcurrency caps the number of proofs BatchVerify checks in parallel.
// The default is the number of CPUs.
func WithConcurrency(n int) Option {
	return func(v *Verifier) error {
		if n < 1 {
			return errors.Errorf("concurrency must be positive, got %d", n)
		}
		v.concurrency = n
		return nil
	}
}

// New returns a Verifier reading its key from keys.
func New(keys KeyProvider, opts ...Option) (*Verifier, error) {
	v := &Verifier{
		keys:        keys,
		log:         zerolog.Nop(),
		concurrency: runtime.NumCPU(),
	}
	for _, opt := range opts {
		if err := opt(v); err != nil {
			return nil, err
		}
	}
	return v, nil
}

// Verify checks one proof. It returns nil on acceptance and one of the
// sentinel errors on rejection.
func (v *Verifier) Verify(publicInputs []fr.Element, proof *verifier.Proof) error {
	key, err := v.keys.Get()
	if err != nil {
		return err
	}
	if proof == nil {
		return errors.Wrap(ErrMalformedProof, "missing proof")
	}

	var cacheKey [32]byte
	cacheable := false
	if v.cache != nil {
		cacheKey, err = resultKey(key, publicInputs, proof)
		cacheable = err == nil
		if cacheable {
			if cached, ok := v.cache.Get(cacheKey); ok {
				v.log.Debug().Msg("proof result served from cache")
				if cached == nil {
					return nil
				}
				return cached.(error)
			}
		}
	}

	res := verifier.Verify(key, publicInputs, proof)
	if cacheable {
		// Only settled outcomes are worth remembering; malformed inputs are
		// cheap to reject again.
		if res == nil || errors.Is(res, ErrInvalidProof) {
			if res == nil {
				v.cache.Add(cacheKey, nil)
			} else {
				v.cache.Add(cacheKey, res)
			}
		}
	}

	if res == nil {
		v.log.Debug().Int("publicInputs", len(publicInputs)).Msg("proof accepted")
	} else {
		v.log.Debug().Err(res).Msg("proof rejected")
	}
	return res
}

// VerifyBytes parses a serialized proof and canonical 32-byte public input
// encodings, then verifies. Parsing failures surface as the malformed
// sentinels.
func (v *Verifier) VerifyBytes(publicInputs [][]byte, rawProof []byte) error {
	inputs := make([]fr.Element, len(publicInputs))
	for i, raw := range publicInputs {
		if err := inputs[i].SetBytesCanonical(raw); err != nil {
			return errors.Wrapf(ErrMalformedPublicInput,
				"public input %d: %v", i, err)
		}
	}
	var proof verifier.Proof
	if err := proof.UnmarshalBinary(rawProof); err != nil {
		return err
	}
	return v.Verify(inputs, &proof)
}

// A Job is one (public inputs, proof) pair submitted to BatchVerify.
type Job struct {
	PublicInputs []fr.Element
	Proof        *verifier.Proof
}

// BatchVerify checks every job concurrently and returns per-job outcomes in
// submission order. If ctx expires before the batch completes, the batch is
// abandoned and BatchVerify returns ErrResourceExhausted.
func (v *Verifier) BatchVerify(ctx context.Context, jobs []Job) ([]error, error) {
	results := make([]error, len(jobs))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(v.concurrency)
	for i := range jobs {
		i := i
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			results[i] = v.Verify(jobs[i].PublicInputs, jobs[i].Proof)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, errors.Wrapf(ErrResourceExhausted, "%v", err)
	}
	return results, nil
}

// resultKey binds a verification outcome to the exact key, inputs and proof
// bytes it was computed from.
func resultKey(key *vk.Key, publicInputs []fr.Element, proof *verifier.Proof) (
	[32]byte, error) {

	var out [32]byte
	keyDigest, err := key.Digest()
	if err != nil {
		return out, err
	}
	proofBytes, err := proof.MarshalBinary()
	if err != nil {
		return out, err
	}
	h := sha256.New()
	h.Write(keyDigest[:])
	for i := range publicInputs {
		b := publicInputs[i].Bytes()
		h.Write(b[:])
	}
	h.Write(proofBytes)
	copy(out[:], h.Sum(nil))
	return out, nil
}
