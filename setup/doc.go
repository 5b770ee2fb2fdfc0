/*
package setup provides the KZG structured reference string used to commit to
and open the proof system's polynomials.

Source of the trusted parameters
====================================================================================================
The polynomial commitment scheme needs shared security parameters between
Prover and Verifier. Their creation requires a "trusted setup" procedure, so
called because it is critical to run the procedure correctly to ensure the
security of proof verifications.

To make the risk of a dishonest setup statistically insignificant, a
distributed, permissionless setup ceremony, open to everyone, can be run. The
ceremony guarantees security as long as at least one participant is honest.

For the BN254 curve this package reads the parameters of the battle tested
perpetual "powers-of-tau" ceremony used by projects such as Semaphore, Hermez,
Tornado Cash and snarkjs. Download a ceremony .ptau file and pass its path to
Run with the Ceremony conf; the verification key generation tooling extracts
the G2 pair for the on-chain key from it.

Learn more about the ceremony here:
https://github.com/privacy-scaling-explorations/perpetualpowersoftau

The TestOnly conf generates a throwaway SRS from a fixed secret and must never
be used to secure a production deployment.
*/
package setup
