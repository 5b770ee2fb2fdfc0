package setup

import (
	"fmt"
	"math/big"
	"os"

	"github.com/consensys/gnark-crypto/ecc/bn254/kzg"
	gp "github.com/mdehoog/gnark-ptau"
)

// Conf specifies which SRS to use: parameters from a powers-of-tau ceremony
// file as per doc.go, or a test only setup not suitable for production.
type Conf int

const (
	Ceremony Conf = iota
	TestOnly
)

// headroom over the domain size for blinding and quotient chunks
const extraPowers = 8

// Run returns a KZG SRS able to commit to polynomials of a circuit with the
// given domain size. For Ceremony, ceremonyPath must point to a .ptau file;
// for TestOnly it is ignored.
func Run(domainSize uint64, conf Conf, ceremonyPath string) (*kzg.SRS, error) {
	if domainSize < 2 {
		return nil, fmt.Errorf("domain size must be at least 2")
	}
	size := domainSize + extraPowers

	switch conf {
	case Ceremony:
		return ceremonySRS(size, ceremonyPath)
	case TestOnly:
		srs, err := kzg.NewSRS(size, big.NewInt(-1))
		if err != nil {
			return nil, fmt.Errorf("error creating SRS: %v", err)
		}
		return srs, nil
	default:
		return nil, fmt.Errorf("unsupported setup conf: %v", conf)
	}
}

// ceremonySRS reads trusted parameters from a powers-of-tau ceremony file.
func ceremonySRS(size uint64, path string) (*kzg.SRS, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("error opening %s: %v", path, err)
	}
	defer file.Close()

	srs, err := gp.ToSRS(file)
	if err != nil {
		return nil, fmt.Errorf("error converting %s to SRS: %v", path, err)
	}
	if uint64(len(srs.Pk.G1)) < size {
		return nil, fmt.Errorf("ceremony file provides %d G1 parameters, "+
			"but %d are required", len(srs.Pk.G1), size)
	}
	srs.Pk.G1 = srs.Pk.G1[:size]
	return srs, nil
}
