// Package bridge brings up the proof-verification bridge between two
// chains: it publishes the verifier executor bytecode through a CREATE2
// deployer and submits the bridge initialization call, so the executor lands
// at the same address on every chain that shares the deployer and salt.
package bridge

import (
	"context"
	"crypto/ecdsa"
	"encoding/hex"
	"math/big"
	"strings"

	"github.com/btcsuite/btcd/btcutil/hdkeychain"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/tyler-smith/go-bip39"
)

// derivationPath is the standard ethereum account path m/44'/60'/0'/0/0.
var derivationPath = []uint32{
	hdkeychain.HardenedKeyStart + 44,
	hdkeychain.HardenedKeyStart + 60,
	hdkeychain.HardenedKeyStart + 0,
	0,
	0,
}

// Config describes one bring-up run. Exactly one of PrivateKeyHex and
// Mnemonic must be set.
type Config struct {
	PrivateKeyHex string // hex-encoded secp256k1 key, with or without 0x
	Mnemonic      string // BIP-39 phrase, derived at m/44'/60'/0'/0/0

	ChainID  *big.Int
	GasPrice *big.Int // nil means ask the backend
	GasLimit uint64
	Nonce    uint64 // starting nonce; NoncePending asks the backend
	Salt     [32]byte

	Deployer     common.Address // CREATE2 deployer contract
	ExecutorCode []byte         // verifier executor creation bytecode
	InitData     []byte         // bridge initialization calldata
}

// NoncePending makes BringUp resolve the starting nonce from the backend.
const NoncePending = ^uint64(0)

// Backend is the slice of an RPC client that BringUp needs. ethclient.Client
// satisfies it.
type Backend interface {
	PendingNonceAt(ctx context.Context, account common.Address) (uint64, error)
	SuggestGasPrice(ctx context.Context) (*big.Int, error)
	SendTransaction(ctx context.Context, tx *types.Transaction) error
}

// Result reports the addresses and transactions of one bring-up run.
type Result struct {
	Sender   common.Address
	Executor common.Address
	DeployTx common.Hash
	InitTx   common.Hash
}

// DeriveKey resolves the signing key from the config, either decoding the
// hex key or walking the BIP-39 mnemonic down the ethereum derivation path.
func DeriveKey(cfg *Config) (*ecdsa.PrivateKey, error) {
	switch {
	case cfg.PrivateKeyHex != "" && cfg.Mnemonic != "":
		return nil, errors.New("both private key and mnemonic configured")
	case cfg.PrivateKeyHex != "":
		raw := strings.TrimPrefix(cfg.PrivateKeyHex, "0x")
		key, err := crypto.HexToECDSA(raw)
		if err != nil {
			return nil, errors.Wrap(err, "decoding private key")
		}
		return key, nil
	case cfg.Mnemonic != "":
		return deriveFromMnemonic(cfg.Mnemonic)
	default:
		return nil, errors.New("no private key or mnemonic configured")
	}
}

func deriveFromMnemonic(mnemonic string) (*ecdsa.PrivateKey, error) {
	if !bip39.IsMnemonicValid(mnemonic) {
		return nil, errors.New("invalid mnemonic")
	}
	seed := bip39.NewSeed(mnemonic, "")
	key, err := hdkeychain.NewMaster(seed, &chaincfg.MainNetParams)
	if err != nil {
		return nil, errors.Wrap(err, "deriving master key")
	}
	for _, step := range derivationPath {
		if key, err = key.Derive(step); err != nil {
			return nil, errors.Wrapf(err, "deriving path step %d", step)
		}
	}
	ecKey, err := key.ECPrivKey()
	if err != nil {
		return nil, errors.Wrap(err, "extracting private key")
	}
	return ecKey.ToECDSA(), nil
}

// ExecutorAddress predicts where the CREATE2 deployer will place the
// executor: a pure function of deployer, salt and bytecode, identical on
// every chain.
func ExecutorAddress(deployer common.Address, salt [32]byte, code []byte) common.Address {
	return crypto.CreateAddress2(deployer, salt, crypto.Keccak256(code))
}

// BringUp publishes the executor bytecode and submits the bridge
// initialization call. It returns after both transactions are accepted by
// the backend; it does not wait for inclusion.
func BringUp(ctx context.Context, cfg *Config, backend Backend, log zerolog.Logger) (*Result, error) {
	if cfg.ChainID == nil {
		return nil, errors.New("no chain id configured")
	}
	if len(cfg.ExecutorCode) == 0 {
		return nil, errors.New("no executor bytecode configured")
	}

	key, err := DeriveKey(cfg)
	if err != nil {
		return nil, err
	}
	sender := crypto.PubkeyToAddress(key.PublicKey)

	nonce := cfg.Nonce
	if nonce == NoncePending {
		if nonce, err = backend.PendingNonceAt(ctx, sender); err != nil {
			return nil, errors.Wrap(err, "resolving nonce")
		}
	}
	gasPrice := cfg.GasPrice
	if gasPrice == nil {
		if gasPrice, err = backend.SuggestGasPrice(ctx); err != nil {
			return nil, errors.Wrap(err, "resolving gas price")
		}
	}

	executor := ExecutorAddress(cfg.Deployer, cfg.Salt, cfg.ExecutorCode)
	signer := types.NewEIP155Signer(cfg.ChainID)

	// the deployer consumes salt ∥ creation code
	deployData := make([]byte, 0, len(cfg.Salt)+len(cfg.ExecutorCode))
	deployData = append(deployData, cfg.Salt[:]...)
	deployData = append(deployData, cfg.ExecutorCode...)
	deployTx, err := submit(ctx, backend, signer, key, &types.LegacyTx{
		Nonce:    nonce,
		To:       &cfg.Deployer,
		Gas:      cfg.GasLimit,
		GasPrice: gasPrice,
		Data:     deployData,
	})
	if err != nil {
		return nil, errors.Wrap(err, "publishing executor bytecode")
	}

	initTx, err := submit(ctx, backend, signer, key, &types.LegacyTx{
		Nonce:    nonce + 1,
		To:       &executor,
		Gas:      cfg.GasLimit,
		GasPrice: gasPrice,
		Data:     cfg.InitData,
	})
	if err != nil {
		return nil, errors.Wrap(err, "initializing bridge")
	}

	res := &Result{
		Sender:   sender,
		Executor: executor,
		DeployTx: deployTx,
		InitTx:   initTx,
	}
	log.Info().
		Str("sender", sender.Hex()).
		Str("executor", executor.Hex()).
		Str("deployTx", deployTx.Hex()).
		Str("initTx", initTx.Hex()).
		Str("salt", hex.EncodeToString(cfg.Salt[:])).
		Msg("bridge bring-up submitted")
	return res, nil
}

func submit(ctx context.Context, backend Backend, signer types.Signer,
	key *ecdsa.PrivateKey, tx *types.LegacyTx) (common.Hash, error) {

	signed, err := types.SignTx(types.NewTx(tx), signer, key)
	if err != nil {
		return common.Hash{}, errors.Wrap(err, "signing transaction")
	}
	if err := backend.SendTransaction(ctx, signed); err != nil {
		return common.Hash{}, errors.Wrap(err, "sending transaction")
	}
	return signed.Hash(), nil
}
