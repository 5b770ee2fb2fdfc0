package bridge

import (
	"context"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// the well-known development mnemonic; never fund this account
const devMnemonic = "test test test test test test test test test test test junk"

func TestDeriveKeyFromMnemonic(t *testing.T) {
	key, err := DeriveKey(&Config{Mnemonic: devMnemonic})
	require.NoError(t, err)

	addr := crypto.PubkeyToAddress(key.PublicKey)
	assert.Equal(t,
		common.HexToAddress("0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266"), addr)
}

func TestDeriveKeyFromHex(t *testing.T) {
	const hexKey = "0xac0974bec39a17e36ba4a6b4d238ff944bacb478cbed5efcae784d7bf4f2ff80"
	key, err := DeriveKey(&Config{PrivateKeyHex: hexKey})
	require.NoError(t, err)

	// the hex key above is the first account of the development mnemonic
	addr := crypto.PubkeyToAddress(key.PublicKey)
	assert.Equal(t,
		common.HexToAddress("0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266"), addr)
}

func TestDeriveKeyRejectsAmbiguousConfig(t *testing.T) {
	_, err := DeriveKey(&Config{Mnemonic: devMnemonic, PrivateKeyHex: "ff"})
	assert.Error(t, err)

	_, err = DeriveKey(&Config{})
	assert.Error(t, err)

	_, err = DeriveKey(&Config{Mnemonic: "not a mnemonic"})
	assert.Error(t, err)
}

func TestExecutorAddressDeterministic(t *testing.T) {
	deployer := common.HexToAddress("0x4e59b44847b379578588920ca78fbf26c0b4956c")
	code := []byte{0x60, 0x80, 0x60, 0x40}
	var salt [32]byte
	salt[31] = 1

	first := ExecutorAddress(deployer, salt, code)
	second := ExecutorAddress(deployer, salt, code)
	assert.Equal(t, first, second)

	var otherSalt [32]byte
	otherSalt[31] = 2
	assert.NotEqual(t, first, ExecutorAddress(deployer, otherSalt, code))
}

type fakeBackend struct {
	nonce    uint64
	gasPrice *big.Int
	sent     []*types.Transaction
}

func (b *fakeBackend) PendingNonceAt(_ context.Context, _ common.Address) (uint64, error) {
	return b.nonce, nil
}

func (b *fakeBackend) SuggestGasPrice(_ context.Context) (*big.Int, error) {
	return b.gasPrice, nil
}

func (b *fakeBackend) SendTransaction(_ context.Context, tx *types.Transaction) error {
	b.sent = append(b.sent, tx)
	return nil
}

func TestBringUp(t *testing.T) {
	backend := &fakeBackend{nonce: 7, gasPrice: big.NewInt(1_000_000_000)}
	deployer := common.HexToAddress("0x4e59b44847b379578588920ca78fbf26c0b4956c")
	code := []byte{0x60, 0x80, 0x60, 0x40, 0x52}
	var salt [32]byte
	salt[0] = 0xab

	cfg := &Config{
		Mnemonic:     devMnemonic,
		ChainID:      big.NewInt(31337),
		GasLimit:     3_000_000,
		Nonce:        NoncePending,
		Salt:         salt,
		Deployer:     deployer,
		ExecutorCode: code,
		InitData:     []byte{0x01, 0x02},
	}

	res, err := BringUp(context.Background(), cfg, backend, zerolog.Nop())
	require.NoError(t, err)
	require.Len(t, backend.sent, 2)

	assert.Equal(t, ExecutorAddress(deployer, salt, code), res.Executor)

	deploy, init := backend.sent[0], backend.sent[1]
	assert.Equal(t, uint64(7), deploy.Nonce())
	assert.Equal(t, uint64(8), init.Nonce())
	assert.Equal(t, deployer, *deploy.To())
	assert.Equal(t, res.Executor, *init.To())
	assert.Equal(t, append(salt[:], code...), deploy.Data())
	assert.Equal(t, []byte{0x01, 0x02}, init.Data())

	// both transactions signed by the derived account
	signer := types.NewEIP155Signer(cfg.ChainID)
	from, err := types.Sender(signer, deploy)
	require.NoError(t, err)
	assert.Equal(t, res.Sender, from)
}

func TestBringUpRejectsIncompleteConfig(t *testing.T) {
	backend := &fakeBackend{gasPrice: big.NewInt(1)}

	_, err := BringUp(context.Background(), &Config{Mnemonic: devMnemonic},
		backend, zerolog.Nop())
	assert.Error(t, err)

	_, err = BringUp(context.Background(),
		&Config{Mnemonic: devMnemonic, ChainID: big.NewInt(1)},
		backend, zerolog.Nop())
	assert.Error(t, err)
}
