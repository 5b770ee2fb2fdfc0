package registry

import (
	"context"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemRegistrySetGet(t *testing.T) {
	ctx := context.Background()
	r := NewMemRegistry()

	chain := big.NewInt(10)
	executor := common.HexToAddress("0x000000000000000000000000000000000000beef")
	require.NoError(t, r.SetExecutor(ctx, chain, executor))

	got, err := r.GetExecutor(ctx, chain)
	require.NoError(t, err)
	assert.Equal(t, executor, got)
}

func TestMemRegistryUnknownChain(t *testing.T) {
	ctx := context.Background()
	r := NewMemRegistry()

	_, err := r.GetExecutor(ctx, big.NewInt(5))
	assert.True(t, errors.Is(err, ErrNoExecutor))
}

func TestMemRegistryOverwrite(t *testing.T) {
	ctx := context.Background()
	r := NewMemRegistry()
	chain := big.NewInt(1)

	first := common.HexToAddress("0x0000000000000000000000000000000000000001")
	second := common.HexToAddress("0x0000000000000000000000000000000000000002")
	require.NoError(t, r.SetExecutor(ctx, chain, first))
	require.NoError(t, r.SetExecutor(ctx, chain, second))

	got, err := r.GetExecutor(ctx, chain)
	require.NoError(t, err)
	assert.Equal(t, second, got)
}

func TestMemRegistryNilChain(t *testing.T) {
	ctx := context.Background()
	r := NewMemRegistry()

	assert.Error(t, r.SetExecutor(ctx, nil, common.Address{}))
	_, err := r.GetExecutor(ctx, nil)
	assert.Error(t, err)
}

func TestContractRegistryReadOnly(t *testing.T) {
	addr := common.HexToAddress("0x00000000000000000000000000000000000000aa")
	r, err := NewContractRegistry(nil, addr, nil, zerolog.Nop())
	require.NoError(t, err)

	err = r.SetExecutor(context.Background(), big.NewInt(1), addr)
	assert.Error(t, err)
}
