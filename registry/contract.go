package registry

import (
	"context"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

// registryABI is the interface of the on-chain registry contract.
const registryABI = `[
  {
    "name": "getExecutor",
    "type": "function",
    "stateMutability": "view",
    "inputs": [{"name": "chainId", "type": "uint256"}],
    "outputs": [{"name": "executor", "type": "address"}]
  },
  {
    "name": "setExecutor",
    "type": "function",
    "stateMutability": "nonpayable",
    "inputs": [
      {"name": "chainId", "type": "uint256"},
      {"name": "executor", "type": "address"}
    ],
    "outputs": []
  }
]`

// ContractRegistry is a Registry backed by the on-chain registry contract,
// the operational deployment path. Reads are bound calls; writes are signed
// transactions using the TransactOpts supplied at construction.
type ContractRegistry struct {
	contract *bind.BoundContract
	auth     *bind.TransactOpts
	log      zerolog.Logger
}

// NewContractRegistry binds the registry contract at addr. auth may be nil
// for a read-only registry; SetExecutor then fails.
func NewContractRegistry(backend bind.ContractBackend, addr common.Address,
	auth *bind.TransactOpts, log zerolog.Logger) (*ContractRegistry, error) {

	parsed, err := abi.JSON(strings.NewReader(registryABI))
	if err != nil {
		return nil, errors.Wrap(err, "parsing registry ABI")
	}
	return &ContractRegistry{
		contract: bind.NewBoundContract(addr, parsed, backend, backend, backend),
		auth:     auth,
		log:      log,
	}, nil
}

func (r *ContractRegistry) GetExecutor(ctx context.Context, chainID *big.Int) (
	common.Address, error) {

	if chainID == nil {
		return common.Address{}, errors.New("nil chain id")
	}
	var out []interface{}
	err := r.contract.Call(&bind.CallOpts{Context: ctx}, &out, "getExecutor", chainID)
	if err != nil {
		return common.Address{}, errors.Wrapf(err, "calling getExecutor(%s)", chainID)
	}
	addr := *abi.ConvertType(out[0], new(common.Address)).(*common.Address)
	if addr == (common.Address{}) {
		return common.Address{}, errors.Wrapf(ErrNoExecutor, "chain %s", chainID)
	}
	return addr, nil
}

func (r *ContractRegistry) SetExecutor(ctx context.Context, chainID *big.Int,
	addr common.Address) error {

	if chainID == nil {
		return errors.New("nil chain id")
	}
	if r.auth == nil {
		return errors.New("registry is read-only: no transact options configured")
	}
	opts := *r.auth
	opts.Context = ctx
	tx, err := r.contract.Transact(&opts, "setExecutor", chainID, addr)
	if err != nil {
		return errors.Wrapf(err, "sending setExecutor(%s, %s)", chainID, addr.Hex())
	}
	r.log.Info().
		Str("tx", tx.Hash().Hex()).
		Str("chain", chainID.String()).
		Str("executor", addr.Hex()).
		Msg("registry updated")
	return nil
}
