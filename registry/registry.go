// Package registry maps chain ids to the verifier executor deployed on that
// chain. Verifying a proof for a foreign chain starts with resolving its
// executor here.
package registry

import (
	"context"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/pkg/errors"
)

// ErrNoExecutor is returned when no executor is registered for a chain.
var ErrNoExecutor = errors.New("no executor registered for chain")

// Registry resolves and records verifier executor addresses per chain.
type Registry interface {
	// SetExecutor records addr as the executor for chainID, overwriting any
	// previous entry.
	SetExecutor(ctx context.Context, chainID *big.Int, addr common.Address) error
	// GetExecutor returns the executor for chainID, or ErrNoExecutor.
	GetExecutor(ctx context.Context, chainID *big.Int) (common.Address, error)
}

// MemRegistry is an in-process Registry. It keeps no history: the latest
// SetExecutor wins. Safe for concurrent use.
type MemRegistry struct {
	mu        sync.RWMutex
	executors map[string]common.Address
}

func NewMemRegistry() *MemRegistry {
	return &MemRegistry{executors: make(map[string]common.Address)}
}

func (r *MemRegistry) SetExecutor(_ context.Context, chainID *big.Int, addr common.Address) error {
	if chainID == nil {
		return errors.New("nil chain id")
	}
	r.mu.Lock()
	r.executors[chainID.String()] = addr
	r.mu.Unlock()
	return nil
}

func (r *MemRegistry) GetExecutor(_ context.Context, chainID *big.Int) (common.Address, error) {
	if chainID == nil {
		return common.Address{}, errors.New("nil chain id")
	}
	r.mu.RLock()
	addr, ok := r.executors[chainID.String()]
	r.mu.RUnlock()
	if !ok {
		return common.Address{}, errors.Wrapf(ErrNoExecutor, "chain %s", chainID)
	}
	return addr, nil
}
