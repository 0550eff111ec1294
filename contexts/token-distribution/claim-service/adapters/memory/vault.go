package memory

import (
	"context"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum/common"

	domainerrors "github.com/Karaton-Surakarta/masa-token-lock/contexts/token-distribution/claim-service/domain/errors"
	"github.com/Karaton-Surakarta/masa-token-lock/contexts/token-distribution/claim-service/ports"
)

// Vault is an in-memory token ledger: one pooled balance per token held by
// the distributor, plus per-recipient credits so tests and operators can
// observe where transfers went.
type Vault struct {
	mu sync.RWMutex

	pool    map[common.Address]*big.Int
	credits map[common.Address]map[common.Address]*big.Int
}

func NewVault() *Vault {
	return &Vault{
		pool:    make(map[common.Address]*big.Int),
		credits: make(map[common.Address]map[common.Address]*big.Int),
	}
}

// Deposit seeds the distributor's pooled balance for a token.
func (v *Vault) Deposit(token common.Address, amount *big.Int) {
	if amount == nil || amount.Sign() <= 0 {
		return
	}
	v.mu.Lock()
	defer v.mu.Unlock()

	balance, ok := v.pool[token]
	if !ok {
		balance = new(big.Int)
		v.pool[token] = balance
	}
	balance.Add(balance, amount)
}

func (v *Vault) BalanceOf(_ context.Context, token common.Address) (*big.Int, error) {
	v.mu.RLock()
	defer v.mu.RUnlock()

	balance, ok := v.pool[token]
	if !ok {
		return new(big.Int), nil
	}
	return new(big.Int).Set(balance), nil
}

func (v *Vault) Transfer(
	_ context.Context,
	token common.Address,
	to common.Address,
	amount *big.Int,
) error {
	if amount == nil || amount.Sign() <= 0 {
		return domainerrors.ErrZeroAmount
	}
	v.mu.Lock()
	defer v.mu.Unlock()

	balance, ok := v.pool[token]
	if !ok || balance.Cmp(amount) < 0 {
		return domainerrors.ErrInsufficientVaultBalance
	}
	balance.Sub(balance, amount)

	holders, ok := v.credits[token]
	if !ok {
		holders = make(map[common.Address]*big.Int)
		v.credits[token] = holders
	}
	credit, ok := holders[to]
	if !ok {
		credit = new(big.Int)
		holders[to] = credit
	}
	credit.Add(credit, amount)
	return nil
}

// CreditOf reports the total amount transferred to one recipient.
func (v *Vault) CreditOf(token common.Address, holder common.Address) *big.Int {
	v.mu.RLock()
	defer v.mu.RUnlock()

	holders, ok := v.credits[token]
	if !ok {
		return new(big.Int)
	}
	credit, ok := holders[holder]
	if !ok {
		return new(big.Int)
	}
	return new(big.Int).Set(credit)
}

var _ ports.TokenVault = (*Vault)(nil)
