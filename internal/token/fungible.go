package token

import (
	"errors"
	"math"
	"sync"

	"github.com/artmart/marketplace-engine/internal/entity"
	"go.uber.org/zap"
)

var (
	ErrInsufficientBalance   = errors.New("insufficient balance")
	ErrInsufficientAllowance = errors.New("insufficient allowance")
	ErrZeroAccount           = errors.New("account should not be zero")
	ErrAmountOverflow        = errors.New("payout amounts overflow")
)

// TransferHook runs after a transfer credits the account it is registered
// for. Hooks let payees react to incoming funds, the way contract accounts
// do on chain.
type TransferHook func(from string, amount uint64, currency entity.Currency) error

// Payout is a single recipient/amount pair within a batch transfer.
type Payout struct {
	Recipient string
	Amount    uint64
}

// Bank is the fungible token ledger. Each supported currency keeps its own
// balances and allowances.
type Bank interface {
	BalanceOf(account string, currency entity.Currency) uint64
	Mint(account string, currency entity.Currency, amount uint64) error
	Transfer(caller, to string, currency entity.Currency, amount uint64) error
	TransferFrom(caller, from, to string, currency entity.Currency, amount uint64) error
	TransferBatch(caller string, currency entity.Currency, payouts []Payout) error
	Approve(caller, spender string, currency entity.Currency, amount uint64) error
	Allowance(owner, spender string, currency entity.Currency) uint64
	SetTransferHook(account string, hook TransferHook)
}

type bank struct {
	mu         sync.Mutex
	balances   map[entity.Currency]map[string]uint64
	allowances map[entity.Currency]map[string]map[string]uint64
	hooks      map[string]TransferHook
}

func NewBank() Bank {
	return &bank{
		balances:   make(map[entity.Currency]map[string]uint64),
		allowances: make(map[entity.Currency]map[string]map[string]uint64),
		hooks:      make(map[string]TransferHook),
	}
}

func (b *bank) BalanceOf(account string, currency entity.Currency) uint64 {
	b.mu.Lock()
	defer b.mu.Unlock()

	return b.balances[currency][account]
}

func (b *bank) Mint(account string, currency entity.Currency, amount uint64) error {
	if account == entity.ZeroAddress {
		return ErrZeroAccount
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	b.credit(account, currency, amount)

	return nil
}

func (b *bank) Transfer(caller, to string, currency entity.Currency, amount uint64) error {
	return b.move(caller, to, currency, amount)
}

func (b *bank) TransferFrom(caller, from, to string, currency entity.Currency, amount uint64) error {
	if caller != from {
		b.mu.Lock()
		allowed := b.allowances[currency][from][caller]
		if allowed < amount {
			b.mu.Unlock()
			return ErrInsufficientAllowance
		}
		b.allowances[currency][from][caller] = allowed - amount
		b.mu.Unlock()
	}

	return b.move(from, to, currency, amount)
}

func (b *bank) Approve(caller, spender string, currency entity.Currency, amount uint64) error {
	if spender == entity.ZeroAddress {
		return ErrZeroAccount
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if b.allowances[currency] == nil {
		b.allowances[currency] = make(map[string]map[string]uint64)
	}
	if b.allowances[currency][caller] == nil {
		b.allowances[currency][caller] = make(map[string]uint64)
	}
	b.allowances[currency][caller][spender] = amount

	return nil
}

func (b *bank) Allowance(owner, spender string, currency entity.Currency) uint64 {
	b.mu.Lock()
	defer b.mu.Unlock()

	return b.allowances[currency][owner][spender]
}

// TransferBatch moves funds to every payout recipient, all or nothing.
// Recipient hooks run after every balance is credited; if any hook fails
// the whole batch is reversed before the error is returned.
func (b *bank) TransferBatch(caller string, currency entity.Currency, payouts []Payout) error {
	var total uint64
	for _, payout := range payouts {
		if payout.Recipient == entity.ZeroAddress {
			return ErrZeroAccount
		}
		if payout.Amount > math.MaxUint64-total {
			return ErrAmountOverflow
		}
		total += payout.Amount
	}

	b.mu.Lock()
	if b.balances[currency][caller] < total {
		b.mu.Unlock()
		return ErrInsufficientBalance
	}

	b.balances[currency][caller] -= total
	hooks := make([]TransferHook, len(payouts))
	for i, payout := range payouts {
		b.credit(payout.Recipient, currency, payout.Amount)
		hooks[i] = b.hooks[payout.Recipient]
	}
	b.mu.Unlock()

	for i, hook := range hooks {
		if hook == nil {
			continue
		}
		if err := hook(caller, payouts[i].Amount, currency); err != nil {
			b.reverse(caller, currency, payouts, total)
			return err
		}
	}

	return nil
}

func (b *bank) reverse(caller string, currency entity.Currency, payouts []Payout, total uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for _, payout := range payouts {
		b.balances[currency][payout.Recipient] -= payout.Amount
	}
	b.balances[currency][caller] += total

	zap.L().With(
		zap.String("account", caller),
		zap.String("currency", string(currency)),
		zap.Uint64("amount", total),
	).Warn("Bank: Batch transfer reversed")
}

func (b *bank) SetTransferHook(account string, hook TransferHook) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.hooks[account] = hook
}

func (b *bank) move(from, to string, currency entity.Currency, amount uint64) error {
	if to == entity.ZeroAddress {
		return ErrZeroAccount
	}

	b.mu.Lock()
	if b.balances[currency][from] < amount {
		b.mu.Unlock()
		return ErrInsufficientBalance
	}

	b.balances[currency][from] -= amount
	b.credit(to, currency, amount)
	hook := b.hooks[to]
	b.mu.Unlock()

	zap.L().With(
		zap.String("from", from),
		zap.String("to", to),
		zap.String("currency", string(currency)),
		zap.Uint64("amount", amount),
	).Debug("Bank: Transfer")

	if hook != nil {
		return hook(from, amount, currency)
	}

	return nil
}

// credit expects the lock to be held.
func (b *bank) credit(account string, currency entity.Currency, amount uint64) {
	if b.balances[currency] == nil {
		b.balances[currency] = make(map[string]uint64)
	}
	b.balances[currency][account] += amount
}
