package payment

import (
	"errors"
	"fmt"
	"sync"

	"github.com/artmart/marketplace-engine/internal/access"
	"github.com/artmart/marketplace-engine/internal/entity"
	"github.com/artmart/marketplace-engine/internal/token"
	"go.uber.org/zap"
)

var (
	ErrUnsupportedCurrency = errors.New("unsupported currency")
	ErrZeroCurrencyAddress = errors.New("currency contract address should not be zero")
)

// Storage is the escrow account plus the registry of accepted currencies
// and their token contract addresses. The native currency is pinned to
// the zero sentinel. Funds held for an in-flight purchase live in the
// escrow ledger account until they are disbursed.
type Storage interface {
	EscrowAddress() string
	NativeCurrency() entity.Currency
	SetNativeCurrency(caller string, currency entity.Currency) error
	AddCurrency(caller string, currency entity.Currency, contract string) error
	RemoveCurrency(caller string, currency entity.Currency) error
	CurrencyAddress(currency entity.Currency) (string, bool)
	IsSupported(currency entity.Currency) bool
	Balance(currency entity.Currency) uint64
	Collect(caller, payer string, currency entity.Currency, amount uint64) error
	Refund(caller, recipient string, currency entity.Currency, amount uint64) error
	Disburse(caller string, currency entity.Currency, payouts []token.Payout) error
}

type storage struct {
	mu         sync.RWMutex
	escrow     string
	currencies map[entity.Currency]string
	bank       token.Bank
	acl        access.Authorizer
}

func NewStorage(escrow string, bank token.Bank, acl access.Authorizer) Storage {
	return &storage{
		escrow: escrow,
		currencies: map[entity.Currency]string{
			entity.NativeCurrency: entity.ZeroAddress,
			entity.StableCurrency: "0xusdc",
		},
		bank: bank,
		acl:  acl,
	}
}

func (s *storage) EscrowAddress() string {
	return s.escrow
}

func (s *storage) NativeCurrency() entity.Currency {
	return entity.NativeCurrency
}

// SetNativeCurrency is accepted for interface compatibility but the native
// currency is pinned; the call changes nothing.
func (s *storage) SetNativeCurrency(caller string, currency entity.Currency) error {
	if err := s.acl.RequireRole(access.PaymentStorageAuthorizedRole, caller); err != nil {
		return err
	}

	zap.L().With(zap.String("currency", string(currency))).
		Debug("PaymentStorage: Native currency is immutable, ignoring update")

	return nil
}

func (s *storage) AddCurrency(caller string, currency entity.Currency, contract string) error {
	if err := s.acl.RequireRole(access.PaymentStorageAuthorizedRole, caller); err != nil {
		return err
	}
	if currency != entity.NativeCurrency && contract == entity.ZeroAddress {
		return ErrZeroCurrencyAddress
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if currency == entity.NativeCurrency {
		contract = entity.ZeroAddress
	}
	s.currencies[currency] = contract

	return nil
}

func (s *storage) RemoveCurrency(caller string, currency entity.Currency) error {
	if err := s.acl.RequireRole(access.PaymentStorageAuthorizedRole, caller); err != nil {
		return err
	}
	if currency == entity.NativeCurrency {
		return fmt.Errorf("native currency %s cannot be removed", currency)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.currencies, currency)

	return nil
}

func (s *storage) CurrencyAddress(currency entity.Currency) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	contract, exists := s.currencies[currency]

	return contract, exists
}

func (s *storage) IsSupported(currency entity.Currency) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, exists := s.currencies[currency]

	return exists
}

func (s *storage) Balance(currency entity.Currency) uint64 {
	return s.bank.BalanceOf(s.escrow, currency)
}

// Collect pulls funds from the payer into escrow. The payer must have
// approved the escrow account for at least the collected amount.
func (s *storage) Collect(caller, payer string, currency entity.Currency, amount uint64) error {
	if err := s.acl.RequireRole(access.PaymentStorageAuthorizedRole, caller); err != nil {
		return err
	}
	if !s.IsSupported(currency) {
		return fmt.Errorf("%w: %s", ErrUnsupportedCurrency, currency)
	}

	return s.bank.TransferFrom(s.escrow, payer, s.escrow, currency, amount)
}

func (s *storage) Refund(caller, recipient string, currency entity.Currency, amount uint64) error {
	if err := s.acl.RequireRole(access.PaymentStorageAuthorizedRole, caller); err != nil {
		return err
	}

	return s.bank.Transfer(s.escrow, recipient, currency, amount)
}

func (s *storage) Disburse(caller string, currency entity.Currency, payouts []token.Payout) error {
	if err := s.acl.RequireRole(access.PaymentStorageAuthorizedRole, caller); err != nil {
		return err
	}

	return s.bank.TransferBatch(s.escrow, currency, payouts)
}
