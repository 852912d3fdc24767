package payment

import (
	"errors"
	"math"
	"sync"

	"github.com/artmart/marketplace-engine/internal/access"
	"github.com/artmart/marketplace-engine/internal/entity"
	"github.com/artmart/marketplace-engine/internal/token"
	"go.uber.org/zap"
)

var (
	ErrNoPayees  = errors.New("at least one payee is required")
	ErrReentrant = errors.New("reentrant payment distribution")
)

// Controller moves purchase funds through escrow. Pay collects from the
// payer; DistributePayments settles escrowed funds across the payees of a
// completed sale.
type Controller interface {
	Pay(caller, payer string, currency entity.Currency, amount uint64) error
	Refund(caller, recipient string, currency entity.Currency, amount uint64) error
	DistributePayments(caller string, currency entity.Currency, payees []entity.RoyaltyPayment) error
}

type controller struct {
	mu        sync.Mutex
	entered   bool
	principal string
	storage   Storage
	acl       access.Authorizer
}

// NewController builds a controller acting through the given principal,
// which must hold the payment storage role.
func NewController(principal string, storage Storage, acl access.Authorizer) Controller {
	return &controller{principal: principal, storage: storage, acl: acl}
}

func (c *controller) Pay(caller, payer string, currency entity.Currency, amount uint64) error {
	if err := c.acl.RequireRole(access.PaymentControllerAuthorizedRole, caller); err != nil {
		return err
	}

	return c.storage.Collect(c.principal, payer, currency, amount)
}

func (c *controller) Refund(caller, recipient string, currency entity.Currency, amount uint64) error {
	if err := c.acl.RequireRole(access.PaymentControllerAuthorizedRole, caller); err != nil {
		return err
	}

	return c.storage.Refund(c.principal, recipient, currency, amount)
}

// DistributePayments pays every payee its exact amount out of escrow. The
// distribution is all or nothing: a failure anywhere leaves every balance
// as it was. Re-entering while a distribution is in flight is rejected.
func (c *controller) DistributePayments(caller string, currency entity.Currency, payees []entity.RoyaltyPayment) error {
	if err := c.acl.RequireRole(access.PaymentControllerAuthorizedRole, caller); err != nil {
		return err
	}
	if len(payees) == 0 {
		return ErrNoPayees
	}

	c.mu.Lock()
	if c.entered {
		c.mu.Unlock()
		return ErrReentrant
	}
	c.entered = true
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		c.entered = false
		c.mu.Unlock()
	}()

	var total uint64
	payouts := make([]token.Payout, 0, len(payees))
	for _, payee := range payees {
		if payee.Amount == 0 {
			continue
		}
		if payee.Amount > math.MaxUint64-total {
			return token.ErrAmountOverflow
		}
		payouts = append(payouts, token.Payout{Recipient: payee.Recipient, Amount: payee.Amount})
		total += payee.Amount
	}

	if total > c.storage.Balance(currency) {
		return token.ErrInsufficientBalance
	}

	if err := c.storage.Disburse(c.principal, currency, payouts); err != nil {
		return err
	}

	zap.L().With(
		zap.String("currency", string(currency)),
		zap.Uint64("total", total),
		zap.Int("payees", len(payouts)),
	).Info("PaymentController: Payments distributed")

	return nil
}
