package payment

import (
	"errors"
	"testing"

	"github.com/artmart/marketplace-engine/internal/access"
	"github.com/artmart/marketplace-engine/internal/entity"
	"github.com/artmart/marketplace-engine/internal/token"
)

const escrowAddress = "escrow.marketplace"

func newFixture(t *testing.T) (Controller, Storage, token.Bank) {
	t.Helper()

	registry := access.NewRegistry("owner")
	grants := map[access.Role][]string{
		access.PaymentStorageAuthorizedRole:    {"payment-controller", "operator"},
		access.PaymentControllerAuthorizedRole: {"operator"},
	}
	for role, principals := range grants {
		for _, principal := range principals {
			if err := registry.Grant("owner", role, principal); err != nil {
				t.Fatalf("grant %s to %s: %v", role, principal, err)
			}
		}
	}

	bank := token.NewBank()
	store := NewStorage(escrowAddress, bank, registry)
	ctrl := NewController("payment-controller", store, registry)

	return ctrl, store, bank
}

func fund(t *testing.T, bank token.Bank, account string, amount uint64) {
	t.Helper()

	if err := bank.Mint(account, entity.StableCurrency, amount); err != nil {
		t.Fatalf("mint: %v", err)
	}
	if err := bank.Approve(account, escrowAddress, entity.StableCurrency, amount); err != nil {
		t.Fatalf("approve: %v", err)
	}
}

func TestPayCollectsIntoEscrow(t *testing.T) {
	ctrl, store, bank := newFixture(t)
	fund(t, bank, "buyer", 1030)

	if err := ctrl.Pay("operator", "buyer", entity.StableCurrency, 1030); err != nil {
		t.Fatalf("pay: %v", err)
	}

	if got := store.Balance(entity.StableCurrency); got != 1030 {
		t.Fatalf("escrow balance = %d, want 1030", got)
	}
	if got := bank.BalanceOf("buyer", entity.StableCurrency); got != 0 {
		t.Fatalf("buyer balance = %d, want 0", got)
	}
}

func TestDistributePaymentsPaysExactAmounts(t *testing.T) {
	ctrl, store, bank := newFixture(t)
	fund(t, bank, "buyer", 1030)

	if err := ctrl.Pay("operator", "buyer", entity.StableCurrency, 1030); err != nil {
		t.Fatalf("pay: %v", err)
	}

	payees := []entity.RoyaltyPayment{
		{Recipient: "seller", Amount: 800},
		{Recipient: "artist", Amount: 100},
		{Recipient: "platform", Amount: 130},
	}
	if err := ctrl.DistributePayments("operator", entity.StableCurrency, payees); err != nil {
		t.Fatalf("distribute: %v", err)
	}

	for _, payee := range payees {
		if got := bank.BalanceOf(payee.Recipient, entity.StableCurrency); got != payee.Amount {
			t.Fatalf("%s balance = %d, want %d", payee.Recipient, got, payee.Amount)
		}
	}
	if got := store.Balance(entity.StableCurrency); got != 0 {
		t.Fatalf("escrow balance = %d, want 0", got)
	}
}

func TestDistributePaymentsRequiresPayees(t *testing.T) {
	ctrl, _, _ := newFixture(t)

	if err := ctrl.DistributePayments("operator", entity.StableCurrency, nil); !errors.Is(err, ErrNoPayees) {
		t.Fatalf("expected ErrNoPayees, got %v", err)
	}
}

func TestDistributePaymentsRequiresBalance(t *testing.T) {
	ctrl, _, _ := newFixture(t)

	payees := []entity.RoyaltyPayment{{Recipient: "seller", Amount: 100}}
	if err := ctrl.DistributePayments("operator", entity.StableCurrency, payees); !errors.Is(err, token.ErrInsufficientBalance) {
		t.Fatalf("expected ErrInsufficientBalance, got %v", err)
	}
}

func TestDistributePaymentsRequiresRole(t *testing.T) {
	ctrl, _, _ := newFixture(t)

	payees := []entity.RoyaltyPayment{{Recipient: "seller", Amount: 100}}
	if err := ctrl.DistributePayments("intruder", entity.StableCurrency, payees); !errors.Is(err, access.ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
	if err := ctrl.Pay("intruder", "buyer", entity.StableCurrency, 1); !errors.Is(err, access.ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
}

func TestDistributePaymentsRejectsReentrancy(t *testing.T) {
	ctrl, store, bank := newFixture(t)
	fund(t, bank, "buyer", 1000)

	if err := ctrl.Pay("operator", "buyer", entity.StableCurrency, 1000); err != nil {
		t.Fatalf("pay: %v", err)
	}

	// The attacker re-enters the distribution from its transfer hook,
	// trying to drain escrow a second time.
	bank.SetTransferHook("attacker", func(from string, amount uint64, currency entity.Currency) error {
		return ctrl.DistributePayments("operator", currency, []entity.RoyaltyPayment{
			{Recipient: "attacker", Amount: 500},
		})
	})

	payees := []entity.RoyaltyPayment{
		{Recipient: "attacker", Amount: 500},
		{Recipient: "seller", Amount: 500},
	}
	if err := ctrl.DistributePayments("operator", entity.StableCurrency, payees); !errors.Is(err, ErrReentrant) {
		t.Fatalf("expected ErrReentrant, got %v", err)
	}

	if got := store.Balance(entity.StableCurrency); got != 1000 {
		t.Fatalf("escrow balance = %d, want 1000 (distribution must roll back)", got)
	}
	if got := bank.BalanceOf("attacker", entity.StableCurrency); got != 0 {
		t.Fatalf("attacker balance = %d, want 0", got)
	}
	if got := bank.BalanceOf("seller", entity.StableCurrency); got != 0 {
		t.Fatalf("seller balance = %d, want 0", got)
	}
}

func TestNativeCurrencyIsImmutable(t *testing.T) {
	_, store, _ := newFixture(t)

	if err := store.SetNativeCurrency("operator", entity.Currency("WETH")); err != nil {
		t.Fatalf("set native currency: %v", err)
	}
	if got := store.NativeCurrency(); got != entity.NativeCurrency {
		t.Fatalf("native currency = %q, want %q", got, entity.NativeCurrency)
	}
}

func TestCurrencyRegistry(t *testing.T) {
	_, store, _ := newFixture(t)

	if !store.IsSupported(entity.StableCurrency) {
		t.Fatal("stable currency should be supported by default")
	}

	if err := store.AddCurrency("operator", entity.Currency("DAI"), entity.ZeroAddress); !errors.Is(err, ErrZeroCurrencyAddress) {
		t.Fatalf("add currency with zero contract: got %v, want ErrZeroCurrencyAddress", err)
	}

	if err := store.AddCurrency("operator", entity.Currency("DAI"), "0xdai"); err != nil {
		t.Fatalf("add currency: %v", err)
	}
	if !store.IsSupported(entity.Currency("DAI")) {
		t.Fatal("DAI should be supported after AddCurrency")
	}
	if contract, _ := store.CurrencyAddress(entity.Currency("DAI")); contract != "0xdai" {
		t.Fatalf("DAI contract = %q, want %q", contract, "0xdai")
	}

	if err := store.RemoveCurrency("operator", entity.Currency("DAI")); err != nil {
		t.Fatalf("remove currency: %v", err)
	}
	if store.IsSupported(entity.Currency("DAI")) {
		t.Fatal("DAI should no longer be supported")
	}

	if err := store.RemoveCurrency("operator", entity.NativeCurrency); err == nil {
		t.Fatal("expected removing the native currency to fail")
	}
}
