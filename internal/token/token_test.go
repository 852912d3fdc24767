package token

import (
	"errors"
	"math"
	"testing"

	"github.com/artmart/marketplace-engine/internal/entity"
)

func TestBankTransfer(t *testing.T) {
	bank := NewBank()

	if err := bank.Mint("alice", entity.StableCurrency, 1000); err != nil {
		t.Fatalf("mint: %v", err)
	}

	if err := bank.Transfer("alice", "bob", entity.StableCurrency, 400); err != nil {
		t.Fatalf("transfer: %v", err)
	}

	if got := bank.BalanceOf("alice", entity.StableCurrency); got != 600 {
		t.Fatalf("alice balance = %d, want 600", got)
	}
	if got := bank.BalanceOf("bob", entity.StableCurrency); got != 400 {
		t.Fatalf("bob balance = %d, want 400", got)
	}
}

func TestBankTransferInsufficientBalance(t *testing.T) {
	bank := NewBank()

	if err := bank.Transfer("alice", "bob", entity.StableCurrency, 1); !errors.Is(err, ErrInsufficientBalance) {
		t.Fatalf("expected ErrInsufficientBalance, got %v", err)
	}
}

func TestBankTransferFromSpendsAllowance(t *testing.T) {
	bank := NewBank()

	if err := bank.Mint("alice", entity.StableCurrency, 1000); err != nil {
		t.Fatalf("mint: %v", err)
	}

	if err := bank.TransferFrom("spender", "alice", "bob", entity.StableCurrency, 100); !errors.Is(err, ErrInsufficientAllowance) {
		t.Fatalf("expected ErrInsufficientAllowance, got %v", err)
	}

	if err := bank.Approve("alice", "spender", entity.StableCurrency, 300); err != nil {
		t.Fatalf("approve: %v", err)
	}
	if err := bank.TransferFrom("spender", "alice", "bob", entity.StableCurrency, 100); err != nil {
		t.Fatalf("transfer from: %v", err)
	}

	if got := bank.Allowance("alice", "spender", entity.StableCurrency); got != 200 {
		t.Fatalf("allowance = %d, want 200", got)
	}
}

func TestBankTransferHook(t *testing.T) {
	bank := NewBank()

	if err := bank.Mint("alice", entity.StableCurrency, 100); err != nil {
		t.Fatalf("mint: %v", err)
	}

	var seenFrom string
	var seenAmount uint64
	bank.SetTransferHook("bob", func(from string, amount uint64, currency entity.Currency) error {
		seenFrom = from
		seenAmount = amount
		return nil
	})

	if err := bank.Transfer("alice", "bob", entity.StableCurrency, 25); err != nil {
		t.Fatalf("transfer: %v", err)
	}
	if seenFrom != "alice" || seenAmount != 25 {
		t.Fatalf("hook saw (%s, %d), want (alice, 25)", seenFrom, seenAmount)
	}
}

func TestBatchTransferRejectsOverflowingAmounts(t *testing.T) {
	bank := NewBank()

	if err := bank.Mint("escrow", entity.StableCurrency, 1000); err != nil {
		t.Fatalf("mint: %v", err)
	}

	payouts := []Payout{
		{Recipient: "alice", Amount: math.MaxUint64},
		{Recipient: "bob", Amount: 2},
	}
	if err := bank.TransferBatch("escrow", entity.StableCurrency, payouts); !errors.Is(err, ErrAmountOverflow) {
		t.Fatalf("expected ErrAmountOverflow, got %v", err)
	}

	if got := bank.BalanceOf("escrow", entity.StableCurrency); got != 1000 {
		t.Fatalf("escrow balance = %d, want 1000 unchanged", got)
	}
	if got := bank.BalanceOf("alice", entity.StableCurrency); got != 0 {
		t.Fatalf("alice balance = %d, want 0", got)
	}
	if got := bank.BalanceOf("bob", entity.StableCurrency); got != 0 {
		t.Fatalf("bob balance = %d, want 0", got)
	}
}

func TestRegistryMintAndTransfer(t *testing.T) {
	registry := NewRegistry()
	asset := entity.AssetID{Contract: "0xart", TokenID: 7}

	if err := registry.Mint("artist", asset, entity.ArtistRoyalty{Receiver: "artist", Bps: 1000}); err != nil {
		t.Fatalf("mint: %v", err)
	}
	if err := registry.Mint("artist", asset, entity.ArtistRoyalty{}); !errors.Is(err, ErrTokenAlreadyMinted) {
		t.Fatalf("expected ErrTokenAlreadyMinted, got %v", err)
	}

	owner, err := registry.OwnerOf(asset)
	if err != nil {
		t.Fatalf("owner of: %v", err)
	}
	if owner != "artist" {
		t.Fatalf("owner = %q, want artist", owner)
	}

	if err := registry.Transfer("stranger", "artist", "collector", asset); !errors.Is(err, ErrNotApproved) {
		t.Fatalf("expected ErrNotApproved, got %v", err)
	}

	registry.SetApprovalForAll("artist", "operator", true)
	if err := registry.Transfer("operator", "artist", "collector", asset); err != nil {
		t.Fatalf("operator transfer: %v", err)
	}

	owner, _ = registry.OwnerOf(asset)
	if owner != "collector" {
		t.Fatalf("owner = %q, want collector", owner)
	}
}

func TestRegistryRoyaltyLocksAtMint(t *testing.T) {
	registry := NewRegistry()
	asset := entity.AssetID{Contract: "0xart", TokenID: 9}

	// Staging the royalty before the mint is allowed.
	if err := registry.SetRoyalty(asset, entity.ArtistRoyalty{Receiver: "artist", Bps: 750}); err != nil {
		t.Fatalf("set royalty before mint: %v", err)
	}
	if _, err := registry.DefaultRoyalty(asset); !errors.Is(err, ErrUnknownToken) {
		t.Fatalf("expected ErrUnknownToken before mint, got %v", err)
	}

	// A mint without its own royalty picks up the staged one.
	if err := registry.Mint("artist", asset, entity.ArtistRoyalty{}); err != nil {
		t.Fatalf("mint: %v", err)
	}
	royalty, err := registry.DefaultRoyalty(asset)
	if err != nil {
		t.Fatalf("default royalty: %v", err)
	}
	if royalty.Receiver != "artist" || royalty.Bps != 750 {
		t.Fatalf("royalty = %+v, want artist/750", royalty)
	}

	if err := registry.SetRoyalty(asset, entity.ArtistRoyalty{Receiver: "estate", Bps: 100}); !errors.Is(err, ErrRoyaltyLocked) {
		t.Fatalf("expected ErrRoyaltyLocked after mint, got %v", err)
	}
}

func TestRegistryDefaultRoyaltySurvivesTransfer(t *testing.T) {
	registry := NewRegistry()
	asset := entity.AssetID{Contract: "0xart", TokenID: 1}

	if err := registry.Mint("artist", asset, entity.ArtistRoyalty{Receiver: "artist", Bps: 500}); err != nil {
		t.Fatalf("mint: %v", err)
	}
	if err := registry.Transfer("artist", "artist", "collector", asset); err != nil {
		t.Fatalf("transfer: %v", err)
	}

	royalty, err := registry.DefaultRoyalty(asset)
	if err != nil {
		t.Fatalf("default royalty: %v", err)
	}
	if royalty.Receiver != "artist" || royalty.Bps != 500 {
		t.Fatalf("royalty = %+v, want artist/500", royalty)
	}
}
