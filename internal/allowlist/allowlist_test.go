package allowlist

import (
	"errors"
	"testing"

	"github.com/artmart/marketplace-engine/internal/access"
	"github.com/artmart/marketplace-engine/internal/killswitch"
)

func newAllowlist(t *testing.T) (Allowlist, *killswitch.Killswitch) {
	t.Helper()

	registry := access.NewRegistry("owner")
	grants := map[access.Role]string{
		access.AllowlistAuthorizedRole: "curator",
		access.KillswitchRole:          "curator",
	}
	for role, principal := range grants {
		if err := registry.Grant("owner", role, principal); err != nil {
			t.Fatalf("grant: %v", err)
		}
	}

	ks := killswitch.New(registry)

	return NewAllowlist(ks, registry), ks
}

func TestAllowAndRemove(t *testing.T) {
	list, _ := newAllowlist(t)

	if list.IsAllowed("0xart", "mainnet") {
		t.Fatal("contract should not be allowed before Allow")
	}

	if err := list.Allow("curator", "0xart", "mainnet"); err != nil {
		t.Fatalf("allow: %v", err)
	}
	if !list.IsAllowed("0xart", "mainnet") {
		t.Fatal("contract should be allowed")
	}
	if list.IsAllowed("0xart", "testnet") {
		t.Fatal("allowance is scoped per network")
	}

	if err := list.Remove("curator", "0xart", "mainnet"); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if list.IsAllowed("0xart", "mainnet") {
		t.Fatal("contract should no longer be allowed")
	}
}

func TestAllowRejectsZeroContract(t *testing.T) {
	list, _ := newAllowlist(t)

	if err := list.Allow("curator", "", "mainnet"); !errors.Is(err, ErrZeroContract) {
		t.Fatalf("expected ErrZeroContract, got %v", err)
	}
}

func TestAllowRequiresRole(t *testing.T) {
	list, _ := newAllowlist(t)

	if err := list.Allow("intruder", "0xart", "mainnet"); !errors.Is(err, access.ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
	if err := list.Remove("intruder", "0xart", "mainnet"); !errors.Is(err, access.ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
}

func TestAllowBlockedWhilePaused(t *testing.T) {
	list, ks := newAllowlist(t)

	if err := ks.Pause("curator"); err != nil {
		t.Fatalf("pause: %v", err)
	}

	if err := list.Allow("curator", "0xart", "mainnet"); !errors.Is(err, killswitch.ErrSystemPaused) {
		t.Fatalf("expected ErrSystemPaused, got %v", err)
	}
	if err := list.Remove("curator", "0xart", "mainnet"); !errors.Is(err, killswitch.ErrSystemPaused) {
		t.Fatalf("expected ErrSystemPaused, got %v", err)
	}
}
