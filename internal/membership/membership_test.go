package membership

import (
	"errors"
	"testing"

	"github.com/artmart/marketplace-engine/internal/access"
)

func newController(t *testing.T) Controller {
	t.Helper()

	registry := access.NewRegistry("owner")
	if err := registry.Grant("owner", access.MembershipAuthorizedRole, "operator"); err != nil {
		t.Fatalf("grant: %v", err)
	}

	return NewController(300, registry)
}

func TestStatusDefaultsToDefaultTier(t *testing.T) {
	ctrl := newController(t)

	if tier := ctrl.Status("collector"); tier != TierDefault {
		t.Fatalf("tier = %q, want %q", tier, TierDefault)
	}
}

func TestSetStatus(t *testing.T) {
	ctrl := newController(t)

	if err := ctrl.SetStatus("operator", "collector", TierPatron); err != nil {
		t.Fatalf("set status: %v", err)
	}
	if tier := ctrl.Status("collector"); tier != TierPatron {
		t.Fatalf("tier = %q, want %q", tier, TierPatron)
	}

	// A status read caches; updating must invalidate that cache.
	if err := ctrl.SetStatus("operator", "collector", TierKivian); err != nil {
		t.Fatalf("set status: %v", err)
	}
	if tier := ctrl.Status("collector"); tier != TierKivian {
		t.Fatalf("tier = %q, want %q", tier, TierKivian)
	}
}

func TestSetStatusRequiresRole(t *testing.T) {
	ctrl := newController(t)

	if err := ctrl.SetStatus("intruder", "collector", TierPatron); !errors.Is(err, access.ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
}

func TestSetStatusRejectsUnknownTier(t *testing.T) {
	ctrl := newController(t)

	if err := ctrl.SetStatus("operator", "collector", Tier("platinum")); !errors.Is(err, ErrUnknownTier) {
		t.Fatalf("expected ErrUnknownTier, got %v", err)
	}
}

func TestBuyerPricing(t *testing.T) {
	ctrl := newController(t)

	tests := []struct {
		name     string
		tier     Tier
		price    uint64
		wantFee  uint64
		wantPaid uint64
	}{
		{"default tier pays 3 percent", TierDefault, 1000, 30, 1030},
		{"supporter tier pays 2.5 percent", TierSupporter, 1000, 25, 1025},
		{"patron tier pays 2 percent", TierPatron, 1000, 20, 1020},
		{"kivian tier pays no fee", TierKivian, 1000, 0, 1000},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			account := "collector-" + string(tt.tier)
			if err := ctrl.SetStatus("operator", account, tt.tier); err != nil {
				t.Fatalf("set status: %v", err)
			}

			if fee := ctrl.CollectorFee(account, tt.price); fee != tt.wantFee {
				t.Fatalf("fee = %d, want %d", fee, tt.wantFee)
			}
			if total := ctrl.NFTBuyerPrice(account, tt.price); total != tt.wantPaid {
				t.Fatalf("total = %d, want %d", total, tt.wantPaid)
			}
		})
	}
}
