package royalty

import (
	"errors"
	"reflect"
	"testing"

	"github.com/artmart/marketplace-engine/internal/access"
	"github.com/artmart/marketplace-engine/internal/entity"
	"github.com/artmart/marketplace-engine/internal/token"
)

var testAsset = entity.AssetID{Contract: "0xart", TokenID: 42}

func newAccess(t *testing.T) *access.Registry {
	t.Helper()

	registry := access.NewRegistry("owner")
	grants := map[access.Role][]string{
		access.ArtistRoyaltyStorageAuthorizedRole:       {"artist-controller", "operator"},
		access.ArtistRoyaltyControllerAuthorizedRole:    {"operator"},
		access.CollectorRoyaltyStorageAuthorizedRole:    {"collector-controller", "operator"},
		access.CollectorRoyaltyControllerAuthorizedRole: {"operator"},
	}
	for role, principals := range grants {
		for _, principal := range principals {
			if err := registry.Grant("owner", role, principal); err != nil {
				t.Fatalf("grant %s to %s: %v", role, principal, err)
			}
		}
	}

	return registry
}

func TestArtistStorageSetRequiresRole(t *testing.T) {
	storage := NewArtistStorage(newAccess(t))

	err := storage.SetRoyalty("intruder", testAsset, entity.ArtistRoyalty{Receiver: "artist", Bps: 1000})
	if !errors.Is(err, access.ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}

	if err := storage.SetRoyalty("operator", testAsset, entity.ArtistRoyalty{Receiver: "artist", Bps: 1000}); err != nil {
		t.Fatalf("set royalty: %v", err)
	}
	royalty, exists := storage.Royalty(testAsset)
	if !exists {
		t.Fatal("royalty should exist")
	}
	if royalty.Receiver != "artist" || royalty.Bps != 1000 {
		t.Fatalf("royalty = %+v, want artist/1000", royalty)
	}
}

func TestArtistStorageValidatesRoyalty(t *testing.T) {
	storage := NewArtistStorage(newAccess(t))

	err := storage.SetRoyalty("operator", testAsset, entity.ArtistRoyalty{Receiver: "artist", Bps: entity.BpsDenominator + 1})
	if !errors.Is(err, ErrBpsTooHigh) {
		t.Fatalf("expected ErrBpsTooHigh, got %v", err)
	}

	err = storage.SetRoyalty("operator", testAsset, entity.ArtistRoyalty{Receiver: entity.ZeroAddress, Bps: 500})
	if !errors.Is(err, ErrZeroReceiver) {
		t.Fatalf("expected ErrZeroReceiver, got %v", err)
	}

	// A zero receiver with zero bps clears the royalty.
	if err := storage.SetRoyalty("operator", testAsset, entity.ArtistRoyalty{}); err != nil {
		t.Fatalf("set empty royalty: %v", err)
	}
}

func TestArtistControllerFallsBackToMintedRoyalty(t *testing.T) {
	acl := newAccess(t)
	storage := NewArtistStorage(acl)
	tokens := token.NewRegistry()
	ctrl := NewArtistController("artist-controller", storage, tokens, acl)

	// Unknown asset carries no royalty.
	payee := ctrl.RoyaltyPayee(testAsset, 1000)
	if payee.Recipient != entity.ZeroAddress || payee.Amount != 0 {
		t.Fatalf("payee = %+v, want zero", payee)
	}

	if err := tokens.Mint("artist", testAsset, entity.ArtistRoyalty{Receiver: "artist", Bps: 1000}); err != nil {
		t.Fatalf("mint: %v", err)
	}

	payee = ctrl.RoyaltyPayee(testAsset, 1000)
	if payee.Recipient != "artist" || payee.Amount != 100 {
		t.Fatalf("payee = %+v, want artist/100", payee)
	}

	// An explicit override wins over the minted royalty.
	if err := ctrl.SetRoyalty("operator", testAsset, "estate", 500); err != nil {
		t.Fatalf("set royalty: %v", err)
	}
	payee = ctrl.RoyaltyPayee(testAsset, 1000)
	if payee.Recipient != "estate" || payee.Amount != 50 {
		t.Fatalf("payee = %+v, want estate/50", payee)
	}
}

func TestCollectorStorageAppendAndRemovePreservesOrder(t *testing.T) {
	storage := NewCollectorStorage(newAccess(t))

	for _, collector := range []string{"first", "second", "third"} {
		if err := storage.Add("operator", testAsset, collector); err != nil {
			t.Fatalf("add %s: %v", collector, err)
		}
	}

	if err := storage.Remove("operator", testAsset, 1); err != nil {
		t.Fatalf("remove: %v", err)
	}

	want := []string{"first", "third"}
	if got := storage.Recipients(testAsset); !reflect.DeepEqual(got, want) {
		t.Fatalf("recipients = %v, want %v", got, want)
	}
}

func TestCollectorStorageInsert(t *testing.T) {
	storage := NewCollectorStorage(newAccess(t))

	if err := storage.Add("operator", testAsset, "first"); err != nil {
		t.Fatalf("add: %v", err)
	}
	if err := storage.Add("operator", testAsset, "third"); err != nil {
		t.Fatalf("add: %v", err)
	}
	if err := storage.Insert("operator", testAsset, 1, "second"); err != nil {
		t.Fatalf("insert: %v", err)
	}

	want := []string{"first", "second", "third"}
	if got := storage.Recipients(testAsset); !reflect.DeepEqual(got, want) {
		t.Fatalf("recipients = %v, want %v", got, want)
	}
}

func TestCollectorStorageOutOfRange(t *testing.T) {
	storage := NewCollectorStorage(newAccess(t))

	if err := storage.Remove("operator", testAsset, 0); !errors.Is(err, ErrIndexOutOfRange) {
		t.Fatalf("expected ErrIndexOutOfRange, got %v", err)
	}
	if _, err := storage.Recipient(testAsset, 3); !errors.Is(err, ErrIndexOutOfRange) {
		t.Fatalf("expected ErrIndexOutOfRange, got %v", err)
	}
}

func TestCollectorStorageRejectsZeroRecipient(t *testing.T) {
	storage := NewCollectorStorage(newAccess(t))

	if err := storage.Add("operator", testAsset, ""); !errors.Is(err, ErrZeroRecipient) {
		t.Fatalf("expected ErrZeroRecipient, got %v", err)
	}
	if err := storage.SetRecipients("operator", testAsset, []string{"first", ""}); !errors.Is(err, ErrZeroRecipient) {
		t.Fatalf("expected ErrZeroRecipient, got %v", err)
	}
}

func TestCollectorStorageSetRecipientsAndDeleteAll(t *testing.T) {
	storage := NewCollectorStorage(newAccess(t))

	if err := storage.SetRecipients("operator", testAsset, []string{"a", "b"}); err != nil {
		t.Fatalf("set recipients: %v", err)
	}
	if count := storage.Count(testAsset); count != 2 {
		t.Fatalf("count = %d, want 2", count)
	}

	if err := storage.DeleteAll("operator", testAsset); err != nil {
		t.Fatalf("delete all: %v", err)
	}
	if count := storage.Count(testAsset); count != 0 {
		t.Fatalf("count = %d, want 0", count)
	}
}

func TestCollectorControllerSchedule(t *testing.T) {
	acl := newAccess(t)
	storage := NewCollectorStorage(acl)
	ctrl := NewCollectorController("collector-controller", []uint{150, 90, 60}, storage, acl)

	for _, collector := range []string{"first", "second", "third", "fourth"} {
		if err := ctrl.AddCollector("operator", testAsset, collector); err != nil {
			t.Fatalf("add collector %s: %v", collector, err)
		}
	}

	// A fourth collector exists but the schedule only funds three.
	want := []entity.CollectorRoyalty{
		{Recipient: "first", Bps: 150, Amount: 15},
		{Recipient: "second", Bps: 90, Amount: 9},
		{Recipient: "third", Bps: 60, Amount: 6},
	}
	if got := ctrl.Payees(testAsset, 1000); !reflect.DeepEqual(got, want) {
		t.Fatalf("payees = %v, want %v", got, want)
	}

	payee, err := ctrl.Payee(testAsset, 1, 1000)
	if err != nil {
		t.Fatalf("payee: %v", err)
	}
	if payee != want[1] {
		t.Fatalf("payee = %+v, want %+v", payee, want[1])
	}

	if _, err := ctrl.Payee(testAsset, 3, 1000); !errors.Is(err, ErrIndexOutOfRange) {
		t.Fatalf("expected ErrIndexOutOfRange for unscheduled index, got %v", err)
	}
}

func TestCollectorControllerRequiresRole(t *testing.T) {
	acl := newAccess(t)
	ctrl := NewCollectorController("collector-controller", []uint{150}, NewCollectorStorage(acl), acl)

	if err := ctrl.AddCollector("intruder", testAsset, "first"); !errors.Is(err, access.ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
}
