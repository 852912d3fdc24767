package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/artmart/marketplace-engine/internal/entity"
	"github.com/artmart/marketplace-engine/internal/marketplace"
	"github.com/artmart/marketplace-engine/internal/repository"
)

type fakeMarket struct {
	listings map[entity.AssetID]entity.Listing
}

func (f fakeMarket) ListNFT(caller, seller string, asset entity.AssetID, price uint64, currency entity.Currency, restrictedBuyer string, payees []entity.Payee, isPrivate bool) error {
	return nil
}

func (f fakeMarket) SetBuyer(caller string, asset entity.AssetID, buyer string) error {
	return nil
}

func (f fakeMarket) DelistNFT(caller string, asset entity.AssetID) error {
	return nil
}

func (f fakeMarket) BuyListedNFT(caller, buyer string, asset entity.AssetID) (entity.SaleReceipt, error) {
	return entity.SaleReceipt{}, nil
}

func (f fakeMarket) Listing(asset entity.AssetID) (entity.Listing, error) {
	listing, ok := f.listings[asset]
	if !ok {
		return entity.Listing{}, marketplace.ErrNotListed
	}
	return listing, nil
}

func (f fakeMarket) Listings() []entity.Listing {
	listings := make([]entity.Listing, 0, len(f.listings))
	for _, listing := range f.listings {
		listings = append(listings, listing)
	}
	return listings
}

type fakeCollectors struct {
	recipients []string
}

func (f fakeCollectors) Add(caller string, asset entity.AssetID, recipient string) error { return nil }
func (f fakeCollectors) Insert(caller string, asset entity.AssetID, index int, recipient string) error {
	return nil
}
func (f fakeCollectors) Remove(caller string, asset entity.AssetID, index int) error { return nil }
func (f fakeCollectors) DeleteAll(caller string, asset entity.AssetID) error         { return nil }
func (f fakeCollectors) SetRecipients(caller string, asset entity.AssetID, recipients []string) error {
	return nil
}
func (f fakeCollectors) Recipient(asset entity.AssetID, index int) (string, error) { return "", nil }
func (f fakeCollectors) Recipients(asset entity.AssetID) []string                  { return f.recipients }
func (f fakeCollectors) Count(asset entity.AssetID) int                            { return len(f.recipients) }

type fakeSaleRepo struct {
	sales map[string]entity.SaleReceipt
}

func (f fakeSaleRepo) GetSale(id string) (entity.SaleReceipt, error) {
	sale, ok := f.sales[id]
	if !ok {
		return entity.SaleReceipt{}, repository.ErrSaleNotFound
	}
	return sale, nil
}

func (f fakeSaleRepo) GetSalesForAsset(contract string, tokenId uint64) ([]entity.SaleReceipt, error) {
	return nil, nil
}

func (f fakeSaleRepo) GetSalesForAccount(account string, size int) ([]entity.SaleReceipt, error) {
	return nil, nil
}

type fakeListingRepo struct{}

func (f fakeListingRepo) GetListing(contract string, tokenId uint64) (entity.Listing, error) {
	return entity.Listing{}, repository.ErrListingNotFound
}

func (f fakeListingRepo) GetListingsForSeller(seller string, size int) ([]entity.Listing, error) {
	return nil, nil
}

func (f fakeListingRepo) GetListingActions(contract string, tokenId uint64, size int) ([]entity.ListingAction, error) {
	return []entity.ListingAction{}, nil
}

func newServer(listings map[entity.AssetID]entity.Listing) Server {
	return NewServer(
		fakeMarket{listings: listings},
		fakeCollectors{recipients: []string{"collector1", "collector2"}},
		fakeSaleRepo{sales: map[string]entity.SaleReceipt{"abc": {ID: "abc"}}},
		fakeListingRepo{},
	)
}

func TestGetListingHidesPrivatePrice(t *testing.T) {
	asset := entity.NewAssetID("0xart", 1)
	server := newServer(map[entity.AssetID]entity.Listing{
		asset: {Asset: asset, Seller: "artist", Price: 1000, Currency: entity.StableCurrency, IsPrivate: true},
	})

	req := httptest.NewRequest("GET", "/listings/0xart/1", nil)
	rec := httptest.NewRecorder()
	server.Router().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var view listingView
	if err := json.NewDecoder(rec.Body).Decode(&view); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if view.Price != 0 {
		t.Fatalf("price = %d, want 0 for private listing without buyer", view.Price)
	}
}

func TestGetListingNotFound(t *testing.T) {
	server := newServer(nil)

	req := httptest.NewRequest("GET", "/listings/0xart/9", nil)
	rec := httptest.NewRecorder()
	server.Router().ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
}

func TestGetSale(t *testing.T) {
	server := newServer(nil)

	req := httptest.NewRequest("GET", "/sales/abc", nil)
	rec := httptest.NewRecorder()
	server.Router().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var sale entity.SaleReceipt
	if err := json.NewDecoder(rec.Body).Decode(&sale); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if sale.ID != "abc" {
		t.Fatalf("sale id = %q, want abc", sale.ID)
	}

	req = httptest.NewRequest("GET", "/sales/missing", nil)
	rec = httptest.NewRecorder()
	server.Router().ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
}

func TestGetCollectors(t *testing.T) {
	server := newServer(nil)

	req := httptest.NewRequest("GET", "/assets/0xart/1/collectors", nil)
	rec := httptest.NewRecorder()
	server.Router().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var recipients []string
	if err := json.NewDecoder(rec.Body).Decode(&recipients); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(recipients) != 2 || recipients[0] != "collector1" {
		t.Fatalf("recipients = %v, want [collector1 collector2]", recipients)
	}
}
