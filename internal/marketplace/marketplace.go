package marketplace

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/artmart/marketplace-engine/internal/access"
	"github.com/artmart/marketplace-engine/internal/allowlist"
	"github.com/artmart/marketplace-engine/internal/entity"
	"github.com/artmart/marketplace-engine/internal/event"
	"github.com/artmart/marketplace-engine/internal/killswitch"
	"github.com/artmart/marketplace-engine/internal/membership"
	"github.com/artmart/marketplace-engine/internal/payment"
	"github.com/artmart/marketplace-engine/internal/royalty"
	"github.com/artmart/marketplace-engine/internal/saledata"
	"github.com/artmart/marketplace-engine/internal/token"
	uuid "github.com/nu7hatch/gouuid"
	"go.uber.org/zap"
)

var (
	ErrNotListed           = errors.New("asset is not listed")
	ErrSaleInProgress      = errors.New("a sale for this asset is already settling")
	ErrZeroBuyer           = errors.New("buyer should not be zero")
	ErrNotAllowlisted      = errors.New("asset contract is not allowlisted")
	ErrPriceTooLow         = errors.New("price is below the primary sale minimum")
	ErrInvalidPayees       = errors.New("payee percentages and commission must cover the full price")
	ErrBuyerNotAssigned    = errors.New("private listing has no buyer assigned")
	ErrWrongBuyer          = errors.New("listing is reserved for another buyer")
	ErrSellerNotOwner      = errors.New("seller no longer owns the asset")
	ErrOperatorNotApproved = errors.New("marketplace is not approved to transfer the asset")
)

// Marketplace is the listing state machine. Every mutation is performed
// by an operator principal holding the marketplace role, on behalf of the
// named seller or buyer.
type Marketplace interface {
	ListNFT(caller, seller string, asset entity.AssetID, price uint64, currency entity.Currency, restrictedBuyer string, payees []entity.Payee, isPrivate bool) error
	SetBuyer(caller string, asset entity.AssetID, buyer string) error
	DelistNFT(caller string, asset entity.AssetID) error
	BuyListedNFT(caller, buyer string, asset entity.AssetID) (entity.SaleReceipt, error)
	Listing(asset entity.AssetID) (entity.Listing, error)
	Listings() []entity.Listing
}

type Config struct {
	Principal           string
	Network             string
	PlatformAddress     string
	CommissionBps       uint
	MinPrimarySalePrice uint64
}

type marketplace struct {
	mu       sync.RWMutex
	listings map[entity.AssetID]entity.Listing
	settling map[entity.AssetID]bool

	cfg        Config
	guard      killswitch.Guard
	acl        access.Authorizer
	allow      allowlist.Allowlist
	tokens     token.Registry
	members    membership.Controller
	artists    royalty.ArtistController
	collectors royalty.CollectorController
	payments   payment.Controller
	sales      saledata.Storage
}

func NewMarketplace(
	cfg Config,
	guard killswitch.Guard,
	acl access.Authorizer,
	allow allowlist.Allowlist,
	tokens token.Registry,
	members membership.Controller,
	artists royalty.ArtistController,
	collectors royalty.CollectorController,
	payments payment.Controller,
	sales saledata.Storage,
) Marketplace {
	return &marketplace{
		listings:   make(map[entity.AssetID]entity.Listing),
		settling:   make(map[entity.AssetID]bool),
		cfg:        cfg,
		guard:      guard,
		acl:        acl,
		allow:      allow,
		tokens:     tokens,
		members:    members,
		artists:    artists,
		collectors: collectors,
		payments:   payments,
		sales:      sales,
	}
}

// ListNFT creates a listing for the asset, replacing any existing one.
// A non-zero restrictedBuyer reserves the listing for that buyer from
// the start; SetBuyer can assign or change the buyer later.
func (m *marketplace) ListNFT(caller, seller string, asset entity.AssetID, price uint64, currency entity.Currency, restrictedBuyer string, payees []entity.Payee, isPrivate bool) error {
	if err := m.authorize(caller); err != nil {
		return err
	}
	if !currency.IsValid() {
		return fmt.Errorf("%w: %s", payment.ErrUnsupportedCurrency, currency)
	}
	if !m.allow.IsAllowed(asset.Contract, m.cfg.Network) {
		return ErrNotAllowlisted
	}

	owner, err := m.tokens.OwnerOf(asset)
	if err != nil {
		return err
	}
	if owner != seller {
		return ErrSellerNotOwner
	}
	if !m.tokens.IsApprovedForAll(seller, m.cfg.Principal) {
		return ErrOperatorNotApproved
	}

	if !m.sales.HasBeenPurchased(asset) && price < m.cfg.MinPrimarySalePrice {
		return ErrPriceTooLow
	}

	resolved, err := m.resolvePayees(seller, price, payees)
	if err != nil {
		return err
	}

	listing := entity.Listing{
		Asset:     asset,
		Seller:    seller,
		Buyer:     restrictedBuyer,
		Price:     price,
		Currency:  currency,
		Payees:    resolved,
		IsPrivate: isPrivate,
	}

	m.mu.Lock()
	if m.settling[asset] {
		m.mu.Unlock()
		return ErrSaleInProgress
	}
	_, relisted := m.listings[asset]
	m.listings[asset] = listing
	m.mu.Unlock()

	zap.L().With(
		zap.String("contract", asset.Contract),
		zap.Uint64("tokenId", asset.TokenID),
		zap.String("seller", seller),
		zap.Uint64("price", price),
		zap.Bool("private", isPrivate),
		zap.Bool("relisted", relisted),
	).Info("Marketplace: Asset listed")

	event.EmitEvent(event.AssetListedEvent, event.AssetListedPayload{Listing: listing})

	return nil
}

func (m *marketplace) SetBuyer(caller string, asset entity.AssetID, buyer string) error {
	if err := m.authorize(caller); err != nil {
		return err
	}
	if buyer == entity.ZeroAddress {
		return errors.New("buyer should not be zero")
	}

	m.mu.Lock()
	if m.settling[asset] {
		m.mu.Unlock()
		return ErrSaleInProgress
	}
	listing, exists := m.listings[asset]
	if !exists {
		m.mu.Unlock()
		return ErrNotListed
	}
	listing.Buyer = buyer
	m.listings[asset] = listing
	m.mu.Unlock()

	event.EmitEvent(event.BuyerAssignedEvent, event.BuyerAssignedPayload{Asset: asset, Buyer: buyer})

	return nil
}

// DelistNFT removes the listing. Delisting an asset that is not listed is
// a no-op.
func (m *marketplace) DelistNFT(caller string, asset entity.AssetID) error {
	if err := m.authorize(caller); err != nil {
		return err
	}

	m.mu.Lock()
	if m.settling[asset] {
		m.mu.Unlock()
		return ErrSaleInProgress
	}
	listing, exists := m.listings[asset]
	if exists {
		delete(m.listings, asset)
	}
	m.mu.Unlock()

	if !exists {
		return nil
	}

	zap.L().With(
		zap.String("contract", asset.Contract),
		zap.Uint64("tokenId", asset.TokenID),
		zap.String("seller", listing.Seller),
	).Info("Marketplace: Asset delisted")

	event.EmitEvent(event.AssetDelistedEvent, event.AssetDelistedPayload{Asset: asset, Seller: listing.Seller})

	return nil
}

// BuyListedNFT settles a purchase. The settlement runs under the guard's
// enter/exit bracket so an emergency pause waits for it instead of
// stranding it half-applied, and the asset is marked as settling so no
// concurrent purchase, relist, or delist can race the same listing.
func (m *marketplace) BuyListedNFT(caller, buyer string, asset entity.AssetID) (entity.SaleReceipt, error) {
	if err := m.guard.Enter(); err != nil {
		return entity.SaleReceipt{}, err
	}
	defer m.guard.Exit()

	if err := m.acl.RequireRole(access.MarketplaceAuthorizedRole, caller); err != nil {
		return entity.SaleReceipt{}, err
	}
	if buyer == entity.ZeroAddress {
		return entity.SaleReceipt{}, ErrZeroBuyer
	}

	m.mu.Lock()
	if m.settling[asset] {
		m.mu.Unlock()
		return entity.SaleReceipt{}, ErrSaleInProgress
	}
	listing, exists := m.listings[asset]
	if exists {
		m.settling[asset] = true
	}
	m.mu.Unlock()

	if !exists {
		return entity.SaleReceipt{}, ErrNotListed
	}

	defer func() {
		m.mu.Lock()
		delete(m.settling, asset)
		m.mu.Unlock()
	}()

	if listing.IsPrivate && listing.Buyer == entity.ZeroAddress {
		return entity.SaleReceipt{}, ErrBuyerNotAssigned
	}
	if listing.Buyer != entity.ZeroAddress && listing.Buyer != buyer {
		return entity.SaleReceipt{}, ErrWrongBuyer
	}

	owner, err := m.tokens.OwnerOf(asset)
	if err != nil {
		return entity.SaleReceipt{}, err
	}
	if owner != listing.Seller {
		return entity.SaleReceipt{}, ErrSellerNotOwner
	}
	if !m.tokens.IsApprovedForAll(listing.Seller, m.cfg.Principal) {
		return entity.SaleReceipt{}, ErrOperatorNotApproved
	}

	receipt := m.priceSale(listing, buyer)

	if err := m.payments.Pay(m.cfg.Principal, buyer, listing.Currency, receipt.TotalPrice); err != nil {
		return entity.SaleReceipt{}, err
	}

	if err := m.payments.DistributePayments(m.cfg.Principal, listing.Currency, m.payoutsFor(listing, receipt)); err != nil {
		if refundErr := m.payments.Refund(m.cfg.Principal, buyer, listing.Currency, receipt.TotalPrice); refundErr != nil {
			zap.L().With(zap.Error(refundErr)).Error("Marketplace: Failed to refund buyer after aborted sale")
		}
		return entity.SaleReceipt{}, err
	}

	if err := m.tokens.Transfer(m.cfg.Principal, listing.Seller, buyer, asset); err != nil {
		return entity.SaleReceipt{}, err
	}

	if err := m.sales.SetPurchased(m.cfg.Principal, asset, true); err != nil {
		return entity.SaleReceipt{}, err
	}

	// The outgoing seller joins the collector chain after a secondary
	// sale; the primary seller is the artist and never enters it.
	if !receipt.PrimarySale {
		if err := m.collectors.AddCollector(m.cfg.Principal, asset, listing.Seller); err != nil {
			return entity.SaleReceipt{}, err
		}
	}

	m.mu.Lock()
	delete(m.listings, asset)
	m.mu.Unlock()

	zap.L().With(
		zap.String("contract", asset.Contract),
		zap.Uint64("tokenId", asset.TokenID),
		zap.String("seller", listing.Seller),
		zap.String("buyer", buyer),
		zap.Uint64("totalPrice", receipt.TotalPrice),
		zap.Bool("primary", receipt.PrimarySale),
	).Info("Marketplace: Asset sold")

	event.EmitEvent(event.SaleCompletedEvent, event.SaleCompletedPayload{Receipt: receipt})

	return receipt, nil
}

func (m *marketplace) Listing(asset entity.AssetID) (entity.Listing, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	listing, exists := m.listings[asset]
	if !exists {
		return entity.Listing{}, ErrNotListed
	}

	return listing, nil
}

func (m *marketplace) Listings() []entity.Listing {
	m.mu.RLock()
	defer m.mu.RUnlock()

	listings := make([]entity.Listing, 0, len(m.listings))
	for _, listing := range m.listings {
		listings = append(listings, listing)
	}

	return listings
}

func (m *marketplace) authorize(caller string) error {
	if err := m.guard.RequireActive(); err != nil {
		return err
	}

	return m.acl.RequireRole(access.MarketplaceAuthorizedRole, caller)
}

// resolvePayees fixes each payee's amount from its percentage of the
// price. The percentages plus the platform commission must cover the full
// price, and the seller must be among the payees.
func (m *marketplace) resolvePayees(seller string, price uint64, payees []entity.Payee) ([]entity.Payee, error) {
	var totalBps uint
	sellerFound := false
	resolved := make([]entity.Payee, 0, len(payees))

	for _, payee := range payees {
		if payee.WalletAddress == entity.ZeroAddress {
			return nil, errors.New("payee wallet should not be zero")
		}
		if payee.WalletAddress == seller {
			sellerFound = true
		}
		totalBps += payee.Percent
		resolved = append(resolved, entity.Payee{
			WalletAddress: payee.WalletAddress,
			Percent:       payee.Percent,
			Amount:        entity.RoyaltyAmount(price, payee.Percent),
		})
	}

	if totalBps+m.cfg.CommissionBps != entity.BpsDenominator {
		return nil, ErrInvalidPayees
	}
	if !sellerFound {
		return nil, errors.New("seller must be among the payees")
	}

	return resolved, nil
}

// priceSale computes the full money split of a purchase. On a primary
// sale the artist royalty and the collector cascade do not apply; the
// whole collector fee accrues to the platform.
func (m *marketplace) priceSale(listing entity.Listing, buyer string) entity.SaleReceipt {
	basePrice := listing.Price
	collectorFee := m.members.CollectorFee(buyer, basePrice)
	primary := !m.sales.HasBeenPurchased(listing.Asset)

	var payeeTotal, sellerShare uint64
	for _, payee := range listing.Payees {
		payeeTotal += payee.Amount
		if payee.WalletAddress == listing.Seller {
			sellerShare += payee.Amount
		}
	}

	var artistRoyalty entity.RoyaltyPayment
	var collectorRoyalties []entity.CollectorRoyalty
	if !primary {
		artistRoyalty = m.artists.RoyaltyPayee(listing.Asset, basePrice)
		if artistRoyalty.Amount > sellerShare {
			artistRoyalty.Amount = sellerShare
		}
		collectorRoyalties = m.collectors.Payees(listing.Asset, basePrice)
	}

	// Collector royalties are funded by the buyer's collector fee. A
	// low-tier buyer brings a smaller fee pool, so the cascade is paid in
	// chain order until the pool runs out; the remainder is the platform
	// fee and can never go negative.
	feePool := collectorFee
	for i := range collectorRoyalties {
		if collectorRoyalties[i].Amount > feePool {
			collectorRoyalties[i].Amount = feePool
		}
		feePool -= collectorRoyalties[i].Amount
	}
	collectorTotal := collectorFee - feePool

	id := listing.Asset.String()
	if v4, err := uuid.NewV4(); err == nil {
		id = v4.String()
	}

	return entity.SaleReceipt{
		ID:                 id,
		Asset:              listing.Asset,
		Seller:             listing.Seller,
		Buyer:              buyer,
		Currency:           listing.Currency,
		BasePrice:          basePrice,
		TotalPrice:         basePrice + collectorFee,
		SellerProceeds:     payeeTotal - artistRoyalty.Amount,
		ArtistRoyalty:      artistRoyalty,
		CollectorRoyalties: collectorRoyalties,
		Commission: entity.RoyaltyPayment{
			Recipient: m.cfg.PlatformAddress,
			Amount:    basePrice - payeeTotal,
		},
		PlatformFee: entity.RoyaltyPayment{
			Recipient: m.cfg.PlatformAddress,
			Amount:    collectorFee - collectorTotal,
		},
		PrimarySale: primary,
		Timestamp:   time.Now().UTC(),
	}
}

// payoutsFor flattens a receipt into the concrete disbursement list. The
// artist royalty comes out of the seller payee's share; the commission and
// the undistributed collector fee go to the platform.
func (m *marketplace) payoutsFor(listing entity.Listing, receipt entity.SaleReceipt) []entity.RoyaltyPayment {
	payouts := make([]entity.RoyaltyPayment, 0, len(listing.Payees)+len(receipt.CollectorRoyalties)+2)

	royaltyDue := receipt.ArtistRoyalty.Amount
	for _, payee := range listing.Payees {
		amount := payee.Amount
		if payee.WalletAddress == listing.Seller && royaltyDue > 0 {
			deducted := royaltyDue
			if deducted > amount {
				deducted = amount
			}
			amount -= deducted
			royaltyDue -= deducted
		}
		payouts = append(payouts, entity.RoyaltyPayment{Recipient: payee.WalletAddress, Amount: amount})
	}

	if receipt.ArtistRoyalty.Amount > 0 {
		payouts = append(payouts, receipt.ArtistRoyalty)
	}
	for _, c := range receipt.CollectorRoyalties {
		payouts = append(payouts, entity.RoyaltyPayment{Recipient: c.Recipient, Amount: c.Amount})
	}

	payouts = append(payouts, entity.RoyaltyPayment{
		Recipient: m.cfg.PlatformAddress,
		Amount:    receipt.Commission.Amount + receipt.PlatformFee.Amount,
	})

	return payouts
}
