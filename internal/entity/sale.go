package entity

import (
	"fmt"
	"time"

	"github.com/gosimple/slug"
)

// RoyaltyPayment records a single royalty or fee disbursement of a sale.
type RoyaltyPayment struct {
	Recipient string `json:"recipient"`
	Amount    uint64 `json:"amount"`
}

// SaleReceipt is the auditable outcome of one completed purchase. The
// recorded amounts plus the seller proceeds always sum to the total price
// paid by the buyer.
type SaleReceipt struct {
	ID                 string             `json:"id"`
	Asset              AssetID            `json:"asset"`
	Seller             string             `json:"seller"`
	Buyer              string             `json:"buyer"`
	Currency           Currency           `json:"currency"`
	BasePrice          uint64             `json:"basePrice"`
	TotalPrice         uint64             `json:"totalPrice"`
	SellerProceeds     uint64             `json:"sellerProceeds"`
	ArtistRoyalty      RoyaltyPayment     `json:"artistRoyalty"`
	CollectorRoyalties []CollectorRoyalty `json:"collectorRoyalties"`
	Commission         RoyaltyPayment     `json:"commission"`
	PlatformFee        RoyaltyPayment     `json:"platformFee"`
	PrimarySale        bool               `json:"primarySale"`
	Timestamp          time.Time          `json:"timestamp"`
}

func (s SaleReceipt) Slug() string {
	return slug.Make(fmt.Sprintf("sale-%s", s.ID))
}

// Distributed is everything the buyer paid, however it was split.
func (s SaleReceipt) Distributed() uint64 {
	total := s.SellerProceeds + s.ArtistRoyalty.Amount + s.Commission.Amount + s.PlatformFee.Amount
	for _, c := range s.CollectorRoyalties {
		total += c.Amount
	}
	return total
}

// ListingActionType classifies marketplace actions in the audit index.
type ListingActionType string

const (
	ListedAction   ListingActionType = "Listed"
	DelistedAction ListingActionType = "Delisted"
	SoldAction     ListingActionType = "Sold"
)

// ListingAction is an audit trail entry for a listing state change.
type ListingAction struct {
	Type      ListingActionType `json:"type"`
	Asset     AssetID           `json:"asset"`
	Seller    string            `json:"seller"`
	Price     uint64            `json:"price"`
	Currency  Currency          `json:"currency"`
	IsPrivate bool              `json:"isPrivate"`
	Timestamp time.Time         `json:"timestamp"`
}

func (a ListingAction) Slug() string {
	return slug.Make(fmt.Sprintf("action-%s-%d-%s-%d",
		a.Type, a.Asset.TokenID, a.Asset.Contract, a.Timestamp.UnixNano()))
}
