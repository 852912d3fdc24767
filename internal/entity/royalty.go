package entity

// ArtistRoyalty is a custom royalty override for a single asset. When no
// override exists the asset's embedded default applies instead.
type ArtistRoyalty struct {
	Receiver string `json:"receiver"`
	Bps      uint   `json:"bps"`
}

// CollectorRoyalty is one entitled prior collector inside the royalty
// cascade of a resale.
type CollectorRoyalty struct {
	Recipient string `json:"recipient"`
	Bps       uint   `json:"bps"`
	Amount    uint64 `json:"amount"`
}

// RoyaltyAmount applies a basis point share to a sale price.
func RoyaltyAmount(salePrice uint64, bps uint) uint64 {
	return salePrice * uint64(bps) / BpsDenominator
}
