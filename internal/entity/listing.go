package entity

// Payee is a single receiver inside a payment split. Amount is the exact
// number of currency units to transfer; Percent is kept for bookkeeping and
// is never recomputed at disbursement time.
type Payee struct {
	WalletAddress string `json:"walletAddress"`
	Percent       uint   `json:"percent"`
	Amount        uint64 `json:"amount"`
}

// Listing is an active sale offer for a single asset. A private listing
// reports price zero until a buyer has been bound to it.
type Listing struct {
	Asset     AssetID  `json:"asset"`
	Seller    string   `json:"seller"`
	Buyer     string   `json:"buyer"`
	Price     uint64   `json:"price"`
	Currency  Currency `json:"currency"`
	Payees    []Payee  `json:"payees"`
	IsPrivate bool     `json:"isPrivate"`
}

func (l Listing) Slug() string {
	return CreateAssetSlug(l.Asset.TokenID, l.Asset.Contract)
}

// VisiblePrice hides the agreed price of a private listing until the buyer
// has been bound.
func (l Listing) VisiblePrice() uint64 {
	if l.IsPrivate && l.Buyer == ZeroAddress {
		return 0
	}
	return l.Price
}

func (l Listing) IsActive() bool {
	return l.Seller != ZeroAddress
}
