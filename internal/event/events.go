package event

import "github.com/artmart/marketplace-engine/internal/entity"

type Type string

const (
	AssetListedEvent   Type = "AssetListedEvent"
	AssetDelistedEvent Type = "AssetDelistedEvent"
	BuyerAssignedEvent Type = "BuyerAssignedEvent"
	SaleCompletedEvent Type = "SaleCompletedEvent"
	SystemPausedEvent  Type = "SystemPausedEvent"
	SystemResumedEvent Type = "SystemResumedEvent"
)

type AssetListedPayload struct {
	Listing entity.Listing
}

type AssetDelistedPayload struct {
	Asset  entity.AssetID
	Seller string
}

type BuyerAssignedPayload struct {
	Asset entity.AssetID
	Buyer string
}

type SaleCompletedPayload struct {
	Receipt entity.SaleReceipt
}
