package entity

import (
	"fmt"

	"github.com/gosimple/slug"
)

// ZeroAddress is the sentinel for "no principal".
const ZeroAddress = ""

// BpsDenominator is the basis point scale (10000 = 100%).
const BpsDenominator = 10000

// AssetID identifies a single token inside an asset contract.
type AssetID struct {
	Contract string `json:"contract"`
	TokenID  uint64 `json:"tokenId"`
}

func NewAssetID(contract string, tokenID uint64) AssetID {
	return AssetID{Contract: contract, TokenID: tokenID}
}

func (a AssetID) Slug() string {
	return CreateAssetSlug(a.TokenID, a.Contract)
}

func (a AssetID) String() string {
	return fmt.Sprintf("%s:%d", a.Contract, a.TokenID)
}

func CreateAssetSlug(tokenID uint64, contract string) string {
	return slug.Make(fmt.Sprintf("asset-%d-%s", tokenID, contract))
}

// Entity is anything that can be persisted to the audit index.
type Entity interface {
	Slug() string
}
