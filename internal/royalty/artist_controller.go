package royalty

import (
	"github.com/artmart/marketplace-engine/internal/access"
	"github.com/artmart/marketplace-engine/internal/entity"
	"github.com/artmart/marketplace-engine/internal/token"
)

// ArtistController resolves the artist royalty payee for a sale. An
// explicit override in storage wins; otherwise the royalty embedded at
// mint time applies; unknown assets carry no royalty.
type ArtistController interface {
	SetRoyalty(caller string, asset entity.AssetID, receiver string, bps uint) error
	RoyaltyPayee(asset entity.AssetID, salePrice uint64) entity.RoyaltyPayment
}

type artistController struct {
	principal string
	storage   ArtistStorage
	tokens    token.Registry
	acl       access.Authorizer
}

// NewArtistController builds a controller acting through the given
// principal, which must hold the artist royalty storage role.
func NewArtistController(principal string, storage ArtistStorage, tokens token.Registry, acl access.Authorizer) ArtistController {
	return &artistController{principal: principal, storage: storage, tokens: tokens, acl: acl}
}

func (c *artistController) SetRoyalty(caller string, asset entity.AssetID, receiver string, bps uint) error {
	if err := c.acl.RequireRole(access.ArtistRoyaltyControllerAuthorizedRole, caller); err != nil {
		return err
	}

	return c.storage.SetRoyalty(c.principal, asset, entity.ArtistRoyalty{Receiver: receiver, Bps: bps})
}

func (c *artistController) RoyaltyPayee(asset entity.AssetID, salePrice uint64) entity.RoyaltyPayment {
	royalty, exists := c.storage.Royalty(asset)
	if !exists {
		minted, err := c.tokens.DefaultRoyalty(asset)
		if err != nil {
			return entity.RoyaltyPayment{Recipient: entity.ZeroAddress}
		}
		royalty = minted
	}

	return entity.RoyaltyPayment{
		Recipient: royalty.Receiver,
		Amount:    entity.RoyaltyAmount(salePrice, royalty.Bps),
	}
}
