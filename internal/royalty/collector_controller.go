package royalty

import (
	"github.com/artmart/marketplace-engine/internal/access"
	"github.com/artmart/marketplace-engine/internal/entity"
	"go.uber.org/zap"
)

// CollectorController prices the collector royalty chain for a sale. The
// bps schedule is positional: the first collector earns schedule[0], the
// second schedule[1], and so on. When the chain and the schedule differ
// in length, the shorter of the two applies.
type CollectorController interface {
	AddCollector(caller string, asset entity.AssetID, recipient string) error
	RemoveCollector(caller string, asset entity.AssetID, index int) error
	Payee(asset entity.AssetID, index int, salePrice uint64) (entity.CollectorRoyalty, error)
	Payees(asset entity.AssetID, salePrice uint64) []entity.CollectorRoyalty
}

type collectorController struct {
	principal string
	schedule  []uint
	storage   CollectorStorage
	acl       access.Authorizer
}

// NewCollectorController builds a controller acting through the given
// principal, which must hold the collector royalty storage role.
func NewCollectorController(principal string, schedule []uint, storage CollectorStorage, acl access.Authorizer) CollectorController {
	return &collectorController{
		principal: principal,
		schedule:  append([]uint(nil), schedule...),
		storage:   storage,
		acl:       acl,
	}
}

func (c *collectorController) AddCollector(caller string, asset entity.AssetID, recipient string) error {
	if err := c.acl.RequireRole(access.CollectorRoyaltyControllerAuthorizedRole, caller); err != nil {
		return err
	}

	return c.storage.Add(c.principal, asset, recipient)
}

func (c *collectorController) RemoveCollector(caller string, asset entity.AssetID, index int) error {
	if err := c.acl.RequireRole(access.CollectorRoyaltyControllerAuthorizedRole, caller); err != nil {
		return err
	}

	return c.storage.Remove(c.principal, asset, index)
}

func (c *collectorController) Payee(asset entity.AssetID, index int, salePrice uint64) (entity.CollectorRoyalty, error) {
	recipient, err := c.storage.Recipient(asset, index)
	if err != nil {
		return entity.CollectorRoyalty{}, err
	}
	if index >= len(c.schedule) {
		return entity.CollectorRoyalty{}, outOfRange(index, len(c.schedule))
	}

	bps := c.schedule[index]

	return entity.CollectorRoyalty{
		Recipient: recipient,
		Bps:       bps,
		Amount:    entity.RoyaltyAmount(salePrice, bps),
	}, nil
}

func (c *collectorController) Payees(asset entity.AssetID, salePrice uint64) []entity.CollectorRoyalty {
	recipients := c.storage.Recipients(asset)

	count := len(recipients)
	if len(c.schedule) < count {
		count = len(c.schedule)
		zap.L().With(
			zap.String("contract", asset.Contract),
			zap.Uint64("tokenId", asset.TokenID),
			zap.Int("collectors", len(recipients)),
			zap.Int("schedule", len(c.schedule)),
		).Warn("CollectorRoyalty: Chain longer than schedule, truncating")
	}

	payees := make([]entity.CollectorRoyalty, 0, count)
	for i := 0; i < count; i++ {
		payees = append(payees, entity.CollectorRoyalty{
			Recipient: recipients[i],
			Bps:       c.schedule[i],
			Amount:    entity.RoyaltyAmount(salePrice, c.schedule[i]),
		})
	}

	return payees
}
