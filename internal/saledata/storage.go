package saledata

import (
	"sync"

	"github.com/artmart/marketplace-engine/internal/access"
	"github.com/artmart/marketplace-engine/internal/entity"
	"github.com/artmart/marketplace-engine/internal/killswitch"
	"go.uber.org/zap"
)

// Storage remembers whether an asset has ever been purchased through the
// marketplace. The flag decides whether a sale is primary or secondary.
type Storage interface {
	HasBeenPurchased(asset entity.AssetID) bool
	SetPurchased(caller string, asset entity.AssetID, purchased bool) error
}

type storage struct {
	mu        sync.RWMutex
	purchased map[entity.AssetID]bool
	guard     killswitch.Guard
	acl       access.Authorizer
}

func NewStorage(guard killswitch.Guard, acl access.Authorizer) Storage {
	return &storage{
		purchased: make(map[entity.AssetID]bool),
		guard:     guard,
		acl:       acl,
	}
}

func (s *storage) HasBeenPurchased(asset entity.AssetID) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.purchased[asset]
}

// SetPurchased flips the first-sale flag. Writing the value the asset
// already has changes nothing.
func (s *storage) SetPurchased(caller string, asset entity.AssetID, purchased bool) error {
	if err := s.guard.RequireActive(); err != nil {
		return err
	}
	if err := s.acl.RequireRole(access.SaleDataAuthorizedRole, caller); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.purchased[asset] == purchased {
		return nil
	}

	s.purchased[asset] = purchased

	zap.L().With(
		zap.String("contract", asset.Contract),
		zap.Uint64("tokenId", asset.TokenID),
		zap.Bool("purchased", purchased),
	).Info("SaleData: Purchase flag updated")

	return nil
}
