package royalty

import (
	"errors"
	"sync"

	"github.com/artmart/marketplace-engine/internal/access"
	"github.com/artmart/marketplace-engine/internal/entity"
	"go.uber.org/zap"
)

var (
	ErrBpsTooHigh   = errors.New("royalty bps exceeds the denominator")
	ErrZeroReceiver = errors.New("royalty receiver should not be zero")
)

// ArtistStorage holds per-asset artist royalty overrides. Assets without
// an override fall back to the royalty embedded at mint time.
type ArtistStorage interface {
	SetRoyalty(caller string, asset entity.AssetID, royalty entity.ArtistRoyalty) error
	Royalty(asset entity.AssetID) (entity.ArtistRoyalty, bool)
	DeleteRoyalty(caller string, asset entity.AssetID) error
}

type artistStorage struct {
	mu        sync.RWMutex
	royalties map[entity.AssetID]entity.ArtistRoyalty
	acl       access.Authorizer
}

func NewArtistStorage(acl access.Authorizer) ArtistStorage {
	return &artistStorage{
		royalties: make(map[entity.AssetID]entity.ArtistRoyalty),
		acl:       acl,
	}
}

func (s *artistStorage) SetRoyalty(caller string, asset entity.AssetID, royalty entity.ArtistRoyalty) error {
	if err := s.acl.RequireRole(access.ArtistRoyaltyStorageAuthorizedRole, caller); err != nil {
		return err
	}
	if royalty.Bps > entity.BpsDenominator {
		return ErrBpsTooHigh
	}
	if royalty.Receiver == entity.ZeroAddress && royalty.Bps > 0 {
		return ErrZeroReceiver
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.royalties[asset] = royalty

	zap.L().With(
		zap.String("contract", asset.Contract),
		zap.Uint64("tokenId", asset.TokenID),
		zap.String("receiver", royalty.Receiver),
		zap.Uint("bps", royalty.Bps),
	).Info("ArtistRoyalty: Royalty set")

	return nil
}

func (s *artistStorage) Royalty(asset entity.AssetID) (entity.ArtistRoyalty, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	royalty, exists := s.royalties[asset]

	return royalty, exists
}

func (s *artistStorage) DeleteRoyalty(caller string, asset entity.AssetID) error {
	if err := s.acl.RequireRole(access.ArtistRoyaltyStorageAuthorizedRole, caller); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.royalties, asset)

	return nil
}
