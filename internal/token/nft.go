package token

import (
	"errors"
	"sync"

	"github.com/artmart/marketplace-engine/internal/entity"
	"go.uber.org/zap"
)

var (
	ErrUnknownToken       = errors.New("unknown token")
	ErrNotOwner           = errors.New("caller is not the token owner")
	ErrNotApproved        = errors.New("caller is not approved for the token")
	ErrTokenAlreadyMinted = errors.New("token already minted")
	ErrRoyaltyLocked      = errors.New("artist royalty cannot change once the token is minted")
)

// Registry tracks NFT ownership and operator approvals, and carries the
// default royalty each token was minted with. The royalty can be staged
// ahead of the mint and is frozen the moment the token exists.
type Registry interface {
	Mint(caller string, asset entity.AssetID, royalty entity.ArtistRoyalty) error
	OwnerOf(asset entity.AssetID) (string, error)
	Transfer(caller, from, to string, asset entity.AssetID) error
	SetApprovalForAll(caller, operator string, approved bool)
	IsApprovedForAll(owner, operator string) bool
	SetRoyalty(asset entity.AssetID, royalty entity.ArtistRoyalty) error
	DefaultRoyalty(asset entity.AssetID) (entity.ArtistRoyalty, error)
}

type registry struct {
	mu        sync.RWMutex
	owners    map[entity.AssetID]string
	royalties map[entity.AssetID]entity.ArtistRoyalty
	operators map[string]map[string]bool
}

func NewRegistry() Registry {
	return &registry{
		owners:    make(map[entity.AssetID]string),
		royalties: make(map[entity.AssetID]entity.ArtistRoyalty),
		operators: make(map[string]map[string]bool),
	}
}

func (r *registry) Mint(caller string, asset entity.AssetID, royalty entity.ArtistRoyalty) error {
	if caller == entity.ZeroAddress {
		return ErrZeroAccount
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.owners[asset]; exists {
		return ErrTokenAlreadyMinted
	}

	if royalty == (entity.ArtistRoyalty{}) {
		if staged, ok := r.royalties[asset]; ok {
			royalty = staged
		}
	}

	r.owners[asset] = caller
	r.royalties[asset] = royalty

	zap.L().With(
		zap.String("contract", asset.Contract),
		zap.Uint64("tokenId", asset.TokenID),
		zap.String("owner", caller),
	).Info("Registry: Token minted")

	return nil
}

func (r *registry) OwnerOf(asset entity.AssetID) (string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	owner, exists := r.owners[asset]
	if !exists {
		return entity.ZeroAddress, ErrUnknownToken
	}

	return owner, nil
}

func (r *registry) Transfer(caller, from, to string, asset entity.AssetID) error {
	if to == entity.ZeroAddress {
		return ErrZeroAccount
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	owner, exists := r.owners[asset]
	if !exists {
		return ErrUnknownToken
	}
	if owner != from {
		return ErrNotOwner
	}
	if caller != owner && !r.operators[owner][caller] {
		return ErrNotApproved
	}

	r.owners[asset] = to

	zap.L().With(
		zap.String("contract", asset.Contract),
		zap.Uint64("tokenId", asset.TokenID),
		zap.String("from", from),
		zap.String("to", to),
	).Debug("Registry: Token transferred")

	return nil
}

func (r *registry) SetApprovalForAll(caller, operator string, approved bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.operators[caller] == nil {
		r.operators[caller] = make(map[string]bool)
	}
	r.operators[caller][operator] = approved
}

func (r *registry) IsApprovedForAll(owner, operator string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.operators[owner][operator]
}

// SetRoyalty stages the default royalty for a token id ahead of the mint.
// Once the token exists the royalty is locked.
func (r *registry) SetRoyalty(asset entity.AssetID, royalty entity.ArtistRoyalty) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.owners[asset]; exists {
		return ErrRoyaltyLocked
	}

	r.royalties[asset] = royalty

	return nil
}

func (r *registry) DefaultRoyalty(asset entity.AssetID) (entity.ArtistRoyalty, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if _, exists := r.owners[asset]; !exists {
		return entity.ArtistRoyalty{}, ErrUnknownToken
	}

	return r.royalties[asset], nil
}
