package royalty

import (
	"errors"
	"fmt"
	"sync"

	"github.com/artmart/marketplace-engine/internal/access"
	"github.com/artmart/marketplace-engine/internal/entity"
	"go.uber.org/zap"
)

var (
	ErrIndexOutOfRange = errors.New("collector index out of range")
	ErrZeroRecipient   = errors.New("recipient should not be zero")
)

// CollectorStorage keeps, per asset, the ordered chain of past collectors
// entitled to a royalty on future resales. The chain is append-only except
// for explicit removals, which preserve the order of the remaining
// entries.
type CollectorStorage interface {
	Add(caller string, asset entity.AssetID, recipient string) error
	Insert(caller string, asset entity.AssetID, index int, recipient string) error
	Remove(caller string, asset entity.AssetID, index int) error
	DeleteAll(caller string, asset entity.AssetID) error
	SetRecipients(caller string, asset entity.AssetID, recipients []string) error
	Recipient(asset entity.AssetID, index int) (string, error)
	Recipients(asset entity.AssetID) []string
	Count(asset entity.AssetID) int
}

type collectorStorage struct {
	mu     sync.RWMutex
	chains map[entity.AssetID][]string
	acl    access.Authorizer
}

func NewCollectorStorage(acl access.Authorizer) CollectorStorage {
	return &collectorStorage{
		chains: make(map[entity.AssetID][]string),
		acl:    acl,
	}
}

func (s *collectorStorage) Add(caller string, asset entity.AssetID, recipient string) error {
	if err := s.authorize(caller); err != nil {
		return err
	}
	if recipient == entity.ZeroAddress {
		return ErrZeroRecipient
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.chains[asset] = append(s.chains[asset], recipient)

	zap.L().With(
		zap.String("contract", asset.Contract),
		zap.Uint64("tokenId", asset.TokenID),
		zap.String("recipient", recipient),
		zap.Int("position", len(s.chains[asset])-1),
	).Info("CollectorRoyalty: Collector appended")

	return nil
}

func (s *collectorStorage) Insert(caller string, asset entity.AssetID, index int, recipient string) error {
	if err := s.authorize(caller); err != nil {
		return err
	}
	if recipient == entity.ZeroAddress {
		return ErrZeroRecipient
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	chain := s.chains[asset]
	if index < 0 || index > len(chain) {
		return outOfRange(index, len(chain))
	}

	chain = append(chain, "")
	copy(chain[index+1:], chain[index:])
	chain[index] = recipient
	s.chains[asset] = chain

	return nil
}

func (s *collectorStorage) Remove(caller string, asset entity.AssetID, index int) error {
	if err := s.authorize(caller); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	chain := s.chains[asset]
	if index < 0 || index >= len(chain) {
		return outOfRange(index, len(chain))
	}

	s.chains[asset] = append(chain[:index], chain[index+1:]...)

	return nil
}

func (s *collectorStorage) DeleteAll(caller string, asset entity.AssetID) error {
	if err := s.authorize(caller); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.chains, asset)

	return nil
}

func (s *collectorStorage) SetRecipients(caller string, asset entity.AssetID, recipients []string) error {
	if err := s.authorize(caller); err != nil {
		return err
	}
	for _, recipient := range recipients {
		if recipient == entity.ZeroAddress {
			return ErrZeroRecipient
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.chains[asset] = append([]string(nil), recipients...)

	return nil
}

func (s *collectorStorage) Recipient(asset entity.AssetID, index int) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	chain := s.chains[asset]
	if index < 0 || index >= len(chain) {
		return entity.ZeroAddress, outOfRange(index, len(chain))
	}

	return chain[index], nil
}

func (s *collectorStorage) Recipients(asset entity.AssetID) []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return append([]string(nil), s.chains[asset]...)
}

func (s *collectorStorage) Count(asset entity.AssetID) int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.chains[asset])
}

func (s *collectorStorage) authorize(caller string) error {
	return s.acl.RequireRole(access.CollectorRoyaltyStorageAuthorizedRole, caller)
}

func outOfRange(index, length int) error {
	return fmt.Errorf("%w: index %d, length %d", ErrIndexOutOfRange, index, length)
}
