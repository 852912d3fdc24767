package allowlist

import (
	"errors"
	"fmt"
	"sync"

	"github.com/artmart/marketplace-engine/internal/access"
	"github.com/artmart/marketplace-engine/internal/entity"
	"github.com/artmart/marketplace-engine/internal/killswitch"
	"go.uber.org/zap"
)

var ErrZeroContract = errors.New("contract address should not be zero")

// Allowlist records which asset contracts may be traded on the
// marketplace, per network.
type Allowlist interface {
	Allow(caller, contract, network string) error
	Remove(caller, contract, network string) error
	IsAllowed(contract, network string) bool
}

type allowlist struct {
	mu      sync.RWMutex
	entries map[string]bool
	guard   killswitch.Guard
	acl     access.Authorizer
}

func NewAllowlist(guard killswitch.Guard, acl access.Authorizer) Allowlist {
	return &allowlist{
		entries: make(map[string]bool),
		guard:   guard,
		acl:     acl,
	}
}

func (a *allowlist) Allow(caller, contract, network string) error {
	if err := a.guard.RequireActive(); err != nil {
		return err
	}
	if err := a.acl.RequireRole(access.AllowlistAuthorizedRole, caller); err != nil {
		return err
	}
	if contract == entity.ZeroAddress {
		return ErrZeroContract
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	a.entries[key(contract, network)] = true

	zap.L().With(
		zap.String("contract", contract),
		zap.String("network", network),
	).Info("Allowlist: Contract allowed")

	return nil
}

func (a *allowlist) Remove(caller, contract, network string) error {
	if err := a.guard.RequireActive(); err != nil {
		return err
	}
	if err := a.acl.RequireRole(access.AllowlistAuthorizedRole, caller); err != nil {
		return err
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	delete(a.entries, key(contract, network))

	zap.L().With(
		zap.String("contract", contract),
		zap.String("network", network),
	).Info("Allowlist: Contract removed")

	return nil
}

func (a *allowlist) IsAllowed(contract, network string) bool {
	a.mu.RLock()
	defer a.mu.RUnlock()

	return a.entries[key(contract, network)]
}

func key(contract, network string) string {
	return fmt.Sprintf("%s:%s", network, contract)
}
