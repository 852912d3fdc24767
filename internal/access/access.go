package access

import (
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"
)

// Role is a named capability. Every privileged operation in the engine
// checks membership of exactly one role.
type Role string

const (
	AdminRole                                Role = "ADMIN_ROLE"
	KillswitchRole                           Role = "KILLSWITCH_ROLE"
	AllowlistAuthorizedRole                  Role = "ALLOWLIST_AUTHORIZED_ROLE"
	ArtistRoyaltyStorageAuthorizedRole       Role = "ARTIST_ROYALTY_STORAGE_AUTHORIZED_ROLE"
	ArtistRoyaltyControllerAuthorizedRole    Role = "ARTIST_ROYALTY_CONTROLLER_AUTHORIZED_ROLE"
	CollectorRoyaltyStorageAuthorizedRole    Role = "COLLECTOR_ROYALTY_STORAGE_AUTHORIZED_ROLE"
	CollectorRoyaltyControllerAuthorizedRole Role = "COLLECTOR_ROYALTY_CONTROLLER_AUTHORIZED_ROLE"
	PaymentStorageAuthorizedRole             Role = "PAYMENT_STORAGE_AUTHORIZED_ROLE"
	PaymentControllerAuthorizedRole          Role = "PAYMENT_CONTROLLER_AUTHORIZED_ROLE"
	SaleDataAuthorizedRole                   Role = "SALE_DATA_AUTHORIZED_ROLE"
	MarketplaceAuthorizedRole                Role = "MARKETPLACE_AUTHORIZED_ROLE"
	MembershipAuthorizedRole                 Role = "MEMBERSHIP_AUTHORIZED_ROLE"
)

var ErrUnauthorized = errors.New("unauthorized")

// UnauthorizedError reports which principal was missing which role.
type UnauthorizedError struct {
	Principal string
	Role      Role
}

func (e UnauthorizedError) Error() string {
	return fmt.Sprintf("access control: account %s is missing role %s", e.Principal, e.Role)
}

func (e UnauthorizedError) Unwrap() error {
	return ErrUnauthorized
}

// Authorizer is the capability-check interface injected into every
// component that guards a mutation behind a role.
type Authorizer interface {
	HasRole(role Role, principal string) bool
	RequireRole(role Role, principal string) error
}

// Registry is the enumerable role membership store. Each role is
// administered by another role; the admin role administers itself.
type Registry struct {
	mu      sync.RWMutex
	members map[Role][]string
	admins  map[Role]Role
}

func NewRegistry(rootAdmin string) *Registry {
	r := &Registry{
		members: make(map[Role][]string),
		admins:  make(map[Role]Role),
	}

	if rootAdmin != "" {
		r.members[AdminRole] = []string{rootAdmin}
	}

	return r
}

func (r *Registry) HasRole(role Role, principal string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.indexOf(role, principal) != -1
}

func (r *Registry) RequireRole(role Role, principal string) error {
	if !r.HasRole(role, principal) {
		return UnauthorizedError{Principal: principal, Role: role}
	}

	return nil
}

// AdminRoleOf returns the role that administers the given role. Roles
// without an explicit admin are administered by the admin role.
func (r *Registry) AdminRoleOf(role Role) Role {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if admin, ok := r.admins[role]; ok {
		return admin
	}

	return AdminRole
}

// SetAdminRole changes the administering role of a role. Only the current
// administering role may do this.
func (r *Registry) SetAdminRole(caller string, role, admin Role) error {
	if err := r.RequireRole(r.AdminRoleOf(role), caller); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.admins[role] = admin

	return nil
}

// Grant adds a principal to a role. Granting an already held role is a
// no-op; the member list never contains duplicates.
func (r *Registry) Grant(caller string, role Role, principal string) error {
	if err := r.RequireRole(r.AdminRoleOf(role), caller); err != nil {
		return err
	}
	if principal == "" {
		return errors.New("principal should not be zero")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.indexOf(role, principal) != -1 {
		return nil
	}

	r.members[role] = append(r.members[role], principal)

	zap.L().With(
		zap.String("role", string(role)),
		zap.String("principal", principal),
	).Info("AccessControl: Role granted")

	return nil
}

// Revoke removes a principal from a role, preserving the relative order of
// the remaining members.
func (r *Registry) Revoke(caller string, role Role, principal string) error {
	if err := r.RequireRole(r.AdminRoleOf(role), caller); err != nil {
		return err
	}

	r.remove(role, principal)

	return nil
}

// Renounce removes the caller's own membership. Principals can only
// renounce for themselves.
func (r *Registry) Renounce(caller string, role Role, principal string) error {
	if caller != principal {
		return UnauthorizedError{Principal: caller, Role: role}
	}

	r.remove(role, principal)

	return nil
}

// MemberCount reports the number of distinct members of a role.
func (r *Registry) MemberCount(role Role) int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.members[role])
}

// Member returns the member at the given index, in grant order.
func (r *Registry) Member(role Role, index int) (string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if index < 0 || index >= len(r.members[role]) {
		return "", fmt.Errorf("role %s has no member at index %d", role, index)
	}

	return r.members[role][index], nil
}

func (r *Registry) remove(role Role, principal string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	idx := r.indexOf(role, principal)
	if idx == -1 {
		return
	}

	r.members[role] = append(r.members[role][:idx], r.members[role][idx+1:]...)

	zap.L().With(
		zap.String("role", string(role)),
		zap.String("principal", principal),
	).Info("AccessControl: Role revoked")
}

// indexOf expects the lock to be held.
func (r *Registry) indexOf(role Role, principal string) int {
	for i, member := range r.members[role] {
		if member == principal {
			return i
		}
	}

	return -1
}
