package membership

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/artmart/marketplace-engine/internal/access"
	"github.com/artmart/marketplace-engine/internal/entity"
	cache "github.com/patrickmn/go-cache"
	"go.uber.org/zap"
)

// Tier is a collector membership level. The tier determines the collector
// fee charged on top of the listing price at purchase time.
type Tier string

const (
	TierDefault   Tier = "default"
	TierSupporter Tier = "supporter"
	TierPatron    Tier = "patron"
	TierKivian    Tier = "kivian"
)

var ErrUnknownTier = errors.New("unknown membership tier")

// Controller resolves membership tiers and prices purchases accordingly.
type Controller interface {
	Status(account string) Tier
	SetStatus(caller, account string, tier Tier) error
	CollectorFeeBps(account string) uint
	CollectorFee(account string, price uint64) uint64
	NFTBuyerPrice(account string, price uint64) uint64
}

type controller struct {
	mu          sync.RWMutex
	statuses    map[string]Tier
	statusCache *cache.Cache
	fees        map[Tier]uint
	acl         access.Authorizer
}

// NewController prices the default tier at the given collector fee bps.
// Paid tiers earn a discount; the kivian tier pays no fee at all.
func NewController(defaultFeeBps uint, acl access.Authorizer) Controller {
	return &controller{
		statuses:    make(map[string]Tier),
		statusCache: cache.New(5*time.Minute, 10*time.Minute),
		fees: map[Tier]uint{
			TierDefault:   defaultFeeBps,
			TierSupporter: 250,
			TierPatron:    200,
			TierKivian:    0,
		},
		acl: acl,
	}
}

func (c *controller) Status(account string) Tier {
	if cached, found := c.statusCache.Get(account); found {
		return cached.(Tier)
	}

	c.mu.RLock()
	defer c.mu.RUnlock()

	tier, exists := c.statuses[account]
	if !exists {
		tier = TierDefault
	}
	c.statusCache.Set(account, tier, cache.DefaultExpiration)

	return tier
}

func (c *controller) SetStatus(caller, account string, tier Tier) error {
	if err := c.acl.RequireRole(access.MembershipAuthorizedRole, caller); err != nil {
		return err
	}
	if _, valid := c.fees[tier]; !valid {
		return fmt.Errorf("%w: %s", ErrUnknownTier, tier)
	}

	c.mu.Lock()
	c.statuses[account] = tier
	c.mu.Unlock()

	c.statusCache.Delete(account)

	zap.L().With(
		zap.String("account", account),
		zap.String("tier", string(tier)),
	).Info("Membership: Status updated")

	return nil
}

func (c *controller) CollectorFeeBps(account string) uint {
	return c.fees[c.Status(account)]
}

// CollectorFee is the amount charged on top of the listing price, funding
// the collector royalty pool for future resales.
func (c *controller) CollectorFee(account string, price uint64) uint64 {
	return entity.RoyaltyAmount(price, c.CollectorFeeBps(account))
}

// NFTBuyerPrice is the total a buyer pays for a listing.
func (c *controller) NFTBuyerPrice(account string, price uint64) uint64 {
	return price + c.CollectorFee(account, price)
}
