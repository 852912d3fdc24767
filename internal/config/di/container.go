package di

import (
	"github.com/artmart/marketplace-engine/internal/access"
	"github.com/artmart/marketplace-engine/internal/allowlist"
	"github.com/artmart/marketplace-engine/internal/api"
	"github.com/artmart/marketplace-engine/internal/config"
	"github.com/artmart/marketplace-engine/internal/elastic_search"
	"github.com/artmart/marketplace-engine/internal/indexer"
	"github.com/artmart/marketplace-engine/internal/killswitch"
	"github.com/artmart/marketplace-engine/internal/marketplace"
	"github.com/artmart/marketplace-engine/internal/membership"
	"github.com/artmart/marketplace-engine/internal/messenger"
	"github.com/artmart/marketplace-engine/internal/payment"
	"github.com/artmart/marketplace-engine/internal/repository"
	"github.com/artmart/marketplace-engine/internal/royalty"
	"github.com/artmart/marketplace-engine/internal/saledata"
	"github.com/artmart/marketplace-engine/internal/token"
	"github.com/artmart/marketplace-engine/internal/webhook"
	"github.com/sarulabs/di/v2"
	"go.uber.org/zap"
)

type Container struct {
	ctn di.Container
}

func NewContainer() (*Container, error) {
	builder, err := di.NewBuilder()
	if err != nil {
		return nil, err
	}

	if err := builder.Add(definitions...); err != nil {
		return nil, err
	}

	container := &Container{ctn: builder.Build()}
	if err := container.bootstrapRoles(); err != nil {
		return nil, err
	}

	return container, nil
}

// bootstrapRoles grants each component service the roles it needs to call
// its collaborators, plus the operator roles of the configured platform
// account. This mirrors how the deployed system wires contract addresses
// into the access registry.
func (c *Container) bootstrapRoles() error {
	registry := c.GetAccess()

	grants := map[access.Role][]string{
		access.ArtistRoyaltyStorageAuthorizedRole:       {ArtistControllerSvc},
		access.CollectorRoyaltyStorageAuthorizedRole:    {CollectorControllerSvc},
		access.PaymentStorageAuthorizedRole:             {PaymentControllerSvc},
		access.PaymentControllerAuthorizedRole:          {MarketplacePrincipal},
		access.SaleDataAuthorizedRole:                   {MarketplacePrincipal},
		access.CollectorRoyaltyControllerAuthorizedRole: {MarketplacePrincipal},
	}

	if platform := config.Get().PlatformAddress; platform != "" {
		grants[access.AdminRole] = append(grants[access.AdminRole], platform)
		grants[access.KillswitchRole] = append(grants[access.KillswitchRole], platform)
		grants[access.AllowlistAuthorizedRole] = append(grants[access.AllowlistAuthorizedRole], platform)
		grants[access.MembershipAuthorizedRole] = append(grants[access.MembershipAuthorizedRole], platform)
		grants[access.PaymentStorageAuthorizedRole] = append(grants[access.PaymentStorageAuthorizedRole], platform)
		grants[access.MarketplaceAuthorizedRole] = append(grants[access.MarketplaceAuthorizedRole], platform)
		grants[access.ArtistRoyaltyControllerAuthorizedRole] = append(grants[access.ArtistRoyaltyControllerAuthorizedRole], platform)
		grants[access.CollectorRoyaltyControllerAuthorizedRole] = append(grants[access.CollectorRoyaltyControllerAuthorizedRole], platform)
	}

	for role, principals := range grants {
		for _, principal := range principals {
			if err := registry.Grant(RootAdmin, role, principal); err != nil {
				zap.L().With(
					zap.Error(err),
					zap.String("role", string(role)),
					zap.String("principal", principal),
				).Error("Container: Failed to bootstrap role")
				return err
			}
		}
	}

	return nil
}

func (c *Container) GetAccess() *access.Registry {
	return c.ctn.Get("access").(*access.Registry)
}

func (c *Container) GetKillswitch() *killswitch.Killswitch {
	return c.ctn.Get("killswitch").(*killswitch.Killswitch)
}

func (c *Container) GetAllowlist() allowlist.Allowlist {
	return c.ctn.Get("allowlist").(allowlist.Allowlist)
}

func (c *Container) GetBank() token.Bank {
	return c.ctn.Get("bank").(token.Bank)
}

func (c *Container) GetTokenRegistry() token.Registry {
	return c.ctn.Get("tokenRegistry").(token.Registry)
}

func (c *Container) GetMembership() membership.Controller {
	return c.ctn.Get("membership").(membership.Controller)
}

func (c *Container) GetArtistRoyaltyController() royalty.ArtistController {
	return c.ctn.Get("artistRoyaltyController").(royalty.ArtistController)
}

func (c *Container) GetCollectorRoyaltyStorage() royalty.CollectorStorage {
	return c.ctn.Get("collectorRoyaltyStorage").(royalty.CollectorStorage)
}

func (c *Container) GetCollectorRoyaltyController() royalty.CollectorController {
	return c.ctn.Get("collectorRoyaltyController").(royalty.CollectorController)
}

func (c *Container) GetPaymentStorage() payment.Storage {
	return c.ctn.Get("paymentStorage").(payment.Storage)
}

func (c *Container) GetPaymentController() payment.Controller {
	return c.ctn.Get("paymentController").(payment.Controller)
}

func (c *Container) GetSaleData() saledata.Storage {
	return c.ctn.Get("saleData").(saledata.Storage)
}

func (c *Container) GetMarketplace() marketplace.Marketplace {
	return c.ctn.Get("marketplace").(marketplace.Marketplace)
}

func (c *Container) GetElastic() elastic_search.Index {
	return c.ctn.Get("elastic").(elastic_search.Index)
}

func (c *Container) GetMessenger() messenger.MessageService {
	return c.ctn.Get("messenger").(messenger.MessageService)
}

func (c *Container) GetWebhook() webhook.Notifier {
	return c.ctn.Get("webhook").(webhook.Notifier)
}

func (c *Container) GetSaleRepo() repository.SaleRepository {
	return c.ctn.Get("saleRepo").(repository.SaleRepository)
}

func (c *Container) GetListingRepo() repository.ListingRepository {
	return c.ctn.Get("listingRepo").(repository.ListingRepository)
}

func (c *Container) GetAuditIndexer() indexer.AuditIndexer {
	return c.ctn.Get("auditIndexer").(indexer.AuditIndexer)
}

func (c *Container) GetApiServer() api.Server {
	return c.ctn.Get("apiServer").(api.Server)
}
