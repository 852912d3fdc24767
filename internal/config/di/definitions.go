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
)

// Service principals. Component services authenticate against the access
// registry under these names, the same way deployed contract addresses
// hold roles on chain.
const (
	RootAdmin              = "svc.root"
	MarketplacePrincipal   = "svc.marketplace"
	ArtistControllerSvc    = "svc.artist-controller"
	CollectorControllerSvc = "svc.collector-controller"
	PaymentControllerSvc   = "svc.payment-controller"
)

var definitions = []di.Def{
	{
		Name: "access",
		Build: func(ctn di.Container) (interface{}, error) {
			return access.NewRegistry(RootAdmin), nil
		},
	},
	{
		Name: "killswitch",
		Build: func(ctn di.Container) (interface{}, error) {
			return killswitch.New(ctn.Get("access").(*access.Registry)), nil
		},
	},
	{
		Name: "allowlist",
		Build: func(ctn di.Container) (interface{}, error) {
			return allowlist.NewAllowlist(
				ctn.Get("killswitch").(*killswitch.Killswitch),
				ctn.Get("access").(*access.Registry),
			), nil
		},
	},
	{
		Name: "bank",
		Build: func(ctn di.Container) (interface{}, error) {
			return token.NewBank(), nil
		},
	},
	{
		Name: "tokenRegistry",
		Build: func(ctn di.Container) (interface{}, error) {
			return token.NewRegistry(), nil
		},
	},
	{
		Name: "membership",
		Build: func(ctn di.Container) (interface{}, error) {
			return membership.NewController(config.Get().CollectorFeeBps, ctn.Get("access").(*access.Registry)), nil
		},
	},
	{
		Name: "artistRoyaltyStorage",
		Build: func(ctn di.Container) (interface{}, error) {
			return royalty.NewArtistStorage(ctn.Get("access").(*access.Registry)), nil
		},
	},
	{
		Name: "artistRoyaltyController",
		Build: func(ctn di.Container) (interface{}, error) {
			return royalty.NewArtistController(
				ArtistControllerSvc,
				ctn.Get("artistRoyaltyStorage").(royalty.ArtistStorage),
				ctn.Get("tokenRegistry").(token.Registry),
				ctn.Get("access").(*access.Registry),
			), nil
		},
	},
	{
		Name: "collectorRoyaltyStorage",
		Build: func(ctn di.Container) (interface{}, error) {
			return royalty.NewCollectorStorage(ctn.Get("access").(*access.Registry)), nil
		},
	},
	{
		Name: "collectorRoyaltyController",
		Build: func(ctn di.Container) (interface{}, error) {
			return royalty.NewCollectorController(
				CollectorControllerSvc,
				config.Get().CollectorRoyaltyBps,
				ctn.Get("collectorRoyaltyStorage").(royalty.CollectorStorage),
				ctn.Get("access").(*access.Registry),
			), nil
		},
	},
	{
		Name: "paymentStorage",
		Build: func(ctn di.Container) (interface{}, error) {
			return payment.NewStorage(
				config.Get().EscrowAddress,
				ctn.Get("bank").(token.Bank),
				ctn.Get("access").(*access.Registry),
			), nil
		},
	},
	{
		Name: "paymentController",
		Build: func(ctn di.Container) (interface{}, error) {
			return payment.NewController(
				PaymentControllerSvc,
				ctn.Get("paymentStorage").(payment.Storage),
				ctn.Get("access").(*access.Registry),
			), nil
		},
	},
	{
		Name: "saleData",
		Build: func(ctn di.Container) (interface{}, error) {
			return saledata.NewStorage(
				ctn.Get("killswitch").(*killswitch.Killswitch),
				ctn.Get("access").(*access.Registry),
			), nil
		},
	},
	{
		Name: "marketplace",
		Build: func(ctn di.Container) (interface{}, error) {
			cfg := config.Get()
			return marketplace.NewMarketplace(
				marketplace.Config{
					Principal:           MarketplacePrincipal,
					Network:             cfg.Network,
					PlatformAddress:     cfg.PlatformAddress,
					CommissionBps:       cfg.CommissionBps,
					MinPrimarySalePrice: cfg.MinPrimarySalePrice,
				},
				ctn.Get("killswitch").(*killswitch.Killswitch),
				ctn.Get("access").(*access.Registry),
				ctn.Get("allowlist").(allowlist.Allowlist),
				ctn.Get("tokenRegistry").(token.Registry),
				ctn.Get("membership").(membership.Controller),
				ctn.Get("artistRoyaltyController").(royalty.ArtistController),
				ctn.Get("collectorRoyaltyController").(royalty.CollectorController),
				ctn.Get("paymentController").(payment.Controller),
				ctn.Get("saleData").(saledata.Storage),
			), nil
		},
	},
	{
		Name: "elastic",
		Build: func(ctn di.Container) (interface{}, error) {
			return elastic_search.New()
		},
	},
	{
		Name: "messenger",
		Build: func(ctn di.Container) (interface{}, error) {
			return messenger.NewMessenger(config.Get().AmqpUri), nil
		},
	},
	{
		Name: "webhook",
		Build: func(ctn di.Container) (interface{}, error) {
			cfg := config.Get()
			return webhook.NewNotifier(cfg.WebhookUrl, cfg.WebhookRetries), nil
		},
	},
	{
		Name: "saleRepo",
		Build: func(ctn di.Container) (interface{}, error) {
			return repository.NewSaleRepository(ctn.Get("elastic").(elastic_search.Index)), nil
		},
	},
	{
		Name: "listingRepo",
		Build: func(ctn di.Container) (interface{}, error) {
			return repository.NewListingRepository(ctn.Get("elastic").(elastic_search.Index)), nil
		},
	},
	{
		Name: "auditIndexer",
		Build: func(ctn di.Container) (interface{}, error) {
			return indexer.NewAuditIndexer(
				ctn.Get("elastic").(elastic_search.Index),
				ctn.Get("messenger").(messenger.MessageService),
				ctn.Get("webhook").(webhook.Notifier),
			), nil
		},
	},
	{
		Name: "apiServer",
		Build: func(ctn di.Container) (interface{}, error) {
			return api.NewServer(
				ctn.Get("marketplace").(marketplace.Marketplace),
				ctn.Get("collectorRoyaltyStorage").(royalty.CollectorStorage),
				ctn.Get("saleRepo").(repository.SaleRepository),
				ctn.Get("listingRepo").(repository.ListingRepository),
			), nil
		},
	},
}
