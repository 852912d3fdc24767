package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"

	"github.com/artmart/marketplace-engine/internal/access"
	"github.com/artmart/marketplace-engine/internal/config"
	"github.com/artmart/marketplace-engine/internal/config/di"
	"github.com/artmart/marketplace-engine/internal/entity"
	"github.com/artmart/marketplace-engine/internal/membership"
	"github.com/urfave/cli/v2"
	"go.uber.org/zap"
)

var (
	container *di.Container
	operator  string
)

func main() {
	config.Init("cli")

	var err error
	container, err = di.NewContainer()
	if err != nil {
		zap.L().With(zap.Error(err)).Fatal("Failed to build container")
	}
	operator = config.Get().PlatformAddress

	app := &cli.App{
		Commands: []*cli.Command{
			{
				Name:   "pause",
				Usage:  "Pause all marketplace trading",
				Action: pause,
			},
			{
				Name:   "unpause",
				Usage:  "Resume marketplace trading",
				Action: unpause,
			},
			{
				Name:   "grantRole",
				Usage:  "Grant a role to a principal: grantRole <role> <principal>",
				Action: grantRole,
			},
			{
				Name:   "revokeRole",
				Usage:  "Revoke a role from a principal: revokeRole <role> <principal>",
				Action: revokeRole,
			},
			{
				Name:   "allowContract",
				Usage:  "Allow an asset contract on the configured network",
				Action: allowContract,
			},
			{
				Name:   "removeContract",
				Usage:  "Remove an asset contract from the allowlist",
				Action: removeContract,
			},
			{
				Name:   "setMembership",
				Usage:  "Set the membership tier of a collector: setMembership <account> <tier>",
				Action: setMembership,
			},
			{
				Name:   "setArtistRoyalty",
				Usage:  "Override the artist royalty of an asset: setArtistRoyalty <contract> <tokenId> <receiver> <bps>",
				Action: setArtistRoyalty,
			},
			{
				Name:   "addCurrency",
				Usage:  "Register an accepted settlement currency: addCurrency <currency> <contract>",
				Action: addCurrency,
			},
			{
				Name:   "listings",
				Usage:  "Print all live listings",
				Action: listings,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		zap.L().With(zap.Error(err)).Fatal("Failed to start CLI")
	}
}

func pause(c *cli.Context) error {
	return container.GetKillswitch().Pause(operator)
}

func unpause(c *cli.Context) error {
	return container.GetKillswitch().Unpause(operator)
}

func grantRole(c *cli.Context) error {
	role := access.Role(c.Args().Get(0))
	principal := c.Args().Get(1)

	return container.GetAccess().Grant(operator, role, principal)
}

func revokeRole(c *cli.Context) error {
	role := access.Role(c.Args().Get(0))
	principal := c.Args().Get(1)

	return container.GetAccess().Revoke(operator, role, principal)
}

func allowContract(c *cli.Context) error {
	return container.GetAllowlist().Allow(operator, c.Args().First(), config.Get().Network)
}

func removeContract(c *cli.Context) error {
	return container.GetAllowlist().Remove(operator, c.Args().First(), config.Get().Network)
}

func setMembership(c *cli.Context) error {
	account := c.Args().Get(0)
	tier := membership.Tier(c.Args().Get(1))

	return container.GetMembership().SetStatus(operator, account, tier)
}

func setArtistRoyalty(c *cli.Context) error {
	contract := c.Args().Get(0)

	tokenId, err := strconv.ParseUint(c.Args().Get(1), 10, 64)
	if err != nil {
		return err
	}

	receiver := c.Args().Get(2)

	bps, err := strconv.ParseUint(c.Args().Get(3), 10, 32)
	if err != nil {
		return err
	}

	asset := entity.NewAssetID(contract, tokenId)

	return container.GetArtistRoyaltyController().SetRoyalty(operator, asset, receiver, uint(bps))
}

func addCurrency(c *cli.Context) error {
	currency := entity.Currency(c.Args().Get(0))
	contract := c.Args().Get(1)

	return container.GetPaymentStorage().AddCurrency(operator, currency, contract)
}

func listings(c *cli.Context) error {
	for _, listing := range container.GetMarketplace().Listings() {
		body, err := json.Marshal(listing)
		if err != nil {
			return err
		}
		fmt.Println(string(body))
	}

	return nil
}
