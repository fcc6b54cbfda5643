// Package v1 contains the full set of handler functions and routes
// supported by the v1 web api.
package v1

import (
	"net/http"

	"github.com/cosmicspace/cisp/app/services/cisp/handlers/v1/public"
	"github.com/cosmicspace/cisp/business/web/metrics"
	"github.com/cosmicspace/cisp/foundation/blockchain/state"
	"github.com/cosmicspace/cisp/foundation/events"
	"github.com/cosmicspace/cisp/foundation/web"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const version = "v1"

// Config contains all the mandatory systems required by handlers.
type Config struct {
	Log     *zap.SugaredLogger
	State   *state.State
	Evts    *events.Events
	Metrics *metrics.Metrics
}

// PublicRoutes binds all the version 1 public routes.
func PublicRoutes(app *web.App, cfg Config) {
	pbl := public.Handlers{
		Log:     cfg.Log,
		State:   cfg.State,
		WS:      websocket.Upgrader{},
		Evts:    cfg.Evts,
		Metrics: cfg.Metrics,
	}

	app.Handle(http.MethodGet, version, "/events", pbl.Events)
	app.Handle(http.MethodGet, version, "/genesis", pbl.Genesis)
	app.Handle(http.MethodGet, version, "/chain", pbl.Chain)
	app.Handle(http.MethodPost, version, "/sync", pbl.Sync)

	app.Handle(http.MethodGet, version, "/wallets", pbl.Wallets)
	app.Handle(http.MethodPost, version, "/wallets", pbl.CreateWallet)
	app.Handle(http.MethodGet, version, "/wallets/current", pbl.CurrentWallet)
	app.Handle(http.MethodPost, version, "/wallets/connect", pbl.ConnectWallet)
	app.Handle(http.MethodPost, version, "/wallets/disconnect", pbl.DisconnectWallet)

	app.Handle(http.MethodGet, version, "/balances", pbl.Balances)
	app.Handle(http.MethodGet, version, "/accounts/:address", pbl.Account)
	app.Handle(http.MethodGet, version, "/transactions", pbl.Transactions)
	app.Handle(http.MethodGet, version, "/transactions/:address", pbl.Transactions)
	app.Handle(http.MethodPost, version, "/transfers", pbl.Transfer)

	app.Handle(http.MethodGet, version, "/nfts", pbl.NFTs)
	app.Handle(http.MethodPost, version, "/nfts", pbl.MintNFT)
	app.Handle(http.MethodGet, version, "/nfts/:id", pbl.NFT)
	app.Handle(http.MethodPost, version, "/nfts/:id/transfer", pbl.TransferNFT)
	app.Handle(http.MethodGet, version, "/nfts/:id/history", pbl.PriceHistory)

	app.Handle(http.MethodGet, version, "/market/stats", pbl.MarketStats)
	app.Handle(http.MethodGet, version, "/market/activity/:address", pbl.Activity)
	app.Handle(http.MethodGet, version, "/market/listings", pbl.Listings)
	app.Handle(http.MethodPost, version, "/market/listings", pbl.List)
	app.Handle(http.MethodGet, version, "/market/listings/:id", pbl.Listing)
	app.Handle(http.MethodPost, version, "/market/listings/:id/buy", pbl.Buy)
	app.Handle(http.MethodPost, version, "/market/listings/:id/cancel", pbl.CancelListing)
	app.Handle(http.MethodGet, version, "/market/auctions", pbl.Auctions)
	app.Handle(http.MethodPost, version, "/market/auctions", pbl.CreateAuction)
	app.Handle(http.MethodGet, version, "/market/auctions/:id", pbl.Auction)
	app.Handle(http.MethodPost, version, "/market/auctions/:id/bids", pbl.Bid)
	app.Handle(http.MethodPost, version, "/market/auctions/:id/settle", pbl.SettleAuction)
	app.Handle(http.MethodPost, version, "/market/auctions/:id/cancel", pbl.CancelAuction)

	app.Handle(http.MethodGet, version, "/referrals/:address", pbl.ReferralStats)
	app.Handle(http.MethodPost, version, "/referrals/apply", pbl.ApplyReferral)

	app.Handle(http.MethodGet, version, "/mining", pbl.MiningStats)
	app.Handle(http.MethodPost, version, "/mining/start", pbl.StartMining)
	app.Handle(http.MethodPost, version, "/mining/stop", pbl.StopMining)
	app.Handle(http.MethodPost, version, "/mining/upgrade", pbl.UpgradeMining)
}
