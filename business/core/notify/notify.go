// Package notify publishes the changes made by the ledger system to the
// connected event stream clients and counts them.
package notify

import (
	"github.com/cosmicspace/cisp/business/web/metrics"
	"github.com/cosmicspace/cisp/foundation/blockchain/market"
	"github.com/cosmicspace/cisp/foundation/blockchain/nft"
	"github.com/cosmicspace/cisp/foundation/blockchain/wallet"
	"github.com/cosmicspace/cisp/foundation/events"
)

// Set of event types sent to stream clients.
const (
	TypeBalance     = "balance"
	TypeWallet      = "wallet"
	TypeNFT         = "nft"
	TypeNFTTransfer = "nft_transfer"
	TypeAuction     = "auction"
	TypeLog         = "log"
)

// Balance is the payload of a balance event.
type Balance struct {
	Address string  `json:"address"`
	Token   string  `json:"token"`
	Balance float64 `json:"balance"`
}

// Transfer is the payload of a token transfer event.
type Transfer struct {
	From string  `json:"from"`
	NFT  nft.NFT `json:"nft"`
}

// Notifier implements the state notifier over the events fan-out.
type Notifier struct {
	evts    *events.Events
	metrics *metrics.Metrics
}

// New constructs a notifier. The metrics value is optional.
func New(evts *events.Events, m *metrics.Metrics) *Notifier {
	return &Notifier{
		evts:    evts,
		metrics: m,
	}
}

// BalanceChanged publishes a new balance.
func (n *Notifier) BalanceChanged(address string, token string, balance float64) {
	n.send(TypeBalance, Balance{Address: address, Token: token, Balance: balance})
}

// WalletChanged publishes the connected wallet. A nil wallet is sent when
// the wallet disconnects.
func (n *Notifier) WalletChanged(w *wallet.Wallet) {
	if w == nil {
		n.send(TypeWallet, nil)
		return
	}
	n.send(TypeWallet, *w)
}

// NFTMinted publishes a new token.
func (n *Notifier) NFTMinted(t nft.NFT) {
	n.send(TypeNFT, t)
}

// NFTTransferred publishes a token that changed owner.
func (n *Notifier) NFTTransferred(t nft.NFT, from string) {
	n.send(TypeNFTTransfer, Transfer{From: from, NFT: t})
}

// AuctionSettled publishes an auction once it has ended.
func (n *Notifier) AuctionSettled(a market.Auction) {
	n.send(TypeAuction, a)
}

// Log publishes a raw log line from the core packages.
func (n *Notifier) Log(msg string) {
	n.send(TypeLog, msg)
}

func (n *Notifier) send(eventType string, data any) {
	n.evts.Send(eventType, data)

	if n.metrics != nil {
		n.metrics.Events.WithLabelValues(eventType).Inc()
	}
}
