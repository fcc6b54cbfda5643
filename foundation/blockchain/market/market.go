// Package market implements fixed price listings and timed auctions over
// the tokens in the nft registry. Funds move through the ledger only: bids
// are held by an escrow address and fees are paid to a treasury address,
// so no marketplace operation creates or destroys tokens.
package market

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/cosmicspace/cisp/foundation/blockchain/genesis"
	"github.com/cosmicspace/cisp/foundation/blockchain/ledger"
	"github.com/cosmicspace/cisp/foundation/blockchain/nft"
	"github.com/cosmicspace/cisp/foundation/blockchain/storage"
)

// epsilon absorbs floating point noise when comparing prices.
const epsilon = 1e-9

// EventHandler defines a function that is called when events
// occur in the processing of the marketplace.
type EventHandler func(v string, args ...any)

// SettledHandler is called after an auction is settled.
type SettledHandler func(a Auction)

// Ledger represents the ledger behavior required to move funds.
type Ledger interface {
	Balance(address string, token string) float64
	Transfer(ctx context.Context, from string, to string, token string, amount float64) (ledger.Transaction, error)
}

// Registry represents the nft registry behavior required to check and
// move ownership.
type Registry interface {
	NFT(id string) (nft.NFT, error)
	Transfer(ctx context.Context, id string, from string, to string) (nft.NFT, error)
}

// Scheduler represents the timer behavior required to settle auctions when
// they expire. Scheduling a key again replaces the pending timer.
type Scheduler interface {
	After(key string, delay time.Duration, fn func(ctx context.Context) error)
	Cancel(key string)
}

// Config represents the configuration required to construct a marketplace.
type Config struct {
	Store            storage.Store
	Ledger           Ledger
	Registry         Registry
	Scheduler        Scheduler
	Economics        genesis.Market
	EvHandler        EventHandler
	OnAuctionSettled SettledHandler
	Now              func() time.Time
}

// Market manages the listings and auctions.
type Market struct {
	mu        sync.Mutex
	store     storage.Store
	ledger    Ledger
	registry  Registry
	scheduler Scheduler
	econ      genesis.Market
	evHandler EventHandler
	onSettled SettledHandler
	now       func() time.Time

	listings      []Listing
	auctions      []Auction
	dirtyListings bool
	dirtyAuctions bool
}

// New constructs a marketplace and loads the listings and auctions found in
// durable storage.
func New(ctx context.Context, cfg Config) (*Market, error) {
	if cfg.Store == nil || cfg.Ledger == nil || cfg.Registry == nil {
		return nil, errors.New("market: store, ledger and registry are required")
	}

	ev := func(v string, args ...any) {
		if cfg.EvHandler != nil {
			cfg.EvHandler(v, args...)
		}
	}

	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	if cfg.Economics.EscrowAddress == "" || cfg.Economics.TreasuryAddress == "" {
		def := genesis.Default().Market
		cfg.Economics.EscrowAddress = def.EscrowAddress
		cfg.Economics.TreasuryAddress = def.TreasuryAddress
	}

	m := Market{
		store:     cfg.Store,
		ledger:    cfg.Ledger,
		registry:  cfg.Registry,
		scheduler: cfg.Scheduler,
		econ:      cfg.Economics,
		evHandler: ev,
		onSettled: cfg.OnAuctionSettled,
		now:       cfg.Now,
	}

	m.mu.Lock()
	m.refresh(ctx)
	m.mu.Unlock()

	return &m, nil
}

// Refresh re-reads the listings and auctions from durable storage.
func (m *Market) Refresh(ctx context.Context) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.refresh(ctx)
}

// Resume schedules the expiry of every active auction. It is called once
// the scheduler is running.
func (m *Market) Resume(ctx context.Context) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, a := range m.auctions {
		if a.Status == StatusActive {
			m.schedule(a)
		}
	}
}

// =============================================================================

// isListed reports if the token has an active listing or auction.
func (m *Market) isListed(nftID string) bool {
	for _, l := range m.listings {
		if l.NFTID == nftID && l.Status == StatusActive {
			return true
		}
	}

	for _, a := range m.auctions {
		if a.NFTID == nftID && a.Status == StatusActive {
			return true
		}
	}

	return false
}

// fee returns the marketplace fee and the amount left for the seller.
func (m *Market) fee(price float64) (fee float64, sellerAmount float64) {
	fee = price * m.econ.Fee
	return fee, price - fee
}

// pay moves a settled price from the payer to the seller and the treasury.
func (m *Market) pay(ctx context.Context, payer string, seller string, currency string, price float64) error {
	fee, sellerAmount := m.fee(price)

	if _, err := m.ledger.Transfer(ctx, payer, seller, currency, sellerAmount); err != nil {
		return err
	}

	if fee > 0 {
		if _, err := m.ledger.Transfer(ctx, payer, m.econ.TreasuryAddress, currency, fee); err != nil {
			m.evHandler("market: pay: ERROR: fee to treasury: %s", err)
		}
	}

	return nil
}

func (m *Market) stamp() int64 {
	return m.now().UnixMilli()
}
