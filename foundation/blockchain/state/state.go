// Package state is the core API for the ledger system. It constructs the
// components of one context in dependency order, wires their listeners
// and runs the background work that keeps them current.
package state

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/cosmicspace/cisp/foundation/blockchain/coordinator"
	"github.com/cosmicspace/cisp/foundation/blockchain/genesis"
	"github.com/cosmicspace/cisp/foundation/blockchain/ledger"
	"github.com/cosmicspace/cisp/foundation/blockchain/market"
	"github.com/cosmicspace/cisp/foundation/blockchain/mining"
	"github.com/cosmicspace/cisp/foundation/blockchain/nft"
	"github.com/cosmicspace/cisp/foundation/blockchain/referral"
	"github.com/cosmicspace/cisp/foundation/blockchain/storage"
	"github.com/cosmicspace/cisp/foundation/blockchain/storage/memory"
	"github.com/cosmicspace/cisp/foundation/blockchain/wallet"
	"github.com/cosmicspace/cisp/foundation/blockchain/worker"
)

// EventHandler defines a function that is called when events
// occur in the processing of the ledger system.
type EventHandler func(v string, args ...any)

// Notifier represents the behavior required to publish the changes other
// parts of the application react to.
type Notifier interface {
	BalanceChanged(address string, token string, balance float64)
	WalletChanged(w *wallet.Wallet)
	NFTMinted(n nft.NFT)
	NFTTransferred(n nft.NFT, from string)
	AuctionSettled(a market.Auction)
}

// =============================================================================

// Config represents the configuration required to start the ledger system.
type Config struct {
	Shared    storage.Store
	Session   storage.Store
	Genesis   genesis.Genesis
	EvHandler EventHandler
	Notifier  Notifier
	Now       func() time.Time
	Rand      *rand.Rand
}

// State manages the components of one context.
type State struct {
	evHandler EventHandler
	genesis   genesis.Genesis
	shared    storage.Store
	notifier  Notifier

	worker    *worker.Worker
	ledger    *ledger.Ledger
	wallets   *wallet.Store
	nfts      *nft.Registry
	market    *market.Market
	mining    *mining.Simulator
	referrals *referral.Referrals
	coord     *coordinator.Coordinator

	mu          sync.Mutex
	wg          sync.WaitGroup
	started     bool
	cancel      context.CancelFunc
	stopMonitor func()
}

// New constructs the components of a context over the shared store.
func New(ctx context.Context, cfg Config) (*State, error) {
	if cfg.Shared == nil {
		return nil, errors.New("state: shared store is required")
	}

	// Build a safe event handler function for use.
	ev := func(v string, args ...any) {
		if cfg.EvHandler != nil {
			cfg.EvHandler(v, args...)
		}
	}

	// Without a session store every context follows the shared pointer.
	if cfg.Session == nil {
		cfg.Session = memory.New()
	}

	if cfg.Notifier == nil {
		cfg.Notifier = nopNotifier{}
	}

	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	if cfg.Rand == nil {
		cfg.Rand = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}

	// Each component gets its own source since a rand.Rand is not safe for
	// concurrent use.
	child := func() *rand.Rand {
		return rand.New(rand.NewPCG(cfg.Rand.Uint64(), cfg.Rand.Uint64()))
	}

	g := cfg.Genesis
	s := State{
		evHandler: ev,
		genesis:   g,
		shared:    cfg.Shared,
		notifier:  cfg.Notifier,
		worker:    worker.New(ev),
	}

	var err error

	s.ledger, err = ledger.New(ctx, ledger.Config{
		Store:            cfg.Shared,
		TxHistory:        g.TxHistory,
		Difficulty:       g.Difficulty,
		EvHandler:        ev,
		OnBalanceChanged: s.balanceChanged,
		Now:              cfg.Now,
	})
	if err != nil {
		return nil, fmt.Errorf("ledger: %w", err)
	}

	s.wallets, err = wallet.New(ctx, wallet.Config{
		Store:        cfg.Shared,
		Session:      cfg.Session,
		Minter:       s.ledger,
		WelcomeGrant: g.WelcomeGrant,
		EvHandler:    ev,
		Now:          cfg.Now,
		Rand:         child(),
	})
	if err != nil {
		return nil, fmt.Errorf("wallets: %w", err)
	}
	s.wallets.Subscribe(cfg.Notifier.WalletChanged)

	s.nfts, err = nft.New(ctx, nft.Config{
		Store:         cfg.Shared,
		EvHandler:     ev,
		OnMinted:      cfg.Notifier.NFTMinted,
		OnTransferred: cfg.Notifier.NFTTransferred,
		Now:           cfg.Now,
		Rand:          child(),
	})
	if err != nil {
		return nil, fmt.Errorf("nfts: %w", err)
	}

	s.market, err = market.New(ctx, market.Config{
		Store:            cfg.Shared,
		Ledger:           s.ledger,
		Registry:         s.nfts,
		Scheduler:        s.worker,
		Economics:        g.Market,
		EvHandler:        ev,
		OnAuctionSettled: cfg.Notifier.AuctionSettled,
		Now:              cfg.Now,
	})
	if err != nil {
		return nil, fmt.Errorf("market: %w", err)
	}

	s.mining, err = mining.New(ctx, mining.Config{
		Store:     cfg.Shared,
		Ledger:    s.ledger,
		Wallets:   s.wallets,
		Ticker:    s.worker,
		Economics: g.Mining,
		EvHandler: ev,
		Now:       cfg.Now,
		Rand:      child(),
	})
	if err != nil {
		return nil, fmt.Errorf("mining: %w", err)
	}

	s.referrals, err = referral.New(ctx, referral.Config{
		Store:     cfg.Shared,
		Ledger:    s.ledger,
		Registry:  s.nfts,
		Levels:    g.Referral,
		EvHandler: ev,
		Now:       cfg.Now,
	})
	if err != nil {
		return nil, fmt.Errorf("referrals: %w", err)
	}

	s.coord, err = coordinator.New(coordinator.Config{
		Store:      cfg.Shared,
		Wallets:    s.wallets,
		Ledger:     s.ledger,
		Refreshers: []coordinator.Refresher{s.nfts, s.market, s.referrals, s.mining},
		Interval:   g.SyncInterval.Std(),
		EvHandler:  ev,
	})
	if err != nil {
		return nil, fmt.Errorf("coordinator: %w", err)
	}

	// Mint the founder allocations into a ledger that has never been seeded.
	if err := s.ledger.Seed(ctx, g.Balances); err != nil {
		return nil, fmt.Errorf("seed: %w", err)
	}

	return &s, nil
}

// Start runs the background work: the auction expiry timers and monitor,
// and the sync loop.
func (s *State) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}
	s.started = true

	if err := s.coord.Sync(ctx); err != nil {
		s.evHandler("state: start: sync: ERROR: %s", err)
	}

	s.market.Resume(ctx)

	interval := s.genesis.Market.MonitorInterval.Std()
	if interval <= 0 {
		interval = time.Minute
	}
	s.stopMonitor = s.worker.Every("auction-monitor", interval, func(ctx context.Context) error {
		_, err := s.market.SettleExpired(ctx)
		return err
	})

	runCtx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.coord.Run(runCtx)
	}()

	s.evHandler("state: start: completed")

	return nil
}

// Shutdown cleanly brings the context down.
func (s *State) Shutdown() error {
	s.evHandler("state: shutdown: started")
	defer s.evHandler("state: shutdown: completed")

	s.mining.Stop()

	s.mu.Lock()
	if s.stopMonitor != nil {
		s.stopMonitor()
	}
	if s.cancel != nil {
		s.cancel()
	}
	s.mu.Unlock()

	s.wg.Wait()
	s.worker.Shutdown()

	return nil
}

// =============================================================================

// balanceChanged keeps the cached wallet balance in line with the ledger
// and publishes the change.
func (s *State) balanceChanged(address string, token string, balance float64) {
	if s.wallets != nil {
		s.wallets.UpdateBalance(context.Background(), address, token, balance)
	}

	s.notifier.BalanceChanged(address, token, balance)
}

// nopNotifier is used when no notifier is configured.
type nopNotifier struct{}

func (nopNotifier) BalanceChanged(address string, token string, balance float64) {}
func (nopNotifier) WalletChanged(w *wallet.Wallet)                                {}
func (nopNotifier) NFTMinted(n nft.NFT)                                           {}
func (nopNotifier) NFTTransferred(n nft.NFT, from string)                         {}
func (nopNotifier) AuctionSettled(a market.Auction)                               {}
