// Package coordinator keeps the components of one context consistent with
// durable storage written by other contexts. A change is picked up either
// from the storage watch channel or by polling, and both paths run the same
// reconciliation.
package coordinator

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cosmicspace/cisp/foundation/blockchain/storage"
	"github.com/cosmicspace/cisp/foundation/blockchain/wallet"
)

// EventHandler defines a function that is called when events
// occur in the processing of synchronization.
type EventHandler func(v string, args ...any)

// Wallets represents the wallet behavior required to reconcile the
// connected wallet and the cached balances.
type Wallets interface {
	Refresh(ctx context.Context)
	Pointer(ctx context.Context) (string, bool)
	CurrentAddress() (string, bool)
	Wallet(address string) (wallet.Wallet, error)
	Wallets() []wallet.Wallet
	Adopt(ctx context.Context, address string) error
	UpdateBalances(ctx context.Context, address string, balances map[string]float64) bool
}

// Ledger represents the ledger behavior required to reconcile balances.
type Ledger interface {
	Refresh(ctx context.Context)
	Balance(address string, token string) float64
	Balances(address string) map[string]float64
}

// Refresher represents a component that re-reads its state from storage.
type Refresher interface {
	Refresh(ctx context.Context)
}

// watched is the set of keys whose change requires a sync.
var watched = map[string]bool{
	storage.KeyCurrentWallet: true,
	storage.KeyBalances:      true,
	storage.KeyTransactions:  true,
	storage.KeyLedgerState:   true,
	storage.KeyNFTs:          true,
	storage.KeyWallets:       true,
	storage.KeyListings:      true,
	storage.KeyAuctions:      true,
	storage.KeyReferrals:     true,
	storage.KeyMining:        true,
}

// Durable represents the durable state the reconciliation acts on.
type Durable struct {
	Pointer    string
	HasPointer bool
}

// Config represents the configuration required to construct a coordinator.
type Config struct {
	Store      storage.Store
	Wallets    Wallets
	Ledger     Ledger
	Refreshers []Refresher
	Interval   time.Duration
	EvHandler  EventHandler
}

// Coordinator manages the synchronization of a context.
type Coordinator struct {
	store      storage.Store
	wallets    Wallets
	ledger     Ledger
	refreshers []Refresher
	interval   time.Duration
	evHandler  EventHandler
}

// New constructs a coordinator.
func New(cfg Config) (*Coordinator, error) {
	if cfg.Store == nil || cfg.Wallets == nil || cfg.Ledger == nil {
		return nil, errors.New("coordinator: store, wallets and ledger are required")
	}

	ev := func(v string, args ...any) {
		if cfg.EvHandler != nil {
			cfg.EvHandler(v, args...)
		}
	}

	if cfg.Interval <= 0 {
		cfg.Interval = 3 * time.Second
	}

	c := Coordinator{
		store:      cfg.Store,
		wallets:    cfg.Wallets,
		ledger:     cfg.Ledger,
		refreshers: cfg.Refreshers,
		interval:   cfg.Interval,
		evHandler:  ev,
	}

	return &c, nil
}

// ReadDurable reads the durable connected wallet pointer.
func (c *Coordinator) ReadDurable(ctx context.Context) (Durable, error) {
	if err := ctx.Err(); err != nil {
		return Durable{}, err
	}

	ptr, ok := c.wallets.Pointer(ctx)
	return Durable{Pointer: ptr, HasPointer: ok}, nil
}

// Reconcile brings the context in line with durable storage. Components
// re-read their state, the connected wallet follows the durable pointer and
// every cached wallet balance is replaced by the ledger balance.
func (c *Coordinator) Reconcile(ctx context.Context, d Durable) error {
	c.wallets.Refresh(ctx)
	c.ledger.Refresh(ctx)
	for _, r := range c.refreshers {
		r.Refresh(ctx)
	}

	var errs []error

	current, connected := c.wallets.CurrentAddress()
	switch {
	case d.HasPointer && d.Pointer != current:
		if _, err := c.wallets.Wallet(d.Pointer); err != nil {
			c.evHandler("coordinator: reconcile: pointer[%s]: unknown wallet: ignored", d.Pointer)
			break
		}
		if err := c.wallets.Adopt(ctx, d.Pointer); err != nil {
			errs = append(errs, fmt.Errorf("adopt %s: %w", d.Pointer, err))
			break
		}
		c.evHandler("coordinator: reconcile: adopted[%s]", d.Pointer)

	case !d.HasPointer && connected:
		if err := c.wallets.Adopt(ctx, ""); err != nil {
			errs = append(errs, fmt.Errorf("disconnect: %w", err))
			break
		}
		c.evHandler("coordinator: reconcile: disconnected")
	}

	for _, w := range c.wallets.Wallets() {
		balances := c.ledger.Balances(w.Address)
		for token := range w.Balances {
			if _, exists := balances[token]; !exists {
				balances[token] = c.ledger.Balance(w.Address, token)
			}
		}

		if c.wallets.UpdateBalances(ctx, w.Address, balances) {
			c.evHandler("coordinator: reconcile: balances[%s]: updated", w.Address)
		}
	}

	return errors.Join(errs...)
}

// Sync reads the durable state and reconciles against it.
func (c *Coordinator) Sync(ctx context.Context) error {
	d, err := c.ReadDurable(ctx)
	if err != nil {
		return err
	}

	return c.Reconcile(ctx, d)
}

// HandleChange syncs when the changed key is one the context depends on.
// Other keys are ignored.
func (c *Coordinator) HandleChange(ctx context.Context, key string) error {
	if !watched[key] {
		return nil
	}

	return c.Sync(ctx)
}

// Run syncs on every watched change and on the poll interval until the
// context is cancelled. A failed sync is logged and the loop continues.
func (c *Coordinator) Run(ctx context.Context) {
	changes, unwatch := c.store.Watch()
	defer unwatch()

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	c.evHandler("coordinator: run: started: interval[%s]", c.interval)
	defer c.evHandler("coordinator: run: completed")

	for {
		select {
		case <-ctx.Done():
			return

		case key, ok := <-changes:
			if !ok {
				changes = nil
				continue
			}
			if err := c.HandleChange(ctx, key); err != nil {
				c.evHandler("coordinator: change[%s]: ERROR: %s", key, err)
			}

		case <-ticker.C:
			if err := c.Sync(ctx); err != nil {
				c.evHandler("coordinator: poll: ERROR: %s", err)
			}
		}
	}
}
