// Package wallet manages the wallets known to the system and which one is
// connected in the current execution context.
package wallet

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/cosmicspace/cisp/foundation/blockchain/failure"
	"github.com/cosmicspace/cisp/foundation/blockchain/genesis"
	"github.com/cosmicspace/cisp/foundation/blockchain/storage"
)

// EventHandler defines a function that is called when events
// occur in the processing of wallets.
type EventHandler func(v string, args ...any)

// Handler is called after the connected wallet changes. A nil wallet means
// no wallet is connected.
type Handler func(w *Wallet)

// Minter represents the ledger behavior required to grant new wallets
// their welcome tokens.
type Minter interface {
	Mint(ctx context.Context, address string, token string, amount float64) (float64, error)
}

// Wallet represents a user identity and the cached view of its balances.
type Wallet struct {
	Address      string             `json:"address"`
	Name         string             `json:"name"`
	SeedPhrase   string             `json:"seedPhrase"`
	CreatedAt    int64              `json:"createdAt"`
	LastAccessed int64              `json:"lastAccessed"`
	Balances     map[string]float64 `json:"balances"`
}

// clone returns a copy that shares no memory with w.
func (w Wallet) clone() Wallet {
	bals := make(map[string]float64, len(w.Balances))
	for token, amount := range w.Balances {
		bals[token] = amount
	}
	w.Balances = bals
	return w
}

// Config represents the configuration required to construct a wallet store.
type Config struct {
	Store        storage.Store
	Session      storage.Store
	Minter       Minter
	WelcomeGrant float64
	EvHandler    EventHandler
	Now          func() time.Time
	Rand         *rand.Rand
}

// Store manages the set of wallets and the connected wallet.
type Store struct {
	mu        sync.Mutex
	store     storage.Store
	session   storage.Store
	minter    Minter
	grant     float64
	evHandler EventHandler
	now       func() time.Time
	rnd       *rand.Rand

	wallets   map[string]Wallet
	current   string
	listeners []Handler
	dirty     bool
}

// New constructs a wallet store and loads the wallets and the connected
// wallet pointer from durable storage.
func New(ctx context.Context, cfg Config) (*Store, error) {
	if cfg.Store == nil || cfg.Session == nil {
		return nil, errors.New("wallet: store and session are required")
	}

	if cfg.Minter == nil {
		return nil, errors.New("wallet: minter is required")
	}

	ev := func(v string, args ...any) {
		if cfg.EvHandler != nil {
			cfg.EvHandler(v, args...)
		}
	}

	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	if cfg.Rand == nil {
		cfg.Rand = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}

	s := Store{
		store:     cfg.Store,
		session:   cfg.Session,
		minter:    cfg.Minter,
		grant:     cfg.WelcomeGrant,
		evHandler: ev,
		now:       cfg.Now,
		rnd:       cfg.Rand,
		wallets:   make(map[string]Wallet),
	}

	s.mu.Lock()
	s.refresh(ctx)
	if address, exists := s.pointer(ctx); exists {
		if _, known := s.wallets[address]; known {
			s.current = address
		}
	}
	s.mu.Unlock()

	return &s, nil
}

// Subscribe registers a handler called after the connected wallet changes.
func (s *Store) Subscribe(h Handler) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.listeners = append(s.listeners, h)
}

// =============================================================================

// CreateWallet constructs a new wallet, connects it and grants it the
// welcome tokens through the ledger.
func (s *Store) CreateWallet(ctx context.Context, name string) (Wallet, error) {
	s.mu.Lock()
	s.refresh(ctx)

	address := s.newAddress()
	if name == "" {
		name = fmt.Sprintf("Wallet %d", len(s.wallets)+1)
	}
	seed := s.newSeedPhrase()
	s.mu.Unlock()

	if s.grant > 0 {
		if _, err := s.minter.Mint(ctx, address, genesis.TokenXCIS, s.grant); err != nil {
			return Wallet{}, fmt.Errorf("welcome grant: %w", err)
		}
	}

	now := s.now().UnixMilli()
	w := Wallet{
		Address:      address,
		Name:         name,
		SeedPhrase:   seed,
		CreatedAt:    now,
		LastAccessed: now,
		Balances: map[string]float64{
			genesis.TokenCIS:  0,
			genesis.TokenXCIS: s.grant,
		},
	}

	s.mu.Lock()
	s.refresh(ctx)
	s.wallets[address] = w
	s.current = address
	s.save(ctx)
	s.savePointer(ctx)
	s.evHandler("wallet: CreateWallet: address[%s]: name[%s]", address, name)
	cpy := w.clone()
	s.mu.Unlock()

	s.notify(&cpy)

	return cpy.clone(), nil
}

// ConnectWallet makes the wallet with the address the connected wallet.
func (s *Store) ConnectWallet(ctx context.Context, address string) (Wallet, error) {
	s.mu.Lock()
	s.refresh(ctx)

	w, exists := s.wallets[address]
	if !exists {
		s.mu.Unlock()
		return Wallet{}, failure.NotFound("wallet %s", address)
	}

	w.LastAccessed = s.now().UnixMilli()
	s.wallets[address] = w
	s.current = address
	s.save(ctx)
	s.savePointer(ctx)
	s.evHandler("wallet: ConnectWallet: address[%s]", address)
	cpy := w.clone()
	s.mu.Unlock()

	s.notify(&cpy)

	return cpy.clone(), nil
}

// DisconnectWallet clears the connected wallet. Disconnecting when no wallet
// is connected does nothing.
func (s *Store) DisconnectWallet(ctx context.Context) error {
	s.mu.Lock()

	wasConnected := s.current != ""
	s.current = ""
	s.savePointer(ctx)
	s.mu.Unlock()

	if wasConnected {
		s.evHandler("wallet: DisconnectWallet: disconnected")
		s.notify(nil)
	}

	return nil
}

// Adopt switches the connected wallet to match the durable pointer found by
// another context. No pointer is written. An empty address disconnects.
func (s *Store) Adopt(ctx context.Context, address string) error {
	s.mu.Lock()

	if address == s.current {
		s.mu.Unlock()
		return nil
	}

	if address == "" {
		s.current = ""
		s.mu.Unlock()

		s.evHandler("wallet: Adopt: disconnected")
		s.notify(nil)
		return nil
	}

	w, exists := s.wallets[address]
	if !exists {
		s.mu.Unlock()
		return failure.NotFound("wallet %s", address)
	}

	s.current = address
	cpy := w.clone()
	s.mu.Unlock()

	s.evHandler("wallet: Adopt: address[%s]", address)
	s.notify(&cpy)

	return nil
}

// UpdateBalance records the latest ledger balance of one token in the
// cached wallet. It reports if the cache changed.
func (s *Store) UpdateBalance(ctx context.Context, address string, token string, balance float64) bool {
	return s.UpdateBalances(ctx, address, map[string]float64{token: balance})
}

// UpdateBalances records the latest ledger balances in the cached wallet.
// Unknown addresses are ignored. It reports if the cache changed.
func (s *Store) UpdateBalances(ctx context.Context, address string, balances map[string]float64) bool {
	s.mu.Lock()

	w, exists := s.wallets[address]
	if !exists {
		s.mu.Unlock()
		return false
	}

	changed := false
	for token, amount := range balances {
		if cur, ok := w.Balances[token]; !ok || cur != amount {
			if w.Balances == nil {
				w.Balances = make(map[string]float64)
			}
			w.Balances[token] = amount
			changed = true
		}
	}

	if !changed {
		s.mu.Unlock()
		return false
	}

	s.wallets[address] = w
	s.save(ctx)
	isCurrent := address == s.current
	cpy := w.clone()
	s.mu.Unlock()

	if isCurrent {
		s.notify(&cpy)
	}

	return true
}

// Refresh re-reads the wallet table from durable storage.
func (s *Store) Refresh(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.refresh(ctx)
}

// =============================================================================

// notify calls every handler with a copy of the wallet. It must be called
// without the lock and with a wallet no longer shared with the table.
func (s *Store) notify(w *Wallet) {
	s.mu.Lock()
	listeners := append([]Handler(nil), s.listeners...)
	s.mu.Unlock()

	for _, h := range listeners {
		if w == nil {
			h(nil)
			continue
		}
		cpy := w.clone()
		h(&cpy)
	}
}

// newAddress returns an address not yet used by a known wallet.
func (s *Store) newAddress() string {
	const chars = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ"

	for {
		var b strings.Builder
		b.WriteString("CISP")
		b.WriteString(strings.ToUpper(strconv.FormatInt(s.now().UnixMilli(), 36)))
		for range 5 {
			b.WriteByte(chars[s.rnd.IntN(len(chars))])
		}

		address := b.String()
		if _, exists := s.wallets[address]; !exists {
			return address
		}
	}
}

// newSeedPhrase returns 12 words drawn uniformly with repetition.
func (s *Store) newSeedPhrase() string {
	words := make([]string, SeedWords)
	for i := range words {
		words[i] = vocabulary[s.rnd.IntN(len(vocabulary))]
	}

	return strings.Join(words, " ")
}

// sortWallets orders wallets by creation time.
func sortWallets(ws []Wallet) {
	sort.Slice(ws, func(i, j int) bool {
		if ws[i].CreatedAt == ws[j].CreatedAt {
			return ws[i].Address < ws[j].Address
		}
		return ws[i].CreatedAt < ws[j].CreatedAt
	})
}
