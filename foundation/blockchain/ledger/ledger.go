// Package ledger is the single source of truth for token balances. It keeps
// the balance table, the transaction log and the chain tip, and persists all
// three to durable storage after every change.
package ledger

import (
	"context"
	"errors"
	"math"
	"sort"
	"sync"
	"time"

	"github.com/cosmicspace/cisp/foundation/blockchain/failure"
	"github.com/cosmicspace/cisp/foundation/blockchain/storage"
)

// EventHandler defines a function that is called when events
// occur in the processing of the ledger.
type EventHandler func(v string, args ...any)

// BalanceHandler is called after a balance changes.
type BalanceHandler func(address string, token string, balance float64)

// Meta represents the ledger state persisted next to the balance table.
type Meta struct {
	CirculatingSupply map[string]float64 `json:"circulatingSupply"`
	LastBlockTime     int64              `json:"lastBlockTime"`
	Difficulty        int                `json:"difficulty"`
	Height            uint64             `json:"height"`
	LatestHash        string             `json:"latestHash"`
	TxCount           uint64             `json:"txCount"`
	Seeded            bool               `json:"seeded"`
}

// Config represents the configuration required to construct a ledger.
type Config struct {
	Store            storage.Store
	TxHistory        int
	Difficulty       int
	EvHandler        EventHandler
	OnBalanceChanged BalanceHandler
	Now              func() time.Time
}

// Ledger manages the balance table and transaction log.
type Ledger struct {
	mu        sync.Mutex
	store     storage.Store
	txHistory int
	evHandler EventHandler
	onBalance BalanceHandler
	now       func() time.Time

	balances map[string]map[string]float64
	txs      []Transaction
	seen     map[string]struct{}
	meta     Meta

	// dirty is set when the last write failed. Memory is authoritative
	// until the next successful write so refreshes are skipped.
	dirty bool
}

// New constructs a ledger and loads any state found in durable storage.
// Storage that can't be read is logged and the ledger starts empty.
func New(ctx context.Context, cfg Config) (*Ledger, error) {
	if cfg.Store == nil {
		return nil, errors.New("ledger: store is required")
	}

	ev := func(v string, args ...any) {
		if cfg.EvHandler != nil {
			cfg.EvHandler(v, args...)
		}
	}

	if cfg.TxHistory <= 0 {
		cfg.TxHistory = 100
	}

	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	l := Ledger{
		store:     cfg.Store,
		txHistory: cfg.TxHistory,
		evHandler: ev,
		onBalance: cfg.OnBalanceChanged,
		now:       cfg.Now,
		balances:  make(map[string]map[string]float64),
		seen:      make(map[string]struct{}),
		meta: Meta{
			CirculatingSupply: make(map[string]float64),
			Difficulty:        cfg.Difficulty,
		},
	}

	l.mu.Lock()
	l.refresh(ctx)
	l.mu.Unlock()

	return &l, nil
}

// Refresh re-reads the ledger state from durable storage.
func (l *Ledger) Refresh(ctx context.Context) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.refresh(ctx)
}

// =============================================================================

// Mint issues new tokens to the address and returns the new balance.
func (l *Ledger) Mint(ctx context.Context, address string, token string, amount float64) (float64, error) {
	return l.GrantReward(ctx, address, token, amount, TypeMint)
}

// GrantReward issues new tokens to the address and records them with the
// specified issuance type. This is the contract used by the mining and
// referral systems to credit rewards.
func (l *Ledger) GrantReward(ctx context.Context, address string, token string, amount float64, txType string) (float64, error) {
	switch {
	case address == "":
		return 0, failure.Validation("address is required")
	case token == "":
		return 0, failure.Validation("token is required")
	case !validAmount(amount):
		return 0, failure.Validation("amount %v must be positive", amount)
	case !issuance[txType]:
		return 0, failure.Validation("type %q does not issue tokens", txType)
	}

	l.mu.Lock()

	l.refresh(ctx)

	tx := l.newTx("", address, token, amount, txType)
	bal := l.credit(address, token, amount)
	l.meta.CirculatingSupply[token] += amount
	l.append(tx)

	l.evHandler("ledger: %s: to[%s]: token[%s]: amount[%v]: balance[%v]", txType, address, token, amount, bal)

	l.commit(ctx)
	l.mu.Unlock()

	l.emit(address, token, bal)

	return bal, nil
}

// Transfer moves tokens from one address to another. Both balances change
// or neither does.
func (l *Ledger) Transfer(ctx context.Context, from string, to string, token string, amount float64) (Transaction, error) {
	switch {
	case from == "" || to == "":
		return Transaction{}, failure.Validation("from and to addresses are required")
	case from == to:
		return Transaction{}, failure.Validation("can't transfer to the same address %s", from)
	case token == "":
		return Transaction{}, failure.Validation("token is required")
	case !validAmount(amount):
		return Transaction{}, failure.Validation("amount %v must be positive", amount)
	}

	l.mu.Lock()

	l.refresh(ctx)

	if bal := l.balances[from][token]; bal < amount {
		l.mu.Unlock()
		return Transaction{}, failure.InsufficientFunds("%s holds %v %s, needs %v", from, bal, token, amount)
	}

	tx, err := l.newTx(from, to, token, amount, TypeTransfer).Sign(from)
	if err != nil {
		l.mu.Unlock()
		return Transaction{}, failure.Validation("sign transfer: %s", err)
	}

	fromBal := l.credit(from, token, -amount)
	toBal := l.credit(to, token, amount)
	l.append(tx)

	l.evHandler("ledger: TRANSFER: from[%s]: to[%s]: token[%s]: amount[%v]", from, to, token, amount)

	l.commit(ctx)
	l.mu.Unlock()

	l.emit(from, token, fromBal)
	l.emit(to, token, toBal)

	return tx, nil
}

// MineBlock seals the transactions into the next block on the chain tip.
// The search finds the smallest nonce satisfying the difficulty and can be
// cancelled through the context.
func (l *Ledger) MineBlock(ctx context.Context, txs []Transaction, difficulty int) (Block, error) {
	if difficulty < 0 || difficulty > MaxDifficulty {
		return Block{}, failure.Validation("difficulty %d is outside 0..%d", difficulty, MaxDifficulty)
	}

	for _, tx := range txs {
		if err := tx.Validate(); err != nil {
			return Block{}, failure.Validation("tx %s: %s", tx.ID, err)
		}
	}

	l.mu.Lock()
	l.refresh(ctx)
	index := l.meta.Height + 1
	prevHash := l.meta.LatestHash
	l.mu.Unlock()

	b := NewBlock(index, prevHash, l.now().UnixMilli(), txs)
	if err := POW(ctx, &b, difficulty, l.evHandler); err != nil {
		return Block{}, err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	l.refresh(ctx)
	if b.Index > l.meta.Height {
		l.meta.Height = b.Index
		l.meta.LatestHash = b.Hash
		l.meta.LastBlockTime = b.Timestamp
		l.meta.Difficulty = difficulty
		l.commit(ctx)
	}

	return b, nil
}

// Seed mints the founder allocations once for the lifetime of the ledger.
func (l *Ledger) Seed(ctx context.Context, balances map[string]map[string]float64) error {
	l.mu.Lock()
	l.refresh(ctx)
	seeded := l.meta.Seeded
	l.mu.Unlock()

	if seeded {
		return nil
	}

	addresses := make([]string, 0, len(balances))
	for address := range balances {
		addresses = append(addresses, address)
	}
	sort.Strings(addresses)

	for _, address := range addresses {
		for token, amount := range balances[address] {
			if _, err := l.Mint(ctx, address, token, amount); err != nil {
				return err
			}
		}
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	l.meta.Seeded = true
	l.commit(ctx)

	return nil
}

// =============================================================================

// newTx constructs an unsigned transaction stamped with the next nonce.
func (l *Ledger) newTx(from string, to string, token string, amount float64, txType string) Transaction {
	l.meta.TxCount++

	tx := Transaction{
		From:      from,
		To:        to,
		Token:     token,
		Amount:    amount,
		Type:      txType,
		Timestamp: l.now().UnixMilli(),
		Nonce:     l.meta.TxCount,
	}
	tx.ID = tx.Hash()

	return tx
}

// credit adds the amount to the address balance and returns the result.
func (l *Ledger) credit(address string, token string, amount float64) float64 {
	bals, exists := l.balances[address]
	if !exists {
		bals = make(map[string]float64)
		l.balances[address] = bals
	}

	bals[token] += amount
	return bals[token]
}

// append adds the transaction to the log once.
func (l *Ledger) append(tx Transaction) {
	if _, exists := l.seen[tx.ID]; exists {
		return
	}

	l.seen[tx.ID] = struct{}{}
	l.txs = append(l.txs, tx)
}

// emit notifies the balance handler. It must be called without the lock.
func (l *Ledger) emit(address string, token string, balance float64) {
	if l.onBalance != nil {
		l.onBalance(address, token, balance)
	}
}

// validAmount reports whether the amount is a positive finite number.
func validAmount(amount float64) bool {
	return amount > 0 && !math.IsInf(amount, 0)
}
