// Package storage defines the durable key/value store shared by every
// execution context and the well known keys the ledger components persist
// under. Values are whole JSON documents; a write replaces the document.
package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
)

// ErrNotFound is returned when a key does not exist in the store.
var ErrNotFound = errors.New("key not found")

// Set of keys the components persist their state under.
const (
	KeyBalances      = "cisp_balances"
	KeyTransactions  = "cisp_transactions"
	KeyLedgerState   = "cisp_state"
	KeyWallets       = "cisp_wallets"
	KeyCurrentWallet = "current_wallet_id"
	KeyNFTs          = "nft_system"
	KeyListings      = "nft_listings"
	KeyAuctions      = "nft_auctions"
	KeyReferrals     = "referralData"
	KeyMining        = "mining_stats"
)

// Store interface represents the behavior required to be implemented by any
// package providing support for durable storage.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
	Keys(ctx context.Context) ([]string, error)
	Watch() (changes <-chan string, cancel func())
	Close() error
}

// =============================================================================

// ReadJSON reads the document stored under key into v. It reports false
// when the key does not exist.
func ReadJSON(ctx context.Context, s Store, key string, v any) (bool, error) {
	data, err := s.Get(ctx, key)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return false, nil
		}
		return false, err
	}

	if err := json.Unmarshal(data, v); err != nil {
		return false, fmt.Errorf("decode %q: %w", key, err)
	}

	return true, nil
}

// WriteJSON replaces the document stored under key with v.
func WriteJSON(ctx context.Context, s Store, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %q: %w", key, err)
	}

	return s.Set(ctx, key, data)
}

// =============================================================================

// Watchers maintains the set of channels registered to receive the names of
// changed keys. Implementations of Store embed it to provide Watch.
type Watchers struct {
	mu   sync.RWMutex
	next int
	m    map[int]chan string
}

// Watch registers a new channel for change notifications. The returned
// cancel function releases the channel.
func (w *Watchers) Watch() (<-chan string, func()) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.m == nil {
		w.m = make(map[int]chan string)
	}

	// A notification is dropped if the receiver is not ready. Polling
	// covers anything that is dropped so this only has to absorb bursts.
	const changeBuffer = 64

	id := w.next
	w.next++
	ch := make(chan string, changeBuffer)
	w.m[id] = ch

	cancel := func() {
		w.mu.Lock()
		defer w.mu.Unlock()

		if ch, exists := w.m[id]; exists {
			delete(w.m, id)
			close(ch)
		}
	}

	return ch, cancel
}

// Notify sends the key to every registered channel. Notify will not block
// waiting for a receiver on any given channel.
func (w *Watchers) Notify(key string) {
	w.mu.RLock()
	defer w.mu.RUnlock()

	for _, ch := range w.m {
		select {
		case ch <- key:
		default:
		}
	}
}

// CloseAll closes and removes every registered channel.
func (w *Watchers) CloseAll() {
	w.mu.Lock()
	defer w.mu.Unlock()

	for id, ch := range w.m {
		delete(w.m, id)
		close(ch)
	}
}
