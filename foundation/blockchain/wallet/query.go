package wallet

import (
	"context"

	"github.com/cosmicspace/cisp/foundation/blockchain/failure"
)

// CurrentWallet returns the connected wallet, if any.
func (s *Store) CurrentWallet() (Wallet, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	w, exists := s.wallets[s.current]
	if s.current == "" || !exists {
		return Wallet{}, false
	}

	return w.clone(), true
}

// CurrentAddress returns the address of the connected wallet, if any.
func (s *Store) CurrentAddress() (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.current, s.current != ""
}

// Wallet returns the wallet with the address.
func (s *Store) Wallet(address string) (Wallet, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	w, exists := s.wallets[address]
	if !exists {
		return Wallet{}, failure.NotFound("wallet %s", address)
	}

	return w.clone(), nil
}

// Wallets returns every known wallet ordered by creation time.
func (s *Store) Wallets() []Wallet {
	s.mu.Lock()
	defer s.mu.Unlock()

	ws := make([]Wallet, 0, len(s.wallets))
	for _, w := range s.wallets {
		ws = append(ws, w.clone())
	}
	sortWallets(ws)

	return ws
}

// Pointer reads the durable connected wallet pointer, session copy first.
func (s *Store) Pointer(ctx context.Context) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.pointer(ctx)
}
