package wallet

import (
	"context"

	"github.com/cosmicspace/cisp/foundation/blockchain/failure"
	"github.com/cosmicspace/cisp/foundation/blockchain/storage"
)

// refresh re-reads the wallet table unless the last write failed.
func (s *Store) refresh(ctx context.Context) {
	if s.dirty {
		return
	}

	var wallets map[string]Wallet
	found, err := storage.ReadJSON(ctx, s.store, storage.KeyWallets, &wallets)
	switch {
	case err != nil:
		s.evHandler("wallet: refresh: ERROR: %s", failure.Persistence(err, storage.KeyWallets))
	case found:
		if wallets == nil {
			wallets = make(map[string]Wallet)
		}
		s.wallets = wallets
	}
}

// save writes the wallet table. A failed write is logged.
func (s *Store) save(ctx context.Context) {
	s.dirty = false
	if err := storage.WriteJSON(ctx, s.store, storage.KeyWallets, s.wallets); err != nil {
		s.evHandler("wallet: save: ERROR: %s", failure.Persistence(err, storage.KeyWallets))
		s.dirty = true
	}
}

// savePointer writes the connected wallet pointer to the session and the
// persistent stores, or removes it from both when disconnected.
func (s *Store) savePointer(ctx context.Context) {
	for _, st := range []storage.Store{s.session, s.store} {
		var err error
		switch s.current {
		case "":
			err = st.Delete(ctx, storage.KeyCurrentWallet)
		default:
			err = storage.WriteJSON(ctx, st, storage.KeyCurrentWallet, s.current)
		}

		if err != nil {
			s.evHandler("wallet: savePointer: ERROR: %s", failure.Persistence(err, storage.KeyCurrentWallet))
		}
	}
}

// pointer reads the durable connected wallet pointer. The session copy
// wins over the persistent copy when both exist.
func (s *Store) pointer(ctx context.Context) (string, bool) {
	for _, st := range []storage.Store{s.session, s.store} {
		var address string
		found, err := storage.ReadJSON(ctx, st, storage.KeyCurrentWallet, &address)
		if err != nil {
			s.evHandler("wallet: pointer: ERROR: %s", failure.Persistence(err, storage.KeyCurrentWallet))
			continue
		}

		if found && address != "" {
			return address, true
		}
	}

	return "", false
}
