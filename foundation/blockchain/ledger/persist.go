package ledger

import (
	"context"
	"sort"

	"github.com/cosmicspace/cisp/foundation/blockchain/failure"
	"github.com/cosmicspace/cisp/foundation/blockchain/storage"
)

// refresh re-reads the balance table, meta and the persisted tail of the
// transaction log. It runs immediately before every mutation so writers
// start from the latest durable state.
func (l *Ledger) refresh(ctx context.Context) {
	if l.dirty {
		return
	}

	var balances map[string]map[string]float64
	found, err := storage.ReadJSON(ctx, l.store, storage.KeyBalances, &balances)
	switch {
	case err != nil:
		l.evHandler("ledger: refresh: ERROR: %s", failure.Persistence(err, storage.KeyBalances))
	case found:
		if balances == nil {
			balances = make(map[string]map[string]float64)
		}
		l.balances = balances
	}

	var meta Meta
	found, err = storage.ReadJSON(ctx, l.store, storage.KeyLedgerState, &meta)
	switch {
	case err != nil:
		l.evHandler("ledger: refresh: ERROR: %s", failure.Persistence(err, storage.KeyLedgerState))
	case found:
		if meta.CirculatingSupply == nil {
			meta.CirculatingSupply = make(map[string]float64)
		}
		if meta.TxCount < l.meta.TxCount {
			meta.TxCount = l.meta.TxCount
		}
		l.meta = meta
	}

	var txs []Transaction
	found, err = storage.ReadJSON(ctx, l.store, storage.KeyTransactions, &txs)
	switch {
	case err != nil:
		l.evHandler("ledger: refresh: ERROR: %s", failure.Persistence(err, storage.KeyTransactions))
	case found:
		added := false
		for _, tx := range txs {
			if _, exists := l.seen[tx.ID]; !exists {
				l.append(tx)
				added = true
			}
		}

		if added {
			sort.SliceStable(l.txs, func(i, j int) bool {
				return l.txs[i].Timestamp < l.txs[j].Timestamp
			})
		}
	}
}

// commit writes the ledger state to durable storage. A failed write is
// logged and the in-memory state is kept as the authority.
func (l *Ledger) commit(ctx context.Context) {
	tail := l.txs
	if len(tail) > l.txHistory {
		tail = tail[len(tail)-l.txHistory:]
	}

	writes := []struct {
		key string
		v   any
	}{
		{storage.KeyBalances, l.balances},
		{storage.KeyTransactions, tail},
		{storage.KeyLedgerState, l.meta},
	}

	l.dirty = false
	for _, w := range writes {
		if err := storage.WriteJSON(ctx, l.store, w.key, w.v); err != nil {
			l.evHandler("ledger: commit: ERROR: %s", failure.Persistence(err, w.key))
			l.dirty = true
		}
	}
}
