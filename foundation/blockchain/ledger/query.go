package ledger

// Balance returns the balance of the token held by the address. Unknown
// addresses and tokens have a balance of zero.
func (l *Ledger) Balance(address string, token string) float64 {
	l.mu.Lock()
	defer l.mu.Unlock()

	return l.balances[address][token]
}

// Balances returns a copy of every token balance held by the address.
func (l *Ledger) Balances(address string) map[string]float64 {
	l.mu.Lock()
	defer l.mu.Unlock()

	bals := make(map[string]float64, len(l.balances[address]))
	for token, amount := range l.balances[address] {
		bals[token] = amount
	}

	return bals
}

// Accounts returns a copy of the full balance table.
func (l *Ledger) Accounts() map[string]map[string]float64 {
	l.mu.Lock()
	defer l.mu.Unlock()

	accounts := make(map[string]map[string]float64, len(l.balances))
	for address, bals := range l.balances {
		cpy := make(map[string]float64, len(bals))
		for token, amount := range bals {
			cpy[token] = amount
		}
		accounts[address] = cpy
	}

	return accounts
}

// Transactions returns the log entries touching the address, oldest first.
// An empty address returns the whole log.
func (l *Ledger) Transactions(address string) []Transaction {
	l.mu.Lock()
	defer l.mu.Unlock()

	var txs []Transaction
	for _, tx := range l.txs {
		if address == "" || tx.Touches(address) {
			txs = append(txs, tx)
		}
	}

	return txs
}

// Supply returns the amount of the token issued so far.
func (l *Ledger) Supply(token string) float64 {
	l.mu.Lock()
	defer l.mu.Unlock()

	return l.meta.CirculatingSupply[token]
}

// Meta returns a copy of the ledger meta.
func (l *Ledger) Meta() Meta {
	l.mu.Lock()
	defer l.mu.Unlock()

	meta := l.meta
	meta.CirculatingSupply = make(map[string]float64, len(l.meta.CirculatingSupply))
	for token, amount := range l.meta.CirculatingSupply {
		meta.CirculatingSupply[token] = amount
	}

	return meta
}
