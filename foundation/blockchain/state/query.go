package state

import (
	"context"

	"github.com/cosmicspace/cisp/foundation/blockchain/coordinator"
	"github.com/cosmicspace/cisp/foundation/blockchain/failure"
	"github.com/cosmicspace/cisp/foundation/blockchain/genesis"
	"github.com/cosmicspace/cisp/foundation/blockchain/ledger"
	"github.com/cosmicspace/cisp/foundation/blockchain/market"
	"github.com/cosmicspace/cisp/foundation/blockchain/mining"
	"github.com/cosmicspace/cisp/foundation/blockchain/nft"
	"github.com/cosmicspace/cisp/foundation/blockchain/referral"
	"github.com/cosmicspace/cisp/foundation/blockchain/wallet"
)

// Genesis returns the economics the context runs with.
func (s *State) Genesis() genesis.Genesis {
	return s.genesis
}

// Ledger returns the balance table and transaction log.
func (s *State) Ledger() *ledger.Ledger {
	return s.ledger
}

// Wallets returns the wallet store.
func (s *State) Wallets() *wallet.Store {
	return s.wallets
}

// NFTs returns the nft registry.
func (s *State) NFTs() *nft.Registry {
	return s.nfts
}

// Market returns the marketplace.
func (s *State) Market() *market.Market {
	return s.market
}

// Mining returns the mining simulator.
func (s *State) Mining() *mining.Simulator {
	return s.mining
}

// Referrals returns the referral ledger.
func (s *State) Referrals() *referral.Referrals {
	return s.referrals
}

// Coordinator returns the sync coordinator.
func (s *State) Coordinator() *coordinator.Coordinator {
	return s.coord
}

// ConnectedAddress returns the address of the connected wallet or a
// validation error when no wallet is connected.
func (s *State) ConnectedAddress() (string, error) {
	addr, ok := s.wallets.CurrentAddress()
	if !ok {
		return "", failure.Validation("no wallet is connected")
	}
	return addr, nil
}

// Account represents the balances and tokens held by an address.
type Account struct {
	Address  string             `json:"address"`
	Balances map[string]float64 `json:"balances"`
	NFTs     []nft.NFT          `json:"nfts"`
}

// QueryAccount returns the balances and tokens held by the address.
func (s *State) QueryAccount(ctx context.Context, address string) Account {
	bals := s.ledger.Balances(address)
	for _, token := range s.genesis.Tokens {
		if _, exists := bals[token]; !exists {
			bals[token] = 0
		}
	}

	nfts := s.nfts.ByOwner(address)
	if nfts == nil {
		nfts = []nft.NFT{}
	}

	return Account{
		Address:  address,
		Balances: bals,
		NFTs:     nfts,
	}
}
