package market

import (
	"context"

	"github.com/cosmicspace/cisp/foundation/blockchain/failure"
	"github.com/cosmicspace/cisp/foundation/blockchain/storage"
)

// refresh re-reads the listings and auctions unless the last write of
// that document failed.
func (m *Market) refresh(ctx context.Context) {
	if !m.dirtyListings {
		var listings []Listing
		found, err := storage.ReadJSON(ctx, m.store, storage.KeyListings, &listings)
		switch {
		case err != nil:
			m.evHandler("market: refresh: ERROR: %s", failure.Persistence(err, storage.KeyListings))
		case found:
			m.listings = listings
		}
	}

	if !m.dirtyAuctions {
		var auctions []Auction
		found, err := storage.ReadJSON(ctx, m.store, storage.KeyAuctions, &auctions)
		switch {
		case err != nil:
			m.evHandler("market: refresh: ERROR: %s", failure.Persistence(err, storage.KeyAuctions))
		case found:
			m.auctions = auctions
		}
	}
}

func (m *Market) saveListings(ctx context.Context) {
	m.dirtyListings = false
	if err := storage.WriteJSON(ctx, m.store, storage.KeyListings, m.listings); err != nil {
		m.evHandler("market: save: ERROR: %s", failure.Persistence(err, storage.KeyListings))
		m.dirtyListings = true
	}
}

func (m *Market) saveAuctions(ctx context.Context) {
	m.dirtyAuctions = false
	if err := storage.WriteJSON(ctx, m.store, storage.KeyAuctions, m.auctions); err != nil {
		m.evHandler("market: save: ERROR: %s", failure.Persistence(err, storage.KeyAuctions))
		m.dirtyAuctions = true
	}
}
