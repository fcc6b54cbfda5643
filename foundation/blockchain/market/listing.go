package market

import (
	"context"

	"github.com/cosmicspace/cisp/foundation/blockchain/failure"
	"github.com/cosmicspace/cisp/foundation/blockchain/genesis"
	"github.com/google/uuid"
)

// List offers a token owned by the seller at a fixed price.
func (m *Market) List(ctx context.Context, seller string, nftID string, price float64, currency string) (Listing, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.refresh(ctx)

	if currency == "" {
		currency = genesis.TokenXCIS
	}

	if err := m.checkOffer(seller, nftID, price); err != nil {
		return Listing{}, err
	}

	now := m.stamp()
	l := Listing{
		ID:        uuid.NewString(),
		NFTID:     nftID,
		Seller:    seller,
		Price:     price,
		Currency:  currency,
		Status:    StatusActive,
		Type:      "fixed",
		CreatedAt: now,
		History:   []HistoryEntry{{Type: HistoryListed, Price: price, Timestamp: now}},
	}

	m.listings = append(m.listings, l)
	m.saveListings(ctx)

	m.evHandler("market: list: listing[%s]: nft[%s]: seller[%s]: price[%.2f %s]", l.ID, nftID, seller, price, currency)

	return l.clone(), nil
}

// BuyNFT purchases an active listing. The token moves to the buyer, the
// seller receives the price less the fee and the treasury receives the fee.
func (m *Market) BuyNFT(ctx context.Context, buyer string, listingID string) (Listing, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.refresh(ctx)

	idx := m.findListing(listingID)
	if idx < 0 {
		return Listing{}, failure.NotFound("listing %s", listingID)
	}
	l := &m.listings[idx]

	switch {
	case l.Status != StatusActive:
		return Listing{}, failure.Validation("listing %s is %s", listingID, l.Status)
	case buyer == "":
		return Listing{}, failure.Validation("buyer address is required")
	case buyer == l.Seller:
		return Listing{}, failure.Validation("seller cannot buy their own listing")
	}

	if bal := m.ledger.Balance(buyer, l.Currency); bal+epsilon < l.Price {
		return Listing{}, failure.InsufficientFunds("%s has %.2f %s, listing needs %.2f", buyer, bal, l.Currency, l.Price)
	}

	if _, err := m.registry.Transfer(ctx, l.NFTID, l.Seller, buyer); err != nil {
		return Listing{}, err
	}

	if err := m.pay(ctx, buyer, l.Seller, l.Currency, l.Price); err != nil {
		if _, rerr := m.registry.Transfer(ctx, l.NFTID, buyer, l.Seller); rerr != nil {
			m.evHandler("market: buy: ERROR: return nft[%s]: %s", l.NFTID, rerr)
		}
		return Listing{}, err
	}

	now := m.stamp()
	l.Status = StatusSold
	l.Buyer = buyer
	l.SoldAt = now
	l.FinalPrice = l.Price
	l.History = append(l.History, HistoryEntry{Type: HistorySold, Price: l.Price, Buyer: buyer, Timestamp: now})

	m.saveListings(ctx)

	m.evHandler("market: buy: listing[%s]: nft[%s]: buyer[%s]: price[%.2f %s]", l.ID, l.NFTID, buyer, l.Price, l.Currency)

	return l.clone(), nil
}

// CancelListing withdraws an active listing. Only the seller may cancel.
func (m *Market) CancelListing(ctx context.Context, seller string, listingID string) (Listing, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.refresh(ctx)

	idx := m.findListing(listingID)
	if idx < 0 {
		return Listing{}, failure.NotFound("listing %s", listingID)
	}
	l := &m.listings[idx]

	switch {
	case l.Status != StatusActive:
		return Listing{}, failure.Validation("listing %s is %s", listingID, l.Status)
	case l.Seller != seller:
		return Listing{}, failure.NotOwner("listing %s belongs to %s", listingID, l.Seller)
	}

	now := m.stamp()
	l.Status = StatusCancelled
	l.CancelledAt = now
	l.History = append(l.History, HistoryEntry{Type: HistoryCancelled, Timestamp: now})

	m.saveListings(ctx)

	m.evHandler("market: cancel: listing[%s]: nft[%s]", l.ID, l.NFTID)

	return l.clone(), nil
}

// =============================================================================

// checkOffer applies the rules shared by listings and auctions.
func (m *Market) checkOffer(seller string, nftID string, price float64) error {
	if seller == "" || nftID == "" {
		return failure.Validation("seller and nft id are required")
	}

	if price+epsilon < m.econ.MinPrice {
		return failure.Validation("price %.2f is below the minimum of %.2f", price, m.econ.MinPrice)
	}

	n, err := m.registry.NFT(nftID)
	if err != nil {
		return err
	}

	if n.Owner != seller {
		return failure.NotOwner("nft %s is not owned by %s", nftID, seller)
	}

	if m.isListed(nftID) {
		return failure.AlreadyListed("nft %s", nftID)
	}

	return nil
}

func (m *Market) findListing(id string) int {
	for i := range m.listings {
		if m.listings[i].ID == id {
			return i
		}
	}
	return -1
}
