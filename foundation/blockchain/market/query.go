package market

import (
	"sort"

	"github.com/cosmicspace/cisp/foundation/blockchain/failure"
)

// salesShown is the number of sales kept in the recent and top sales.
const salesShown = 10

// IsNFTListed reports if the token has an active listing or auction.
func (m *Market) IsNFTListed(nftID string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.isListed(nftID)
}

// Listing returns the listing with the specified id.
func (m *Market) Listing(id string) (Listing, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	idx := m.findListing(id)
	if idx < 0 {
		return Listing{}, failure.NotFound("listing %s", id)
	}

	return m.listings[idx].clone(), nil
}

// Auction returns the auction with the specified id.
func (m *Market) Auction(id string) (Auction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	idx := m.findAuction(id)
	if idx < 0 {
		return Auction{}, failure.NotFound("auction %s", id)
	}

	return m.auctions[idx].clone(), nil
}

// ActiveListings returns the active listings, newest first.
func (m *Market) ActiveListings() []Listing {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []Listing
	for _, l := range m.listings {
		if l.Status == StatusActive {
			out = append(out, l.clone())
		}
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt > out[j].CreatedAt })
	return out
}

// ActiveAuctions returns the active auctions, ending soonest first.
func (m *Market) ActiveAuctions() []Auction {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []Auction
	for _, a := range m.auctions {
		if a.Status == StatusActive {
			out = append(out, a.clone())
		}
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].EndTime < out[j].EndTime })
	return out
}

// UserActivity returns the listings and auctions created by the address.
func (m *Market) UserActivity(address string) Activity {
	m.mu.Lock()
	defer m.mu.Unlock()

	act := Activity{Listings: []Listing{}, Auctions: []Auction{}}
	for _, l := range m.listings {
		if l.Seller == address {
			act.Listings = append(act.Listings, l.clone())
		}
	}
	for _, a := range m.auctions {
		if a.Seller == address {
			act.Auctions = append(act.Auctions, a.clone())
		}
	}

	return act
}

// Stats returns the marketplace totals with the most recent and the
// highest priced sales.
func (m *Market) Stats() Stats {
	m.mu.Lock()
	defer m.mu.Unlock()

	st := Stats{
		TotalListings: len(m.listings),
		TotalAuctions: len(m.auctions),
	}

	sales := m.sales("")
	for _, l := range m.listings {
		if l.Status == StatusActive {
			st.ActiveListings++
		}
	}
	for _, a := range m.auctions {
		if a.Status == StatusActive {
			st.ActiveAuctions++
		}
	}
	for _, s := range sales {
		st.TotalVolume += s.Price
		if s.Type == "auction" {
			st.AuctionVolume += s.Price
		}
	}

	recent := append([]Sale(nil), sales...)
	sort.SliceStable(recent, func(i, j int) bool { return recent[i].Timestamp > recent[j].Timestamp })
	st.RecentSales = head(recent)

	top := append([]Sale(nil), sales...)
	sort.SliceStable(top, func(i, j int) bool { return top[i].Price > top[j].Price })
	st.TopSales = head(top)

	return st
}

// PriceHistory returns the sales of the token, oldest first.
func (m *Market) PriceHistory(nftID string) []Sale {
	m.mu.Lock()
	defer m.mu.Unlock()

	sales := m.sales(nftID)
	sort.SliceStable(sales, func(i, j int) bool { return sales[i].Timestamp < sales[j].Timestamp })
	return sales
}

// =============================================================================

// sales collects the completed sales, optionally for a single token.
func (m *Market) sales(nftID string) []Sale {
	sales := []Sale{}

	for _, l := range m.listings {
		if l.Status != StatusSold || (nftID != "" && l.NFTID != nftID) {
			continue
		}
		sales = append(sales, Sale{Type: "listing", Price: l.FinalPrice, Timestamp: l.SoldAt, NFTID: l.NFTID})
	}

	for _, a := range m.auctions {
		if a.Result != ResultSold || (nftID != "" && a.NFTID != nftID) {
			continue
		}
		sales = append(sales, Sale{Type: "auction", Price: a.CurrentPrice, Timestamp: endedAt(a), NFTID: a.NFTID})
	}

	return sales
}

func endedAt(a Auction) int64 {
	if n := len(a.History); n > 0 {
		return a.History[n-1].Timestamp
	}
	return a.EndTime
}

func head(sales []Sale) []Sale {
	if len(sales) > salesShown {
		return sales[:salesShown]
	}
	return sales
}
