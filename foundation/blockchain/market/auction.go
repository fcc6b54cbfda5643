package market

import (
	"context"
	"fmt"
	"time"

	"github.com/cosmicspace/cisp/foundation/blockchain/failure"
	"github.com/cosmicspace/cisp/foundation/blockchain/genesis"
	"github.com/google/uuid"
)

// CreateAuction offers a token owned by the seller to the highest bidder
// until the duration elapses.
func (m *Market) CreateAuction(ctx context.Context, seller string, nftID string, startingPrice float64, duration time.Duration) (Auction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.refresh(ctx)

	if duration < m.econ.MinAuctionDuration.Std() || duration > m.econ.MaxAuctionDuration.Std() {
		return Auction{}, failure.Validation("duration %s must be between %s and %s", duration, m.econ.MinAuctionDuration.Std(), m.econ.MaxAuctionDuration.Std())
	}

	if err := m.checkOffer(seller, nftID, startingPrice); err != nil {
		return Auction{}, err
	}

	now := m.stamp()
	a := Auction{
		ID:            uuid.NewString(),
		NFTID:         nftID,
		Seller:        seller,
		StartingPrice: startingPrice,
		CurrentPrice:  startingPrice,
		Currency:      genesis.TokenXCIS,
		StartTime:     now,
		EndTime:       now + duration.Milliseconds(),
		Status:        StatusActive,
		Bids:          []Bid{},
		History:       []HistoryEntry{{Type: HistoryCreated, Price: startingPrice, Timestamp: now}},
	}

	m.auctions = append(m.auctions, a)
	m.saveAuctions(ctx)
	m.schedule(a)

	m.evHandler("market: auction: created[%s]: nft[%s]: seller[%s]: start[%.2f]: ends[%d]", a.ID, nftID, seller, startingPrice, a.EndTime)

	return a.clone(), nil
}

// PlaceBid records a bid on an active auction. The bid is moved into
// escrow and the previous highest bid is refunded. A bid placed inside the
// anti-snipe window extends the auction by the window.
func (m *Market) PlaceBid(ctx context.Context, bidder string, auctionID string, amount float64) (Auction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.refresh(ctx)

	idx := m.findAuction(auctionID)
	if idx < 0 {
		return Auction{}, failure.NotFound("auction %s", auctionID)
	}
	a := &m.auctions[idx]

	now := m.stamp()

	switch {
	case a.Status != StatusActive:
		return Auction{}, failure.Validation("auction %s is %s", auctionID, a.Status)
	case now >= a.EndTime:
		return Auction{}, failure.Validation("auction %s has ended", auctionID)
	case bidder == "":
		return Auction{}, failure.Validation("bidder address is required")
	case bidder == a.Seller:
		return Auction{}, failure.Validation("seller cannot bid on their own auction")
	}

	minBid := a.CurrentPrice * (1 + m.econ.MinBidIncrement)
	if amount+epsilon < minBid {
		return Auction{}, failure.Validation("bid %.2f is below the minimum of %.2f", amount, minBid)
	}

	// A bidder raising their own bid may count the amount already held.
	available := m.ledger.Balance(bidder, a.Currency)
	if bidder == a.HighestBidder {
		available += a.CurrentPrice
	}
	if available+epsilon < amount {
		return Auction{}, failure.InsufficientFunds("%s has %.2f %s, bid needs %.2f", bidder, available, a.Currency, amount)
	}

	if err := m.escrow(ctx, a, bidder, amount); err != nil {
		return Auction{}, err
	}

	a.CurrentPrice = amount
	a.HighestBidder = bidder
	a.Bids = append(a.Bids, Bid{Bidder: bidder, Amount: amount, Timestamp: now})
	a.History = append(a.History, HistoryEntry{Type: HistoryBid, Price: amount, Bidder: bidder, Timestamp: now})

	window := m.econ.AntiSnipeWindow.Std().Milliseconds()
	extended := false
	if a.EndTime-now < window {
		a.EndTime += window
		extended = true
	}

	m.saveAuctions(ctx)

	if extended {
		m.schedule(*a)
	}

	m.evHandler("market: bid: auction[%s]: bidder[%s]: amount[%.2f]: extended[%t]", a.ID, bidder, amount, extended)

	return a.clone(), nil
}

// FinalizeAuction settles an active auction. With a highest bidder the
// token moves to the winner and the escrowed bid is paid to the seller
// less the fee. Settling an unknown auction or one that already left active
// is a no-op.
func (m *Market) FinalizeAuction(ctx context.Context, auctionID string) (Auction, error) {
	m.mu.Lock()

	m.refresh(ctx)

	idx := m.findAuction(auctionID)
	if idx < 0 {
		m.mu.Unlock()
		return Auction{}, nil
	}

	a := &m.auctions[idx]
	if a.Status != StatusActive {
		settled := a.clone()
		m.mu.Unlock()
		return settled, nil
	}

	m.settle(ctx, a)
	m.saveAuctions(ctx)
	m.unschedule(a.ID)

	settled := a.clone()
	m.mu.Unlock()

	if m.onSettled != nil {
		m.onSettled(settled)
	}

	return settled, nil
}

// SettleIfExpired settles the auction when its end time has passed. It is
// what the expiry timer runs.
func (m *Market) SettleIfExpired(ctx context.Context, auctionID string) error {
	m.mu.Lock()
	m.refresh(ctx)

	idx := m.findAuction(auctionID)
	if idx < 0 {
		m.mu.Unlock()
		return nil
	}

	a := m.auctions[idx]
	if a.Status != StatusActive {
		m.mu.Unlock()
		return nil
	}

	// The end time moved since the timer was set.
	if m.stamp() < a.EndTime {
		m.schedule(a)
		m.mu.Unlock()
		return nil
	}
	m.mu.Unlock()

	_, err := m.FinalizeAuction(ctx, auctionID)
	return err
}

// SettleExpired settles every active auction whose end time has passed and
// reports how many were settled.
func (m *Market) SettleExpired(ctx context.Context) (int, error) {
	m.mu.Lock()
	m.refresh(ctx)

	now := m.stamp()
	var expired []string
	for _, a := range m.auctions {
		if a.Status == StatusActive && now >= a.EndTime {
			expired = append(expired, a.ID)
		}
	}
	m.mu.Unlock()

	for _, id := range expired {
		if _, err := m.FinalizeAuction(ctx, id); err != nil {
			return 0, fmt.Errorf("settle auction %s: %w", id, err)
		}
	}

	if len(expired) > 0 {
		m.evHandler("market: monitor: settled[%d]", len(expired))
	}

	return len(expired), nil
}

// CancelAuction withdraws an active auction that has no bids. Only the
// seller may cancel.
func (m *Market) CancelAuction(ctx context.Context, seller string, auctionID string) (Auction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.refresh(ctx)

	idx := m.findAuction(auctionID)
	if idx < 0 {
		return Auction{}, failure.NotFound("auction %s", auctionID)
	}
	a := &m.auctions[idx]

	switch {
	case a.Status != StatusActive:
		return Auction{}, failure.Validation("auction %s is %s", auctionID, a.Status)
	case a.Seller != seller:
		return Auction{}, failure.NotOwner("auction %s belongs to %s", auctionID, a.Seller)
	case len(a.Bids) > 0:
		return Auction{}, failure.Validation("auction %s has bids", auctionID)
	}

	now := m.stamp()
	a.Status = StatusCancelled
	a.History = append(a.History, HistoryEntry{Type: HistoryCancelled, Timestamp: now})

	m.saveAuctions(ctx)
	m.unschedule(a.ID)

	m.evHandler("market: cancel: auction[%s]: nft[%s]", a.ID, a.NFTID)

	return a.clone(), nil
}

// =============================================================================

// escrow refunds the previous highest bid and moves the new bid into
// escrow. If the new bid cannot be taken the refund is reversed.
func (m *Market) escrow(ctx context.Context, a *Auction, bidder string, amount float64) error {
	escrow := m.econ.EscrowAddress

	prev := a.HighestBidder
	if prev != "" {
		if _, err := m.ledger.Transfer(ctx, escrow, prev, a.Currency, a.CurrentPrice); err != nil {
			return fmt.Errorf("refund previous bid: %w", err)
		}
	}

	if _, err := m.ledger.Transfer(ctx, bidder, escrow, a.Currency, amount); err != nil {
		if prev != "" {
			if _, rerr := m.ledger.Transfer(ctx, prev, escrow, a.Currency, a.CurrentPrice); rerr != nil {
				m.evHandler("market: bid: ERROR: restore escrow auction[%s]: %s", a.ID, rerr)
			}
		}
		return err
	}

	return nil
}

// settle ends the auction. A token that can no longer be moved from the
// seller leaves the bid refunded to the bidder.
func (m *Market) settle(ctx context.Context, a *Auction) {
	now := m.stamp()
	a.Status = StatusEnded

	if a.HighestBidder == "" {
		a.Result = ResultNoBids
		a.History = append(a.History, HistoryEntry{Type: HistoryEnded, Result: ResultNoBids, Timestamp: now})
		m.evHandler("market: settle: auction[%s]: no bids", a.ID)
		return
	}

	if _, err := m.registry.Transfer(ctx, a.NFTID, a.Seller, a.HighestBidder); err != nil {
		m.evHandler("market: settle: ERROR: auction[%s]: nft[%s]: %s", a.ID, a.NFTID, err)

		if _, rerr := m.ledger.Transfer(ctx, m.econ.EscrowAddress, a.HighestBidder, a.Currency, a.CurrentPrice); rerr != nil {
			m.evHandler("market: settle: ERROR: refund auction[%s]: %s", a.ID, rerr)
		}

		a.Result = ResultUnavailable
		a.History = append(a.History, HistoryEntry{Type: HistoryEnded, Result: ResultUnavailable, Timestamp: now})
		return
	}

	if err := m.pay(ctx, m.econ.EscrowAddress, a.Seller, a.Currency, a.CurrentPrice); err != nil {
		m.evHandler("market: settle: ERROR: pay seller auction[%s]: %s", a.ID, err)
	}

	a.Result = ResultSold
	a.History = append(a.History, HistoryEntry{Type: HistoryEnded, Price: a.CurrentPrice, Winner: a.HighestBidder, Result: ResultSold, Timestamp: now})

	m.evHandler("market: settle: auction[%s]: nft[%s]: winner[%s]: price[%.2f]", a.ID, a.NFTID, a.HighestBidder, a.CurrentPrice)
}

// schedule arms the expiry timer for the auction.
func (m *Market) schedule(a Auction) {
	if m.scheduler == nil {
		return
	}

	delay := time.Duration(a.EndTime-m.stamp()) * time.Millisecond
	if delay < 0 {
		delay = 0
	}

	id := a.ID
	m.scheduler.After(timerKey(id), delay, func(ctx context.Context) error {
		return m.SettleIfExpired(ctx, id)
	})
}

func (m *Market) unschedule(id string) {
	if m.scheduler != nil {
		m.scheduler.Cancel(timerKey(id))
	}
}

func (m *Market) findAuction(id string) int {
	for i := range m.auctions {
		if m.auctions[i].ID == id {
			return i
		}
	}
	return -1
}

func timerKey(auctionID string) string {
	return "auction:" + auctionID
}
