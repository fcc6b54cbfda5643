package market

// Set of statuses a listing or auction moves through. A record leaves
// active exactly once.
const (
	StatusActive    = "active"
	StatusSold      = "sold"
	StatusCancelled = "cancelled"
	StatusEnded     = "ended"
)

// Set of history entry types.
const (
	HistoryListed    = "listed"
	HistorySold      = "sold"
	HistoryCancelled = "cancelled"
	HistoryCreated   = "created"
	HistoryBid       = "bid"
	HistoryEnded     = "ended"
)

// Set of auction results recorded when an auction ends.
const (
	ResultSold        = "sold"
	ResultNoBids      = "no_bids"
	ResultUnavailable = "nft_unavailable"
)

// HistoryEntry represents one step in the life of a listing or auction.
type HistoryEntry struct {
	Type      string  `json:"type"`
	Price     float64 `json:"price,omitempty"`
	Bidder    string  `json:"bidder,omitempty"`
	Buyer     string  `json:"buyer,omitempty"`
	Winner    string  `json:"winner,omitempty"`
	Result    string  `json:"result,omitempty"`
	Timestamp int64   `json:"timestamp"`
}

// Listing represents a fixed price offer of a token.
type Listing struct {
	ID          string         `json:"id"`
	NFTID       string         `json:"nftId"`
	Seller      string         `json:"seller"`
	Price       float64        `json:"price"`
	Currency    string         `json:"currency"`
	Status      string         `json:"status"`
	Type        string         `json:"type"`
	CreatedAt   int64          `json:"createdAt"`
	SoldAt      int64          `json:"soldAt,omitempty"`
	CancelledAt int64          `json:"cancelledAt,omitempty"`
	Buyer       string         `json:"buyer,omitempty"`
	FinalPrice  float64        `json:"finalPrice,omitempty"`
	History     []HistoryEntry `json:"history"`
}

// Bid represents one accepted bid on an auction.
type Bid struct {
	Bidder    string  `json:"bidder"`
	Amount    float64 `json:"amount"`
	Timestamp int64   `json:"timestamp"`
}

// Auction represents a timed sale of a token to the highest bidder.
type Auction struct {
	ID            string         `json:"id"`
	NFTID         string         `json:"nftId"`
	Seller        string         `json:"seller"`
	StartingPrice float64        `json:"startingPrice"`
	CurrentPrice  float64        `json:"currentPrice"`
	HighestBidder string         `json:"highestBidder,omitempty"`
	Currency      string         `json:"currency"`
	StartTime     int64          `json:"startTime"`
	EndTime       int64          `json:"endTime"`
	Status        string         `json:"status"`
	Result        string         `json:"result,omitempty"`
	Bids          []Bid          `json:"bids"`
	History       []HistoryEntry `json:"history"`
}

// clone returns a copy that shares no slices with the marketplace.
func (a Auction) clone() Auction {
	a.Bids = append([]Bid(nil), a.Bids...)
	a.History = append([]HistoryEntry(nil), a.History...)
	return a
}

func (l Listing) clone() Listing {
	l.History = append([]HistoryEntry(nil), l.History...)
	return l
}

// Sale represents a completed sale used by the market statistics.
type Sale struct {
	Type      string  `json:"type"`
	Price     float64 `json:"price"`
	Timestamp int64   `json:"timestamp"`
	NFTID     string  `json:"nftId"`
}

// Stats represents the aggregate marketplace statistics.
type Stats struct {
	TotalListings  int     `json:"totalListings"`
	ActiveListings int     `json:"activeListings"`
	TotalAuctions  int     `json:"totalAuctions"`
	ActiveAuctions int     `json:"activeAuctions"`
	TotalVolume    float64 `json:"totalVolume"`
	AuctionVolume  float64 `json:"auctionVolume"`
	RecentSales    []Sale  `json:"recentSales"`
	TopSales       []Sale  `json:"topSales"`
}

// Activity represents the listings and auctions created by an address.
type Activity struct {
	Listings []Listing `json:"listings"`
	Auctions []Auction `json:"auctions"`
}
