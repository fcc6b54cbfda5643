package public

import (
	"context"
	"net/http"
	"time"

	"github.com/cosmicspace/cisp/business/web/errs"
	"github.com/cosmicspace/cisp/foundation/blockchain/failure"
	"github.com/cosmicspace/cisp/foundation/blockchain/market"
	"github.com/cosmicspace/cisp/foundation/blockchain/nft"
	"github.com/cosmicspace/cisp/foundation/web"
)

// NFTs returns the tokens owned by an address, or every token when no
// address is provided.
func (h Handlers) NFTs(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	var ns []nft.NFT
	switch owner := r.URL.Query().Get("owner"); owner {
	case "":
		ns = h.State.NFTs().All()
	default:
		ns = h.State.NFTs().ByOwner(owner)
	}

	if ns == nil {
		ns = []nft.NFT{}
	}

	return web.Respond(ctx, w, ns, http.StatusOK)
}

// NFT returns a single token.
func (h Handlers) NFT(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	n, err := h.State.NFTs().NFT(web.Param(r, "id"))
	if err != nil {
		return errs.FromDomain(err)
	}

	return web.Respond(ctx, w, n, http.StatusOK)
}

// MintNFT mints a token to the connected wallet.
func (h Handlers) MintNFT(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	owner, err := h.State.ConnectedAddress()
	if err != nil {
		return errs.FromDomain(err)
	}

	var mn mintNFT
	if r.ContentLength != 0 {
		if err := decode(r, &mn); err != nil {
			return err
		}
	}

	n, err := h.State.NFTs().Mint(ctx, owner, nft.MintOptions{
		Category: nft.Category(mn.Category),
		Rarity:   nft.Rarity(mn.Rarity),
	})
	if err != nil {
		return errs.FromDomain(err)
	}

	return web.Respond(ctx, w, n, http.StatusCreated)
}

// TransferNFT moves a token owned by the connected wallet. Listed tokens
// can only move through the marketplace.
func (h Handlers) TransferNFT(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	from, err := h.State.ConnectedAddress()
	if err != nil {
		return errs.FromDomain(err)
	}

	var tn transferNFT
	if err := decode(r, &tn); err != nil {
		return err
	}

	id := web.Param(r, "id")
	if h.State.Market().IsNFTListed(id) {
		return errs.FromDomain(failure.AlreadyListed("nft %s is on the marketplace", id))
	}

	n, err := h.State.NFTs().Transfer(ctx, id, from, tn.To)
	if err != nil {
		return errs.FromDomain(err)
	}

	return web.Respond(ctx, w, n, http.StatusOK)
}

// PriceHistory returns the completed sales of a token.
func (h Handlers) PriceHistory(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	sales := h.State.Market().PriceHistory(web.Param(r, "id"))
	if sales == nil {
		sales = []market.Sale{}
	}

	return web.Respond(ctx, w, sales, http.StatusOK)
}

// =============================================================================

// Listings returns the active fixed price listings.
func (h Handlers) Listings(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	ls := h.State.Market().ActiveListings()
	if ls == nil {
		ls = []market.Listing{}
	}

	return web.Respond(ctx, w, ls, http.StatusOK)
}

// Listing returns a single listing.
func (h Handlers) Listing(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	l, err := h.State.Market().Listing(web.Param(r, "id"))
	if err != nil {
		return errs.FromDomain(err)
	}

	return web.Respond(ctx, w, l, http.StatusOK)
}

// List offers a token owned by the connected wallet at a fixed price.
func (h Handlers) List(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	seller, err := h.State.ConnectedAddress()
	if err != nil {
		return errs.FromDomain(err)
	}

	var ln listNFT
	if err := decode(r, &ln); err != nil {
		return err
	}

	l, err := h.State.Market().List(ctx, seller, ln.NFTID, ln.Price, ln.Currency)
	if err != nil {
		return errs.FromDomain(err)
	}

	return web.Respond(ctx, w, l, http.StatusCreated)
}

// Buy purchases a listing with the connected wallet.
func (h Handlers) Buy(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	buyer, err := h.State.ConnectedAddress()
	if err != nil {
		return errs.FromDomain(err)
	}

	l, err := h.State.Market().BuyNFT(ctx, buyer, web.Param(r, "id"))
	if err != nil {
		return errs.FromDomain(err)
	}

	h.Log.Infow("buy", "traceid", web.GetTraceID(ctx), "listing", l.ID, "nft", l.NFTID, "buyer", buyer, "price", l.Price)

	return web.Respond(ctx, w, l, http.StatusOK)
}

// CancelListing withdraws a listing of the connected wallet.
func (h Handlers) CancelListing(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	seller, err := h.State.ConnectedAddress()
	if err != nil {
		return errs.FromDomain(err)
	}

	l, err := h.State.Market().CancelListing(ctx, seller, web.Param(r, "id"))
	if err != nil {
		return errs.FromDomain(err)
	}

	return web.Respond(ctx, w, l, http.StatusOK)
}

// =============================================================================

// Auctions returns the active auctions.
func (h Handlers) Auctions(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	as := h.State.Market().ActiveAuctions()
	if as == nil {
		as = []market.Auction{}
	}

	return web.Respond(ctx, w, as, http.StatusOK)
}

// Auction returns a single auction.
func (h Handlers) Auction(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	a, err := h.State.Market().Auction(web.Param(r, "id"))
	if err != nil {
		return errs.FromDomain(err)
	}

	return web.Respond(ctx, w, a, http.StatusOK)
}

// CreateAuction starts a timed sale of a token owned by the connected wallet.
func (h Handlers) CreateAuction(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	seller, err := h.State.ConnectedAddress()
	if err != nil {
		return errs.FromDomain(err)
	}

	var ca createAuction
	if err := decode(r, &ca); err != nil {
		return err
	}

	a, err := h.State.Market().CreateAuction(ctx, seller, ca.NFTID, ca.StartingPrice, time.Duration(ca.Duration)*time.Millisecond)
	if err != nil {
		return errs.FromDomain(err)
	}

	return web.Respond(ctx, w, a, http.StatusCreated)
}

// Bid places a bid on an auction with the connected wallet.
func (h Handlers) Bid(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	bidder, err := h.State.ConnectedAddress()
	if err != nil {
		return errs.FromDomain(err)
	}

	var pb placeBid
	if err := decode(r, &pb); err != nil {
		return err
	}

	a, err := h.State.Market().PlaceBid(ctx, bidder, web.Param(r, "id"), pb.Amount)
	if err != nil {
		return errs.FromDomain(err)
	}

	h.Log.Infow("bid", "traceid", web.GetTraceID(ctx), "auction", a.ID, "bidder", bidder, "amount", pb.Amount)

	return web.Respond(ctx, w, a, http.StatusOK)
}

// SettleAuction settles an auction whose end time has passed.
func (h Handlers) SettleAuction(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	id := web.Param(r, "id")
	if err := h.State.Market().SettleIfExpired(ctx, id); err != nil {
		return errs.FromDomain(err)
	}

	a, err := h.State.Market().Auction(id)
	if err != nil {
		return errs.FromDomain(err)
	}

	return web.Respond(ctx, w, a, http.StatusOK)
}

// CancelAuction withdraws an auction of the connected wallet that has no bids.
func (h Handlers) CancelAuction(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	seller, err := h.State.ConnectedAddress()
	if err != nil {
		return errs.FromDomain(err)
	}

	a, err := h.State.Market().CancelAuction(ctx, seller, web.Param(r, "id"))
	if err != nil {
		return errs.FromDomain(err)
	}

	return web.Respond(ctx, w, a, http.StatusOK)
}

// =============================================================================

// MarketStats returns the aggregate marketplace statistics.
func (h Handlers) MarketStats(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	return web.Respond(ctx, w, h.State.Market().Stats(), http.StatusOK)
}

// Activity returns the listings and auctions created by an address.
func (h Handlers) Activity(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	return web.Respond(ctx, w, h.State.Market().UserActivity(web.Param(r, "address")), http.StatusOK)
}
