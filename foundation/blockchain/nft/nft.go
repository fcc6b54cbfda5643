// Package nft maintains the registry of non-fungible tokens and their
// ownership. Every token is generated from a category and a rarity and is
// owned by exactly one address.
package nft

import (
	"context"
	"errors"
	"math/rand/v2"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/cosmicspace/cisp/foundation/blockchain/failure"
	"github.com/cosmicspace/cisp/foundation/blockchain/storage"
)

// EventHandler defines a function that is called when events
// occur in the processing of the registry.
type EventHandler func(v string, args ...any)

// MintHandler is called after a token is minted.
type MintHandler func(n NFT)

// TransferHandler is called after a token changes owner.
type TransferHandler func(n NFT, from string)

// Attribute represents one trait of a token.
type Attribute struct {
	TraitType string `json:"trait_type"`
	Value     string `json:"value"`
}

// Metadata represents the presentation data of a token.
type Metadata struct {
	Description     string `json:"description"`
	ExternalURL     string `json:"external_url"`
	AnimationURL    string `json:"animation_url,omitempty"`
	BackgroundColor string `json:"background_color"`
}

// NFT represents a single token.
type NFT struct {
	ID               string      `json:"id" validate:"required"`
	Name             string      `json:"name"`
	Category         Category    `json:"category" validate:"required,oneof=Planet Star Galaxy Nebula BlackHole Comet Asteroid Satellite"`
	Rarity           Rarity      `json:"rarity" validate:"required,oneof=COMMON UNCOMMON RARE EPIC LEGENDARY"`
	Owner            string      `json:"owner" validate:"required"`
	CreatedAt        int64       `json:"createdAt"`
	LastTransferTime int64       `json:"lastTransferTime,omitempty"`
	IsWelcome        bool        `json:"isWelcome"`
	Image            string      `json:"image"`
	Attributes       []Attribute `json:"attributes"`
	Metadata         *Metadata   `json:"metadata"`
}

// MintOptions controls the category and rarity of a new token. Empty
// values are chosen at random.
type MintOptions struct {
	Category Category
	Rarity   Rarity
	Welcome  bool
}

// Config represents the configuration required to construct a registry.
type Config struct {
	Store         storage.Store
	EvHandler     EventHandler
	OnMinted      MintHandler
	OnTransferred TransferHandler
	Now           func() time.Time
	Rand          *rand.Rand
}

// Registry manages the set of tokens.
type Registry struct {
	mu            sync.Mutex
	store         storage.Store
	evHandler     EventHandler
	onMinted      MintHandler
	onTransferred TransferHandler
	now           func() time.Time
	rnd           *rand.Rand

	nfts  map[string]NFT
	dirty bool
}

// New constructs a registry, loads the tokens found in durable storage and
// repairs them.
func New(ctx context.Context, cfg Config) (*Registry, error) {
	if cfg.Store == nil {
		return nil, errors.New("nft: store is required")
	}

	ev := func(v string, args ...any) {
		if cfg.EvHandler != nil {
			cfg.EvHandler(v, args...)
		}
	}

	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	if cfg.Rand == nil {
		cfg.Rand = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}

	r := Registry{
		store:         cfg.Store,
		evHandler:     ev,
		onMinted:      cfg.OnMinted,
		onTransferred: cfg.OnTransferred,
		now:           cfg.Now,
		rnd:           cfg.Rand,
		nfts:          make(map[string]NFT),
	}

	r.mu.Lock()
	r.refresh(ctx)
	r.mu.Unlock()

	return &r, nil
}

// Refresh re-reads the tokens from durable storage and repairs them.
func (r *Registry) Refresh(ctx context.Context) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.refresh(ctx)
}

// =============================================================================

// Mint generates a new token for the owner.
func (r *Registry) Mint(ctx context.Context, owner string, opts MintOptions) (NFT, error) {
	if owner == "" {
		return NFT{}, failure.Validation("owner address is required")
	}

	if opts.Category != "" && !opts.Category.IsValid() {
		return NFT{}, failure.Validation("unknown category %q", opts.Category)
	}

	if opts.Rarity != "" && !opts.Rarity.IsValid() {
		return NFT{}, failure.Validation("unknown rarity %q", opts.Rarity)
	}

	r.mu.Lock()

	r.refresh(ctx)

	if opts.Category == "" {
		opts.Category = Categories[r.rnd.IntN(len(Categories))]
	}

	if opts.Rarity == "" {
		opts.Rarity = r.rollRarity()
	}

	n := r.generate(owner, opts)
	r.nfts[n.ID] = n
	r.save(ctx)

	r.evHandler("nft: Mint: id[%s]: owner[%s]: %s %s: name[%s]", n.ID, owner, n.Rarity, n.Category, n.Name)
	r.mu.Unlock()

	if r.onMinted != nil {
		r.onMinted(n)
	}

	return n, nil
}

// MintRandom generates a welcome or reward token with a random category
// and rarity.
func (r *Registry) MintRandom(ctx context.Context, owner string) (NFT, error) {
	return r.Mint(ctx, owner, MintOptions{Welcome: true})
}

// Transfer moves the token to a new owner. Only the current owner can
// transfer a token.
func (r *Registry) Transfer(ctx context.Context, id string, from string, to string) (NFT, error) {
	if from == "" || to == "" {
		return NFT{}, failure.Validation("from and to addresses are required")
	}

	r.mu.Lock()

	r.refresh(ctx)

	n, exists := r.nfts[id]
	if !exists {
		r.mu.Unlock()
		return NFT{}, failure.NotFound("nft %s", id)
	}

	if n.Owner != from {
		r.mu.Unlock()
		return NFT{}, failure.NotOwner("nft %s is not owned by %s", id, from)
	}

	n.Owner = to
	n.LastTransferTime = r.now().UnixMilli()
	r.nfts[id] = n
	r.save(ctx)

	r.evHandler("nft: Transfer: id[%s]: from[%s]: to[%s]", id, from, to)
	r.mu.Unlock()

	if r.onTransferred != nil {
		r.onTransferred(n, from)
	}

	return n, nil
}

// =============================================================================

// ByOwner returns the tokens owned by the address, oldest first.
func (r *Registry) ByOwner(address string) []NFT {
	if address == "" {
		return nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	var owned []NFT
	for _, n := range r.nfts {
		if n.Owner == address {
			owned = append(owned, n)
		}
	}
	sortNFTs(owned)

	return owned
}

// NFT returns the token with the id.
func (r *Registry) NFT(id string) (NFT, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	n, exists := r.nfts[id]
	if !exists {
		return NFT{}, failure.NotFound("nft %s", id)
	}

	return n, nil
}

// IsOwner reports if the address owns the token.
func (r *Registry) IsOwner(id string, address string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	n, exists := r.nfts[id]
	return exists && n.Owner == address
}

// All returns every token, oldest first.
func (r *Registry) All() []NFT {
	r.mu.Lock()
	defer r.mu.Unlock()

	all := make([]NFT, 0, len(r.nfts))
	for _, n := range r.nfts {
		all = append(all, n)
	}
	sortNFTs(all)

	return all
}

// =============================================================================

// newID returns a token id not yet used by the registry.
func (r *Registry) newID() string {
	const chars = "0123456789abcdefghijklmnopqrstuvwxyz"

	for {
		var b strings.Builder
		b.WriteString("NFT")
		b.WriteString(strconv.FormatInt(r.now().UnixMilli(), 10))
		for range 9 {
			b.WriteByte(chars[r.rnd.IntN(len(chars))])
		}

		id := b.String()
		if _, exists := r.nfts[id]; !exists {
			return id
		}
	}
}

func sortNFTs(ns []NFT) {
	sort.Slice(ns, func(i, j int) bool {
		if ns[i].CreatedAt == ns[j].CreatedAt {
			return ns[i].ID < ns[j].ID
		}
		return ns[i].CreatedAt < ns[j].CreatedAt
	})
}
