package nft

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/cosmicspace/cisp/foundation/blockchain/failure"
	"github.com/cosmicspace/cisp/foundation/blockchain/storage"
	"github.com/go-playground/validator/v10"
)

// validate checks loaded tokens carry the fields every token requires.
var validate = validator.New()

// ValidateAndRepair drops tokens missing an id, owner, category or rarity
// and regenerates missing attributes, image and metadata. It reports how
// many tokens were removed and repaired.
func (r *Registry) ValidateAndRepair(ctx context.Context) (removed int, repaired int) {
	r.mu.Lock()
	defer r.mu.Unlock()

	removed, repaired = r.validateAndRepair()
	if removed > 0 || repaired > 0 {
		r.save(ctx)
	}

	return removed, repaired
}

func (r *Registry) validateAndRepair() (removed int, repaired int) {
	for id, n := range r.nfts {
		if err := validate.Struct(n); err != nil {
			r.evHandler("nft: validate: id[%s]: removed: %s", id, err)
			delete(r.nfts, id)
			removed++
			continue
		}

		if r.repair(&n) {
			r.nfts[id] = n
			repaired++
		}
	}

	if removed > 0 || repaired > 0 {
		r.evHandler("nft: validate: removed[%d]: repaired[%d]", removed, repaired)
	}

	return removed, repaired
}

// refresh re-reads the tokens unless the last write failed and repairs
// whatever was loaded.
func (r *Registry) refresh(ctx context.Context) {
	if r.dirty {
		return
	}

	data, err := r.store.Get(ctx, storage.KeyNFTs)
	if err != nil {
		if !errors.Is(err, storage.ErrNotFound) {
			r.evHandler("nft: refresh: ERROR: %s", failure.Persistence(err, storage.KeyNFTs))
		}
		return
	}

	nfts, err := decode(data)
	if err != nil {
		r.evHandler("nft: refresh: ERROR: %s", failure.Persistence(err, storage.KeyNFTs))
		return
	}
	r.nfts = nfts

	if removed, repaired := r.validateAndRepair(); removed > 0 || repaired > 0 {
		r.save(ctx)
	}
}

// save writes the tokens as an id keyed document. A failed write is logged.
func (r *Registry) save(ctx context.Context) {
	r.dirty = false
	if err := storage.WriteJSON(ctx, r.store, storage.KeyNFTs, r.nfts); err != nil {
		r.evHandler("nft: save: ERROR: %s", failure.Persistence(err, storage.KeyNFTs))
		r.dirty = true
	}
}

// decode accepts the id keyed document and the older list of [id, token]
// entries.
func decode(data []byte) (map[string]NFT, error) {
	nfts := make(map[string]NFT)
	if err := json.Unmarshal(data, &nfts); err == nil {
		return nfts, nil
	}

	var entries [][2]json.RawMessage
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("decode nft document: %w", err)
	}

	for _, e := range entries {
		var id string
		var n NFT
		if err := json.Unmarshal(e[0], &id); err != nil {
			continue
		}
		if err := json.Unmarshal(e[1], &n); err != nil {
			continue
		}
		if n.ID == "" {
			n.ID = id
		}
		nfts[id] = n
	}

	return nfts, nil
}
