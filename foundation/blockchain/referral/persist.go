package referral

import (
	"context"

	"github.com/cosmicspace/cisp/foundation/blockchain/failure"
	"github.com/cosmicspace/cisp/foundation/blockchain/storage"
)

func (r *Referrals) refresh(ctx context.Context) {
	if r.dirty {
		return
	}

	var records map[string]Record
	found, err := storage.ReadJSON(ctx, r.store, storage.KeyReferrals, &records)
	switch {
	case err != nil:
		r.evHandler("referral: refresh: ERROR: %s", failure.Persistence(err, storage.KeyReferrals))
	case found && records != nil:
		r.records = records
	}
}

func (r *Referrals) save(ctx context.Context) {
	r.dirty = false
	if err := storage.WriteJSON(ctx, r.store, storage.KeyReferrals, r.records); err != nil {
		r.evHandler("referral: save: ERROR: %s", failure.Persistence(err, storage.KeyReferrals))
		r.dirty = true
	}
}
