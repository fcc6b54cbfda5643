package mining

import (
	"context"

	"github.com/cosmicspace/cisp/foundation/blockchain/failure"
	"github.com/cosmicspace/cisp/foundation/blockchain/storage"
)

// record is the saved form of the statistics.
type record struct {
	TotalMined   float64 `json:"totalMined"`
	MiningPower  float64 `json:"miningPower"`
	UpgradeLevel int     `json:"upgradeLevel"`
	LastSaved    int64   `json:"lastSaved"`
}

func (s *Simulator) refresh(ctx context.Context) {
	if s.dirty {
		return
	}

	var rec record
	found, err := storage.ReadJSON(ctx, s.store, storage.KeyMining, &rec)
	switch {
	case err != nil:
		s.evHandler("mining: refresh: ERROR: %s", failure.Persistence(err, storage.KeyMining))
		return
	case !found:
		return
	}

	s.totalMined = rec.TotalMined
	s.level = rec.UpgradeLevel
	s.power = rec.MiningPower
	if s.power <= 0 {
		s.power = 1 + float64(s.level)*0.5
	}
}

func (s *Simulator) save(ctx context.Context) {
	rec := record{
		TotalMined:   s.totalMined,
		MiningPower:  s.power,
		UpgradeLevel: s.level,
		LastSaved:    s.now().UnixMilli(),
	}

	s.dirty = false
	if err := storage.WriteJSON(ctx, s.store, storage.KeyMining, rec); err != nil {
		s.evHandler("mining: save: ERROR: %s", failure.Persistence(err, storage.KeyMining))
		s.dirty = true
	}
}
