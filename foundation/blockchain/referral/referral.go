// Package referral tracks who referred whom and pays the level rewards a
// referrer earns as their referral count crosses the level thresholds.
package referral

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/cosmicspace/cisp/foundation/blockchain/failure"
	"github.com/cosmicspace/cisp/foundation/blockchain/genesis"
	"github.com/cosmicspace/cisp/foundation/blockchain/ledger"
	"github.com/cosmicspace/cisp/foundation/blockchain/nft"
	"github.com/cosmicspace/cisp/foundation/blockchain/storage"
)

// EventHandler defines a function that is called when events
// occur in the processing of referrals.
type EventHandler func(v string, args ...any)

// Ledger represents the ledger behavior required to pay rewards.
type Ledger interface {
	GrantReward(ctx context.Context, address string, token string, amount float64, txType string) (float64, error)
}

// Registry represents the nft behavior required to pay token rewards.
type Registry interface {
	MintRandom(ctx context.Context, owner string) (nft.NFT, error)
}

// Claim represents a token reward paid for a level.
type Claim struct {
	Type      string `json:"type"`
	ID        string `json:"id"`
	Level     int    `json:"level"`
	Timestamp int64  `json:"timestamp"`
}

// Record represents the referral state of one address.
type Record struct {
	ReferralCode   string   `json:"referralCode"`
	Referrer       string   `json:"referrer,omitempty"`
	Referrals      []string `json:"referrals"`
	Level          int      `json:"level"`
	TotalRewards   float64  `json:"totalRewards"`
	ClaimedRewards []Claim  `json:"claimedRewards"`
}

func (r Record) clone() Record {
	r.Referrals = slices.Clone(r.Referrals)
	r.ClaimedRewards = slices.Clone(r.ClaimedRewards)
	return r
}

// Stats represents the referral summary shown for an address.
type Stats struct {
	ReferralCode          string  `json:"referralCode"`
	TotalReferrals        int     `json:"totalReferrals"`
	CurrentLevel          int     `json:"currentLevel"`
	LevelTitle            string  `json:"levelTitle"`
	TotalRewards          float64 `json:"totalRewards"`
	NextLevelRequirement  *int    `json:"nextLevelRequirement"`
	RemainingForNextLevel int     `json:"remainingForNextLevel"`
}

// Config represents the configuration required to construct the referral
// ledger.
type Config struct {
	Store     storage.Store
	Ledger    Ledger
	Registry  Registry
	Levels    []genesis.ReferralLevel
	EvHandler EventHandler
	Now       func() time.Time
}

// Referrals manages the referral records.
type Referrals struct {
	mu        sync.Mutex
	store     storage.Store
	ledger    Ledger
	registry  Registry
	levels    []genesis.ReferralLevel
	evHandler EventHandler
	now       func() time.Time

	records map[string]Record
	dirty   bool
}

// New constructs the referral ledger and loads the saved records.
func New(ctx context.Context, cfg Config) (*Referrals, error) {
	if cfg.Store == nil || cfg.Ledger == nil || cfg.Registry == nil {
		return nil, errors.New("referral: store, ledger and registry are required")
	}

	ev := func(v string, args ...any) {
		if cfg.EvHandler != nil {
			cfg.EvHandler(v, args...)
		}
	}

	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	if len(cfg.Levels) == 0 {
		cfg.Levels = genesis.Default().Referral
	}

	r := Referrals{
		store:     cfg.Store,
		ledger:    cfg.Ledger,
		registry:  cfg.Registry,
		levels:    cfg.Levels,
		evHandler: ev,
		now:       cfg.Now,
		records:   make(map[string]Record),
	}

	r.mu.Lock()
	r.refresh(ctx)
	r.mu.Unlock()

	return &r, nil
}

// Refresh re-reads the records from durable storage.
func (r *Referrals) Refresh(ctx context.Context) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.refresh(ctx)
}

// Code returns the referral code of the address, creating its record on
// first use.
func (r *Referrals) Code(ctx context.Context, address string) (string, error) {
	if address == "" {
		return "", failure.Validation("address is required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.refresh(ctx)

	if rec, exists := r.records[address]; exists {
		return rec.ReferralCode, nil
	}

	rec := r.ensure(address)
	r.save(ctx)

	return rec.ReferralCode, nil
}

// ApplyReferralCode records the user as referred by the owner of the code
// and pays any levels the referrer newly reached. Applying the same code
// twice changes nothing.
func (r *Referrals) ApplyReferralCode(ctx context.Context, user string, code string) (Record, error) {
	if user == "" {
		return Record{}, failure.Validation("user address is required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.refresh(ctx)

	referrer, ok := r.byCode(strings.ToUpper(strings.TrimSpace(code)))
	if !ok {
		return Record{}, failure.InvalidCode("%q", code)
	}

	if referrer == user {
		return Record{}, failure.SelfReferral("%s", user)
	}

	u := r.ensure(user)
	if u.Referrer != "" && u.Referrer != referrer {
		return Record{}, failure.Validation("%s was already referred by %s", user, u.Referrer)
	}
	u.Referrer = referrer
	r.records[user] = u

	ref := r.ensure(referrer)
	if slices.Contains(ref.Referrals, user) {
		r.save(ctx)
		return ref.clone(), nil
	}

	ref.Referrals = append(ref.Referrals, user)
	r.records[referrer] = ref

	r.evHandler("referral: apply: referrer[%s]: user[%s]: referrals[%d]", referrer, user, len(ref.Referrals))

	err := r.levelUp(ctx, referrer)
	r.save(ctx)

	return r.records[referrer].clone(), err
}

// Stats returns the referral summary of the address.
func (r *Referrals) Stats(address string) Stats {
	r.mu.Lock()
	defer r.mu.Unlock()

	rec, exists := r.records[address]
	if !exists {
		rec = Record{ReferralCode: r.newCode(address)}
	}

	st := Stats{
		ReferralCode:   rec.ReferralCode,
		TotalReferrals: len(rec.Referrals),
		CurrentLevel:   rec.Level,
		TotalRewards:   rec.TotalRewards,
	}

	if rec.Level > 0 && rec.Level <= len(r.levels) {
		st.LevelTitle = r.levels[rec.Level-1].Title
	}

	if rec.Level < len(r.levels) {
		next := r.levels[rec.Level].Required
		st.NextLevelRequirement = &next
		st.RemainingForNextLevel = max(next-len(rec.Referrals), 0)
	}

	return st
}

// Record returns the referral record of the address.
func (r *Referrals) Record(address string) (Record, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rec, exists := r.records[address]
	if !exists {
		return Record{}, failure.NotFound("referral record for %s", address)
	}

	return rec.clone(), nil
}

// =============================================================================

// levelUp pays every level from the current one up to the level the
// referral count now reaches, in ascending order. The level advances as
// each reward is paid so a failure never pays a level twice.
func (r *Referrals) levelUp(ctx context.Context, address string) error {
	rec := r.records[address]
	target := r.levelFor(len(rec.Referrals))

	for lvl := rec.Level + 1; lvl <= target; lvl++ {
		row := r.levels[lvl-1]

		if row.XCIS > 0 {
			if _, err := r.ledger.GrantReward(ctx, address, genesis.TokenXCIS, row.XCIS, ledger.TypeReward); err != nil {
				r.records[address] = rec
				return fmt.Errorf("grant level %d: %w", lvl, err)
			}
			rec.TotalRewards += row.XCIS
		}

		if row.NFT {
			n, err := r.registry.MintRandom(ctx, address)
			switch {
			case err != nil:
				r.evHandler("referral: level[%d]: ERROR: nft reward for %s: %s", lvl, address, err)
			default:
				rec.ClaimedRewards = append(rec.ClaimedRewards, Claim{Type: "nft", ID: n.ID, Level: lvl, Timestamp: r.now().UnixMilli()})
			}
		}

		rec.Level = lvl
		r.records[address] = rec

		r.evHandler("referral: level up: address[%s]: level[%d]: title[%s]: xcis[%.2f]: nft[%t]", address, lvl, row.Title, row.XCIS, row.NFT)
	}

	return nil
}

// levelFor returns the highest level whose requirement the count meets.
func (r *Referrals) levelFor(count int) int {
	level := 0
	for _, row := range r.levels {
		if count < row.Required {
			break
		}
		level = row.Level
	}
	return level
}

// ensure returns the record of the address, creating it when missing.
func (r *Referrals) ensure(address string) Record {
	if rec, exists := r.records[address]; exists {
		return rec
	}

	rec := Record{
		ReferralCode:   r.newCode(address),
		Referrals:      []string{},
		ClaimedRewards: []Claim{},
	}
	r.records[address] = rec

	return rec
}

func (r *Referrals) byCode(code string) (string, bool) {
	if code == "" {
		return "", false
	}

	for addr, rec := range r.records {
		if rec.ReferralCode == code {
			return addr, true
		}
	}

	return "", false
}

// newCode builds ADDR-TIME from characters 2..8 of the address and the
// base36 clock, moving the clock forward until the code is unused.
func (r *Referrals) newCode(address string) string {
	part := address
	if len(part) > 8 {
		part = part[2:8]
	}

	ms := r.now().UnixMilli()
	for {
		code := strings.ToUpper(part + "-" + strconv.FormatInt(ms, 36))
		if _, used := r.byCode(code); !used {
			return code
		}
		ms++
	}
}
