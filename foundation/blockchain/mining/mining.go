// Package mining implements the mining simulator. While running it draws
// a block discovery on every tick and pays discovered blocks to the
// connected wallet as MINING_REWARD issuance sealed into a ledger block.
package mining

import (
	"context"
	"errors"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/cosmicspace/cisp/foundation/blockchain/failure"
	"github.com/cosmicspace/cisp/foundation/blockchain/genesis"
	"github.com/cosmicspace/cisp/foundation/blockchain/ledger"
	"github.com/cosmicspace/cisp/foundation/blockchain/storage"
)

// minInterval is the fastest the simulator ticks regardless of power.
const minInterval = 100 * time.Millisecond

// EventHandler defines a function that is called when events
// occur in the processing of the simulator.
type EventHandler func(v string, args ...any)

// Ledger represents the ledger behavior required to pay rewards and charge
// upgrades.
type Ledger interface {
	Balance(address string, token string) float64
	Transfer(ctx context.Context, from string, to string, token string, amount float64) (ledger.Transaction, error)
	GrantReward(ctx context.Context, address string, token string, amount float64, txType string) (float64, error)
	Transactions(address string) []ledger.Transaction
	MineBlock(ctx context.Context, txs []ledger.Transaction, difficulty int) (ledger.Block, error)
}

// Wallets represents the wallet behavior required to find who is mining.
type Wallets interface {
	CurrentAddress() (string, bool)
}

// Ticker represents the behavior required to run the simulator on an
// interval. The returned function stops the ticker.
type Ticker interface {
	Every(name string, interval time.Duration, fn func(ctx context.Context) error) (stop func())
}

// Config represents the configuration required to construct a simulator.
type Config struct {
	Store     storage.Store
	Ledger    Ledger
	Wallets   Wallets
	Ticker    Ticker
	Economics genesis.Mining
	EvHandler EventHandler
	Now       func() time.Time
	Rand      *rand.Rand
}

// Stats represents the state of the simulator.
type Stats struct {
	Mining       bool    `json:"mining"`
	HashRate     float64 `json:"hashRate"`
	TotalMined   float64 `json:"totalMined"`
	MiningPower  float64 `json:"miningPower"`
	UpgradeLevel int     `json:"upgradeLevel"`
	UpgradeCost  float64 `json:"upgradeCost"`
	LastReward   int64   `json:"lastRewardTime"`
}

// Simulator manages the mining state of this context.
type Simulator struct {
	mu        sync.Mutex
	store     storage.Store
	ledger    Ledger
	wallets   Wallets
	ticker    Ticker
	econ      genesis.Mining
	evHandler EventHandler
	now       func() time.Time
	rnd       *rand.Rand

	mining     bool
	stop       func()
	hashRate   float64
	totalMined float64
	power      float64
	level      int
	lastReward int64
	dirty      bool
}

// New constructs a simulator and loads the saved statistics.
func New(ctx context.Context, cfg Config) (*Simulator, error) {
	if cfg.Store == nil || cfg.Ledger == nil || cfg.Wallets == nil {
		return nil, errors.New("mining: store, ledger and wallets are required")
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

	if cfg.Economics.Difficulty <= 0 {
		cfg.Economics = genesis.Default().Mining
	}

	s := Simulator{
		store:     cfg.Store,
		ledger:    cfg.Ledger,
		wallets:   cfg.Wallets,
		ticker:    cfg.Ticker,
		econ:      cfg.Economics,
		evHandler: ev,
		now:       cfg.Now,
		rnd:       cfg.Rand,
		power:     1,
	}

	s.mu.Lock()
	s.refresh(ctx)
	s.mu.Unlock()

	return &s, nil
}

// Start begins mining for the connected wallet.
func (s *Simulator) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	addr, ok := s.wallets.CurrentAddress()
	if !ok {
		return failure.Validation("connect a wallet to start mining")
	}

	if s.mining {
		return nil
	}

	s.mining = true
	s.hashRate = 0
	s.arm()

	s.evHandler("mining: start: wallet[%s]: power[%.2f]", addr, s.power)

	return nil
}

// Stop ends mining. Stopping a stopped simulator does nothing.
func (s *Simulator) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.halt()
}

// Tick runs one simulation step. No more than once per reward interval a
// block is found with probability 0.01 x power / difficulty.
func (s *Simulator) Tick(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	addr, ok := s.wallets.CurrentAddress()
	if !ok {
		if s.mining {
			s.evHandler("mining: tick: wallet disconnected: stopping")
			s.halt()
		}
		return nil
	}

	s.hashRate = s.power * (s.rnd.Float64()*2 + 8)

	now := s.now().UnixMilli()
	if now-s.lastReward < s.econ.MinRewardInterval.Std().Milliseconds() {
		return nil
	}

	chance := 0.01 * s.power / float64(s.econ.Difficulty)
	if s.rnd.Float64() >= chance {
		return nil
	}

	return s.reward(ctx, addr, now)
}

// UpgradeCost returns the xCIS price of the next power upgrade.
func (s *Simulator) UpgradeCost() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	return upgradeCost(s.level)
}

// Upgrade charges the connected wallet the upgrade cost, paid to the
// mining pool, and raises the mining power.
func (s *Simulator) Upgrade(ctx context.Context) (Stats, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	addr, ok := s.wallets.CurrentAddress()
	if !ok {
		return Stats{}, failure.Validation("connect a wallet to upgrade mining")
	}

	s.refresh(ctx)

	cost := upgradeCost(s.level)
	if bal := s.ledger.Balance(addr, genesis.TokenXCIS); bal < cost {
		return Stats{}, failure.InsufficientFunds("upgrade needs %.2f xCIS, %s has %.2f", cost, addr, bal)
	}

	if _, err := s.ledger.Transfer(ctx, addr, s.econ.PoolAddress, genesis.TokenXCIS, cost); err != nil {
		return Stats{}, err
	}

	s.level++
	s.power = 1 + float64(s.level)*0.5
	s.save(ctx)

	if s.mining {
		s.halt()
		s.mining = true
		s.arm()
	}

	s.evHandler("mining: upgrade: wallet[%s]: level[%d]: power[%.2f]: cost[%.2f]", addr, s.level, s.power, cost)

	return s.stats(), nil
}

// Stats returns the current state of the simulator.
func (s *Simulator) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.stats()
}

// Refresh re-reads the saved statistics.
func (s *Simulator) Refresh(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.refresh(ctx)
}

// =============================================================================

// reward pays a found block to the address and seals it into a block.
func (s *Simulator) reward(ctx context.Context, addr string, now int64) error {
	s.refresh(ctx)

	amount := s.econ.BlockReward * (1 + s.power*0.1)
	if _, err := s.ledger.GrantReward(ctx, addr, genesis.TokenXCIS, amount, ledger.TypeMiningReward); err != nil {
		return err
	}

	s.totalMined += amount
	s.lastReward = now
	s.save(ctx)

	s.evHandler("mining: block found: wallet[%s]: reward[%.2f]", addr, amount)

	txs := s.ledger.Transactions(addr)
	if len(txs) == 0 {
		return nil
	}

	blk, err := s.ledger.MineBlock(ctx, txs[len(txs)-1:], s.econ.Difficulty)
	if err != nil {
		s.evHandler("mining: seal: ERROR: %s", err)
		return nil
	}

	s.evHandler("mining: sealed: block[%d]: hash[%s]: nonce[%d]", blk.Index, blk.Hash, blk.Nonce)

	return nil
}

// arm schedules ticks every hash time divided by the power.
func (s *Simulator) arm() {
	if s.ticker == nil {
		return
	}

	interval := time.Duration(float64(s.econ.HashTime.Std()) / s.power)
	if interval < minInterval {
		interval = minInterval
	}

	s.stop = s.ticker.Every("mining", interval, s.Tick)
}

func (s *Simulator) halt() {
	if !s.mining {
		return
	}

	s.mining = false
	s.hashRate = 0
	if s.stop != nil {
		s.stop()
		s.stop = nil
	}
}

func (s *Simulator) stats() Stats {
	return Stats{
		Mining:       s.mining,
		HashRate:     s.hashRate,
		TotalMined:   s.totalMined,
		MiningPower:  s.power,
		UpgradeLevel: s.level,
		UpgradeCost:  upgradeCost(s.level),
		LastReward:   s.lastReward,
	}
}

func upgradeCost(level int) float64 {
	next := float64(level + 1)
	return 50 * next * next
}
