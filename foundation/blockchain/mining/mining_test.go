package mining_test

import (
	"context"
	"errors"
	"math"
	"math/rand/v2"
	"sync"
	"testing"
	"time"

	"github.com/cosmicspace/cisp/foundation/blockchain/failure"
	"github.com/cosmicspace/cisp/foundation/blockchain/genesis"
	"github.com/cosmicspace/cisp/foundation/blockchain/ledger"
	"github.com/cosmicspace/cisp/foundation/blockchain/mining"
	"github.com/cosmicspace/cisp/foundation/blockchain/storage"
	"github.com/cosmicspace/cisp/foundation/blockchain/storage/memory"
)

// Success and failure markers.
const (
	success = "\u2713"
	failed  = "\u2717"
)

const miner = "CISPMINER0001"

// wallets reports a settable connected wallet.
type wallets struct {
	address string
}

func (w *wallets) CurrentAddress() (string, bool) {
	return w.address, w.address != ""
}

// ticker records the intervals the simulator asks for.
type ticker struct {
	mu        sync.Mutex
	intervals []time.Duration
	stopped   int
}

func (t *ticker) Every(name string, interval time.Duration, fn func(ctx context.Context) error) func() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.intervals = append(t.intervals, interval)
	return func() {
		t.mu.Lock()
		defer t.mu.Unlock()
		t.stopped++
	}
}

type fixture struct {
	store  *memory.Memory
	ledger *ledger.Ledger
	sim    *mining.Simulator
	wal    *wallets
	tick   *ticker
	now    time.Time
}

func newFixture(t *testing.T, store *memory.Memory) *fixture {
	ctx := context.Background()

	f := fixture{
		store: store,
		wal:   &wallets{address: miner},
		tick:  &ticker{},
		now:   time.Date(2024, time.March, 1, 12, 0, 0, 0, time.UTC),
	}
	clock := func() time.Time { return f.now }

	var err error
	f.ledger, err = ledger.New(ctx, ledger.Config{Store: store, TxHistory: 100, Now: clock})
	if err != nil {
		t.Fatalf("Should be able to construct a ledger: %s", err)
	}

	econ := genesis.Default().Mining
	econ.Difficulty = 1

	f.sim, err = mining.New(ctx, mining.Config{
		Store:     store,
		Ledger:    f.ledger,
		Wallets:   f.wal,
		Ticker:    f.tick,
		Economics: econ,
		Now:       clock,
		Rand:      rand.New(rand.NewPCG(3, 5)),
	})
	if err != nil {
		t.Fatalf("Should be able to construct a simulator: %s", err)
	}

	return &f
}

// =============================================================================

func Test_Mining(t *testing.T) {
	ctx := context.Background()

	t.Log("Given the need to simulate mining.")
	{
		t.Logf("\tTest 0:\tWhen no wallet is connected.")
		{
			f := newFixture(t, memory.New())
			f.wal.address = ""

			if err := f.sim.Start(ctx); !errors.Is(err, failure.ErrValidation) {
				t.Fatalf("\t%s\tTest 0:\tShould refuse to start: %v", failed, err)
			}
			t.Logf("\t%s\tTest 0:\tShould refuse to start.", success)
		}

		t.Logf("\tTest 1:\tWhen ticking many times within one reward interval.")
		{
			f := newFixture(t, memory.New())

			if err := f.sim.Start(ctx); err != nil {
				t.Fatalf("\t%s\tTest 1:\tShould be able to start: %s", failed, err)
			}
			if len(f.tick.intervals) != 1 || f.tick.intervals[0] != time.Second {
				t.Fatalf("\t%s\tTest 1:\tShould tick every hash time: %v", failed, f.tick.intervals)
			}
			t.Logf("\t%s\tTest 1:\tShould start ticking every hash time.", success)

			for range 10_000 {
				if err := f.sim.Tick(ctx); err != nil {
					t.Fatalf("\t%s\tTest 1:\tShould be able to tick: %s", failed, err)
				}
			}

			st := f.sim.Stats()
			if st.HashRate < 8 || st.HashRate >= 10 {
				t.Fatalf("\t%s\tTest 1:\tShould report a hash rate in [8, 10): %f", failed, st.HashRate)
			}
			t.Logf("\t%s\tTest 1:\tShould report a hash rate in [8, 10).", success)

			if math.Abs(st.TotalMined-55) > 1e-9 || math.Abs(f.ledger.Balance(miner, genesis.TokenXCIS)-55) > 1e-9 {
				t.Fatalf("\t%s\tTest 1:\tShould pay exactly one reward per interval: %f", failed, st.TotalMined)
			}
			t.Logf("\t%s\tTest 1:\tShould pay exactly one reward per interval.", success)

			txs := f.ledger.Transactions(miner)
			if len(txs) != 1 || txs[0].Type != ledger.TypeMiningReward {
				t.Fatalf("\t%s\tTest 1:\tShould record a mining reward: %+v", failed, txs)
			}
			if meta := f.ledger.Meta(); meta.Height != 1 {
				t.Fatalf("\t%s\tTest 1:\tShould seal the reward into a block: %+v", failed, meta)
			}
			t.Logf("\t%s\tTest 1:\tShould record the reward and seal it into a block.", success)

			f.now = f.now.Add(30 * time.Second)
			for range 10_000 {
				f.sim.Tick(ctx)
			}
			if st := f.sim.Stats(); math.Abs(st.TotalMined-110) > 1e-9 {
				t.Fatalf("\t%s\tTest 1:\tShould pay again after the interval: %f", failed, st.TotalMined)
			}
			t.Logf("\t%s\tTest 1:\tShould pay again after the interval.", success)

			f.wal.address = ""
			f.sim.Tick(ctx)
			if st := f.sim.Stats(); st.Mining || f.tick.stopped != 1 {
				t.Fatalf("\t%s\tTest 1:\tShould stop when the wallet disconnects.", failed)
			}
			f.sim.Stop()
			if f.tick.stopped != 1 {
				t.Fatalf("\t%s\tTest 1:\tShould treat a second stop as a no-op.", failed)
			}
			t.Logf("\t%s\tTest 1:\tShould stop when the wallet disconnects.", success)
		}
	}
}

func Test_Upgrade(t *testing.T) {
	ctx := context.Background()

	t.Log("Given the need to upgrade the mining power.")
	{
		t.Logf("\tTest 0:\tWhen the wallet pays for an upgrade.")
		{
			store := memory.New()
			f := newFixture(t, store)

			if _, err := f.ledger.Mint(ctx, miner, genesis.TokenXCIS, 100); err != nil {
				t.Fatalf("\t%s\tTest 0:\tShould be able to fund the wallet: %s", failed, err)
			}
			if err := f.sim.Start(ctx); err != nil {
				t.Fatalf("\t%s\tTest 0:\tShould be able to start: %s", failed, err)
			}

			if cost := f.sim.UpgradeCost(); cost != 50 {
				t.Fatalf("\t%s\tTest 0:\tShould cost 50 for the first upgrade: %f", failed, cost)
			}
			t.Logf("\t%s\tTest 0:\tShould cost 50 for the first upgrade.", success)

			st, err := f.sim.Upgrade(ctx)
			if err != nil {
				t.Fatalf("\t%s\tTest 0:\tShould be able to upgrade: %s", failed, err)
			}
			if st.UpgradeLevel != 1 || st.MiningPower != 1.5 || st.UpgradeCost != 200 {
				t.Fatalf("\t%s\tTest 0:\tShould raise the power: %+v", failed, st)
			}
			t.Logf("\t%s\tTest 0:\tShould raise the power.", success)

			pool := genesis.Default().Mining.PoolAddress
			if f.ledger.Balance(miner, genesis.TokenXCIS) != 50 || f.ledger.Balance(pool, genesis.TokenXCIS) != 50 {
				t.Fatalf("\t%s\tTest 0:\tShould pay the cost to the pool.", failed)
			}
			t.Logf("\t%s\tTest 0:\tShould pay the cost to the pool.", success)

			if len(f.tick.intervals) != 2 || f.tick.intervals[1] != time.Duration(float64(time.Second)/st.MiningPower) {
				t.Fatalf("\t%s\tTest 0:\tShould re-arm the ticker faster: %v", failed, f.tick.intervals)
			}
			t.Logf("\t%s\tTest 0:\tShould re-arm the ticker faster.", success)

			if _, err := f.sim.Upgrade(ctx); !errors.Is(err, failure.ErrInsufficientFunds) {
				t.Fatalf("\t%s\tTest 0:\tShould refuse an upgrade the wallet can't pay: %v", failed, err)
			}
			t.Logf("\t%s\tTest 0:\tShould refuse an upgrade the wallet can't pay.", success)

			var rec struct {
				UpgradeLevel int     `json:"upgradeLevel"`
				MiningPower  float64 `json:"miningPower"`
			}
			if found, err := storage.ReadJSON(ctx, store, storage.KeyMining, &rec); err != nil || !found || rec.UpgradeLevel != 1 {
				t.Fatalf("\t%s\tTest 0:\tShould save the statistics: %+v %v", failed, rec, err)
			}

			g := newFixture(t, store)
			if st := g.sim.Stats(); st.UpgradeLevel != 1 || st.MiningPower != 1.5 {
				t.Fatalf("\t%s\tTest 0:\tShould load the saved statistics: %+v", failed, st)
			}
			t.Logf("\t%s\tTest 0:\tShould save and load the statistics.", success)
		}
	}
}
