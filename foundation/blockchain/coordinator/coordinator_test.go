package coordinator_test

import (
	"context"
	"math/rand/v2"
	"testing"
	"time"

	"github.com/cosmicspace/cisp/foundation/blockchain/coordinator"
	"github.com/cosmicspace/cisp/foundation/blockchain/genesis"
	"github.com/cosmicspace/cisp/foundation/blockchain/ledger"
	"github.com/cosmicspace/cisp/foundation/blockchain/nft"
	"github.com/cosmicspace/cisp/foundation/blockchain/storage"
	"github.com/cosmicspace/cisp/foundation/blockchain/storage/memory"
	"github.com/cosmicspace/cisp/foundation/blockchain/wallet"
)

// Success and failure markers.
const (
	success = "\u2713"
	failed  = "\u2717"
)

const outsider = "CISPOUTSIDER1"

// node is one context over the shared store.
type node struct {
	ledger   *ledger.Ledger
	wallets  *wallet.Store
	registry *nft.Registry
	coord    *coordinator.Coordinator
}

func newNode(t *testing.T, shared storage.Store, seed uint64) *node {
	ctx := context.Background()

	var n node
	var err error

	n.ledger, err = ledger.New(ctx, ledger.Config{Store: shared})
	if err != nil {
		t.Fatalf("Should be able to construct a ledger: %s", err)
	}

	n.wallets, err = wallet.New(ctx, wallet.Config{
		Store:        shared,
		Session:      memory.New(),
		Minter:       n.ledger,
		WelcomeGrant: 100,
		Rand:         rand.New(rand.NewPCG(seed, seed)),
	})
	if err != nil {
		t.Fatalf("Should be able to construct a wallet store: %s", err)
	}

	n.registry, err = nft.New(ctx, nft.Config{Store: shared, Rand: rand.New(rand.NewPCG(seed, 1))})
	if err != nil {
		t.Fatalf("Should be able to construct a registry: %s", err)
	}

	n.coord, err = coordinator.New(coordinator.Config{
		Store:      shared,
		Wallets:    n.wallets,
		Ledger:     n.ledger,
		Refreshers: []coordinator.Refresher{n.registry},
		Interval:   time.Hour,
	})
	if err != nil {
		t.Fatalf("Should be able to construct a coordinator: %s", err)
	}

	return &n
}

// converged reports if the cached balances of every wallet match the ledger.
func converged(n *node) bool {
	for _, w := range n.wallets.Wallets() {
		for token, amount := range w.Balances {
			if n.ledger.Balance(w.Address, token) != amount {
				return false
			}
		}
	}
	return true
}

// =============================================================================

func Test_Sync(t *testing.T) {
	ctx := context.Background()

	t.Log("Given the need to keep two contexts consistent.")
	{
		t.Logf("\tTest 0:\tWhen one context writes and the other syncs.")
		{
			shared := memory.New()
			a := newNode(t, shared, 1)
			b := newNode(t, shared, 2)

			w, err := a.wallets.CreateWallet(ctx, "Main")
			if err != nil {
				t.Fatalf("\t%s\tTest 0:\tShould be able to create a wallet: %s", failed, err)
			}

			if err := b.coord.Sync(ctx); err != nil {
				t.Fatalf("\t%s\tTest 0:\tShould be able to sync: %s", failed, err)
			}

			if addr, ok := b.wallets.CurrentAddress(); !ok || addr != w.Address {
				t.Fatalf("\t%s\tTest 0:\tShould adopt the connected wallet: %q", failed, addr)
			}
			t.Logf("\t%s\tTest 0:\tShould adopt the connected wallet.", success)

			if b.ledger.Balance(w.Address, genesis.TokenXCIS) != 100 || !converged(b) {
				t.Fatalf("\t%s\tTest 0:\tShould see the welcome grant.", failed)
			}
			t.Logf("\t%s\tTest 0:\tShould see the welcome grant.", success)

			if _, err := a.ledger.Transfer(ctx, w.Address, outsider, genesis.TokenXCIS, 40); err != nil {
				t.Fatalf("\t%s\tTest 0:\tShould be able to transfer: %s", failed, err)
			}
			if _, err := a.registry.Mint(ctx, w.Address, nft.MintOptions{}); err != nil {
				t.Fatalf("\t%s\tTest 0:\tShould be able to mint: %s", failed, err)
			}

			if err := b.coord.HandleChange(ctx, storage.KeyBalances); err != nil {
				t.Fatalf("\t%s\tTest 0:\tShould be able to handle the change: %s", failed, err)
			}

			bw, _ := b.wallets.Wallet(w.Address)
			if bw.Balances[genesis.TokenXCIS] != 60 || !converged(b) {
				t.Fatalf("\t%s\tTest 0:\tShould copy the ledger balance into the wallet: %v", failed, bw.Balances)
			}
			t.Logf("\t%s\tTest 0:\tShould copy the ledger balance into the wallet.", success)

			if len(b.registry.ByOwner(w.Address)) != 1 {
				t.Fatalf("\t%s\tTest 0:\tShould see the minted token.", failed)
			}
			t.Logf("\t%s\tTest 0:\tShould see the minted token.", success)

			if err := a.wallets.DisconnectWallet(ctx); err != nil {
				t.Fatalf("\t%s\tTest 0:\tShould be able to disconnect: %s", failed, err)
			}
			if err := b.coord.HandleChange(ctx, storage.KeyCurrentWallet); err != nil {
				t.Fatalf("\t%s\tTest 0:\tShould be able to handle the change: %s", failed, err)
			}
			if _, ok := b.wallets.CurrentAddress(); ok {
				t.Fatalf("\t%s\tTest 0:\tShould follow the disconnect.", failed)
			}
			t.Logf("\t%s\tTest 0:\tShould follow the disconnect.", success)
		}

		t.Logf("\tTest 1:\tWhen the other context runs the sync loop.")
		{
			shared := memory.New()
			a := newNode(t, shared, 3)
			b := newNode(t, shared, 4)

			runCtx, cancel := context.WithCancel(ctx)
			done := make(chan struct{})
			go func() {
				b.coord.Run(runCtx)
				close(done)
			}()

			w, err := a.wallets.CreateWallet(ctx, "Main")
			if err != nil {
				t.Fatalf("\t%s\tTest 1:\tShould be able to create a wallet: %s", failed, err)
			}

			deadline := time.Now().Add(2 * time.Second)
			for time.Now().Before(deadline) {
				if addr, ok := b.wallets.CurrentAddress(); ok && addr == w.Address && converged(b) {
					break
				}
				time.Sleep(5 * time.Millisecond)
			}

			cancel()
			<-done

			if addr, ok := b.wallets.CurrentAddress(); !ok || addr != w.Address {
				t.Fatalf("\t%s\tTest 1:\tShould pick up the change from the watch channel.", failed)
			}
			if b.ledger.Balance(w.Address, genesis.TokenXCIS) != 100 || !converged(b) {
				t.Fatalf("\t%s\tTest 1:\tShould converge the balances.", failed)
			}
			t.Logf("\t%s\tTest 1:\tShould pick up the change from the watch channel.", success)
		}

		t.Logf("\tTest 2:\tWhen an unrelated key changes.")
		{
			shared := memory.New()
			a := newNode(t, shared, 5)
			b := newNode(t, shared, 6)

			if _, err := a.wallets.CreateWallet(ctx, "Main"); err != nil {
				t.Fatalf("\t%s\tTest 2:\tShould be able to create a wallet: %s", failed, err)
			}

			if err := b.coord.HandleChange(ctx, "theme"); err != nil {
				t.Fatalf("\t%s\tTest 2:\tShould ignore the change: %s", failed, err)
			}
			if _, ok := b.wallets.CurrentAddress(); ok {
				t.Fatalf("\t%s\tTest 2:\tShould not sync for an unrelated key.", failed)
			}
			t.Logf("\t%s\tTest 2:\tShould not sync for an unrelated key.", success)
		}
	}
}
