package wallet_test

import (
	"context"
	"errors"
	"math/rand/v2"
	"strings"
	"sync"
	"testing"

	"github.com/cosmicspace/cisp/foundation/blockchain/failure"
	"github.com/cosmicspace/cisp/foundation/blockchain/ledger"
	"github.com/cosmicspace/cisp/foundation/blockchain/storage"
	"github.com/cosmicspace/cisp/foundation/blockchain/storage/memory"
	"github.com/cosmicspace/cisp/foundation/blockchain/wallet"
)

// Success and failure markers.
const (
	success = "\u2713"
	failed  = "\u2717"
)

func newStore(t *testing.T, shared storage.Store, session storage.Store) (*wallet.Store, *ledger.Ledger) {
	ctx := context.Background()

	l, err := ledger.New(ctx, ledger.Config{Store: shared})
	if err != nil {
		t.Fatalf("Should be able to construct a ledger: %s", err)
	}

	ws, err := wallet.New(ctx, wallet.Config{
		Store:        shared,
		Session:      session,
		Minter:       l,
		WelcomeGrant: 100,
		Rand:         rand.New(rand.NewPCG(1, 2)),
	})
	if err != nil {
		t.Fatalf("Should be able to construct a wallet store: %s", err)
	}

	return ws, l
}

// =============================================================================

func Test_CreateWallet(t *testing.T) {
	ctx := context.Background()

	t.Log("Given the need to create wallets.")
	{
		t.Logf("\tTest 0:\tWhen creating a wallet on an empty system.")
		{
			ws, l := newStore(t, memory.New(), memory.New())

			var notified []*wallet.Wallet
			ws.Subscribe(func(w *wallet.Wallet) { notified = append(notified, w) })

			w, err := ws.CreateWallet(ctx, "Main")
			if err != nil {
				t.Fatalf("\t%s\tTest 0:\tShould be able to create a wallet: %s", failed, err)
			}
			t.Logf("\t%s\tTest 0:\tShould be able to create a wallet.", success)

			if !strings.HasPrefix(w.Address, "CISP") || len(w.Address) < 10 {
				t.Fatalf("\t%s\tTest 0:\tShould get a CISP address: %s", failed, w.Address)
			}
			t.Logf("\t%s\tTest 0:\tShould get a CISP address.", success)

			words := strings.Fields(w.SeedPhrase)
			if len(words) != wallet.SeedWords {
				t.Fatalf("\t%s\tTest 0:\tShould get a 12 word seed phrase: %q", failed, w.SeedPhrase)
			}
			for _, word := range words {
				if !wallet.IsVocabulary(word) {
					t.Fatalf("\t%s\tTest 0:\tShould only use vocabulary words: %q", failed, word)
				}
			}
			t.Logf("\t%s\tTest 0:\tShould get a 12 word seed phrase from the vocabulary.", success)

			if w.Balances["CIS"] != 0 || w.Balances["xCIS"] != 100 {
				t.Fatalf("\t%s\tTest 0:\tShould cache the welcome balances: %v", failed, w.Balances)
			}
			t.Logf("\t%s\tTest 0:\tShould cache the welcome balances.", success)

			txs := l.Transactions(w.Address)
			if len(txs) != 1 || txs[0].Type != ledger.TypeMint || txs[0].Amount != 100 || l.Balance(w.Address, "xCIS") != 100 {
				t.Fatalf("\t%s\tTest 0:\tShould mint the welcome grant through the ledger: %+v", failed, txs)
			}
			t.Logf("\t%s\tTest 0:\tShould mint the welcome grant through the ledger.", success)

			cur, ok := ws.CurrentWallet()
			if !ok || cur.Address != w.Address {
				t.Fatalf("\t%s\tTest 0:\tShould connect the new wallet.", failed)
			}
			t.Logf("\t%s\tTest 0:\tShould connect the new wallet.", success)

			if len(notified) != 1 || notified[0] == nil || notified[0].Address != w.Address {
				t.Fatalf("\t%s\tTest 0:\tShould notify listeners once.", failed)
			}
			t.Logf("\t%s\tTest 0:\tShould notify listeners once.", success)
		}

		t.Logf("\tTest 1:\tWhen creating a wallet without a name.")
		{
			ws, _ := newStore(t, memory.New(), memory.New())

			ws.CreateWallet(ctx, "First")
			w, _ := ws.CreateWallet(ctx, "")
			if w.Name != "Wallet 2" {
				t.Fatalf("\t%s\tTest 1:\tShould get a default name, got %q.", failed, w.Name)
			}
			t.Logf("\t%s\tTest 1:\tShould get a default name.", success)

			if len(ws.Wallets()) != 2 {
				t.Fatalf("\t%s\tTest 1:\tShould know both wallets.", failed)
			}
			t.Logf("\t%s\tTest 1:\tShould know both wallets.", success)
		}
	}
}

func Test_ConnectWallet(t *testing.T) {
	ctx := context.Background()

	t.Log("Given the need to connect and disconnect wallets.")
	{
		t.Logf("\tTest 0:\tWhen connecting an unknown address.")
		{
			ws, _ := newStore(t, memory.New(), memory.New())

			if _, err := ws.ConnectWallet(ctx, "CISPUNKNOWN"); !errors.Is(err, failure.ErrNotFound) {
				t.Fatalf("\t%s\tTest 0:\tShould get not found, got %v.", failed, err)
			}
			t.Logf("\t%s\tTest 0:\tShould get not found.", success)
		}

		t.Logf("\tTest 1:\tWhen disconnecting twice.")
		{
			ws, _ := newStore(t, memory.New(), memory.New())
			ws.CreateWallet(ctx, "Main")

			var calls int
			ws.Subscribe(func(w *wallet.Wallet) { calls++ })

			if err := ws.DisconnectWallet(ctx); err != nil {
				t.Fatalf("\t%s\tTest 1:\tShould be able to disconnect: %s", failed, err)
			}
			if err := ws.DisconnectWallet(ctx); err != nil {
				t.Fatalf("\t%s\tTest 1:\tShould be able to disconnect again: %s", failed, err)
			}
			t.Logf("\t%s\tTest 1:\tShould be able to disconnect twice.", success)

			if _, ok := ws.CurrentWallet(); ok {
				t.Fatalf("\t%s\tTest 1:\tShould have no connected wallet.", failed)
			}
			if calls != 1 {
				t.Fatalf("\t%s\tTest 1:\tShould notify once, got %d.", failed, calls)
			}
			t.Logf("\t%s\tTest 1:\tShould notify once and leave no connected wallet.", success)

			if _, ok := ws.Pointer(ctx); ok {
				t.Fatalf("\t%s\tTest 1:\tShould clear the durable pointer.", failed)
			}
			t.Logf("\t%s\tTest 1:\tShould clear the durable pointer.", success)
		}

		t.Logf("\tTest 2:\tWhen two contexts disagree on the connected wallet.")
		{
			shared := memory.New()
			sessionA := memory.New()
			sessionB := memory.New()

			wsA, _ := newStore(t, shared, sessionA)
			first, _ := wsA.CreateWallet(ctx, "First")

			wsB, _ := newStore(t, shared, sessionB)
			if cur, ok := wsB.CurrentWallet(); !ok || cur.Address != first.Address {
				t.Fatalf("\t%s\tTest 2:\tShould start on the persistent pointer.", failed)
			}
			t.Logf("\t%s\tTest 2:\tShould start on the persistent pointer.", success)

			second, _ := wsB.CreateWallet(ctx, "Second")

			ptrA, _ := wsA.Pointer(ctx)
			if ptrA != first.Address {
				t.Fatalf("\t%s\tTest 2:\tShould prefer the session pointer, got %s.", failed, ptrA)
			}
			ptrB, _ := wsB.Pointer(ctx)
			if ptrB != second.Address {
				t.Fatalf("\t%s\tTest 2:\tShould follow its own session pointer, got %s.", failed, ptrB)
			}
			t.Logf("\t%s\tTest 2:\tShould prefer the session pointer over the persistent one.", success)
		}
	}
}

func Test_UpdateBalancesConcurrent(t *testing.T) {
	ctx := context.Background()

	t.Log("Given the need to refresh cached balances from many goroutines.")
	{
		t.Logf("\tTest 0:\tWhen listeners read the wallet while balances change.")
		{
			ws, _ := newStore(t, memory.New(), memory.New())

			w, err := ws.CreateWallet(ctx, "Main")
			if err != nil {
				t.Fatalf("\t%s\tTest 0:\tShould be able to create a wallet: %s", failed, err)
			}

			var mu sync.Mutex
			var last *wallet.Wallet
			ws.Subscribe(func(w *wallet.Wallet) {
				var total float64
				for _, bal := range w.Balances {
					total += bal
				}
				w.Balances["xCIS"] = -total

				mu.Lock()
				last = w
				mu.Unlock()
			})

			const goroutines = 4
			const updates = 500

			var wg sync.WaitGroup
			wg.Add(goroutines)
			for g := range goroutines {
				go func() {
					defer wg.Done()
					for i := range updates {
						ws.UpdateBalance(ctx, w.Address, "xCIS", float64(g*updates+i+1))
					}
				}()
			}
			wg.Wait()

			cur, ok := ws.CurrentWallet()
			if !ok || cur.Balances["xCIS"] <= 0 {
				t.Fatalf("\t%s\tTest 0:\tShould keep the cached balance out of the listeners' reach: %v", failed, cur.Balances)
			}
			t.Logf("\t%s\tTest 0:\tShould keep the cached balance out of the listeners' reach.", success)

			mu.Lock()
			defer mu.Unlock()
			if last == nil || last.Address != w.Address {
				t.Fatalf("\t%s\tTest 0:\tShould notify listeners of the updates.", failed)
			}
			t.Logf("\t%s\tTest 0:\tShould notify listeners of the updates.", success)
		}
	}
}
