package nft_test

import (
	"context"
	"errors"
	"math"
	"math/rand/v2"
	"testing"

	"github.com/cosmicspace/cisp/foundation/blockchain/failure"
	"github.com/cosmicspace/cisp/foundation/blockchain/nft"
	"github.com/cosmicspace/cisp/foundation/blockchain/storage"
	"github.com/cosmicspace/cisp/foundation/blockchain/storage/memory"
)

// Success and failure markers.
const (
	success = "\u2713"
	failed  = "\u2717"
)

const (
	alice = "CISPALICE0001"
	bob   = "CISPBOB000002"
)

func newRegistry(t *testing.T, store storage.Store, onMinted nft.MintHandler) *nft.Registry {
	r, err := nft.New(context.Background(), nft.Config{
		Store:    store,
		OnMinted: onMinted,
		Rand:     rand.New(rand.NewPCG(7, 11)),
	})
	if err != nil {
		t.Fatalf("Should be able to construct a registry: %s", err)
	}
	return r
}

// =============================================================================

func Test_Mint(t *testing.T) {
	ctx := context.Background()

	t.Log("Given the need to mint tokens.")
	{
		t.Logf("\tTest 0:\tWhen minting an explicit category and rarity.")
		{
			var minted []nft.NFT
			r := newRegistry(t, memory.New(), func(n nft.NFT) { minted = append(minted, n) })

			n, err := r.Mint(ctx, alice, nft.MintOptions{Category: nft.Comet, Rarity: nft.Epic})
			if err != nil {
				t.Fatalf("\t%s\tTest 0:\tShould be able to mint: %s", failed, err)
			}
			t.Logf("\t%s\tTest 0:\tShould be able to mint.", success)

			if n.Owner != alice || n.Category != nft.Comet || n.Rarity != nft.Epic {
				t.Fatalf("\t%s\tTest 0:\tShould honor the options: %+v", failed, n)
			}
			t.Logf("\t%s\tTest 0:\tShould honor the options.", success)

			if len(n.Attributes) != 7 || n.Attributes[0].Value != string(nft.Epic) || n.Image == "" {
				t.Fatalf("\t%s\tTest 0:\tShould generate attributes and image: %+v", failed, n)
			}
			if n.Metadata == nil || n.Metadata.BackgroundColor != "#9245e6" {
				t.Fatalf("\t%s\tTest 0:\tShould generate metadata coloured by rarity: %+v", failed, n.Metadata)
			}
			t.Logf("\t%s\tTest 0:\tShould generate attributes, image and metadata.", success)

			if len(minted) != 1 || minted[0].ID != n.ID {
				t.Fatalf("\t%s\tTest 0:\tShould notify the mint handler once.", failed)
			}
			t.Logf("\t%s\tTest 0:\tShould notify the mint handler once.", success)

			owned := r.ByOwner(alice)
			if len(owned) != 1 || owned[0].ID != n.ID {
				t.Fatalf("\t%s\tTest 0:\tShould list the token for its owner.", failed)
			}
			t.Logf("\t%s\tTest 0:\tShould list the token for its owner.", success)
		}

		t.Logf("\tTest 1:\tWhen minting with bad options.")
		{
			r := newRegistry(t, memory.New(), nil)

			if _, err := r.Mint(ctx, "", nft.MintOptions{}); !errors.Is(err, failure.ErrValidation) {
				t.Fatalf("\t%s\tTest 1:\tShould require an owner, got %v.", failed, err)
			}
			if _, err := r.Mint(ctx, alice, nft.MintOptions{Category: "Moon"}); !errors.Is(err, failure.ErrValidation) {
				t.Fatalf("\t%s\tTest 1:\tShould reject an unknown category, got %v.", failed, err)
			}
			if _, err := r.Mint(ctx, alice, nft.MintOptions{Rarity: "MYTHIC"}); !errors.Is(err, failure.ErrValidation) {
				t.Fatalf("\t%s\tTest 1:\tShould reject an unknown rarity, got %v.", failed, err)
			}
			t.Logf("\t%s\tTest 1:\tShould reject bad options.", success)
		}
	}
}

func Test_RarityDistribution(t *testing.T) {
	ctx := context.Background()
	const rolls = 100_000

	t.Log("Given the need to roll rarities by weight.")
	{
		t.Logf("\tTest 0:\tWhen rolling %d rarities.", rolls)
		{
			rnd := rand.New(rand.NewPCG(7, 11))

			counts := make(map[nft.Rarity]int)
			for range rolls {
				counts[nft.RollRarity(rnd)]++
			}

			for _, rarity := range []nft.Rarity{nft.Common, nft.Uncommon, nft.Rare, nft.Epic, nft.Legendary} {
				got := float64(counts[rarity]) * 100 / rolls
				if math.Abs(got-rarity.Weight()) > 1 {
					t.Fatalf("\t%s\tTest 0:\tShould roll %s about %v%% of the time, got %.2f%%.", failed, rarity, rarity.Weight(), got)
				}
				t.Logf("\t%s\tTest 0:\tShould roll %s about %v%% of the time: %.2f%%.", success, rarity, rarity.Weight(), got)
			}
		}

		t.Logf("\tTest 1:\tWhen minting without an explicit rarity.")
		{
			r := newRegistry(t, memory.New(), nil)

			counts := make(map[nft.Rarity]int)
			for range 200 {
				n, err := r.Mint(ctx, alice, nft.MintOptions{Category: nft.Planet})
				if err != nil {
					t.Fatalf("\t%s\tTest 1:\tShould be able to mint: %s", failed, err)
				}
				if !n.Rarity.IsValid() || n.Metadata == nil || n.Metadata.BackgroundColor != n.Rarity.Color() {
					t.Fatalf("\t%s\tTest 1:\tShould roll a known rarity: %+v", failed, n)
				}
				counts[n.Rarity]++
			}

			if counts[nft.Common] == 0 || counts[nft.Common] <= counts[nft.Legendary] {
				t.Fatalf("\t%s\tTest 1:\tShould favor the common rarity: %v", failed, counts)
			}
			t.Logf("\t%s\tTest 1:\tShould roll weighted rarities: %v", success, counts)
		}
	}
}

func Test_Transfer(t *testing.T) {
	ctx := context.Background()

	t.Log("Given the need to transfer tokens.")
	{
		t.Logf("\tTest 0:\tWhen the owner transfers a token.")
		{
			var previous []string
			r, err := nft.New(ctx, nft.Config{
				Store:         memory.New(),
				OnTransferred: func(n nft.NFT, from string) { previous = append(previous, from) },
				Rand:          rand.New(rand.NewPCG(7, 11)),
			})
			if err != nil {
				t.Fatalf("\t%s\tTest 0:\tShould be able to construct a registry: %s", failed, err)
			}
			n, _ := r.Mint(ctx, alice, nft.MintOptions{})

			moved, err := r.Transfer(ctx, n.ID, alice, bob)
			if err != nil {
				t.Fatalf("\t%s\tTest 0:\tShould be able to transfer: %s", failed, err)
			}
			t.Logf("\t%s\tTest 0:\tShould be able to transfer.", success)

			if moved.Owner != bob || moved.LastTransferTime == 0 || !r.IsOwner(n.ID, bob) || r.IsOwner(n.ID, alice) {
				t.Fatalf("\t%s\tTest 0:\tShould move ownership: %+v", failed, moved)
			}
			t.Logf("\t%s\tTest 0:\tShould move ownership.", success)

			if len(r.ByOwner(alice)) != 0 || len(r.ByOwner(bob)) != 1 {
				t.Fatalf("\t%s\tTest 0:\tShould keep exactly one owner.", failed)
			}
			t.Logf("\t%s\tTest 0:\tShould keep exactly one owner.", success)

			if len(previous) != 1 || previous[0] != alice {
				t.Fatalf("\t%s\tTest 0:\tShould notify the transfer once: %v", failed, previous)
			}
			t.Logf("\t%s\tTest 0:\tShould notify the transfer once.", success)
		}

		t.Logf("\tTest 1:\tWhen someone else transfers a token.")
		{
			r := newRegistry(t, memory.New(), nil)
			n, _ := r.Mint(ctx, alice, nft.MintOptions{})

			if _, err := r.Transfer(ctx, n.ID, bob, bob+"X"); !errors.Is(err, failure.ErrNotOwner) {
				t.Fatalf("\t%s\tTest 1:\tShould get not owner, got %v.", failed, err)
			}
			t.Logf("\t%s\tTest 1:\tShould get not owner.", success)

			if _, err := r.Transfer(ctx, "NFT0", alice, bob); !errors.Is(err, failure.ErrNotFound) {
				t.Fatalf("\t%s\tTest 1:\tShould get not found, got %v.", failed, err)
			}
			t.Logf("\t%s\tTest 1:\tShould get not found.", success)
		}
	}
}

func Test_ValidateAndRepair(t *testing.T) {
	ctx := context.Background()

	t.Log("Given the need to heal tokens loaded from storage.")
	{
		t.Logf("\tTest 0:\tWhen storage holds broken tokens in the entry list format.")
		{
			store := memory.New()
			doc := `[
				["NFT1", {"id": "NFT1", "owner": "CISPALICE0001", "category": "Star", "rarity": "RARE"}],
				["NFT2", {"id": "NFT2", "category": "Star", "rarity": "RARE"}],
				["NFT3", {"id": "NFT3", "owner": "CISPALICE0001", "category": "Moon", "rarity": "RARE"}]
			]`
			store.Set(ctx, storage.KeyNFTs, []byte(doc))

			r := newRegistry(t, store, nil)

			all := r.All()
			if len(all) != 1 || all[0].ID != "NFT1" {
				t.Fatalf("\t%s\tTest 0:\tShould drop tokens missing required fields: %+v", failed, all)
			}
			t.Logf("\t%s\tTest 0:\tShould drop tokens missing required fields.", success)

			n := all[0]
			if len(n.Attributes) == 0 || n.Image == "" || n.Metadata == nil {
				t.Fatalf("\t%s\tTest 0:\tShould regenerate missing fields: %+v", failed, n)
			}
			t.Logf("\t%s\tTest 0:\tShould regenerate missing fields.", success)

			if removed, repaired := r.ValidateAndRepair(ctx); removed != 0 || repaired != 0 {
				t.Fatalf("\t%s\tTest 0:\tShould find nothing left to fix, got %d/%d.", failed, removed, repaired)
			}
			t.Logf("\t%s\tTest 0:\tShould find nothing left to fix.", success)
		}
	}
}
