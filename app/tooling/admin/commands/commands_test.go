package commands_test

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/cosmicspace/cisp/app/tooling/admin/commands"
	"github.com/cosmicspace/cisp/foundation/blockchain/genesis"
	"github.com/cosmicspace/cisp/foundation/blockchain/state"
	"github.com/cosmicspace/cisp/foundation/blockchain/storage/leveldb"
	"github.com/cosmicspace/cisp/foundation/logger"
)

// Success and failure markers.
const (
	success = "\u2713"
	failed  = "\u2717"
)

func Test_Commands(t *testing.T) {
	log, err := logger.New("TEST")
	if err != nil {
		t.Fatalf("Should be able to construct a logger: %s", err)
	}
	defer log.Sync()

	dir := t.TempDir()
	path := filepath.Join(dir, "cisp.db")

	// Build a store with one wallet that owns one token.
	var address string
	{
		ctx := context.Background()

		db, err := leveldb.New(path)
		if err != nil {
			t.Fatalf("Should be able to open leveldb: %s", err)
		}

		st, err := state.New(ctx, state.Config{Shared: db, Genesis: genesis.Default()})
		if err != nil {
			t.Fatalf("Should be able to construct the state: %s", err)
		}

		w, err := st.Wallets().CreateWallet(ctx, "Admin Test")
		if err != nil {
			t.Fatalf("Should be able to create a wallet: %s", err)
		}
		address = w.Address

		if _, err := st.NFTs().MintRandom(ctx, address); err != nil {
			t.Fatalf("Should be able to mint a token: %s", err)
		}

		st.Shutdown()
		db.Close()
	}

	flags := []string{"--backend", "leveldb", "--leveldb", path, "--genesis", filepath.Join(dir, "missing.json")}

	tt := []struct {
		name string
		args []string
		want string
	}{
		{name: "balances", args: []string{"balances", address}, want: "Token: xCIS  Balance: 100.00"},
		{name: "transactions", args: []string{"transactions", address}, want: "Type: MINT"},
		{name: "nfts", args: []string{"nfts", "--owner", address}, want: "Owner: " + address},
		{name: "wallets", args: []string{"wallets"}, want: "* Address: " + address},
		{name: "repair", args: []string{"nfts", "repair"}, want: "Removed: 0  Repaired: 0"},
	}

	t.Log("Given the need to inspect the durable store.")
	{
		for testID, test := range tt {
			t.Logf("\tTest %d:\tWhen running the %s command.", testID, test.name)
			{
				var out bytes.Buffer
				if err := commands.Execute("test", log, &out, append(test.args, flags...)); err != nil {
					t.Fatalf("\t%s\tTest %d:\tShould be able to run the command: %s", failed, testID, err)
				}

				if !strings.Contains(out.String(), test.want) {
					t.Fatalf("\t%s\tTest %d:\tShould print %q:\n%s", failed, testID, test.want, out.String())
				}
				t.Logf("\t%s\tTest %d:\tShould print %q.", success, testID, test.want)
			}
		}
	}
}
