package genesis_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/cosmicspace/cisp/foundation/blockchain/genesis"
)

// Success and failure markers.
const (
	success = "\u2713"
	failed  = "\u2717"
)

func Test_Load(t *testing.T) {
	t.Log("Given the need to load the genesis file.")
	{
		t.Logf("\tTest 0:\tWhen the file overrides a few values.")
		{
			path := filepath.Join(t.TempDir(), "genesis.json")
			doc := `{"welcome_grant": 250, "market": {"fee": 0.05, "anti_snipe_window": "2m"}}`
			if err := os.WriteFile(path, []byte(doc), 0600); err != nil {
				t.Fatalf("\t%s\tTest 0:\tShould be able to write the file: %s", failed, err)
			}

			g, err := genesis.Load(path)
			if err != nil {
				t.Fatalf("\t%s\tTest 0:\tShould be able to load the file: %s", failed, err)
			}
			t.Logf("\t%s\tTest 0:\tShould be able to load the file.", success)

			if g.WelcomeGrant != 250 || g.Market.Fee != 0.05 || g.Market.AntiSnipeWindow.Std() != 2*time.Minute {
				t.Fatalf("\t%s\tTest 0:\tShould apply the overrides: %+v", failed, g)
			}
			t.Logf("\t%s\tTest 0:\tShould apply the overrides.", success)

			if g.Market.MinPrice != 100 || g.Mining.BlockReward != 50 || len(g.Referral) != 10 {
				t.Fatalf("\t%s\tTest 0:\tShould keep the defaults for missing values: %+v", failed, g)
			}
			t.Logf("\t%s\tTest 0:\tShould keep the defaults for missing values.", success)
		}

		t.Logf("\tTest 1:\tWhen the file carries an invalid fee.")
		{
			path := filepath.Join(t.TempDir(), "genesis.json")
			if err := os.WriteFile(path, []byte(`{"market": {"fee": 1.5}}`), 0600); err != nil {
				t.Fatalf("\t%s\tTest 1:\tShould be able to write the file: %s", failed, err)
			}

			if _, err := genesis.Load(path); err == nil {
				t.Fatalf("\t%s\tTest 1:\tShould reject the file.", failed)
			}
			t.Logf("\t%s\tTest 1:\tShould reject the file.", success)
		}
	}
}
