package database_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/cosmicspace/cisp/business/sys/database"
	"github.com/cosmicspace/cisp/foundation/blockchain/storage"
)

// Success and failure markers.
const (
	success = "\u2713"
	failed  = "\u2717"
)

func Test_Open(t *testing.T) {
	dir := t.TempDir()

	tt := []struct {
		name string
		cfg  database.Config
	}{
		{name: "memory", cfg: database.Config{Backend: database.BackendMemory}},
		{name: "leveldb", cfg: database.Config{Backend: database.BackendLevelDB, LevelDBPath: filepath.Join(dir, "cisp.db")}},
	}

	t.Log("Given the need to open the configured store.")
	{
		for testID, test := range tt {
			t.Logf("\tTest %d:\tWhen opening the %s backend.", testID, test.name)
			{
				ctx := context.Background()

				db, err := database.Open(ctx, test.cfg)
				if err != nil {
					t.Fatalf("\t%s\tTest %d:\tShould be able to open the store: %s", failed, testID, err)
				}
				defer db.Close()

				if err := db.Set(ctx, storage.KeyMining, []byte(`{}`)); err != nil {
					t.Fatalf("\t%s\tTest %d:\tShould be able to write: %s", failed, testID, err)
				}
				if _, err := db.Get(ctx, storage.KeyMining); err != nil {
					t.Fatalf("\t%s\tTest %d:\tShould be able to read back: %s", failed, testID, err)
				}
				t.Logf("\t%s\tTest %d:\tShould be able to open, write and read the store.", success, testID)
			}
		}

		t.Logf("\tTest %d:\tWhen the backend is unknown.", len(tt))
		{
			if _, err := database.Open(context.Background(), database.Config{Backend: "etcd"}); err == nil {
				t.Fatalf("\t%s\tTest %d:\tShould reject the backend.", failed, len(tt))
			}
			t.Logf("\t%s\tTest %d:\tShould reject the backend.", success, len(tt))
		}
	}
}
