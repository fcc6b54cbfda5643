package redis_test

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/cosmicspace/cisp/foundation/blockchain/storage"
	"github.com/cosmicspace/cisp/foundation/blockchain/storage/redis"
)

// Success and failure markers.
const (
	success = "\u2713"
	failed  = "\u2717"
)

func Test_BadURL(t *testing.T) {
	t.Log("Given the need to validate the connection settings.")
	{
		t.Logf("\tTest 0:\tWhen the url is malformed.")
		{
			if _, err := redis.New(context.Background(), redis.Config{URL: "http://not-redis"}); err == nil {
				t.Fatalf("\t%s\tTest 0:\tShould reject the url.", failed)
			}
			t.Logf("\t%s\tTest 0:\tShould reject the url.", success)
		}
	}
}

// Test_Watch runs against a live server named by CISP_TEST_REDIS_URL.
func Test_Watch(t *testing.T) {
	url := os.Getenv("CISP_TEST_REDIS_URL")
	if url == "" {
		t.Skip("CISP_TEST_REDIS_URL not set")
	}

	ctx := context.Background()
	cfg := redis.Config{
		URL:       url,
		Namespace: "cisp_test:",
		Channel:   "cisp_test:changes",
	}

	writer, err := redis.New(ctx, cfg)
	if err != nil {
		t.Fatalf("Should be able to connect: %s", err)
	}
	defer writer.Close()

	reader, err := redis.New(ctx, cfg)
	if err != nil {
		t.Fatalf("Should be able to connect: %s", err)
	}
	defer reader.Close()

	changes, cancel := reader.Watch()
	defer cancel()

	t.Log("Given the need to share documents between processes.")
	{
		t.Logf("\tTest 0:\tWhen another client writes a key.")
		{
			if err := storage.WriteJSON(ctx, writer, storage.KeyMining, map[string]int{"upgradeLevel": 2}); err != nil {
				t.Fatalf("\t%s\tTest 0:\tShould be able to write: %s", failed, err)
			}

			select {
			case key := <-changes:
				if key != storage.KeyMining {
					t.Fatalf("\t%s\tTest 0:\tShould be told about the key: %s", failed, key)
				}
			case <-time.After(5 * time.Second):
				t.Fatalf("\t%s\tTest 0:\tShould be told about the change.", failed)
			}
			t.Logf("\t%s\tTest 0:\tShould be told about the change.", success)

			var rec map[string]int
			if found, err := storage.ReadJSON(ctx, reader, storage.KeyMining, &rec); err != nil || !found || rec["upgradeLevel"] != 2 {
				t.Fatalf("\t%s\tTest 0:\tShould read the document: %v %v %v", failed, found, err, rec)
			}
			t.Logf("\t%s\tTest 0:\tShould read the document.", success)

			if err := writer.Delete(ctx, storage.KeyMining); err != nil {
				t.Fatalf("\t%s\tTest 0:\tShould be able to delete: %s", failed, err)
			}
		}
	}
}
