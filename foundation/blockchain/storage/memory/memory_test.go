package memory_test

import (
	"context"
	"testing"
	"time"

	"github.com/cosmicspace/cisp/foundation/blockchain/storage"
	"github.com/cosmicspace/cisp/foundation/blockchain/storage/memory"
)

// Success and failure markers.
const (
	success = "\u2713"
	failed  = "\u2717"
)

func Test_ReadWrite(t *testing.T) {
	type doc struct {
		Name  string  `json:"name"`
		Value float64 `json:"value"`
	}

	ctx := context.Background()

	t.Log("Given the need to read and write documents.")
	{
		t.Logf("\tTest 0:\tWhen using a new memory store.")
		{
			mem := memory.New()

			var got doc
			found, err := storage.ReadJSON(ctx, mem, storage.KeyBalances, &got)
			if err != nil || found {
				t.Fatalf("\t%s\tTest 0:\tShould not find a missing key: %v", failed, err)
			}
			t.Logf("\t%s\tTest 0:\tShould not find a missing key.", success)

			exp := doc{Name: "xCIS", Value: 100}
			if err := storage.WriteJSON(ctx, mem, storage.KeyBalances, exp); err != nil {
				t.Fatalf("\t%s\tTest 0:\tShould be able to write the document: %s", failed, err)
			}
			t.Logf("\t%s\tTest 0:\tShould be able to write the document.", success)

			found, err = storage.ReadJSON(ctx, mem, storage.KeyBalances, &got)
			if err != nil || !found {
				t.Fatalf("\t%s\tTest 0:\tShould be able to read the document back: %v", failed, err)
			}

			if got != exp {
				t.Logf("\t%s\tTest 0:\tgot: %+v", failed, got)
				t.Logf("\t%s\tTest 0:\texp: %+v", failed, exp)
				t.Fatalf("\t%s\tTest 0:\tShould get back the same document.", failed)
			}
			t.Logf("\t%s\tTest 0:\tShould get back the same document.", success)

			if err := mem.Delete(ctx, storage.KeyBalances); err != nil {
				t.Fatalf("\t%s\tTest 0:\tShould be able to delete the key: %s", failed, err)
			}

			keys, _ := mem.Keys(ctx)
			if len(keys) != 0 {
				t.Fatalf("\t%s\tTest 0:\tShould have no keys after delete: %v", failed, keys)
			}
			t.Logf("\t%s\tTest 0:\tShould have no keys after delete.", success)
		}
	}
}

func Test_Watch(t *testing.T) {
	ctx := context.Background()

	t.Log("Given the need to be told about changed keys.")
	{
		t.Logf("\tTest 0:\tWhen two watchers share one store.")
		{
			mem := memory.New()

			ch1, cancel1 := mem.Watch()
			defer cancel1()
			ch2, cancel2 := mem.Watch()

			if err := mem.Set(ctx, storage.KeyCurrentWallet, []byte(`"CISPABC"`)); err != nil {
				t.Fatalf("\t%s\tTest 0:\tShould be able to set the key: %s", failed, err)
			}

			for i, ch := range []<-chan string{ch1, ch2} {
				select {
				case key := <-ch:
					if key != storage.KeyCurrentWallet {
						t.Fatalf("\t%s\tTest 0:\tWatcher %d should receive %q, got %q.", failed, i, storage.KeyCurrentWallet, key)
					}
				case <-time.After(time.Second):
					t.Fatalf("\t%s\tTest 0:\tWatcher %d should receive the change.", failed, i)
				}
			}
			t.Logf("\t%s\tTest 0:\tShould notify every watcher.", success)

			cancel2()
			if _, open := <-ch2; open {
				t.Fatalf("\t%s\tTest 0:\tShould close the channel on cancel.", failed)
			}
			t.Logf("\t%s\tTest 0:\tShould close the channel on cancel.", success)

			if err := mem.Set(ctx, storage.KeyWallets, []byte(`{}`)); err != nil {
				t.Fatalf("\t%s\tTest 0:\tShould be able to set after a cancel: %s", failed, err)
			}
			t.Logf("\t%s\tTest 0:\tShould be able to set after a cancel.", success)
		}
	}
}
