package events_test

import (
	"testing"

	"github.com/cosmicspace/cisp/foundation/events"
)

// Success and failure markers.
const (
	success = "\u2713"
	failed  = "\u2717"
)

func Test_Events(t *testing.T) {
	t.Log("Given the need to fan out events to receivers.")
	{
		t.Logf("\tTest 0:\tWhen two receivers are registered.")
		{
			evts := events.New()

			a := evts.Acquire("a")
			b := evts.Acquire("b")
			if evts.Acquire("a") != a || evts.Count() != 2 {
				t.Fatalf("\t%s\tTest 0:\tShould return the same channel for an id.", failed)
			}
			t.Logf("\t%s\tTest 0:\tShould return the same channel for an id.", success)

			evts.Send("balance", map[string]float64{"xCIS": 75})

			for _, ch := range []chan events.Event{a, b} {
				e := <-ch
				if e.Type != "balance" || e.Timestamp == 0 {
					t.Fatalf("\t%s\tTest 0:\tShould deliver the event to every receiver: %+v", failed, e)
				}
			}
			t.Logf("\t%s\tTest 0:\tShould deliver the event to every receiver.", success)

			if err := evts.Release("a"); err != nil {
				t.Fatalf("\t%s\tTest 0:\tShould be able to release: %s", failed, err)
			}
			if err := evts.Release("a"); err == nil {
				t.Fatalf("\t%s\tTest 0:\tShould refuse to release twice.", failed)
			}
			if _, open := <-a; open {
				t.Fatalf("\t%s\tTest 0:\tShould close the released channel.", failed)
			}
			t.Logf("\t%s\tTest 0:\tShould release a receiver once.", success)

			evts.Shutdown()
			if _, open := <-b; open || evts.Count() != 0 {
				t.Fatalf("\t%s\tTest 0:\tShould close every channel on shutdown.", failed)
			}
			t.Logf("\t%s\tTest 0:\tShould close every channel on shutdown.", success)
		}
	}
}
