package errs_test

import (
	"errors"
	"net/http"
	"testing"

	"github.com/cosmicspace/cisp/business/web/errs"
	"github.com/cosmicspace/cisp/foundation/blockchain/failure"
)

// Success and failure markers.
const (
	success = "\u2713"
	failed  = "\u2717"
)

func Test_FromDomain(t *testing.T) {
	tt := []struct {
		name   string
		err    error
		status int
	}{
		{"validation", failure.Validation("amount must be positive"), http.StatusBadRequest},
		{"invalid code", failure.InvalidCode("%q", "X"), http.StatusBadRequest},
		{"not found", failure.NotFound("wallet %s", "CISPX"), http.StatusNotFound},
		{"not owner", failure.NotOwner("nft %s", "NFT1"), http.StatusForbidden},
		{"funds", failure.InsufficientFunds("need %d", 10), http.StatusPaymentRequired},
		{"listed", failure.AlreadyListed("nft %s", "NFT1"), http.StatusConflict},
	}

	t.Log("Given the need to map domain errors to HTTP statuses.")
	{
		for i, tst := range tt {
			t.Logf("\tTest %d:\tWhen handling a %s error.", i, tst.name)
			{
				trusted := errs.GetTrusted(errs.FromDomain(tst.err))
				if trusted == nil || trusted.Status != tst.status {
					t.Fatalf("\t%s\tTest %d:\tShould map to status %d: %+v", failed, i, tst.status, trusted)
				}
				if !errors.Is(trusted, tst.err) && !errors.Is(trusted.Err, tst.err) {
					t.Fatalf("\t%s\tTest %d:\tShould keep the original error.", failed, i)
				}
				t.Logf("\t%s\tTest %d:\tShould map to status %d.", success, i, tst.status)
			}
		}

		t.Logf("\tTest %d:\tWhen handling an unknown error.", len(tt))
		{
			err := errors.New("disk on fire")
			if errs.IsTrusted(errs.FromDomain(err)) {
				t.Fatalf("\t%s\tTest %d:\tShould leave the error untrusted.", failed, len(tt))
			}
			t.Logf("\t%s\tTest %d:\tShould leave the error untrusted.", success, len(tt))
		}
	}
}
