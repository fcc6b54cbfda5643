package cmd

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

// Success and failure markers.
const (
	success = "\u2713"
	failed  = "\u2717"
)

func Test_Call(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")

		switch r.URL.Path {
		case "/v1/wallets/current":
			json.NewEncoder(w).Encode(map[string]string{"address": "CISPTEST"})

		default:
			w.WriteHeader(http.StatusPaymentRequired)
			json.NewEncoder(w).Encode(apiError{Error: "insufficient funds"})
		}
	}))
	defer srv.Close()

	url = srv.URL

	t.Log("Given the need to talk to the ledger service.")
	{
		t.Logf("\tTest 0:\tWhen the call succeeds.")
		{
			if got := currentAddress(nil); got != "CISPTEST" {
				t.Fatalf("\t%s\tTest 0:\tShould decode the connected address: %s", failed, got)
			}
			t.Logf("\t%s\tTest 0:\tShould decode the connected address.", success)
		}

		t.Logf("\tTest 1:\tWhen the service rejects the call.")
		{
			err := call(http.MethodPost, "/v1/transfers", map[string]any{"to": "CISPX"}, nil)
			if err == nil || err.Error() != "insufficient funds" {
				t.Fatalf("\t%s\tTest 1:\tShould return the service error: %v", failed, err)
			}
			t.Logf("\t%s\tTest 1:\tShould return the service error.", success)
		}
	}
}
