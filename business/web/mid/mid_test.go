package mid_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/cosmicspace/cisp/business/web/errs"
	"github.com/cosmicspace/cisp/business/web/metrics"
	"github.com/cosmicspace/cisp/business/web/mid"
	"github.com/cosmicspace/cisp/foundation/blockchain/failure"
	"github.com/cosmicspace/cisp/foundation/logger"
	"github.com/cosmicspace/cisp/foundation/web"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Success and failure markers.
const (
	success = "\u2713"
	failed  = "\u2717"
)

// scrape reports if the metrics page contains the line.
func scrape(m *metrics.Metrics, line string) bool {
	w := httptest.NewRecorder()
	promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{}).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	return strings.Contains(w.Body.String(), line)
}

func Test_Middleware(t *testing.T) {
	log, err := logger.New("TEST")
	if err != nil {
		t.Fatalf("Should be able to construct a logger: %s", err)
	}
	defer log.Sync()

	m := metrics.New("test")
	app := web.NewApp(make(chan os.Signal, 1), mid.Logger(log), mid.Metrics(m), mid.Errors(log), mid.Panics(m))

	app.Handle(http.MethodGet, "v1", "/owned/:id", func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		return errs.FromDomain(failure.NotOwner("nft %s", web.Param(r, "id")))
	})
	app.Handle(http.MethodGet, "v1", "/panic", func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		panic("boom")
	})

	t.Log("Given the need to handle errors uniformly.")
	{
		t.Logf("\tTest 0:\tWhen a handler returns a domain error.")
		{
			w := httptest.NewRecorder()
			app.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/v1/owned/NFT1", nil))

			var resp errs.Response
			if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
				t.Fatalf("\t%s\tTest 0:\tShould be able to decode the response: %s", failed, err)
			}

			if w.Code != http.StatusForbidden || resp.Error == "" {
				t.Fatalf("\t%s\tTest 0:\tShould respond 403 with the message: %d %+v", failed, w.Code, resp)
			}
			t.Logf("\t%s\tTest 0:\tShould respond 403 with the message.", success)

			if !scrape(m, `test_http_requests_total{method="GET",route="/v1/owned/:id",status="403"} 1`) {
				t.Fatalf("\t%s\tTest 0:\tShould count the request by route and status.", failed)
			}
			t.Logf("\t%s\tTest 0:\tShould count the request by route and status.", success)
		}

		t.Logf("\tTest 1:\tWhen a handler panics.")
		{
			w := httptest.NewRecorder()
			app.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/v1/panic", nil))

			if w.Code != http.StatusInternalServerError {
				t.Fatalf("\t%s\tTest 1:\tShould respond 500: %d", failed, w.Code)
			}
			if !scrape(m, "test_http_panics_total 1") {
				t.Fatalf("\t%s\tTest 1:\tShould count the panic.", failed)
			}
			t.Logf("\t%s\tTest 1:\tShould recover, respond 500 and count the panic.", success)
		}
	}
}
