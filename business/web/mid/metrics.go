package mid

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/cosmicspace/cisp/business/web/metrics"
	"github.com/cosmicspace/cisp/foundation/web"
	"github.com/dimfeld/httptreemux/v5"
)

// Metrics updates the prometheus request counters and latency histogram.
// It runs outside Errors so the status of error responses is known.
func Metrics(m *metrics.Metrics) web.Middleware {

	// This is the actual middleware function to be executed.
	mw := func(handler web.Handler) web.Handler {

		// Create the handler that will be attached in the middleware chain.
		h := func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {

			// Call the next handler.
			err := handler(ctx, w, r)

			// Label by the matched route so ids in the path don't explode
			// the series.
			route := r.URL.Path
			if data := httptreemux.ContextData(ctx); data != nil {
				route = data.Route()
			}

			status := http.StatusOK
			var since time.Duration
			if v, verr := web.GetValues(ctx); verr == nil {
				if v.StatusCode != 0 {
					status = v.StatusCode
				}
				since = time.Since(v.Now)
			}

			m.Requests.WithLabelValues(r.Method, route, strconv.Itoa(status)).Inc()
			m.Latency.WithLabelValues(r.Method, route).Observe(since.Seconds())
			if err != nil || status >= http.StatusBadRequest {
				m.Errors.WithLabelValues(r.Method, route).Inc()
			}

			// Return the error so it can be handled further up the chain.
			return err
		}

		return h
	}

	return mw
}
