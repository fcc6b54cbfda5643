// Package public maintains the group of handlers for public access.
package public

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/cosmicspace/cisp/business/web/errs"
	"github.com/cosmicspace/cisp/business/web/metrics"
	"github.com/cosmicspace/cisp/foundation/blockchain/ledger"
	"github.com/cosmicspace/cisp/foundation/blockchain/state"
	"github.com/cosmicspace/cisp/foundation/events"
	"github.com/cosmicspace/cisp/foundation/web"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// Handlers manages the set of ledger endpoints.
type Handlers struct {
	Log     *zap.SugaredLogger
	State   *state.State
	WS      websocket.Upgrader
	Evts    *events.Events
	Metrics *metrics.Metrics
}

// Events handles a web socket to provide events to a client.
func (h Handlers) Events(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	v, err := web.GetValues(ctx)
	if err != nil {
		return web.NewShutdownError("web value missing from context")
	}

	h.WS.CheckOrigin = func(r *http.Request) bool { return true }

	c, err := h.WS.Upgrade(w, r, nil)
	if err != nil {
		return err
	}
	defer c.Close()

	ch := h.Evts.Acquire(v.TraceID)
	defer h.Evts.Release(v.TraceID)

	if h.Metrics != nil {
		h.Metrics.Streams.Inc()
		defer h.Metrics.Streams.Dec()
	}

	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case evt, wd := <-ch:
			if !wd {
				return nil
			}

			msg, err := evt.Marshal()
			if err != nil {
				h.Log.Errorw("events", "traceid", v.TraceID, "ERROR", err)
				continue
			}

			if err := c.WriteMessage(websocket.TextMessage, msg); err != nil {
				return nil
			}

		case <-ticker.C:
			if err := c.WriteMessage(websocket.PingMessage, []byte("ping")); err != nil {
				return nil
			}
		}
	}
}

// Genesis returns the economics the ledger runs with.
func (h Handlers) Genesis(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	return web.Respond(ctx, w, h.State.Genesis(), http.StatusOK)
}

// Chain returns the ledger meta: supply, height and latest hash.
func (h Handlers) Chain(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	return web.Respond(ctx, w, h.State.Ledger().Meta(), http.StatusOK)
}

// =============================================================================

// Wallets returns every known wallet.
func (h Handlers) Wallets(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	current, _ := h.State.Wallets().CurrentAddress()

	ws := h.State.Wallets().Wallets()
	resp := make([]publicWallet, len(ws))
	for i, wal := range ws {
		resp[i] = toPublicWallet(wal, current)
	}

	return web.Respond(ctx, w, resp, http.StatusOK)
}

// CurrentWallet returns the connected wallet.
func (h Handlers) CurrentWallet(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	wal, ok := h.State.Wallets().CurrentWallet()
	if !ok {
		return errs.NewTrusted(fmt.Errorf("no wallet is connected"), http.StatusNotFound)
	}

	return web.Respond(ctx, w, toPublicWallet(wal, wal.Address), http.StatusOK)
}

// CreateWallet constructs a new wallet and connects it.
func (h Handlers) CreateWallet(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	var nw newWallet
	if r.ContentLength != 0 {
		if err := decode(r, &nw); err != nil {
			return err
		}
	}

	wal, err := h.State.Wallets().CreateWallet(ctx, nw.Name)
	if err != nil {
		return errs.FromDomain(err)
	}

	h.Log.Infow("create wallet", "traceid", web.GetTraceID(ctx), "address", wal.Address)

	resp := createdWallet{
		publicWallet: toPublicWallet(wal, wal.Address),
		SeedPhrase:   wal.SeedPhrase,
	}

	return web.Respond(ctx, w, resp, http.StatusCreated)
}

// ConnectWallet makes an existing wallet the connected wallet.
func (h Handlers) ConnectWallet(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	var cw connectWallet
	if err := decode(r, &cw); err != nil {
		return err
	}

	wal, err := h.State.Wallets().ConnectWallet(ctx, cw.Address)
	if err != nil {
		return errs.FromDomain(err)
	}

	return web.Respond(ctx, w, toPublicWallet(wal, wal.Address), http.StatusOK)
}

// DisconnectWallet clears the connected wallet.
func (h Handlers) DisconnectWallet(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	if err := h.State.Wallets().DisconnectWallet(ctx); err != nil {
		return errs.FromDomain(err)
	}

	return web.Respond(ctx, w, status{Status: "disconnected"}, http.StatusOK)
}

// =============================================================================

// Account returns the balances and tokens held by an address.
func (h Handlers) Account(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	address := web.Param(r, "address")
	return web.Respond(ctx, w, h.State.QueryAccount(ctx, address), http.StatusOK)
}

// Balances returns the balance table.
func (h Handlers) Balances(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	return web.Respond(ctx, w, h.State.Ledger().Accounts(), http.StatusOK)
}

// Transactions returns the log entries touching an address, or the whole
// log when no address is provided.
func (h Handlers) Transactions(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	txs := h.State.Ledger().Transactions(web.Param(r, "address"))
	if txs == nil {
		txs = []ledger.Transaction{}
	}

	return web.Respond(ctx, w, txs, http.StatusOK)
}

// Transfer moves tokens from the connected wallet to another address.
func (h Handlers) Transfer(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	from, err := h.State.ConnectedAddress()
	if err != nil {
		return errs.FromDomain(err)
	}

	var tr transfer
	if err := decode(r, &tr); err != nil {
		return err
	}

	h.Log.Infow("transfer", "traceid", web.GetTraceID(ctx), "from", from, "to", tr.To, "token", tr.Token, "amount", tr.Amount)

	tx, err := h.State.Ledger().Transfer(ctx, from, tr.To, tr.Token, tr.Amount)
	if err != nil {
		return errs.FromDomain(err)
	}

	return web.Respond(ctx, w, tx, http.StatusOK)
}

// Sync reconciles this context with durable storage.
func (h Handlers) Sync(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	if err := h.State.Coordinator().Sync(ctx); err != nil {
		return errs.FromDomain(err)
	}

	return web.Respond(ctx, w, status{Status: "synced"}, http.StatusOK)
}

// =============================================================================

// decode reads the request body into val. Malformed documents are reported
// to the client as a bad request.
func decode(r *http.Request, val any) error {
	if err := web.Decode(r, val); err != nil {
		if web.IsFieldErrors(err) {
			return err
		}
		return errs.NewTrusted(err, http.StatusBadRequest)
	}

	return nil
}
