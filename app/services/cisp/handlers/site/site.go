// Package site serves the health check and the static web client.
package site

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"time"

	"github.com/cosmicspace/cisp/business/web/errs"
	"github.com/cosmicspace/cisp/foundation/web"
)

// Handlers manages the static site endpoints.
type Handlers struct {
	Dir string
}

// Health returns the liveness of the public server.
func (h Handlers) Health(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	resp := struct {
		Status    string `json:"status"`
		Timestamp int64  `json:"timestamp"`
	}{
		Status:    "ok",
		Timestamp: time.Now().UnixMilli(),
	}

	return web.Respond(ctx, w, resp, http.StatusOK)
}

// Mining serves the mining page.
func (h Handlers) Mining(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	return h.serve(ctx, w, r, "mining.html")
}

// Static serves a file from the static directory. Paths that do not name a
// file fall back to the index page so client side routes resolve.
func (h Handlers) Static(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	name := path.Clean("/" + r.URL.Path)

	info, err := os.Stat(filepath.Join(h.Dir, filepath.FromSlash(name)))
	switch {
	case err == nil && !info.IsDir():
		return h.serve(ctx, w, r, name)
	case err != nil && !errors.Is(err, fs.ErrNotExist):
		return err
	}

	return h.serve(ctx, w, r, "index.html")
}

func (h Handlers) serve(ctx context.Context, w http.ResponseWriter, r *http.Request, name string) error {
	file := filepath.Join(h.Dir, filepath.FromSlash(path.Clean("/"+name)))
	if _, err := os.Stat(file); err != nil {
		return errs.NewTrusted(fmt.Errorf("page %s not found", name), http.StatusNotFound)
	}

	if err := web.SetStatusCode(ctx, http.StatusOK); err != nil {
		return err
	}

	http.ServeFile(w, r, file)

	return nil
}
