// Package site serves the embedded landing page.
package site

import (
	"embed"
	"errors"
	"io/fs"
	"net/http"

	"github.com/go-chi/chi/v5"
)

// ErrServe is reported when the embedded landing page cannot be read.
var ErrServe = errors.New("site serve failed")

//go:embed static
var staticFS embed.FS

// FS exposes the embedded static directory at its root.
func FS() http.FileSystem {
	sub, err := fs.Sub(staticFS, "static")
	if err != nil {
		panic(err) // static is embedded
	}
	return http.FS(sub)
}

// Register attaches the landing page and its assets to r.
func Register(r chi.Router) {
	if r == nil {
		panic("router is nil")
	}
	root := NewRootHandler()
	r.Get("/", root.HandleRoot)
	r.Handle("/static/*", http.StripPrefix("/static/", http.FileServer(FS())))
}

// RootHandler handles root path requests
type RootHandler struct {
	files http.FileSystem
}

// NewRootHandler creates a new root handler
func NewRootHandler() *RootHandler {
	return &RootHandler{files: FS()}
}

// HandleRoot serves index.html for GET /.
func (h *RootHandler) HandleRoot(w http.ResponseWriter, r *http.Request) {
	f, err := h.files.Open("index.html")
	if err != nil {
		http.Error(w, ErrServe.Error(), http.StatusInternalServerError)
		return
	}
	defer f.Close()
	stat, err := f.Stat()
	if err != nil {
		http.Error(w, ErrServe.Error(), http.StatusInternalServerError)
		return
	}
	http.ServeContent(w, r, "index.html", stat.ModTime(), f)
}
