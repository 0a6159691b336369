package api

import (
	"bytes"
	"embed"
	"io/fs"
	"net/http"
	"time"
)

const landingPage = "/static/index.html"

//go:embed static
var staticFiles embed.FS

// startedAt stamps embedded assets, which carry no modification time.
var startedAt = time.Now()

func registerStatic(mux *http.ServeMux) {
	assets, err := fs.Sub(staticFiles, "static")
	if err != nil {
		panic(err)
	}
	mux.Handle("GET /static/", http.StripPrefix("/static/", http.FileServerFS(assets)))
	// FileServer redirects */index.html to the directory; serve the landing
	// page directly so the root redirect target answers 200.
	mux.HandleFunc("GET "+landingPage, func(w http.ResponseWriter, r *http.Request) {
		page, err := fs.ReadFile(assets, "index.html")
		if err != nil {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		http.ServeContent(w, r, "index.html", startedAt, bytes.NewReader(page))
	})
}
