package handler

import (
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// StaticHandler serves the front end from a directory. Unknown paths get
// index.html so client-side routes survive a reload.
type StaticHandler struct {
	dir        string
	fileServer http.Handler
}

func NewStaticHandler(dir string) *StaticHandler {
	return &StaticHandler{dir: dir, fileServer: http.FileServer(http.Dir(dir))}
}

func (h *StaticHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	cleaned := path.Clean("/" + r.URL.Path)
	if cleaned != "/" {
		info, err := os.Stat(filepath.Join(h.dir, filepath.FromSlash(strings.TrimPrefix(cleaned, "/"))))
		if err == nil && !info.IsDir() {
			h.fileServer.ServeHTTP(w, r)
			return
		}
	}

	h.Index(w, r)
}

func (h *StaticHandler) Index(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Cache-Control", "no-cache")
	http.ServeFile(w, r, filepath.Join(h.dir, "index.html"))
}
