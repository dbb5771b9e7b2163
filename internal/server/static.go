package server

import (
	"errors"
	"io/fs"
	"net/http"
	"path"
)

// spaHandler serves the built site and falls back to index.html for paths
// that are not files, so client-side routes like /menu load the app.
type spaHandler struct {
	root       http.FileSystem
	indexPath  string
	fileServer http.Handler
}

func newSPAHandler(dir string) spaHandler {
	root := http.Dir(dir)
	return spaHandler{root: root, indexPath: "/index.html", fileServer: http.FileServer(root)}
}

func (h spaHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f, err := h.root.Open(path.Clean("/" + r.URL.Path))
	if err == nil {
		stat, statErr := f.Stat()
		f.Close()
		if statErr == nil && !stat.IsDir() {
			h.fileServer.ServeHTTP(w, r)
			return
		}
		if statErr == nil && stat.IsDir() {
			if index, err := h.root.Open(path.Join(path.Clean("/"+r.URL.Path), "index.html")); err == nil {
				index.Close()
				h.fileServer.ServeHTTP(w, r)
				return
			}
		}
	} else if !errors.Is(err, fs.ErrNotExist) {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	index, err := h.root.Open(h.indexPath)
	if err != nil {
		http.NotFound(w, r)
		return
	}
	defer index.Close()
	stat, err := index.Stat()
	if err != nil {
		http.NotFound(w, r)
		return
	}
	http.ServeContent(w, r, stat.Name(), stat.ModTime(), index)
}
