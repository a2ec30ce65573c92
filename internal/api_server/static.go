package apiserver

import (
	"net/http"
	"os"
	"path"
	"path/filepath"
)

const indexFile = "index.html"

// SPAHandler serves files from dir. GET and HEAD requests for paths that are not
// files get index.html so that client-side routes resolve. Everything else, and
// every request when index.html is missing, goes to fallback.
func SPAHandler(dir string, fallback http.Handler) http.Handler {
	root := http.Dir(dir)
	fileServer := http.FileServer(root)
	index := filepath.Join(dir, indexFile)

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet && r.Method != http.MethodHead {
			fallback.ServeHTTP(w, r)
			return
		}

		if isFile(root, path.Clean("/"+r.URL.Path)) {
			fileServer.ServeHTTP(w, r)
			return
		}

		if fi, err := os.Stat(index); err != nil || fi.IsDir() {
			fallback.ServeHTTP(w, r)
			return
		}
		w.Header().Set("Cache-Control", "no-cache")
		http.ServeFile(w, r, index)
	})
}

func isFile(root http.FileSystem, name string) bool {
	f, err := root.Open(name)
	if err != nil {
		return false
	}
	defer f.Close()
	fi, err := f.Stat()
	return err == nil && !fi.IsDir()
}
