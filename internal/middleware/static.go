package middleware

import (
	"io/fs"
	"net/http"
	"strings"
)

// Static serves fsys under prefix and passes every other path through.
func Static(prefix string, fsys fs.FS) func(http.Handler) http.Handler {
	files := http.StripPrefix(prefix, http.FileServer(http.FS(fsys)))
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if (r.Method == http.MethodGet || r.Method == http.MethodHead) && strings.HasPrefix(r.URL.Path, prefix+"/") {
				files.ServeHTTP(w, r)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
