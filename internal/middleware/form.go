package middleware

import (
	"net/http"
	"strings"

	"github.com/wanderlust-stays/wanderlust/internal/apperr"
)

const maxFormBytes = 1 << 20

// URLEncoded parses url-encoded bodies into r.PostForm.
func URLEncoded(fail func(http.ResponseWriter, *http.Request, error)) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if strings.HasPrefix(r.Header.Get("Content-Type"), "application/x-www-form-urlencoded") {
				r.Body = http.MaxBytesReader(w, r.Body, maxFormBytes)
				if err := r.ParseForm(); err != nil {
					fail(w, r, apperr.Validation("Invalid form submission"))
					return
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}

var overridable = map[string]bool{
	http.MethodPut:    true,
	http.MethodPatch:  true,
	http.MethodDelete: true,
}

// MethodOverride lets an HTML form POST stand in for PUT, PATCH or DELETE
// through a _method form field or query parameter.
func MethodOverride(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			m := r.PostFormValue("_method")
			if m == "" {
				m = r.URL.Query().Get("_method")
			}
			if m = strings.ToUpper(m); overridable[m] {
				r.Method = m
			}
		}
		next.ServeHTTP(w, r)
	})
}
