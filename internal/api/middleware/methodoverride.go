package middleware

import (
	"net/http"
	"strings"
)

// MethodOverrideField is the query or form field HTML forms use to tunnel PUT and DELETE.
const MethodOverrideField = "_method"

var overridable = map[string]bool{
	http.MethodPut:    true,
	http.MethodPatch:  true,
	http.MethodDelete: true,
}

// MethodOverride rewrites POST requests carrying X-HTTP-Method-Override or a _method
// query/form field. It wraps the engine because gin picks the route before any
// gin middleware runs.
func MethodOverride(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			if m := overrideMethod(r); overridable[m] {
				r.Method = m
			}
		}
		next.ServeHTTP(w, r)
	})
}

func overrideMethod(r *http.Request) string {
	if m := r.Header.Get("X-HTTP-Method-Override"); m != "" {
		return strings.ToUpper(m)
	}
	if m := r.URL.Query().Get(MethodOverrideField); m != "" {
		return strings.ToUpper(m)
	}
	// Only urlencoded bodies are inspected; multipart forms put _method in the query.
	if strings.HasPrefix(r.Header.Get("Content-Type"), "application/x-www-form-urlencoded") {
		return strings.ToUpper(r.PostFormValue(MethodOverrideField))
	}
	return ""
}
