package middleware

import "net/http"

// NoStore marks every response as uncacheable. Balances and purchase results
// go stale the moment another command spends credits.
func NoStore(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "no-store")
		next.ServeHTTP(w, r)
	})
}
