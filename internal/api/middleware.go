// Package api implements the Wordhoard REST API using chi.
package api

import (
	"net/http"

	"github.com/rs/cors"
)

// CORSMiddleware returns middleware allowing cross-origin calls from
// origins. An empty list disables CORS handling entirely.
func CORSMiddleware(origins []string) func(http.Handler) http.Handler {
	if len(origins) == 0 {
		return func(next http.Handler) http.Handler { return next }
	}
	c := cors.New(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-Id"},
		MaxAge:         300,
	})
	return c.Handler
}
