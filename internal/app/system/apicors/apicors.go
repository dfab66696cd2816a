// Package apicors provides CORS middleware for the bearer-token API.
//
// Tokens travel in the Authorization header, never in cookies, so
// credentials are not allowed and any origin may be permitted.
package apicors

import (
	"net/http"
	"strings"

	"github.com/rs/cors"
)

// Middleware returns CORS middleware for the given origins. An empty list,
// or a list containing "*", allows every origin.
//
//	r.Use(apicors.Middleware(appCfg.CORSOrigins...))
func Middleware(origins ...string) func(http.Handler) http.Handler {
	c := cors.New(Options(origins...))
	return c.Handler
}

// Options returns the cors.Options used by Middleware.
func Options(origins ...string) cors.Options {
	allowed := make([]string, 0, len(origins))
	for _, o := range origins {
		if o = strings.TrimSpace(o); o != "" {
			allowed = append(allowed, o)
		}
	}
	if len(allowed) == 0 {
		allowed = []string{"*"}
	}
	return cors.Options{
		AllowedOrigins:   allowed,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type", "Accept"},
		AllowCredentials: false,
		MaxAge:           86400,
	}
}
