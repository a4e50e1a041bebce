package middleware

import (
	"net/http"

	"github.com/rs/cors"

	"github.com/davidbz/forge/internal/config"
)

// CORS creates a middleware that handles Cross-Origin Resource Sharing.
func CORS(cfg *config.CORSConfig) Middleware {
	if cfg == nil {
		return func(next http.Handler) http.Handler {
			return next
		}
	}

	c := cors.New(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   cfg.AllowedMethods,
		AllowedHeaders:   cfg.AllowedHeaders,
		ExposedHeaders:   []string{HeaderRequestID, HeaderTraceID, "X-Forge-Verified"},
		AllowCredentials: cfg.AllowCredentials,
		MaxAge:           cfg.MaxAge,
	})

	return func(next http.Handler) http.Handler {
		return c.Handler(next)
	}
}
