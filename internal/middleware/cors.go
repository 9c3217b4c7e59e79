package middleware

import (
	"net/http"

	"github.com/rs/cors"

	"image-gallery/internal/logging"
)

// CORSConfig holds configuration for the CORS middleware
type CORSConfig struct {
	// AllowedOrigins lists origins that may call the API. "*" allows any
	// origin; an empty list disables CORS headers entirely.
	AllowedOrigins []string
	// MaxAge is how long, in seconds, browsers may cache a preflight result
	MaxAge int
}

// DefaultCORSConfig allows any origin, so a slideshow page served from
// elsewhere can build playlists and load images.
func DefaultCORSConfig() CORSConfig {
	return CORSConfig{
		AllowedOrigins: []string{"*"},
		MaxAge:         600,
	}
}

// CORS answers preflight requests and adds Access-Control-* headers to
// cross-origin responses.
func CORS(config CORSConfig) func(http.Handler) http.Handler {
	if len(config.AllowedOrigins) == 0 {
		return func(next http.Handler) http.Handler { return next }
	}

	c := cors.New(cors.Options{
		AllowedOrigins: config.AllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodHead, http.MethodPost},
		AllowedHeaders: []string{"*"},
		// Range responses need these readable from scripts
		ExposedHeaders: []string{"Content-Length", "Content-Range", "Accept-Ranges"},
		MaxAge:         config.MaxAge,
	})
	logging.Debug("CORS enabled for origins %v", config.AllowedOrigins)
	return c.Handler
}
