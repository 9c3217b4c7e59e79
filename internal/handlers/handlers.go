package handlers

import (
	"net"
	"net/http"

	"image-gallery/internal/browse"
	"image-gallery/internal/database"
	"image-gallery/internal/indexer"
	"image-gallery/internal/playlist"
	"image-gallery/internal/security"
	"image-gallery/internal/session"
)

// maxBodyBytes bounds JSON request bodies. Restore bodies carry a whole
// playlist.
const maxBodyBytes = 32 << 20

// Handlers holds the services behind the HTTP API.
type Handlers struct {
	db       *database.Database
	indexer  *indexer.Indexer
	builder  *playlist.Builder
	sessions *session.Manager
	browser  *browse.Service
	boundary *security.Boundary
	policy   *security.Policy
}

// Deps groups the services New wires together.
type Deps struct {
	DB       *database.Database
	Indexer  *indexer.Indexer
	Builder  *playlist.Builder
	Sessions *session.Manager
	Browser  *browse.Service
	Boundary *security.Boundary
	Policy   *security.Policy
}

func New(d Deps) *Handlers {
	return &Handlers{
		db:       d.DB,
		indexer:  d.Indexer,
		builder:  d.Builder,
		sessions: d.Sessions,
		browser:  d.Browser,
		boundary: d.Boundary,
		policy:   d.Policy,
	}
}

// clientID identifies the caller by the host part of RemoteAddr.
func clientID(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
