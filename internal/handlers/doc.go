// Package handlers provides the HTTP API of the gallery server.
//
// It includes handlers for:
//   - Library scans and directory browsing
//   - Playlist building and restore
//   - Per-client session status and content
//   - The runtime security policy
//   - File bytes, by query parameter or direct path
//   - Health checks and version information
//
// Handlers are thin: they decode requests, call the playlist, session,
// browse and indexer services, and map the security error taxonomy to HTTP
// statuses. Clients are identified by the host part of the connection's
// remote address; proxy headers are ignored for identity.
package handlers
