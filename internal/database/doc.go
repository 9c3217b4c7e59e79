// Package database provides SQLite storage for the gallery catalog and for
// durable playlist sessions.
//
// Two tables are maintained:
//   - images: one row per indexed image keyed by its root-relative path
//   - playlists: the last playlist built for each client identity
//
// Rows are accessed through sqlx. The database runs in WAL mode so catalog
// readers are never blocked by a reconcile's write transaction, and all
// multi-row writes go through BeginBatch/EndBatch so a reconcile's upserts
// become visible together.
package database
