// Package playlist builds ordered image playlists from catalog scopes.
//
// A build resolves the requested scopes through the security boundary
// (falling back to the library root when the policy forbids a scope), asks
// the indexer to sync scopes the catalog has not seen, queries the catalog,
// and orders the union with one of several strategies:
//
//   - shuffle: uniform random permutation
//   - date: newest first by file modification time
//   - name: natural order on the full path
//   - subfolder_random: folders shuffled, files in natural order
//   - subfolder_date: folders oldest first by folder mtime
//   - subfolder_prefix: folders ordered by their first file's name stem
//
// Unknown strategies fall back to name. The result can be reversed and
// rotated to resume at a given path, and is stored as the client's session.
package playlist
