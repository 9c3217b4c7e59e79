/*
Package security implements the path boundary every client-supplied path
passes through before it touches the filesystem.

Paths are normalized and resolved lexically against the library root. No
symlinks are followed; the containment check guards only the lexical result.

Whether a path may escape the root is decided by a [Policy], a runtime
mutable flag that is injected into each component that resolves paths. The
flag starts from GALLERY_ALLOW_PARENT_DIR_ACCESS and is never persisted.

Callers pick what happens on a violation. Playlist scopes fall back to the
root, directory browsing falls back to the root, and file serving returns
[ErrForbidden].
*/
package security
