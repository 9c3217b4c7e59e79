package security

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

// Error taxonomy shared by the services and mapped to HTTP statuses by the
// handlers.
var (
	ErrForbidden    = errors.New("access outside root is disabled")
	ErrNotFound     = errors.New("not found")
	ErrInvalidInput = errors.New("invalid input")
)

// RootScope is the scope string meaning "the whole library".
const RootScope = "."

// NormalizeRelPath converts a client path to the canonical relative form:
// forward slashes, no surrounding whitespace or slashes, no "/./" segments.
func NormalizeRelPath(p string) string {
	p = strings.ReplaceAll(p, "\\", "/")
	p = strings.TrimSpace(p)
	p = strings.Trim(p, "/")
	for strings.Contains(p, "/./") {
		p = strings.ReplaceAll(p, "/./", "/")
	}
	return p
}

// Resolve joins rel onto root and cleans the result lexically.
func Resolve(root, rel string) string {
	return filepath.Clean(filepath.Join(root, rel))
}

// IsUnderRoot reports whether full equals root or lies beneath it. The check
// is component-wise, so "/srv/photos2" is not under "/srv/photos".
func IsUnderRoot(root, full string) bool {
	if full == root {
		return true
	}
	if root == string(filepath.Separator) {
		return strings.HasPrefix(full, root)
	}
	return strings.HasPrefix(full, root+string(filepath.Separator))
}

// IsRootScope reports whether a normalized scope denotes the library root.
func IsRootScope(rel string) bool {
	return rel == "" || rel == RootScope
}

// Boundary resolves client paths against a fixed library root.
type Boundary struct {
	root string
}

// NewBoundary creates a boundary for root. The root is made absolute and
// clean once so containment checks compare like with like.
func NewBoundary(root string) (*Boundary, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve root %q: %w", root, err)
	}
	return &Boundary{root: filepath.Clean(abs)}, nil
}

// Root returns the absolute library root.
func (b *Boundary) Root() string {
	return b.root
}

// ResolveScope normalizes rel and resolves it. ok is false only when
// allowParent is false and the result escapes the root.
func (b *Boundary) ResolveScope(rel string, allowParent bool) (string, string, bool) {
	norm := NormalizeRelPath(rel)
	full := Resolve(b.root, norm)
	if !allowParent && !b.Contains(full) {
		return norm, full, false
	}
	return norm, full, true
}

// ResolveFile resolves rel for direct file access, returning ErrForbidden
// when the policy disallows the escape.
func (b *Boundary) ResolveFile(rel string, allowParent bool) (string, error) {
	_, full, ok := b.ResolveScope(rel, allowParent)
	if !ok {
		return "", ErrForbidden
	}
	return full, nil
}

// Contains reports whether full lies within the root.
func (b *Boundary) Contains(full string) bool {
	return IsUnderRoot(b.root, full)
}

// RelPath converts an absolute path to the root-relative, forward-slash form
// used as catalog keys. Paths outside the root come back as "../...".
func (b *Boundary) RelPath(full string) (string, error) {
	rel, err := filepath.Rel(b.root, full)
	if err != nil {
		return "", err
	}
	return filepath.ToSlash(rel), nil
}
