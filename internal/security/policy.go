package security

import "sync"

// Policy holds the allow-parent-directory flag. The zero value disallows
// escaping the root.
type Policy struct {
	mu          sync.RWMutex
	allowParent bool
}

// NewPolicy creates a policy with the given initial value.
func NewPolicy(allowParent bool) *Policy {
	return &Policy{allowParent: allowParent}
}

// AllowParent reports whether paths outside the root may be accessed.
// Callers should read it once per request and reuse the value.
func (p *Policy) AllowParent() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.allowParent
}

// Set replaces the flag and returns the previous value.
func (p *Policy) Set(allow bool) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	prev := p.allowParent
	p.allowParent = allow
	return prev
}

// Toggle flips the flag and returns the new value.
func (p *Policy) Toggle() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.allowParent = !p.allowParent
	return p.allowParent
}
