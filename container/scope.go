package container

import (
	"fmt"
	"sync"

	"github.com/google/uuid"
)

// Scope is an explicit boundary within which Scoped bindings may be resolved
// and are cached together. Scopes are independent handles: each carries its
// own instance cache, so any number of scopes may be open concurrently
// without touching one another. Create one with [Container.BeginScope] or
// the [Container.WithScope] wrapper.
type Scope struct {
	id        string
	container *Container
	instances *instanceCache

	mu     sync.Mutex
	closed bool
}

// BeginScope opens a new scope. The caller is responsible for closing it:
//
//	s := c.BeginScope()
//	defer s.Close()
//
// Prefer [Container.WithScope], which guarantees the close.
func (c *Container) BeginScope() *Scope {
	return &Scope{
		id:        uuid.NewString(),
		container: c,
		instances: newInstanceCache(),
	}
}

// WithScope runs fn inside a fresh scope and closes it on every exit path,
// including error return and panic unwind. The scoped instance cache is
// discarded in full on close; a later scope yields fresh instances.
func (c *Container) WithScope(fn func(s *Scope) error) error {
	s := c.BeginScope()
	defer s.Close()
	return fn(s)
}

// ID returns the scope's unique identifier.
func (s *Scope) ID() string { return s.id }

// Resolve produces an instance for key within this scope. Singleton and
// PerRequest bindings behave exactly as they do at container level; Scoped
// bindings are cached in this scope, and dependencies of any binding are
// resolved through this scope as well.
func (s *Scope) Resolve(key string) (any, error) {
	return s.container.resolve(key, s, nil)
}

// Tagged resolves every key registered under tag through this scope.
func (s *Scope) Tagged(tag string) ([]any, error) {
	return s.container.tagged(tag, s)
}

// Closed reports whether the scope has been closed.
func (s *Scope) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// Close marks the scope closed and discards its instance cache. Close is
// idempotent; resolving a Scoped binding afterwards fails with
// [ErrScopeClosed].
func (s *Scope) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	s.instances.flush()
}

// getOrCreate guards the scoped cache behind the closed check.
func (s *Scope) getOrCreate(key string, build func() (any, error)) (any, error) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil, fmt.Errorf("%w: %q (scope %s)", ErrScopeClosed, key, s.id)
	}
	s.mu.Unlock()
	return s.instances.getOrCreate(key, build)
}
