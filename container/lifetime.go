package container

import "sync"

// Lifetime controls how many instances of a binding the container creates.
type Lifetime int

const (
	// PerRequest is the default lifetime. Every resolution constructs a
	// fresh instance; nothing is cached.
	PerRequest Lifetime = iota

	// Scoped produces one instance per [Scope]. The instance is cached in
	// the scope that built it and discarded when the scope closes.
	Scoped

	// Singleton produces one instance for the container's life, built
	// lazily on first resolution.
	Singleton
)

// String returns the human-readable name of the lifetime.
func (l Lifetime) String() string {
	switch l {
	case PerRequest:
		return "per-request"
	case Scoped:
		return "scoped"
	case Singleton:
		return "singleton"
	default:
		return "unknown"
	}
}

// ── Instance cache ────────────────────────────────────────────────────────────

// instanceCache is a per-key single-flight cache. The container owns one for
// singletons; every scope owns one for its scoped instances.
type instanceCache struct {
	mu      sync.Mutex
	entries map[string]*cacheEntry
}

// cacheEntry guards the build of a single key. The entry mutex is held for
// the duration of the build, so concurrent resolvers of the same key block
// until the winner's instance is stored.
type cacheEntry struct {
	mu    sync.Mutex
	built bool
	value any
}

func newInstanceCache() *instanceCache {
	return &instanceCache{entries: make(map[string]*cacheEntry)}
}

// getOrCreate returns the cached instance for key, building it with build if
// absent. Exactly one build runs per key; losers of the race wait and
// receive the winner's value. A failed build stores nothing, so the key
// remains buildable by a later caller.
func (c *instanceCache) getOrCreate(key string, build func() (any, error)) (any, error) {
	c.mu.Lock()
	entry, ok := c.entries[key]
	if !ok {
		entry = &cacheEntry{}
		c.entries[key] = entry
	}
	c.mu.Unlock()

	entry.mu.Lock()
	defer entry.mu.Unlock()

	if entry.built {
		return entry.value, nil
	}

	value, err := build()
	if err != nil {
		return nil, err
	}

	entry.value = value
	entry.built = true
	return value, nil
}

// flush discards every cached instance.
func (c *instanceCache) flush() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]*cacheEntry)
}
