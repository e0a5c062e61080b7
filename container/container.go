package container

import (
	"fmt"
	"reflect"
	"sync"
)

// Extender wraps an already-built instance with decorator logic.
type Extender func(instance any) any

// Container is the IoC container: a write-once registry of bindings plus the
// singleton instance cache. Register everything up front, then resolve;
// bindings are immutable once made and a key can never be rebound.
type Container struct {
	mu sync.RWMutex

	// key → binding (write-once per key)
	bindings map[string]*binding

	// alias → canonical key
	aliases map[string]string

	// key → extender funcs, applied in registration order
	extenders map[string][]Extender

	// tag → []key
	tags map[string][]string

	// contextual: when[building][needs] = factory override
	contextual map[string]map[string]FactoryFunc

	// container-lifetime instances
	singletons *instanceCache
}

// New creates an empty container.
func New() *Container {
	return &Container{
		bindings:   make(map[string]*binding),
		aliases:    make(map[string]string),
		extenders:  make(map[string][]Extender),
		tags:       make(map[string][]string),
		contextual: make(map[string]map[string]FactoryFunc),
		singletons: newInstanceCache(),
	}
}

// ── Registration ──────────────────────────────────────────────────────────────

// Register binds key to an implementation. The binding is immutable: a
// second Register for the same key (or for an alias of it) fails with
// [ErrDuplicateBinding] and the first binding is kept.
//
//	c.Register("logger", container.Factory(newConsoleLogger),
//	    container.WithLifetime(container.Singleton))
func (c *Container) Register(key string, impl Implementation, opts ...Option) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	canonical := c.canonical(key)
	if _, exists := c.bindings[canonical]; exists {
		return fmt.Errorf("%w: %q", ErrDuplicateBinding, canonical)
	}

	b := &binding{
		key:      canonical,
		impl:     impl,
		lifetime: PerRequest,
	}
	for _, opt := range opts {
		opt(b)
	}

	c.bindings[canonical] = b
	return nil
}

// Instance binds a pre-built value under key. The value is registered as a
// Singleton factory binding, so every resolution returns the same instance.
func (c *Container) Instance(key string, value any) error {
	return c.Register(key,
		Factory(func(Args) (any, error) { return value, nil }),
		WithLifetime(Singleton),
	)
}

// Alias registers an alternative name for a key. Both registration and
// resolution canonicalize through aliases, so an alias can neither shadow
// nor rebind its target.
func (c *Container) Alias(key, alias string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if key == alias {
		return fmt.Errorf("container: %q is aliased to itself", key)
	}
	if _, exists := c.bindings[alias]; exists {
		return fmt.Errorf("%w: %q", ErrDuplicateBinding, alias)
	}
	if _, exists := c.aliases[alias]; exists {
		return fmt.Errorf("%w: alias %q", ErrDuplicateBinding, alias)
	}

	c.aliases[alias] = c.canonical(key)
	return nil
}

// ── Extend ────────────────────────────────────────────────────────────────────

// Extend decorates instances of key. Extenders run in registration order on
// every build, before the instance is cached, so a singleton is decorated
// exactly once while a per-request binding is decorated on each resolution.
//
// Extend must be called before the first resolution of key; instances that
// were already cached are not re-decorated.
func (c *Container) Extend(key string, fn Extender) {
	c.mu.Lock()
	defer c.mu.Unlock()
	canonical := c.canonical(key)
	c.extenders[canonical] = append(c.extenders[canonical], fn)
}

// ── Tags ──────────────────────────────────────────────────────────────────────

// Tag associates multiple keys under a named group.
//
//	c.Tag([]string{"cpu-report", "mem-report"}, "reports")
func (c *Container) Tag(keys []string, tag string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.tags[tag] = append(c.tags[tag], keys...)
}

// Tagged resolves every key registered under tag, in tag order. Scoped
// bindings cannot be resolved this way; use [Scope.Tagged] inside a scope.
func (c *Container) Tagged(tag string) ([]any, error) {
	return c.tagged(tag, nil)
}

func (c *Container) tagged(tag string, s *Scope) ([]any, error) {
	c.mu.RLock()
	keys := make([]string, len(c.tags[tag]))
	copy(keys, c.tags[tag])
	c.mu.RUnlock()

	out := make([]any, 0, len(keys))
	for _, key := range keys {
		instance, err := c.resolve(key, s, nil)
		if err != nil {
			return nil, fmt.Errorf("tag %q: %w", tag, err)
		}
		out = append(out, instance)
	}
	return out, nil
}

// ── Introspection ─────────────────────────────────────────────────────────────

// Bound reports whether key (directly or via alias) has a binding.
func (c *Container) Bound(key string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.bindings[c.canonical(key)]
	return ok
}

// Keys returns all registered binding keys, unordered.
func (c *Container) Keys() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]string, 0, len(c.bindings))
	for k := range c.bindings {
		out = append(out, k)
	}
	return out
}

// ── Internal lookup ───────────────────────────────────────────────────────────

// canonical resolves an alias to its target key. Callers must hold c.mu.
func (c *Container) canonical(key string) string {
	if target, ok := c.aliases[key]; ok {
		return target
	}
	return key
}

// lookup returns the binding for key or ErrBindingNotFound.
func (c *Container) lookup(key string) (*binding, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	b, ok := c.bindings[c.canonical(key)]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrBindingNotFound, key)
	}
	return b, nil
}

// ── Reflect helper ────────────────────────────────────────────────────────────

// TypeKey returns the package-qualified type name of v, useful as a stable
// binding key when working with interfaces.
//
//	key := container.TypeKey((*UserRepository)(nil))
func TypeKey(v any) string {
	t := reflect.TypeOf(v)
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	return t.PkgPath() + "." + t.Name()
}
