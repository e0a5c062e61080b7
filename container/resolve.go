package container

import (
	"fmt"
	"reflect"
	"strings"
)

// Resolver is the resolution surface shared by [*Container], [*Scope] and
// [*ProviderRegistry]. Container-level resolution cannot produce Scoped
// instances; those require a scope, see [Container.WithScope].
type Resolver interface {
	Resolve(key string) (any, error)
}

// Resolve produces an instance for key without an active scope. Scoped
// bindings fail with [ErrScopeViolation]; resolve those through a [Scope].
func (c *Container) Resolve(key string) (any, error) {
	return c.resolve(key, nil, nil)
}

// ── Generic helpers ───────────────────────────────────────────────────────────

// Resolve is a generic helper that resolves a key and type-asserts the
// result. It is the recommended way to retrieve values:
//
//	db, err := container.Resolve[Database](c, "database")
func Resolve[T any](r Resolver, key string) (T, error) {
	var zero T
	instance, err := r.Resolve(key)
	if err != nil {
		return zero, err
	}
	typed, ok := instance.(T)
	if !ok {
		want := reflect.TypeOf((*T)(nil)).Elem()
		return zero, fmt.Errorf("container: %q resolved to %T, not %s", key, instance, want)
	}
	return typed, nil
}

// MustResolve is like [Resolve] but panics on failure. Intended for
// bootstrap paths where a missing binding is a programming error.
func MustResolve[T any](r Resolver, key string) T {
	typed, err := Resolve[T](r, key)
	if err != nil {
		panic(err)
	}
	return typed
}

// ── Resolution engine ─────────────────────────────────────────────────────────

// resolve is the internal resolver. s carries the active scope, or nil for
// container-level resolution; path holds the keys currently being built on
// this call chain, for cycle detection.
func (c *Container) resolve(key string, s *Scope, path []string) (any, error) {
	c.mu.RLock()
	canonical := c.canonical(key)
	c.mu.RUnlock()

	for _, building := range path {
		if building == canonical {
			return nil, circularError(canonical, path)
		}
	}

	b, err := c.lookup(canonical)
	if err != nil {
		return nil, err
	}

	build := func() (any, error) {
		return c.build(b, s, append(path, canonical))
	}

	switch b.lifetime {
	case Singleton:
		return c.singletons.getOrCreate(canonical, build)
	case Scoped:
		if s == nil {
			return nil, fmt.Errorf("%w: %q", ErrScopeViolation, canonical)
		}
		return s.getOrCreate(canonical, build)
	default: // PerRequest
		return build()
	}
}

// build constructs one instance for b. Factories receive the binding's
// fixed parameters verbatim; constructors receive an argument map assembled
// from fixed parameters and the declared dependency manifest, with fixed
// parameters taking precedence. Manifest entries whose key is unbound are
// left absent so the constructor applies its own default.
func (c *Container) build(b *binding, s *Scope, path []string) (any, error) {
	var (
		instance any
		err      error
	)

	switch b.impl.kind {
	case kindFactory:
		instance, err = b.impl.factory(b.params)

	default:
		args := make(Args, len(b.params)+len(b.impl.deps))
		for name, value := range b.params {
			args[name] = value
		}

		for _, dep := range b.impl.deps {
			if _, fixed := args[dep.Param]; fixed {
				continue
			}

			if override := c.override(b.key, dep.Key); override != nil {
				value, oerr := override(nil)
				if oerr != nil {
					return nil, fmt.Errorf("contextual %q for %q: %w", dep.Key, b.key, oerr)
				}
				args[dep.Param] = value
				continue
			}

			if !c.Bound(dep.Key) {
				continue
			}
			value, rerr := c.resolve(dep.Key, s, path)
			if rerr != nil {
				return nil, fmt.Errorf("resolving %q for %q: %w", dep.Key, b.key, rerr)
			}
			args[dep.Param] = value
		}

		instance, err = b.impl.construct(args)
	}

	if err != nil {
		return nil, fmt.Errorf("building %q: %w", b.key, err)
	}

	return c.applyExtenders(b.key, instance), nil
}

// override returns the contextual factory for the (building, needs) pair,
// or nil.
func (c *Container) override(building, needs string) FactoryFunc {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if m, ok := c.contextual[building]; ok {
		return m[needs]
	}
	return nil
}

func (c *Container) applyExtenders(key string, instance any) any {
	c.mu.RLock()
	exts := c.extenders[key]
	c.mu.RUnlock()
	for _, ext := range exts {
		instance = ext(instance)
	}
	return instance
}

func circularError(key string, path []string) error {
	chain := make([]string, 0, len(path)+1)
	chain = append(chain, path...)
	chain = append(chain, key)
	return fmt.Errorf("%w: %s", ErrCircularDependency, strings.Join(chain, " -> "))
}
