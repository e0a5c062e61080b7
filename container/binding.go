package container

import (
	"fmt"
	"reflect"
)

// ── Implementation kinds ──────────────────────────────────────────────────────

// Args carries named constructor arguments or fixed factory parameters.
type Args map[string]any

// ConstructorFunc builds an instance from named, pre-resolved arguments.
// Arguments the container could not satisfy are simply absent from args;
// the constructor applies its own defaults for those.
type ConstructorFunc func(args Args) (any, error)

// FactoryFunc builds an instance from the binding's fixed parameters only.
// The factory is opaque to the container and owns its own wiring.
type FactoryFunc func(params Args) (any, error)

// Dep declares that the constructor parameter Param is satisfied by
// resolving the binding registered under Key.
type Dep struct {
	Param string
	Key   string
}

type implementationKind int

const (
	kindConstructor implementationKind = iota
	kindFactory
)

// Implementation describes how a binding produces instances. Build one with
// [Construct] or [Factory].
type Implementation struct {
	kind      implementationKind
	construct ConstructorFunc
	factory   FactoryFunc
	deps      []Dep
}

// Construct declares a constructor implementation with an explicit
// dependency manifest. Each [Dep] names one constructor parameter and the
// binding key expected to satisfy it; fixed parameters registered with
// [WithParams] take precedence over the manifest.
func Construct(fn ConstructorFunc, deps ...Dep) Implementation {
	return Implementation{kind: kindConstructor, construct: fn, deps: deps}
}

// Factory declares an opaque factory implementation. The factory is invoked
// with exactly the binding's fixed parameters on every build and is cached
// per the binding's lifetime like any constructor binding.
func Factory(fn FactoryFunc) Implementation {
	return Implementation{kind: kindFactory, factory: fn}
}

// ── Binding record ────────────────────────────────────────────────────────────

// binding is one immutable registration record. Created once by Register,
// never mutated afterwards.
type binding struct {
	key      string
	impl     Implementation
	lifetime Lifetime
	params   Args
}

// Option configures a binding at registration time.
type Option func(*binding)

// WithLifetime sets the binding's [Lifetime]. The default is [PerRequest].
func WithLifetime(l Lifetime) Option {
	return func(b *binding) {
		b.lifetime = l
	}
}

// WithParams sets the binding's fixed parameters. For constructor bindings a
// fixed parameter overrides the dependency manifest entry of the same name;
// for factory bindings the whole map is handed to the factory on every
// build.
func WithParams(params Args) Option {
	return func(b *binding) {
		b.params = params
	}
}

// ── Args helpers ──────────────────────────────────────────────────────────────

// Arg fetches a typed value out of args. The second return is false when the
// argument is absent or holds a different type.
//
//	logger, ok := container.Arg[Logger](args, "logger")
func Arg[T any](args Args, name string) (T, bool) {
	v, ok := args[name]
	if !ok {
		var zero T
		return zero, false
	}
	typed, ok := v.(T)
	return typed, ok
}

// MustArg is like [Arg] but panics when the argument is absent or of the
// wrong type. Intended for constructors whose manifest guarantees the
// argument is always supplied.
func MustArg[T any](args Args, name string) T {
	typed, ok := Arg[T](args, name)
	if !ok {
		want := reflect.TypeOf((*T)(nil)).Elem()
		panic(fmt.Sprintf("container: argument %q missing or not %s", name, want))
	}
	return typed
}
