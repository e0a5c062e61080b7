package container

import "sync"

// ── ServiceProvider interface ─────────────────────────────────────────────────

// ServiceProvider groups related bindings behind a Register/Boot lifecycle.
//
// Register binds services into the container and must not resolve anything;
// Boot runs after all providers have registered, so resolving other
// bindings is safe there.
//
//	type AppServiceProvider struct{ container.BaseProvider }
//
//	func (p *AppServiceProvider) Register(app *container.Container) error {
//	    return app.Register("mailer", container.Factory(newMailer),
//	        container.WithLifetime(container.Singleton))
//	}
//
//	func (p *AppServiceProvider) Boot(app *container.Container) error {
//	    mailer, err := container.Resolve[Mailer](app, "mailer")
//	    ...
//	}
type ServiceProvider interface {
	// Register binds services into the container.
	// Do NOT resolve other bindings here; use Boot for that.
	Register(app *Container) error

	// Boot is called after all providers are registered.
	Boot(app *Container) error

	// Provides returns the keys this provider registers. Required for
	// deferred providers; eager providers may return nil.
	Provides() []string

	// IsDeferred reports whether the provider should be loaded lazily,
	// on the first [ProviderRegistry.Resolve] of one of its keys.
	IsDeferred() bool
}

// BaseProvider is an embeddable struct with no-op implementations of Boot,
// Provides, and IsDeferred. Embed it and override what you need.
type BaseProvider struct{}

func (BaseProvider) Boot(*Container) error { return nil }
func (BaseProvider) Provides() []string    { return nil }
func (BaseProvider) IsDeferred() bool      { return false }

// ── ProviderRegistry ──────────────────────────────────────────────────────────

// ProviderRegistry manages registration and booting of service providers,
// including deferred ones. Because bindings are write-once, deferred
// providers are not stubbed into the container; instead the registry's own
// [ProviderRegistry.Resolve] loads them on first demand and then delegates
// to the container.
type ProviderRegistry struct {
	mu         sync.Mutex
	app        *Container
	eager      []ServiceProvider
	deferred   map[string]ServiceProvider // key → provider
	registered map[ServiceProvider]bool
	booted     bool
}

// NewProviderRegistry creates a registry bound to app.
func NewProviderRegistry(app *Container) *ProviderRegistry {
	return &ProviderRegistry{
		app:        app,
		deferred:   make(map[string]ServiceProvider),
		registered: make(map[ServiceProvider]bool),
	}
}

// Register adds a provider and calls its Register method, unless the
// provider is deferred, in which case registration waits for the first
// Resolve of one of its keys. Registering the same provider twice is a
// no-op.
func (r *ProviderRegistry) Register(provider ServiceProvider) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.registered[provider] {
		return nil
	}
	r.registered[provider] = true

	if provider.IsDeferred() {
		for _, key := range provider.Provides() {
			r.deferred[key] = provider
		}
		return nil
	}

	if err := provider.Register(r.app); err != nil {
		return err
	}
	r.eager = append(r.eager, provider)

	// A provider registered after Boot is booted immediately.
	if r.booted {
		return provider.Boot(r.app)
	}
	return nil
}

// Boot calls Boot on all eager providers. Call after ALL providers have
// been registered; subsequent calls are no-ops.
func (r *ProviderRegistry) Boot() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.booted {
		return nil
	}
	r.booted = true

	for _, provider := range r.eager {
		if err := provider.Boot(r.app); err != nil {
			return err
		}
	}
	return nil
}

// Resolve loads the deferred provider for key if one is pending, then
// resolves key from the container.
func (r *ProviderRegistry) Resolve(key string) (any, error) {
	if err := r.loadDeferred(key); err != nil {
		return nil, err
	}
	return r.app.Resolve(key)
}

// loadDeferred registers (and, post-boot, boots) the deferred provider for
// key. Each deferred provider is loaded at most once; all of its provided
// keys become live together.
func (r *ProviderRegistry) loadDeferred(key string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	provider, ok := r.deferred[key]
	if !ok {
		return nil
	}
	for _, k := range provider.Provides() {
		delete(r.deferred, k)
	}

	if err := provider.Register(r.app); err != nil {
		return err
	}
	r.eager = append(r.eager, provider)

	if r.booted {
		return provider.Boot(r.app)
	}
	return nil
}

// Booted reports whether Boot has been called.
func (r *ProviderRegistry) Booted() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.booted
}

// Providers returns all providers registered so far, deferred ones only
// once loaded.
func (r *ProviderRegistry) Providers() []ServiceProvider {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]ServiceProvider, len(r.eager))
	copy(out, r.eager)
	return out
}
