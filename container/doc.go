// Package container provides a Laravel-style IoC (Inversion of Control)
// container for Go, built around explicit bindings and lifetime policies.
//
// # Overview
//
// The container is a registry of interface-key → implementation bindings.
// Each binding declares how an instance is produced (a constructor with an
// explicit dependency manifest, or an opaque factory) and how long produced
// instances live (per-request, scoped, or singleton). Resolution walks the
// declared dependency graph recursively, honouring each binding's own
// lifetime along the way.
//
// Because Go has no runtime constructor introspection, auto-wiring is
// replaced by a declared manifest: every constructor binding lists its
// parameters and the binding keys expected to satisfy them. The graph is
// therefore statically visible at registration time.
//
// # Registering
//
//	c := container.New()
//
//	// Constructor binding: dependencies are declared, not reflected.
//	err := c.Register("database", container.Construct(
//	    func(args container.Args) (any, error) {
//	        logger, _ := container.Arg[Logger](args, "logger")
//	        dsn, _ := container.Arg[string](args, "dsn")
//	        return NewSQLDatabase(dsn, logger), nil
//	    },
//	    container.Dep{Param: "logger", Key: "logger"},
//	    container.Dep{Param: "dsn", Key: "dsn"},
//	), container.WithLifetime(container.Scoped),
//	    container.WithParams(container.Args{"dsn": "server=prod"}))
//
//	// Factory binding: the factory owns its own wiring.
//	err = c.Register("mailer", container.Factory(
//	    func(params container.Args) (any, error) { return NewSMTP(), nil },
//	))
//
//	// Pre-built value, always a singleton.
//	c.Instance("config", cfg)
//
// A key can be bound exactly once; registering it again fails with
// [ErrDuplicateBinding] and the first binding is retained.
//
// # Resolving
//
//	db, err := container.Resolve[Database](c, "database")
//
// Resolution errors are sentinel-based: [ErrBindingNotFound],
// [ErrScopeViolation], [ErrCircularDependency], [ErrScopeClosed]. All are
// errors.Is-checkable and terminal — the container never retries or
// substitutes defaults, and a failed build never leaves a partial instance
// in any cache.
//
// # Lifetimes
//
// [PerRequest] (default) — a fresh instance on every resolution.
//
// [Singleton] — one instance for the container's life, built on first
// demand. Concurrent first resolutions of the same key produce exactly one
// build; the losers block until the winner's instance is available.
//
// [Scoped] — one instance per scope. Scoped bindings can only be resolved
// through a [Scope] handle:
//
//	err := c.WithScope(func(s *container.Scope) error {
//	    db1, _ := container.Resolve[Database](s, "database")
//	    db2, _ := container.Resolve[Database](s, "database") // same instance
//	    return nil
//	})
//
// Each scope carries its own instance cache, so concurrent scopes are fully
// isolated. Closing a scope discards its cache; a later scope yields fresh
// instances.
//
// # Contextual Binding
//
//	c.When("report-service").Needs("database").Give(func(container.Args) (any, error) {
//	    return NewReadReplica(), nil
//	})
//
// # Extend / Decorate
//
//	c.Extend("logger", func(instance any) any {
//	    return NewTimestampLogger(instance.(Logger))
//	})
//
// # Tags
//
//	c.Tag([]string{"cpu-report", "mem-report"}, "reports")
//	reports, err := c.Tagged("reports")
//
// # Service Providers
//
//	type AppServiceProvider struct{ container.BaseProvider }
//
//	func (p *AppServiceProvider) Register(app *container.Container) error {
//	    return app.Register("mailer", container.Factory(newMailer))
//	}
//
//	registry := container.NewProviderRegistry(c)
//	registry.Register(&AppServiceProvider{})
//	registry.Boot()
package container
