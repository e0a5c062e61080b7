// Package providers ships the library's core service providers: env-backed
// configuration and the scope-aware HTTP router.
package providers

import (
	"github.com/go-chi/chi/v5"

	"github.com/km-arc/go-injector/config"
	"github.com/km-arc/go-injector/container"
	"github.com/km-arc/go-injector/httpscope"
)

// ── ConfigServiceProvider ─────────────────────────────────────────────────────

// ConfigServiceProvider loads configuration from .env and binds it into the
// container.
//
// Bound keys:
//   - "config" → *config.Config (singleton)
//   - "configuration" → alias of "config"
type ConfigServiceProvider struct {
	container.BaseProvider
	EnvFiles []string
}

func (p *ConfigServiceProvider) Register(app *container.Container) error {
	envFiles := p.EnvFiles
	err := app.Register("config", container.Factory(func(container.Args) (any, error) {
		return config.Load(envFiles...), nil
	}), container.WithLifetime(container.Singleton))
	if err != nil {
		return err
	}
	return app.Alias("config", "configuration")
}

// ── RouterServiceProvider ─────────────────────────────────────────────────────

// RouterServiceProvider registers the HTTP router with request scoping
// pre-installed.
//
// Bound keys:
//   - "router" → chi.Router (singleton)
type RouterServiceProvider struct {
	container.BaseProvider
}

func (p *RouterServiceProvider) Register(app *container.Container) error {
	return app.Register("router", container.Factory(func(container.Args) (any, error) {
		return httpscope.NewRouter(app), nil
	}), container.WithLifetime(container.Singleton))
}

// Router resolves the registered router.
func Router(app *container.Container) (chi.Router, error) {
	return container.Resolve[chi.Router](app, "router")
}
