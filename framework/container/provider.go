package container

import (
	"fmt"
	"sync"

	"go.uber.org/zap"
)

// ── ServiceProvider interface ─────────────────────────────────────────────────

// ServiceProvider groups the bindings of one part of an application.
//
// Register binds services; Boot runs after every provider has been
// registered, so it may resolve bindings contributed by others.
//
//	type MailProvider struct{ container.BaseProvider }
//
//	func (p *MailProvider) Register(app *container.Container) error {
//	    app.Autowire(container.Key[*Mailer](), container.TypeOf[*Mailer]())
//	    return nil
//	}
//
//	func (p *MailProvider) Boot(app *container.Container) error {
//	    _, err := container.ResolveType[*Mailer](app)
//	    return err
//	}
type ServiceProvider interface {
	// Register binds services into the container.
	// Do NOT resolve other bindings here; use Boot for that.
	Register(app *Container) error

	// Boot is called after all providers are registered.
	Boot(app *Container) error

	// Provides returns the ids a deferred provider binds.
	Provides() []string

	// IsDeferred reports whether Register waits until one of Provides() is
	// first resolved.
	IsDeferred() bool
}

// ── BaseProvider ──────────────────────────────────────────────────────────────

// BaseProvider is an embeddable struct with no-op Boot, Provides and
// IsDeferred.
//
//	type MyProvider struct{ container.BaseProvider }
//	func (p *MyProvider) Register(app *container.Container) error { ... }
type BaseProvider struct{}

func (p *BaseProvider) Boot(_ *Container) error { return nil }
func (p *BaseProvider) Provides() []string      { return nil }
func (p *BaseProvider) IsDeferred() bool        { return false }

// ── ProviderRegistry ──────────────────────────────────────────────────────────

// ProviderRegistry registers and boots ServiceProviders, including deferred
// ones.
type ProviderRegistry struct {
	app *Container

	mu         sync.Mutex
	eager      []ServiceProvider
	registered map[ServiceProvider]bool
	booted     bool
}

type deferredLoad struct {
	once sync.Once
	err  error
	// id → placeholder lazy binding
	placeholders map[string]*binding
}

// NewProviderRegistry creates a registry bound to app.
func NewProviderRegistry(app *Container) *ProviderRegistry {
	return &ProviderRegistry{
		app:        app,
		registered: make(map[ServiceProvider]bool),
	}
}

// Register adds a provider. Eager providers are registered at once, and
// booted too when the registry already booted. Deferred providers get a lazy
// placeholder per id they provide.
func (r *ProviderRegistry) Register(provider ServiceProvider) error {
	r.mu.Lock()
	if r.registered[provider] {
		r.mu.Unlock()
		return nil
	}
	r.registered[provider] = true

	if provider.IsDeferred() {
		load := &deferredLoad{placeholders: make(map[string]*binding)}
		r.mu.Unlock()
		r.deferProvider(provider, load)
		return nil
	}
	booted := r.booted
	r.mu.Unlock()

	if err := provider.Register(r.app); err != nil {
		return fmt.Errorf("register %T: %w", provider, err)
	}
	r.mu.Lock()
	r.eager = append(r.eager, provider)
	r.mu.Unlock()

	if booted {
		if err := provider.Boot(r.app); err != nil {
			return fmt.Errorf("boot %T: %w", provider, err)
		}
	}
	return nil
}

func (r *ProviderRegistry) deferProvider(provider ServiceProvider, load *deferredLoad) {
	for _, id := range provider.Provides() {
		b := &binding{kind: KindLazy, factory: r.deferredFactory(provider, load, id)}
		load.placeholders[id] = b
		r.app.set(id, b)
	}
	r.app.log.Debug("deferred provider", zap.String("provider", fmt.Sprintf("%T", provider)), zap.Strings("provides", provider.Provides()))
}

// deferredFactory registers (and boots, when the registry has booted) the
// provider on first use, then resolves id from what the provider bound.
func (r *ProviderRegistry) deferredFactory(provider ServiceProvider, load *deferredLoad, id string) Factory {
	return func(c Contract) (any, error) {
		load.once.Do(func() {
			if err := provider.Register(r.app); err != nil {
				load.err = fmt.Errorf("register %T: %w", provider, err)
				return
			}
			r.mu.Lock()
			booted := r.booted
			r.mu.Unlock()
			if booted {
				if err := provider.Boot(r.app); err != nil {
					load.err = fmt.Errorf("boot %T: %w", provider, err)
				}
			}
		})
		if load.err != nil {
			return nil, load.err
		}

		r.app.mu.RLock()
		current := r.app.bindings[r.app.canonical(id)]
		r.app.mu.RUnlock()
		if current == nil || current == load.placeholders[id] {
			return nil, invalidArgument(id, "deferred provider %T did not bind it", provider)
		}

		// Continue the caller's chain, minus id itself which is now bound for real.
		var chain []string
		if view, ok := c.(*resolution); ok && len(view.chain) > 0 {
			chain = view.chain[:len(view.chain)-1]
		}
		value, _, err := r.app.lookup(id, chain)
		return value, err
	}
}

// Boot calls Boot on all eager providers, in registration order. Calls after
// the first are no-ops.
func (r *ProviderRegistry) Boot() error {
	r.mu.Lock()
	if r.booted {
		r.mu.Unlock()
		return nil
	}
	r.booted = true
	providers := append([]ServiceProvider(nil), r.eager...)
	r.mu.Unlock()

	for _, provider := range providers {
		if err := provider.Boot(r.app); err != nil {
			return fmt.Errorf("boot %T: %w", provider, err)
		}
	}
	return nil
}

// Booted returns true if Boot() has been called.
func (r *ProviderRegistry) Booted() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.booted
}

// Providers returns all registered eager providers.
func (r *ProviderRegistry) Providers() []ServiceProvider {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]ServiceProvider(nil), r.eager...)
}
