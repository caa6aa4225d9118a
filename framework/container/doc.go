// Package container provides the binding registry and the reflective
// injector at the heart of the framework.
//
// # Overview
//
// A Container maps string identifiers to bindings. Each binding has a
// strategy:
//
//	c.Instance("config", cfg)                                  // returned verbatim
//	c.Lazy("cache", newCache)                                  // built on first Get, then cached
//	c.Factory("request.id", newRequestID)                      // built on every Get
//	c.Autowire(container.Key[*Mailer](), container.TypeOf[*Mailer]()) // built by the injector, then cached
//	c.Config("db", container.ConfigBag{"class": container.TypeOf[*Conn](), "dsn": dsn})
//
// One binding exists per identifier; registering again replaces it. A
// container also resolves itself under Key[Container]() and Key[Contract]()
// unless something else is bound there.
//
// # Identifiers
//
// Identifiers are plain strings. Key, KeyOf and TypeKey derive one from a Go
// type, which is what the injector looks up for typed parameters:
//
//	container.Key[*Mailer]()  // "github.com/acme/app.Mailer"
//
// # Circular dependencies
//
// Factories receive a view of the container tied to the current resolution.
// Lookups made through it extend the chain of identifiers being resolved, and
// reaching an identifier already in the chain fails with a
// *CircularDependencyError listing the whole chain:
//
//	one -> two -> three -> one
//
// The chain belongs to one top-level Get, so concurrent callers never see
// each other's entries. Factories must make nested lookups through the
// Contract they are handed: a lookup through a captured *Container starts a
// new chain, and a cycle passing through it blocks on the lazy binding being
// built (or overflows the stack for Factory bindings). A genuine cycle spread
// over goroutines that all block on the same lazy bindings is not detected
// and deadlocks either.
//
// # Injector
//
// Go keeps no parameter names or defaults at run time, so callables are
// described once with Func:
//
//	func (*Mailer) Constructor() *container.Callable {
//	    return container.Func(NewMailer,
//	        container.Param("transport"),
//	        container.Param("from", container.Default("noreply@example.com")),
//	    )
//	}
//
// Each parameter is filled from, in order: an explicit argument of the same
// name, the container (by the parameter's declared type keys, tried in order),
// its default, and nil when it is optional and nullable. Anything else is an
// error: *DefinitionNotFoundError for typed parameters, *InvalidArgumentError
// for untyped ones.
//
//	mailer, err := container.Make[*Mailer](c, container.Args{"from": "ops@example.com"})
//	result, err := c.Call(func(m *Mailer, log *zap.Logger) error { ... }, nil)
//
// # Service Providers
//
//	type AppServiceProvider struct{ container.BaseProvider }
//
//	func (p *AppServiceProvider) Register(app *container.Container) error {
//	    container.AutowireType[*Mailer](app)
//	    return nil
//	}
//
//	registry := container.NewProviderRegistry(c)
//	_ = registry.Register(&AppServiceProvider{})
//	_ = registry.Boot()
//
// Deferred providers (IsDeferred true) are registered the first time one of
// the ids they Provide is resolved.
package container
