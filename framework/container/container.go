package container

import (
	"errors"
	"fmt"
	"reflect"
	"sort"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ── Binding types ─────────────────────────────────────────────────────────────

// Contract is the read side of a container. The injector, factories and the
// framework glue depend on it rather than on *Container, so any compatible
// registry can be driven.
type Contract interface {
	Has(id string) bool
	Get(id string) (any, error)
}

// Factory builds a value. It receives the container view of the current
// resolution, so lookups it makes take part in cycle detection.
type Factory func(c Contract) (any, error)

// Kind is the resolution strategy of a binding.
type Kind int

const (
	KindInstance Kind = iota + 1
	KindFactory
	KindLazy
	KindAutowire
	KindConfig
)

func (k Kind) String() string {
	switch k {
	case KindInstance:
		return "instance"
	case KindFactory:
		return "factory"
	case KindLazy:
		return "lazy"
	case KindAutowire:
		return "autowire"
	case KindConfig:
		return "config"
	}
	return "unknown"
}

// binding is one registered strategy. Lazy, autowire and config bindings are
// built at most once under mu and then replaced by an instance binding.
type binding struct {
	kind    Kind
	value   any
	factory Factory
	typ     reflect.Type
	bag     ConfigBag

	mu    sync.Mutex
	built bool
}

var (
	selfKey     = Key[Container]()
	contractKey = Key[Contract]()
)

// ── Container ─────────────────────────────────────────────────────────────────

// Container is the binding registry.
//
// It supports:
//   - Instance / Lazy / Factory / Autowire / Config bindings (one per id, last write wins)
//   - Has / Get with circular dependency detection
//   - Alias / Tag / Forget / Clone
//   - self-identity: the container resolves itself under Key[Container]() and Key[Contract]()
type Container struct {
	mu sync.RWMutex

	id string

	// id → binding
	bindings map[string]*binding

	// alias → id (canonical key)
	aliases map[string]string

	// tag → []id
	tags map[string][]string

	// type key → type, for ids that name a constructible type
	types map[string]reflect.Type

	injector Injector
	log      *zap.Logger
	metrics  *Metrics
}

// Option configures a Container.
type Option func(*Container)

// WithInjector sets the injector used to build autowire and config bindings.
func WithInjector(i Injector) Option {
	return func(c *Container) { c.injector = i }
}

// WithLogger sets the logger. The default discards everything.
func WithLogger(l *zap.Logger) Option {
	return func(c *Container) {
		if l != nil {
			c.log = l
		}
	}
}

// WithMetrics enables resolution counters.
func WithMetrics(m *Metrics) Option {
	return func(c *Container) { c.metrics = m }
}

// WithTypes declares constructible types up front.
func WithTypes(types ...reflect.Type) Option {
	return func(c *Container) { c.declare(types) }
}

// New creates an empty container.
func New(opts ...Option) *Container {
	c := &Container{
		id:       uuid.NewString(),
		bindings: make(map[string]*binding),
		aliases:  make(map[string]string),
		tags:     make(map[string][]string),
		types:    make(map[string]reflect.Type),
		log:      zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.log = c.log.With(zap.String("container_id", c.id))
	if c.injector == nil {
		c.injector = NewInjector(WithInjectorLogger(c.log))
	}
	return c
}

// ID returns the unique identifier of this container instance.
func (c *Container) ID() string { return c.id }

// Injector returns the injector the container builds autowired types with.
func (c *Container) Injector() Injector { return c.injector }

// Make builds t with the container's injector, resolving its constructor
// arguments from this container.
func (c *Container) Make(t reflect.Type, args Args) (any, error) {
	return c.injector.Make(c, t, args)
}

// Call invokes fn with the container's injector. fn is a *Callable or a plain
// function.
func (c *Container) Call(fn any, args Args) (any, error) {
	return c.injector.Invoke(c, fn, args)
}

// ── Registration ──────────────────────────────────────────────────────────────

// Instance registers a pre-built value, returned verbatim by every Get.
//
//	c.Instance("config", cfg)
func (c *Container) Instance(id string, value any) *Container {
	return c.set(id, &binding{kind: KindInstance, value: value, built: true})
}

// Lazy registers a factory invoked on the first Get only; its result is
// cached as an instance.
//
// Nested lookups must go through the Contract the factory receives. A lookup
// through a captured *Container starts a new chain, so a cycle that passes
// through it is not detected and blocks forever on the binding being built.
//
//	c.Lazy("cache", func(c container.Contract) (any, error) {
//	    cfg, err := container.Resolve[*Config](c, "config")
//	    if err != nil {
//	        return nil, err
//	    }
//	    return cache.NewRedis(cfg), nil
//	})
func (c *Container) Lazy(id string, factory Factory) *Container {
	return c.set(id, &binding{kind: KindLazy, factory: factory})
}

// Factory registers a factory invoked on every Get. As with Lazy, nested
// lookups must go through the Contract argument; a cycle through a captured
// *Container recurses until the stack overflows.
func (c *Container) Factory(id string, factory Factory) *Container {
	return c.set(id, &binding{kind: KindFactory, factory: factory})
}

// Autowire registers a type to be constructed by the injector on first Get.
// When t is nil, id itself names the type; it must have been declared.
func (c *Container) Autowire(id string, t reflect.Type) *Container {
	if t != nil {
		c.Declare(t)
	}
	return c.set(id, &binding{kind: KindAutowire, typ: t})
}

// Config registers a legacy configuration binding. bag["class"] names the
// type (a reflect.Type or a declared type key); without it, id names the type.
// The remaining entries are applied to the built value.
func (c *Container) Config(id string, bag ConfigBag) *Container {
	if t, ok := bag[ClassKey].(reflect.Type); ok {
		c.Declare(t)
	}
	return c.set(id, &binding{kind: KindConfig, bag: bag.clone()})
}

// Declare registers types under their keys, so string ids can name them.
func (c *Container) Declare(types ...reflect.Type) *Container {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.declare(types)
	return c
}

func (c *Container) declare(types []reflect.Type) {
	for _, t := range types {
		if t != nil {
			c.types[KeyOf(t)] = t
		}
	}
}

// Alias registers an alternative name for an id.
func (c *Container) Alias(id, alias string) *Container {
	c.mu.Lock()
	defer c.mu.Unlock()
	if id == alias {
		panic(fmt.Sprintf("container: [%s] is aliased to itself", id))
	}
	c.aliases[alias] = c.canonical(id)
	return c
}

// Tag associates ids under a named group.
func (c *Container) Tag(tag string, ids ...string) *Container {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.tags[tag] = append(c.tags[tag], ids...)
	return c
}

// Forget removes the binding for id.
func (c *Container) Forget(id string) *Container {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.bindings, c.canonical(id))
	return c
}

func (c *Container) set(id string, b *binding) *Container {
	c.mu.Lock()
	key := c.canonical(id)
	c.bindings[key] = b
	c.mu.Unlock()

	c.log.Debug("binding registered", zap.String("id", key), zap.Stringer("kind", b.kind))
	return c
}

// ── Resolution ────────────────────────────────────────────────────────────────

// Has reports whether id can be resolved: a binding of any kind exists, or id
// is the container's own identity.
func (c *Container) Has(id string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	key := c.canonical(id)
	if _, ok := c.bindings[key]; ok {
		return true
	}
	return isSelf(key)
}

// Get resolves id. Each call starts a fresh resolution chain.
func (c *Container) Get(id string) (any, error) {
	return c.resolve(id, nil)
}

// resolution is the container as seen by factories and constructors during
// one top-level Get. chain holds the ids being resolved, in order.
type resolution struct {
	c     *Container
	chain []string
}

func (r *resolution) Has(id string) bool { return r.c.Has(id) }

func (r *resolution) Get(id string) (any, error) { return r.c.resolve(id, r.chain) }

func (c *Container) resolve(id string, chain []string) (any, error) {
	value, kind, err := c.lookup(id, chain)
	if len(chain) > 0 {
		return value, err
	}
	switch {
	case err == nil:
		c.metrics.resolved(kind)
	case IsCircular(err):
		c.metrics.failed("circular")
	case IsNotFound(err):
		c.metrics.failed("not_found")
	default:
		c.metrics.failed("error")
	}
	return value, err
}

// lookup resolves id on top of chain. Metrics are left to resolve, which
// counts top-level calls only.
func (c *Container) lookup(id string, chain []string) (any, Kind, error) {
	c.mu.RLock()
	key := c.canonical(id)
	b, ok := c.bindings[key]
	c.mu.RUnlock()

	for _, pending := range chain {
		if pending == key {
			err := newCircularDependencyError(chain, key)
			c.log.Warn("circular dependency", zap.Strings("chain", err.IDs))
			return nil, 0, err
		}
	}

	if !ok {
		if isSelf(key) {
			return c, KindInstance, nil
		}
		c.log.Debug("definition not found", zap.String("id", key), zap.Strings("chain", chain))
		return nil, 0, &DefinitionNotFoundError{ID: id}
	}

	// The view's chain is a fresh slice: entering pushes key, and returning
	// drops the view, which pops it on every exit path.
	view := &resolution{c: c, chain: append(chain[:len(chain):len(chain)], key)}

	value, err := c.produce(key, b, view)
	if err != nil {
		return nil, b.kind, err
	}
	return value, b.kind, nil
}

func (c *Container) produce(key string, b *binding, view *resolution) (any, error) {
	switch b.kind {
	case KindInstance:
		return b.value, nil
	case KindFactory:
		return call(key, b.factory, view)
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.built {
		return b.value, nil
	}

	var (
		value any
		err   error
	)
	switch b.kind {
	case KindLazy:
		value, err = call(key, b.factory, view)
	case KindAutowire:
		value, err = c.autowire(key, b, view)
	case KindConfig:
		value, err = c.configure(key, b, view)
	default:
		err = invalidArgument(key, "unknown binding kind %d", b.kind)
	}
	if err != nil {
		return nil, err
	}

	b.value, b.built = value, true
	c.metrics.built(b.kind)

	c.mu.Lock()
	if c.bindings[key] == b {
		c.bindings[key] = &binding{kind: KindInstance, value: value, built: true}
	}
	c.mu.Unlock()
	return value, nil
}

func call(key string, f Factory, view Contract) (any, error) {
	if f == nil {
		return nil, invalidArgument(key, "nil factory")
	}
	value, err := f(view)
	if err != nil {
		return nil, wrap(key, err)
	}
	return value, nil
}

func (c *Container) autowire(key string, b *binding, view Contract) (any, error) {
	t := b.typ
	if t == nil {
		var err error
		if t, err = c.lookupType(key); err != nil {
			return nil, err
		}
	}
	value, err := c.injector.Make(view, t, nil)
	if err != nil {
		return nil, wrap(key, err)
	}
	return value, nil
}

func (c *Container) configure(key string, b *binding, view Contract) (any, error) {
	var t reflect.Type
	switch class := b.bag[ClassKey].(type) {
	case reflect.Type:
		t = class
	case string:
		found, err := c.lookupType(class)
		if err != nil {
			return nil, err
		}
		t = found
	case nil:
		found, err := c.lookupType(key)
		if err != nil {
			return nil, err
		}
		t = found
	default:
		return nil, invalidArgument(key, "config class must be a type or a type key, got %T", class)
	}

	value, err := Construct(c.injector, view, t, b.bag.Properties(), nil)
	if err != nil {
		return nil, wrap(key, err)
	}
	return value, nil
}

func (c *Container) lookupType(key string) (reflect.Type, error) {
	if t, ok := c.DeclaredType(key); ok {
		return t, nil
	}
	return nil, invalidArgument(key, "type is not declared in the container")
}

// DeclaredType returns the type declared under key, if any.
func (c *Container) DeclaredType(key string) (reflect.Type, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	t, ok := c.types[c.canonical(key)]
	return t, ok
}

// wrap annotates foreign errors with the id being resolved; container errors
// pass through untouched so callers see the precise cause.
func wrap(key string, err error) error {
	if errors.Is(err, ErrDefinitionNotFound) || errors.Is(err, ErrCircularDependency) || errors.Is(err, ErrInvalidArgument) {
		return err
	}
	return fmt.Errorf("resolve %q: %w", key, err)
}

// TaggedIDs returns the ids registered under a tag, in registration order.
// Factories resolve them through their own Contract to keep cycle detection.
func (c *Container) TaggedIDs(tag string) []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]string(nil), c.tags[tag]...)
}

// Tagged resolves all ids registered under a tag, in registration order.
func (c *Container) Tagged(tag string) ([]any, error) {
	ids := c.TaggedIDs(tag)
	result := make([]any, 0, len(ids))
	for _, id := range ids {
		v, err := c.Get(id)
		if err != nil {
			return nil, err
		}
		result = append(result, v)
	}
	return result, nil
}

// ── Helpers ───────────────────────────────────────────────────────────────────

// KindOf returns the current binding kind of id.
func (c *Container) KindOf(id string) (Kind, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	b, ok := c.bindings[c.canonical(id)]
	if !ok {
		return 0, false
	}
	return b.kind, true
}

// Resolved reports whether id holds a built value (an instance binding).
func (c *Container) Resolved(id string) bool {
	kind, ok := c.KindOf(id)
	return ok && kind == KindInstance
}

// Bindings returns all bound ids, sorted (for debugging).
func (c *Container) Bindings() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]string, 0, len(c.bindings))
	for k := range c.bindings {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Clone returns a container with an independent binding table. Values built
// so far are shared; bindings not yet built are built separately by each copy.
func (c *Container) Clone() *Container {
	c.mu.RLock()
	defer c.mu.RUnlock()

	clone := &Container{
		id:       uuid.NewString(),
		bindings: make(map[string]*binding, len(c.bindings)),
		aliases:  make(map[string]string, len(c.aliases)),
		tags:     make(map[string][]string, len(c.tags)),
		types:    make(map[string]reflect.Type, len(c.types)),
		injector: c.injector,
		log:      c.log,
		metrics:  c.metrics,
	}
	for k, b := range c.bindings {
		if b.kind == KindInstance {
			clone.bindings[k] = b
			continue
		}
		clone.bindings[k] = &binding{kind: b.kind, factory: b.factory, typ: b.typ, bag: b.bag}
	}
	for k, v := range c.aliases {
		clone.aliases[k] = v
	}
	for k, v := range c.tags {
		clone.tags[k] = append([]string(nil), v...)
	}
	for k, v := range c.types {
		clone.types[k] = v
	}
	clone.log = c.log.With(zap.String("clone_id", clone.id))
	return clone
}

// canonical resolves an alias to its canonical key (must hold mu).
func (c *Container) canonical(id string) string {
	if target, ok := c.aliases[id]; ok {
		return target
	}
	return id
}

func isSelf(key string) bool {
	return key == selfKey || key == contractKey
}

// ── Generics helper ───────────────────────────────────────────────────────────

// Resolve is a generic helper that calls Get and type-asserts the result.
//
//	db, err := container.Resolve[*sql.DB](c, "db")
func Resolve[T any](c Contract, id string) (T, error) {
	var zero T
	instance, err := c.Get(id)
	if err != nil {
		return zero, err
	}
	if instance == nil {
		return zero, nil
	}
	typed, ok := instance.(T)
	if !ok {
		return zero, invalidArgument(id, "resolved to %T, not %s", instance, TypeOf[T]())
	}
	return typed, nil
}

// ResolveType resolves the binding registered under T's own key.
func ResolveType[T any](c Contract) (T, error) {
	return Resolve[T](c, Key[T]())
}

// Must is like Resolve but panics on error. Use it in bootstrap code only.
func Must[T any](c Contract, id string) T {
	v, err := Resolve[T](c, id)
	if err != nil {
		panic(fmt.Sprintf("container: Must[%s]: %v", TypeOf[T](), err))
	}
	return v
}

// AutowireType registers T under its own key.
func AutowireType[T any](c *Container) *Container {
	return c.Autowire(Key[T](), TypeOf[T]())
}
