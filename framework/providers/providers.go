package providers

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/km-arc/go-inject/framework/config"
	"github.com/km-arc/go-inject/framework/console"
	"github.com/km-arc/go-inject/framework/container"
	"github.com/km-arc/go-inject/framework/definitions"
	"github.com/km-arc/go-inject/framework/routing"
)

// CommandTag groups the console commands ConsoleServiceProvider adds.
const CommandTag = "console.commands"

// ── ConfigServiceProvider ─────────────────────────────────────────────────────

// ConfigServiceProvider binds the application configuration.
//
// Bound ids:
//   - "config", Key[config.Config]() → *config.Config
//   - "configuration"                → alias of "config"
type ConfigServiceProvider struct {
	container.BaseProvider
	Config *config.Config
}

func (p *ConfigServiceProvider) Register(app *container.Container) error {
	if p.Config == nil {
		return fmt.Errorf("config provider: no configuration")
	}
	app.Instance("config", p.Config)
	app.Alias("config", container.Key[config.Config]())
	app.Alias("config", "configuration")
	return nil
}

// ── LogServiceProvider ────────────────────────────────────────────────────────

// LogServiceProvider binds the application logger.
//
// Bound ids:
//   - "logger", Key[zap.Logger]() → *zap.Logger
type LogServiceProvider struct {
	container.BaseProvider
	Logger *zap.Logger
}

func (p *LogServiceProvider) Register(app *container.Container) error {
	logger := p.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	app.Instance("logger", logger)
	app.Alias("logger", container.Key[zap.Logger]())
	return nil
}

// ── MetricsServiceProvider ────────────────────────────────────────────────────

// MetricsServiceProvider binds the prometheus registry and, when Path is
// set, serves it on the router at boot.
//
// Bound ids:
//   - "metrics.registry", Key[prometheus.Registry]() → *prometheus.Registry
//   - "metrics" → *container.Metrics (only when Metrics is set)
type MetricsServiceProvider struct {
	container.BaseProvider
	Registry *prometheus.Registry
	Metrics  *container.Metrics
	Path     string
}

func (p *MetricsServiceProvider) Register(app *container.Container) error {
	if p.Registry == nil {
		p.Registry = prometheus.NewRegistry()
	}
	app.Instance("metrics.registry", p.Registry)
	app.Alias("metrics.registry", container.Key[prometheus.Registry]())
	if p.Metrics != nil {
		app.Instance("metrics", p.Metrics)
	}
	return nil
}

func (p *MetricsServiceProvider) Boot(app *container.Container) error {
	if p.Path == "" {
		return nil
	}
	router, err := container.Resolve[*routing.Router](app, "router")
	if err != nil {
		return err
	}
	router.Handle(p.Path, promhttp.HandlerFor(p.Registry, promhttp.HandlerOpts{}))
	return nil
}

// ── DefinitionsServiceProvider ────────────────────────────────────────────────

// DefinitionsServiceProvider applies YAML definition files to the container.
// Files are applied in order, so later files override earlier ones.
type DefinitionsServiceProvider struct {
	container.BaseProvider
	Paths []string
}

func (p *DefinitionsServiceProvider) Register(app *container.Container) error {
	for _, path := range p.Paths {
		defs, err := definitions.LoadFile(path)
		if err != nil {
			return err
		}
		if err := definitions.Apply(app, defs); err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
	}
	return nil
}

// ── RoutingServiceProvider ────────────────────────────────────────────────────

// RoutingServiceProvider registers the HTTP router. Controllers routed with
// Router.Action are resolved from the application container.
//
// Bound ids:
//   - "router", Key[routing.Router]() → *routing.Router
type RoutingServiceProvider struct {
	container.BaseProvider
}

func (p *RoutingServiceProvider) Register(app *container.Container) error {
	app.Lazy("router", func(c container.Contract) (any, error) {
		return routing.New(
			routing.WithContainer(app),
			routing.WithLogger(logger(c)),
		), nil
	})
	app.Alias("router", container.Key[routing.Router]())
	return nil
}

// ── ConsoleServiceProvider ────────────────────────────────────────────────────

// ConsoleServiceProvider registers the console kernel the first time it is
// resolved. Every value tagged CommandTag is added as a command, along with
// the built-in di:list.
//
// Bound ids:
//   - "console", Key[console.Kernel]() → *console.Kernel
type ConsoleServiceProvider struct {
	container.BaseProvider
	Name string
}

func (p *ConsoleServiceProvider) Register(app *container.Container) error {
	name := p.Name
	if name == "" {
		name = "app"
	}
	app.Lazy("console", func(c container.Contract) (any, error) {
		kernel := console.New(name, app, console.WithLogger(logger(c)))
		kernel.Add(console.ListCommand{})

		for _, id := range app.TaggedIDs(CommandTag) {
			v, err := c.Get(id)
			if err != nil {
				return nil, err
			}
			cmd, ok := v.(console.Command)
			if !ok {
				return nil, &container.InvalidArgumentError{Target: id, Reason: fmt.Sprintf("%T is not a console command", v)}
			}
			kernel.Add(cmd)
		}
		return kernel, nil
	})
	app.Alias("console", container.Key[console.Kernel]())
	return nil
}

func (p *ConsoleServiceProvider) IsDeferred() bool { return true }

func (p *ConsoleServiceProvider) Provides() []string {
	return []string{"console", container.Key[console.Kernel]()}
}

func logger(c container.Contract) *zap.Logger {
	if l, err := container.Resolve[*zap.Logger](c, "logger"); err == nil {
		return l
	}
	return zap.NewNop()
}
