package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/km-arc/go-inject/framework/config"
	"github.com/km-arc/go-inject/framework/console"
	"github.com/km-arc/go-inject/framework/container"
	"github.com/km-arc/go-inject/framework/log"
	"github.com/km-arc/go-inject/framework/providers"
	"github.com/km-arc/go-inject/framework/routing"
)

// Application is the top-level application container. It embeds the
// Container so user code can call app.Instance(), app.Lazy(), app.Autowire()
// and app.Get() directly.
type Application struct {
	*container.Container
	Providers *container.ProviderRegistry

	config *config.Config
	logger *zap.Logger
}

// New loads the configuration from envFiles, builds the logger and the
// container, and registers the framework providers.
func New(envFiles ...string) (*Application, error) {
	return NewWithConfig(config.Load(envFiles...))
}

// NewWithConfig is New with an already loaded configuration.
func NewWithConfig(cfg *config.Config) (*Application, error) {
	logger, err := log.New(cfg.Log)
	if err != nil {
		return nil, fmt.Errorf("logger: %w", err)
	}

	registry := prometheus.NewRegistry()
	var metrics *container.Metrics
	if cfg.DI.Metrics {
		if metrics, err = container.NewMetrics(registry); err != nil {
			return nil, fmt.Errorf("metrics: %w", err)
		}
	}

	c := container.New(
		container.WithLogger(logger),
		container.WithMetrics(metrics),
		container.WithInjector(container.NewInjector(container.WithInjectorLogger(logger))),
	)
	app := &Application{
		Container: c,
		Providers: container.NewProviderRegistry(c),
		config:    cfg,
		logger:    logger,
	}

	metricsPath := ""
	if cfg.DI.Metrics {
		metricsPath = cfg.DI.MetricsPath
	}
	core := []container.ServiceProvider{
		&providers.ConfigServiceProvider{Config: cfg},
		&providers.LogServiceProvider{Logger: logger},
		&providers.RoutingServiceProvider{},
		&providers.MetricsServiceProvider{Registry: registry, Metrics: metrics, Path: metricsPath},
		&providers.ConsoleServiceProvider{Name: cfg.App.Name},
		&providers.DefinitionsServiceProvider{Paths: cfg.DI.Definitions},
	}
	for _, p := range core {
		if err := app.Register(p); err != nil {
			return nil, err
		}
	}
	return app, nil
}

// Register adds a ServiceProvider to the application.
func (a *Application) Register(provider container.ServiceProvider) error {
	return a.Providers.Register(provider)
}

// Boot runs the Boot() phase on all providers.
func (a *Application) Boot() error {
	return a.Providers.Boot()
}

// Config returns the application configuration.
func (a *Application) Config() *config.Config { return a.config }

// Logger returns the application logger.
func (a *Application) Logger() *zap.Logger { return a.logger }

// Router resolves *routing.Router from the container.
func (a *Application) Router() *routing.Router {
	return container.Must[*routing.Router](a.Container, "router")
}

// Console resolves *console.Kernel from the container.
func (a *Application) Console() *console.Kernel {
	return container.Must[*console.Kernel](a.Container, "console")
}

// Run boots the application (if needed) and serves HTTP until ctx is done.
func (a *Application) Run(ctx context.Context) error {
	if err := a.Boot(); err != nil {
		return err
	}
	addr := ":" + a.config.App.Port
	srv := &http.Server{Addr: addr, Handler: a.Router(), ReadHeaderTimeout: 10 * time.Second}

	errc := make(chan error, 1)
	go func() { errc <- srv.ListenAndServe() }()
	a.logger.Info("server started",
		zap.String("app", a.config.App.Name),
		zap.String("addr", addr),
		zap.String("env", a.config.App.Env),
	)

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	shutdown, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdown); err != nil {
		return err
	}
	if err := <-errc; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// RunConsole boots the application (if needed) and runs the command line
// argv (without the program name).
func (a *Application) RunConsole(ctx context.Context, argv []string) error {
	if err := a.Boot(); err != nil {
		return err
	}
	return a.Console().Execute(ctx, argv)
}

// Command binds cmd under id and tags it for the console. Commands must be
// added before the console is first resolved.
func (a *Application) Command(id string, cmd console.Command) {
	a.Instance(id, cmd)
	a.Tag(providers.CommandTag, id)
}

// Environment returns APP_ENV value.
func (a *Application) Environment() string { return a.config.App.Env }
func (a *Application) IsLocal() bool       { return a.Environment() == "local" }
func (a *Application) IsProduction() bool  { return a.Environment() == "production" }
func (a *Application) IsTesting() bool     { return a.Environment() == "testing" }
func (a *Application) IsDebug() bool       { return a.config.App.Debug }
func (a *Application) Version() string     { return "0.1.0" }
