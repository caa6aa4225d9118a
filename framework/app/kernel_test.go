package app_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/km-arc/go-inject/framework/app"
	"github.com/km-arc/go-inject/framework/config"
	"github.com/km-arc/go-inject/framework/container"
	"github.com/km-arc/go-inject/framework/routing"
)

func testConfig() *config.Config {
	return &config.Config{
		App: config.AppConfig{Name: "test", Env: "testing", Port: "0"},
		Log: config.LogConfig{Level: "error", Format: "json"},
		DI: config.DIConfig{
			Definitions: []string{"testdata/di.yaml"},
			Metrics:     true,
			MetricsPath: "/metrics",
		},
	}
}

func newApp(t *testing.T) *app.Application {
	t.Helper()
	a, err := app.NewWithConfig(testConfig())
	require.NoError(t, err)
	return a
}

func TestNew_BindsFrameworkServices(t *testing.T) {
	a := newApp(t)

	cfg, err := container.Resolve[*config.Config](a, "config")
	require.NoError(t, err)
	assert.Same(t, a.Config(), cfg)

	byType, err := container.ResolveType[*config.Config](a)
	require.NoError(t, err)
	assert.Same(t, cfg, byType)

	logger, err := container.ResolveType[*zap.Logger](a)
	require.NoError(t, err)
	assert.Same(t, a.Logger(), logger)

	router, err := container.ResolveType[*routing.Router](a)
	require.NoError(t, err)
	assert.Same(t, a.Router(), router)

	assert.True(t, a.IsTesting())
	assert.False(t, a.IsProduction())
}

func TestNew_AppliesDefinitionFiles(t *testing.T) {
	a := newApp(t)

	greeting, err := container.Resolve[string](a, "app.greeting")
	require.NoError(t, err)
	assert.Equal(t, "hello", greeting)
}

func TestNew_MissingDefinitionFile(t *testing.T) {
	cfg := testConfig()
	cfg.DI.Definitions = []string{"testdata/missing.yaml"}

	_, err := app.NewWithConfig(cfg)
	assert.Error(t, err)
}

func TestBoot_ServesMetrics(t *testing.T) {
	a := newApp(t)
	require.NoError(t, a.Boot())

	_, err := a.Get("greeting")
	require.NoError(t, err)

	rr := httptest.NewRecorder()
	a.Router().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "di_resolutions_total")
}

type pingCommand struct{ ran *bool }

func (pingCommand) Use() string   { return "ping" }
func (pingCommand) Short() string { return "Record a ping" }
func (p pingCommand) Action() *container.Callable {
	return container.Func(func(greeting string) {
		*p.ran = greeting == "hello"
	}, container.Param("greeting", container.Types("greeting")))
}

func TestRunConsole_RunsTaggedCommands(t *testing.T) {
	a := newApp(t)
	ran := false
	a.Command("command.ping", pingCommand{ran: &ran})

	require.NoError(t, a.RunConsole(context.Background(), []string{"ping"}))
	assert.True(t, ran)
}

func TestRun_StopsWithContext(t *testing.T) {
	a := newApp(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.NoError(t, a.Run(ctx))
}
