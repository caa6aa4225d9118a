package config_test

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/km-arc/go-inject/framework/config"
)

// ── Load ─────────────────────────────────────────────────────────────────────

func TestLoad_Defaults(t *testing.T) {
	cfg := config.Load("testdata/empty.env")

	tests := []struct {
		name string
		got  any
		want any
	}{
		{"App.Name", cfg.App.Name, "GoInject"},
		{"App.Env", cfg.App.Env, "local"},
		{"App.Port", cfg.App.Port, "8000"},
		{"Log.Level", cfg.Log.Level, "info"},
		{"Log.Format", cfg.Log.Format, "console"},
		{"DI.Metrics", cfg.DI.Metrics, false},
		{"DI.MetricsPath", cfg.DI.MetricsPath, "/metrics"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.got)
		})
	}
	assert.Empty(t, cfg.DI.Definitions)
}

func TestLoad_EnvOverridesDefaults(t *testing.T) {
	t.Setenv("APP_NAME", "MyApp")
	t.Setenv("APP_ENV", "production")
	t.Setenv("APP_PORT", "9000")
	t.Setenv("DI_DEFINITIONS", "di.yaml")

	cfg := config.Load("testdata/empty.env")

	assert.Equal(t, "MyApp", cfg.App.Name)
	assert.Equal(t, "production", cfg.App.Env)
	assert.Equal(t, "9000", cfg.App.Port)
	assert.Equal(t, "json", cfg.Log.Format, "production logs default to json")
	assert.Equal(t, []string{"di.yaml"}, cfg.DI.Definitions)
}

func TestLoad_FromEnvFile(t *testing.T) {
	for _, key := range []string{"DI_DEFINITIONS", "DI_METRICS", "LOG_LEVEL"} {
		key := key
		os.Unsetenv(key)
		t.Cleanup(func() { os.Unsetenv(key) })
	}

	cfg := config.Load("testdata/di.env")

	assert.Equal(t, []string{"config/di.yaml", "config/extra.yaml"}, cfg.DI.Definitions)
	assert.True(t, cfg.DI.Metrics)
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestLoad_AppDebug(t *testing.T) {
	t.Setenv("APP_DEBUG", "true")
	assert.True(t, config.Load("testdata/empty.env").App.Debug)

	t.Setenv("APP_DEBUG", "false")
	assert.False(t, config.Load("testdata/empty.env").App.Debug)
}

// ── Get / GetInt / GetBool ───────────────────────────────────────────────────

func TestGet(t *testing.T) {
	t.Setenv("CUSTOM_KEY", "hello")
	assert.Equal(t, "hello", config.Get("CUSTOM_KEY", "default"))

	os.Unsetenv("MISSING_KEY")
	assert.Equal(t, "fallback", config.Get("MISSING_KEY", "fallback"))
}

func TestGetInt(t *testing.T) {
	t.Setenv("SOME_INT", "42")
	assert.Equal(t, 42, config.GetInt("SOME_INT", 0))

	t.Setenv("SOME_INT", "notanint")
	assert.Equal(t, 99, config.GetInt("SOME_INT", 99))
}

func TestGetBool(t *testing.T) {
	for _, val := range []string{"true", "1", "True", "TRUE"} {
		t.Setenv("BOOL_KEY", val)
		assert.True(t, config.GetBool("BOOL_KEY", false), val)
	}

	t.Setenv("BOOL_KEY", "false")
	assert.False(t, config.GetBool("BOOL_KEY", true))

	t.Setenv("BOOL_KEY", "notabool")
	assert.True(t, config.GetBool("BOOL_KEY", true))
}
