package external_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/km-arc/go-inject/framework/container"
	"github.com/km-arc/go-inject/framework/container/external"
)

func TestProxy_Forwards(t *testing.T) {
	c := container.New()
	c.Instance("name", "inner")
	p := external.NewProxy(c)

	assert.True(t, p.Has("name"))
	assert.False(t, p.Has("missing"))

	v, err := p.Get("name")
	require.NoError(t, err)
	assert.Equal(t, "inner", v)

	_, err = p.Get("missing")
	assert.True(t, container.IsNotFound(err))
	assert.Same(t, c, p.Unwrap())
}

func TestProxy_Callbacks(t *testing.T) {
	c := container.New()
	c.Instance("name", "inner")

	p := external.NewProxy(c).
		SetHasCallback(func(id string, next func(string) bool) bool {
			return strings.HasPrefix(id, "virtual.") || next(id)
		}).
		SetGetCallback(func(id string, next func(string) (any, error)) (any, error) {
			if strings.HasPrefix(id, "virtual.") {
				return strings.TrimPrefix(id, "virtual."), nil
			}
			return next(id)
		})

	assert.True(t, p.Has("virtual.x"))
	assert.True(t, p.Has("name"))

	v, err := p.Get("virtual.x")
	require.NoError(t, err)
	assert.Equal(t, "x", v)

	v, err = p.Get("name")
	require.NoError(t, err)
	assert.Equal(t, "inner", v)

	p.SetHasCallback(nil).SetGetCallback(nil)
	assert.False(t, p.Has("virtual.x"))
}

func TestProxy_CloneClonesWrappedContainer(t *testing.T) {
	c := container.New()
	c.Instance("shared", "value")
	p := external.NewProxy(c)

	clone := p.Clone()
	require.NotSame(t, p, clone)

	inner, ok := clone.Unwrap().(*container.Container)
	require.True(t, ok)
	assert.NotSame(t, c, inner)
	assert.True(t, inner.Has("shared"))

	inner.Instance("clone-only", 1)
	assert.False(t, p.Has("clone-only"))
}

func TestProxy_InjectorSeesProxy(t *testing.T) {
	c := container.New()
	c.Instance(container.Key[Conn](), &Conn{DSN: "db"})

	p := external.NewProxy(c)
	got, err := container.NewInjector().Invoke(p, func(conn *Conn) string { return conn.DSN }, nil)
	require.NoError(t, err)
	assert.Equal(t, "db", got)
}

func TestProxy_NilWrappedIsEmpty(t *testing.T) {
	p := external.NewProxy(nil)

	assert.False(t, p.Has("anything"))
	_, err := p.Get("anything")
	assert.True(t, container.IsNotFound(err))

	p.SetGetCallback(func(id string, next func(string) (any, error)) (any, error) {
		if id == "local" {
			return "value", nil
		}
		return next(id)
	})
	v, err := p.Get("local")
	require.NoError(t, err)
	assert.Equal(t, "value", v)
	_, err = p.Get("other")
	assert.True(t, container.IsNotFound(err))
}
