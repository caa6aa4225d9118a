package external_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/km-arc/go-inject/framework/container"
	"github.com/km-arc/go-inject/framework/container/external"
)

type Conn struct{ DSN string }

type Cache struct{ Name string }

type Repo struct {
	Conn  *Conn
	Cache *Cache
	Tail  string
}

func (*Repo) Constructor() *container.Callable {
	return container.Func(func(conn *Conn, cache *Cache, tail string) *Repo {
		return &Repo{Conn: conn, Cache: cache, Tail: tail}
	},
		container.Param("conn"),
		container.Param("cache", container.OrNil()),
		container.Param("tail", container.Default("tail")),
	)
}

func TestContainerInjector_Make(t *testing.T) {
	c := container.New()
	conn := &Conn{DSN: "sqlite"}
	c.Instance(container.Key[Conn](), conn)

	inj := external.NewContainerInjector()

	v, err := inj.Make(c, container.TypeOf[*Repo](), nil)
	require.NoError(t, err)
	repo := v.(*Repo)
	assert.Same(t, conn, repo.Conn)
	assert.Nil(t, repo.Cache)
	assert.Equal(t, "tail", repo.Tail)

	cache := &Cache{Name: "explicit"}
	v, err = inj.Make(external.NewProxy(c), container.TypeOf[*Repo](), container.Args{"cache": cache, "tail": "explicit-tail"})
	require.NoError(t, err)
	repo = v.(*Repo)
	assert.Same(t, cache, repo.Cache)
	assert.Equal(t, "explicit-tail", repo.Tail)
}

func TestContainerInjector_Invoke(t *testing.T) {
	c := container.New()
	c.Instance(container.Key[Conn](), &Conn{DSN: "pg"})

	v, err := external.NewContainerInjector().Invoke(c, func(conn *Conn) string { return conn.DSN }, nil)
	require.NoError(t, err)
	assert.Equal(t, "pg", v)
}

type readOnly struct{}

func (readOnly) Has(string) bool         { return false }
func (readOnly) Get(string) (any, error) { return nil, nil }

func TestContainerInjector_RequiresCapableContainer(t *testing.T) {
	inj := external.NewContainerInjector()

	_, err := inj.Make(readOnly{}, container.TypeOf[*Repo](), nil)
	assert.True(t, container.IsInvalidArgument(err))

	_, err = inj.Invoke(readOnly{}, func() {}, nil)
	assert.True(t, container.IsInvalidArgument(err))
}
