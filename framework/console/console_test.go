package console_test

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/km-arc/go-inject/framework/console"
	"github.com/km-arc/go-inject/framework/container"
)

type Greeter struct{ Greeting string }

type greetCommand struct{}

func (greetCommand) Use() string   { return "greet" }
func (greetCommand) Short() string { return "Say hello" }
func (greetCommand) Action() *container.Callable {
	return container.Func(func(g *Greeter, name string, times int, out io.Writer) {
		for range times {
			fmt.Fprintf(out, "%s %s\n", g.Greeting, name)
		}
	},
		container.Param("greeter"),
		container.Param("name", container.Default("world")),
		container.Param("times", container.Default(1)),
		container.Param("output"),
	)
}

type echoCommand struct{}

func (echoCommand) Use() string   { return "echo" }
func (echoCommand) Short() string { return "Print positional arguments" }
func (echoCommand) Action() *container.Callable {
	return container.Func(func(args []string, ctx context.Context) string {
		if ctx == nil {
			return "no context"
		}
		return strings.Join(args, ",")
	}, container.Param("args"), container.Param("context"))
}

var errFailed = errors.New("failed")

type failCommand struct{}

func (failCommand) Use() string   { return "fail" }
func (failCommand) Short() string { return "Always fails" }
func (failCommand) Action() *container.Callable {
	return container.Func(func() error { return errFailed })
}

func kernel(t *testing.T) (*console.Kernel, *bytes.Buffer, *container.Container) {
	t.Helper()
	c := container.New()
	c.Instance(container.Key[Greeter](), &Greeter{Greeting: "hello"})
	c.Instance("command.greet", greetCommand{})
	c.Instance("command.echo", echoCommand{})
	c.Instance("command.fail", failCommand{})

	out := &bytes.Buffer{}
	k := console.New("app", c, console.WithOutput(out))
	for _, id := range []string{"command.greet", "command.echo", "command.fail"} {
		require.NoError(t, k.Command(id))
	}
	return k, out, c
}

func TestParse(t *testing.T) {
	args := console.Parse([]string{"--name=go", "--force", "a", "-v", "--", "--b"})

	assert.Equal(t, "go", args["name"])
	assert.Equal(t, "true", args["force"])
	assert.Equal(t, []string{"a", "-v", "--b"}, args["args"])

	assert.Equal(t, []string{}, console.Parse(nil)["args"])
	assert.Equal(t, "", console.Parse([]string{"--empty="})["empty"])
}

func TestKernel_ResolvesDependenciesAndOptions(t *testing.T) {
	k, out, _ := kernel(t)

	require.NoError(t, k.Execute(context.Background(), []string{"greet"}))
	assert.Equal(t, "hello world\n", out.String())

	out.Reset()
	require.NoError(t, k.Execute(context.Background(), []string{"greet", "--name=gopher", "--times=2"}))
	assert.Equal(t, "hello gopher\nhello gopher\n", out.String())
}

func TestKernel_PrintsResult(t *testing.T) {
	k, out, _ := kernel(t)

	require.NoError(t, k.Execute(context.Background(), []string{"echo", "a", "b"}))
	assert.Equal(t, "a,b\n", out.String())
}

func TestKernel_Errors(t *testing.T) {
	k, _, _ := kernel(t)

	assert.ErrorIs(t, k.Execute(context.Background(), []string{"fail"}), errFailed)

	err := k.Execute(context.Background(), []string{"greet", "--times=many"})
	assert.True(t, container.IsInvalidArgument(err))
}

func TestKernel_Help(t *testing.T) {
	k, out, _ := kernel(t)

	require.NoError(t, k.Execute(context.Background(), []string{"greet", "--help"}))
	assert.Contains(t, out.String(), "Say hello")
}

func TestKernel_CommandLookup(t *testing.T) {
	c := container.New()
	c.Instance("not-a-command", 42)
	k := console.New("app", c)

	assert.True(t, container.IsNotFound(k.Command("missing")))
	assert.True(t, container.IsInvalidArgument(k.Command("not-a-command")))
}

func TestListCommand(t *testing.T) {
	k, out, c := kernel(t)
	k.Add(console.ListCommand{})
	c.Lazy("lazy.thing", func(container.Contract) (any, error) { return 1, nil })

	require.NoError(t, k.Execute(context.Background(), []string{"di:list", "--filter=lazy."}))
	assert.Contains(t, out.String(), "lazy.thing")
	assert.Contains(t, out.String(), "lazy")
	assert.Contains(t, out.String(), "false")
	assert.NotContains(t, out.String(), "command.greet")
}
