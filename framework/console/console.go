// Package console runs container-resolved commands from the command line.
//
//	type GreetCommand struct{}
//
//	func (GreetCommand) Use() string   { return "greet" }
//	func (GreetCommand) Short() string { return "Say hello" }
//	func (GreetCommand) Action() *container.Callable {
//	    return container.Func(func(name string, out io.Writer) {
//	        fmt.Fprintf(out, "hello %s\n", name)
//	    }, container.Param("name", container.Default("world")), container.Param("output"))
//	}
//
//	app.Instance("greet", GreetCommand{})
//	kernel.Command("greet")
//	kernel.Execute(ctx, []string{"greet", "--name=gopher"})
//
// Tokens of the form --key=value become explicit arguments of the action, a
// bare --key is the string "true" and everything else is collected into the
// "args" argument as a []string. A "--" token ends option parsing. The
// arguments "output" (io.Writer) and "context" (context.Context) are always
// provided.
package console

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/km-arc/go-inject/framework/container"
)

// Command is a console command bound in the container.
type Command interface {
	Use() string
	Short() string
	Action() *container.Callable
}

// Kernel owns the cobra root command.
type Kernel struct {
	root     *cobra.Command
	c        container.Contract
	injector container.Injector
	log      *zap.Logger
}

// Option configures a Kernel.
type Option func(*Kernel)

// WithInjector sets the injector actions are invoked with.
func WithInjector(i container.Injector) Option {
	return func(k *Kernel) { k.injector = i }
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(k *Kernel) {
		if l != nil {
			k.log = l
		}
	}
}

// WithOutput redirects command output, e.g. into a buffer in tests.
func WithOutput(w io.Writer) Option {
	return func(k *Kernel) {
		k.root.SetOut(w)
		k.root.SetErr(w)
	}
}

// New creates a kernel whose root command is called name.
func New(name string, c container.Contract, opts ...Option) *Kernel {
	k := &Kernel{
		root: &cobra.Command{
			Use:           name,
			SilenceUsage:  true,
			SilenceErrors: true,
		},
		c:   c,
		log: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(k)
	}
	if k.injector == nil {
		if src, ok := c.(interface{ Injector() container.Injector }); ok {
			k.injector = src.Injector()
		} else {
			k.injector = container.NewInjector(container.WithInjectorLogger(k.log))
		}
	}
	return k
}

// Root returns the cobra root command.
func (k *Kernel) Root() *cobra.Command { return k.root }

// Command resolves the command bound under id and adds it to the root.
func (k *Kernel) Command(id string) error {
	v, err := k.c.Get(id)
	if err != nil {
		return err
	}
	cmd, ok := v.(Command)
	if !ok {
		return &container.InvalidArgumentError{Target: id, Reason: fmt.Sprintf("%T is not a console command", v)}
	}
	k.Add(cmd)
	return nil
}

// Add adds cmd to the root without going through the container.
func (k *Kernel) Add(cmd Command) {
	k.root.AddCommand(&cobra.Command{
		Use:                cmd.Use(),
		Short:              cmd.Short(),
		DisableFlagParsing: true,
		RunE: func(cc *cobra.Command, tokens []string) error {
			if wantsHelp(tokens) {
				return cc.Help()
			}
			args := Parse(tokens)
			args["output"] = cc.OutOrStdout()
			args["context"] = cc.Context()

			k.log.Debug("running command", zap.String("command", cmd.Use()))
			result, err := k.injector.Invoke(k.c, cmd.Action(), args)
			if err != nil {
				k.log.Error("command failed", zap.String("command", cmd.Use()), zap.Error(err))
				return err
			}
			if result != nil {
				_, err = fmt.Fprintln(cc.OutOrStdout(), result)
			}
			return err
		},
	})
}

// Execute runs the command line in argv (without the program name).
func (k *Kernel) Execute(ctx context.Context, argv []string) error {
	k.root.SetArgs(argv)
	return k.root.ExecuteContext(ctx)
}

// Parse splits command-line tokens into explicit arguments.
//
//	Parse([]string{"--name=go", "--force", "a", "--", "--b"})
//	// Args{"name": "go", "force": "true", "args": []string{"a", "--b"}}
func Parse(tokens []string) container.Args {
	args := container.Args{}
	rest := []string{}
	for i, tok := range tokens {
		if tok == "--" {
			rest = append(rest, tokens[i+1:]...)
			break
		}
		name, ok := strings.CutPrefix(tok, "--")
		if !ok || name == "" {
			rest = append(rest, tok)
			continue
		}
		if key, val, found := strings.Cut(name, "="); found {
			args[key] = val
		} else {
			args[name] = "true"
		}
	}
	args["args"] = rest
	return args
}

func wantsHelp(tokens []string) bool {
	for _, tok := range tokens {
		if tok == "--" {
			return false
		}
		if tok == "--help" || tok == "-h" {
			return true
		}
	}
	return false
}
