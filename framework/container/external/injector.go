package external

import (
	"fmt"
	"reflect"

	"github.com/km-arc/go-inject/framework/container"
)

// Maker is a container able to build types itself.
type Maker interface {
	Make(t reflect.Type, args container.Args) (any, error)
}

// Caller is a container able to invoke functions itself.
type Caller interface {
	Call(fn any, args container.Args) (any, error)
}

// ContainerInjector is a container.Injector that delegates to the container
// it is handed. *container.Container is both a Maker and a Caller, as are
// proxies wrapping one. It must not be the injector of the container it
// delegates to, or Make recurses forever.
type ContainerInjector struct{}

// NewContainerInjector returns a delegating injector.
func NewContainerInjector() ContainerInjector { return ContainerInjector{} }

func (ContainerInjector) Make(c container.Contract, t reflect.Type, args container.Args) (any, error) {
	maker, ok := delegate(c).(Maker)
	if !ok {
		return nil, &container.InvalidArgumentError{Target: fmt.Sprintf("%T", c), Reason: "container cannot make types"}
	}
	return maker.Make(t, args)
}

func (ContainerInjector) Invoke(c container.Contract, fn any, args container.Args) (any, error) {
	caller, ok := delegate(c).(Caller)
	if !ok {
		return nil, &container.InvalidArgumentError{Target: fmt.Sprintf("%T", c), Reason: "container cannot invoke functions"}
	}
	return caller.Call(fn, args)
}

// delegate looks through proxies for the container doing the work.
func delegate(c container.Contract) container.Contract {
	for {
		p, ok := c.(*Proxy)
		if !ok {
			return c
		}
		c = p.Unwrap()
	}
}
