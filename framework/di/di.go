// Package di is the process-wide entry point to a container and an injector.
//
// It exists for bootstrap code and for places that cannot receive
// dependencies any other way. Everything else should take a
// container.Contract explicitly.
//
//	di.SetContainer(app.Container)
//	mailer, err := di.Make(container.TypeOf[*Mailer](), nil)
package di

import (
	"reflect"
	"sync"

	"github.com/km-arc/go-inject/framework/container"
)

var (
	mu sync.Mutex

	current       container.Contract
	containerFunc func() container.Contract

	injector     container.Injector
	injectorFunc func() container.Injector
)

// SetContainer sets the global container. nil resets it to the default.
func SetContainer(c container.Contract) {
	mu.Lock()
	defer mu.Unlock()
	current, containerFunc = c, nil
}

// SetContainerFunc sets a callback producing the global container. It runs
// once, on first use.
func SetContainerFunc(fn func() container.Contract) {
	mu.Lock()
	defer mu.Unlock()
	current, containerFunc = nil, fn
}

// Container returns the global container, creating an empty one when none
// was set.
func Container() container.Contract {
	mu.Lock()
	defer mu.Unlock()
	if current == nil {
		if containerFunc != nil {
			current, containerFunc = containerFunc(), nil
		}
		if current == nil {
			current = container.New()
		}
	}
	return current
}

// SetInjector sets the global injector. nil resets it to the default.
func SetInjector(i container.Injector) {
	mu.Lock()
	defer mu.Unlock()
	injector, injectorFunc = i, nil
}

// SetInjectorFunc sets a callback producing the global injector. It runs
// once, on first use.
func SetInjectorFunc(fn func() container.Injector) {
	mu.Lock()
	defer mu.Unlock()
	injector, injectorFunc = nil, fn
}

// Injector returns the global injector, a reflective one unless set.
func Injector() container.Injector {
	mu.Lock()
	defer mu.Unlock()
	if injector == nil {
		if injectorFunc != nil {
			injector, injectorFunc = injectorFunc(), nil
		}
		if injector == nil {
			injector = container.NewInjector()
		}
	}
	return injector
}

// Reset drops the global container and injector.
func Reset() {
	mu.Lock()
	defer mu.Unlock()
	current, containerFunc, injector, injectorFunc = nil, nil, nil, nil
}

// Get resolves id from the global container.
func Get(id string) (any, error) { return Container().Get(id) }

// Has reports whether the global container can resolve id.
func Has(id string) bool { return Container().Has(id) }

// Invoke calls fn with the global injector against the global container.
func Invoke(fn any, args container.Args) (any, error) {
	return Injector().Invoke(Container(), fn, args)
}

// Make builds t with the global injector against the global container.
func Make(t reflect.Type, args container.Args) (any, error) {
	return Injector().Make(Container(), t, args)
}

// Create builds an object from a configuration: either a reflect.Type, or a
// ConfigBag whose "class" entry is a reflect.Type or a type key declared in
// the global container. The remaining bag entries are applied through
// container.Configurable, and Init runs when implemented.
//
//	conn, err := di.Create(container.ConfigBag{"class": container.TypeOf[*Conn](), "dsn": dsn}, nil)
func Create(config any, args container.Args) (any, error) {
	c := Container()

	var (
		t     reflect.Type
		props map[string]any
	)
	switch cfg := config.(type) {
	case reflect.Type:
		t = cfg
	case container.ConfigBag:
		found, err := classOf(c, cfg[container.ClassKey])
		if err != nil {
			return nil, err
		}
		t, props = found, cfg.Properties()
	case map[string]any:
		return Create(container.ConfigBag(cfg), args)
	case string:
		found, err := classOf(c, cfg)
		if err != nil {
			return nil, err
		}
		t = found
	default:
		return nil, &container.InvalidArgumentError{Reason: "object configuration must be a type or a bag containing a \"class\" element"}
	}
	return container.Construct(Injector(), c, t, props, args)
}

type typeRegistry interface {
	DeclaredType(key string) (reflect.Type, bool)
}

func classOf(c container.Contract, class any) (reflect.Type, error) {
	switch cls := class.(type) {
	case reflect.Type:
		return cls, nil
	case string:
		if reg, ok := c.(typeRegistry); ok {
			if t, ok := reg.DeclaredType(cls); ok {
				return t, nil
			}
		}
		return nil, &container.InvalidArgumentError{Target: cls, Reason: "type is not declared in the container"}
	case nil:
		return nil, &container.InvalidArgumentError{Reason: "object configuration must contain a \"class\" element"}
	}
	return nil, &container.InvalidArgumentError{Reason: "\"class\" must be a type or a type key"}
}
