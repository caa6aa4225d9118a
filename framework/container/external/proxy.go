// Package external adapts containers that live outside this framework.
//
// Proxy lets any Contract implementation stand in as the framework's
// container, optionally intercepting lookups. ContainerInjector hands
// construction over to a container that knows how to build values itself.
package external

import (
	"sync"

	"github.com/km-arc/go-inject/framework/container"
)

// HasFunc answers Has for a Proxy. next is the wrapped container's Has.
type HasFunc func(id string, next func(string) bool) bool

// GetFunc answers Get for a Proxy. next is the wrapped container's Get.
type GetFunc func(id string, next func(string) (any, error)) (any, error)

// Proxy wraps a Contract. Without callbacks it forwards every call.
type Proxy struct {
	mu      sync.RWMutex
	wrapped container.Contract
	has     HasFunc
	get     GetFunc
}

// NewProxy wraps c. A nil c behaves as an empty container.
func NewProxy(c container.Contract) *Proxy {
	return &Proxy{wrapped: c}
}

// SetHasCallback intercepts Has. A nil fn restores plain forwarding.
func (p *Proxy) SetHasCallback(fn HasFunc) *Proxy {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.has = fn
	return p
}

// SetGetCallback intercepts Get. A nil fn restores plain forwarding.
func (p *Proxy) SetGetCallback(fn GetFunc) *Proxy {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.get = fn
	return p
}

func (p *Proxy) Has(id string) bool {
	p.mu.RLock()
	wrapped, fn := p.wrapped, p.has
	p.mu.RUnlock()

	next := func(string) bool { return false }
	if wrapped != nil {
		next = wrapped.Has
	}
	if fn != nil {
		return fn(id, next)
	}
	return next(id)
}

func (p *Proxy) Get(id string) (any, error) {
	p.mu.RLock()
	wrapped, fn := p.wrapped, p.get
	p.mu.RUnlock()

	next := func(id string) (any, error) { return nil, &container.DefinitionNotFoundError{ID: id} }
	if wrapped != nil {
		next = wrapped.Get
	}
	if fn != nil {
		return fn(id, next)
	}
	return next(id)
}

// Unwrap returns the wrapped container.
func (p *Proxy) Unwrap() container.Contract {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.wrapped
}

// Clone returns a proxy with the same callbacks. The wrapped container is
// cloned too when it has a Clone method returning itself or a Contract.
func (p *Proxy) Clone() *Proxy {
	p.mu.RLock()
	defer p.mu.RUnlock()

	wrapped := p.wrapped
	switch c := wrapped.(type) {
	case interface{ Clone() *container.Container }:
		wrapped = c.Clone()
	case interface{ Clone() *Proxy }:
		wrapped = c.Clone()
	case interface{ Clone() container.Contract }:
		wrapped = c.Clone()
	}
	return &Proxy{wrapped: wrapped, has: p.has, get: p.get}
}
