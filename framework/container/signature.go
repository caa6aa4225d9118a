package container

import (
	"reflect"
	"runtime"
	"strconv"
)

var errorType = reflect.TypeOf((*error)(nil)).Elem()

// Parameter describes one declared parameter of a callable.
type Parameter struct {
	Name string
	// Types holds the declared type keys, tried in order. Empty means untyped;
	// more than one is a union.
	Types      []string
	Default    any
	HasDefault bool
	Optional   bool
	Nullable   bool
}

// Typed reports whether the parameter has a declared type.
func (p Parameter) Typed() bool { return len(p.Types) > 0 }

// Signature is the ordered parameter list of a callable.
type Signature []Parameter

// ParamOption adjusts a Parameter.
type ParamOption func(*paramBuilder)

type paramBuilder struct {
	Parameter
	explicitTypes bool
	untyped       bool
}

// ParamSpec names a parameter and carries its options. See Param.
type ParamSpec struct {
	name string
	opts []ParamOption
}

// Param describes the parameter at the same position of the function
// passed to Func.
//
//	container.Func(NewMailer,
//	    container.Param("transport"),
//	    container.Param("from", container.Default("noreply@example.com")),
//	)
func Param(name string, opts ...ParamOption) ParamSpec {
	return ParamSpec{name: name, opts: opts}
}

// Default makes v the value used when nothing else satisfies the parameter.
func Default(v any) ParamOption {
	return func(p *paramBuilder) {
		p.Default = v
		p.HasDefault = true
		p.Optional = true
	}
}

// Optional marks the parameter as optional.
func Optional() ParamOption {
	return func(p *paramBuilder) { p.Optional = true }
}

// Nullable marks the parameter as accepting nil.
func Nullable() ParamOption {
	return func(p *paramBuilder) { p.Nullable = true }
}

// OrNil makes the parameter optional and nullable: nil is passed when
// nothing else satisfies it.
func OrNil() ParamOption {
	return func(p *paramBuilder) {
		p.Optional = true
		p.Nullable = true
	}
}

// Types declares the parameter's type keys explicitly. Several keys form a
// union tried in order.
func Types(ids ...string) ParamOption {
	return func(p *paramBuilder) {
		p.Types = append([]string(nil), ids...)
		p.explicitTypes = true
		p.untyped = false
	}
}

// Untyped drops the type inferred from the Go parameter, so it is never
// looked up in the container.
func Untyped() ParamOption {
	return func(p *paramBuilder) {
		p.Types = nil
		p.untyped = true
		p.explicitTypes = false
	}
}

// Callable is a Go function paired with the signature the injector
// resolves arguments against.
type Callable struct {
	fn   reflect.Value
	sig  Signature
	name string
	err  error
}

// Func describes fn. Parameters without a ParamSpec are named arg0, arg1,
// ... and typed by their Go type. A Go parameter whose type is a named type
// from a package is typed by its key; basic types and any are untyped.
//
// fn may return nothing, a value, an error, or a value and an error.
// Problems with fn are reported when the callable is invoked.
func Func(fn any, params ...ParamSpec) *Callable {
	c := &Callable{fn: reflect.ValueOf(fn)}
	if fn == nil {
		c.err = invalidArgument("<nil>", "not a function")
		return c
	}
	if c.fn.Kind() != reflect.Func {
		c.name = c.fn.Type().String()
		c.err = invalidArgument(c.name, "not a function")
		return c
	}
	c.name = funcName(c.fn)

	t := c.fn.Type()
	switch {
	case t.IsVariadic():
		c.err = invalidArgument(c.name, "variadic functions are not supported")
		return c
	case len(params) > t.NumIn():
		c.err = invalidArgument(c.name, "%d parameters described, function takes %d", len(params), t.NumIn())
		return c
	case t.NumOut() > 2 || (t.NumOut() == 2 && !t.Out(1).Implements(errorType)):
		c.err = invalidArgument(c.name, "must return at most a value and an error")
		return c
	}

	c.sig = make(Signature, t.NumIn())
	for i := 0; i < t.NumIn(); i++ {
		spec := ParamSpec{name: "arg" + strconv.Itoa(i)}
		if i < len(params) {
			spec = params[i]
		}
		c.sig[i] = buildParameter(spec, t.In(i))
	}
	return c
}

func buildParameter(spec ParamSpec, goType reflect.Type) Parameter {
	b := &paramBuilder{Parameter: Parameter{Name: spec.name}}
	for _, opt := range spec.opts {
		opt(b)
	}
	if !b.explicitTypes && !b.untyped {
		b.Types = inferTypes(goType)
	}
	return b.Parameter
}

func inferTypes(t reflect.Type) []string {
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	if t.Name() == "" || t.PkgPath() == "" {
		return nil
	}
	return []string{KeyOf(t)}
}

// Signature returns the parameters of the callable.
func (c *Callable) Signature() Signature { return c.sig }

// Name returns the runtime name of the function, for diagnostics.
func (c *Callable) Name() string { return c.name }

// Err returns the problem found while describing the function, if any.
func (c *Callable) Err() error { return c.err }

func (c *Callable) call(in []reflect.Value) (any, error) {
	out := c.fn.Call(in)
	switch len(out) {
	case 0:
		return nil, nil
	case 1:
		if c.fn.Type().Out(0) == errorType {
			return nil, asError(out[0])
		}
		return out[0].Interface(), nil
	default:
		return out[0].Interface(), asError(out[1])
	}
}

func asError(v reflect.Value) error {
	if v.IsNil() {
		return nil
	}
	return v.Interface().(error)
}

func funcName(v reflect.Value) string {
	if f := runtime.FuncForPC(v.Pointer()); f != nil {
		return f.Name()
	}
	return v.Type().String()
}
