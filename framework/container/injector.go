package container

import (
	"fmt"
	"math"
	"reflect"
	"strconv"
	"strings"

	"go.uber.org/zap"
)

// Args are explicit arguments keyed by parameter name. They win over
// anything the container could supply.
type Args map[string]any

// Injector builds values and invokes functions, filling parameters from
// explicit arguments, then the container, then declared defaults.
type Injector interface {
	// Make instantiates t, a struct or pointer-to-struct type.
	Make(c Contract, t reflect.Type, args Args) (any, error)
	// Invoke calls fn, a *Callable or a plain function, and returns its result.
	Invoke(c Contract, fn any, args Args) (any, error)
}

// Constructible is implemented (on the pointer receiver, usually) by types
// with a constructor. The returned callable must produce the type or a
// pointer to it.
//
//	func (*Mailer) Constructor() *container.Callable {
//	    return container.Func(NewMailer, container.Param("transport"), container.Param("from", container.Default("noreply")))
//	}
type Constructible interface {
	Constructor() *Callable
}

// Reflective is the reflection-driven Injector.
type Reflective struct {
	log *zap.Logger
}

// InjectorOption configures a Reflective injector.
type InjectorOption func(*Reflective)

// WithInjectorLogger sets the logger.
func WithInjectorLogger(l *zap.Logger) InjectorOption {
	return func(r *Reflective) {
		if l != nil {
			r.log = l
		}
	}
}

// NewInjector returns a reflective injector.
func NewInjector(opts ...InjectorOption) *Reflective {
	r := &Reflective{log: zap.NewNop()}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Make instantiates t. Types implementing Constructible are built through
// their constructor; others are returned zero-valued.
func (r *Reflective) Make(c Contract, t reflect.Type, args Args) (any, error) {
	if t == nil {
		return nil, invalidArgument("<nil>", "type is not instantiable")
	}
	base := t
	if base.Kind() == reflect.Ptr {
		base = base.Elem()
	}
	if base.Kind() != reflect.Struct {
		return nil, invalidArgument(t.String(), "type is not instantiable")
	}

	ptr := reflect.New(base)
	ctor, ok := ptr.Interface().(Constructible)
	if !ok {
		if t.Kind() == reflect.Ptr {
			return ptr.Interface(), nil
		}
		return ptr.Elem().Interface(), nil
	}

	callable := ctor.Constructor()
	if callable == nil {
		return nil, invalidArgument(t.String(), "Constructor returned nil")
	}
	value, err := r.invoke(c, callable, args)
	if err != nil {
		return nil, err
	}
	return fitType(value, t)
}

// Invoke calls fn with resolved arguments.
func (r *Reflective) Invoke(c Contract, fn any, args Args) (any, error) {
	callable, ok := fn.(*Callable)
	if !ok {
		callable = Func(fn)
	}
	return r.invoke(c, callable, args)
}

func (r *Reflective) invoke(c Contract, fn *Callable, args Args) (any, error) {
	if fn.err != nil {
		return nil, fn.err
	}
	in, err := r.arguments(c, fn, args)
	if err != nil {
		r.log.Debug("argument resolution failed", zap.String("callable", fn.name), zap.Error(err))
		return nil, err
	}
	return fn.call(in)
}

// arguments resolves every parameter of fn. Per parameter: an explicit
// argument, then the container by declared type, then the default, then nil
// when optional and nullable.
func (r *Reflective) arguments(c Contract, fn *Callable, args Args) ([]reflect.Value, error) {
	fnType := fn.fn.Type()
	in := make([]reflect.Value, len(fn.sig))

	for i, p := range fn.sig {
		goType := fnType.In(i)

		if v, ok := args[p.Name]; ok {
			rv, err := coerce(v, goType)
			if err != nil {
				return nil, invalidArgument(fn.name, "argument %q: %v", p.Name, err)
			}
			in[i] = rv
			continue
		}

		if p.Typed() {
			v, err := lookup(c, p.Types)
			if err != nil {
				return nil, err
			}
			if v != nil {
				rv, err := coerce(v, goType)
				if err != nil {
					return nil, invalidArgument(fn.name, "argument %q: %v", p.Name, err)
				}
				in[i] = rv
				continue
			}
		}

		if p.HasDefault {
			rv, err := coerce(p.Default, goType)
			if err != nil {
				return nil, invalidArgument(fn.name, "default of %q: %v", p.Name, err)
			}
			in[i] = rv
			continue
		}

		if p.Optional && p.Nullable {
			in[i] = reflect.Zero(goType)
			continue
		}

		if p.Typed() {
			return nil, &DefinitionNotFoundError{Parameter: p.Name, Type: strings.Join(p.Types, "|")}
		}
		return nil, invalidArgument(fn.name, "unable to resolve argument %q: it has no type", p.Name)
	}
	return in, nil
}

// lookup returns the first of ids the container has. A nil result means
// nothing was found, or the binding holds nil.
func lookup(c Contract, ids []string) (any, error) {
	if c == nil {
		return nil, nil
	}
	for _, id := range ids {
		if c.Has(id) {
			return c.Get(id)
		}
	}
	return nil, nil
}

// coerce adapts v to t: assignable values pass, *T and T stand in for each
// other, numeric and string kinds convert among themselves without loss, and
// strings are parsed into numbers and bools.
func coerce(v any, t reflect.Type) (reflect.Value, error) {
	if v == nil {
		return reflect.Zero(t), nil
	}
	rv := reflect.ValueOf(v)
	if rv.Type().AssignableTo(t) {
		return rv, nil
	}
	if rv.Kind() == reflect.Pointer && !rv.IsNil() && rv.Elem().Type().AssignableTo(t) {
		return rv.Elem(), nil
	}
	if t.Kind() == reflect.Pointer && rv.Type().AssignableTo(t.Elem()) {
		ptr := reflect.New(t.Elem())
		ptr.Elem().Set(rv)
		return ptr, nil
	}

	from, to := rv.Kind(), t.Kind()
	switch {
	case isNumber(from) && isNumber(to):
		return convertNumber(rv, t)
	case from == reflect.String && to == reflect.String:
		return rv.Convert(t), nil
	case from == reflect.String && (isNumber(to) || to == reflect.Bool):
		return parse(rv.String(), t)
	}
	return reflect.Value{}, fmt.Errorf("%T is not assignable to %s", v, t)
}

// convertNumber converts between numeric kinds, rejecting values that t
// cannot hold exactly.
func convertNumber(rv reflect.Value, t reflect.Type) (reflect.Value, error) {
	out := reflect.New(t).Elem()
	lossy := fmt.Errorf("%v does not fit in %s", rv.Interface(), t)

	switch {
	case rv.CanInt():
		n := rv.Int()
		switch {
		case out.CanInt():
			if out.OverflowInt(n) {
				return reflect.Value{}, lossy
			}
		case out.CanUint():
			if n < 0 || out.OverflowUint(uint64(n)) {
				return reflect.Value{}, lossy
			}
		case out.CanFloat():
			if int64(float64(n)) != n {
				return reflect.Value{}, lossy
			}
		}
	case rv.CanUint():
		n := rv.Uint()
		switch {
		case out.CanInt():
			if n > math.MaxInt64 || out.OverflowInt(int64(n)) {
				return reflect.Value{}, lossy
			}
		case out.CanUint():
			if out.OverflowUint(n) {
				return reflect.Value{}, lossy
			}
		case out.CanFloat():
			if uint64(float64(n)) != n {
				return reflect.Value{}, lossy
			}
		}
	case rv.CanFloat():
		f := rv.Float()
		switch {
		case out.CanInt():
			if f != math.Trunc(f) || f < math.MinInt64 || f >= math.MaxInt64 || out.OverflowInt(int64(f)) {
				return reflect.Value{}, lossy
			}
		case out.CanUint():
			if f != math.Trunc(f) || f < 0 || f >= math.MaxUint64 || out.OverflowUint(uint64(f)) {
				return reflect.Value{}, lossy
			}
		case out.CanFloat():
			if out.OverflowFloat(f) {
				return reflect.Value{}, lossy
			}
		}
	}
	return rv.Convert(t), nil
}

func parse(s string, t reflect.Type) (reflect.Value, error) {
	out := reflect.New(t).Elem()
	switch t.Kind() {
	case reflect.Bool:
		b, err := strconv.ParseBool(s)
		if err != nil {
			return reflect.Value{}, err
		}
		out.SetBool(b)
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		n, err := strconv.ParseInt(s, 10, t.Bits())
		if err != nil {
			return reflect.Value{}, err
		}
		out.SetInt(n)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		n, err := strconv.ParseUint(s, 10, t.Bits())
		if err != nil {
			return reflect.Value{}, err
		}
		out.SetUint(n)
	case reflect.Float32, reflect.Float64:
		f, err := strconv.ParseFloat(s, t.Bits())
		if err != nil {
			return reflect.Value{}, err
		}
		out.SetFloat(f)
	}
	return out, nil
}

func isNumber(k reflect.Kind) bool {
	switch k {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return true
	}
	return false
}

// fitType reconciles a constructor result with the requested type: a *T
// result satisfies T and the other way round.
func fitType(value any, t reflect.Type) (any, error) {
	if value == nil {
		return nil, invalidArgument(t.String(), "constructor returned nil")
	}
	rv := reflect.ValueOf(value)
	switch {
	case rv.Type().AssignableTo(t):
		return value, nil
	case rv.Kind() == reflect.Ptr && rv.Type().Elem().AssignableTo(t):
		if rv.IsNil() {
			return nil, invalidArgument(t.String(), "constructor returned nil")
		}
		return rv.Elem().Interface(), nil
	case t.Kind() == reflect.Ptr && rv.Type().AssignableTo(t.Elem()):
		ptr := reflect.New(t.Elem())
		ptr.Elem().Set(rv)
		return ptr.Interface(), nil
	}
	return nil, invalidArgument(t.String(), "constructor returned %T", value)
}

// ── Generics helpers ──────────────────────────────────────────────────────────

type injectorSource interface {
	Injector() Injector
}

func injectorFor(c Contract) Injector {
	if src, ok := c.(injectorSource); ok && src.Injector() != nil {
		return src.Injector()
	}
	return NewInjector()
}

// Make builds T, resolving constructor arguments from c. The container's own
// injector is used when c exposes one.
//
//	svc, err := container.Make[*UserService](c, container.Args{"limit": 10})
func Make[T any](c Contract, args Args) (T, error) {
	var zero T
	value, err := injectorFor(c).Make(c, TypeOf[T](), args)
	if err != nil {
		return zero, err
	}
	typed, ok := value.(T)
	if !ok {
		return zero, invalidArgument(KeyOf(TypeOf[T]()), "built %T", value)
	}
	return typed, nil
}

// Call invokes fn, resolving its arguments from c.
func Call(c Contract, fn any, args Args) (any, error) {
	return injectorFor(c).Invoke(c, fn, args)
}
