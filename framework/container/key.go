package container

import "reflect"

// TypeKey returns the package-qualified type name of v, useful as a stable
// identifier when working with interfaces.
//
//	key := container.TypeKey((*UserRepository)(nil))  // "github.com/acme/app.UserRepository"
//	c.Lazy(key, factory)
func TypeKey(v any) string {
	return KeyOf(reflect.TypeOf(v))
}

// KeyOf returns the identifier of t. Pointers are dereferenced, so *Foo and
// Foo share one key. Unnamed types fall back to their String form.
func KeyOf(t reflect.Type) string {
	if t == nil {
		return ""
	}
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	if t.Name() == "" || t.PkgPath() == "" {
		return t.String()
	}
	return t.PkgPath() + "." + t.Name()
}

// Key returns the identifier of T. It works for interfaces as well:
//
//	container.Key[Mailer]()
func Key[T any]() string {
	return KeyOf(TypeOf[T]())
}

// TypeOf returns the reflect.Type of T without needing a value.
func TypeOf[T any]() reflect.Type {
	return reflect.TypeOf((*T)(nil)).Elem()
}
