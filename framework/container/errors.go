package container

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinels for errors.Is. Every error produced by the container and the
// injector matches exactly one of them.
var (
	ErrDefinitionNotFound = errors.New("definition not found")
	ErrCircularDependency = errors.New("circular dependency")
	ErrInvalidArgument    = errors.New("invalid argument")
)

// DefinitionNotFoundError reports a configuration gap: an identifier with no
// binding, or a typed parameter nothing could satisfy.
type DefinitionNotFoundError struct {
	ID        string
	Parameter string
	Type      string
}

func (e *DefinitionNotFoundError) Error() string {
	if e.Parameter != "" {
		return fmt.Sprintf("unable to resolve argument %q of type %q", e.Parameter, e.Type)
	}
	return "missing DI definition for: " + e.ID
}

func (e *DefinitionNotFoundError) Is(target error) bool {
	return target == ErrDefinitionNotFound
}

// CircularDependencyError carries the identifier chain that led back to an
// identifier already being resolved: the whole in-progress chain of the call,
// in resolution order, followed by the repeated identifier.
type CircularDependencyError struct {
	IDs []string
}

func newCircularDependencyError(chain []string, id string) *CircularDependencyError {
	ids := make([]string, 0, len(chain)+1)
	ids = append(ids, chain...)
	ids = append(ids, id)
	return &CircularDependencyError{IDs: ids}
}

func (e *CircularDependencyError) Error() string {
	return "circular dependency detected in container: " + strings.Join(e.IDs, " -> ")
}

func (e *CircularDependencyError) Is(target error) bool {
	return target == ErrCircularDependency
}

// InvalidArgumentError covers structural problems on the injector side: an
// untyped parameter nothing can fill, a type that cannot be instantiated, a
// value of the wrong type.
type InvalidArgumentError struct {
	Target string
	Reason string
}

func invalidArgument(target, format string, args ...any) *InvalidArgumentError {
	return &InvalidArgumentError{Target: target, Reason: fmt.Sprintf(format, args...)}
}

func (e *InvalidArgumentError) Error() string {
	if e.Target == "" {
		return e.Reason
	}
	return fmt.Sprintf("%s: %s", e.Target, e.Reason)
}

func (e *InvalidArgumentError) Is(target error) bool {
	return target == ErrInvalidArgument
}

// IsNotFound reports whether err is, or wraps, a DefinitionNotFoundError.
func IsNotFound(err error) bool { return errors.Is(err, ErrDefinitionNotFound) }

// IsCircular reports whether err is, or wraps, a CircularDependencyError.
func IsCircular(err error) bool { return errors.Is(err, ErrCircularDependency) }

// IsInvalidArgument reports whether err is, or wraps, an InvalidArgumentError.
func IsInvalidArgument(err error) bool { return errors.Is(err, ErrInvalidArgument) }
