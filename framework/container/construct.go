package container

import (
	"bytes"
	"fmt"
	"reflect"

	"gopkg.in/yaml.v3"
)

// ClassKey is the ConfigBag entry naming the type to build.
const ClassKey = "class"

// ConfigBag is a loosely typed property map: an optional "class" entry plus
// properties applied to the built value.
type ConfigBag map[string]any

// Properties returns the bag without its class entry.
func (b ConfigBag) Properties() map[string]any {
	props := make(map[string]any, len(b))
	for k, v := range b {
		if k != ClassKey {
			props[k] = v
		}
	}
	return props
}

func (b ConfigBag) clone() ConfigBag {
	out := make(ConfigBag, len(b))
	for k, v := range b {
		out[k] = v
	}
	return out
}

// Configurable is implemented by types that accept properties from a
// ConfigBag after construction.
type Configurable interface {
	ApplyConfig(props map[string]any) error
}

// Initializer is implemented by types that need a hook once construction and
// configuration are done.
type Initializer interface {
	Init() error
}

// Construct builds t through the injector, applies props and runs Init. This
// is the object-construction convention behind config bindings and di.Create.
func Construct(inj Injector, c Contract, t reflect.Type, props map[string]any, args Args) (any, error) {
	value, err := inj.Make(c, t, args)
	if err != nil {
		return nil, err
	}

	if len(props) > 0 {
		configurable, ok := value.(Configurable)
		if !ok {
			return nil, invalidArgument(KeyOf(t), "%T does not implement Configurable, cannot apply %d properties", value, len(props))
		}
		if err := configurable.ApplyConfig(props); err != nil {
			return nil, fmt.Errorf("configure %s: %w", KeyOf(t), err)
		}
	}

	if initializer, ok := value.(Initializer); ok {
		if err := initializer.Init(); err != nil {
			return nil, fmt.Errorf("init %s: %w", KeyOf(t), err)
		}
	}
	return value, nil
}

// DecodeConfig copies props onto dst, a pointer to a struct, matching keys
// against yaml tags. Unknown keys are rejected. ApplyConfig implementations
// can delegate to it:
//
//	func (c *Connection) ApplyConfig(props map[string]any) error {
//	    return container.DecodeConfig(props, c)
//	}
func DecodeConfig(props map[string]any, dst any) error {
	raw, err := yaml.Marshal(props)
	if err != nil {
		return fmt.Errorf("encode properties: %w", err)
	}
	dec := yaml.NewDecoder(bytes.NewReader(raw))
	dec.KnownFields(true)
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("decode properties into %T: %w", dst, err)
	}
	return nil
}
