// Package definitions loads container bindings from YAML files.
//
//	definitions:
//	  - id: app.name
//	    kind: instance
//	    value: demo
//	  - id: github.com/acme/app.Mailer
//	    kind: autowire
//	  - id: db
//	    kind: config
//	    class: github.com/acme/app.Connection
//	    properties: {dsn: "sqlite://"}
//	    aliases: [database]
//	    tags: [storage]
//
// Types named by autowire and config entries must be declared in the
// container (container.WithTypes or Declare) before Apply.
package definitions

import (
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/km-arc/go-inject/framework/container"
	"github.com/km-arc/go-inject/framework/validation"
)

// Kinds accepted in a definition file.
const (
	KindInstance = "instance"
	KindAutowire = "autowire"
	KindConfig   = "config"
)

// Definition is one entry of a definition file.
type Definition struct {
	ID         string         `yaml:"id"`
	Kind       string         `yaml:"kind"`
	Value      any            `yaml:"value,omitempty"`
	Class      string         `yaml:"class,omitempty"`
	Properties map[string]any `yaml:"properties,omitempty"`
	Aliases    []string       `yaml:"aliases,omitempty"`
	Tags       []string       `yaml:"tags,omitempty"`
}

type document struct {
	Definitions []Definition `yaml:"definitions"`
}

// Load reads and validates a definition document.
func Load(r io.Reader) ([]Definition, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var doc document
	if err := dec.Decode(&doc); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("decode definitions: %w", err)
	}

	var errs []error
	for i, def := range doc.Definitions {
		if err := def.Validate(); err != nil {
			errs = append(errs, fmt.Errorf("definition #%d (%s): %w", i, def.ID, err))
		}
	}
	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	return doc.Definitions, nil
}

// LoadFile is Load on the file at path.
func LoadFile(path string) ([]Definition, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	defs, err := Load(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return defs, nil
}

// Validate checks the entry's shape. The error is a *validation.Errors.
func (d Definition) Validate() error {
	data := map[string]string{
		"id":    d.ID,
		"kind":  d.Kind,
		"class": d.Class,
	}
	rules := validation.Rules{
		"id":    "required|identifier",
		"kind":  "required|in:" + KindInstance + "," + KindAutowire + "," + KindConfig,
		"class": "nullable|identifier",
	}
	if d.Value != nil {
		data["value"] = "set"
	}
	if len(d.Properties) > 0 {
		data["properties"] = "set"
	}
	switch d.Kind {
	case KindInstance:
		rules["class"] = "prohibited"
		rules["properties"] = "prohibited"
	case KindAutowire:
		rules["value"] = "prohibited"
		rules["properties"] = "prohibited"
	case KindConfig:
		rules["value"] = "prohibited"
	}
	return validation.Make(data, rules).Validate()
}

// Apply registers defs in c. Every entry is checked first; nothing is
// registered when one of them names an undeclared type.
func Apply(c *container.Container, defs []Definition) error {
	var errs []error
	for i, def := range defs {
		if err := check(c, def); err != nil {
			errs = append(errs, fmt.Errorf("definition #%d (%s): %w", i, def.ID, err))
		}
	}
	if err := errors.Join(errs...); err != nil {
		return err
	}

	for _, def := range defs {
		switch def.Kind {
		case KindInstance:
			c.Instance(def.ID, def.Value)
		case KindAutowire:
			t, _ := c.DeclaredType(typeKey(def))
			c.Autowire(def.ID, t)
		case KindConfig:
			bag := container.ConfigBag{}
			for k, v := range def.Properties {
				bag[k] = v
			}
			if def.Class != "" {
				bag[container.ClassKey] = def.Class
			}
			c.Config(def.ID, bag)
		}
		for _, alias := range def.Aliases {
			c.Alias(def.ID, alias)
		}
		for _, tag := range def.Tags {
			c.Tag(tag, def.ID)
		}
	}
	return nil
}

func check(c *container.Container, def Definition) error {
	if err := def.Validate(); err != nil {
		return err
	}
	for _, alias := range def.Aliases {
		if alias == def.ID {
			return &container.InvalidArgumentError{Target: def.ID, Reason: "aliased to itself"}
		}
	}
	if def.Kind == KindInstance {
		return nil
	}
	if _, ok := c.DeclaredType(typeKey(def)); !ok {
		return &container.InvalidArgumentError{Target: typeKey(def), Reason: "type is not declared in the container"}
	}
	return nil
}

func typeKey(def Definition) string {
	if def.Class != "" {
		return def.Class
	}
	return def.ID
}
