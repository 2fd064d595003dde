// Package schema is the declarative class-schema front end.
//
// A schema lists classes with an optional parent, ordered fields, ordered
// methods and an RTTI mode. YAML and JSON are both accepted:
//
//	classes:
//	  - name: Animal
//	    rtti: leading-record
//	    fields:
//	      - {name: age, size: 4}
//	    methods:
//	      - {name: destroy, entry: Animal_destroy}
//	      - {name: speak, entry: Animal_speak}
//	  - name: Dog
//	    extends: Animal
//	    fields:
//	      - {name: breedId, size: 4}
//	    methods:
//	      - {name: speak, entry: Dog_speak}
//
// Classes may appear in any order; Build declares parents first. The same
// valid schema always produces the same descriptors.
package schema

import (
	"bytes"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/wippyai/objgen/errors"
	"github.com/wippyai/objgen/vtable"
)

// Schema is a parsed class schema.
type Schema struct {
	Classes []Class `yaml:"classes"`
}

// Class declares one class.
type Class struct {
	Name    string   `yaml:"name"`
	Extends string   `yaml:"extends,omitempty"`
	Fields  []Field  `yaml:"fields,omitempty"`
	Methods []Method `yaml:"methods,omitempty"`
	RTTI    Modes    `yaml:"rtti,omitempty"`
}

// Field declares a data member of Size bytes.
type Field struct {
	Name string `yaml:"name"`
	Size int    `yaml:"size"`
}

// Method declares a virtual method. An empty Entry is a null slot.
type Method struct {
	Name  string `yaml:"name"`
	Entry string `yaml:"entry,omitempty"`
}

// Modes is the requested RTTI placement. It accepts a single scalar or a
// list, so conflicting requests survive parsing and are rejected by Build.
type Modes []vtable.RTTIMode

// UnmarshalYAML implements yaml.Unmarshaler for Modes.
func (m *Modes) UnmarshalYAML(value *yaml.Node) error {
	var names []string
	switch value.Kind {
	case yaml.ScalarNode:
		var s string
		if err := value.Decode(&s); err != nil {
			return err
		}
		names = []string{s}
	case yaml.SequenceNode:
		if err := value.Decode(&names); err != nil {
			return err
		}
	default:
		return errors.New(errors.PhaseSchema, errors.KindInvalidInput).
			Detail("line %d: rtti must be a mode or a list of modes", value.Line).
			Build()
	}

	out := make(Modes, 0, len(names))
	for _, n := range names {
		mode, err := vtable.ParseRTTIMode(n)
		if err != nil {
			return err
		}
		out = append(out, mode)
	}
	*m = out
	return nil
}

// MarshalYAML implements yaml.Marshaler for Modes.
func (m Modes) MarshalYAML() (any, error) {
	switch len(m) {
	case 0:
		return nil, nil
	case 1:
		return m[0].String(), nil
	}
	names := make([]string, len(m))
	for i, mode := range m {
		names[i] = mode.String()
	}
	return names, nil
}

// Parse decodes a YAML or JSON schema. Unknown keys are rejected.
func Parse(data []byte) (*Schema, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var s Schema
	if err := dec.Decode(&s); err != nil {
		if err == io.EOF {
			return &s, nil
		}
		return nil, errors.ParseFailed("class schema", err)
	}
	return &s, nil
}

// Load reads and parses the schema at path.
func Load(path string) (*Schema, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.New(errors.PhaseSchema, errors.KindNotFound).
			Detail("read schema %s", path).
			Cause(err).
			Build()
	}
	return Parse(data)
}

// Marshal renders the schema as YAML.
func (s *Schema) Marshal() ([]byte, error) {
	return yaml.Marshal(s)
}

// Class returns the declaration named name.
func (s *Schema) Class(name string) (*Class, bool) {
	for i := range s.Classes {
		if s.Classes[i].Name == name {
			return &s.Classes[i], true
		}
	}
	return nil, false
}
