package schema

import (
	"github.com/wippyai/objgen/arch"
	"github.com/wippyai/objgen/class"
	"github.com/wippyai/objgen/errors"
)

// Validate checks the schema's class graph without laying anything out:
// unique class names, known parents and no inheritance cycles. Member
// level checks (sizes, names, RTTI conflicts) happen in Build.
func (s *Schema) Validate() error {
	_, err := s.order()
	return err
}

// Build lays out every class for backend and returns the registry.
// The first malformed declaration aborts the build.
func (s *Schema) Build(b arch.Backend) (*class.Registry, error) {
	reg, err := class.NewRegistry(b)
	if err != nil {
		return nil, err
	}
	order, err := s.order()
	if err != nil {
		return nil, err
	}
	for _, c := range order {
		if err := declare(reg, c); err != nil {
			return nil, err
		}
	}
	return reg, nil
}

func declare(reg *class.Registry, c *Class) error {
	var (
		cb  *class.Builder
		err error
	)
	if c.Extends == "" {
		cb, err = reg.Begin(c.Name)
	} else {
		cb, err = reg.Extend(c.Extends, c.Name)
	}
	if err != nil {
		return err
	}
	for _, f := range c.Fields {
		if _, err := cb.Field(f.Name, f.Size); err != nil {
			return err
		}
	}
	for _, m := range c.Methods {
		if _, err := cb.Method(m.Name, m.Entry); err != nil {
			return err
		}
	}
	if err := cb.RTTI(c.RTTI...); err != nil {
		return err
	}
	_, err = cb.Finish()
	return err
}

// order returns the classes with every parent ahead of its children,
// otherwise keeping declaration order.
func (s *Schema) order() ([]*Class, error) {
	byName := make(map[string]*Class, len(s.Classes))
	for i := range s.Classes {
		c := &s.Classes[i]
		if _, dup := byName[c.Name]; dup {
			return nil, errors.New(errors.PhaseSchema, errors.KindDuplicateMember).
				Class(c.Name).
				Detail("class %q declared twice", c.Name).
				Build()
		}
		byName[c.Name] = c
	}

	const (
		unvisited = iota
		visiting
		done
	)
	state := make(map[string]int, len(s.Classes))
	out := make([]*Class, 0, len(s.Classes))

	// child is the class that reached c through its extends clause.
	var visit func(c *Class, child string) error
	visit = func(c *Class, child string) error {
		switch state[c.Name] {
		case done:
			return nil
		case visiting:
			// On a cycle the parent can never finish before its child.
			return errors.UnfinishedParent(c.Name, child)
		}
		state[c.Name] = visiting
		if c.Extends != "" {
			p, ok := byName[c.Extends]
			if !ok {
				return errors.New(errors.PhaseSchema, errors.KindNotFound).
					Class(c.Name).
					Detail("parent class %q not declared", c.Extends).
					Build()
			}
			if err := visit(p, c.Name); err != nil {
				return err
			}
		}
		state[c.Name] = done
		out = append(out, c)
		return nil
	}

	for i := range s.Classes {
		if err := visit(&s.Classes[i], ""); err != nil {
			return nil, err
		}
	}
	return out, nil
}
