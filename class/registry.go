package class

import (
	"github.com/wippyai/objgen/arch"
	"github.com/wippyai/objgen/errors"
	"github.com/wippyai/objgen/layout"
	"github.com/wippyai/objgen/vtable"
)

// Member keys a class member by declaring class and member name.
type Member struct {
	Class string
	Name  string
}

// Registry holds every class built for one backend, in definition order,
// together with the (class, member) -> offset and slot maps.
type Registry struct {
	backend arch.Backend
	planner *layout.Planner
	classes map[string]*Descriptor
	pending map[string]*Builder
	offsets map[Member]int
	slots   map[Member]int
	order   []string
}

// NewRegistry creates an empty registry for backend. A missing backend is
// a configuration error: no pointer width is guessed.
func NewRegistry(b arch.Backend) (*Registry, error) {
	p, err := layout.NewPlanner(b)
	if err != nil {
		return nil, err
	}
	return &Registry{
		backend: b,
		planner: p,
		classes: make(map[string]*Descriptor),
		pending: make(map[string]*Builder),
		offsets: make(map[Member]int),
		slots:   make(map[Member]int),
	}, nil
}

// Backend returns the backend the registry lays classes out for.
func (r *Registry) Backend() arch.Backend { return r.backend }

// Begin starts a root class.
func (r *Registry) Begin(name string) (*Builder, error) {
	if err := r.claim(name); err != nil {
		return nil, err
	}
	l, err := r.planner.Begin(name)
	if err != nil {
		return nil, err
	}
	return r.track(&Builder{reg: r, name: name, layout: l, vt: vtable.New(name)}), nil
}

// Extend starts a class derived from the already finished class parent.
func (r *Registry) Extend(parent, name string) (*Builder, error) {
	if _, building := r.pending[parent]; building {
		return nil, errors.UnfinishedParent(parent, name)
	}
	pd, ok := r.classes[parent]
	if !ok {
		return nil, errors.New(errors.PhaseInherit, errors.KindNotFound).
			Class(name).
			Detail("parent class %q not found", parent).
			Build()
	}
	if err := r.claim(name); err != nil {
		return nil, err
	}
	l, err := r.planner.Extend(pd.layout, name)
	if err != nil {
		return nil, err
	}
	vt, err := vtable.Derive(pd.VTable, name)
	if err != nil {
		return nil, err
	}
	return r.track(&Builder{reg: r, name: name, parent: pd, layout: l, vt: vt}), nil
}

func (r *Registry) claim(name string) error {
	_, built := r.classes[name]
	_, building := r.pending[name]
	if built || building {
		return errors.New(errors.PhaseLayout, errors.KindDuplicateMember).
			Class(name).
			Detail("class %q already declared", name).
			Build()
	}
	return nil
}

func (r *Registry) track(b *Builder) *Builder {
	r.pending[b.name] = b
	return b
}

func (r *Registry) add(d *Descriptor) {
	delete(r.pending, d.Name)
	r.classes[d.Name] = d
	r.order = append(r.order, d.Name)
}

// Get returns a finished class.
func (r *Registry) Get(name string) (*Descriptor, bool) {
	d, ok := r.classes[name]
	return d, ok
}

// Lookup returns a finished class or a not-found error.
func (r *Registry) Lookup(name string) (*Descriptor, error) {
	d, ok := r.classes[name]
	if !ok {
		return nil, errors.NotFound(errors.PhaseLayout, "class", name)
	}
	return d, nil
}

// Classes returns finished classes in definition order. Parents always
// precede their children.
func (r *Registry) Classes() []*Descriptor {
	out := make([]*Descriptor, 0, len(r.order))
	for _, n := range r.order {
		out = append(out, r.classes[n])
	}
	return out
}

// Len returns the number of finished classes.
func (r *Registry) Len() int { return len(r.order) }

// Offset resolves (class, field) to a byte offset. Inherited fields are
// found through the class's ancestors.
func (r *Registry) Offset(class, field string) (int, error) {
	for d, ok := r.classes[class]; ok && d != nil; d = d.Parent {
		if off, found := r.offsets[Member{d.Name, field}]; found {
			return off, nil
		}
	}
	return 0, errors.New(errors.PhaseLayout, errors.KindNotFound).
		Class(class).
		Path(class, field).
		Detail("field %q not found", field).
		Build()
}

// Slot resolves (class, method) to a vtable slot index.
func (r *Registry) Slot(class, method string) (int, error) {
	for d, ok := r.classes[class]; ok && d != nil; d = d.Parent {
		if slot, found := r.slots[Member{d.Name, method}]; found {
			return slot, nil
		}
	}
	return 0, errors.New(errors.PhaseVTable, errors.KindNotFound).
		Class(class).
		Path(class, method).
		Detail("method %q not found", method).
		Build()
}
