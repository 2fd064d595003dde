package vtable

import (
	"github.com/wippyai/objgen/asm"
	"github.com/wippyai/objgen/errors"
)

// DestructorSlot is the slot invoked by the destruct sequence.
const DestructorSlot = 0

// Slot is one vtable entry. An empty Entry is a null slot.
type Slot struct {
	Method string
	Entry  string
	Class  string // class that supplied Entry
	Index  int
}

// Null reports whether the slot holds no entry.
func (s Slot) Null() bool {
	return s.Entry == ""
}

// Builder assigns slots for one class.
type Builder struct {
	parent *VTable
	index  map[string]int
	own    map[string]bool
	class  string
	slots  []Slot
	built  bool
}

// New starts the vtable of a root class.
func New(class string) *Builder {
	return &Builder{
		class: class,
		index: make(map[string]int),
		own:   make(map[string]bool),
	}
}

// Derive starts the vtable of class from its parent's built table. All
// parent slots are inherited at their original indices.
func Derive(parent *VTable, class string) (*Builder, error) {
	if parent == nil {
		return nil, errors.NotFound(errors.PhaseVTable, "parent vtable for class", class)
	}
	b := New(class)
	b.parent = parent
	b.slots = append(b.slots, parent.slots...)
	for name, i := range parent.index {
		b.index[name] = i
	}
	return b, nil
}

// Declare adds or overrides a method and returns its slot index.
// overridden is true when the name was inherited and its slot was reused.
// Declaring the same method twice on one class is an error.
func (b *Builder) Declare(method, entry string) (slot int, overridden bool, err error) {
	if b.built {
		return 0, false, errors.Sealed(errors.PhaseVTable, b.class)
	}
	if !asm.ValidSymbol(method) {
		return 0, false, errors.New(errors.PhaseVTable, errors.KindInvalidName).
			Class(b.class).
			Path(b.class, method).
			Detail("invalid method name %q", method).
			Build()
	}
	if entry != "" && !asm.ValidSymbol(entry) {
		return 0, false, errors.New(errors.PhaseVTable, errors.KindInvalidName).
			Class(b.class).
			Path(b.class, method).
			Detail("invalid entry label %q", entry).
			Build()
	}
	if b.own[method] {
		return 0, false, errors.DuplicateMember(errors.PhaseVTable, b.class, method)
	}
	b.own[method] = true

	if i, ok := b.index[method]; ok {
		b.slots[i].Entry = entry
		b.slots[i].Class = b.class
		return i, true, nil
	}

	i := len(b.slots)
	b.index[method] = i
	b.slots = append(b.slots, Slot{Index: i, Method: method, Entry: entry, Class: b.class})
	return i, false, nil
}

// Len returns the number of slots assigned so far.
func (b *Builder) Len() int {
	return len(b.slots)
}

// Build freezes the slot assignment and returns the table.
func (b *Builder) Build() *VTable {
	b.built = true
	slots := make([]Slot, len(b.slots))
	copy(slots, b.slots)
	index := make(map[string]int, len(b.index))
	for k, v := range b.index {
		index[k] = v
	}
	return &VTable{class: b.class, slots: slots, index: index, parent: b.parent}
}

// VTable is a built, read-only method table.
type VTable struct {
	parent   *VTable
	typeInfo *TypeInfo
	index    map[string]int
	class    string
	slots    []Slot
}

// Class returns the owning class name.
func (v *VTable) Class() string { return v.class }

// Parent returns the parent's table, or nil.
func (v *VTable) Parent() *VTable { return v.parent }

// Len returns the number of slots.
func (v *VTable) Len() int { return len(v.slots) }

// Symbol returns the data symbol of the table's slot 0.
func (v *VTable) Symbol() string { return Symbol(v.class) }

// TypeInfo returns the leading record, or nil when none is attached.
func (v *VTable) TypeInfo() *TypeInfo { return v.typeInfo }

// Slots returns the slots in index order.
func (v *VTable) Slots() []Slot {
	out := make([]Slot, len(v.slots))
	copy(out, v.slots)
	return out
}

// Entries returns the entry labels in index order. Null slots are "".
func (v *VTable) Entries() []string {
	out := make([]string, len(v.slots))
	for i, s := range v.slots {
		out[i] = s.Entry
	}
	return out
}

// Slot returns slot i, validating it against the table length.
func (v *VTable) Slot(i int) (Slot, error) {
	if err := v.Check(i); err != nil {
		return Slot{}, err
	}
	return v.slots[i], nil
}

// Check reports SlotOutOfRange unless 0 <= i < Len().
func (v *VTable) Check(i int) error {
	if i < 0 || i >= len(v.slots) {
		return errors.SlotOutOfRange(errors.PhaseVTable, v.class, i, len(v.slots))
	}
	return nil
}

// Lookup returns the slot assigned to method.
func (v *VTable) Lookup(method string) (Slot, bool) {
	i, ok := v.index[method]
	if !ok {
		return Slot{}, false
	}
	return v.slots[i], true
}

// Symbol returns the vtable symbol for class.
func Symbol(class string) string {
	return class + "_vtable"
}
