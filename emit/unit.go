package emit

import (
	"github.com/wippyai/objgen/arch"
	"github.com/wippyai/objgen/asm"
	"github.com/wippyai/objgen/class"
	"github.com/wippyai/objgen/errors"
	"github.com/wippyai/objgen/vtable"
)

// Table is the read-only data emitted for one class. In memory it is laid
// out as
//
//	[Record words]  at TypeInfoSymbol   (when Record != nil)
//	[TypeInfoSymbol] one word           (when Leading)
//	[Slots words]   at VTableSymbol     (unless the class is slot-0-identity)
//
// so that the word at VTableSymbol - width addresses the record.
type Table struct {
	Class          string
	VTableSymbol   string
	TypeInfoSymbol string
	NameSymbol     string
	Record         []string // record words: symbol or "" for 0
	Slots          []string // entry labels or "" for 0
	Leading        bool
	HasVTable      bool
}

// Thunk kinds.
const (
	ThunkNew    = "new"
	ThunkDelete = "delete"
	ThunkVCall  = "vcall"
	ThunkRetype = "retype"
)

// Func is a callable thunk taking the object (or nothing, for new) in the
// receiver register and returning a pointer-sized value.
type Func struct {
	Symbol string
	Class  string
	Kind   string
	Method string
	Slot   int
	Body   asm.Seq
}

// Unit is everything emitted for one registry and backend.
type Unit struct {
	Arch    string
	Width   int
	Tables  []Table
	Funcs   []Func
	Entries []string // distinct method entry labels, first use order
}

// Func returns the thunk with the given symbol.
func (u *Unit) Func(symbol string) (Func, bool) {
	for _, f := range u.Funcs {
		if f.Symbol == symbol {
			return f, true
		}
	}
	return Func{}, false
}

// ThunkSymbol returns the symbol of a thunk. Method is used for ThunkVCall only.
func ThunkSymbol(class, kind, method string) string {
	if kind == ThunkVCall {
		return class + "_vcall_" + method
	}
	return class + "_" + kind
}

// BuildUnit emits tables for every class in reg and, when enabled,
// the per-class thunks.
func (e *Emitter) BuildUnit(reg *class.Registry) (*Unit, error) {
	if reg == nil {
		return nil, errors.InvalidInput(errors.PhaseEmit, "nil registry")
	}
	if reg.Backend().Name() != e.backend.Name() {
		return nil, errors.New(errors.PhaseEmit, errors.KindConfiguration).
			Arch(e.backend.Name()).
			Detail("registry built for %s", reg.Backend().Name()).
			Build()
	}

	u := &Unit{Arch: e.backend.Name(), Width: e.backend.PointerWidth()}
	seen := make(map[string]bool)
	for _, d := range reg.Classes() {
		t := TableFor(d)
		u.Tables = append(u.Tables, t)
		for _, entry := range t.Slots {
			if entry != "" && !seen[entry] {
				seen[entry] = true
				u.Entries = append(u.Entries, entry)
			}
		}
		if !e.opts.Thunks {
			continue
		}
		funcs, err := e.thunks(d)
		if err != nil {
			return nil, err
		}
		u.Funcs = append(u.Funcs, funcs...)
	}
	debugf("unit %s: %d tables, %d thunks, %d entries", u.Arch, len(u.Tables), len(u.Funcs), len(u.Entries))
	return u, nil
}

// TableFor describes d's data table.
func TableFor(d *class.Descriptor) Table {
	t := Table{
		Class:        d.Name,
		VTableSymbol: d.VTable.Symbol(),
		HasVTable:    d.Dispatches(),
	}
	if t.HasVTable {
		t.Slots = d.VTable.Entries()
	}
	if ti := d.TypeInfo; ti != nil {
		t.TypeInfoSymbol = ti.Symbol()
		t.NameSymbol = ti.NameSymbol()
		parent := ""
		if ti.Parent != nil {
			parent = ti.Parent.Symbol()
		}
		t.Record = make([]string, vtable.RecordWords)
		t.Record[vtable.RecordName] = t.NameSymbol
		t.Record[vtable.RecordParent] = parent
		t.Leading = ti.Mode == vtable.RTTILeading
	}
	return t
}

func (e *Emitter) thunks(d *class.Descriptor) ([]Func, error) {
	b := e.backend
	recv := b.Receiver()
	var funcs []Func

	add := func(kind, method string, slot int, body asm.Seq) {
		sym := ThunkSymbol(d.Name, kind, method)
		funcs = append(funcs, Func{
			Symbol: sym,
			Class:  d.Name,
			Kind:   kind,
			Method: method,
			Slot:   slot,
			Body:   asm.Join(b.EmitFuncBegin(sym), body, b.EmitFuncEnd(sym)),
		})
	}

	ctor, err := e.Construct(d, b.Result())
	if err != nil {
		return nil, err
	}
	add(ThunkNew, "", 0, ctor)

	if !d.Dispatches() || d.VTable.Len() > 0 {
		dtor, err := e.Destruct(d, recv)
		if err != nil {
			return nil, err
		}
		add(ThunkDelete, "", 0, dtor)
	} else {
		debugf("class %s: no destructor slot, %s omitted", d.Name, ThunkSymbol(d.Name, ThunkDelete, ""))
	}

	if d.Dispatches() {
		for _, s := range d.VTable.Slots() {
			call, err := e.VirtualCall(d, recv, s.Index)
			if err != nil {
				return nil, err
			}
			add(ThunkVCall, s.Method, s.Index, call)
		}
	}

	retype, err := e.Retype(d, recv)
	if err != nil {
		return nil, err
	}
	add(ThunkRetype, "", 0, asm.Join(retype, b.EmitMove(b.Result(), recv)))

	return funcs, nil
}

// Backend returns the backend named by the unit.
func (u *Unit) Backend() (arch.Backend, error) {
	return arch.Lookup(u.Arch)
}
