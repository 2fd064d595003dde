package runtime

import (
	"context"
	"encoding/binary"

	"github.com/tetratelabs/wazero/api"
	"go.uber.org/zap"

	"github.com/wippyai/objgen/arch"
	"github.com/wippyai/objgen/class"
	"github.com/wippyai/objgen/emit"
	"github.com/wippyai/objgen/errors"
	"github.com/wippyai/objgen/vtable"
)

// maxTypeName bounds the scan for a type name terminator.
const maxTypeName = 4096

// Object is a handle together with the static class it is used as.
// The dynamic class is whatever the dispatch pointer says.
type Object struct {
	Class string
	Ptr   uint32
}

// IsNil reports whether the handle is null.
func (o Object) IsNil() bool { return o.Ptr == 0 }

func (i *Instance) call(ctx context.Context, symbol string, arg uint32) (uint32, error) {
	fn := i.mod.ExportedFunction(symbol)
	if fn == nil {
		return 0, errors.NotFound(errors.PhaseRuntime, "thunk", symbol)
	}
	res, err := fn.Call(ctx, api.EncodeU32(arg))
	if err != nil {
		return 0, errors.Trap(symbol, err)
	}
	return api.DecodeU32(res[0]), nil
}

// New constructs an object of class name. A failed allocation yields a
// nil Object and no error.
func (i *Instance) New(ctx context.Context, name string) (Object, error) {
	if _, err := i.reg.Lookup(name); err != nil {
		return Object{}, err
	}
	ptr, err := i.call(ctx, emit.ThunkSymbol(name, emit.ThunkNew, ""), 0)
	if err != nil {
		return Object{}, err
	}
	i.log.Debug("construct", zap.String("class", name), zap.Uint32("ptr", ptr))
	return Object{Class: name, Ptr: ptr}, nil
}

// Call invokes method through obj's vtable.
func (i *Instance) Call(ctx context.Context, obj Object, method string) (uint32, error) {
	d, err := i.dispatching(obj)
	if err != nil {
		return 0, err
	}
	s, err := d.Method(method)
	if err != nil {
		return 0, err
	}
	return i.call(ctx, emit.ThunkSymbol(d.Name, emit.ThunkVCall, s.Method), obj.Ptr)
}

// CallSlot invokes the method at slot through obj's vtable.
func (i *Instance) CallSlot(ctx context.Context, obj Object, slot int) (uint32, error) {
	d, err := i.dispatching(obj)
	if err != nil {
		return 0, err
	}
	s, err := d.VTable.Slot(slot)
	if err != nil {
		return 0, err
	}
	return i.call(ctx, emit.ThunkSymbol(d.Name, emit.ThunkVCall, s.Method), obj.Ptr)
}

func (i *Instance) dispatching(obj Object) (*class.Descriptor, error) {
	d, err := i.reg.Lookup(obj.Class)
	if err != nil {
		return nil, err
	}
	if !d.Dispatches() {
		return nil, errors.ConflictingRTTI(errors.PhaseRuntime, d.Name,
			"slot 0 holds type identity, not a vtable")
	}
	return d, nil
}

// Delete runs the destructor in slot 0, if any, then frees the storage.
// A nil handle is a no-op. A handle that was already deleted is not
// detected and is processed again.
func (i *Instance) Delete(ctx context.Context, obj Object) error {
	d, err := i.reg.Lookup(obj.Class)
	if err != nil {
		return err
	}
	sym := emit.ThunkSymbol(d.Name, emit.ThunkDelete, "")
	if _, ok := i.unit.Func(sym); !ok {
		return errors.SlotOutOfRange(errors.PhaseRuntime, d.Name, vtable.DestructorSlot, d.VTable.Len())
	}
	_, err = i.call(ctx, sym, obj.Ptr)
	return err
}

// Retype rewrites obj's dispatch pointer to that of class name.
func (i *Instance) Retype(ctx context.Context, obj Object, name string) (Object, error) {
	if _, err := i.reg.Lookup(name); err != nil {
		return Object{}, err
	}
	if obj.IsNil() {
		return Object{}, errors.InvalidInput(errors.PhaseRuntime, "retype of a nil handle")
	}
	ptr, err := i.call(ctx, emit.ThunkSymbol(name, emit.ThunkRetype, ""), obj.Ptr)
	if err != nil {
		return Object{}, err
	}
	return Object{Class: name, Ptr: ptr}, nil
}

// Dynamic returns the class obj's dispatch pointer currently selects.
func (i *Instance) Dynamic(obj Object) (*class.Descriptor, error) {
	if obj.IsNil() {
		return nil, errors.InvalidInput(errors.PhaseRuntime, "nil handle")
	}
	vptr, err := i.mem.ReadU32(obj.Ptr)
	if err != nil {
		return nil, err
	}
	d, ok := i.dispatch[vptr]
	if !ok {
		return nil, errors.New(errors.PhaseRuntime, errors.KindNotFound).
			Class(obj.Class).
			Value(vptr).
			Detail("dispatch pointer %#x selects no class", vptr).
			Build()
	}
	return d, nil
}

// record returns the address of the type information record reachable
// from obj's dispatch pointer.
func (i *Instance) record(obj Object) (uint32, error) {
	d, err := i.Dynamic(obj)
	if err != nil {
		return 0, err
	}
	vptr := i.layout.Data[d.DispatchSymbol()]
	switch d.RTTI {
	case vtable.RTTIIdentity:
		return vptr, nil
	case vtable.RTTILeading:
		return i.mem.ReadU32(vptr - uint32(arch.Wasm32{}.PointerWidth()))
	default:
		return 0, errors.New(errors.PhaseRuntime, errors.KindUnsupported).
			Class(d.Name).
			Detail("class carries no type information").
			Build()
	}
}

// TypeName reads the dynamic class name from obj's type information.
func (i *Instance) TypeName(_ context.Context, obj Object) (string, error) {
	rec, err := i.record(obj)
	if err != nil {
		return "", err
	}
	w := uint32(arch.Wasm32{}.PointerWidth())
	name, err := i.mem.ReadU32(rec + vtable.RecordName*w)
	if err != nil {
		return "", err
	}
	return readCString(i.mem, name, maxTypeName)
}

// IsA walks obj's type information chain looking for class name.
func (i *Instance) IsA(_ context.Context, obj Object, name string) (bool, error) {
	target, err := i.reg.Lookup(name)
	if err != nil {
		return false, err
	}
	if target.TypeInfo == nil {
		return false, errors.New(errors.PhaseRuntime, errors.KindUnsupported).
			Class(name).
			Detail("class carries no type information").
			Build()
	}
	want := i.layout.Data[target.TypeInfo.Symbol()]

	rec, err := i.record(obj)
	if err != nil {
		return false, err
	}
	w := uint32(arch.Wasm32{}.PointerWidth())
	for depth := 0; rec != 0 && depth <= i.reg.Len(); depth++ {
		if rec == want {
			return true, nil
		}
		if rec, err = i.mem.ReadU32(rec + vtable.RecordParent*w); err != nil {
			return false, err
		}
	}
	return false, nil
}

// ReadField reads a 1, 2, 4 or 8 byte field of obj.
func (i *Instance) ReadField(obj Object, field string) (uint64, error) {
	addr, size, err := i.field(obj, field)
	if err != nil {
		return 0, err
	}
	b, err := i.mem.Read(addr, size)
	if err != nil {
		return 0, err
	}
	switch size {
	case 1:
		return uint64(b[0]), nil
	case 2:
		return uint64(binary.LittleEndian.Uint16(b)), nil
	case 4:
		return uint64(binary.LittleEndian.Uint32(b)), nil
	default:
		return binary.LittleEndian.Uint64(b), nil
	}
}

// WriteField stores v into a 1, 2, 4 or 8 byte field of obj, truncating
// to the field size.
func (i *Instance) WriteField(obj Object, field string, v uint64) error {
	addr, size, err := i.field(obj, field)
	if err != nil {
		return err
	}
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], v)
	return i.mem.Write(addr, b[:size])
}

func (i *Instance) field(obj Object, name string) (uint32, uint32, error) {
	if obj.IsNil() {
		return 0, 0, errors.InvalidInput(errors.PhaseRuntime, "field access through a nil handle")
	}
	d, err := i.reg.Lookup(obj.Class)
	if err != nil {
		return 0, 0, err
	}
	f, err := d.Field(name)
	if err != nil {
		return 0, 0, err
	}
	switch f.Size {
	case 1, 2, 4, 8:
	default:
		return 0, 0, errors.New(errors.PhaseRuntime, errors.KindUnsupported).
			Class(d.Name).
			Path(d.Name, name).
			Detail("field size %d has no scalar access", f.Size).
			Build()
	}
	return obj.Ptr + uint32(f.Offset), uint32(f.Size), nil
}
