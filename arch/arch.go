// Package arch defines the Architecture Backend: the only interface the
// object-model core requires from a target instruction set.
//
// A backend supplies pointer width, the register roles of its calling
// convention (receiver, result, scratch) and primitive instruction
// sequences. The core composes those primitives and never names a register
// or mnemonic itself.
//
//	b, err := arch.Lookup("riscv64")
//	seq := b.EmitLoad(b.Scratch(0), b.Receiver(), 0)
package arch

import (
	"sort"
	"strings"

	"github.com/wippyai/objgen/asm"
	"github.com/wippyai/objgen/errors"
)

// Reg names a register (or, on wasm32, a local) in target syntax.
type Reg string

// Backend is implemented once per target ISA.
type Backend interface {
	// Name returns the canonical backend name (x86_64, aarch64, ...).
	Name() string
	// PointerWidth returns the size of a pointer in bytes.
	PointerWidth() int
	// Receiver is where the first ("this") argument is placed for a call.
	Receiver() Reg
	// ReceiverConvention describes the receiver placement in prose.
	ReceiverConvention() string
	// Result is where a call leaves its pointer-sized return value.
	Result() Reg
	// Scratch returns caller-saved scratch register i, 0 <= i < NumScratch.
	Scratch(i int) Reg

	// EmitAllocate requests size bytes from the allocator; the pointer lands in dst.
	EmitAllocate(size int, dst Reg) asm.Seq
	// EmitFree releases ptr back to the allocator.
	EmitFree(ptr Reg) asm.Seq
	// EmitIndirectCall calls the address held in addr. The receiver
	// register must already hold the argument.
	EmitIndirectCall(addr Reg) asm.Seq
	// EmitLoad loads a pointer-sized value from base+off into dst.
	EmitLoad(dst, base Reg, off int) asm.Seq
	// EmitStore stores the pointer-sized value in src to base+off.
	EmitStore(src, base Reg, off int) asm.Seq
	// EmitAddress materializes the address of a data symbol into dst.
	EmitAddress(dst Reg, sym string) asm.Seq
	// EmitMove copies src into dst. Same-register moves emit nothing.
	EmitMove(dst, src Reg) asm.Seq
	// EmitIfNonZero runs body only when r is non-zero. skip names the
	// join label for targets that need one.
	EmitIfNonZero(r Reg, skip string, body asm.Seq) asm.Seq
	// EmitSave preserves r across calls; EmitRestore reloads it.
	EmitSave(r Reg) asm.Seq
	EmitRestore(r Reg) asm.Seq
	// EmitFuncBegin and EmitFuncEnd frame a callable function. The
	// function returns whatever Result holds at EmitFuncEnd.
	EmitFuncBegin(sym string) asm.Seq
	EmitFuncEnd(sym string) asm.Seq
}

// TextTarget is implemented by backends that render GAS source.
type TextTarget interface {
	Backend
	// Style returns the comment prefix and indentation for the target.
	Style() asm.Style
	// PointerDirective is the data directive for one pointer-sized word.
	PointerDirective() string
	// RodataSection is the section directive for read-only, relocated data.
	RodataSection() string
}

// NumScratch is the number of scratch registers every backend provides.
const NumScratch = 3

var (
	registry = map[string]func() Backend{}
	aliases  = map[string]string{}
)

func register(name string, ctor func() Backend, alias ...string) {
	registry[name] = ctor
	for _, a := range alias {
		aliases[a] = name
	}
}

func init() {
	register("x86_64", func() Backend { return AMD64{} }, "amd64", "x64")
	register("aarch64", func() Backend { return ARM64{} }, "arm64")
	register("mips32", func() Backend { return MIPS32{} }, "mips", "mipsel")
	register("riscv64", func() Backend { return RISCV64{} }, "rv64")
	register("wasm32", func() Backend { return Wasm32{} }, "wasm")
}

// Lookup returns the backend registered under name or one of its aliases.
func Lookup(name string) (Backend, error) {
	key := strings.ToLower(strings.TrimSpace(name))
	if canon, ok := aliases[key]; ok {
		key = canon
	}
	ctor, ok := registry[key]
	if !ok {
		return nil, errors.New(errors.PhaseConfig, errors.KindConfiguration).
			Arch(name).
			Detail("unknown backend (available: %s)", strings.Join(Names(), ", ")).
			Build()
	}
	return ctor(), nil
}

// Names returns the canonical backend names, sorted.
func Names() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// TextNames returns the backends that render assembly text, sorted.
func TextNames() []string {
	var names []string
	for _, name := range Names() {
		if _, ok := registry[name]().(TextTarget); ok {
			names = append(names, name)
		}
	}
	return names
}

// Validate reports a configuration error when b cannot drive layout:
// no backend, or a pointer width other than 4 or 8.
func Validate(b Backend) error {
	if b == nil {
		return errors.Configuration("architecture backend not supplied")
	}
	switch b.PointerWidth() {
	case 4, 8:
		return nil
	}
	return errors.New(errors.PhaseConfig, errors.KindConfiguration).
		Arch(b.Name()).
		Value(b.PointerWidth()).
		Detail("unsupported pointer width %d", b.PointerWidth()).
		Build()
}
