package arch

import (
	"strconv"

	"github.com/wippyai/objgen/asm"
)

// Wasm32 emits stack-machine sequences over function locals.
//
// Registers are local indices: 0 holds the receiver (the single i32
// parameter), 1 and 2 are scratch, 3 carries call results and is returned
// by EmitFuncEnd. Code addresses are funcref table indices; index 0 is
// reserved so that a null slot compares equal to zero. The wasm package
// assembles these sequences into bytecode.
type Wasm32 struct{}

// Wasm32 local roles.
const (
	WasmReceiver Reg = "0"
	WasmResult   Reg = "3"
	// WasmLocals is the number of i32 locals a function needs beyond its parameter.
	WasmLocals = 3
)

var wasmScratch = [NumScratch]Reg{"1", "2", "3"}

// Wasm call targets and the indirect call signature index.
const (
	WasmMalloc   = "malloc"
	WasmFree     = "free"
	WasmCallType = "0"
)

func (Wasm32) Name() string      { return "wasm32" }
func (Wasm32) PointerWidth() int { return 4 }
func (Wasm32) Receiver() Reg     { return WasmReceiver }
func (Wasm32) Result() Reg       { return WasmResult }

func (Wasm32) ReceiverConvention() string {
	return "local 0, the first i32 parameter of the callee"
}

func (Wasm32) Scratch(i int) Reg { return wasmScratch[i] }

func (Wasm32) EmitAllocate(size int, dst Reg) asm.Seq {
	return asm.Seq{
		asm.Op("i32.const", strconv.Itoa(size)),
		asm.Op("call", WasmMalloc),
		asm.Op("local.set", string(dst)),
	}
}

func (Wasm32) EmitFree(ptr Reg) asm.Seq {
	return asm.Seq{
		asm.Op("local.get", string(ptr)),
		asm.Op("call", WasmFree),
	}
}

func (Wasm32) EmitIndirectCall(addr Reg) asm.Seq {
	return asm.Seq{
		asm.Op("local.get", string(WasmReceiver)),
		asm.Op("local.get", string(addr)),
		asm.Op("call_indirect", WasmCallType),
		asm.Op("local.set", string(WasmResult)),
	}
}

func (Wasm32) EmitLoad(dst, base Reg, off int) asm.Seq {
	return asm.Seq{
		asm.Op("local.get", string(base)),
		asm.Op("i32.load", "offset="+strconv.Itoa(off)),
		asm.Op("local.set", string(dst)),
	}
}

func (Wasm32) EmitStore(src, base Reg, off int) asm.Seq {
	return asm.Seq{
		asm.Op("local.get", string(base)),
		asm.Op("local.get", string(src)),
		asm.Op("i32.store", "offset="+strconv.Itoa(off)),
	}
}

// EmitAddress leaves the symbol unresolved; the assembler substitutes its
// data-segment address.
func (Wasm32) EmitAddress(dst Reg, sym string) asm.Seq {
	return asm.Seq{
		asm.Op("i32.const", sym),
		asm.Op("local.set", string(dst)),
	}
}

func (Wasm32) EmitMove(dst, src Reg) asm.Seq {
	if dst == src {
		return nil
	}
	return asm.Seq{
		asm.Op("local.get", string(src)),
		asm.Op("local.set", string(dst)),
	}
}

func (Wasm32) EmitIfNonZero(r Reg, skip string, body asm.Seq) asm.Seq {
	seq := asm.Seq{
		asm.Op("local.get", string(r)),
		asm.Op("if"),
	}
	seq = append(seq, body...)
	return append(seq, asm.Op("end"))
}

// Locals survive calls, so nothing is saved.
func (Wasm32) EmitSave(Reg) asm.Seq    { return nil }
func (Wasm32) EmitRestore(Reg) asm.Seq { return nil }

func (Wasm32) EmitFuncBegin(sym string) asm.Seq {
	return asm.Seq{asm.Directive(".func", sym)}
}

func (Wasm32) EmitFuncEnd(sym string) asm.Seq {
	return asm.Seq{
		asm.Op("local.get", string(WasmResult)),
		asm.Directive(".endfunc", sym),
	}
}
