package arch

import (
	"fmt"

	"github.com/wippyai/objgen/asm"
)

// ARM64 is the AArch64 backend following AAPCS64.
type ARM64 struct{}

var arm64Scratch = [NumScratch]Reg{"x9", "x10", "x11"}

func (ARM64) Name() string      { return "aarch64" }
func (ARM64) PointerWidth() int { return 8 }
func (ARM64) Receiver() Reg     { return "x0" }
func (ARM64) Result() Reg       { return "x0" }

func (ARM64) ReceiverConvention() string {
	return "first argument register x0 (AAPCS64)"
}

func (ARM64) Scratch(i int) Reg { return arm64Scratch[i] }

func (ARM64) Style() asm.Style         { return asm.Style{Comment: "//", Indent: "\t"} }
func (ARM64) PointerDirective() string { return ".quad" }
func (ARM64) RodataSection() string    { return ".data.rel.ro" }

func (b ARM64) EmitAllocate(size int, dst Reg) asm.Seq {
	seq := arm64Imm(b.Receiver(), size)
	seq = append(seq, asm.Op("bl", "malloc"))
	return append(seq, b.EmitMove(dst, b.Result())...)
}

func (b ARM64) EmitFree(ptr Reg) asm.Seq {
	seq := b.EmitMove(b.Receiver(), ptr)
	return append(seq, asm.Op("bl", "free"))
}

func (ARM64) EmitIndirectCall(addr Reg) asm.Seq {
	return asm.Seq{asm.Op("blr", string(addr))}
}

func (ARM64) EmitLoad(dst, base Reg, off int) asm.Seq {
	return asm.Seq{asm.Op("ldr", string(dst), arm64Mem(base, off))}
}

func (ARM64) EmitStore(src, base Reg, off int) asm.Seq {
	return asm.Seq{asm.Op("str", string(src), arm64Mem(base, off))}
}

func (ARM64) EmitAddress(dst Reg, sym string) asm.Seq {
	return asm.Seq{
		asm.Op("adrp", string(dst), sym),
		asm.Op("add", string(dst), string(dst), ":lo12:"+sym),
	}
}

func (ARM64) EmitMove(dst, src Reg) asm.Seq {
	if dst == src {
		return nil
	}
	return asm.Seq{asm.Op("mov", string(dst), string(src))}
}

func (ARM64) EmitIfNonZero(r Reg, skip string, body asm.Seq) asm.Seq {
	seq := asm.Seq{asm.Op("cbz", string(r), skip)}
	seq = append(seq, body...)
	return append(seq, asm.Label(skip))
}

func (ARM64) EmitSave(r Reg) asm.Seq {
	return asm.Seq{asm.Op("str", string(r), "[sp, #-16]!")}
}

func (ARM64) EmitRestore(r Reg) asm.Seq {
	return asm.Seq{asm.Op("ldr", string(r), "[sp], #16")}
}

func (ARM64) EmitFuncBegin(sym string) asm.Seq {
	return asm.Seq{
		asm.Directive(".globl", sym),
		asm.Directive(".type", sym, "%function"),
		asm.Label(sym),
		asm.Op("stp", "x29", "x30", "[sp, #-16]!"),
		asm.Op("mov", "x29", "sp"),
	}
}

func (ARM64) EmitFuncEnd(sym string) asm.Seq {
	return asm.Seq{
		asm.Op("ldp", "x29", "x30", "[sp], #16"),
		asm.Op("ret"),
		asm.Directive(".size", sym, ".-"+sym),
	}
}

func arm64Mem(base Reg, off int) string {
	if off == 0 {
		return "[" + string(base) + "]"
	}
	return fmt.Sprintf("[%s, #%d]", base, off)
}

// arm64Imm loads an unsigned immediate; mov covers 16 bits, larger values
// go through the literal pool.
func arm64Imm(dst Reg, v int) asm.Seq {
	if v >= 0 && v <= 0xffff {
		return asm.Seq{asm.Op("mov", string(dst), fmt.Sprintf("#%d", v))}
	}
	return asm.Seq{asm.Op("ldr", string(dst), fmt.Sprintf("=%d", v))}
}
