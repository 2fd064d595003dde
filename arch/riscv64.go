package arch

import (
	"fmt"

	"github.com/wippyai/objgen/asm"
)

// RISCV64 is the RV64 backend following the LP64 calling convention.
type RISCV64 struct{}

var riscvScratch = [NumScratch]Reg{"t0", "t1", "t2"}

func (RISCV64) Name() string      { return "riscv64" }
func (RISCV64) PointerWidth() int { return 8 }
func (RISCV64) Receiver() Reg     { return "a0" }
func (RISCV64) Result() Reg       { return "a0" }

func (RISCV64) ReceiverConvention() string {
	return "first argument register a0 (LP64)"
}

func (RISCV64) Scratch(i int) Reg { return riscvScratch[i] }

func (RISCV64) Style() asm.Style         { return asm.Style{Comment: "#", Indent: "\t"} }
func (RISCV64) PointerDirective() string { return ".dword" }
func (RISCV64) RodataSection() string    { return ".data.rel.ro" }

func (b RISCV64) EmitAllocate(size int, dst Reg) asm.Seq {
	seq := asm.Seq{
		asm.Op("li", string(b.Receiver()), fmt.Sprintf("%d", size)),
		asm.Op("call", "malloc"),
	}
	return append(seq, b.EmitMove(dst, b.Result())...)
}

func (b RISCV64) EmitFree(ptr Reg) asm.Seq {
	seq := b.EmitMove(b.Receiver(), ptr)
	return append(seq, asm.Op("call", "free"))
}

func (RISCV64) EmitIndirectCall(addr Reg) asm.Seq {
	return asm.Seq{asm.Op("jalr", string(addr))}
}

func (RISCV64) EmitLoad(dst, base Reg, off int) asm.Seq {
	return asm.Seq{asm.Op("ld", string(dst), fmt.Sprintf("%d(%s)", off, base))}
}

func (RISCV64) EmitStore(src, base Reg, off int) asm.Seq {
	return asm.Seq{asm.Op("sd", string(src), fmt.Sprintf("%d(%s)", off, base))}
}

func (RISCV64) EmitAddress(dst Reg, sym string) asm.Seq {
	return asm.Seq{asm.Op("lla", string(dst), sym)}
}

func (RISCV64) EmitMove(dst, src Reg) asm.Seq {
	if dst == src {
		return nil
	}
	return asm.Seq{asm.Op("mv", string(dst), string(src))}
}

func (RISCV64) EmitIfNonZero(r Reg, skip string, body asm.Seq) asm.Seq {
	seq := asm.Seq{asm.Op("beqz", string(r), skip)}
	seq = append(seq, body...)
	return append(seq, asm.Label(skip))
}

func (RISCV64) EmitSave(r Reg) asm.Seq {
	return asm.Seq{
		asm.Op("addi", "sp", "sp", "-16"),
		asm.Op("sd", string(r), "0(sp)"),
	}
}

func (RISCV64) EmitRestore(r Reg) asm.Seq {
	return asm.Seq{
		asm.Op("ld", string(r), "0(sp)"),
		asm.Op("addi", "sp", "sp", "16"),
	}
}

func (RISCV64) EmitFuncBegin(sym string) asm.Seq {
	return asm.Seq{
		asm.Directive(".globl", sym),
		asm.Directive(".type", sym, "@function"),
		asm.Label(sym),
		asm.Op("addi", "sp", "sp", "-16"),
		asm.Op("sd", "ra", "8(sp)"),
		asm.Op("sd", "s0", "0(sp)"),
		asm.Op("addi", "s0", "sp", "16"),
	}
}

func (RISCV64) EmitFuncEnd(sym string) asm.Seq {
	return asm.Seq{
		asm.Op("ld", "ra", "8(sp)"),
		asm.Op("ld", "s0", "0(sp)"),
		asm.Op("addi", "sp", "sp", "16"),
		asm.Op("ret"),
		asm.Directive(".size", sym, ".-"+sym),
	}
}
