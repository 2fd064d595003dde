package arch

import (
	"fmt"

	"github.com/wippyai/objgen/asm"
)

// MIPS32 is the 32-bit MIPS backend following the O32 ABI.
// Sequences assume the assembler's default reorder mode fills delay slots.
type MIPS32 struct{}

var mipsScratch = [NumScratch]Reg{"$t0", "$t1", "$t9"}

func (MIPS32) Name() string      { return "mips32" }
func (MIPS32) PointerWidth() int { return 4 }
func (MIPS32) Receiver() Reg     { return "$a0" }
func (MIPS32) Result() Reg       { return "$v0" }

func (MIPS32) ReceiverConvention() string {
	return "first argument register $a0 (O32)"
}

func (MIPS32) Scratch(i int) Reg { return mipsScratch[i] }

func (MIPS32) Style() asm.Style         { return asm.Style{Comment: "#", Indent: "\t"} }
func (MIPS32) PointerDirective() string { return ".word" }
func (MIPS32) RodataSection() string    { return ".data.rel.ro" }

func (b MIPS32) EmitAllocate(size int, dst Reg) asm.Seq {
	seq := asm.Seq{
		asm.Op("li", string(b.Receiver()), fmt.Sprintf("%d", size)),
		asm.Op("jal", "malloc"),
	}
	return append(seq, b.EmitMove(dst, b.Result())...)
}

func (b MIPS32) EmitFree(ptr Reg) asm.Seq {
	seq := b.EmitMove(b.Receiver(), ptr)
	return append(seq, asm.Op("jal", "free"))
}

// EmitIndirectCall routes the target through $t9, which position
// independent callees use to compute $gp.
func (b MIPS32) EmitIndirectCall(addr Reg) asm.Seq {
	seq := b.EmitMove("$t9", addr)
	return append(seq, asm.Op("jalr", "$t9"))
}

func (MIPS32) EmitLoad(dst, base Reg, off int) asm.Seq {
	return asm.Seq{asm.Op("lw", string(dst), fmt.Sprintf("%d(%s)", off, base))}
}

func (MIPS32) EmitStore(src, base Reg, off int) asm.Seq {
	return asm.Seq{asm.Op("sw", string(src), fmt.Sprintf("%d(%s)", off, base))}
}

func (MIPS32) EmitAddress(dst Reg, sym string) asm.Seq {
	return asm.Seq{asm.Op("la", string(dst), sym)}
}

func (MIPS32) EmitMove(dst, src Reg) asm.Seq {
	if dst == src {
		return nil
	}
	return asm.Seq{asm.Op("move", string(dst), string(src))}
}

func (MIPS32) EmitIfNonZero(r Reg, skip string, body asm.Seq) asm.Seq {
	seq := asm.Seq{asm.Op("beqz", string(r), skip)}
	seq = append(seq, body...)
	return append(seq, asm.Label(skip))
}

// EmitSave stores above the 16-byte argument home area, which a callee may
// overwrite with $a0-$a3.
func (MIPS32) EmitSave(r Reg) asm.Seq {
	return asm.Seq{
		asm.Op("addiu", "$sp", "$sp", "-24"),
		asm.Op("sw", string(r), "16($sp)"),
	}
}

func (MIPS32) EmitRestore(r Reg) asm.Seq {
	return asm.Seq{
		asm.Op("lw", string(r), "16($sp)"),
		asm.Op("addiu", "$sp", "$sp", "24"),
	}
}

func (MIPS32) EmitFuncBegin(sym string) asm.Seq {
	return asm.Seq{
		asm.Directive(".globl", sym),
		asm.Directive(".ent", sym),
		asm.Label(sym),
		asm.Op("addiu", "$sp", "$sp", "-32"),
		asm.Op("sw", "$ra", "28($sp)"),
		asm.Op("sw", "$fp", "24($sp)"),
		asm.Op("move", "$fp", "$sp"),
	}
}

func (MIPS32) EmitFuncEnd(sym string) asm.Seq {
	return asm.Seq{
		asm.Op("move", "$sp", "$fp"),
		asm.Op("lw", "$fp", "24($sp)"),
		asm.Op("lw", "$ra", "28($sp)"),
		asm.Op("addiu", "$sp", "$sp", "32"),
		asm.Op("jr", "$ra"),
		asm.Directive(".end", sym),
	}
}
