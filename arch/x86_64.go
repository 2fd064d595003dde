package arch

import (
	"fmt"

	"github.com/wippyai/objgen/asm"
)

// AMD64 is the x86_64 System V backend (AT&T syntax).
type AMD64 struct{}

var amd64Scratch = [NumScratch]Reg{"%rcx", "%r11", "%rax"}

func (AMD64) Name() string      { return "x86_64" }
func (AMD64) PointerWidth() int { return 8 }
func (AMD64) Receiver() Reg     { return "%rdi" }
func (AMD64) Result() Reg       { return "%rax" }

func (AMD64) ReceiverConvention() string {
	return "first integer argument register %rdi (System V AMD64)"
}

func (AMD64) Scratch(i int) Reg { return amd64Scratch[i] }

func (AMD64) Style() asm.Style         { return asm.Style{Comment: "#", Indent: "\t"} }
func (AMD64) PointerDirective() string { return ".quad" }
func (AMD64) RodataSection() string    { return ".data.rel.ro" }

func (b AMD64) EmitAllocate(size int, dst Reg) asm.Seq {
	seq := asm.Seq{
		asm.Op("mov", fmt.Sprintf("$%d", size), string(b.Receiver())),
		asm.Op("call", "malloc@PLT"),
	}
	return append(seq, b.EmitMove(dst, b.Result())...)
}

func (b AMD64) EmitFree(ptr Reg) asm.Seq {
	seq := b.EmitMove(b.Receiver(), ptr)
	return append(seq, asm.Op("call", "free@PLT"))
}

func (AMD64) EmitIndirectCall(addr Reg) asm.Seq {
	return asm.Seq{asm.Op("call", "*"+string(addr))}
}

func (AMD64) EmitLoad(dst, base Reg, off int) asm.Seq {
	return asm.Seq{asm.Op("mov", amd64Mem(base, off), string(dst))}
}

func (AMD64) EmitStore(src, base Reg, off int) asm.Seq {
	return asm.Seq{asm.Op("mov", string(src), amd64Mem(base, off))}
}

func (AMD64) EmitAddress(dst Reg, sym string) asm.Seq {
	return asm.Seq{asm.Op("leaq", sym+"(%rip)", string(dst))}
}

func (AMD64) EmitMove(dst, src Reg) asm.Seq {
	if dst == src {
		return nil
	}
	return asm.Seq{asm.Op("mov", string(src), string(dst))}
}

func (AMD64) EmitIfNonZero(r Reg, skip string, body asm.Seq) asm.Seq {
	seq := asm.Seq{
		asm.Op("test", string(r), string(r)),
		asm.Op("jz", skip),
	}
	seq = append(seq, body...)
	return append(seq, asm.Label(skip))
}

// EmitSave keeps %rsp 16-byte aligned so calls made while the value is
// saved still see an aligned stack.
func (AMD64) EmitSave(r Reg) asm.Seq {
	return asm.Seq{
		asm.Op("sub", "$16", "%rsp"),
		asm.Op("mov", string(r), "(%rsp)"),
	}
}

func (AMD64) EmitRestore(r Reg) asm.Seq {
	return asm.Seq{
		asm.Op("mov", "(%rsp)", string(r)),
		asm.Op("add", "$16", "%rsp"),
	}
}

func (AMD64) EmitFuncBegin(sym string) asm.Seq {
	return asm.Seq{
		asm.Directive(".globl", sym),
		asm.Directive(".type", sym, "@function"),
		asm.Label(sym),
		asm.Op("push", "%rbp"),
		asm.Op("mov", "%rsp", "%rbp"),
	}
}

func (AMD64) EmitFuncEnd(sym string) asm.Seq {
	return asm.Seq{
		asm.Op("pop", "%rbp"),
		asm.Op("ret"),
		asm.Directive(".size", sym, ".-"+sym),
	}
}

func amd64Mem(base Reg, off int) string {
	if off == 0 {
		return "(" + string(base) + ")"
	}
	return fmt.Sprintf("%d(%s)", off, base)
}
