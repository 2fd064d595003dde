package emit

import (
	"fmt"
	"io"
	"strconv"

	"github.com/wippyai/objgen/arch"
	"github.com/wippyai/objgen/asm"
	"github.com/wippyai/objgen/errors"
)

// WriteAssembly renders u as a GAS source file. The unit's backend must
// render text; wasm32 units are assembled by package wasm instead.
func WriteAssembly(w io.Writer, u *Unit) error {
	b, err := u.Backend()
	if err != nil {
		return err
	}
	tt, ok := b.(arch.TextTarget)
	if !ok {
		return errors.New(errors.PhaseEmit, errors.KindUnsupported).
			Arch(u.Arch).
			Detail("backend does not render assembly text").
			Build()
	}

	aw := asm.NewWriter(w, tt.Style())
	aw.Comment(fmt.Sprintf("object model for %s, pointer width %d", u.Arch, u.Width))
	aw.Comment(fmt.Sprintf("receiver: %s", tt.ReceiverConvention()))
	aw.Blank()

	aw.Seq(TablesSeq(tt, u))
	if names := NamesSeq(u); len(names) > 0 {
		aw.Blank()
		aw.Seq(names)
	}

	if len(u.Funcs) > 0 {
		aw.Blank()
		aw.Seq(asm.Seq{asm.Directive(".text")})
		for _, f := range u.Funcs {
			aw.Blank()
			aw.Seq(asm.Seq{asm.Directive(".p2align", "2")})
			aw.Seq(f.Body)
		}
	}
	return aw.Err()
}

// TablesSeq renders every table of u into the read-only relocated section.
func TablesSeq(tt arch.TextTarget, u *Unit) asm.Seq {
	word := tt.PointerDirective()
	seq := asm.Seq{asm.Directive(".section", tt.RodataSection(), `"aw"`)}
	for _, t := range u.Tables {
		seq = append(seq,
			asm.Comment(t.Class),
			asm.Directive(".balign", strconv.Itoa(u.Width)),
		)
		if t.Record != nil {
			seq = append(seq, asm.Directive(".globl", t.TypeInfoSymbol), asm.Label(t.TypeInfoSymbol))
			seq = append(seq, words(word, t.Record)...)
			if t.Leading {
				seq = append(seq, asm.Directive(word, t.TypeInfoSymbol))
			}
		}
		if t.HasVTable {
			seq = append(seq, asm.Directive(".globl", t.VTableSymbol), asm.Label(t.VTableSymbol))
			seq = append(seq, words(word, t.Slots)...)
		}
	}
	return seq
}

// NamesSeq renders the NUL-terminated type names.
func NamesSeq(u *Unit) asm.Seq {
	var seq asm.Seq
	for _, t := range u.Tables {
		if t.NameSymbol == "" {
			continue
		}
		if seq == nil {
			seq = asm.Seq{asm.Directive(".section", ".rodata")}
		}
		seq = append(seq,
			asm.Label(t.NameSymbol),
			asm.Directive(".asciz", strconv.Quote(t.Class)),
		)
	}
	return seq
}

func words(directive string, syms []string) asm.Seq {
	seq := make(asm.Seq, len(syms))
	for i, s := range syms {
		if s == "" {
			s = "0"
		}
		seq[i] = asm.Directive(directive, s)
	}
	return seq
}
