// Package asm models emitted instruction sequences.
//
// A Seq is an ordered list of operations, labels, directives and comments.
// Backends produce Seq fragments; the emitters compose them without looking
// at register or mnemonic identities. Text targets render a Seq as GAS
// source; the wasm32 target assembles the same Seq into bytecode.
package asm

import (
	"strings"
)

// Kind distinguishes the entries of a sequence.
type Kind uint8

const (
	KindOp Kind = iota
	KindLabel
	KindDirective
	KindComment
)

// Instr is one entry of an instruction sequence.
type Instr struct {
	Op   string
	Args []string
	Kind Kind
}

// Op creates an operation entry. Operands are kept in target order.
func Op(op string, args ...string) Instr {
	return Instr{Kind: KindOp, Op: op, Args: args}
}

// Label creates a label definition.
func Label(name string) Instr {
	return Instr{Kind: KindLabel, Op: name}
}

// Directive creates an assembler directive such as .section or .quad.
func Directive(name string, args ...string) Instr {
	return Instr{Kind: KindDirective, Op: name, Args: args}
}

// Comment creates a comment line.
func Comment(text string) Instr {
	return Instr{Kind: KindComment, Op: text}
}

// String renders the entry without indentation or comment prefix.
func (i Instr) String() string {
	switch i.Kind {
	case KindLabel:
		return i.Op + ":"
	case KindComment:
		return i.Op
	}
	if len(i.Args) == 0 {
		return i.Op
	}
	return i.Op + " " + strings.Join(i.Args, ", ")
}

// Seq is an ordered instruction sequence.
type Seq []Instr

// Join concatenates sequences into a new one.
func Join(seqs ...Seq) Seq {
	n := 0
	for _, s := range seqs {
		n += len(s)
	}
	out := make(Seq, 0, n)
	for _, s := range seqs {
		out = append(out, s...)
	}
	return out
}

// Ops returns the mnemonics of the operation entries, in order.
func (s Seq) Ops() []string {
	var ops []string
	for _, in := range s {
		if in.Kind == KindOp {
			ops = append(ops, in.Op)
		}
	}
	return ops
}

// Count returns how many operation entries use op.
func (s Seq) Count(op string) int {
	n := 0
	for _, in := range s {
		if in.Kind == KindOp && in.Op == op {
			n++
		}
	}
	return n
}

// Index returns the position of the first operation entry using op, or -1.
func (s Seq) Index(op string) int {
	for i, in := range s {
		if in.Kind == KindOp && in.Op == op {
			return i
		}
	}
	return -1
}

// Labels returns the names of all labels defined in the sequence.
func (s Seq) Labels() []string {
	var labels []string
	for _, in := range s {
		if in.Kind == KindLabel {
			labels = append(labels, in.Op)
		}
	}
	return labels
}

// Strip returns the sequence without comments.
func (s Seq) Strip() Seq {
	out := make(Seq, 0, len(s))
	for _, in := range s {
		if in.Kind != KindComment {
			out = append(out, in)
		}
	}
	return out
}

// ValidSymbol reports whether name can be used as part of an assembler
// symbol on every target: a letter or underscore followed by letters,
// digits or underscores.
func ValidSymbol(name string) bool {
	if name == "" {
		return false
	}
	for i, c := range name {
		switch {
		case c == '_', c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z':
		case c >= '0' && c <= '9' && i > 0:
		default:
			return false
		}
	}
	return true
}
