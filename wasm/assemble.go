package wasm

import (
	"strconv"
	"strings"

	"github.com/wippyai/objgen/asm"
	"github.com/wippyai/objgen/errors"
	"github.com/wippyai/objgen/wasm/internal/binary"
)

// Symbols resolves the names a sequence refers to.
type Symbols struct {
	Funcs map[string]uint32 // call targets -> function index
	Data  map[string]uint32 // i32.const operands -> address
}

// Assemble encodes seq as a function body expression, terminated by end.
// Labels, comments and directives are skipped.
func Assemble(seq asm.Seq, syms Symbols) ([]byte, error) {
	w := binary.NewWriter()
	depth := 0
	for _, in := range seq {
		if in.Kind != asm.KindOp {
			continue
		}
		if err := assembleOp(w, in, syms, &depth); err != nil {
			return nil, err
		}
	}
	if depth != 0 {
		return nil, errors.InvalidInput(errors.PhaseLoad, "unbalanced if/end in wasm32 sequence")
	}
	w.Byte(OpEnd)
	return w.Bytes(), nil
}

func assembleOp(w *binary.Writer, in asm.Instr, syms Symbols, depth *int) error {
	switch in.Op {
	case "local.get", "local.set", "local.tee":
		idx, err := operandU32(in, 0)
		if err != nil {
			return err
		}
		w.Byte(map[string]byte{"local.get": OpLocalGet, "local.set": OpLocalSet, "local.tee": OpLocalTee}[in.Op])
		w.WriteU32(idx)

	case "i32.const":
		if err := arity(in, 1); err != nil {
			return err
		}
		v, err := constant(in.Args[0], syms)
		if err != nil {
			return err
		}
		w.Byte(OpI32Const)
		w.WriteS32(v)

	case "call":
		if err := arity(in, 1); err != nil {
			return err
		}
		idx, ok := syms.Funcs[in.Args[0]]
		if !ok {
			return errors.NotFound(errors.PhaseLoad, "function", in.Args[0])
		}
		w.Byte(OpCall)
		w.WriteU32(idx)

	case "call_indirect":
		typeIdx, err := operandU32(in, 0)
		if err != nil {
			return err
		}
		w.Byte(OpCallIndirect)
		w.WriteU32(typeIdx)
		w.WriteU32(0) // table 0

	case "i32.load", "i32.store":
		off, err := memarg(in)
		if err != nil {
			return err
		}
		if in.Op == "i32.load" {
			w.Byte(OpI32Load)
		} else {
			w.Byte(OpI32Store)
		}
		w.WriteU32(2) // align 4
		w.WriteU32(off)

	case "if":
		w.Byte(OpIf)
		w.Byte(BlockTypeVoid)
		*depth++

	case "end":
		if *depth == 0 {
			return errors.InvalidInput(errors.PhaseLoad, "end without matching if")
		}
		w.Byte(OpEnd)
		*depth--

	case "drop":
		w.Byte(OpDrop)

	default:
		return errors.New(errors.PhaseLoad, errors.KindUnsupported).
			Arch("wasm32").
			Detail("unsupported instruction %q", in.Op).
			Build()
	}
	return nil
}

func arity(in asm.Instr, n int) error {
	if len(in.Args) != n {
		return errors.InvalidInput(errors.PhaseLoad, in.Op+": wrong operand count")
	}
	return nil
}

func operandU32(in asm.Instr, i int) (uint32, error) {
	if err := arity(in, i+1); err != nil {
		return 0, err
	}
	v, err := strconv.ParseUint(in.Args[i], 10, 32)
	if err != nil {
		return 0, errors.Load(in.Op+": bad operand "+in.Args[i], err)
	}
	return uint32(v), nil
}

func memarg(in asm.Instr) (uint32, error) {
	if len(in.Args) == 0 {
		return 0, nil
	}
	s, ok := strings.CutPrefix(in.Args[0], "offset=")
	if !ok || len(in.Args) != 1 {
		return 0, errors.InvalidInput(errors.PhaseLoad, in.Op+": expected offset=N")
	}
	v, err := strconv.ParseUint(s, 10, 32)
	if err != nil {
		return 0, errors.Load(in.Op+": bad offset "+s, err)
	}
	return uint32(v), nil
}

func constant(arg string, syms Symbols) (int32, error) {
	if v, err := strconv.ParseInt(arg, 10, 32); err == nil {
		return int32(v), nil
	}
	addr, ok := syms.Data[arg]
	if !ok {
		return 0, errors.NotFound(errors.PhaseLoad, "data symbol", arg)
	}
	return int32(addr), nil
}
