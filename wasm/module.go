package wasm

import (
	"encoding/binary"

	"github.com/wippyai/objgen/arch"
	"github.com/wippyai/objgen/emit"
	"github.com/wippyai/objgen/errors"
)

// Import names of the host allocator.
const (
	ImportModule = "env"
	MemoryExport = "memory"
)

// Type indices fixed by BuildModule.
const (
	TypeCall uint32 = 0 // (i32) -> i32
	TypeFree uint32 = 1 // (i32) -> ()
)

// ModuleConfig controls data placement and memory size.
type ModuleConfig struct {
	// DataBase is the address of the first table. Address 0 stays unused
	// so that no symbol resolves to null. Default 16.
	DataBase uint32
	// MemoryPages is the initial memory size. Default: enough for the data
	// plus one page.
	MemoryPages uint32
}

// Layout records where BuildModule placed everything.
type Layout struct {
	Data     map[string]uint32 // data symbol -> address
	Entries  map[string]uint32 // method entry label -> table index
	Funcs    map[string]uint32 // import or thunk name -> function index
	Imports  []string          // method entry labels in import order
	DataBase uint32
	DataEnd  uint32 // first free byte after the data, 8-aligned
	Pages    uint32
}

// BuildModule assembles a wasm32 unit into a module.
func BuildModule(u *emit.Unit, cfg ModuleConfig) (*Module, *Layout, error) {
	if u == nil {
		return nil, nil, errors.InvalidInput(errors.PhaseLoad, "nil unit")
	}
	if u.Arch != (arch.Wasm32{}).Name() {
		return nil, nil, errors.New(errors.PhaseLoad, errors.KindConfiguration).
			Arch(u.Arch).
			Detail("wasm modules need a wasm32 unit").
			Build()
	}
	if cfg.DataBase == 0 {
		cfg.DataBase = 16
	}

	m := &Module{}
	m.AddType(FuncType{Params: []ValType{ValI32}, Results: []ValType{ValI32}})
	m.AddType(FuncType{Params: []ValType{ValI32}})

	lay := &Layout{
		Data:     make(map[string]uint32),
		Entries:  make(map[string]uint32),
		Funcs:    make(map[string]uint32),
		DataBase: cfg.DataBase,
	}

	addImport := func(name string, typeIdx uint32) {
		lay.Funcs[name] = uint32(len(m.Imports))
		m.Imports = append(m.Imports, Import{Module: ImportModule, Name: name, TypeIdx: typeIdx})
	}
	addImport(arch.WasmMalloc, TypeCall)
	addImport(arch.WasmFree, TypeFree)

	elem := Element{Offset: 1}
	for i, entry := range u.Entries {
		if _, clash := lay.Funcs[entry]; clash {
			return nil, nil, errors.New(errors.PhaseLoad, errors.KindInvalidName).
				Detail("method entry %q collides with a runtime import", entry).
				Build()
		}
		addImport(entry, TypeCall)
		lay.Entries[entry] = uint32(i + 1)
		lay.Imports = append(lay.Imports, entry)
		elem.FuncIdxs = append(elem.FuncIdxs, lay.Funcs[entry])
	}

	data := placeData(u, lay)

	base := uint32(len(m.Imports))
	for i, f := range u.Funcs {
		if _, clash := lay.Funcs[f.Symbol]; clash {
			return nil, nil, errors.New(errors.PhaseLoad, errors.KindDuplicateMember).
				Detail("function %q defined twice", f.Symbol).
				Build()
		}
		lay.Funcs[f.Symbol] = base + uint32(i)
	}
	syms := Symbols{Funcs: lay.Funcs, Data: lay.Data}
	for _, f := range u.Funcs {
		code, err := Assemble(f.Body, syms)
		if err != nil {
			return nil, nil, errors.Load("assemble "+f.Symbol, err)
		}
		m.Funcs = append(m.Funcs, TypeCall)
		m.Code = append(m.Code, FuncBody{
			Locals: []LocalEntry{{Count: arch.WasmLocals, ValType: ValI32}},
			Code:   code,
		})
		m.Exports = append(m.Exports, Export{Name: f.Symbol, Kind: KindFunc, Idx: lay.Funcs[f.Symbol]})
	}

	tableSize := uint32(len(u.Entries) + 1)
	m.Tables = []TableType{{Limits: Limits{Min: tableSize, Max: &tableSize}}}
	if len(elem.FuncIdxs) > 0 {
		m.Elements = []Element{elem}
	}

	lay.Pages = cfg.MemoryPages
	if need := lay.DataEnd/PageSize + 1; lay.Pages < need {
		lay.Pages = need
	}
	m.Memories = []MemoryType{{Limits: Limits{Min: lay.Pages}}}
	m.Exports = append(m.Exports, Export{Name: MemoryExport, Kind: KindMemory, Idx: 0})
	if len(data) > 0 {
		m.Data = []DataSegment{{Offset: cfg.DataBase, Init: data}}
	}
	return m, lay, nil
}

// placeData assigns addresses to every table and name, then renders the
// data segment. Layout per table matches emit.Table.
func placeData(u *emit.Unit, lay *Layout) []byte {
	const w = 4
	addr := lay.DataBase
	for _, t := range u.Tables {
		if t.Record != nil {
			lay.Data[t.TypeInfoSymbol] = addr
			addr += uint32(len(t.Record) * w)
			if t.Leading {
				addr += w
			}
		}
		if t.HasVTable {
			// An empty vtable still takes a null word so its address is
			// distinct from the next table.
			lay.Data[t.VTableSymbol] = addr
			addr += uint32(max(len(t.Slots), 1) * w)
		}
	}
	for _, t := range u.Tables {
		if t.NameSymbol != "" {
			lay.Data[t.NameSymbol] = addr
			addr += uint32(len(t.Class) + 1)
		}
	}
	lay.DataEnd = (addr + 7) &^ 7

	buf := make([]byte, addr-lay.DataBase)
	put := func(at, v uint32) {
		binary.LittleEndian.PutUint32(buf[at-lay.DataBase:], v)
	}
	for _, t := range u.Tables {
		if t.Record != nil {
			at := lay.Data[t.TypeInfoSymbol]
			for i, sym := range t.Record {
				put(at+uint32(i*w), lay.Data[sym])
			}
			if t.Leading {
				put(at+uint32(len(t.Record)*w), at)
			}
		}
		if t.HasVTable {
			at := lay.Data[t.VTableSymbol]
			for i, entry := range t.Slots {
				put(at+uint32(i*w), lay.Entries[entry])
			}
		}
		if t.NameSymbol != "" {
			copy(buf[lay.Data[t.NameSymbol]-lay.DataBase:], t.Class)
		}
	}
	return buf
}
