package wasm

// Module is a core WebAssembly module restricted to what object-model
// code needs: function imports, one funcref table, one memory, active
// element and data segments.
type Module struct {
	Types    []FuncType
	Imports  []Import
	Funcs    []uint32 // type index per defined function
	Tables   []TableType
	Memories []MemoryType
	Exports  []Export
	Elements []Element
	Code     []FuncBody
	Data     []DataSegment
}

// ValType is a value type encoding.
type ValType byte

func (v ValType) String() string {
	switch v {
	case ValI32:
		return "i32"
	case ValI64:
		return "i64"
	case ValFuncRef:
		return "funcref"
	default:
		return "unknown"
	}
}

// FuncType is a function signature.
type FuncType struct {
	Params  []ValType
	Results []ValType
}

// Import is a function import.
type Import struct {
	Module  string
	Name    string
	TypeIdx uint32
}

// Limits bounds a table or memory.
type Limits struct {
	Max *uint32
	Min uint32
}

// TableType describes a funcref table.
type TableType struct {
	Limits Limits
}

// MemoryType describes a linear memory in pages.
type MemoryType struct {
	Limits Limits
}

// Export names a function, table or memory.
type Export struct {
	Name string
	Kind byte
	Idx  uint32
}

// Element is an active segment initializing table 0 at Offset.
type Element struct {
	FuncIdxs []uint32
	Offset   uint32
}

// FuncBody is a function's locals and code. Code ends with OpEnd.
type FuncBody struct {
	Locals []LocalEntry
	Code   []byte
}

// LocalEntry declares Count locals of one type.
type LocalEntry struct {
	Count   uint32
	ValType ValType
}

// DataSegment is an active segment initializing memory 0 at Offset.
type DataSegment struct {
	Init   []byte
	Offset uint32
}

// AddType returns the index of ft, appending it when not yet present.
func (m *Module) AddType(ft FuncType) uint32 {
	for i, t := range m.Types {
		if typesEqual(t, ft) {
			return uint32(i)
		}
	}
	m.Types = append(m.Types, ft)
	return uint32(len(m.Types) - 1)
}

// NumImportedFuncs returns the number of imported functions, which
// precede defined functions in the function index space.
func (m *Module) NumImportedFuncs() int {
	return len(m.Imports)
}

func typesEqual(a, b FuncType) bool {
	if len(a.Params) != len(b.Params) || len(a.Results) != len(b.Results) {
		return false
	}
	for i := range a.Params {
		if a.Params[i] != b.Params[i] {
			return false
		}
	}
	for i := range a.Results {
		if a.Results[i] != b.Results[i] {
			return false
		}
	}
	return true
}
