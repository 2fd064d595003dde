package runtime

import (
	"context"
	"sync"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"
	"go.uber.org/zap"

	"github.com/wippyai/objgen"
	"github.com/wippyai/objgen/arch"
	"github.com/wippyai/objgen/class"
	"github.com/wippyai/objgen/emit"
	"github.com/wippyai/objgen/errors"
	"github.com/wippyai/objgen/wasm"
)

// ModuleName is the instance name of the object module.
const ModuleName = "objects"

// MethodFunc implements a method entry. self is the receiver handle; the
// result is returned from the dispatching thunk.
type MethodFunc func(ctx context.Context, self uint32) uint32

// Config holds configuration for instance creation
type Config struct {
	// Methods maps entry labels to implementations. Entries without an
	// implementation record the call and return 0.
	Methods map[string]MethodFunc

	// Logger overrides the package logger for this instance.
	Logger *zap.Logger

	// MemoryLimitPages sets the maximum memory in pages (64KB each).
	// 0 means the wazero default.
	MemoryLimitPages uint32

	// MemoryPages is the initial memory size. 0 means the tables plus one page.
	MemoryPages uint32

	// DataBase is the address of the first table. 0 means 16.
	DataBase uint32

	// HeapLimit caps the heap end address. 0 means the end of initial memory.
	HeapLimit uint32
}

// Instance runs the wasm32 output for one registry.
//
// Instance is NOT safe for concurrent calls. SetMethod may be called from
// any goroutine.
type Instance struct {
	runtime  wazero.Runtime
	mod      api.Module
	mem      *memory
	reg      *class.Registry
	unit     *emit.Unit
	layout   *wasm.Layout
	heap     *Heap
	trace    *Trace
	log      *zap.Logger
	methods  map[string]MethodFunc
	dispatch map[uint32]*class.Descriptor
	mu       sync.RWMutex
}

// New assembles reg into a wasm module and instantiates it. reg must be
// built for the wasm32 backend.
func New(ctx context.Context, reg *class.Registry, cfg Config) (*Instance, error) {
	if reg == nil {
		return nil, errors.InvalidInput(errors.PhaseRuntime, "nil registry")
	}
	if name := reg.Backend().Name(); name != (arch.Wasm32{}).Name() {
		return nil, errors.New(errors.PhaseConfig, errors.KindConfiguration).
			Arch(name).
			Detail("the runtime executes wasm32 registries only").
			Build()
	}

	e, err := emit.New(reg.Backend(), emit.DefaultOptions())
	if err != nil {
		return nil, err
	}
	u, err := e.BuildUnit(reg)
	if err != nil {
		return nil, err
	}
	m, lay, err := wasm.BuildModule(u, wasm.ModuleConfig{DataBase: cfg.DataBase, MemoryPages: cfg.MemoryPages})
	if err != nil {
		return nil, err
	}

	log := cfg.Logger
	if log == nil {
		log = Logger()
	}

	limit := lay.Pages * wasm.PageSize
	if cfg.HeapLimit > 0 && cfg.HeapLimit < limit {
		limit = cfg.HeapLimit
	}
	inst := &Instance{
		reg:      reg,
		unit:     u,
		layout:   lay,
		heap:     NewHeap(lay.DataEnd, limit),
		trace:    &Trace{},
		log:      log,
		methods:  make(map[string]MethodFunc, len(cfg.Methods)),
		dispatch: make(map[uint32]*class.Descriptor, reg.Len()),
	}
	for entry, fn := range cfg.Methods {
		if _, ok := lay.Entries[entry]; !ok {
			return nil, errors.NotFound(errors.PhaseRuntime, "method entry", entry)
		}
		inst.methods[entry] = fn
	}
	for _, d := range reg.Classes() {
		inst.dispatch[lay.Data[d.DispatchSymbol()]] = d
	}

	runtimeCfg := wazero.NewRuntimeConfig()
	if cfg.MemoryLimitPages > 0 {
		runtimeCfg = runtimeCfg.WithMemoryLimitPages(cfg.MemoryLimitPages)
	}
	inst.runtime = wazero.NewRuntimeWithConfig(ctx, runtimeCfg)

	if err := inst.instantiate(ctx, m.Encode()); err != nil {
		_ = inst.runtime.Close(ctx)
		return nil, err
	}

	log.Debug("object module instantiated",
		zap.Int("classes", reg.Len()),
		zap.Int("thunks", len(u.Funcs)),
		zap.Int("entries", len(u.Entries)),
		zap.Uint32("heap_base", inst.heap.Base()),
		zap.Uint32("heap_limit", inst.heap.Limit()))
	return inst, nil
}

func (i *Instance) instantiate(ctx context.Context, bin []byte) error {
	i32 := []api.ValueType{api.ValueTypeI32}

	env := i.runtime.NewHostModuleBuilder(wasm.ImportModule)
	env.NewFunctionBuilder().
		WithGoModuleFunction(api.GoModuleFunc(i.malloc), i32, i32).
		Export(arch.WasmMalloc)
	env.NewFunctionBuilder().
		WithGoModuleFunction(api.GoModuleFunc(i.free), i32, nil).
		Export(arch.WasmFree)
	for _, entry := range i.layout.Imports {
		env.NewFunctionBuilder().
			WithGoModuleFunction(i.entry(entry), i32, i32).
			Export(entry)
	}
	if _, err := env.Instantiate(ctx); err != nil {
		return errors.Instantiation(err)
	}

	compiled, err := i.runtime.CompileModule(ctx, bin)
	if err != nil {
		return errors.Load("compile object module", err)
	}
	mod, err := i.runtime.InstantiateModule(ctx, compiled, wazero.NewModuleConfig().WithName(ModuleName))
	if err != nil {
		return errors.Instantiation(err)
	}
	i.mod = mod
	i.mem = &memory{mem: mod.Memory()}
	return nil
}

func (i *Instance) malloc(_ context.Context, _ api.Module, stack []uint64) {
	size := api.DecodeU32(stack[0])
	ptr := i.heap.Alloc(size)
	i.trace.Record(Event{Kind: EventAlloc, Ptr: ptr, Size: size, Result: ptr})
	if ptr == 0 {
		i.log.Warn("allocation failed", zap.Uint32("size", size))
	}
	stack[0] = api.EncodeU32(ptr)
}

func (i *Instance) free(_ context.Context, _ api.Module, stack []uint64) {
	ptr := api.DecodeU32(stack[0])
	if !i.heap.Live(ptr) {
		i.log.Warn("free of a block that is not live", zap.Uint32("ptr", ptr))
	}
	i.heap.Free(ptr)
	i.trace.Record(Event{Kind: EventFree, Ptr: ptr})
}

func (i *Instance) entry(name string) api.GoModuleFunc {
	return func(ctx context.Context, _ api.Module, stack []uint64) {
		self := api.DecodeU32(stack[0])
		var result uint32
		if fn := i.method(name); fn != nil {
			result = fn(ctx, self)
		}
		i.trace.Record(Event{Kind: EventCall, Entry: name, Ptr: self, Result: result})
		stack[0] = api.EncodeU32(result)
	}
}

func (i *Instance) method(entry string) MethodFunc {
	i.mu.RLock()
	defer i.mu.RUnlock()
	return i.methods[entry]
}

// SetMethod replaces the implementation of an entry label. Every object
// whose vtable holds the entry sees the change. A nil fn restores the
// default of returning 0.
func (i *Instance) SetMethod(entry string, fn MethodFunc) error {
	if _, ok := i.layout.Entries[entry]; !ok {
		return errors.NotFound(errors.PhaseRuntime, "method entry", entry)
	}
	i.mu.Lock()
	defer i.mu.Unlock()
	if fn == nil {
		delete(i.methods, entry)
	} else {
		i.methods[entry] = fn
	}
	return nil
}

// Close releases the wazero runtime and the module memory.
func (i *Instance) Close(ctx context.Context) error {
	return i.runtime.Close(ctx)
}

// Registry returns the classes the instance was built from.
func (i *Instance) Registry() *class.Registry { return i.reg }

// Unit returns the emitted wasm32 unit.
func (i *Instance) Unit() *emit.Unit { return i.unit }

// Layout returns where tables, names and functions were placed.
func (i *Instance) Layout() *wasm.Layout { return i.layout }

// Heap returns the allocator behind env.malloc and env.free.
func (i *Instance) Heap() *Heap { return i.heap }

// Trace returns the host call log.
func (i *Instance) Trace() *Trace { return i.trace }

// Memory returns the module's linear memory.
func (i *Instance) Memory() objgen.Memory { return i.mem }
