// Package objgen generates the object model of a single-inheritance,
// virtually dispatched language for several machine backends.
//
// # Architecture Overview
//
// The library is organized into several packages with distinct responsibilities:
//
//	objgen/            Root package with core Memory and Allocator interfaces
//	├── arch/          Backend primitives for x86_64, aarch64, mips32, riscv64, wasm32
//	├── asm/           Instruction sequences and GAS-style text output
//	├── layout/        Field offsets, inherited prefixes and padding
//	├── vtable/        Slot assignment and type information records
//	├── class/         Class descriptors and the registry that builds them
//	├── schema/        YAML/JSON class declarations
//	├── emit/          Construct, destruct, dispatch and per-class thunks
//	├── wasm/          wasm32 module assembly
//	├── runtime/       Executes wasm32 output under wazero
//	├── errors/        Structured error types for debugging
//	└── cmd/objgen/    Command line front end
//
// # Quick Start
//
// Describe classes and emit assembly:
//
//	s, err := schema.Load("animals.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	b, _ := arch.Lookup("x86_64")
//	reg, err := s.Build(b)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	e, _ := emit.New(b, emit.DefaultOptions())
//	u, err := e.BuildUnit(reg)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	emit.WriteAssembly(os.Stdout, u)
//
// # Object Model
//
// Every object begins with one pointer-sized word, the dispatch pointer.
// It addresses the class vtable, or for slot-0-identity classes the type
// information record itself. A derived class shares its parent's layout as
// a prefix and its parent's slots as a vtable prefix, so code compiled
// against a parent works on any descendant.
//
// Slot 0 is the destructor. A null destructor slot means there is nothing
// to run before the storage is freed.
//
// # Running wasm32 Output
//
// The runtime package assembles a registry into a wasm module, supplies
// malloc, free and the method entries from Go, and calls the emitted
// thunks:
//
//	inst, err := runtime.New(ctx, reg, runtime.Config{
//	    Methods: map[string]runtime.MethodFunc{"Dog_speak": speak},
//	})
//	dog, err := inst.New(ctx, "Dog")
//	inst.Call(ctx, dog, "speak")
//	inst.Delete(ctx, dog)
package objgen
