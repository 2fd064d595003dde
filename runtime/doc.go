// Package runtime executes wasm32 object-model output under wazero.
//
// # Quick Start
//
//	b, _ := arch.Lookup("wasm32")
//	reg, err := s.Build(b)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	inst, err := runtime.New(ctx, reg, runtime.Config{
//	    Methods: map[string]runtime.MethodFunc{
//	        "Dog_speak": func(ctx context.Context, self uint32) uint32 { return 1 },
//	    },
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer inst.Close(ctx)
//
//	dog, _ := inst.New(ctx, "Dog")
//	inst.Call(ctx, runtime.Object{Class: "Animal", Ptr: dog.Ptr}, "speak") // runs Dog_speak
//	inst.Delete(ctx, dog)
//
// # Host Imports
//
// The object module imports from "env":
//
//	malloc(size i32) -> i32   backed by Heap
//	free(ptr i32)             backed by Heap
//	<entry>(self i32) -> i32  one per distinct method entry label
//
// Every construct, destruct and dispatch goes through the emitted thunks;
// the host only supplies storage and method bodies. Trace records each
// host call in order, so tests can assert that a destructor ran once
// before its free.
//
// # Contract
//
// Handles are not checked. Calling through a deleted handle reuses
// whatever the freed block still holds, and a second Delete runs the
// destructor and free again. A nil handle is accepted by Delete only.
//
// # Thread Safety
//
// Instance is NOT thread-safe. Each goroutine should have its own
// Instance, or access must be synchronized externally.
package runtime
