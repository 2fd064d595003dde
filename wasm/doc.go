// Package wasm encodes WebAssembly modules for the wasm32 object-model
// backend.
//
// Assemble turns a wasm32 instruction sequence (as produced by package
// arch) into a function body. BuildModule lays out an emitted unit as a
// complete core module:
//
//	types    0: (i32) -> i32   thunks, methods, malloc
//	         1: (i32) -> ()    free
//	imports  env.malloc, env.free, env.<entry> per method entry label
//	table    funcref; element i+1 is entry i, element 0 stays null
//	memory   exported as "memory"; tables and type names in one data segment
//	exports  every thunk by symbol
//
// Vtable slots hold table indices, so a null slot is 0 and calling it traps.
package wasm
