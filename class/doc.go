// Package class assembles Class Descriptors.
//
// A Registry is bound to one backend. Classes are declared through a
// Builder (Begin or Extend), which threads the layout, vtable and RTTI
// state through each call and registers an immutable Descriptor on Finish.
// Parents must be finished before they are extended, so hierarchies are
// acyclic by construction.
//
// The registry also keeps explicit (class, member) maps for field offsets
// and method slots:
//
//	off, _ := reg.Offset("Dog", "breedId")
//	slot, _ := reg.Slot("Dog", "speak")
//
// Descriptors are safe to share read-only once built. Building is
// single-threaded.
package class
