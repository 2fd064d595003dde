// Package vtable assigns virtual method slots and builds type identity
// records.
//
// Slots are positional. A method declared under a name already present in
// the table (inherited from the parent) keeps its slot and only its entry
// is replaced; any other method appends the next free index. Two classes
// that declare the same methods in a different order are therefore not
// binary compatible.
//
// Slot 0 is the destructor slot for every class that uses the lifecycle
// sequences in package emit. The convention is fixed.
//
// # Type identity
//
// A class picks one RTTIMode. With RTTILeading the TypeInfo record address
// sits one pointer width before the vtable's slot 0 and objects keep a
// vtable pointer at offset 0. With RTTIIdentity objects store the TypeInfo
// address itself at offset 0, so they have no dispatch pointer. Both
// schemes use offset 0 and cannot be combined.
//
// The record in memory is
//
//	[name pointer][parent TypeInfo pointer or 0]
//
// followed elsewhere by the NUL-terminated name.
package vtable
