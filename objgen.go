package objgen

// Memory is a linear memory holding objects and their tables.
type Memory interface {
	Read(offset, length uint32) ([]byte, error)
	Write(offset uint32, data []byte) error
	ReadU32(offset uint32) (uint32, error)
	WriteU32(offset uint32, value uint32) error
	ReadU64(offset uint32) (uint64, error)
	WriteU64(offset uint32, value uint64) error
}

// MemorySizer provides the current size of a linear memory in bytes.
type MemorySizer interface {
	Size() uint32
}

// Allocator backs the allocate and free primitives of emitted code.
// Alloc returns 0 when the request cannot be satisfied.
type Allocator interface {
	Alloc(size uint32) uint32
	Free(ptr uint32)
}
