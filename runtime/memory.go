package runtime

import (
	"github.com/tetratelabs/wazero/api"

	"github.com/wippyai/objgen"
	"github.com/wippyai/objgen/errors"
)

var (
	_ objgen.Memory      = (*memory)(nil)
	_ objgen.MemorySizer = (*memory)(nil)
	_ objgen.Allocator   = (*Heap)(nil)
)

// memory adapts wazero linear memory to objgen.Memory.
type memory struct {
	mem api.Memory
}

func outOfBounds(offset, length uint32) error {
	return errors.New(errors.PhaseRuntime, errors.KindInvalidInput).
		Value(offset).
		Detail("access of %d bytes at %#x is out of bounds", length, offset).
		Build()
}

func (m *memory) Read(offset, length uint32) ([]byte, error) {
	b, ok := m.mem.Read(offset, length)
	if !ok {
		return nil, outOfBounds(offset, length)
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out, nil
}

func (m *memory) Write(offset uint32, data []byte) error {
	if !m.mem.Write(offset, data) {
		return outOfBounds(offset, uint32(len(data)))
	}
	return nil
}

func (m *memory) ReadU32(offset uint32) (uint32, error) {
	v, ok := m.mem.ReadUint32Le(offset)
	if !ok {
		return 0, outOfBounds(offset, 4)
	}
	return v, nil
}

func (m *memory) WriteU32(offset uint32, value uint32) error {
	if !m.mem.WriteUint32Le(offset, value) {
		return outOfBounds(offset, 4)
	}
	return nil
}

func (m *memory) ReadU64(offset uint32) (uint64, error) {
	v, ok := m.mem.ReadUint64Le(offset)
	if !ok {
		return 0, outOfBounds(offset, 8)
	}
	return v, nil
}

func (m *memory) WriteU64(offset uint32, value uint64) error {
	if !m.mem.WriteUint64Le(offset, value) {
		return outOfBounds(offset, 8)
	}
	return nil
}

func (m *memory) Size() uint32 {
	return m.mem.Size()
}

// readCString reads a NUL-terminated string starting at addr.
func readCString(m objgen.Memory, addr, max uint32) (string, error) {
	var buf []byte
	for n := uint32(0); n < max; n++ {
		b, err := m.Read(addr+n, 1)
		if err != nil {
			return "", err
		}
		if b[0] == 0 {
			return string(buf), nil
		}
		buf = append(buf, b[0])
	}
	return "", errors.New(errors.PhaseRuntime, errors.KindInvalidInput).
		Value(addr).
		Detail("unterminated type name at %#x", addr).
		Build()
}
