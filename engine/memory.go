package engine

// Memory is a contiguous, zero-initialized byte vector presented as an
// AddressBusDevice. It backs RAM regions mapped on the AddressBus.
type Memory struct {
	bytes []byte
}

// NewMemory allocates a Memory device of the given length, in bytes.
func NewMemory(length uint64) *Memory {
	return &Memory{bytes: make([]byte, length)}
}

// Len returns the device's backing length in bytes.
func (m *Memory) Len() uint64 {
	return uint64(len(m.bytes))
}

// Write copies src into the backing vector at offset. The AddressBus
// guarantees offset and offset+len(src) never exceed Len().
func (m *Memory) Write(src []byte, _ uint64, offset uint64) {
	copy(m.bytes[offset:], src)
}

// Read copies out of the backing vector at offset into dst.
func (m *Memory) Read(dst []byte, _ uint64, offset uint64) {
	copy(dst, m.bytes[offset:])
}

// Shutdown is a no-op; Memory owns no external resources.
func (m *Memory) Shutdown() {}

// LoadImage copies data into the backing vector starting at byte 0. Used
// by the image loader to place a flat binary at address 0.
func (m *Memory) LoadImage(data []byte) {
	copy(m.bytes, data)
}
