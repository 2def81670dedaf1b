package engine

import (
	"fmt"
	"sort"
)

// AddressBusDevice is the capability set a device must implement to be
// addressable through the AddressBus. offset is the position within the
// device's own interval, always starting at 0 at the device's base
// address.
type AddressBusDevice interface {
	Write(src []byte, address uint64, offset uint64)
	Read(dst []byte, address uint64, offset uint64)
	Shutdown()
}

type addressBusEntry struct {
	start  uint64
	length uint64
	device AddressBusDevice
}

func (e addressBusEntry) end() uint64 {
	return e.start + e.length
}

// AddressBus routes reads and writes against the 64-bit address space to
// a disjoint set of interval-mapped devices. Entries are kept sorted by
// start address so membership and range queries resolve with a binary
// search rather than a linear scan; disjointness makes a full interval
// tree unnecessary.
type AddressBus struct {
	entries []addressBusEntry
}

// NewAddressBus returns an empty bus with no devices registered.
func NewAddressBus() *AddressBus {
	return &AddressBus{}
}

// Add registers device at [start, start+length). It fails without
// mutating the bus if the interval overlaps any existing entry.
func (b *AddressBus) Add(start, length uint64, device AddressBusDevice) error {
	if length == 0 {
		return fmt.Errorf("address bus: zero-length device at 0x%x: %w", start, errZeroLengthDevice)
	}

	end := start + length
	idx := sort.Search(len(b.entries), func(i int) bool {
		return b.entries[i].start >= start
	})

	if idx > 0 && b.entries[idx-1].end() > start {
		return fmt.Errorf("address bus: [0x%x, 0x%x) overlaps existing entry [0x%x, 0x%x): %w",
			start, end, b.entries[idx-1].start, b.entries[idx-1].end(), errOverlappingRange)
	}
	if idx < len(b.entries) && b.entries[idx].start < end {
		return fmt.Errorf("address bus: [0x%x, 0x%x) overlaps existing entry [0x%x, 0x%x): %w",
			start, end, b.entries[idx].start, b.entries[idx].end(), errOverlappingRange)
	}

	entry := addressBusEntry{start: start, length: length, device: device}
	b.entries = append(b.entries, addressBusEntry{})
	copy(b.entries[idx+1:], b.entries[idx:])
	b.entries[idx] = entry
	return nil
}

// Write delivers src to every device whose interval intersects
// [address, address+len(src)), splitting src at device boundaries. Bytes
// falling in unmapped holes are silently dropped.
func (b *AddressBus) Write(src []byte, address uint64) {
	b.forEachOverlap(address, uint64(len(src)), func(e addressBusEntry, clipStart, clipEnd uint64) {
		sliceStart := clipStart - address
		sliceEnd := clipEnd - address
		e.device.Write(src[sliceStart:sliceEnd], clipStart, clipStart-e.start)
	})
}

// Read fills dst from every device whose interval intersects
// [address, address+len(dst)), splitting dst at device boundaries. Bytes
// in unmapped holes are left unchanged in dst.
func (b *AddressBus) Read(dst []byte, address uint64) {
	b.forEachOverlap(address, uint64(len(dst)), func(e addressBusEntry, clipStart, clipEnd uint64) {
		sliceStart := clipStart - address
		sliceEnd := clipEnd - address
		e.device.Read(dst[sliceStart:sliceEnd], clipStart, clipStart-e.start)
	})
}

// forEachOverlap invokes fn once per device whose interval intersects
// [address, address+length), in address-ascending order, with the
// clipped [clipStart, clipEnd) sub-range of the transfer that device owns.
func (b *AddressBus) forEachOverlap(address, length uint64, fn func(e addressBusEntry, clipStart, clipEnd uint64)) {
	if length == 0 {
		return
	}
	end := address + length

	// First entry whose end could exceed address.
	idx := sort.Search(len(b.entries), func(i int) bool {
		return b.entries[i].end() > address
	})

	for i := idx; i < len(b.entries); i++ {
		e := b.entries[i]
		if e.start >= end {
			break
		}

		clipStart := e.start
		if address > clipStart {
			clipStart = address
		}
		clipEnd := e.end()
		if end < clipEnd {
			clipEnd = end
		}
		if clipStart >= clipEnd {
			continue
		}

		fn(e, clipStart, clipEnd)
	}
}

// Shutdown runs each registered device's Shutdown hook exactly once, in
// ascending start-address order, and releases the bus's device table.
func (b *AddressBus) Shutdown() {
	for _, e := range b.entries {
		e.device.Shutdown()
	}
	b.entries = nil
}
