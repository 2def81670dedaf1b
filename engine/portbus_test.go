package engine

import (
	"testing"

	"github.com/stretchr/testify/require"
)

type fakePort struct {
	value uint64
}

func (p *fakePort) Write(v uint64) { p.value = v }
func (p *fakePort) Read() uint64   { return p.value }
func (p *fakePort) Shutdown()      {}

func TestPortBusUnmappedReadReturnsFloating(t *testing.T) {
	// S6 — Unmapped port read.
	bus := NewPortBus()
	require.Equal(t, portFloating, bus.Read(0x1234))
}

func TestPortBusRoundTrip(t *testing.T) {
	bus := NewPortBus()
	dev := &fakePort{}
	require.NoError(t, bus.Add(0x10, dev))

	bus.Write(0x10, 42)
	require.Equal(t, uint64(42), bus.Read(0x10))
}

func TestPortBusRejectsDuplicate(t *testing.T) {
	bus := NewPortBus()
	require.NoError(t, bus.Add(0x10, &fakePort{}))
	err := bus.Add(0x10, &fakePort{})
	require.ErrorIs(t, err, errPortInUse)
}

func TestPortBusUnmappedWriteIsNoOp(t *testing.T) {
	bus := NewPortBus()
	bus.Write(0x99, 7) // must not panic
}
