package engine

import (
	"fmt"
	"testing"
)

func assert(t *testing.T, cond bool, format string, args ...any) {
	t.Helper()
	if !cond {
		t.Fatalf(fmt.Sprintf("%v %s", cond, format), args...)
	}
}

// rmByte encodes an RM byte: src register (0 = immediate follows), dst
// register, and a size selector (0..3 -> 1/2/4/8 bytes).
func rmByte(src, dst RegisterId, sel byte) byte {
	return byte(src) | byte(dst)<<3 | sel<<6
}

func newTestCPU(t *testing.T, entry uint64, code []byte) (*CPU, *AddressBus, *Memory) {
	t.Helper()
	bus := NewAddressBus()
	mem := NewMemory(1 << 16)
	assert(t, bus.Add(0, mem.Len(), mem) == nil, "failed to map memory")

	image := make([]byte, 8+len(code))
	for i := 0; i < 8; i++ {
		image[i] = byte(entry >> (8 * i))
	}
	copy(image[8:], code)
	mem.LoadImage(image)

	cpu := NewCPU(bus, NewPortBus())
	return cpu, bus, mem
}

func TestBoot(t *testing.T) {
	// S1 — Boot.
	cpu, _, _ := newTestCPU(t, 8, []byte{opHLT})
	cpu.Clock()
	assert(t, cpu.Halted(), "expected halted after HLT")
	assert(t, cpu.Register(IP) == 9, "expected ip==9, got %d", cpu.Register(IP))
}

func TestAddWithCarry(t *testing.T) {
	// S2 — 8-bit ADD with carry.
	code := []byte{
		opMOV, rmByte(NoRegister, X0, 0), 0xFF,
		opADD, rmByte(NoRegister, X0, 0), 0x01,
	}
	cpu, _, _ := newTestCPU(t, 8, code)
	cpu.Clock()
	cpu.Clock()

	assert(t, cpu.Register(X0)&0xFF == 0x00, "expected low byte 0x00, got 0x%x", cpu.Register(X0)&0xFF)
	assert(t, cpu.flagSet(flagZero), "expected Zero set")
	assert(t, cpu.flagSet(flagCarry), "expected Carry set")
	assert(t, !cpu.flagSet(flagOverflow), "expected Overflow clear")
	assert(t, !cpu.flagSet(flagNegative), "expected Negative clear")
}

func TestSubSignedOverflow(t *testing.T) {
	// S3 — Signed overflow on SUB.
	code := []byte{
		opMOV, rmByte(NoRegister, X0, 0), 0x80,
		opSUB, rmByte(NoRegister, X0, 0), 0x01,
	}
	cpu, _, _ := newTestCPU(t, 8, code)
	cpu.Clock()
	cpu.Clock()

	assert(t, cpu.Register(X0)&0xFF == 0x7F, "expected low byte 0x7f, got 0x%x", cpu.Register(X0)&0xFF)
	assert(t, cpu.flagSet(flagOverflow), "expected Overflow set")
	assert(t, !cpu.flagSet(flagNegative), "expected Negative clear")
	assert(t, !cpu.flagSet(flagZero), "expected Zero clear")
	assert(t, !cpu.flagSet(flagCarry), "expected Carry clear")
}

func TestDivideByZeroFault(t *testing.T) {
	// S4 — Divide by zero, dispatched through the IDT.
	code := []byte{
		opLIDT, 0, 0, 0, 0, 0, 0, 0, 0, 0, // mode byte + 8-byte disp, all zero base
		opMOV, rmByte(NoRegister, X0, 2), 0x05, 0x00, 0x00, 0x00,
		opDIV, rmByte(NoRegister, X0, 2), 0x00, 0x00, 0x00, 0x00,
	}
	// LIDT's EA must resolve to 0x100: decodeEA = base+index+disp, no
	// registers selected, so disp alone must be 0x100.
	code[1] = 0 // mode byte: base=0 index=0
	le := func(v uint64) []byte {
		b := make([]byte, 8)
		for i := range b {
			b[i] = byte(v >> (8 * i))
		}
		return b
	}
	copy(code[2:10], le(0x100))

	cpu, bus, _ := newTestCPU(t, 8, code)

	// Install IDT slot 0 (DIVIDE_BY_ZERO) -> 0x200.
	bus.Write(le(0x200), 0x100+8*uint64(VectorDivideByZero))

	cpu.Clock() // LIDT
	assert(t, cpu.IDT() == 0x100, "expected idt==0x100, got 0x%x", cpu.IDT())

	cpu.Clock() // MOV X0, 5
	divAddr := cpu.Register(IP)
	returnIP := divAddr + 6 // 1 opcode + 1 RM byte + 4-byte dword immediate

	cpu.Clock() // DIV X0, 0 -> fault
	assert(t, cpu.Register(IP) == 0x200, "expected ip==0x200 after fault dispatch, got 0x%x", cpu.Register(IP))

	poppedIP := cpu.popQword()
	assert(t, poppedIP == returnIP, "expected pushed return ip %d, got %d", returnIP, poppedIP)
}

func TestPushPopIdentity(t *testing.T) {
	cpu, _, _ := newTestCPU(t, 8, nil)
	sp0 := cpu.Register(SP)
	cpu.pushQword(0x1122334455667788)
	got := cpu.popQword()
	assert(t, got == 0x1122334455667788, "push/pop round trip mismatch: 0x%x", got)
	assert(t, cpu.Register(SP) == sp0, "expected sp restored, got 0x%x want 0x%x", cpu.Register(SP), sp0)
}

func TestPushPopFlagsIdentity(t *testing.T) {
	cpu, _, _ := newTestCPU(t, 8, nil)
	cpu.flags = 0xDEADBEEFCAFEBABE
	want := cpu.flags
	cpu.pushFlags()
	cpu.flags = 0
	cpu.popFlags()
	assert(t, cpu.flags == want, "push_flags/pop_flags not an identity: got 0x%x want 0x%x", cpu.flags, want)
}

func TestSizedAssignmentPreservesUpperBytes(t *testing.T) {
	cpu, _, _ := newTestCPU(t, 8, nil)
	cpu.setRegister(X0, 0x1122334455667788)
	cpu.setRegisterSized(X0, 0xFF, Byte)
	assert(t, cpu.Register(X0) == 0x11223344556677FF, "upper bytes not preserved: 0x%x", cpu.Register(X0))
}

func TestCmpMatchesSubWithoutWriteback(t *testing.T) {
	code := []byte{
		opMOV, rmByte(NoRegister, X0, 0), 0x05,
		opCMP, rmByte(NoRegister, X0, 0), 0x03,
	}
	cpu, _, _ := newTestCPU(t, 8, code)
	cpu.Clock() // MOV
	before := cpu.Register(X0)

	// Ephemeral SUB on a copy should produce identical flags.
	shadow := &CPU{bus: nil, flags: cpu.flags}

	cpu.Clock() // CMP
	flagsAfterCmp := cpu.flags
	shadow.setFlagsSub(5, 3, 5-3, Byte)

	assert(t, cpu.Register(X0) == before, "CMP must not write back")
	assert(t, flagsAfterCmp == shadow.flags, "CMP flags diverge from SUB: 0x%x vs 0x%x", flagsAfterCmp, shadow.flags)
}
