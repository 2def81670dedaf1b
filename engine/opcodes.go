package engine

// Instruction set.
//
// Every instruction begins with a one-byte opcode fetched at IP. Most
// two-operand instructions follow it with one RM byte (see decodeRM);
// memory-addressing instructions follow it with an effective-address
// byte+displacement pair (see decodeEA). IN/OUT take a register byte and
// a little-endian 16-bit port (see decodeIOReg); INT takes a one-byte
// vector.
//
//   ADD, SUB, MUL, DIV   width-parameterized ALU ops, wrapping arithmetic
//   AND, OR, XOR         bitwise ops, flags per setFlagsLogical
//   NOT, NEG             unary bitwise/arithmetic ops
//   CMP                  SUB without writeback
//   MOV                  RM-byte assign, sized
//   LDR, STR, LEA        EA-addressed load/store/address-of
//   PUSH, POP            qword stack ops
//   PUSHF, POPF          full 64-bit flags word stack ops
//   JMP and 14 Jcc       EA-addressed conditional branch
//   CALL, RET            EA-addressed call / qword return
//   IN, OUT              port I/O
//   INT, RETI            software interrupt request / return
//   CLI, STI             InterruptEnable clear / set
//   LIDT                 install IDT base from EA
//   HLT                  halt
//   NOP                  no-op
//
// Opcode byte values below are this implementation's assignment; images
// must be assembled against this table.
const (
	opADD byte = 0x01
	opSUB byte = 0x02
	opMUL byte = 0x03
	opDIV byte = 0x04

	opAND byte = 0x05
	opOR  byte = 0x06
	opXOR byte = 0x07
	opNOT byte = 0x08
	opNEG byte = 0x09
	opCMP byte = 0x0A

	opMOV byte = 0x0B
	opLDR byte = 0x0C
	opSTR byte = 0x0D
	opLEA byte = 0x0E

	opPUSH  byte = 0x0F
	opPOP   byte = 0x10
	opPUSHF byte = 0x11
	opPOPF  byte = 0x12

	opJMP  byte = 0x13
	opJZ   byte = 0x14
	opJNZ  byte = 0x15
	opJO   byte = 0x16
	opJNO  byte = 0x17
	opJS   byte = 0x18
	opJNS  byte = 0x19
	opJC   byte = 0x1A
	opJNC  byte = 0x1B
	opJBE  byte = 0x1C
	opJA   byte = 0x1D
	opJL   byte = 0x1E
	opJGE  byte = 0x1F
	opJLE  byte = 0x20
	opJG   byte = 0x21

	opCALL byte = 0x22
	opRET  byte = 0x23

	opIN  byte = 0x24
	opOUT byte = 0x25

	opINT  byte = 0x26
	opRETI byte = 0x27
	opCLI  byte = 0x28
	opSTI  byte = 0x29

	opLIDT byte = 0x2A
	opHLT  byte = 0x2B
	opNOP  byte = 0x2C
)

// jumpConditions maps each branch opcode to its condition.
var jumpConditions = map[byte]condition{
	opJMP: condJMP,
	opJZ:  condJZ,
	opJNZ: condJNZ,
	opJO:  condJO,
	opJNO: condJNO,
	opJS:  condJS,
	opJNS: condJNS,
	opJC:  condJC,
	opJNC: condJNC,
	opJBE: condJBE,
	opJA:  condJA,
	opJL:  condJL,
	opJGE: condJGE,
	opJLE: condJLE,
	opJG:  condJG,
}

// opcodeNames gives each opcode its mnemonic, for disassembly-on-print
// in the debug REPL.
var opcodeNames = map[byte]string{
	opADD: "ADD", opSUB: "SUB", opMUL: "MUL", opDIV: "DIV",
	opAND: "AND", opOR: "OR", opXOR: "XOR", opNOT: "NOT", opNEG: "NEG", opCMP: "CMP",
	opMOV: "MOV", opLDR: "LDR", opSTR: "STR", opLEA: "LEA",
	opPUSH: "PUSH", opPOP: "POP", opPUSHF: "PUSHF", opPOPF: "POPF",
	opJMP: "JMP", opJZ: "JZ", opJNZ: "JNZ", opJO: "JO", opJNO: "JNO",
	opJS: "JS", opJNS: "JNS", opJC: "JC", opJNC: "JNC", opJBE: "JBE",
	opJA: "JA", opJL: "JL", opJGE: "JGE", opJLE: "JLE", opJG: "JG",
	opCALL: "CALL", opRET: "RET",
	opIN: "IN", opOUT: "OUT",
	opINT: "INT", opRETI: "RETI", opCLI: "CLI", opSTI: "STI",
	opLIDT: "LIDT", opHLT: "HLT", opNOP: "NOP",
}

// MnemonicAt returns the mnemonic of the opcode byte at address addr on
// bus, or "???" if it names no known instruction.
func MnemonicAt(bus *AddressBus, addr uint64) string {
	var b [1]byte
	bus.Read(b[:], addr)
	if name, ok := opcodeNames[b[0]]; ok {
		return name
	}
	return "???"
}

// opcodeTable dispatches a fetched opcode byte to its handler. Populated
// in init so each instruction group can contribute from its own file.
var opcodeTable = map[byte]func(*CPU) fault{}

func registerOpcode(op byte, fn func(*CPU) fault) {
	if _, exists := opcodeTable[op]; exists {
		panic("engine: duplicate opcode registration")
	}
	opcodeTable[op] = fn
}
