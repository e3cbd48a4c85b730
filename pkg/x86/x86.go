// Package x86 lifts decoded x86 instructions into the core SSA IR
// (package ir) via a table of per-mnemonic translator closures, emitting
// IR rather than mutating a concrete machine state.
package x86

import (
	"fmt"

	"github.com/oisee/retroir/pkg/ir"
)

// Mnemonic identifies a decoded x86 instruction's operation. A closed
// enumeration, like the core's other small tag types.
type Mnemonic uint16

const (
	NOP Mnemonic = iota
	MOV
	MOVZX
	MOVSX
	MOVSXD
	LEA
	PUSH
	POP
	MOVUPS
	MOVAPS
	MOVUPD
	MOVAPD
	MOVDQU
	MOVDQA
	ADD
	SUB
	INC
	DEC
	NEG
	OR
	AND
	XOR
	NOT
	SHR
	SHL
	SAR
	ROR
	ROL
	CMP
	TEST
	CALL
	JMP
	RET
	UD2
	INT3
	INT1

	mnemonicCount
)

var mnemonicNames = [mnemonicCount]string{
	NOP: "nop", MOV: "mov", MOVZX: "movzx", MOVSX: "movsx", MOVSXD: "movsxd",
	LEA: "lea", PUSH: "push", POP: "pop",
	MOVUPS: "movups", MOVAPS: "movaps", MOVUPD: "movupd", MOVAPD: "movapd",
	MOVDQU: "movdqu", MOVDQA: "movdqa",
	ADD: "add", SUB: "sub", INC: "inc", DEC: "dec", NEG: "neg",
	OR: "or", AND: "and", XOR: "xor", NOT: "not",
	SHR: "shr", SHL: "shl", SAR: "sar", ROR: "ror", ROL: "rol",
	CMP: "cmp", TEST: "test",
	CALL: "call", JMP: "jmp", RET: "ret",
	UD2: "ud2", INT3: "int3", INT1: "int1",
}

func (m Mnemonic) String() string {
	if m < mnemonicCount {
		return mnemonicNames[m]
	}
	return fmt.Sprintf("mnemonic(%d)", uint16(m))
}

// Reg identifies an architectural register: general-purpose registers
// by their 64-bit name, plus the six status flags, each addressable
// through read_reg/write_reg like any other register.
type Reg uint16

const (
	RegNone Reg = iota
	RegRAX
	RegRBX
	RegRCX
	RegRDX
	RegRSI
	RegRDI
	RegRBP
	RegRSP
	RegR8
	RegR9
	RegR10
	RegR11
	RegR12
	RegR13
	RegR14
	RegR15

	RegFlagCF
	RegFlagPF
	RegFlagAF
	RegFlagZF
	RegFlagSF
	RegFlagOF
)

// Attrs is a bitmask of decoder-reported instruction attributes.
type Attrs uint32

// AttrLock marks a LOCK-prefixed instruction: its read-modify-write
// must be lowered as an atomic_binop/atomic_unop against memory.
const AttrLock Attrs = 1 << 0

// OperandKind discriminates a decoded operand's storage class.
type OperandKind uint8

const (
	OperNone OperandKind = iota
	OperReg
	OperMem
	OperImm
)

// MemOperand is an x86 memory addressing mode: [seg:base + index*scale + disp].
type MemOperand struct {
	Seg      SegmentOverride
	Base     Reg
	HasBase  bool
	Index    Reg
	HasIndex bool
	Scale    uint8
	Disp     int64
}

// SegmentOverride names the segment prefix on a memory operand, mapped
// onto ir.Segment by the lifter.
type SegmentOverride uint8

const (
	SegOverrideNone SegmentOverride = iota
	SegOverrideFS
	SegOverrideGS
	SegOverrideCS
	SegOverrideDS
	SegOverrideES
	SegOverrideSS
)

// Operand is one decoded instruction operand: a register, a memory
// addressing mode, or an immediate, each carrying its own bit width
// (distinct operands of the same instruction can have different
// widths, e.g. MOVZX).
type Operand struct {
	Kind  OperandKind
	Reg   Reg
	Mem   MemOperand
	Imm   int64
	Width int // bits
}

// DecodedInsn is the disassembler's output for one machine instruction:
// mnemonic, up to four operands, the instruction's effective operand
// width, attribute flags, and the machine address it was decoded from.
type DecodedInsn struct {
	Mnemonic       Mnemonic
	Ops            [4]Operand
	OperandCount   int
	EffectiveWidth int
	Attrs          Attrs
	IP             uint64
}

// HasLock reports whether the LOCK prefix was present.
func (d *DecodedInsn) HasLock() bool { return d.Attrs&AttrLock != 0 }

// MachineDescriptor is the minimal architecture-layer interface the
// lifter depends on: pointer width/type, the stack-pointer register,
// and a general-purpose-register predicate.
type MachineDescriptor interface {
	PointerWidth() int
	PointerType() ir.Type
	StackPointer() Reg
	IsGPR(Reg) bool
}

// DefaultMachine64 is the canonical x86-64 machine descriptor: 64-bit
// pointers, RSP as the stack pointer, RAX..R15 as general-purpose.
type DefaultMachine64 struct{}

func (DefaultMachine64) PointerWidth() int    { return 64 }
func (DefaultMachine64) PointerType() ir.Type { return ir.Pointer }
func (DefaultMachine64) StackPointer() Reg    { return RegRSP }
func (DefaultMachine64) IsGPR(r Reg) bool     { return r >= RegRAX && r <= RegR15 }
