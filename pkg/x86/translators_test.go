package x86

import (
	"testing"

	"github.com/oisee/retroir/pkg/ir"
)

func reg32(r Reg) Operand { return Operand{Kind: OperReg, Reg: r, Width: 32} }
func imm32(v int64) Operand { return Operand{Kind: OperImm, Imm: v, Width: 32} }
func reg64(r Reg) Operand { return Operand{Kind: OperReg, Reg: r, Width: 64} }

func lift(t *testing.T, bb *ir.BasicBlock, di *DecodedInsn) {
	t.Helper()
	if err := Lift(bb, di, DefaultMachine64{}); err != nil {
		t.Fatalf("Lift(%s): %v", di.Mnemonic, err)
	}
}

// TestMOVSameRegisterElidesAsNop is the literal "MOV r, r elimination"
// scenario: MOV EAX, EAX emits nothing.
func TestMOVSameRegisterElidesAsNop(t *testing.T) {
	bb := ir.NewBasicBlock("entry")
	di := &DecodedInsn{Mnemonic: MOV, EffectiveWidth: 32, OperandCount: 2}
	di.Ops[0], di.Ops[1] = reg32(RegRAX), reg32(RegRAX)
	lift(t, bb, di)

	if n := len(bb.Insns()); n != 0 {
		t.Errorf("MOV eax, eax should emit no IR, got %d instructions", n)
	}
}

// TestXORSelfZeroIdiom is the literal "XOR self zero idiom" scenario:
// six write_reg for flags followed by write_reg EAX, const i32 0.
func TestXORSelfZeroIdiom(t *testing.T) {
	bb := ir.NewBasicBlock("entry")
	di := &DecodedInsn{Mnemonic: XOR, EffectiveWidth: 32, OperandCount: 2}
	di.Ops[0], di.Ops[1] = reg32(RegRAX), reg32(RegRAX)
	lift(t, bb, di)

	insns := bb.Insns()
	if len(insns) != 7 {
		t.Fatalf("XOR eax, eax should emit 7 write_reg instructions, got %d", len(insns))
	}
	for i, ins := range insns {
		if ins.Opcode() != ir.OpWriteReg {
			t.Fatalf("instruction %d should be write_reg, got %s", i, ins.Opcode())
		}
	}
	last := insns[len(insns)-1]
	regOperand, valOperand := last.Operands()[0], last.Operands()[1]
	if !regOperand.IsConst() || ir.RegID(regOperand.Constant().Uint()) != ir.RegID(RegRAX) {
		t.Errorf("final write_reg should target RAX, got %v", regOperand)
	}
	if !valOperand.IsConst() || valOperand.Constant().Int() != 0 {
		t.Errorf("final write_reg should store const i32 0, got %v", valOperand)
	}

	wantFlags := []Reg{RegFlagSF, RegFlagZF, RegFlagPF, RegFlagOF, RegFlagCF, RegFlagAF}
	wantBool := []bool{false, true, true, false, false, false}
	for i, wantReg := range wantFlags {
		regOp := insns[i].Operands()[0]
		if ir.RegID(regOp.Constant().Uint()) != ir.RegID(wantReg) {
			t.Errorf("flag write %d targets reg %v, want %v", i, regOp.Constant().Uint(), wantReg)
		}
		val := insns[i].Operands()[1].Constant().Bool()
		if val != wantBool[i] {
			t.Errorf("flag write %d = %v, want %v", i, val, wantBool[i])
		}
	}
}

// TestPushPopRoundTrip is the literal "PUSH RAX then POP RAX round-trip"
// scenario: net SP change zero, the pop emits a load_mem, and the value
// the push stores is the read_reg of RAX.
func TestPushPopRoundTrip(t *testing.T) {
	bb := ir.NewBasicBlock("entry")
	push := &DecodedInsn{Mnemonic: PUSH, EffectiveWidth: 64, OperandCount: 1}
	push.Ops[0] = reg64(RegRAX)
	lift(t, bb, push)

	pop := &DecodedInsn{Mnemonic: POP, EffectiveWidth: 64, OperandCount: 1}
	pop.Ops[0] = reg64(RegRAX)
	lift(t, bb, pop)

	var storeVal ir.Operand
	var spDeltas []int64
	for _, ins := range bb.Insns() {
		switch ins.Opcode() {
		case ir.OpStoreMem:
			storeVal = ins.Operands()[2]
		case ir.OpBinop:
			ops := ins.Operands()
			op := ir.Op(ops[0].Constant().Uint())
			if rhs := ops[2]; rhs.IsConst() {
				delta := rhs.Constant().Int()
				if op == ir.OpSub {
					spDeltas = append(spDeltas, -delta)
				} else if op == ir.OpAdd {
					spDeltas = append(spDeltas, delta)
				}
			}
		}
	}
	hasLoad := false
	for _, ins := range bb.Insns() {
		if ins.Opcode() == ir.OpLoadMem {
			hasLoad = true
		}
	}
	if !hasLoad {
		t.Fatalf("pop should emit a load_mem")
	}

	net := int64(0)
	for _, d := range spDeltas {
		net += d
	}
	if net != 0 {
		t.Errorf("net SP change across push+pop = %d, want 0", net)
	}

	// The pushed value is the read_reg of RAX, not a constant.
	if storeVal.IsConst() || storeVal.Producer() == nil {
		t.Errorf("stored value should reference the read_reg(RAX) producer")
	} else if rd, ok := storeVal.Producer().(*ir.Instruction); !ok || rd.Opcode() != ir.OpReadReg ||
		ir.RegID(rd.Operands()[0].Constant().Uint()) != ir.RegID(RegRAX) {
		t.Errorf("stored value should reference the read_reg(RAX) producer")
	}
}

// TestValidationRejectsMismatchedTypes is the literal "validation
// rejects mismatched types" scenario.
func TestValidationRejectsMismatchedTypes(t *testing.T) {
	bb := ir.NewBasicBlock("entry")
	_, err := bb.PushBinop(ir.OpAdd, ir.I32, ir.NewConstant(ir.I32, 1), ir.NewConstant(ir.I64, 1))
	if err == nil {
		t.Fatalf("binop(add) with template i32 but an i64 operand should fail validation")
	}
	mismatch, ok := err.(*ir.OperandTypeMismatchError)
	if !ok {
		t.Fatalf("error should be *ir.OperandTypeMismatchError, got %T", err)
	}
	if mismatch.Index != 2 || mismatch.Expected != ir.I32 || mismatch.Actual != ir.I64 {
		t.Errorf("mismatch = %+v, want index=2 expected=i32 actual=i64", mismatch)
	}
}

func TestADDSetsFlagsAndWritesBack(t *testing.T) {
	bb := ir.NewBasicBlock("entry")
	di := &DecodedInsn{Mnemonic: ADD, EffectiveWidth: 32, OperandCount: 2}
	di.Ops[0], di.Ops[1] = reg32(RegRAX), imm32(5)
	lift(t, bb, di)

	var wroteCF, wroteOF, wroteDst bool
	for _, ins := range bb.Insns() {
		if ins.Opcode() != ir.OpWriteReg {
			continue
		}
		regOp := ins.Operands()[0]
		switch ir.RegID(regOp.Constant().Uint()) {
		case ir.RegID(RegRAX):
			wroteDst = true
		case ir.RegID(RegFlagCF):
			wroteCF = true
		case ir.RegID(RegFlagOF):
			wroteOF = true
			if ins.Operands()[1].Producer() == nil {
				t.Fatalf("OF write should reference a poison value")
			}
			if ins.Operands()[1].Producer().(*ir.Instruction).Opcode() != ir.OpPoison {
				t.Errorf("OF should be poison for ADD, got %s", ins.Operands()[1].Producer().(*ir.Instruction).Opcode())
			}
		}
	}
	if !wroteCF || !wroteOF {
		t.Errorf("ADD should write both CF and OF: wroteCF=%v wroteOF=%v", wroteCF, wroteOF)
	}
	if !wroteDst {
		t.Errorf("ADD should write its result back to EAX")
	}
}

func TestShiftLeavesAllFlagsPoison(t *testing.T) {
	bb := ir.NewBasicBlock("entry")
	di := &DecodedInsn{Mnemonic: SHL, EffectiveWidth: 32, OperandCount: 2}
	di.Ops[0], di.Ops[1] = reg32(RegRAX), imm32(1)
	lift(t, bb, di)

	flags := []Reg{RegFlagCF, RegFlagOF, RegFlagSF, RegFlagZF, RegFlagPF, RegFlagAF}
	seen := map[Reg]bool{}
	for _, ins := range bb.Insns() {
		if ins.Opcode() != ir.OpWriteReg {
			continue
		}
		regOp := ins.Operands()[0]
		for _, f := range flags {
			if ir.RegID(regOp.Constant().Uint()) == ir.RegID(f) {
				producer, ok := ins.Operands()[1].Producer().(*ir.Instruction)
				if !ok || producer.Opcode() != ir.OpPoison {
					t.Errorf("flag %v should be written from a poison value", f)
				}
				seen[f] = true
			}
		}
	}
	for _, f := range flags {
		if !seen[f] {
			t.Errorf("shift should write flag %v", f)
		}
	}
}

func TestLiftUnhandledMnemonicReturnsDistinctDiagnostic(t *testing.T) {
	bb := ir.NewBasicBlock("entry")
	di := &DecodedInsn{Mnemonic: Mnemonic(9999)}
	err := Lift(bb, di, DefaultMachine64{})
	if err == nil {
		t.Fatalf("lifting an unregistered mnemonic should fail")
	}
}

func TestLookupReportsRegisteredMnemonics(t *testing.T) {
	if _, ok := Lookup(ADD); !ok {
		t.Errorf("ADD should be registered")
	}
	if _, ok := Lookup(Mnemonic(9999)); ok {
		t.Errorf("an out-of-range mnemonic should not be registered")
	}
}
