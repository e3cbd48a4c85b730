package ir

import "testing"

func TestOperandSetConstAndSetUse(t *testing.T) {
	bb := NewBasicBlock("entry")
	v0, _ := bb.PushBinop(OpAdd, I32, NewConstant(I32, 1), NewConstant(I32, 2))

	var op Operand
	op.SetConst(NewConstant(I32, 5))
	if !op.IsConst() || op.Constant().Int() != 5 {
		t.Fatalf("SetConst failed: %v", op)
	}

	op.SetUse(v0)
	if op.IsConst() {
		t.Fatalf("operand should no longer be const after SetUse")
	}
	if op.Producer() != Value(v0) {
		t.Fatalf("operand producer should be v0")
	}
	if v0.UseCount() != 1 {
		t.Fatalf("v0.UseCount() = %d, want 1", v0.UseCount())
	}

	// Switching back to const must unlink from v0's use-list.
	op.SetConst(NewConstant(I32, 9))
	if v0.UseCount() != 0 {
		t.Errorf("v0.UseCount() = %d, want 0 after operand switched to const", v0.UseCount())
	}
}

func TestOperandGetType(t *testing.T) {
	bb := NewBasicBlock("entry")
	v0, _ := bb.PushBinop(OpAdd, I32, NewConstant(I32, 1), NewConstant(I32, 2))

	var constOp Operand
	constOp.SetConst(NewConstant(I64, 1))
	if constOp.GetType() != I64 {
		t.Errorf("const operand GetType() = %s, want i64", constOp.GetType())
	}

	var useOp Operand
	useOp.SetUse(v0)
	if useOp.GetType() != I32 {
		t.Errorf("use operand GetType() = %s, want i32 (producer's type)", useOp.GetType())
	}
}
