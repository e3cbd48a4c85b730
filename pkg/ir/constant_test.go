package ir

import "testing"

func TestConstantBitcastRoundTrip(t *testing.T) {
	c := NewConstant(I32, 0xdeadbeef)
	back := c.Bitcast(F32).Bitcast(I32)
	if back.Bits != c.Bits || back.Ty != c.Ty {
		t.Errorf("bitcast round trip = %v, want %v", back, c)
	}
}

func TestConstantBitcastPanicsOnSizeMismatch(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Errorf("bitcast of mismatched sizes should panic")
		}
	}()
	NewConstant(I32, 1).Bitcast(I64)
}

func TestConstantApplyAddCommutes(t *testing.T) {
	a := NewConstant(I32, 3)
	b := NewConstant(I32, 4)
	ab, ok1 := a.Apply(OpAdd, b)
	ba, ok2 := b.Apply(OpAdd, a)
	if !ok1 || !ok2 || ab != ba {
		t.Errorf("add not commutative: %v vs %v", ab, ba)
	}
	if ab.Int() != 7 {
		t.Errorf("3+4 = %d, want 7", ab.Int())
	}
}

func TestConstantApplyTruncatesToWidth(t *testing.T) {
	a := NewConstant(I8, 0xff)
	b := NewConstant(I8, 1)
	sum, ok := a.Apply(OpAdd, b)
	if !ok || sum.Uint() != 0 {
		t.Errorf("0xff+1 truncated to i8 = %d, want 0", sum.Uint())
	}
}

func TestConstantApplyMismatchedTypesFails(t *testing.T) {
	a := NewConstant(I32, 1)
	b := NewConstant(I64, 1)
	if _, ok := a.Apply(OpAdd, b); ok {
		t.Errorf("add of mismatched types should fail")
	}
}

func TestConstantApplyCompare(t *testing.T) {
	a := NewConstant(I32, 5)
	b := NewConstant(I32, 7)
	lt, ok := a.Apply(OpSlt, b)
	if !ok || lt.Ty != I1 || !lt.Bool() {
		t.Errorf("5 slt 7 should be true i1, got %v", lt)
	}
}

func TestConstantApplyUnary(t *testing.T) {
	a := NewConstant(I32, 0)
	neg, ok := a.ApplyUnary(OpNeg)
	if !ok || neg.Int() != 0 {
		t.Errorf("neg(0) = %d, want 0", neg.Int())
	}
	notv, ok := NewConstant(I8, 0).ApplyUnary(OpBitNot)
	if !ok || notv.Uint() != 0xff {
		t.Errorf("bit_not(0) as i8 = %#x, want 0xff", notv.Uint())
	}
}

func TestConstantShiftByAmountEqualToWidth(t *testing.T) {
	a := NewConstant(I32, 1)
	amt := NewConstant(I32, 32)
	if _, ok := a.Apply(OpBitShl, amt); ok {
		t.Fatalf("shl by amount >= width should decline to fold, not wrap modulo width")
	}
	if _, ok := a.Apply(OpBitShr, amt); ok {
		t.Fatalf("shr by amount >= width should decline to fold")
	}
	if _, ok := a.Apply(OpBitSar, amt); ok {
		t.Fatalf("sar by amount >= width should decline to fold")
	}
}

func TestConstantRotate(t *testing.T) {
	a := NewConstant(I8, 0x01)
	ror, ok := a.Apply(OpBitRor, NewConstant(I8, 1))
	if !ok || ror.Uint() != 0x80 {
		t.Errorf("ror(0x01, 1) as i8 = %#x, want 0x80", ror.Uint())
	}
	rol, ok := NewConstant(I8, 0x80).Apply(OpBitRol, NewConstant(I8, 1))
	if !ok || rol.Uint() != 0x01 {
		t.Errorf("rol(0x80, 1) as i8 = %#x, want 0x01", rol.Uint())
	}
}

func TestConstantCastZxAndSx(t *testing.T) {
	neg1 := NewConstant(I8, 0xff)
	zx, ok := neg1.CastZx(I32)
	if !ok || zx.Uint() != 0xff {
		t.Errorf("castzx(0xff:i8 -> i32) = %#x, want 0xff", zx.Uint())
	}
	sx, ok := neg1.CastSx(I32)
	if !ok || sx.Int() != -1 {
		t.Errorf("castsx(0xff:i8 -> i32) = %d, want -1", sx.Int())
	}
}

func TestConstantApplyUnknownOpFails(t *testing.T) {
	// Apply has no div/mod Op in this model; the folder never attempts
	// them, so this is just a guard that unknown ops cleanly fail.
	a := NewConstant(I32, 1)
	if _, ok := a.Apply(Op(200), a); ok {
		t.Errorf("unknown op should fail")
	}
}
