package ir

import "testing"

func TestTypeBits(t *testing.T) {
	cases := []struct {
		ty   Type
		bits int
	}{
		{I1, 1}, {I8, 8}, {I16, 16}, {I32, 32}, {I64, 64}, {I128, 128},
		{F32, 32}, {F64, 64}, {Pointer, 0}, {I32x4, 0},
	}
	for _, c := range cases {
		if got := c.ty.Bits(); got != c.bits {
			t.Errorf("%s.Bits() = %d, want %d", c.ty, got, c.bits)
		}
	}
}

func TestTypeStorageBits(t *testing.T) {
	if got := I32x4.StorageBits(); got != 128 {
		t.Errorf("I32x4.StorageBits() = %d, want 128", got)
	}
	if got := I32.StorageBits(); got != 32 {
		t.Errorf("I32.StorageBits() = %d, want 32", got)
	}
}

func TestTypePredicates(t *testing.T) {
	if !I32.IsInt() || I32.IsFloat() || I32.IsVector() {
		t.Errorf("I32 predicates wrong")
	}
	if !F64.IsFloat() || F64.IsInt() {
		t.Errorf("F64 predicates wrong")
	}
	if !F32x4.IsVector() {
		t.Errorf("F32x4 should be a vector type")
	}
}

func TestIntType(t *testing.T) {
	cases := map[int]Type{1: I1, 8: I8, 16: I16, 32: I32, 64: I64, 128: I128}
	for bits, want := range cases {
		if got := IntType(bits); got != want {
			t.Errorf("IntType(%d) = %s, want %s", bits, got, want)
		}
	}
}

func TestIntTypePanicsOnUnsupportedWidth(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Errorf("IntType(17) should panic")
		}
	}()
	IntType(17)
}

func TestOpcodeDescriptorCompleteness(t *testing.T) {
	for op := Opcode(0); op < opcodeCount; op++ {
		info := op.Desc()
		if info.Name == "" {
			t.Errorf("opcode %d has no descriptor", op)
		}
	}
}
