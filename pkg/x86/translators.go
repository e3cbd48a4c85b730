package x86

import "github.com/oisee/retroir/pkg/ir"

func init() {
	register(NOP, transNOP)
	register(MOV, transMOV)
	register(MOVZX, transMOVZX)
	register(MOVSX, transMOVSX)
	register(MOVSXD, transMOVSX)
	register(LEA, transLEA)
	register(PUSH, transPUSH)
	register(POP, transPOP)
	register(MOVUPS, vectorMove(ir.F32x4))
	register(MOVAPS, vectorMove(ir.F32x4))
	register(MOVUPD, vectorMove(ir.F64x2))
	register(MOVAPD, vectorMove(ir.F64x2))
	register(MOVDQU, vectorMove(ir.I32x4))
	register(MOVDQA, vectorMove(ir.I32x4))
	register(ADD, transADD)
	register(SUB, transSUB)
	register(INC, transINC)
	register(DEC, transDEC)
	register(NEG, transNEG)
	register(OR, logical(ir.OpBitOr))
	register(AND, logical(ir.OpBitAnd))
	register(XOR, transXOR)
	register(NOT, transNOT)
	register(SHR, shift(ir.OpBitShr, "Shift"))
	register(SHL, shift(ir.OpBitShl, "Shift"))
	register(SAR, shift(ir.OpBitSar, "Shift"))
	register(ROR, shift(ir.OpBitRor, "Rotate"))
	register(ROL, shift(ir.OpBitRol, "Rotate"))
	register(CMP, transCMP)
	register(TEST, transTEST)
	register(CALL, transCALL)
	register(JMP, transJMP)
	register(RET, transRET)
	register(UD2, trap("ud2"))
	register(INT3, trap("int3"))
	register(INT1, trap("int1"))
}

func sameReg(a, b Operand) bool {
	return a.Kind == OperReg && b.Kind == OperReg && a.Reg == b.Reg
}

func transNOP(ctx *Context) error { return nil }

// MOV r, r (identical register) <=> nop.
func transMOV(ctx *Context) error {
	ins := ctx.Ins
	if sameReg(ins.Ops[0], ins.Ops[1]) {
		return nil
	}
	ty := ir.IntType(ins.EffectiveWidth)
	v, err := read(ctx, 1, ty)
	if err != nil {
		return err
	}
	return write(ctx, 0, v)
}

// MOVZX / MOVSX / MOVSXD: read and widen at source width (t1) rather
// than the destination operand's declared width.
func transMOVZX(ctx *Context) error {
	t1 := ir.IntType(opWidth(ctx, 1))
	v, err := read(ctx, 1, t1)
	if err != nil {
		return err
	}
	casted, err := ctx.BB.PushCast(t1, v)
	if err != nil {
		return err
	}
	return write(ctx, 0, casted)
}

func transMOVSX(ctx *Context) error {
	t1 := ir.IntType(opWidth(ctx, 1))
	v, err := read(ctx, 1, t1)
	if err != nil {
		return err
	}
	casted, err := ctx.BB.PushSignExtend(t1, v)
	if err != nil {
		return err
	}
	return write(ctx, 0, casted)
}

// LEA dst, [base] with no index/disp and dst == base <=> nop. Otherwise
// compute the effective address and write it into dst.
func transLEA(ctx *Context) error {
	ins := ctx.Ins
	mem := ins.Ops[1].Mem
	if ins.Ops[0].Kind == OperReg && !mem.HasIndex && mem.Disp == 0 {
		if mem.HasBase && mem.Base == ins.Ops[0].Reg {
			return nil
		}
	}
	ptr, _, err := agen(ctx, mem)
	if err != nil {
		return err
	}
	return writeReg(ctx, ins.Ops[0].Reg, ptr)
}

func pushDelta(ctx *Context, effectiveWidth int) uint64 {
	if effectiveWidth == 16 {
		return 2
	}
	return uint64(ctx.Mach.PointerWidth() / 8)
}

// PUSH v: SP -= delta; store v at the new SP.
func transPUSH(ctx *Context) error {
	ins := ctx.Ins
	rsp := ctx.Mach.StackPointer()
	pty := ctx.Mach.PointerType()
	ty := ir.IntType(ins.EffectiveWidth)
	delta := pushDelta(ctx, ins.EffectiveWidth)

	prevSP, err := readReg(ctx, rsp, pty)
	if err != nil {
		return err
	}
	val, err := read(ctx, 0, ty)
	if err != nil {
		return err
	}
	newSP, err := ctx.BB.PushBinop(ir.OpSub, pty, prevSP, ir.NewConstant(pty, delta))
	if err != nil {
		return err
	}
	if err := writeReg(ctx, rsp, newSP); err != nil {
		return err
	}
	addr, err := ctx.BB.PushCast(ir.Pointer, newSP)
	if err != nil {
		return err
	}
	_, err = ctx.BB.PushStoreMem(ty, ir.SegNone, addr, val)
	return err
}

// POP dst: load from SP, write dst, then SP += delta. The read happens
// before the SP update so a fault from the load isn't masked.
func transPOP(ctx *Context) error {
	ins := ctx.Ins
	rsp := ctx.Mach.StackPointer()
	pty := ctx.Mach.PointerType()
	ty := ir.IntType(ins.EffectiveWidth)
	delta := pushDelta(ctx, ins.EffectiveWidth)

	prevSP, err := readReg(ctx, rsp, pty)
	if err != nil {
		return err
	}
	addr, err := ctx.BB.PushCast(ir.Pointer, prevSP)
	if err != nil {
		return err
	}
	val, err := ctx.BB.PushLoadMem(ty, ir.SegNone, addr)
	if err != nil {
		return err
	}
	newSP, err := ctx.BB.PushBinop(ir.OpAdd, pty, prevSP, ir.NewConstant(pty, delta))
	if err != nil {
		return err
	}
	if err := writeReg(ctx, rsp, newSP); err != nil {
		return err
	}
	return write(ctx, 0, val)
}

// vectorMove builds a translator for the MOV{U,A}{PS,PD}/MOVDQ{U,A}
// family: a plain transfer at a fixed vector type, alignment-agnostic.
func vectorMove(ty ir.Type) Translator {
	return func(ctx *Context) error {
		v, err := read(ctx, 1, ty)
		if err != nil {
			return err
		}
		return write(ctx, 0, v)
	}
}

// arithBinop is the LOCK-aware read-modify-write shared by ADD/SUB/INC/DEC
// and the OR/AND/XOR logical ops. It returns the pre-image operand ("lhs",
// the atomic RMW's returned prior value when LOCKed) and the computed
// result.
func arithBinop(ctx *Context, op ir.Op, ty ir.Type, rhs any) (lhs, result any, err error) {
	ins := ctx.Ins
	if ins.HasLock() {
		addr, seg, err := agen(ctx, ins.Ops[0].Mem)
		if err != nil {
			return nil, nil, err
		}
		lhs, err = ctx.BB.PushAtomicBinop(op, ty, seg, addr, rhs)
		if err != nil {
			return nil, nil, err
		}
		result, err = ctx.BB.PushBinop(op, ty, lhs, rhs)
		return lhs, result, err
	}
	lhs, err = read(ctx, 0, ty)
	if err != nil {
		return nil, nil, err
	}
	result, err = ctx.BB.PushBinop(op, ty, lhs, rhs)
	if err != nil {
		return nil, nil, err
	}
	if err := write(ctx, 0, result); err != nil {
		return nil, nil, err
	}
	return lhs, result, nil
}

func transADD(ctx *Context) error {
	ty := ir.IntType(ctx.Ins.EffectiveWidth)
	rhs, err := read(ctx, 1, ty)
	if err != nil {
		return err
	}
	lhs, result, err := arithBinop(ctx, ir.OpAdd, ty, rhs)
	if err != nil {
		return err
	}
	if err := setCommonArith(ctx, ty, lhs, rhs, result); err != nil {
		return err
	}
	if err := poisonFlag(ctx, RegFlagOF, "ADD - Overflow flag NYI"); err != nil {
		return err
	}
	c0, err := ctx.BB.PushCmp(ir.OpUlt, ty, result, lhs)
	if err != nil {
		return err
	}
	c1, err := ctx.BB.PushCmp(ir.OpUlt, ty, result, rhs)
	if err != nil {
		return err
	}
	cf, err := ctx.BB.PushBinop(ir.OpBitOr, ir.I1, c0, c1)
	if err != nil {
		return err
	}
	return writeReg(ctx, RegFlagCF, cf)
}

func transSUB(ctx *Context) error {
	ty := ir.IntType(ctx.Ins.EffectiveWidth)
	rhs, err := read(ctx, 1, ty)
	if err != nil {
		return err
	}
	lhs, result, err := arithBinop(ctx, ir.OpSub, ty, rhs)
	if err != nil {
		return err
	}
	if err := setCommonArith(ctx, ty, lhs, rhs, result); err != nil {
		return err
	}
	if err := poisonFlag(ctx, RegFlagOF, "SUB - Overflow flag NYI"); err != nil {
		return err
	}
	cf, err := ctx.BB.PushCmp(ir.OpUlt, ty, lhs, rhs)
	if err != nil {
		return err
	}
	return writeReg(ctx, RegFlagCF, cf)
}

func transINC(ctx *Context) error {
	ty := ir.IntType(ctx.Ins.EffectiveWidth)
	rhs := ir.NewConstant(ty, 1)
	lhs, result, err := arithBinop(ctx, ir.OpAdd, ty, rhs)
	if err != nil {
		return err
	}
	if err := setCommonArith(ctx, ty, lhs, rhs, result); err != nil {
		return err
	}
	return poisonFlag(ctx, RegFlagOF, "INC - Overflow flag NYI")
}

func transDEC(ctx *Context) error {
	ty := ir.IntType(ctx.Ins.EffectiveWidth)
	rhs := ir.NewConstant(ty, 1)
	lhs, result, err := arithBinop(ctx, ir.OpSub, ty, rhs)
	if err != nil {
		return err
	}
	if err := setCommonArith(ctx, ty, lhs, rhs, result); err != nil {
		return err
	}
	return poisonFlag(ctx, RegFlagOF, "SUB - Overflow flag NYI")
}

func transNEG(ctx *Context) error {
	ins := ctx.Ins
	ty := ir.IntType(ins.EffectiveWidth)

	var lhs, result any
	var err error
	if ins.HasLock() {
		addr, seg, aerr := agen(ctx, ins.Ops[0].Mem)
		if aerr != nil {
			return aerr
		}
		lhs, err = ctx.BB.PushAtomicUnop(ir.OpNeg, ty, seg, addr)
		if err != nil {
			return err
		}
		result, err = ctx.BB.PushUnop(ir.OpNeg, ty, lhs)
	} else {
		lhs, err = read(ctx, 0, ty)
		if err != nil {
			return err
		}
		result, err = ctx.BB.PushUnop(ir.OpNeg, ty, lhs)
		if err != nil {
			return err
		}
		err = write(ctx, 0, result)
	}
	if err != nil {
		return err
	}

	if err := setAFUnary(ctx, ty, lhs, result); err != nil {
		return err
	}
	if err := setSF(ctx, ty, result); err != nil {
		return err
	}
	if err := setZF(ctx, ty, result); err != nil {
		return err
	}
	if err := setPF(ctx, ty, result); err != nil {
		return err
	}
	cf, err := ctx.BB.PushCmp(ir.OpNe, ty, lhs, ir.NewConstant(ty, 0))
	if err != nil {
		return err
	}
	if err := writeReg(ctx, RegFlagCF, cf); err != nil {
		return err
	}
	return poisonFlag(ctx, RegFlagOF, "SUB/NEG - Overflow flag NYI")
}

// logical builds the shared OR/AND translator: LOCK-aware binop plus
// the logical flag policy.
func logical(op ir.Op) Translator {
	return func(ctx *Context) error {
		ty := ir.IntType(ctx.Ins.EffectiveWidth)
		rhs, err := read(ctx, 1, ty)
		if err != nil {
			return err
		}
		_, result, err := arithBinop(ctx, op, ty, rhs)
		if err != nil {
			return err
		}
		return setFlagsLogical(ctx, ty, result)
	}
}

// XOR r, r (identical register) <=> mov r, 0 plus the fixed flag
// assignment the zeroing idiom implies, with no IR emitted for the xor
// itself.
func transXOR(ctx *Context) error {
	ins := ctx.Ins
	if sameReg(ins.Ops[0], ins.Ops[1]) {
		if err := writeRegBool(ctx, RegFlagSF, false); err != nil {
			return err
		}
		if err := writeRegBool(ctx, RegFlagZF, true); err != nil {
			return err
		}
		if err := writeRegBool(ctx, RegFlagPF, true); err != nil {
			return err
		}
		if err := writeRegBool(ctx, RegFlagOF, false); err != nil {
			return err
		}
		if err := writeRegBool(ctx, RegFlagCF, false); err != nil {
			return err
		}
		if err := writeRegBool(ctx, RegFlagAF, false); err != nil {
			return err
		}
		ty := ir.IntType(ins.EffectiveWidth)
		return writeReg(ctx, ins.Ops[0].Reg, ir.NewConstant(ty, 0))
	}
	return logical(ir.OpBitXor)(ctx)
}

func transNOT(ctx *Context) error {
	ins := ctx.Ins
	ty := ir.IntType(ins.EffectiveWidth)
	var result any
	var err error
	if ins.HasLock() {
		addr, seg, aerr := agen(ctx, ins.Ops[0].Mem)
		if aerr != nil {
			return aerr
		}
		lhs, aerr := ctx.BB.PushAtomicUnop(ir.OpBitNot, ty, seg, addr)
		if aerr != nil {
			return aerr
		}
		result, err = ctx.BB.PushUnop(ir.OpBitNot, ty, lhs)
	} else {
		lhs, lerr := read(ctx, 0, ty)
		if lerr != nil {
			return lerr
		}
		result, err = ctx.BB.PushUnop(ir.OpBitNot, ty, lhs)
		if err != nil {
			return err
		}
		err = write(ctx, 0, result)
	}
	return err
}

// shift builds the shared SHR/SHL/SAR/ROR/ROL translator: compute and
// write back, then leave every affected flag poison — their exact
// x86 semantics (undefined for count >= width, condition-dependent
// otherwise) are unmodeled here.
func shift(op ir.Op, family string) Translator {
	return func(ctx *Context) error {
		ty := ir.IntType(ctx.Ins.EffectiveWidth)
		rhs, err := read(ctx, 1, ty)
		if err != nil {
			return err
		}
		lhs, err := read(ctx, 0, ty)
		if err != nil {
			return err
		}
		result, err := ctx.BB.PushBinop(op, ty, lhs, rhs)
		if err != nil {
			return err
		}
		if err := write(ctx, 0, result); err != nil {
			return err
		}

		// CF: last bit shifted out; undefined when count >= width.
		// OF: defined only for 1-bit shifts, undefined otherwise.
		// SF/ZF/PF: set from the result when count != 0, else unaffected.
		// AF: undefined for a non-zero count.
		// None of this is modeled; every flag here is poison.
		for _, f := range []struct {
			reg    Reg
			reason string
		}{
			{RegFlagCF, family + " - Carry flag NYI"},
			{RegFlagOF, family + " - Overflow flag NYI"},
			{RegFlagSF, family + " - Sign flag NYI"},
			{RegFlagZF, family + " - Zero flag NYI"},
			{RegFlagPF, family + " - Parity flag NYI"},
			{RegFlagAF, family + " - Auxiliary carry flag NYI"},
		} {
			if err := poisonFlag(ctx, f.reg, f.reason); err != nil {
				return err
			}
		}
		return nil
	}
}

func transCMP(ctx *Context) error {
	ty := ir.IntType(ctx.Ins.EffectiveWidth)
	lhs, err := read(ctx, 0, ty)
	if err != nil {
		return err
	}
	rhs, err := read(ctx, 1, ty)
	if err != nil {
		return err
	}
	result, err := ctx.BB.PushBinop(ir.OpSub, ty, lhs, rhs)
	if err != nil {
		return err
	}
	if err := setCommonArith(ctx, ty, lhs, rhs, result); err != nil {
		return err
	}
	if err := poisonFlag(ctx, RegFlagOF, "SUB - Overflow flag NYI"); err != nil {
		return err
	}
	cf, err := ctx.BB.PushCmp(ir.OpUlt, ty, lhs, rhs)
	if err != nil {
		return err
	}
	return writeReg(ctx, RegFlagCF, cf)
}

func transTEST(ctx *Context) error {
	ty := ir.IntType(ctx.Ins.EffectiveWidth)
	lhs, err := read(ctx, 0, ty)
	if err != nil {
		return err
	}
	rhs, err := read(ctx, 1, ty)
	if err != nil {
		return err
	}
	result, err := ctx.BB.PushBinop(ir.OpBitAnd, ty, lhs, rhs)
	if err != nil {
		return err
	}
	return setFlagsLogical(ctx, ty, result)
}

func transCALL(ctx *Context) error {
	target, err := read(ctx, 0, ir.Pointer)
	if err != nil {
		return err
	}
	_, err = ctx.BB.PushXCall(target)
	return err
}

func transJMP(ctx *Context) error {
	target, err := read(ctx, 0, ir.Pointer)
	if err != nil {
		return err
	}
	_, err = ctx.BB.PushXJmp(target)
	return err
}

// RET [imm16]: SP += imm before emitting the ret terminator.
func transRET(ctx *Context) error {
	ins := ctx.Ins
	if ins.OperandCount != 0 {
		rsp := ctx.Mach.StackPointer()
		pty := ctx.Mach.PointerType()
		prevSP, err := readReg(ctx, rsp, pty)
		if err != nil {
			return err
		}
		newSP, err := ctx.BB.PushBinop(ir.OpAdd, pty, prevSP, ir.NewConstant(pty, uint64(ins.Ops[0].Imm)))
		if err != nil {
			return err
		}
		if err := writeReg(ctx, rsp, newSP); err != nil {
			return err
		}
	}
	_, err := ctx.BB.PushRet()
	return err
}

func trap(tag string) Translator {
	return func(ctx *Context) error {
		_, err := ctx.BB.PushTrap(tag)
		return err
	}
}
