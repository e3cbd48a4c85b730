package x86

import (
	"github.com/oisee/retroir/pkg/ir"
)

// Context is everything a translator needs: the decoded instruction
// being lowered, the block it appends IR to, and the machine
// descriptor it reads pointer/register facts from.
type Context struct {
	Ins  *DecodedInsn
	BB   *ir.BasicBlock
	Mach MachineDescriptor
}

func toSegment(s SegmentOverride) ir.Segment {
	switch s {
	case SegOverrideFS:
		return ir.SegFS
	case SegOverrideGS:
		return ir.SegGS
	case SegOverrideCS:
		return ir.SegCS
	case SegOverrideDS:
		return ir.SegDS
	case SegOverrideES:
		return ir.SegES
	case SegOverrideSS:
		return ir.SegSS
	default:
		return ir.SegNone
	}
}

// valueType returns the IR type of an operand argument, which is either
// an ir.Constant or an ir.Value (always *ir.Instruction in this core).
func valueType(v any) ir.Type {
	switch t := v.(type) {
	case ir.Constant:
		return t.Ty
	case ir.Value:
		return t.Type()
	default:
		panic("x86: value of unexpected type in lifter")
	}
}

// readReg reads reg at type ty.
func readReg(ctx *Context, reg Reg, ty ir.Type) (any, error) {
	ins, err := ctx.BB.PushReadReg(ty, ir.RegID(reg))
	if err != nil {
		return nil, err
	}
	return ins, nil
}

// writeReg writes val into reg, inferring the write's type from val.
func writeReg(ctx *Context, reg Reg, val any) error {
	_, err := ctx.BB.PushWriteReg(valueType(val), ir.RegID(reg), val)
	return err
}

// writeRegBool writes a literal i1 constant into reg — the shorthand
// the source uses for flag assignments like push_write_reg(flag_sf, false).
func writeRegBool(ctx *Context, reg Reg, b bool) error {
	bit := uint64(0)
	if b {
		bit = 1
	}
	return writeReg(ctx, reg, ir.NewConstant(ir.I1, bit))
}

// agen computes the effective address of a memory operand and returns
// it alongside its resolved segment.
func agen(ctx *Context, mem MemOperand) (any, ir.Segment, error) {
	ptrTy := ctx.Mach.PointerType()
	var addr any = ir.NewConstant(ptrTy, 0)
	haveBase := false

	if mem.HasBase {
		base, err := readReg(ctx, mem.Base, ptrTy)
		if err != nil {
			return nil, ir.SegNone, err
		}
		addr = base
		haveBase = true
	}
	if mem.HasIndex {
		idx, err := readReg(ctx, mem.Index, ptrTy)
		if err != nil {
			return nil, ir.SegNone, err
		}
		scale := uint64(mem.Scale)
		if scale == 0 {
			scale = 1
		}
		scaled, err := ctx.BB.PushBinop(ir.OpMul, ptrTy, idx, ir.NewConstant(ptrTy, scale))
		if err != nil {
			return nil, ir.SegNone, err
		}
		if haveBase {
			sum, err := ctx.BB.PushBinop(ir.OpAdd, ptrTy, addr, scaled)
			if err != nil {
				return nil, ir.SegNone, err
			}
			addr = sum
		} else {
			addr = scaled
			haveBase = true
		}
	}
	if mem.Disp != 0 {
		sum, err := ctx.BB.PushBinop(ir.OpAdd, ptrTy, addr, ir.NewConstant(ptrTy, uint64(mem.Disp)))
		if err != nil {
			return nil, ir.SegNone, err
		}
		addr = sum
	}
	return addr, toSegment(mem.Seg), nil
}

// read abstracts over reg/mem/imm operand storage, always producing a
// value of type ty regardless of the operand's own decoded width.
func read(ctx *Context, idx int, ty ir.Type) (any, error) {
	op := ctx.Ins.Ops[idx]
	switch op.Kind {
	case OperReg:
		return readReg(ctx, op.Reg, ty)
	case OperMem:
		addr, seg, err := agen(ctx, op.Mem)
		if err != nil {
			return nil, err
		}
		return ctx.BB.PushLoadMem(ty, seg, addr)
	case OperImm:
		return ir.NewConstant(ty, uint64(op.Imm)), nil
	default:
		panic("x86: read of empty operand")
	}
}

// write abstracts over reg/mem operand storage.
func write(ctx *Context, idx int, val any) error {
	op := ctx.Ins.Ops[idx]
	switch op.Kind {
	case OperReg:
		return writeReg(ctx, op.Reg, val)
	case OperMem:
		addr, seg, err := agen(ctx, op.Mem)
		if err != nil {
			return err
		}
		_, err = ctx.BB.PushStoreMem(valueType(val), seg, addr, val)
		return err
	default:
		panic("x86: write to empty operand")
	}
}

// opWidth returns the decoded width (bits) of operand idx.
func opWidth(ctx *Context, idx int) int { return ctx.Ins.Ops[idx].Width }

// --- Flag setters -----------------------------------------------------
//
// AF/SF/ZF/PF are computed as real IR expressions over the symbolic
// result (and, for AF, the two operands); OF stays poison for the
// add/sub family and every flag stays poison for shifts/rotates — those
// are architecturally expensive or condition-dependent to model and are
// left as explicit unmodeled constructs rather than guessed at.

func setSF(ctx *Context, ty ir.Type, result any) error {
	sf, err := ctx.BB.PushCmp(ir.OpSlt, ty, result, ir.NewConstant(ty, 0))
	if err != nil {
		return err
	}
	return writeReg(ctx, RegFlagSF, sf)
}

func setZF(ctx *Context, ty ir.Type, result any) error {
	zf, err := ctx.BB.PushCmp(ir.OpEq, ty, result, ir.NewConstant(ty, 0))
	if err != nil {
		return err
	}
	return writeReg(ctx, RegFlagZF, zf)
}

// setPF computes the parity of the low byte of result via an XOR-fold
// tree (byte ^= byte>>4; byte ^= byte>>2; byte ^= byte>>1; PF = ~byte&1),
// the textbook bit-twiddling parity check, and writes it to flag_pf.
func setPF(ctx *Context, ty ir.Type, result any) error {
	lo, err := ctx.BB.PushCast(ir.I8, result)
	if err != nil {
		return err
	}
	var v any = lo
	for _, shift := range []uint64{4, 2, 1} {
		shifted, err := ctx.BB.PushBinop(ir.OpBitShr, ir.I8, v, ir.NewConstant(ir.I8, shift))
		if err != nil {
			return err
		}
		v, err = ctx.BB.PushBinop(ir.OpBitXor, ir.I8, v, shifted)
		if err != nil {
			return err
		}
	}
	masked, err := ctx.BB.PushBinop(ir.OpBitAnd, ir.I8, v, ir.NewConstant(ir.I8, 1))
	if err != nil {
		return err
	}
	pf, err := ctx.BB.PushCmp(ir.OpEq, ir.I8, masked, ir.NewConstant(ir.I8, 0))
	if err != nil {
		return err
	}
	return writeReg(ctx, RegFlagPF, pf)
}

// setAF computes the auxiliary carry flag from the classic bit-4 carry
// formula ((lhs ^ rhs ^ result) >> 4) & 1.
func setAF(ctx *Context, ty ir.Type, lhs, rhs, result any) error {
	x, err := ctx.BB.PushBinop(ir.OpBitXor, ty, lhs, rhs)
	if err != nil {
		return err
	}
	y, err := ctx.BB.PushBinop(ir.OpBitXor, ty, x, result)
	if err != nil {
		return err
	}
	shifted, err := ctx.BB.PushBinop(ir.OpBitShr, ty, y, ir.NewConstant(ty, 4))
	if err != nil {
		return err
	}
	bit4, err := ctx.BB.PushBinop(ir.OpBitAnd, ty, shifted, ir.NewConstant(ty, 1))
	if err != nil {
		return err
	}
	af, err := ctx.BB.PushCmp(ir.OpNe, ty, bit4, ir.NewConstant(ty, 0))
	if err != nil {
		return err
	}
	return writeReg(ctx, RegFlagAF, af)
}

func setAFUnary(ctx *Context, ty ir.Type, lhs, result any) error {
	return setAF(ctx, ty, lhs, ir.NewConstant(ty, 0), result)
}

// setCommonArith updates AF, SF, ZF, PF from result (and lhs/rhs for AF)
// — the flag set every ADD/SUB/INC/DEC/CMP path shares.
func setCommonArith(ctx *Context, ty ir.Type, lhs, rhs, result any) error {
	if err := setAF(ctx, ty, lhs, rhs, result); err != nil {
		return err
	}
	if err := setSF(ctx, ty, result); err != nil {
		return err
	}
	if err := setZF(ctx, ty, result); err != nil {
		return err
	}
	return setPF(ctx, ty, result)
}

// setFlagsLogical implements the shared AND/OR/XOR/TEST flag policy:
// CF and OF are cleared, SF/ZF/PF come from the result, AF is left
// poison (architecturally undefined after a logical op).
func setFlagsLogical(ctx *Context, ty ir.Type, result any) error {
	if err := writeRegBool(ctx, RegFlagCF, false); err != nil {
		return err
	}
	if err := writeRegBool(ctx, RegFlagOF, false); err != nil {
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
	poison, err := ctx.BB.PushPoison(ir.I1, "logical op - AF undefined")
	if err != nil {
		return err
	}
	return writeReg(ctx, RegFlagAF, poison)
}

// poisonFlag writes an i1 poison tagged with reason into reg.
func poisonFlag(ctx *Context, reg Reg, reason string) error {
	p, err := ctx.BB.PushPoison(ir.I1, reason)
	if err != nil {
		return err
	}
	return writeReg(ctx, reg, p)
}
