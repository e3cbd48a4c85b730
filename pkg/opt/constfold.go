// Package opt implements local, single-block IR optimization passes.
package opt

import "github.com/oisee/retroir/pkg/ir"

// folded marks an instruction's TmpMonotonic scratch word once ConstFold
// has rewired its uses, so a later call over the same block treats it as
// already reduced instead of re-folding operands that are still constant.
const folded = 1

// ConstFold walks bb in instruction order and evaluates every
// instruction whose operands are all constant, rewiring its uses to the
// resulting constant (or, for select, to whichever branch operand the
// constant condition picks). It does not erase the now-dead
// instruction itself — dead-code elimination is a separate pass. A
// folded instruction is marked via its TmpMonotonic scratch word so a
// repeat call treats it as already reduced rather than refolding its
// still-constant operands. Returns the number of rewrites performed,
// counting both the fold itself and the use-edges it rewired.
//
// Folding is confluent: each rewrite strictly reduces the
// operand-producer graph (a folded constant has no use-edges of its
// own), so iteration order within the block doesn't affect the final
// result.
func ConstFold(bb *ir.BasicBlock) int {
	n := 0
	for _, ins := range bb.Insns() {
		if ins.TmpMonotonic == folded {
			continue
		}
		switch ins.Opcode() {
		case ir.OpBinop, ir.OpCmp:
			ops := ins.Operands()
			opc, lhs, rhs := ops[0], ops[1], ops[2]
			if !lhs.IsConst() || !rhs.IsConst() {
				continue
			}
			if res, ok := lhs.Constant().Apply(ir.Op(opc.Constant().Uint()), rhs.Constant()); ok {
				n += 1 + ir.ReplaceAllUsesWithConstant(ins, res)
				ins.TmpMonotonic = folded
			}

		case ir.OpUnop:
			ops := ins.Operands()
			opc, lhs := ops[0], ops[1]
			if !lhs.IsConst() {
				continue
			}
			if res, ok := lhs.Constant().ApplyUnary(ir.Op(opc.Constant().Uint())); ok {
				n += 1 + ir.ReplaceAllUsesWithConstant(ins, res)
				ins.TmpMonotonic = folded
			}

		case ir.OpCast:
			val := ins.Operands()[0]
			if !val.IsConst() {
				continue
			}
			if res, ok := val.Constant().CastZx(ins.TemplateTypes()[1]); ok {
				n += 1 + ir.ReplaceAllUsesWithConstant(ins, res)
				ins.TmpMonotonic = folded
			}

		case ir.OpCastSx:
			val := ins.Operands()[0]
			if !val.IsConst() {
				continue
			}
			if res, ok := val.Constant().CastSx(ins.TemplateTypes()[1]); ok {
				n += 1 + ir.ReplaceAllUsesWithConstant(ins, res)
				ins.TmpMonotonic = folded
			}

		case ir.OpBitcast:
			val := ins.Operands()[0]
			if !val.IsConst() {
				continue
			}
			// Bitcast panics on a storage-size mismatch and the bitcast
			// descriptor does not check sizes, so a mismatched bitcast is
			// left unfolded.
			to := ins.TemplateTypes()[1]
			if val.Constant().Ty.StorageBits() != to.StorageBits() {
				continue
			}
			res := val.Constant().Bitcast(to)
			n += 1 + ir.ReplaceAllUsesWithConstant(ins, res)
			ins.TmpMonotonic = folded

		case ir.OpSelect:
			cond := ins.Operands()[0]
			if !cond.IsConst() {
				continue
			}
			idx := 2
			if cond.Constant().Bool() {
				idx = 1
			}
			n += 1 + replaceWithOperand(ins, ins.Operands()[idx])
			ins.TmpMonotonic = folded
		}
	}
	return n
}

// replaceWithOperand rewires every use of ins to whatever branch holds
// — a constant, or another value's use-edge — and returns the count
// replaced.
func replaceWithOperand(ins *ir.Instruction, op ir.Operand) int {
	if op.IsConst() {
		return ir.ReplaceAllUsesWithConstant(ins, op.Constant())
	}
	return ir.ReplaceAllUsesWithValue(ins, op.Producer())
}
