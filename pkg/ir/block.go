package ir

import "fmt"

// Segment identifies an x86 segment-register override (or its absence)
// carried as a constexpr operand by load_mem/store_mem/atomic_*
// instructions. Kept in ir rather than x86 so the core stays
// architecture-labeled-but-agnostic: the lifter maps its own register
// file onto these small integers.
type Segment uint8

const (
	SegNone Segment = iota
	SegFS
	SegGS
	SegCS
	SegDS
	SegES
	SegSS
)

// RegID identifies an architectural register, carried as a constexpr
// operand by read_reg/write_reg instructions. The lifter's register
// file assigns the concrete numbering; the core only ever treats it as
// an opaque small integer.
type RegID uint16

// BasicBlock owns an ordered, doubly-linked list of instructions and
// hands out fresh monotonic names as instructions are appended. The
// list is intrusive on Instruction.prev/next (rather than a slice of
// pointers) so erasing an instruction from the middle of a block is
// O(1), per the erase-and-relink contract builder methods rely on.
type BasicBlock struct {
	Label string

	head, tail *Instruction
	nextName   uint64
}

// NewBasicBlock creates an empty block.
func NewBasicBlock(label string) *BasicBlock {
	return &BasicBlock{Label: label}
}

// Front returns the first instruction, or nil if empty.
func (b *BasicBlock) Front() *Instruction { return b.head }

// Back returns the last instruction, or nil if empty.
func (b *BasicBlock) Back() *Instruction { return b.tail }

// Insns returns the block's instructions in order. O(n); intended for
// iteration by passes and printers, not for hot-path traversal (walk
// Front()/.Next() directly for that).
func (b *BasicBlock) Insns() []*Instruction {
	out := make([]*Instruction, 0, 8)
	for ins := b.head; ins != nil; ins = ins.next {
		out = append(out, ins)
	}
	return out
}

// Next returns the instruction following ins in its block, or nil.
func (ins *Instruction) Next() *Instruction { return ins.next }

// Prev returns the instruction preceding ins in its block, or nil.
func (ins *Instruction) Prev() *Instruction { return ins.prev }

// listUnlink detaches ins from its owning block's instruction list,
// repairing the block's head/tail as needed. Caller clears ins.block.
func listUnlink(ins *Instruction) {
	b := ins.block
	if ins.prev != nil {
		ins.prev.next = ins.next
	} else {
		b.head = ins.next
	}
	if ins.next != nil {
		ins.next.prev = ins.prev
	} else {
		b.tail = ins.prev
	}
	ins.prev, ins.next = nil, nil
}

// pushBack appends ins at the tail, assigns it to b, and gives it a
// fresh monotonic name.
func (b *BasicBlock) pushBack(ins *Instruction) {
	ins.block = b
	ins.prev = b.tail
	ins.next = nil
	if b.tail != nil {
		b.tail.next = ins
	} else {
		b.head = ins
	}
	b.tail = ins
	ins.name = fmt.Sprintf("%x", b.nextName)
	b.nextName++
}

// build allocates an instruction of the given opcode and operand count,
// assigns template types and operands, validates eagerly, and — only on
// success — appends it to the block. A validation failure leaves the
// block untouched and returns the error for the caller (typically an
// x86 translator) to wrap with WithAddress and propagate. SetOperands
// already linked any use-edge operands into their producers' use-lists,
// so a failed instruction — never inserted, about to be discarded — has
// its operands reset first; otherwise the producer would be left
// holding a use-list entry for an instruction that doesn't exist.
func (b *BasicBlock) build(op Opcode, n int, tt0, tt1 Type, args ...any) (*Instruction, error) {
	ins := newInstruction(op, n)
	ins.templateTypes[0] = tt0
	ins.templateTypes[1] = tt1
	ins.SetOperands(0, args...)
	if err := ins.Validate(); err != nil {
		for i := range ins.operands {
			ins.operands[i].reset()
		}
		return nil, err
	}
	b.pushBack(ins)
	return ins, nil
}

func opConst(op Op) Constant { return NewConstant(I8, uint64(op)) }
func segConst(s Segment) Constant { return NewConstant(I8, uint64(s)) }
func regConst(r RegID) Constant { return NewConstant(I16, uint64(r)) }

// argType returns the IR type of a builder argument, which is always
// either a Constant or a Value (in practice *Instruction).
func argType(a any) Type {
	switch v := a.(type) {
	case Constant:
		return v.Ty
	case Value:
		return v.Type()
	default:
		panic(fmt.Sprintf("ir: operand argument has unexpected type %T", a))
	}
}

// PushBinop appends a two-operand arithmetic/bitwise instruction.
func (b *BasicBlock) PushBinop(op Op, ty Type, lhs, rhs any) (*Instruction, error) {
	return b.build(OpBinop, 3, ty, None, opConst(op), lhs, rhs)
}

// PushUnop appends a one-operand arithmetic/bitwise instruction.
func (b *BasicBlock) PushUnop(op Op, ty Type, val any) (*Instruction, error) {
	return b.build(OpUnop, 2, ty, None, opConst(op), val)
}

// PushCmp appends a comparison, always producing i1.
func (b *BasicBlock) PushCmp(op Op, ty Type, lhs, rhs any) (*Instruction, error) {
	return b.build(OpCmp, 3, ty, None, opConst(op), lhs, rhs)
}

// PushCast appends a zero-extending/truncating cast of val to `to`; the
// source type is inferred from val rather than taken as a parameter.
func (b *BasicBlock) PushCast(to Type, val any) (*Instruction, error) {
	return b.build(OpCast, 1, argType(val), to, val)
}

// PushSignExtend appends a sign-extending cast of val to `to`.
func (b *BasicBlock) PushSignExtend(to Type, val any) (*Instruction, error) {
	return b.build(OpCastSx, 1, argType(val), to, val)
}

// PushBitcast appends a same-size reinterpret cast of val to `to`.
func (b *BasicBlock) PushBitcast(to Type, val any) (*Instruction, error) {
	return b.build(OpBitcast, 1, argType(val), to, val)
}

// PushSelect appends a ternary select of type ty.
func (b *BasicBlock) PushSelect(ty Type, cond, tval, fval any) (*Instruction, error) {
	return b.build(OpSelect, 3, ty, None, cond, tval, fval)
}

// PushLoadMem appends a memory load of type ty through segment seg at addr.
func (b *BasicBlock) PushLoadMem(ty Type, seg Segment, addr any) (*Instruction, error) {
	return b.build(OpLoadMem, 2, ty, None, segConst(seg), addr)
}

// PushStoreMem appends a memory store of val (type ty) through segment
// seg at addr.
func (b *BasicBlock) PushStoreMem(ty Type, seg Segment, addr, val any) (*Instruction, error) {
	return b.build(OpStoreMem, 3, ty, None, segConst(seg), addr, val)
}

// PushReadReg appends a register read of type ty from reg.
func (b *BasicBlock) PushReadReg(ty Type, reg RegID) (*Instruction, error) {
	return b.build(OpReadReg, 1, ty, None, regConst(reg))
}

// PushWriteReg appends a register write of val (type ty) into reg.
func (b *BasicBlock) PushWriteReg(ty Type, reg RegID, val any) (*Instruction, error) {
	return b.build(OpWriteReg, 2, ty, None, regConst(reg), val)
}

// PushAtomicBinop appends a LOCK-prefixed atomic read-modify-write of
// type ty through segment seg at addr.
func (b *BasicBlock) PushAtomicBinop(op Op, ty Type, seg Segment, addr, val any) (*Instruction, error) {
	return b.build(OpAtomicBinop, 4, ty, None, opConst(op), segConst(seg), addr, val)
}

// PushAtomicUnop appends a LOCK-prefixed atomic unary read-modify-write
// of type ty through segment seg at addr.
func (b *BasicBlock) PushAtomicUnop(op Op, ty Type, seg Segment, addr any) (*Instruction, error) {
	return b.build(OpAtomicUnop, 3, ty, None, opConst(op), segConst(seg), addr)
}

// PushXCall appends an external call to target.
func (b *BasicBlock) PushXCall(target any) (*Instruction, error) {
	return b.build(OpXCall, 1, None, None, target)
}

// PushXJmp appends an external jump to target.
func (b *BasicBlock) PushXJmp(target any) (*Instruction, error) {
	return b.build(OpXJmp, 1, None, None, target)
}

// PushRet appends a return carrying zero or more values; the operand
// schema is a variadic Pack, so there is no fixed arity.
func (b *BasicBlock) PushRet(vals ...any) (*Instruction, error) {
	return b.build(OpRet, len(vals), None, None, vals...)
}

// PushTrap appends an unconditional trap tagged with a diagnostic string.
func (b *BasicBlock) PushTrap(tag string) (*Instruction, error) {
	return b.build(OpTrap, 1, None, None, NewStrConstant(tag))
}

// PushPoison appends a poison value of type ty, tagged with a string
// naming the unmodeled construct it stands in for.
func (b *BasicBlock) PushPoison(ty Type, tag string) (*Instruction, error) {
	return b.build(OpPoison, 1, ty, None, NewStrConstant(tag))
}
