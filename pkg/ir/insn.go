package ir

import "fmt"

// NoLabel is the sentinel "synthetic, no originating machine address"
// instruction pointer.
const NoLabel uint64 = ^uint64(0)

// Instruction is an SSA node: an opcode, up to two template types
// parameterizing polymorphic opcodes, an operand array, and membership
// in a basic block's instruction list. Instructions carry no per-kind
// fields beyond this — the opcode descriptor table (opcode.go) alone
// drives typing, validation, and printing.
type Instruction struct {
	valueBase

	op            Opcode
	templateTypes [2]Type
	operands      []Operand

	ip uint64 // originating machine address, or NoLabel

	block      *BasicBlock
	prev, next *Instruction

	// Scratch words reserved for pass algorithms; not an invariant.
	TmpMonotonic uint64
	TmpMapping   uint64
}

// newInstruction allocates an instruction with n operand slots, all
// initially empty. Operand storage is a single slice allocated here and
// never reallocated for the life of the instruction (EraseOperand
// shifts slots in place rather than growing/shrinking the backing
// array), so operand addresses are stable for as long as the caller
// doesn't erase operands out from under a held pointer.
func newInstruction(op Opcode, n int) *Instruction {
	ins := &Instruction{op: op, operands: make([]Operand, n)}
	ins.valueBase.init(None)
	return ins
}

// Opcode returns the instruction's opcode.
func (ins *Instruction) Opcode() Opcode { return ins.op }

// TemplateTypes returns the instruction's (up to two) template type
// parameters.
func (ins *Instruction) TemplateTypes() [2]Type { return ins.templateTypes }

// Type overrides valueBase.Type: the result type is resolved from the
// opcode descriptor, either a fixed schema type or a template
// back-reference.
func (ins *Instruction) Type() Type {
	return ins.op.Desc().Result.Resolve(ins.templateTypes)
}

// Operands returns the operand slice. Mutating elements through this
// slice (other than via SetOperands/EraseOperand) bypasses use-list
// bookkeeping and must not be done directly.
func (ins *Instruction) Operands() []Operand { return ins.operands }

// OperandCount returns the current number of operand slots.
func (ins *Instruction) OperandCount() int { return len(ins.operands) }

// Block returns the owning basic block, or nil if orphan.
func (ins *Instruction) Block() *BasicBlock { return ins.block }

// IP returns the originating machine address, or NoLabel.
func (ins *Instruction) IP() uint64 { return ins.ip }

// SetIP tags the instruction with an originating machine address.
func (ins *Instruction) SetIP(ip uint64) { ins.ip = ip }

// IsOrphan reports whether the instruction is detached from any block.
// block == nil and list-detachment always move together: this method is
// simply a named accessor for that single source of truth.
func (ins *Instruction) IsOrphan() bool { return ins.block == nil }

// SetOperands assigns successive operands starting at idx, each either a
// Constant or a Value (producer use-edge). An empty tail is a legal
// no-op — the base case of the recursive assignment.
func (ins *Instruction) SetOperands(idx int, args ...any) {
	if len(args) == 0 {
		return
	}
	ins.setOperandArg(idx, args[0])
	ins.SetOperands(idx+1, args[1:]...)
}

func (ins *Instruction) setOperandArg(idx int, a any) {
	switch v := a.(type) {
	case Constant:
		ins.operands[idx].SetConst(v)
	case Value:
		ins.operands[idx].SetUse(v)
	default:
		panic(fmt.Sprintf("ir: SetOperands: invalid argument type %T", a))
	}
}

// EraseOperand removes operand i, shifting the tail left and repairing
// the use-list neighbor pointers of every shifted use-edge operand.
// Constants need no repair.
func (ins *Instruction) EraseOperand(i int) {
	ops := ins.operands
	n := len(ops)
	ops[i].reset()
	if i != n-1 {
		copy(ops[i:n-1], ops[i+1:n])
		for j := i; j < n-1; j++ {
			op := &ops[j]
			if !op.isConst {
				if op.prev != nil {
					op.prev.next = op
				}
				if op.next != nil {
					op.next.prev = op
				}
			}
		}
	}
	ins.operands = ops[:n-1]
}

// Erase detaches the instruction from its owning block's list.
// Precondition: not already orphan. Ownership returns to the caller.
// Its operands are not reset: use-edge operands stay linked into their
// producers' use-lists.
func (ins *Instruction) Erase() *Instruction {
	if ins.IsOrphan() {
		panic("ir: erase of orphan instruction")
	}
	listUnlink(ins)
	ins.block = nil
	return ins
}

// Validate compares each operand's type against the descriptor's
// expected type (resolving template references) and checks that every
// constexpr-index operand is a constant. Returns the first violation,
// or nil. A Pack schema entry aborts validation of the operands from
// that point on — they are untyped/variadic.
func (ins *Instruction) Validate() error {
	info := ins.op.Desc()
	n := len(info.Operands)
	if n > len(ins.operands) {
		n = len(ins.operands)
	}
	for i := 0; i < n; i++ {
		schema := info.Operands[i]
		if schema.TplRef == 0 && schema.Concrete == Pack {
			break
		}
		want := schema.Resolve(ins.templateTypes)
		got := ins.operands[i].GetType()
		if got != want {
			return &OperandTypeMismatchError{
				Index: i, Expected: want, Actual: got, Insn: ins.String(StyleFull),
			}
		}
	}
	for _, idx := range info.Constexprs {
		if idx >= len(ins.operands) || !ins.operands[idx].IsConst() {
			got := "<missing>"
			if idx < len(ins.operands) {
				got = ins.operands[idx].String(StyleConcise)
			}
			return &ConstexprMismatchError{Index: idx, Got: got, Insn: ins.String(StyleFull)}
		}
	}
	return nil
}
