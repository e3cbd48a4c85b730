package ir

import "fmt"

// Operand is one input slot of an instruction: either an owned Constant
// or a use-edge into a producing Value, never both. Use-edge operands
// are threaded into the producer's use-list via prev/next.
//
// Operand storage must not move once an instruction is constructed,
// because prev/next embed the operand's address; Instruction.Operands
// hands out a slice pointing at a backing array allocated once, and
// EraseOperand is the one place that shifts operands, repairing
// neighbor pointers as it does.
type Operand struct {
	isConst  bool
	constant Constant
	producer Value // non-nil iff this is a use-edge operand

	prev, next *Operand // nil unless linked into a use-list
}

// NewConstOperand builds a constant operand.
func NewConstOperand(c Constant) Operand {
	return Operand{isConst: true, constant: c}
}

// IsConst reports whether this operand holds a constant rather than a
// use-edge.
func (o *Operand) IsConst() bool { return o.isConst }

// Constant returns the constant payload. Only meaningful when IsConst.
func (o *Operand) Constant() Constant { return o.constant }

// Producer returns the value this use-edge operand references, or nil
// for a constant operand.
func (o *Operand) Producer() Value { return o.producer }

// GetType returns the constant's type, or the producer's type for a
// use-edge.
func (o *Operand) GetType() Type {
	if o.isConst {
		return o.constant.Ty
	}
	if o.producer == nil {
		return None
	}
	return o.producer.Type()
}

// reset releases any current state (unlinking from a use-list if
// necessary) and returns the operand to empty. Never stored
// persistently on its own — called as a step inside SetConst, SetUse
// and EraseOperand, and by BasicBlock.build to release the operands of
// an instruction that failed validation.
func (o *Operand) reset() {
	if !o.isConst && o.producer != nil {
		o.unlink()
	}
	o.isConst = false
	o.constant = Constant{}
	o.producer = nil
}

// unlink removes o from whatever use-list it is currently threaded into.
func (o *Operand) unlink() {
	if o.prev != nil {
		o.prev.next = o.next
	}
	if o.next != nil {
		o.next.prev = o.prev
	}
	o.prev, o.next = nil, nil
}

// SetConst switches o to hold a constant, unlinking from any previous
// use-list first.
func (o *Operand) SetConst(c Constant) {
	o.reset()
	o.isConst = true
	o.constant = c
}

// SetUse switches o to a use-edge referencing producer, unlinking from
// any previous use-list first and linking into producer's.
func (o *Operand) SetUse(producer Value) {
	o.reset()
	o.isConst = false
	o.producer = producer
	producer.valueImpl().linkUse(o)
}

// String renders the operand: the constant's text, or %<name> of the
// producer. The style argument does not change the output.
func (o *Operand) String(style Style) string {
	if o.isConst {
		return o.constant.String()
	}
	if o.producer == nil {
		return "%<empty>"
	}
	return fmt.Sprintf("%%%s", o.producer.Name())
}
