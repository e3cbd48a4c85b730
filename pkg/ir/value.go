package ir

// Value is anything that can produce a result consumed by Operands. The
// only concrete Value in this core is *Instruction; the interface exists
// so the use-def graph is expressed against an abstraction rather than a
// concrete type.
type Value interface {
	Type() Type
	Name() string
	valueImpl() *valueBase
}

// valueBase is embedded by every Value implementation. It holds the
// name and the head-sentinel of the intrusive use-list: every Operand
// currently holding a use-edge to this value is threaded into the list
// rooted at head.
type valueBase struct {
	ty   Type
	name string

	// head is the use-list sentinel. head.prev/head.next never represent
	// a real operand; they close the ring. An empty use-list has
	// head.prev == head.next == &head.
	head Operand
}

func (v *valueBase) init(ty Type) {
	v.ty = ty
	v.head.prev = &v.head
	v.head.next = &v.head
}

func (v *valueBase) Type() Type   { return v.ty }
func (v *valueBase) Name() string { return v.name }

func (v *valueBase) valueImpl() *valueBase { return v }

// linkUse inserts op at the front of v's use-list. op must not already
// be linked anywhere.
func (v *valueBase) linkUse(op *Operand) {
	head := &v.head
	op.next = head.next
	op.prev = head
	head.next.prev = op
	head.next = op
}

// UseCount returns the number of operands currently using v, by walking
// the use-list. O(uses), per the design notes.
func (v *valueBase) UseCount() int {
	n := 0
	for cur := v.head.next; cur != &v.head; cur = cur.next {
		n++
	}
	return n
}

// ReplaceAllUsesWithValue rewires every operand in v's use-list to
// reference other instead, and returns the count replaced. v's use-list
// is empty afterward.
func ReplaceAllUsesWithValue(v Value, other Value) int {
	vb := v.valueImpl()
	ob := other.valueImpl()
	n := 0
	cur := vb.head.next
	for cur != &vb.head {
		next := cur.next
		cur.prev, cur.next = nil, nil
		cur.isConst = false
		cur.constant = Constant{}
		cur.producer = other
		ob.linkUse(cur)
		n++
		cur = next
	}
	vb.head.prev = &vb.head
	vb.head.next = &vb.head
	return n
}

// ReplaceAllUsesWithConstant rewires every operand in v's use-list to
// become a constant operand holding c, and returns the count replaced.
func ReplaceAllUsesWithConstant(v Value, c Constant) int {
	vb := v.valueImpl()
	n := 0
	cur := vb.head.next
	for cur != &vb.head {
		next := cur.next
		cur.prev, cur.next = nil, nil
		cur.producer = nil
		cur.isConst = true
		cur.constant = c
		n++
		cur = next
	}
	vb.head.prev = &vb.head
	vb.head.next = &vb.head
	return n
}
