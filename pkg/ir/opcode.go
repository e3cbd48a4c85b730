package ir

import "fmt"

// Opcode identifies the kind of an Instruction. The opcode descriptor
// table (opcodeInfo, built in this file's init) is the single source of
// truth every other component queries for typing, validation, and
// printing — instructions carry no per-kind fields beyond the generic
// operand array and template types.
type Opcode uint8

const (
	OpBinop Opcode = iota
	OpUnop
	OpCmp
	OpCast
	OpCastSx
	OpBitcast
	OpSelect
	OpLoadMem
	OpStoreMem
	OpReadReg
	OpWriteReg
	OpAtomicBinop
	OpAtomicUnop
	OpXCall
	OpXJmp
	OpRet
	OpTrap
	OpPoison

	opcodeCount
)

// Slot describes the expected type of one result/operand position in an
// opcode's schema: either a concrete Type, or a back-reference into the
// instruction's own template_types[ref-1].
type Slot struct {
	Concrete Type
	TplRef   int // 0 = use Concrete; 1 or 2 = template_types[TplRef-1]
}

func tpl(n int) Slot       { return Slot{TplRef: n} }
func concrete(t Type) Slot { return Slot{Concrete: t} }

// Resolve returns the slot's actual type given an instruction's
// template types.
func (s Slot) Resolve(templateTypes [2]Type) Type {
	if s.TplRef != 0 {
		return templateTypes[s.TplRef-1]
	}
	return s.Concrete
}

// Info is the static metadata for one opcode: name, side-effect flag,
// operand schema, template count, and which operand indices must be
// compile-time constants.
type Info struct {
	Name          string
	SideEffects   bool
	Result        Slot
	Operands      []Slot
	TemplateCount int
	Constexprs    []int // 0-based operand indices
}

var opcodeInfo [opcodeCount]Info

func init() {
	seg := concrete(I8)  // segment register enum, stored as a small int constant
	reg := concrete(I16) // register enum, stored as a small int constant
	aop := concrete(I8)  // arithmetic/compare Op enum, stored as a small int constant

	opcodeInfo[OpBinop] = Info{
		Name: "binop", Result: tpl(1),
		Operands:      []Slot{aop, tpl(1), tpl(1)},
		TemplateCount: 1, Constexprs: []int{0},
	}
	opcodeInfo[OpUnop] = Info{
		Name: "unop", Result: tpl(1),
		Operands:      []Slot{aop, tpl(1)},
		TemplateCount: 1, Constexprs: []int{0},
	}
	opcodeInfo[OpCmp] = Info{
		Name: "cmp", Result: concrete(I1),
		Operands:      []Slot{aop, tpl(1), tpl(1)},
		TemplateCount: 1, Constexprs: []int{0},
	}
	opcodeInfo[OpCast] = Info{
		Name: "cast", Result: tpl(2),
		Operands:      []Slot{tpl(1)},
		TemplateCount: 2,
	}
	opcodeInfo[OpCastSx] = Info{
		Name: "cast_sx", Result: tpl(2),
		Operands:      []Slot{tpl(1)},
		TemplateCount: 2,
	}
	opcodeInfo[OpBitcast] = Info{
		Name: "bitcast", Result: tpl(2),
		Operands:      []Slot{tpl(1)},
		TemplateCount: 2,
	}
	opcodeInfo[OpSelect] = Info{
		Name: "select", Result: tpl(1),
		Operands:      []Slot{concrete(I1), tpl(1), tpl(1)},
		TemplateCount: 1,
	}
	opcodeInfo[OpLoadMem] = Info{
		Name: "load_mem", Result: tpl(1), SideEffects: true,
		Operands:      []Slot{seg, concrete(Pointer)},
		TemplateCount: 1,
	}
	opcodeInfo[OpStoreMem] = Info{
		Name: "store_mem", Result: concrete(None), SideEffects: true,
		Operands:      []Slot{seg, concrete(Pointer), tpl(1)},
		TemplateCount: 1,
	}
	opcodeInfo[OpReadReg] = Info{
		Name: "read_reg", Result: tpl(1), SideEffects: true,
		Operands:      []Slot{reg},
		TemplateCount: 1, Constexprs: []int{0},
	}
	opcodeInfo[OpWriteReg] = Info{
		Name: "write_reg", Result: concrete(None), SideEffects: true,
		Operands:      []Slot{reg, tpl(1)},
		TemplateCount: 1, Constexprs: []int{0},
	}
	opcodeInfo[OpAtomicBinop] = Info{
		Name: "atomic_binop", Result: tpl(1), SideEffects: true,
		Operands:      []Slot{aop, seg, concrete(Pointer), tpl(1)},
		TemplateCount: 1, Constexprs: []int{0},
	}
	opcodeInfo[OpAtomicUnop] = Info{
		Name: "atomic_unop", Result: tpl(1), SideEffects: true,
		Operands:      []Slot{aop, seg, concrete(Pointer)},
		TemplateCount: 1, Constexprs: []int{0},
	}
	opcodeInfo[OpXCall] = Info{
		Name: "xcall", Result: concrete(None), SideEffects: true,
		Operands: []Slot{concrete(Pointer)},
	}
	opcodeInfo[OpXJmp] = Info{
		Name: "xjmp", Result: concrete(None), SideEffects: true,
		Operands: []Slot{concrete(Pointer)},
	}
	opcodeInfo[OpRet] = Info{
		Name: "ret", Result: concrete(None), SideEffects: true,
		Operands: []Slot{concrete(Pack)},
	}
	opcodeInfo[OpTrap] = Info{
		Name: "trap", Result: concrete(None), SideEffects: true,
		Operands:   []Slot{concrete(Str)},
		Constexprs: []int{0},
	}
	opcodeInfo[OpPoison] = Info{
		Name: "poison", Result: tpl(1), SideEffects: true,
		Operands:      []Slot{concrete(Str)},
		TemplateCount: 1, Constexprs: []int{0},
	}

	for op := Opcode(0); op < opcodeCount; op++ {
		if opcodeInfo[op].Name == "" {
			panic(fmt.Sprintf("ir: opcode %d missing descriptor", op))
		}
	}
}

// Desc returns the opcode descriptor.
func (op Opcode) Desc() *Info { return &opcodeInfo[op] }

func (op Opcode) String() string {
	if op < opcodeCount {
		return opcodeInfo[op].Name
	}
	return fmt.Sprintf("opcode(%d)", uint8(op))
}
