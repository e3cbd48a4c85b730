package ir

import (
	"strings"

	"github.com/fatih/color"
)

// Style selects how much detail to_string renders. Concise is used for
// nested operand references (just the producer's name); Full is the
// default one-line-per-instruction SSA dump.
type Style int

const (
	StyleFull Style = iota
	StyleConcise
)

var (
	sideEffectColor = color.New(color.FgMagenta, color.Bold)
	constColor      = color.New(color.FgCyan)
	nameColor       = color.New(color.FgYellow)
)

// String renders the instruction as one SSA line:
// %<name> = <opcode>[.<tt0>[.<tt1>]] <op0>, <op1>, …
// Side-effecting opcodes get their mnemonic colored; constant operands
// get their literal colored. Concise style omits the "%name = " prefix.
func (ins *Instruction) String(style Style) string {
	info := ins.op.Desc()

	var b strings.Builder
	if style == StyleFull {
		b.WriteString(nameColor.Sprintf("%%%s", ins.Name()))
		b.WriteString(" = ")
	}

	mnemonic := info.Name
	if info.SideEffects {
		mnemonic = sideEffectColor.Sprint(mnemonic)
	}
	b.WriteString(mnemonic)

	for i := 0; i < info.TemplateCount; i++ {
		b.WriteString(".")
		b.WriteString(ins.templateTypes[i].String())
	}

	for i, op := range ins.operands {
		if i == 0 {
			b.WriteString(" ")
		} else {
			b.WriteString(", ")
		}
		if op.IsConst() {
			b.WriteString(constColor.Sprint(op.String(StyleConcise)))
		} else {
			b.WriteString(op.String(StyleConcise))
		}
	}
	return b.String()
}
