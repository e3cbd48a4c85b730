package x86

import (
	"github.com/pkg/errors"

	"github.com/oisee/retroir/pkg/ir"
)

// Translator lowers one decoded instruction into IR appended to ctx.BB.
type Translator func(ctx *Context) error

var table = map[Mnemonic]Translator{}

func register(m Mnemonic, t Translator) { table[m] = t }

// Lookup returns the translator registered for m, if any — exposed so
// callers (and tests) can check mnemonic coverage without attempting a
// lift.
func Lookup(m Mnemonic) (Translator, bool) {
	t, ok := table[m]
	return t, ok
}

// Lift looks up di's mnemonic and runs its translator against bb. Every
// instruction the translator appends is tagged with di.IP. An
// unregistered mnemonic produces a distinctive "unhandled" diagnostic
// rather than aborting — per the lifter's dispatch contract, missing
// coverage must never crash the caller.
func Lift(bb *ir.BasicBlock, di *DecodedInsn, mach MachineDescriptor) error {
	t, ok := table[di.Mnemonic]
	if !ok {
		return ir.WithAddress(errors.Wrapf(ir.ErrUnhandledMnemonic, "mnemonic %s", di.Mnemonic), di.IP)
	}
	mark := bb.Back()
	ctx := &Context{Ins: di, BB: bb, Mach: mach}
	if err := t(ctx); err != nil {
		return ir.WithAddress(err, di.IP)
	}
	tagAddresses(bb, mark, di.IP)
	return nil
}

func tagAddresses(bb *ir.BasicBlock, mark *ir.Instruction, ip uint64) {
	start := bb.Front()
	if mark != nil {
		start = mark.Next()
	}
	for ins := start; ins != nil; ins = ins.Next() {
		ins.SetIP(ip)
	}
}
