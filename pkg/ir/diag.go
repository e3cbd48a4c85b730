package ir

import (
	"fmt"

	"github.com/pkg/errors"
)

// Sentinel error kinds, checked with errors.Is, carrying positional
// fields for insn_operand_type_mismatch and insn_constexpr_mismatch.
var (
	ErrOperandTypeMismatch = errors.New("insn_operand_type_mismatch")
	ErrConstexprMismatch   = errors.New("insn_constexpr_mismatch")
	ErrUnhandledMnemonic   = errors.New("unhandled mnemonic")
)

// OperandTypeMismatchError carries the detail of a failed operand type
// check: the offending operand index, the type the descriptor expected,
// and the type actually found.
type OperandTypeMismatchError struct {
	Index    int
	Expected Type
	Actual   Type
	Insn     string
}

func (e *OperandTypeMismatchError) Error() string {
	return fmt.Sprintf("expected operand #%d to be of type '%s', got '%s' instead: %s",
		e.Index, e.Expected, e.Actual, e.Insn)
}

func (e *OperandTypeMismatchError) Unwrap() error { return ErrOperandTypeMismatch }

// ConstexprMismatchError carries the detail of a failed constexpr check:
// an operand index that must hold a constant but doesn't.
type ConstexprMismatchError struct {
	Index int
	Got   string
	Insn  string
}

func (e *ConstexprMismatchError) Error() string {
	return fmt.Sprintf("expected operand #%d to be constexpr got '%s' instead: %s",
		e.Index, e.Got, e.Insn)
}

func (e *ConstexprMismatchError) Unwrap() error { return ErrConstexprMismatch }

// WithAddress wraps err with the originating machine address, the
// contextual metadata a translator adds before surfacing a builder
// diagnostic, per the error-propagation design.
func WithAddress(err error, ip uint64) error {
	if err == nil {
		return nil
	}
	if ip == NoLabel {
		return err
	}
	return errors.Wrapf(err, "at ip=%#x", ip)
}
