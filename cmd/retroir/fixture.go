package main

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/oisee/retroir/pkg/x86"
)

// The fixture format is one instruction per line: a mnemonic, then
// zero or more comma-separated operands (a register name or an
// immediate). Blank lines and lines starting with ";" are ignored.
//
//	mov eax, ebx
//	add eax, 5
//	xor ecx, ecx
//	ret

type regName struct {
	reg   x86.Reg
	width int
}

var registerNames = map[string]regName{
	"eax": {x86.RegRAX, 32}, "ebx": {x86.RegRBX, 32}, "ecx": {x86.RegRCX, 32}, "edx": {x86.RegRDX, 32},
	"esi": {x86.RegRSI, 32}, "edi": {x86.RegRDI, 32}, "ebp": {x86.RegRBP, 32}, "esp": {x86.RegRSP, 32},
	"rax": {x86.RegRAX, 64}, "rbx": {x86.RegRBX, 64}, "rcx": {x86.RegRCX, 64}, "rdx": {x86.RegRDX, 64},
	"rsi": {x86.RegRSI, 64}, "rdi": {x86.RegRDI, 64}, "rbp": {x86.RegRBP, 64}, "rsp": {x86.RegRSP, 64},
	"ax": {x86.RegRAX, 16}, "bx": {x86.RegRBX, 16}, "cx": {x86.RegRCX, 16}, "dx": {x86.RegRDX, 16},
}

var mnemonicNames = map[string]x86.Mnemonic{
	"nop": x86.NOP, "mov": x86.MOV, "movzx": x86.MOVZX, "movsx": x86.MOVSX, "movsxd": x86.MOVSXD,
	"lea": x86.LEA, "push": x86.PUSH, "pop": x86.POP,
	"add": x86.ADD, "sub": x86.SUB, "inc": x86.INC, "dec": x86.DEC, "neg": x86.NEG,
	"or": x86.OR, "and": x86.AND, "xor": x86.XOR, "not": x86.NOT,
	"shr": x86.SHR, "shl": x86.SHL, "sar": x86.SAR, "ror": x86.ROR, "rol": x86.ROL,
	"cmp": x86.CMP, "test": x86.TEST,
	"call": x86.CALL, "jmp": x86.JMP, "ret": x86.RET,
	"ud2": x86.UD2, "int3": x86.INT3, "int1": x86.INT1,
}

func parseOperand(tok string) (x86.Operand, error) {
	tok = strings.TrimSpace(tok)
	if rn, ok := registerNames[strings.ToLower(tok)]; ok {
		return x86.Operand{Kind: x86.OperReg, Reg: rn.reg, Width: rn.width}, nil
	}
	imm, err := strconv.ParseInt(tok, 0, 64)
	if err != nil {
		return x86.Operand{}, fmt.Errorf("unrecognized operand %q", tok)
	}
	return x86.Operand{Kind: x86.OperImm, Imm: imm, Width: 32}, nil
}

func parseLine(line string, ip uint64) (*x86.DecodedInsn, error) {
	line = strings.TrimSpace(line)
	if line == "" || strings.HasPrefix(line, ";") {
		return nil, nil
	}

	fields := strings.SplitN(line, " ", 2)
	mnemonicTok := strings.ToLower(fields[0])
	m, ok := mnemonicNames[mnemonicTok]
	if !ok {
		return nil, fmt.Errorf("unknown mnemonic %q", fields[0])
	}

	di := &x86.DecodedInsn{Mnemonic: m, IP: ip}
	if len(fields) > 1 {
		for _, p := range strings.Split(fields[1], ",") {
			op, err := parseOperand(p)
			if err != nil {
				return nil, err
			}
			if di.OperandCount >= len(di.Ops) {
				return nil, fmt.Errorf("too many operands on line %q", line)
			}
			di.Ops[di.OperandCount] = op
			di.OperandCount++
		}
	}
	if di.OperandCount > 0 {
		di.EffectiveWidth = di.Ops[0].Width
	} else {
		di.EffectiveWidth = 32
	}
	return di, nil
}

func parseFixture(r io.Reader) ([]*x86.DecodedInsn, error) {
	var out []*x86.DecodedInsn
	sc := bufio.NewScanner(r)
	ip := uint64(0)
	for sc.Scan() {
		di, err := parseLine(sc.Text(), ip)
		if err != nil {
			return nil, err
		}
		if di != nil {
			out = append(out, di)
			ip++
		}
	}
	return out, sc.Err()
}
