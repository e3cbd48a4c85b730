package main

import (
	"strings"
	"testing"

	"github.com/oisee/retroir/pkg/x86"
)

func TestParseOperandRegisterAndImmediate(t *testing.T) {
	op, err := parseOperand("eax")
	if err != nil {
		t.Fatalf("parseOperand(eax): %v", err)
	}
	if op.Kind != x86.OperReg || op.Reg != x86.RegRAX || op.Width != 32 {
		t.Errorf("parseOperand(eax) = %+v", op)
	}

	op, err = parseOperand(" 42 ")
	if err != nil {
		t.Fatalf("parseOperand(42): %v", err)
	}
	if op.Kind != x86.OperImm || op.Imm != 42 {
		t.Errorf("parseOperand(42) = %+v", op)
	}
}

func TestParseOperandRejectsGarbage(t *testing.T) {
	if _, err := parseOperand("notareg"); err == nil {
		t.Errorf("parseOperand should reject an unrecognized token")
	}
}

func TestParseLineSkipsBlankAndComment(t *testing.T) {
	di, err := parseLine("", 0)
	if err != nil || di != nil {
		t.Errorf("parseLine(\"\") should return (nil, nil), got (%v, %v)", di, err)
	}
	di, err = parseLine("; a comment", 0)
	if err != nil || di != nil {
		t.Errorf("parseLine(comment) should return (nil, nil), got (%v, %v)", di, err)
	}
}

func TestParseLineMovWithTwoOperands(t *testing.T) {
	di, err := parseLine("mov eax, ebx", 3)
	if err != nil {
		t.Fatalf("parseLine: %v", err)
	}
	if di.Mnemonic != x86.MOV || di.OperandCount != 2 || di.IP != 3 {
		t.Fatalf("parseLine(mov eax, ebx) = %+v", di)
	}
	if di.Ops[0].Reg != x86.RegRAX || di.Ops[1].Reg != x86.RegRBX {
		t.Errorf("operands parsed wrong: %+v", di.Ops[:2])
	}
	if di.EffectiveWidth != 32 {
		t.Errorf("EffectiveWidth = %d, want 32 (from the first operand)", di.EffectiveWidth)
	}
}

func TestParseLineNoOperandMnemonic(t *testing.T) {
	di, err := parseLine("ret", 0)
	if err != nil {
		t.Fatalf("parseLine(ret): %v", err)
	}
	if di.Mnemonic != x86.RET || di.OperandCount != 0 {
		t.Errorf("parseLine(ret) = %+v", di)
	}
}

func TestParseLineUnknownMnemonic(t *testing.T) {
	if _, err := parseLine("bogus eax", 0); err == nil {
		t.Errorf("parseLine should reject an unknown mnemonic")
	}
}

func TestParseFixtureAssignsSequentialIPs(t *testing.T) {
	src := "mov eax, ebx\n; comment\n\nadd eax, 5\nret\n"
	insns, err := parseFixture(strings.NewReader(src))
	if err != nil {
		t.Fatalf("parseFixture: %v", err)
	}
	if len(insns) != 3 {
		t.Fatalf("parseFixture returned %d instructions, want 3", len(insns))
	}
	for i, di := range insns {
		if di.IP != uint64(i) {
			t.Errorf("instruction %d has IP %d, want %d", i, di.IP, i)
		}
	}
}
