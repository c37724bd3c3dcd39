package bytecode

import "testing"

func TestOperandWidths(t *testing.T) {
	cases := map[Opcode]int{
		LoadConst:    2,
		GetLocal:     2,
		Jump:         8,
		JumpIfFalse:  8,
		CallFunction: 1,
		BuildVec:     1,
		Cast:         1,
		OpAdd:        0,
		Return:       0,
		Mostra:       0,
	}
	for op, want := range cases {
		if got := OperandWidth(op); got != want {
			t.Errorf("OperandWidth(%v) = %d, want %d", op, got, want)
		}
	}
}

func TestHaltIsOutOfBandByte(t *testing.T) {
	// Halt is pinned to 0xFF rather than falling at the next sequential
	// iota value, so a zeroed or truncated code buffer never masquerades
	// as a valid halt instruction.
	if Halt != 0xFF {
		t.Fatalf("Halt = 0x%02X, want 0xFF", byte(Halt))
	}
	if Halt == Unwrap {
		t.Fatal("Halt collides with an iota-assigned opcode")
	}
}

func TestStringMnemonics(t *testing.T) {
	cases := map[Opcode]string{
		LoadConst: "LOAD_CONST",
		OpAdd:     "ADD",
		Halt:      "HALT",
	}
	for op, want := range cases {
		if got := op.String(); got != want {
			t.Errorf("%v.String() = %q, want %q", op, got, want)
		}
	}
	if got := Opcode(0x77).String(); got != "UNKNOWN" {
		t.Errorf("unknown opcode.String() = %q, want UNKNOWN", got)
	}
}
