package asm_test

import (
	"strings"
	"testing"

	"hackc.dev/n2t/pkg/asm"
)

func TestParserHandlesTrailingComments(t *testing.T) {
	source := strings.NewReader("@2 // load constant\nD=A // stash it\n// full line comment\n@SP\nM=D\n")
	parser := asm.NewParser(source, "trailing.asm")

	program, err := parser.Parse()
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	if len(program) != 4 {
		t.Fatalf("expected 4 statements (comments discarded), got %d", len(program))
	}

	if a, ok := program[0].(asm.AInstruction); !ok || a.Location != "2" {
		t.Fatalf("expected first statement to be @2, got %+v", program[0])
	}
	if c, ok := program[1].(asm.CInstruction); !ok || c.Dest != "D" || c.Comp != "A" {
		t.Fatalf("expected second statement to be D=A, got %+v", program[1])
	}
}

func TestParserRoundTripsLabelsAndJumps(t *testing.T) {
	source := strings.NewReader("(LOOP)\n@i\nD=M\n@END\nD;JLE\n@LOOP\n0;JMP\n(END)\n")
	parser := asm.NewParser(source, "loop.asm")

	program, err := parser.Parse()
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}

	if _, ok := program[0].(asm.LabelDecl); !ok {
		t.Fatalf("expected first statement to be a label declaration, got %+v", program[0])
	}
	if _, ok := program[len(program)-1].(asm.LabelDecl); !ok {
		t.Fatalf("expected last statement to be a label declaration, got %+v", program[len(program)-1])
	}
}
