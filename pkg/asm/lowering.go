package asm

import (
	"strconv"

	"hackc.dev/n2t/pkg/diag"
	"hackc.dev/n2t/pkg/hack"
)

// ----------------------------------------------------------------------------
// Asm Lowerer

// The Lowerer takes an 'asm.Program' and produces its 'hack.Program' counterpart.
//
// This is Pass 1 of the two-pass assembler: it walks the statement stream once, binding
// every LabelDecl to the ROM address of the instruction that follows it (labels contribute
// no instruction of their own) while leaving A Instructions unresolved for now; whether a
// given A Instruction location is Raw, BuiltIn or a user Label is decided per instruction,
// RAM variable allocation for unresolved Labels happens lazily in the hack code generator.
type Lowerer struct {
	program Program
	file    string // Source unit name, used for diagnostics only
}

// Initializes and returns to the caller a brand new 'Lowerer' struct.
// Requires the argument Program to be not nil nor empty.
func NewLowerer(p Program, file string) Lowerer {
	return Lowerer{program: p, file: file}
}

// Triggers the lowering process. It iterates instruction by instruction and recursively
// calls the specified helper function based on the instruction type (much like a recursive
// descend parser but for lowering), this means the AST is visited in DFS order.
func (l *Lowerer) Lower() (hack.Program, hack.SymbolTable, error) {
	if len(l.program) == 0 {
		return nil, nil, diag.New(diag.Semantic, l.file, 0, "program is empty")
	}

	converted := make(hack.Program, 0, len(l.program))
	table := hack.SymbolTable{}

	for line, asmInst := range l.program {
		switch tAsmInst := asmInst.(type) {
		case AInstruction: // Converts 'asm.AInstruction' to 'hack.AInstruction'
			hackInst, err := l.HandleAInst(tAsmInst)
			if err != nil {
				return nil, nil, diag.Wrap(err, diag.Semantic, l.file, line+1)
			}
			converted = append(converted, hackInst)

		case CInstruction: // Converts 'asm.CInstruction' to 'hack.CInstruction'
			hackInst, err := l.HandleCInst(tAsmInst)
			if err != nil {
				return nil, nil, diag.Wrap(err, diag.Semantic, l.file, line+1)
			}
			converted = append(converted, hackInst)

		case LabelDecl: // Binds 'asm.LabelDecl' to the ROM address of the next instruction
			label, err := l.HandleLabelDecl(tAsmInst)
			if err != nil {
				return nil, nil, diag.Wrap(err, diag.Semantic, l.file, line+1)
			}
			if _, duplicate := table[label]; duplicate {
				return nil, nil, diag.New(diag.Semantic, l.file, line+1, "duplicate label definition '%s'", label)
			}
			table[label] = uint16(len(converted))

		default:
			return nil, nil, diag.New(diag.Semantic, l.file, line+1, "unrecognized instruction '%T'", asmInst)
		}
	}

	return converted, table, nil
}

// Specialized function to convert a 'asm.AInstruction' node to an 'hack.AInstruction'.
func (Lowerer) HandleAInst(inst AInstruction) (hack.Instruction, error) {
	// Based on one of the following cases below (the type of the symbol) we do different things:
	// 1) If it's present in the BuiltInTable is we set the 'LocType'to 'BuiltIn' accordingly
	if _, found := hack.BuiltInTable[inst.Location]; found {
		return hack.AInstruction{LocType: hack.BuiltIn, LocName: inst.Location}, nil
	}
	// 2) If it can be parsed as an int we set the 'LocType' to 'Raw' accordingly
	if _, err := strconv.ParseInt(inst.Location, 10, 16); err == nil {
		return hack.AInstruction{LocType: hack.Raw, LocName: inst.Location}, nil
	}
	// 3) Else it's a user defined label and we set 'LocType' to 'Label' accordingly
	return hack.AInstruction{LocType: hack.Label, LocName: inst.Location}, nil
}

// Specialized function to convert a 'asm.CInstruction' node to an 'hack.CInstruction'.
// Dest and Jump are carried independently: a statement may specify one, the other, or both
// at once (e.g. MD=D-1;JLE), only 'Comp' is mandatory.
func (Lowerer) HandleCInst(inst CInstruction) (hack.Instruction, error) {
	if inst.Comp == "" {
		return nil, diag.New(diag.Syntax, "", 0, "'comp' sub-instruction is always required")
	}

	return hack.CInstruction{Comp: inst.Comp, Dest: inst.Dest, Jump: inst.Jump}, nil
}

// Specialized function to extract from a 'asm.LabelDecl' node to the identifier of the label.
func (Lowerer) HandleLabelDecl(inst LabelDecl) (string, error) {
	return inst.Name, nil
}
