package vm

import (
	"fmt"

	"hackc.dev/n2t/pkg/asm"
	"hackc.dev/n2t/pkg/diag"
)

// ----------------------------------------------------------------------------
// Vm Lowerer

// The Lowerer takes a 'vm.Program' (one or more named modules) and produces the single
// 'asm.Program' that implements it, in source order, module by module. Unlike the Hack
// Assembler's Lowerer this one never touches a symbol table of its own: every label it
// emits is either a Hack built-in (SP, LCL, ARG, THIS, THAT, R13, R14) or a freshly minted
// textual label that the downstream asm.Lowerer will resolve in its own Pass 1.
//
// Two kinds of operation need a guaranteed-unique label and get one from 'nCounter', a
// monotonic counter shared across the whole program: eq/gt/lt comparisons (one pair of
// branch targets per occurrence) and call sites (one return-address label per call).
// Ordinary 'label'/'goto'/'if-goto' operations are scoped to the enclosing function by
// prefixing the user's label with "func$", so same-named labels in different functions
// never collide once flattened into one instruction stream.
type Lowerer struct {
	program     Program
	bootstrap   bool
	nCounter    uint
	curModule   string
	curFunction string
}

// Initializes and returns to the caller a brand new 'Lowerer' struct. When 'bootstrap' is
// true the emitted asm.Program is prefixed with the SP=256 / call Sys.init 0 sequence that
// a freestanding VM program needs in order to actually start executing.
func NewLowerer(p Program, bootstrap bool) Lowerer {
	return Lowerer{program: p, bootstrap: bootstrap}
}

// Runs the lowering process over every module in the program, in order, and returns the
// concatenated asm.Program.
func (l *Lowerer) Lower() (asm.Program, error) {
	out := asm.Program{}

	if l.bootstrap {
		out = append(out, l.Bootstrap()...)
	}

	for _, mod := range l.program.Modules {
		l.curModule = mod.Name
		l.curFunction = ""

		for line, op := range mod.Ops {
			stmts, err := l.HandleOperation(op)
			if err != nil {
				return nil, diag.Wrap(err, diag.Semantic, mod.Name, line+1)
			}
			out = append(out, stmts...)
		}
	}

	return out, nil
}

// Bootstrap produces the sequence every Hack program needs to initialize the stack pointer
// to 256 (the first free RAM word, project 7/8's memory layout convention) before handing
// control to 'Sys.init', the Jack standard library's entrypoint.
func (l *Lowerer) Bootstrap() asm.Program {
	call := CallFrame("Sys.init", 0, "BOOTSTRAP$ret.0")
	return append(asm.Program{
		asm.AInstruction{Location: "256"},
		asm.CInstruction{Comp: "A", Dest: "D"},
		asm.AInstruction{Location: "SP"},
		asm.CInstruction{Comp: "D", Dest: "M"},
	}, call...)
}

func (l *Lowerer) HandleOperation(op Operation) (asm.Program, error) {
	switch top := op.(type) {
	case MemoryOp:
		return l.HandleMemoryOp(top)
	case ArithmeticOp:
		return l.HandleArithmeticOp(top)
	case LabelDecl:
		return l.HandleLabelDecl(top)
	case GotoOp:
		return l.HandleGotoOp(top)
	case FuncDecl:
		return l.HandleFuncDecl(top)
	case FuncCallOp:
		return l.HandleFuncCallOp(top)
	case ReturnOp:
		return l.HandleReturnOp(top)
	default:
		return nil, fmt.Errorf("unrecognized operation '%T'", op)
	}
}

// ----------------------------------------------------------------------------
// Memory operations

// segmentPointer returns the Hack built-in symbol that carries the base address for a
// 'local'/'argument'/'this'/'that' segment access (these are the only four segments
// addressed through a pointer plus offset; the others are handled as special cases below).
func segmentPointer(seg SegmentType) (string, bool) {
	switch seg {
	case Local:
		return "LCL", true
	case Argument:
		return "ARG", true
	case This:
		return "THIS", true
	case That:
		return "THAT", true
	default:
		return "", false
	}
}

// HandleMemoryOp lowers a single push/pop, dispatching on the segment kind: constant is
// push-only and has no backing memory, pointer/temp are fixed real segments addressed
// directly, local/argument/this/that are indirected through their base pointer, and static
// is a per-module symbol so two .vm files never alias each other's static variables.
func (l *Lowerer) HandleMemoryOp(op MemoryOp) (asm.Program, error) {
	if ptr, ok := segmentPointer(op.Segment); ok {
		if op.Operation == Push {
			return l.pushIndirect(ptr, op.Offset), nil
		}
		return l.popIndirect(ptr, op.Offset), nil
	}

	switch op.Segment {
	case Constant:
		if op.Operation == Pop {
			return nil, fmt.Errorf("cannot pop into the read-only 'constant' segment")
		}
		return l.pushConstant(op.Offset), nil

	case Temp:
		if op.Offset > 7 {
			return nil, fmt.Errorf("temp segment offset %d out of bounds (0-7)", op.Offset)
		}
		return l.pushOrPopDirect(op.Operation, fmt.Sprintf("R%d", 5+op.Offset)), nil

	case Pointer:
		if op.Offset > 1 {
			return nil, fmt.Errorf("pointer segment offset %d out of bounds (0-1)", op.Offset)
		}
		target := "THIS"
		if op.Offset == 1 {
			target = "THAT"
		}
		return l.pushOrPopDirect(op.Operation, target), nil

	case Static:
		label := fmt.Sprintf("%s.%d", l.curModule, op.Offset)
		return l.pushOrPopDirect(op.Operation, label), nil

	default:
		return nil, fmt.Errorf("unrecognized memory segment '%s'", op.Segment)
	}
}

// pushConstant pushes a literal value: load it into D then stack it.
func (l *Lowerer) pushConstant(value uint16) asm.Program {
	return append(asm.Program{
		asm.AInstruction{Location: fmt.Sprint(value)},
		asm.CInstruction{Comp: "A", Dest: "D"},
	}, pushD()...)
}

// pushIndirect pushes *(ptr + offset): resolve the address into A via D, then dereference.
func (l *Lowerer) pushIndirect(ptr string, offset uint16) asm.Program {
	stmts := asm.Program{
		asm.AInstruction{Location: fmt.Sprint(offset)},
		asm.CInstruction{Comp: "A", Dest: "D"},
		asm.AInstruction{Location: ptr},
		asm.CInstruction{Comp: "D+M", Dest: "A"},
		asm.CInstruction{Comp: "M", Dest: "D"},
	}
	return append(stmts, pushD()...)
}

// popIndirect pops into *(ptr + offset). The target address depends on a runtime value
// (ptr's current content) so it must be computed before the stack's top is consumed; R13
// stages that computed address across the pop, the two-register idiom the spec calls for
// whenever a segment write needs a base+offset address rather than a fixed one.
func (l *Lowerer) popIndirect(ptr string, offset uint16) asm.Program {
	return asm.Program{
		asm.AInstruction{Location: fmt.Sprint(offset)},
		asm.CInstruction{Comp: "A", Dest: "D"},
		asm.AInstruction{Location: ptr},
		asm.CInstruction{Comp: "D+M", Dest: "D"},
		asm.AInstruction{Location: "R13"},
		asm.CInstruction{Comp: "D", Dest: "M"},
		asm.AInstruction{Location: "SP"},
		asm.CInstruction{Comp: "M-1", Dest: "AM"},
		asm.CInstruction{Comp: "M", Dest: "D"},
		asm.AInstruction{Location: "R13"},
		asm.CInstruction{Comp: "M", Dest: "A"},
		asm.CInstruction{Comp: "D", Dest: "M"},
	}
}

// pushOrPopDirect handles the segments addressed by a single fixed symbol (temp slots,
// pointer's THIS/THAT, and per-module static variables): no base+offset computation, so no
// R13 staging is required, the target address is already known at lowering time.
func (l *Lowerer) pushOrPopDirect(op OperationType, symbol string) asm.Program {
	if op == Push {
		return append(asm.Program{
			asm.AInstruction{Location: symbol},
			asm.CInstruction{Comp: "M", Dest: "D"},
		}, pushD()...)
	}

	return append(popD(), asm.Program{
		asm.AInstruction{Location: symbol},
		asm.CInstruction{Comp: "D", Dest: "M"},
	}...)
}

// pushD appends the shared suffix of every push: stack D at *SP, then advance SP.
func pushD() asm.Program {
	return asm.Program{
		asm.AInstruction{Location: "SP"},
		asm.CInstruction{Comp: "M", Dest: "A"},
		asm.CInstruction{Comp: "D", Dest: "M"},
		asm.AInstruction{Location: "SP"},
		asm.CInstruction{Comp: "M+1", Dest: "M"},
	}
}

// popD appends the shared prefix of every pop: retreat SP, load the popped value into D.
func popD() asm.Program {
	return asm.Program{
		asm.AInstruction{Location: "SP"},
		asm.CInstruction{Comp: "M-1", Dest: "AM"},
		asm.CInstruction{Comp: "M", Dest: "D"},
	}
}

// ----------------------------------------------------------------------------
// Arithmetic operations

// HandleArithmeticOp lowers one of the nine stack operations. Binary operations move SP
// down once and overwrite the second operand (addressed directly on the stack) with the
// result; unary operations rewrite the stack's top in place.
func (l *Lowerer) HandleArithmeticOp(op ArithmeticOp) (asm.Program, error) {
	switch op.Operation {
	case Add:
		return l.binary("M+D"), nil
	case Sub:
		return l.binary("M-D"), nil
	case And:
		return l.binary("M&D"), nil
	case Or:
		return l.binary("M|D"), nil
	case Neg:
		return l.unary("-M"), nil
	case Not:
		return l.unary("!M"), nil
	case Eq:
		return l.comparison("JEQ"), nil
	case Gt:
		return l.comparison("JGT"), nil
	case Lt:
		return l.comparison("JLT"), nil
	default:
		return nil, fmt.Errorf("unrecognized arithmetic operation '%s'", op.Operation)
	}
}

// binary pops the top two stack values into D (top) and M (second-from-top, addressed
// directly), computes 'comp' (in terms of those two), and leaves the result on the stack
// without a second push: the stack pointer only needed to move once for a binary op.
func (l *Lowerer) binary(comp string) asm.Program {
	return asm.Program{
		asm.AInstruction{Location: "SP"},
		asm.CInstruction{Comp: "M-1", Dest: "AM"},
		asm.CInstruction{Comp: "M", Dest: "D"},
		asm.CInstruction{Comp: "A-1", Dest: "A"},
		asm.CInstruction{Comp: comp, Dest: "M"},
	}
}

// unary rewrites the stack's top in place, no stack pointer movement needed at all.
func (l *Lowerer) unary(comp string) asm.Program {
	return asm.Program{
		asm.AInstruction{Location: "SP"},
		asm.CInstruction{Comp: "M-1", Dest: "A"},
		asm.CInstruction{Comp: comp, Dest: "M"},
	}
}

// comparison pops the top two values, subtracts them, and branches on 'jump' to decide
// between pushing true (-1, all bits set) or false (0). Each occurrence needs its own pair
// of labels since the Hack ISA has no compare-and-set instruction, hence 'nCounter'.
func (l *Lowerer) comparison(jump string) asm.Program {
	l.nCounter++
	trueLabel := fmt.Sprintf("CMP$true.%d", l.nCounter)
	endLabel := fmt.Sprintf("CMP$end.%d", l.nCounter)

	return asm.Program{
		asm.AInstruction{Location: "SP"},
		asm.CInstruction{Comp: "M-1", Dest: "AM"},
		asm.CInstruction{Comp: "M", Dest: "D"},
		asm.CInstruction{Comp: "A-1", Dest: "A"},
		asm.CInstruction{Comp: "M-D", Dest: "D"},
		asm.AInstruction{Location: trueLabel},
		asm.CInstruction{Comp: "D", Jump: jump},
		asm.AInstruction{Location: "SP"},
		asm.CInstruction{Comp: "M-1", Dest: "A"},
		asm.CInstruction{Comp: "0", Dest: "M"},
		asm.AInstruction{Location: endLabel},
		asm.CInstruction{Comp: "0", Jump: "JMP"},
		asm.LabelDecl{Name: trueLabel},
		asm.AInstruction{Location: "SP"},
		asm.CInstruction{Comp: "M-1", Dest: "A"},
		asm.CInstruction{Comp: "-1", Dest: "M"},
		asm.LabelDecl{Name: endLabel},
	}
}

// ----------------------------------------------------------------------------
// Program flow operations

// scopedLabel mangles a user label with the enclosing function's name, so that two
// functions each declaring "label LOOP" don't collide once flattened into one asm.Program.
// Top-level labels (outside any function) are left unscoped.
func (l *Lowerer) scopedLabel(name string) string {
	if l.curFunction == "" {
		return name
	}
	return fmt.Sprintf("%s$%s", l.curFunction, name)
}

func (l *Lowerer) HandleLabelDecl(op LabelDecl) (asm.Program, error) {
	return asm.Program{asm.LabelDecl{Name: l.scopedLabel(op.Name)}}, nil
}

func (l *Lowerer) HandleGotoOp(op GotoOp) (asm.Program, error) {
	label := l.scopedLabel(op.Label)

	if op.Jump == Unconditional {
		return asm.Program{
			asm.AInstruction{Location: label},
			asm.CInstruction{Comp: "0", Jump: "JMP"},
		}, nil
	}

	// Conditional: pop the stack's top, jump only if it's non-zero (true is -1, all
	// bits set, so a plain "not equal to zero" check is exactly the right test).
	return append(popD(), asm.Program{
		asm.AInstruction{Location: label},
		asm.CInstruction{Comp: "D", Jump: "JNE"},
	}...), nil
}

// ----------------------------------------------------------------------------
// Function operations

// HandleFuncDecl lowers a function's entrypoint label followed by one 'push constant 0'
// sequence per local variable slot the function declared (locals start undefined,
// the spec requires them to read as 0 until assigned).
func (l *Lowerer) HandleFuncDecl(op FuncDecl) (asm.Program, error) {
	l.curFunction = op.Name
	out := asm.Program{asm.LabelDecl{Name: op.Name}}

	for i := uint16(0); i < op.NLocal; i++ {
		out = append(out, l.pushConstant(0)...)
	}

	return out, nil
}

// HandleFuncCallOp lowers a call site: save the caller's frame, bind ARG/LCL for the
// callee, jump to it, and declare the return address the callee will jump back to.
func (l *Lowerer) HandleFuncCallOp(op FuncCallOp) (asm.Program, error) {
	l.nCounter++
	retLabel := fmt.Sprintf("%s$ret.%d", op.Name, l.nCounter)
	return CallFrame(op.Name, op.NArgs, retLabel), nil
}

// CallFrame builds the full call sequence for invoking 'callee' with 'nArgs' arguments
// already on the stack, returning to 'retLabel' once the callee returns. Exported so the
// Lowerer's bootstrap sequence (the implicit "call Sys.init 0") can reuse it verbatim.
func CallFrame(callee string, nArgs uint16, retLabel string) asm.Program {
	pushLabel := func(name string) asm.Program {
		return append(asm.Program{
			asm.AInstruction{Location: name},
			asm.CInstruction{Comp: "A", Dest: "D"},
		}, pushD()...)
	}
	pushSaved := func(ptr string) asm.Program {
		return append(asm.Program{
			asm.AInstruction{Location: ptr},
			asm.CInstruction{Comp: "M", Dest: "D"},
		}, pushD()...)
	}

	out := asm.Program{}
	out = append(out, pushLabel(retLabel)...)
	out = append(out, pushSaved("LCL")...)
	out = append(out, pushSaved("ARG")...)
	out = append(out, pushSaved("THIS")...)
	out = append(out, pushSaved("THAT")...)

	// ARG = SP - nArgs - 5 (the 5 saved words above, plus the nArgs already pushed by the
	// caller before issuing this call, sit between the new ARG and the current SP).
	out = append(out, asm.Program{
		asm.AInstruction{Location: "SP"},
		asm.CInstruction{Comp: "M", Dest: "D"},
		asm.AInstruction{Location: fmt.Sprint(nArgs + 5)},
		asm.CInstruction{Comp: "D-A", Dest: "D"},
		asm.AInstruction{Location: "ARG"},
		asm.CInstruction{Comp: "D", Dest: "M"},
		asm.AInstruction{Location: "SP"},
		asm.CInstruction{Comp: "M", Dest: "D"},
		asm.AInstruction{Location: "LCL"},
		asm.CInstruction{Comp: "D", Dest: "M"},
		asm.AInstruction{Location: callee},
		asm.CInstruction{Comp: "0", Jump: "JMP"},
		asm.LabelDecl{Name: retLabel},
	}...)

	return out
}

// HandleReturnOp lowers a function return: stash the frame base and the return address in
// R13/R14 (scratch, per the two-register staging idiom) before the stack is unwound, since
// overwriting SP/ARG below would otherwise clobber them first.
func (l *Lowerer) HandleReturnOp(op ReturnOp) (asm.Program, error) {
	restore := func(ptr, offsetFromFrame string) asm.Program {
		return asm.Program{
			asm.AInstruction{Location: "R13"},
			asm.CInstruction{Comp: "M", Dest: "D"},
			asm.AInstruction{Location: offsetFromFrame},
			asm.CInstruction{Comp: "D-A", Dest: "A"},
			asm.CInstruction{Comp: "M", Dest: "D"},
			asm.AInstruction{Location: ptr},
			asm.CInstruction{Comp: "D", Dest: "M"},
		}
	}

	out := asm.Program{
		// R13 = FRAME = LCL
		asm.AInstruction{Location: "LCL"},
		asm.CInstruction{Comp: "M", Dest: "D"},
		asm.AInstruction{Location: "R13"},
		asm.CInstruction{Comp: "D", Dest: "M"},
		// R14 = RET = *(FRAME - 5)
		asm.AInstruction{Location: "5"},
		asm.CInstruction{Comp: "D-A", Dest: "A"},
		asm.CInstruction{Comp: "M", Dest: "D"},
		asm.AInstruction{Location: "R14"},
		asm.CInstruction{Comp: "D", Dest: "M"},
	}

	// *ARG = pop() -- deposits the return value where the caller expects to find it
	out = append(out, popD()...)
	out = append(out, asm.Program{
		asm.AInstruction{Location: "ARG"},
		asm.CInstruction{Comp: "M", Dest: "A"},
		asm.CInstruction{Comp: "D", Dest: "M"},
		// SP = ARG + 1
		asm.AInstruction{Location: "ARG"},
		asm.CInstruction{Comp: "M+1", Dest: "D"},
		asm.AInstruction{Location: "SP"},
		asm.CInstruction{Comp: "D", Dest: "M"},
	}...)

	out = append(out, restore("THAT", "1")...)
	out = append(out, restore("THIS", "2")...)
	out = append(out, restore("ARG", "3")...)
	out = append(out, restore("LCL", "4")...)

	out = append(out, asm.Program{
		asm.AInstruction{Location: "R14"},
		asm.CInstruction{Comp: "M", Dest: "A"},
		asm.CInstruction{Comp: "0", Jump: "JMP"},
	}...)

	return out, nil
}
