package vm_test

import (
	"testing"

	"hackc.dev/n2t/pkg/asm"
	"hackc.dev/n2t/pkg/vm"
)

func lower(t *testing.T, mod vm.NamedModule, bootstrap bool) asm.Program {
	t.Helper()
	l := vm.NewLowerer(vm.Program{Modules: []vm.NamedModule{mod}}, bootstrap)
	out, err := l.Lower()
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	return out
}

func countInstructions(out asm.Program) (a, c, labels int) {
	for _, stmt := range out {
		switch stmt.(type) {
		case asm.AInstruction:
			a++
		case asm.CInstruction:
			c++
		case asm.LabelDecl:
			labels++
		}
	}
	return
}

func TestLowererPushConstant(t *testing.T) {
	out := lower(t, vm.NamedModule{Name: "Main", Ops: vm.Module{
		vm.MemoryOp{Operation: vm.Push, Segment: vm.Constant, Offset: 7},
	}}, false)

	a, c, _ := countInstructions(out)
	if a == 0 || c == 0 {
		t.Fatalf("expected a non-empty translation, got %+v", out)
	}
	if first, ok := out[0].(asm.AInstruction); !ok || first.Location != "7" {
		t.Fatalf("expected first instruction to load the constant 7, got %+v", out[0])
	}
}

func TestLowererPopLocalUsesScratchRegister(t *testing.T) {
	out := lower(t, vm.NamedModule{Name: "Main", Ops: vm.Module{
		vm.MemoryOp{Operation: vm.Pop, Segment: vm.Local, Offset: 2},
	}}, false)

	foundScratch := false
	for _, stmt := range out {
		if a, ok := stmt.(asm.AInstruction); ok && a.Location == "R13" {
			foundScratch = true
		}
	}
	if !foundScratch {
		t.Fatalf("expected pop local to stage the target address through R13, got %+v", out)
	}
}

func TestLowererStaticIsScopedPerModule(t *testing.T) {
	outA := lower(t, vm.NamedModule{Name: "Foo", Ops: vm.Module{
		vm.MemoryOp{Operation: vm.Push, Segment: vm.Static, Offset: 0},
	}}, false)
	outB := lower(t, vm.NamedModule{Name: "Bar", Ops: vm.Module{
		vm.MemoryOp{Operation: vm.Push, Segment: vm.Static, Offset: 0},
	}}, false)

	labelA := findLabel(outA)
	labelB := findLabel(outB)
	if labelA == "" || labelB == "" || labelA == labelB {
		t.Fatalf("expected distinct per-module static labels, got %q and %q", labelA, labelB)
	}
}

func findLabel(out asm.Program) string {
	for _, stmt := range out {
		if a, ok := stmt.(asm.AInstruction); ok && a.Location != "SP" && a.Location != "R13" {
			return a.Location
		}
	}
	return ""
}

func TestLowererSegmentBounds(t *testing.T) {
	_, err := vm.NewLowerer(vm.Program{Modules: []vm.NamedModule{{Name: "Main", Ops: vm.Module{
		vm.MemoryOp{Operation: vm.Push, Segment: vm.Temp, Offset: 8},
	}}}}, false).Lower()
	if err == nil {
		t.Fatalf("expected an error for out-of-bounds temp offset")
	}

	_, err = vm.NewLowerer(vm.Program{Modules: []vm.NamedModule{{Name: "Main", Ops: vm.Module{
		vm.MemoryOp{Operation: vm.Pop, Segment: vm.Pointer, Offset: 2},
	}}}}, false).Lower()
	if err == nil {
		t.Fatalf("expected an error for out-of-bounds pointer offset")
	}

	_, err = vm.NewLowerer(vm.Program{Modules: []vm.NamedModule{{Name: "Main", Ops: vm.Module{
		vm.MemoryOp{Operation: vm.Pop, Segment: vm.Constant, Offset: 0},
	}}}}, false).Lower()
	if err == nil {
		t.Fatalf("expected an error popping into the read-only constant segment")
	}
}

func TestLowererComparisonEmitsUniqueLabelsPerOccurrence(t *testing.T) {
	out := lower(t, vm.NamedModule{Name: "Main", Ops: vm.Module{
		vm.ArithmeticOp{Operation: vm.Eq},
		vm.ArithmeticOp{Operation: vm.Eq},
	}}, false)

	seen := map[string]bool{}
	for _, stmt := range out {
		if l, ok := stmt.(asm.LabelDecl); ok {
			if seen[l.Name] {
				t.Fatalf("expected every comparison label to be unique, found duplicate %q", l.Name)
			}
			seen[l.Name] = true
		}
	}
	if len(seen) != 4 {
		t.Fatalf("expected 4 unique comparison labels (2 per 'eq'), got %d", len(seen))
	}
}

func TestLowererLabelsAreScopedToEnclosingFunction(t *testing.T) {
	out := lower(t, vm.NamedModule{Name: "Main", Ops: vm.Module{
		vm.FuncDecl{Name: "Main.a", NLocal: 0},
		vm.LabelDecl{Name: "LOOP"},
		vm.GotoOp{Jump: vm.Unconditional, Label: "LOOP"},
		vm.FuncDecl{Name: "Main.b", NLocal: 0},
		vm.LabelDecl{Name: "LOOP"},
	}}, false)

	labels := map[string]int{}
	for _, stmt := range out {
		if l, ok := stmt.(asm.LabelDecl); ok {
			labels[l.Name]++
		}
	}
	if labels["Main.a$LOOP"] != 1 || labels["Main.b$LOOP"] != 1 {
		t.Fatalf("expected function-scoped labels Main.a$LOOP and Main.b$LOOP, got %+v", labels)
	}
}

func TestLowererFuncDeclZeroInitializesLocals(t *testing.T) {
	out := lower(t, vm.NamedModule{Name: "Main", Ops: vm.Module{
		vm.FuncDecl{Name: "Main.f", NLocal: 3},
	}}, false)

	pushes := 0
	for _, stmt := range out {
		if a, ok := stmt.(asm.AInstruction); ok && a.Location == "0" {
			pushes++
		}
	}
	if pushes != 3 {
		t.Fatalf("expected 3 zero-initialized locals, got %d", pushes)
	}
}

func TestLowererCallFrameSavesSegmentPointers(t *testing.T) {
	out := lower(t, vm.NamedModule{Name: "Main", Ops: vm.Module{
		vm.FuncCallOp{Name: "Math.multiply", NArgs: 2},
	}}, false)

	saved := map[string]bool{}
	for _, stmt := range out {
		if a, ok := stmt.(asm.AInstruction); ok {
			saved[a.Location] = true
		}
	}
	for _, ptr := range []string{"LCL", "ARG", "THIS", "THAT", "Math.multiply"} {
		if !saved[ptr] {
			t.Fatalf("expected call sequence to reference %q, got %+v", ptr, out)
		}
	}
}

func TestLowererReturnRestoresCallerFrame(t *testing.T) {
	out := lower(t, vm.NamedModule{Name: "Main", Ops: vm.Module{
		vm.ReturnOp{},
	}}, false)

	referencesR13, referencesR14 := false, false
	for _, stmt := range out {
		if a, ok := stmt.(asm.AInstruction); ok {
			if a.Location == "R13" {
				referencesR13 = true
			}
			if a.Location == "R14" {
				referencesR14 = true
			}
		}
	}
	if !referencesR13 || !referencesR14 {
		t.Fatalf("expected return to stage FRAME/RET through R13/R14, got %+v", out)
	}
}

func TestLowererBootstrapCallsSysInit(t *testing.T) {
	out := lower(t, vm.NamedModule{Name: "Sys", Ops: vm.Module{
		vm.FuncDecl{Name: "Sys.init", NLocal: 0},
	}}, true)

	if first, ok := out[0].(asm.AInstruction); !ok || first.Location != "256" {
		t.Fatalf("expected bootstrap to start by loading 256 into SP, got %+v", out[0])
	}

	callsInit := false
	for _, stmt := range out {
		if a, ok := stmt.(asm.AInstruction); ok && a.Location == "Sys.init" {
			callsInit = true
		}
	}
	if !callsInit {
		t.Fatalf("expected bootstrap to call Sys.init, got %+v", out)
	}
}

func TestLowererRejectsUnrecognizedOperation(t *testing.T) {
	_, err := vm.NewLowerer(vm.Program{Modules: []vm.NamedModule{{Name: "Main", Ops: vm.Module{
		struct{}{},
	}}}}, false).Lower()
	if err == nil {
		t.Fatalf("expected an error for an unrecognized operation type")
	}
}
