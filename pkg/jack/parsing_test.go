package jack_test

import (
	"strings"
	"testing"

	"hackc.dev/n2t/pkg/jack"
)

func parse(t *testing.T, src string) jack.Class {
	t.Helper()
	p, err := jack.NewParser(strings.NewReader(src), "test.jack")
	if err != nil {
		t.Fatalf("NewParser() returned error: %s", err)
	}
	class, err := p.Parse()
	if err != nil {
		t.Fatalf("Parse() returned error: %s", err)
	}
	return class
}

func TestParserParsesClassVarDecAndFields(t *testing.T) {
	class := parse(t, `
		class Point {
			field int x, y;
			static int count;
		}
	`)

	if class.Name != "Point" {
		t.Fatalf("got class name %q, want 'Point'", class.Name)
	}
	if class.Fields.Len() != 3 {
		t.Fatalf("got %d fields, want 3", class.Fields.Len())
	}

	x, ok := class.Fields.Get("x")
	if !ok || x.Type != jack.Field || x.DataType.Main != jack.Int {
		t.Errorf("field 'x' = %+v, ok=%v, want Type=Field DataType.Main=Int", x, ok)
	}
	count, ok := class.Fields.Get("count")
	if !ok || count.Type != jack.Static {
		t.Errorf("field 'count' = %+v, ok=%v, want Type=Static", count, ok)
	}
}

func TestParserParsesSubroutineDecAndParamList(t *testing.T) {
	class := parse(t, `
		class Point {
			method void move(int dx, int dy) {
				return;
			}
		}
	`)

	sub, ok := class.Subroutines.Get("move")
	if !ok {
		t.Fatal("subroutine 'move' not found")
	}
	if sub.Type != jack.Method {
		t.Errorf("got subroutine type %s, want 'method'", sub.Type)
	}
	if sub.Return.Main != jack.Void {
		t.Errorf("got return type %s, want 'void'", sub.Return.Main)
	}
	if len(sub.Arguments) != 2 || sub.Arguments[0].Name != "dx" || sub.Arguments[1].Name != "dy" {
		t.Fatalf("got arguments %+v, want [dx dy]", sub.Arguments)
	}
}

func TestParserHandlesLetWithArrayIndex(t *testing.T) {
	class := parse(t, `
		class Main {
			function void run() {
				var Array a;
				let a[0] = a[1] + 1;
				return;
			}
		}
	`)

	sub, _ := class.Subroutines.Get("run")

	var letStmt jack.LetStmt
	found := false
	for _, stmt := range sub.Statements {
		if let, ok := stmt.(jack.LetStmt); ok {
			letStmt, found = let, true
		}
	}
	if !found {
		t.Fatalf("no LetStmt found among %+v", sub.Statements)
	}

	lhs, ok := letStmt.Lhs.(jack.ArrayExpr)
	if !ok || lhs.Var != "a" {
		t.Fatalf("got Lhs %+v, want ArrayExpr{Var: a}", letStmt.Lhs)
	}

	rhs, ok := letStmt.Rhs.(jack.BinaryExpr)
	if !ok || rhs.Type != jack.Plus {
		t.Fatalf("got Rhs %+v, want BinaryExpr{Type: Plus}", letStmt.Rhs)
	}
	if _, ok := rhs.Lhs.(jack.ArrayExpr); !ok {
		t.Errorf("got Rhs.Lhs %+v, want ArrayExpr", rhs.Lhs)
	}
}

func TestParserHandlesMethodCallOnLocalObject(t *testing.T) {
	class := parse(t, `
		class Main {
			function void run() {
				var Point p;
				do p.move(1, 2);
				return;
			}
		}
	`)

	sub, _ := class.Subroutines.Get("run")

	var doStmt jack.DoStmt
	found := false
	for _, stmt := range sub.Statements {
		if do, ok := stmt.(jack.DoStmt); ok {
			doStmt, found = do, true
		}
	}
	if !found {
		t.Fatalf("no DoStmt found among %+v", sub.Statements)
	}

	call := doStmt.FuncCall
	if !call.IsExtCall || call.Var != "p" || call.FuncName != "move" {
		t.Fatalf("got FuncCallExpr %+v, want {IsExtCall: true, Var: p, FuncName: move}", call)
	}
	if len(call.Arguments) != 2 {
		t.Fatalf("got %d arguments, want 2", len(call.Arguments))
	}
}

func TestParserHandlesIfElseAndWhile(t *testing.T) {
	class := parse(t, `
		class Main {
			function void run() {
				if (true) {
					let x = 1;
				} else {
					let x = 2;
				}
				while (x) {
					let x = 0;
				}
				return;
			}
		}
	`)

	sub, _ := class.Subroutines.Get("run")
	if len(sub.Statements) != 3 {
		t.Fatalf("got %d statements, want 3 (if, while, return)", len(sub.Statements))
	}

	ifStmt, ok := sub.Statements[0].(jack.IfStmt)
	if !ok {
		t.Fatalf("statement 0 = %T, want IfStmt", sub.Statements[0])
	}
	if len(ifStmt.ThenBlock) != 1 || len(ifStmt.ElseBlock) != 1 {
		t.Errorf("got ThenBlock=%d ElseBlock=%d, want 1 and 1", len(ifStmt.ThenBlock), len(ifStmt.ElseBlock))
	}

	whileStmt, ok := sub.Statements[1].(jack.WhileStmt)
	if !ok {
		t.Fatalf("statement 1 = %T, want WhileStmt", sub.Statements[1])
	}
	if len(whileStmt.Block) != 1 {
		t.Errorf("got Block=%d, want 1", len(whileStmt.Block))
	}
}

func TestParserExpressionHasNoOperatorPrecedence(t *testing.T) {
	// '2 + 3 * 4' must parse as '(2 + 3) * 4' (left to right, no precedence).
	class := parse(t, `
		class Main {
			function int run() {
				return 2 + 3 * 4;
			}
		}
	`)

	sub, _ := class.Subroutines.Get("run")
	ret, ok := sub.Statements[0].(jack.ReturnStmt)
	if !ok {
		t.Fatalf("statement 0 = %T, want ReturnStmt", sub.Statements[0])
	}

	top, ok := ret.Expr.(jack.BinaryExpr)
	if !ok || top.Type != jack.Multiply {
		t.Fatalf("got top-level expr %+v, want BinaryExpr{Type: Multiply}", ret.Expr)
	}
	inner, ok := top.Lhs.(jack.BinaryExpr)
	if !ok || inner.Type != jack.Plus {
		t.Fatalf("got top.Lhs %+v, want BinaryExpr{Type: Plus}", top.Lhs)
	}
}

func TestParserRejectsMissingSemicolon(t *testing.T) {
	p, err := jack.NewParser(strings.NewReader(`
		class Main {
			function void run() {
				let x = 1
				return;
			}
		}
	`), "test.jack")
	if err != nil {
		t.Fatalf("NewParser() returned error: %s", err)
	}
	if _, err := p.Parse(); err == nil {
		t.Fatal("expected a syntax error for the missing ';', got nil")
	}
}

func TestParserRejectsUnknownTopLevelToken(t *testing.T) {
	p, err := jack.NewParser(strings.NewReader(`class Main { 123 }`), "test.jack")
	if err != nil {
		t.Fatalf("NewParser() returned error: %s", err)
	}
	if _, err := p.Parse(); err == nil {
		t.Fatal("expected a syntax error for the unexpected token, got nil")
	}
}
