package jack_test

import (
	"strings"
	"testing"

	"hackc.dev/n2t/pkg/jack"
)

func TestWriteXMLProducesWellNestedTags(t *testing.T) {
	class := parse(t, `
		class Main {
			field int x;
			function void run() {
				var int y;
				let y = x + 1;
				return;
			}
		}
	`)

	var buf strings.Builder
	if err := jack.WriteXML(&buf, class); err != nil {
		t.Fatalf("WriteXML() returned error: %s", err)
	}
	out := buf.String()

	for _, tag := range []string{"class", "classVarDec", "subroutineDec", "subroutineBody", "varDec", "statements", "letStatement", "returnStatement", "expression"} {
		if !strings.Contains(out, "<"+tag+">") {
			t.Errorf("output missing opening tag <%s>: %s", tag, out)
		}
		if !strings.Contains(out, "</"+tag+">") {
			t.Errorf("output missing closing tag </%s>: %s", tag, out)
		}
	}
}

func TestWriteXMLEscapesEntities(t *testing.T) {
	sub := jack.Subroutine{
		Name: "run", Type: jack.Function, Return: jack.DataType{Main: jack.Void},
		Statements: []jack.Statement{
			jack.DoStmt{FuncCall: jack.FuncCallExpr{
				IsExtCall: true, Var: "Output", FuncName: "printString",
				Arguments: []jack.Expression{jack.LiteralExpr{Type: jack.DataType{Main: jack.String}, Value: "a < b & b > c"}},
			}},
		},
	}
	class := newClass("Main", nil, sub)

	var buf strings.Builder
	if err := jack.WriteXML(&buf, class); err != nil {
		t.Fatalf("WriteXML() returned error: %s", err)
	}
	out := buf.String()

	if strings.Contains(out, "a < b & b > c") {
		t.Errorf("output contains unescaped entities: %s", out)
	}
	if !strings.Contains(out, "a &lt; b &amp; b &gt; c") {
		t.Errorf("output missing escaped string literal, got: %s", out)
	}
}
