package jack

import (
	"fmt"
	"io"
	"strings"
)

// ----------------------------------------------------------------------------
// Jack XML debug printer

// WriteXML renders 'class' as the nand2tetris-style parse-tree XML, one tag per
// grammar production plus a terminal tag (keyword/symbol/integerConstant/
// stringConstant/identifier) per token. It's reconstructed from the parsed AST
// rather than emitted alongside parsing, so it necessarily collapses a few
// distinctions the textbook's token-level printer preserves (e.g. a parenthesized
// sub-expression doesn't retain its original parentheses). It's meant for
// inspecting what the parser understood, not for byte-for-byte compatibility with
// a reference tool.
func WriteXML(w io.Writer, class Class) error {
	p := &xmlPrinter{w: w}
	p.printClass(class)
	return p.err
}

type xmlPrinter struct {
	w     io.Writer
	depth int
	err   error
}

func (p *xmlPrinter) write(format string, args ...any) {
	if p.err != nil {
		return
	}
	indent := strings.Repeat("  ", p.depth)
	_, err := fmt.Fprintf(p.w, "%s%s\n", indent, fmt.Sprintf(format, args...))
	if err != nil {
		p.err = err
	}
}

func (p *xmlPrinter) open(tag string) { p.write("<%s>", tag); p.depth++ }
func (p *xmlPrinter) close(tag string) { p.depth--; p.write("</%s>", tag) }

func (p *xmlPrinter) terminal(tag, value string) {
	p.write("<%s> %s </%s>", tag, escape(value), tag)
}

func (p *xmlPrinter) keyword(value string)  { p.terminal("keyword", value) }
func (p *xmlPrinter) symbol(value string)   { p.terminal("symbol", value) }
func (p *xmlPrinter) identifier(value string) { p.terminal("identifier", value) }

// escape replaces the three XML entities the spec calls out; Jack string
// literals may legally contain any of them.
func escape(s string) string {
	s = strings.ReplaceAll(s, "&", "&amp;")
	s = strings.ReplaceAll(s, "<", "&lt;")
	s = strings.ReplaceAll(s, ">", "&gt;")
	return s
}

func (p *xmlPrinter) printClass(class Class) {
	p.open("class")
	p.keyword("class")
	p.identifier(class.Name)
	p.symbol("{")

	for _, field := range class.Fields.Values() {
		p.printClassVarDec(field)
	}
	for _, sub := range class.Subroutines.Values() {
		p.printSubroutineDec(sub)
	}

	p.symbol("}")
	p.close("class")
}

func (p *xmlPrinter) printClassVarDec(v Variable) {
	p.open("classVarDec")
	if v.Type == Static {
		p.keyword("static")
	} else {
		p.keyword("field")
	}
	p.printType(v.DataType)
	p.identifier(v.Name)
	p.symbol(";")
	p.close("classVarDec")
}

func (p *xmlPrinter) printType(t DataType) {
	switch t.Main {
	case Int, Char, Bool, Void:
		p.keyword(string(t.Main))
	case Object:
		p.identifier(t.Subtype)
	default:
		p.keyword(string(t.Main))
	}
}

func (p *xmlPrinter) printSubroutineDec(sub Subroutine) {
	p.open("subroutineDec")
	p.keyword(string(sub.Type))
	p.printType(sub.Return)
	p.identifier(sub.Name)

	p.symbol("(")
	p.open("parameterList")
	for i, arg := range sub.Arguments {
		if i > 0 {
			p.symbol(",")
		}
		p.printType(arg.DataType)
		p.identifier(arg.Name)
	}
	p.close("parameterList")
	p.symbol(")")

	p.open("subroutineBody")
	p.symbol("{")
	for _, stmt := range sub.Statements {
		if v, isVar := stmt.(VarStmt); isVar {
			p.printVarDec(v)
		}
	}
	p.open("statements")
	for _, stmt := range sub.Statements {
		if _, isVar := stmt.(VarStmt); !isVar {
			p.printStatement(stmt)
		}
	}
	p.close("statements")
	p.symbol("}")
	p.close("subroutineBody")

	p.close("subroutineDec")
}

func (p *xmlPrinter) printVarDec(v VarStmt) {
	p.open("varDec")
	p.keyword("var")
	if len(v.Vars) > 0 {
		p.printType(v.Vars[0].DataType)
	}
	for i, variable := range v.Vars {
		if i > 0 {
			p.symbol(",")
		}
		p.identifier(variable.Name)
	}
	p.symbol(";")
	p.close("varDec")
}

func (p *xmlPrinter) printStatement(stmt Statement) {
	switch s := stmt.(type) {
	case LetStmt:
		p.printLetStatement(s)
	case IfStmt:
		p.printIfStatement(s)
	case WhileStmt:
		p.printWhileStatement(s)
	case DoStmt:
		p.printDoStatement(s)
	case ReturnStmt:
		p.printReturnStatement(s)
	}
}

func (p *xmlPrinter) printLetStatement(s LetStmt) {
	p.open("letStatement")
	p.keyword("let")

	switch lhs := s.Lhs.(type) {
	case VarExpr:
		p.identifier(lhs.Var)
	case ArrayExpr:
		p.identifier(lhs.Var)
		p.symbol("[")
		p.printExpression(lhs.Index)
		p.symbol("]")
	}

	p.symbol("=")
	p.printExpression(s.Rhs)
	p.symbol(";")
	p.close("letStatement")
}

func (p *xmlPrinter) printIfStatement(s IfStmt) {
	p.open("ifStatement")
	p.keyword("if")
	p.symbol("(")
	p.printExpression(s.Condition)
	p.symbol(")")
	p.symbol("{")
	p.open("statements")
	for _, stmt := range s.ThenBlock {
		p.printStatement(stmt)
	}
	p.close("statements")
	p.symbol("}")

	if len(s.ElseBlock) > 0 {
		p.keyword("else")
		p.symbol("{")
		p.open("statements")
		for _, stmt := range s.ElseBlock {
			p.printStatement(stmt)
		}
		p.close("statements")
		p.symbol("}")
	}

	p.close("ifStatement")
}

func (p *xmlPrinter) printWhileStatement(s WhileStmt) {
	p.open("whileStatement")
	p.keyword("while")
	p.symbol("(")
	p.printExpression(s.Condition)
	p.symbol(")")
	p.symbol("{")
	p.open("statements")
	for _, stmt := range s.Block {
		p.printStatement(stmt)
	}
	p.close("statements")
	p.symbol("}")
	p.close("whileStatement")
}

func (p *xmlPrinter) printDoStatement(s DoStmt) {
	p.open("doStatement")
	p.keyword("do")
	p.printSubCall(s.FuncCall)
	p.symbol(";")
	p.close("doStatement")
}

func (p *xmlPrinter) printReturnStatement(s ReturnStmt) {
	p.open("returnStatement")
	p.keyword("return")
	if s.Expr != nil {
		p.printExpression(s.Expr)
	}
	p.symbol(";")
	p.close("returnStatement")
}

// opSymbols maps an ExprType back to the operator symbol that produced it; the
// parser discards the original token, so this is the inverse of 'opTypes'.
var opSymbols = map[ExprType]string{
	Plus: "+", Minus: "-", Multiply: "*", Divide: "/",
	BoolAnd: "&", BoolOr: "|", LessThan: "<", GreatThan: ">", Equal: "=",
}

func (p *xmlPrinter) printExpression(expr Expression) {
	p.open("expression")
	p.printTerm(expr)
	p.close("expression")
}

func (p *xmlPrinter) printTerm(expr Expression) {
	switch e := expr.(type) {
	case BinaryExpr:
		p.open("term")
		p.printTerm(e.Lhs)
		p.close("term")
		p.symbol(opSymbols[e.Type])
		p.open("term")
		p.printTerm(e.Rhs)
		p.close("term")

	case UnaryExpr:
		p.open("term")
		if e.Type == Negation {
			p.symbol("-")
		} else {
			p.symbol("~")
		}
		p.printTerm(e.Rhs)
		p.close("term")

	case LiteralExpr:
		p.open("term")
		switch e.Type.Main {
		case Int:
			p.terminal("integerConstant", e.Value)
		case String:
			p.terminal("stringConstant", e.Value)
		default:
			p.keyword(e.Value)
		}
		p.close("term")

	case VarExpr:
		p.open("term")
		if e.Var == "this" {
			p.keyword("this")
		} else {
			p.identifier(e.Var)
		}
		p.close("term")

	case ArrayExpr:
		p.open("term")
		p.identifier(e.Var)
		p.symbol("[")
		p.printExpression(e.Index)
		p.symbol("]")
		p.close("term")

	case FuncCallExpr:
		p.open("term")
		p.printSubCall(e)
		p.close("term")
	}
}

func (p *xmlPrinter) printSubCall(call FuncCallExpr) {
	if call.IsExtCall {
		p.identifier(call.Var)
		p.symbol(".")
	}
	p.identifier(call.FuncName)
	p.symbol("(")
	p.open("expressionList")
	for i, arg := range call.Arguments {
		if i > 0 {
			p.symbol(",")
		}
		p.printExpression(arg)
	}
	p.close("expressionList")
	p.symbol(")")
}
