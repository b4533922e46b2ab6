package jack

import (
	"fmt"
	"io"

	"hackc.dev/n2t/pkg/utils"
)

// ----------------------------------------------------------------------------
// Jack Parser

// A hand-written recursive-descent parser driving code generation is not
// implemented here directly (see Lowerer); Parser only builds the in-memory
// 'jack.Class' tree. It needs exactly one token of lookahead beyond the
// current token, to disambiguate 'term' after an identifier: '[' means array
// access, '.'/'(' means a subroutine call, anything else is a bare variable.
type Parser struct {
	tz   *Tokenizer
	name string // source unit name, used for diagnostics
}

// NewParser tokenizes 'r' eagerly and returns a Parser ready to produce the
// single 'jack.Class' declared in it.
func NewParser(r io.Reader, name string) (*Parser, error) {
	tz, err := NewTokenizer(r, name)
	if err != nil {
		return nil, err
	}
	return &Parser{tz: tz, name: name}, nil
}

// opTypes maps every binary operator symbol to its ExprType; '*'/'/' are
// resolved to a function call rather than an ArithmeticOp at lowering time,
// but they still parse as ordinary binary operators here.
var opTypes = map[string]ExprType{
	"+": Plus, "-": Minus, "*": Multiply, "/": Divide,
	"&": BoolAnd, "|": BoolOr, "<": LessThan, ">": GreatThan, "=": Equal,
}

// Parse consumes the Tokenizer's full token stream and returns the one
// 'jack.Class' it declares: 'class' id '{' classVarDec* subroutineDec* '}'.
func (p *Parser) Parse() (Class, error) {
	if _, err := p.expectKeyword("class"); err != nil {
		return Class{}, err
	}
	name, err := p.expectKind(IdentTok)
	if err != nil {
		return Class{}, err
	}
	if _, err := p.expectSymbol("{"); err != nil {
		return Class{}, err
	}

	class := Class{
		Name:        name.Lexeme,
		Fields:      utils.NewOrderedMap[string, Variable](),
		Subroutines: utils.NewOrderedMap[string, Subroutine](),
	}

	for {
		tok, ok := p.tz.Peek()
		if !ok {
			return Class{}, fmt.Errorf("%s: unexpected end of input, expected '}'", p.name)
		}
		if tok.Kind == SymbolTok && tok.Lexeme == "}" {
			p.tz.Next()
			return class, nil
		}

		if tok.Kind == KeywordTok && (tok.Lexeme == "static" || tok.Lexeme == "field") {
			vars, err := p.parseClassVarDec()
			if err != nil {
				return Class{}, err
			}
			for _, v := range vars {
				class.Fields.Set(v.Name, v)
			}
			continue
		}

		if tok.Kind == KeywordTok && (tok.Lexeme == "constructor" || tok.Lexeme == "function" || tok.Lexeme == "method") {
			sub, err := p.parseSubroutineDec()
			if err != nil {
				return Class{}, err
			}
			class.Subroutines.Set(sub.Name, sub)
			continue
		}

		return Class{}, fmt.Errorf("%s:%d: unexpected token '%s' in class body", p.name, tok.Line, tok.Lexeme)
	}
}

// classVarDec := ('static'|'field') type id (',' id)* ';'
func (p *Parser) parseClassVarDec() ([]Variable, error) {
	kindTok, _ := p.tz.Next()
	kind := Static
	if kindTok.Lexeme == "field" {
		kind = Field
	}

	dataType, err := p.parseType()
	if err != nil {
		return nil, err
	}

	vars := []Variable{}
	for {
		name, err := p.expectKind(IdentTok)
		if err != nil {
			return nil, err
		}
		vars = append(vars, Variable{Name: name.Lexeme, Type: kind, DataType: dataType})

		tok, ok := p.tz.Peek()
		if ok && tok.Kind == SymbolTok && tok.Lexeme == "," {
			p.tz.Next()
			continue
		}
		break
	}

	if _, err := p.expectSymbol(";"); err != nil {
		return nil, err
	}
	return vars, nil
}

// subroutine := ('constructor'|'function'|'method') ('void'|type) id '(' paramList ')' subBody
func (p *Parser) parseSubroutineDec() (Subroutine, error) {
	kindTok, _ := p.tz.Next()
	var subType SubroutineType
	switch kindTok.Lexeme {
	case "constructor":
		subType = Constructor
	case "function":
		subType = Function
	case "method":
		subType = Method
	}

	returnType, err := p.parseReturnType()
	if err != nil {
		return Subroutine{}, err
	}

	name, err := p.expectKind(IdentTok)
	if err != nil {
		return Subroutine{}, err
	}

	if _, err := p.expectSymbol("("); err != nil {
		return Subroutine{}, err
	}
	params, err := p.parseParamList()
	if err != nil {
		return Subroutine{}, err
	}
	if _, err := p.expectSymbol(")"); err != nil {
		return Subroutine{}, err
	}

	statements, err := p.parseSubroutineBody()
	if err != nil {
		return Subroutine{}, err
	}

	return Subroutine{
		Name:       name.Lexeme,
		Type:       subType,
		Return:     returnType,
		Arguments:  params,
		Statements: statements,
	}, nil
}

// parseReturnType handles the 'void'|type alternative that only a subroutine's
// return position allows ('void' is not a valid variable type elsewhere).
func (p *Parser) parseReturnType() (DataType, error) {
	tok, ok := p.tz.Peek()
	if ok && tok.Kind == KeywordTok && tok.Lexeme == "void" {
		p.tz.Next()
		return DataType{Main: Void}, nil
	}
	return p.parseType()
}

// type := 'int'|'char'|'boolean'|id
func (p *Parser) parseType() (DataType, error) {
	tok, ok := p.tz.Next()
	if !ok {
		return DataType{}, fmt.Errorf("%s: unexpected end of input, expected a type", p.name)
	}

	switch {
	case tok.Kind == KeywordTok && tok.Lexeme == "int":
		return DataType{Main: Int}, nil
	case tok.Kind == KeywordTok && tok.Lexeme == "char":
		return DataType{Main: Char}, nil
	case tok.Kind == KeywordTok && tok.Lexeme == "boolean":
		return DataType{Main: Bool}, nil
	case tok.Kind == IdentTok:
		return DataType{Main: Object, Subtype: tok.Lexeme}, nil
	default:
		return DataType{}, fmt.Errorf("%s:%d: unexpected token '%s', expected a type", p.name, tok.Line, tok.Lexeme)
	}
}

// paramList := ( type id (',' type id)* )?
func (p *Parser) parseParamList() ([]Variable, error) {
	params := []Variable{}

	if tok, ok := p.tz.Peek(); ok && tok.Kind == SymbolTok && tok.Lexeme == ")" {
		return params, nil
	}

	for {
		dataType, err := p.parseType()
		if err != nil {
			return nil, err
		}
		name, err := p.expectKind(IdentTok)
		if err != nil {
			return nil, err
		}
		params = append(params, Variable{Name: name.Lexeme, Type: Parameter, DataType: dataType})

		tok, ok := p.tz.Peek()
		if ok && tok.Kind == SymbolTok && tok.Lexeme == "," {
			p.tz.Next()
			continue
		}
		break
	}

	return params, nil
}

// subBody := '{' varDec* statements '}'
//
// Each varDec becomes a leading VarStmt in the returned statement list (there is no
// separate 'locals' field on Subroutine): the Lowerer registers a VarStmt's variables
// into the current scope without emitting any VM operation for it, which is exactly
// the semantics a local declaration needs.
func (p *Parser) parseSubroutineBody() ([]Statement, error) {
	if _, err := p.expectSymbol("{"); err != nil {
		return nil, err
	}

	stmts := []Statement{}
	for {
		tok, ok := p.tz.Peek()
		if !ok || tok.Kind != KeywordTok || tok.Lexeme != "var" {
			break
		}
		vars, err := p.parseVarDec()
		if err != nil {
			return nil, err
		}
		stmts = append(stmts, VarStmt{Vars: vars})
	}

	rest, err := p.parseStatements()
	if err != nil {
		return nil, err
	}
	stmts = append(stmts, rest...)

	if _, err := p.expectSymbol("}"); err != nil {
		return nil, err
	}

	return stmts, nil
}

// varDec := 'var' type id (',' id)* ';'
func (p *Parser) parseVarDec() ([]Variable, error) {
	if _, err := p.expectKeyword("var"); err != nil {
		return nil, err
	}

	dataType, err := p.parseType()
	if err != nil {
		return nil, err
	}

	vars := []Variable{}
	for {
		name, err := p.expectKind(IdentTok)
		if err != nil {
			return nil, err
		}
		vars = append(vars, Variable{Name: name.Lexeme, Type: Local, DataType: dataType})

		tok, ok := p.tz.Peek()
		if ok && tok.Kind == SymbolTok && tok.Lexeme == "," {
			p.tz.Next()
			continue
		}
		break
	}

	if _, err := p.expectSymbol(";"); err != nil {
		return nil, err
	}
	return vars, nil
}

// statements := (let|if|while|do|return)*
func (p *Parser) parseStatements() ([]Statement, error) {
	stmts := []Statement{}

	for {
		tok, ok := p.tz.Peek()
		if !ok || tok.Kind != KeywordTok {
			return stmts, nil
		}

		var stmt Statement
		var err error

		switch tok.Lexeme {
		case "let":
			stmt, err = p.parseLetStmt()
		case "if":
			stmt, err = p.parseIfStmt()
		case "while":
			stmt, err = p.parseWhileStmt()
		case "do":
			stmt, err = p.parseDoStmt()
		case "return":
			stmt, err = p.parseReturnStmt()
		default:
			return stmts, nil
		}

		if err != nil {
			return nil, err
		}
		stmts = append(stmts, stmt)
	}
}

// let := 'let' id ('[' expr ']')? '=' expr ';'
func (p *Parser) parseLetStmt() (Statement, error) {
	if _, err := p.expectKeyword("let"); err != nil {
		return nil, err
	}
	name, err := p.expectKind(IdentTok)
	if err != nil {
		return nil, err
	}

	var lhs Expression = VarExpr{Var: name.Lexeme}
	if tok, ok := p.tz.Peek(); ok && tok.Kind == SymbolTok && tok.Lexeme == "[" {
		p.tz.Next()
		index, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		if _, err := p.expectSymbol("]"); err != nil {
			return nil, err
		}
		lhs = ArrayExpr{Var: name.Lexeme, Index: index}
	}

	if _, err := p.expectSymbol("="); err != nil {
		return nil, err
	}
	rhs, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	if _, err := p.expectSymbol(";"); err != nil {
		return nil, err
	}

	return LetStmt{Lhs: lhs, Rhs: rhs}, nil
}

// if := 'if' '(' expr ')' '{' statements '}' ( 'else' '{' statements '}' )?
func (p *Parser) parseIfStmt() (Statement, error) {
	if _, err := p.expectKeyword("if"); err != nil {
		return nil, err
	}
	if _, err := p.expectSymbol("("); err != nil {
		return nil, err
	}
	cond, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	if _, err := p.expectSymbol(")"); err != nil {
		return nil, err
	}
	if _, err := p.expectSymbol("{"); err != nil {
		return nil, err
	}
	thenBlock, err := p.parseStatements()
	if err != nil {
		return nil, err
	}
	if _, err := p.expectSymbol("}"); err != nil {
		return nil, err
	}

	stmt := IfStmt{Condition: cond, ThenBlock: thenBlock}

	if tok, ok := p.tz.Peek(); ok && tok.Kind == KeywordTok && tok.Lexeme == "else" {
		p.tz.Next()
		if _, err := p.expectSymbol("{"); err != nil {
			return nil, err
		}
		elseBlock, err := p.parseStatements()
		if err != nil {
			return nil, err
		}
		if _, err := p.expectSymbol("}"); err != nil {
			return nil, err
		}
		stmt.ElseBlock = elseBlock
	}

	return stmt, nil
}

// while := 'while' '(' expr ')' '{' statements '}'
func (p *Parser) parseWhileStmt() (Statement, error) {
	if _, err := p.expectKeyword("while"); err != nil {
		return nil, err
	}
	if _, err := p.expectSymbol("("); err != nil {
		return nil, err
	}
	cond, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	if _, err := p.expectSymbol(")"); err != nil {
		return nil, err
	}
	if _, err := p.expectSymbol("{"); err != nil {
		return nil, err
	}
	block, err := p.parseStatements()
	if err != nil {
		return nil, err
	}
	if _, err := p.expectSymbol("}"); err != nil {
		return nil, err
	}

	return WhileStmt{Condition: cond, Block: block}, nil
}

// do := 'do' subCall ';'
func (p *Parser) parseDoStmt() (Statement, error) {
	if _, err := p.expectKeyword("do"); err != nil {
		return nil, err
	}
	call, err := p.parseSubCall()
	if err != nil {
		return nil, err
	}
	if _, err := p.expectSymbol(";"); err != nil {
		return nil, err
	}

	return DoStmt{FuncCall: call}, nil
}

// return := 'return' expr? ';'
func (p *Parser) parseReturnStmt() (Statement, error) {
	if _, err := p.expectKeyword("return"); err != nil {
		return nil, err
	}

	if tok, ok := p.tz.Peek(); ok && tok.Kind == SymbolTok && tok.Lexeme == ";" {
		p.tz.Next()
		return ReturnStmt{}, nil
	}

	expr, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	if _, err := p.expectSymbol(";"); err != nil {
		return nil, err
	}

	return ReturnStmt{Expr: expr}, nil
}

// expr := term (op term)*, left-associative and without operator precedence
// (Jack's defined semantics: every operator binds strictly left to right).
func (p *Parser) parseExpression() (Expression, error) {
	lhs, err := p.parseTerm()
	if err != nil {
		return nil, err
	}

	for {
		tok, ok := p.tz.Peek()
		if !ok || tok.Kind != SymbolTok {
			return lhs, nil
		}
		op, isOp := opTypes[tok.Lexeme]
		if !isOp {
			return lhs, nil
		}
		p.tz.Next()

		rhs, err := p.parseTerm()
		if err != nil {
			return nil, err
		}
		lhs = BinaryExpr{Type: op, Lhs: lhs, Rhs: rhs}
	}
}

// term := intConst | strConst | keywordConst | id | id '[' expr ']' | subCall
//       | '(' expr ')' | unaryOp term
//
// Disambiguating an identifier-led term needs exactly one token of
// lookahead past it: '[' means array access, '.'/'(' means a subroutine
// call, anything else is a bare variable reference.
func (p *Parser) parseTerm() (Expression, error) {
	tok, ok := p.tz.Peek()
	if !ok {
		return nil, fmt.Errorf("%s: unexpected end of input, expected a term", p.name)
	}

	switch {
	case tok.Kind == IntTok:
		p.tz.Next()
		return LiteralExpr{Type: DataType{Main: Int}, Value: tok.Lexeme}, nil

	case tok.Kind == StringTok:
		p.tz.Next()
		return LiteralExpr{Type: DataType{Main: String}, Value: tok.Lexeme}, nil

	case tok.Kind == KeywordTok && (tok.Lexeme == "true" || tok.Lexeme == "false"):
		p.tz.Next()
		return LiteralExpr{Type: DataType{Main: Bool}, Value: tok.Lexeme}, nil

	case tok.Kind == KeywordTok && tok.Lexeme == "null":
		p.tz.Next()
		return LiteralExpr{Type: DataType{Main: Object}, Value: "null"}, nil

	case tok.Kind == KeywordTok && tok.Lexeme == "this":
		p.tz.Next()
		return VarExpr{Var: "this"}, nil

	case tok.Kind == SymbolTok && tok.Lexeme == "(":
		p.tz.Next()
		expr, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		if _, err := p.expectSymbol(")"); err != nil {
			return nil, err
		}
		return expr, nil

	case tok.Kind == SymbolTok && (tok.Lexeme == "-" || tok.Lexeme == "~"):
		p.tz.Next()
		rhs, err := p.parseTerm()
		if err != nil {
			return nil, err
		}
		unaryType := Negation
		if tok.Lexeme == "~" {
			unaryType = BoolNot
		}
		return UnaryExpr{Type: unaryType, Rhs: rhs}, nil

	case tok.Kind == IdentTok:
		next, hasNext := p.tz.PeekAt(1)

		if hasNext && next.Kind == SymbolTok && next.Lexeme == "[" {
			p.tz.Next() // identifier
			p.tz.Next() // '['
			index, err := p.parseExpression()
			if err != nil {
				return nil, err
			}
			if _, err := p.expectSymbol("]"); err != nil {
				return nil, err
			}
			return ArrayExpr{Var: tok.Lexeme, Index: index}, nil
		}

		if hasNext && next.Kind == SymbolTok && (next.Lexeme == "(" || next.Lexeme == ".") {
			return p.parseSubCall()
		}

		p.tz.Next()
		return VarExpr{Var: tok.Lexeme}, nil

	default:
		return nil, fmt.Errorf("%s:%d: unexpected token '%s', expected a term", p.name, tok.Line, tok.Lexeme)
	}
}

// subCall := id '(' exprList ')' | id '.' id '(' exprList ')'
func (p *Parser) parseSubCall() (FuncCallExpr, error) {
	first, err := p.expectKind(IdentTok)
	if err != nil {
		return FuncCallExpr{}, err
	}

	call := FuncCallExpr{FuncName: first.Lexeme}

	if tok, ok := p.tz.Peek(); ok && tok.Kind == SymbolTok && tok.Lexeme == "." {
		p.tz.Next()
		method, err := p.expectKind(IdentTok)
		if err != nil {
			return FuncCallExpr{}, err
		}
		call = FuncCallExpr{IsExtCall: true, Var: first.Lexeme, FuncName: method.Lexeme}
	}

	if _, err := p.expectSymbol("("); err != nil {
		return FuncCallExpr{}, err
	}
	args, err := p.parseExpressionList()
	if err != nil {
		return FuncCallExpr{}, err
	}
	if _, err := p.expectSymbol(")"); err != nil {
		return FuncCallExpr{}, err
	}

	call.Arguments = args
	return call, nil
}

// exprList := ( expr (',' expr)* )?
func (p *Parser) parseExpressionList() ([]Expression, error) {
	args := []Expression{}

	if tok, ok := p.tz.Peek(); ok && tok.Kind == SymbolTok && tok.Lexeme == ")" {
		return args, nil
	}

	for {
		expr, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		args = append(args, expr)

		tok, ok := p.tz.Peek()
		if ok && tok.Kind == SymbolTok && tok.Lexeme == "," {
			p.tz.Next()
			continue
		}
		break
	}

	return args, nil
}

// ----------------------------------------------------------------------------
// Token helpers

func (p *Parser) expectKind(kind TokenKind) (Token, error) {
	tok, ok := p.tz.Next()
	if !ok {
		return Token{}, fmt.Errorf("%s: unexpected end of input, expected %s", p.name, kind)
	}
	if tok.Kind != kind {
		return Token{}, fmt.Errorf("%s:%d: expected %s, got '%s'", p.name, tok.Line, kind, tok.Lexeme)
	}
	return tok, nil
}

func (p *Parser) expectKeyword(lexeme string) (Token, error) {
	tok, ok := p.tz.Next()
	if !ok {
		return Token{}, fmt.Errorf("%s: unexpected end of input, expected '%s'", p.name, lexeme)
	}
	if tok.Kind != KeywordTok || tok.Lexeme != lexeme {
		return Token{}, fmt.Errorf("%s:%d: expected '%s', got '%s'", p.name, tok.Line, lexeme, tok.Lexeme)
	}
	return tok, nil
}

func (p *Parser) expectSymbol(lexeme string) (Token, error) {
	tok, ok := p.tz.Next()
	if !ok {
		return Token{}, fmt.Errorf("%s: unexpected end of input, expected '%s'", p.name, lexeme)
	}
	if tok.Kind != SymbolTok || tok.Lexeme != lexeme {
		return Token{}, fmt.Errorf("%s:%d: expected '%s', got '%s'", p.name, tok.Line, lexeme, tok.Lexeme)
	}
	return tok, nil
}
