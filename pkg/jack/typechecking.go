package jack

import (
	"fmt"
	"strings"
)

// ----------------------------------------------------------------------------
// Jack Type Checker

// TypeChecker walks a 'jack.Program' the same way the Lowerer does (DFS, class by
// class then statement by statement) but never emits VM code: it only verifies that
// every variable reference resolves, every assignment and operator is given operands
// of a compatible type, and every subroutine call is given the right number of
// arguments. It runs before lowering so a type error is reported in terms of the
// Jack source rather than as a cryptic VM operand count mismatch.
type TypeChecker struct {
	program Program
	scopes  ScopeTable // Keeps track of the scopes and declared variables inside each one
}

func NewTypeChecker(program Program) TypeChecker {
	return TypeChecker{program: program, scopes: ScopeTable{}}
}

// Check type-checks every class in the program, returns ok=true only if none of them
// reported an error; the first error encountered is also returned for diagnostics.
func (tc *TypeChecker) Check() (bool, error) {
	if len(tc.program) == 0 {
		return false, fmt.Errorf("the given 'program' is empty or nil")
	}

	for name, class := range tc.program {
		if _, err := tc.HandleClass(class); err != nil {
			return false, fmt.Errorf("error type-checking class '%s': %w", name, err)
		}
	}

	return true, nil
}

// Specialized function to type-check a 'jack.Class' and nested fields.
func (tc *TypeChecker) HandleClass(class Class) (bool, error) {
	tc.scopes.PushClassScope(class.Name) // Keep track of the current scope being processed
	defer tc.scopes.PopClassScope()      // Reset the function name after processing

	for _, field := range class.Fields.Values() {
		if _, err := tc.HandleVarStmt(VarStmt{Vars: []Variable{field}}); err != nil {
			return false, fmt.Errorf("error handling field '%s' in class '%s': %w", field.Name, class.Name, err)
		}
	}

	for _, subroutine := range class.Subroutines.Values() {
		if _, err := tc.HandleSubroutine(subroutine); err != nil {
			return false, fmt.Errorf("error handling subroutine '%s' in class '%s': %w", subroutine.Name, class.Name, err)
		}
	}

	return true, nil
}

// Specialized function to type-check a 'jack.Subroutine' and nested fields.
func (tc *TypeChecker) HandleSubroutine(subroutine Subroutine) (bool, error) {
	tc.scopes.PushSubRoutineScope(subroutine.Name) // Keep track of the current subroutine function being processed
	defer tc.scopes.PopSubroutineScope()           // Reset the function name after processing

	if subroutine.Type == Method {
		tc.scopes.RegisterVariable(Variable{Name: "__obj", Type: Parameter, DataType: DataType{Main: Object}})
	}

	// We add to the current scope also all of the arguments of the subroutine
	for _, arg := range subroutine.Arguments {
		// Like this we're actually supporting shadowing of variables, so if a variable
		// with the same name is already present in the current scope, we just temporarily
		// override it with the most update one instead of returning an error (like Go does
		tc.scopes.RegisterVariable(arg)
	}

	for _, stmt := range subroutine.Statements {
		if _, err := tc.HandleStatement(stmt, subroutine.Return); err != nil {
			return false, fmt.Errorf("error handling nested statement %T: %w", stmt, err)
		}
	}

	return true, nil
}

// Generalized function to type-check multiple statement types. 'ret' is the enclosing
// subroutine's declared return type, needed to check ReturnStmt against it.
func (tc *TypeChecker) HandleStatement(stmt Statement, ret DataType) (bool, error) {
	switch tStmt := stmt.(type) {
	case DoStmt:
		_, err := tc.HandleFuncCallExpr(tStmt.FuncCall)
		return err == nil, err

	case VarStmt:
		return tc.HandleVarStmt(tStmt)

	case LetStmt:
		return tc.HandleLetStmt(tStmt)

	case IfStmt:
		cond, err := tc.HandleExpression(tStmt.Condition)
		if err != nil {
			return false, fmt.Errorf("error handling if condition: %w", err)
		}
		if cond.Main != Bool {
			return false, fmt.Errorf("if condition must be 'boolean', got '%s'", cond.Main)
		}
		for _, s := range append(append([]Statement{}, tStmt.ThenBlock...), tStmt.ElseBlock...) {
			if _, err := tc.HandleStatement(s, ret); err != nil {
				return false, err
			}
		}
		return true, nil

	case WhileStmt:
		cond, err := tc.HandleExpression(tStmt.Condition)
		if err != nil {
			return false, fmt.Errorf("error handling while condition: %w", err)
		}
		if cond.Main != Bool {
			return false, fmt.Errorf("while condition must be 'boolean', got '%s'", cond.Main)
		}
		for _, s := range tStmt.Block {
			if _, err := tc.HandleStatement(s, ret); err != nil {
				return false, err
			}
		}
		return true, nil

	case ReturnStmt:
		if tStmt.Expr == nil {
			if ret.Main != Void {
				return false, fmt.Errorf("subroutine declares return type '%s' but returns no value", ret.Main)
			}
			return true, nil
		}

		actual, err := tc.HandleExpression(tStmt.Expr)
		if err != nil {
			return false, fmt.Errorf("error handling return expression: %w", err)
		}
		if ret.Main == Void {
			return false, fmt.Errorf("subroutine declares return type 'void' but returns a value")
		}
		if !compatible(ret, actual) {
			return false, fmt.Errorf("subroutine declares return type '%s' but returns '%s'", ret.Main, actual.Main)
		}
		return true, nil

	default:
		return false, fmt.Errorf("unrecognized statement: %T", stmt)
	}
}

// Specialized function to type-check a 'jack.VarStmt': it just registers the declared
// variables into scope, the same as the Lowerer does.
func (tc *TypeChecker) HandleVarStmt(statement VarStmt) (bool, error) {
	for _, variable := range statement.Vars {
		tc.scopes.RegisterVariable(variable)
	}
	return true, nil
}

// Specialized function to type-check a 'jack.LetStmt': for a plain variable the RHS must be
// compatible with the variable's declared type; for an array cell only the index is checked
// (it must be 'int'), the RHS type is not checked since Jack arrays are untyped.
func (tc *TypeChecker) HandleLetStmt(statement LetStmt) (bool, error) {
	rhs, err := tc.HandleExpression(statement.Rhs)
	if err != nil {
		return false, fmt.Errorf("error handling RHS expression: %w", err)
	}

	if expr, isVarExpr := statement.Lhs.(VarExpr); isVarExpr {
		_, variable, err := tc.scopes.ResolveVariable(expr.Var)
		if err != nil {
			return false, fmt.Errorf("error resolving variable '%s': %w", expr.Var, err)
		}
		if !compatible(variable.DataType, rhs) {
			return false, fmt.Errorf("cannot assign '%s' to variable '%s' of type '%s'", rhs.Main, expr.Var, variable.DataType.Main)
		}
		return true, nil
	}

	if expr, isArrayExpr := statement.Lhs.(ArrayExpr); isArrayExpr {
		if _, _, err := tc.scopes.ResolveVariable(expr.Var); err != nil {
			return false, fmt.Errorf("error resolving array variable '%s': %w", expr.Var, err)
		}
		index, err := tc.HandleExpression(expr.Index)
		if err != nil {
			return false, fmt.Errorf("error handling array index expression: %w", err)
		}
		if index.Main != Int {
			return false, fmt.Errorf("array index must be 'int', got '%s'", index.Main)
		}
		return true, nil
	}

	return false, fmt.Errorf("LHS expression must be either a 'VarExpr' or an 'ArrayExpr', got: %T", statement.Lhs)
}

// Generalized function to type-check multiple expression types, returning the
// DataType the expression produces once evaluated.
func (tc *TypeChecker) HandleExpression(expr Expression) (DataType, error) {
	switch tExpr := expr.(type) {
	case VarExpr:
		return tc.HandleVarExpr(tExpr)
	case LiteralExpr:
		return tExpr.Type, nil
	case ArrayExpr:
		return tc.HandleArrayExpr(tExpr)
	case UnaryExpr:
		return tc.HandleUnaryExpr(tExpr)
	case BinaryExpr:
		return tc.HandleBinaryExpr(tExpr)
	case FuncCallExpr:
		return tc.HandleFuncCallExpr(tExpr)
	default:
		return DataType{}, fmt.Errorf("unrecognized expression: %T", expr)
	}
}

func (tc *TypeChecker) HandleVarExpr(expression VarExpr) (DataType, error) {
	if expression.Var == "this" {
		return DataType{Main: Object}, nil
	}
	_, variable, err := tc.scopes.ResolveVariable(expression.Var)
	if err != nil {
		return DataType{}, fmt.Errorf("error resolving variable '%s': %w", expression.Var, err)
	}
	return variable.DataType, nil
}

func (tc *TypeChecker) HandleArrayExpr(expression ArrayExpr) (DataType, error) {
	if _, _, err := tc.scopes.ResolveVariable(expression.Var); err != nil {
		return DataType{}, fmt.Errorf("error resolving array variable '%s': %w", expression.Var, err)
	}
	index, err := tc.HandleExpression(expression.Index)
	if err != nil {
		return DataType{}, fmt.Errorf("error handling array index expression: %w", err)
	}
	if index.Main != Int {
		return DataType{}, fmt.Errorf("array index must be 'int', got '%s'", index.Main)
	}
	// Jack arrays are untyped containers of words; any element read is treated as 'int'.
	return DataType{Main: Int}, nil
}

func (tc *TypeChecker) HandleUnaryExpr(expression UnaryExpr) (DataType, error) {
	rhs, err := tc.HandleExpression(expression.Rhs)
	if err != nil {
		return DataType{}, fmt.Errorf("error handling nested expression: %w", err)
	}

	switch expression.Type {
	case Negation:
		if rhs.Main != Int {
			return DataType{}, fmt.Errorf("unary '-' requires 'int', got '%s'", rhs.Main)
		}
		return DataType{Main: Int}, nil
	case BoolNot:
		if rhs.Main != Bool {
			return DataType{}, fmt.Errorf("unary '~' requires 'boolean', got '%s'", rhs.Main)
		}
		return DataType{Main: Bool}, nil
	default:
		return DataType{}, fmt.Errorf("unrecognized unary expression type: %s", expression.Type)
	}
}

func (tc *TypeChecker) HandleBinaryExpr(expression BinaryExpr) (DataType, error) {
	lhs, err := tc.HandleExpression(expression.Lhs)
	if err != nil {
		return DataType{}, fmt.Errorf("error handling nested LHS expression: %w", err)
	}
	rhs, err := tc.HandleExpression(expression.Rhs)
	if err != nil {
		return DataType{}, fmt.Errorf("error handling nested RHS expression: %w", err)
	}

	switch expression.Type {
	case Plus, Minus, Divide, Multiply:
		if lhs.Main != Int || rhs.Main != Int {
			return DataType{}, fmt.Errorf("arithmetic operator requires 'int' operands, got '%s' and '%s'", lhs.Main, rhs.Main)
		}
		return DataType{Main: Int}, nil

	case BoolOr, BoolAnd:
		if lhs.Main != Bool || rhs.Main != Bool {
			return DataType{}, fmt.Errorf("boolean operator requires 'boolean' operands, got '%s' and '%s'", lhs.Main, rhs.Main)
		}
		return DataType{Main: Bool}, nil

	case LessThan, GreatThan:
		if lhs.Main != Int || rhs.Main != Int {
			return DataType{}, fmt.Errorf("comparison operator requires 'int' operands, got '%s' and '%s'", lhs.Main, rhs.Main)
		}
		return DataType{Main: Bool}, nil

	case Equal:
		if !compatible(lhs, rhs) && !compatible(rhs, lhs) {
			return DataType{}, fmt.Errorf("cannot compare '%s' and '%s' for equality", lhs.Main, rhs.Main)
		}
		return DataType{Main: Bool}, nil

	default:
		return DataType{}, fmt.Errorf("unrecognized binary expression type: %s", expression.Type)
	}
}

func (tc *TypeChecker) HandleFuncCallExpr(expression FuncCallExpr) (DataType, error) {
	for _, arg := range expression.Arguments {
		if _, err := tc.HandleExpression(arg); err != nil {
			return DataType{}, fmt.Errorf("error handling argument expression: %w", err)
		}
	}

	// A bare call names a subroutine of the current class; resolve it against the
	// enclosing class instead of 'expression.Var' (empty for bare calls).
	className := expression.Var
	if !expression.IsExtCall {
		className = strings.Split(tc.scopes.GetScope(), ".")[0]
	} else if _, variable, err := tc.scopes.ResolveVariable(expression.Var); err == nil {
		// Dotted call on a known variable: resolve against the variable's class, not its name.
		if variable.DataType.Main != Object {
			return DataType{}, fmt.Errorf("variable '%s' is not an object", expression.Var)
		}
		className = variable.DataType.Subtype
	}

	class, isClass := tc.program[className]
	if !isClass {
		class, isClass = StandardLibraryABI[className]
	}
	if !isClass {
		return DataType{}, nil // unknown class, e.g. a variable's type we can't resolve here; lowering will catch it
	}

	routine, exists := class.Subroutines.Get(expression.FuncName)
	if !exists {
		return DataType{}, fmt.Errorf("subroutine '%s' not found in class '%s'", expression.FuncName, className)
	}
	if len(expression.Arguments) != len(routine.Arguments) {
		return DataType{}, fmt.Errorf("subroutine '%s.%s' expects %d arguments, got %d", className, expression.FuncName, len(routine.Arguments), len(expression.Arguments))
	}

	return routine.Return, nil
}

// compatible reports whether a value of type 'actual' may be used where 'declared' is
// expected. Object types are compatible only when both name the same class (or either
// side is a bare, subtype-less object reference such as 'null').
func compatible(declared, actual DataType) bool {
	if declared.Main != Object || actual.Main != Object {
		return declared.Main == actual.Main
	}
	return declared.Subtype == "" || actual.Subtype == "" || declared.Subtype == actual.Subtype
}
