package jack

import "hackc.dev/n2t/pkg/utils"

// ----------------------------------------------------------------------------
// Jack OS ABI

// StandardLibraryABI declares the signature of every class in the Jack OS (Math,
// String, Array, Output, Screen, Keyboard, Memory, Sys). No .vm output is ever written
// for these classes (with '--stdlib' the jack_compiler merges them into the 'jack.Program'
// only so that calls to them resolve), and the type checker uses their arity to catch a
// caller passing the wrong number of arguments to e.g. 'Math.min'.
var StandardLibraryABI = map[string]Class{
	"Math":     stdlibClass("Math", fn("init", Void), fn("abs", Int, "x"), fn("multiply", Int, "x", "y"), fn("divide", Int, "x", "y"), fn("min", Int, "x", "y"), fn("max", Int, "x", "y"), fn("sqrt", Int, "x")),
	"String":   stdlibClass("String", ctor("new", "String", "maxLength"), mtd("dispose", Void), mtd("length", Int), mtd("charAt", Char, "j"), mtd("setCharAt", Void, "j", "c"), mtd("appendChar", DataTypeKind("String"), "c"), mtd("eraseLastChar", Void), mtd("intValue", Int), mtd("setInt", Void, "val"), fn("newLine", Char), fn("backSpace", Char), fn("doubleQuote", Char)),
	"Array":    stdlibClass("Array", fn("new", DataTypeKind("Array"), "size"), mtd("dispose", Void)),
	"Output":   stdlibClass("Output", fn("init", Void), fn("moveCursor", Void, "i", "j"), fn("printChar", Void, "c"), fn("printString", Void, "s"), fn("printInt", Void, "i"), fn("println", Void), fn("backSpace", Void)),
	"Screen":   stdlibClass("Screen", fn("init", Void), fn("clearScreen", Void), fn("setColor", Void, "b"), fn("drawPixel", Void, "x", "y"), fn("drawLine", Void, "x1", "y1", "x2", "y2"), fn("drawRectangle", Void, "x1", "y1", "x2", "y2"), fn("drawCircle", Void, "x", "y", "r")),
	"Keyboard": stdlibClass("Keyboard", fn("init", Void), fn("keyPressed", Char), fn("readChar", Char), fn("readLine", DataTypeKind("String"), "message"), fn("readInt", Int, "message")),
	"Memory":   stdlibClass("Memory", fn("init", Void), fn("peek", Int, "address"), fn("poke", Void, "address", "value"), fn("alloc", DataTypeKind("Array"), "size"), fn("deAlloc", Void, "o")),
	"Sys":      stdlibClass("Sys", fn("init", Void), fn("halt", Void), fn("error", Void, "errorCode"), fn("wait", Void, "duration")),
}

// stdlibClass assembles a Class from a name and its subroutines; only Subroutines is
// populated, Fields is left empty since the type checker never inspects OS state.
func stdlibClass(name string, subs ...Subroutine) Class {
	class := Class{Name: name, Fields: utils.NewOrderedMap[string, Variable](), Subroutines: utils.NewOrderedMap[string, Subroutine]()}
	for _, sub := range subs {
		class.Subroutines.Set(sub.Name, sub)
	}
	return class
}

// fn declares a Jack OS function (static subroutine, no implicit 'this').
func fn(name string, ret DataTypeKind, params ...string) Subroutine {
	return subroutine(name, Function, ret, params)
}

// mtd declares a Jack OS method (takes an implicit receiver beyond 'params').
func mtd(name string, ret DataTypeKind, params ...string) Subroutine {
	return subroutine(name, Method, ret, params)
}

// ctor declares a Jack OS constructor returning an instance of 'class'.
func ctor(name string, class string, params ...string) Subroutine {
	sub := subroutine(name, Constructor, Object, params)
	sub.Return.Subtype = class
	return sub
}

// subroutine builds the shared shape for fn/mtd/ctor: only the parameter count
// matters for arity checks, so every parameter is declared 'int' regardless of its
// real Jack OS type.
func subroutine(name string, kind SubroutineType, ret DataTypeKind, params []string) Subroutine {
	args := make([]Variable, len(params))
	for i, p := range params {
		args[i] = Variable{Name: p, Type: Parameter, DataType: DataType{Main: Int}}
	}
	return Subroutine{Name: name, Type: kind, Return: DataType{Main: ret}, Arguments: args}
}
