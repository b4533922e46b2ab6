package vm

// ----------------------------------------------------------------------------
// General information

// This section contains some general information about the VM intermediate language.
//
// We declare a shared 'Operation' interface for every macro operation available for the
// language and we define some other useful top-level struct such as Program and Module.
// Is important to note that a VM program can be composed of multiple translation units
// that can be also referenced as file or modules or also classes.

// A VM Program is a set of named modules, in the VM spec each Jack class (or each
// standalone .vm source file given to the translator) becomes its own module, each
// named after its source file with the extension stripped. The name matters beyond
// bookkeeping: static segment variables are file-scoped, so the Lowerer needs
// it to produce a distinct Hack label per module for the same static index.
type Program struct {
	Modules []NamedModule
}

// NamedModule pairs a Module with the source unit it came from.
type NamedModule struct {
	Name string
	Ops  Module
}

// A VM Module is just a linear list of VM operations/instructions
type Module []Operation

// Used to put together all operation in the VM language (Memory, Arithmetic, ... ops).
type Operation interface{}

// ----------------------------------------------------------------------------
// Memory Op

// In memory representation of a Memory operation for the VM language.
//
// In the VM intermediate language there are only two possible memory operation on the stack.
// We could either push a new value taken from the specified segment location on the stack's
// top or take the stack's top and saves its value at the specified segment location.
type MemoryOp struct {
	Operation OperationType // The type of operation, either 'push' or 'pop'
	Segment   SegmentType   // The named memory segment to use (this, that, temp, ...)
	Offset    uint16        // The specific location/offset inside of the memory segment
}

type OperationType string // Enum to manage the operation allowed for a MemoryOp

const (
	Push OperationType = "push"
	Pop  OperationType = "pop"
)

type SegmentType string // Enum to manage the segment accessible for a MemoryOp

const (
	Temp     SegmentType = "temp"     // Real segment used to store intermediate computations
	Constant SegmentType = "constant" // Virtual segment used to access numeric constant

	Local    SegmentType = "local"    // Real segment used to store local function variables
	Static   SegmentType = "static"   // Real segment used to store shared/static variables
	Argument SegmentType = "argument" // Real segment used to store function's argument

	This    SegmentType = "this"    // Virtual segment used to point to a specific memory location
	That    SegmentType = "that"    // Virtual segment used to point to a specific memory location
	Pointer SegmentType = "pointer" // Real segment w/ 2 location used to set the 'this' and 'that' pointers
)

// ----------------------------------------------------------------------------
// Arithmetic Op

// In memory representation of a Arithmetic operation for the VM language.
//
// In the VM intermediate language there are just a handful of operation available.
// In particular each operation acts directly on the top of the stack, of course we have both unary
// and binary operation, the specific management of each op will be handled in the codegen phase.
type ArithmeticOp struct{ Operation ArithOpType }

type ArithOpType string // Enum to manage the operation allowed for an ArithmeticOp

const (
	Eq ArithOpType = "eq" // Comparison operations
	Gt ArithOpType = "gt"
	Lt ArithOpType = "lt"

	Add ArithOpType = "add" // Arithmetic operations
	Sub ArithOpType = "sub"
	Neg ArithOpType = "neg"

	Not ArithOpType = "not" // Bitwise operations
	And ArithOpType = "and"
	Or  ArithOpType = "or"
)

// ----------------------------------------------------------------------------
// Program Flow Ops

// A label declaration, scoped to the enclosing function (two functions in the same
// module may declare the same label name without colliding once lowered, since the
// Lowerer mangles it with the function's name).
type LabelDecl struct{ Name string }

// An unconditional or conditional jump to a label declared somewhere in the same
// function. Conditional pops the stack's top and jumps only if it is non-zero.
type GotoOp struct {
	Jump  JumpType
	Label string
}

type JumpType string

const (
	Unconditional JumpType = "goto"
	Conditional   JumpType = "if-goto"
)

// ----------------------------------------------------------------------------
// Function Ops

// A function declaration: the entrypoint of a callable unit along with how many
// local variables it needs (the Lowerer zero-initializes all of them).
type FuncDecl struct {
	Name   string
	NLocal uint16
}

// A call to a previously (or later) declared function, passing NArgs arguments
// already pushed on the stack by the caller.
type FuncCallOp struct {
	Name  string
	NArgs uint16
}

// Returns control (and the stack's top, the return value) to the caller, tearing
// down the current function's stack frame.
type ReturnOp struct{}
