// Package diag is the shared diagnostic carrier used by all three lowering
// stages (assembler, VM translator, Jack compiler). Every stage halts its
// current unit on the first lexical, syntactic, semantic or I/O violation
// and surfaces exactly one line identifying the offending source line.
package diag

import (
	"fmt"

	"github.com/pkg/errors"
)

// Kind classifies why a Diagnostic was raised, mirroring the taxonomy laid
// out for error handling: lexical, syntactic, semantic and I/O failures are
// all fatal to the unit that raised them, nothing is retried or recovered.
type Kind string

const (
	Lexical  Kind = "lexical"
	Syntax   Kind = "syntax"
	Semantic Kind = "semantic"
	IO       Kind = "io"
)

// Diagnostic is a single fatal error tied to a source file and line. The
// zero Line value (0) means "no specific line", used for whole-file errors
// such as a missing input.
type Diagnostic struct {
	File string
	Line int
	Kind Kind
	msg  string
	Wrapped error
}

func (d *Diagnostic) Error() string {
	if d.Line > 0 {
		return fmt.Sprintf("%s:%d: %s", d.File, d.Line, d.msg)
	}
	return fmt.Sprintf("%s: %s", d.File, d.msg)
}

func (d *Diagnostic) Unwrap() error { return d.Wrapped }

// New builds a Diagnostic for 'file' at 'line' with the given kind and
// message, formatted like fmt.Sprintf.
func New(kind Kind, file string, line int, format string, args ...any) *Diagnostic {
	return &Diagnostic{File: file, Line: line, Kind: kind, msg: fmt.Sprintf(format, args...)}
}

// Wrap attaches file/line context to an existing error, preserving it via
// errors.Wrap so the original cause remains inspectable with errors.Cause.
func Wrap(err error, kind Kind, file string, line int) *Diagnostic {
	return &Diagnostic{
		File: file, Line: line, Kind: kind,
		msg:     err.Error(),
		Wrapped: errors.Wrap(err, string(kind)),
	}
}
