package diag_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"hackc.dev/n2t/pkg/diag"
)

func TestDiagnosticFormatting(t *testing.T) {
	d := diag.New(diag.Syntax, "Main.vm", 12, "unexpected token %q", "pish")
	assert.Equal(t, `Main.vm:12: unexpected token "pish"`, d.Error())
}

func TestDiagnosticWithoutLine(t *testing.T) {
	d := diag.New(diag.IO, "Main.jack", 0, "file not found")
	assert.Equal(t, "Main.jack: file not found", d.Error())
}

func TestWrapPreservesCause(t *testing.T) {
	cause := errors.New("disk full")
	d := diag.Wrap(cause, diag.IO, "Main.vm", 3)
	assert.Contains(t, d.Error(), "disk full")
	assert.ErrorIs(t, d.Unwrap(), cause)
}
