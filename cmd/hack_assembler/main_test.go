package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHackAssembler(t *testing.T) {
	run := func(t *testing.T, source string) []string {
		t.Helper()
		dir := t.TempDir()
		input := filepath.Join(dir, "program.asm")
		output := filepath.Join(dir, "program.hack")
		require.NoError(t, os.WriteFile(input, []byte(source), 0o644))

		status := Handler([]string{input, output}, nil)
		require.Equal(t, 0, status, "Handler() should exit successfully")

		content, err := os.ReadFile(output)
		require.NoError(t, err)

		lines := strings.Split(strings.TrimRight(string(content), "\n"), "\n")
		for _, line := range lines {
			assert.Len(t, line, 16, "every emitted instruction should be 16 bits, got %q", line)
		}
		return lines
	}

	t.Run("assembles a raw A and C instruction pair", func(t *testing.T) {
		lines := run(t, "@2\nD=A\n")
		require.Len(t, lines, 2)
		assert.Equal(t, "0000000000000010", lines[0])
	})

	t.Run("resolves a forward-referenced label and a built-in symbol", func(t *testing.T) {
		lines := run(t, strings.Join([]string{
			"@SP",
			"D=M",
			"@LOOP",
			"0;JMP",
			"(LOOP)",
			"@KBD",
			"D=M",
		}, "\n"))
		require.Len(t, lines, 6)
	})

	t.Run("allocates fresh RAM slots for undeclared variables starting at 16", func(t *testing.T) {
		lines := run(t, "@foo\nM=1\n@bar\nM=1\n")
		require.Len(t, lines, 4)
		assert.Equal(t, "0000000000010000", lines[0], "first user variable should land at address 16")
		assert.Equal(t, "0000000000010001", lines[2], "second user variable should land at address 17")
	})

	t.Run("reports the input file error without touching the output", func(t *testing.T) {
		status := Handler([]string{filepath.Join(t.TempDir(), "missing.asm"), filepath.Join(t.TempDir(), "out.hack")}, nil)
		assert.NotEqual(t, 0, status)
	})
}
