package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeVM(t *testing.T, dir, name, source string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(source), 0o644))
	return path
}

func TestVMTranslator(t *testing.T) {
	t.Run("translates stack arithmetic into push/pop and ALU lines", func(t *testing.T) {
		dir := t.TempDir()
		input := writeVM(t, dir, "SimpleAdd.vm", strings.Join([]string{
			"push constant 7",
			"push constant 8",
			"add",
		}, "\n"))
		output := filepath.Join(dir, "SimpleAdd.asm")

		status := Handler([]string{input}, map[string]string{"output": output})
		require.Equal(t, 0, status)

		content, err := os.ReadFile(output)
		require.NoError(t, err)
		assert.Contains(t, string(content), "@SP")
		assert.NotContains(t, string(content), "@Sys.init", "bootstrap was not requested")
	})

	t.Run("prefixes the bootstrap sequence only when requested", func(t *testing.T) {
		dir := t.TempDir()
		input := writeVM(t, dir, "Main.vm", "function Main.main 0\npush constant 0\nreturn\n")
		output := filepath.Join(dir, "Main.asm")

		status := Handler([]string{input}, map[string]string{"output": output, "bootstrap": "true"})
		require.Equal(t, 0, status)

		content, err := os.ReadFile(output)
		require.NoError(t, err)
		lines := strings.Split(string(content), "\n")
		require.NotEmpty(t, lines)
		assert.Equal(t, "@256", lines[0], "bootstrap should set SP before anything else")
		assert.Contains(t, string(content), "Sys.init")
	})

	t.Run("keeps static variables scoped to their own module", func(t *testing.T) {
		dir := t.TempDir()
		a := writeVM(t, dir, "A.vm", "function A.f 0\npush constant 1\npop static 0\npush static 0\nreturn\n")
		b := writeVM(t, dir, "B.vm", "function B.g 0\npush constant 2\npop static 0\npush static 0\nreturn\n")
		output := filepath.Join(dir, "out.asm")

		status := Handler([]string{a, b}, map[string]string{"output": output})
		require.Equal(t, 0, status)

		content, err := os.ReadFile(output)
		require.NoError(t, err)
		assert.Contains(t, string(content), "A.0")
		assert.Contains(t, string(content), "B.0")
	})

	t.Run("reports a malformed VM command", func(t *testing.T) {
		dir := t.TempDir()
		input := writeVM(t, dir, "Bad.vm", "pop constant 0\n")
		output := filepath.Join(dir, "Bad.asm")

		status := Handler([]string{input}, map[string]string{"output": output})
		assert.NotEqual(t, 0, status, "popping into the 'constant' segment is invalid")
	})
}
