package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeJack(t *testing.T, dir, name, source string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(source), 0o644))
	return path
}

func TestJackCompiler(t *testing.T) {
	t.Run("compiles a single class into a sibling .vm file", func(t *testing.T) {
		dir := t.TempDir()
		input := writeJack(t, dir, "Main.jack", strings.Join([]string{
			"class Main {",
			"  function void main() {",
			"    do Output.printInt(42);",
			"    return;",
			"  }",
			"}",
		}, "\n"))

		status := Handler([]string{input}, map[string]string{"stdlib": "true"})
		require.Equal(t, 0, status)

		compiled, err := os.ReadFile(filepath.Join(dir, "Main.vm"))
		require.NoError(t, err)
		assert.Contains(t, string(compiled), "function Main.main 0")
		assert.Contains(t, string(compiled), "call Output.printInt 1")
	})

	t.Run("typecheck rejects an int used as an 'if' condition", func(t *testing.T) {
		dir := t.TempDir()
		input := writeJack(t, dir, "Bad.jack", strings.Join([]string{
			"class Bad {",
			"  function void run() {",
			"    if (1) {",
			"      return;",
			"    }",
			"    return;",
			"  }",
			"}",
		}, "\n"))

		status := Handler([]string{input}, map[string]string{"typecheck": "true"})
		assert.NotEqual(t, 0, status)
	})

	t.Run("dumps the parsed AST as XML alongside the .vm output", func(t *testing.T) {
		dir := t.TempDir()
		input := writeJack(t, dir, "Point.jack", strings.Join([]string{
			"class Point {",
			"  field int x;",
			"  constructor Point new(int ax) {",
			"    let x = ax;",
			"    return this;",
			"  }",
			"}",
		}, "\n"))

		status := Handler([]string{input}, map[string]string{"xml": "true"})
		require.Equal(t, 0, status)

		xml, err := os.ReadFile(filepath.Join(dir, "Point.xml"))
		require.NoError(t, err)
		assert.Contains(t, string(xml), "<class>")
		assert.Contains(t, string(xml), "<classVarDec>")
	})

	t.Run("walks a directory of .jack files and compiles every class", func(t *testing.T) {
		dir := t.TempDir()
		writeJack(t, dir, "A.jack", "class A {\n  function void f() {\n    return;\n  }\n}\n")
		writeJack(t, dir, "B.jack", "class B {\n  function void g() {\n    return;\n  }\n}\n")

		status := Handler([]string{dir}, nil)
		require.Equal(t, 0, status)

		for _, name := range []string{"A.vm", "B.vm"} {
			_, err := os.Stat(filepath.Join(dir, name))
			assert.NoError(t, err, "expected %s to be emitted", name)
		}
	})
}
