package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeSource(t *testing.T, dir, name, src string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(p, []byte(src), 0o644))
	return p
}

func runCLI(t *testing.T, args ...string) (code int, stdout, stderr string) {
	t.Helper()
	var out, errOut bytes.Buffer
	code = run(context.Background(), args, &out, &errOut)
	return code, out.String(), errOut.String()
}

func TestRunDumps(t *testing.T) {
	dir := t.TempDir()
	entry := writeSource(t, dir, "main.tl", "x = 1\nx")

	code, stdout, stderr := runCLI(t, "-tokens", "-ast", dir)
	require.Equal(t, 0, code, stderr)
	assert.Empty(t, stderr)

	lines := strings.Split(strings.TrimSpace(stdout), "\n")
	require.Len(t, lines, 5+5+1)
	assert.True(t, strings.HasPrefix(lines[0], entry+" tokens: 0: assignment ["), lines[0])
	assert.True(t, strings.HasPrefix(lines[5], entry+" ast: 0: fnDef ["), lines[5])
	assert.Contains(t, stdout, entry+" ast: fn ")
}

func TestRunKindFlag(t *testing.T) {
	dir := t.TempDir()
	p := writeSource(t, dir, "lib.tl", "f = fn n { n }")

	code, stdout, _ := runCLI(t, "-ast", p)
	require.Equal(t, 0, code)
	assert.Contains(t, stdout, p+" ast: 0: scope [")

	code, stdout, _ = runCLI(t, "-ast", "-kind", "exe", p)
	require.Equal(t, 0, code)
	assert.Contains(t, stdout, p+" ast: 0: fnDef [")

	code, _, stderr := runCLI(t, "-kind", "module", p)
	assert.Equal(t, 2, code)
	assert.Contains(t, stderr, `unknown file kind "module"`)
}

func TestRunImports(t *testing.T) {
	dir := t.TempDir()
	p := writeSource(t, dir, "calls.tl", "print 1")

	code, _, stderr := runCLI(t, p)
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr, "ERROR: "+p+": parse error on line 1")

	code, _, stderr = runCLI(t, "-import", "print/1", p)
	assert.Equal(t, 0, code, stderr)

	code, _, stderr = runCLI(t, "-import", "print", p)
	assert.Equal(t, 2, code)
	assert.Contains(t, stderr, "want name/arity[/precedence]")
}

func TestRunFailures(t *testing.T) {
	dir := t.TempDir()
	writeSource(t, dir, "a.tl", "x = 1")
	bad := writeSource(t, dir, "b.tl", "(x")
	writeSource(t, dir, "c.tl", "y = 2")

	code, _, stderr := runCLI(t, "-keep-going", "-trace", dir)
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr, "ERROR: "+bad+": lex error on line 1")
	assert.Contains(t, stderr, "TRACE: 3 units, 1 failed")

	code, _, stderr = runCLI(t, filepath.Join(dir, "missing.tl"))
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr, "ERROR: ")

	code, _, stderr = runCLI(t)
	assert.Equal(t, 2, code)
	assert.Contains(t, stderr, "nothing to do")
}

func TestImportListString(t *testing.T) {
	var l importList
	require.NoError(t, l.Set("f/1"))
	require.NoError(t, l.Set("g/2/5"))
	assert.Equal(t, "f/1/26,g/2/5", l.String())
}
