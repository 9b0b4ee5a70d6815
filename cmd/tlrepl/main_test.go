package main

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/smasonuk/tlfront/internal/logio"
	"github.com/smasonuk/tlfront/pkg/compiler"
)

func newSession() (*session, *bytes.Buffer, *bytes.Buffer) {
	var out, errOut bytes.Buffer
	return &session{kind: compiler.Library, log: logio.New(&errOut), out: &out}, &out, &errOut
}

func TestSessionCommands(t *testing.T) {
	s, out, errOut := newSession()

	assert.False(t, s.command(":kind exe"))
	assert.Equal(t, compiler.Executable, s.kind)

	assert.False(t, s.command(":kind nope"))
	assert.Contains(t, errOut.String(), `ERROR: unknown file kind "nope"`)

	assert.False(t, s.command(":import print/1"))
	assert.Equal(t, []compiler.Import{{Name: "print", Arity: 1, Precedence: 26}}, s.imports)

	assert.False(t, s.command(":tokens"))
	assert.True(t, s.showTokens)
	assert.Contains(t, out.String(), "token dump true")

	assert.False(t, s.command(":frobnicate"))
	assert.Contains(t, errOut.String(), "ERROR: unknown command :frobnicate")

	assert.True(t, s.command(":quit"))
}

func TestSessionEval(t *testing.T) {
	s, out, errOut := newSession()

	s.command("x = 1\nx + 2")
	assert.Empty(t, errOut.String())
	assert.Contains(t, out.String(), "0: scope [")

	out.Reset()
	s.command("print 1")
	assert.Contains(t, errOut.String(), "ERROR: parse error on line 1")
	assert.Empty(t, out.String())

	s.showTokens = true
	s.command("x = 1")
	assert.Contains(t, out.String(), "0: assignment [")
}
