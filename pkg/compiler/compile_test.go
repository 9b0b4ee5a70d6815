package compiler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompile(t *testing.T) {
	toks, tree, err := Compile([]byte("x = 1\nx + 2"), Executable, nil)
	require.NoError(t, err)
	assert.Equal(t, 7, toks.Len())
	assert.Equal(t, NodeFnDef, tree.Kind(0))

	toks, tree, err = Compile([]byte("x + 2"), Executable, nil)
	requireErrorMsg(t, err, StageParse, errUnknownBinding)
	assert.NotNil(t, toks, "tokens survive a parse error")
	assert.Nil(t, tree)

	toks, tree, err = Compile([]byte("(x"), Executable, nil)
	requireErrorMsg(t, err, StageLex, errPunctuationExtraOpening)
	assert.Nil(t, toks)
	assert.Nil(t, tree)
}

type logRecorder struct {
	sync.Mutex
	lines []string
}

func (lr *logRecorder) logf(format string, args ...interface{}) {
	lr.Lock()
	defer lr.Unlock()
	lr.lines = append(lr.lines, fmt.Sprintf(format, args...))
}

func testUnits() []Unit {
	return []Unit{
		{Name: "a.tl", Source: []byte("x = 1\nx"), Kind: Executable},
		{Name: "b.tl", Source: []byte("f = fn n { n * 2 }"), Kind: Library},
		{Name: "c.tl", Source: []byte("T :: Int"), Kind: BindingsOnly},
	}
}

func TestCompileAll(t *testing.T) {
	for _, workers := range []int{0, 1, 4} {
		t.Run(fmt.Sprintf("workers=%d", workers), func(t *testing.T) {
			var rec logRecorder
			results, err := CompileAll(context.Background(), testUnits(), nil, WithWorkers(workers), WithLogf(rec.logf))
			require.NoError(t, err)
			require.Len(t, results, 3)
			for i, u := range testUnits() {
				assert.Equal(t, u.Name, results[i].Unit)
				assert.NoError(t, results[i].Err)
				require.NotNil(t, results[i].AST, u.Name)
				assert.Equal(t, u.Kind, results[i].AST.FileKind)
			}
			assert.Len(t, rec.lines, 3)
			assert.Contains(t, rec.lines, "c.tl: 3 tokens, 3 nodes, "+fmt.Sprint(len(Builtins()))+" functions")
		})
	}
}

func TestCompileAllImports(t *testing.T) {
	units := []Unit{
		{Name: "a.tl", Source: []byte("ext 1"), Kind: Library},
		{Name: "b.tl", Source: []byte("ext (ext 1)"), Kind: Library},
	}
	results, err := CompileAll(context.Background(), units, []Import{fn("ext", 1)})
	require.NoError(t, err)
	for _, res := range results {
		require.NoError(t, res.Err)
		assert.Equal(t, "ext/1", res.AST.FunctionName(res.AST.Payload1(res.AST.Len()-1)))
	}
}

func TestCompileAllFailure(t *testing.T) {
	units := append(testUnits(), Unit{Name: "bad.tl", Source: []byte("y"), Kind: Library})

	t.Run("stop on first error", func(t *testing.T) {
		results, err := CompileAll(context.Background(), units, nil, WithWorkers(1))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "bad.tl: ")
		var e *Error
		require.True(t, errors.As(err, &e))
		assert.Equal(t, errUnknownBinding, e.Msg)
		assert.Equal(t, err, results[3].Err)
	})

	t.Run("keep going", func(t *testing.T) {
		var rec logRecorder
		results, err := CompileAll(context.Background(), units, nil, WithKeepGoing(true), WithLogf(rec.logf))
		require.NoError(t, err)
		for _, res := range results[:3] {
			assert.NoError(t, res.Err)
		}
		require.Error(t, results[3].Err)
		assert.NotNil(t, results[3].Tokens)
		assert.Nil(t, results[3].AST)
		assert.Len(t, rec.lines, 4)
	})

	t.Run("cancelled context", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		results, err := CompileAll(ctx, testUnits(), nil)
		assert.ErrorIs(t, err, context.Canceled)
		for _, res := range results {
			assert.ErrorIs(t, res.Err, context.Canceled)
			assert.Nil(t, res.AST)
		}
	})
}
