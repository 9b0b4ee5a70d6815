package panicerr

import (
	"errors"
	"fmt"
	"io"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecover(t *testing.T) {
	t.Run("plain return", func(t *testing.T) {
		require.NoError(t, Recover("ok", func() error { return nil }))
		err := Recover("eof", func() error { return io.EOF })
		assert.Equal(t, io.EOF, err)
		assert.False(t, IsPanic(err))
	})

	t.Run("panic value", func(t *testing.T) {
		err := Recover("unit a.tl", func() error { panic("index out of range") })
		require.Error(t, err)
		assert.True(t, IsPanic(err))
		assert.False(t, IsExit(err))
		assert.Equal(t, "unit a.tl panicked: index out of range", err.Error())
		assert.NotEmpty(t, PanicStack(err))
		assert.Contains(t, fmt.Sprintf("%+v", err), "Panic stack:")
	})

	t.Run("panic error unwraps", func(t *testing.T) {
		err := Recover("", func() error { panic(io.ErrUnexpectedEOF) })
		assert.True(t, errors.Is(err, io.ErrUnexpectedEOF))
		assert.Equal(t, "panicked: unexpected EOF", err.Error())
	})

	t.Run("goexit", func(t *testing.T) {
		err := Recover("quitter", func() error {
			runtime.Goexit()
			return nil
		})
		assert.True(t, IsExit(err))
		assert.Equal(t, "quitter called runtime.Goexit", err.Error())
		assert.Empty(t, PanicStack(err))
	})
}
