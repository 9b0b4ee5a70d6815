package logio

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogger(t *testing.T) {
	t.Run("levels and exit code", func(t *testing.T) {
		var out strings.Builder
		log := New(&out)
		log.Printf("INFO", "compiled %d units", 3)
		assert.Equal(t, 0, log.ExitCode())
		log.Errorf("bad unit %q", "a.tl")
		log.ErrorIf(nil)
		log.ErrorIf(errors.New("boom"))
		assert.Equal(t, 1, log.ExitCode())
		assert.Equal(t, "INFO: compiled 3 units\nERROR: bad unit \"a.tl\"\nERROR: boom\n", out.String())
	})

	t.Run("muted level", func(t *testing.T) {
		var out strings.Builder
		log := New(&out)
		log.Mute("TRACE", true)
		trace := log.Leveledf("TRACE")
		trace("hidden")
		log.Mute("TRACE", false)
		trace("shown %d", 1)
		assert.Equal(t, "TRACE: shown 1\n", out.String())
	})

	t.Run("verbatim message", func(t *testing.T) {
		var out strings.Builder
		log := New(&out)
		log.Print("", "100%\n")
		log.Print("ERROR", `unknown file kind "50%d"`)
		log.Mute("TRACE", true)
		log.Print("TRACE", "hidden")
		assert.Equal(t, "100%\nERROR: unknown file kind \"50%d\"\n", out.String())
		assert.Equal(t, 0, log.ExitCode())
	})
}

func TestWriter(t *testing.T) {
	var lines []string
	w := &Writer{Logf: func(format string, args ...interface{}) {
		require.Equal(t, "%s", format)
		lines = append(lines, string(args[0].([]byte)))
	}}
	_, err := w.Write([]byte("0: int [0; 1] 5\n1: wo"))
	require.NoError(t, err)
	assert.Equal(t, []string{"0: int [0; 1] 5"}, lines)
	_, err = w.Write([]byte("rd [2; 3]\n2: tail"))
	require.NoError(t, err)
	require.NoError(t, w.Close())
	assert.Equal(t, []string{"0: int [0; 1] 5", "1: word [2; 3]", "2: tail"}, lines)
}
