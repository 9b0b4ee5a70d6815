package compiler

import (
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// lexLiteral lexes input, which must hold a single literal, and returns
// the literal's token index.
func lexLiteral(t *testing.T, input string) (*Tokens, int) {
	t.Helper()
	toks, err := Lex([]byte(input))
	require.NoError(t, err)
	require.Equal(t, 2, toks.Len(), "tokens: %v", tokenSummary(toks))
	require.Equal(t, TokStmt, toks.Kind(0))
	return toks, 1
}

func TestLexIntegers(t *testing.T) {
	for _, tc := range []struct {
		input string
		want  int64
	}{
		{"0", 0},
		{"007", 7},
		{"42", 42},
		{"-42", -42},
		{"1_000_000", 1000000},
		{"9223372036854775807", math.MaxInt64},
		{"-9223372036854775808", math.MinInt64},
		{"0xFF", 255},
		{"0x_ff", 255},
		{"-0x10", -16},
		{"0xFFFFFFFFFFFFFFFF", -1},
		{"0x7FFF_FFFF_FFFF_FFFF", math.MaxInt64},
		{"0b101", 5},
		{"0b1111_0000", 240},
		{"0b" + strings.Repeat("1", 60) + "1001", -7},
	} {
		t.Run(tc.input, func(t *testing.T) {
			toks, i := lexLiteral(t, tc.input)
			require.Equal(t, TokInt, toks.Kind(i))
			assert.Equal(t, tc.want, toks.Int(i))
			assert.Equal(t, 0, toks.StartByte(i))
			assert.Equal(t, len(tc.input), toks.LenBytes(i))
		})
	}
}

func TestLexFloats(t *testing.T) {
	for _, tc := range []struct {
		input string
		want  float64
	}{
		{"1.5", 1.5},
		{"0.1", 0.1},
		{"-2.25", -2.25},
		{"100.0", 100},
		{"3.000", 3},
		{"0.000_001", 1e-6},
		{"9007199254740992.0", 9007199254740992},
		{"1" + strings.Repeat("0", 22) + ".0", 1e22},
		{"0." + strings.Repeat("0", 21) + "1", 1e-22},
	} {
		t.Run(tc.input, func(t *testing.T) {
			toks, i := lexLiteral(t, tc.input)
			require.Equal(t, TokFloat, toks.Kind(i))
			assert.Equal(t, tc.want, toks.Float(i))
		})
	}

	t.Run("negative zero", func(t *testing.T) {
		toks, i := lexLiteral(t, "-0.0")
		require.Equal(t, TokFloat, toks.Kind(i))
		assert.True(t, math.Signbit(toks.Float(i)))
	})
}

func TestLexNumericErrors(t *testing.T) {
	for _, tc := range []struct {
		name  string
		input string
		msg   string
	}{
		{"int overflow", "9223372036854775808", errNumericIntWidthExceeded},
		{"negative int overflow", "-9223372036854775809", errNumericIntWidthExceeded},
		{"forty digits", strings.Repeat("1", 40), errNumericIntWidthExceeded},
		{"too many digits", strings.Repeat("1", 41), errNumericWidthExceeded},
		{"float beyond 2**53", "9007199254740993.0", errNumericFloatWidthExceeded},
		{"float too long", "1.0000000000000000000000001", errNumericFloatWidthExceeded},
		{"float power too large", "1" + strings.Repeat("0", 24) + ".0", errNumericFloatWidthExceeded},
		{"float power too small", "0." + strings.Repeat("0", 24) + "1", errNumericFloatWidthExceeded},
		{"multiple dots", "1.2.3", errNumericMultipleDots},
		{"trailing underscore", "1_", errNumericEndUnderscore},
		{"double underscore", "1__0", errNumericEndUnderscore},
		{"hex trailing underscore", "0xFF_", errNumericEndUnderscore},
		{"empty hex", "0x", errNumericEmpty},
		{"hex without digits", "0xg", errNumericEmpty},
		{"hex too wide", "0x" + strings.Repeat("F", 17), errNumericBinWidthExceeded},
		{"binary too wide", "0b" + strings.Repeat("1", 65), errNumericBinWidthExceeded},
		{"letters after an int", "12abc", errNumericMalformed},
		{"exponent notation", "1e5", errNumericMalformed},
		{"letters after a float", "1.5f", errNumericMalformed},
		{"letters after hex", "0xFFg", errNumericMalformed},
		{"decimal digit after binary", "0b102", errNumericMalformed},
		{"negative literal into a word", "x = -3px", errNumericMalformed},
	} {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Lex([]byte(tc.input))
			requireErrorMsg(t, err, StageLex, tc.msg)
		})
	}
}

func TestLexNumberBoundaries(t *testing.T) {
	t.Run("spaced minus is an operator", func(t *testing.T) {
		toks, err := Lex([]byte("- 5"))
		require.NoError(t, err)
		assert.Equal(t, []string{"stmt[0:3]/2", "operator[0:1]", "int[2:1]"}, tokenSummary(toks))
	})

	t.Run("dot not followed by a digit ends the number", func(t *testing.T) {
		toks, err := Lex([]byte("1 .foo"))
		require.NoError(t, err)
		assert.Equal(t, []string{"stmt[0:6]/2", "int[0:1]", ".word[2:4]"}, tokenSummary(toks))
	})

	t.Run("number then spaced word", func(t *testing.T) {
		toks, err := Lex([]byte("12 ab"))
		require.NoError(t, err)
		assert.Equal(t, []string{"stmt[0:5]/2", "int[0:2]", "word[3:2]"}, tokenSummary(toks))
	})
}
