package compiler

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// tokenSummary renders every token as "kind[start:len]", with "/n" added
// for spans enclosing n tokens.
func tokenSummary(toks *Tokens) []string {
	out := make([]string, toks.Len())
	for i := range out {
		k := toks.Kind(i)
		out[i] = fmt.Sprintf("%s[%d:%d]", k, toks.StartByte(i), toks.LenBytes(i))
		if k.IsSpan() {
			out[i] += fmt.Sprintf("/%d", toks.LenTokens(i))
		}
	}
	return out
}

func requireErrorMsg(t *testing.T, err error, stage Stage, msg string) *Error {
	t.Helper()
	require.Error(t, err)
	var e *Error
	require.ErrorAs(t, err, &e)
	assert.Equal(t, stage, e.Stage)
	assert.Equal(t, msg, e.Msg, "error: %v", err)
	return e
}

func TestLex(t *testing.T) {
	for _, tc := range []struct {
		name  string
		input string
		want  []string
	}{
		{
			name:  "two words",
			input: "asdf Abc",
			want:  []string{"stmt[0:8]/2", "word[0:4]", "word[5:3]"},
		},
		{
			name:  "nested parens",
			input: "(car (other car) cdr)",
			want: []string{
				"stmt[0:21]/6",
				"()[1:19]/5",
				"word[1:3]",
				"()[6:9]/2",
				"word[6:5]",
				"word[12:3]",
				"word[17:3]",
			},
		},
		{
			name:  "assignment",
			input: "x = 1 + 2\n",
			want:  []string{"assignment[0:9]/4", "word[0:1]", "int[4:1]", "operator[6:1]", "int[8:1]"},
		},
		{
			name:  "assignment turns braces into a lexical scope",
			input: "{ a = 1 }",
			want:  []string{"lexScope[1:7]/3", "assignment[2:5]/2", "word[2:1]", "int[6:1]"},
		},
		{
			name:  "plain braces",
			input: "{ a }",
			want:  []string{"{}[1:3]/2", "stmt[2:1]/1", "word[2:1]"},
		},
		{
			name:  "colon scope closes with its statement",
			input: "foo: bar 1\nbaz",
			want: []string{
				"stmt[0:10]/4",
				"word[0:3]",
				"()[4:6]/2",
				"word[5:3]",
				"int[9:1]",
				"stmt[11:3]/1",
				"word[11:3]",
			},
		},
		{
			name:  "line break inside parens",
			input: "(a\nb)",
			want:  []string{"stmt[0:5]/3", "()[1:3]/2", "word[1:1]", "word[3:1]"},
		},
		{
			name:  "semicolon",
			input: "a; b",
			want:  []string{"stmt[0:1]/1", "word[0:1]", "stmt[3:1]/1", "word[3:1]"},
		},
		{
			name:  "adjacent doc comments merge",
			input: "## a\n## b\nx",
			want:  []string{"docComment[0:9]", "stmt[10:1]/1", "word[10:1]"},
		},
		{
			name:  "doc comments split by a blank line",
			input: "## a\n\n## b",
			want:  []string{"docComment[0:4]", "docComment[6:4]"},
		},
		{
			name:  "line comment",
			input: "x # note\ny",
			want:  []string{"stmt[0:1]/1", "word[0:1]", "stmt[9:1]/1", "word[9:1]"},
		},
		{
			name:  "strings",
			input: `'it\'s' "raw"`,
			want:  []string{"stmt[0:13]/2", "string[1:5]", "string[9:3]"},
		},
		{
			name:  "accessor",
			input: "a[1]",
			want:  []string{"stmt[0:4]/3", "word[0:1]", "accessor[2:1]/1", "int[2:1]"},
		},
		{
			name:  "core form",
			input: "if x => 1",
			want:  []string{"if[0:9]/3", "word[3:1]", "operator[5:2]", "int[8:1]"},
		},
		{
			name:  "function definition",
			input: "f = fn x { return x }",
			want: []string{
				"assignment[0:21]/6",
				"word[0:1]",
				"reserved[4:2]",
				"word[7:1]",
				"lexScope[10:10]/2",
				"return[11:8]/1",
				"word[18:1]",
			},
		},
		{
			name:  "dot call and at word",
			input: "a .b @c",
			want:  []string{"stmt[0:7]/3", "word[0:1]", ".word[2:2]", "@word[5:2]"},
		},
		{
			name:  "dotted word",
			input: "A.B.c._d",
			want:  []string{"stmt[0:8]/1", "word[0:8]"},
		},
		{
			name:  "byte order mark",
			input: "\xEF\xBB\xBFx",
			want:  []string{"stmt[3:1]/1", "word[3:1]"},
		},
		{
			name:  "non-ASCII inside strings and comments",
			input: "'é' # ü",
			want:  []string{"stmt[0:4]/1", "string[1:2]"},
		},
	} {
		t.Run(tc.name, func(t *testing.T) {
			toks, err := Lex([]byte(tc.input))
			require.NoError(t, err)
			assert.Equal(t, tc.want, tokenSummary(toks))
		})
	}
}

func TestLexPayloads(t *testing.T) {
	t.Run("bool", func(t *testing.T) {
		toks, err := Lex([]byte("true false"))
		require.NoError(t, err)
		assert.Equal(t, TokBool, toks.Kind(1))
		assert.Equal(t, int32(1), toks.Payload2(1))
		assert.Equal(t, int32(0), toks.Payload2(2))
	})

	t.Run("reserved word inside a statement", func(t *testing.T) {
		toks, err := Lex([]byte("a else"))
		require.NoError(t, err)
		require.Equal(t, TokReserved, toks.Kind(2))
		assert.Equal(t, ResElse, ReservedWord(toks.Payload1(2)))
	})

	t.Run("assignment codes", func(t *testing.T) {
		toks, err := Lex([]byte("a := 1\nb = 2\nc *= 3\nd +.= 4"))
		require.NoError(t, err)
		var codes []int32
		for i := 0; i < toks.Len(); i = toks.next(i) {
			require.Equal(t, TokAssignment, toks.Kind(i))
			codes = append(codes, toks.Payload1(i))
		}
		require.Len(t, codes, 4)
		assert.Equal(t, int32(assignMutable), codes[0])
		assert.Equal(t, int32(assignImmutable), codes[1])

		op, dotted := compoundOperator(codes[2])
		assert.Equal(t, "*", operators[op].name)
		assert.False(t, dotted)
		op, dotted = compoundOperator(codes[3])
		assert.Equal(t, "+", operators[op].name)
		assert.True(t, dotted)
	})

	t.Run("operator longest match", func(t *testing.T) {
		toks, err := Lex([]byte("a >=<= b c"))
		require.NoError(t, err)
		require.Equal(t, TokOperator, toks.Kind(2))
		assert.Equal(t, ">=<=", operators[toks.Payload1(2)].name)
	})

	t.Run("dotted operator", func(t *testing.T) {
		toks, err := Lex([]byte("a +. b"))
		require.NoError(t, err)
		assert.Equal(t, "+.", toks.Text(2))
		assert.Equal(t, int32(1), toks.Payload2(2))
	})

	t.Run("type declaration", func(t *testing.T) {
		toks, err := Lex([]byte("Point :: Int Int"))
		require.NoError(t, err)
		assert.Equal(t, []string{"typeDecl[0:16]/3", "word[0:5]", "word[9:3]", "word[13:3]"}, tokenSummary(toks))
	})

	t.Run("text and name", func(t *testing.T) {
		toks, err := Lex([]byte("foo .bar @baz 'q'"))
		require.NoError(t, err)
		assert.Equal(t, "foo", toks.Name(1))
		assert.Equal(t, ".bar", toks.Text(2))
		assert.Equal(t, "bar", toks.Name(2))
		assert.Equal(t, "baz", toks.Name(3))
		assert.Equal(t, "q", toks.Text(4))
	})
}

func TestLexErrors(t *testing.T) {
	for _, tc := range []struct {
		name  string
		input string
		msg   string
		line  int
	}{
		{name: "empty", input: "", msg: errEmptyInput, line: 1},
		{name: "repeated assignment", input: "x := y := 7", msg: errOperatorMultipleAssignment, line: 1},
		{name: "assignment then type declaration", input: "x = A :: B", msg: errOperatorMultipleAssignment, line: 1},
		{name: "assignment without left side", input: "= 1", msg: errOperatorAssignmentPunct, line: 1},
		{name: "assignment inside parens", input: "(x = 1)", msg: errOperatorAssignmentPunct, line: 1},
		{name: "assignment in core form", input: "if x = 1", msg: errCoreFormAssignment, line: 1},
		{name: "type declaration late", input: "A B :: C", msg: errOperatorTypeDeclPunct, line: 1},
		{name: "unclosed paren", input: "(a b", msg: errPunctuationExtraOpening, line: 1},
		{name: "unclosed brace", input: "{\na\n", msg: errPunctuationExtraOpening, line: 1},
		{name: "extra closing", input: "a\n)", msg: errPunctuationExtraClosing, line: 2},
		{name: "unmatched", input: "(a]", msg: errPunctuationUnmatched, line: 1},
		{name: "unterminated string", input: "'abc", msg: errStringUnterminated, line: 1},
		{name: "unterminated verbatim string", input: `"abc`, msg: errStringUnterminated, line: 1},
		{name: "non-ASCII", input: "a é", msg: errNonASCII, line: 1},
		{name: "unrecognized byte", input: "a ` b", msg: errUnrecognizedByte, line: 1},
		{name: "snake case", input: "a_b", msg: errWordUnderscoresOnlyAtStart, line: 1},
		{name: "capital after lowercase", input: "a.B", msg: errWordCapitalizationOrder, line: 1},
		{name: "word chunk start", input: "a._1", msg: errWordChunkStart, line: 1},
		{name: "lone underscore at end", input: "_", msg: errPrematureEndOfInput, line: 1},
		{name: "reserved dot call", input: "a .if", msg: errWordReservedWithDot, line: 1},
		{name: "reserved at word", input: "@loop", msg: errWordReservedWithDot, line: 1},
		{name: "reserved called", input: "if[1]", msg: errReservedCalled, line: 1},
		{name: "dot without word", input: "a . b", msg: errUnrecognizedByte, line: 1},
		{name: "error on third line", input: "a\nb\nc $ `", msg: errUnrecognizedByte, line: 3},
	} {
		t.Run(tc.name, func(t *testing.T) {
			toks, err := Lex([]byte(tc.input))
			assert.Nil(t, toks)
			e := requireErrorMsg(t, err, StageLex, tc.msg)
			assert.Equal(t, tc.line, e.Line)
		})
	}
}

func TestIsIncomplete(t *testing.T) {
	for _, tc := range []struct {
		input      string
		incomplete bool
	}{
		{"(a b", true},
		{"{\n  x = 1\n", true},
		{"'open string", true},
		{"_", true},
		{"a)", false},
		{"a_b", false},
		{"x := y := 1", false},
	} {
		t.Run(tc.input, func(t *testing.T) {
			_, err := Lex([]byte(tc.input))
			require.Error(t, err)
			assert.Equal(t, tc.incomplete, IsIncomplete(err))
		})
	}

	_, _, err := Compile([]byte("y"), Library, nil)
	require.Error(t, err)
	assert.False(t, IsIncomplete(err), "parse errors are never incomplete input")
}

func TestTokensDump(t *testing.T) {
	toks, err := Lex([]byte("asdf Abc -3 + 1.5"))
	require.NoError(t, err)
	assert.Equal(t, strings.Join([]string{
		`0: stmt [0; 17] 5`,
		`1: word [0; 4] "asdf"`,
		`2: word [5; 3] "Abc"`,
		`3: int [9; 2] -3`,
		`4: operator [12; 1] +`,
		`5: float [14; 3] 1.5`,
		``,
	}, "\n"), toks.String())
}

func TestTokensLineOf(t *testing.T) {
	toks, err := Lex([]byte("a\nbb\n\nc"))
	require.NoError(t, err)
	assert.Equal(t, []int{1, 4, 5}, toks.Newlines)
	assert.Equal(t, 1, toks.LineOf(0))
	assert.Equal(t, 2, toks.LineOf(2))
	assert.Equal(t, 4, toks.LineOf(6))
}
