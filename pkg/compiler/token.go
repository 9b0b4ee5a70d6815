package compiler

import (
	"fmt"
	"io"
	"math"
	"strings"
)

// TokenKind identifies the category of a lexed token.
type TokenKind uint8

const (
	// Literals
	TokInt    TokenKind = iota // payload: high/low halves of an int64
	TokFloat                   // payload: high/low halves of the IEEE-754 bits
	TokBool                    // payload2: 1 or 0
	TokString                  // bytes of the literal without its quotes

	TokDocComment // "## ..." lines, merged when adjacent
	TokWord       // identifier, possibly dot-separated: a.B.c
	TokDotWord    // ".name", the infix dot-call
	TokAtWord     // "@name"
	TokReserved   // reserved word not leading its statement; payload1: ReservedWord
	TokOperator   // payload1: operator index, payload2: 1 for a "." extension

	// Spans. payload2 holds the number of enclosed tokens, written once on close.
	TokCurlyBraces // { }
	TokBrackets    // [ ]
	TokParens      // ( ) and colon scopes
	TokAccessor    // word[ ]
	TokStmt        // implicit statement
	TokAssignment  // statement with "=", ":=" or "op="; payload1: assignment code
	TokTypeDecl    // statement with "::"
	TokLexScope    // { } holding bindings or function definitions

	// Core forms: statements mutated by a leading reserved word.
	TokAlias
	TokAwait
	TokBreak
	TokContinue
	TokEmbed
	TokExport
	TokFn
	TokFor
	TokIf
	TokIfEq
	TokIfPr
	TokImpl
	TokInterface
	TokLoop
	TokMatch
	TokMut
	TokReturn
	TokStruct
	TokTest
	TokTry
	TokType
	TokWhile
	TokYield

	tokKindCount
)

const (
	firstSpanKind     = TokCurlyBraces
	firstCoreFormKind = TokAlias
)

var tokenNames = [...]string{
	TokInt:         "int",
	TokFloat:       "float",
	TokBool:        "bool",
	TokString:      "string",
	TokDocComment:  "docComment",
	TokWord:        "word",
	TokDotWord:     ".word",
	TokAtWord:      "@word",
	TokReserved:    "reserved",
	TokOperator:    "operator",
	TokCurlyBraces: "{}",
	TokBrackets:    "[]",
	TokParens:      "()",
	TokAccessor:    "accessor",
	TokStmt:        "stmt",
	TokAssignment:  "assignment",
	TokTypeDecl:    "typeDecl",
	TokLexScope:    "lexScope",
	TokAlias:       "alias",
	TokAwait:       "await",
	TokBreak:       "break",
	TokContinue:    "continue",
	TokEmbed:       "embed",
	TokExport:      "export",
	TokFn:          "fn",
	TokFor:         "for",
	TokIf:          "if",
	TokIfEq:        "ifEq",
	TokIfPr:        "ifPr",
	TokImpl:        "impl",
	TokInterface:   "interface",
	TokLoop:        "loop",
	TokMatch:       "match",
	TokMut:         "mut",
	TokReturn:      "return",
	TokStruct:      "struct",
	TokTest:        "test",
	TokTry:         "try",
	TokType:        "type",
	TokWhile:       "while",
	TokYield:       "yield",
}

func (k TokenKind) String() string {
	if int(k) < len(tokenNames) && tokenNames[k] != "" {
		return tokenNames[k]
	}
	return fmt.Sprintf("TokenKind(%d)", int(k))
}

// IsSpan reports whether tokens of this kind enclose other tokens.
func (k TokenKind) IsSpan() bool { return k >= firstSpanKind }

// IsStatement reports whether the kind is a statement or a core form.
func (k TokenKind) IsStatement() bool {
	return k == TokStmt || k == TokAssignment || k == TokTypeDecl || k >= firstCoreFormKind
}

// IsCoreForm reports whether the kind was produced by a leading reserved word.
func (k TokenKind) IsCoreForm() bool { return k >= firstCoreFormKind }

// Assignment codes stored in payload1 of a TokAssignment token. Compound
// assignments store assignCompound + 2*operator index, plus 1 when the
// operator carries a '.' extension.
const (
	assignImmutable = 0 // =
	assignMutable   = 1 // :=
	assignCompound  = 2 // op=
)

// Tokens is the finished output of the lexer: the flat token records plus
// the source they index into.
type Tokens struct {
	buf      *Buffer
	Source   []byte
	Newlines []int // byte offsets of every '\n'
}

// Len returns the total token count.
func (t *Tokens) Len() int { return t.buf.Len() }

func (t *Tokens) Kind(i int) TokenKind { return TokenKind(t.buf.Kind(i)) }

func (t *Tokens) StartByte(i int) int { return t.buf.StartByte(i) }

func (t *Tokens) LenBytes(i int) int { return t.buf.LenBytes(i) }

func (t *Tokens) Payload1(i int) int32 { return t.buf.Payload1(i) }

func (t *Tokens) Payload2(i int) int32 { return t.buf.Payload2(i) }

// LenTokens returns how many tokens a span token encloses, not counting
// itself. It is zero for non-span tokens.
func (t *Tokens) LenTokens(i int) int {
	if !t.Kind(i).IsSpan() {
		return 0
	}
	return int(t.buf.Payload2(i))
}

// Int returns the value of a TokInt token.
func (t *Tokens) Int(i int) int64 { return t.buf.Int64(i) }

// Float returns the value of a TokFloat token.
func (t *Tokens) Float(i int) float64 { return math.Float64frombits(uint64(t.buf.Int64(i))) }

// Text returns the source bytes covered by token i.
func (t *Tokens) Text(i int) string {
	start := t.StartByte(i)
	return string(t.Source[start : start+t.LenBytes(i)])
}

// Name returns the identifier carried by a word-like token, without the
// leading '.' or '@'.
func (t *Tokens) Name(i int) string {
	s := t.Text(i)
	switch t.Kind(i) {
	case TokDotWord, TokAtWord:
		return s[1:]
	}
	return s
}

// LineOf returns the 1-based line holding byte offset pos.
func (t *Tokens) LineOf(pos int) int {
	return lineOf(t.Newlines, pos)
}

// next returns the index of the token after i, skipping the contents of
// a span.
func (t *Tokens) next(i int) int {
	return i + 1 + t.LenTokens(i)
}

// Dump writes one line per token: "i: kind [start; len] p1 p2".
func (t *Tokens) Dump(w io.Writer) error {
	for i := 0; i < t.Len(); i++ {
		k := t.Kind(i)
		var err error
		switch {
		case k.IsSpan():
			_, err = fmt.Fprintf(w, "%d: %s [%d; %d] %d\n", i, k, t.StartByte(i), t.LenBytes(i), t.LenTokens(i))
		case k == TokInt:
			_, err = fmt.Fprintf(w, "%d: %s [%d; %d] %d\n", i, k, t.StartByte(i), t.LenBytes(i), t.Int(i))
		case k == TokFloat:
			_, err = fmt.Fprintf(w, "%d: %s [%d; %d] %g\n", i, k, t.StartByte(i), t.LenBytes(i), t.Float(i))
		case k == TokOperator:
			_, err = fmt.Fprintf(w, "%d: %s [%d; %d] %s\n", i, k, t.StartByte(i), t.LenBytes(i), operators[t.Payload1(i)].name)
		case k == TokReserved:
			_, err = fmt.Fprintf(w, "%d: %s [%d; %d] %s\n", i, k, t.StartByte(i), t.LenBytes(i), ReservedWord(t.Payload1(i)))
		default:
			_, err = fmt.Fprintf(w, "%d: %s [%d; %d] %q\n", i, k, t.StartByte(i), t.LenBytes(i), t.Text(i))
		}
		if err != nil {
			return err
		}
	}
	return nil
}

func (t *Tokens) String() string {
	var sb strings.Builder
	_ = t.Dump(&sb)
	return sb.String()
}
