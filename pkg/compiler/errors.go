package compiler

import (
	"errors"
	"fmt"
	"sort"
)

// Stage names the front-end pass an Error came from.
type Stage string

const (
	StageLex   Stage = "lex"
	StageParse Stage = "parse"
)

// Error is the single fatal error of a lexing or parsing pass.
type Error struct {
	Stage   Stage
	Offset  int // byte offset into the source
	Line    int // 1-based
	Msg     string
	Snippet string // trimmed source line, parse errors only
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("%s error on line %d (byte %d): %s", e.Stage, e.Line, e.Offset, e.Msg)
	if e.Snippet != "" {
		msg += "\n  |> " + e.Snippet
	}
	return msg
}

// IsIncomplete reports whether err means the input ended while a span,
// string or other construct was still open, so more input could fix it.
func IsIncomplete(err error) bool {
	var e *Error
	if !errors.As(err, &e) || e.Stage != StageLex {
		return false
	}
	switch e.Msg {
	case errPunctuationExtraOpening, errPrematureEndOfInput, errStringUnterminated:
		return true
	}
	return false
}

func lineOf(newlines []int, pos int) int {
	return sort.SearchInts(newlines, pos) + 1
}

// Lexer errors
const (
	errEmptyInput                 = "Empty input"
	errLengthOverflow             = "Token length overflow"
	errNonASCII                   = "Non-ASCII symbols are not allowed in code - only inside comments & string literals!"
	errPrematureEndOfInput        = "Premature end of input"
	errUnrecognizedByte           = "Unrecognized byte in source code!"
	errStringUnterminated         = "String literal is not closed before the end of input!"
	errWordChunkStart             = "In an identifier, each word piece must start with a letter, optionally prefixed by 1 underscore!"
	errWordCapitalizationOrder    = "An identifier may not contain a capitalized piece after an uncapitalized one!"
	errWordUnderscoresOnlyAtStart = "Underscores are only allowed at start of word (snake case is forbidden)!"
	errWordReservedWithDot        = "Reserved words cannot be used as dot-calls or at-words!"
	errReservedCalled             = "Reserved words may not be called like functions!"
	errNumericEndUnderscore       = "Numeric literal cannot end with underscore!"
	errNumericWidthExceeded       = "Numeric literal width is exceeded!"
	errNumericBinWidthExceeded    = "Integer literals cannot exceed 64 bit!"
	errNumericFloatWidthExceeded  = "Floating-point literals cannot exceed 2**53 in the significant bits, and 22 in the decimal power!"
	errNumericEmpty               = "Could not lex a numeric literal, empty sequence!"
	errNumericMultipleDots        = "Multiple dots in numeric literals are not allowed!"
	errNumericMalformed           = "Numeric literal must not run into a letter or digit!"
	errNumericIntWidthExceeded    = "Integer literals must be within the range [-9,223,372,036,854,775,808; 9,223,372,036,854,775,807]!"
	errPunctuationExtraOpening    = "Extra opening punctuation"
	errPunctuationUnmatched       = "Unmatched closing punctuation"
	errPunctuationExtraClosing    = "Extra closing punctuation"
	errOperatorUnknown            = "Unknown operator"
	errOperatorAssignmentPunct    = "Incorrect assignment operator placement: must be directly inside a statement, after its left side!"
	errOperatorTypeDeclPunct      = "Incorrect type declaration operator placement: must be the first in a statement!"
	errOperatorMultipleAssignment = "Multiple assignment / type declaration operators within one statement are not allowed!"
	errCoreFormAssignment         = "A core form may not contain any assignments!"
)

// Parser errors
const (
	errImportsNonUnique      = "Import names must be unique!"
	errUnexpectedToken       = "Unexpected token"
	errInconsistentSpan      = "Inconsistent extent length / structure of token scopes!"
	errCoreFormTooShort      = "Statement too short: core syntax forms cannot be shorter than 3 tokens!"
	errCoreFormUnsupported   = "This core syntax form is not supported yet!"
	errCoreFormShape         = "Malformed core syntax form!"
	errBreakOutsideLoop      = "break and continue are only allowed inside a loop!"
	errFnDuplicate           = "Duplicate function declaration: a function with the same name and arity already exists in this scope!"
	errFnNameAndParams       = "Function definition must start with more than one unique words: its name and parameters!"
	errFnMissingBody         = "Function definition must contain a body which must be a Scope immediately following its parameter list!"
	errExpressionCannotParse = "Cannot parse expression!"
	errExpressionInnerScope  = "Expressions cannot contain scopes or statements!"
	errOperatorWrongArity    = "Wrong number of arguments for operator!"
	errOperatorMisplaced     = "Operator used in an inappropriate location!"
	errUnknownBinding        = "Unknown binding!"
	errUnknownFunction       = "Unknown function!"
	errAssignmentShape       = "Cannot parse assignment, it must look like [freshIdentifier] = [expression]"
	errAssignmentShadowing   = "Assignment error: existing identifier is being shadowed"
	errAssignmentImmutable   = "Cannot mutate an immutable binding!"
	errScopeContents         = "A scope may consist only of expressions, assignments, function definitions and other scopes!"
	errTypeDuplicate         = "Duplicate type declaration in this scope!"
	errTypeNameCase          = "Type names must be capitalized!"
	errBindingsOnlyContents  = "A bindings file may contain only function and type declarations at top level!"
	errTestOutsideTestFile   = "Test blocks are only allowed in test files!"
)
